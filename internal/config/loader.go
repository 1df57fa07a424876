package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "windevexpert.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	path := DefaultConfigFile
	if v := os.Getenv("WDE_CONFIG"); v != "" {
		path = v
	}
	return LoadFrom(path)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: operator-supplied config path
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "WDE_PORT")
	setString(&cfg.Server.CORSOrigin, "WDE_CORS_ORIGIN")
	setString(&cfg.Server.Env, "APP_ENV")

	setString(&cfg.Site.Name, "WDE_SITE_NAME")
	setString(&cfg.Site.URL, "WDE_SITE_URL")

	setString(&cfg.Database.URL, "DATABASE_URL")
	setString(&cfg.Database.FallbackDriver, "WDE_DB_FALLBACK_DRIVER")
	setString(&cfg.Database.FallbackDSN, "WDE_DB_FALLBACK_DSN")
	setInt32(&cfg.Database.MaxConns, "WDE_DB_MAX_CONNS")
	setInt32(&cfg.Database.MinConns, "WDE_DB_MIN_CONNS")
	setDuration(&cfg.Database.MaxConnLifetime, "WDE_DB_MAX_CONN_LIFETIME")
	setDuration(&cfg.Database.MaxConnIdleTime, "WDE_DB_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Database.HealthCheck, "WDE_DB_HEALTH_CHECK")
	setBool(&cfg.Database.AutoMigrate, "WDE_DB_AUTO_MIGRATE")

	setString(&cfg.Logging.Level, "WDE_LOG_LEVEL")
	setString(&cfg.Logging.Service, "WDE_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "WDE_LOG_ASYNC")
	setInt(&cfg.Logging.AsyncBuffer, "WDE_LOG_ASYNC_BUFFER")

	setString(&cfg.Admin.Token, "WDE_ADMIN_TOKEN")
	setInt(&cfg.Admin.BcryptCost, "WDE_BCRYPT_COST")
	setList(&cfg.Admin.NotifyEmails, "WDE_ADMIN_NOTIFY_EMAILS")

	// Installer
	setString(&cfg.Installer.Dir, "WDE_INSTALL_DIR")
	setString(&cfg.Installer.DataDir, "WDE_DATA_DIR")
	setList(&cfg.Installer.WritableDirs, "WDE_INSTALL_WRITABLE_DIRS")
	setList(&cfg.Installer.RemovePaths, "WDE_INSTALL_REMOVE_PATHS")
	setFields(&cfg.Installer.DependencyCommand, "WDE_INSTALL_DEPENDENCY_COMMAND")
	setList(&cfg.Installer.RequiredTools, "WDE_INSTALL_REQUIRED_TOOLS")
	setString(&cfg.Installer.MinGoVersion, "WDE_INSTALL_MIN_GO_VERSION")

	// SMTP
	setString(&cfg.SMTP.Host, "WDE_SMTP_HOST")
	setInt(&cfg.SMTP.Port, "WDE_SMTP_PORT")
	setString(&cfg.SMTP.User, "WDE_SMTP_USER")
	setString(&cfg.SMTP.Password, "WDE_SMTP_PASSWORD")
	setString(&cfg.SMTP.From, "WDE_SMTP_FROM")
	setDuration(&cfg.SMTP.Timeout, "WDE_SMTP_TIMEOUT")

	setString(&cfg.Slack.WebhookURL, "WDE_SLACK_WEBHOOK_URL")
	setString(&cfg.Discord.WebhookURL, "WDE_DISCORD_WEBHOOK_URL")
	setString(&cfg.NATS.URL, "WDE_NATS_URL")
	setString(&cfg.NATS.SubjectPrefix, "WDE_NATS_SUBJECT_PREFIX")

	setInt64(&cfg.Cache.MaxSizeMB, "WDE_CACHE_SIZE_MB")
	setDuration(&cfg.Cache.TTL, "WDE_CACHE_TTL")
	setBool(&cfg.Cache.Shared, "WDE_CACHE_SHARED")
	setDuration(&cfg.Cache.LocalTTL, "WDE_CACHE_LOCAL_TTL")

	setInt(&cfg.Breaker.MaxFailures, "WDE_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "WDE_BREAKER_TIMEOUT")
	setFloat64(&cfg.Rate.RequestsPerSecond, "WDE_RATE_RPS")
	setInt(&cfg.Rate.Burst, "WDE_RATE_BURST")

	setString(&cfg.Telemetry.Endpoint, "WDE_OTEL_ENDPOINT")
	setBool(&cfg.Telemetry.Insecure, "WDE_OTEL_INSECURE")
	setString(&cfg.Telemetry.ServiceName, "WDE_OTEL_SERVICE_NAME")
}

var validFallbackDrivers = map[string]bool{
	"postgres": true,
	"mysql":    true,
	"sqlite":   true,
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if !validFallbackDrivers[cfg.Database.FallbackDriver] {
		return fmt.Errorf("database.fallback_driver must be postgres, mysql or sqlite, got %q", cfg.Database.FallbackDriver)
	}
	if cfg.Database.MaxConns < 1 {
		return errors.New("database.max_conns must be >= 1")
	}
	if cfg.Installer.Dir == "" {
		return errors.New("installer.dir is required")
	}
	if cfg.Logging.Async && cfg.Logging.AsyncBuffer < 1 {
		return errors.New("logging.async_buffer must be >= 1")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if cfg.Rate.Burst < 1 {
		return errors.New("rate.burst must be >= 1")
	}
	if cfg.Server.IsProduction() && cfg.Admin.Token == "" {
		return errors.New("admin.token is required in production")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// setList splits a comma-separated value.
func setList(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		*dst = out
	}
}

// setFields splits a whitespace-separated command line.
func setFields(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = strings.Fields(v)
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
