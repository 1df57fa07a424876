package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Server.Port != "8080" {
		t.Errorf("expected port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Database.FallbackDriver != "sqlite" {
		t.Errorf("expected sqlite fallback driver, got %s", cfg.Database.FallbackDriver)
	}
	if cfg.Cache.TTL != 5*time.Minute {
		t.Errorf("expected cache ttl 5m, got %v", cfg.Cache.TTL)
	}
	if len(cfg.Installer.WritableDirs) != 3 {
		t.Errorf("expected 3 writable dirs, got %v", cfg.Installer.WritableDirs)
	}
}

func TestLoadYAMLOverride(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "test.yaml")

	content := `
server:
  port: "9090"
  env: development
database:
  fallback_driver: mysql
  max_conns: 20
installer:
  writable_dirs: ["storage"]
logging:
  level: "debug"
`
	if err := os.WriteFile(yamlPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Defaults()
	if err := loadYAML(&cfg, yamlPath); err != nil {
		t.Fatal(err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Server.Port)
	}
	if !cfg.Server.IsDevelopment() {
		t.Errorf("expected development env, got %s", cfg.Server.Env)
	}
	if cfg.Database.FallbackDriver != "mysql" {
		t.Errorf("expected mysql, got %s", cfg.Database.FallbackDriver)
	}
	if cfg.Database.MaxConns != 20 {
		t.Errorf("expected max_conns 20, got %d", cfg.Database.MaxConns)
	}
	if len(cfg.Installer.WritableDirs) != 1 || cfg.Installer.WritableDirs[0] != "storage" {
		t.Errorf("expected [storage], got %v", cfg.Installer.WritableDirs)
	}
	// Unchanged fields keep defaults
	if cfg.SMTP.Port != 587 {
		t.Errorf("expected default SMTP port, got %d", cfg.SMTP.Port)
	}
}

func TestLoadYAMLMissing(t *testing.T) {
	cfg := Defaults()
	if err := loadYAML(&cfg, "/nonexistent/path.yaml"); err != nil {
		t.Errorf("missing YAML should not error, got %v", err)
	}
}

func TestLoadYAMLInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("server: [unterminated"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := Defaults()
	if err := loadYAML(&cfg, path); err == nil {
		t.Error("expected parse error")
	}
}

func TestEnvOverride(t *testing.T) {
	cfg := Defaults()

	t.Setenv("WDE_PORT", "7070")
	t.Setenv("DATABASE_URL", "postgres://test:test@db:5432/test")
	t.Setenv("WDE_DB_MAX_CONNS", "25")
	t.Setenv("WDE_LOG_LEVEL", "warn")
	t.Setenv("WDE_BREAKER_TIMEOUT", "1m")
	t.Setenv("WDE_INSTALL_WRITABLE_DIRS", "data, cache ,")
	t.Setenv("WDE_INSTALL_DEPENDENCY_COMMAND", "npm ci --omit=dev")

	loadEnv(&cfg)

	if cfg.Server.Port != "7070" {
		t.Errorf("expected port 7070, got %s", cfg.Server.Port)
	}
	if cfg.Database.URL != "postgres://test:test@db:5432/test" {
		t.Errorf("expected test URL, got %s", cfg.Database.URL)
	}
	if cfg.Database.MaxConns != 25 {
		t.Errorf("expected max_conns 25, got %d", cfg.Database.MaxConns)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected log level warn, got %s", cfg.Logging.Level)
	}
	if cfg.Breaker.Timeout != time.Minute {
		t.Errorf("expected breaker timeout 1m, got %v", cfg.Breaker.Timeout)
	}
	if got := strings.Join(cfg.Installer.WritableDirs, "|"); got != "data|cache" {
		t.Errorf("expected data|cache, got %s", got)
	}
	if got := strings.Join(cfg.Installer.DependencyCommand, "|"); got != "npm|ci|--omit=dev" {
		t.Errorf("unexpected dependency command %s", got)
	}
}

func TestEnvInvalidNumberIgnored(t *testing.T) {
	cfg := Defaults()
	t.Setenv("WDE_DB_MAX_CONNS", "lots")
	loadEnv(&cfg)
	if cfg.Database.MaxConns != 10 {
		t.Errorf("expected default max_conns 10, got %d", cfg.Database.MaxConns)
	}
}

func TestValidateRequired(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		errMsg string
	}{
		{
			name:   "empty port",
			modify: func(c *Config) { c.Server.Port = "" },
			errMsg: "server.port is required",
		},
		{
			name:   "unknown driver",
			modify: func(c *Config) { c.Database.FallbackDriver = "oracle" },
			errMsg: "database.fallback_driver",
		},
		{
			name:   "zero max conns",
			modify: func(c *Config) { c.Database.MaxConns = 0 },
			errMsg: "database.max_conns must be >= 1",
		},
		{
			name:   "empty install dir",
			modify: func(c *Config) { c.Installer.Dir = "" },
			errMsg: "installer.dir is required",
		},
		{
			name:   "zero burst",
			modify: func(c *Config) { c.Rate.Burst = 0 },
			errMsg: "rate.burst must be >= 1",
		},
		{
			name:   "production without admin token",
			modify: func(c *Config) { c.Admin.Token = "" },
			errMsg: "admin.token is required in production",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			cfg.Admin.Token = "secret"
			tt.modify(&cfg)
			err := validate(&cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("expected %q in error, got %q", tt.errMsg, err.Error())
			}
		})
	}
}

func TestValidateDevelopmentWithoutToken(t *testing.T) {
	cfg := Defaults()
	cfg.Server.Env = "development"
	if err := validate(&cfg); err != nil {
		t.Errorf("development config without token should validate, got %v", err)
	}
}

func TestLoadFrom(t *testing.T) {
	t.Setenv("WDE_ADMIN_TOKEN", "tok")
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Admin.Token != "tok" {
		t.Errorf("expected token from env, got %q", cfg.Admin.Token)
	}
}

func TestSiteAndNotifyEnv(t *testing.T) {
	cfg := Defaults()
	t.Setenv("WDE_SITE_URL", "https://www.windevexpert.fr")
	t.Setenv("WDE_ADMIN_NOTIFY_EMAILS", "admin@windevexpert.fr,ops@windevexpert.fr")
	loadEnv(&cfg)

	if cfg.Site.URL != "https://www.windevexpert.fr" || cfg.Site.Name != "WinDevExpert" {
		t.Errorf("unexpected site %+v", cfg.Site)
	}
	if len(cfg.Admin.NotifyEmails) != 2 {
		t.Errorf("notify emails = %v", cfg.Admin.NotifyEmails)
	}
}

func TestInstallerDataPath(t *testing.T) {
	i := Installer{Dir: "/srv/wde", DataDir: "data"}
	if got := i.DataPath(); got != filepath.Join("/srv/wde", "data") {
		t.Errorf("relative data dir = %q", got)
	}
	i.DataDir = "/var/lib/wde"
	if got := i.DataPath(); got != "/var/lib/wde" {
		t.Errorf("absolute data dir = %q", got)
	}
}
