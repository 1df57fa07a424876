// Package config provides hierarchical configuration loading for WinDevExpert.
// Precedence: defaults < YAML file < environment variables.
package config

import (
	"path/filepath"
	"time"
)

// Config holds all runtime configuration for the WinDevExpert server.
type Config struct {
	Server    Server    `yaml:"server"`
	Site      Site      `yaml:"site"`
	Database  Database  `yaml:"database"`
	Logging   Logging   `yaml:"logging"`
	Admin     Admin     `yaml:"admin"`
	Installer Installer `yaml:"installer"`
	SMTP      SMTP      `yaml:"smtp"`
	Slack     Slack     `yaml:"slack"`
	Discord   Discord   `yaml:"discord"`
	NATS      NATS      `yaml:"nats"`
	Cache     Cache     `yaml:"cache"`
	Breaker   Breaker   `yaml:"breaker"`
	Rate      Rate      `yaml:"rate"`
	Telemetry Telemetry `yaml:"telemetry"`
}

// Server holds HTTP server configuration.
type Server struct {
	Port       string `yaml:"port"`
	CORSOrigin string `yaml:"cors_origin"`
	Env        string `yaml:"env"` // "development" | "production"
}

// IsDevelopment reports whether the server runs in development mode.
func (s Server) IsDevelopment() bool { return s.Env == "development" }

// IsProduction reports whether the server runs in production mode.
func (s Server) IsProduction() bool { return s.Env == "production" }

// Site identifies the public deployment in emails and notifications.
type Site struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// Database holds connection settings for both repository backends.
//
// URL selects the primary (pgx) backend when set. The fallback backend uses
// FallbackDriver/FallbackDSN; an empty FallbackDSN reuses URL, or a local
// SQLite file when URL is empty as well.
type Database struct {
	URL             string        `yaml:"url"`
	FallbackDriver  string        `yaml:"fallback_driver"` // "postgres" | "mysql" | "sqlite"
	FallbackDSN     string        `yaml:"fallback_dsn"`
	MaxConns        int32         `yaml:"max_conns"`
	MinConns        int32         `yaml:"min_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time"`
	HealthCheck     time.Duration `yaml:"health_check"`
	AutoMigrate     bool          `yaml:"auto_migrate"`
}

// Logging holds structured logging configuration.
type Logging struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
	// Async hands records to a background writer; AsyncBuffer records are
	// queued before new ones are dropped.
	Async       bool `yaml:"async"`
	AsyncBuffer int  `yaml:"async_buffer"`
}

// Admin holds back-office access configuration.
type Admin struct {
	Token        string   `yaml:"token"`
	BcryptCost   int      `yaml:"bcrypt_cost"`
	NotifyEmails []string `yaml:"notify_emails"`
}

// Installer holds settings for the guided installation executor.
type Installer struct {
	Dir               string   `yaml:"dir"`
	DataDir           string   `yaml:"data_dir"`
	WritableDirs      []string `yaml:"writable_dirs"`
	RemovePaths       []string `yaml:"remove_paths"`
	DependencyCommand []string `yaml:"dependency_command"`
	RequiredTools     []string `yaml:"required_tools"`
	MinGoVersion      string   `yaml:"min_go_version"`
	Version           string   `yaml:"version"`
}

// DataPath returns DataDir resolved against Dir.
func (i Installer) DataPath() string {
	if filepath.IsAbs(i.DataDir) {
		return i.DataDir
	}
	return filepath.Join(i.Dir, i.DataDir)
}

// SMTP holds outbound mail configuration for platform notifications.
type SMTP struct {
	Host     string        `yaml:"host"`
	Port     int           `yaml:"port"`
	User     string        `yaml:"user"`
	Password string        `yaml:"password"`
	From     string        `yaml:"from"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Slack holds the optional incoming-webhook notifier configuration.
type Slack struct {
	WebhookURL string `yaml:"webhook_url"`
}

// Discord holds the optional webhook notifier configuration.
type Discord struct {
	WebhookURL string `yaml:"webhook_url"`
}

// NATS holds the optional domain event publisher configuration.
type NATS struct {
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

// Cache holds the catalog read-through cache configuration.
//
// With Shared set and NATS configured, entries are also kept in a JetStream
// key-value bucket shared by every server instance; the in-process copy then
// lives for LocalTTL only.
type Cache struct {
	MaxSizeMB int64         `yaml:"max_size_mb"`
	TTL       time.Duration `yaml:"ttl"`
	Shared    bool          `yaml:"shared"`
	LocalTTL  time.Duration `yaml:"local_ttl"`
}

// Breaker holds circuit breaker configuration for outbound mail.
type Breaker struct {
	MaxFailures int           `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Rate holds the installer endpoint rate limiter configuration.
type Rate struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// Telemetry holds OpenTelemetry exporter configuration.
type Telemetry struct {
	Endpoint    string `yaml:"endpoint"` // OTLP gRPC endpoint; empty disables export
	Insecure    bool   `yaml:"insecure"`
	ServiceName string `yaml:"service_name"`
}

// Defaults returns a Config with sensible default values for local development.
func Defaults() Config {
	return Config{
		Server: Server{
			Port:       "8080",
			CORSOrigin: "http://localhost:3000",
			Env:        "production",
		},
		Site: Site{
			Name: "WinDevExpert",
			URL:  "http://localhost:8080",
		},
		Database: Database{
			FallbackDriver:  "sqlite",
			MaxConns:        10,
			MinConns:        1,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: 10 * time.Minute,
			HealthCheck:     time.Minute,
			AutoMigrate:     true,
		},
		Logging: Logging{
			Level:       "info",
			Service:     "windevexpert",
			AsyncBuffer: 4096,
		},
		Admin: Admin{
			BcryptCost: 12,
		},
		Installer: Installer{
			Dir:           ".",
			DataDir:       "data",
			WritableDirs:  []string{"data", "uploads", "logs"},
			RemovePaths:   []string{"install"},
			RequiredTools: []string{},
			MinGoVersion:  "go1.22",
			Version:       "1.0.0",
		},
		SMTP: SMTP{
			Port:    587,
			From:    "no-reply@windevexpert.fr",
			Timeout: 10 * time.Second,
		},
		NATS: NATS{
			SubjectPrefix: "windevexpert",
		},
		Cache: Cache{
			MaxSizeMB: 32,
			TTL:       5 * time.Minute,
			LocalTTL:  30 * time.Second,
		},
		Breaker: Breaker{
			MaxFailures: 5,
			Timeout:     30 * time.Second,
		},
		Rate: Rate{
			RequestsPerSecond: 2,
			Burst:             20,
		},
		Telemetry: Telemetry{
			ServiceName: "windevexpert",
		},
	}
}
