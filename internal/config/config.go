// Package config defines service configuration and its loading.
package config

import (
	"context"
	"fmt"
	"time"
)

// Store drivers.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// File sink drivers.
const (
	FileSinkNone  = "none"
	FileSinkLocal = "local"
	FileSinkMinio = "minio"
)

// Config contains process configuration. Keys are flat so that every one of
// them can be set from the environment.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr            string        `koanf:"addr"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// PublicBaseURL prefixes public request links in rendered documents.
	PublicBaseURL string `koanf:"public_base_url"`
	// Timezone decides where "today" starts for activity windows.
	Timezone string `koanf:"timezone"`
	// ExcludedAccounts are left out of every population rollup.
	ExcludedAccounts []string `koanf:"excluded_accounts"`

	StoreDriver   string `koanf:"store_driver"`
	SeedFile      string `koanf:"seed_file"`
	PostgresDSN   string `koanf:"postgres_dsn"`
	MigrationsURL string `koanf:"migrations_url"`
	RunMigrations bool   `koanf:"run_migrations"`

	// QueueSize bounds the email dispatch queue.
	QueueSize int `koanf:"queue_size"`
	// WorkerCount sets the number of dispatch workers.
	WorkerCount int `koanf:"worker_count"`
	// DedupeSize caps how many recent deliveries are remembered.
	DedupeSize      int           `koanf:"dedupe_size"`
	DeliveryTimeout time.Duration `koanf:"delivery_timeout"`

	FileSink           string        `koanf:"file_sink"`
	ExportDir          string        `koanf:"export_dir"`
	MinioEndpoint      string        `koanf:"minio_endpoint"`
	MinioAccessKey     string        `koanf:"minio_access_key"`
	MinioSecretKey     string        `koanf:"minio_secret_key"`
	MinioBucket        string        `koanf:"minio_bucket"`
	MinioPrefix        string        `koanf:"minio_prefix"`
	MinioUseSSL        bool          `koanf:"minio_use_ssl"`
	MinioPresignExpiry time.Duration `koanf:"minio_presign_expiry"`

	// SMTPHost empty means summary emails are logged instead of sent.
	SMTPHost     string        `koanf:"smtp_host"`
	SMTPPort     int           `koanf:"smtp_port"`
	SMTPUsername string        `koanf:"smtp_username"`
	SMTPPassword string        `koanf:"smtp_password"`
	SMTPFrom     string        `koanf:"smtp_from"`
	SMTPTimeout  time.Duration `koanf:"smtp_timeout"`
}

// New returns the defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       "text",
		Addr:            ":9080",
		ShutdownTimeout: 10 * time.Second,
		Timezone:        "UTC",
		StoreDriver:     StoreMemory,
		MigrationsURL:   "file://migrations",
		RunMigrations:   true,
		QueueSize:       1024,
		WorkerCount:     4,
		DedupeSize:      10_000,
		DeliveryTimeout: 30 * time.Second,
		FileSink:        FileSinkLocal,
		ExportDir:       "exports",
		SMTPPort:        587,
		SMTPTimeout:     15 * time.Second,
	}
}

// Location returns the configured time zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %v", ErrInvalidConfig, c.Timezone, err)
	}
	return loc, nil
}

// Validate reports the first inconsistent setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.WorkerCount <= 0:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	}

	switch c.StoreDriver {
	case StoreMemory:
	case StorePostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("%w: postgres_dsn is required for the postgres store", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store_driver %q", ErrInvalidConfig, c.StoreDriver)
	}

	switch c.FileSink {
	case FileSinkNone:
	case FileSinkLocal:
		if c.ExportDir == "" {
			return fmt.Errorf("%w: export_dir is required for the local file sink", ErrInvalidConfig)
		}
	case FileSinkMinio:
		if c.MinioEndpoint == "" || c.MinioBucket == "" {
			return fmt.Errorf("%w: minio_endpoint and minio_bucket are required for the minio file sink", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown file_sink %q", ErrInvalidConfig, c.FileSink)
	}

	if c.SMTPHost != "" && c.SMTPFrom == "" {
		return fmt.Errorf("%w: smtp_from is required when smtp_host is set", ErrInvalidConfig)
	}
	_, err := c.Location()
	return err
}
