package config

import "fmt"

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Listen      string          `yaml:"listen" mapstructure:"listen"`
	CORSOrigins []string        `yaml:"cors_origins,omitempty" mapstructure:"cors_origins"`
	RateLimit   RateLimitConfig `yaml:"rate_limit,omitempty" mapstructure:"rate_limit"`
}

// RateLimitConfig configures per-IP rate limiting of the report endpoints.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled" mapstructure:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
}

// DatabaseConfig configures the results database connection.
type DatabaseConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"`
	// AutoMigrate creates the results tables when missing. Production
	// databases own their schema and leave this off.
	AutoMigrate bool                   `yaml:"auto_migrate" mapstructure:"auto_migrate"`
	SQLite      SQLiteDatabaseConfig   `yaml:"sqlite,omitempty" mapstructure:"sqlite"`
	Postgres    PostgresDatabaseConfig `yaml:"postgres,omitempty" mapstructure:"postgres"`
}

// SQLiteDatabaseConfig contains SQLite-specific settings.
type SQLiteDatabaseConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// PostgresDatabaseConfig contains PostgreSQL-specific settings.
type PostgresDatabaseConfig struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	User     string `yaml:"user" mapstructure:"user"`
	Password string `yaml:"password" mapstructure:"password"`
	Database string `yaml:"database" mapstructure:"database"`
	SSLMode  string `yaml:"ssl_mode" mapstructure:"ssl_mode"`
}

// Validate checks the database settings.
func (c *DatabaseConfig) Validate() error {
	switch c.Driver {
	case "sqlite":
		if c.SQLite.Path == "" {
			return fmt.Errorf("sqlite.path is required")
		}
	case "postgres":
		if c.Postgres.Host == "" {
			return fmt.Errorf("postgres.host is required")
		}

		if c.Postgres.Database == "" {
			return fmt.Errorf("postgres.database is required")
		}
	default:
		return fmt.Errorf("unsupported driver %q", c.Driver)
	}

	return nil
}

// PublishConfig configures where rendered digests are written.
type PublishConfig struct {
	Local *LocalPublishConfig `yaml:"local,omitempty" mapstructure:"local"`
	S3    *S3PublishConfig    `yaml:"s3,omitempty" mapstructure:"s3"`
}

// LocalPublishConfig writes digests into a directory.
type LocalPublishConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Dir     string `yaml:"dir" mapstructure:"dir"`
	// Owner optionally chowns published files and directories, as "UID:GID".
	Owner string `yaml:"owner,omitempty" mapstructure:"owner"`
}

// S3PublishConfig uploads digests to an S3-compatible bucket.
type S3PublishConfig struct {
	Enabled         bool   `yaml:"enabled" mapstructure:"enabled"`
	EndpointURL     string `yaml:"endpoint_url,omitempty" mapstructure:"endpoint_url"`
	Region          string `yaml:"region,omitempty" mapstructure:"region"`
	Bucket          string `yaml:"bucket" mapstructure:"bucket"`
	AccessKeyID     string `yaml:"access_key_id,omitempty" mapstructure:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty" mapstructure:"secret_access_key"`
	ForcePathStyle  bool   `yaml:"force_path_style" mapstructure:"force_path_style"`
	Prefix          string `yaml:"prefix,omitempty" mapstructure:"prefix"`
}

// Validate checks that enabled publishers are fully configured.
func (c *PublishConfig) Validate() error {
	if c.Local != nil && c.Local.Enabled && c.Local.Dir == "" {
		return fmt.Errorf("local.dir is required when local publishing is enabled")
	}

	if c.S3 != nil && c.S3.Enabled && c.S3.Bucket == "" {
		return fmt.Errorf("s3.bucket is required when s3 publishing is enabled")
	}

	return nil
}

// Enabled reports whether any publisher is configured.
func (c *PublishConfig) Enabled() bool {
	return (c.Local != nil && c.Local.Enabled) || (c.S3 != nil && c.S3.Enabled)
}
