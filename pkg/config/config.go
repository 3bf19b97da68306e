package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	// DefaultLogLevel is the default logging level.
	DefaultLogLevel = "info"

	// DefaultListen is the default HTTP listen address.
	DefaultListen = ":8080"

	// DefaultClient is the label prefix used in report titles.
	DefaultClient = "MTT"

	// DefaultDate is the date window applied when a request names none.
	DefaultDate = "Today"

	// DefaultSummaryConcurrency bounds the number of digest levels run at once.
	DefaultSummaryConcurrency = 2

	// EnvPrefix is the prefix of environment variable overrides.
	EnvPrefix = "MTT"
)

// Config is the root configuration for mtt-reporter.
type Config struct {
	Global   GlobalConfig   `yaml:"global" mapstructure:"global"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`
	Report   ReportConfig   `yaml:"report" mapstructure:"report"`
	Publish  PublishConfig  `yaml:"publish,omitempty" mapstructure:"publish"`
}

// GlobalConfig contains global application settings.
type GlobalConfig struct {
	LogLevel string `yaml:"log_level" mapstructure:"log_level"`
}

// ReportConfig contains settings of the report engine.
type ReportConfig struct {
	Client      string        `yaml:"client" mapstructure:"client"`
	DefaultDate string        `yaml:"default_date" mapstructure:"default_date"`
	Debug       bool          `yaml:"debug" mapstructure:"debug"`
	Summary     SummaryConfig `yaml:"summary,omitempty" mapstructure:"summary"`
}

// SummaryConfig configures the summary digest.
type SummaryConfig struct {
	// Presets is an optional path to a YAML file replacing the built-in
	// digest levels.
	Presets     string `yaml:"presets,omitempty" mapstructure:"presets"`
	Concurrency int    `yaml:"concurrency,omitempty" mapstructure:"concurrency"`
}

// Load reads one or more YAML configuration files. Later files are merged
// over earlier ones and MTT_* environment variables override both.
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	for i, path := range paths {
		v.SetConfigFile(path)

		var err error
		if i == 0 {
			err = v.ReadInConfig()
		} else {
			err = v.MergeInConfig()
		}

		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

// setDefaults registers every key so that AutomaticEnv can override keys
// absent from the files.
func setDefaults(v *viper.Viper) {
	v.SetDefault("global.log_level", DefaultLogLevel)

	v.SetDefault("server.listen", DefaultListen)
	v.SetDefault("server.cors_origins", []string{})
	v.SetDefault("server.rate_limit.enabled", false)
	v.SetDefault("server.rate_limit.requests_per_minute", 60)

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.auto_migrate", false)
	v.SetDefault("database.sqlite.path", "mtt.db")
	v.SetDefault("database.postgres.host", "localhost")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.user", "mtt")
	v.SetDefault("database.postgres.password", "")
	v.SetDefault("database.postgres.database", "mtt")
	v.SetDefault("database.postgres.ssl_mode", "disable")

	v.SetDefault("report.client", DefaultClient)
	v.SetDefault("report.default_date", DefaultDate)
	v.SetDefault("report.debug", false)
	v.SetDefault("report.summary.presets", "")
	v.SetDefault("report.summary.concurrency", DefaultSummaryConcurrency)

	v.SetDefault("publish.local.enabled", false)
	v.SetDefault("publish.local.dir", "")
	v.SetDefault("publish.local.owner", "")
	v.SetDefault("publish.s3.enabled", false)
	v.SetDefault("publish.s3.endpoint_url", "")
	v.SetDefault("publish.s3.region", "")
	v.SetDefault("publish.s3.bucket", "")
	v.SetDefault("publish.s3.access_key_id", "")
	v.SetDefault("publish.s3.secret_access_key", "")
	v.SetDefault("publish.s3.force_path_style", false)
	v.SetDefault("publish.s3.prefix", "")
}

// applyDefaults fills values that may have been blanked explicitly.
func (c *Config) applyDefaults() {
	if c.Global.LogLevel == "" {
		c.Global.LogLevel = DefaultLogLevel
	}

	if c.Report.Client == "" {
		c.Report.Client = DefaultClient
	}

	if c.Report.DefaultDate == "" {
		c.Report.DefaultDate = DefaultDate
	}

	if c.Report.Summary.Concurrency <= 0 {
		c.Report.Summary.Concurrency = DefaultSummaryConcurrency
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if c.Server.RateLimit.Enabled && c.Server.RateLimit.RequestsPerMinute <= 0 {
		return fmt.Errorf("server.rate_limit.requests_per_minute must be positive")
	}

	if err := c.Publish.Validate(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}

	return nil
}
