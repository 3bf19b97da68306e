package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestLoad_EnvVarOverrides(t *testing.T) {
	configPath := writeConfig(t, "config.yaml", `
global:
  log_level: info
server:
  listen: ":9090"
database:
  driver: sqlite
  sqlite:
    path: /var/lib/mtt/results.db
report:
  client: OMPI
  default_date: Since Yesterday
`)

	tests := []struct {
		name     string
		envVars  map[string]string
		validate func(t *testing.T, cfg *Config)
	}{
		{
			name:    "no env vars uses yaml values",
			envVars: map[string]string{},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "info", cfg.Global.LogLevel)
				assert.Equal(t, ":9090", cfg.Server.Listen)
				assert.Equal(t, "sqlite", cfg.Database.Driver)
				assert.Equal(t, "/var/lib/mtt/results.db", cfg.Database.SQLite.Path)
				assert.Equal(t, "OMPI", cfg.Report.Client)
				assert.Equal(t, "Since Yesterday", cfg.Report.DefaultDate)
			},
		},
		{
			name: "string override - log_level",
			envVars: map[string]string{
				"MTT_GLOBAL_LOG_LEVEL": "debug",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "debug", cfg.Global.LogLevel)
			},
		},
		{
			name: "nested field override - database.sqlite.path",
			envVars: map[string]string{
				"MTT_DATABASE_SQLITE_PATH": "/tmp/custom.db",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "/tmp/custom.db", cfg.Database.SQLite.Path)
			},
		},
		{
			name: "key absent from yaml - postgres port",
			envVars: map[string]string{
				"MTT_DATABASE_POSTGRES_PORT": "6543",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 6543, cfg.Database.Postgres.Port)
			},
		},
		{
			name: "boolean override - report.debug",
			envVars: map[string]string{
				"MTT_REPORT_DEBUG": "true",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.True(t, cfg.Report.Debug)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg, err := Load(configPath)
			require.NoError(t, err)

			tt.validate(t, cfg)
		})
	}
}

func TestLoad_MergesFiles(t *testing.T) {
	base := writeConfig(t, "base.yaml", `
database:
  driver: postgres
  postgres:
    host: db.example.org
    database: mtt
report:
  client: MTT
`)
	overlay := writeConfig(t, "overlay.yaml", `
report:
  client: OMPI
publish:
  local:
    enabled: true
    dir: /srv/digests
`)

	cfg, err := Load(base, overlay)
	require.NoError(t, err)

	assert.Equal(t, "db.example.org", cfg.Database.Postgres.Host)
	assert.Equal(t, "OMPI", cfg.Report.Client)
	require.NotNil(t, cfg.Publish.Local)
	assert.True(t, cfg.Publish.Local.Enabled)
	assert.Equal(t, "/srv/digests", cfg.Publish.Local.Dir)
	assert.True(t, cfg.Publish.Enabled())
	require.NoError(t, cfg.Validate())
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultLogLevel, cfg.Global.LogLevel)
	assert.Equal(t, DefaultListen, cfg.Server.Listen)
	assert.Equal(t, DefaultClient, cfg.Report.Client)
	assert.Equal(t, DefaultDate, cfg.Report.DefaultDate)
	assert.Equal(t, DefaultSummaryConcurrency, cfg.Report.Summary.Concurrency)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr string
	}{
		{
			name:   "valid sqlite",
			mutate: func(_ *Config) {},
		},
		{
			name: "unknown driver",
			mutate: func(cfg *Config) {
				cfg.Database.Driver = "mysql"
			},
			wantErr: "unsupported driver",
		},
		{
			name: "sqlite without path",
			mutate: func(cfg *Config) {
				cfg.Database.SQLite.Path = ""
			},
			wantErr: "sqlite.path is required",
		},
		{
			name: "rate limit without budget",
			mutate: func(cfg *Config) {
				cfg.Server.RateLimit = RateLimitConfig{Enabled: true}
			},
			wantErr: "requests_per_minute",
		},
		{
			name: "s3 publisher without bucket",
			mutate: func(cfg *Config) {
				cfg.Publish.S3 = &S3PublishConfig{Enabled: true}
			},
			wantErr: "s3.bucket is required",
		},
		{
			name: "local publisher without dir",
			mutate: func(cfg *Config) {
				cfg.Publish.Local = &LocalPublishConfig{Enabled: true}
			},
			wantErr: "local.dir is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Database: DatabaseConfig{
					Driver: "sqlite",
					SQLite: SQLiteDatabaseConfig{Path: ":memory:"},
				},
			}
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)

				return
			}

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
