package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	health "github.com/fableford/uptime-health-go"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(New())
	require.NoError(t, err)

	assert.Equal(t, health.DefaultServiceName, cfg.Service.Name)
	assert.Equal(t, DefaultEnvironment, cfg.Service.Environment)
	assert.Equal(t, DefaultHTTPAddr, cfg.HTTP.Addr)
	assert.Equal(t, 5*time.Second, cfg.HTTP.ReadHeaderTimeout)
	assert.Equal(t, 10*time.Second, cfg.HTTP.ShutdownTimeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("HEALTHD_SERVICE_NAME", "orders")
	t.Setenv("HEALTHD_HTTP_ADDR", "127.0.0.1:9090")
	t.Setenv("HEALTHD_HTTP_SHUTDOWN_TIMEOUT", "3s")
	t.Setenv("HEALTHD_METRICS_ENABLED", "false")

	cfg, err := Load(New())
	require.NoError(t, err)

	assert.Equal(t, "orders", cfg.Service.Name)
	assert.Equal(t, "127.0.0.1:9090", cfg.HTTP.Addr)
	assert.Equal(t, 3*time.Second, cfg.HTTP.ShutdownTimeout)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "healthd.yaml")
	content := `
service:
  name: billing
  environment: production
log:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	v := New()
	require.NoError(t, ReadFile(v, path))

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "billing", cfg.Service.Name)
	assert.Equal(t, "production", cfg.Service.Environment)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestReadFile_Errors(t *testing.T) {
	v := New()
	assert.NoError(t, ReadFile(v, ""))

	err := ReadFile(v, filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config read")
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("HEALTHD_SERVICE_ENVIRONMENT=staging\n"), 0o644))

	// Registers cleanup for the variable the file sets.
	t.Setenv("HEALTHD_SERVICE_ENVIRONMENT", "")
	require.NoError(t, os.Unsetenv("HEALTHD_SERVICE_ENVIRONMENT"))

	require.NoError(t, LoadDotEnv(path, filepath.Join(dir, "absent.env")))

	cfg, err := Load(New())
	require.NoError(t, err)
	assert.Equal(t, "staging", cfg.Service.Environment)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			Service: ServiceConfig{Name: "svc"},
			HTTP:    HTTPConfig{Addr: ":8080", ReadHeaderTimeout: time.Second, ShutdownTimeout: time.Second},
			Log:     LogConfig{Level: "info", Format: "text"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "blank service name allowed", mutate: func(c *Config) { c.Service.Name = "  " }},
		{name: "empty addr", mutate: func(c *Config) { c.HTTP.Addr = "" }, wantErr: KeyHTTPAddr},
		{name: "zero read header timeout", mutate: func(c *Config) { c.HTTP.ReadHeaderTimeout = 0 }, wantErr: KeyReadHeaderTimeout},
		{name: "negative shutdown timeout", mutate: func(c *Config) { c.HTTP.ShutdownTimeout = -time.Second }, wantErr: KeyShutdownTimeout},
		{name: "bad level", mutate: func(c *Config) { c.Log.Level = "loud" }, wantErr: KeyLogLevel},
		{name: "bad format", mutate: func(c *Config) { c.Log.Format = "xml" }, wantErr: KeyLogFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)

	level, err = ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	_, err = ParseLevel("verbose")
	assert.Error(t, err)
}
