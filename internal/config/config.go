package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	health "github.com/fableford/uptime-health-go"
)

const EnvPrefix = "HEALTHD"

const (
	KeyServiceName         = "service.name"
	KeyServiceEnvironment  = "service.environment"
	KeyServiceVersion      = "service.version"
	KeyHTTPAddr            = "http.addr"
	KeyReadHeaderTimeout   = "http.read_header_timeout"
	KeyShutdownTimeout     = "http.shutdown_timeout"
	KeyLogLevel            = "log.level"
	KeyLogFormat           = "log.format"
	KeyMetricsEnabled      = "metrics.enabled"
	DefaultHTTPAddr        = ":8080"
	DefaultEnvironment     = "development"
	defaultReadHeaderLimit = 5 * time.Second
	defaultShutdownLimit   = 10 * time.Second
)

type Config struct {
	Service ServiceConfig `mapstructure:"service"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type ServiceConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	Version     string `mapstructure:"version"`
}

type HTTPConfig struct {
	Addr              string        `mapstructure:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// New returns a viper instance with defaults and HEALTHD_* environment
// lookups configured. service.name maps to HEALTHD_SERVICE_NAME.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault(KeyServiceName, health.DefaultServiceName)
	v.SetDefault(KeyServiceEnvironment, DefaultEnvironment)
	v.SetDefault(KeyServiceVersion, "")
	v.SetDefault(KeyHTTPAddr, DefaultHTTPAddr)
	v.SetDefault(KeyReadHeaderTimeout, defaultReadHeaderLimit)
	v.SetDefault(KeyShutdownTimeout, defaultShutdownLimit)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyMetricsEnabled, true)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// LoadDotEnv loads the given .env files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// ReadFile merges a config file into v. An empty path is a no-op.
func ReadFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("config read '%s': %w", path, err)
	}
	return nil
}

func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings that would otherwise fail late at runtime. A
// blank service name is accepted; it is reported as unhealthy.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.HTTP.Addr) == "" {
		return fmt.Errorf("invalid %s: must not be empty", KeyHTTPAddr)
	}
	if c.HTTP.ReadHeaderTimeout <= 0 {
		return fmt.Errorf("invalid %s: must be positive, got %s", KeyReadHeaderTimeout, c.HTTP.ReadHeaderTimeout)
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		return fmt.Errorf("invalid %s: must be positive, got %s", KeyShutdownTimeout, c.HTTP.ShutdownTimeout)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid %s: %w", KeyLogLevel, err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid %s: %q is not one of text, json", KeyLogFormat, c.Log.Format)
	}
	return nil
}

func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, err
	}
	return level, nil
}
