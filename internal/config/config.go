package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. BIZREC_SERVER_URL.
const EnvPrefix = "BIZREC"

// Config holds all client configuration, resolved once at process start
type Config struct {
	Service ServiceConfig
	Logging LoggingConfig
	Output  string
	Breaker BreakerConfig
	Metrics MetricsConfig
}

// ServiceConfig contains recommendation service connection settings
type ServiceConfig struct {
	BaseURL          string
	Timeout          time.Duration
	MaxResponseBytes int64
	PollInterval     time.Duration
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string
	Format string // json or console
}

// BreakerConfig contains circuit breaker settings
type BreakerConfig struct {
	Enabled     bool
	MaxFailures uint32
	OpenTimeout time.Duration
}

// MetricsConfig contains the optional session metrics endpoint
type MetricsConfig struct {
	Addr string
}

// Default values
const (
	DefaultServerURL = "http://localhost:8000"
	DefaultOutput    = "table"
)

// SetDefaults registers default values on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server_url", DefaultServerURL)
	v.SetDefault("timeout", 30*time.Second)
	v.SetDefault("max_response_bytes", 8<<20)
	v.SetDefault("poll_interval", 2*time.Second)
	v.SetDefault("output", DefaultOutput)
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "console")
	v.SetDefault("breaker.enabled", false)
	v.SetDefault("breaker.max_failures", 5)
	v.SetDefault("breaker.open_timeout", 30*time.Second)
	v.SetDefault("metrics_addr", "")
}

// Dir returns the directory holding the config file
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".bizrec"), nil
}

// Init prepares v: config file lookup, env overrides and defaults. An explicit cfgFile wins
// over the default location. A missing file is not an error.
func Init(v *viper.Viper, cfgFile string) error {
	// Load .env file if it exists (ignore errors as it's optional)
	_ = godotenv.Load()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		if cfgFile == "" && os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

// Load resolves the configuration from v
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Service: ServiceConfig{
			BaseURL:          v.GetString("server_url"),
			Timeout:          v.GetDuration("timeout"),
			MaxResponseBytes: v.GetInt64("max_response_bytes"),
			PollInterval:     v.GetDuration("poll_interval"),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		Output: v.GetString("output"),
		Breaker: BreakerConfig{
			Enabled:     v.GetBool("breaker.enabled"),
			MaxFailures: v.GetUint32("breaker.max_failures"),
			OpenTimeout: v.GetDuration("breaker.open_timeout"),
		},
		Metrics: MetricsConfig{
			Addr: v.GetString("metrics_addr"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	u, err := url.Parse(c.Service.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("server_url must be an absolute http(s) URL, got %q", c.Service.BaseURL)
	}

	if c.Service.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Service.Timeout)
	}

	if c.Service.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %s", c.Service.PollInterval)
	}

	switch c.Output {
	case "table", "json", "yaml":
	default:
		return fmt.Errorf("unsupported output format: %s", c.Output)
	}

	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("unsupported log format: %s", c.Logging.Format)
	}

	return nil
}
