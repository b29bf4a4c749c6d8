package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/projecteru2/core/log"
	coretypes "github.com/projecteru2/core/types"
	"github.com/spf13/viper"
)

const (
	envPrefix = "ORKA"

	defaultTimeoutSeconds = 30
	defaultMaxRetries     = 3
)

// Config holds the Orka client configuration.
type Config struct {
	// BaseURL is the API endpoint, e.g. http://10.221.188.100/api/v1.
	// Env: ORKA_BASE_URL. Required.
	BaseURL string `json:"base_url" mapstructure:"base_url"`
	// Token is the bearer token of the acting user.
	// Env: ORKA_TOKEN.
	Token string `json:"token" mapstructure:"token"`
	// LicenseKey enables administrative actions on resources owned by
	// other users. Empty means administrative actions fail locally.
	// Env: ORKA_LICENSE_KEY.
	LicenseKey string `json:"license_key" mapstructure:"license_key"`
	// Identity is the email of the acting user.
	// Env: ORKA_IDENTITY.
	Identity string `json:"identity" mapstructure:"identity"`
	// TimeoutSeconds bounds a single HTTP round trip.
	// Env: ORKA_TIMEOUT_SECONDS. Default: 30.
	TimeoutSeconds int `json:"timeout_seconds" mapstructure:"timeout_seconds"`
	// MaxRetries bounds retries of read requests. Negative disables retries.
	// Env: ORKA_MAX_RETRIES. Default: 3.
	MaxRetries int `json:"max_retries" mapstructure:"max_retries"`
	// Log configuration, uses eru core's ServerLogConfig.
	Log coretypes.ServerLogConfig `json:"log" mapstructure:"log"`
}

// DefaultConfig returns a Config with every default filled in.
func DefaultConfig() *Config {
	return &Config{
		TimeoutSeconds: defaultTimeoutSeconds,
		MaxRetries:     defaultMaxRetries,
		Log: coretypes.ServerLogConfig{
			Level: "info",
		},
	}
}

// Load reads the configuration from path (optional) and ORKA_* environment
// variables, which take precedence over the file.
func Load(path string) (*Config, error) {
	conf := DefaultConfig()
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only covers keys viper already knows about.
	v.SetDefault("base_url", conf.BaseURL)
	v.SetDefault("token", conf.Token)
	v.SetDefault("license_key", conf.LicenseKey)
	v.SetDefault("identity", conf.Identity)
	v.SetDefault("timeout_seconds", conf.TimeoutSeconds)
	v.SetDefault("max_retries", conf.MaxRetries)
	v.SetDefault("log.level", conf.Log.Level)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	if err := v.Unmarshal(conf); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if conf.TimeoutSeconds <= 0 {
		conf.TimeoutSeconds = defaultTimeoutSeconds
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// Validate reports configuration that cannot produce a working client.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("base_url is required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("base_url %q: %w", c.BaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return fmt.Errorf("base_url %q must be an absolute http(s) URL", c.BaseURL)
	}
	if c.LicenseKey != "" && c.Token == "" {
		return errors.New("license_key requires a token")
	}
	return nil
}

// Timeout is TimeoutSeconds as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SetupLog initializes the global logger from c.Log.
func (c *Config) SetupLog(ctx context.Context) error {
	if err := log.SetupLog(ctx, &c.Log, ""); err != nil {
		return fmt.Errorf("setup log: %w", err)
	}
	return nil
}
