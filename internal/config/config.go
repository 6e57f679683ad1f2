package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var (
	ErrMissingBaseURL = errors.New("api.base_url is required")
	ErrMissingAPIPath = errors.New("api.path is required")
)

// Config holds everything the client needs at startup.
type Config struct {
	API        APIConfig        `mapstructure:"api"`
	Credential CredentialConfig `mapstructure:"credential"`
	Log        LogConfig        `mapstructure:"log"`
}

// APIConfig points the client at the remote resource API.
type APIConfig struct {
	// BaseURL is the scheme+host of the remote API, e.g. https://shop.example.com.
	BaseURL string `mapstructure:"base_url"`
	// Path is the per-tenant namespace segment used in /api/{path}/... routes.
	Path    string        `mapstructure:"path"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// CredentialConfig locates the persisted bearer credential.
type CredentialConfig struct {
	File string `mapstructure:"file"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}

// Load reads configuration from an optional YAML file plus SHOPCTL_* env vars.
// Env vars win over file values.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("SHOPCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// A missing default config file is fine; env vars may carry everything.
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the two values the remote API contract requires.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return ErrMissingBaseURL
	}
	if c.API.Path == "" {
		return ErrMissingAPIPath
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// Registering the required keys lets AutomaticEnv supply them even when
	// no config file exists.
	v.SetDefault("api.base_url", "")
	v.SetDefault("api.path", "")
	v.SetDefault("api.timeout", 30*time.Second)
	v.SetDefault("credential.file", ".shopctl-credential.json")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}
