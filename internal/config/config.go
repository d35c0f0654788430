// Package config loads runtime configuration from flags, environment
// variables, and an optional config file via viper.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

const (
	defaultBaseURL     = "https://xhbr.rwan.org.cn/prod-api"
	defaultOutputDir   = "output"
	defaultHTTPTimeout = 30 * time.Second

	defaultMaxPages            = 100
	defaultMaxConsecutiveEmpty = 3
	defaultPatrolPageSize      = 10
	defaultListDelay           = 300 * time.Millisecond
	defaultDetailDelay         = 500 * time.Millisecond

	defaultRetryAttempts = 3
	defaultRetryDelay    = 2 * time.Second
)

// Config holds all runtime settings for the riverstats CLI.
type Config struct {
	Debug  bool        `mapstructure:"debug"`
	API    APIConfig   `mapstructure:"api"`
	Fetch  FetchConfig `mapstructure:"fetch"`
	Output OutConfig   `mapstructure:"output"`
}

// APIConfig describes how to reach the portal.
type APIConfig struct {
	BaseURL            string        `mapstructure:"base_url"`
	Timeout            time.Duration `mapstructure:"timeout"`
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify"`
}

// FetchConfig bounds the paging loops and paces requests.
type FetchConfig struct {
	MaxPages            int           `mapstructure:"max_pages"`
	MaxConsecutiveEmpty int           `mapstructure:"max_consecutive_empty"`
	PatrolPageSize      int           `mapstructure:"patrol_page_size"`
	ListDelay           time.Duration `mapstructure:"list_delay"`
	DetailDelay         time.Duration `mapstructure:"detail_delay"`
	RetryAttempts       int           `mapstructure:"retry_attempts"`
	RetryDelay          time.Duration `mapstructure:"retry_delay"`
}

// OutConfig controls where workbooks are written.
type OutConfig struct {
	Dir string `mapstructure:"dir"`
}

// Load reads configuration out of the supplied viper instance, applying
// defaults for anything unset.
func Load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("debug", false)
	v.SetDefault("api.base_url", defaultBaseURL)
	v.SetDefault("api.timeout", defaultHTTPTimeout)
	v.SetDefault("api.insecure_skip_verify", false)
	v.SetDefault("fetch.max_pages", defaultMaxPages)
	v.SetDefault("fetch.max_consecutive_empty", defaultMaxConsecutiveEmpty)
	v.SetDefault("fetch.patrol_page_size", defaultPatrolPageSize)
	v.SetDefault("fetch.list_delay", defaultListDelay)
	v.SetDefault("fetch.detail_delay", defaultDetailDelay)
	v.SetDefault("fetch.retry_attempts", defaultRetryAttempts)
	v.SetDefault("fetch.retry_delay", defaultRetryDelay)
	v.SetDefault("output.dir", defaultOutputDir)
}

// Validate rejects settings that would make the paging loops misbehave.
func (c *Config) Validate() error {
	var errs []error
	if c.API.BaseURL == "" {
		errs = append(errs, errors.New("api.base_url is required"))
	}
	if c.API.Timeout <= 0 {
		errs = append(errs, errors.New("api.timeout must be positive"))
	}
	if c.Fetch.MaxPages < 1 {
		errs = append(errs, errors.New("fetch.max_pages must be at least 1"))
	}
	if c.Fetch.MaxConsecutiveEmpty < 1 {
		errs = append(errs, errors.New("fetch.max_consecutive_empty must be at least 1"))
	}
	if c.Fetch.PatrolPageSize < 1 {
		errs = append(errs, errors.New("fetch.patrol_page_size must be at least 1"))
	}
	if c.Fetch.RetryAttempts < 1 {
		errs = append(errs, errors.New("fetch.retry_attempts must be at least 1"))
	}
	if c.Output.Dir == "" {
		errs = append(errs, errors.New("output.dir is required"))
	}
	return errors.Join(errs...)
}
