package config

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

var DefaultTokens = []string{"BTC", "ETH", "SOL", "HYPE"}

type NansenConfig struct {
	Address           string `yaml:"address"`
	PerPage           int    `yaml:"per_page"`
	RequestsPerMinute int    `yaml:"requests_per_minute"`
}

type TypefullyConfig struct {
	Address    string   `yaml:"address"`
	Platforms  []string `yaml:"platforms"`
	DraftTitle string   `yaml:"draft_title"`
}

type RetryConfig struct {
	Attempts       int           `yaml:"attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	Multiplier     float64       `yaml:"multiplier"`
}

type ThreadConfig struct {
	LabelMaxLength int `yaml:"label_max_length"`
}

type FeedConfig struct {
	Tokens             []string        `yaml:"tokens"`
	Timeout            time.Duration   `yaml:"timeout"`
	HealthCheckTimeout time.Duration   `yaml:"health_check_timeout"`
	Retry              RetryConfig     `yaml:"retry"`
	Nansen             NansenConfig    `yaml:"nansen"`
	Typefully          TypefullyConfig `yaml:"typefully"`
	Thread             ThreadConfig    `yaml:"thread"`
}

const (
	_nansenAddressDefault     = "https://api.nansen.ai"
	_typefullyAddressDefault  = "https://api.typefully.com"
	_draftTitleDefault        = "Hyperliquid Daily Positions"
	_perPageDefault           = 10
	_requestsPerMinuteDefault = 60
	_timeoutDefault           = 30 * time.Second
	_healthCheckTimeout       = 10 * time.Second
	_retryAttemptsDefault     = 3
	_retryBackoffDefault      = 1 * time.Second
	_retryMultiplierDefault   = 2
	_labelMaxLengthDefault    = 18
)

func (c *FeedConfig) Setup() error {
	if len(c.Tokens) == 0 {
		c.Tokens = append([]string(nil), DefaultTokens...)
	}
	if c.Timeout <= 0 {
		c.Timeout = _timeoutDefault
	}
	if c.HealthCheckTimeout <= 0 {
		c.HealthCheckTimeout = _healthCheckTimeout
	}

	if c.Retry.Attempts <= 0 {
		c.Retry.Attempts = _retryAttemptsDefault
	}
	if c.Retry.InitialBackoff <= 0 {
		c.Retry.InitialBackoff = _retryBackoffDefault
	}
	if c.Retry.Multiplier < 1 {
		c.Retry.Multiplier = _retryMultiplierDefault
	}

	c.Nansen.Address = cmp.Or(c.Nansen.Address, _nansenAddressDefault)
	if _, err := url.Parse(c.Nansen.Address); err != nil {
		return fmt.Errorf("%w: bad nansen address", err)
	}
	if c.Nansen.PerPage <= 0 {
		c.Nansen.PerPage = _perPageDefault
	}
	if c.Nansen.RequestsPerMinute <= 0 {
		c.Nansen.RequestsPerMinute = _requestsPerMinuteDefault
	}

	c.Typefully.Address = cmp.Or(c.Typefully.Address, _typefullyAddressDefault)
	if _, err := url.Parse(c.Typefully.Address); err != nil {
		return fmt.Errorf("%w: bad typefully address", err)
	}
	if len(c.Typefully.Platforms) == 0 {
		c.Typefully.Platforms = []string{"x", "threads"}
	}
	c.Typefully.DraftTitle = cmp.Or(c.Typefully.DraftTitle, _draftTitleDefault)

	if c.Thread.LabelMaxLength <= 0 {
		c.Thread.LabelMaxLength = _labelMaxLengthDefault
	}

	return nil
}

func DefaultFeedConfig() FeedConfig {
	var cfg FeedConfig
	_ = cfg.Setup()
	return cfg
}

// LoadFeedConfig reads the YAML tunables. A missing file yields the defaults.
func LoadFeedConfig(filename string) (FeedConfig, error) {
	var cfg FeedConfig
	input, err := os.ReadFile(filename)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("%w: can't read file", err)
	default:
		if err := yaml.Unmarshal(input, &cfg); err != nil {
			return cfg, fmt.Errorf("%w: can't unmarshal config", err)
		}
	}

	if err := cfg.Setup(); err != nil {
		return cfg, fmt.Errorf("%w: can't setup cfg", err)
	}

	return cfg, nil
}
