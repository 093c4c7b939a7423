package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

var ErrMissingVariable = errors.New("required environment variable is not set")

const (
	NansenAPIKeyVar         = "NANSEN_API_KEY"
	TypefullyAPIKeyVar      = "TYPEFULLY_API_KEY"
	TypefullySocialSetIDVar = "TYPEFULLY_SOCIAL_SET_ID"
)

// Env holds credentials and process-level settings read from the environment.
type Env struct {
	NansenAPIKey         string `envconfig:"NANSEN_API_KEY"`
	TypefullyAPIKey      string `envconfig:"TYPEFULLY_API_KEY"`
	TypefullySocialSetID string `envconfig:"TYPEFULLY_SOCIAL_SET_ID"`

	LogLevel   string `envconfig:"LOG_LEVEL" default:"info"`
	ConfigPath string `envconfig:"FEED_CONFIG" default:"./configs/feed.yaml"`

	SentryDSN         string `envconfig:"SENTRY_DSN"`
	SentryEnvironment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
	MetricsTextfile   string `envconfig:"METRICS_TEXTFILE"`
}

func LoadEnv() (Env, error) {
	var env Env
	if err := envconfig.Process("", &env); err != nil {
		return Env{}, fmt.Errorf("%w: can't process environment", err)
	}

	env.NansenAPIKey = strings.TrimSpace(env.NansenAPIKey)
	env.TypefullyAPIKey = strings.TrimSpace(env.TypefullyAPIKey)
	env.TypefullySocialSetID = strings.TrimSpace(env.TypefullySocialSetID)

	return env, nil
}

// Missing lists the unset variables the run needs. The scheduling API key is
// only needed when posts are actually submitted.
func (e Env) Missing(dryRun bool) []string {
	var missing []string
	if e.NansenAPIKey == "" {
		missing = append(missing, NansenAPIKeyVar)
	}
	if !dryRun && e.TypefullyAPIKey == "" {
		missing = append(missing, TypefullyAPIKeyVar)
	}
	return missing
}

func (e Env) Validate(dryRun bool) error {
	if missing := e.Missing(dryRun); len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingVariable, strings.Join(missing, ", "))
	}
	return nil
}

// ParseTokens splits a --tokens value, trimming and upper-casing each symbol.
func ParseTokens(s string) []string {
	var tokens []string
	for _, t := range strings.Split(s, ",") {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}
