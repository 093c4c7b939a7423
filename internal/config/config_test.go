package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedConfigDefaults(t *testing.T) {
	cfg := DefaultFeedConfig()

	assert.Equal(t, []string{"BTC", "ETH", "SOL", "HYPE"}, cfg.Tokens)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 10*time.Second, cfg.HealthCheckTimeout)
	assert.Equal(t, 3, cfg.Retry.Attempts)
	assert.Equal(t, time.Second, cfg.Retry.InitialBackoff)
	assert.InDelta(t, 2.0, cfg.Retry.Multiplier, 0)
	assert.Equal(t, "https://api.nansen.ai", cfg.Nansen.Address)
	assert.Equal(t, 10, cfg.Nansen.PerPage)
	assert.Equal(t, "https://api.typefully.com", cfg.Typefully.Address)
	assert.Equal(t, []string{"x", "threads"}, cfg.Typefully.Platforms)
	assert.Equal(t, "Hyperliquid Daily Positions", cfg.Typefully.DraftTitle)
	assert.Equal(t, 18, cfg.Thread.LabelMaxLength)

	cfg.Tokens[0] = "DOGE"
	assert.Equal(t, "BTC", DefaultTokens[0])
}

func TestLoadFeedConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
tokens: [BTC, HYPE]
timeout: 5s
retry:
  attempts: 5
nansen:
  per_page: 3
typefully:
  platforms: [x]
`), 0o600))

	cfg, err := LoadFeedConfig(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"BTC", "HYPE"}, cfg.Tokens)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 5, cfg.Retry.Attempts)
	assert.Equal(t, time.Second, cfg.Retry.InitialBackoff)
	assert.Equal(t, 3, cfg.Nansen.PerPage)
	assert.Equal(t, []string{"x"}, cfg.Typefully.Platforms)
}

func TestLoadFeedConfigMissingFile(t *testing.T) {
	cfg, err := LoadFeedConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultFeedConfig(), cfg)
}

func TestLoadFeedConfigBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tokens: {"), 0o600))

	_, err := LoadFeedConfig(path)
	assert.Error(t, err)
}

func TestLoadEnv(t *testing.T) {
	t.Setenv(NansenAPIKeyVar, "  nansen-key ")
	t.Setenv(TypefullyAPIKeyVar, "")

	env, err := LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, "nansen-key", env.NansenAPIKey)
	assert.Empty(t, env.TypefullyAPIKey)
}

func TestEnvValidate(t *testing.T) {
	tests := []struct {
		name    string
		env     Env
		dryRun  bool
		missing []string
	}{
		{name: "all set", env: Env{NansenAPIKey: "n", TypefullyAPIKey: "t"}},
		{name: "dry run needs no publisher key", env: Env{NansenAPIKey: "n"}, dryRun: true},
		{name: "publisher key", env: Env{NansenAPIKey: "n"}, missing: []string{TypefullyAPIKeyVar}},
		{name: "both", env: Env{}, missing: []string{NansenAPIKeyVar, TypefullyAPIKeyVar}},
		{name: "ranking key in dry run", env: Env{}, dryRun: true, missing: []string{NansenAPIKeyVar}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.missing, tt.env.Missing(tt.dryRun))

			err := tt.env.Validate(tt.dryRun)
			if len(tt.missing) == 0 {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrMissingVariable)
			for _, name := range tt.missing {
				assert.Contains(t, err.Error(), name)
			}
		})
	}
}

func TestParseTokens(t *testing.T) {
	assert.Equal(t, []string{"BTC", "ETH", "HYPE"}, ParseTokens(" btc, Eth ,,HYPE "))
	assert.Nil(t, ParseTokens(""))
}
