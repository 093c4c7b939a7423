package thread

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/hyper-signals/daily-feed/internal/config"
	"github.com/hyper-signals/daily-feed/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() time.Time {
	return time.Date(2026, time.October, 16, 9, 0, 0, 0, time.UTC)
}

func newFormatter(tokens ...string) *Formatter {
	cfg := config.DefaultFeedConfig()
	if len(tokens) > 0 {
		cfg.Tokens = tokens
	}
	return NewFormatter(cfg).WithClock(fixedClock)
}

func decodeSnapshot(t *testing.T, raw string) *model.Snapshot {
	t.Helper()
	s := model.NewSnapshot()
	require.NoError(t, json.Unmarshal([]byte(raw), s))
	return s
}

func TestFormatSingleSymbol(t *testing.T) {
	snapshot := decodeSnapshot(t, `{"BTC": {"data": [{"address_label": "Whale_BTC_Long", "side": "Long",
		"position_value_usd": 15500000, "entry_price": 98500, "upnl_usd": 850000}]}}`)

	posts := newFormatter("BTC").Format(snapshot)
	require.Len(t, posts, 3)

	btc := posts[1].Text
	assert.Contains(t, btc, "$BTC Top Positions")
	assert.Contains(t, btc, "Longs: 1 | 🔴 Shorts: 0")
	assert.Contains(t, btc, "Whale_BTC_Long")
	assert.Contains(t, btc, "$15.5M")
	assert.Contains(t, btc, "$98,500")
	assert.Contains(t, btc, "+$850.0K")
	assert.Contains(t, btc, "✅")
}

func TestFormatPostCount(t *testing.T) {
	snapshot := decodeSnapshot(t, `{
		"BTC": {"data": [{"side": "Long", "position_value_usd": 1}]},
		"ETH": {"data": []},
		"SOL": [{"side": "Short", "position_value_usd": 2}]
	}`)

	f := newFormatter()
	posts := f.Format(snapshot)

	assert.Len(t, posts, len(config.DefaultTokens)+2)
	assert.Equal(t, f.Header(), posts[0])
	assert.Equal(t, Footer(), posts[len(posts)-1])
	assert.Equal(t, "$ETH: No positions found", posts[2].Text)
	assert.Contains(t, posts[3].Text, "$SOL Top Positions")
	assert.Equal(t, "$HYPE: No positions found", posts[4].Text)
}

func TestFormatNilSnapshot(t *testing.T) {
	posts := newFormatter("BTC", "ETH").Format(nil)
	require.Len(t, posts, 4)
	assert.Equal(t, "$BTC: No positions found", posts[1].Text)
	assert.Equal(t, "$ETH: No positions found", posts[2].Text)
}

func TestHeader(t *testing.T) {
	header := newFormatter().Header().Text

	assert.True(t, strings.HasPrefix(header, "🔥 Hyperliquid Daily Positions"))
	assert.Contains(t, header, "📅 October 16, 2026")
	assert.Contains(t, header, "Top 10 positions for:\n$BTC $ETH $SOL $HYPE")
	assert.True(t, strings.HasSuffix(header, "Thread 👇"))
}

func TestSymbolPost(t *testing.T) {
	f := newFormatter()

	tests := []struct {
		name     string
		raw      string
		contains []string
	}{
		{
			name: "short losing position",
			raw: `[{"address_label": "Very Long Fund Label Name", "side": "Short",
				"position_value_usd": "2300000000", "entry_price": "187.456", "upnl_usd": "-1250000"},
				{"side": "Long", "position_value_usd": 10}, {"side": "Short", "position_value_usd": 5}]`,
			contains: []string{"Longs: 1 | 🔴 Shorts: 2", "Very Long Fund La…", "🔴 Short $2.3B",
				"└ Entry: $187.46", "❌ uPnL: -$1.2M"},
		},
		{
			name:     "address fallback",
			raw:      `[{"address": "0xabc", "side": "Long", "position_value_usd": 999, "entry_price": 0.5, "upnl_usd": 0}]`,
			contains: []string{"Top: 0xabc", "🟢 Long $999", "$0.5000", "✅ uPnL: $0"},
		},
		{
			name:     "no label",
			raw:      `[{"position_value_usd": 1000}]`,
			contains: []string{"Top: Unknown", "Unknown $1.0K"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r model.SymbolResult
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &r))

			text := f.SymbolPost("SOL", r).Text
			for _, s := range tt.contains {
				assert.Contains(t, text, s)
			}
		})
	}
}
