package nansen

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hyper-signals/daily-feed/internal/config"
	"github.com/hyper-signals/daily-feed/internal/logger"
	"github.com/hyper-signals/daily-feed/internal/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.DefaultFeedConfig()
	cfg.Nansen.Address = srv.URL
	cfg.Nansen.RequestsPerMinute = 60000
	cfg.Retry.InitialBackoff = time.Millisecond

	log := logger.NewNopLogger()
	c, err := NewClient(cfg, "test-key", retry.NewPolicy(cfg.Retry, log), log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestFetchSymbol(t *testing.T) {
	var got positionsRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, _perpPositionsURL, r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("apiKey"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		writeJSON(w, http.StatusOK, `{"data": [
			{"address_label": "Whale", "side": "Long", "position_value_usd": 15500000, "entry_price": 98500, "upnl_usd": 850000},
			{"address": "0x1", "side": "Short", "position_value_usd": 900000, "entry_price": 99000, "upnl_usd": -1200}
		], "pagination": {"page": 1, "per_page": 10, "is_last_page": false}}`)
	})

	r, err := c.FetchSymbol(context.Background(), "BTC")
	require.NoError(t, err)

	assert.Equal(t, "BTC", got.TokenSymbol)
	assert.Equal(t, pagination{Page: 1, PerPage: 10}, got.Pagination)
	assert.Equal(t, []orderBy{{Field: "position_value_usd", Direction: "DESC"}}, got.OrderBy)

	require.Len(t, r.Data, 2)
	assert.Equal(t, "Whale", r.Data[0].AddressLabel)
	assert.Equal(t, "15500000", r.Data[0].PositionValueUSD.String())
	assert.Equal(t, "-1200", r.Data[1].UPnlUSD.String())
	require.NotNil(t, r.Pagination)
	assert.Equal(t, 10, r.Pagination.PerPage)
}

func TestFetchSymbolEmptyIsValid(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"data": []}`)
	})

	r, err := c.FetchSymbol(context.Background(), "HYPE")
	require.NoError(t, err)
	assert.NotNil(t, r.Data)
	assert.Empty(t, r.Data)
}

func TestFetchSymbolRetries(t *testing.T) {
	tests := []struct {
		name     string
		statuses []int
		attempts int32
		wantErr  bool
	}{
		{name: "server error exhausts", statuses: []int{500, 500, 500}, attempts: 3, wantErr: true},
		{name: "not found is fatal", statuses: []int{404}, attempts: 1, wantErr: true},
		{name: "unauthorized is fatal", statuses: []int{401}, attempts: 1, wantErr: true},
		{name: "rate limit then success", statuses: []int{429, 200}, attempts: 2},
		{name: "bad gateway twice then success", statuses: []int{502, 503, 200}, attempts: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits atomic.Int32
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				n := hits.Add(1)
				status := tt.statuses[min(int(n), len(tt.statuses))-1]
				if status == http.StatusOK {
					writeJSON(w, status, `{"data": []}`)
					return
				}
				writeJSON(w, status, `{"message": "upstream says no"}`)
			})

			_, err := c.FetchSymbol(context.Background(), "ETH")
			if tt.wantErr {
				require.Error(t, err)
				var status *retry.StatusError
				require.ErrorAs(t, err, &status)
				assert.Equal(t, tt.statuses[len(tt.statuses)-1], status.StatusCode)
				assert.Contains(t, status.Body, "upstream says no")
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.attempts, hits.Load())
		})
	}
}

func TestFetchAll(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req positionsRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.TokenSymbol == "SOL" {
			writeJSON(w, http.StatusOK, `{"data": []}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"data": [{"side": "Long", "position_value_usd": 1}]}`)
	})

	snapshot, err := c.FetchAll(context.Background(), []string{"BTC", "SOL", "ETH"})
	require.NoError(t, err)

	assert.Equal(t, []string{"BTC", "SOL", "ETH"}, snapshot.Symbols)
	sol, ok := snapshot.Get("SOL")
	require.True(t, ok)
	assert.Empty(t, sol.Data)

	raw, err := json.Marshal(snapshot)
	require.NoError(t, err)
	assert.Regexp(t, `^\{"BTC":.*"SOL":.*"ETH":`, string(raw))
}

func TestFetchAllKeepsPayloadVerbatim(t *testing.T) {
	body := `{"data":[{"address_label":"W","side":"Long","position_value_usd":15500000,"entry_price":98500,"upnl_usd":850000,"token_symbol":"BTC","margin_used_usd":12345}],"pagination":{"page":1,"per_page":10,"is_last_page":true}}`
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, body)
	})

	snapshot, err := c.FetchAll(context.Background(), []string{"BTC"})
	require.NoError(t, err)

	raw, err := json.Marshal(snapshot)
	require.NoError(t, err)
	assert.Equal(t, `{"BTC":`+body+`}`, string(raw))
}

func TestFetchAllAbortsOnClientError(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		writeJSON(w, http.StatusForbidden, `{"message": "forbidden"}`)
	})

	snapshot, err := c.FetchAll(context.Background(), []string{"BTC", "ETH"})
	require.Error(t, err)
	assert.Nil(t, snapshot)
	assert.Equal(t, int32(1), hits.Load())
}

func TestFetchAllNoSymbols(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	_, err := c.FetchAll(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoSymbols)
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(config.DefaultFeedConfig(), "", nil, logger.NewNopLogger())
	assert.ErrorIs(t, err, config.ErrMissingVariable)
	assert.Contains(t, err.Error(), config.NansenAPIKeyVar)
}

func TestPing(t *testing.T) {
	var got positionsRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(w, http.StatusOK, `{"data": []}`)
	})

	require.NoError(t, c.Ping(context.Background()))
	assert.Equal(t, 1, got.Pagination.PerPage)
	assert.Empty(t, got.OrderBy)
}
