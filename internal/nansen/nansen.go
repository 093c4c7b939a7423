package nansen

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/hyper-signals/daily-feed/internal/config"
	"github.com/hyper-signals/daily-feed/internal/logger"
	"github.com/hyper-signals/daily-feed/internal/model"
	"github.com/hyper-signals/daily-feed/internal/retry"
	"go.uber.org/ratelimit"
	"resty.dev/v3"
)

const (
	_perpPositionsURL = "/api/v1/tgm/perp-positions"
	_orderField       = "position_value_usd"
)

var ErrNoSymbols = errors.New("no symbols to fetch")

type pagination struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

type orderBy struct {
	Field     string `json:"field"`
	Direction string `json:"direction"`
}

type positionsRequest struct {
	TokenSymbol string     `json:"token_symbol"`
	Pagination  pagination `json:"pagination"`
	OrderBy     []orderBy  `json:"order_by,omitempty"`
}

// Client fetches ranked perp positions, one request per symbol.
type Client struct {
	c      *resty.Client
	cfg    config.NansenConfig
	policy *retry.Policy

	healthTimeout time.Duration
	rateLimiter   ratelimit.Limiter

	logger logger.Logger
}

func NewClient(cfg config.FeedConfig, apiKey string, policy *retry.Policy, logger logger.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: %s", config.ErrMissingVariable, config.NansenAPIKeyVar)
	}

	client := resty.New().
		SetLogger(logger).
		SetBaseURL(cfg.Nansen.Address).
		SetTimeout(cfg.Timeout).
		SetRetryCount(0).
		SetHeader("apiKey", apiKey).
		SetHeader("Content-Type", "application/json")

	return &Client{
		c:             client,
		cfg:           cfg.Nansen,
		policy:        policy,
		healthTimeout: cfg.HealthCheckTimeout,
		rateLimiter:   ratelimit.New(cfg.Nansen.RequestsPerMinute, ratelimit.Per(time.Minute)),
		logger:        logger,
	}, nil
}

func (c *Client) Close() error {
	return c.c.Close()
}

// FetchAll fetches every symbol in order. Any symbol failing after retries
// aborts the whole fetch.
func (c *Client) FetchAll(ctx context.Context, symbols []string) (*model.Snapshot, error) {
	if len(symbols) == 0 {
		return nil, ErrNoSymbols
	}

	snapshot := model.NewSnapshot()
	for _, symbol := range symbols {
		c.logger.Infof("Fetching %s...", symbol)
		r, err := c.FetchSymbol(ctx, symbol)
		if err != nil {
			return nil, fmt.Errorf("%w: can't fetch %s", err, symbol)
		}
		c.logger.Infof("%s: fetched %d positions", symbol, len(r.Data))
		snapshot.Set(symbol, r)
	}

	return snapshot, nil
}

// FetchSymbol returns the top positions of a symbol by value, descending.
func (c *Client) FetchSymbol(ctx context.Context, symbol string) (model.SymbolResult, error) {
	var result model.SymbolResult
	_, err := c.policy.Do(ctx, "fetch "+symbol, func(ctx context.Context) error {
		r, err := c.fetch(ctx, symbol, c.cfg.PerPage, true)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	return result, err
}

// Ping issues a single one-row request bounded by the health check timeout.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	_, err := c.fetch(ctx, "BTC", 1, false)
	return err
}

func (c *Client) fetch(ctx context.Context, symbol string, perPage int, ordered bool) (model.SymbolResult, error) {
	body := positionsRequest{
		TokenSymbol: symbol,
		Pagination:  pagination{Page: 1, PerPage: perPage},
	}
	if ordered {
		body.OrderBy = []orderBy{{Field: _orderField, Direction: "DESC"}}
	}

	c.rateLimiter.Take()
	resp, err := c.c.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&model.SymbolResult{}).
		Post(_perpPositionsURL)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return model.SymbolResult{}, backoff.Permanent(err)
		}
		return model.SymbolResult{}, fmt.Errorf("%w: can't send request for %s positions", err, symbol)
	}
	defer resp.Body.Close()

	c.logger.Debugf("got response %s status: %s, %s", resp.Request.URL, resp.Status(), resp.Duration())

	if !resp.IsSuccess() {
		return model.SymbolResult{}, &retry.StatusError{
			Op:         "fetch " + symbol,
			StatusCode: resp.StatusCode(),
			Body:       resp.String(),
		}
	}

	result, ok := resp.Result().(*model.SymbolResult)
	if !ok || result == nil {
		return model.SymbolResult{}, backoff.Permanent(fmt.Errorf("unexpected positions payload for %s", symbol))
	}
	if result.Data == nil {
		result.Data = []model.Position{}
	}

	return *result, nil
}
