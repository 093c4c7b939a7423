package typefully

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cenkalti/backoff/v5"
	"github.com/hyper-signals/daily-feed/internal/config"
	"github.com/hyper-signals/daily-feed/internal/logger"
	"github.com/hyper-signals/daily-feed/internal/model"
	"github.com/hyper-signals/daily-feed/internal/retry"
	"resty.dev/v3"
)

const (
	_socialSetsURL   = "/v2/social-sets"
	_draftsURL       = "/v2/social-sets/{id}/drafts"
	_publishAtLayout = "2006-01-02T15:04:05Z"
	_titleDateLayout = "2006-01-02"
)

var ErrNoSocialSets = errors.New("no social sets found, connect an account at typefully.com")

type Platform struct {
	Enabled bool         `json:"enabled"`
	Posts   []model.Post `json:"posts"`
}

// DraftPayload is the create-draft request body.
type DraftPayload struct {
	Platforms  map[string]Platform `json:"platforms"`
	DraftTitle string              `json:"draft_title"`
	Share      bool                `json:"share"`
	PublishAt  string              `json:"publish_at,omitempty"`
}

type draftResponse struct {
	ID       model.ID `json:"id"`
	Status   string   `json:"status"`
	ShareURL string   `json:"share_url"`
}

// Client submits threads as drafts to the scheduling API.
type Client struct {
	c      *resty.Client
	cfg    config.TypefullyConfig
	policy *retry.Policy
	apiKey string

	healthTimeout time.Duration
	now           func() time.Time

	logger logger.Logger
}

// NewClient accepts an empty key; only dry runs can be served without one.
func NewClient(cfg config.FeedConfig, apiKey string, policy *retry.Policy, logger logger.Logger) *Client {
	client := resty.New().
		SetLogger(logger).
		SetBaseURL(cfg.Typefully.Address).
		SetTimeout(cfg.Timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json")
	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}

	return &Client{
		c:             client,
		cfg:           cfg.Typefully,
		policy:        policy,
		apiKey:        apiKey,
		healthTimeout: cfg.HealthCheckTimeout,
		now:           time.Now,
		logger:        logger,
	}
}

func (c *Client) WithClock(now func() time.Time) *Client {
	cp := *c
	cp.now = now
	return &cp
}

func (c *Client) Close() error {
	return c.c.Close()
}

// ScheduleAt converts a delay in minutes into an absolute UTC publish time.
// Zero or negative delays mean no schedule.
func ScheduleAt(now time.Time, minutes int) *time.Time {
	if minutes <= 0 {
		return nil
	}
	t := now.UTC().Add(time.Duration(minutes) * time.Minute).Truncate(time.Second)
	return &t
}

// BuildPayload produces the body of the create-draft request, the same posts
// on every enabled platform.
func (c *Client) BuildPayload(posts []model.Post, publishAt *time.Time) DraftPayload {
	platforms := make(map[string]Platform, len(c.cfg.Platforms))
	for _, p := range c.cfg.Platforms {
		platforms[p] = Platform{Enabled: true, Posts: posts}
	}

	payload := DraftPayload{
		Platforms:  platforms,
		DraftTitle: fmt.Sprintf("%s - %s", c.cfg.DraftTitle, c.now().Format(_titleDateLayout)),
		Share:      true,
	}
	if publishAt != nil {
		payload.PublishAt = publishAt.UTC().Format(_publishAtLayout)
	}

	return payload
}

// Publish creates the thread draft. In dry-run mode nothing is sent: the
// payload is logged and a synthetic result is returned.
func (c *Client) Publish(ctx context.Context, req model.PublishRequest) (model.PublishResult, error) {
	if len(req.Posts) == 0 {
		return model.PublishResult{}, model.ErrEmptyPosts
	}

	payload := c.BuildPayload(req.Posts, req.PublishAt)

	if req.DryRun {
		preview, err := sonic.ConfigStd.MarshalIndent(payload, "", "  ")
		if err != nil {
			return model.PublishResult{}, fmt.Errorf("%w: can't encode draft payload", err)
		}
		c.logger.Infof("[DRY RUN] Would create draft with payload:\n%s", preview)
		return model.PublishResult{
			ID:         model.DryRunID,
			Status:     model.StatusDryRun,
			PostsCount: len(req.Posts),
			PublishAt:  req.PublishAt,
		}, nil
	}

	if c.apiKey == "" {
		return model.PublishResult{}, fmt.Errorf("%w: %s", config.ErrMissingVariable, config.TypefullyAPIKeyVar)
	}

	socialSetID, err := c.ResolveSocialSet(ctx, req.SocialSetID)
	if err != nil {
		return model.PublishResult{}, err
	}

	var draft *draftResponse
	_, err = c.policy.Do(ctx, "create draft", func(ctx context.Context) error {
		d, err := c.createDraft(ctx, socialSetID, payload)
		if err != nil {
			return err
		}
		draft = d
		return nil
	})
	if err != nil {
		return model.PublishResult{}, fmt.Errorf("%w: can't create draft", err)
	}

	status := model.PublishStatus(draft.Status)
	if status == "" {
		status = model.StatusDraft
	}

	return model.PublishResult{
		ID:         draft.ID,
		Status:     status,
		PostsCount: len(req.Posts),
		PublishAt:  req.PublishAt,
		ShareURL:   draft.ShareURL,
	}, nil
}

// ResolveSocialSet returns id as is, or the first social set of the account when id is empty.
func (c *Client) ResolveSocialSet(ctx context.Context, id string) (string, error) {
	if id != "" {
		return id, nil
	}

	c.logger.Infof("Auto-discovering social set...")
	sets, err := c.SocialSets(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: can't discover social sets", err)
	}
	if len(sets) == 0 {
		return "", ErrNoSocialSets
	}

	set := sets[0]
	c.logger.Infof("Using social set: %s (ID: %s)", set.Username, set.ID)
	return set.ID.String(), nil
}

func (c *Client) SocialSets(ctx context.Context) ([]model.SocialSet, error) {
	var sets []model.SocialSet
	_, err := c.policy.Do(ctx, "list social sets", func(ctx context.Context) error {
		s, err := c.listSocialSets(ctx)
		if err != nil {
			return err
		}
		sets = s
		return nil
	})
	return sets, err
}

// Ping lists social sets once, bounded by the health check timeout.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	_, err := c.listSocialSets(ctx)
	return err
}

func (c *Client) listSocialSets(ctx context.Context) ([]model.SocialSet, error) {
	resp, err := c.c.R().
		SetContext(ctx).
		SetResult(&model.SocialSetsResponse{}).
		Get(_socialSetsURL)
	if err != nil {
		return nil, transportError(ctx, fmt.Errorf("%w: can't send request for social sets", err))
	}
	defer resp.Body.Close()

	c.logger.Debugf("got response %s status: %s, %s", resp.Request.URL, resp.Status(), resp.Duration())

	if !resp.IsSuccess() {
		return nil, &retry.StatusError{Op: "list social sets", StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	result, ok := resp.Result().(*model.SocialSetsResponse)
	if !ok || result == nil {
		return nil, backoff.Permanent(fmt.Errorf("unexpected social sets payload"))
	}

	return result.Results, nil
}

func (c *Client) createDraft(ctx context.Context, socialSetID string, payload DraftPayload) (*draftResponse, error) {
	resp, err := c.c.R().
		SetContext(ctx).
		SetPathParam("id", socialSetID).
		SetBody(payload).
		SetResult(&draftResponse{}).
		Post(_draftsURL)
	if err != nil {
		return nil, transportError(ctx, fmt.Errorf("%w: can't send create draft request", err))
	}
	defer resp.Body.Close()

	c.logger.Debugf("got response %s status: %s, %s", resp.Request.URL, resp.Status(), resp.Duration())

	if !resp.IsSuccess() {
		return nil, &retry.StatusError{Op: "create draft", StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	result, ok := resp.Result().(*draftResponse)
	if !ok || result == nil {
		return nil, backoff.Permanent(fmt.Errorf("unexpected draft payload"))
	}

	return result, nil
}

func transportError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return backoff.Permanent(err)
	}
	return err
}
