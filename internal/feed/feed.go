package feed

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hyper-signals/daily-feed/internal/config"
	"github.com/hyper-signals/daily-feed/internal/logger"
	"github.com/hyper-signals/daily-feed/internal/metrics"
	"github.com/hyper-signals/daily-feed/internal/model"
	"github.com/hyper-signals/daily-feed/internal/typefully"
)

type Fetcher interface {
	FetchAll(ctx context.Context, symbols []string) (*model.Snapshot, error)
	Ping(ctx context.Context) error
}

type Formatter interface {
	Format(snapshot *model.Snapshot) []model.Post
}

type Publisher interface {
	Publish(ctx context.Context, req model.PublishRequest) (model.PublishResult, error)
	Ping(ctx context.Context) error
}

type Options struct {
	DryRun          bool
	ScheduleMinutes int
}

// Pipeline chains fetch, format and publish. Nothing is published unless
// every symbol was fetched.
type Pipeline struct {
	cfg config.FeedConfig
	env config.Env

	fetcher   Fetcher
	formatter Formatter
	publisher Publisher

	recorder *metrics.Recorder
	out      io.Writer
	now      func() time.Time

	logger logger.Logger
}

func NewPipeline(
	cfg config.FeedConfig, env config.Env, fetcher Fetcher, formatter Formatter, publisher Publisher,
	recorder *metrics.Recorder, out io.Writer, logger logger.Logger,
) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		env:       env,
		fetcher:   fetcher,
		formatter: formatter,
		publisher: publisher,
		recorder:  recorder,
		out:       out,
		now:       time.Now,
		logger:    logger,
	}
}

func (p *Pipeline) WithClock(now func() time.Time) *Pipeline {
	cp := *p
	cp.now = now
	return &cp
}

// Validate logs every missing credential by name and fails if any is missing.
func Validate(env config.Env, dryRun bool, logger logger.Logger) error {
	missing := env.Missing(dryRun)
	if len(missing) == 0 {
		return nil
	}
	for _, name := range missing {
		hint := ""
		if name == config.TypefullyAPIKeyVar {
			hint = " (required unless --dry-run)"
		}
		logger.Errorf("%s is not set%s", name, hint)
	}
	logger.Errorf("Set missing environment variables or use --dry-run mode")
	return env.Validate(dryRun)
}

func (p *Pipeline) Run(ctx context.Context, opts Options) (model.PublishResult, error) {
	if err := Validate(p.env, opts.DryRun, p.logger); err != nil {
		return model.PublishResult{}, err
	}

	p.logger.Infof("Fetching positions from Nansen API...")
	start := p.now()
	snapshot, err := p.fetcher.FetchAll(ctx, p.cfg.Tokens)
	p.recorder.ObserveStage("fetch", p.now().Sub(start))
	if err != nil {
		return model.PublishResult{}, fmt.Errorf("%w: can't fetch positions", err)
	}
	for _, symbol := range snapshot.Symbols {
		r, _ := snapshot.Get(symbol)
		p.recorder.SetPositions(symbol, len(r.Data))
	}

	p.logger.Infof("Formatting thread...")
	posts := p.formatter.Format(snapshot)
	p.recorder.SetPosts(len(posts))
	p.logger.Infof("Created %d posts", len(posts))

	req := model.PublishRequest{
		Posts:       posts,
		SocialSetID: p.env.TypefullySocialSetID,
		PublishAt:   typefully.ScheduleAt(p.now(), opts.ScheduleMinutes),
		DryRun:      opts.DryRun,
	}

	switch {
	case opts.DryRun:
		p.logger.Infof("DRY RUN MODE - Thread preview:")
		if err := p.preview(posts); err != nil {
			return model.PublishResult{}, err
		}
	case req.PublishAt != nil:
		p.logger.Infof("Scheduling draft (%d min from now)...", opts.ScheduleMinutes)
	default:
		p.logger.Infof("Creating draft...")
	}

	start = p.now()
	result, err := p.publisher.Publish(ctx, req)
	p.recorder.ObserveStage("publish", p.now().Sub(start))
	if err != nil {
		return model.PublishResult{}, fmt.Errorf("%w: can't publish thread", err)
	}

	if opts.DryRun {
		p.logger.Infof("Dry run complete. No posts created.")
	} else {
		p.logger.Infof("Success! Draft ID: %s", result.ID)
	}

	if err := WriteJSON(p.out, result); err != nil {
		return result, err
	}
	return result, nil
}

// HealthCheck probes the ranking API, and the scheduling API when its key is
// set, then prints the status document. ok is false when a probe failed.
func (p *Pipeline) HealthCheck(ctx context.Context) (status model.HealthStatus, ok bool, err error) {
	if err := Validate(p.env, true, p.logger); err != nil {
		return status, false, err
	}

	p.logger.Infof("Running health check...")
	status.Timestamp = p.now()

	if err := p.fetcher.Ping(ctx); err != nil {
		p.logger.Warnf("Nansen health check failed: %s", err)
	} else {
		status.Nansen = true
	}

	probed := p.env.TypefullyAPIKey != ""
	if probed {
		if err := p.publisher.Ping(ctx); err != nil {
			p.logger.Warnf("Typefully health check failed: %s", err)
		} else {
			status.Typefully = true
		}
	}

	if err := WriteJSON(p.out, status); err != nil {
		return status, false, err
	}
	return status, status.OK(probed), nil
}

func (p *Pipeline) preview(posts []model.Post) error {
	var b strings.Builder
	for i, post := range posts {
		fmt.Fprintf(&b, "\n--- Post %d ---\n%s\n", i+1, post.Text)
	}
	b.WriteString("\n" + strings.Repeat("=", 50) + "\n")

	if _, err := io.WriteString(p.out, b.String()); err != nil {
		return fmt.Errorf("%w: can't write preview", err)
	}
	return nil
}
