package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hyper-signals/daily-feed/internal/bootstrap"
	"github.com/hyper-signals/daily-feed/internal/feed"
	"github.com/hyper-signals/daily-feed/internal/model"
	"github.com/hyper-signals/daily-feed/internal/typefully"
)

// post-thread reads a JSON array of posts from stdin and submits it as a draft.
func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("post-thread", flag.ContinueOnError)
	dryRun := fs.Bool("dry-run", false, "preview the draft without creating it")
	schedule := fs.Int("schedule", 0, "schedule the draft N minutes from now")
	configPath := fs.String("config", "", "feed YAML config (default $FEED_CONFIG)")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	app, err := bootstrap.Load("post-thread", *configPath)
	if err != nil {
		log.Printf("%s: can't start", err)
		return 1
	}
	defer app.Close()

	if *schedule < 0 {
		return app.Fail(fmt.Errorf("invalid schedule value: %d", *schedule))
	}
	if err := feed.Validate(app.Env, *dryRun, app.Logger); err != nil {
		return app.Fail(err)
	}

	var posts []model.Post
	if err := feed.ReadJSON(os.Stdin, &posts); err != nil {
		return app.Fail(fmt.Errorf("%w: expected JSON array of posts", err))
	}
	if len(posts) == 0 {
		return app.Fail(model.ErrEmptyPosts)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client := typefully.NewClient(app.Config, app.Env.TypefullyAPIKey, app.Policy, app.Logger)
	defer client.Close()

	req := model.PublishRequest{
		Posts:       posts,
		SocialSetID: app.Env.TypefullySocialSetID,
		PublishAt:   typefully.ScheduleAt(time.Now(), *schedule),
		DryRun:      *dryRun,
	}
	if req.PublishAt != nil {
		app.Logger.Infof("Scheduling draft (%d min) with %d posts...", *schedule, len(posts))
	} else {
		app.Logger.Infof("Creating draft with %d posts...", len(posts))
	}

	result, err := client.Publish(ctx, req)
	if err != nil {
		return app.Fail(err)
	}

	if err := feed.WriteJSON(os.Stdout, result); err != nil {
		return app.Fail(err)
	}
	return app.Succeed()
}
