package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/hyper-signals/daily-feed/internal/bootstrap"
	"github.com/hyper-signals/daily-feed/internal/feed"
	"github.com/hyper-signals/daily-feed/internal/nansen"
	"github.com/hyper-signals/daily-feed/internal/thread"
	"github.com/hyper-signals/daily-feed/internal/typefully"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("daily-feed", flag.ContinueOnError)
	dryRun := fs.Bool("dry-run", false, "preview the thread without creating a draft")
	schedule := fs.Int("schedule", 0, "schedule the draft N minutes from now")
	healthCheck := fs.Bool("health-check", false, "probe API connectivity and exit")
	configPath := fs.String("config", "", "feed YAML config (default $FEED_CONFIG)")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	app, err := bootstrap.Load("daily-feed", *configPath)
	if err != nil {
		log.Printf("%s: can't start", err)
		return 1
	}
	defer app.Close()

	if *schedule < 0 {
		return app.Fail(fmt.Errorf("invalid schedule value: %d", *schedule))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app.Logger.Infof("%s", strings.Repeat("=", 50))
	app.Logger.Infof("Hyperliquid Daily Feed")
	app.Logger.Infof("%s", strings.Repeat("=", 50))

	if err := feed.Validate(app.Env, *dryRun || *healthCheck, app.Logger); err != nil {
		return app.Fail(err)
	}

	fetcher, err := nansen.NewClient(app.Config, app.Env.NansenAPIKey, app.Policy, app.Logger)
	if err != nil {
		return app.Fail(err)
	}
	defer fetcher.Close()

	publisher := typefully.NewClient(app.Config, app.Env.TypefullyAPIKey, app.Policy, app.Logger)
	defer publisher.Close()

	pipeline := feed.NewPipeline(
		app.Config, app.Env, fetcher, thread.NewFormatter(app.Config), publisher,
		app.Recorder, os.Stdout, app.Logger,
	)

	if *healthCheck {
		_, ok, err := pipeline.HealthCheck(ctx)
		if err != nil {
			return app.Fail(err)
		}
		if !ok {
			return app.Fail(errors.New("health check failed"))
		}
		return app.Succeed()
	}

	if _, err := pipeline.Run(ctx, feed.Options{DryRun: *dryRun, ScheduleMinutes: *schedule}); err != nil {
		return app.Fail(err)
	}
	return app.Succeed()
}
