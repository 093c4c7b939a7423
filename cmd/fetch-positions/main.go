package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/hyper-signals/daily-feed/internal/bootstrap"
	"github.com/hyper-signals/daily-feed/internal/config"
	"github.com/hyper-signals/daily-feed/internal/feed"
	"github.com/hyper-signals/daily-feed/internal/nansen"
)

// fetch-positions prints the ranked positions of the tracked symbols as JSON.
func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("fetch-positions", flag.ContinueOnError)
	tokens := fs.String("tokens", "", "comma-separated symbols overriding the tracked set")
	configPath := fs.String("config", "", "feed YAML config (default $FEED_CONFIG)")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	app, err := bootstrap.Load("fetch-positions", *configPath)
	if err != nil {
		log.Printf("%s: can't start", err)
		return 1
	}
	defer app.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	symbols := app.Config.Tokens
	if *tokens != "" {
		symbols = config.ParseTokens(*tokens)
	}
	app.Logger.Infof("Fetching positions for: %s", strings.Join(symbols, ", "))

	client, err := nansen.NewClient(app.Config, app.Env.NansenAPIKey, app.Policy, app.Logger)
	if err != nil {
		return app.Fail(err)
	}
	defer client.Close()

	snapshot, err := client.FetchAll(ctx, symbols)
	if err != nil {
		return app.Fail(err)
	}

	if err := feed.WriteJSON(os.Stdout, snapshot); err != nil {
		return app.Fail(err)
	}
	return app.Succeed()
}
