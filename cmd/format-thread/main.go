package main

import (
	"errors"
	"flag"
	"log"
	"os"

	"github.com/hyper-signals/daily-feed/internal/bootstrap"
	"github.com/hyper-signals/daily-feed/internal/feed"
	"github.com/hyper-signals/daily-feed/internal/model"
	"github.com/hyper-signals/daily-feed/internal/thread"
)

// format-thread reads fetched positions from stdin and prints the thread posts.
func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("format-thread", flag.ContinueOnError)
	configPath := fs.String("config", "", "feed YAML config (default $FEED_CONFIG)")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	app, err := bootstrap.Load("format-thread", *configPath)
	if err != nil {
		log.Printf("%s: can't start", err)
		return 1
	}
	defer app.Close()

	snapshot := model.NewSnapshot()
	if err := feed.ReadJSON(os.Stdin, snapshot); err != nil {
		return app.Fail(err)
	}

	posts := thread.NewFormatter(app.Config).Format(snapshot)
	app.Logger.Infof("Created %d posts", len(posts))

	if err := feed.WriteJSON(os.Stdout, posts); err != nil {
		return app.Fail(err)
	}
	return app.Succeed()
}
