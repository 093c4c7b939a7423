package bootstrap

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/hyper-signals/daily-feed/internal/config"
	"github.com/hyper-signals/daily-feed/internal/logger"
	"github.com/hyper-signals/daily-feed/internal/metrics"
	"github.com/hyper-signals/daily-feed/internal/retry"
	"github.com/hyper-signals/daily-feed/internal/tracker"
	"github.com/joho/godotenv"
)

const _flushTimeout = 2 * time.Second

// App carries the ambient dependencies shared by every binary.
type App struct {
	Name   string
	RunID  string
	Env    config.Env
	Config config.FeedConfig

	Logger   logger.Logger
	Tracker  *tracker.Tracker
	Recorder *metrics.Recorder
	Policy   *retry.Policy

	syncLogger func()
}

// Load reads .env, the environment and the YAML tunables and builds the
// logger. configPath overrides FEED_CONFIG when not empty.
func Load(name, configPath string) (*App, error) {
	dotenvErr := godotenv.Load()

	env, err := config.LoadEnv()
	if err != nil {
		return nil, err
	}

	zapLogger, loggerSync, err := logger.NewZapLogger(logger.ParseLevel(env.LogLevel))
	if err != nil {
		log.Printf("%s: can't init logger", err)
		return nil, err
	}

	runID := uuid.NewString()
	l := zapLogger.With("app", name, "run_id", runID)
	if dotenvErr != nil {
		l.Warnf("can't detect .env file")
	}

	if configPath == "" {
		configPath = env.ConfigPath
	}
	cfg, err := config.LoadFeedConfig(configPath)
	if err != nil {
		loggerSync()
		return nil, fmt.Errorf("%w: can't load feed cfg", err)
	}

	t, err := tracker.New(env.SentryDSN, env.SentryEnvironment)
	if err != nil {
		l.Warnf("%s: error tracking disabled", err)
		t = &tracker.Tracker{}
	}

	recorder := metrics.NewRecorder()
	policy := retry.NewPolicy(cfg.Retry, l).WithObserver(func(op string, st retry.State) {
		recorder.AddAttempts(op, st.Attempt)
	})

	return &App{
		Name:       name,
		RunID:      runID,
		Env:        env,
		Config:     cfg,
		Logger:     l,
		Tracker:    t,
		Recorder:   recorder,
		Policy:     policy,
		syncLogger: loggerSync,
	}, nil
}

// Fail reports a fatal error and returns the process exit code.
func (a *App) Fail(err error) int {
	a.Logger.Errorf("%s", err)
	a.Tracker.CaptureError(err, map[string]string{"app": a.Name, "run_id": a.RunID})
	a.finish("error")
	return 1
}

// Succeed records a successful run and returns the process exit code.
func (a *App) Succeed() int {
	a.finish("success")
	return 0
}

func (a *App) finish(status string) {
	a.Recorder.Finish(status, time.Now())
	if a.Env.MetricsTextfile != "" {
		if err := a.Recorder.WriteTextfile(a.Env.MetricsTextfile); err != nil {
			a.Logger.Warnf("%s", err)
		}
	}
}

// Close flushes error reports and the logger.
func (a *App) Close() {
	a.Tracker.Flush(_flushTimeout)
	a.syncLogger()
}
