package tracker

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
)

// Tracker reports fatal run errors to Sentry. Without a DSN it does nothing.
type Tracker struct {
	hub *sentry.Hub
}

func New(dsn, environment string) (*Tracker, error) {
	if dsn == "" {
		return &Tracker{}, nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: environment,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: can't init sentry", err)
	}

	return &Tracker{hub: sentry.CurrentHub()}, nil
}

func (t *Tracker) Enabled() bool {
	return t != nil && t.hub != nil
}

func (t *Tracker) CaptureError(err error, tags map[string]string) {
	if !t.Enabled() || err == nil {
		return
	}

	hub := t.hub.Clone()
	hub.ConfigureScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
	})
	hub.CaptureException(err)
}

func (t *Tracker) Flush(timeout time.Duration) {
	if !t.Enabled() {
		return
	}
	t.hub.Flush(timeout)
}
