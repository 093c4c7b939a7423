package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const _namespace = "daily_feed"

// Recorder collects the metrics of a single run. A cron-driven process has no
// scrape endpoint, so the registry is written to a node-exporter textfile.
type Recorder struct {
	registry *prometheus.Registry

	stageDuration *prometheus.GaugeVec
	positions     *prometheus.GaugeVec
	attempts      *prometheus.CounterVec
	posts         prometheus.Gauge
	lastRun       *prometheus.GaugeVec
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		stageDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: _namespace,
			Name:      "stage_duration_seconds",
			Help:      "Wall time of each pipeline stage in the last run",
		}, []string{"stage"}),
		positions: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: _namespace,
			Name:      "fetched_positions",
			Help:      "Positions returned per tracked symbol in the last run",
		}, []string{"symbol"}),
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: _namespace,
			Name:      "request_attempts_total",
			Help:      "Outbound request attempts by operation",
		}, []string{"op"}),
		posts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: _namespace,
			Name:      "thread_posts",
			Help:      "Posts in the last formatted thread",
		}),
		lastRun: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: _namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the last finished run by outcome",
		}, []string{"status"}),
	}

	r.registry.MustRegister(r.stageDuration, r.positions, r.attempts, r.posts, r.lastRun)
	return r
}

func (r *Recorder) ObserveStage(stage string, d time.Duration) {
	r.stageDuration.WithLabelValues(stage).Set(d.Seconds())
}

func (r *Recorder) SetPositions(symbol string, n int) {
	r.positions.WithLabelValues(symbol).Set(float64(n))
}

func (r *Recorder) AddAttempts(op string, n int) {
	r.attempts.WithLabelValues(op).Add(float64(n))
}

func (r *Recorder) SetPosts(n int) {
	r.posts.Set(float64(n))
}

func (r *Recorder) Finish(status string, at time.Time) {
	r.lastRun.WithLabelValues(status).Set(float64(at.Unix()))
}

// WriteTextfile atomically replaces path with the current metrics.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("%w: can't write metrics textfile", err)
	}
	return nil
}
