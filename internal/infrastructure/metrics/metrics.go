package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the comment fleet
type Metrics struct {
	// Comment metrics
	CommentsPosted  prometheus.Counter
	CommentsSkipped *prometheus.CounterVec
	CommentErrors   prometheus.Counter

	// Warmup metrics
	WarmupJoins      prometheus.Counter
	WarmupJoinErrors prometheus.Counter
	ScannerCycles    prometheus.Counter

	// Worker metrics
	LiveWorkers     prometheus.Gauge
	WorkerFailures  prometheus.Counter
	RunningAccounts prometheus.Gauge
}

var (
	// DefaultMetrics is the default metrics instance
	DefaultMetrics *Metrics
	once           sync.Once
)

// GetDefaultMetrics returns the singleton metrics instance
func GetDefaultMetrics() *Metrics {
	once.Do(func() {
		DefaultMetrics = newMetrics()
	})
	return DefaultMetrics
}

func newMetrics() *Metrics {
	return &Metrics{
		CommentsPosted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "comment_fleet_comments_posted_total",
			Help: "Total number of replies posted",
		}),
		CommentsSkipped: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "comment_fleet_comments_skipped_total",
				Help: "Total number of posts skipped by the decision policy",
			},
			[]string{"reason"},
		),
		CommentErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "comment_fleet_comment_errors_total",
			Help: "Total number of failed reply attempts",
		}),
		WarmupJoins: promauto.NewCounter(prometheus.CounterOpts{
			Name: "comment_fleet_warmup_joins_total",
			Help: "Total number of successful warmup channel joins",
		}),
		WarmupJoinErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "comment_fleet_warmup_join_errors_total",
			Help: "Total number of failed warmup channel joins",
		}),
		ScannerCycles: promauto.NewCounter(prometheus.CounterOpts{
			Name: "comment_fleet_scanner_cycles_total",
			Help: "Total number of completed warmup scanner cycles",
		}),
		LiveWorkers: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "comment_fleet_live_workers",
			Help: "Number of account workers holding a live connection",
		}),
		WorkerFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "comment_fleet_worker_failures_total",
			Help: "Total number of workers terminated by a fatal error",
		}),
		RunningAccounts: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "comment_fleet_running_accounts",
			Help: "Number of accounts with status running",
		}),
	}
}
