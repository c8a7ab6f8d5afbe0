package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry groups the core gameplay metrics. A single instance is created at
// bootstrap and shared by the matchmaker, duel controller, judge and rating
// engine.
type Registry struct {
	MatchesCreated *prometheus.CounterVec
	QueueDepth     prometheus.Gauge
	QueueExpired   prometheus.Counter
	DuelsFinalized *prometheus.CounterVec
	JudgeJobs      *prometheus.CounterVec
	JudgeCaseTime  prometheus.Histogram
	RatingUpdates  prometheus.Counter
	RatingFailures prometheus.Counter
}

// New registers gameplay metrics on the default Prometheus registry.
func New() *Registry {
	return &Registry{
		MatchesCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "duel_matches_created_total",
			Help: "Duels created, labeled by opponent kind (human or bot).",
		}, []string{"kind"}),
		QueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "duel_queue_depth",
			Help: "Number of live matchmaking queue entries at last sweep.",
		}),
		QueueExpired: promauto.NewCounter(prometheus.CounterOpts{
			Name: "duel_queue_expired_total",
			Help: "Queue entries removed because their TTL elapsed.",
		}),
		DuelsFinalized: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "duel_finalized_total",
			Help: "Finalized duels, labeled by outcome (win or draw).",
		}, []string{"outcome"}),
		JudgeJobs: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "judge_jobs_total",
			Help: "Judged submissions, labeled by scheduling class.",
		}, []string{"class"}),
		JudgeCaseTime: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "judge_case_duration_seconds",
			Help:    "Wall time spent executing a single test case.",
			Buckets: prometheus.DefBuckets,
		}),
		RatingUpdates: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rating_updates_total",
			Help: "Applied per-participant rating updates.",
		}),
		RatingFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rating_update_failures_total",
			Help: "Rating updates that failed and were logged, not retried.",
		}),
	}
}
