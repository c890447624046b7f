package observability

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is recorded by application services, queue workers and handlers.
type Metrics interface {
	RecordOperationAttempt(ctx context.Context, operation, service string)
	RecordOperationSuccess(ctx context.Context, operation, service string)
	RecordOperationFailure(ctx context.Context, operation, service string)
	RecordOperationDuration(ctx context.Context, operation, service string, duration time.Duration)

	RecordMatchRecorded(ctx context.Context, kind string)
	RecordAchievementUnlocked(ctx context.Context, achievementID string)
	RecordReplay(ctx context.Context, duration time.Duration, driftedPlayers int)
	RecordSeasonRollover(ctx context.Context)
}

// PrometheusMetrics implements Metrics with client_golang collectors.
type PrometheusMetrics struct {
	attempts     *prometheus.CounterVec
	successes    *prometheus.CounterVec
	failures     *prometheus.CounterVec
	durations    *prometheus.HistogramVec
	matches      *prometheus.CounterVec
	achievements *prometheus.CounterVec
	replays      prometheus.Histogram
	drift        prometheus.Counter
	rollovers    prometheus.Counter
}

// NewPrometheusMetrics registers the collectors on reg.
func NewPrometheusMetrics(reg prometheus.Registerer, namespace string) *PrometheusMetrics {
	f := promauto.With(reg)
	labels := []string{"operation", "service"}
	return &PrometheusMetrics{
		attempts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "operation_attempts_total", Help: "Operations started.",
		}, labels),
		successes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "operation_success_total", Help: "Operations completed without infrastructure error.",
		}, labels),
		failures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "operation_failure_total", Help: "Operations that returned an error or panicked.",
		}, labels),
		durations: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "operation_duration_seconds", Help: "Operation latency.",
			Buckets: prometheus.DefBuckets,
		}, labels),
		matches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "matches_recorded_total", Help: "Matches recorded by kind.",
		}, []string{"kind"}),
		achievements: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "achievements_unlocked_total", Help: "Achievements granted by id.",
		}, []string{"achievement"}),
		replays: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "group_replay_duration_seconds", Help: "Full history replay latency.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		drift: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "replay_drifted_players_total", Help: "Player tracks corrected by replay.",
		}),
		rollovers: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "season_rollovers_total", Help: "Seasons closed and reopened.",
		}),
	}
}

func (m *PrometheusMetrics) RecordOperationAttempt(_ context.Context, operation, service string) {
	m.attempts.WithLabelValues(operation, service).Inc()
}

func (m *PrometheusMetrics) RecordOperationSuccess(_ context.Context, operation, service string) {
	m.successes.WithLabelValues(operation, service).Inc()
}

func (m *PrometheusMetrics) RecordOperationFailure(_ context.Context, operation, service string) {
	m.failures.WithLabelValues(operation, service).Inc()
}

func (m *PrometheusMetrics) RecordOperationDuration(_ context.Context, operation, service string, duration time.Duration) {
	m.durations.WithLabelValues(operation, service).Observe(duration.Seconds())
}

func (m *PrometheusMetrics) RecordMatchRecorded(_ context.Context, kind string) {
	m.matches.WithLabelValues(kind).Inc()
}

func (m *PrometheusMetrics) RecordAchievementUnlocked(_ context.Context, achievementID string) {
	m.achievements.WithLabelValues(achievementID).Inc()
}

func (m *PrometheusMetrics) RecordReplay(_ context.Context, duration time.Duration, driftedPlayers int) {
	m.replays.Observe(duration.Seconds())
	m.drift.Add(float64(driftedPlayers))
}

func (m *PrometheusMetrics) RecordSeasonRollover(_ context.Context) {
	m.rollovers.Inc()
}

// NoopMetrics discards everything.
type NoopMetrics struct{}

// NewNoop returns a Metrics that records nothing.
func NewNoop() Metrics { return NoopMetrics{} }

func (NoopMetrics) RecordOperationAttempt(context.Context, string, string)                 {}
func (NoopMetrics) RecordOperationSuccess(context.Context, string, string)                 {}
func (NoopMetrics) RecordOperationFailure(context.Context, string, string)                 {}
func (NoopMetrics) RecordOperationDuration(context.Context, string, string, time.Duration) {}
func (NoopMetrics) RecordMatchRecorded(context.Context, string)                            {}
func (NoopMetrics) RecordAchievementUnlocked(context.Context, string)                      {}
func (NoopMetrics) RecordReplay(context.Context, time.Duration, int)                       {}
func (NoopMetrics) RecordSeasonRollover(context.Context)                                   {}
