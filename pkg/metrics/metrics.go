// Package metrics exposes Prometheus instrumentation for provider calls.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Batch outcomes as recorded in the outcome label.
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
	OutcomeFatal   = "fatal"
)

// Recorder tracks batch and attempt counters. A nil *Recorder is valid and
// records nothing.
type Recorder struct {
	batches     *prometheus.CounterVec
	attempts    *prometheus.CounterVec
	keywords    *prometheus.CounterVec
	failedTerms *prometheus.CounterVec
	latency     *prometheus.HistogramVec
}

// NewRecorder registers the collectors with reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "searchabull",
			Name:      "batches_total",
			Help:      "Provider batches processed, by final outcome.",
		}, []string{"provider", "outcome"}),
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "searchabull",
			Name:      "attempts_total",
			Help:      "Provider HTTP attempts, including retries.",
		}, []string{"provider", "result"}),
		keywords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "searchabull",
			Name:      "keywords_requested_total",
			Help:      "Keywords sent to providers.",
		}, []string{"provider"}),
		failedTerms: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "searchabull",
			Name:      "failed_terms_total",
			Help:      "Keywords that ended in the failed-terms sheet.",
		}, []string{"provider"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "searchabull",
			Name:      "request_duration_seconds",
			Help:      "Latency of single provider HTTP attempts.",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 90},
		}, []string{"provider"}),
	}

	reg.MustRegister(r.batches, r.attempts, r.keywords, r.failedTerms, r.latency)
	return r
}

var (
	defaultOnce     sync.Once
	defaultRecorder *Recorder
)

// Default returns a recorder registered with the global Prometheus registry.
func Default() *Recorder {
	defaultOnce.Do(func() {
		defaultRecorder = NewRecorder(prometheus.DefaultRegisterer)
	})
	return defaultRecorder
}

// ObserveAttempt records a single HTTP attempt.
func (r *Recorder) ObserveAttempt(provider string, d time.Duration, err error) {
	if r == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.attempts.WithLabelValues(provider, result).Inc()
	r.latency.WithLabelValues(provider).Observe(d.Seconds())
}

// ObserveBatch records the final outcome of a batch.
func (r *Recorder) ObserveBatch(provider, outcome string, keywords int) {
	if r == nil {
		return
	}
	r.batches.WithLabelValues(provider, outcome).Inc()
	r.keywords.WithLabelValues(provider).Add(float64(keywords))
}

// ObserveFailedTerms records keywords that ended up unresolved.
func (r *Recorder) ObserveFailedTerms(provider string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.failedTerms.WithLabelValues(provider).Add(float64(n))
}
