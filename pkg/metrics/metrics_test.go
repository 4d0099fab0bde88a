package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorder_Counts(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorder(reg)

	r.ObserveAttempt("dataforseo", 200*time.Millisecond, nil)
	r.ObserveAttempt("dataforseo", time.Second, errors.New("boom"))
	r.ObserveBatch("dataforseo", OutcomeSuccess, 1000)
	r.ObserveBatch("dataforseo", OutcomeFailed, 20)
	r.ObserveFailedTerms("dataforseo", 20)

	if got := testutil.ToFloat64(r.batches.WithLabelValues("dataforseo", OutcomeSuccess)); got != 1 {
		t.Errorf("success batches = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.keywords.WithLabelValues("dataforseo")); got != 1020 {
		t.Errorf("keywords = %v, want 1020", got)
	}
	if got := testutil.ToFloat64(r.attempts.WithLabelValues("dataforseo", "error")); got != 1 {
		t.Errorf("error attempts = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.failedTerms.WithLabelValues("dataforseo")); got != 20 {
		t.Errorf("failed terms = %v, want 20", got)
	}
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var r *Recorder
	r.ObserveAttempt("x", time.Second, nil)
	r.ObserveBatch("x", OutcomeFatal, 1)
	r.ObserveFailedTerms("x", 3)
}
