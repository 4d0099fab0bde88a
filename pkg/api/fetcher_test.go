package api

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"searchabull-keyword-engine/pkg/batch"
	"searchabull-keyword-engine/pkg/logger"
	"searchabull-keyword-engine/pkg/metrics"
)

// echoAdapter returns one entry per line of the response body.
type echoAdapter struct {
	buildErr error
	fatalOn  int
}

func (a *echoAdapter) Name() string   { return "echo" }
func (a *echoAdapter) BatchSize() int { return 10 }

func (a *echoAdapter) BuildRequest(ctx context.Context, b batch.Batch) (*Request, error) {
	if a.buildErr != nil {
		return nil, a.buildErr
	}
	return &Request{Method: "POST", URL: "http://provider.test/echo", Body: []byte(strings.Join(b.Keywords, "\n"))}, nil
}

func (a *echoAdapter) Extract(b batch.Batch, body []byte) ([]string, error) {
	if len(body) == 0 {
		return nil, errors.New("empty body")
	}
	return strings.Split(string(body), "\n"), nil
}

func (a *echoAdapter) Missing(b batch.Batch, entries []string) []string {
	return missingTerms(b.Keywords, entries)
}

func (a *echoAdapter) ClassifyStatus(status int, body []byte) (ErrorSeverity, bool) {
	if a.fatalOn != 0 && status == a.fatalOn {
		return ErrorSeverityFatal, true
	}
	return ErrorSeverityRetryable, false
}

type scriptedStep struct {
	resp *Response
	err  error
}

// scriptedDoer replays responses in order, repeating the last one.
type scriptedDoer struct {
	steps []scriptedStep
	calls int
}

func (d *scriptedDoer) Do(ctx context.Context, req *Request) (*Response, error) {
	i := d.calls
	if i >= len(d.steps) {
		i = len(d.steps) - 1
	}
	d.calls++
	return d.steps[i].resp, d.steps[i].err
}

func ok(body string) scriptedStep {
	return scriptedStep{resp: &Response{StatusCode: 200, Body: []byte(body)}}
}

func status(code int, body string) scriptedStep {
	return scriptedStep{resp: &Response{StatusCode: code, Body: []byte(body)}}
}

func TestFetcher_Outcomes(t *testing.T) {
	b := testBatch("shoes", "boots")

	tests := []struct {
		name         string
		adapter      *echoAdapter
		steps        []scriptedStep
		wantKind     OutcomeKind
		wantAttempts int
		wantCalls    int
		wantWaits    []time.Duration
		wantMissing  []string
	}{
		{
			name:         "first attempt succeeds",
			adapter:      &echoAdapter{},
			steps:        []scriptedStep{ok("shoes\nboots")},
			wantKind:     OutcomeSuccess,
			wantAttempts: 1,
			wantCalls:    1,
		},
		{
			name:         "two failures then success",
			adapter:      &echoAdapter{},
			steps:        []scriptedStep{status(500, "oops"), {err: errors.New("connection reset")}, ok("shoes\nboots")},
			wantKind:     OutcomeSuccess,
			wantAttempts: 3,
			wantCalls:    3,
			wantWaits:    []time.Duration{5 * time.Second, 10 * time.Second},
		},
		{
			name:         "all attempts fail",
			adapter:      &echoAdapter{},
			steps:        []scriptedStep{status(503, "unavailable")},
			wantKind:     OutcomeRetryable,
			wantAttempts: 3,
			wantCalls:    3,
			wantWaits:    []time.Duration{5 * time.Second, 10 * time.Second, 20 * time.Second},
		},
		{
			name:         "rate limited is retried",
			adapter:      &echoAdapter{},
			steps:        []scriptedStep{status(429, "slow down"), ok("shoes\nboots")},
			wantKind:     OutcomeSuccess,
			wantAttempts: 2,
			wantCalls:    2,
			wantWaits:    []time.Duration{5 * time.Second},
		},
		{
			name:         "empty body is retried",
			adapter:      &echoAdapter{},
			steps:        []scriptedStep{ok(""), ok("shoes\nboots")},
			wantKind:     OutcomeSuccess,
			wantAttempts: 2,
			wantCalls:    2,
			wantWaits:    []time.Duration{5 * time.Second},
		},
		{
			name:         "unauthorized is fatal",
			adapter:      &echoAdapter{},
			steps:        []scriptedStep{status(401, "bad credentials")},
			wantKind:     OutcomeFatal,
			wantAttempts: 1,
			wantCalls:    1,
		},
		{
			name:         "adapter classifies status as fatal",
			adapter:      &echoAdapter{fatalOn: 400},
			steps:        []scriptedStep{status(400, "quota")},
			wantKind:     OutcomeFatal,
			wantAttempts: 1,
			wantCalls:    1,
		},
		{
			name:         "fatal build error",
			adapter:      &echoAdapter{buildErr: &FatalError{Provider: "echo", Reason: "token revoked"}},
			steps:        []scriptedStep{ok("unused")},
			wantKind:     OutcomeFatal,
			wantAttempts: 1,
			wantCalls:    0,
		},
		{
			name:         "missing terms reported on success",
			adapter:      &echoAdapter{},
			steps:        []scriptedStep{ok("SHOES")},
			wantKind:     OutcomeSuccess,
			wantAttempts: 1,
			wantCalls:    1,
			wantMissing:  []string{"boots"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sleeper := &recordingSleeper{}
			doer := &scriptedDoer{steps: tt.steps}
			f := NewFetcher[string](tt.adapter, doer, WithSleeper(sleeper), WithLogger(logger.Nop()))

			out := f.Fetch(context.Background(), b)

			if out.Kind != tt.wantKind {
				t.Fatalf("Kind = %v, want %v (err: %v)", out.Kind, tt.wantKind, out.Err)
			}
			if out.Attempts != tt.wantAttempts {
				t.Errorf("Attempts = %d, want %d", out.Attempts, tt.wantAttempts)
			}
			if doer.calls != tt.wantCalls {
				t.Errorf("transport calls = %d, want %d", doer.calls, tt.wantCalls)
			}
			if len(sleeper.waits) != len(tt.wantWaits) {
				t.Fatalf("waits = %v, want %v", sleeper.waits, tt.wantWaits)
			}
			for i := range tt.wantWaits {
				if sleeper.waits[i] != tt.wantWaits[i] {
					t.Errorf("wait[%d] = %v, want %v", i, sleeper.waits[i], tt.wantWaits[i])
				}
			}
			if out.Backoff != sleeper.total() {
				t.Errorf("Backoff = %v, want %v", out.Backoff, sleeper.total())
			}
			if strings.Join(out.Missing, ",") != strings.Join(tt.wantMissing, ",") {
				t.Errorf("Missing = %v, want %v", out.Missing, tt.wantMissing)
			}
			if tt.wantKind == OutcomeSuccess && out.Err != nil {
				t.Errorf("unexpected error on success: %v", out.Err)
			}
			if tt.wantKind == OutcomeFatal && !IsFatal(out.Err) {
				t.Errorf("fatal outcome should carry a FatalError, got %v", out.Err)
			}
		})
	}
}

func TestFetcher_TwoFailuresThenSuccessWaits15s(t *testing.T) {
	sleeper := &recordingSleeper{}
	doer := &scriptedDoer{steps: []scriptedStep{status(500, ""), status(500, ""), ok("shoes")}}
	f := NewFetcher[string](&echoAdapter{}, doer, WithSleeper(sleeper), WithLogger(logger.Nop()))

	out := f.Fetch(context.Background(), testBatch("shoes"))
	if out.Kind != OutcomeSuccess {
		t.Fatalf("Kind = %v, want success", out.Kind)
	}
	if out.Backoff != 15*time.Second {
		t.Errorf("Backoff = %v, want 15s", out.Backoff)
	}
}

func TestFetcher_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	doer := &scriptedDoer{steps: []scriptedStep{ok("shoes")}}
	f := NewFetcher[string](&echoAdapter{}, doer, WithSleeper(&recordingSleeper{}), WithLogger(logger.Nop()))

	out := f.Fetch(ctx, testBatch("shoes"))
	if out.Kind != OutcomeFatal {
		t.Errorf("Kind = %v, want fatal", out.Kind)
	}
	if !errors.Is(out.Err, context.Canceled) {
		t.Errorf("Err = %v, want context.Canceled", out.Err)
	}
	if doer.calls != 0 {
		t.Errorf("transport called %d times after cancellation", doer.calls)
	}
}

func TestFetcher_CustomPolicyAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := metrics.NewRecorder(reg)
	sleeper := &recordingSleeper{}
	doer := &scriptedDoer{steps: []scriptedStep{status(500, "")}}

	f := NewFetcher[string](&echoAdapter{}, doer,
		WithSleeper(sleeper),
		WithLogger(logger.Nop()),
		WithMetrics(rec),
		WithRetryPolicy(RetryPolicy{MaxAttempts: 2, BaseDelay: time.Second, BackoffMultiplier: 3}),
	)

	out := f.Fetch(context.Background(), testBatch("shoes", "boots"))
	if out.Kind != OutcomeRetryable {
		t.Fatalf("Kind = %v, want retryable", out.Kind)
	}
	if out.Backoff != 4*time.Second {
		t.Errorf("Backoff = %v, want 4s", out.Backoff)
	}
	if f.Provider() != "echo" || f.BatchSize() != 10 {
		t.Errorf("Provider/BatchSize = %s/%d", f.Provider(), f.BatchSize())
	}

	expected := `
# HELP searchabull_batches_total Provider batches processed, by final outcome.
# TYPE searchabull_batches_total counter
searchabull_batches_total{outcome="failed",provider="echo"} 1
# HELP searchabull_attempts_total Provider HTTP attempts, including retries.
# TYPE searchabull_attempts_total counter
searchabull_attempts_total{provider="echo",result="error"} 2
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"searchabull_batches_total", "searchabull_attempts_total"); err != nil {
		t.Error(err)
	}
}
