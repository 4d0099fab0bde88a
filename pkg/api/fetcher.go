package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"searchabull-keyword-engine/pkg/batch"
	"searchabull-keyword-engine/pkg/logger"
	"searchabull-keyword-engine/pkg/metrics"
)

type fetcherSettings struct {
	policy     RetryPolicy
	sleeper    Sleeper
	classifier ErrorClassifier
	metrics    *metrics.Recorder
	log        *logger.Logger
	now        func() time.Time
}

// FetcherOption customises a Fetcher.
type FetcherOption func(*fetcherSettings)

// WithRetryPolicy overrides the default 3-attempt policy.
func WithRetryPolicy(p RetryPolicy) FetcherOption {
	return func(s *fetcherSettings) { s.policy = p.normalized() }
}

// WithSleeper replaces the backoff sleeper, mainly for tests.
func WithSleeper(sl Sleeper) FetcherOption {
	return func(s *fetcherSettings) { s.sleeper = sl }
}

// WithErrorClassifier replaces the default classifier.
func WithErrorClassifier(c ErrorClassifier) FetcherOption {
	return func(s *fetcherSettings) { s.classifier = c }
}

// WithMetrics records attempts and batch outcomes.
func WithMetrics(r *metrics.Recorder) FetcherOption {
	return func(s *fetcherSettings) { s.metrics = r }
}

// WithLogger sets the base logger.
func WithLogger(l *logger.Logger) FetcherOption {
	return func(s *fetcherSettings) { s.log = l }
}

// Fetcher runs one batch against one provider with the shared retry policy.
type Fetcher[T any] struct {
	adapter   Adapter[T]
	transport Doer
	settings  fetcherSettings
	log       *logger.Logger
}

// NewFetcher wires an adapter to a transport.
func NewFetcher[T any](adapter Adapter[T], transport Doer, opts ...FetcherOption) *Fetcher[T] {
	s := fetcherSettings{
		policy:     DefaultRetryPolicy(),
		sleeper:    RealSleeper,
		classifier: NewProviderErrorClassifier(),
		log:        logger.GetLogger(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(&s)
	}

	return &Fetcher[T]{
		adapter:   adapter,
		transport: transport,
		settings:  s,
		log:       s.log.WithFields(map[string]interface{}{"component": "fetcher", "provider": adapter.Name()}),
	}
}

// Provider returns the adapter name.
func (f *Fetcher[T]) Provider() string { return f.adapter.Name() }

// BatchSize returns the adapter's batch limit.
func (f *Fetcher[T]) BatchSize() int { return f.adapter.BatchSize() }

// Fetch sends b until it succeeds, fails fatally, or exhausts the policy.
// Every failed attempt is followed by its backoff wait.
func (f *Fetcher[T]) Fetch(ctx context.Context, b batch.Batch) Outcome[T] {
	policy := f.settings.policy
	provider := f.adapter.Name()
	log := f.log.WithFields(map[string]interface{}{
		"batch":    b.Number(),
		"keywords": len(b.Keywords),
		"country":  b.Target.Country,
	})

	var (
		lastErr error
		backoff time.Duration
	)
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return f.finish(Outcome[T]{Kind: OutcomeFatal, Attempts: attempt - 1, Backoff: backoff, Err: err}, len(b.Keywords))
		}

		start := f.settings.now()
		entries, err := f.attempt(ctx, b)
		f.settings.metrics.ObserveAttempt(provider, f.settings.now().Sub(start), err)

		if err == nil {
			missing := f.adapter.Missing(b, entries)
			if attempt > 1 {
				log.WithField("attempt", attempt).Info("Batch succeeded after retry")
			}
			return f.finish(Outcome[T]{
				Kind:     OutcomeSuccess,
				Entries:  entries,
				Missing:  missing,
				Attempts: attempt,
				Backoff:  backoff,
			}, len(b.Keywords))
		}

		if f.settings.classifier.ClassifyError(err) == ErrorSeverityFatal {
			log.WithError(err).WithField("attempt", attempt).Error("Fatal provider error, stopping")
			return f.finish(Outcome[T]{Kind: OutcomeFatal, Attempts: attempt, Backoff: backoff, Err: err}, len(b.Keywords))
		}

		lastErr = err
		wait := policy.Backoff(attempt)
		log.WithError(err).WithFields(map[string]interface{}{
			"attempt":      attempt,
			"max_attempts": policy.MaxAttempts,
			"retry_in":     wait.String(),
		}).Warn(fmt.Sprintf("Error in batch %d, retrying in %s", b.Number(), wait))

		if err := f.settings.sleeper.Sleep(ctx, wait); err != nil {
			return f.finish(Outcome[T]{Kind: OutcomeFatal, Attempts: attempt, Backoff: backoff, Err: err}, len(b.Keywords))
		}
		backoff += wait
	}

	log.WithError(lastErr).Error("Batch failed after all attempts")
	return f.finish(Outcome[T]{
		Kind:     OutcomeRetryable,
		Attempts: policy.MaxAttempts,
		Backoff:  backoff,
		Err:      lastErr,
	}, len(b.Keywords))
}

func (f *Fetcher[T]) finish(out Outcome[T], keywords int) Outcome[T] {
	label := metrics.OutcomeSuccess
	switch out.Kind {
	case OutcomeRetryable:
		label = metrics.OutcomeFailed
	case OutcomeFatal:
		label = metrics.OutcomeFatal
	}
	f.settings.metrics.ObserveBatch(f.adapter.Name(), label, keywords)
	return out
}

// attempt performs exactly one request and classifies any failure.
func (f *Fetcher[T]) attempt(ctx context.Context, b batch.Batch) ([]T, error) {
	provider := f.adapter.Name()

	req, err := f.adapter.BuildRequest(ctx, b)
	if err != nil {
		if IsFatal(err) {
			return nil, err
		}
		return nil, &RetryableError{Provider: provider, Reason: "failed to build request", Err: err}
	}

	resp, err := f.transport.Do(ctx, req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, &RetryableError{Provider: provider, Reason: "transport error", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		reason := fmt.Sprintf("unexpected status: %s", snippet(resp.Body))
		if f.statusSeverity(resp.StatusCode, resp.Body) == ErrorSeverityFatal {
			return nil, &FatalError{Provider: provider, StatusCode: resp.StatusCode, Reason: reason}
		}
		return nil, &RetryableError{Provider: provider, StatusCode: resp.StatusCode, Reason: reason}
	}

	entries, err := f.adapter.Extract(b, resp.Body)
	if err != nil {
		if IsFatal(err) {
			return nil, err
		}
		return nil, &RetryableError{Provider: provider, StatusCode: resp.StatusCode, Reason: "unusable response", Err: err}
	}
	return entries, nil
}

func (f *Fetcher[T]) statusSeverity(status int, body []byte) ErrorSeverity {
	if sc, ok := f.adapter.(StatusClassifier); ok {
		if sev, handled := sc.ClassifyStatus(status, body); handled {
			return sev
		}
	}
	return f.settings.classifier.ClassifyStatus(status, body)
}

func snippet(body []byte) string {
	const limit = 200
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
