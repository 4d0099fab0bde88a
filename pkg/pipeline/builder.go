package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"searchabull-keyword-engine/pkg/api"
	"searchabull-keyword-engine/pkg/batch"
	"searchabull-keyword-engine/pkg/geo"
	"searchabull-keyword-engine/pkg/logger"
	"searchabull-keyword-engine/pkg/metrics"
)

// VolumeFetcher fetches one batch of keyword volumes with retries.
// *api.Fetcher[api.KeywordMetrics] implements it.
type VolumeFetcher interface {
	Provider() string
	BatchSize() int
	Fetch(ctx context.Context, b batch.Batch) api.Outcome[api.KeywordMetrics]
}

// RunnerBuilder assembles a Runner, collecting every configuration error
// so they can be reported together.
type RunnerBuilder struct {
	fetcher  VolumeFetcher
	resolver *geo.Resolver
	pacer    *api.Pacer
	mode     api.Mode
	now      func() time.Time
	progress ProgressFunc
	log      *logger.Logger
	metrics  *metrics.Recorder
	errors   []error
}

// NewRunnerBuilder creates a builder with the default resolver and pacing.
func NewRunnerBuilder() *RunnerBuilder {
	return &RunnerBuilder{
		resolver: geo.DefaultResolver(),
		mode:     api.ModeHistorical,
		now:      time.Now,
		errors:   make([]error, 0),
	}
}

// WithFetcher sets the provider fetcher.
func (b *RunnerBuilder) WithFetcher(f VolumeFetcher) *RunnerBuilder {
	if f == nil {
		b.errors = append(b.errors, fmt.Errorf("fetcher cannot be nil"))
		return b
	}
	if f.BatchSize() <= 0 {
		b.errors = append(b.errors, fmt.Errorf("fetcher %s has invalid batch size %d", f.Provider(), f.BatchSize()))
		return b
	}
	b.fetcher = f
	return b
}

// WithMode records which endpoint the fetcher targets.
func (b *RunnerBuilder) WithMode(mode api.Mode) *RunnerBuilder {
	if mode != api.ModeHistorical && mode != api.ModeIdeas {
		b.errors = append(b.errors, fmt.Errorf("unsupported mode %q", mode))
		return b
	}
	b.mode = mode
	return b
}

// WithResolver replaces the built-in location tables.
func (b *RunnerBuilder) WithResolver(r *geo.Resolver) *RunnerBuilder {
	if r == nil {
		b.errors = append(b.errors, fmt.Errorf("resolver cannot be nil"))
		return b
	}
	b.resolver = r
	return b
}

// WithPacer sets the pause between batches.
func (b *RunnerBuilder) WithPacer(p *api.Pacer) *RunnerBuilder {
	if p == nil {
		b.errors = append(b.errors, fmt.Errorf("pacer cannot be nil"))
		return b
	}
	b.pacer = p
	return b
}

// WithClock sets the time source for date ranges and timestamps.
func (b *RunnerBuilder) WithClock(now func() time.Time) *RunnerBuilder {
	if now != nil {
		b.now = now
	}
	return b
}

// WithProgress registers a progress callback.
func (b *RunnerBuilder) WithProgress(fn ProgressFunc) *RunnerBuilder {
	b.progress = fn
	return b
}

// WithLogger sets the base logger.
func (b *RunnerBuilder) WithLogger(l *logger.Logger) *RunnerBuilder {
	b.log = l
	return b
}

// WithMetrics records failed terms.
func (b *RunnerBuilder) WithMetrics(r *metrics.Recorder) *RunnerBuilder {
	b.metrics = r
	return b
}

// Validate returns all accumulated configuration errors.
func (b *RunnerBuilder) Validate() error {
	errs := b.errors
	if b.fetcher == nil && len(errs) == 0 {
		errs = append(errs, fmt.Errorf("fetcher is required"))
	}
	if len(errs) == 0 {
		return nil
	}

	messages := make([]string, 0, len(errs))
	for _, err := range errs {
		messages = append(messages, err.Error())
	}
	return fmt.Errorf("runner configuration failed: %s", strings.Join(messages, "; "))
}

// Build creates the Runner.
func (b *RunnerBuilder) Build() (*Runner, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	log := b.log
	if log == nil {
		log = logger.GetLogger()
	}
	pacer := b.pacer
	if pacer == nil {
		pacer = api.DefaultPacer(nil)
	}

	return &Runner{
		fetcher:  b.fetcher,
		resolver: b.resolver,
		pacer:    pacer,
		mode:     b.mode,
		now:      b.now,
		progress: b.progress,
		metrics:  b.metrics,
		log:      log.WithFields(map[string]interface{}{"component": "runner", "provider": b.fetcher.Provider()}),
	}, nil
}
