package api

import (
	"context"
	"time"

	"searchabull-keyword-engine/pkg/batch"
)

// Mode selects which provider endpoint a volume adapter calls.
type Mode string

const (
	ModeHistorical Mode = "historical"
	ModeIdeas      Mode = "ideas"
)

// ParseMode accepts the names used on the CLI and in JSON requests.
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "", "historical", "historical_volumes", "volumes":
		return ModeHistorical, true
	case "ideas", "keyword_ideas":
		return ModeIdeas, true
	}
	return "", false
}

// Request is a provider-neutral HTTP request built by an adapter.
type Request struct {
	Method      string
	URL         string
	ContentType string
	Headers     map[string]string
	Body        []byte
	Timeout     time.Duration
}

// Response carries a copied response body; it is safe to keep.
type Response struct {
	StatusCode int
	Body       []byte
}

// Doer sends a single request. Implementations must not retry.
type Doer interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// Adapter describes one provider: how to build a batch request, how to read
// entries out of a 2xx body, and which batch terms the provider left out.
type Adapter[T any] interface {
	Name() string
	BatchSize() int
	BuildRequest(ctx context.Context, b batch.Batch) (*Request, error)
	Extract(b batch.Batch, body []byte) ([]T, error)
	Missing(b batch.Batch, entries []T) []string
}

// StatusClassifier is implemented by adapters whose providers signal fatal
// conditions in non-2xx bodies.
type StatusClassifier interface {
	ClassifyStatus(status int, body []byte) (ErrorSeverity, bool)
}

// MonthlyVolume is one (year, month, volume) triple. Month is always a
// calendar month, 1..12.
type MonthlyVolume struct {
	Year   int
	Month  time.Month
	Volume int64
}

// KeywordMetrics is the provider-neutral result for a single keyword.
type KeywordMetrics struct {
	Keyword string
	Monthly []MonthlyVolume
}

// Translation pairs a source term with its translation.
type Translation struct {
	Source string
	Text   string
}

// OutcomeKind tags the result of fetching one batch.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	// OutcomeRetryable means every attempt failed with a retryable error.
	OutcomeRetryable
	// OutcomeFatal means retrying cannot help and the run must stop.
	OutcomeFatal
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeRetryable:
		return "retryable_failure"
	case OutcomeFatal:
		return "fatal_failure"
	}
	return "unknown"
}

// Outcome is the tagged result of Fetcher.Fetch.
type Outcome[T any] struct {
	Kind     OutcomeKind
	Entries  []T
	Missing  []string
	Attempts int
	Backoff  time.Duration
	Err      error
}
