// Package batch splits keyword lists into provider-sized requests.
package batch

import (
	"errors"
	"fmt"
	"time"

	"searchabull-keyword-engine/pkg/geo"
)

var ErrInvalidBatchSize = errors.New("batch size must be positive")

// DateRange is the reporting window requested from providers.
type DateRange struct {
	From time.Time
	To   time.Time
}

// DefaultDateRange covers the four years up to the first day of the current
// month, which is the longest history the volume providers return.
func DefaultDateRange(now time.Time) DateRange {
	to := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return DateRange{From: to.AddDate(-4, 0, 0), To: to}
}

// Batch is an ordered group of keywords sent in one provider request.
// Index is 0-based within its target.
type Batch struct {
	Index    int
	Total    int
	Keywords []string
	Target   geo.Location
	Dates    DateRange
}

// Number is the 1-based position used in logs and reports.
func (b Batch) Number() int {
	return b.Index + 1
}

// Count returns ceil(n/size).
func Count(n, size int) int {
	if size <= 0 || n <= 0 {
		return 0
	}
	return (n + size - 1) / size
}

// Plan splits keywords into contiguous batches of at most size keywords,
// preserving order. Every keyword lands in exactly one batch.
func Plan(keywords []string, size int, target geo.Location, dates DateRange) ([]Batch, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidBatchSize, size)
	}

	total := Count(len(keywords), size)
	batches := make([]Batch, 0, total)
	for i := 0; i < len(keywords); i += size {
		end := i + size
		if end > len(keywords) {
			end = len(keywords)
		}
		chunk := make([]string, end-i)
		copy(chunk, keywords[i:end])

		batches = append(batches, Batch{
			Index:    len(batches),
			Total:    total,
			Keywords: chunk,
			Target:   target,
			Dates:    dates,
		})
	}
	return batches, nil
}
