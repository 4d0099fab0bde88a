package api

import (
	"context"
	"sync"
	"time"

	"searchabull-keyword-engine/pkg/batch"
	"searchabull-keyword-engine/pkg/geo"
)

// recordingSleeper records requested waits without sleeping.
type recordingSleeper struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (s *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.waits = append(s.waits, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *recordingSleeper) total() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum time.Duration
	for _, w := range s.waits {
		sum += w
	}
	return sum
}

func testBatch(keywords ...string) batch.Batch {
	return batch.Batch{
		Index:    0,
		Total:    1,
		Keywords: keywords,
		Target: geo.Location{
			Region:       "Europe",
			Country:      "United Kingdom",
			Language:     "English",
			LocationCode: 2826,
			CountryISO:   "GB",
			LanguageCode: "en",
			LanguageID:   1000,
		},
		Dates: batch.DateRange{
			From: time.Date(2021, time.June, 1, 0, 0, 0, 0, time.UTC),
			To:   time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC),
		},
	}
}
