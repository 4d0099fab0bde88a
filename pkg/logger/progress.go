package logger

import (
	"fmt"
	"sync"
	"time"
)

// ProgressReporter logs batch progress for a single target location.
type ProgressReporter struct {
	mu          sync.RWMutex
	total       int
	current     int
	failed      int
	description string
	startTime   time.Time
	now         func() time.Time
	logger      *Logger
}

// NewProgressReporter creates a reporter expecting total batches.
func NewProgressReporter(total int, description string) *ProgressReporter {
	return newProgressReporter(total, description, GetLogger(), time.Now)
}

// NewProgressReporterWithLogger is NewProgressReporter with an explicit logger.
func NewProgressReporterWithLogger(total int, description string, log *Logger) *ProgressReporter {
	return newProgressReporter(total, description, log, time.Now)
}

func newProgressReporter(total int, description string, log *Logger, now func() time.Time) *ProgressReporter {
	return &ProgressReporter{
		total:       total,
		description: description,
		startTime:   now(),
		now:         now,
		logger:      log.WithField("component", "progress"),
	}
}

// Step records one processed batch and logs the new position.
func (pr *ProgressReporter) Step(succeeded bool) {
	pr.mu.Lock()
	defer pr.mu.Unlock()

	pr.current++
	if !succeeded {
		pr.failed++
	}
	pr.reportProgress()
}

// reportProgress must be called with the lock held.
func (pr *ProgressReporter) reportProgress() {
	percentage := pr.percentage()
	elapsed := pr.now().Sub(pr.startTime)

	var eta string
	if pr.current > 0 && pr.current < pr.total {
		avgPerBatch := elapsed / time.Duration(pr.current)
		remaining := time.Duration(pr.total-pr.current) * avgPerBatch
		eta = fmt.Sprintf(" (ETA: %s)", remaining.Round(time.Second))
	}

	pr.logger.WithFields(map[string]interface{}{
		"progress":    fmt.Sprintf("%.1f%%", percentage),
		"batch":       pr.current,
		"total":       pr.total,
		"failed":      pr.failed,
		"elapsed":     elapsed.Round(time.Second).String(),
		"description": pr.description,
	}).Info(fmt.Sprintf("%s: batch %d of %d (%.0f%%)%s", pr.description, pr.current, pr.total, percentage, eta))
}

func (pr *ProgressReporter) percentage() float64 {
	if pr.total == 0 {
		return 100
	}
	return float64(pr.current) / float64(pr.total) * 100
}

// GetProgress returns current progress information
func (pr *ProgressReporter) GetProgress() (current, total int, percentage float64) {
	pr.mu.RLock()
	defer pr.mu.RUnlock()

	return pr.current, pr.total, pr.percentage()
}

// Failed returns how many batches were recorded as failed.
func (pr *ProgressReporter) Failed() int {
	pr.mu.RLock()
	defer pr.mu.RUnlock()
	return pr.failed
}
