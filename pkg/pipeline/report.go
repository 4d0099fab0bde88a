package pipeline

import (
	"time"

	"searchabull-keyword-engine/pkg/api"
	"searchabull-keyword-engine/pkg/table"
)

// Failure reasons recorded in the failed-terms sheet.
const (
	ReasonNotReturned = "not returned by provider"
	ReasonBatchFailed = "batch failed after retries"
)

// FailedBatch is a batch that exhausted its retries.
type FailedBatch struct {
	Target table.Descriptor
	Index  int
	Terms  []string
	Err    string
}

// FailedTerm is an input keyword with no row in the result table.
type FailedTerm struct {
	table.Descriptor
	Keyword string
	Reason  string
}

// Progress is emitted after every batch.
type Progress struct {
	Target  string
	Batch   int
	Total   int
	Outcome api.OutcomeKind
}

// ProgressFunc receives progress updates. It must not block.
type ProgressFunc func(Progress)

// Report is the result of a volume run.
type Report struct {
	RunID         string
	Provider      string
	Mode          api.Mode
	Category      string
	Table         *table.Table
	Failed        []FailedTerm
	FailedBatches []FailedBatch
	Started       time.Time
	Finished      time.Time
}

// Empty reports whether the run produced no monthly columns.
func (r *Report) Empty() bool {
	return r == nil || r.Table.Empty()
}

// Duration is the wall time of the run.
func (r *Report) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}

// TranslationRow pairs a source text with its translation. Text is empty
// when the batch failed.
type TranslationRow struct {
	Source string
	Text   string
}

// TranslationReport is the result of a translation run.
type TranslationReport struct {
	RunID         string
	SourceLang    string
	TargetLang    string
	Rows          []TranslationRow
	FailedBatches []FailedBatch
	Started       time.Time
	Finished      time.Time
}
