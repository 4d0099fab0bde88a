package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"searchabull-keyword-engine/pkg/api"
	"searchabull-keyword-engine/pkg/batch"
	"searchabull-keyword-engine/pkg/geo"
	"searchabull-keyword-engine/pkg/logger"
	"searchabull-keyword-engine/pkg/metrics"
	"searchabull-keyword-engine/pkg/table"
)

// Job is one volume request: keywords looked up in every target.
type Job struct {
	Category string
	Targets  []geo.Target
	Keywords []string
}

// Runner executes volume jobs. Targets run one after another and each
// target's batches run one after another.
type Runner struct {
	fetcher  VolumeFetcher
	resolver *geo.Resolver
	pacer    *api.Pacer
	mode     api.Mode
	now      func() time.Time
	progress ProgressFunc
	metrics  *metrics.Recorder
	log      *logger.Logger
}

// Provider is the name of the configured provider.
func (r *Runner) Provider() string { return r.fetcher.Provider() }

// Mode is the configured endpoint mode.
func (r *Runner) Mode() api.Mode { return r.mode }

// Run validates job, fetches every batch and assembles the report.
//
// Keywords from exhausted batches, and keywords a successful response left
// out, are listed in Report.Failed. A fatal provider error stops the run;
// the partial report is returned with the error. When no monthly data came
// back the report's table is empty and Report.Empty is true.
func (r *Runner) Run(ctx context.Context, job Job) (*Report, error) {
	keywords := cleanKeywords(job.Keywords)
	if len(keywords) == 0 {
		return nil, inputErrorf("keyword list is empty")
	}
	if len(job.Targets) == 0 {
		return nil, inputErrorf("no target locations selected")
	}
	locations, err := r.resolver.ResolveAll(job.Targets)
	if err != nil {
		return nil, &InputError{Err: err}
	}

	report := &Report{
		RunID:    uuid.NewString(),
		Provider: r.fetcher.Provider(),
		Mode:     r.mode,
		Category: job.Category,
		Started:  r.now(),
	}
	log := r.log.WithFields(map[string]interface{}{"run_id": report.RunID, "mode": string(r.mode)})
	log.WithFields(map[string]interface{}{
		"keywords": len(keywords),
		"targets":  len(locations),
	}).Info("Starting volume run")

	dates := batch.DefaultDateRange(report.Started)
	var rows []table.VolumeRow
	sent := 0

	for _, loc := range locations {
		desc := table.Descriptor{
			Category: job.Category,
			Language: loc.Language,
			Region:   loc.Region,
			Country:  loc.Country,
		}
		batches, err := batch.Plan(keywords, r.fetcher.BatchSize(), loc, dates)
		if err != nil {
			return nil, fmt.Errorf("plan batches for %s: %w", loc.Country, err)
		}

		progress := logger.NewProgressReporterWithLogger(len(batches), loc.Country, log)
		for _, b := range batches {
			if sent > 0 {
				if _, err := r.pacer.Wait(ctx); err != nil {
					return r.finish(report, rows, log), err
				}
			}
			sent++

			out := r.fetcher.Fetch(ctx, b)
			switch out.Kind {
			case api.OutcomeSuccess:
				rows = append(rows, table.Normalize(desc, out.Entries)...)
				r.recordFailed(report, desc, out.Missing, ReasonNotReturned)
			case api.OutcomeRetryable:
				errText := ""
				if out.Err != nil {
					errText = out.Err.Error()
				}
				report.FailedBatches = append(report.FailedBatches, FailedBatch{
					Target: desc,
					Index:  b.Index,
					Terms:  b.Keywords,
					Err:    errText,
				})
				r.recordFailed(report, desc, b.Keywords, ReasonBatchFailed)
			case api.OutcomeFatal:
				progress.Step(false)
				r.emit(loc.Country, b, out.Kind)
				log.WithError(out.Err).WithField("country", loc.Country).Error("Run stopped by fatal provider error")
				return r.finish(report, rows, log), out.Err
			}

			progress.Step(out.Kind == api.OutcomeSuccess)
			r.emit(loc.Country, b, out.Kind)
		}
	}

	r.finish(report, rows, log)
	log.WithFields(map[string]interface{}{
		"rows":           report.Table.Len(),
		"failed_terms":   len(report.Failed),
		"failed_batches": len(report.FailedBatches),
	}).WithDuration("duration", report.Duration()).Info("Volume run completed")
	return report, nil
}

func (r *Runner) finish(report *Report, rows []table.VolumeRow, log *logger.Logger) *Report {
	report.Table = table.Assemble(rows)
	err := table.Aggregate(report.Table)
	switch {
	case errors.Is(err, table.ErrNoMonthlyData):
		log.Warn("No monthly data returned, skipping aggregation")
	case err != nil:
		log.WithError(err).Error("Aggregation failed")
	}
	report.Finished = r.now()
	return report
}

func (r *Runner) recordFailed(report *Report, desc table.Descriptor, terms []string, reason string) {
	for _, term := range terms {
		report.Failed = append(report.Failed, FailedTerm{Descriptor: desc, Keyword: term, Reason: reason})
	}
	r.metrics.ObserveFailedTerms(r.fetcher.Provider(), len(terms))
}

func (r *Runner) emit(target string, b batch.Batch, kind api.OutcomeKind) {
	if r.progress == nil {
		return
	}
	r.progress(Progress{Target: target, Batch: b.Number(), Total: b.Total, Outcome: kind})
}

// cleanKeywords trims keywords and drops blanks, keeping order.
func cleanKeywords(in []string) []string {
	out := make([]string, 0, len(in))
	for _, kw := range in {
		if kw = strings.TrimSpace(kw); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}
