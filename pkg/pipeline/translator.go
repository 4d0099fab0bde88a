package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"searchabull-keyword-engine/pkg/api"
	"searchabull-keyword-engine/pkg/batch"
	"searchabull-keyword-engine/pkg/geo"
	"searchabull-keyword-engine/pkg/logger"
	"searchabull-keyword-engine/pkg/table"
)

// TranslationFetcher fetches one batch of translations with retries.
// *api.Fetcher[api.Translation] implements it.
type TranslationFetcher interface {
	Provider() string
	BatchSize() int
	Fetch(ctx context.Context, b batch.Batch) api.Outcome[api.Translation]
}

// TranslatorOption customises a Translator.
type TranslatorOption func(*Translator)

// WithTranslatorPacer sets the pause between translation batches.
func WithTranslatorPacer(p *api.Pacer) TranslatorOption {
	return func(t *Translator) { t.pacer = p }
}

// WithTranslatorProgress registers a progress callback.
func WithTranslatorProgress(fn ProgressFunc) TranslatorOption {
	return func(t *Translator) { t.progress = fn }
}

// WithTranslatorLogger sets the base logger.
func WithTranslatorLogger(l *logger.Logger) TranslatorOption {
	return func(t *Translator) { t.log = l }
}

// WithTranslatorClock sets the time source for report timestamps.
func WithTranslatorClock(now func() time.Time) TranslatorOption {
	return func(t *Translator) { t.now = now }
}

// Translator translates a list of texts batch by batch, keeping input order.
type Translator struct {
	fetcher    TranslationFetcher
	sourceLang string
	targetLang string
	pacer      *api.Pacer
	progress   ProgressFunc
	log        *logger.Logger
	now        func() time.Time
}

// NewTranslator creates a translator for one language pair.
func NewTranslator(fetcher TranslationFetcher, sourceLang, targetLang string, opts ...TranslatorOption) (*Translator, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("translation fetcher is required")
	}
	t := &Translator{
		fetcher:    fetcher,
		sourceLang: sourceLang,
		targetLang: targetLang,
		log:        logger.GetLogger(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.pacer == nil {
		t.pacer = api.DefaultPacer(nil)
	}
	t.log = t.log.WithFields(map[string]interface{}{"component": "translator", "provider": fetcher.Provider()})
	return t, nil
}

// Translate returns one row per input text. Texts in an exhausted batch
// get an empty translation and the batch is listed in FailedBatches. A
// fatal provider error stops the run and returns the partial report.
func (t *Translator) Translate(ctx context.Context, texts []string) (*TranslationReport, error) {
	if len(texts) == 0 {
		return nil, inputErrorf("nothing to translate")
	}

	report := &TranslationReport{
		RunID:      uuid.NewString(),
		SourceLang: t.sourceLang,
		TargetLang: t.targetLang,
		Rows:       make([]TranslationRow, 0, len(texts)),
		Started:    t.now(),
	}
	log := t.log.WithField("run_id", report.RunID)

	batches, err := batch.Plan(texts, t.fetcher.BatchSize(), geo.Location{}, batch.DateRange{})
	if err != nil {
		return nil, fmt.Errorf("plan translation batches: %w", err)
	}
	desc := fmt.Sprintf("%s->%s", t.sourceLang, t.targetLang)
	progress := logger.NewProgressReporterWithLogger(len(batches), desc, log)

	for i, b := range batches {
		if i > 0 {
			if _, err := t.pacer.Wait(ctx); err != nil {
				report.Finished = t.now()
				return report, err
			}
		}

		out := t.fetcher.Fetch(ctx, b)
		switch out.Kind {
		case api.OutcomeSuccess:
			for _, tr := range out.Entries {
				report.Rows = append(report.Rows, TranslationRow{Source: tr.Source, Text: tr.Text})
			}
		case api.OutcomeRetryable:
			errText := ""
			if out.Err != nil {
				errText = out.Err.Error()
			}
			report.FailedBatches = append(report.FailedBatches, FailedBatch{
				Target: table.Descriptor{Language: t.targetLang},
				Index:  b.Index,
				Terms:  b.Keywords,
				Err:    errText,
			})
			for _, text := range b.Keywords {
				report.Rows = append(report.Rows, TranslationRow{Source: text})
			}
		case api.OutcomeFatal:
			progress.Step(false)
			log.WithError(out.Err).Error("Translation stopped by fatal provider error")
			report.Finished = t.now()
			return report, out.Err
		}

		progress.Step(out.Kind == api.OutcomeSuccess)
		if t.progress != nil {
			t.progress(Progress{Target: desc, Batch: b.Number(), Total: b.Total, Outcome: out.Kind})
		}
	}

	report.Finished = t.now()
	log.WithFields(map[string]interface{}{
		"texts":          len(texts),
		"failed_batches": len(report.FailedBatches),
	}).Info("Translation run completed")
	return report, nil
}
