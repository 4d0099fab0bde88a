package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/oauth2"

	"searchabull-keyword-engine/internal/config"
	"searchabull-keyword-engine/pkg/api"
	"searchabull-keyword-engine/pkg/backend"
	"searchabull-keyword-engine/pkg/export"
	"searchabull-keyword-engine/pkg/geo"
	"searchabull-keyword-engine/pkg/logger"
	"searchabull-keyword-engine/pkg/metrics"
	"searchabull-keyword-engine/pkg/pipeline"
)

// ErrEmptyResult means the provider returned no monthly data for any keyword.
var ErrEmptyResult = errors.New("no search volume data returned")

// ReportPublisher receives finished volume reports. *backend.Publisher
// implements it.
type ReportPublisher interface {
	Publish(report *pipeline.Report) error
}

// EngineOption customises an Engine.
type EngineOption func(*Engine)

// WithTransport replaces the fasthttp transport.
func WithTransport(d api.Doer) EngineOption {
	return func(e *Engine) { e.transport = d }
}

// WithSleeper replaces the sleeper used for backoff and pacing.
func WithSleeper(s api.Sleeper) EngineOption {
	return func(e *Engine) { e.sleeper = s }
}

func WithMetrics(r *metrics.Recorder) EngineOption {
	return func(e *Engine) { e.metrics = r }
}

func WithLogger(l *logger.Logger) EngineOption {
	return func(e *Engine) { e.base = l }
}

// WithPublisher overrides the backend publisher built from config.
func WithPublisher(p ReportPublisher) EngineOption {
	return func(e *Engine) { e.publisher = p }
}

// WithTokenSource supplies Google Ads bearer tokens instead of the
// refresh-token flow.
func WithTokenSource(ts oauth2.TokenSource) EngineOption {
	return func(e *Engine) { e.tokens = ts }
}

// WithProgress forwards per-batch progress to fn.
func WithProgress(fn pipeline.ProgressFunc) EngineOption {
	return func(e *Engine) { e.progress = fn }
}

// Engine wires configuration to providers, the pipeline and the exporter.
// Runs are serialised: one provider run at a time per process.
type Engine struct {
	cfg       *config.Config
	transport api.Doer
	sleeper   api.Sleeper
	resolver  *geo.Resolver
	exporter  *export.Exporter
	publisher ReportPublisher
	metrics   *metrics.Recorder
	progress  pipeline.ProgressFunc
	base      *logger.Logger
	log       *logger.Logger

	tokens     oauth2.TokenSource
	tokensOnce sync.Once
	runMu      sync.Mutex
}

func NewEngine(cfg *config.Config, opts ...EngineOption) (*Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	e := &Engine{
		cfg:     cfg,
		sleeper: api.RealSleeper,
		base:    logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.base.WithField("component", "engine")

	if e.transport == nil {
		e.transport = api.NewHTTPTransport(cfg.Connection)
	}

	resolver, err := geo.LoadResolver(cfg.Reference.LocationsFile, cfg.Reference.LanguagesFile)
	if err != nil {
		return nil, err
	}
	e.resolver = resolver

	exporter, err := export.NewExporter(cfg.Export.Timezone)
	if err != nil {
		return nil, err
	}
	e.exporter = exporter

	if e.publisher == nil && cfg.Backend.BaseURL != "" {
		publisher, err := backend.NewPublisher(cfg.Backend)
		if err != nil {
			return nil, fmt.Errorf("backend publisher: %w", err)
		}
		e.publisher = publisher
	}

	secure := logger.NewSecurityLogger(e.log)
	secure.SafeInfo("Engine configured", map[string]interface{}{
		"provider":          cfg.Pipeline.Provider,
		"mode":              cfg.Pipeline.Mode,
		"dataforseo_login":  cfg.DataForSEO.Login,
		"googleads_token":   cfg.GoogleAds.DeveloperToken,
		"deepl_auth_key":    cfg.DeepL.AuthKey,
		"backend_url":       cfg.Backend.BaseURL,
		"export_timezone":   cfg.Export.Timezone,
		"publisher_enabled": e.publisher != nil,
	})
	return e, nil
}

// Resolver exposes the location tables, e.g. for listing choices.
func (e *Engine) Resolver() *geo.Resolver { return e.resolver }

// RunVolumes executes one volume run and renders the workbook.
//
// On a fatal provider error the partial result is returned along with the
// error; its workbook is set when any monthly data had arrived. An empty
// result returns ErrEmptyResult with the report and no workbook.
func (e *Engine) RunVolumes(ctx context.Context, req VolumeRequest) (*VolumeResult, error) {
	provider := strings.ToLower(strings.TrimSpace(req.Provider))
	if provider == "" {
		provider = e.cfg.Pipeline.Provider
	}
	modeName := req.Mode
	if strings.TrimSpace(modeName) == "" {
		modeName = e.cfg.Pipeline.Mode
	}
	mode, ok := api.ParseMode(modeName)
	if !ok {
		return nil, &pipeline.InputError{Err: fmt.Errorf("unknown mode %q", modeName)}
	}

	adapter, err := e.volumeAdapter(provider, mode)
	if err != nil {
		return nil, &pipeline.InputError{Err: err}
	}
	fetcher := api.NewFetcher[api.KeywordMetrics](adapter, e.transport, e.fetcherOptions()...)

	runner, err := pipeline.NewRunnerBuilder().
		WithFetcher(fetcher).
		WithMode(mode).
		WithResolver(e.resolver).
		WithPacer(e.pacer()).
		WithProgress(e.progress).
		WithLogger(e.base).
		WithMetrics(e.metrics).
		Build()
	if err != nil {
		return nil, err
	}

	e.runMu.Lock()
	defer e.runMu.Unlock()

	report, runErr := runner.Run(ctx, pipeline.Job{
		Category: req.Category,
		Targets:  req.Targets,
		Keywords: req.Keywords,
	})
	if report == nil {
		return nil, runErr
	}

	result := &VolumeResult{Report: report}
	if !report.Empty() {
		data, err := e.exporter.WriteWorkbook(report)
		if err != nil {
			return result, fmt.Errorf("render workbook: %w", err)
		}
		result.Workbook = &Workbook{Filename: e.exporter.Filename(report), Data: data}
	}
	if runErr != nil {
		return result, runErr
	}
	if report.Empty() {
		return result, ErrEmptyResult
	}

	if e.publisher != nil {
		if err := e.publisher.Publish(report); err != nil {
			e.log.WithError(err).WithField("run_id", report.RunID).Warn("Backend publication failed")
		}
	}
	return result, nil
}

// Translate runs one DeepL translation job and renders the workbook.
func (e *Engine) Translate(ctx context.Context, req TranslationRequest) (*TranslationResult, error) {
	deeplConfig := e.cfg.DeepL
	if req.SourceLang != "" {
		deeplConfig.SourceLang = req.SourceLang
	}
	if req.TargetLang != "" {
		deeplConfig.TargetLang = req.TargetLang
	}
	adapter, err := api.NewDeepL(deeplConfig)
	if err != nil {
		return nil, &pipeline.InputError{Err: err}
	}
	fetcher := api.NewFetcher[api.Translation](adapter, e.transport, e.fetcherOptions()...)

	translator, err := pipeline.NewTranslator(fetcher, adapter.SourceLang(), adapter.TargetLang(),
		pipeline.WithTranslatorPacer(e.pacer()),
		pipeline.WithTranslatorProgress(e.progress),
		pipeline.WithTranslatorLogger(e.base),
	)
	if err != nil {
		return nil, err
	}

	e.runMu.Lock()
	defer e.runMu.Unlock()

	report, runErr := translator.Translate(ctx, req.Texts)
	if report == nil {
		return nil, runErr
	}

	result := &TranslationResult{Report: report}
	data, err := e.exporter.WriteTranslationWorkbook(report)
	if err != nil {
		return result, fmt.Errorf("render workbook: %w", err)
	}
	result.Workbook = &Workbook{Filename: e.exporter.TranslationFilename(report), Data: data}
	return result, runErr
}

// Balance returns the DataForSEO account balance.
func (e *Engine) Balance(ctx context.Context) (float64, error) {
	adapter, err := api.NewDataForSEO(e.cfg.DataForSEO, api.ModeHistorical)
	if err != nil {
		return 0, &pipeline.InputError{Err: err}
	}
	return adapter.Balance(ctx, e.transport)
}

// Save writes w into the configured output directory and records the path.
func (e *Engine) Save(w *Workbook) error {
	if w == nil {
		return fmt.Errorf("no workbook to save")
	}
	path, err := export.Save(e.cfg.Export.OutputDir, w.Filename, w.Data)
	if err != nil {
		return err
	}
	w.Path = path
	return nil
}

func (e *Engine) volumeAdapter(provider string, mode api.Mode) (api.Adapter[api.KeywordMetrics], error) {
	switch provider {
	case config.ProviderDataForSEO:
		return api.NewDataForSEO(e.cfg.DataForSEO, mode)
	case config.ProviderGoogleAds:
		return api.NewGoogleAds(e.cfg.GoogleAds, mode, e.tokenSource())
	default:
		return nil, fmt.Errorf("unknown provider %q", provider)
	}
}

func (e *Engine) tokenSource() oauth2.TokenSource {
	e.tokensOnce.Do(func() {
		if e.tokens == nil {
			e.tokens = api.NewOAuthTokenSource(context.Background(), e.cfg.GoogleAds)
		}
	})
	return e.tokens
}

func (e *Engine) fetcherOptions() []api.FetcherOption {
	return []api.FetcherOption{
		api.WithRetryPolicy(e.cfg.Pipeline.RetryPolicy()),
		api.WithSleeper(e.sleeper),
		api.WithMetrics(e.metrics),
		api.WithLogger(e.base),
	}
}

func (e *Engine) pacer() *api.Pacer {
	return api.NewPacer(e.cfg.Pipeline.PauseBase, e.cfg.Pipeline.PauseJitter, e.sleeper)
}
