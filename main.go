package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"searchabull-keyword-engine/internal/config"
	"searchabull-keyword-engine/internal/service"
	"searchabull-keyword-engine/pkg/api"
	"searchabull-keyword-engine/pkg/geo"
	"searchabull-keyword-engine/pkg/input"
	"searchabull-keyword-engine/pkg/logger"
	"searchabull-keyword-engine/pkg/pipeline"
)

// getEnvOrDefault returns environment variable value or default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBoolOrDefault returns environment variable as bool or default
func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func main() {
	var (
		configPath   = flag.String("config", getEnvOrDefault("SEARCHABULL_CONFIG", ""), "Configuration file (env: SEARCHABULL_CONFIG)")
		keywordsFile = flag.String("keywords", getEnvOrDefault("KEYWORDS_FILE", ""), "Keyword list: .xlsx, .csv or .txt (env: KEYWORDS_FILE)")
		targetList  = flag.String("targets", getEnvOrDefault("TARGETS", ""), "Targets as Region:Location:Language;... (env: TARGETS)")
		templateFile = flag.String("template", getEnvOrDefault("TEMPLATE_FILE", ""), "YAML location template (env: TEMPLATE_FILE)")
		category     = flag.String("category", getEnvOrDefault("CATEGORY", ""), "Category written to every row (env: CATEGORY)")
		provider     = flag.String("provider", "", "dataforseo or googleads (default from config)")
		mode         = flag.String("mode", "", "historical or ideas (default from config)")
		outputDir    = flag.String("output", getEnvOrDefault("OUTPUT_DIR", ""), "Output directory (env: OUTPUT_DIR)")
		translate    = flag.Bool("translate", false, "Translate the keyword list with DeepL instead of fetching volumes")
		sourceLang   = flag.String("source-lang", "", "DeepL source language (default from config)")
		targetLang   = flag.String("target-lang", "", "DeepL target language (default from config)")
		balance      = flag.Bool("balance", false, "Print the DataForSEO balance and exit")
		debug        = flag.Bool("debug", getEnvBoolOrDefault("DEBUG", false), "Enable debug logging (env: DEBUG)")
		help         = flag.Bool("help", false, "Show help message")
	)
	flag.Parse()

	if *help {
		printUsage()
		return
	}

	cfg, err := config.NewManager().Load(*configPath)
	if err != nil {
		fmt.Printf("ERROR: %v\n", err)
		os.Exit(1)
	}
	if *debug {
		cfg.Logger.Level = "debug"
	}
	if *outputDir != "" {
		cfg.Export.OutputDir = *outputDir
	}
	logger.SetLogger(logger.New(cfg.Logger))
	log := logger.GetLogger().WithField("component", "main")

	engine, err := service.NewEngine(cfg, service.WithProgress(printProgress))
	if err != nil {
		log.WithError(err).Fatal("Failed to build engine")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch {
	case *balance:
		amount, err := engine.Balance(ctx)
		if err != nil {
			log.WithError(err).Fatal("Balance request failed")
		}
		fmt.Printf("DataForSEO balance: %.2f USD\n", amount)
		return
	case *keywordsFile == "":
		fmt.Println("ERROR: a keyword file is required.")
		fmt.Println("Use -keywords flag or KEYWORDS_FILE environment variable.")
		fmt.Println("")
		printUsage()
		os.Exit(1)
	}

	keywords, err := input.ReadFile(*keywordsFile)
	if err != nil {
		log.WithError(err).Fatal("Failed to read keywords")
	}

	if *translate {
		result, err := engine.Translate(ctx, service.TranslationRequest{
			SourceLang: *sourceLang,
			TargetLang: *targetLang,
			Texts:      keywords,
		})
		if result != nil && result.Workbook != nil {
			saveWorkbook(engine, result.Workbook, log)
			fmt.Printf("Translated %d texts, %d failed batches\n", len(result.Report.Rows), len(result.Report.FailedBatches))
		}
		if err != nil {
			log.WithError(err).Fatal("Translation failed")
		}
		return
	}

	targets, err := loadTargets(*templateFile, *targetList)
	if err != nil {
		log.WithError(err).Fatal("Failed to read targets")
	}

	result, err := engine.RunVolumes(ctx, service.VolumeRequest{
		Provider: *provider,
		Mode:     *mode,
		Category: *category,
		Targets:  targets,
		Keywords: keywords,
	})
	if result != nil {
		if result.Workbook != nil {
			saveWorkbook(engine, result.Workbook, log)
		}
		printSummary(result.Report)
	}
	switch {
	case errors.Is(err, service.ErrEmptyResult):
		fmt.Println("No search volume data was returned; no workbook written.")
		os.Exit(2)
	case api.IsFatal(err):
		log.WithError(err).Fatal("Run stopped by provider")
	case err != nil:
		log.WithError(err).Fatal("Run failed")
	}
}

func loadTargets(templateFile, list string) ([]geo.Target, error) {
	if templateFile != "" {
		return geo.LoadTemplate(templateFile)
	}
	if list == "" {
		return nil, fmt.Errorf("no targets: use -template or -targets")
	}
	return geo.ParseTargets(list)
}

func saveWorkbook(engine *service.Engine, w *service.Workbook, log *logger.Logger) {
	if err := engine.Save(w); err != nil {
		log.WithError(err).Error("Failed to save workbook")
		return
	}
	fmt.Printf("Workbook written: %s\n", w.Path)
}

func printProgress(p pipeline.Progress) {
	status := "ok"
	switch p.Outcome {
	case api.OutcomeRetryable:
		status = "failed"
	case api.OutcomeFatal:
		status = "fatal"
	}
	fmt.Printf("[%s] batch %d/%d %s\n", p.Target, p.Batch, p.Total, status)
}

func printSummary(report *pipeline.Report) {
	if report == nil {
		return
	}
	fmt.Printf("\n=== Run %s ===\n", report.RunID)
	fmt.Printf("Provider: %s (%s)\n", report.Provider, report.Mode)
	fmt.Printf("Rows: %d\n", report.Table.Len())
	fmt.Printf("Failed terms: %d\n", len(report.Failed))
	fmt.Printf("Failed batches: %d\n", len(report.FailedBatches))
	fmt.Printf("Duration: %s\n", report.Duration().String())
}

func printUsage() {
	fmt.Println("Searchabull keyword engine")
	fmt.Println("")
	fmt.Println("USAGE:")
	fmt.Println("    ./searchabull -keywords words.xlsx -targets \"Europe:Germany:German\" [OPTIONS]")
	fmt.Println("    ./searchabull -keywords words.txt -translate -target-lang DE")
	fmt.Println("    ./searchabull -balance")
	fmt.Println("")
	fmt.Println("OPTIONS:")
	fmt.Println("    -config string        Configuration file (env: SEARCHABULL_CONFIG)")
	fmt.Println("    -keywords string      Keyword list (env: KEYWORDS_FILE)")
	fmt.Println("    -targets string       Region:Location:Language;... (env: TARGETS)")
	fmt.Println("    -template string      YAML location template (env: TEMPLATE_FILE)")
	fmt.Println("    -category string      Category column value (env: CATEGORY)")
	fmt.Println("    -provider string      dataforseo or googleads")
	fmt.Println("    -mode string          historical or ideas")
	fmt.Println("    -output string        Output directory (env: OUTPUT_DIR)")
	fmt.Println("    -translate            Translate keywords with DeepL")
	fmt.Println("    -source-lang string   DeepL source language")
	fmt.Println("    -target-lang string   DeepL target language")
	fmt.Println("    -balance              Print the DataForSEO balance")
	fmt.Println("    -debug                Enable debug logging (env: DEBUG)")
	fmt.Println("")
	fmt.Println("CREDENTIALS (env or .env):")
	fmt.Println("    DATAFORSEO_LOGIN, DATAFORSEO_PASSWORD")
	fmt.Println("    GOOGLE_ADS_DEVELOPER_TOKEN, GOOGLE_ADS_CUSTOMER_ID, GOOGLE_ADS_CLIENT_ID,")
	fmt.Println("    GOOGLE_ADS_CLIENT_SECRET, GOOGLE_ADS_REFRESH_TOKEN")
	fmt.Println("    DEEPL_API_KEY")
}
