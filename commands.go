package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"animalitos-stats/config"
	"animalitos-stats/notify/telegram"
	"animalitos-stats/plot"
	"animalitos-stats/scraper/tuazar"
	"animalitos-stats/server"
	"animalitos-stats/services"
	"animalitos-stats/storage"
	"animalitos-stats/utils"
)

func runReport(args []string) int {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to a YAML config file")
	input := fs.String("input", "", "CSV file with an animal column (default results.csv)")
	groupBy := fs.String("group-by", "", "column to group by, e.g. hour or date")
	mode := fs.String("mode", "", "output mode: text, chart or telegram")
	source := fs.String("source", "", "record source: csv, postgres or sqlite")
	chartOut := fs.String("chart-out", "", "PNG path used in chart mode")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	cfg, ok := loadConfig(*configPath)
	if !ok {
		return exitFailure
	}
	override(&cfg.Report.Input, *input)
	override(&cfg.Report.GroupBy, *groupBy)
	override(&cfg.Report.Mode, *mode)
	override(&cfg.Report.Source, *source)
	override(&cfg.Report.ChartPath, *chartOut)

	logger := utils.NewLogger(cfg.Logging.Level)
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Error("[main] Invalid configuration: %v", err)
		return exitFailure
	}

	src, closeSrc, err := openSource(cfg)
	if err != nil {
		logger.Error("[main] %v", err)
		return exitFailure
	}
	defer closeSrc()

	sink, err := newSink(cfg, logger)
	if err != nil {
		logger.Error("[main] %v", err)
		return exitFailure
	}

	report, err := services.NewReporter(logger).Run(src, cfg.Report.GroupBy, sink)
	if err != nil {
		logger.Error("[main] Report failed: %v", err)
		return exitCode(err)
	}

	logger.Debug("[main] %s: %d records, %d skipped, %d categories",
		report.Source, report.Records, report.Skipped, len(report.Overall.Shares))
	return exitOK
}

func runScrape(args []string) int {
	fs := flag.NewFlagSet("scrape", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to a YAML config file")
	from := fs.String("from", "", "first week to fetch (YYYY-MM-DD)")
	to := fs.String("to", "", "last day to fetch (YYYY-MM-DD, default today)")
	out := fs.String("out", "", "CSV file to write (default results.csv)")
	archive := fs.String("archive", "", "also store draws in postgres or sqlite")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	cfg, ok := loadConfig(*configPath)
	if !ok {
		return exitFailure
	}
	override(&cfg.Scrape.StartDate, *from)
	override(&cfg.Scrape.EndDate, *to)
	override(&cfg.Scrape.Output, *out)
	override(&cfg.Scrape.Archive, *archive)

	logger := utils.NewLogger(cfg.Logging.Level)
	defer logger.Sync()

	if err := cfg.ValidateScrape(); err != nil {
		logger.Error("[main] Invalid configuration: %v", err)
		return exitFailure
	}

	runID := uuid.NewString()
	logger.Info("=== Animalitos scrape %s starting ===", runID)
	logger.Info("Config: %s → %s | concurrency: %d | rate: %dms",
		cfg.Scrape.StartDate, cfg.Scrape.EndDate, cfg.Scrape.MaxConcurrency, cfg.Scrape.RateLimitMs)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	raw, err := tuazar.New(cfg, logger).Scrape(ctx)
	if err != nil {
		logger.Error("[main] Scrape finished with errors: %v", err)
	}
	if len(raw) == 0 {
		logger.Error("[main] No draws were scraped. Exiting.")
		return exitFailure
	}

	draws := services.NewCleaner(logger).Clean(raw, runID)
	if len(draws) == 0 {
		logger.Error("[main] All draws were dropped during cleaning. Exiting.")
		return exitFailure
	}

	writers := []storage.DrawWriter{}
	csvWriter, err := storage.NewCSVWriter(cfg.Scrape.Output)
	if err != nil {
		logger.Error("[main] Failed to create CSV writer: %v", err)
		return exitFailure
	}
	writers = append(writers, csvWriter)

	if cfg.Scrape.Archive != "" {
		store, err := openStore(cfg, cfg.Scrape.Archive)
		if err != nil {
			logger.Error("[main] Failed to open %s archive: %v", cfg.Scrape.Archive, err)
			_ = csvWriter.Close()
			return exitFailure
		}
		writers = append(writers, store)
	}

	code := exitOK
	for _, w := range writers {
		n, err := w.Write(draws)
		if err != nil {
			logger.Error("[main] Write failed after %d draws: %v", n, err)
			code = exitFailure
		} else {
			logger.Info("[main] Stored %d of %d draws (%T)", n, len(draws), w)
		}
		if err := w.Close(); err != nil {
			logger.Error("[main] Close failed: %v", err)
			code = exitFailure
		}
	}

	logger.Info("Done. %d draws → %s", len(draws), cfg.Scrape.Output)
	return code
}

func runServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to a YAML config file")
	addr := fs.String("addr", "", "listen address (default :8080)")
	input := fs.String("input", "", "CSV file served by /report")
	source := fs.String("source", "", "record source: csv, postgres or sqlite")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	cfg, ok := loadConfig(*configPath)
	if !ok {
		return exitFailure
	}
	override(&cfg.Server.Addr, *addr)
	override(&cfg.Report.Input, *input)
	override(&cfg.Report.Source, *source)

	logger := utils.NewLogger(cfg.Logging.Level)
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Error("[main] Invalid configuration: %v", err)
		return exitFailure
	}

	src, closeSrc, err := openSource(cfg)
	if err != nil {
		logger.Error("[main] %v", err)
		return exitFailure
	}
	defer closeSrc()

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.CreateRouter(services.NewReporter(logger), src, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, stopping server...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("[main] Shutdown failed: %v", err)
		}
	}()

	logger.Info("Serving reports of %s on %s", cfg.Report.Source, cfg.Server.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("[main] Server failed: %v", err)
		return exitFailure
	}
	return exitOK
}

// openSource returns the record source selected by report.source and a
// function releasing it.
func openSource(cfg *config.Config) (storage.RecordSource, func(), error) {
	if cfg.Report.Source == "csv" {
		return storage.NewCSVReader(cfg.Report.Input), func() {}, nil
	}
	store, err := openStore(cfg, cfg.Report.Source)
	if err != nil {
		return nil, nil, err
	}
	return store, func() { _ = store.Close() }, nil
}

func openStore(cfg *config.Config, kind string) (*storage.SQLStore, error) {
	if kind == "postgres" {
		return storage.NewPostgresStore(cfg.DSN())
	}
	return storage.NewSQLiteStore(cfg.SQLite.Path)
}

func newSink(cfg *config.Config, logger *utils.Logger) (services.Sink, error) {
	switch cfg.Report.Mode {
	case "chart":
		return plot.NewChartSink(cfg.Report.ChartPath, logger), nil
	case "telegram":
		return telegram.NewSink(cfg.Telegram.BotToken, cfg.Telegram.ChatID, 3, logger)
	default:
		return services.NewTextSink(os.Stdout), nil
	}
}
