package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/maltedev/parts-fitment-scraper/internal/browser"
	"github.com/maltedev/parts-fitment-scraper/internal/config"
	"github.com/maltedev/parts-fitment-scraper/internal/database"
	"github.com/maltedev/parts-fitment-scraper/internal/events"
	"github.com/maltedev/parts-fitment-scraper/internal/ratelimit"
	"github.com/maltedev/parts-fitment-scraper/internal/scraper"
	"github.com/maltedev/parts-fitment-scraper/internal/spreadsheet"
	"github.com/maltedev/parts-fitment-scraper/pkg/logger"
	"github.com/redis/go-redis/v9"
)

func main() {
	var (
		inputFile  = flag.String("input", "", "Input .xlsx file with product URLs")
		outputFile = flag.String("output", "", "Output .xlsx file (default: <input>-Updated.xlsx)")
		urlColumn  = flag.String("url-column", "", "Input column holding product URLs (overrides SCRAPER_URL_COLUMN)")
		headless   = flag.Bool("headless", true, "Run browser in headless mode")
	)
	flag.Parse()

	if *inputFile == "" {
		fmt.Println("Please provide an input file with -input")
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *urlColumn != "" {
		cfg.Scraper.URLColumn = *urlColumn
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Starting parts fitment scraper")

	output := *outputFile
	if output == "" {
		output = defaultOutputPath(*inputFile)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutdown signal received")
		cancel()
	}()

	input, err := spreadsheet.ReadTable(*inputFile)
	if err != nil {
		logger.Error("Failed to read input file", "file", *inputFile, "error", err)
		os.Exit(1)
	}

	logger.Info("Input loaded", "file", *inputFile, "rows", len(input.Rows), "columns", input.Columns)

	browserOpts := &browser.Options{
		Headless:       *headless && cfg.Browser.Headless,
		Timeout:        cfg.Browser.Timeout,
		UserAgent:      cfg.Browser.UserAgent,
		ViewportWidth:  cfg.Browser.ViewportWidth,
		ViewportHeight: cfg.Browser.ViewportHeight,
		AcceptLanguage: cfg.Browser.AcceptLanguage,
		TimezoneID:     cfg.Browser.TimezoneID,
		Locale:         cfg.Browser.Locale,
	}

	pageScraper := scraper.NewProductScraper(browserOpts, cfg.Scraper)
	writer := spreadsheet.NewWriter(output)
	limiter := ratelimit.New(cfg.Scraper.DelayMin, cfg.Scraper.DelayMax)

	var opts []scraper.OrchestratorOption

	if cfg.Database.URL != "" {
		db, err := database.New(ctx, cfg.Database.URL, cfg.Database.MaxConns)
		if err != nil {
			logger.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		store := database.NewResultStore(db)
		if err := store.EnsureSchema(ctx); err != nil {
			logger.Error("Failed to prepare archive schema", "error", err)
			os.Exit(1)
		}

		opts = append(opts, scraper.WithArchiver(store))
		logger.Info("Database archive enabled")
	}

	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}

		opts = append(opts, scraper.WithPublisher(events.NewPublisher(redisClient, cfg.Redis.Stream, logger)))
		logger.Info("Lifecycle events enabled", "stream", cfg.Redis.Stream)
	}

	orchestrator := scraper.NewOrchestrator(
		pageScraper, writer, limiter,
		cfg.Scraper.URLColumn, cfg.Scraper.CheckpointEvery,
		opts...,
	)

	summary, err := orchestrator.Run(ctx, input)
	if err != nil {
		logger.Error("Batch failed", "error", err)
		os.Exit(1)
	}

	if summary.Rows == 0 {
		logger.Warn("No data extracted", "processed", summary.Processed)
		return
	}

	logger.Info("Done",
		"output", output,
		"rows", summary.Rows,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
	)
}

func defaultOutputPath(input string) string {
	ext := ".xlsx"
	base := input
	if len(input) > len(ext) && input[len(input)-len(ext):] == ext {
		base = input[:len(input)-len(ext)]
	}
	return base + "-Updated" + ext
}
