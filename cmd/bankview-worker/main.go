package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"bankview/internal/amqp"
	"bankview/internal/cache"
	"bankview/internal/cli"
	"bankview/internal/client"
	"bankview/internal/core"
	"bankview/internal/export"
	"bankview/internal/log"
)

const cacheCleanupInterval = 1 * time.Hour

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)
	logger.Info("Starting bankview-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	optionsCache := cache.NewLRUCache[core.FilterOptions](cfg.FilterCacheSize, cfg.FilterCacheTTL)
	api := client.NewWithHTTPClient(cfg.APIBaseURL, optionsCache, &http.Client{Timeout: cfg.HTTPTimeout})

	// Expired filter samples are evicted in the background so long
	// runs do not pin stale entries.
	cacheManager := cache.NewManager()
	cacheManager.Register(optionsCache)
	cacheManager.StartCleanup(cacheCleanupInterval)

	// The spreadsheet target is optional; without it the worker idles
	// instead of failing, matching how deployments without Google
	// credentials run.
	var exporter *export.SheetsExporter
	if cfg.GoogleSpreadsheetID != "" {
		var err error
		exporter, err = export.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets exporter", log.FieldError, err)
			cacheManager.Stop()
			return
		}
		logger.Info("Google Sheets exporter initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets export disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		cacheManager.Stop()
	})

	if exporter != nil {
		handler := func(msg *amqp.ExportRequestMessage) error {
			start := time.Now()
			err := exporter.Export(ctx, api, msg.AnalysisID, msg.Criteria, msg.SheetName)
			if err != nil {
				logger.Error("Export failed",
					log.FieldAnalysisID, msg.AnalysisID,
					log.FieldError, err)
				return err
			}
			logger.Info("Export completed",
				log.FieldAnalysisID, msg.AnalysisID,
				log.FieldSheetName, msg.SheetName,
				log.FieldDuration, time.Since(start))
			return nil
		}

		go func() {
			err := amqp.ConsumeWithReconnect(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, handler)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", log.FieldError, err)
			}
		}()
	} else {
		logger.Info("Skipping export queue consumption - no exporter available")
	}

	cli.WaitForShutdown(ctx, done)
}
