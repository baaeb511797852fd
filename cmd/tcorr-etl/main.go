package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/etstream/ssebop-tcorr-etl/internal/adapter/httpserver"
	kafkaadapter "github.com/etstream/ssebop-tcorr-etl/internal/adapter/kafka"
	"github.com/etstream/ssebop-tcorr-etl/internal/config"
	"github.com/etstream/ssebop-tcorr-etl/internal/model"
	"github.com/etstream/ssebop-tcorr-etl/internal/observability"
	"github.com/etstream/ssebop-tcorr-etl/internal/pipeline"
	"github.com/etstream/ssebop-tcorr-etl/internal/platform"
	"github.com/etstream/ssebop-tcorr-etl/internal/tcorr"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Platform client is feature-flagged via PLATFORM_ENABLED / PLATFORM_TOKEN.
	var client *platform.Client
	var evaluator platform.Evaluator
	if cfg.PlatformEnabled {
		client = platform.NewClient(cfg.PlatformURL, cfg.PlatformToken, cfg.PlatformTimeout, logger, metrics)
		evaluator = platform.NewCachedEvaluator(client, cfg.EvalCacheSize, metrics)
		metrics.PlatformEnabled.Set(1)
		logger.Info("compute platform enabled", "url", cfg.PlatformURL, "cache_size", cfg.EvalCacheSize)
	} else {
		logger.Info("compute platform disabled, statistics enrichment skipped")
	}

	scenes, climatology, err := loadTables(ctx, cfg, client, logger)
	if err != nil {
		logger.Error("failed to load coefficient tables", "error", err)
		os.Exit(1)
	}

	opts := []tcorr.Option{tcorr.WithDefault(cfg.DefaultTcorr)}
	if cfg.FixedTcorr != nil {
		opts = append(opts, tcorr.WithFixed(*cfg.FixedTcorr))
		logger.Warn("fixed tcorr override active, fallback chain bypassed", "tcorr", *cfg.FixedTcorr)
	}
	resolver := tcorr.NewResolver(scenes, climatology, opts...)

	params := model.Params{
		DTSource:       cfg.DTSource,
		ElevSource:     cfg.ElevSource,
		TmaxSource:     cfg.TmaxSource,
		TdiffThreshold: cfg.TdiffThreshold,
		DTMin:          cfg.DTMin,
		DTMax:          cfg.DTMax,
		ELRFlag:        cfg.ELRFlag,
	}

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	transformer := pipeline.NewTransformer(resolver, params, evaluator, logger, metrics)

	p := pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize)

	srv := httpserver.NewServer(cfg.HTTPAddr, p, httpserver.Status{
		SceneTableSize:  len(scenes),
		ClimatologySize: len(climatology),
		DefaultTcorr:    cfg.DefaultTcorr,
		FixedTcorr:      cfg.FixedTcorr != nil,
		PlatformEnabled: cfg.PlatformEnabled,
	}, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start ETL pipeline.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}

// loadTables materializes the coefficient tables at startup. Local file paths
// take precedence; otherwise tables come from the platform when enabled.
// Missing tables are not fatal, the resolver falls through to the default tier.
func loadTables(ctx context.Context, cfg *config.Config, client *platform.Client, logger *slog.Logger) (tcorr.MapSceneTable, tcorr.MapClimatologyTable, error) {
	var scenes tcorr.MapSceneTable
	var climatology tcorr.MapClimatologyTable
	var err error

	switch {
	case cfg.SceneTablePath != "":
		scenes, err = tcorr.LoadSceneTable(cfg.SceneTablePath)
		if err != nil {
			return nil, nil, err
		}
	case client != nil:
		scenes, err = client.FetchSceneTable(ctx, cfg.SceneTableRef)
		if err != nil {
			return nil, nil, err
		}
	}

	switch {
	case cfg.ClimatologyPath != "":
		climatology, err = tcorr.LoadClimatologyTable(cfg.ClimatologyPath)
		if err != nil {
			return nil, nil, err
		}
	case client != nil:
		climatology, err = client.FetchClimatology(ctx, cfg.ClimatologyRef)
		if err != nil {
			return nil, nil, err
		}
	}

	logger.Info("coefficient tables loaded",
		"scene_entries", len(scenes),
		"climatology_entries", len(climatology),
	)
	return scenes, climatology, nil
}
