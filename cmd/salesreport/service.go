package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"salesdash/internal/config"
	"salesdash/internal/dataprocessing"
	"salesdash/internal/infrastructure"
	"salesdash/internal/services"
)

// loadService loads the configured dataset. Logs go to stderr so stdout
// carries only the report.
func loadService(ctx context.Context, verbose bool) (*services.DashboardService, *config.Paths, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	level := "warn"
	if verbose {
		level = "debug"
	}
	logger := infrastructure.NewLoggerWithWriter(os.Stderr, "text", level)

	paths, err := cfg.ResolvePaths()
	if err != nil {
		return nil, nil, nil, err
	}

	policy, err := dataprocessing.ParsePricePolicy(cfg.Dataset.PricePolicy)
	if err != nil {
		return nil, nil, nil, err
	}

	svc, err := services.NewDashboardService(services.DashboardServiceConfig{
		Files:       paths.SourcePaths(cfg.Dataset.SourceFiles),
		PricePolicy: policy,
		CacheSize:   cfg.Dataset.CacheSize,
		Presentation: services.Presentation{
			Title:  cfg.Dataset.Title,
			Header: cfg.Dataset.Header,
			Footer: cfg.Dataset.Footer,
		},
		Logger: logger,
	})
	if err != nil {
		return nil, nil, nil, err
	}

	if err := svc.Load(ctx); err != nil {
		return nil, nil, nil, err
	}
	return svc, paths, logger, nil
}
