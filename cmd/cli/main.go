package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/warehouse-tools/priceplan/pkg/models/domain"
	"github.com/warehouse-tools/priceplan/pkg/runtime/terminal"
	"github.com/warehouse-tools/priceplan/pkg/services/config"
	"github.com/warehouse-tools/priceplan/pkg/services/elasticity"
	"github.com/warehouse-tools/priceplan/pkg/services/forecast"
	"github.com/warehouse-tools/priceplan/pkg/services/history"
	"github.com/warehouse-tools/priceplan/pkg/services/optimizer"
	"github.com/warehouse-tools/priceplan/pkg/services/planner"
	"github.com/warehouse-tools/priceplan/pkg/services/sources"
	"github.com/warehouse-tools/priceplan/pkg/store/duckdb"
	"github.com/warehouse-tools/priceplan/pkg/store/duckdb/sales"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfgPath := os.Getenv("PRICEPLAN_CONFIG")
	if cfgPath == "" {
		cfgPath = "priceplan.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	// reports go to stdout, logs stay on stderr
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	ctx := logger.WithContext(context.Background())

	profiles, err := sources.NewRegistry(cfg.Sources.Path)
	if err != nil {
		return fmt.Errorf("load source profiles: %w", err)
	}

	registry := history.NewRegistry()
	for sourceType, factory := range map[domain.SourceType]history.ProviderFactory{
		domain.SourceTypeDuckDB:     history.DuckDBFactory,
		domain.SourceTypeCSV:        history.CSVFactory,
		domain.SourceTypeS3:         history.S3Factory,
		domain.SourceTypeSnowflake:  history.SnowflakeFactory,
		domain.SourceTypeDatabricks: history.DatabricksFactory,
	} {
		if err := registry.Register(sourceType, factory); err != nil {
			return fmt.Errorf("register %s provider: %w", sourceType, err)
		}
	}

	db, err := duckdb.NewDB(duckdb.Settings{DbPath: cfg.Storage.DbPath})
	if err != nil {
		return fmt.Errorf("open local store: %w", err)
	}
	defer db.Close()

	salesStore, err := sales.NewStore(db)
	if err != nil {
		return err
	}

	forecaster := forecast.NewForecaster(forecast.DefaultSettings())
	estimator := elasticity.NewEstimator(elasticity.DefaultSettings())
	annealer := optimizer.NewOptimizer()
	pipeline := planner.NewPlanner(forecaster, estimator, annealer, planner.Settings{
		DefaultHistoryDays: cfg.Planning.HistoryDays,
		DefaultHorizon:     cfg.Planning.HorizonDays,
		StageTimeout:       cfg.Planning.StageTimeout,
	})

	cli := terminal.NewCLI(terminal.Options{
		Planner:        pipeline,
		Explorer:       history.NewExplorer(profiles, registry),
		DB:             db,
		Sales:          salesStore,
		DefaultProfile: cfg.Sources.DefaultProfile,
		Output:         os.Stdout,
	})

	return cli.Execute(ctx)
}
