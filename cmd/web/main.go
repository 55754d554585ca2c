package main

import (
	"fmt"
	"net"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/warehouse-tools/priceplan/pkg/handlers/planning"
	"github.com/warehouse-tools/priceplan/pkg/models/domain"
	"github.com/warehouse-tools/priceplan/pkg/server"
	"github.com/warehouse-tools/priceplan/pkg/services/config"
	"github.com/warehouse-tools/priceplan/pkg/services/elasticity"
	"github.com/warehouse-tools/priceplan/pkg/services/forecast"
	"github.com/warehouse-tools/priceplan/pkg/services/history"
	"github.com/warehouse-tools/priceplan/pkg/services/optimizer"
	"github.com/warehouse-tools/priceplan/pkg/services/planner"
	"github.com/warehouse-tools/priceplan/pkg/services/sources"
)

var cfgPath string

func main() {
	var rootCmd = &cobra.Command{
		Use:   "web",
		Short: "Start the production planning API server",
		RunE:  runServer,
	}

	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "priceplan.yaml",
		"Path to the configuration file")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Error loading .env file: %v\n", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := logger.WithContext(cmd.Context())

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		cfg.Server.Port = port
	}

	profiles, err := sources.NewRegistry(cfg.Sources.Path)
	if err != nil {
		return fmt.Errorf("failed to load source profiles: %w", err)
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
			return fmt.Errorf("failed to register %s provider: %w", sourceType, err)
		}
	}
	explorer := history.NewExplorer(profiles, registry)

	forecaster := forecast.NewForecaster(forecast.DefaultSettings())
	estimator := elasticity.NewEstimator(elasticity.DefaultSettings())
	annealer := optimizer.NewOptimizer()
	pipeline := planner.NewPlanner(forecaster, estimator, annealer, planner.Settings{
		DefaultHistoryDays: cfg.Planning.HistoryDays,
		DefaultHorizon:     cfg.Planning.HorizonDays,
		StageTimeout:       cfg.Planning.StageTimeout,
	})

	var scheduler *planner.Scheduler
	if cfg.Scheduler.Enabled {
		profile := cfg.Scheduler.Profile
		if profile == "" {
			profile = cfg.Sources.DefaultProfile
		}
		provider, err := explorer.GetProvider(ctx, profile)
		if err != nil {
			return fmt.Errorf("failed to resolve scheduler profile %q: %w", profile, err)
		}

		scheduler = planner.NewScheduler(ctx, pipeline, planner.RunSpec{Provider: provider})
		if err := scheduler.Register(cfg.Scheduler.Cron); err != nil {
			return err
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	logger.Info().Msgf("Configuration loaded from `%s`.", cfgPath)
	logger.Info().Msgf("Found the following source profiles:")
	known, _ := profiles.GetProfiles(ctx)
	for _, profile := range known {
		logger.Info().Msgf("Name: `%s`, Type: `%s`", profile.Name, profile.Type)
	}

	api := server.NewWebAPI(logger, server.Config{
		Addr: net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Defaults: planning.Settings{
			DefaultProfile: cfg.Sources.DefaultProfile,
			HistoryDays:    cfg.Planning.HistoryDays,
			HorizonDays:    cfg.Planning.HorizonDays,
		},
		Dependencies: server.Dependencies{
			Planning: planning.Services{
				Forecaster: forecaster,
				Estimator:  estimator,
				Optimizer:  annealer,
				Planner:    pipeline,
				Explorer:   explorer,
				Scheduler:  scheduler,
			},
		},
	})

	return api.Start()
}
