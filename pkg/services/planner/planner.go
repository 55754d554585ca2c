package planner

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/warehouse-tools/priceplan/pkg/models/domain"
	"github.com/warehouse-tools/priceplan/pkg/services/elasticity"
	"github.com/warehouse-tools/priceplan/pkg/services/forecast"
	"github.com/warehouse-tools/priceplan/pkg/services/history"
	"github.com/warehouse-tools/priceplan/pkg/services/optimizer"
	"golang.org/x/sync/errgroup"
)

// Settings contains the pipeline-level knobs
type Settings struct {
	// DefaultHistoryDays is the trailing sales window pulled from a provider (default: 90)
	DefaultHistoryDays int
	// DefaultHorizon is the plan length in days (default: 7)
	DefaultHorizon int
	// StageTimeout bounds each pipeline stage (default: 60s)
	StageTimeout time.Duration
}

func DefaultSettings() Settings {
	return Settings{
		DefaultHistoryDays: 90,
		DefaultHorizon:     7,
		StageTimeout:       60 * time.Second,
	}
}

// RunSpec describes one pipeline execution. Sales data comes either inline
// through Records or from Provider; empty Categories means every category
// present in the data.
type RunSpec struct {
	Categories  []string
	Records     []domain.SalesRecord
	Provider    history.Provider
	Days        int
	Horizon     int
	Constraints domain.Constraints
	Params      domain.AnnealingParams
}

type Planner interface {
	Execute(ctx context.Context, spec RunSpec) (*domain.OptimizationRun, error)
}

type planner struct {
	forecaster forecast.Forecaster
	estimator  elasticity.Estimator
	optimizer  optimizer.Optimizer
	settings   Settings
}

func NewPlanner(
	forecaster forecast.Forecaster,
	estimator elasticity.Estimator,
	opt optimizer.Optimizer,
	settings Settings,
) Planner {
	return &planner{
		forecaster: forecaster,
		estimator:  estimator,
		optimizer:  opt,
		settings:   settings,
	}
}

// Execute drives one run through collect, the two model stages in parallel,
// optimize and synthesize. A run either finishes with a complete plan or
// fails with no plan at all; the returned handle carries the stage log and
// whatever intermediate products were produced before the failure.
func (p *planner) Execute(ctx context.Context, spec RunSpec) (*domain.OptimizationRun, error) {
	run := &domain.OptimizationRun{
		ID:        uuid.NewString(),
		Status:    domain.RunStatusRunning,
		StartedAt: time.Now(),
	}
	defer func() { run.Duration = time.Since(run.StartedAt) }()

	logger := zerolog.Ctx(ctx).With().Str("run_id", run.ID).Logger()
	ctx = logger.WithContext(ctx)

	p.applyDefaults(&spec)

	collect := p.runStage(ctx, domain.RunStageCollect, func(ctx context.Context) error {
		records, err := p.collect(ctx, spec)
		if err != nil {
			return err
		}
		run.Records = records
		return nil
	})
	run.Stages = append(run.Stages, collect)
	if collect.Err != nil {
		return p.fail(ctx, run, collect.Err)
	}

	// the two model stages read the same records and write disjoint fields
	var forecastStage, elasticityStage domain.StageResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		forecastStage = p.runStage(gctx, domain.RunStageForecast, func(ctx context.Context) error {
			return p.forecastAll(ctx, run, spec.Horizon)
		})
		return forecastStage.Err
	})
	g.Go(func() error {
		elasticityStage = p.runStage(gctx, domain.RunStageElasticity, func(ctx context.Context) error {
			return p.estimateAll(ctx, run)
		})
		return elasticityStage.Err
	})
	err := g.Wait()
	run.Stages = append(run.Stages, forecastStage, elasticityStage)
	if err != nil {
		return p.fail(ctx, run, err)
	}

	optimize := p.runStage(ctx, domain.RunStageOptimize, func(ctx context.Context) error {
		started := time.Now()
		result, err := p.optimizer.Optimize(ctx, optimizer.Inputs{
			Forecasts:    run.Forecasts,
			Elasticities: run.Elasticities,
			Constraints:  spec.Constraints,
			Params:       spec.Params,
		})
		if err != nil {
			return err
		}
		run.Result = &result

		if result.Interrupted {
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return &domain.OptimizationTimeoutError{
					Stage:   domain.RunStageOptimize,
					Elapsed: time.Since(started),
					Trace:   result.Trace,
				}
			}
			return ctx.Err()
		}
		return nil
	})
	run.Stages = append(run.Stages, optimize)
	if optimize.Err != nil {
		return p.fail(ctx, run, optimize.Err)
	}

	synthesize := p.runStage(ctx, domain.RunStageSynthesize, func(ctx context.Context) error {
		plan, err := Synthesize(*run.Result, run.Forecasts, run.Elasticities, spec.Constraints)
		if err != nil {
			return err
		}
		run.Plan = &plan
		return nil
	})
	run.Stages = append(run.Stages, synthesize)
	if synthesize.Err != nil {
		return p.fail(ctx, run, synthesize.Err)
	}

	run.Status = domain.RunStatusDone
	logger.Info().
		Float64("total_profit", run.Plan.TotalProfit).
		Int("iterations", run.Plan.Convergence.Iterations).
		Msg("optimization run finished")
	return run, nil
}

func (p *planner) applyDefaults(spec *RunSpec) {
	if spec.Days == 0 {
		spec.Days = p.settings.DefaultHistoryDays
	}
	if spec.Horizon == 0 {
		spec.Horizon = p.settings.DefaultHorizon
	}
	if spec.Params == (domain.AnnealingParams{}) {
		spec.Params = optimizer.DefaultParams()
	}
	if spec.Constraints == (domain.Constraints{}) {
		spec.Constraints = optimizer.DefaultConstraints()
	}
}

func (p *planner) runStage(ctx context.Context, stage domain.RunStage, fn func(ctx context.Context) error) domain.StageResult {
	stageCtx, cancel := context.WithTimeout(ctx, p.settings.StageTimeout)
	defer cancel()

	result := domain.StageResult{Stage: stage, StartedAt: time.Now()}
	result.Err = fn(stageCtx)
	result.Duration = time.Since(result.StartedAt)

	logger := zerolog.Ctx(ctx)
	if result.Err != nil {
		logger.Error().Err(result.Err).Str("stage", string(stage)).Dur("duration", result.Duration).Msg("stage failed")
	} else {
		logger.Debug().Str("stage", string(stage)).Dur("duration", result.Duration).Msg("stage finished")
	}
	return result
}

// collect gathers, validates and groups the sales records. Requested
// categories with no records at all fail the run here, before any model or
// search work starts.
func (p *planner) collect(ctx context.Context, spec RunSpec) (map[string][]domain.SalesRecord, error) {
	records := spec.Records
	if len(records) == 0 && spec.Provider != nil {
		var err error
		records, err = spec.Provider.GetSalesHistory(ctx, spec.Days)
		if err != nil {
			return nil, err
		}
	}
	if len(records) == 0 {
		return nil, &domain.DataInsufficientError{Records: 0, Needed: 1}
	}

	grouped := make(map[string][]domain.SalesRecord)
	for _, rec := range records {
		if rec.UnitPrice <= 0 {
			return nil, &domain.InvalidDataError{Category: rec.Category, Reason: "non-positive sales price"}
		}
		if rec.Quantity < 0 {
			return nil, &domain.InvalidDataError{Category: rec.Category, Reason: "negative quantity"}
		}
		if rec.WholesalePrice < 0 {
			return nil, &domain.InvalidDataError{Category: rec.Category, Reason: "negative wholesale price"}
		}
		grouped[rec.Category] = append(grouped[rec.Category], rec)
	}

	if len(spec.Categories) == 0 {
		return grouped, nil
	}

	selected := make(map[string][]domain.SalesRecord, len(spec.Categories))
	for _, category := range spec.Categories {
		recs := grouped[category]
		if len(recs) == 0 {
			return nil, &domain.DataInsufficientError{Category: category, Records: 0, Needed: 1}
		}
		selected[category] = recs
	}
	return selected, nil
}

func (p *planner) forecastAll(ctx context.Context, run *domain.OptimizationRun, horizon int) error {
	g, ctx := errgroup.WithContext(ctx)
	var mu sync.Mutex
	forecasts := make(map[string]domain.CategoryForecast, len(run.Records))

	for category, records := range run.Records {
		g.Go(func() error {
			fc, err := p.forecaster.Forecast(ctx, category, records, horizon)
			if err != nil {
				return err
			}
			mu.Lock()
			forecasts[category] = fc
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	run.Forecasts = forecasts
	return nil
}

func (p *planner) estimateAll(ctx context.Context, run *domain.OptimizationRun) error {
	g, ctx := errgroup.WithContext(ctx)
	var mu sync.Mutex
	estimates := make(map[string]domain.ElasticityParams, len(run.Records))

	for category, records := range run.Records {
		g.Go(func() error {
			params, err := p.estimator.Estimate(ctx, category, records)
			if err != nil {
				return err
			}
			mu.Lock()
			estimates[category] = params
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	run.Elasticities = estimates
	return nil
}

func (p *planner) fail(ctx context.Context, run *domain.OptimizationRun, err error) (*domain.OptimizationRun, error) {
	run.Status = domain.RunStatusFailed
	run.Err = err
	zerolog.Ctx(ctx).Error().Err(err).Msg("optimization run failed")
	return run, err
}
