package planner

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/warehouse-tools/priceplan/pkg/models/domain"
)

// Scheduler recomputes the production plan on a cron schedule and keeps the
// most recent completed run for pollers. A failed refresh is logged and the
// previous run stays visible; the snapshot swaps atomically, never part-way.
type Scheduler struct {
	cron    *cron.Cron
	planner Planner
	spec    RunSpec
	ctx     context.Context

	mu     sync.RWMutex
	latest *domain.OptimizationRun
}

func NewScheduler(ctx context.Context, planner Planner, spec RunSpec) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		planner: planner,
		spec:    spec,
		ctx:     ctx,
	}
}

// Register adds the refresh job under the given cron expression.
func (s *Scheduler) Register(schedule string) error {
	if _, err := s.cron.AddFunc(schedule, s.refresh); err != nil {
		return fmt.Errorf("register plan refresh: %w", err)
	}
	return nil
}

// Start begins scheduled refreshes and kicks one off immediately so pollers
// see a plan before the first tick.
func (s *Scheduler) Start() {
	s.cron.Start()
	go s.refresh()
	zerolog.Ctx(s.ctx).Info().Msg("plan scheduler started")
}

func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	zerolog.Ctx(s.ctx).Info().Msg("plan scheduler stopped")
}

// Latest returns the last completed run, or nil before the first refresh
// finishes.
func (s *Scheduler) Latest() *domain.OptimizationRun {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

func (s *Scheduler) refresh() {
	logger := zerolog.Ctx(s.ctx)

	run, err := s.planner.Execute(s.ctx, s.spec)
	if err != nil {
		logger.Error().Err(err).Str("run_id", run.ID).Msg("scheduled plan refresh failed")
		return
	}

	s.mu.Lock()
	s.latest = run
	s.mu.Unlock()

	logger.Info().
		Str("run_id", run.ID).
		Float64("total_profit", run.Plan.TotalProfit).
		Msg("plan refreshed")
}
