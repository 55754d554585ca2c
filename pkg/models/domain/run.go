package domain

import "time"

type RunStatus string

const (
	RunStatusPending RunStatus = "pending"
	RunStatusRunning RunStatus = "running"
	RunStatusDone    RunStatus = "done"
	RunStatusFailed  RunStatus = "failed"
)

type RunStage string

const (
	RunStageCollect    RunStage = "collect_data"
	RunStageForecast   RunStage = "forecast"
	RunStageElasticity RunStage = "estimate_elasticity"
	RunStageOptimize   RunStage = "optimize"
	RunStageSynthesize RunStage = "synthesize"
)

type StageResult struct {
	Stage     RunStage
	StartedAt time.Time
	Duration  time.Duration
	Err       error
}

// OptimizationRun is the handle for one pipeline execution. Each run owns its
// inputs and intermediate products; nothing is shared between runs.
type OptimizationRun struct {
	ID        string
	Status    RunStatus
	StartedAt time.Time
	Duration  time.Duration
	Stages    []StageResult

	Records      map[string][]SalesRecord
	Forecasts    map[string]CategoryForecast
	Elasticities map[string]ElasticityParams
	Result       *OptimizationResult
	Plan         *ProductionPlan
	Err          error
}

// Failed returns true once the run has reached its terminal failure state.
func (r *OptimizationRun) Failed() bool {
	return r.Status == RunStatusFailed
}
