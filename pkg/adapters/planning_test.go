package adapters

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warehouse-tools/priceplan/pkg/models/api"
	"github.com/warehouse-tools/priceplan/pkg/models/domain"
)

func TestMapSalesRecordApiToDomain(t *testing.T) {
	record, err := MapSalesRecordApiToDomain(api.SalesRecord{
		Date:           "2026-01-05",
		Category:       "beverages",
		SalesPrice:     2.5,
		QuantitySold:   120,
		WholesalePrice: 1.8,
	})
	require.NoError(t, err)

	assert.Equal(t, time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), record.Date)
	assert.Equal(t, "beverages", record.Category)
	assert.Equal(t, 2.5, record.UnitPrice)
	assert.Equal(t, 120.0, record.Quantity)
	assert.Equal(t, 1.8, record.WholesalePrice)

	_, err = MapSalesRecordApiToDomain(api.SalesRecord{Date: "05/01/2026", Category: "beverages"})
	assert.ErrorContains(t, err, `parse sales record date "05/01/2026"`)
}

func TestMapAlgorithmParamsApiToDomain(t *testing.T) {
	defaults := domain.AnnealingParams{MaxIterations: 1000, InitialTemp: 100, CoolingRate: 0.95}

	t.Run("nil request keeps the defaults", func(t *testing.T) {
		assert.Equal(t, defaults, MapAlgorithmParamsApiToDomain(nil, defaults))
	})

	t.Run("explicit zero overrides the default", func(t *testing.T) {
		zero := 0
		params := MapAlgorithmParamsApiToDomain(&api.AlgorithmParams{MaxIterations: &zero}, defaults)
		assert.Zero(t, params.MaxIterations)
		assert.Equal(t, 100.0, params.InitialTemp)
		assert.Equal(t, 0.95, params.CoolingRate)
	})

	t.Run("partial overrides", func(t *testing.T) {
		temp := 50.0
		seed := int64(7)
		params := MapAlgorithmParamsApiToDomain(&api.AlgorithmParams{InitialTemp: &temp, Seed: &seed}, defaults)
		assert.Equal(t, 1000, params.MaxIterations)
		assert.Equal(t, 50.0, params.InitialTemp)
		assert.Equal(t, int64(7), params.Seed)
	})
}

func TestMapPriceConstraintsApiToDomain(t *testing.T) {
	defaults := domain.Constraints{MinPrice: 0.1, MaxPrice: 50, LossRate: 0.04}

	assert.Equal(t, defaults, MapPriceConstraintsApiToDomain(nil, defaults))

	maxPrice := 20.0
	constraints := MapPriceConstraintsApiToDomain(&api.PriceConstraints{MaxPrice: &maxPrice}, defaults)
	assert.Equal(t, 0.1, constraints.MinPrice)
	assert.Equal(t, 20.0, constraints.MaxPrice)
	assert.Equal(t, 0.04, constraints.LossRate)
}

func TestMapPlanDomainToApi_CapsProfitHistory(t *testing.T) {
	trace := make([]domain.TracePoint, 500)
	for i := range trace {
		trace[i] = domain.TracePoint{Iteration: i, Objective: float64(i)}
	}

	response := MapPlanDomainToApi(domain.ProductionPlan{}, trace)

	require.Len(t, response.ProfitHistory, 100)
	assert.Equal(t, 0.0, response.ProfitHistory[0])
	assert.Equal(t, 99.0, response.ProfitHistory[99])
}

func TestMapPlanDomainToApi(t *testing.T) {
	day := time.Date(2026, 1, 6, 0, 0, 0, 0, time.UTC)
	plan := domain.ProductionPlan{
		Days: []domain.DailyPlan{{
			Date: day,
			Categories: map[string]domain.CategoryPlanEntry{
				"beverages": {OptimalPrice: 12.5, ExpectedDemand: 95.2, ExpectedProfit: 228.5},
			},
			TotalProfit: 228.5,
		}},
		TotalProfit:   228.5,
		AverageMarkup: 0.42,
		Convergence:   domain.Convergence{Iterations: 50, FinalTemperature: 7.69, ImprovementRate: 0.3},
	}
	trace := []domain.TracePoint{{Iteration: 0, Objective: 60}, {Iteration: 1, Objective: 80}}

	response := MapPlanDomainToApi(plan, trace)

	require.Len(t, response.DailyResults, 1)
	daily := response.DailyResults[0]
	assert.Equal(t, "2026-01-06", daily.Date)
	assert.Equal(t, 12.5, daily.OptimalPrices["beverages"])
	assert.Equal(t, 95.2, daily.Demands["beverages"])
	assert.Equal(t, 228.5, daily.Profits["beverages"])
	assert.Equal(t, []float64{60, 80}, response.ProfitHistory)
	assert.Equal(t, 50, response.Convergence.Iterations)
}

func TestMapRunDomainToApi(t *testing.T) {
	started := time.Date(2026, 1, 6, 3, 0, 0, 0, time.UTC)
	run := &domain.OptimizationRun{
		ID:        "run-1",
		Status:    domain.RunStatusFailed,
		StartedAt: started,
		Duration:  1500 * time.Millisecond,
		Stages: []domain.StageResult{
			{Stage: domain.RunStageCollect, StartedAt: started, Duration: 20 * time.Millisecond},
			{Stage: domain.RunStageForecast, StartedAt: started, Duration: 5 * time.Millisecond, Err: errors.New("fit failed")},
		},
		Err: errors.New("fit failed"),
	}

	mapped := MapRunDomainToApi(run)

	assert.Equal(t, "run-1", mapped.ID)
	assert.Equal(t, "failed", mapped.Status)
	assert.Equal(t, int64(1500), mapped.Duration)
	assert.Equal(t, "fit failed", mapped.Error)
	assert.Nil(t, mapped.Plan)

	require.Len(t, mapped.Stages, 2)
	assert.Equal(t, "collect_data", mapped.Stages[0].Stage)
	assert.Equal(t, int64(20), mapped.Stages[0].DurationMS)
	assert.Empty(t, mapped.Stages[0].Error)
	assert.Equal(t, "forecast", mapped.Stages[1].Stage)
	assert.Equal(t, "fit failed", mapped.Stages[1].Error)
}
