package adapters

import (
	"fmt"
	"time"

	"github.com/warehouse-tools/priceplan/pkg/models/api"
	"github.com/warehouse-tools/priceplan/pkg/models/domain"
)

// profitHistoryLimit caps the trace returned on the wire; long annealing runs
// produce traces nobody plots past the first hundred points.
const profitHistoryLimit = 100

func MapSalesRecordApiToDomain(rec api.SalesRecord) (domain.SalesRecord, error) {
	date, err := time.Parse(api.DateLayout, rec.Date)
	if err != nil {
		return domain.SalesRecord{}, fmt.Errorf("parse sales record date %q: %w", rec.Date, err)
	}

	return domain.SalesRecord{
		Date:           date,
		Category:       rec.Category,
		Quantity:       rec.QuantitySold,
		UnitPrice:      rec.SalesPrice,
		WholesalePrice: rec.WholesalePrice,
	}, nil
}

func MapSalesRecordsApiToDomain(recs []api.SalesRecord) ([]domain.SalesRecord, error) {
	out := make([]domain.SalesRecord, 0, len(recs))
	for _, rec := range recs {
		mapped, err := MapSalesRecordApiToDomain(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, mapped)
	}
	return out, nil
}

func MapSalesRecordDomainToApi(rec domain.SalesRecord) api.SalesRecord {
	return api.SalesRecord{
		Date:           rec.Date.Format(api.DateLayout),
		Category:       rec.Category,
		SalesPrice:     rec.UnitPrice,
		QuantitySold:   rec.Quantity,
		WholesalePrice: rec.WholesalePrice,
	}
}

func MapCategoryForecastDomainToApi(f domain.CategoryForecast) api.CategoryForecast {
	points := make([]api.ForecastPoint, 0, len(f.Points))
	for _, p := range f.Points {
		points = append(points, api.ForecastPoint{
			Date:           p.Date.Format(api.DateLayout),
			PredictedPrice: p.Predicted,
			Lower:          p.Lower,
			Upper:          p.Upper,
		})
	}

	return api.CategoryForecast{
		Points:        points,
		Method:        string(f.Method),
		LowConfidence: f.LowConfidence,
	}
}

func MapCategoryForecastApiToDomain(category string, f api.CategoryForecast) (domain.CategoryForecast, error) {
	points := make([]domain.ForecastPoint, 0, len(f.Points))
	for _, p := range f.Points {
		date, err := time.Parse(api.DateLayout, p.Date)
		if err != nil {
			return domain.CategoryForecast{}, fmt.Errorf("parse forecast date %q: %w", p.Date, err)
		}
		points = append(points, domain.ForecastPoint{
			Date:      date,
			Predicted: p.PredictedPrice,
			Lower:     p.Lower,
			Upper:     p.Upper,
		})
	}

	return domain.CategoryForecast{
		Category:      category,
		Points:        points,
		Method:        domain.ForecastMethod(f.Method),
		LowConfidence: f.LowConfidence,
	}, nil
}

func MapElasticityParamsDomainToApi(p domain.ElasticityParams) api.ElasticityParams {
	return api.ElasticityParams{
		Elasticity:     p.Elasticity,
		Intercept:      p.Intercept,
		ReferencePrice: p.ReferencePrice,
		BaseDemand:     p.BaseDemand,
		RSquared:       p.RSquared,
		LowConfidence:  p.LowConfidence,
	}
}

func MapElasticityParamsApiToDomain(category string, p api.ElasticityParams) domain.ElasticityParams {
	return domain.ElasticityParams{
		Category:       category,
		Elasticity:     p.Elasticity,
		Intercept:      p.Intercept,
		ReferencePrice: p.ReferencePrice,
		BaseDemand:     p.BaseDemand,
		RSquared:       p.RSquared,
		LowConfidence:  p.LowConfidence,
	}
}

// MapAlgorithmParamsApiToDomain overlays the request's explicit fields on the
// supplied defaults. Nil request means all defaults.
func MapAlgorithmParamsApiToDomain(p *api.AlgorithmParams, defaults domain.AnnealingParams) domain.AnnealingParams {
	out := defaults
	if p == nil {
		return out
	}
	if p.MaxIterations != nil {
		out.MaxIterations = *p.MaxIterations
	}
	if p.InitialTemp != nil {
		out.InitialTemp = *p.InitialTemp
	}
	if p.CoolingRate != nil {
		out.CoolingRate = *p.CoolingRate
	}
	if p.Seed != nil {
		out.Seed = *p.Seed
	}
	return out
}

func MapPriceConstraintsApiToDomain(c *api.PriceConstraints, defaults domain.Constraints) domain.Constraints {
	out := defaults
	if c == nil {
		return out
	}
	if c.MinPrice != nil {
		out.MinPrice = *c.MinPrice
	}
	if c.MaxPrice != nil {
		out.MaxPrice = *c.MaxPrice
	}
	if c.LossRate != nil {
		out.LossRate = *c.LossRate
	}
	return out
}

func MapPlanDomainToApi(plan domain.ProductionPlan, trace []domain.TracePoint) api.OptimizeResponse {
	daily := make([]api.DailyResult, 0, len(plan.Days))
	for _, day := range plan.Days {
		result := api.DailyResult{
			Date:          day.Date.Format(api.DateLayout),
			OptimalPrices: make(map[string]float64, len(day.Categories)),
			Demands:       make(map[string]float64, len(day.Categories)),
			Profits:       make(map[string]float64, len(day.Categories)),
			TotalProfit:   day.TotalProfit,
		}
		for category, entry := range day.Categories {
			result.OptimalPrices[category] = entry.OptimalPrice
			result.Demands[category] = entry.ExpectedDemand
			result.Profits[category] = entry.ExpectedProfit
		}
		daily = append(daily, result)
	}

	history := make([]float64, 0, min(len(trace), profitHistoryLimit))
	for i, point := range trace {
		if i == profitHistoryLimit {
			break
		}
		history = append(history, point.Objective)
	}

	return api.OptimizeResponse{
		DailyResults:  daily,
		TotalProfit:   plan.TotalProfit,
		AverageMarkup: plan.AverageMarkup,
		ProfitHistory: history,
		Convergence: api.ConvergenceInfo{
			Iterations:       plan.Convergence.Iterations,
			FinalTemperature: plan.Convergence.FinalTemperature,
			ImprovementRate:  plan.Convergence.ImprovementRate,
		},
	}
}

func MapRunDomainToApi(run *domain.OptimizationRun) api.Run {
	out := api.Run{
		ID:       run.ID,
		Status:   string(run.Status),
		Stages:   make([]api.StageResult, 0, len(run.Stages)),
		Duration: run.Duration.Milliseconds(),
	}

	for _, stage := range run.Stages {
		result := api.StageResult{
			Stage:      string(stage.Stage),
			StartedAt:  stage.StartedAt.Format(time.RFC3339),
			DurationMS: stage.Duration.Milliseconds(),
		}
		if stage.Err != nil {
			result.Error = stage.Err.Error()
		}
		out.Stages = append(out.Stages, result)
	}

	if run.Err != nil {
		out.Error = run.Err.Error()
	}
	if run.Plan != nil && run.Result != nil {
		plan := MapPlanDomainToApi(*run.Plan, run.Result.Trace)
		out.Plan = &plan
	}
	return out
}

func MapSourceProfileDomainToApi(p domain.SourceProfile) api.Source {
	return api.Source{
		Name: p.Name,
		Type: string(p.Type),
	}
}
