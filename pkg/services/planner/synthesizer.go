package planner

import (
	"fmt"
	"math"

	"github.com/warehouse-tools/priceplan/pkg/models/domain"
	"github.com/warehouse-tools/priceplan/pkg/services/optimizer"
)

// Synthesize turns the optimizer's best schedule into the caller-facing plan.
// Demand and profit are re-evaluated with the optimizer's own curve functions,
// so every KPI is consistent with the objective the search maximized.
func Synthesize(
	result domain.OptimizationResult,
	forecasts map[string]domain.CategoryForecast,
	elasticities map[string]domain.ElasticityParams,
	constraints domain.Constraints,
) (domain.ProductionPlan, error) {
	schedule := result.Schedule

	plan := domain.ProductionPlan{
		Days: make([]domain.DailyPlan, 0, len(schedule.Days)),
	}

	var markupSum float64
	var markupCells int

	for d, date := range schedule.Days {
		daily := domain.DailyPlan{
			Date:       date,
			Categories: make(map[string]domain.CategoryPlanEntry, len(schedule.Categories)),
		}

		for c, category := range schedule.Categories {
			forecast, ok := forecasts[category]
			if !ok || len(forecast.Points) <= d {
				return domain.ProductionPlan{}, &domain.InvalidParameterError{
					Param:  "forecasts",
					Reason: fmt.Sprintf("no forecast point for category %q day %d", category, d),
				}
			}
			params, ok := elasticities[category]
			if !ok {
				return domain.ProductionPlan{}, &domain.InvalidParameterError{
					Param:  "elasticity_params",
					Reason: fmt.Sprintf("no elasticity parameters for category %q", category),
				}
			}

			price := schedule.Prices[d][c]
			cost := forecast.Points[d].Predicted
			demand := optimizer.Demand(params, price)
			profit := optimizer.CellProfit(params, price, cost, constraints.LossRate)

			daily.Categories[category] = domain.CategoryPlanEntry{
				OptimalPrice:   price,
				ExpectedDemand: demand,
				ExpectedProfit: profit,
			}
			daily.TotalProfit += profit

			if cost > 0 {
				markupSum += (price - cost) / cost
				markupCells++
			}
		}

		plan.Days = append(plan.Days, daily)
		plan.TotalProfit += daily.TotalProfit
	}

	if markupCells > 0 {
		plan.AverageMarkup = markupSum / float64(markupCells)
	}

	plan.Convergence = domain.Convergence{
		Iterations:       result.Iterations,
		FinalTemperature: result.FinalTemp,
		ImprovementRate:  improvementRate(result.InitialObjective, result.BestObjective),
	}

	return plan, nil
}

func improvementRate(initial, best float64) float64 {
	if initial == 0 {
		return 0
	}
	return (best - initial) / math.Abs(initial)
}
