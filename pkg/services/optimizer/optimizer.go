package optimizer

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/warehouse-tools/priceplan/pkg/models/domain"
	"golang.org/x/exp/maps"
)

// tempEpsilon stops the annealing loop once the temperature is too cold for
// any uphill move to realistically be accepted.
const tempEpsilon = 1e-3

// DefaultParams returns the annealing knobs the dashboard ships with.
func DefaultParams() domain.AnnealingParams {
	return domain.AnnealingParams{
		MaxIterations: 1000,
		InitialTemp:   100,
		CoolingRate:   0.95,
	}
}

// DefaultConstraints returns the stock price bounds and perishability loss.
func DefaultConstraints() domain.Constraints {
	return domain.Constraints{
		MinPrice: 0.1,
		MaxPrice: 50.0,
		LossRate: 0.04,
	}
}

// Inputs carries everything one optimization needs. Forecast categories and
// elasticity categories must line up; all forecasts must share one horizon.
type Inputs struct {
	Forecasts    map[string]domain.CategoryForecast
	Elasticities map[string]domain.ElasticityParams
	Constraints  domain.Constraints
	Params       domain.AnnealingParams
}

type Optimizer interface {
	Optimize(ctx context.Context, inputs Inputs) (domain.OptimizationResult, error)
}

type annealer struct{}

func NewOptimizer() Optimizer {
	return &annealer{}
}

// problem is the validated, index-addressable form of Inputs: categories
// sorted, costs laid out as [day][category].
type problem struct {
	days        []time.Time
	categories  []string
	costs       [][]float64
	elasticity  []domain.ElasticityParams
	constraints domain.Constraints
}

func (p *problem) objective(schedule domain.PriceSchedule) float64 {
	var total float64
	for d := range p.days {
		for c := range p.categories {
			total += CellProfit(p.elasticity[c], schedule.Prices[d][c], p.costs[d][c], p.constraints.LossRate)
		}
	}
	return total
}

// Optimize runs a Metropolis annealing search over the price grid. Once the
// inputs validate, it always produces a result: the loop only ever replaces
// the retained best state with something better, and cancellation hands back
// the best state found so far with Interrupted set.
func (a *annealer) Optimize(ctx context.Context, inputs Inputs) (domain.OptimizationResult, error) {
	prob, err := buildProblem(inputs)
	if err != nil {
		return domain.OptimizationResult{}, err
	}

	params := inputs.Params
	seed := params.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	constraints := prob.constraints
	current := initialSchedule(prob)
	currentObj := prob.objective(current)

	best := current.Clone()
	bestObj := currentObj
	initialObj := currentObj

	trace := make([]domain.TracePoint, 0, params.MaxIterations+1)
	trace = append(trace, domain.TracePoint{Iteration: 0, Objective: currentObj})

	temp := params.InitialTemp
	span := constraints.MaxPrice - constraints.MinPrice
	iterations := 0
	interrupted := false

	for iterations < params.MaxIterations && temp >= tempEpsilon {
		select {
		case <-ctx.Done():
			interrupted = true
		default:
		}
		if interrupted {
			break
		}

		day := rng.Intn(len(prob.days))
		cat := rng.Intn(len(prob.categories))
		old := current.Prices[day][cat]

		// step size shrinks with the temperature so late iterations make
		// local refinements instead of jumps
		step := span * (temp / params.InitialTemp)
		candidate := clamp(old+(rng.Float64()*2-1)*step, constraints.MinPrice, constraints.MaxPrice)

		current.Prices[day][cat] = candidate
		candidateObj := prob.objective(current)

		if accepted(candidateObj-currentObj, temp, rng) {
			currentObj = candidateObj
			if currentObj > bestObj {
				bestObj = currentObj
				best = current.Clone()
			}
		} else {
			current.Prices[day][cat] = old
		}

		temp *= params.CoolingRate
		iterations++
		trace = append(trace, domain.TracePoint{Iteration: iterations, Objective: currentObj})
	}

	return domain.OptimizationResult{
		Schedule:         best,
		BestObjective:    bestObj,
		InitialObjective: initialObj,
		Trace:            trace,
		Iterations:       iterations,
		FinalTemp:        temp,
		Interrupted:      interrupted,
	}, nil
}

// accepted applies the Metropolis criterion for a maximization problem.
func accepted(delta, temp float64, rng *rand.Rand) bool {
	if delta >= 0 {
		return true
	}
	return rng.Float64() < math.Exp(delta/temp)
}

func initialSchedule(prob *problem) domain.PriceSchedule {
	midpoint := (prob.constraints.MinPrice + prob.constraints.MaxPrice) / 2

	prices := make([][]float64, len(prob.days))
	for d := range prices {
		prices[d] = make([]float64, len(prob.categories))
		for c := range prices[d] {
			prices[d][c] = midpoint
		}
	}

	return domain.PriceSchedule{
		Days:       append([]time.Time(nil), prob.days...),
		Categories: append([]string(nil), prob.categories...),
		Prices:     prices,
	}
}

func buildProblem(inputs Inputs) (*problem, error) {
	if err := validateConstraints(inputs.Constraints); err != nil {
		return nil, err
	}
	if err := validateParams(inputs.Params); err != nil {
		return nil, err
	}
	if len(inputs.Forecasts) == 0 {
		return nil, &domain.InvalidParameterError{Param: "forecasts", Reason: "no categories to optimize"}
	}

	categories := maps.Keys(inputs.Forecasts)
	sort.Strings(categories)

	horizon := len(inputs.Forecasts[categories[0]].Points)
	if horizon == 0 {
		return nil, &domain.InvalidParameterError{Param: "forecasts", Reason: "empty forecast horizon"}
	}

	prob := &problem{
		categories:  categories,
		constraints: inputs.Constraints,
		costs:       make([][]float64, horizon),
		elasticity:  make([]domain.ElasticityParams, len(categories)),
	}

	first := inputs.Forecasts[categories[0]]
	for _, point := range first.Points {
		prob.days = append(prob.days, point.Date)
	}
	for d := range prob.costs {
		prob.costs[d] = make([]float64, len(categories))
	}

	for c, category := range categories {
		forecast := inputs.Forecasts[category]
		if len(forecast.Points) != horizon {
			return nil, &domain.InvalidParameterError{
				Param:  "forecasts",
				Reason: fmt.Sprintf("category %q has %d forecast points, expected %d", category, len(forecast.Points), horizon),
			}
		}
		for d, point := range forecast.Points {
			prob.costs[d][c] = point.Predicted
		}

		params, ok := inputs.Elasticities[category]
		if !ok {
			return nil, &domain.InvalidParameterError{
				Param:  "elasticity_params",
				Reason: fmt.Sprintf("category %q has no elasticity parameters", category),
			}
		}
		if params.ReferencePrice <= 0 {
			return nil, &domain.InvalidParameterError{
				Param:  "elasticity_params",
				Reason: fmt.Sprintf("category %q has non-positive reference price", category),
			}
		}
		if params.BaseDemand < 0 {
			return nil, &domain.InvalidParameterError{
				Param:  "elasticity_params",
				Reason: fmt.Sprintf("category %q has negative base demand", category),
			}
		}
		prob.elasticity[c] = params
	}

	return prob, nil
}

func validateConstraints(c domain.Constraints) error {
	if c.MinPrice <= 0 {
		return &domain.InvalidParameterError{Param: "min_price", Reason: "must be positive"}
	}
	if c.MinPrice > c.MaxPrice {
		return &domain.InvalidParameterError{Param: "max_price", Reason: "must be >= min_price"}
	}
	if c.LossRate < 0 || c.LossRate >= 1 {
		return &domain.InvalidParameterError{Param: "loss_rate", Reason: "must be in [0, 1)"}
	}
	return nil
}

func validateParams(p domain.AnnealingParams) error {
	if p.MaxIterations < 0 {
		return &domain.InvalidParameterError{Param: "max_iterations", Reason: "must be >= 0"}
	}
	if p.InitialTemp <= 0 {
		return &domain.InvalidParameterError{Param: "initial_temp", Reason: "must be positive"}
	}
	if p.CoolingRate <= 0 || p.CoolingRate >= 1 {
		return &domain.InvalidParameterError{Param: "cooling_rate", Reason: "must be in (0, 1)"}
	}
	return nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
