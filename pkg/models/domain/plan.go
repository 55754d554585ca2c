package domain

import "time"

type CategoryPlanEntry struct {
	OptimalPrice   float64
	ExpectedDemand float64
	ExpectedProfit float64
}

type DailyPlan struct {
	Date        time.Time
	Categories  map[string]CategoryPlanEntry
	TotalProfit float64 // sum of the category profits for this day
}

type Convergence struct {
	Iterations       int
	FinalTemperature float64
	ImprovementRate  float64 // (best - initial) / |initial|
}

type ProductionPlan struct {
	Days          []DailyPlan
	TotalProfit   float64
	AverageMarkup float64 // mean of (price - cost) / cost over all cells
	Convergence   Convergence
}
