package domain

import "time"

// Constraints bound the price search space shared by every (day, category)
// cell of a schedule. MinPrice == MaxPrice is legal and pins the schedule to a
// single point.
type Constraints struct {
	MinPrice float64
	MaxPrice float64
	LossRate float64 // perishability discount on profit, [0, 1)
}

type AnnealingParams struct {
	MaxIterations int
	InitialTemp   float64
	CoolingRate   float64 // geometric, (0, 1)
	Seed          int64   // 0 picks a time-derived seed
}

// PriceSchedule is the annealing state: one price per (day, category).
// Categories are sorted so that seeded runs visit cells in a stable order.
type PriceSchedule struct {
	Days       []time.Time
	Categories []string
	Prices     [][]float64 // [day][category]
}

func (s PriceSchedule) Clone() PriceSchedule {
	out := PriceSchedule{
		Days:       append([]time.Time(nil), s.Days...),
		Categories: append([]string(nil), s.Categories...),
		Prices:     make([][]float64, len(s.Prices)),
	}
	for i, day := range s.Prices {
		out.Prices[i] = append([]float64(nil), day...)
	}
	return out
}

type TracePoint struct {
	Iteration int
	Objective float64
}

type OptimizationResult struct {
	Schedule         PriceSchedule
	BestObjective    float64
	InitialObjective float64
	Trace            []TracePoint // Trace[0] is the baseline objective
	Iterations       int          // accepted or not, total loop count
	FinalTemp        float64
	Interrupted      bool // context cancelled before the schedule converged
}
