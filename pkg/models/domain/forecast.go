package domain

import "time"

type ForecastMethod string

const (
	// ForecastMethodDecomposition is the trend + weekday-seasonal model used
	// when the history spans at least two seasonal cycles.
	ForecastMethodDecomposition ForecastMethod = "decomposition"
	// ForecastMethodPersistence repeats the last observation with a wide band.
	ForecastMethodPersistence ForecastMethod = "persistence"
)

type ForecastPoint struct {
	Date      time.Time
	Predicted float64
	Lower     float64
	Upper     float64
}

type CategoryForecast struct {
	Category      string
	Points        []ForecastPoint
	Method        ForecastMethod
	LowConfidence bool
}
