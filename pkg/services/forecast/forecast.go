package forecast

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/warehouse-tools/priceplan/pkg/models/domain"
	"gonum.org/v1/gonum/stat"
)

// floorPrice keeps projected wholesale prices strictly positive when a steep
// downward trend would cross zero inside the horizon.
const floorPrice = 0.01

// Settings contains the tunables for the wholesale price model
type Settings struct {
	// SeasonalPeriod is the cycle length of the weekday pattern (default: 7)
	SeasonalPeriod int
	// MinCycles is how many full cycles of history the decomposition model needs;
	// shorter histories fall back to persistence (default: 2)
	MinCycles int
	// ConfidenceZ is the z-score for the confidence interval (default: 1.96)
	ConfidenceZ float64
	// FallbackBandPct is the relative interval width of the persistence
	// fallback at one step out (default: 0.20)
	FallbackBandPct float64
}

func DefaultSettings() Settings {
	return Settings{
		SeasonalPeriod:  7,
		MinCycles:       2,
		ConfidenceZ:     1.96,
		FallbackBandPct: 0.20,
	}
}

type Forecaster interface {
	Forecast(ctx context.Context, category string, records []domain.SalesRecord, horizon int) (domain.CategoryForecast, error)
}

type forecaster struct {
	settings Settings
}

func NewForecaster(settings Settings) Forecaster {
	return &forecaster{settings: settings}
}

// Forecast projects the category's wholesale acquisition cost horizon days
// past the last observation. With at least MinCycles full seasonal cycles of
// history it decomposes the series into linear trend, weekday offsets and
// residual noise; the interval widens with sqrt(h). Anything shorter degrades
// to a flagged persistence forecast.
func (f *forecaster) Forecast(ctx context.Context, category string, records []domain.SalesRecord, horizon int) (domain.CategoryForecast, error) {
	if horizon <= 0 {
		return domain.CategoryForecast{}, &domain.InvalidParameterError{Param: "horizon", Reason: "must be positive"}
	}
	if len(records) == 0 {
		return domain.CategoryForecast{}, &domain.DataInsufficientError{Category: category, Records: 0, Needed: 1}
	}

	series, err := buildDailySeries(category, records)
	if err != nil {
		return domain.CategoryForecast{}, err
	}

	if len(series.values) < f.settings.MinCycles*f.settings.SeasonalPeriod {
		return f.persistence(category, series, horizon), nil
	}
	return f.decompose(category, series, horizon)
}

type dailySeries struct {
	days   []time.Time
	values []float64
}

func (s dailySeries) last() (time.Time, float64) {
	return s.days[len(s.days)-1], s.values[len(s.values)-1]
}

// buildDailySeries turns raw records into one observation per calendar day:
// duplicates are averaged, gaps carry the previous day's value forward.
func buildDailySeries(category string, records []domain.SalesRecord) (dailySeries, error) {
	type acc struct {
		sum   float64
		count int
	}
	byDay := make(map[time.Time]*acc, len(records))
	for _, rec := range records {
		price := rec.Wholesale()
		if price <= 0 {
			return dailySeries{}, &domain.InvalidDataError{Category: category, Reason: "non-positive wholesale price"}
		}
		day := truncateToDay(rec.Date)
		if byDay[day] == nil {
			byDay[day] = &acc{}
		}
		byDay[day].sum += price
		byDay[day].count++
	}

	days := make([]time.Time, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	series := dailySeries{}
	for day := days[0]; !day.After(days[len(days)-1]); day = day.AddDate(0, 0, 1) {
		var value float64
		if a, ok := byDay[day]; ok {
			value = a.sum / float64(a.count)
		} else {
			// gap day, carry the last observation forward
			value = series.values[len(series.values)-1]
		}
		series.days = append(series.days, day)
		series.values = append(series.values, value)
	}
	return series, nil
}

// persistence repeats the last observation across the horizon with a wide
// relative band. Used whenever the history is too short to fit the model.
func (f *forecaster) persistence(category string, series dailySeries, horizon int) domain.CategoryForecast {
	lastDay, lastValue := series.last()

	points := make([]domain.ForecastPoint, 0, horizon)
	for h := 1; h <= horizon; h++ {
		band := f.settings.FallbackBandPct * math.Sqrt(float64(h))
		points = append(points, domain.ForecastPoint{
			Date:      lastDay.AddDate(0, 0, h),
			Predicted: lastValue,
			Lower:     math.Max(0, lastValue*(1-band)),
			Upper:     lastValue * (1 + band),
		})
	}

	return domain.CategoryForecast{
		Category:      category,
		Points:        points,
		Method:        domain.ForecastMethodPersistence,
		LowConfidence: true,
	}
}

func (f *forecaster) decompose(category string, series dailySeries, horizon int) (domain.CategoryForecast, error) {
	period := f.settings.SeasonalPeriod
	n := len(series.values)

	seasonal := seasonalIndices(series, period)

	// strip the weekday pattern, then fit a straight line through what is left
	xs := make([]float64, n)
	deseasonalized := make([]float64, n)
	for i := range series.values {
		xs[i] = float64(i)
		deseasonalized[i] = series.values[i] - seasonal[series.days[i].Weekday()]
	}
	intercept, slope := stat.LinearRegression(xs, deseasonalized, nil, false)

	residuals := make([]float64, n)
	for i := range series.values {
		fitted := intercept + slope*xs[i] + seasonal[series.days[i].Weekday()]
		residuals[i] = series.values[i] - fitted
	}
	sigma := stat.StdDev(residuals, nil)

	if math.IsNaN(intercept) || math.IsNaN(slope) || math.IsNaN(sigma) {
		return domain.CategoryForecast{}, &domain.NumericInstabilityError{Category: category, Reason: "decomposition produced NaN"}
	}

	lastDay, _ := series.last()
	points := make([]domain.ForecastPoint, 0, horizon)
	for h := 1; h <= horizon; h++ {
		date := lastDay.AddDate(0, 0, h)
		point := intercept + slope*float64(n-1+h) + seasonal[date.Weekday()]
		if point < floorPrice {
			point = floorPrice
		}
		width := f.settings.ConfidenceZ * sigma * math.Sqrt(float64(h))
		points = append(points, domain.ForecastPoint{
			Date:      date,
			Predicted: point,
			Lower:     math.Max(0, point-width),
			Upper:     point + width,
		})
	}

	return domain.CategoryForecast{
		Category: category,
		Points:   points,
		Method:   domain.ForecastMethodDecomposition,
	}, nil
}

// seasonalIndices computes the mean deviation from the centered moving
// average per weekday, normalized so the indices sum to zero.
func seasonalIndices(series dailySeries, period int) map[time.Weekday]float64 {
	n := len(series.values)
	half := period / 2

	sums := make(map[time.Weekday]float64, period)
	counts := make(map[time.Weekday]int, period)
	for i := half; i < n-half; i++ {
		var windowSum float64
		for j := i - half; j <= i+half; j++ {
			windowSum += series.values[j]
		}
		trend := windowSum / float64(period)
		weekday := series.days[i].Weekday()
		sums[weekday] += series.values[i] - trend
		counts[weekday]++
	}

	indices := make(map[time.Weekday]float64, period)
	var total float64
	for wd, sum := range sums {
		indices[wd] = sum / float64(counts[wd])
		total += indices[wd]
	}
	mean := total / float64(period)
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		indices[wd] -= mean
	}
	return indices
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
