package elasticity

import (
	"context"
	"math"

	"github.com/warehouse-tools/priceplan/pkg/models/domain"
	"gonum.org/v1/gonum/stat"
)

// Settings contains the tunables for the demand curve fit
type Settings struct {
	// MinObservations is the minimum number of usable (price, quantity) pairs (default: 5)
	MinObservations int
	// DefaultElasticity substitutes for the slope when prices never varied (default: -1.2)
	DefaultElasticity float64
	// VarianceEpsilon is the log-price variance below which the slope is
	// considered unidentifiable (default: 1e-9)
	VarianceEpsilon float64
	// SanityThreshold flags fits whose |elasticity| is implausibly steep (default: 5)
	SanityThreshold float64
}

func DefaultSettings() Settings {
	return Settings{
		MinObservations:   5,
		DefaultElasticity: -1.2,
		VarianceEpsilon:   1e-9,
		SanityThreshold:   5,
	}
}

type Estimator interface {
	Estimate(ctx context.Context, category string, records []domain.SalesRecord) (domain.ElasticityParams, error)
}

type estimator struct {
	settings Settings
}

func NewEstimator(settings Settings) Estimator {
	return &estimator{settings: settings}
}

// Estimate fits log(quantity) = intercept + elasticity * log(price) by
// ordinary least squares. A category whose price never moved cannot identify
// a slope; it gets the default elasticity and a low-confidence flag instead
// of an error. The same records always produce the same parameters.
func (e *estimator) Estimate(ctx context.Context, category string, records []domain.SalesRecord) (domain.ElasticityParams, error) {
	var logPrices, logQuantities, prices, quantities []float64
	for _, rec := range records {
		if rec.UnitPrice <= 0 {
			return domain.ElasticityParams{}, &domain.InvalidDataError{Category: category, Reason: "non-positive sales price"}
		}
		if rec.Quantity < 0 {
			return domain.ElasticityParams{}, &domain.InvalidDataError{Category: category, Reason: "negative quantity"}
		}
		if rec.Quantity == 0 {
			// zero sales days have no log-space image, skip them
			continue
		}
		logPrices = append(logPrices, math.Log(rec.UnitPrice))
		logQuantities = append(logQuantities, math.Log(rec.Quantity))
		prices = append(prices, rec.UnitPrice)
		quantities = append(quantities, rec.Quantity)
	}

	if len(logPrices) < e.settings.MinObservations {
		return domain.ElasticityParams{}, &domain.DataInsufficientError{
			Category: category,
			Records:  len(logPrices),
			Needed:   e.settings.MinObservations,
		}
	}

	referencePrice := stat.Mean(prices, nil)
	baseDemand := stat.Mean(quantities, nil)

	if stat.Variance(logPrices, nil) < e.settings.VarianceEpsilon {
		// constant price, slope unidentifiable; pin the default curve
		// through the observed operating point
		elasticity := e.settings.DefaultElasticity
		return domain.ElasticityParams{
			Category:       category,
			Elasticity:     elasticity,
			Intercept:      math.Log(baseDemand) - elasticity*math.Log(referencePrice),
			ReferencePrice: referencePrice,
			BaseDemand:     baseDemand,
			RSquared:       0,
			LowConfidence:  true,
		}, nil
	}

	intercept, slope := stat.LinearRegression(logPrices, logQuantities, nil, false)
	if isUnstable(intercept) || isUnstable(slope) {
		return domain.ElasticityParams{}, &domain.NumericInstabilityError{Category: category, Reason: "regression produced NaN or Inf"}
	}
	rSquared := stat.RSquared(logPrices, logQuantities, nil, intercept, slope)
	if math.IsNaN(rSquared) {
		rSquared = 0
	}

	return domain.ElasticityParams{
		Category:       category,
		Elasticity:     slope,
		Intercept:      intercept,
		ReferencePrice: referencePrice,
		BaseDemand:     math.Exp(intercept + slope*math.Log(referencePrice)),
		RSquared:       rSquared,
		LowConfidence:  math.Abs(slope) > e.settings.SanityThreshold,
	}, nil
}

func isUnstable(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}
