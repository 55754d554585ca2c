package optimizer

import (
	"math"

	"github.com/warehouse-tools/priceplan/pkg/models/domain"
)

// Demand evaluates the constant-elasticity curve at the given price:
// BaseDemand * (price / ReferencePrice)^Elasticity, clamped at zero. The plan
// synthesizer evaluates the same function, so reported demand always matches
// what the search optimized.
func Demand(params domain.ElasticityParams, price float64) float64 {
	if params.BaseDemand <= 0 || params.ReferencePrice <= 0 || price <= 0 {
		return 0
	}
	demand := params.BaseDemand * math.Pow(price/params.ReferencePrice, params.Elasticity)
	if math.IsNaN(demand) || math.IsInf(demand, 0) || demand < 0 {
		return 0
	}
	return demand
}

// CellProfit is the contribution of one (day, category) cell to the
// objective: demand * unit margin, discounted by the perishability loss rate.
func CellProfit(params domain.ElasticityParams, price, cost, lossRate float64) float64 {
	return Demand(params, price) * (price - cost) * (1 - lossRate)
}
