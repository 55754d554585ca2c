package domain

// ElasticityParams describes the constant-elasticity demand curve fitted for
// one category: demand(p) = BaseDemand * (p / ReferencePrice)^Elasticity.
type ElasticityParams struct {
	Category       string
	Elasticity     float64 // slope of log(quantity) on log(price), expected < 0
	Intercept      float64
	ReferencePrice float64 // mean observed price
	BaseDemand     float64 // expected daily demand at the reference price
	RSquared       float64
	LowConfidence  bool
}
