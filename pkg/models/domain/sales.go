package domain

import "time"

// DefaultWholesaleRatio estimates the wholesale acquisition cost from the
// retail price when a record carries no explicit wholesale price.
const DefaultWholesaleRatio = 0.8

type SalesRecord struct {
	Date           time.Time
	Category       string // product category, e.g. "beverages"
	Quantity       float64
	UnitPrice      float64 // retail, per unit
	WholesalePrice float64 // 0 when unknown
}

// Wholesale returns the recorded wholesale price, falling back to
// DefaultWholesaleRatio * UnitPrice when the record has none.
func (r SalesRecord) Wholesale() float64 {
	if r.WholesalePrice > 0 {
		return r.WholesalePrice
	}
	return r.UnitPrice * DefaultWholesaleRatio
}

type SalesStats struct {
	RecordsCount int64
	FirstDate    *time.Time
	LastDate     *time.Time
	Categories   []string
}
