package store

import "time"

type SalesRecord struct {
	ID             string
	Date           time.Time
	Category       string
	Quantity       float64
	UnitPrice      float64
	WholesalePrice float64
	Source         string // profile the record was imported from
	ImportedAt     time.Time
}

type SalesStats struct {
	RecordsCount int64
	FirstDate    *time.Time
	LastDate     *time.Time
	Categories   []string
}
