package adapters

import (
	"github.com/warehouse-tools/priceplan/pkg/models/domain"
	"github.com/warehouse-tools/priceplan/pkg/models/store"
)

func MapSalesRecordStoreToDomain(rec store.SalesRecord) domain.SalesRecord {
	return domain.SalesRecord{
		Date:           rec.Date,
		Category:       rec.Category,
		Quantity:       rec.Quantity,
		UnitPrice:      rec.UnitPrice,
		WholesalePrice: rec.WholesalePrice,
	}
}

func MapSalesStatsStoreToDomain(stats *store.SalesStats) *domain.SalesStats {
	if stats == nil {
		return nil
	}

	return &domain.SalesStats{
		RecordsCount: stats.RecordsCount,
		FirstDate:    stats.FirstDate,
		LastDate:     stats.LastDate,
		Categories:   append([]string(nil), stats.Categories...),
	}
}
