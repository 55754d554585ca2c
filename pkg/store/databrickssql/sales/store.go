package sales

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/warehouse-tools/priceplan/pkg/models/store"
	"github.com/rs/zerolog"
)

// Store reads daily sales rows from a Databricks SQL table, typically a
// three-part name like main.sales.daily.
type Store interface {
	GetHistory(ctx context.Context, startDate, endDate time.Time, categories []string) ([]store.SalesRecord, error)
	GetStats(ctx context.Context) (*store.SalesStats, error)
}

type salesStore struct {
	db    *sql.DB
	table string
}

func NewStore(db *sql.DB, table string) Store {
	return &salesStore{
		db:    db,
		table: table,
	}
}

func (s *salesStore) GetStats(ctx context.Context) (*store.SalesStats, error) {
	logger := zerolog.Ctx(ctx)

	query := fmt.Sprintf(`
        SELECT
            COUNT(*) as total_records,
            MIN(date) as first_date,
            MAX(date) as last_date
        FROM %s
        `, s.table)

	var totalRecords int64
	var firstDate, lastDate sql.NullTime
	if err := s.db.QueryRowContext(ctx, query).Scan(&totalRecords, &firstDate, &lastDate); err != nil {
		return nil, fmt.Errorf("get sales stats failed: %w", err)
	}

	stats := &store.SalesStats{RecordsCount: totalRecords}
	if firstDate.Valid {
		t := firstDate.Time
		stats.FirstDate = &t
	}
	if lastDate.Valid {
		t := lastDate.Time
		stats.LastDate = &t
	}

	logger.Debug().
		Int64("total_records", totalRecords).
		Msg("retrieved sales stats")

	return stats, nil
}

func (s *salesStore) GetHistory(
	ctx context.Context,
	startDate time.Time,
	endDate time.Time,
	categories []string,
) ([]store.SalesRecord, error) {
	logger := zerolog.Ctx(ctx)

	query := fmt.Sprintf(`
		SELECT
			date,
			category,
			quantity,
			unit_price,
			wholesale_price
		FROM %s
		WHERE date >= ? AND date < ?
	`, s.table)

	args := []interface{}{
		startDate.Format("2006-01-02"),
		endDate.Format("2006-01-02"),
	}

	if len(categories) > 0 {
		quoted := make([]string, len(categories))
		for i := range categories {
			quoted[i] = "?"
			args = append(args, categories[i])
		}
		query += " AND category IN (" + strings.Join(quoted, ", ") + ")"
	}
	query += " ORDER BY date"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sales query failed: %w", err)
	}
	defer func(rows *sql.Rows) {
		err := rows.Close()
		if err != nil {
			logger.Warn().Err(err).Msg("failed to close sales query rows")
		}
	}(rows)

	var records []store.SalesRecord
	for rows.Next() {
		var (
			rec       store.SalesRecord
			wholesale sql.NullFloat64
		)
		if err := rows.Scan(&rec.Date, &rec.Category, &rec.Quantity, &rec.UnitPrice, &wholesale); err != nil {
			return nil, err
		}
		if wholesale.Valid {
			rec.WholesalePrice = wholesale.Float64
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}
