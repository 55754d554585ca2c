package sales

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/warehouse-tools/priceplan/pkg/models/store"
)

// Store reads daily sales rows from a Snowflake table with date, category,
// quantity, unit_price and wholesale_price columns.
type Store interface {
	GetHistory(ctx context.Context, startDate, endDate time.Time, categories []string) ([]store.SalesRecord, error)
}

type salesStore struct {
	db    *sql.DB
	table string
}

func NewStore(db *sql.DB, table string) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	if table == "" {
		return nil, fmt.Errorf("table is required")
	}
	return &salesStore{db: db, table: table}, nil
}

func (s *salesStore) GetHistory(ctx context.Context, startDate, endDate time.Time, categories []string) ([]store.SalesRecord, error) {
	// IDENTIFIER lets Snowflake bind the table name like a regular parameter
	query := `
		SELECT date, category, quantity, unit_price, wholesale_price
		FROM IDENTIFIER(?)
		WHERE date >= ? AND date < ?
	`
	args := []interface{}{s.table, startDate.Format("2006-01-02"), endDate.Format("2006-01-02")}

	if len(categories) > 0 {
		query += " AND category IN (" + placeholders(len(categories)) + ")"
		for _, category := range categories {
			args = append(args, category)
		}
	}
	query += " ORDER BY date"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("snowflake sales query failed: %w", err)
	}
	defer rows.Close()

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

func placeholders(n int) string {
	out := ""
	for i := 0; i < n; i++ {
		if i > 0 {
			out += ","
		}
		out += "?"
	}
	return out
}
