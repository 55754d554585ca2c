package sales

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/warehouse-tools/priceplan/pkg/models/store"
	"github.com/warehouse-tools/priceplan/pkg/store/duckdb"
)

// Store supports both ingestion (Add) and read (Get*) operations for sales
// records in DuckDB. Add participates in a surrounding transaction when the
// context carries one.
type Store interface {
	Add(ctx context.Context, records []store.SalesRecord) error
	GetHistory(ctx context.Context, startDate, endDate time.Time, categories []string) ([]store.SalesRecord, error)
	GetStats(ctx context.Context) (*store.SalesStats, error)
}

type salesStore struct {
	db *sql.DB
}

func NewStore(db *sql.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &salesStore{db: db}, nil
}

func (s *salesStore) Add(ctx context.Context, records []store.SalesRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx := duckdb.GetTransaction(ctx)
	query := `
		INSERT INTO sales_records (
			id, date, category, quantity, unit_price, wholesale_price, source
		) VALUES (
			?, ?, ?, ?, ?, ?, ?
		)`

	var stmt *sql.Stmt
	var err error
	if tx == nil {
		stmt, err = s.db.PrepareContext(ctx, query)
	} else {
		stmt, err = tx.PrepareContext(ctx, query)
	}

	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, record := range records {
		id := record.ID
		if id == "" {
			id = uuid.NewString()
		}

		_, err = stmt.ExecContext(ctx,
			id,
			record.Date,
			record.Category,
			record.Quantity,
			record.UnitPrice,
			record.WholesalePrice,
			record.Source,
		)

		if err != nil {
			return fmt.Errorf("insert record: %w", err)
		}
	}

	return nil
}

func (s *salesStore) GetHistory(ctx context.Context, startDate, endDate time.Time, categories []string) ([]store.SalesRecord, error) {
	query := `
		SELECT id, date, category, quantity, unit_price, wholesale_price, source, imported_at
		FROM sales_records
		WHERE date >= ? AND date < ?
	`
	args := []interface{}{startDate, endDate}

	if len(categories) > 0 {
		placeholders := make([]string, len(categories))
		for i, category := range categories {
			placeholders[i] = "?"
			args = append(args, category)
		}
		query += fmt.Sprintf(" AND category IN (%s)", strings.Join(placeholders, ","))
	}
	query += " ORDER BY date ASC, category ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sales history: %w", err)
	}
	defer rows.Close()
	return scanSalesRows(rows)
}

func (s *salesStore) GetStats(ctx context.Context) (*store.SalesStats, error) {
	query := `SELECT COUNT(*), MIN(date), MAX(date) FROM sales_records`

	var total int64
	var first, last sql.NullTime
	if err := s.db.QueryRowContext(ctx, query).Scan(&total, &first, &last); err != nil {
		return nil, fmt.Errorf("get sales stats: %w", err)
	}

	stats := &store.SalesStats{RecordsCount: total}
	if first.Valid {
		t := first.Time
		stats.FirstDate = &t
	}
	if last.Valid {
		t := last.Time
		stats.LastDate = &t
	}

	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT category FROM sales_records ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var category string
		if err := rows.Scan(&category); err != nil {
			return nil, err
		}
		stats.Categories = append(stats.Categories, category)
	}

	return stats, rows.Err()
}

func scanSalesRows(rows *sql.Rows) ([]store.SalesRecord, error) {
	records := make([]store.SalesRecord, 0)
	for rows.Next() {
		var (
			rec       store.SalesRecord
			wholesale sql.NullFloat64
			source    sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.Date, &rec.Category, &rec.Quantity, &rec.UnitPrice, &wholesale, &source, &rec.ImportedAt); err != nil {
			return nil, err
		}
		if wholesale.Valid {
			rec.WholesalePrice = wholesale.Float64
		}
		if source.Valid {
			rec.Source = source.String
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
