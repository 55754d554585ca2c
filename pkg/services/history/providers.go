package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/databricks/databricks-sql-go"
	sf "github.com/snowflakedb/gosnowflake"
	"github.com/warehouse-tools/priceplan/pkg/adapters"
	"github.com/warehouse-tools/priceplan/pkg/models/domain"
	storemodels "github.com/warehouse-tools/priceplan/pkg/models/store"
	"github.com/warehouse-tools/priceplan/pkg/services/sources"
	"github.com/warehouse-tools/priceplan/pkg/store/csvfile"
	dbsqlsales "github.com/warehouse-tools/priceplan/pkg/store/databrickssql/sales"
	"github.com/warehouse-tools/priceplan/pkg/store/duckdb"
	duckdbsales "github.com/warehouse-tools/priceplan/pkg/store/duckdb/sales"
	s3store "github.com/warehouse-tools/priceplan/pkg/store/s3"
	sfsales "github.com/warehouse-tools/priceplan/pkg/store/snowflake/sales"
)

// historyReader is satisfied by the SQL-backed sales stores, which push the
// date window down into the query.
type historyReader interface {
	GetHistory(ctx context.Context, startDate, endDate time.Time, categories []string) ([]storemodels.SalesRecord, error)
}

// bulkLoader is satisfied by the file-shaped stores (CSV, S3 exports), which
// read everything and leave windowing to the caller.
type bulkLoader interface {
	Load(ctx context.Context) ([]storemodels.SalesRecord, error)
}

type rangeProvider struct {
	reader historyReader
}

func (p *rangeProvider) GetSalesHistory(ctx context.Context, days int) ([]domain.SalesRecord, error) {
	start, end := trailingWindow(days)
	rows, err := p.reader.GetHistory(ctx, start, end, nil)
	if err != nil {
		return nil, err
	}
	return mapRows(rows), nil
}

type loaderProvider struct {
	loader bulkLoader
}

func (p *loaderProvider) GetSalesHistory(ctx context.Context, days int) ([]domain.SalesRecord, error) {
	rows, err := p.loader.Load(ctx)
	if err != nil {
		return nil, err
	}

	start, end := trailingWindow(days)
	var windowed []storemodels.SalesRecord
	for _, row := range rows {
		if !row.Date.Before(start) && row.Date.Before(end) {
			windowed = append(windowed, row)
		}
	}
	return mapRows(windowed), nil
}

// trailingWindow returns [today-days+1, tomorrow), so a 1-day window covers
// today only.
func trailingWindow(days int) (time.Time, time.Time) {
	now := time.Now().UTC()
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	return end.AddDate(0, 0, -days), end
}

func mapRows(rows []storemodels.SalesRecord) []domain.SalesRecord {
	records := make([]domain.SalesRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, adapters.MapSalesRecordStoreToDomain(row))
	}
	return records
}

// DuckDBFactory opens the local analytical store, creating the schema on
// first boot.
func DuckDBFactory(_ context.Context, cfg *sources.Config) (Provider, error) {
	db, err := duckdb.NewDB(duckdb.Settings{DbPath: cfg.Path})
	if err != nil {
		return nil, fmt.Errorf("open duckdb at %s: %w", cfg.Path, err)
	}

	store, err := duckdbsales.NewStore(db)
	if err != nil {
		return nil, err
	}
	return &rangeProvider{reader: store}, nil
}

func CSVFactory(_ context.Context, cfg *sources.Config) (Provider, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("csv profile %s has no path", cfg.Profile.Name)
	}
	return &loaderProvider{loader: csvfile.NewStore(cfg.Path)}, nil
}

func S3Factory(ctx context.Context, cfg *sources.Config) (Provider, error) {
	awsCfg, err := s3store.LoadConfig(ctx, cfg.AWSProfile, cfg.Region)
	if err != nil {
		return nil, err
	}
	return &loaderProvider{loader: s3store.NewStore(*awsCfg, cfg.Bucket, cfg.Prefix)}, nil
}

func SnowflakeFactory(_ context.Context, cfg *sources.Config) (Provider, error) {
	dsn, err := sf.DSN(&sf.Config{
		Account:   cfg.Account,
		User:      cfg.User,
		Password:  cfg.Password,
		Database:  cfg.Database,
		Schema:    cfg.Schema,
		Warehouse: cfg.Warehouse,
	})
	if err != nil {
		return nil, fmt.Errorf("build snowflake dsn: %w", err)
	}

	db, err := sql.Open("snowflake", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to snowflake: %w", err)
	}

	store, err := sfsales.NewStore(db, cfg.Table)
	if err != nil {
		return nil, err
	}
	return &rangeProvider{reader: store}, nil
}

func DatabricksFactory(_ context.Context, cfg *sources.Config) (Provider, error) {
	dsn := fmt.Sprintf("token:%s@%s%s", cfg.Token, cfg.Host, cfg.HTTPPath)

	db, err := sql.Open("databricks", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to databricks: %w", err)
	}

	return &rangeProvider{reader: dbsqlsales.NewStore(db, cfg.Table)}, nil
}
