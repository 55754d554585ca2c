package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"

	"github.com/marcboeker/go-duckdb/v2"
)

const SalesTableSchema = `
	CREATE TABLE IF NOT EXISTS sales_records (
		id VARCHAR NOT NULL,
		date DATE NOT NULL,
		category VARCHAR NOT NULL,
		quantity DOUBLE NOT NULL,
		unit_price DOUBLE NOT NULL,
		wholesale_price DOUBLE,
		source VARCHAR,
		imported_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id)
	);
`

var bootQueries = []string{
	SalesTableSchema,
}

type Settings struct {
	DbPath string
}

func NewDB(settings Settings) (*sql.DB, error) {
	c, err := duckdb.NewConnector(fmt.Sprintf("%s?threads=4", settings.DbPath), func(exec driver.ExecerContext) error {
		bootQueries := append([]string{}, bootQueries...)

		for _, query := range bootQueries {
			_, err := exec.ExecContext(context.Background(), query, nil)
			if err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	db := sql.OpenDB(c)
	return db, nil
}
