package duckdb

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDB_BootstrapsSalesSchema(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "duckdb-test-*")
	require.NoError(t, err)

	defer func() {
		err := os.RemoveAll(tmpDir)
		if err != nil {
			t.Errorf("failed to cleanup test directory: %v", err)
		}
	}()

	dbPath := filepath.Join(tmpDir, "test.db")
	db, err := NewDB(Settings{
		DbPath: dbPath,
	})
	require.NoError(t, err)
	require.NotNil(t, db)

	defer func() {
		err := db.Close()
		if err != nil {
			t.Errorf("failed to close database connection: %v", err)
		}
	}()

	_, err = db.Exec(
		`INSERT INTO sales_records (id, date, category, quantity, unit_price, wholesale_price, source)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		"rec-001", time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), "beverages", 120.0, 2.5, 1.8, "csv-import",
	)
	require.NoError(t, err)

	var count int
	err = db.QueryRow("SELECT COUNT(*) FROM sales_records WHERE category = ?", "beverages").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
