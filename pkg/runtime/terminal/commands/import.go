package commands

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/warehouse-tools/priceplan/pkg/adapters"
	"github.com/warehouse-tools/priceplan/pkg/store/csvfile"
	"github.com/warehouse-tools/priceplan/pkg/store/duckdb"
	"github.com/warehouse-tools/priceplan/pkg/store/duckdb/sales"
)

type ImportCmd struct {
	file   string
	source string
	db     *sql.DB
	sales  sales.Store
}

func NewImportCmd(db *sql.DB, store sales.Store) *cobra.Command {
	ic := &ImportCmd{db: db, sales: store}
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import sales records from a CSV file into the local store",
		RunE:  ic.run,
	}

	cmd.Flags().StringVar(&ic.file, "file", "", "Path to the CSV file to import")
	cmd.Flags().StringVar(&ic.source, "source", "csv-import", "Source label stored with the records")

	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func (ic *ImportCmd) run(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
	defer cancel()

	f, err := os.Open(ic.file)
	if err != nil {
		return fmt.Errorf("open %s: %w", ic.file, err)
	}
	defer f.Close()

	records, err := csvfile.Parse(f)
	if err != nil {
		return fmt.Errorf("parse %s: %w", ic.file, err)
	}
	for i := range records {
		records[i].Source = ic.source
	}

	// the whole file lands or none of it does
	tx, err := ic.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import transaction: %w", err)
	}
	if err := ic.sales.Add(duckdb.WithTransaction(ctx, tx), records); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("store records: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d records from %s\n", len(records), ic.file)

	stats, err := ic.sales.GetStats(ctx)
	if err != nil {
		return fmt.Errorf("read store stats: %w", err)
	}
	summary := adapters.MapSalesStatsStoreToDomain(stats)
	if summary.FirstDate != nil && summary.LastDate != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "Store now holds %d records in %d categories (%s to %s)\n",
			summary.RecordsCount,
			len(summary.Categories),
			summary.FirstDate.Format("2006-01-02"),
			summary.LastDate.Format("2006-01-02"))
	}

	return nil
}
