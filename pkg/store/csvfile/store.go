package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/warehouse-tools/priceplan/pkg/models/store"
)

const dateLayout = "2006-01-02"

// Store reads sales records from a local CSV file with a header row of
// date, category, quantity, unit_price and optionally wholesale_price.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Load(ctx context.Context) ([]store.SalesRecord, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open sales csv: %w", err)
	}
	defer f.Close()

	records, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	return records, nil
}

// Parse decodes sales records from CSV. Columns are located by header name,
// so column order does not matter and unknown columns are ignored.
func Parse(r io.Reader) ([]store.SalesRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[name] = i
	}
	for _, required := range []string{"date", "category", "quantity", "unit_price"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}

	var records []store.SalesRecord
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		date, err := time.Parse(dateLayout, row[columns["date"]])
		if err != nil {
			return nil, fmt.Errorf("line %d: parse date: %w", line, err)
		}
		quantity, err := strconv.ParseFloat(row[columns["quantity"]], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: parse quantity: %w", line, err)
		}
		unitPrice, err := strconv.ParseFloat(row[columns["unit_price"]], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: parse unit_price: %w", line, err)
		}

		record := store.SalesRecord{
			Date:      date,
			Category:  row[columns["category"]],
			Quantity:  quantity,
			UnitPrice: unitPrice,
		}
		if i, ok := columns["wholesale_price"]; ok && row[i] != "" {
			wholesale, err := strconv.ParseFloat(row[i], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: parse wholesale_price: %w", line, err)
			}
			record.WholesalePrice = wholesale
		}

		records = append(records, record)
	}

	return records, nil
}
