package exporter

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"invpulse/pkg/contracts/domain"
)

// Activity kinds of a DayRow
const (
	KindProcurement = "procurement"
	KindSales       = "sales"
)

// Header is the column order shared by every export format
var Header = []string{"product_id", "name", "kind", "day", "quantity", "price", "amount"}

// DayRow is one day of one activity of one product
type DayRow struct {
	ProductID string
	Name      string
	Kind      string
	Day       int
	Quantity  int64
	Price     decimal.Decimal
	Amount    decimal.Decimal
}

// Flatten expands records into day rows: procurement days first, then sales,
// in record order. Zero-activity days are skipped unless includeZero is set.
func Flatten(records []domain.ProductRecord, includeZero bool) []DayRow {
	var rows []DayRow
	for _, rec := range records {
		rows = appendEntries(rows, rec, KindProcurement, rec.ProcurementEntries, includeZero)
		rows = appendEntries(rows, rec, KindSales, rec.SalesEntries, includeZero)
	}
	return rows
}

func appendEntries(rows []DayRow, rec domain.ProductRecord, kind string, entries []domain.DayEntry, includeZero bool) []DayRow {
	for _, e := range entries {
		if !includeZero && e.IsZero() {
			continue
		}
		rows = append(rows, DayRow{
			ProductID: rec.ProductID,
			Name:      rec.Name,
			Kind:      kind,
			Day:       e.Day,
			Quantity:  e.Quantity,
			Price:     e.Price,
			Amount:    e.Amount,
		})
	}
	return rows
}

// record renders r in Header order
func (r DayRow) record() []string {
	return []string{
		r.ProductID,
		r.Name,
		r.Kind,
		formatInt(int64(r.Day)),
		formatInt(r.Quantity),
		formatDecimal(r.Price),
		formatDecimal(r.Amount),
	}
}

// Format is an export file format
type Format string

const (
	FormatCSV     Format = "csv"
	FormatParquet Format = "parquet"
)

// ParseFormat accepts "csv" or "parquet", case-insensitively
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatParquet:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// Export writes rows to path in the given format
func Export(path string, format Format, rows []DayRow) error {
	switch format {
	case FormatCSV:
		return NewCSVWriter("").WriteRows(path, rows)
	case FormatParquet:
		return NewParquetWriter("").WriteRows(path, rows)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}
