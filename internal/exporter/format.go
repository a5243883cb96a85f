package exporter

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// formatDecimal formats a money value with exactly 2 decimal places
// so 13.4 appears as 13.40
func formatDecimal(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// formatInt formats an int64 value for CSV output
func formatInt(i int64) string {
	return strconv.FormatInt(i, 10)
}
