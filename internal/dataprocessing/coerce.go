package dataprocessing

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidInventory is returned when an opening inventory cell holds text
// that is not a number.
var ErrInvalidInventory = errors.New("opening inventory is not numeric")

// parseTruncated parses c as a float and truncates it toward zero.
func parseTruncated(c Cell) (int64, bool) {
	var f float64
	switch c.Kind {
	case CellNumeric:
		f = c.Num
	case CellText:
		v, err := strconv.ParseFloat(strings.TrimSpace(c.Text), 64)
		if err != nil {
			return 0, false
		}
		f = v
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f >= math.MaxInt64 || f <= math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}

// coerceQuantity reads a day quantity. Malformed and negative values become 0.
func coerceQuantity(c Cell) int64 {
	n, ok := parseTruncated(c)
	if !ok || n < 0 {
		return 0
	}
	return n
}

// coerceInventory reads an opening inventory. Blank cells are 0; text that
// does not parse is an error.
func coerceInventory(c Cell) (int64, error) {
	if c.Missing() {
		return 0, nil
	}
	n, ok := parseTruncated(c)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidInventory, c.String())
	}
	return n, nil
}

// coercePrice reads a currency cell such as "$1,234.50". Anything that does
// not clean up into a non-negative number becomes 0.
func coercePrice(c Cell) decimal.Decimal {
	switch c.Kind {
	case CellNumeric:
		if math.IsInf(c.Num, 0) || c.Num < 0 {
			return decimal.Zero
		}
		return decimal.NewFromFloat(c.Num)
	case CellText:
		return parseCurrency(c.Text)
	default:
		return decimal.Zero
	}
}

func parseCurrency(s string) decimal.Decimal {
	cleaned := strings.ReplaceAll(strings.TrimSpace(s), "$", "")
	cleaned = strings.TrimSpace(strings.ReplaceAll(cleaned, ",", ""))
	if cleaned == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d
}
