package dataprocessing

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fullHeaders = []string{
	"ID", "Product Name", "Opening Inventory",
	"Procurement Qty (Day 1)", "Procurement Price (Day 1)", "Sales Qty (Day 1)", "Sales Price (Day 1)",
	"Procurement Qty (Day 2)", "Procurement Price (Day 2)", "Sales Qty (Day 2)", "Sales Price (Day 2)",
	"Procurement Qty (Day 3)", "Procurement Price (Day 3)", "Sales Qty (Day 3)", "Sales Price (Day 3)",
}

func productRow(headers []string, id string) []Cell {
	cells := make([]Cell, len(headers))
	for i := range cells {
		cells[i] = EmptyCell()
	}
	cells[0] = TextCell(id)
	return cells
}

func TestValidateFormat_CompleteSheet(t *testing.T) {
	sheet := NewSheet(fullHeaders, [][]Cell{productRow(fullHeaders, "P1")})

	report := ValidateFormat(sheet)

	assert.True(t, report.IsValid)
	assert.Empty(t, report.Errors)
	assert.Empty(t, report.Warnings)
	assert.Equal(t, 3, report.MaxDays)
	assert.Equal(t, 1, report.TotalRows)
	assert.Equal(t, 15, report.ExpectedColumns)
	assert.Equal(t, 15, report.ColumnsFound)
}

func TestValidateFormat_MissingRequired(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		want    string
	}{
		{
			name:    "missing product name under every alias",
			headers: []string{"ID", "Opening Inventory"},
			want:    "Missing required columns: Product Name",
		},
		{
			name:    "missing all identity columns",
			headers: []string{"Sales Qty (Day 1)"},
			want:    "Missing required columns: ID, Product Name, Opening Inventory",
		},
		{
			name:    "aliases are case sensitive",
			headers: []string{"Id", "product name", "Opening Inventory"},
			want:    "Missing required columns: ID, Product Name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sheet := NewSheet(tt.headers, [][]Cell{productRow(tt.headers, "P1")})

			report := ValidateFormat(sheet)

			assert.False(t, report.IsValid)
			require.Len(t, report.Errors, 1)
			assert.Equal(t, tt.want, report.Errors[0])
		})
	}
}

func TestValidateFormat_AlternateAliases(t *testing.T) {
	headers := []string{"product_id", "ProductName", "Opening Inventory on Day 1"}
	sheet := NewSheet(headers, [][]Cell{productRow(headers, "P1")})

	report := ValidateFormat(sheet)

	assert.True(t, report.IsValid)
	assert.Empty(t, report.Errors)
}

func TestValidateFormat_NoRows(t *testing.T) {
	sheet := NewSheet(fullHeaders, nil)

	report := ValidateFormat(sheet)

	assert.False(t, report.IsValid)
	assert.Equal(t, []string{"Excel file contains no data rows"}, report.Errors)
	assert.Equal(t, 0, report.TotalRows)
	assert.Equal(t, 0, report.ColumnsFound)
	assert.Equal(t, 15, report.ExpectedColumns)
}

func TestValidateFormat_NoRowsAndMissingColumns(t *testing.T) {
	report := ValidateFormat(NewSheet(nil, nil))

	assert.False(t, report.IsValid)
	assert.Equal(t, []string{
		"Missing required columns: ID, Product Name, Opening Inventory",
		"Excel file contains no data rows",
	}, report.Errors)
}

func TestValidateFormat_MissingDayColumnsWarning(t *testing.T) {
	headers := []string{
		"ID", "Product Name", "Opening Inventory",
		"Procurement Qty (Day 1)", "Procurement Price (Day 1)", "Sales Qty (Day 1)", "Sales Price (Day 1)",
	}
	sheet := NewSheet(headers, [][]Cell{productRow(headers, "P1")})

	report := ValidateFormat(sheet)

	assert.True(t, report.IsValid)
	require.Len(t, report.Warnings, 1)
	assert.Equal(t,
		"Some day-specific columns are missing: Procurement Qty (Day 2), Procurement Price (Day 2), Sales Qty (Day 2)...",
		report.Warnings[0])
	assert.True(t, strings.HasSuffix(report.Warnings[0], "..."))
	assert.NotContains(t, report.Warnings[0], "Sales Price (Day 2)")
}

func TestValidateFormat_FewMissingDayColumnsHasNoEllipsis(t *testing.T) {
	headers := append([]string{}, fullHeaders...)
	// Drop "Sales Price (Day 3)".
	headers = headers[:len(headers)-1]
	sheet := NewSheet(headers, [][]Cell{productRow(headers, "P1")})

	report := ValidateFormat(sheet)

	require.Len(t, report.Warnings, 1)
	assert.Equal(t, "Some day-specific columns are missing: Sales Price (Day 3)", report.Warnings[0])
}

func TestValidateFormat_DayAliasesSatisfyPresence(t *testing.T) {
	headers := []string{"ID", "Product Name", "Opening Inventory"}
	for day := 1; day <= 3; day++ {
		headers = append(headers,
			fmt.Sprintf("procurementQty_day%d", day),
			fmt.Sprintf("Procurement Price Day %d", day),
			fmt.Sprintf("salesQty_day%d", day),
			fmt.Sprintf("Sales Price Day %d", day))
	}
	sheet := NewSheet(headers, [][]Cell{productRow(headers, "P1")})

	report := ValidateFormat(sheet)

	assert.True(t, report.IsValid)
	assert.Empty(t, report.Warnings)
}

func TestValidateFormat_ScaleWarnings(t *testing.T) {
	tests := []struct {
		name      string
		extra     string
		rows      int
		wantWarns []string
	}{
		{
			name: "large dataset",
			rows: 1001,
			wantWarns: []string{
				"Large dataset detected (1001 rows). Processing may take longer.",
			},
		},
		{
			name:      "exactly the large threshold",
			rows:      1000,
			wantWarns: nil,
		},
		{
			name:  "many days",
			extra: "Sales Qty (Day 31)",
			rows:  1,
			wantWarns: []string{
				"Detected 31 days of data.",
			},
		},
		{
			name:  "unusually many days",
			extra: "Sales Qty (Day 366)",
			rows:  1,
			wantWarns: []string{
				"Detected 366 days - this seems unusually high. Please verify your column names.",
			},
		},
		{
			name:      "thirty days is not reported",
			extra:     "Sales Qty (Day 30)",
			rows:      1,
			wantWarns: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := append([]string{}, fullHeaders...)
			if tt.extra != "" {
				headers = append(headers, tt.extra)
			}
			rows := make([][]Cell, tt.rows)
			for i := range rows {
				rows[i] = productRow(headers, fmt.Sprintf("P%d", i))
			}

			report := ValidateFormat(NewSheet(headers, rows))

			assert.True(t, report.IsValid)
			var scale []string
			for _, w := range report.Warnings {
				if !strings.HasPrefix(w, "Some day-specific columns are missing") {
					scale = append(scale, w)
				}
			}
			assert.Equal(t, tt.wantWarns, scale)
			assert.Equal(t, tt.rows, report.TotalRows)
		})
	}
}

func TestValidateFormat_ExpectedColumnsFollowsDayCount(t *testing.T) {
	headers := append(append([]string{}, fullHeaders...), "Sales Qty (Day 10)")
	sheet := NewSheet(headers, [][]Cell{productRow(headers, "P1")})

	report := ValidateFormat(sheet)

	assert.Equal(t, 10, report.MaxDays)
	assert.Equal(t, 43, report.ExpectedColumns)
	assert.Equal(t, 16, report.ColumnsFound)
}
