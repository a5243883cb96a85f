package dataprocessing

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// buildWorkbook writes rows to the first sheet of a new workbook.
func buildWorkbook(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestDecode_XLSX(t *testing.T) {
	buf := buildWorkbook(t, [][]interface{}{
		{"ID", "Product Name", "Opening Inventory", "Procurement Qty (Day 1)", "Procurement Price (Day 1)"},
		{"007", "Widget", 10, 5, "$2.00"},
		{nil, nil, nil, nil, nil},
		{101, "Gadget", 3.5, nil, 4.25},
	})

	sheet, err := Decode("inventory.xlsx", buf)
	require.NoError(t, err)

	assert.Equal(t, []string{"ID", "Product Name", "Opening Inventory", "Procurement Qty (Day 1)", "Procurement Price (Day 1)"}, sheet.Headers)
	require.Equal(t, 2, sheet.Len(), "blank rows are dropped")

	id := sheet.Cell(0, "ID")
	assert.Equal(t, CellText, id.Kind)
	assert.Equal(t, "007", id.String())

	inv := sheet.Cell(0, "Opening Inventory")
	assert.Equal(t, CellNumeric, inv.Kind)
	assert.Equal(t, 10.0, inv.Num)

	assert.Equal(t, CellText, sheet.Cell(0, "Procurement Price (Day 1)").Kind)
	assert.Equal(t, "101", sheet.Cell(1, "ID").String())
	assert.True(t, sheet.Cell(1, "Procurement Qty (Day 1)").Missing())
	assert.Equal(t, CellAbsent, sheet.Cell(1, "Sales Qty (Day 1)").Kind)
}

func TestDecode_XLSXEndToEnd(t *testing.T) {
	buf := buildWorkbook(t, [][]interface{}{
		{"ID", "Product Name", "Opening Inventory", "Procurement Qty (Day 1)", "Procurement Price (Day 1)", "Sales Qty (Day 1)", "Sales Price (Day 1)"},
		{"P1", "Widget", 10, 5, "$2.00", 3, "$3.50"},
	})

	sheet, err := Decode("inventory.XLSX", buf)
	require.NoError(t, err)

	res, err := Run(sheet)
	require.NoError(t, err)
	require.True(t, res.Report.IsValid)
	require.Len(t, res.Records, 1)

	assertEntry(t, res.Records[0].ProcurementEntries[0], 1, 5, "2", "10")
	assertEntry(t, res.Records[0].SalesEntries[0], 1, 3, "3.5", "10.5")
}

func TestDecode_XLSXHeaderOnly(t *testing.T) {
	buf := buildWorkbook(t, [][]interface{}{
		{"ID", "Product Name", "Opening Inventory"},
	})

	sheet, err := Decode("empty.xlsx", buf)
	require.NoError(t, err)

	report := ValidateFormat(sheet)
	assert.False(t, report.IsValid)
	assert.Contains(t, report.Errors, "Excel file contains no data rows")
}

func TestDecode_CSV(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		wantName string
	}{
		{
			name:     "utf8",
			data:     "ID,Product Name,Opening Inventory\nP1,Café,4\n",
			wantName: "Café",
		},
		{
			name:     "utf8 with byte order mark",
			data:     "\xef\xbb\xbfID,Product Name,Opening Inventory\nP1,Café,4\n",
			wantName: "Café",
		},
		{
			name:     "windows-1252",
			data:     "ID,Product Name,Opening Inventory\nP1,Caf\xe9,4\n",
			wantName: "Café",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sheet, err := Decode("products.csv", strings.NewReader(tt.data))
			require.NoError(t, err)

			require.Equal(t, 1, sheet.Len())
			assert.Equal(t, "ID", sheet.Headers[0])
			assert.Equal(t, tt.wantName, sheet.Cell(0, "Product Name").String())
			assert.Equal(t, "4", sheet.Cell(0, "Opening Inventory").String())
		})
	}
}

func TestDecode_CSVRaggedRows(t *testing.T) {
	data := "ID,Product Name,Opening Inventory\nP1\nP2,Gadget,2,extra\n,,\n"

	sheet, err := Decode("ragged.csv", strings.NewReader(data))
	require.NoError(t, err)

	require.Equal(t, 2, sheet.Len())
	assert.True(t, sheet.Cell(0, "Product Name").Missing())
	assert.Len(t, sheet.Rows[1], 3)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		data     string
		wantErr  error
	}{
		{name: "unknown extension", filename: "notes.txt", data: "hello", wantErr: ErrUnsupportedFormat},
		{name: "malformed csv quote", filename: "broken.csv", data: "ID,Name\n\"P1,x\n", wantErr: ErrInvalidSpreadsheet},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.filename, strings.NewReader(tt.data))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestDecode_CSVBlankRowsAndHeaders(t *testing.T) {
	data := "ID, Product Name ,Opening Inventory\nP1,Widget,1\n,,\nP2,Gadget,2\n,,\n"

	sheet, err := Decode("stock.csv", strings.NewReader(data))
	require.NoError(t, err)

	// Headers are matched exactly, so surrounding spaces are kept.
	assert.Equal(t, []string{"ID", " Product Name ", "Opening Inventory"}, sheet.Headers)
	assert.False(t, sheet.HasColumn("Product Name"))

	// Blank rows are dropped wherever they appear, not only at the end.
	require.Equal(t, 2, sheet.Len())
	assert.Equal(t, "P1", sheet.Cell(0, "ID").String())
	assert.Equal(t, "P2", sheet.Cell(1, "ID").String())
}
