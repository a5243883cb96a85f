package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// InventoryCSV is a one-day sheet with two products and one row lacking a
// product ID. P001 has activity on both sides; P002 has none.
const InventoryCSV = "ID,Product Name,Opening Inventory,Procurement Qty (Day 1),Procurement Price (Day 1),Sales Qty (Day 1),Sales Price (Day 1)\n" +
	"P001,Widget,100,10,$2.50,4,$3.00\n" +
	",Orphan,5,1,1,1,1\n" +
	"P002,Gadget,20,0,,0,\n"

// MissingColumnsCSV lacks every required identity column
const MissingColumnsCSV = "Name,Qty\nWidget,1\n"

// OrphanOnlyCSV passes validation but yields no products
const OrphanOnlyCSV = "ID,Product Name,Opening Inventory\n,Orphan,5\nnan,Ghost,1\n"

// XLSX builds a single-sheet workbook from rows. The first row is the header.
func XLSX(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

// WriteFixture writes data to dir/name and returns the path
func WriteFixture(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}
