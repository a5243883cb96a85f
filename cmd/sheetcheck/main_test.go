package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invpulse/internal/shared/testutil"
	"invpulse/pkg/contracts"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	return testutil.WriteFixture(t, t.TempDir(), name, []byte(body))
}

func TestRun_ValidSheetWithCSVExport(t *testing.T) {
	in := writeFile(t, "stock.csv", testutil.InventoryCSV)
	out := filepath.Join(t.TempDir(), "rows.csv")

	var stdout, stderr bytes.Buffer
	code := run([]string{"-out", out, in}, &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())

	var o output
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &o))
	assert.True(t, o.Report.IsValid)
	assert.Equal(t, 1, o.Report.MaxDays)
	assert.Equal(t, 2, o.Products)
	assert.Equal(t, 1, o.RowsSkipped)
	require.NotNil(t, o.Export)
	assert.Equal(t, 2, o.Export.Rows)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	records, err := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\ufeff")))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"P001", "Widget", "procurement", "1", "10", "2.50", "25.00"}, records[1])
	assert.Equal(t, []string{"P001", "Widget", "sales", "1", "4", "3.00", "12.00"}, records[2])
}

func TestRun_ParquetExport(t *testing.T) {
	in := writeFile(t, "stock.csv", testutil.InventoryCSV)
	out := filepath.Join(t.TempDir(), "rows.parquet")

	var stdout, stderr bytes.Buffer
	code := run([]string{"-format", "parquet", "-zero", "-out", out, in}, &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())

	var o output
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &o))
	require.NotNil(t, o.Export)
	assert.Equal(t, "parquet", o.Export.Format)
	assert.Equal(t, 4, o.Export.Rows)

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestRun_ExitCodes(t *testing.T) {
	invalid := writeFile(t, "bad.csv", testutil.MissingColumnsCSV)
	valid := writeFile(t, "stock.csv", testutil.InventoryCSV)
	wide := writeFile(t, "wide.csv", "ID,Product Name,Opening Inventory,Sales Qty (Day 5)\nP001,Widget,1,2\n")

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"invalid sheet", []string{invalid}, exitInvalid},
		{"missing file", []string{filepath.Join(t.TempDir(), "nope.csv")}, exitError},
		{"no arguments", nil, exitError},
		{"unknown format", []string{"-format", "xml", valid}, exitError},
		{"unsupported extension", []string{writeFile(t, "notes.txt", "hello")}, exitError},
		{"no day limit", []string{"-max-days", "0", valid}, exitOK},
		{"day limit exceeded", []string{"-max-days", "2", wide}, exitError},
		{"huge day header refused", []string{writeFile(t, "huge.csv", "ID,Product Name,Opening Inventory,Note Day 50000000\nP001,Widget,1,\n")}, exitError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			assert.Equal(t, tt.want, run(tt.args, &stdout, &stderr), stderr.String())
		})
	}
}

func TestRun_InvalidSheetStillPrintsReport(t *testing.T) {
	in := writeFile(t, "bad.csv", testutil.MissingColumnsCSV)
	out := filepath.Join(t.TempDir(), "rows.csv")

	var stdout, stderr bytes.Buffer
	require.Equal(t, exitInvalid, run([]string{"-out", out, in}, &stdout, &stderr))

	var o output
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &o))
	assert.False(t, o.Report.IsValid)
	assert.NotEmpty(t, o.Report.Errors)
	assert.Nil(t, o.Export)

	_, err := os.Stat(out)
	assert.True(t, os.IsNotExist(err))
}

func TestRun_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	require.Equal(t, exitOK, run([]string{"-version"}, &stdout, &stderr))
	assert.True(t, strings.HasPrefix(stdout.String(), "sheetcheck v"+contracts.Version), stdout.String())
}
