package exporter

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"

	"invpulse/pkg/contracts/domain"
)

func sampleRecords() []domain.ProductRecord {
	return []domain.ProductRecord{
		{
			ProductID:        "P1",
			Name:             "Widget",
			OpeningInventory: 10,
			ProcurementEntries: []domain.DayEntry{
				domain.NewDayEntry(1, 5, decimal.RequireFromString("2.00")),
				domain.NewDayEntry(2, 0, decimal.Zero),
				domain.NewDayEntry(3, 0, decimal.Zero),
			},
			SalesEntries: []domain.DayEntry{
				domain.NewDayEntry(1, 3, decimal.RequireFromString("3.50")),
				domain.NewDayEntry(2, 0, decimal.Zero),
				domain.NewDayEntry(3, 1, decimal.RequireFromString("1234.5")),
			},
		},
	}
}

func TestFlatten(t *testing.T) {
	rows := Flatten(sampleRecords(), false)
	require.Len(t, rows, 3)

	assert.Equal(t, KindProcurement, rows[0].Kind)
	assert.Equal(t, 1, rows[0].Day)
	assert.True(t, rows[0].Amount.Equal(decimal.NewFromInt(10)))

	assert.Equal(t, KindSales, rows[1].Kind)
	assert.True(t, rows[1].Amount.Equal(decimal.RequireFromString("10.5")))

	assert.Equal(t, 3, rows[2].Day)

	assert.Len(t, Flatten(sampleRecords(), true), 6)
	assert.Empty(t, Flatten(nil, true))
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"csv", FormatCSV, false},
		{" Parquet ", FormatParquet, false},
		{"xlsx", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCSVWriter_WriteRows(t *testing.T) {
	dir := t.TempDir()
	w := NewCSVWriter(dir)

	require.NoError(t, w.WriteRows(filepath.Join("exports", "stock.csv"), Flatten(sampleRecords(), false)))

	data, err := os.ReadFile(filepath.Join(dir, "exports", "stock.csv"))
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, utf8BOM))

	records, err := csv.NewReader(bytes.NewReader(data[len(utf8BOM):])).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, Header, records[0])
	assert.Equal(t, []string{"P1", "Widget", "procurement", "1", "5", "2.00", "10.00"}, records[1])
	assert.Equal(t, []string{"P1", "Widget", "sales", "3", "1", "1234.50", "1234.50"}, records[3])
}

func TestStreamWriter_InMemory(t *testing.T) {
	var buf bytes.Buffer
	sw, err := NewStreamWriter(&buf, []string{"a", "b"})
	require.NoError(t, err)
	require.NoError(t, sw.WriteRecord([]string{"1", "x,y"}))
	require.NoError(t, sw.Close())

	assert.Equal(t, "\ufeffa,b\n1,\"x,y\"\n", buf.String())
}

func TestExport_Parquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stock.parquet")
	rows := Flatten(sampleRecords(), false)

	require.NoError(t, Export(path, FormatParquet, rows))

	fr, err := local.NewLocalFileReader(path)
	require.NoError(t, err)
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, new(parquetRow), 1)
	require.NoError(t, err)
	defer pr.ReadStop()

	require.Equal(t, int64(len(rows)), pr.GetNumRows())
	got := make([]parquetRow, len(rows))
	require.NoError(t, pr.Read(&got))

	assert.Equal(t, parquetRow{
		ProductID: "P1", Name: "Widget", Kind: "procurement",
		Day: 1, Quantity: 5, Price: 2, Amount: 10,
	}, got[0])
	assert.Equal(t, "sales", got[2].Kind)
	assert.InDelta(t, 1234.5, got[2].Price, 1e-9)
}

func TestExport_UnknownFormat(t *testing.T) {
	assert.Error(t, Export(filepath.Join(t.TempDir(), "x"), Format("xml"), nil))
}
