package testutil

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestBufferedSlogHandler(t *testing.T) {
	logger, handler := NewTestLogger(nil)

	logger.With(slog.String("component", "ingest")).Warn("file rejected", slog.String("file", "bad.csv"))
	logger.WithGroup("upload").Info("done", slog.Int("products", 2))

	require.Equal(t, 2, handler.Count())
	assert.True(t, handler.ContainsMessage("rejected"))
	assert.True(t, handler.ContainsAttr("component", "ingest"))
	assert.True(t, handler.ContainsAttr("file", "bad.csv"))
	assert.True(t, handler.ContainsAttr("upload.products", int64(2)))
	assert.Len(t, handler.RecordsByLevel(slog.LevelWarn), 1)

	handler.Clear()
	assert.Zero(t, handler.Count())
}

func TestXLSX(t *testing.T) {
	data := XLSX(t, [][]any{{"ID", "Product Name"}, {"P001", "Widget"}})

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Sheet1")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"ID", "Product Name"}, {"P001", "Widget"}}, rows)
}

func TestWriteFixture(t *testing.T) {
	path := WriteFixture(t, t.TempDir(), "nested/stock.csv", []byte(InventoryCSV))
	assert.FileExists(t, path)
}
