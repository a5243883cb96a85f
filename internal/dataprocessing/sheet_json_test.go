package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSheetFromJSON(t *testing.T) {
	data := []byte(`{
		"headers": ["ID", "Product Name", "Opening Inventory", "Sales Price (Day 1)"],
		"rows": [
			["P1", "Widget", 10, "$3.50"],
			[null, "", null],
			[42, true]
		]
	}`)

	sheet, err := SheetFromJSON(data)
	require.NoError(t, err)

	require.Equal(t, 2, sheet.Len())
	assert.Equal(t, CellText, sheet.Cell(0, "ID").Kind)
	assert.Equal(t, CellNumeric, sheet.Cell(0, "Opening Inventory").Kind)
	assert.Equal(t, "42", sheet.Cell(1, "ID").String())
	assert.Equal(t, "1", sheet.Cell(1, "Product Name").String())
	assert.True(t, sheet.Cell(1, "Sales Price (Day 1)").Missing())
}

func TestSheetFromJSON_RejectsBadDocuments(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "not json", data: `{headers`},
		{name: "missing rows", data: `{"headers": ["ID"]}`},
		{name: "non string header", data: `{"headers": [1], "rows": []}`},
		{name: "object cell", data: `{"headers": ["ID"], "rows": [[{"a": 1}]]}`},
		{name: "unknown property", data: `{"headers": [], "rows": [], "sheet": "x"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SheetFromJSON([]byte(tt.data))
			assert.ErrorIs(t, err, ErrInvalidSpreadsheet)
		})
	}
}
