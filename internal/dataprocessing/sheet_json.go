package dataprocessing

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const sheetSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["headers", "rows"],
  "additionalProperties": false,
  "properties": {
    "headers": {
      "type": "array",
      "items": {"type": "string"}
    },
    "rows": {
      "type": "array",
      "items": {
        "type": "array",
        "items": {"type": ["string", "number", "boolean", "null"]}
      }
    }
  }
}`

var sheetSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("sheet.json", strings.NewReader(sheetSchemaJSON)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	return compiler.Compile("sheet.json")
})

// SheetFromJSON builds a sheet from an already-decoded table of the form
// {"headers": [...], "rows": [[...], ...]}. Numbers become numeric cells,
// strings text cells, and null blank cells.
func SheetFromJSON(data []byte) (*Sheet, error) {
	schema, err := sheetSchema()
	if err != nil {
		return nil, fmt.Errorf("compile sheet schema: %w", err)
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSpreadsheet, err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSpreadsheet, err)
	}

	obj := doc.(map[string]any)
	rawHeaders := obj["headers"].([]any)
	headers := make([]string, len(rawHeaders))
	for i, h := range rawHeaders {
		headers[i] = h.(string)
	}

	rawRows := obj["rows"].([]any)
	rows := make([][]Cell, 0, len(rawRows))
	for _, r := range rawRows {
		values := r.([]any)
		cells := make([]Cell, len(headers))
		for j := range headers {
			if j >= len(values) {
				cells[j] = EmptyCell()
				continue
			}
			cells[j] = jsonCell(values[j])
		}
		rows = append(rows, cells)
	}
	return NewSheet(headers, dropBlankRows(rows)), nil
}

func jsonCell(v any) Cell {
	switch val := v.(type) {
	case float64:
		return NumberCell(val)
	case string:
		if strings.TrimSpace(val) == "" {
			return EmptyCell()
		}
		return TextCell(val)
	case bool:
		if val {
			return NumberCell(1)
		}
		return NumberCell(0)
	default:
		return EmptyCell()
	}
}
