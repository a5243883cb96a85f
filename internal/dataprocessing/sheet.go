package dataprocessing

import (
	"math"
	"strconv"
)

// CellKind tags what a spreadsheet cell holds.
type CellKind int

const (
	// CellAbsent means the sheet has no such column, or the row is too short.
	CellAbsent CellKind = iota
	// CellEmpty is a present but blank cell.
	CellEmpty
	// CellNumeric is a cell the decoder typed as a number.
	CellNumeric
	// CellText is any other non-blank cell.
	CellText
)

// Cell is an untyped spreadsheet value. It is only read through the
// coercion helpers, each of which owns its own failure policy.
type Cell struct {
	Kind CellKind
	Num  float64
	Text string
}

// EmptyCell returns a blank cell.
func EmptyCell() Cell { return Cell{Kind: CellEmpty} }

// NumberCell returns a numeric cell. NaN is a missing-number marker and becomes blank.
func NumberCell(v float64) Cell {
	if math.IsNaN(v) {
		return EmptyCell()
	}
	return Cell{Kind: CellNumeric, Num: v}
}

// TextCell returns a text cell, or a blank one for "".
func TextCell(s string) Cell {
	if s == "" {
		return EmptyCell()
	}
	return Cell{Kind: CellText, Text: s}
}

// Missing reports whether the cell carries no value.
func (c Cell) Missing() bool {
	return c.Kind == CellAbsent || c.Kind == CellEmpty
}

// String renders the cell the way identity fields are stringified.
// Integral numbers print without a fractional part.
func (c Cell) String() string {
	switch c.Kind {
	case CellNumeric:
		return strconv.FormatFloat(c.Num, 'f', -1, 64)
	case CellText:
		return c.Text
	default:
		return ""
	}
}

// Sheet is a decoded table: one header row followed by data rows.
// A Sheet is not modified after NewSheet returns and may be shared.
type Sheet struct {
	Headers []string
	Rows    [][]Cell
	index   map[string]int
}

// NewSheet builds a sheet. When a header repeats, the first column wins.
func NewSheet(headers []string, rows [][]Cell) *Sheet {
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}
	return &Sheet{Headers: headers, Rows: rows, index: index}
}

// HasColumn reports whether header is one of the sheet's column names.
func (s *Sheet) HasColumn(header string) bool {
	_, ok := s.index[header]
	return ok
}

// Cell returns the value at row under header, or an absent cell.
func (s *Sheet) Cell(row int, header string) Cell {
	col, ok := s.index[header]
	if !ok || row < 0 || row >= len(s.Rows) {
		return Cell{}
	}
	cells := s.Rows[row]
	if col >= len(cells) {
		return Cell{}
	}
	return cells[col]
}

// Len returns the number of data rows.
func (s *Sheet) Len() int { return len(s.Rows) }

// Empty matches a table with no data rows or no columns.
func (s *Sheet) Empty() bool {
	return len(s.Rows) == 0 || len(s.Headers) == 0
}
