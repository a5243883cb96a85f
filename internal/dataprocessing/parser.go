package dataprocessing

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// ErrInvalidSpreadsheet wraps every decode failure. The bytes were not a
// readable workbook or CSV file.
var ErrInvalidSpreadsheet = errors.New("invalid spreadsheet")

// ErrUnsupportedFormat is returned for extensions no decoder handles.
var ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")

// SupportedExtensions lists the file extensions Decode accepts.
var SupportedExtensions = []string{".xlsx", ".xls", ".csv"}

// Decode reads the first worksheet of a spreadsheet into a Sheet. The format
// is chosen from the filename extension. The first row is the header row.
func Decode(filename string, r io.Reader) (*Sheet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	var sheet *Sheet
	switch ext {
	case ".xlsx":
		sheet, err = decodeXLSX(data)
	case ".xls":
		sheet, err = decodeXLS(data)
	case ".csv":
		sheet, err = decodeCSV(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidSpreadsheet, filename, err)
	}

	slog.Debug("Decoded spreadsheet",
		slog.String("file", filename),
		slog.Int("columns", len(sheet.Headers)),
		slog.Int("rows", sheet.Len()))
	return sheet, nil
}

func decodeXLSX(data []byte) (*Sheet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no worksheets")
	}
	name := sheets[0]

	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return NewSheet(nil, nil), nil
	}

	headers := rows[0]
	body := make([][]Cell, 0, len(rows)-1)
	for i, raw := range rows[1:] {
		cells := make([]Cell, len(headers))
		for j := range headers {
			if j >= len(raw) {
				cells[j] = EmptyCell()
				continue
			}
			axis, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return nil, err
			}
			typ, err := f.GetCellType(name, axis)
			if err != nil {
				return nil, err
			}
			cells[j] = xlsxCell(typ, raw[j])
		}
		body = append(body, cells)
	}
	return NewSheet(headers, dropBlankRows(body)), nil
}

// xlsxCell keeps string-typed cells as text so identifiers such as "007"
// survive; untyped and numeric cells become numbers when they parse.
func xlsxCell(typ excelize.CellType, raw string) Cell {
	if strings.TrimSpace(raw) == "" {
		return EmptyCell()
	}
	switch typ {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula:
		return TextCell(raw)
	case excelize.CellTypeError:
		return EmptyCell()
	default:
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			return NumberCell(v)
		}
		return TextCell(raw)
	}
}

func decodeXLS(data []byte) (*Sheet, error) {
	workbook, err := xls.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if len(workbook.GetSheets()) == 0 {
		return nil, errors.New("workbook has no worksheets")
	}
	ws, err := workbook.GetSheet(0)
	if err != nil {
		return nil, err
	}

	var table [][]string
	for _, row := range ws.GetRows() {
		var values []string
		for _, cell := range row.GetCols() {
			values = append(values, cell.GetString())
		}
		table = append(table, values)
	}
	return textSheet(table), nil
}

func decodeCSV(data []byte) (*Sheet, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	var src io.Reader = bytes.NewReader(data)
	if !utf8.Valid(data) {
		src = transform.NewReader(src, charmap.Windows1252.NewDecoder())
	}

	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1
	table, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	return textSheet(table), nil
}

// textSheet builds a sheet from untyped string rows. The first row is the header.
func textSheet(table [][]string) *Sheet {
	if len(table) == 0 {
		return NewSheet(nil, nil)
	}
	headers := table[0]
	body := make([][]Cell, 0, len(table)-1)
	for _, raw := range table[1:] {
		cells := make([]Cell, len(headers))
		for j := range headers {
			if j < len(raw) && strings.TrimSpace(raw[j]) != "" {
				cells[j] = TextCell(raw[j])
			} else {
				cells[j] = EmptyCell()
			}
		}
		body = append(body, cells)
	}
	return NewSheet(headers, dropBlankRows(body))
}

// dropBlankRows removes rows in which every cell is blank.
func dropBlankRows(rows [][]Cell) [][]Cell {
	out := rows[:0]
	for _, row := range rows {
		for _, c := range row {
			if !c.Missing() {
				out = append(out, row)
				break
			}
		}
	}
	return out
}
