// =============================================================================
// catatkeu - Workbook Parser
// =============================================================================
//
// This module turns a workbook into header-keyed rows, the shape the
// spreadsheet importer consumes. It understands:
//   - .xlsx / .xlsm workbooks (Office Open XML, read with excelize)
//   - .xls workbooks (BIFF8, read with xlsReader)
//
// SHEET STRUCTURE (Expected Layout):
//   The first non-empty row of every sheet is the header row. Each following
//   row becomes a Row whose cells are keyed by the header text above them.
//
//   | Nama       | Tipe | Total Hutang | Tanggal    | ID Hutang |
//   |------------|------|--------------|------------|-----------|
//   | KPR Rumah  | KPR  | 150000000    | 46056      | 5         |
//
// CELL VALUES:
//   - string    : text cells (shared or inline strings)
//   - float64   : numeric cells, including serial dates
//   - time.Time : typed date cells
//   - bool      : boolean cells
//   Blank cells are absent from Row.Cells; fully blank rows are dropped.
//
// =============================================================================

package xlsxparser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"
)

// ErrInvalidWorkbook is returned when the bytes are not a readable workbook.
var ErrInvalidWorkbook = errors.New("not a readable xlsx or xls workbook")

var (
	zipMagic = []byte{0x50, 0x4B, 0x03, 0x04}
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// =============================================================================
// WORKBOOK STRUCTURE
// =============================================================================

// Workbook is a parsed workbook.
type Workbook struct {
	// Sheets holds every sheet, keyed by sheet name.
	Sheets map[string]*Sheet

	// Order is the sheet order of the source workbook.
	Order []string

	// Date1904 is true when serial dates count from 1904-01-01.
	Date1904 bool
}

// Sheet is a single worksheet converted to header-keyed rows.
type Sheet struct {
	Name    string
	Headers []string
	Rows    []Row
}

// Row is one data row of a sheet.
type Row struct {
	// Number is the 1-based row number in the source sheet.
	Number int

	// Cells maps header text to the cell value. Blank cells are absent.
	Cells map[string]any
}

// Value returns the value under header, or nil.
func (r Row) Value(header string) any {
	return r.Cells[header]
}

// Sheet returns the named sheet, or nil when the workbook has no such sheet.
func (w *Workbook) Sheet(name string) *Sheet {
	if w == nil {
		return nil
	}
	return w.Sheets[name]
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Open parses workbook bytes, choosing the reader from the file signature.
//
// PARAMETERS:
//   - data: The complete workbook file contents.
//
// RETURNS:
//   - The parsed Workbook.
//   - ErrInvalidWorkbook (wrapped) if neither reader accepts the data.
func Open(data []byte) (*Workbook, error) {
	switch {
	case bytes.HasPrefix(data, zipMagic):
		return openXLSX(bytes.NewReader(data))
	case bytes.HasPrefix(data, oleMagic):
		return openXLS(bytes.NewReader(data))
	}
	return nil, fmt.Errorf("%w: unknown file signature", ErrInvalidWorkbook)
}

// openXLSX reads an Office Open XML workbook.
func openXLSX(r io.Reader) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
	}
	defer f.Close()

	wb := &Workbook{Sheets: make(map[string]*Sheet)}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		wb.Date1904 = *props.Date1904
	}

	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("failed to read rows of sheet '%s': %w", name, err)
		}

		cellValue := func(rowIdx, colIdx int, raw string) any {
			ref, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+1)
			if err != nil {
				return raw
			}
			kind, err := f.GetCellType(name, ref)
			if err != nil {
				return raw
			}
			return typedValue(kind, raw)
		}

		wb.add(buildSheet(name, rows, cellValue))
	}

	return wb, nil
}

// openXLS reads a legacy BIFF8 workbook. The format keeps no separate type
// for digit-only text, so every value that parses as a number is numeric.
func openXLS(r io.ReadSeeker) (*Workbook, error) {
	book, err := xls.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
	}

	wb := &Workbook{Sheets: make(map[string]*Sheet)}
	for _, sheet := range book.GetSheets() {
		var rows [][]string
		for _, row := range sheet.GetRows() {
			var cells []string
			for _, cell := range row.GetCols() {
				cells = append(cells, cell.GetString())
			}
			rows = append(rows, cells)
		}

		cellValue := func(_, _ int, raw string) any {
			return typedValue(excelize.CellTypeUnset, raw)
		}
		wb.add(buildSheet(sheet.GetName(), rows, cellValue))
	}

	return wb, nil
}

func (w *Workbook) add(s *Sheet) {
	if _, exists := w.Sheets[s.Name]; !exists {
		w.Order = append(w.Order, s.Name)
	}
	w.Sheets[s.Name] = s
}

// buildSheet turns raw string rows into a header-keyed Sheet.
//
// PARAMETERS:
//   - name: The sheet name.
//   - rows: Raw cell text, row-major.
//   - cellValue: Converts the raw text at (row, col) to a typed value.
func buildSheet(name string, rows [][]string, cellValue func(rowIdx, colIdx int, raw string) any) *Sheet {
	sheet := &Sheet{Name: name}

	headerIdx := -1
	for i, row := range rows {
		if !isRowEmpty(row) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return sheet
	}
	sheet.Headers = cleanHeaders(rows[headerIdx])

	for i := headerIdx + 1; i < len(rows); i++ {
		row := rows[i]
		if isRowEmpty(row) {
			continue
		}

		cells := make(map[string]any)
		for col, raw := range row {
			if col >= len(sheet.Headers) || strings.TrimSpace(raw) == "" {
				continue
			}
			cells[sheet.Headers[col]] = cellValue(i, col, raw)
		}
		if len(cells) == 0 {
			continue
		}

		sheet.Rows = append(sheet.Rows, Row{Number: i + 1, Cells: cells})
	}

	return sheet
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// isRowEmpty checks if a row contains only empty cells.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// cleanHeaders trims header text, names blank headers __EMPTY, __EMPTY_1, ...
// and suffixes repeated headers with _1, _2, ...
func cleanHeaders(raw []string) []string {
	headers := make([]string, len(raw))
	seen := make(map[string]int)
	blanks := 0

	for i, h := range raw {
		h = strings.TrimSpace(h)
		if h == "" {
			h = "__EMPTY"
			if blanks > 0 {
				h = fmt.Sprintf("__EMPTY_%d", blanks)
			}
			blanks++
		}

		if n, dup := seen[h]; dup {
			seen[h] = n + 1
			h = fmt.Sprintf("%s_%d", h, n+1)
		} else {
			seen[h] = 0
		}
		headers[i] = h
	}

	return headers
}

// typedValue converts raw cell text according to the cell type.
func typedValue(kind excelize.CellType, raw string) any {
	switch kind {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeError:
		return raw
	case excelize.CellTypeBool:
		switch strings.TrimSpace(raw) {
		case "1", "TRUE", "true":
			return true
		case "0", "FALSE", "false":
			return false
		}
		return raw
	case excelize.CellTypeDate:
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, strings.TrimSpace(raw)); err == nil {
				return t
			}
		}
		return raw
	}

	// Numbers, formulas and untyped cells: numeric when the raw text is.
	if f, ok := parseNumber(raw); ok {
		return f
	}
	return raw
}

// parseNumber accepts plain decimal numbers only; "NaN", "Inf" and hex
// forms stay text so a payee called "Nan" is not read as a number.
func parseNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if !strings.ContainsRune("0123456789+-.eE", r) {
			return 0, false
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
