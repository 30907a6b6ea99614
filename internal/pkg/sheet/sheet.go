// Package sheet locates the header row of a loosely formatted worksheet and
// resolves column names against it.
package sheet

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
	"github.com/yigit/supervision/internal/pkg/apperrors"
	"github.com/yigit/supervision/internal/pkg/textnorm"
)

// DefaultMaxScan bounds how many top rows FindHeaderRow inspects
const DefaultMaxScan = 30

// minHeaderHits is how many expected names a row must carry to count as the header
const minHeaderHits = 2

// FindHeaderRow returns the index of the first row among the top maxScan rows
// holding at least two distinct cells from expected, compared after normalization.
func FindHeaderRow(grid [][]string, expected []string, maxScan int) (int, bool) {
	if maxScan <= 0 {
		maxScan = DefaultMaxScan
	}

	want := make(map[string]struct{}, len(expected))
	for _, name := range expected {
		if n := textnorm.Text(name); n != "" {
			want[n] = struct{}{}
		}
	}

	for i, row := range grid {
		if i >= maxScan {
			break
		}
		hits := make(map[string]struct{})
		for _, cell := range row {
			n := textnorm.Text(cell)
			if _, ok := want[n]; ok {
				hits[n] = struct{}{}
			}
		}
		if len(hits) >= minHeaderHits {
			return i, true
		}
	}
	return -1, false
}

// Table is a grid split into a normalized header and the data rows below it
type Table struct {
	Header []string
	Rows   [][]string
	// HeaderRow is the zero-based grid index of the header
	HeaderRow int
}

// NewTable builds a table whose header is grid[headerRow]
func NewTable(grid [][]string, headerRow int) (*Table, error) {
	if headerRow < 0 || headerRow >= len(grid) {
		return nil, fmt.Errorf("%w: header row %d outside sheet of %d rows", apperrors.ErrHeaderNotFound, headerRow+1, len(grid))
	}

	header := make([]string, len(grid[headerRow]))
	for i, cell := range grid[headerRow] {
		header[i] = textnorm.Text(cell)
	}
	return &Table{Header: header, Rows: grid[headerRow+1:], HeaderRow: headerRow}, nil
}

// Column returns the index of the column called name. An exact normalized
// match wins; otherwise the first header containing name is used.
func (t *Table) Column(name string) (int, bool) {
	n := textnorm.Text(name)
	if n == "" {
		return -1, false
	}
	for i, h := range t.Header {
		if h == n {
			return i, true
		}
	}
	for i, h := range t.Header {
		if h != "" && strings.Contains(h, n) {
			return i, true
		}
	}
	return -1, false
}

// Missing lists the names in required that no header column resolves to
func (t *Table) Missing(required []string) []string {
	var missing []string
	for _, name := range required {
		if _, ok := t.Column(name); !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// Available lists the non-blank header names
func (t *Table) Available() []string {
	var out []string
	for _, h := range t.Header {
		if h != "" {
			out = append(out, h)
		}
	}
	return out
}

// Line returns the one-based sheet line of data row i
func (t *Table) Line(i int) int {
	return t.HeaderRow + i + 2
}

// Cell returns row[col] or "" when the row is short or col is negative
func Cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}

// Blank reports whether every cell of row normalizes to ""
func Blank(row []string) bool {
	for _, cell := range row {
		if textnorm.Text(cell) != "" {
			return false
		}
	}
	return true
}

// ReadWorkbook returns the cell grid of a sheet. An empty sheet name selects the first sheet.
func ReadWorkbook(path, sheetName string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrWorkbookUnusable, err)
	}
	defer f.Close()

	if sheetName == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("%w: workbook has no sheets", apperrors.ErrWorkbookUnusable)
		}
		sheetName = sheets[0]
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("%w: sheet %q: %v", apperrors.ErrWorkbookUnusable, sheetName, err)
	}
	return rows, nil
}
