package sheet

import (
	"fmt"
	"strings"

	"framealign/framework"
)

// Table is a sheet read as a header row followed by data rows.
type Table struct {
	Book      Workbook
	Sheet     string
	HeaderRow int
	// Headers holds the trimmed header text, index 0 is column 1.
	Headers []string
	grid    [][]framework.Value
}

// ReadTable loads a sheet. A headerRow of 0 locates the header with
// framework.LocateHeader over the given scan window.
func ReadTable(book Workbook, sheet string, headerRow, scanRows, scanCols int) (*Table, error) {
	grid, err := book.Rows(sheet)
	if err != nil {
		return nil, err
	}
	if headerRow <= 0 {
		headerRow = framework.LocateHeader(grid, scanRows, scanCols)
	}
	t := &Table{Book: book, Sheet: sheet, HeaderRow: headerRow, grid: grid}
	if headerRow <= len(grid) {
		for _, v := range grid[headerRow-1] {
			t.Headers = append(t.Headers, strings.TrimSpace(v.String()))
		}
	}
	return t, nil
}

// Columns returns the non-empty header names in sheet order.
func (t *Table) Columns() []string {
	out := make([]string, 0, len(t.Headers))
	for _, h := range t.Headers {
		if h != "" {
			out = append(out, h)
		}
	}
	return out
}

// HeaderMap maps normalised header names to their 1-based column. The first
// occurrence of a duplicate header wins.
func (t *Table) HeaderMap() map[string]int {
	m := make(map[string]int, len(t.Headers))
	for i, h := range t.Headers {
		if h == "" {
			continue
		}
		key := framework.NormalizeHeader(h)
		if _, ok := m[key]; !ok {
			m[key] = i + 1
		}
	}
	return m
}

// Column finds a header by normalised name.
func (t *Table) Column(name string) (int, bool) {
	col, ok := t.HeaderMap()[framework.NormalizeHeader(name)]
	return col, ok
}

// MaxColumn is the widest row of the sheet.
func (t *Table) MaxColumn() int {
	widest := len(t.Headers)
	for _, row := range t.grid {
		if len(row) > widest {
			widest = len(row)
		}
	}
	return widest
}

// LastRow is the last used row of the sheet.
func (t *Table) LastRow() int {
	return len(t.grid)
}

// EnsureColumn returns the column holding name, appending a new header after
// the widest row when it is missing.
func (t *Table) EnsureColumn(name string) (int, error) {
	if col, ok := t.Column(name); ok {
		return col, nil
	}
	col := t.MaxColumn() + 1
	if err := t.Set(t.HeaderRow, col, framework.Text(name)); err != nil {
		return 0, fmt.Errorf("add column %s: %w", name, err)
	}
	for len(t.Headers) < col {
		t.Headers = append(t.Headers, "")
	}
	t.Headers[col-1] = name
	return col, nil
}

// Value reads a cell from the loaded grid.
func (t *Table) Value(row, col int) framework.Value {
	if row < 1 || row > len(t.grid) || col < 1 || col > len(t.grid[row-1]) {
		return framework.Value{}
	}
	return t.grid[row-1][col-1]
}

// Set writes a cell through to the workbook and keeps the grid in step.
func (t *Table) Set(row, col int, v framework.Value) error {
	if err := t.Book.SetCell(t.Sheet, row, col, v); err != nil {
		return err
	}
	for len(t.grid) < row {
		t.grid = append(t.grid, nil)
	}
	for len(t.grid[row-1]) < col {
		t.grid[row-1] = append(t.grid[row-1], framework.Value{})
	}
	t.grid[row-1][col-1] = v
	return nil
}

// Fields maps each named header to the cell of the given row.
func (t *Table) Fields(row int) map[string]framework.Value {
	fields := make(map[string]framework.Value, len(t.Headers))
	for i, h := range t.Headers {
		if h == "" {
			continue
		}
		if _, ok := fields[h]; ok {
			continue
		}
		fields[h] = t.Value(row, i+1)
	}
	return fields
}

// RowBlank reports whether every cell of a row is blank.
func (t *Table) RowBlank(row int) bool {
	if row < 1 || row > len(t.grid) {
		return true
	}
	for _, v := range t.grid[row-1] {
		if !v.IsBlank() {
			return false
		}
	}
	return true
}
