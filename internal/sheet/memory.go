package sheet

import (
	"framealign/framework"
)

// memBook is a fully materialised workbook. The CSV and SQLite backends load
// into it and serialise out of it.
type memBook struct {
	names  []string
	sheets map[string][][]framework.Value
	save   func(b *memBook, path string) error
}

func newMemBook(save func(b *memBook, path string) error) *memBook {
	return &memBook{
		sheets: make(map[string][][]framework.Value),
		save:   save,
	}
}

func (b *memBook) SheetNames() []string {
	out := make([]string, len(b.names))
	copy(out, b.names)
	return out
}

func (b *memBook) HasSheet(name string) bool {
	_, ok := b.sheets[name]
	return ok
}

func (b *memBook) Rows(sheet string) ([][]framework.Value, error) {
	grid, ok := b.sheets[sheet]
	if !ok {
		return nil, sheetError(sheet)
	}
	out := make([][]framework.Value, len(grid))
	for i, row := range grid {
		out[i] = append([]framework.Value(nil), row...)
	}
	return out, nil
}

func (b *memBook) Cell(sheet string, row, col int) (framework.Value, error) {
	if err := checkCoords(row, col); err != nil {
		return framework.Value{}, err
	}
	grid, ok := b.sheets[sheet]
	if !ok {
		return framework.Value{}, sheetError(sheet)
	}
	if row > len(grid) || col > len(grid[row-1]) {
		return framework.Value{}, nil
	}
	return grid[row-1][col-1], nil
}

func (b *memBook) SetCell(sheet string, row, col int, v framework.Value) error {
	if err := checkCoords(row, col); err != nil {
		return err
	}
	grid, ok := b.sheets[sheet]
	if !ok {
		return sheetError(sheet)
	}
	for len(grid) < row {
		grid = append(grid, nil)
	}
	for len(grid[row-1]) < col {
		grid[row-1] = append(grid[row-1], framework.Value{})
	}
	grid[row-1][col-1] = v
	b.sheets[sheet] = grid
	return nil
}

func (b *memBook) ReplaceSheet(sheet string, rows [][]framework.Value) error {
	b.removeSheet(sheet)
	grid := make([][]framework.Value, len(rows))
	for i, row := range rows {
		grid[i] = append([]framework.Value(nil), row...)
	}
	b.names = append(b.names, sheet)
	b.sheets[sheet] = grid
	return nil
}

func (b *memBook) Save(path string) error {
	return b.save(b, path)
}

func (b *memBook) Close() error {
	return nil
}

func (b *memBook) addSheet(name string, grid [][]framework.Value) {
	if _, ok := b.sheets[name]; !ok {
		b.names = append(b.names, name)
	}
	b.sheets[name] = grid
}

func (b *memBook) removeSheet(name string) {
	if _, ok := b.sheets[name]; !ok {
		return
	}
	delete(b.sheets, name)
	for i, n := range b.names {
		if n == name {
			b.names = append(b.names[:i], b.names[i+1:]...)
			break
		}
	}
}
