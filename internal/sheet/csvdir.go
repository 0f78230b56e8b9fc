package sheet

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"framealign/framework"
)

// A CSV workbook is a directory holding one <sheet>.csv file per sheet.

var numericCell = regexp.MustCompile(`^[-+]?(0|[1-9]\d*)(\.\d+)?$`)

func openCSVDir(dir string) (*memBook, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read workbook dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".csv") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	book := newMemBook(saveCSVDir)
	for _, name := range names {
		grid, err := readCSVSheet(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		book.addSheet(strings.TrimSuffix(name, filepath.Ext(name)), grid)
	}
	return book, nil
}

func readCSVSheet(path string) ([][]framework.Value, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	grid := make([][]framework.Value, len(rows))
	for i, row := range rows {
		values := make([]framework.Value, len(row))
		for j, cell := range row {
			values[j] = parseCSVCell(cell)
		}
		grid[i] = values
	}
	return grid, nil
}

func parseCSVCell(raw string) framework.Value {
	v := cleanCell(raw)
	if v == "" {
		return framework.Value{}
	}
	if numericCell.MatchString(v) {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return framework.Number(f)
		}
	}
	return framework.Text(v)
}

func cleanCell(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, "\ufeff")
	return v
}

func saveCSVDir(b *memBook, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create workbook dir: %w", err)
	}
	for _, name := range b.names {
		if err := writeCSVSheet(filepath.Join(dir, name+".csv"), b.sheets[name]); err != nil {
			return err
		}
	}
	return nil
}

func writeCSVSheet(path string, grid [][]framework.Value) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	w := csv.NewWriter(f)
	for _, row := range grid {
		record := make([]string, len(row))
		for i, v := range row {
			record[i] = v.String()
		}
		if err := w.Write(record); err != nil {
			f.Close()
			return fmt.Errorf("write %s: %w", filepath.Base(path), err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flush %s: %w", filepath.Base(path), err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", filepath.Base(path), err)
	}
	return nil
}

// ReadCSVFile loads a single CSV file as a grid with the same cell typing as
// a CSV workbook.
func ReadCSVFile(path string) ([][]framework.Value, error) {
	return readCSVSheet(path)
}
