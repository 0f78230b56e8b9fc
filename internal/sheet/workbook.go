package sheet

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"framealign/framework"
)

// ErrSheetNotFound is returned when a named sheet does not exist.
var ErrSheetNotFound = errors.New("sheet not found")

// Workbook is the spreadsheet-shaped storage the alignment tooling reads from
// and writes back to. Row and column numbers are 1-based.
type Workbook interface {
	SheetNames() []string
	HasSheet(name string) bool
	// Rows returns the used range of a sheet starting at row 1, column 1.
	Rows(sheet string) ([][]framework.Value, error)
	Cell(sheet string, row, col int) (framework.Value, error)
	SetCell(sheet string, row, col int, v framework.Value) error
	// ReplaceSheet drops the sheet if present and recreates it at the end.
	ReplaceSheet(sheet string, rows [][]framework.Value) error
	Save(path string) error
	Close() error
}

// DropLister is implemented by backends that support list validation.
type DropLister interface {
	AddDropList(sheet string, col, fromRow, toRow int, source string) error
}

// Format identifies a workbook backend.
type Format string

const (
	FormatXLSX   Format = "xlsx"
	FormatSQLite Format = "sqlite"
	FormatCSV    Format = "csv"
)

// DetectFormat maps a path to its backend. Directories are CSV workbooks.
func DetectFormat(path string) (Format, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return FormatCSV, nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite, nil
	case "":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("unsupported workbook format %q", filepath.Ext(path))
}

// Open loads an existing workbook.
func Open(path string) (Workbook, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatXLSX:
		return openXLSX(path)
	case FormatSQLite:
		return openSQLite(path)
	default:
		return openCSVDir(path)
	}
}

// Create returns an empty workbook whose Save writes the format of path.
func Create(path string) (Workbook, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatXLSX:
		return newXLSX(), nil
	case FormatSQLite:
		return newMemBook(saveSQLite), nil
	default:
		return newMemBook(saveCSVDir), nil
	}
}

func checkCoords(row, col int) error {
	if row < 1 || col < 1 {
		return fmt.Errorf("invalid cell coordinates row=%d col=%d", row, col)
	}
	return nil
}

func sheetError(name string) error {
	return fmt.Errorf("%w: %s", ErrSheetNotFound, name)
}
