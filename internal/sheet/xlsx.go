package sheet

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"framealign/framework"
)

const placeholderSheet = "Sheet1"

var rawValues = excelize.Options{RawCellValue: true}

// xlsxBook is an excelize-backed workbook. Cells not touched by SetCell keep
// their original styles and formulas on save.
type xlsxBook struct {
	f *excelize.File
	// fresh marks a book from Create whose default sheet is still unused.
	fresh bool
}

func openXLSX(path string) (*xlsxBook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	return &xlsxBook{f: f}, nil
}

func newXLSX() *xlsxBook {
	return &xlsxBook{f: excelize.NewFile(), fresh: true}
}

func (x *xlsxBook) SheetNames() []string {
	if x.fresh {
		return nil
	}
	return x.f.GetSheetList()
}

func (x *xlsxBook) HasSheet(name string) bool {
	for _, n := range x.SheetNames() {
		if n == name {
			return true
		}
	}
	return false
}

func (x *xlsxBook) Rows(sheet string) ([][]framework.Value, error) {
	if !x.HasSheet(sheet) {
		return nil, sheetError(sheet)
	}
	raw, err := x.f.GetRows(sheet, rawValues)
	if err != nil {
		return nil, fmt.Errorf("read rows %s: %w", sheet, err)
	}
	grid := make([][]framework.Value, len(raw))
	for r, row := range raw {
		values := make([]framework.Value, len(row))
		for c, cell := range row {
			if cell == "" {
				continue
			}
			v, err := x.typedValue(sheet, r+1, c+1, cell)
			if err != nil {
				return nil, err
			}
			values[c] = v
		}
		grid[r] = values
	}
	return grid, nil
}

func (x *xlsxBook) Cell(sheet string, row, col int) (framework.Value, error) {
	if err := checkCoords(row, col); err != nil {
		return framework.Value{}, err
	}
	if !x.HasSheet(sheet) {
		return framework.Value{}, sheetError(sheet)
	}
	ref, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return framework.Value{}, err
	}
	raw, err := x.f.GetCellValue(sheet, ref, rawValues)
	if err != nil {
		return framework.Value{}, fmt.Errorf("read %s!%s: %w", sheet, ref, err)
	}
	if raw == "" {
		return framework.Value{}, nil
	}
	return x.typedValue(sheet, row, col, raw)
}

// typedValue turns the raw string excelize reports into a typed cell.
func (x *xlsxBook) typedValue(sheet string, row, col int, raw string) (framework.Value, error) {
	ref, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return framework.Value{}, err
	}
	typ, err := x.f.GetCellType(sheet, ref)
	if err != nil {
		return framework.Value{}, fmt.Errorf("cell type %s!%s: %w", sheet, ref, err)
	}
	switch typ {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula, excelize.CellTypeError:
		return framework.Text(raw), nil
	case excelize.CellTypeDate:
		return framework.Date(raw), nil
	case excelize.CellTypeBool:
		if raw == "1" || strings.EqualFold(raw, "true") {
			return framework.Number(1), nil
		}
		return framework.Number(0), nil
	}
	if f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
		return framework.Number(f), nil
	}
	return framework.Text(raw), nil
}

func (x *xlsxBook) SetCell(sheet string, row, col int, v framework.Value) error {
	if err := checkCoords(row, col); err != nil {
		return err
	}
	if !x.HasSheet(sheet) {
		return sheetError(sheet)
	}
	ref, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := x.f.SetCellValue(sheet, ref, cellInterface(v)); err != nil {
		return fmt.Errorf("write %s!%s: %w", sheet, ref, err)
	}
	return nil
}

func (x *xlsxBook) ReplaceSheet(sheet string, rows [][]framework.Value) error {
	var spare string
	if x.HasSheet(sheet) {
		if len(x.f.GetSheetList()) == 1 {
			// excelize refuses to delete the last sheet.
			spare = sheet + "_tmp"
			if _, err := x.f.NewSheet(spare); err != nil {
				return fmt.Errorf("create sheet %s: %w", spare, err)
			}
		}
		if err := x.f.DeleteSheet(sheet); err != nil {
			return fmt.Errorf("delete sheet %s: %w", sheet, err)
		}
	}
	if _, err := x.f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}
	if x.fresh {
		x.fresh = false
		if sheet != placeholderSheet {
			spare = placeholderSheet
		}
	}
	for r, row := range rows {
		ref, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			return err
		}
		cells := make([]interface{}, len(row))
		for c, v := range row {
			cells[c] = cellInterface(v)
		}
		if err := x.f.SetSheetRow(sheet, ref, &cells); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, r+1, err)
		}
	}
	if spare != "" {
		if err := x.f.DeleteSheet(spare); err != nil {
			return fmt.Errorf("delete sheet %s: %w", spare, err)
		}
	}
	return nil
}

// AddDropList restricts a column range to the values of a source range such
// as "Framework_Index!$A$2:$A$40".
func (x *xlsxBook) AddDropList(sheet string, col, fromRow, toRow int, source string) error {
	if !x.HasSheet(sheet) {
		return sheetError(sheet)
	}
	from, err := excelize.CoordinatesToCellName(col, fromRow)
	if err != nil {
		return err
	}
	to, err := excelize.CoordinatesToCellName(col, toRow)
	if err != nil {
		return err
	}
	dv := excelize.NewDataValidation(true)
	dv.Sqref = from + ":" + to
	dv.SetSqrefDropList(source)
	if err := x.f.AddDataValidation(sheet, dv); err != nil {
		return fmt.Errorf("add validation %s!%s: %w", sheet, dv.Sqref, err)
	}
	return nil
}

func (x *xlsxBook) Save(path string) error {
	if err := x.f.SaveAs(path); err != nil {
		return fmt.Errorf("save xlsx: %w", err)
	}
	return nil
}

func (x *xlsxBook) Close() error {
	return x.f.Close()
}

func cellInterface(v framework.Value) interface{} {
	switch v.Kind {
	case framework.KindText, framework.KindDate:
		return v.Text
	case framework.KindNumber:
		return v.Number
	default:
		return ""
	}
}
