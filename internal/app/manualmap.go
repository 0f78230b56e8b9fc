package app

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"framealign/framework"
	"framealign/internal/sheet"
)

// Manual map CSV columns.
const (
	mapSheetColumn = "sheet"
	mapRowColumn   = "row"
	mapFinalColumn = "framework_node_final"
)

// ManualAssignment is one reviewed decision from a manual map file.
type ManualAssignment struct {
	Sheet string
	Row   int
	Node  string
}

// ReadManualMap parses a CSV with sheet, row and framework_node_final
// columns. Lines missing any of the three values or with a non-integer row
// are skipped.
func ReadManualMap(r io.Reader) ([]ManualAssignment, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty manual map")
		}
		return nil, fmt.Errorf("read manual map header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(h), "\ufeff"))
		if _, ok := idx[key]; !ok {
			idx[key] = i
		}
	}
	for _, col := range []string{mapSheetColumn, mapRowColumn, mapFinalColumn} {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("manual map missing column %q", col)
		}
	}
	field := func(rec []string, col string) string {
		i := idx[col]
		if i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var out []ManualAssignment
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read manual map: %w", err)
		}
		name, rawRow, node := field(rec, mapSheetColumn), field(rec, mapRowColumn), field(rec, mapFinalColumn)
		if name == "" || rawRow == "" || node == "" {
			continue
		}
		row, err := strconv.Atoi(rawRow)
		if err != nil || row < 1 {
			continue
		}
		out = append(out, ManualAssignment{Sheet: name, Row: row, Node: node})
	}
	return out, nil
}

// ApplyManualMap writes reviewed framework nodes from mapPath into the node
// column of the named sheets and saves the workbook to output. Assignments
// for unknown sheets or for rows at or above the header are skipped. It
// returns the number of rows updated.
func (s *Service) ApplyManualMap(input, mapPath, output string) (int, error) {
	f, err := os.Open(mapPath)
	if err != nil {
		return 0, fmt.Errorf("open manual map: %w", err)
	}
	assignments, err := ReadManualMap(f)
	f.Close()
	if err != nil {
		return 0, err
	}

	book, err := sheet.Open(input)
	if err != nil {
		return 0, err
	}
	defer closeBook(book, s.logger)

	known := make(map[string]bool)
	if labels, err := s.readIndex(book); err == nil {
		for _, l := range labels {
			known[l] = true
		}
	}

	type nodeSheet struct {
		tbl *sheet.Table
		col int
	}
	tables := make(map[string]nodeSheet)
	updated := 0
	for _, a := range assignments {
		if !book.HasSheet(a.Sheet) {
			s.logger.Debug("Skipping unknown sheet", zap.String("sheet", a.Sheet), zap.Int("row", a.Row))
			continue
		}
		ns, ok := tables[a.Sheet]
		if !ok {
			tbl, err := s.readTable(book, a.Sheet)
			if err != nil {
				return updated, err
			}
			col, err := tbl.EnsureColumn(s.cfg.Workbook.NodeColumn)
			if err != nil {
				return updated, fmt.Errorf("sheet %s: %w", a.Sheet, err)
			}
			ns = nodeSheet{tbl: tbl, col: col}
			tables[a.Sheet] = ns
		}
		if a.Row <= ns.tbl.HeaderRow {
			s.logger.Warn("Skipping header row", zap.String("sheet", a.Sheet), zap.Int("row", a.Row))
			continue
		}
		if len(known) > 0 && !known[a.Node] {
			s.logger.Warn("Manual node is not in the framework index",
				zap.String("sheet", a.Sheet), zap.Int("row", a.Row), zap.String("node", a.Node))
		}
		if err := ns.tbl.Set(a.Row, ns.col, framework.Text(a.Node)); err != nil {
			return updated, fmt.Errorf("sheet %s row %d: %w", a.Sheet, a.Row, err)
		}
		updated++
	}

	if err := book.Save(output); err != nil {
		return updated, err
	}
	s.logger.Info("Applied manual map",
		zap.String("input", input),
		zap.String("map", mapPath),
		zap.String("output", output),
		zap.Int("updated", updated),
		zap.Int("entries", len(assignments)),
	)
	return updated, nil
}
