package app

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"framealign/framework"
	"framealign/internal/sheet"
)

// SyncResult describes one sync run.
type SyncResult struct {
	Output    string
	Nodes     int
	Targets   []string
	DropLists bool
}

// ReadIndexCSV returns the de-duplicated values of the given column, in file
// order.
func ReadIndexCSV(r io.Reader, column string) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("index csv missing column: %s", column)
		}
		return nil, fmt.Errorf("read index csv header: %w", err)
	}
	for i, h := range header {
		header[i] = strings.TrimPrefix(strings.TrimSpace(h), "\ufeff")
	}
	name, ok := framework.FindColumn(header, []string{column})
	if !ok {
		return nil, fmt.Errorf("index csv missing column: %s", column)
	}
	col := 0
	for i, h := range header {
		if h == name {
			col = i
			break
		}
	}
	var nodes []string
	seen := make(map[string]struct{})
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read index csv: %w", err)
		}
		if col >= len(rec) {
			continue
		}
		node := strings.TrimSpace(rec[col])
		if node == "" {
			continue
		}
		if _, dup := seen[node]; dup {
			continue
		}
		seen[node] = struct{}{}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// SyncFramework rewrites the index sheet from an index CSV, ensures the node
// column on the epic and ticket sheets and restricts it to the index values
// where the backend supports list validation. The workbook is saved to output,
// or to the input name with the aligned suffix when output is empty.
func (s *Service) SyncFramework(input, indexCSV, output string) (*SyncResult, error) {
	f, err := os.Open(indexCSV)
	if err != nil {
		return nil, fmt.Errorf("open index csv: %w", err)
	}
	nodes, err := ReadIndexCSV(f, s.cfg.Workbook.NodeColumn)
	f.Close()
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, &framework.ConfigurationError{Reason: fmt.Sprintf("no framework nodes in %s", indexCSV)}
	}

	book, err := sheet.Open(input)
	if err != nil {
		return nil, err
	}
	defer closeBook(book, s.logger)

	wb := s.cfg.Workbook
	rows := make([][]framework.Value, 0, len(nodes)+1)
	rows = append(rows, []framework.Value{framework.Text(wb.NodeColumn)})
	for _, n := range nodes {
		rows = append(rows, []framework.Value{framework.Text(n)})
	}
	if err := book.ReplaceSheet(wb.IndexSheet, rows); err != nil {
		return nil, fmt.Errorf("write framework index: %w", err)
	}

	targets := s.findTargets(book.SheetNames())
	if len(targets) == 0 {
		return nil, &framework.ConfigurationError{
			Reason: fmt.Sprintf("no epic or ticket sheets found in [%s]", strings.Join(book.SheetNames(), ", ")),
		}
	}
	lister, canList := book.(sheet.DropLister)
	source := fmt.Sprintf("%s!$A$2:$A$%d", sheetRef(wb.IndexSheet), len(nodes)+1)

	result := &SyncResult{Output: output, Nodes: len(nodes), DropLists: canList}
	for _, t := range targets {
		tbl, err := s.readTable(book, t.sheet)
		if err != nil {
			return nil, err
		}
		col, err := tbl.EnsureColumn(wb.NodeColumn)
		if err != nil {
			return nil, fmt.Errorf("sheet %s: %w", t.sheet, err)
		}
		if canList {
			last := wb.DropListRows
			if last <= tbl.HeaderRow {
				last = tbl.HeaderRow + 1
			}
			if err := lister.AddDropList(t.sheet, col, tbl.HeaderRow+1, last, source); err != nil {
				return nil, err
			}
		}
		result.Targets = append(result.Targets, t.sheet)
	}
	if !canList {
		s.logger.Info("Workbook format has no list validation, node columns left unrestricted")
	}

	if result.Output == "" {
		result.Output = OutputPath(input, wb.AlignedSuffix)
	}
	if err := book.Save(result.Output); err != nil {
		return nil, err
	}
	s.logger.Info("Synced framework index",
		zap.String("input", input),
		zap.String("output", result.Output),
		zap.Int("nodes", len(nodes)),
		zap.Strings("targets", result.Targets),
	)
	return result, nil
}

var plainSheetName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)

// sheetRef quotes a sheet name for use in a cell reference formula.
func sheetRef(name string) string {
	if plainSheetName.MatchString(name) {
		return name
	}
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
