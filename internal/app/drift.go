package app

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"framealign/framework"
	"framealign/internal/sheet"
)

// DriftIssue is one ticket row whose alignment fields need attention.
type DriftIssue struct {
	Row int
	// Values holds the required column values in configured order.
	Values   []string
	Problems []string
}

// DriftResult describes one drift check.
type DriftResult struct {
	Sheet        string
	HeaderRow    int
	AddedColumns []string
	Issues       []DriftIssue
	ReportPath   string
}

// DriftCheck audits the ticket sheet of a workbook: required alignment
// columns are added when missing (and the workbook saved in place), then
// every non-empty row is checked for blank required fields, realms that have
// no spec file and framework paths that do not exist. The issues are written
// to the configured CSV report.
func (s *Service) DriftCheck(input string) (*DriftResult, error) {
	book, err := sheet.Open(input)
	if err != nil {
		return nil, err
	}
	defer closeBook(book, s.logger)

	dc := s.cfg.Drift
	if !book.HasSheet(dc.Sheet) {
		return nil, fmt.Errorf("drift check: %w: %s (sheets: %s)",
			sheet.ErrSheetNotFound, dc.Sheet, strings.Join(book.SheetNames(), ", "))
	}
	tbl, err := s.readTable(book, dc.Sheet)
	if err != nil {
		return nil, err
	}
	result := &DriftResult{Sheet: dc.Sheet, HeaderRow: tbl.HeaderRow, ReportPath: dc.ReportPath}

	required := make([]int, len(dc.RequiredColumns))
	for i, name := range dc.RequiredColumns {
		if col, ok := tbl.Column(name); ok {
			required[i] = col
			continue
		}
		col, err := tbl.EnsureColumn(name)
		if err != nil {
			return nil, fmt.Errorf("sheet %s: %w", dc.Sheet, err)
		}
		required[i] = col
		result.AddedColumns = append(result.AddedColumns, name)
	}
	if len(result.AddedColumns) > 0 {
		if err := book.Save(input); err != nil {
			return nil, err
		}
		s.logger.Info("Added missing alignment columns", zap.Strings("columns", result.AddedColumns))
	}

	realms, err := s.allowedRealms()
	if err != nil {
		return nil, err
	}
	isRequired := make(map[int]bool, len(required))
	for _, col := range required {
		isRequired[col] = true
	}

	for row := tbl.HeaderRow + 1; row <= tbl.LastRow(); row++ {
		if s.contentBlank(tbl, row, isRequired) {
			continue
		}
		issue := DriftIssue{Row: row, Values: make([]string, len(required))}
		for i, col := range required {
			issue.Values[i] = s.driftCell(tbl.Value(row, col))
			if issue.Values[i] == "" {
				issue.Problems = append(issue.Problems, dc.RequiredColumns[i]+" empty")
			}
		}
		if realm := s.requiredValue(issue, dc.RealmColumn); realm != "" && realms != nil && !realms[realm] {
			issue.Problems = append(issue.Problems, fmt.Sprintf("%s not in spec (%s)", dc.RealmColumn, realm))
		}
		if path := s.requiredValue(issue, dc.PathColumn); path != "" {
			if _, err := os.Stat(path); err != nil {
				issue.Problems = append(issue.Problems, dc.PathColumn+" does not exist on disk")
			}
		}
		if len(issue.Problems) > 0 {
			result.Issues = append(result.Issues, issue)
		}
	}

	if err := s.writeDriftReport(result); err != nil {
		return nil, err
	}
	s.logger.Info("Drift check finished",
		zap.String("sheet", dc.Sheet),
		zap.Int("header_row", tbl.HeaderRow),
		zap.Int("issues", len(result.Issues)),
		zap.String("report", dc.ReportPath),
	)
	return result, nil
}

// allowedRealms lists the *.md stems of the realm spec directory. A nil map
// disables the realm check.
func (s *Service) allowedRealms() (map[string]bool, error) {
	dir := s.cfg.Drift.RealmSpecDir
	if dir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("Realm spec dir not found, every realm will be reported", zap.String("dir", dir))
			return map[string]bool{}, nil
		}
		return nil, fmt.Errorf("read realm spec dir: %w", err)
	}
	realms := make(map[string]bool)
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".md" {
			continue
		}
		realms[strings.TrimSuffix(e.Name(), ".md")] = true
	}
	return realms, nil
}

// driftCell trims a cell and maps the configured blank markers to "".
func (s *Service) driftCell(v framework.Value) string {
	text := strings.TrimSpace(v.String())
	for _, blank := range s.cfg.Drift.BlankValues {
		if strings.EqualFold(text, blank) {
			return ""
		}
	}
	return text
}

func (s *Service) contentBlank(tbl *sheet.Table, row int, skip map[int]bool) bool {
	for col := 1; col <= len(tbl.Headers); col++ {
		if skip[col] || tbl.Headers[col-1] == "" {
			continue
		}
		if s.driftCell(tbl.Value(row, col)) != "" {
			return false
		}
	}
	return true
}

func (s *Service) requiredValue(issue DriftIssue, column string) string {
	for i, name := range s.cfg.Drift.RequiredColumns {
		if framework.NormalizeHeader(name) == framework.NormalizeHeader(column) {
			return issue.Values[i]
		}
	}
	return ""
}

func (s *Service) writeDriftReport(result *DriftResult) error {
	path := result.ReportPath
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create drift report: %w", err)
	}
	w := csv.NewWriter(f)
	header := append([]string{"Row"}, s.cfg.Drift.RequiredColumns...)
	header = append(header, "Issues")
	if err := w.Write(header); err != nil {
		f.Close()
		return fmt.Errorf("write drift report: %w", err)
	}
	for _, issue := range result.Issues {
		rec := append([]string{strconv.Itoa(issue.Row)}, issue.Values...)
		rec = append(rec, strings.Join(issue.Problems, "; "))
		if err := w.Write(rec); err != nil {
			f.Close()
			return fmt.Errorf("write drift report: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flush drift report: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close drift report: %w", err)
	}
	return nil
}
