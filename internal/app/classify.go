package app

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"framealign/framework"
	"framealign/internal/sheet"
)

// ClassifyResult is the outcome of classifying a standalone CSV file.
type ClassifyResult struct {
	Output string
	Nodes  []framework.TaxonomyNode
	Set    framework.SetResult
}

// LoadTaxonomyFile reads taxonomy labels from a CSV with a node column or
// from a plain list separated by newlines, commas or semicolons.
func (s *Service) LoadTaxonomyFile(path string) ([]string, error) {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open taxonomy file: %w", err)
		}
		defer f.Close()
		return ReadIndexCSV(f, s.cfg.Workbook.NodeColumn)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read taxonomy file: %w", err)
	}
	return framework.ParseTaxonomyText(string(data)), nil
}

// ClassifyCSV aligns the rows of a CSV file against a taxonomy file and
// writes one result line per row to output.
func (s *Service) ClassifyCSV(input, taxonomyPath, output string) (*ClassifyResult, error) {
	labels, err := s.LoadTaxonomyFile(taxonomyPath)
	if err != nil {
		return nil, err
	}
	engine, err := framework.NewEngine(labels, s.cfg.Alignment, s.logger)
	if err != nil {
		return nil, err
	}
	grid, err := sheet.ReadCSVFile(input)
	if err != nil {
		return nil, err
	}
	set := s.gridRecordSet(strings.TrimSuffix(filepath.Base(input), filepath.Ext(input)), grid)
	res, err := engine.AlignSet(set)
	if err != nil {
		return nil, err
	}
	if err := s.writeClassifyCSV(output, res); err != nil {
		return nil, err
	}
	s.logger.Info("Classified file",
		zap.String("input", input),
		zap.String("output", output),
		zap.Int("rows", len(res.Results)),
		zap.Int("filled", res.Filled()),
	)
	return &ClassifyResult{Output: output, Nodes: engine.Nodes(), Set: res}, nil
}

func (s *Service) gridRecordSet(name string, grid [][]framework.Value) framework.RecordSet {
	wb := s.cfg.Workbook
	headerRow := wb.HeaderRow
	if headerRow <= 0 {
		headerRow = framework.LocateHeader(grid, wb.HeaderScanRows, wb.HeaderScanCols)
	}
	var headers []string
	if headerRow <= len(grid) {
		for _, v := range grid[headerRow-1] {
			headers = append(headers, strings.TrimSpace(v.String()))
		}
	}
	colOf := func(name string) int {
		for i, h := range headers {
			if h == name {
				return i
			}
		}
		return -1
	}
	idCol, nodeCol := -1, -1
	if name, ok := framework.FindColumn(headers, s.cfg.Alignment.IDColumns); ok {
		idCol = colOf(name)
	}
	if name, ok := framework.FindColumn(headers, []string{wb.NodeColumn}); ok {
		nodeCol = colOf(name)
	}
	at := func(row []framework.Value, col int) framework.Value {
		if col < 0 || col >= len(row) {
			return framework.Value{}
		}
		return row[col]
	}

	set := framework.RecordSet{Name: name, Kind: framework.KindTicket}
	for _, h := range headers {
		if h != "" {
			set.Columns = append(set.Columns, h)
		}
	}
	for r := headerRow; r < len(grid); r++ {
		row := grid[r]
		fields := make(map[string]framework.Value, len(headers))
		blank := true
		for i, h := range headers {
			v := at(row, i)
			if !v.IsBlank() {
				blank = false
			}
			if _, ok := fields[h]; h != "" && !ok {
				fields[h] = v
			}
		}
		if blank {
			continue
		}
		set.Records = append(set.Records, framework.Record{
			Row:      r + 1,
			ID:       strings.TrimSpace(at(row, idCol).String()),
			Assigned: at(row, nodeCol).TextValue(),
			Fields:   fields,
		})
	}
	return set
}

func (s *Service) writeClassifyCSV(path string, res framework.SetResult) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create result file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"Row", "ID", "Existing", "Suggested", "Confidence", "Top3", "Final", "Review"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range res.Results {
		rec := []string{
			strconv.Itoa(r.Row),
			r.ID,
			r.Existing,
			r.Suggested,
			strconv.FormatFloat(r.Confidence, 'f', 3, 64),
			r.TopString(),
			r.Final,
			strconv.FormatBool(framework.NeedsReview(r, s.cfg.Alignment.MinConfidence)),
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("write row %d: %w", r.Row, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush result: %w", err)
	}
	return nil
}
