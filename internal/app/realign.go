package app

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"framealign/framework"
	"framealign/internal/sheet"
)

// RealignResult describes one realign run.
type RealignResult struct {
	Input        string
	Output       string
	Targets      []string
	ReviewSheets []string
	Report       *framework.Report
}

// outputColumns are the 1-based columns the engine writes back to.
type outputColumns struct {
	node, suggested, confidence, top int
}

type loadedSet struct {
	target
	table *sheet.Table
	cols  outputColumns
	set   framework.RecordSet
}

// Realign classifies the epic and ticket sheets of a workbook against the
// taxonomy in its index sheet, writes suggestions back, rebuilds the coverage
// and review sheets and saves the result to output, or to the input name with
// the mapped suffix when output is empty.
func (s *Service) Realign(input, output string) (*RealignResult, error) {
	book, err := sheet.Open(input)
	if err != nil {
		return nil, err
	}
	defer closeBook(book, s.logger)

	labels, err := s.readIndex(book)
	if err != nil {
		return nil, err
	}
	engine, err := framework.NewEngine(labels, s.cfg.Alignment, s.logger)
	if err != nil {
		return nil, fmt.Errorf("load taxonomy from %s: %w", s.cfg.Workbook.IndexSheet, err)
	}

	targets := s.findTargets(book.SheetNames())
	if len(targets) == 0 {
		return nil, &framework.ConfigurationError{
			Reason: fmt.Sprintf("no target sheets found in [%s]", strings.Join(book.SheetNames(), ", ")),
		}
	}
	loaded := make([]loadedSet, 0, len(targets))
	sets := make([]framework.RecordSet, 0, len(targets))
	for _, t := range targets {
		ls, err := s.loadSet(book, t)
		if err != nil {
			return nil, err
		}
		loaded = append(loaded, ls)
		sets = append(sets, ls.set)
	}

	report, err := engine.Align(sets)
	if err != nil {
		return nil, err
	}

	result := &RealignResult{Input: input, Output: output, Report: report}
	for i, setRes := range report.Sets {
		ls := loaded[i]
		if setRes.Err != nil {
			continue
		}
		if err := writeResults(ls, setRes); err != nil {
			return nil, fmt.Errorf("write results to %s: %w", ls.sheet, err)
		}
		if err := writeReviewSheet(book, ls.review, setRes.Review); err != nil {
			return nil, err
		}
		result.Targets = append(result.Targets, ls.sheet)
		result.ReviewSheets = append(result.ReviewSheets, ls.review)
	}
	if err := s.writeCoverageSheet(book, report.Coverage); err != nil {
		return nil, err
	}
	for label, n := range report.Unmapped {
		s.logger.Warn("Assignment is not a framework node", zap.String("label", label), zap.Int("rows", n))
	}

	if result.Output == "" {
		result.Output = OutputPath(input, s.cfg.Workbook.MappedSuffix)
	}
	if err := book.Save(result.Output); err != nil {
		return nil, err
	}
	s.logger.Info("Realigned workbook",
		zap.String("input", input),
		zap.String("output", result.Output),
		zap.Strings("targets", result.Targets),
		zap.Int("nodes", len(report.Nodes)),
	)
	return result, nil
}

// loadSet reads a target sheet, ensures the output columns exist and turns
// the non-blank data rows into records.
func (s *Service) loadSet(book sheet.Workbook, t target) (loadedSet, error) {
	tbl, err := s.readTable(book, t.sheet)
	if err != nil {
		return loadedSet{}, err
	}
	wb := s.cfg.Workbook
	var cols outputColumns
	for _, c := range []struct {
		name string
		dst  *int
	}{
		{wb.NodeColumn, &cols.node},
		{wb.SuggestedColumn, &cols.suggested},
		{wb.ConfidenceColumn, &cols.confidence},
		{wb.TopColumn, &cols.top},
	} {
		col, err := tbl.EnsureColumn(c.name)
		if err != nil {
			return loadedSet{}, fmt.Errorf("sheet %s: %w", t.sheet, err)
		}
		*c.dst = col
	}

	headers := tbl.Columns()
	idCol := 0
	if name, ok := framework.FindColumn(headers, s.cfg.Alignment.IDColumns); ok {
		idCol, _ = tbl.Column(name)
	} else {
		s.logger.Debug("No ID column", zap.String("sheet", t.sheet))
	}

	set := framework.RecordSet{Name: t.sheet, Kind: t.kind, Columns: headers}
	for row := tbl.HeaderRow + 1; row <= tbl.LastRow(); row++ {
		if tbl.RowBlank(row) {
			continue
		}
		rec := framework.Record{
			Row:      row,
			Assigned: tbl.Value(row, cols.node).TextValue(),
			Fields:   tbl.Fields(row),
		}
		if idCol > 0 {
			rec.ID = strings.TrimSpace(tbl.Value(row, idCol).String())
		}
		set.Records = append(set.Records, rec)
	}
	s.logger.Debug("Loaded record set",
		zap.String("sheet", t.sheet),
		zap.Int("header_row", tbl.HeaderRow),
		zap.Int("records", len(set.Records)),
	)
	return loadedSet{target: t, table: tbl, cols: cols, set: set}, nil
}

func writeResults(ls loadedSet, res framework.SetResult) error {
	tbl := ls.table
	for _, r := range res.Results {
		if err := tbl.Set(r.Row, ls.cols.suggested, framework.Text(r.Suggested)); err != nil {
			return err
		}
		if err := tbl.Set(r.Row, ls.cols.confidence, framework.Number(r.Confidence)); err != nil {
			return err
		}
		if err := tbl.Set(r.Row, ls.cols.top, framework.Text(r.TopString())); err != nil {
			return err
		}
		if r.Filled {
			if err := tbl.Set(r.Row, ls.cols.node, framework.Text(r.Final)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Service) writeCoverageSheet(book sheet.Workbook, entries []framework.CoverageEntry) error {
	rows := [][]framework.Value{{
		framework.Text("Framework_Node"),
		framework.Text("Epic_Count"),
		framework.Text("Ticket_Count"),
		framework.Text("Epic_IDs"),
		framework.Text("Ticket_IDs"),
	}}
	for _, e := range entries {
		rows = append(rows, []framework.Value{
			framework.Text(e.Label),
			framework.Number(float64(e.EpicCount)),
			framework.Number(float64(e.TicketCount)),
			framework.Text(strings.Join(e.EpicIDs, ", ")),
			framework.Text(strings.Join(e.TicketIDs, ", ")),
		})
	}
	if err := book.ReplaceSheet(s.cfg.Workbook.CoverageSheet, rows); err != nil {
		return fmt.Errorf("write coverage sheet: %w", err)
	}
	return nil
}

func writeReviewSheet(book sheet.Workbook, name string, entries []framework.ReviewEntry) error {
	rows := [][]framework.Value{{
		framework.Text("Row"),
		framework.Text("Framework_Node"),
		framework.Text("Suggested"),
		framework.Text("Confidence"),
		framework.Text("Top3"),
	}}
	for _, e := range entries {
		rows = append(rows, []framework.Value{
			framework.Number(float64(e.Row)),
			framework.Text(e.Assigned),
			framework.Text(e.Suggested),
			framework.Number(e.Confidence),
			framework.Text(e.Top3),
		})
	}
	if err := book.ReplaceSheet(name, rows); err != nil {
		return fmt.Errorf("write review sheet %s: %w", name, err)
	}
	return nil
}
