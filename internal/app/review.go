package app

import (
	"fmt"

	"go.uber.org/zap"

	"framealign/framework"
	"framealign/internal/sheet"
)

// RebuildReview regenerates the review sheets from the node, suggestion,
// confidence and top-3 cells already stored in the target sheets, without
// rescoring. Hand edits made since the last realign are honoured. The result
// is saved to output, or back to input when output is empty. It returns the
// number of review rows per review sheet.
func (s *Service) RebuildReview(input, output string) (map[string]int, error) {
	book, err := sheet.Open(input)
	if err != nil {
		return nil, err
	}
	defer closeBook(book, s.logger)

	targets := s.findTargets(book.SheetNames())
	if len(targets) == 0 {
		return nil, &framework.ConfigurationError{Reason: "no target sheets found"}
	}
	wb := s.cfg.Workbook
	counts := make(map[string]int, len(targets))
	for _, t := range targets {
		tbl, err := s.readTable(book, t.sheet)
		if err != nil {
			return nil, err
		}
		nodeCol, _ := tbl.Column(wb.NodeColumn)
		sugCol, _ := tbl.Column(wb.SuggestedColumn)
		confCol, _ := tbl.Column(wb.ConfidenceColumn)
		topCol, _ := tbl.Column(wb.TopColumn)

		var entries []framework.ReviewEntry
		for row := tbl.HeaderRow + 1; row <= tbl.LastRow(); row++ {
			if tbl.RowBlank(row) {
				continue
			}
			res := framework.AlignmentResult{
				Row:        row,
				Final:      tbl.Value(row, nodeCol).TextValue(),
				Suggested:  tbl.Value(row, sugCol).TextValue(),
				Confidence: framework.ParseConfidence(tbl.Value(row, confCol)),
			}
			if !framework.NeedsReview(res, s.cfg.Alignment.MinConfidence) {
				continue
			}
			entries = append(entries, framework.ReviewEntry{
				Row:        row,
				Assigned:   res.Final,
				Suggested:  res.Suggested,
				Confidence: res.Confidence,
				Top3:       tbl.Value(row, topCol).TextValue(),
			})
		}
		if err := writeReviewSheet(book, t.review, entries); err != nil {
			return nil, err
		}
		counts[t.review] = len(entries)
		s.logger.Info("Rebuilt review sheet",
			zap.String("sheet", t.sheet),
			zap.String("review", t.review),
			zap.Int("rows", len(entries)),
		)
	}
	if output == "" {
		output = input
	}
	if err := book.Save(output); err != nil {
		return nil, fmt.Errorf("save %s: %w", output, err)
	}
	return counts, nil
}
