package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"framealign/framework"
	"framealign/internal/config"
	"framealign/internal/sheet"
)

// Service runs the batch workbook operations.
type Service struct {
	cfg    config.Config
	logger *zap.Logger
}

// NewService validates cfg and binds it to a logger. A nil logger discards
// output.
func NewService(cfg config.Config, logger *zap.Logger) (*Service, error) {
	cfg.Alignment = cfg.Alignment.Clone()
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug("Service configured", zap.Stringer("alignment", cfg.Alignment))
	return &Service{cfg: cfg, logger: logger}, nil
}

// Config returns the effective configuration.
func (s *Service) Config() config.Config {
	return s.cfg
}

// OutputPath derives "<stem><suffix><ext>" next to input.
func OutputPath(input, suffix string) string {
	ext := filepath.Ext(input)
	if info, err := os.Stat(input); err == nil && info.IsDir() {
		ext = ""
	}
	return strings.TrimSuffix(input, ext) + suffix + ext
}

// NewestWorkbook finds the most recently modified .xlsx below root, skipping
// Excel lock files and names ending in one of the excluded suffixes.
func NewestWorkbook(root string, exclude ...string) (string, error) {
	var (
		best    string
		bestMod int64
	)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if !strings.EqualFold(filepath.Ext(name), ".xlsx") || strings.HasPrefix(name, "~$") {
			return nil
		}
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		for _, suffix := range exclude {
			if suffix != "" && strings.HasSuffix(stem, suffix) {
				return nil
			}
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if mod := info.ModTime().UnixNano(); best == "" || mod > bestMod {
			best, bestMod = path, mod
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("scan for workbooks: %w", err)
	}
	if best == "" {
		return "", fmt.Errorf("no .xlsx workbook found under %s", root)
	}
	return best, nil
}

// target is a sheet chosen for alignment.
type target struct {
	sheet  string
	kind   framework.SetKind
	review string
}

// findTargets picks at most one epic and one ticket sheet: the configured
// name when present, otherwise the first sheet containing a kind keyword,
// trying keywords in order.
func (s *Service) findTargets(names []string) []target {
	wb := s.cfg.Workbook
	reserved := map[string]bool{
		wb.IndexSheet:        true,
		wb.CoverageSheet:     true,
		wb.EpicReviewSheet:   true,
		wb.TicketReviewSheet: true,
	}
	var out []target
	if epic := pickSheet(names, wb.EpicSheet, wb.EpicKeywords, reserved); epic != "" {
		out = append(out, target{sheet: epic, kind: framework.KindEpic, review: wb.EpicReviewSheet})
		reserved[epic] = true
	}
	if ticket := pickSheet(names, wb.TicketSheet, wb.TicketKeywords, reserved); ticket != "" {
		out = append(out, target{sheet: ticket, kind: framework.KindTicket, review: wb.TicketReviewSheet})
	}
	return out
}

func pickSheet(names []string, preferred string, keywords []string, reserved map[string]bool) string {
	for _, name := range names {
		if name == preferred && !reserved[name] {
			return name
		}
	}
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		for _, name := range names {
			if !reserved[name] && strings.Contains(strings.ToLower(name), kw) {
				return name
			}
		}
	}
	return ""
}

func (s *Service) readTable(book sheet.Workbook, name string) (*sheet.Table, error) {
	wb := s.cfg.Workbook
	tbl, err := sheet.ReadTable(book, name, wb.HeaderRow, wb.HeaderScanRows, wb.HeaderScanCols)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", name, err)
	}
	return tbl, nil
}

// readIndex lists the taxonomy labels stored in column A of the index sheet
// below its header.
func (s *Service) readIndex(book sheet.Workbook) ([]string, error) {
	rows, err := book.Rows(s.cfg.Workbook.IndexSheet)
	if err != nil {
		return nil, fmt.Errorf("read framework index: %w", err)
	}
	var labels []string
	for i := 1; i < len(rows); i++ {
		if len(rows[i]) == 0 {
			continue
		}
		if label := rows[i][0].TextValue(); label != "" {
			labels = append(labels, label)
		}
	}
	return labels, nil
}

func closeBook(book sheet.Workbook, logger *zap.Logger) {
	if err := book.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		logger.Warn("Close workbook", zap.Error(err))
	}
}
