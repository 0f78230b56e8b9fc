package framework

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Engine ranks taxonomy nodes against record sets and applies the fill policy.
// The taxonomy is read-only once the engine is built.
type Engine struct {
	cfg    Config
	nodes  []TaxonomyNode
	scorer Scorer
	logger *zap.Logger
}

// NewEngine tokenizes the taxonomy and validates the configuration.
func NewEngine(labels []string, cfg Config, logger *zap.Logger) (*Engine, error) {
	cfg = cfg.Clone()
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	nodes, err := LoadTaxonomy(labels)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		cfg:    cfg,
		nodes:  nodes,
		scorer: cfg.Scorer(),
		logger: logger,
	}, nil
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg.Clone()
}

// Nodes returns the taxonomy in load order.
func (e *Engine) Nodes() []TaxonomyNode {
	out := make([]TaxonomyNode, len(e.nodes))
	copy(out, e.nodes)
	return out
}

// Align classifies every record of every set, then derives coverage and
// review lists from the final assignments.
func (e *Engine) Align(sets []RecordSet) (*Report, error) {
	if len(sets) == 0 {
		return nil, &ConfigurationError{Reason: "no target record sets"}
	}
	report := &Report{
		Nodes: e.Nodes(),
		Sets:  make([]SetResult, 0, len(sets)),
	}
	usable := 0
	for _, set := range sets {
		res, err := e.AlignSet(set)
		if err != nil {
			var missing *MissingColumnError
			if !errors.As(err, &missing) {
				return nil, fmt.Errorf("align %s: %w", set.Name, err)
			}
			e.logger.Warn("Skipping record set", zap.String("set", set.Name), zap.Error(err))
			report.Sets = append(report.Sets, SetResult{Name: set.Name, Kind: set.Kind, Err: err})
			continue
		}
		usable++
		report.Sets = append(report.Sets, res)
	}
	if usable == 0 {
		return nil, &ConfigurationError{Reason: "no usable target record sets"}
	}
	report.Coverage, report.Unmapped = Coverage(e.nodes, report.Sets, e.cfg.CoverageIDCap)
	return report, nil
}

// AlignSet classifies a single record set.
func (e *Engine) AlignSet(set RecordSet) (SetResult, error) {
	cols := set.TextColumns
	if len(cols) == 0 {
		cols = SelectTextColumns(set.Columns, e.cfg)
	}
	if len(cols) == 0 {
		return SetResult{}, &MissingColumnError{Set: set.Name, Column: "free-text"}
	}
	results := make([]AlignmentResult, len(set.Records))
	if e.cfg.Workers > 1 && len(set.Records) > 1 {
		var g errgroup.Group
		g.SetLimit(e.cfg.Workers)
		for i := range set.Records {
			i := i
			g.Go(func() error {
				results[i] = e.alignRecord(set.Records[i], cols)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return SetResult{}, err
		}
	} else {
		for i, rec := range set.Records {
			results[i] = e.alignRecord(rec, cols)
		}
	}
	res := SetResult{
		Name:        set.Name,
		Kind:        set.Kind,
		TextColumns: cols,
		Results:     results,
	}
	res.Review = SelectReview(res, e.cfg.MinConfidence)
	e.logger.Info("Aligned record set",
		zap.String("set", set.Name),
		zap.String("kind", string(set.Kind)),
		zap.Strings("text_columns", cols),
		zap.Int("rows", len(results)),
		zap.Int("filled", res.Filled()),
		zap.Int("review", len(res.Review)),
	)
	return res, nil
}

// Rank scores every node against text and returns the candidates with a
// positive score, best first. Equal scores keep taxonomy order.
func (e *Engine) Rank(text string) []Candidate {
	if text == "" {
		return nil
	}
	cands := make([]Candidate, 0, len(e.nodes))
	for _, node := range e.nodes {
		if sc := e.scorer.Score(node, text); sc > 0 {
			cands = append(cands, Candidate{Label: node.Label, Score: sc})
		}
	}
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].Score > cands[j].Score
	})
	return cands
}

func (e *Engine) alignRecord(rec Record, cols []string) AlignmentResult {
	existing := strings.TrimSpace(rec.Assigned)
	res := AlignmentResult{
		Row:      rec.Row,
		ID:       rec.ID,
		Existing: existing,
		Final:    existing,
	}
	text := ExtractText(rec, cols, e.cfg.MaxTextChars)
	if text == "" {
		return res
	}
	cands := e.Rank(text)
	if len(cands) == 0 {
		return res
	}
	if len(cands) > e.cfg.TopN {
		cands = cands[:e.cfg.TopN]
	}
	top := cands[0]
	res.Top = cands
	res.Suggested = top.Label
	res.Confidence = roundTo(top.Score, 3)
	if (e.cfg.Overwrite || existing == "") && top.Score >= e.cfg.MinConfidence && top.Label != "" {
		res.Final = top.Label
		res.Filled = true
	}
	e.logger.Debug("Aligned row",
		zap.Int("row", rec.Row),
		zap.String("suggested", res.Suggested),
		zap.Float64("confidence", res.Confidence),
		zap.Bool("filled", res.Filled),
	)
	return res
}

// FormatCandidates renders candidates as "label (0.83), label (0.41)".
func FormatCandidates(cands []Candidate) string {
	parts := make([]string, len(cands))
	for i, c := range cands {
		parts[i] = fmt.Sprintf("%s (%.2f)", c.Label, c.Score)
	}
	return strings.Join(parts, ", ")
}

func roundTo(x float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(x*p) / p
}
