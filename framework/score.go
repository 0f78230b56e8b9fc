package framework

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Scorer blends exact token coverage with a fuzzy sequence ratio.
type Scorer struct {
	CoverageWeight float64
	FuzzyWeight    float64
	// FuzzyWindow is how many leading runes of the text the fuzzy ratio sees.
	FuzzyWindow int
}

// Score returns the confidence in [0,1] that text belongs to node.
func (s Scorer) Score(node TaxonomyNode, text string) float64 {
	if text == "" {
		return 0
	}
	return clamp01(s.CoverageWeight*coverageSignal(node.Tokens, text) + s.FuzzyWeight*s.fuzzySignal(node, text))
}

// coverageSignal weighs each token hit by its length so specific words count more.
func coverageSignal(tokens []string, text string) float64 {
	total, hit := 0, 0
	for _, tok := range tokens {
		total += len(tok)
		if strings.Contains(text, tok) {
			hit += len(tok)
		}
	}
	if total == 0 {
		total = 1
	}
	return float64(hit) / float64(total)
}

func (s Scorer) fuzzySignal(node TaxonomyNode, text string) float64 {
	words := strings.Join(node.Tokens, " ")
	if len(node.Tokens) == 0 {
		words = strings.ToLower(node.Label)
	}
	window := s.FuzzyWindow
	if window <= 0 {
		window = DefaultFuzzyWindow
	}
	m := difflib.NewMatcher(splitRunes(words), splitRunes(truncateRunes(text, window)))
	return m.Ratio()
}

func splitRunes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
