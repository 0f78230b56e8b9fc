package framework

import (
	"regexp"
	"strings"
)

var (
	ordinalPrefix = regexp.MustCompile(`^\d{2}_`)
	labelSplit    = regexp.MustCompile(`[_\-/\s]+`)
)

// Tokenize derives the match tokens of a taxonomy label:
// "02_Technology_Advantage" becomes ["technology", "advantage"].
func Tokenize(label string) []string {
	label = ordinalPrefix.ReplaceAllString(strings.TrimSpace(label), "")
	parts := labelSplit.Split(label, -1)
	tokens := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		tok := asciiAlnumLower(part)
		if len(tok) < 3 || isDigits(tok) {
			continue
		}
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		tokens = append(tokens, tok)
	}
	return tokens
}

// LoadTaxonomy tokenizes every label in order. Duplicated labels stay
// distinct nodes.
func LoadTaxonomy(labels []string) ([]TaxonomyNode, error) {
	nodes := make([]TaxonomyNode, 0, len(labels))
	for _, label := range labels {
		label = strings.TrimSpace(label)
		if label == "" {
			continue
		}
		nodes = append(nodes, TaxonomyNode{Label: label, Tokens: Tokenize(label)})
	}
	if len(nodes) == 0 {
		return nil, &ConfigurationError{Reason: "taxonomy has no nodes"}
	}
	return nodes, nil
}

// ParseTaxonomyText splits a plain taxonomy listing on newlines, commas or
// semicolons and drops exact duplicates.
func ParseTaxonomyText(data string) []string {
	data = strings.ReplaceAll(data, "\r\n", "\n")
	fields := strings.FieldsFunc(data, func(r rune) bool {
		return r == '\n' || r == ',' || r == ';'
	})
	out := make([]string, 0, len(fields))
	seen := make(map[string]struct{})
	for _, field := range fields {
		field = strings.TrimSpace(strings.TrimPrefix(field, "\ufeff"))
		if field == "" {
			continue
		}
		if _, ok := seen[field]; ok {
			continue
		}
		seen[field] = struct{}{}
		out = append(out, field)
	}
	return out
}

func asciiAlnumLower(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			b.WriteByte(c)
		case c >= 'A' && c <= 'Z':
			b.WriteByte(c + ('a' - 'A'))
		}
	}
	return b.String()
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
