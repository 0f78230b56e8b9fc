package framework

import "strings"

// ExtractText builds the lowercased text blob scored for a record. Only
// non-empty text cells of the given columns contribute; numbers, dates and
// blanks are skipped.
func ExtractText(rec Record, columns []string, maxChars int) string {
	if maxChars <= 0 {
		maxChars = DefaultMaxTextChars
	}
	parts := make([]string, 0, len(columns))
	for _, col := range columns {
		if v := rec.Fields[col].TextValue(); v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return truncateRunes(NormalizeText(strings.Join(parts, DefaultTextSeparator)), maxChars)
}
