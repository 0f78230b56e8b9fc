package framework

import "strings"

// SelectTextColumns picks the free-text columns of a record set. Headers
// mentioning one of the text keywords win; otherwise every header is used.
// Columns carrying the engine's own output marker are never selected.
func SelectTextColumns(headers []string, cfg Config) []string {
	marker := strings.ToLower(cfg.OutputMarker)
	var picked, fallback []string
	seen := make(map[string]struct{}, len(headers))
	for _, h := range headers {
		key := NormalizeHeader(h)
		if key == "" {
			continue
		}
		if marker != "" && strings.Contains(key, marker) {
			continue
		}
		if _, dup := seen[h]; dup {
			continue
		}
		seen[h] = struct{}{}
		fallback = append(fallback, h)
		if containsAny(key, cfg.TextKeywords) {
			picked = append(picked, h)
		}
	}
	if len(picked) > 0 {
		return picked
	}
	return fallback
}

// FindColumn returns the first header whose normalised name equals one of
// the candidates, trying candidates in order.
func FindColumn(headers []string, candidates []string) (string, bool) {
	index := make(map[string]string, len(headers))
	for _, h := range headers {
		key := NormalizeHeader(h)
		if _, ok := index[key]; !ok && key != "" {
			index[key] = h
		}
	}
	for _, cand := range candidates {
		if h, ok := index[NormalizeHeader(cand)]; ok {
			return h, true
		}
	}
	return "", false
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" && strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
