package framework

import (
	"math"
	"strconv"
	"strings"
)

// SelectReview lists the rows of a set that have no final assignment or whose
// confidence is below minConfidence, in row order.
func SelectReview(set SetResult, minConfidence float64) []ReviewEntry {
	var out []ReviewEntry
	for _, res := range set.Results {
		if !NeedsReview(res, minConfidence) {
			continue
		}
		out = append(out, ReviewEntry{
			Row:        res.Row,
			ID:         res.ID,
			Assigned:   res.Final,
			Suggested:  res.Suggested,
			Confidence: res.Confidence,
			Top3:       res.TopString(),
		})
	}
	return out
}

// NeedsReview is the review predicate for one result.
func NeedsReview(res AlignmentResult, minConfidence float64) bool {
	return res.Final == "" || res.Confidence < minConfidence
}

// ParseConfidence reads a previously stored confidence cell. Anything that is
// not a number becomes 0.
func ParseConfidence(v Value) float64 {
	switch v.Kind {
	case KindNumber:
		return v.Number
	case KindText:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Text), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0
		}
		return f
	default:
		return 0
	}
}
