package framework

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectReviewInvariant(t *testing.T) {
	results := []AlignmentResult{
		{Row: 2, Final: "02_Technology_Advantage", Suggested: "02_Technology_Advantage", Confidence: 0.91},
		{Row: 3, Final: "", Suggested: "05_Go_To_Market", Confidence: 0.91},
		{Row: 4, Final: "01_Vision_Strategy", Suggested: "01_Vision_Strategy", Confidence: 0.40, Top: []Candidate{{Label: "01_Vision_Strategy", Score: 0.4012}}},
		{Row: 5, Final: "", Confidence: 0},
		{Row: 6, Final: "03_Data_Platform", Confidence: 0.55},
	}
	review := SelectReview(SetResult{Results: results}, 0.55)
	rows := make([]int, len(review))
	for i, r := range review {
		rows[i] = r.Row
	}
	assert.Equal(t, []int{3, 4, 5}, rows)
	assert.Equal(t, "01_Vision_Strategy (0.40)", review[1].Top3)
	assert.Equal(t, "01_Vision_Strategy", review[1].Assigned)

	for _, res := range results {
		assert.Equal(t, res.Final == "" || res.Confidence < 0.55, NeedsReview(res, 0.55), "row %d", res.Row)
	}
}

func TestLowConfidenceRowIsReviewedRegardlessOfOverwrite(t *testing.T) {
	for _, overwrite := range []bool{false, true} {
		eng := newTestEngine(t, func(c *Config) {
			c.Overwrite = overwrite
			c.MinConfidence = 0.55
		})
		set, err := eng.AlignSet(ticketSet(ticket(2, "T-1", "quarterly sync with the vendor", "01_Vision_Strategy")))
		require.NoError(t, err)
		res := set.Results[0]
		require.Less(t, res.Confidence, 0.55)
		require.Len(t, set.Review, 1)
		assert.Equal(t, 2, set.Review[0].Row)
		assert.Equal(t, "01_Vision_Strategy", set.Review[0].Assigned)
	}
}

func TestParseConfidence(t *testing.T) {
	assert.Equal(t, 0.42, ParseConfidence(Number(0.42)))
	assert.Equal(t, 0.5, ParseConfidence(Text(" 0.5 ")))
	assert.Zero(t, ParseConfidence(Text("n/a")))
	assert.Zero(t, ParseConfidence(Text("NaN")))
	assert.Zero(t, ParseConfidence(Value{}))
	assert.False(t, math.IsNaN(ParseConfidence(Text("nan"))))
}
