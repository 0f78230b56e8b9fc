package framework

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func result(row int, id, final string) AlignmentResult {
	return AlignmentResult{Row: row, ID: id, Final: final}
}

func TestCoverageEnumeratesEveryNode(t *testing.T) {
	nodes, err := LoadTaxonomy(testTaxonomy)
	require.NoError(t, err)
	sets := []SetResult{
		{Name: "02_Roadmap", Kind: KindEpic, Results: []AlignmentResult{
			result(2, "E-1", "02_Technology_Advantage"),
			result(3, "", "02_Technology_Advantage"),
			result(4, "E-3", ""),
		}},
		{Name: "04_Tickets", Kind: KindTicket, Results: []AlignmentResult{
			result(2, "T-1", "02_Technology_Advantage"),
			result(3, "T-2", "05_Go_To_Market"),
			result(4, "T-3", "99_Legacy_Node"),
		}},
	}
	entries, unmapped := Coverage(nodes, sets, 50)
	require.Len(t, entries, len(nodes))
	for i, n := range nodes {
		assert.Equal(t, n.Label, entries[i].Label)
	}
	assert.Equal(t, CoverageEntry{
		Label:       "02_Technology_Advantage",
		EpicCount:   2,
		TicketCount: 1,
		EpicIDs:     []string{"E-1"},
		TicketIDs:   []string{"T-1"},
	}, entries[1])
	assert.Equal(t, CoverageEntry{Label: "01_Vision_Strategy"}, entries[0])
	assert.Equal(t, 1, entries[3].TicketCount)
	assert.Equal(t, map[string]int{"99_Legacy_Node": 1}, unmapped)

	for _, e := range entries {
		want := 0
		for _, s := range sets {
			for _, r := range s.Results {
				if r.Final == e.Label {
					want++
				}
			}
		}
		assert.Equal(t, want, e.EpicCount+e.TicketCount, e.Label)
	}
}

func TestCoverageCapsIdentifiersNotCounts(t *testing.T) {
	nodes, err := LoadTaxonomy([]string{"03_Data_Platform"})
	require.NoError(t, err)
	var results []AlignmentResult
	for i := 0; i < 75; i++ {
		results = append(results, result(i+2, fmt.Sprintf("T-%02d", i), "03_Data_Platform"))
	}
	entries, _ := Coverage(nodes, []SetResult{{Kind: KindTicket, Results: results}}, 50)
	require.Len(t, entries, 1)
	assert.Equal(t, 75, entries[0].TicketCount)
	require.Len(t, entries[0].TicketIDs, 50)
	assert.Equal(t, "T-00", entries[0].TicketIDs[0])
	assert.Equal(t, "T-49", entries[0].TicketIDs[49])
}

func TestCoverageDuplicateLabelsShareCounts(t *testing.T) {
	nodes, err := LoadTaxonomy([]string{"03_Data_Platform", "03_Data_Platform"})
	require.NoError(t, err)
	entries, _ := Coverage(nodes, []SetResult{{Kind: KindEpic, Results: []AlignmentResult{result(2, "E-1", "03_Data_Platform")}}}, 0)
	require.Len(t, entries, 2)
	assert.Equal(t, entries[0], entries[1])
	assert.Equal(t, 1, entries[0].EpicCount)
}
