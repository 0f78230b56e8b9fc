package framework

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTaxonomy = []string{
	"01_Vision_Strategy",
	"02_Technology_Advantage",
	"03_Data_Platform",
	"05_Go_To_Market",
}

func ticketSet(rows ...Record) RecordSet {
	return RecordSet{
		Name:    "04_Tickets",
		Kind:    KindTicket,
		Columns: []string{"Key", "Summary", "Framework_Node"},
		Records: rows,
	}
}

func ticket(row int, id, summary, assigned string) Record {
	return Record{
		Row:      row,
		ID:       id,
		Assigned: assigned,
		Fields: map[string]Value{
			"Key":            Text(id),
			"Summary":        Text(summary),
			"Framework_Node": Text(assigned),
		},
	}
}

func newTestEngine(t *testing.T, mutate func(*Config)) *Engine {
	t.Helper()
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	eng, err := NewEngine(testTaxonomy, cfg, nil)
	require.NoError(t, err)
	return eng
}

func TestAlignSuggestsBestNode(t *testing.T) {
	eng, err := NewEngine([]string{"02_Technology_Advantage", "05_Go_To_Market"}, DefaultConfig(), nil)
	require.NoError(t, err)
	report, err := eng.Align([]RecordSet{ticketSet(ticket(2, "T-1", "New GPU technology advantage unlocked", ""))})
	require.NoError(t, err)

	res := report.Sets[0].Results[0]
	assert.Equal(t, "02_Technology_Advantage", res.Suggested)
	assert.GreaterOrEqual(t, res.Confidence, 0.7)
	assert.Equal(t, "02_Technology_Advantage", res.Final)
	assert.True(t, res.Filled)
	require.NotEmpty(t, res.Top)
	assert.Equal(t, "02_Technology_Advantage", res.Top[0].Label)
	assert.Contains(t, res.TopString(), "02_Technology_Advantage (")
	assert.Equal(t, []string{"Summary"}, report.Sets[0].TextColumns)
}

func TestAlignTopIsCappedAndSorted(t *testing.T) {
	eng := newTestEngine(t, nil)
	set, err := eng.AlignSet(ticketSet(ticket(2, "T-1", "data platform strategy for the technology market", "")))
	require.NoError(t, err)
	top := set.Results[0].Top
	require.LessOrEqual(t, len(top), DefaultTopN)
	for i := 1; i < len(top); i++ {
		assert.GreaterOrEqual(t, top[i-1].Score, top[i].Score)
	}
	assert.InDelta(t, top[0].Score, set.Results[0].Confidence, 0.0005)
}

func TestRankTiesKeepTaxonomyOrder(t *testing.T) {
	for _, labels := range [][]string{
		{"01_Alpha_Beta", "02_Alpha_Beta"},
		{"02_Alpha_Beta", "01_Alpha_Beta"},
	} {
		eng, err := NewEngine(labels, DefaultConfig(), nil)
		require.NoError(t, err)
		cands := eng.Rank("alpha beta release")
		require.Len(t, cands, 2)
		assert.Equal(t, cands[0].Score, cands[1].Score)
		assert.Equal(t, labels[0], cands[0].Label)
		assert.Equal(t, labels[1], cands[1].Label)
	}
}

func TestFillPolicy(t *testing.T) {
	text := "New GPU technology advantage unlocked"
	cases := []struct {
		name       string
		overwrite  bool
		minConf    float64
		existing   string
		wantFinal  string
		wantFilled bool
	}{
		{"fills blank", false, 0.55, "", "02_Technology_Advantage", true},
		{"preserves existing", false, 0.55, "05_Go_To_Market", "05_Go_To_Market", false},
		{"overwrites existing", true, 0.55, "05_Go_To_Market", "02_Technology_Advantage", true},
		{"below threshold keeps blank", false, 0.999, "", "", false},
		{"below threshold keeps existing on overwrite", true, 0.999, "01_Vision_Strategy", "01_Vision_Strategy", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			eng := newTestEngine(t, func(c *Config) {
				c.Overwrite = tc.overwrite
				c.MinConfidence = tc.minConf
			})
			set, err := eng.AlignSet(ticketSet(ticket(2, "T-1", text, tc.existing)))
			require.NoError(t, err)
			res := set.Results[0]
			assert.Equal(t, "02_Technology_Advantage", res.Suggested)
			assert.Equal(t, tc.wantFinal, res.Final)
			assert.Equal(t, tc.wantFilled, res.Filled)
			assert.Equal(t, tc.existing, res.Existing)
		})
	}
}

func TestAlignZeroThresholdFillsWeakSuggestion(t *testing.T) {
	eng := newTestEngine(t, func(c *Config) { c.MinConfidence = 0 })
	assert.Equal(t, 0.0, eng.Config().MinConfidence)

	set, err := eng.AlignSet(ticketSet(ticket(2, "T-1", "quarterly hiring plan", "")))
	require.NoError(t, err)
	res := set.Results[0]
	require.NotEmpty(t, res.Suggested)
	assert.Greater(t, res.Confidence, 0.0)
	assert.Less(t, res.Confidence, DefaultMinConfidence)
	assert.True(t, res.Filled)
	assert.Equal(t, res.Suggested, res.Final)
	assert.Empty(t, set.Review)

	strict := newTestEngine(t, nil)
	set, err = strict.AlignSet(ticketSet(ticket(2, "T-1", "quarterly hiring plan", "")))
	require.NoError(t, err)
	assert.False(t, set.Results[0].Filled)
}

func TestConfigDefaultsKeepZeroThreshold(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	assert.Equal(t, 0.0, cfg.MinConfidence)
	assert.Equal(t, DefaultMinConfidence, DefaultConfig().MinConfidence)
	assert.Contains(t, cfg.String(), "min_confidence=0.00")
}

func TestAlignEmptyTextPreservesAssignment(t *testing.T) {
	eng := newTestEngine(t, func(c *Config) { c.Overwrite = true })
	rec := ticket(3, "T-9", "", "03_Data_Platform")
	rec.Fields["Summary"] = Number(42)
	set, err := eng.AlignSet(ticketSet(rec))
	require.NoError(t, err)
	res := set.Results[0]
	assert.Equal(t, AlignmentResult{Row: 3, ID: "T-9", Existing: "03_Data_Platform", Final: "03_Data_Platform"}, res)
	assert.Equal(t, "", res.TopString())
}

func TestAlignIsIdempotentWithoutOverwrite(t *testing.T) {
	eng := newTestEngine(t, nil)
	rows := []Record{
		ticket(2, "T-1", "technology advantage for gpu inference", ""),
		ticket(3, "T-2", "go to market launch plan and market sizing", ""),
		ticket(4, "T-3", "misc chores", "01_Vision_Strategy"),
		ticket(5, "T-4", "", ""),
	}
	first, err := eng.AlignSet(ticketSet(rows...))
	require.NoError(t, err)

	again := make([]Record, len(rows))
	for i, rec := range rows {
		rec.Assigned = first.Results[i].Final
		again[i] = rec
	}
	second, err := eng.AlignSet(ticketSet(again...))
	require.NoError(t, err)

	finals := func(s SetResult) []string {
		out := make([]string, len(s.Results))
		for i, r := range s.Results {
			out[i] = r.Final
		}
		return out
	}
	if diff := cmp.Diff(finals(first), finals(second)); diff != "" {
		t.Fatalf("final assignments drifted (-first +second):\n%s", diff)
	}
}

func TestAlignWorkersKeepRowOrder(t *testing.T) {
	rows := make([]Record, 0, 40)
	subjects := []string{"technology advantage", "data platform", "market launch", "vision strategy", ""}
	for i := 0; i < 40; i++ {
		rows = append(rows, ticket(i+2, fmt.Sprintf("T-%d", i), subjects[i%len(subjects)]+fmt.Sprintf(" item %d", i), ""))
	}
	sequential, err := newTestEngine(t, nil).AlignSet(ticketSet(rows...))
	require.NoError(t, err)
	parallel, err := newTestEngine(t, func(c *Config) { c.Workers = 8 }).AlignSet(ticketSet(rows...))
	require.NoError(t, err)
	if diff := cmp.Diff(sequential.Results, parallel.Results); diff != "" {
		t.Fatalf("parallel results differ (-sequential +parallel):\n%s", diff)
	}
}

func TestAlignMissingColumnIsPerSet(t *testing.T) {
	eng := newTestEngine(t, nil)
	broken := RecordSet{Name: "02_Roadmap", Kind: KindEpic, Columns: []string{"Framework_Node"}}
	report, err := eng.Align([]RecordSet{broken, ticketSet(ticket(2, "T-1", "data platform", ""))})
	require.NoError(t, err)
	require.Len(t, report.Sets, 2)

	var missing *MissingColumnError
	require.True(t, errors.As(report.Sets[0].Err, &missing))
	assert.Equal(t, "02_Roadmap", missing.Set)
	assert.NoError(t, report.Sets[1].Err)
	assert.Len(t, report.Coverage, len(testTaxonomy))
}

func TestAlignConfigurationErrors(t *testing.T) {
	_, err := NewEngine(nil, DefaultConfig(), nil)
	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))

	eng := newTestEngine(t, nil)
	_, err = eng.Align(nil)
	require.True(t, errors.As(err, &cfgErr))

	_, err = eng.Align([]RecordSet{{Name: "empty", Columns: []string{"framework_node"}}})
	require.True(t, errors.As(err, &cfgErr))

	_, err = NewEngine(testTaxonomy, Config{MinConfidence: 1.5}, nil)
	require.True(t, errors.As(err, &cfgErr))
}

func TestAlignExplicitTextColumns(t *testing.T) {
	eng := newTestEngine(t, nil)
	set := ticketSet(ticket(2, "technology advantage", "unrelated words", ""))
	set.TextColumns = []string{"Key"}
	res, err := eng.AlignSet(set)
	require.NoError(t, err)
	assert.Equal(t, "02_Technology_Advantage", res.Results[0].Suggested)
}
