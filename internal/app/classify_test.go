package app

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadTaxonomyFile(t *testing.T) {
	dir := t.TempDir()
	svc := newTestService(t, nil)

	txt := filepath.Join(dir, "nodes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("01_Vision_Strategy\n03_Data_Platform; 01_Vision_Strategy\n"), 0o644))
	labels, err := svc.LoadTaxonomyFile(txt)
	require.NoError(t, err)
	assert.Equal(t, []string{"01_Vision_Strategy", "03_Data_Platform"}, labels)

	idx := filepath.Join(dir, "Framework_Index.csv")
	require.NoError(t, os.WriteFile(idx, []byte("Framework_Node\n02_Technology_Advantage\n"), 0o644))
	labels, err = svc.LoadTaxonomyFile(idx)
	require.NoError(t, err)
	assert.Equal(t, []string{"02_Technology_Advantage"}, labels)
}

func TestClassifyCSV(t *testing.T) {
	dir := t.TempDir()
	taxonomy := filepath.Join(dir, "nodes.txt")
	require.NoError(t, os.WriteFile(taxonomy, []byte("01_Vision_Strategy,02_Technology_Advantage,03_Data_Platform"), 0o644))
	input := filepath.Join(dir, "tickets.csv")
	require.NoError(t, os.WriteFile(input, []byte("Ticket ID,Summary,Framework_Node\n"+
		"T-1,Data platform backfill,\n"+
		",,\n"+
		"T-2,Vision strategy review,02_Technology_Advantage\n"), 0o644))
	output := filepath.Join(dir, "out", "result.csv")

	res, err := newTestService(t, nil).ClassifyCSV(input, taxonomy, output)
	require.NoError(t, err)
	assert.Len(t, res.Nodes, 3)
	require.Len(t, res.Set.Results, 2)
	assert.Equal(t, "tickets", res.Set.Name)

	first := res.Set.Results[0]
	assert.Equal(t, 2, first.Row)
	assert.Equal(t, "T-1", first.ID)
	assert.Equal(t, "03_Data_Platform", first.Final)
	assert.True(t, first.Filled)

	second := res.Set.Results[1]
	assert.Equal(t, 4, second.Row)
	assert.Equal(t, "01_Vision_Strategy", second.Suggested)
	assert.Equal(t, "02_Technology_Advantage", second.Final)
	assert.False(t, second.Filled)

	f, err := os.Open(output)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"Row", "ID", "Existing", "Suggested", "Confidence", "Top3", "Final", "Review"}, records[0])
	assert.Equal(t, "03_Data_Platform", records[1][6])
	assert.Equal(t, "false", records[1][7])
}
