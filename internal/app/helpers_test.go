package app

import (
	"testing"

	"github.com/stretchr/testify/require"

	"framealign/framework"
	"framealign/internal/config"
	"framealign/internal/sheet"
)

type sheetData struct {
	name string
	rows [][]string
}

func writeWorkbook(t *testing.T, path string, sheets ...sheetData) {
	t.Helper()
	book, err := sheet.Create(path)
	require.NoError(t, err)
	for _, s := range sheets {
		grid := make([][]framework.Value, len(s.rows))
		for i, row := range s.rows {
			for _, cell := range row {
				grid[i] = append(grid[i], framework.Text(cell))
			}
		}
		require.NoError(t, book.ReplaceSheet(s.name, grid))
	}
	require.NoError(t, book.Save(path))
	require.NoError(t, book.Close())
}

func openRows(t *testing.T, path, name string) [][]framework.Value {
	t.Helper()
	book, err := sheet.Open(path)
	require.NoError(t, err)
	defer book.Close()
	rows, err := book.Rows(name)
	require.NoError(t, err)
	return rows
}

func cell(rows [][]framework.Value, row, col int) framework.Value {
	if row > len(rows) || col > len(rows[row-1]) {
		return framework.Value{}
	}
	return rows[row-1][col-1]
}

func newTestService(t *testing.T, mutate func(*config.Config)) *Service {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(&cfg)
	}
	svc, err := NewService(cfg, nil)
	require.NoError(t, err)
	return svc
}

var indexSheet = sheetData{name: "Framework_Index", rows: [][]string{
	{"Framework_Node"},
	{"01_Vision_Strategy"},
	{"02_Technology_Advantage"},
	{"03_Data_Platform"},
}}

var roadmapSheet = sheetData{name: "02_Roadmap", rows: [][]string{
	{"Epic ID", "Epic Title", "Notes"},
	{"E-1", "Data platform rollout", "warehouse"},
	{"E-2", "Technology advantage program", ""},
}}

var ticketSheet = sheetData{name: "04_Tickets", rows: [][]string{
	{"Ticket ID", "Summary", "Framework_Node"},
	{"T-1", "Vision strategy offsite", ""},
	{"T-2", "", ""},
	{"T-3", "random unrelated chores", "01_Vision_Strategy"},
}}
