package sheet

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"framealign/framework"
)

func TestDetectFormat(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]Format{
		"plan.xlsx":    FormatXLSX,
		"plan.XLSM":    FormatXLSX,
		"plan.db":      FormatSQLite,
		"plan.sqlite3": FormatSQLite,
		"plan_export":  FormatCSV,
		dir:            FormatCSV,
	}
	for path, want := range cases {
		got, err := DetectFormat(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}
	_, err := DetectFormat("plan.ods")
	assert.Error(t, err)
}

func TestOpenMissingPath(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCSVWorkbookRoundTrip(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Tickets.csv"),
		[]byte("\ufeffKey,Summary,Points\nT-1, Fix login ,3\nT-2,0012,\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	book, err := Open(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"Tickets"}, book.SheetNames())

	rows, err := book.Rows("Tickets")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, framework.Text("Key"), rows[0][0])
	assert.Equal(t, framework.Text("Fix login"), rows[1][1])
	assert.Equal(t, framework.Number(3), rows[1][2])
	assert.Equal(t, framework.Text("0012"), rows[2][1])
	assert.True(t, rows[2][2].IsBlank())

	require.NoError(t, book.SetCell("Tickets", 3, 5, framework.Text("03_Data_Platform")))
	require.NoError(t, book.ReplaceSheet("Coverage", [][]framework.Value{
		{framework.Text("Framework_Node"), framework.Text("Ticket_Count")},
		{framework.Text("03_Data_Platform"), framework.Number(1)},
	}))

	out := filepath.Join(t.TempDir(), "out")
	require.NoError(t, book.Save(out))
	require.NoError(t, book.Close())

	reopened, err := Open(out)
	require.NoError(t, err)
	assert.Equal(t, []string{"Coverage", "Tickets"}, reopened.SheetNames())
	v, err := reopened.Cell("Tickets", 3, 5)
	require.NoError(t, err)
	assert.Equal(t, "03_Data_Platform", v.TextValue())
	v, err = reopened.Cell("Coverage", 2, 2)
	require.NoError(t, err)
	assert.Equal(t, framework.Number(1), v)
}

func TestSQLiteWorkbookRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.db")
	book, err := Create(path)
	require.NoError(t, err)
	require.NoError(t, book.ReplaceSheet("Framework_Index", [][]framework.Value{
		{framework.Text("Framework_Node")},
		{framework.Text("01_Vision_Strategy")},
	}))
	require.NoError(t, book.ReplaceSheet("04_Tickets", [][]framework.Value{
		{framework.Text("Ticket ID"), framework.Text("Summary"), framework.Text("Estimate")},
		{framework.Text("T-1"), framework.Text("Vision deck"), framework.Number(2.5)},
	}))
	require.NoError(t, book.SetCell("04_Tickets", 2, 4, framework.Text("01_Vision_Strategy")))
	require.NoError(t, book.Save(path))
	require.NoError(t, book.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()
	assert.Equal(t, []string{"Framework_Index", "04_Tickets"}, reopened.SheetNames())

	rows, err := reopened.Rows("04_Tickets")
	require.NoError(t, err)
	want := [][]framework.Value{
		{framework.Text("Ticket ID"), framework.Text("Summary"), framework.Text("Estimate")},
		{framework.Text("T-1"), framework.Text("Vision deck"), framework.Number(2.5), framework.Text("01_Vision_Strategy")},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestXLSXWorkbookRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.xlsx")
	book, err := Create(path)
	require.NoError(t, err)
	assert.Empty(t, book.SheetNames())

	require.NoError(t, book.ReplaceSheet("Framework_Index", [][]framework.Value{
		{framework.Text("Framework_Node")},
		{framework.Text("01_Vision_Strategy")},
		{framework.Text("03_Data_Platform")},
	}))
	require.NoError(t, book.ReplaceSheet("04_Tickets", [][]framework.Value{
		{framework.Text("Ticket ID"), framework.Text("Summary"), framework.Text("Points")},
		{framework.Text("T-1"), framework.Text("Data lake ingestion"), framework.Number(5)},
	}))
	assert.Equal(t, []string{"Framework_Index", "04_Tickets"}, book.SheetNames())

	require.NoError(t, book.SetCell("04_Tickets", 2, 4, framework.Text("03_Data_Platform")))
	require.NoError(t, book.SetCell("04_Tickets", 2, 5, framework.Number(0.876)))
	lister, ok := book.(DropLister)
	require.True(t, ok)
	require.NoError(t, lister.AddDropList("04_Tickets", 4, 2, 5000, "Framework_Index!$A$2:$A$3"))
	require.NoError(t, book.Save(path))
	require.NoError(t, book.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	rows, err := reopened.Rows("04_Tickets")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, framework.Text("Data lake ingestion"), rows[1][1])
	assert.Equal(t, framework.Number(5), rows[1][2])
	assert.Equal(t, framework.Text("03_Data_Platform"), rows[1][3])

	v, err := reopened.Cell("04_Tickets", 2, 5)
	require.NoError(t, err)
	assert.Equal(t, framework.Number(0.876), v)
	v, err = reopened.Cell("04_Tickets", 9, 9)
	require.NoError(t, err)
	assert.True(t, v.IsBlank())
}

func TestXLSXReplaceOnlySheet(t *testing.T) {
	book, err := Create(filepath.Join(t.TempDir(), "one.xlsx"))
	require.NoError(t, err)
	defer book.Close()
	require.NoError(t, book.ReplaceSheet("Framework_Index", [][]framework.Value{{framework.Text("old")}}))
	require.NoError(t, book.ReplaceSheet("Framework_Index", [][]framework.Value{{framework.Text("new")}}))

	assert.Equal(t, []string{"Framework_Index"}, book.SheetNames())
	v, err := book.Cell("Framework_Index", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, "new", v.TextValue())
}

func TestMissingSheet(t *testing.T) {
	book, err := Create(filepath.Join(t.TempDir(), "plan"))
	require.NoError(t, err)
	_, err = book.Rows("Nope")
	assert.True(t, errors.Is(err, ErrSheetNotFound))
	err = book.SetCell("Nope", 1, 1, framework.Text("x"))
	assert.ErrorIs(t, err, ErrSheetNotFound)
	err = book.SetCell("Nope", 0, 1, framework.Text("x"))
	assert.Error(t, err)
}
