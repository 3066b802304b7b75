package writers

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/DataBridgeTech/dbqguard"
)

func violationsTable() *dbqguard.Table {
	return dbqguard.NewTableFromRows([]string{"id", "amount", "status"}, []dbqguard.Row{
		{"id": 1, "amount": 1.5, "status": "new"},
		{"id": 2, "amount": nil, "status": "void"},
	})
}

func TestNew(t *testing.T) {
	tests := []struct {
		fileType  dbqguard.FileType
		extension string
	}{
		{dbqguard.FileTypeCSV, "csv"},
		{dbqguard.FileTypeXLSX, "xlsx"},
		{dbqguard.FileTypePickle, "pkl"},
		{dbqguard.FileTypeText, "txt"},
		{"TXT", "txt"},
	}

	for _, tt := range tests {
		w, err := New(tt.fileType)
		require.NoError(t, err)
		assert.Equal(t, tt.extension, w.Extension())
		assert.Equal(t, "dir/log."+tt.extension, FileName(w, "dir/log"))
	}

	_, err := New("parquet")
	assert.ErrorIs(t, err, dbqguard.ErrConfiguration)
}

func TestCSVWriter(t *testing.T) {
	base := filepath.Join(t.TempDir(), "log")
	require.NoError(t, (&CSVWriter{}).Write(violationsTable(), base))

	f, err := os.Open(base + ".csv")
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"id", "amount", "status"},
		{"1", "1.5", "new"},
		{"2", "", "void"},
	}, records)
}

func TestCSVWriterOverwrites(t *testing.T) {
	base := filepath.Join(t.TempDir(), "rule")
	w := &CSVWriter{}

	require.NoError(t, w.Write(violationsTable(), base))
	require.NoError(t, w.Write(violationsTable().Subset([]int{1}), base))

	data, err := os.ReadFile(base + ".csv")
	require.NoError(t, err)
	assert.Equal(t, "id,amount,status\n2,,void\n", string(data))
}

func TestXLSXWriter(t *testing.T) {
	base := filepath.Join(t.TempDir(), "log")
	require.NoError(t, (&XLSXWriter{SheetName: "violations"}).Write(violationsTable(), base))

	f, err := excelize.OpenFile(base + ".xlsx")
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("violations")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"id", "amount", "status"}, rows[0])
	assert.Equal(t, []string{"1", "1.5", "new"}, rows[1])
	assert.Equal(t, []string{"2", "", "void"}, rows[2])
}

func TestBinaryTableRoundTrip(t *testing.T) {
	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	table := dbqguard.NewTableFromRows([]string{"id", "amount", "ok", "at", "note"}, []dbqguard.Row{
		{"id": 1, "amount": 2.5, "ok": true, "at": created, "note": "x"},
		{"id": uint16(2), "amount": nil, "ok": false, "at": created, "note": nil},
	})

	base := filepath.Join(t.TempDir(), "log")
	require.NoError(t, (&BinaryTableWriter{}).Write(table, base))

	f, err := os.Open(base + ".pkl")
	require.NoError(t, err)
	defer f.Close()

	restored, err := ReadBinaryTable(f)
	require.NoError(t, err)

	assert.Equal(t, table.Columns(), restored.Columns())
	require.Equal(t, 2, restored.Len())

	first := restored.Row(0)
	assert.Equal(t, int64(1), first["id"])
	assert.Equal(t, 2.5, first["amount"])
	assert.Equal(t, true, first["ok"])
	assert.True(t, created.Equal(first["at"].(time.Time)))
	assert.Equal(t, "x", first["note"])

	second := restored.Row(1)
	assert.Equal(t, int64(2), second["id"])
	assert.Nil(t, second["amount"])
	assert.Nil(t, second["note"])
}

func TestReadBinaryTableRejectsGarbage(t *testing.T) {
	_, err := ReadBinaryTable(bytes.NewReader([]byte("not a table")))
	assert.Error(t, err)
}

func TestTextWriter(t *testing.T) {
	base := filepath.Join(t.TempDir(), "log")
	require.NoError(t, (&TextWriter{}).Write(violationsTable(), base))

	data, err := os.ReadFile(base + ".txt")
	require.NoError(t, err)
	text := string(data)

	assert.True(t, strings.HasSuffix(text, "\n\n"), "text dump ends with a blank line")

	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"id", "amount", "status"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"0", "1", "1.5", "new"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"1", "2", "NaN", "void"}, strings.Fields(lines[2]))
}
