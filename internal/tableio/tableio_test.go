package tableio

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestLoadCSV(t *testing.T) {
	src := "code,descrption,size\nA101,Large Apple,1 KG\nB202,,\nC303,\"Orange, fresh\",CUST REQST\n"

	table, err := LoadCSV(strings.NewReader(src), Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"code", "descrption", "size"}, table.Columns)
	require.Len(t, table.Rows, 3)
	assert.Equal(t, "A101", *table.Rows[0][0])
	assert.Nil(t, table.Rows[1][1], "empty cells load as absent")
	assert.Nil(t, table.Rows[1][2])
	assert.Equal(t, "Orange, fresh", *table.Rows[2][1])
}

func TestLoadCSVStripsBOMAndPadsShortRows(t *testing.T) {
	src := "\xEF\xBB\xBFcode,size\nA1\n"

	table, err := LoadCSV(strings.NewReader(src), Options{Encoding: "utf-8"})
	require.NoError(t, err)

	assert.Equal(t, "code", table.Columns[0])
	require.Len(t, table.Rows[0], 2)
	assert.Nil(t, table.Rows[0][1])
}

func TestLoadCSVWindows1252(t *testing.T) {
	src := []byte("code,brand\nA1,Caf\xe9 Bustelo\n")

	table, err := LoadCSV(bytes.NewReader(src), Options{Encoding: "windows-1252"})
	require.NoError(t, err)
	assert.Equal(t, "Café Bustelo", *table.Rows[0][1])
}

func TestLoadCSVUnsupportedEncoding(t *testing.T) {
	_, err := LoadCSV(strings.NewReader("a\n"), Options{Encoding: "ebcdic"})
	assert.Error(t, err)
}

func TestLoadXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"supermarket_No", "postal-code"},
		{"1", "13417"},
		{"2"},
	}
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, f.SetCellValue(sheet, cell, v))
		}
	}
	buf := bytes.NewBuffer(nil)
	_, err := f.WriteTo(buf)
	require.NoError(t, err)

	table, err := LoadXLSX(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, []string{"supermarket_No", "postal-code"}, table.Columns)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "13417", *table.Rows[0][1])
	assert.Nil(t, table.Rows[1][1])
}

func TestTableRenameAndAddColumn(t *testing.T) {
	v := "x"
	table := &Table{Columns: []string{"code", "amount"}, Rows: [][]*string{{&v, nil}}}

	table.Rename(map[string]string{"code": "item_code", "missing": "ignored"})
	idx := table.AddColumn("item_note")

	assert.Equal(t, []string{"item_code", "amount", "item_note"}, table.Columns)
	assert.Equal(t, 2, idx)
	assert.Len(t, table.Rows[0], 3)
	assert.Equal(t, idx, table.AddColumn("item_note"))

	_, err := table.MustIndex("size")
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestSaveRoundTrip(t *testing.T) {
	a, b := "1", "two, quoted"
	table := &Table{Columns: []string{"id", "label", "note"}, Rows: [][]*string{{&a, &b, nil}}}
	path := filepath.Join(t.TempDir(), "nested", "out.csv")

	require.NoError(t, Save(path, table, Options{BOM: true}))

	loaded, err := Load(path, Options{})
	require.NoError(t, err)
	assert.Equal(t, table.Columns, loaded.Columns)
	assert.Equal(t, "two, quoted", *loaded.Rows[0][1])
	assert.Nil(t, loaded.Rows[0][2])
}

func TestCleanFileName(t *testing.T) {
	assert.Equal(t, "item_clean.csv", CleanFileName("item.csv", "_clean"))
	assert.Equal(t, "sales_v2.xlsx", CleanFileName("data/raw/sales.xlsx", "_v2"))
}
