package storage

import (
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"posclean/internal"
	"posclean/internal/util"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestUpsertAndListItems(t *testing.T) {
	db := openTestDB(t)

	items := []internal.ItemRecord{
		{Code: util.StringPtr("B2"), Desc: util.StringPtr("Soup"), Size: decimal.NewNullDecimal(decimal.RequireFromString("2.5")), UOM: util.StringPtr("LB")},
		{Code: util.StringPtr("A1"), Desc: util.StringPtr("Apple"), Note: util.StringPtr("CUST REQST")},
		{Desc: util.StringPtr("no code")},
	}
	stored, err := db.UpsertItems("trace-1", items)
	require.NoError(t, err)
	assert.Equal(t, 2, stored)

	stored, err = db.UpsertItems("trace-2", []internal.ItemRecord{{Code: util.StringPtr("A1"), Desc: util.StringPtr("Apple Red")}})
	require.NoError(t, err)
	assert.Equal(t, 1, stored)

	got, err := db.ListItems()
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "A1", *got[0].Code)
	assert.Equal(t, "Apple Red", *got[0].Desc)
	assert.Nil(t, got[0].Note)
	assert.False(t, got[0].Size.Valid)

	assert.Equal(t, "B2", *got[1].Code)
	require.True(t, got[1].Size.Valid)
	assert.True(t, got[1].Size.Decimal.Equal(decimal.RequireFromString("2.5")))
	assert.Equal(t, "LB", *got[1].UOM)
}

func TestArchivesLifecycle(t *testing.T) {
	db := openTestDB(t)

	first, err := db.UpsertArchive("https://example.test/data.zip", "abc", "/tmp/abc.zip", internal.ArchiveFetched)
	require.NoError(t, err)
	again, err := db.UpsertArchive("https://example.test/data.zip", "abc", "/tmp/abc2.zip", internal.ArchiveFetched)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, "/tmp/abc2.zip", again.Path)

	pending, err := db.ListArchivesByStatus(internal.ArchiveFetched, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	require.NoError(t, db.UpdateArchiveStatus(first.ID, internal.ArchiveProcessed))
	row, err := db.GetArchiveByHash("https://example.test/data.zip", "abc")
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, internal.ArchiveProcessed, row.Status)

	missing, err := db.GetArchiveByHash("https://example.test/data.zip", "zzz")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRunsAndMetadata(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.InsertRun(internal.RunRow{
		TraceID: "t1",
		File:    "item.csv",
		Timings: map[string]float64{"totalMs": 12},
		Counts:  map[string]int{"rows": 3, "unparseable": 1},
	}))
	runs, err := db.ListRuns("t1")
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "item.csv", runs[0].File)
	assert.Nil(t, runs[0].ArchiveID)
	assert.Equal(t, 3, runs[0].Counts["rows"])

	value, err := db.GetMetadata("source.last_hash")
	require.NoError(t, err)
	assert.Nil(t, value)

	require.NoError(t, db.SetMetadata("source.last_hash", "abc"))
	require.NoError(t, db.SetMetadata("source.last_hash", "def"))
	value, err = db.GetMetadata("source.last_hash")
	require.NoError(t, err)
	require.NotNil(t, value)
	assert.Equal(t, "def", *value)
}
