package core

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"siteclock.com/siteclock/tracker/model"
	"siteclock.com/siteclock/tracker/store"
	"siteclock.com/siteclock/utils"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func countDayRows(t *testing.T, st *store.Store, workerID, date string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, st.DB.Model(&model.DayRecord{}).
		Where("worker_id = ? AND date = ? AND deleted_at IS NULL", workerID, date).
		Count(&n).Error)
	return n
}

func TestLedgerUpsertInsertsThenUpdates(t *testing.T) {
	st := openTestStore(t)
	ledger := NewLedger(st)

	rec, err := ledger.Upsert("w1", "2025-06-10", DayPatch{TotalMinutes: utils.Ptr(480)}, model.SourceAutomatic)
	require.NoError(t, err)
	assert.Equal(t, 480, rec.TotalMinutes)
	assert.Equal(t, model.SourceAutomatic, rec.Source)
	assert.Equal(t, model.KindWork, rec.Kind)

	// A second upsert for the same day must update the same row.
	rec2, err := ledger.Upsert("w1", "2025-06-10", DayPatch{TotalMinutes: utils.Ptr(500)}, model.SourceAutomatic)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, rec2.ID)
	assert.Equal(t, 500, rec2.TotalMinutes)

	assert.EqualValues(t, 1, countDayRows(t, st, "w1", "2025-06-10"))
}

func TestLedgerUpsertResurrectsTombstone(t *testing.T) {
	st := openTestStore(t)
	ledger := NewLedger(st)

	rec, err := ledger.Upsert("w1", "2025-06-10", DayPatch{TotalMinutes: utils.Ptr(480)}, model.SourceAutomatic)
	require.NoError(t, err)

	require.NoError(t, ledger.Delete("w1", "2025-06-10"))
	assert.EqualValues(t, 0, countDayRows(t, st, "w1", "2025-06-10"))

	revived, err := ledger.Upsert("w1", "2025-06-10", DayPatch{TotalMinutes: utils.Ptr(60)}, model.SourceManual)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, revived.ID, "tombstone must be resurrected, not duplicated")
	assert.Nil(t, revived.DeletedAt)
	assert.EqualValues(t, 1, countDayRows(t, st, "w1", "2025-06-10"))
}

func TestLedgerManualPrecedence(t *testing.T) {
	st := openTestStore(t)
	ledger := NewLedger(st)

	_, err := ledger.Upsert("w1", "2025-06-10", DayPatch{
		TotalMinutes: utils.Ptr(300),
		Kind:         utils.Ptr(model.KindSick),
		Note:         utils.Ptr("went home at lunch"),
	}, model.SourceManual)
	require.NoError(t, err)

	// The GPS pipeline keeps reporting; it may not clobber the edit.
	rec, err := ledger.Upsert("w1", "2025-06-10", DayPatch{
		TotalMinutes: utils.Ptr(510),
		Kind:         utils.Ptr(model.KindWork),
		LastExit:     utils.Ptr(time.Now()),
	}, model.SourceAutomatic)
	require.NoError(t, err)

	assert.Equal(t, 300, rec.TotalMinutes)
	assert.Equal(t, model.KindSick, rec.Kind)
	assert.Equal(t, "went home at lunch", rec.Note)
	assert.Equal(t, model.SourceManual, rec.Source)
	assert.NotNil(t, rec.LastExit, "departure bookkeeping is still allowed")
}

func TestLedgerFinalizeDaySkipsEditedRow(t *testing.T) {
	st := openTestStore(t)
	ledger := NewLedger(st)

	_, err := ledger.Upsert("w1", "2025-06-10", DayPatch{TotalMinutes: utils.Ptr(240)}, model.SourceCorrected)
	require.NoError(t, err)

	rec, err := ledger.FinalizeDay("w1", "2025-06-10", 505, 9, "site", "Test Site", time.Now(), true)
	require.NoError(t, err)
	assert.Equal(t, 240, rec.TotalMinutes)
	assert.Equal(t, model.SourceCorrected, rec.Source)
}

func TestLedgerAddMinutes(t *testing.T) {
	st := openTestStore(t)
	ledger := NewLedger(st)

	entry := time.Date(2025, 6, 10, 7, 0, 0, 0, time.Local)
	exit1 := entry.Add(4 * time.Hour)
	exit2 := entry.Add(9 * time.Hour)

	rec, err := ledger.AddMinutes("w1", "2025-06-10", 240, "site", "Test Site", entry, exit1, true)
	require.NoError(t, err)
	assert.Equal(t, 240, rec.TotalMinutes)
	assert.True(t, rec.Verified)
	require.NotNil(t, rec.FirstEntry)

	rec, err = ledger.AddMinutes("w1", "2025-06-10", 270, "site", "Test Site", exit1, exit2, false)
	require.NoError(t, err)
	assert.Equal(t, 510, rec.TotalMinutes, "increments accumulate")
	assert.Equal(t, exit2.Unix(), rec.LastExit.Unix())
	assert.Equal(t, entry.Unix(), rec.FirstEntry.Unix(), "first entry is kept")
	assert.False(t, rec.Verified, "verified only ever downgrades")

	// Negative increments are refused, the total is monotonic.
	rec, err = ledger.AddMinutes("w1", "2025-06-10", -30, "site", "Test Site", entry, exit2, true)
	require.NoError(t, err)
	assert.Equal(t, 510, rec.TotalMinutes)
	assert.False(t, rec.Verified)

	assert.EqualValues(t, 1, countDayRows(t, st, "w1", "2025-06-10"))
}

func TestLedgerDeleteMarksDirtyTombstone(t *testing.T) {
	st := openTestStore(t)
	ledger := NewLedger(st)

	rec, err := ledger.Upsert("w1", "2025-06-10", DayPatch{TotalMinutes: utils.Ptr(480)}, model.SourceAutomatic)
	require.NoError(t, err)
	require.NoError(t, st.MarkDaySynced(rec.ID))

	require.NoError(t, ledger.Delete("w1", "2025-06-10"))

	stored, err := st.GetDayByID(rec.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.True(t, stored.Tombstone(), "deleted row must be dirty again for the next push")
}
