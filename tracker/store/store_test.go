package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"siteclock.com/siteclock/tracker/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestSaveZoneClampsAndDirties(t *testing.T) {
	st := openTestStore(t)

	zone := &model.Zone{ID: "z1", Name: "Tiny", Radius: 30, Status: model.ZoneStatusActive}
	require.NoError(t, st.SaveZone(zone))

	stored, err := st.GetZone("z1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, model.MinZoneRadius, stored.Radius)
	assert.True(t, stored.Dirty())

	require.NoError(t, st.MarkZoneSynced("z1"))
	stored, err = st.GetZone("z1")
	require.NoError(t, err)
	assert.False(t, stored.Dirty())

	// Any further edit dirties the row again.
	stored.Name = "Renamed"
	require.NoError(t, st.SaveZone(stored))
	stored, err = st.GetZone("z1")
	require.NoError(t, err)
	assert.True(t, stored.Dirty())
	assert.Equal(t, "Renamed", stored.Name)
}

func TestActiveZonesExcludesTombstones(t *testing.T) {
	st := openTestStore(t)

	require.NoError(t, st.SaveZone(&model.Zone{ID: "z1", Name: "A", Radius: 150, Status: model.ZoneStatusActive}))
	require.NoError(t, st.SaveZone(&model.Zone{ID: "z2", Name: "B", Radius: 150, Status: model.ZoneStatusActive}))
	require.NoError(t, st.SoftDeleteZone("z2"))

	active, err := st.ActiveZones()
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "z1", active[0].ID)

	z2, err := st.GetZone("z2")
	require.NoError(t, err)
	require.NotNil(t, z2)
	assert.True(t, z2.Tombstone())
}

func TestActiveSessionSingleton(t *testing.T) {
	st := openTestStore(t)

	entered := time.Date(2025, 6, 10, 7, 0, 0, 0, time.Local)
	require.NoError(t, st.SaveActiveSession(&model.ActiveSession{
		WorkerID:  "w1",
		SessionID: "s1",
		ZoneID:    "site",
		EnteredAt: entered,
	}))

	// Saving again replaces, never duplicates.
	require.NoError(t, st.SaveActiveSession(&model.ActiveSession{
		WorkerID:  "w1",
		SessionID: "s2",
		ZoneID:    "depot",
		EnteredAt: entered.Add(time.Hour),
	}))

	loaded, err := st.LoadActiveSession("w1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "s2", loaded.SessionID)
	assert.Equal(t, "depot", loaded.ZoneID)

	require.NoError(t, st.ClearActiveSession("w1"))
	loaded, err = st.LoadActiveSession("w1")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestDaysInRange(t *testing.T) {
	st := openTestStore(t)

	for _, d := range []string{"2025-06-09", "2025-06-10", "2025-06-11", "2025-06-15"} {
		require.NoError(t, st.SaveDay(&model.DayRecord{
			ID: "d-" + d, WorkerID: "w1", Date: d, TotalMinutes: 480,
		}))
	}
	require.NoError(t, st.SoftDeleteDay("d-2025-06-11"))

	days, err := st.DaysInRange("w1", "2025-06-09", "2025-06-14")
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, "2025-06-09", days[0].Date)
	assert.Equal(t, "2025-06-10", days[1].Date)
}
