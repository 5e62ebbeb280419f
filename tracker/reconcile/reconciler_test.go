package reconcile

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "siteclock.com/siteclock/siteclock/v1"
	"siteclock.com/siteclock/tracker/model"
	"siteclock.com/siteclock/tracker/store"
	"siteclock.com/siteclock/utils"
)

type fakeBackend struct {
	pushes []v1.PushRequest
	pulls  []int64

	pushErr     error
	pullErr     error
	pullResp    *v1.PullResponse
	holdDeletes bool
}

func (f *fakeBackend) Push(req *v1.PushRequest) (*v1.PushAck, error) {
	if f.pushErr != nil {
		return nil, f.pushErr
	}
	f.pushes = append(f.pushes, *req)

	// Durably accept everything the device sent. Deletions are acked
	// separately so a slow server-side purge can be simulated.
	ack := &v1.PushAck{ServerTime: time.Now().Unix()}
	ack.SyncedZoneIDs = utils.Map(req.Zones.Updated, func(z v1.ZoneDTO) string { return z.ID })
	ack.SyncedDayIDs = utils.Map(req.Days.Updated, func(d v1.DayRecordDTO) string { return d.ID })
	ack.SyncedAuditIDs = utils.Map(req.Audit.Created, func(a v1.AuditRecordDTO) string { return a.ID })
	if !f.holdDeletes {
		ack.DeletedZoneIDs = req.Zones.Deleted
		ack.DeletedDayIDs = req.Days.Deleted
	}
	return ack, nil
}

func (f *fakeBackend) Pull(lastPulledAt int64) (*v1.PullResponse, error) {
	if f.pullErr != nil {
		return nil, f.pullErr
	}
	f.pulls = append(f.pulls, lastPulledAt)
	if f.pullResp != nil {
		return f.pullResp, nil
	}
	return &v1.PullResponse{Timestamp: time.Now().Unix()}, nil
}

type fakeAlerter struct {
	messages []string
}

func (f *fakeAlerter) Error(message string) error {
	f.messages = append(f.messages, message)
	return nil
}

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestRunOncePushesDirtyRows(t *testing.T) {
	st := openTestStore(t)
	backend := &fakeBackend{}
	r := NewReconciler(st, backend, "w1", time.Minute)

	require.NoError(t, st.SaveZone(&model.Zone{ID: "z1", Name: "Site", Radius: 150, Status: model.ZoneStatusActive}))
	require.NoError(t, st.SaveDay(&model.DayRecord{ID: "d1", WorkerID: "w1", Date: "2025-06-10", TotalMinutes: 505}))
	require.NoError(t, st.AppendAudit(&model.AuditRecord{ID: "a1", WorkerID: "w1", Kind: model.AuditEntry, RecordedAt: time.Now()}))

	require.NoError(t, r.RunOnce())

	require.Len(t, backend.pushes, 1)
	push := backend.pushes[0]
	assert.Len(t, push.Zones.Updated, 1)
	assert.Len(t, push.Days.Updated, 1)
	assert.Len(t, push.Audit.Created, 1)

	// Everything was acked, nothing is dirty anymore.
	dirtyZones, err := st.DirtyZones()
	require.NoError(t, err)
	assert.Empty(t, dirtyZones)

	dirtyDays, err := st.DirtyDays()
	require.NoError(t, err)
	assert.Empty(t, dirtyDays)

	dirtyAudit, err := st.DirtyAudit()
	require.NoError(t, err)
	assert.Empty(t, dirtyAudit)

	// Nothing dirty: the next cycle pushes nothing.
	require.NoError(t, r.RunOnce())
	assert.Len(t, backend.pushes, 1)
}

func TestRunOncePurgesTombstonesAfterAck(t *testing.T) {
	st := openTestStore(t)
	backend := &fakeBackend{}
	r := NewReconciler(st, backend, "w1", time.Minute)

	require.NoError(t, st.SaveZone(&model.Zone{ID: "z1", Name: "Site", Radius: 150, Status: model.ZoneStatusActive}))
	require.NoError(t, r.RunOnce())

	require.NoError(t, st.SoftDeleteZone("z1"))
	require.NoError(t, r.RunOnce())

	require.Len(t, backend.pushes, 2)
	assert.Equal(t, []string{"z1"}, backend.pushes[1].Zones.Deleted)

	// Acknowledged deletion: the tombstone is gone for good.
	zone, err := st.GetZone("z1")
	require.NoError(t, err)
	assert.Nil(t, zone)
}

func TestPushFailureKeepsRowsDirty(t *testing.T) {
	st := openTestStore(t)
	backend := &fakeBackend{pushErr: errors.New("network down")}
	r := NewReconciler(st, backend, "w1", time.Minute)

	require.NoError(t, st.SaveZone(&model.Zone{ID: "z1", Name: "Site", Radius: 150, Status: model.ZoneStatusActive}))

	require.Error(t, r.RunOnce())

	dirty, err := st.DirtyZones()
	require.NoError(t, err)
	assert.Len(t, dirty, 1, "unacked rows stay dirty for the next cycle")

	// Backend recovers, the same row goes out again.
	backend.pushErr = nil
	require.NoError(t, r.RunOnce())

	dirty, err = st.DirtyZones()
	require.NoError(t, err)
	assert.Empty(t, dirty)
}

func TestRepeatedFailuresRaiseAlert(t *testing.T) {
	st := openTestStore(t)
	backend := &fakeBackend{pullErr: errors.New("backend 500")}
	alerter := &fakeAlerter{}
	r := NewReconciler(st, backend, "w1", time.Minute)
	r.SetAlerter(alerter)

	require.Error(t, r.RunOnce())
	require.Error(t, r.RunOnce())
	assert.Empty(t, alerter.messages)

	require.Error(t, r.RunOnce())
	assert.Len(t, alerter.messages, 1)
}

func TestPullLastWriterWins(t *testing.T) {
	st := openTestStore(t)
	backend := &fakeBackend{}
	r := NewReconciler(st, backend, "w1", time.Minute)

	require.NoError(t, st.SaveZone(&model.Zone{ID: "z1", Name: "Old Name", Radius: 150, Status: model.ZoneStatusActive}))

	local, err := st.GetZone("z1")
	require.NoError(t, err)

	t.Run("Older remote edit is skipped", func(t *testing.T) {
		backend.pullResp = &v1.PullResponse{
			Zones: []v1.ZoneDTO{{
				ID: "z1", Name: "Stale Name", Radius: 150, Status: model.ZoneStatusActive,
				UpdatedAt: local.UpdatedAt.Add(-time.Hour),
			}},
			Timestamp: time.Now().Unix(),
		}
		require.NoError(t, r.RunOnce())

		zone, err := st.GetZone("z1")
		require.NoError(t, err)
		assert.Equal(t, "Old Name", zone.Name)
	})

	t.Run("Newer remote edit is applied", func(t *testing.T) {
		remoteEdit := local.UpdatedAt.Add(time.Hour).Truncate(time.Second)
		backend.pullResp = &v1.PullResponse{
			Zones: []v1.ZoneDTO{{
				ID: "z1", Name: "New Name", Radius: 150, Status: model.ZoneStatusActive,
				UpdatedAt: remoteEdit,
			}},
			Timestamp: time.Now().Unix(),
		}
		require.NoError(t, r.RunOnce())

		zone, err := st.GetZone("z1")
		require.NoError(t, err)
		assert.Equal(t, "New Name", zone.Name)
		assert.NotNil(t, zone.SyncedAt, "remote rows arrive already synced")
		assert.Equal(t, remoteEdit.Unix(), zone.UpdatedAt.Unix(), "remote edit time is preserved for future comparisons")
	})
}

func TestPullLocalTombstoneWins(t *testing.T) {
	st := openTestStore(t)
	backend := &fakeBackend{holdDeletes: true}
	r := NewReconciler(st, backend, "w1", time.Minute)

	require.NoError(t, st.SaveZone(&model.Zone{ID: "z1", Name: "Site", Radius: 150, Status: model.ZoneStatusActive}))
	require.NoError(t, st.SoftDeleteZone("z1"))

	backend.pullResp = &v1.PullResponse{
		Zones: []v1.ZoneDTO{{
			ID: "z1", Name: "Revived Remotely", Radius: 150, Status: model.ZoneStatusActive,
			UpdatedAt: time.Now().Add(time.Hour),
		}},
		Timestamp: time.Now().Unix(),
	}
	require.NoError(t, r.RunOnce())

	// The server has not confirmed the delete yet: the tombstone stays,
	// and the incoming update does not resurrect the row.
	zone, err := st.GetZone("z1")
	require.NoError(t, err)
	require.NotNil(t, zone)
	assert.True(t, zone.Tombstone())
	assert.Equal(t, "Site", zone.Name)
	require.Len(t, backend.pushes, 1)
	assert.Equal(t, []string{"z1"}, backend.pushes[0].Zones.Deleted)
}

func TestPullAppliesRemoteDeletions(t *testing.T) {
	st := openTestStore(t)
	backend := &fakeBackend{}
	r := NewReconciler(st, backend, "w1", time.Minute)

	require.NoError(t, st.SaveZone(&model.Zone{ID: "z1", Name: "Site", Radius: 150, Status: model.ZoneStatusActive}))
	require.NoError(t, r.RunOnce())

	backend.pullResp = &v1.PullResponse{
		DeletedZoneIDs: []string{"z1"},
		Timestamp:      time.Now().Unix(),
	}
	require.NoError(t, r.RunOnce())

	zone, err := st.GetZone("z1")
	require.NoError(t, err)
	require.NotNil(t, zone)
	assert.NotNil(t, zone.DeletedAt)
	assert.NotNil(t, zone.SyncedAt, "a remote deletion is already acknowledged")

	active, err := st.ActiveZones()
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestPullAdvancesCheckpoint(t *testing.T) {
	st := openTestStore(t)
	backend := &fakeBackend{}
	backend.pullResp = &v1.PullResponse{Timestamp: 12345}
	r := NewReconciler(st, backend, "w1", time.Minute)

	require.NoError(t, r.RunOnce())
	require.NoError(t, r.RunOnce())

	require.Len(t, backend.pulls, 2)
	assert.EqualValues(t, 0, backend.pulls[0])
	assert.EqualValues(t, 12345, backend.pulls[1], "the server timestamp is the next checkpoint")
}
