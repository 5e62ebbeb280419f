package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"

	v1 "siteclock.com/siteclock/siteclock/v1"
	"siteclock.com/siteclock/tracker/model"
	"siteclock.com/siteclock/tracker/store"
	"siteclock.com/siteclock/utils"
)

// Backend is the remote side of the sync protocol. Implemented by
// v1.SyncEndpoint; tests substitute a fake.
type Backend interface {
	Push(req *v1.PushRequest) (*v1.PushAck, error)
	Pull(lastPulledAt int64) (*v1.PullResponse, error)
}

// Alerter surfaces repeated background failures to ops. Optional.
type Alerter interface {
	Error(message string) error
}

// Reconciler is the bidirectional synchronizer between the local store
// and the backend. Push: every row with a null sync timestamp, marked
// synced only after remote acknowledgment. Pull: last-writer-wins on
// the wall-clock update timestamp, with local tombstones winning until
// their deletion is acknowledged.
type Reconciler struct {
	store    *store.Store
	backend  Backend
	workerID string
	interval time.Duration
	alerts   Alerter

	mu       sync.Mutex // one cycle at a time
	inflight map[string]bool

	lastPulledAt int64
	failures     int
	stop         chan struct{}
	stopOnce     sync.Once
}

func NewReconciler(st *store.Store, backend Backend, workerID string, interval time.Duration) *Reconciler {
	return &Reconciler{
		store:    st,
		backend:  backend,
		workerID: workerID,
		interval: interval,
		inflight: make(map[string]bool),
		stop:     make(chan struct{}),
	}
}

func (r *Reconciler) SetAlerter(a Alerter) {
	r.alerts = a
}

// Start runs periodic cycles until Stop or context cancellation. Errors
// are transient by definition here: rows stay dirty and the next cycle
// retries.
func (r *Reconciler) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stop:
			return
		case <-ticker.C:
			if err := r.RunOnce(); err != nil {
				fmt.Printf("[ERROR] sync cycle failed: %v\n", err)
			}
		}
	}
}

func (r *Reconciler) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
}

// RunOnce pushes dirty rows then pulls remote changes. Safe to call
// on demand; concurrent calls serialize.
func (r *Reconciler) RunOnce() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.push(); err != nil {
		r.noteFailure(err)
		return err
	}
	if err := r.pull(); err != nil {
		r.noteFailure(err)
		return err
	}

	r.failures = 0
	return nil
}

func (r *Reconciler) noteFailure(err error) {
	r.failures++
	if r.failures >= 3 && r.alerts != nil {
		if aerr := r.alerts.Error(fmt.Sprintf("siteclock sync failing for worker %s: %v", r.workerID, err)); aerr != nil {
			fmt.Printf("[ERROR] failed to raise sync alert: %v\n", aerr)
		}
		r.failures = 0
	}
}

func (r *Reconciler) push() error {
	zones, err := r.store.DirtyZones()
	if err != nil {
		return err
	}
	days, err := r.store.DirtyDays()
	if err != nil {
		return err
	}
	audit, err := r.store.DirtyAudit()
	if err != nil {
		return err
	}

	zones = claim(r.inflight, zones, func(z model.Zone) string { return z.ID })
	days = claim(r.inflight, days, func(d model.DayRecord) string { return d.ID })
	audit = claim(r.inflight, audit, func(a model.AuditRecord) string { return a.ID })
	defer r.release(zones, days, audit)

	if len(zones) == 0 && len(days) == 0 && len(audit) == 0 {
		return nil
	}

	req := &v1.PushRequest{LastPulledAt: r.lastPulledAt}

	for _, z := range zones {
		if z.DeletedAt != nil {
			req.Zones.Deleted = append(req.Zones.Deleted, z.ID)
		} else {
			req.Zones.Updated = append(req.Zones.Updated, zoneToDTO(z))
		}
	}
	for _, d := range days {
		if d.DeletedAt != nil {
			req.Days.Deleted = append(req.Days.Deleted, d.ID)
		} else {
			req.Days.Updated = append(req.Days.Updated, dayToDTO(d))
		}
	}
	req.Audit.Created = utils.Map(audit, auditToDTO)

	ack, err := r.backend.Push(req)
	if err != nil {
		return fmt.Errorf("push failed: %w", err)
	}

	for _, id := range ack.SyncedZoneIDs {
		if err := r.store.MarkZoneSynced(id); err != nil {
			fmt.Printf("[ERROR] failed to mark zone %s synced: %v\n", id, err)
		}
	}
	for _, id := range ack.SyncedDayIDs {
		if err := r.store.MarkDaySynced(id); err != nil {
			fmt.Printf("[ERROR] failed to mark day record %s synced: %v\n", id, err)
		}
	}
	for _, id := range ack.SyncedAuditIDs {
		if err := r.store.MarkAuditSynced(id); err != nil {
			fmt.Printf("[ERROR] failed to mark audit record %s synced: %v\n", id, err)
		}
	}

	// Tombstones are purged only after the backend confirms it deleted
	// the row.
	for _, id := range ack.DeletedZoneIDs {
		if err := r.store.PurgeZone(id); err != nil {
			fmt.Printf("[ERROR] failed to purge zone %s: %v\n", id, err)
		}
	}
	for _, id := range ack.DeletedDayIDs {
		if err := r.store.PurgeDay(id); err != nil {
			fmt.Printf("[ERROR] failed to purge day record %s: %v\n", id, err)
		}
	}

	return nil
}

func (r *Reconciler) pull() error {
	resp, err := r.backend.Pull(r.lastPulledAt)
	if err != nil {
		return fmt.Errorf("pull failed: %w", err)
	}

	for _, dto := range resp.Zones {
		if err := r.applyZone(dto); err != nil {
			fmt.Printf("[ERROR] failed to apply remote zone %s: %v\n", dto.ID, err)
		}
	}
	for _, dto := range resp.Days {
		if err := r.applyDay(dto); err != nil {
			fmt.Printf("[ERROR] failed to apply remote day record %s: %v\n", dto.ID, err)
		}
	}

	// Remote-originated deletions are already confirmed on the backend:
	// apply them as synced soft deletes locally.
	now := time.Now()
	for _, id := range resp.DeletedZoneIDs {
		local, err := r.store.GetZone(id)
		if err != nil || local == nil {
			continue
		}
		local.Status = model.ZoneStatusDeleted
		local.DeletedAt = &now
		local.SyncedAt = &now
		if err := r.store.DB.Save(local).Error; err != nil {
			fmt.Printf("[ERROR] failed to apply remote zone deletion %s: %v\n", id, err)
		}
	}
	for _, id := range resp.DeletedDayIDs {
		local, err := r.store.GetDayByID(id)
		if err != nil || local == nil {
			continue
		}
		local.DeletedAt = &now
		local.SyncedAt = &now
		if err := r.store.DB.Save(local).Error; err != nil {
			fmt.Printf("[ERROR] failed to apply remote day deletion %s: %v\n", id, err)
		}
	}

	r.lastPulledAt = resp.Timestamp
	return nil
}

// applyZone upserts an incoming zone unless a local tombstone exists
// (local delete wins until acknowledged) or the local row is at least
// as new (last-writer-wins on wall-clock update time).
func (r *Reconciler) applyZone(dto v1.ZoneDTO) error {
	local, err := r.store.GetZone(dto.ID)
	if err != nil {
		return err
	}
	if local != nil {
		if local.Tombstone() {
			return nil
		}
		if !dto.UpdatedAt.After(local.UpdatedAt) {
			return nil
		}
	}

	zone := zoneFromDTO(dto)
	now := time.Now()
	zone.SyncedAt = &now
	if err := r.store.DB.Save(&zone).Error; err != nil {
		return err
	}
	// Preserve the remote edit time for later last-writer-wins
	// comparisons; Save stamps its own.
	return r.store.DB.Model(&model.Zone{}).
		Where("id = ?", zone.ID).
		UpdateColumn("updated_at", dto.UpdatedAt).Error
}

func (r *Reconciler) applyDay(dto v1.DayRecordDTO) error {
	local, err := r.store.GetDayByID(dto.ID)
	if err != nil {
		return err
	}
	if local != nil {
		if local.Tombstone() {
			return nil
		}
		if !dto.UpdatedAt.After(local.UpdatedAt) {
			return nil
		}
	}

	rec := dayFromDTO(dto)
	now := time.Now()
	rec.SyncedAt = &now
	if err := r.store.DB.Save(&rec).Error; err != nil {
		return err
	}
	return r.store.DB.Model(&model.DayRecord{}).
		Where("id = ?", rec.ID).
		UpdateColumn("updated_at", dto.UpdatedAt).Error
}

// claim filters out rows already being uploaded by another in-flight
// push so the same row is never sent twice concurrently.
func claim[T any](inflight map[string]bool, rows []T, id func(T) string) []T {
	kept := rows[:0]
	for _, row := range rows {
		key := id(row)
		if inflight[key] {
			continue
		}
		inflight[key] = true
		kept = append(kept, row)
	}
	return kept
}

func (r *Reconciler) release(zones []model.Zone, days []model.DayRecord, audit []model.AuditRecord) {
	for _, z := range zones {
		delete(r.inflight, z.ID)
	}
	for _, d := range days {
		delete(r.inflight, d.ID)
	}
	for _, a := range audit {
		delete(r.inflight, a.ID)
	}
}
