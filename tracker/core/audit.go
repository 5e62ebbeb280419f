package core

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"siteclock.com/siteclock/tracker/model"
	"siteclock.com/siteclock/tracker/store"
)

// AuditTrail appends tamper-evidence records. It is independent of the
// ledger: losing an audit write never blocks time accounting.
type AuditTrail struct {
	store    *store.Store
	workerID string
}

func NewAuditTrail(st *store.Store, workerID string) *AuditTrail {
	return &AuditTrail{store: st, workerID: workerID}
}

// Record appends one proof row. pos may be nil when no recent sample
// was available; the record still documents that the event happened.
func (a *AuditTrail) Record(kind, zoneID, sessionID string, pos *Position, at time.Time) {
	rec := &model.AuditRecord{
		ID:         uuid.NewString(),
		WorkerID:   a.workerID,
		Kind:       kind,
		ZoneID:     zoneID,
		SessionID:  sessionID,
		RecordedAt: at,
	}
	if pos != nil {
		rec.Latitude = pos.Latitude
		rec.Longitude = pos.Longitude
		rec.Accuracy = pos.Accuracy
	}

	if err := a.store.AppendAudit(rec); err != nil {
		// Transient infra failure: log and move on, the proof trail is
		// best effort and must never stall the event path.
		fmt.Printf("[ERROR] failed to append %s audit record: %v\n", kind, err)
	}
}
