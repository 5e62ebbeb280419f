package core

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"siteclock.com/siteclock/tracker/model"
	"siteclock.com/siteclock/tracker/store"
)

// Ledger owns the single authoritative record per (worker, date). All
// writes go through it so the one-live-row invariant and provenance
// precedence hold no matter which pipeline (GPS, manual edit, voice
// correction) is writing.
type Ledger struct {
	store *store.Store
	now   func() time.Time
}

func NewLedger(st *store.Store) *Ledger {
	return &Ledger{store: st, now: time.Now}
}

// DayPatch carries only the fields a caller explicitly wants to write.
// Nil fields are left untouched.
type DayPatch struct {
	TotalMinutes *int
	BreakMinutes *int
	ZoneID       *string
	ZoneName     *string
	FirstEntry   *time.Time
	LastExit     *time.Time
	Verified     *bool
	Kind         *string
	Note         *string
}

// Upsert inserts, resurrects, or updates the record for (worker, date).
// An automatic write against a row a human or assistant has edited may
// not change provenance and may not overwrite the value fields the edit
// owns (totals, breaks, kind, note, zone); it is limited to arrival and
// departure bookkeeping.
func (l *Ledger) Upsert(workerID, date string, patch DayPatch, source string) (*model.DayRecord, error) {
	rec, err := l.store.GetDayAny(workerID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load day record: %w", err)
	}

	if rec == nil {
		rec = &model.DayRecord{
			ID:       uuid.NewString(),
			WorkerID: workerID,
			Date:     date,
			Source:   source,
			Kind:     model.KindWork,
		}
	} else if rec.DeletedAt != nil {
		// Resurrect the tombstone rather than insert a second row.
		rec.DeletedAt = nil
		rec.Source = source
	} else if rec.Edited() && source == model.SourceAutomatic {
		patch.TotalMinutes = nil
		patch.BreakMinutes = nil
		patch.ZoneID = nil
		patch.ZoneName = nil
		patch.Kind = nil
		patch.Note = nil
	}

	if source != model.SourceAutomatic {
		rec.Source = source
	}

	applyPatch(rec, patch)

	if err := l.store.SaveDay(rec); err != nil {
		return nil, fmt.Errorf("failed to save day record: %w", err)
	}
	return rec, nil
}

// AddMinutes credits minutes from a finished session and refreshes the
// departure bookkeeping without clobbering anything else. The session
// controller calls this on every exit.
func (l *Ledger) AddMinutes(workerID, date string, minutes int, zoneID, zoneName string, firstEntry, lastExit time.Time, verified bool) (*model.DayRecord, error) {
	if minutes < 0 {
		minutes = 0
	}

	rec, err := l.store.GetDayAny(workerID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load day record: %w", err)
	}

	if rec == nil {
		rec = &model.DayRecord{
			ID:         uuid.NewString(),
			WorkerID:   workerID,
			Date:       date,
			Source:     model.SourceAutomatic,
			Kind:       model.KindWork,
			ZoneID:     zoneID,
			ZoneName:   zoneName,
			FirstEntry: &firstEntry,
			Verified:   verified,
		}
	}
	if rec.DeletedAt != nil {
		rec.DeletedAt = nil
	}

	rec.TotalMinutes += minutes
	rec.LastExit = &lastExit
	if rec.FirstEntry == nil {
		rec.FirstEntry = &firstEntry
	}
	if rec.ZoneID == "" {
		rec.ZoneID = zoneID
		rec.ZoneName = zoneName
	}
	if !verified {
		rec.Verified = false
	}

	if err := l.store.SaveDay(rec); err != nil {
		return nil, fmt.Errorf("failed to save day record: %w", err)
	}
	return rec, nil
}

// FinalizeDay writes the end-of-day totals computed by the session
// controller. A day a human has already corrected is left alone.
func (l *Ledger) FinalizeDay(workerID, date string, totalMinutes, breakMinutes int, zoneID, zoneName string, lastExit time.Time, verified bool) (*model.DayRecord, error) {
	rec, err := l.store.GetDay(workerID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load day record: %w", err)
	}
	if rec != nil && rec.Edited() {
		fmt.Printf("[INFO] day %s/%s was edited by hand, skipping automatic finalization\n", workerID, date)
		return rec, nil
	}

	return l.Upsert(workerID, date, DayPatch{
		TotalMinutes: &totalMinutes,
		BreakMinutes: &breakMinutes,
		ZoneID:       &zoneID,
		ZoneName:     &zoneName,
		LastExit:     &lastExit,
		Verified:     &verified,
	}, model.SourceAutomatic)
}

// Delete tombstones the record; the sync reconciler purges it after the
// backend acknowledges the deletion.
func (l *Ledger) Delete(workerID, date string) error {
	rec, err := l.store.GetDay(workerID, date)
	if err != nil {
		return fmt.Errorf("failed to load day record: %w", err)
	}
	if rec == nil {
		return nil
	}
	return l.store.SoftDeleteDay(rec.ID)
}

func applyPatch(rec *model.DayRecord, patch DayPatch) {
	if patch.TotalMinutes != nil {
		rec.TotalMinutes = *patch.TotalMinutes
	}
	if patch.BreakMinutes != nil {
		rec.BreakMinutes = *patch.BreakMinutes
	}
	if patch.ZoneID != nil {
		rec.ZoneID = *patch.ZoneID
	}
	if patch.ZoneName != nil {
		rec.ZoneName = *patch.ZoneName
	}
	if patch.FirstEntry != nil {
		rec.FirstEntry = patch.FirstEntry
	}
	if patch.LastExit != nil {
		rec.LastExit = patch.LastExit
	}
	if patch.Verified != nil {
		rec.Verified = *patch.Verified
	}
	if patch.Kind != nil {
		rec.Kind = *patch.Kind
	}
	if patch.Note != nil {
		rec.Note = *patch.Note
	}
}
