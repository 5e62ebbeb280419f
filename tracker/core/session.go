package core

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"siteclock.com/siteclock/tracker/model"
	"siteclock.com/siteclock/tracker/store"
	"siteclock.com/siteclock/utils"
)

const (
	timerPendingEntry = "pending_entry"
	timerEndOfDay     = "end_of_day"
)

type timerKey struct {
	zoneID string
	kind   string
}

// session is the in-memory open session. Its durable mirror is the
// active_session singleton row.
type session struct {
	ID        string
	ZoneID    string
	ZoneName  string
	EnteredAt time.Time

	BreakSeconds    int
	CreditedMinutes int
	Verified        bool
}

// completedSession is one finished stretch at a zone, kept in memory
// until the end-of-day watch finalizes the date.
type completedSession struct {
	ZoneID       string
	Date         string
	EnteredAt    time.Time
	ExitedAt     time.Time
	BreakSeconds int
}

func (cs *completedSession) netMinutes() int {
	net := cs.ExitedAt.Sub(cs.EnteredAt) - time.Duration(cs.BreakSeconds)*time.Second
	if net < 0 {
		return 0
	}
	return int(net.Minutes())
}

// Controller is the per-zone session state machine:
// Idle -> PendingEntry -> Active -> (merge window) -> Idle, with an
// end-of-day watch attached to Idle after an exit. It is biased toward
// under-counting session boundaries: the merge window and entry delay
// always win over creating a new session.
type Controller struct {
	cfg        Config
	workerID   string
	store      *store.Store
	cache      *ZoneCache
	ledger     *Ledger
	audit      *AuditTrail
	classifier *Classifier
	positions  PositionProvider

	mu        sync.Mutex
	timers    map[timerKey]*time.Timer
	active    *session
	completed []completedSession

	reconfiguring atomic.Bool
	now           func() time.Time
}

func NewController(cfg Config, workerID string, st *store.Store, cache *ZoneCache, ledger *Ledger, audit *AuditTrail, classifier *Classifier, positions PositionProvider) *Controller {
	return &Controller{
		cfg:        cfg,
		workerID:   workerID,
		store:      st,
		cache:      cache,
		ledger:     ledger,
		audit:      audit,
		classifier: classifier,
		positions:  positions,
		timers:     make(map[timerKey]*time.Timer),
		now:        time.Now,
	}
}

// SetClock overrides the controller clock for tests.
func (c *Controller) SetClock(now func() time.Time) {
	c.now = now
}

// Attach wires the controller to the background host. It is idempotent:
// headless revival calls it again after the process was killed, and it
// re-registers delivery and restores the persisted open session without
// duplicating either.
func (c *Controller) Attach(host TransitionHost, validator *Validator) error {
	if err := host.RegisterZones(c.cache.All()); err != nil {
		return fmt.Errorf("failed to register zone set: %w", err)
	}
	if err := host.Attach(func(t Transition) {
		validator.OnZoneTransition(t.ZoneID, t.Direction, t.Timestamp)
	}); err != nil {
		return fmt.Errorf("failed to attach transition handler: %w", err)
	}

	return c.restoreActiveSession()
}

func (c *Controller) restoreActiveSession() error {
	persisted, err := c.store.LoadActiveSession(c.workerID)
	if err != nil {
		return fmt.Errorf("failed to load active session: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if persisted == nil {
		return nil
	}
	if c.active != nil && c.active.ID == persisted.SessionID {
		return nil
	}
	c.active = &session{
		ID:              persisted.SessionID,
		ZoneID:          persisted.ZoneID,
		ZoneName:        persisted.ZoneName,
		EnteredAt:       persisted.EnteredAt,
		BreakSeconds:    persisted.BreakSeconds,
		CreditedMinutes: persisted.CreditedMinutes,
		Verified:        persisted.Verified,
	}
	fmt.Printf("[INFO] restored open session at %s from %s\n", persisted.ZoneName, persisted.EnteredAt.Format(time.RFC3339))
	return nil
}

// SetReconfiguring suppresses transition delivery for the short window
// while zone definitions are being rewritten downstream.
func (c *Controller) SetReconfiguring(on bool) {
	c.reconfiguring.Store(on)
}

// HandleTransition receives validated transitions from the validator.
func (c *Controller) HandleTransition(t Transition) {
	if c.reconfiguring.Load() {
		fmt.Printf("[INFO] zone set reconfiguring, dropped %s for %s\n", t.Direction, t.ZoneID)
		return
	}

	switch t.Direction {
	case Enter:
		c.handleEnter(t)
	case Exit:
		c.handleExit(t)
	}
}

func (c *Controller) handleEnter(t Transition) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelTimerLocked(timerKey{t.ZoneID, timerEndOfDay})

	if c.active != nil {
		if c.active.ZoneID == t.ZoneID {
			// Already on site, nothing to start.
			return
		}
		// One open session per worker: an enter elsewhere implies the
		// old zone's exit never arrived. Close it at this timestamp.
		fmt.Printf("Warning: enter at %s with open session at %s, closing the old session\n", t.ZoneID, c.active.ZoneID)
		c.finalizeActiveLocked(t.Timestamp)
	}

	if prev := c.lastCompletedLocked(t.ZoneID); prev != nil {
		gap := t.Timestamp.Sub(prev.ExitedAt)
		if gap >= 0 && gap < c.cfg.MergeWindow {
			c.reopenLocked(prev, t.Timestamp, gap)
			return
		}
	}

	if c.cfg.EntryDelay <= 0 {
		c.startSessionLocked(t.ZoneID, t.Timestamp)
		return
	}

	// Walked in; wait before committing to a session so that walking
	// straight back out creates nothing.
	key := timerKey{t.ZoneID, timerPendingEntry}
	c.setTimerLocked(key, c.cfg.EntryDelay, func() {
		c.startSessionLocked(t.ZoneID, t.Timestamp)
	})
}

func (c *Controller) handleExit(t Transition) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancelTimerLocked(timerKey{t.ZoneID, timerPendingEntry}) {
		fmt.Printf("[INFO] pending entry for %s cancelled by exit, no session created\n", t.ZoneID)
		return
	}

	if c.active == nil || c.active.ZoneID != t.ZoneID {
		fmt.Printf("Warning: exit for %s with no matching open session, ignored\n", t.ZoneID)
		return
	}

	c.finalizeActiveLocked(t.Timestamp)

	date := utils.DayOf(t.Timestamp)
	key := timerKey{t.ZoneID, timerEndOfDay}
	c.setTimerLocked(key, c.cfg.EndOfDayWatch, func() {
		c.finalizeDayLocked(date)
	})
}

// reopenLocked silently merges a quick return into the previous
// session: the gap (minus grace) becomes break time, no new session.
func (c *Controller) reopenLocked(prev *completedSession, at time.Time, gap time.Duration) {
	breakTime := gap - c.cfg.MergeGrace
	if breakTime < 0 {
		breakTime = 0
	}

	credited := prev.netMinutes()
	zone, _ := c.cache.Get(prev.ZoneID)

	c.active = &session{
		ID:              uuid.NewString(),
		ZoneID:          prev.ZoneID,
		ZoneName:        zone.Name,
		EnteredAt:       prev.EnteredAt,
		BreakSeconds:    prev.BreakSeconds + int(breakTime.Seconds()),
		CreditedMinutes: credited,
		Verified:        true,
	}
	c.removeCompletedLocked(prev)
	c.persistActiveLocked()

	fmt.Printf("[INFO] merged return to %s after %s, %ds break credited\n", prev.ZoneID, gap, int(breakTime.Seconds()))
}

func (c *Controller) startSessionLocked(zoneID string, at time.Time) {
	zone, _ := c.cache.Get(zoneID)

	c.active = &session{
		ID:        uuid.NewString(),
		ZoneID:    zoneID,
		ZoneName:  zone.Name,
		EnteredAt: at,
		Verified:  true,
	}
	c.persistActiveLocked()

	pos := c.samplePosition()
	c.audit.Record(model.AuditEntry, zoneID, c.active.ID, pos, at)

	if err := c.store.TouchZoneSeen(zoneID); err != nil {
		fmt.Printf("[ERROR] failed to touch zone %s: %v\n", zoneID, err)
	}

	if c.classifier != nil {
		ev := EventContext{Direction: Enter, ZoneID: zoneID, ZoneName: zone.Name, Timestamp: at}
		sessionID := c.active.ID
		go c.classifyEntry(ev, sessionID)
	}

	fmt.Printf("[INFO] session started at %s (%s)\n", zone.Name, at.Format(time.RFC3339))
}

// classifyEntry runs off the event path; its verdict only downgrades
// the session's verified flag and leaves a dispute proof record.
func (c *Controller) classifyEntry(ev EventContext, sessionID string) {
	verdict := c.classifier.Evaluate(context.Background(), ev)
	if verdict.Action == ActionConfirm {
		return
	}

	c.mu.Lock()
	if c.active != nil && c.active.ID == sessionID {
		c.active.Verified = false
		c.persistActiveLocked()
	}
	c.mu.Unlock()

	c.audit.Record(model.AuditDispute, ev.ZoneID, sessionID, nil, ev.Timestamp)
	fmt.Printf("[INFO] entry at %s flagged %s: %s\n", ev.ZoneName, verdict.Action, verdict.Reason)
}

// finalizeActiveLocked freezes the open session at the exit timestamp,
// credits the increment to the day record, and records the exit proof.
func (c *Controller) finalizeActiveLocked(at time.Time) {
	s := c.active
	if s == nil {
		return
	}

	net := at.Sub(s.EnteredAt) - time.Duration(s.BreakSeconds)*time.Second
	if net < 0 {
		net = 0
	}
	minutes := int(net.Minutes())

	increment := minutes - s.CreditedMinutes
	if increment < 0 {
		increment = 0
	}

	date := utils.DayOf(at)
	if _, err := c.ledger.AddMinutes(c.workerID, date, increment, s.ZoneID, s.ZoneName, s.EnteredAt, at, s.Verified); err != nil {
		// Transient store failure: the increment is recoverable from the
		// end-of-day finalization, keep going.
		fmt.Printf("[ERROR] failed to credit %d minutes: %v\n", increment, err)
	}

	c.completed = append(c.completed, completedSession{
		ZoneID:       s.ZoneID,
		Date:         date,
		EnteredAt:    s.EnteredAt,
		ExitedAt:     at,
		BreakSeconds: s.BreakSeconds,
	})

	pos := c.samplePosition()
	c.audit.Record(model.AuditExit, s.ZoneID, s.ID, pos, at)

	c.active = nil
	if err := c.store.ClearActiveSession(c.workerID); err != nil {
		fmt.Printf("[ERROR] failed to clear active session: %v\n", err)
	}

	fmt.Printf("[INFO] session at %s finalized, %d minutes credited\n", s.ZoneName, increment)
}

// finalizeDayLocked runs when an end-of-day watch fires with nothing
// reopened: sum every completed session of the date across all zones,
// trim the configured exit adjustment once, write the ledger. A day
// with a session still open anywhere is left alone; that session's own
// exit re-arms the watch and the whole date finalizes then.
func (c *Controller) finalizeDayLocked(date string) {
	if c.active != nil && utils.DayOf(c.active.EnteredAt) == date {
		return
	}

	var sessions []completedSession
	for _, cs := range c.completed {
		if cs.Date == date {
			sessions = append(sessions, cs)
		}
	}
	if len(sessions) == 0 {
		return
	}

	total := 0
	breaks := 0
	last := sessions[0]
	for _, cs := range sessions {
		total += cs.netMinutes()
		breaks += cs.BreakSeconds / 60
		if cs.ExitedAt.After(last.ExitedAt) {
			last = cs
		}
	}

	// The worker likely walked off site a few minutes before formally
	// being clocked out; trim against the day's last exit only.
	total -= int(c.cfg.ExitAdjustment.Minutes())
	if total < 0 {
		total = 0
	}

	zone, _ := c.cache.Get(last.ZoneID)
	if _, err := c.ledger.FinalizeDay(c.workerID, date, total, breaks, last.ZoneID, zone.Name, last.ExitedAt, true); err != nil {
		fmt.Printf("[ERROR] failed to finalize day %s: %v\n", date, err)
		return
	}

	c.pruneCompletedLocked(date)
	fmt.Printf("[INFO] day %s finalized at %s: %d minutes\n", date, zone.Name, total)
}

// ReplaceZones swaps the zone set atomically for the validator while
// gating transition delivery, then re-registers with the host.
func (c *Controller) ReplaceZones(host TransitionHost, zones []model.Zone) error {
	c.SetReconfiguring(true)
	defer c.SetReconfiguring(false)

	c.cache.ReplaceAll(zones)
	if err := host.RegisterZones(c.cache.All()); err != nil {
		return fmt.Errorf("failed to re-register zone set: %w", err)
	}
	return nil
}

func (c *Controller) samplePosition() *Position {
	if c.positions == nil {
		return nil
	}
	pos, err := c.positions.LastKnownPosition(c.cfg.MaxSampleAge)
	if err != nil {
		return nil
	}
	return pos
}

func (c *Controller) persistActiveLocked() {
	s := c.active
	if s == nil {
		return
	}
	err := c.store.SaveActiveSession(&model.ActiveSession{
		WorkerID:        c.workerID,
		SessionID:       s.ID,
		ZoneID:          s.ZoneID,
		ZoneName:        s.ZoneName,
		EnteredAt:       s.EnteredAt,
		BreakSeconds:    s.BreakSeconds,
		CreditedMinutes: s.CreditedMinutes,
		Verified:        s.Verified,
	})
	if err != nil {
		fmt.Printf("[ERROR] failed to persist active session: %v\n", err)
	}
}

func (c *Controller) lastCompletedLocked(zoneID string) *completedSession {
	var last *completedSession
	for i := range c.completed {
		cs := &c.completed[i]
		if cs.ZoneID != zoneID {
			continue
		}
		if last == nil || cs.ExitedAt.After(last.ExitedAt) {
			last = cs
		}
	}
	return last
}

func (c *Controller) removeCompletedLocked(target *completedSession) {
	for i := range c.completed {
		if &c.completed[i] == target {
			c.completed = append(c.completed[:i], c.completed[i+1:]...)
			return
		}
	}
}

func (c *Controller) pruneCompletedLocked(date string) {
	c.completed = utils.Filter(c.completed, func(cs completedSession) bool {
		return cs.Date != date
	})
}

// setTimerLocked arms a cancellable timer, replacing any existing timer
// with the same key. The fired callback re-checks under the lock that
// it is still the registered timer for its key, so cancellation and
// replacement are race-free with a timer that is mid-fire; fn runs with
// the lock held.
func (c *Controller) setTimerLocked(key timerKey, d time.Duration, fn func()) {
	c.cancelTimerLocked(key)
	var tm *time.Timer
	tm = time.AfterFunc(d, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.timers[key] != tm {
			return // cancelled or replaced while this callback was queued
		}
		delete(c.timers, key)
		fn()
	})
	c.timers[key] = tm
}

// cancelTimerLocked is a best-effort clear, always safe to call
// redundantly.
func (c *Controller) cancelTimerLocked(key timerKey) bool {
	t, ok := c.timers[key]
	if !ok {
		return false
	}
	t.Stop()
	delete(c.timers, key)
	return true
}

// Shutdown stops all armed timers. Pending work is recomputed from the
// durable rows on the next attach.
func (c *Controller) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.timers {
		c.cancelTimerLocked(key)
	}
}
