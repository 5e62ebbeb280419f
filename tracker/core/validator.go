package core

import (
	"fmt"
	"sync"
	"time"
)

// Validator sits between the background host and the session
// controller. It drops duplicate transitions, cross-checks enters and
// exits against the last independent position sample, and forwards at
// most one validated transition per raw event. Any error while sampling
// position degrades to trusting the OS event: silently dropping a real
// transition is worse than processing a slightly wrong one.
type Validator struct {
	cfg       Config
	cache     *ZoneCache
	positions PositionProvider
	sink      TransitionSink

	mu   sync.Mutex
	seen map[string]time.Time // zoneID|direction -> last accepted timestamp
}

func NewValidator(cfg Config, cache *ZoneCache, positions PositionProvider, sink TransitionSink) *Validator {
	return &Validator{
		cfg:       cfg,
		cache:     cache,
		positions: positions,
		sink:      sink,
		seen:      make(map[string]time.Time),
	}
}

// OnZoneTransition is the delivery entry point registered with the
// background host. It never returns an error: every failure degrades to
// a safe default.
func (v *Validator) OnZoneTransition(zoneID string, direction Direction, timestamp time.Time) {
	t := Transition{ZoneID: zoneID, Direction: direction, Timestamp: timestamp}

	if v.isDuplicate(t) {
		fmt.Printf("[INFO] dropped duplicate %s for zone %s\n", direction, zoneID)
		return
	}

	zone, ok := v.cache.Get(zoneID)
	if !ok {
		fmt.Printf("Warning: transition for unknown zone %s, dropped\n", zoneID)
		return
	}

	if reason := v.crossCheck(t); reason != "" {
		fmt.Printf("[INFO] dropped %s for zone %s: %s\n", direction, zone.Name, reason)
		return
	}

	v.markAccepted(t)
	v.sink.HandleTransition(t)
}

// isDuplicate rejects an identical (zone, direction) pair accepted
// within the dedup window. The rolling map is pruned lazily.
func (v *Validator) isDuplicate(t Transition) bool {
	key := t.ZoneID + "|" + string(t.Direction)

	v.mu.Lock()
	defer v.mu.Unlock()

	if last, ok := v.seen[key]; ok {
		if t.Timestamp.Sub(last) < v.cfg.DedupWindow {
			return true
		}
	}

	for k, at := range v.seen {
		if t.Timestamp.Sub(at) >= v.cfg.DedupWindow {
			delete(v.seen, k)
		}
	}

	return false
}

func (v *Validator) markAccepted(t Transition) {
	key := t.ZoneID + "|" + string(t.Direction)
	v.mu.Lock()
	v.seen[key] = t.Timestamp
	v.mu.Unlock()
}

// crossCheck verifies the transition against the most recent position
// sample. Returns a drop reason, or "" to accept. With no usable
// sample the transition is trusted as-is: the provider already applied
// its own fusion.
func (v *Validator) crossCheck(t Transition) string {
	zone, ok := v.cache.Get(t.ZoneID)
	if !ok {
		return ""
	}

	pos, err := v.positions.LastKnownPosition(v.cfg.MaxSampleAge)
	if err != nil || pos == nil {
		return ""
	}

	dist := DistanceToZone(pos, zone)

	switch t.Direction {
	case Enter:
		if dist > zone.Radius*v.cfg.PhantomMultiplier {
			return fmt.Sprintf("phantom entry, %.0fm from centre (radius %.0fm)", dist, zone.Radius)
		}
	case Exit:
		if dist < zone.Radius*v.cfg.BounceMultiplier {
			return fmt.Sprintf("exit bounce, still %.0fm from centre (radius %.0fm)", dist, zone.Radius)
		}
	}

	return ""
}
