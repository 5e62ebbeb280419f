package core

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"siteclock.com/siteclock/tracker/model"
)

type fakePositions struct {
	pos *Position
	err error
}

func (f *fakePositions) LastKnownPosition(maxAge time.Duration) (*Position, error) {
	return f.pos, f.err
}

type recordingSink struct {
	transitions []Transition
}

func (r *recordingSink) HandleTransition(t Transition) {
	r.transitions = append(r.transitions, t)
}

func newTestValidator(pos *fakePositions) (*Validator, *recordingSink) {
	cache := NewZoneCache()
	cache.ReplaceAll([]model.Zone{
		{ID: "site", Name: "Test Site", Latitude: 0, Longitude: 0, Radius: 100, Status: model.ZoneStatusActive},
	})

	sink := &recordingSink{}
	v := NewValidator(DefaultConfig(), cache, pos, sink)
	return v, sink
}

func TestValidatorDedup(t *testing.T) {
	v, sink := newTestValidator(&fakePositions{})
	base := time.Now()

	v.OnZoneTransition("site", Enter, base)
	v.OnZoneTransition("site", Enter, base.Add(3*time.Second))
	v.OnZoneTransition("site", Enter, base.Add(9*time.Second))

	assert.Len(t, sink.transitions, 1, "duplicates inside the window must collapse to one")

	// Same pair past the window is a fresh event again.
	v.OnZoneTransition("site", Enter, base.Add(11*time.Second))
	assert.Len(t, sink.transitions, 2)
}

func TestValidatorDedupIsPerDirection(t *testing.T) {
	v, sink := newTestValidator(&fakePositions{})
	base := time.Now()

	v.OnZoneTransition("site", Enter, base)
	v.OnZoneTransition("site", Exit, base.Add(1*time.Second))

	// Exit with no sample is trusted, so both should pass.
	assert.Len(t, sink.transitions, 2)
}

func TestValidatorCrossCheck(t *testing.T) {
	// Zone at the origin with a 100 m radius. 0.0007 deg of latitude is
	// about 78 m from centre, 0.0018 about 200 m.
	tests := []struct {
		name      string
		direction Direction
		pos       *Position
		err       error
		accepted  bool
	}{
		{
			name:      "Entry near centre accepted",
			direction: Enter,
			pos:       &Position{Latitude: 0.0007, Longitude: 0, RecordedAt: time.Now()},
			accepted:  true,
		},
		{
			name:      "Phantom entry past 1.5x radius dropped",
			direction: Enter,
			pos:       &Position{Latitude: 0.0018, Longitude: 0, RecordedAt: time.Now()},
			accepted:  false,
		},
		{
			name:      "Exit bounce still inside radius dropped",
			direction: Exit,
			pos:       &Position{Latitude: 0.0007, Longitude: 0, RecordedAt: time.Now()},
			accepted:  false,
		},
		{
			name:      "Exit clear of the zone accepted",
			direction: Exit,
			pos:       &Position{Latitude: 0.0018, Longitude: 0, RecordedAt: time.Now()},
			accepted:  true,
		},
		{
			name:      "No sample trusts the event",
			direction: Enter,
			pos:       nil,
			accepted:  true,
		},
		{
			name:      "Sampling error trusts the event",
			direction: Enter,
			err:       errors.New("location services unavailable"),
			accepted:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, sink := newTestValidator(&fakePositions{pos: tt.pos, err: tt.err})
			v.OnZoneTransition("site", tt.direction, time.Now())

			if tt.accepted {
				assert.Len(t, sink.transitions, 1)
			} else {
				assert.Empty(t, sink.transitions)
			}
		})
	}
}

func TestValidatorUnknownZoneDropped(t *testing.T) {
	v, sink := newTestValidator(&fakePositions{})
	v.OnZoneTransition("nowhere", Enter, time.Now())
	assert.Empty(t, sink.transitions)
}
