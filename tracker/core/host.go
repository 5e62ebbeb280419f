package core

import (
	"time"

	"siteclock.com/siteclock/tracker/model"
)

type Direction string

const (
	Enter Direction = "enter"
	Exit  Direction = "exit"
)

// Transition is a raw geofence crossing as reported by the OS location
// subsystem. It has not been validated yet.
type Transition struct {
	ZoneID    string
	Direction Direction
	Timestamp time.Time
}

// Position is an independent location sample with its accuracy radius
// in metres.
type Position struct {
	Latitude   float64
	Longitude  float64
	Accuracy   float64
	RecordedAt time.Time
}

// PositionProvider exposes the most recent fused position sample. A nil
// position with nil error means no sample newer than maxAge exists.
type PositionProvider interface {
	LastKnownPosition(maxAge time.Duration) (*Position, error)
}

// TransitionHost is the OS-level facility that delivers zone transitions,
// including after the process was killed and revived headlessly. Attach
// must be safe to call repeatedly; the host owns retry/backoff on
// delivery failure.
type TransitionHost interface {
	PositionProvider

	Attach(handler func(Transition)) error
	RegisterZones(zones []model.Zone) error
}

// TransitionSink receives validated transitions from the validator.
type TransitionSink interface {
	HandleTransition(t Transition)
}
