package core

import (
	"context"
	"fmt"
	"time"
)

// Classifier actions.
const (
	ActionConfirm   = "confirm"
	ActionTentative = "tentative"
	ActionReject    = "reject"
)

// Verdict is the classification outcome for an ambiguous event.
type Verdict struct {
	Action        string
	Confidence    float64
	Reason        string
	EstimatedTime *time.Time
}

// WorkerProfile is the historical pattern the local scorer compares
// events against.
type WorkerProfile struct {
	UsualStartHour int  `yaml:"usualStartHour"`
	UsualEndHour   int  `yaml:"usualEndHour"`
	WorksWeekends  bool `yaml:"worksWeekends"`
}

func DefaultProfile() WorkerProfile {
	return WorkerProfile{UsualStartHour: 6, UsualEndHour: 19}
}

// EventContext is what the session controller knows about the event
// being classified.
type EventContext struct {
	Direction          Direction
	ZoneID             string
	ZoneName           string
	Timestamp          time.Time
	OpenSessionMinutes int
}

// RemoteClassifier escalates genuinely ambiguous events. Implementations
// must validate their own output; the classifier falls back on any
// error.
type RemoteClassifier interface {
	Classify(ctx context.Context, ev EventContext, profile WorkerProfile) (*Verdict, error)
}

// Classifier scores events locally and escalates only genuinely
// ambiguous entries. The pipeline never stalls on it: offline or failed
// escalation produces a deterministic fallback verdict.
type Classifier struct {
	profile WorkerProfile
	remote  RemoteClassifier
	timeout time.Duration
}

func NewClassifier(profile WorkerProfile, remote RemoteClassifier, timeout time.Duration) *Classifier {
	if timeout <= 0 {
		timeout = DefaultClassifierTimeout
	}
	return &Classifier{profile: profile, remote: remote, timeout: timeout}
}

// Score is the pure local heuristic: score in [0,1] and whether the
// verdict is already definitive. Exits are never escalated: upstream
// validation confirmed them.
func (c *Classifier) Score(ev EventContext) (score float64, skipRemote bool) {
	if ev.Direction == Exit {
		return 1.0, true
	}

	hour := ev.Timestamp.Hour()
	weekday := ev.Timestamp.Weekday()

	if (weekday == time.Saturday || weekday == time.Sunday) && !c.profile.WorksWeekends {
		return 0.3, false
	}
	if hour >= c.profile.UsualStartHour && hour < c.profile.UsualEndHour {
		return 0.9, true
	}

	// Entry at an atypical hour: genuinely ambiguous.
	return 0.4, false
}

// Evaluate returns the definitive verdict for the event, consulting the
// remote classifier only when the local score is ambiguous.
func (c *Classifier) Evaluate(ctx context.Context, ev EventContext) Verdict {
	score, skipRemote := c.Score(ev)
	if skipRemote || c.remote == nil {
		return localVerdict(ev, score)
	}

	rctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	verdict, err := c.remote.Classify(rctx, ev, c.profile)
	if err != nil {
		fmt.Printf("[INFO] remote classification failed, using fallback: %v\n", err)
		return Fallback(ev)
	}
	if !validVerdict(verdict) {
		fmt.Printf("Warning: malformed classifier response discarded\n")
		return Fallback(ev)
	}

	return *verdict
}

// Fallback is the deterministic offline verdict: confirm exits,
// tentatively allow entries.
func Fallback(ev EventContext) Verdict {
	if ev.Direction == Exit {
		return Verdict{Action: ActionConfirm, Confidence: 0.9, Reason: "exit confirmed offline"}
	}
	return Verdict{Action: ActionTentative, Confidence: 0.5, Reason: "entry tentatively allowed offline"}
}

func localVerdict(ev EventContext, score float64) Verdict {
	if score >= 0.5 {
		return Verdict{Action: ActionConfirm, Confidence: score, Reason: "within usual pattern"}
	}
	return Verdict{Action: ActionTentative, Confidence: score, Reason: "outside usual pattern"}
}

func validVerdict(v *Verdict) bool {
	if v == nil {
		return false
	}
	switch v.Action {
	case ActionConfirm, ActionTentative, ActionReject:
	default:
		return false
	}
	return v.Confidence >= 0 && v.Confidence <= 1
}
