package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeRemote struct {
	verdict *Verdict
	err     error
	called  bool
}

func (f *fakeRemote) Classify(ctx context.Context, ev EventContext, profile WorkerProfile) (*Verdict, error) {
	f.called = true
	return f.verdict, f.err
}

// Tuesday 2025-06-10 in the default 06:00-19:00 window.
func entryAt(hour int, day time.Time) EventContext {
	return EventContext{
		Direction: Enter,
		ZoneID:    "site",
		ZoneName:  "Test Site",
		Timestamp: time.Date(day.Year(), day.Month(), day.Day(), hour, 30, 0, 0, time.Local),
	}
}

func TestClassifierScore(t *testing.T) {
	weekday := time.Date(2025, 6, 10, 0, 0, 0, 0, time.Local)
	saturday := time.Date(2025, 6, 14, 0, 0, 0, 0, time.Local)

	c := NewClassifier(DefaultProfile(), nil, 0)

	tests := []struct {
		name       string
		ev         EventContext
		score      float64
		skipRemote bool
	}{
		{
			name:       "Exit always definitive",
			ev:         EventContext{Direction: Exit, Timestamp: time.Date(2025, 6, 10, 2, 0, 0, 0, time.Local)},
			score:      1.0,
			skipRemote: true,
		},
		{
			name:       "Entry in usual hours definitive",
			ev:         entryAt(9, weekday),
			score:      0.9,
			skipRemote: true,
		},
		{
			name:       "Entry at night ambiguous",
			ev:         entryAt(23, weekday),
			score:      0.4,
			skipRemote: false,
		},
		{
			name:       "Weekend entry for a weekday worker ambiguous",
			ev:         entryAt(9, saturday),
			score:      0.3,
			skipRemote: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, skip := c.Score(tt.ev)
			assert.Equal(t, tt.score, score)
			assert.Equal(t, tt.skipRemote, skip)
		})
	}
}

func TestClassifierWeekendWorker(t *testing.T) {
	saturday := time.Date(2025, 6, 14, 0, 0, 0, 0, time.Local)
	profile := WorkerProfile{UsualStartHour: 6, UsualEndHour: 19, WorksWeekends: true}

	c := NewClassifier(profile, nil, 0)
	score, skip := c.Score(entryAt(9, saturday))

	assert.Equal(t, 0.9, score)
	assert.True(t, skip)
}

func TestClassifierEvaluate(t *testing.T) {
	weekday := time.Date(2025, 6, 10, 0, 0, 0, 0, time.Local)
	ambiguous := entryAt(23, weekday)

	t.Run("Definitive local verdict skips remote", func(t *testing.T) {
		remote := &fakeRemote{}
		c := NewClassifier(DefaultProfile(), remote, time.Second)

		verdict := c.Evaluate(context.Background(), entryAt(9, weekday))
		assert.Equal(t, ActionConfirm, verdict.Action)
		assert.False(t, remote.called)
	})

	t.Run("Remote verdict used when valid", func(t *testing.T) {
		remote := &fakeRemote{verdict: &Verdict{Action: ActionReject, Confidence: 0.85, Reason: "seconds-long presence"}}
		c := NewClassifier(DefaultProfile(), remote, time.Second)

		verdict := c.Evaluate(context.Background(), ambiguous)
		assert.True(t, remote.called)
		assert.Equal(t, ActionReject, verdict.Action)
		assert.Equal(t, 0.85, verdict.Confidence)
	})

	t.Run("Remote failure falls back", func(t *testing.T) {
		remote := &fakeRemote{err: errors.New("offline")}
		c := NewClassifier(DefaultProfile(), remote, time.Second)

		verdict := c.Evaluate(context.Background(), ambiguous)
		assert.Equal(t, ActionTentative, verdict.Action)
	})

	t.Run("Malformed remote verdict falls back", func(t *testing.T) {
		remote := &fakeRemote{verdict: &Verdict{Action: "approve", Confidence: 2.5}}
		c := NewClassifier(DefaultProfile(), remote, time.Second)

		verdict := c.Evaluate(context.Background(), ambiguous)
		assert.Equal(t, ActionTentative, verdict.Action)
	})

	t.Run("No remote configured uses local verdict", func(t *testing.T) {
		c := NewClassifier(DefaultProfile(), nil, time.Second)

		verdict := c.Evaluate(context.Background(), ambiguous)
		assert.Equal(t, ActionTentative, verdict.Action)
		assert.Equal(t, 0.4, verdict.Confidence)
	})
}

func TestFallback(t *testing.T) {
	exit := Fallback(EventContext{Direction: Exit})
	assert.Equal(t, ActionConfirm, exit.Action)

	entry := Fallback(EventContext{Direction: Enter})
	assert.Equal(t, ActionTentative, entry.Action)
}
