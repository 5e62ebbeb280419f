package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"google.golang.org/genai"

	"siteclock.com/siteclock/tracker/core"
)

// Deterministic generation config: classification must be repeatable,
// not creative.
var classifyModel = googlegenai.GoogleAIModelRef("gemini-2.5-flash", &genai.GenerateContentConfig{
	MaxOutputTokens: 200,
	Temperature:     genai.Ptr[float32](0.0),
	TopP:            genai.Ptr[float32](0.4),
	TopK:            genai.Ptr[float32](1),
	ThinkingConfig: &genai.ThinkingConfig{
		ThinkingBudget: genai.Ptr[int32](0),
	},
})

const systemPrompt = `
You classify geofence entry events for a worker time-tracking app.
You receive one JSON event describing a zone entry at an hour that is
unusual for this worker, plus the worker's usual working pattern.

Decide whether the entry is a real start of work.

Respond with ONLY a JSON object, no prose, no code fences:
{"action": "confirm"|"tentative"|"reject", "confidence": 0.0-1.0, "reason": "short explanation", "estimatedTime": "15:04" (optional, corrected start time)}

Guidelines:
1. "confirm" when the entry plausibly starts a real work stretch.
2. "tentative" when unsure; the app will keep the session but mark the day unverified.
3. "reject" only when the entry is clearly spurious (e.g. seconds-long presence in the middle of the night).
4. Never invent times outside the event's own date.
`

type eventPayload struct {
	Direction          string `json:"direction"`
	ZoneName           string `json:"zoneName"`
	LocalTime          string `json:"localTime"`
	Weekday            string `json:"weekday"`
	OpenSessionMinutes int    `json:"openSessionMinutes"`
	UsualStartHour     int    `json:"usualStartHour"`
	UsualEndHour       int    `json:"usualEndHour"`
	WorksWeekends      bool   `json:"worksWeekends"`
}

type verdictPayload struct {
	Action        string  `json:"action"`
	Confidence    float64 `json:"confidence"`
	Reason        string  `json:"reason"`
	EstimatedTime string  `json:"estimatedTime,omitempty"`
}

// Client escalates ambiguous entries to the hosted model. It satisfies
// core.RemoteClassifier.
type Client struct {
	g *genkit.Genkit
}

// New initializes genkit with the Google AI plugin; the API key comes
// from the GEMINI_API_KEY or GOOGLE_API_KEY environment variable.
func New(ctx context.Context) *Client {
	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
	return &Client{g: g}
}

func (c *Client) Classify(ctx context.Context, ev core.EventContext, profile core.WorkerProfile) (*core.Verdict, error) {
	payload := eventPayload{
		Direction:          string(ev.Direction),
		ZoneName:           ev.ZoneName,
		LocalTime:          ev.Timestamp.Format("2006-01-02 15:04"),
		Weekday:            ev.Timestamp.Weekday().String(),
		OpenSessionMinutes: ev.OpenSessionMinutes,
		UsualStartHour:     profile.UsualStartHour,
		UsualEndHour:       profile.UsualEndHour,
		WorksWeekends:      profile.WorksWeekends,
	}
	prompt, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	resp, err := genkit.Generate(ctx, c.g,
		ai.WithModel(classifyModel),
		ai.WithSystem(systemPrompt),
		ai.WithPrompt(string(prompt)))
	if err != nil {
		return nil, fmt.Errorf("classifier generate failed: %w", err)
	}

	return parseVerdict(resp.Text(), ev.Timestamp)
}

// parseVerdict decodes the model output, tolerating code fences but
// nothing else; any malformed response is an error so the caller falls
// back to the deterministic local verdict.
func parseVerdict(text string, eventTime time.Time) (*core.Verdict, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var payload verdictPayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return nil, fmt.Errorf("invalid classifier response: %w", err)
	}

	switch payload.Action {
	case core.ActionConfirm, core.ActionTentative, core.ActionReject:
	default:
		return nil, fmt.Errorf("invalid classifier action %q", payload.Action)
	}
	if payload.Confidence < 0 || payload.Confidence > 1 {
		return nil, fmt.Errorf("classifier confidence %v out of range", payload.Confidence)
	}

	verdict := &core.Verdict{
		Action:     payload.Action,
		Confidence: payload.Confidence,
		Reason:     payload.Reason,
	}

	if payload.EstimatedTime != "" {
		if t, err := time.Parse("15:04", payload.EstimatedTime); err == nil {
			est := time.Date(eventTime.Year(), eventTime.Month(), eventTime.Day(),
				t.Hour(), t.Minute(), 0, 0, eventTime.Location())
			verdict.EstimatedTime = &est
		}
	}

	return verdict, nil
}
