package realtime

import "github.com/stemsi/exstem-client/internal/model"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAutosave Action = "autosave"
	ActionSubmit   Action = "submit"
	ActionPing     Action = "ping"
	ActionCheat    Action = "cheat"
)

// AutosaveRequest saves a single answer over the stream.
type AutosaveRequest struct {
	Action    Action `json:"action"`
	QID       string `json:"q_id"`
	Answer    string `json:"ans"`
	IsFlagged bool   `json:"flagged"`
}

// SubmitRequest finishes the attempt with the full answer set.
type SubmitRequest struct {
	Action  Action                           `json:"action"`
	Answers map[string]model.SubmittedAnswer `json:"answers"`
}

// CheatRequest reports one proctoring/cheat event payload.
type CheatRequest struct {
	Action  Action `json:"action"`
	Payload string `json:"payload"` // JSON string passed through verbatim
}

// PingRequest keeps the stream alive.
type PingRequest struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError   Event = "error"
	EventSuccess Event = "success"
	EventGraded  Event = "graded"
	EventPong    Event = "pong"
)

// EventEnvelope is the union of every server event; unused fields stay zero.
type EventEnvelope struct {
	Event  Event   `json:"event"`
	Status string  `json:"status,omitempty"`
	Score  float64 `json:"score,omitempty"`
	Error  string  `json:"error,omitempty"`
}
