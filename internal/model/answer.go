package model

import (
	"time"

	"github.com/google/uuid"
)

// UserAnswer is the per-question mutable record kept in memory for the whole
// session. TimeSpent is a cumulative dwell-time accumulator across all visits
// to the question and is never decremented.
type UserAnswer struct {
	QuestionID uuid.UUID `json:"question_id"`
	Answer     string    `json:"answer"`
	IsFlagged  bool      `json:"is_flagged"`
	TimeSpent  int64     `json:"time_spent"` // whole seconds
	StartTime  time.Time `json:"start_time"` // start of the current visit, zero when not current
}

// SubmittedAnswer is the wire shape of one answer inside the submit payload.
type SubmittedAnswer struct {
	QuestionID uuid.UUID `json:"question_id"`
	Answer     string    `json:"answer"`
	IsFlagged  bool      `json:"is_flagged"`
	TimeSpent  int64     `json:"time_spent"`
}

// SubmitRequest aggregates every in-memory answer, keyed by question ID.
type SubmitRequest struct {
	Answers map[string]SubmittedAnswer `json:"answers"`
}

// BuildSubmission converts the in-memory answer map into the submit payload.
func BuildSubmission(answers map[uuid.UUID]*UserAnswer) SubmitRequest {
	out := SubmitRequest{Answers: make(map[string]SubmittedAnswer, len(answers))}
	for id, a := range answers {
		out.Answers[id.String()] = SubmittedAnswer{
			QuestionID: a.QuestionID,
			Answer:     a.Answer,
			IsFlagged:  a.IsFlagged,
			TimeSpent:  a.TimeSpent,
		}
	}
	return out
}
