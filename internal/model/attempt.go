package model

import (
	"time"

	"github.com/google/uuid"
)

// AttemptStatus enumerates the states of an exam attempt as reported by the server.
type AttemptStatus string

const (
	AttemptStatusInProgress AttemptStatus = "IN_PROGRESS"
	AttemptStatusCompleted  AttemptStatus = "COMPLETED"
)

// Attempt represents one student's run of one exam. It is loaded once when the
// exam screen opens and owned by the session controller until submit or exit.
type Attempt struct {
	ID                uuid.UUID     `json:"id"`
	ExamID            uuid.UUID     `json:"exam_id"`
	ExamTitle         string        `json:"exam_title"`
	StudentID         int           `json:"student_id"`
	ProctoringEnabled bool          `json:"proctoring_enabled"`
	TimeRemaining     float64       `json:"time_remaining"` // seconds, server-tracked at load
	StartedAt         time.Time     `json:"started_at"`
	Status            AttemptStatus `json:"status"`
}

// LobbyStatus mirrors the server's lobby classification of an exam.
type LobbyStatus string

const (
	LobbyStatusUpcoming   LobbyStatus = "UPCOMING"
	LobbyStatusAvailable  LobbyStatus = "AVAILABLE"
	LobbyStatusInProgress LobbyStatus = "IN_PROGRESS"
	LobbyStatusCompleted  LobbyStatus = "COMPLETED"
)

// LobbyExam is one entry of the student's exam dashboard.
type LobbyExam struct {
	ID              uuid.UUID   `json:"id"`
	Title           string      `json:"title"`
	DurationMinutes int         `json:"duration_minutes"`
	LobbyStatus     LobbyStatus `json:"lobby_status"`
	FinalScore      *float64    `json:"final_score,omitempty"`
}
