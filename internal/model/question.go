package model

import (
	"encoding/json"
	"sort"

	"github.com/google/uuid"
)

// QuestionType enumerates the supported question kinds.
type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "MULTIPLE_CHOICE"
	QuestionTypeEssay          QuestionType = "ESSAY"
)

// Question is immutable exam content as delivered to the student. The server
// never includes the correct option in this shape.
type Question struct {
	ID           uuid.UUID       `json:"id"`
	Subject      string          `json:"subject"`
	SectionID    int             `json:"section_id"`
	Number       int             `json:"number"`
	QuestionText string          `json:"question_text"`
	QuestionType QuestionType    `json:"question_type"`
	Options      json.RawMessage `json:"options"`
	Marks        float64         `json:"marks"`
}

// SortQuestions fixes the presentation order across reloads: subject, then
// section, then question number.
func SortQuestions(qs []Question) {
	sort.Slice(qs, func(i, j int) bool {
		if qs[i].Subject != qs[j].Subject {
			return qs[i].Subject < qs[j].Subject
		}
		if qs[i].SectionID != qs[j].SectionID {
			return qs[i].SectionID < qs[j].SectionID
		}
		return qs[i].Number < qs[j].Number
	})
}
