package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestBuildSubmissionDropsSessionOnlyFields(t *testing.T) {
	q1, q2 := uuid.New(), uuid.New()
	answers := map[uuid.UUID]*UserAnswer{
		q1: {QuestionID: q1, Answer: "B", TimeSpent: 42, StartTime: time.Now()},
		q2: {QuestionID: q2, Answer: "", IsFlagged: true, TimeSpent: 7},
	}

	req := BuildSubmission(answers)
	require.Len(t, req.Answers, 2)

	got := req.Answers[q1.String()]
	require.Equal(t, q1, got.QuestionID)
	require.Equal(t, "B", got.Answer)
	require.EqualValues(t, 42, got.TimeSpent)

	// Unanswered but flagged questions still travel.
	require.True(t, req.Answers[q2.String()].IsFlagged)
	require.Empty(t, req.Answers[q2.String()].Answer)
}

func TestSortQuestionsIsDeterministic(t *testing.T) {
	build := func() []Question {
		return []Question{
			{Subject: "Kimia", SectionID: 1, Number: 3},
			{Subject: "Biologi", SectionID: 2, Number: 1},
			{Subject: "Kimia", SectionID: 1, Number: 1},
			{Subject: "Biologi", SectionID: 1, Number: 5},
		}
	}

	a, b := build(), build()
	SortQuestions(a)
	SortQuestions(b)
	require.Equal(t, a, b)

	require.Equal(t, "Biologi", a[0].Subject)
	require.Equal(t, 1, a[0].SectionID)
	require.Equal(t, 2, a[1].SectionID)
	require.Equal(t, "Kimia", a[2].Subject)
	require.Equal(t, 1, a[2].Number)
	require.Equal(t, 3, a[3].Number)
}
