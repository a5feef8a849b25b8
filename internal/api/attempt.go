package api

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/stemsi/exstem-client/internal/model"
)

// GetLobby returns the student's exam dashboard.
func (c *Client) GetLobby(ctx context.Context) ([]model.LobbyExam, error) {
	var out struct {
		Exams []model.LobbyExam `json:"exams"`
	}
	if _, err := c.do(ctx, "GET", "/student/lobby", nil, &out); err != nil {
		return nil, err
	}
	return out.Exams, nil
}

// StartAttempt joins an exam (idempotent server-side) and returns the attempt.
func (c *Client) StartAttempt(ctx context.Context, examID uuid.UUID, entryToken string) (*model.Attempt, error) {
	req := map[string]string{"entry_token": entryToken}
	var out struct {
		Attempt model.Attempt `json:"attempt"`
	}
	if _, err := c.do(ctx, "POST", fmt.Sprintf("/student/exams/%s/join", examID), req, &out); err != nil {
		return nil, err
	}
	return &out.Attempt, nil
}

// GetAttempt loads the attempt record, including the proctoring flag and the
// server-tracked remaining time.
func (c *Client) GetAttempt(ctx context.Context, attemptID uuid.UUID) (*model.Attempt, error) {
	var out struct {
		Attempt model.Attempt `json:"attempt"`
	}
	if _, err := c.do(ctx, "GET", fmt.Sprintf("/student/attempts/%s", attemptID), nil, &out); err != nil {
		return nil, err
	}
	return &out.Attempt, nil
}

// ListQuestions fetches every page of the attempt's question set and returns
// the concatenation in deterministic (subject, section, number) order.
func (c *Client) ListQuestions(ctx context.Context, attemptID uuid.UUID) ([]model.Question, error) {
	var all []model.Question

	for page := 1; ; page++ {
		var out struct {
			Questions []model.Question `json:"questions"`
		}
		pg, err := c.do(ctx, "GET", fmt.Sprintf("/student/attempts/%s/questions?page=%d", attemptID, page), nil, &out)
		if err != nil {
			return nil, err
		}
		if len(out.Questions) == 0 {
			break
		}
		all = append(all, out.Questions...)
		if pg == nil || page >= pg.TotalPages {
			break
		}
	}

	model.SortQuestions(all)
	return all, nil
}
