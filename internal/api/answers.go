package api

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/stemsi/exstem-client/internal/model"
)

// autosaveRequest persists one in-progress answer.
type autosaveRequest struct {
	QuestionID uuid.UUID `json:"question_id"`
	Answer     string    `json:"answer"`
	IsFlagged  bool      `json:"is_flagged"`
}

// Autosave persists a single answer draft. The server acknowledges with no
// body fields the client consumes.
func (c *Client) Autosave(ctx context.Context, attemptID, questionID uuid.UUID, answer string, isFlagged bool) error {
	req := autosaveRequest{QuestionID: questionID, Answer: answer, IsFlagged: isFlagged}
	_, err := c.do(ctx, "POST", fmt.Sprintf("/student/attempts/%s/autosave", attemptID), req, nil)
	return err
}

// Submit finalizes the attempt with every answer the client holds.
func (c *Client) Submit(ctx context.Context, attemptID uuid.UUID, payload model.SubmitRequest) error {
	var out struct {
		Message string `json:"message"`
	}
	if _, err := c.do(ctx, "POST", fmt.Sprintf("/student/attempts/%s/submit", attemptID), payload, &out); err != nil {
		return err
	}
	c.log.Info().Str("attempt_id", attemptID.String()).Str("message", out.Message).Msg("Attempt submitted")
	return nil
}
