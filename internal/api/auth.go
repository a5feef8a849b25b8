package api

import (
	"context"
	"fmt"

	"github.com/stemsi/exstem-client/internal/model"
)

// Login authenticates the student and installs the returned token on the
// client. A second login elsewhere invalidates this session server-side;
// that surfaces later as SESSION_INVALIDATED on any request.
func (c *Client) Login(ctx context.Context, nisn, password string) (*model.StudentLoginResponse, error) {
	req := model.StudentLoginRequest{NISN: nisn, Password: password}

	var out model.StudentLoginResponse
	if _, err := c.do(ctx, "POST", "/auth/student/login", req, &out); err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, fmt.Errorf("login: empty token in response")
	}

	c.SetToken(out.Token)
	return &out, nil
}
