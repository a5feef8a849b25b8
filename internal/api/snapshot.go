package api

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/google/uuid"
	"github.com/stemsi/exstem-client/internal/model"
)

// snapshotRequest is the wire shape of one proctoring frame upload.
type snapshotRequest struct {
	ImageData string                 `json:"image_data"` // base64
	Timestamp string                 `json:"timestamp"`  // ISO-8601
	Metadata  model.SnapshotMetadata `json:"metadata"`
}

// UploadSnapshot sends one captured frame for server-side analysis and
// returns the verdict. The result's three signals stay separate: this
// cycle's violations, the attempt's cumulative violation count, and the
// auto-disqualification flag.
func (c *Client) UploadSnapshot(ctx context.Context, attemptID uuid.UUID, image []byte, meta model.SnapshotMetadata) (*model.SnapshotResult, error) {
	req := snapshotRequest{
		ImageData: base64.StdEncoding.EncodeToString(image),
		Timestamp: meta.Timestamp,
		Metadata:  meta,
	}

	var out model.SnapshotResult
	if _, err := c.do(ctx, "POST", fmt.Sprintf("/student/attempts/%s/snapshots", attemptID), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
