package model

// ViolationType enumerates the violation categories the analysis service reports.
type ViolationType string

const (
	ViolationNoFace        ViolationType = "no_face"
	ViolationMultipleFaces ViolationType = "multiple_faces"
	ViolationGazeAway      ViolationType = "gaze_away"
	ViolationUnknownObject ViolationType = "suspicious_object"
)

// Violation is one detected violation within a single snapshot cycle.
type Violation struct {
	Type ViolationType `json:"type"`
}

// SnapshotMetadata travels alongside every uploaded frame so the server can
// contextualize the capture.
type SnapshotMetadata struct {
	Timestamp        string  `json:"timestamp"` // ISO-8601
	UserAgent        string  `json:"user_agent"`
	ScreenResolution string  `json:"screen_resolution"`
	PixelRatio       float64 `json:"pixel_ratio"`
	Timezone         string  `json:"timezone"` // IANA name
}

// SnapshotAnalysis is the server's judgment of one frame.
type SnapshotAnalysis struct {
	Success       bool        `json:"success"`
	Error         string      `json:"error,omitempty"`
	Violations    []Violation `json:"violations"`
	FacesDetected int         `json:"faces_detected"`
}

// SnapshotResult is the full response to one snapshot upload. The current
// cycle's Violations, the attempt-wide ViolationCount and the AutoDisqualified
// flag are three independent signals; none implies another.
type SnapshotResult struct {
	SnapshotUploaded bool             `json:"snapshot_uploaded"`
	Analysis         SnapshotAnalysis `json:"analysis"`
	ViolationCount   int              `json:"violation_count"`
	AutoDisqualified bool             `json:"auto_disqualified"`
	StorageType      string           `json:"storage_type"`
}
