package capture

import "context"

// Device produces a single still image on demand and reports readiness and
// permission state. Capture returns nil whenever a frame cannot be produced:
// the app is backgrounded, the device is not ready, permission is absent, or
// the platform errored. None of these are exceptional; the proctoring
// scheduler simply waits for its next interval tick. Retrying is never this
// layer's job.
type Device interface {
	IsReady() bool
	HasPermission() bool
	// RequestPermission asks the platform once. A denial is persistent for
	// the process lifetime and leaves the rest of the app usable.
	RequestPermission(ctx context.Context) bool
	Capture(ctx context.Context) []byte
}
