package proctor

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-client/internal/api"
	"github.com/stemsi/exstem-client/internal/capture"
	"github.com/stemsi/exstem-client/internal/lifecycle"
	"github.com/stemsi/exstem-client/internal/model"
)

// State enumerates the scheduler lifecycle.
type State int

const (
	StateIdle State = iota
	StateArmed
	StateRunning
	StatePaused
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateArmed:
		return "armed"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	default:
		return "idle"
	}
}

// Uploader sends one encoded frame for analysis. Satisfied by *api.Client.
type Uploader interface {
	UploadSnapshot(ctx context.Context, attemptID uuid.UUID, image []byte, meta model.SnapshotMetadata) (*model.SnapshotResult, error)
}

// Stats is a read-only snapshot of the scheduler's counters. ViolationCount
// always echoes the most recent server-reported cumulative count; the client
// never increments it locally.
type Stats struct {
	State            State
	SnapshotCount    int
	ViolationCount   int
	LastSnapshotTime time.Time
	Disqualified     bool
}

// Options configures the capture cadence and the display metadata bundled
// with each upload.
type Options struct {
	Warmup           time.Duration
	Interval         time.Duration
	ScreenResolution string
	PixelRatio       float64
	Timezone         string
}

// Scheduler drives the periodic capture+upload loop for one proctored
// attempt. All counter mutations happen on its own completion path; the rest
// of the app only reads Stats.
type Scheduler struct {
	device   capture.Device
	uploader Uploader
	gate     *Gate
	lc       *lifecycle.Monitor
	opts     Options
	log      zerolog.Logger

	mu        sync.Mutex
	state     State
	attemptID uuid.UUID
	inFlight  bool
	stats     Stats
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewScheduler wires a scheduler. It starts Idle; nothing touches the camera
// until Arm succeeds and Start is called.
func NewScheduler(device capture.Device, uploader Uploader, gate *Gate, lc *lifecycle.Monitor, opts Options, log zerolog.Logger) *Scheduler {
	if opts.Timezone == "" {
		opts.Timezone = time.Local.String()
	}
	return &Scheduler{
		device:   device,
		uploader: uploader,
		gate:     gate,
		lc:       lc,
		opts:     opts,
		log:      log.With().Str("component", "proctor").Logger(),
	}
}

// Arm transitions Idle → Armed when proctoring is enabled for the attempt,
// the capture device is ready, and camera permission is granted. When the
// attempt has proctoring disabled, the device is never consulted at all.
func (s *Scheduler) Arm(ctx context.Context, attempt *model.Attempt) bool {
	if !attempt.ProctoringEnabled {
		s.log.Info().Str("attempt_id", attempt.ID.String()).Msg("Proctoring disabled for attempt")
		return false
	}
	if !s.device.IsReady() {
		s.log.Warn().Msg("Capture device not ready, proctoring stays idle")
		return false
	}
	if !s.device.HasPermission() && !s.device.RequestPermission(ctx) {
		s.log.Warn().Msg("Camera permission denied, proctoring stays idle")
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateIdle {
		return s.state == StateArmed
	}
	s.state = StateArmed
	s.attemptID = attempt.ID
	s.log.Info().Str("attempt_id", attempt.ID.String()).Msg("Proctoring armed")
	return true
}

// Start begins the capture loop: first cycle after the warm-up delay, then
// one per interval. Returns false unless the scheduler is Armed.
func (s *Scheduler) Start(ctx context.Context) bool {
	s.mu.Lock()
	if s.state != StateArmed {
		s.mu.Unlock()
		return false
	}
	s.state = StateRunning
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go s.run(ctx)
	return true
}

// Stop tears the loop down. An in-flight cycle is allowed to finish but its
// result is discarded.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.state == StateStopped || s.cancel == nil {
		s.state = StateStopped
		s.mu.Unlock()
		return
	}
	s.state = StateStopped
	cancel := s.cancel
	done := s.done
	s.mu.Unlock()

	cancel()
	<-done
	s.log.Info().Msg("Proctoring stopped")
}

// State returns the current lifecycle state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Stats returns a copy of the current counters.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stats
	st.State = s.state
	return st
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)

	warm := time.NewTimer(s.opts.Warmup)
	defer warm.Stop()
	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	transitions := s.lc.Subscribe()

	for {
		select {
		case <-ctx.Done():
			return

		case <-warm.C:
			s.tick(ctx)

		case <-ticker.C:
			s.tick(ctx)

		case st := <-transitions:
			s.onLifecycle(st, ticker)
		}
	}
}

// onLifecycle pauses the interval on backgrounding and resumes it when the
// app returns to the foreground. Counters survive a pause untouched.
func (s *Scheduler) onLifecycle(st lifecycle.State, ticker *time.Ticker) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case st == lifecycle.Background && s.state == StateRunning:
		s.state = StatePaused
		ticker.Stop()
		s.log.Info().Msg("Proctoring paused (app backgrounded)")
	case st == lifecycle.Foreground && s.state == StatePaused:
		s.state = StateRunning
		ticker.Reset(s.opts.Interval)
		s.log.Info().Msg("Proctoring resumed")
	}
}

// tick starts one cycle unless the scheduler is not running or the previous
// cycle is still in flight. A tick during an in-flight cycle is skipped, not
// queued: at most one capture+upload runs concurrently.
func (s *Scheduler) tick(ctx context.Context) {
	s.mu.Lock()
	if s.state != StateRunning || s.inFlight {
		busy := s.inFlight
		s.mu.Unlock()
		if busy {
			s.log.Debug().Msg("Previous cycle still in flight, skipping tick")
		}
		return
	}
	s.inFlight = true
	attemptID := s.attemptID
	s.mu.Unlock()

	go s.cycle(ctx, attemptID)
}

// cycle runs one capture+upload round trip and applies its verdict. The
// in-flight flag is released only after the verdict has been applied, which
// orders cycle N's state update strictly before cycle N+1 can start.
func (s *Scheduler) cycle(ctx context.Context, attemptID uuid.UUID) {
	defer func() {
		s.mu.Lock()
		s.inFlight = false
		s.mu.Unlock()
	}()

	image := s.device.Capture(ctx)
	if image == nil {
		// Expected race: backgrounded, not ready, or no permission.
		return
	}

	res, err := s.uploader.UploadSnapshot(ctx, attemptID, image, s.metadata())
	if err != nil {
		// A failed cycle never halts the interval.
		s.log.Warn().Err(err).Msg("Snapshot upload failed, skipping cycle")
		return
	}

	s.apply(ctx, res)
}

// apply folds one verdict into the counters and triggers the gate. Results
// arriving after teardown are discarded.
func (s *Scheduler) apply(ctx context.Context, res *model.SnapshotResult) {
	s.mu.Lock()
	if s.state == StateStopped || ctx.Err() != nil {
		s.mu.Unlock()
		return
	}

	s.stats.SnapshotCount++
	s.stats.LastSnapshotTime = time.Now()
	// The server is authoritative: overwrite, never increment.
	s.stats.ViolationCount = res.ViolationCount
	if res.AutoDisqualified {
		s.stats.Disqualified = true
	}
	count := s.stats.ViolationCount
	s.mu.Unlock()

	if len(res.Analysis.Violations) > 0 {
		first := res.Analysis.Violations[0].Type
		s.log.Warn().
			Str("violation", string(first)).
			Int("total", count).
			Msg("Violation detected")
		s.gate.Show(violationNotice(first, count))
	}

	// Checked independently of the current cycle's violation list: a
	// disqualification can arrive with an empty list.
	if res.AutoDisqualified {
		s.log.Error().Int("total", count).Msg("Attempt auto-disqualified by server")
		s.gate.Show(disqualifiedNotice(count))
	}
}

func (s *Scheduler) metadata() model.SnapshotMetadata {
	return model.SnapshotMetadata{
		Timestamp:        time.Now().UTC().Format(time.RFC3339),
		UserAgent:        api.UserAgent(),
		ScreenResolution: s.opts.ScreenResolution,
		PixelRatio:       s.opts.PixelRatio,
		Timezone:         s.opts.Timezone,
	}
}
