package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-client/internal/model"
	"github.com/stemsi/exstem-client/internal/store"
)

// SaveState is the visible persistence indicator for the current answer.
type SaveState int

const (
	SaveIdle SaveState = iota
	SavePending
	SaveSaving
	SaveSaved
	SaveFailed
)

func (s SaveState) String() string {
	switch s {
	case SavePending:
		return "pending"
	case SaveSaving:
		return "saving"
	case SaveSaved:
		return "saved"
	case SaveFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Saver persists answers to the server. Satisfied by *api.Client and by the
// realtime stream.
type Saver interface {
	Autosave(ctx context.Context, attemptID, questionID uuid.UUID, answer string, isFlagged bool) error
	Submit(ctx context.Context, attemptID uuid.UUID, payload model.SubmitRequest) error
}

// ErrAlreadySubmitted is returned by Submit once the attempt has been
// finalized.
var ErrAlreadySubmitted = errors.New("attempt already submitted")

// Options tunes the controller's timing behavior.
type Options struct {
	// AutosaveDebounce is the trailing-edge debounce window for edits.
	AutosaveDebounce time.Duration
	// CountdownTick is how often the countdown deadline is checked.
	CountdownTick time.Duration
	// Now substitutes the clock in tests.
	Now func() time.Time
}

// Controller owns the exam-taking session: the question set, the per-question
// answer drafts, dwell-time accounting, debounced persistence, and the
// countdown that forces final submission. It is the only writer of the
// answer map.
type Controller struct {
	attempt   *model.Attempt
	questions []model.Question
	saver     Saver
	drafts    *store.Store // optional, nil disables local drafts
	opts      Options
	log       zerolog.Logger

	mu            sync.Mutex
	answers       map[uuid.UUID]*model.UserAnswer
	current       int
	saveState     SaveState
	debounce      *time.Timer
	submitted     bool
	autoSubmitted bool
	deadline      time.Time
	cancelCount   context.CancelFunc
	closed        bool
}

// NewController builds a session over an attempt and its question set. The
// questions are put in deterministic (subject, section, number) order and the
// dwell timer of the first question starts immediately.
func NewController(attempt *model.Attempt, questions []model.Question, saver Saver, drafts *store.Store, opts Options, log zerolog.Logger) *Controller {
	if opts.AutosaveDebounce <= 0 {
		opts.AutosaveDebounce = time.Second
	}
	if opts.CountdownTick <= 0 {
		opts.CountdownTick = time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	qs := make([]model.Question, len(questions))
	copy(qs, questions)
	model.SortQuestions(qs)

	c := &Controller{
		attempt:   attempt,
		questions: qs,
		saver:     saver,
		drafts:    drafts,
		opts:      opts,
		log:       log.With().Str("component", "session").Logger(),
		answers:   make(map[uuid.UUID]*model.UserAnswer, len(qs)),
	}
	if len(qs) > 0 {
		c.ensureAnswerLocked(qs[0].ID).StartTime = opts.Now()
	}
	return c
}

// RestoreDrafts merges locally persisted drafts into the answer map. Server
// state wins only where the local draft is empty; a crash between edit and
// autosave is exactly what the drafts exist for.
func (c *Controller) RestoreDrafts() error {
	if c.drafts == nil {
		return nil
	}
	saved, err := c.drafts.LoadDrafts(c.attempt.ID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, q := range c.questions {
		d, ok := saved[q.ID]
		if !ok {
			continue
		}
		a := c.ensureAnswerLocked(q.ID)
		if a.Answer == "" {
			a.Answer = d.Answer
		}
		a.IsFlagged = a.IsFlagged || d.IsFlagged
	}
	return nil
}

// Questions returns the ordered question set.
func (c *Controller) Questions() []model.Question {
	return c.questions
}

// Current returns the question the student is on.
func (c *Controller) Current() (model.Question, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current < 0 || c.current >= len(c.questions) {
		return model.Question{}, false
	}
	return c.questions[c.current], true
}

// Navigate moves to the question at idx. The question being left has its
// dwell time closed out synchronously, regardless of any in-flight autosave.
func (c *Controller) Navigate(idx int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if idx < 0 || idx >= len(c.questions) {
		return fmt.Errorf("question index %d out of range", idx)
	}
	if idx == c.current {
		return nil
	}

	now := c.opts.Now()
	c.closeOutLocked(now)
	c.current = idx
	c.ensureAnswerLocked(c.questions[idx].ID).StartTime = now
	return nil
}

// SetAnswer updates the current question's draft and schedules a debounced
// autosave. The local draft file is written immediately.
func (c *Controller) SetAnswer(text string) {
	c.mu.Lock()
	if c.submitted || c.current >= len(c.questions) {
		c.mu.Unlock()
		return
	}
	q := c.questions[c.current]
	a := c.ensureAnswerLocked(q.ID)
	a.Answer = text
	flagged := a.IsFlagged
	c.saveState = SavePending
	c.scheduleAutosaveLocked(q.ID)
	c.mu.Unlock()

	c.persistDraft(q.ID, text, flagged)
}

// ToggleFlag flips the current question's review flag and schedules an
// autosave like any other edit.
func (c *Controller) ToggleFlag() {
	c.mu.Lock()
	if c.submitted || c.current >= len(c.questions) {
		c.mu.Unlock()
		return
	}
	q := c.questions[c.current]
	a := c.ensureAnswerLocked(q.ID)
	a.IsFlagged = !a.IsFlagged
	answer, flagged := a.Answer, a.IsFlagged
	c.saveState = SavePending
	c.scheduleAutosaveLocked(q.ID)
	c.mu.Unlock()

	c.persistDraft(q.ID, answer, flagged)
}

// SaveState returns the visible saving/saved indicator state.
func (c *Controller) SaveState() SaveState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saveState
}

// Answer returns a copy of the answer record for a question.
func (c *Controller) Answer(questionID uuid.UUID) (model.UserAnswer, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.answers[questionID]
	if !ok {
		return model.UserAnswer{}, false
	}
	return *a, true
}

// TimeSpent reports the cumulative dwell seconds recorded for a question,
// including the still-open visit if it is the current one.
func (c *Controller) TimeSpent(questionID uuid.UUID) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.answers[questionID]
	if !ok {
		return 0
	}
	total := a.TimeSpent
	if !a.StartTime.IsZero() {
		total += int64(c.opts.Now().Sub(a.StartTime).Seconds())
	}
	return total
}

// StartCountdown begins the exam countdown from the server-reported
// remaining time. When it reaches zero the current question is closed out
// and the attempt is submitted automatically, exactly once.
func (c *Controller) StartCountdown(ctx context.Context, onExpire func(auto bool, err error)) {
	c.mu.Lock()
	c.deadline = c.opts.Now().Add(time.Duration(c.attempt.TimeRemaining * float64(time.Second)))
	ctx, c.cancelCount = context.WithCancel(ctx)
	tick := c.opts.CountdownTick
	c.mu.Unlock()

	go func() {
		ticker := time.NewTicker(tick)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if c.Remaining() > 0 {
					continue
				}
				c.mu.Lock()
				c.autoSubmitted = true
				c.mu.Unlock()
				err := c.Submit(ctx)
				if errors.Is(err, ErrAlreadySubmitted) {
					err = nil
				}
				if onExpire != nil {
					onExpire(true, err)
				}
				return
			}
		}
	}()
}

// Remaining reports how much exam time is left.
func (c *Controller) Remaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.deadline.IsZero() {
		return time.Duration(c.attempt.TimeRemaining * float64(time.Second))
	}
	left := c.deadline.Sub(c.opts.Now())
	if left < 0 {
		return 0
	}
	return left
}

// AutoSubmitted reports whether the final submission was triggered by the
// countdown rather than the student.
func (c *Controller) AutoSubmitted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.autoSubmitted
}

// Submit finalizes the attempt with every in-memory answer. Re-entrancy is
// guarded by a flag that is released on failure so the student can retry.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	if c.submitted {
		c.mu.Unlock()
		return ErrAlreadySubmitted
	}
	c.submitted = true
	c.closeOutLocked(c.opts.Now())
	if c.debounce != nil {
		c.debounce.Stop()
		c.debounce = nil
	}
	payload := model.BuildSubmission(c.answers)
	c.mu.Unlock()

	if err := c.saver.Submit(ctx, c.attempt.ID, payload); err != nil {
		c.mu.Lock()
		c.submitted = false
		c.saveState = SaveFailed
		c.mu.Unlock()
		return fmt.Errorf("submit attempt: %w", err)
	}

	c.mu.Lock()
	c.attempt.Status = model.AttemptStatusCompleted
	c.saveState = SaveSaved
	c.mu.Unlock()

	if c.drafts != nil {
		if err := c.drafts.ClearDrafts(c.attempt.ID); err != nil {
			c.log.Warn().Err(err).Msg("Failed to clear local drafts")
		}
	}
	return nil
}

// Close cancels the countdown and any pending debounce timer. In-flight
// network calls are not interrupted; their results are simply ignored.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	if c.debounce != nil {
		c.debounce.Stop()
		c.debounce = nil
	}
	cancel := c.cancelCount
	c.cancelCount = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// ─── internals ──────────────────────────────────────────────────────

// ensureAnswerLocked returns the answer record for a question, creating it on
// first interaction. Caller holds c.mu.
func (c *Controller) ensureAnswerLocked(questionID uuid.UUID) *model.UserAnswer {
	a, ok := c.answers[questionID]
	if !ok {
		a = &model.UserAnswer{QuestionID: questionID}
		c.answers[questionID] = a
	}
	return a
}

// closeOutLocked folds the current visit's elapsed time into the answer's
// cumulative TimeSpent. Caller holds c.mu.
func (c *Controller) closeOutLocked(now time.Time) {
	if c.current < 0 || c.current >= len(c.questions) {
		return
	}
	a := c.ensureAnswerLocked(c.questions[c.current].ID)
	if a.StartTime.IsZero() {
		return
	}
	elapsed := int64(now.Sub(a.StartTime).Seconds())
	if elapsed > 0 {
		a.TimeSpent += elapsed
	}
	a.StartTime = time.Time{}
}

// scheduleAutosaveLocked restarts the trailing-edge debounce timer: the
// pending timer is cancelled and a fresh one started, so only the last edit
// in a burst is persisted. Caller holds c.mu.
func (c *Controller) scheduleAutosaveLocked(questionID uuid.UUID) {
	if c.closed {
		return
	}
	if c.debounce != nil {
		c.debounce.Stop()
	}
	c.debounce = time.AfterFunc(c.opts.AutosaveDebounce, func() {
		c.flush(questionID)
	})
}

// flush persists the latest value of one answer. A failure leaves the answer
// in memory; it is retried on the next debounce trigger and at final submit.
func (c *Controller) flush(questionID uuid.UUID) {
	c.mu.Lock()
	if c.submitted || c.closed {
		c.mu.Unlock()
		return
	}
	a, ok := c.answers[questionID]
	if !ok {
		c.mu.Unlock()
		return
	}
	answer, flagged := a.Answer, a.IsFlagged
	c.saveState = SaveSaving
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := c.saver.Autosave(ctx, c.attempt.ID, questionID, answer, flagged)

	c.mu.Lock()
	if err != nil {
		c.saveState = SaveFailed
	} else if c.saveState == SaveSaving {
		c.saveState = SaveSaved
	}
	c.mu.Unlock()

	if err != nil {
		c.log.Warn().Err(err).Str("question_id", questionID.String()).Msg("Autosave failed, answer kept in memory")
	}
}

// persistDraft writes the local crash-safety draft. Failures are logged and
// otherwise ignored; the server remains the source of truth.
func (c *Controller) persistDraft(questionID uuid.UUID, answer string, flagged bool) {
	if c.drafts == nil {
		return
	}
	if err := c.drafts.SaveDraft(c.attempt.ID, questionID, answer, flagged); err != nil {
		c.log.Warn().Err(err).Msg("Failed to write local draft")
	}
}
