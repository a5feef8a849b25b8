package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/stemsi/exstem-client/internal/model"
)

type savedCall struct {
	QuestionID uuid.UUID
	Answer     string
	IsFlagged  bool
}

type fakeSaver struct {
	mu          sync.Mutex
	autosaves   []savedCall
	autosaveErr error
	submits     []model.SubmitRequest
	submitErr   error
}

func (f *fakeSaver) Autosave(ctx context.Context, attemptID, questionID uuid.UUID, answer string, isFlagged bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.autosaveErr != nil {
		return f.autosaveErr
	}
	f.autosaves = append(f.autosaves, savedCall{QuestionID: questionID, Answer: answer, IsFlagged: isFlagged})
	return nil
}

func (f *fakeSaver) Submit(ctx context.Context, attemptID uuid.UUID, payload model.SubmitRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return f.submitErr
	}
	f.submits = append(f.submits, payload)
	return nil
}

func (f *fakeSaver) autosaveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.autosaves)
}

func (f *fakeSaver) submitCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.submits)
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func threeQuestions() []model.Question {
	return []model.Question{
		{ID: uuid.New(), Subject: "Matematika", SectionID: 1, Number: 1, QuestionText: "Q1"},
		{ID: uuid.New(), Subject: "Matematika", SectionID: 1, Number: 2, QuestionText: "Q2"},
		{ID: uuid.New(), Subject: "Matematika", SectionID: 2, Number: 1, QuestionText: "Q3"},
	}
}

func newTestController(t *testing.T, saver Saver, clock *fakeClock, remaining float64) (*Controller, []model.Question) {
	t.Helper()
	qs := threeQuestions()
	attempt := &model.Attempt{ID: uuid.New(), TimeRemaining: remaining}
	opts := Options{AutosaveDebounce: 40 * time.Millisecond, CountdownTick: 10 * time.Millisecond}
	if clock != nil {
		opts.Now = clock.Now
	}
	c := NewController(attempt, qs, saver, nil, opts, zerolog.Nop())
	t.Cleanup(c.Close)
	return c, c.Questions()
}

func TestQuestionsSortedBySubjectSectionNumber(t *testing.T) {
	qs := []model.Question{
		{ID: uuid.New(), Subject: "Fisika", SectionID: 2, Number: 1},
		{ID: uuid.New(), Subject: "Fisika", SectionID: 1, Number: 2},
		{ID: uuid.New(), Subject: "Biologi", SectionID: 9, Number: 9},
		{ID: uuid.New(), Subject: "Fisika", SectionID: 1, Number: 1},
	}
	attempt := &model.Attempt{ID: uuid.New()}
	c := NewController(attempt, qs, &fakeSaver{}, nil, Options{}, zerolog.Nop())
	defer c.Close()

	got := c.Questions()
	require.Equal(t, "Biologi", got[0].Subject)
	require.Equal(t, 1, got[1].SectionID)
	require.Equal(t, 1, got[1].Number)
	require.Equal(t, 2, got[2].Number)
	require.Equal(t, 2, got[3].SectionID)
}

func TestTimeSpentAccumulatesAcrossInterleavedVisits(t *testing.T) {
	clock := newFakeClock()
	c, qs := newTestController(t, &fakeSaver{}, clock, 3600)

	clock.Advance(10 * time.Second)
	require.NoError(t, c.Navigate(1)) // leaves q0 after 10s

	clock.Advance(5 * time.Second)
	require.NoError(t, c.Navigate(0)) // leaves q1 after 5s

	clock.Advance(7 * time.Second)
	require.NoError(t, c.Navigate(2)) // leaves q0 after another 7s

	a0, ok := c.Answer(qs[0].ID)
	require.True(t, ok)
	require.EqualValues(t, 17, a0.TimeSpent)

	a1, ok := c.Answer(qs[1].ID)
	require.True(t, ok)
	require.EqualValues(t, 5, a1.TimeSpent)

	// The open visit on q2 counts toward TimeSpent but is not folded yet.
	clock.Advance(3 * time.Second)
	require.EqualValues(t, 3, c.TimeSpent(qs[2].ID))
}

func TestNavigateToSameQuestionKeepsVisitOpen(t *testing.T) {
	clock := newFakeClock()
	c, qs := newTestController(t, &fakeSaver{}, clock, 3600)

	clock.Advance(4 * time.Second)
	require.NoError(t, c.Navigate(0))
	clock.Advance(4 * time.Second)
	require.NoError(t, c.Navigate(1))

	a0, _ := c.Answer(qs[0].ID)
	require.EqualValues(t, 8, a0.TimeSpent)
}

func TestDebouncePersistsOnlyLastEditOfBurst(t *testing.T) {
	saver := &fakeSaver{}
	c, qs := newTestController(t, saver, nil, 3600)

	c.SetAnswer("j")
	c.SetAnswer("ja")
	c.SetAnswer("jawaban akhir")

	require.Eventually(t, func() bool { return saver.autosaveCount() == 1 }, time.Second, 5*time.Millisecond)
	// Give a stray second flush a chance to appear before asserting.
	time.Sleep(100 * time.Millisecond)
	require.Equal(t, 1, saver.autosaveCount())
	require.Equal(t, savedCall{QuestionID: qs[0].ID, Answer: "jawaban akhir"}, saver.autosaves[0])
	require.Equal(t, SaveSaved, c.SaveState())
}

func TestAutosaveFailureKeepsAnswerAndRetriesNextBurst(t *testing.T) {
	saver := &fakeSaver{autosaveErr: errors.New("network down")}
	c, qs := newTestController(t, saver, nil, 3600)

	c.SetAnswer("draft")
	require.Eventually(t, func() bool { return c.SaveState() == SaveFailed }, time.Second, 5*time.Millisecond)

	a, _ := c.Answer(qs[0].ID)
	require.Equal(t, "draft", a.Answer)

	saver.mu.Lock()
	saver.autosaveErr = nil
	saver.mu.Unlock()

	c.SetAnswer("draft v2")
	require.Eventually(t, func() bool { return saver.autosaveCount() == 1 }, time.Second, 5*time.Millisecond)
	require.Equal(t, "draft v2", saver.autosaves[0].Answer)
}

func TestCountdownAutoSubmitsExactlyOnce(t *testing.T) {
	saver := &fakeSaver{}
	c, qs := newTestController(t, saver, nil, 0.05)

	c.SetAnswer("terjawab")

	var mu sync.Mutex
	expirations := 0
	var gotAuto bool
	var gotErr error
	c.StartCountdown(context.Background(), func(auto bool, err error) {
		mu.Lock()
		defer mu.Unlock()
		expirations++
		gotAuto, gotErr = auto, err
	})

	require.Eventually(t, func() bool { return saver.submitCount() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	require.Equal(t, 1, expirations)
	require.True(t, gotAuto)
	require.NoError(t, gotErr)
	mu.Unlock()
	require.Equal(t, 1, saver.submitCount())
	require.True(t, c.AutoSubmitted())
	require.Zero(t, c.Remaining())

	// Every answered question rides the forced submission.
	got := saver.submits[0].Answers[qs[0].ID.String()]
	require.Equal(t, "terjawab", got.Answer)

	// A later manual submit is refused.
	require.ErrorIs(t, c.Submit(context.Background()), ErrAlreadySubmitted)
}

func TestSubmitIdempotentButRetriableAfterFailure(t *testing.T) {
	saver := &fakeSaver{submitErr: errors.New("503")}
	c, _ := newTestController(t, saver, nil, 3600)

	c.SetAnswer("x")
	err := c.Submit(context.Background())
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrAlreadySubmitted)

	// The guard flag was released: a retry goes through.
	saver.mu.Lock()
	saver.submitErr = nil
	saver.mu.Unlock()
	require.NoError(t, c.Submit(context.Background()))
	require.Equal(t, 1, saver.submitCount())

	require.ErrorIs(t, c.Submit(context.Background()), ErrAlreadySubmitted)
	require.Equal(t, 1, saver.submitCount())
}

func TestSubmitPayloadRoundTrip(t *testing.T) {
	clock := newFakeClock()
	saver := &fakeSaver{}
	c, qs := newTestController(t, saver, clock, 3600)

	c.SetAnswer("A")
	c.ToggleFlag()
	clock.Advance(12 * time.Second)
	require.NoError(t, c.Navigate(1))
	c.SetAnswer("B")
	clock.Advance(8 * time.Second)

	require.NoError(t, c.Submit(context.Background()))
	require.Equal(t, 1, saver.submitCount())

	raw, err := json.Marshal(saver.submits[0])
	require.NoError(t, err)
	var parsed model.SubmitRequest
	require.NoError(t, json.Unmarshal(raw, &parsed))

	first := parsed.Answers[qs[0].ID.String()]
	require.Equal(t, qs[0].ID, first.QuestionID)
	require.Equal(t, "A", first.Answer)
	require.True(t, first.IsFlagged)
	require.EqualValues(t, 12, first.TimeSpent)

	second := parsed.Answers[qs[1].ID.String()]
	require.Equal(t, "B", second.Answer)
	require.False(t, second.IsFlagged)
	require.EqualValues(t, 8, second.TimeSpent)
}
