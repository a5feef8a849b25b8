package realtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-client/internal/model"
)

const (
	writeTimeout = 10 * time.Second
	readTimeout  = 30 * time.Second
)

// Stream is the client side of the backend's WebSocket exam stream. It
// implements the same Saver contract as the REST client, so the session
// controller can persist answers over either transport. The protocol is
// strictly request/response; one mutex serializes round trips.
type Stream struct {
	conn *websocket.Conn
	log  zerolog.Logger

	mu sync.Mutex
}

// Dial opens the exam stream for an attempt. The token rides the query
// string, which is how the backend authenticates upgrade requests.
func Dial(ctx context.Context, wsBaseURL string, examID uuid.UUID, token string, log zerolog.Logger) (*Stream, error) {
	url := fmt.Sprintf("%s/ws/v1/student/exams/%s/stream?token=%s", wsBaseURL, examID, token)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial exam stream: %w", err)
	}
	return &Stream{
		conn: conn,
		log:  log.With().Str("component", "realtime").Logger(),
	}, nil
}

// Close shuts the stream down.
func (s *Stream) Close() error {
	return s.conn.Close()
}

// Autosave persists one answer over the stream.
func (s *Stream) Autosave(ctx context.Context, attemptID, questionID uuid.UUID, answer string, isFlagged bool) error {
	ev, err := s.roundTrip(AutosaveRequest{
		Action:    ActionAutosave,
		QID:       questionID.String(),
		Answer:    answer,
		IsFlagged: isFlagged,
	})
	if err != nil {
		return err
	}
	if ev.Event == EventError {
		return fmt.Errorf("autosave rejected: %s", ev.Error)
	}
	return nil
}

// Submit finalizes the attempt over the stream. The server replies with the
// graded event once scoring is done.
func (s *Stream) Submit(ctx context.Context, attemptID uuid.UUID, payload model.SubmitRequest) error {
	ev, err := s.roundTrip(SubmitRequest{Action: ActionSubmit, Answers: payload.Answers})
	if err != nil {
		return err
	}
	switch ev.Event {
	case EventGraded:
		s.log.Info().Float64("score", ev.Score).Msg("Attempt graded")
		return nil
	case EventError:
		return fmt.Errorf("submit rejected: %s", ev.Error)
	default:
		return nil
	}
}

// ReportEvent forwards one cheat/proctoring event payload verbatim.
func (s *Stream) ReportEvent(payload string) error {
	ev, err := s.roundTrip(CheatRequest{Action: ActionCheat, Payload: payload})
	if err != nil {
		return err
	}
	if ev.Event == EventError {
		return fmt.Errorf("event rejected: %s", ev.Error)
	}
	return nil
}

// Ping keeps the stream alive.
func (s *Stream) Ping() error {
	ev, err := s.roundTrip(PingRequest{Action: ActionPing})
	if err != nil {
		return err
	}
	if ev.Event != EventPong {
		return fmt.Errorf("unexpected event %q to ping", ev.Event)
	}
	return nil
}

func (s *Stream) roundTrip(req interface{}) (*EventEnvelope, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := s.conn.WriteJSON(req); err != nil {
		return nil, fmt.Errorf("stream write: %w", err)
	}

	var ev EventEnvelope
	s.conn.SetReadDeadline(time.Now().Add(readTimeout))
	if err := s.conn.ReadJSON(&ev); err != nil {
		return nil, fmt.Errorf("stream read: %w", err)
	}
	return &ev, nil
}
