package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/stemsi/exstem-client/internal/model"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type streamServer struct {
	stream *Stream
	tokens chan string
	msgs   chan map[string]interface{}
}

// newStreamServer runs a scripted backend: handle receives each decoded
// client message and returns the event to reply with. Every message is also
// delivered on msgs for inspection.
func newStreamServer(t *testing.T, examID uuid.UUID, handle func(msg map[string]interface{}) EventEnvelope) *streamServer {
	t.Helper()

	ss := &streamServer{
		tokens: make(chan string, 1),
		msgs:   make(chan map[string]interface{}, 8),
	}

	r := gin.New()
	r.GET("/ws/v1/student/exams/:exam_id/stream", func(ctx *gin.Context) {
		ss.tokens <- ctx.Query("token")
		conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
		require.NoError(t, err)
		defer conn.Close()

		for {
			var msg map[string]interface{}
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			ss.msgs <- msg
			if err := conn.WriteJSON(handle(msg)); err != nil {
				return
			}
		}
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	stream, err := Dial(context.Background(), wsURL, examID, "tok-ws", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { stream.Close() })
	ss.stream = stream
	return ss
}

func TestDialSendsTokenInQuery(t *testing.T) {
	ss := newStreamServer(t, uuid.New(), func(msg map[string]interface{}) EventEnvelope {
		return EventEnvelope{Event: EventSuccess}
	})
	require.Equal(t, "tok-ws", <-ss.tokens)
}

func TestAutosaveOverStream(t *testing.T) {
	questionID := uuid.New()
	ss := newStreamServer(t, uuid.New(), func(msg map[string]interface{}) EventEnvelope {
		return EventEnvelope{Event: EventSuccess, Status: "saved"}
	})

	err := ss.stream.Autosave(context.Background(), uuid.New(), questionID, "jawaban", true)
	require.NoError(t, err)

	got := <-ss.msgs
	require.Equal(t, "autosave", got["action"])
	require.Equal(t, questionID.String(), got["q_id"])
	require.Equal(t, "jawaban", got["ans"])
	require.Equal(t, true, got["flagged"])
}

func TestAutosaveErrorEventSurfaces(t *testing.T) {
	ss := newStreamServer(t, uuid.New(), func(msg map[string]interface{}) EventEnvelope {
		return EventEnvelope{Event: EventError, Error: "attempt sudah selesai"}
	})

	err := ss.stream.Autosave(context.Background(), uuid.New(), uuid.New(), "x", false)
	require.Error(t, err)
	require.Contains(t, err.Error(), "attempt sudah selesai")
}

func TestSubmitOverStreamAcceptsGradedEvent(t *testing.T) {
	q := uuid.New()
	ss := newStreamServer(t, uuid.New(), func(msg map[string]interface{}) EventEnvelope {
		return EventEnvelope{Event: EventGraded, Score: 92.5}
	})

	payload := model.SubmitRequest{Answers: map[string]model.SubmittedAnswer{
		q.String(): {QuestionID: q, Answer: "C", TimeSpent: 30},
	}}
	require.NoError(t, ss.stream.Submit(context.Background(), uuid.New(), payload))

	got := <-ss.msgs
	raw, err := json.Marshal(got["answers"])
	require.NoError(t, err)
	var answers map[string]model.SubmittedAnswer
	require.NoError(t, json.Unmarshal(raw, &answers))
	require.Equal(t, "C", answers[q.String()].Answer)
}

func TestPing(t *testing.T) {
	ss := newStreamServer(t, uuid.New(), func(msg map[string]interface{}) EventEnvelope {
		if msg["action"] == "ping" {
			return EventEnvelope{Event: EventPong}
		}
		return EventEnvelope{Event: EventError, Error: "unexpected"}
	})
	require.NoError(t, ss.stream.Ping())
}

func TestReportEventPassesPayloadThrough(t *testing.T) {
	ss := newStreamServer(t, uuid.New(), func(msg map[string]interface{}) EventEnvelope {
		return EventEnvelope{Event: EventSuccess}
	})

	require.NoError(t, ss.stream.ReportEvent(`{"type":"tab_switch"}`))
	got := <-ss.msgs
	require.Equal(t, "cheat", got["action"])
	require.Equal(t, `{"type":"tab_switch"}`, got["payload"])
}
