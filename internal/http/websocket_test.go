package http

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"interview-evaluator-service/internal/models"
	"interview-evaluator-service/internal/observability/metrics"
	"interview-evaluator-service/internal/service/relay"
	"interview-evaluator-service/internal/service/stt"
	sttmock "interview-evaluator-service/internal/service/stt/mock"
)

var finalsOnly = []sttmock.SimulatedUtterance{
	{Final: "we start with a load balancer"},
	{Final: "then stateless API servers"},
	{Final: "then a Postgres primary"},
}

func dialTranscribe(t *testing.T, opts sttmock.Options) *websocket.Conn {
	t.Helper()
	m := metrics.NewMetrics(prometheus.NewRegistry())
	rl := relay.New(sttmock.New(opts), stt.DefaultConfig(), relay.WithMetrics(m))
	srv := httptest.NewServer(NewRouter(Dependencies{Transcriber: rl, Metrics: m}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/transcribe"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = ws.Close() })
	_ = ws.SetReadDeadline(time.Now().Add(5 * time.Second))
	return ws
}

func sendFrames(t *testing.T, ws *websocket.Conn, n int) {
	t.Helper()
	frame := make([]byte, 3200)
	for i := 0; i < n; i++ {
		if err := ws.WriteMessage(websocket.BinaryMessage, frame); err != nil {
			t.Fatalf("write frame %d: %v", i, err)
		}
	}
}

func TestTranscribe_StreamsSegmentsInOrder(t *testing.T) {
	ws := dialTranscribe(t, sttmock.Options{Utterances: finalsOnly, FramesPerResult: 2})

	sendFrames(t, ws, 6)

	for _, u := range finalsOnly {
		var frame models.TranscriptFrame
		if err := ws.ReadJSON(&frame); err != nil {
			t.Fatalf("read transcript: %v", err)
		}
		if frame.Transcript != u.Final {
			t.Errorf("expected %q, got %q", u.Final, frame.Transcript)
		}
	}

	// Client disconnect ends the session normally.
	_ = ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	if _, _, err := ws.ReadMessage(); err == nil {
		t.Error("expected the server to close the connection")
	}
}

func TestTranscribe_FailureSendsErrorFrameThenCloses(t *testing.T) {
	ws := dialTranscribe(t, sttmock.Options{Utterances: finalsOnly, FramesPerResult: 1, FailAfterFrames: 3})

	sendFrames(t, ws, 3)

	var got []map[string]string
	for {
		var msg map[string]string
		if err := ws.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				t.Fatalf("expected normal close, got %v", err)
			}
			break
		}
		got = append(got, msg)
	}

	if len(got) != 3 {
		t.Fatalf("expected 2 transcripts and 1 error, got %v", got)
	}
	if got[0]["transcript"] != finalsOnly[0].Final || got[1]["transcript"] != finalsOnly[1].Final {
		t.Errorf("unexpected transcripts %v", got[:2])
	}
	if !strings.Contains(got[2]["error"], "simulated transcription failure") {
		t.Errorf("expected error frame last, got %v", got[2])
	}
}

func TestTranscribe_TextFrameEndsSession(t *testing.T) {
	ws := dialTranscribe(t, sttmock.Options{Utterances: finalsOnly, FramesPerResult: 1})

	if err := ws.WriteMessage(websocket.TextMessage, []byte(`{"hello":1}`)); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, _, err := ws.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Errorf("expected normal close, got %v", err)
	}
}

func TestTranscribe_NotConfigured(t *testing.T) {
	h := newTestRouter(Dependencies{})
	rec := do(h, "GET", "/ws/transcribe", "")
	if rec.Code != 503 {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}
