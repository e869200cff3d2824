package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"interview-evaluator-service/internal/config"
	"interview-evaluator-service/internal/models"
	"interview-evaluator-service/internal/observability/logging"
)

const (
	maxAudioFrameBytes = 1 << 20
	writeWait          = 10 * time.Second
	closeWait          = time.Second
)

// ErrTextFrame ends a session whose client sent a text frame instead of audio.
var ErrTextFrame = errors.New("unexpected text frame on audio stream")

var upgrader = websocket.Upgrader{
	ReadBufferSize:  16 << 10,
	WriteBufferSize: 4 << 10,
	// Browser clients are served from a different origin.
	CheckOrigin: func(*http.Request) bool { return true },
}

func (h *handlers) transcribe(w http.ResponseWriter, r *http.Request) {
	logger := logging.WithRequest(middleware.GetReqID(r.Context()), "/ws/transcribe")

	if h.deps.Transcriber == nil {
		writeError(w, http.StatusServiceUnavailable, KindConfiguration,
			&config.ConfigurationError{Setting: "STT_PROVIDER", Reason: "transcription is not configured"})
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already answered the client.
		logger.Info().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	stats := h.deps.Transcriber.Run(r.Context(), newWSConn(ws))

	logger.Info().
		Str("sessionId", stats.SessionID).
		Str("state", stats.State.String()).
		Int64("segments", stats.Segments).
		Msg("WebSocket session closed")
}

// wsConn adapts a WebSocket to relay.Conn. Binary frames carry audio;
// transcripts and errors go out as JSON text frames.
type wsConn struct {
	ws        *websocket.Conn
	writeMu   sync.Mutex
	closeOnce sync.Once
}

func newWSConn(ws *websocket.Conn) *wsConn {
	ws.SetReadLimit(maxAudioFrameBytes)
	return &wsConn{ws: ws}
}

func (c *wsConn) ReadAudio(ctx context.Context) ([]byte, error) {
	stop := context.AfterFunc(ctx, func() { _ = c.Close() })
	defer stop()

	messageType, data, err := c.ws.ReadMessage()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	if messageType != websocket.BinaryMessage {
		return nil, ErrTextFrame
	}
	return data, nil
}

func (c *wsConn) SendTranscript(ctx context.Context, text string) error {
	return c.writeJSON(models.TranscriptFrame{Transcript: text})
}

func (c *wsConn) SendError(ctx context.Context, message string) error {
	return c.writeJSON(models.ErrorFrame{Error: message})
}

func (c *wsConn) writeJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteJSON(v)
}

// Close sends a normal close frame and tears down the connection. Idempotent.
func (c *wsConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWait))
		err = c.ws.Close()
	})
	return err
}
