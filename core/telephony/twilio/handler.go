package twilio

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/codes"
)

const sessionCloseTimeout = 30 * time.Second

// SessionFactory creates the session serving one media stream.
type SessionFactory func(ctx context.Context, conn *Conn) (Session, error)

// MediaStreamHandler upgrades media stream requests and runs one session per
// connection. The session is always closed when the stream ends.
type MediaStreamHandler struct {
	upgrader   websocket.Upgrader
	newSession SessionFactory
}

type MediaStreamOption func(*MediaStreamHandler)

func WithUpgrader(upgrader websocket.Upgrader) MediaStreamOption {
	return func(h *MediaStreamHandler) {
		h.upgrader = upgrader
	}
}

func NewMediaStreamHandler(newSession SessionFactory, opts ...MediaStreamOption) *MediaStreamHandler {
	h := &MediaStreamHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		newSession: newSession,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *MediaStreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "media stream")
	defer span.End()

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.ErrorContext(ctx, "failed to upgrade media stream", "error", err)
		return
	}
	conn := NewConn(ws)
	defer func() {
		if err := conn.Close(); err != nil {
			logger.WarnContext(ctx, "failed to close media stream", "error", err)
		}
	}()

	session, err := h.newSession(ctx, conn)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.ErrorContext(ctx, "failed to create call session", "error", err)
		return
	}

	if err := conn.Serve(ctx, session); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.ErrorContext(ctx, "media stream ended with error", "error", err)
	}

	closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sessionCloseTimeout)
	defer cancel()
	if err := session.Close(closeCtx); err != nil {
		logger.WarnContext(ctx, "failed to close call session", "error", err)
	}
}
