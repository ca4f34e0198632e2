// Package twilio adapts Twilio voice calls to the bridge: the media stream
// websocket, the incoming call webhook and the REST call control.
package twilio

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/ermissa/adastra-basic-ai-assistant/core/telephony"
	"github.com/gorilla/websocket"
)

const defaultWriteTimeout = 5 * time.Second

// Session consumes the inbound events of one media stream.
type Session interface {
	HandleEvent(ctx context.Context, event telephony.Event) error
	Close(ctx context.Context) error
}

// Conn is the server side of one media stream websocket.
type Conn struct {
	ws           *websocket.Conn
	writeTimeout time.Duration

	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

func NewConn(ws *websocket.Conn) *Conn {
	return &Conn{ws: ws, writeTimeout: defaultWriteTimeout}
}

// Send writes one outbound message. Messages are written whole and in call
// order.
func (c *Conn) Send(ctx context.Context, message telephony.OutboundMessage) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.writeTimeout)
	}
	if err := c.ws.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}
	if err := c.ws.WriteJSON(message); err != nil {
		return fmt.Errorf("failed to write media stream message: %w", err)
	}
	return nil
}

// Close ends the websocket with a normal closure. Safe to call repeatedly.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		var errs []error
		c.writeMu.Lock()
		if err := c.ws.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		); err != nil && !errors.Is(err, websocket.ErrCloseSent) && !errors.Is(err, net.ErrClosed) {
			errs = append(errs, fmt.Errorf("failed to send close message: %w", err))
		}
		c.writeMu.Unlock()

		if err := c.ws.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			errs = append(errs, fmt.Errorf("failed to close media stream: %w", err))
		}
		c.closeErr = errors.Join(errs...)
	})
	return c.closeErr
}

// Serve reads events until the peer disconnects, the connection is closed or
// ctx is cancelled. A session error is returned and ends the stream.
// Malformed messages are logged and skipped.
func (c *Conn) Serve(ctx context.Context, session Session) error {
	stop := context.AfterFunc(ctx, func() {
		_ = c.ws.SetReadDeadline(time.Now())
	})
	defer stop()

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || isClosed(err) {
				return nil
			}
			return fmt.Errorf("failed to read media stream message: %w", err)
		}

		event, err := telephony.Parse(data)
		if err != nil {
			logger.WarnContext(ctx, "dropping malformed media stream message", "error", err)
			continue
		}

		if err := session.HandleEvent(ctx, event); err != nil {
			return fmt.Errorf("failed to handle %s event: %w", event.Type(), err)
		}
	}
}

func isClosed(err error) bool {
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) ||
		errors.Is(err, net.ErrClosed)
}
