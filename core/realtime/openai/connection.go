package openai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ermissa/adastra-basic-ai-assistant/core/realtime"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Connect opens a new realtime connection, closing any previous one first.
// On failure the client is left without a connection.
func (c *Client) Connect(ctx context.Context) (realtime.Handle, error) {
	ctx, span := tracer.Start(ctx, "connect realtime")
	defer span.End()
	span.SetAttributes(attribute.String("realtime.model", c.model))

	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			logger.WarnContext(ctx, "failed to close previous realtime connection", "error", err)
		}
		c.conn, c.handle = nil, nil
	}

	endpoint, err := c.endpoint()
	if err != nil {
		err = &realtime.ConnectionError{URL: c.baseURL, Err: err}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return realtime.Handle{}, err
	}
	if c.apiKey == "" {
		err = &realtime.ConnectionError{URL: endpoint, Err: errors.New("openai api key not found")}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return realtime.Handle{}, err
	}

	conn, resp, err := c.dialer.DialContext(ctx, endpoint, c.headers())
	if err != nil {
		connErr := &realtime.ConnectionError{URL: endpoint, Err: err}
		if resp != nil {
			connErr.StatusCode = resp.StatusCode
		}
		span.RecordError(connErr)
		span.SetStatus(codes.Error, connErr.Error())
		return realtime.Handle{}, connErr
	}

	c.conn = conn
	c.handle = &realtime.Handle{ID: uuid.NewString(), ConnectedAt: time.Now()}
	span.SetAttributes(attribute.String("realtime.handle", c.handle.ID))
	logger.InfoContext(ctx, "connected to realtime api", "handle", c.handle.ID, "model", c.model)

	return *c.handle, nil
}

// Close performs the websocket close handshake and drops the connection.
// The connection is dropped even when the handshake fails.
func (c *Client) Close() error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn == nil {
		return nil
	}
	conn := c.conn
	c.conn, c.handle = nil, nil

	var errs []error
	c.writeMu.Lock()
	if err := conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(closeTimeout),
	); err != nil {
		errs = append(errs, fmt.Errorf("failed to send close message: %w", err))
	}
	c.writeMu.Unlock()

	if err := conn.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
	}

	return errors.Join(errs...)
}

// ForceClose drops the connection without a handshake. It never fails.
func (c *Client) ForceClose() {
	defer func() {
		if recovered := recover(); recovered != nil {
			logger.Error("realtime force close panicked", "panic", recovered)
		}
	}()

	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn == nil {
		return
	}
	if err := c.conn.Close(); err != nil {
		logger.Warn("realtime force close failed", "error", err)
	}
	c.conn, c.handle = nil, nil
}

func (c *Client) writeJSON(ctx context.Context, message any) error {
	conn := c.current()
	if conn == nil {
		return realtime.ErrNotConnected
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Time{}
	}
	if err := conn.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}
	if err := conn.WriteJSON(message); err != nil {
		return fmt.Errorf("failed to write realtime message: %w", err)
	}
	return nil
}
