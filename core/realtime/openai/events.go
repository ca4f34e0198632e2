package openai

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net"
	"time"

	"github.com/ermissa/adastra-basic-ai-assistant/core/realtime"
	"github.com/gorilla/websocket"
)

// Events streams parsed messages from the connection that is open when
// iteration starts. Iteration ends when the connection closes or ctx is
// cancelled; ctx is checked before each message is handed out. Abnormal
// closures are yielded as errors.
func (c *Client) Events(ctx context.Context) iter.Seq2[realtime.Event, error] {
	return func(yield func(realtime.Event, error) bool) {
		conn := c.current()
		if conn == nil {
			yield(nil, realtime.ErrNotConnected)
			return
		}

		stop := context.AfterFunc(ctx, func() {
			_ = conn.SetReadDeadline(time.Now())
		})
		defer stop()

		for {
			if ctx.Err() != nil {
				return
			}

			_, data, err := conn.ReadMessage()
			if err != nil {
				if ctx.Err() != nil || isClosed(err) {
					return
				}
				yield(nil, fmt.Errorf("failed to read realtime message: %w", err))
				return
			}

			if ctx.Err() != nil {
				return
			}

			event, err := realtime.Parse(data)
			if err != nil {
				logger.WarnContext(ctx, "dropping malformed realtime message", "error", err)
				continue
			}
			if !yield(event, nil) {
				return
			}
		}
	}
}

func isClosed(err error) bool {
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) ||
		errors.Is(err, net.ErrClosed)
}
