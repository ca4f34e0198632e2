package realtime

import (
	"errors"
	"fmt"
	"time"
)

var ErrNotConnected = errors.New("realtime connection not open")

// ConnectionError reports that the realtime endpoint could not be reached or
// rejected the credentials.
type ConnectionError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *ConnectionError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("failed to connect to %s (status %d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("failed to connect to %s: %v", e.URL, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// Handle identifies one established realtime connection.
type Handle struct {
	ID          string
	ConnectedAt time.Time
}
