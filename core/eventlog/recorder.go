// Package eventlog persists the notable upstream events of each call.
package eventlog

import (
	"context"
	"encoding/json"
	"slices"
	"sync"
	"time"
)

// Recorder stores one call event. Callers treat it as best effort.
type Recorder interface {
	Record(ctx context.Context, callID, eventName string, payload json.RawMessage) error
}

type Entry struct {
	CallID    string
	EventName string
	Payload   json.RawMessage
	CreatedAt time.Time
}

// MemoryStore keeps events in process. Used when no database is configured.
type MemoryStore struct {
	mu      sync.Mutex
	entries []Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Record(_ context.Context, callID, eventName string, payload json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, Entry{
		CallID:    callID,
		EventName: eventName,
		Payload:   slices.Clone(payload),
		CreatedAt: time.Now(),
	})
	return nil
}

// Entries returns the events of callID in record order.
func (s *MemoryStore) Entries(callID string) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	var entries []Entry
	for _, entry := range s.entries {
		if entry.CallID == callID {
			entries = append(entries, entry)
		}
	}
	return entries
}
