// Package session keeps the per-call records of live calls.
package session

import (
	"errors"
	"fmt"
	"maps"
	"strings"
	"sync"
	"time"
)

var ErrNotFound = errors.New("call session not found")

// UpstreamHandle identifies the upstream realtime connection of a call.
type UpstreamHandle struct {
	ID          string
	ConnectedAt time.Time
}

type CallSession struct {
	CallSID      string
	StreamSID    string
	CallerNumber string
	Upstream     *UpstreamHandle
	Transcript   string
	Params       map[string]string
	StartedAt    time.Time
}

// Registry maps call identifiers to their sessions. Each call gets its own
// record; nothing is shared between calls.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*CallSession
}

func NewRegistry() *Registry {
	return &Registry{sessions: map[string]*CallSession{}}
}

// Create registers a fresh session, replacing any stale record for callSID.
func (r *Registry) Create(callSID string) CallSession {
	r.mu.Lock()
	defer r.mu.Unlock()

	session := &CallSession{CallSID: callSID, Params: map[string]string{}, StartedAt: time.Now()}
	r.sessions[callSID] = session
	return session.clone()
}

// Get returns a copy of the session record.
func (r *Registry) Get(callSID string) (CallSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[callSID]
	if !ok {
		return CallSession{}, false
	}
	return session.clone(), true
}

func (r *Registry) SetStreamSID(callSID, streamSID string) error {
	return r.update(callSID, func(s *CallSession) { s.StreamSID = streamSID })
}

func (r *Registry) SetCallerNumber(callSID, callerNumber string) error {
	return r.update(callSID, func(s *CallSession) { s.CallerNumber = callerNumber })
}

func (r *Registry) SetUpstreamHandle(callSID string, handle UpstreamHandle) error {
	return r.update(callSID, func(s *CallSession) { s.Upstream = &handle })
}

func (r *Registry) SetParam(callSID, key, value string) error {
	return r.update(callSID, func(s *CallSession) { s.Params[key] = value })
}

// AppendTranscript adds one "role: text" line to the call transcript.
func (r *Registry) AppendTranscript(callSID, role, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	return r.update(callSID, func(s *CallSession) {
		s.Transcript += role + ": " + text + "\n"
	})
}

// Delete removes the session and reports whether one was present.
func (r *Registry) Delete(callSID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[callSID]; !ok {
		return false
	}
	delete(r.sessions, callSID)
	return true
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *Registry) update(callSID string, apply func(*CallSession)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[callSID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, callSID)
	}
	apply(session)
	return nil
}

func (s *CallSession) clone() CallSession {
	clone := *s
	clone.Params = maps.Clone(s.Params)
	if s.Upstream != nil {
		handle := *s.Upstream
		clone.Upstream = &handle
	}
	return clone
}
