// Package conversation drives a call through a table of prompt states.
//
// Templates live in an immutable Flow. Each call owns an FSM holding the
// current state, the active language and the parameters collected so far;
// Current renders the active state against them.
package conversation

import (
	"maps"
	"sync"
)

type FSM struct {
	flow *Flow

	mu       sync.Mutex
	current  *State
	finished bool
	language Language
	params   map[string]string
	cached   *ResolvedState
}

type FSMOption func(*FSM)

func WithLanguage(lang Language) FSMOption {
	return func(f *FSM) {
		f.language = lang
	}
}

func WithParams(params map[string]string) FSMOption {
	return func(f *FSM) {
		maps.Copy(f.params, params)
	}
}

func NewFSM(flow *Flow, opts ...FSMOption) *FSM {
	initial, _ := flow.State(flow.Initial())
	f := &FSM{
		flow:     flow,
		current:  initial,
		language: DefaultLanguage,
		params:   map[string]string{},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Current renders the active state. Renders are cached until the state,
// language or parameters change.
func (f *FSM) Current() (ResolvedState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.cached != nil {
		return *f.cached, nil
	}

	resolved, err := Render(f.current, f.params, f.language)
	if err != nil {
		return ResolvedState{}, err
	}
	f.cached = &resolved
	return resolved, nil
}

// Advance moves along the transition selected by token. For states with
// verification the token is ignored and explicitNext, chosen by the caller
// from the predicate outcome, is used instead. On error the current state is
// unchanged.
func (f *FSM) Advance(token string, explicitNext ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var next string
	if f.current.IsDynamic() {
		if len(explicitNext) == 0 || !f.flow.isTarget(explicitNext[0]) {
			return &InvalidTransitionError{State: f.current.Name, Token: token}
		}
		next = explicitNext[0]
	} else {
		var ok bool
		if next, ok = f.current.Transitions[token]; !ok {
			return &InvalidTransitionError{State: f.current.Name, Token: token}
		}
	}

	f.moveTo(next)
	return nil
}

// Outcome maps a predicate result for the current state to its next state.
func (f *FSM) Outcome(result string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.current.IsDynamic() {
		return "", false
	}
	next, ok := f.current.Verification.Outcomes[result]
	return next, ok
}

func (f *FSM) GoBack() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.current.Previous != "" {
		f.moveTo(f.current.Previous)
	}
}

func (f *FSM) Fallback() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.current.Fallback != "" {
		f.moveTo(f.current.Fallback)
	}
}

func (f *FSM) moveTo(name string) {
	if name == Terminal {
		f.finished = true
		return
	}
	state, _ := f.flow.State(name)
	f.current = state
	f.cached = nil
}

func (f *FSM) SetLanguage(lang Language) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.language != lang {
		f.language = lang
		f.cached = nil
	}
}

func (f *FSM) Language() Language {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.language
}

// Bind sets a collected parameter.
func (f *FSM) Bind(key, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if current, ok := f.params[key]; ok && current == value {
		return
	}
	f.params[key] = value
	f.cached = nil
}

// Params returns a copy of the collected parameters.
func (f *FSM) Params() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return maps.Clone(f.params)
}

func (f *FSM) StateName() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current.Name
}

// Finished reports whether a transition reached Terminal.
func (f *FSM) Finished() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.finished
}

// Predicate returns the verification predicate of the current state, if any.
func (f *FSM) Predicate() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.current.IsDynamic() {
		return "", false
	}
	return f.current.Verification.Predicate, true
}
