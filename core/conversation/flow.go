package conversation

import "fmt"

// Flow is a validated, immutable table of conversation states.
type Flow struct {
	initial string
	states  map[string]*State
}

// NewFlow validates the state table: names are unique and non-empty, the
// initial state exists, and every transition, outcome, previous and fallback
// reference names a state or Terminal.
func NewFlow(initial string, states ...State) (*Flow, error) {
	flow := &Flow{initial: initial, states: make(map[string]*State, len(states))}
	for i := range states {
		state := states[i]
		if state.Name == "" {
			return nil, &FlowError{Reason: fmt.Sprintf("state %d has no name", i)}
		}
		if state.Name == Terminal {
			return nil, &FlowError{State: state.Name, Reason: "terminal marker used as a state name"}
		}
		if _, exists := flow.states[state.Name]; exists {
			return nil, &FlowError{State: state.Name, Reason: "duplicate state name"}
		}
		flow.states[state.Name] = &state
	}

	if _, ok := flow.states[initial]; !ok {
		return nil, &FlowError{State: initial, Reason: "initial state not defined"}
	}

	for name, state := range flow.states {
		if len(state.Prompts) == 0 {
			return nil, &FlowError{State: name, Reason: "no prompts"}
		}
		if state.Verification != nil {
			if len(state.Transitions) > 0 {
				return nil, &FlowError{State: name, Reason: "both static transitions and verification configured"}
			}
			if state.Verification.Predicate == "" || len(state.Verification.Outcomes) == 0 {
				return nil, &FlowError{State: name, Reason: "verification needs a predicate and outcomes"}
			}
		}
		for _, target := range state.targets() {
			if !flow.isTarget(target) {
				return nil, &FlowError{State: name, Reason: fmt.Sprintf("unknown transition target %q", target)}
			}
		}
		for _, ref := range []string{state.Previous, state.Fallback} {
			if ref != "" && !flow.isTarget(ref) {
				return nil, &FlowError{State: name, Reason: fmt.Sprintf("unknown back-reference %q", ref)}
			}
		}
	}

	return flow, nil
}

// MustFlow is NewFlow for static tables; it panics on an invalid table.
func MustFlow(initial string, states ...State) *Flow {
	flow, err := NewFlow(initial, states...)
	if err != nil {
		panic(err)
	}
	return flow
}

func (f *Flow) isTarget(name string) bool {
	if name == Terminal {
		return true
	}
	_, ok := f.states[name]
	return ok
}

func (f *Flow) Initial() string { return f.initial }

func (f *Flow) State(name string) (*State, bool) {
	state, ok := f.states[name]
	return state, ok
}

// StateNames returns the state names in no particular order.
func (f *Flow) StateNames() []string {
	names := make([]string, 0, len(f.states))
	for name := range f.states {
		names = append(names, name)
	}
	return names
}
