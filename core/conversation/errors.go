package conversation

import (
	"errors"
	"fmt"
)

var ErrNoPrompt = errors.New("no prompt configured")

// TemplateResolutionError is returned when a placeholder in a prompt or tool
// descriptor has no bound parameter.
type TemplateResolutionError struct {
	State    string
	Language Language
	Key      string
	Err      error
}

func (e *TemplateResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to resolve state %q (%s): %v", e.State, e.Language, e.Err)
	}
	return fmt.Sprintf("failed to resolve state %q (%s): missing parameter %q", e.State, e.Language, e.Key)
}

func (e *TemplateResolutionError) Unwrap() error { return e.Err }

// InvalidTransitionError is returned when a response token has no transition
// from the current state.
type InvalidTransitionError struct {
	State string
	Token string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("no transition from state %q for token %q", e.State, e.Token)
}

// FlowError reports an inconsistent flow definition.
type FlowError struct {
	State  string
	Reason string
}

func (e *FlowError) Error() string {
	if e.State == "" {
		return "invalid flow: " + e.Reason
	}
	return fmt.Sprintf("invalid flow at state %q: %s", e.State, e.Reason)
}
