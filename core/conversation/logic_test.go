package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
)

type recordingControl struct {
	mu            sync.Mutex
	updates       []string
	outputs       []string
	responses     int
	farewells     []string
	updateErr     error
	lastToolNames []string
}

func (c *recordingControl) UpdateSession(_ context.Context, instructions string, tools []Tool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updates = append(c.updates, instructions)
	c.lastToolNames = c.lastToolNames[:0]
	for _, tool := range tools {
		c.lastToolNames = append(c.lastToolNames, tool.Name)
	}
	return c.updateErr
}

func (c *recordingControl) SendFunctionCallOutput(_ context.Context, _ string, output string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outputs = append(c.outputs, output)
	return nil
}

func (c *recordingControl) CreateResponse(context.Context, string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.responses++
	return nil
}

func (c *recordingControl) EndCall(_ context.Context, farewell string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.farewells = append(c.farewells, farewell)
	return nil
}

func arguments(t *testing.T, args map[string]any) string {
	t.Helper()
	encoded, err := json.Marshal(args)
	if err != nil {
		t.Fatalf("expected arguments to encode, got %v", err)
	}
	return string(encoded)
}

func TestLogicStaticTransitionUpdatesSession(t *testing.T) {
	fsm := NewFSM(testFlow(t), WithParams(map[string]string{"caller_number": "+1"}))
	logic := NewLogic(fsm)
	control := &recordingControl{}

	err := logic.HandleFunctionCall(context.Background(), FunctionCall{CallID: "c1", Name: "answer", Arguments: arguments(t, map[string]any{"response": "ORDER"})}, control)
	if err != nil {
		t.Fatalf("expected function call to succeed, got %v", err)
	}
	if got := fsm.StateName(); got != "verify" {
		t.Fatalf("expected verify, got %s", got)
	}
	if len(control.updates) != 1 || control.updates[0] != "Checking" {
		t.Fatalf("expected session update with new prompt, got %v", control.updates)
	}
	if len(control.outputs) != 1 || control.responses != 1 {
		t.Fatalf("expected one output and one response, got %d/%d", len(control.outputs), control.responses)
	}
}

func TestLogicInvalidTokenIsAbsorbed(t *testing.T) {
	fsm := NewFSM(testFlow(t))
	logic := NewLogic(fsm)
	control := &recordingControl{}

	err := logic.HandleFunctionCall(context.Background(), FunctionCall{CallID: "c1", Name: "answer", Arguments: `{"response":"maybe"}`}, control)
	if err != nil {
		t.Fatalf("expected invalid token to be absorbed, got %v", err)
	}
	if got := fsm.StateName(); got != "greet" {
		t.Fatalf("expected state unchanged, got %s", got)
	}
	if len(control.updates) != 0 {
		t.Fatalf("expected no session update, got %v", control.updates)
	}
	if len(control.outputs) != 1 {
		t.Fatalf("expected error output to the model, got %v", control.outputs)
	}
}

func TestLogicPredicateOutcome(t *testing.T) {
	fsm := NewFSM(testFlow(t), WithParams(map[string]string{"caller_number": "+1"}))
	_ = fsm.Advance("order")
	logic := NewLogic(fsm, WithPredicates(map[string]Predicate{"check": ArgumentPredicate("result")}))
	control := &recordingControl{}

	err := logic.HandleFunctionCall(context.Background(), FunctionCall{CallID: "c1", Name: "check", Arguments: `{"result":"OK","item":"pizza"}`}, control)
	if err != nil {
		t.Fatalf("expected function call to succeed, got %v", err)
	}
	if got := fsm.StateName(); got != "done" {
		t.Fatalf("expected done, got %s", got)
	}
	if got := fsm.Params()["item"]; got != "pizza" {
		t.Fatalf("expected argument bound into params, got %q", got)
	}
}

func TestLogicMissingPredicateUsesFallback(t *testing.T) {
	fsm := NewFSM(testFlow(t), WithParams(map[string]string{"caller_number": "+1"}))
	_ = fsm.Advance("order")
	logic := NewLogic(fsm)
	control := &recordingControl{}

	if err := logic.HandleFunctionCall(context.Background(), FunctionCall{CallID: "c1", Name: "check"}, control); err != nil {
		t.Fatalf("expected function call to succeed, got %v", err)
	}
	if got := fsm.StateName(); got != "greet" {
		t.Fatalf("expected fallback to greet, got %s", got)
	}
}

func TestLogicTemplateMissUsesDefaultInstructions(t *testing.T) {
	fsm := NewFSM(testFlow(t))
	logic := NewLogic(fsm, WithDefaultInstructions("safe prompt"))

	instructions, tools := logic.Session(context.Background())
	if instructions != "safe prompt" || tools != nil {
		t.Fatalf("expected default instructions without tools, got %q %v", instructions, tools)
	}
}

func TestLogicEndCallTool(t *testing.T) {
	fsm := NewFSM(testFlow(t))
	fsm.SetLanguage(LanguageDutch)
	logic := NewLogic(fsm, WithFarewell(LanguageDutch, "tot ziens"))
	control := &recordingControl{}

	if err := logic.HandleFunctionCall(context.Background(), FunctionCall{CallID: "c1", Name: ToolEndCall}, control); err != nil {
		t.Fatalf("expected end call to succeed, got %v", err)
	}
	if len(control.farewells) != 1 || control.farewells[0] != "tot ziens" {
		t.Fatalf("expected dutch farewell, got %v", control.farewells)
	}
}

func TestLogicTerminalTransitionEndsCall(t *testing.T) {
	fsm := NewFSM(testFlow(t))
	logic := NewLogic(fsm)
	control := &recordingControl{}

	if err := logic.HandleFunctionCall(context.Background(), FunctionCall{CallID: "c1", Name: "answer", Arguments: `{"response":"bye"}`}, control); err != nil {
		t.Fatalf("expected function call to succeed, got %v", err)
	}
	if len(control.farewells) != 1 {
		t.Fatalf("expected end of call, got %v", control.farewells)
	}
	if len(control.updates) != 0 {
		t.Fatalf("expected no session update after terminal, got %v", control.updates)
	}
}

func TestLogicInvalidArguments(t *testing.T) {
	fsm := NewFSM(testFlow(t))
	logic := NewLogic(fsm)
	control := &recordingControl{}

	err := logic.HandleFunctionCall(context.Background(), FunctionCall{CallID: "c1", Name: "answer", Arguments: "{"}, control)
	if err == nil {
		t.Fatalf("expected decode error")
	}
	if len(control.outputs) != 1 {
		t.Fatalf("expected error output to the model, got %v", control.outputs)
	}
}

func TestLogicUpdateFailurePropagates(t *testing.T) {
	fsm := NewFSM(testFlow(t), WithParams(map[string]string{"caller_number": "+1"}))
	logic := NewLogic(fsm)
	sentinel := errors.New("socket gone")
	control := &recordingControl{updateErr: sentinel}

	err := logic.HandleFunctionCall(context.Background(), FunctionCall{CallID: "c1", Name: "answer", Arguments: `{"response":"order"}`}, control)
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected update error, got %v", err)
	}
}

func TestLanguagePredicate(t *testing.T) {
	fsm := NewFSM(testFlow(t))

	outcome, err := LanguagePredicate(context.Background(), map[string]any{"language": "Turkish"}, fsm)
	if err != nil || outcome != "selected" {
		t.Fatalf("expected selected, got %q (%v)", outcome, err)
	}
	if fsm.Language() != LanguageTurkish {
		t.Fatalf("expected turkish, got %s", fsm.Language())
	}

	outcome, _ = LanguagePredicate(context.Background(), map[string]any{}, fsm)
	if outcome != "unknown" {
		t.Fatalf("expected unknown, got %q", outcome)
	}
}
