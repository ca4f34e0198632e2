package conversation

import (
	"errors"
	"testing"
)

func testFlow(t *testing.T) *Flow {
	t.Helper()

	flow, err := NewFlow("greet",
		State{
			Name:        "greet",
			Prompts:     map[Language]string{LanguageEnglish: "Hello {caller_number}", LanguageTurkish: "Merhaba {caller_number}"},
			Transitions: map[string]string{"order": "verify", "bye": Terminal},
		},
		State{
			Name:         "verify",
			Prompts:      map[Language]string{LanguageEnglish: "Checking"},
			Verification: &Verification{Predicate: "check", Outcomes: map[string]string{"ok": "done", "retry": "verify"}},
			Previous:     "greet",
			Fallback:     "greet",
		},
		State{
			Name:        "done",
			Prompts:     map[Language]string{LanguageEnglish: "Done"},
			Transitions: map[string]string{"bye": Terminal},
		},
	)
	if err != nil {
		t.Fatalf("expected valid flow, got %v", err)
	}
	return flow
}

func TestFSMAdvanceStatic(t *testing.T) {
	fsm := NewFSM(testFlow(t))

	if err := fsm.Advance("order"); err != nil {
		t.Fatalf("expected advance to succeed, got %v", err)
	}
	if got := fsm.StateName(); got != "verify" {
		t.Fatalf("expected verify, got %s", got)
	}
}

func TestFSMAdvanceUnknownTokenKeepsState(t *testing.T) {
	fsm := NewFSM(testFlow(t))

	err := fsm.Advance("pizza")

	var transitionErr *InvalidTransitionError
	if !errors.As(err, &transitionErr) {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}
	if transitionErr.State != "greet" || transitionErr.Token != "pizza" {
		t.Fatalf("expected error for greet/pizza, got %s/%s", transitionErr.State, transitionErr.Token)
	}
	if got := fsm.StateName(); got != "greet" {
		t.Fatalf("expected state unchanged, got %s", got)
	}
}

func TestFSMAdvanceDynamicUsesExplicitNext(t *testing.T) {
	fsm := NewFSM(testFlow(t))
	_ = fsm.Advance("order")

	if err := fsm.Advance("ignored", "done"); err != nil {
		t.Fatalf("expected explicit advance to succeed, got %v", err)
	}
	if got := fsm.StateName(); got != "done" {
		t.Fatalf("expected done, got %s", got)
	}
}

func TestFSMAdvanceDynamicWithoutNextFails(t *testing.T) {
	fsm := NewFSM(testFlow(t))
	_ = fsm.Advance("order")

	var transitionErr *InvalidTransitionError
	if err := fsm.Advance("ok"); !errors.As(err, &transitionErr) {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}
	if err := fsm.Advance("ok", "nowhere"); !errors.As(err, &transitionErr) {
		t.Fatalf("expected InvalidTransitionError for unknown target, got %v", err)
	}
	if got := fsm.StateName(); got != "verify" {
		t.Fatalf("expected state unchanged, got %s", got)
	}
}

func TestFSMTerminal(t *testing.T) {
	fsm := NewFSM(testFlow(t))

	if err := fsm.Advance("bye"); err != nil {
		t.Fatalf("expected advance to succeed, got %v", err)
	}
	if !fsm.Finished() {
		t.Fatalf("expected fsm to be finished")
	}
	if got := fsm.StateName(); got != "greet" {
		t.Fatalf("expected last state to stay current, got %s", got)
	}
}

func TestFSMGoBackAndFallback(t *testing.T) {
	fsm := NewFSM(testFlow(t))

	fsm.GoBack()
	if got := fsm.StateName(); got != "greet" {
		t.Fatalf("expected go back without previous to be a no-op, got %s", got)
	}

	_ = fsm.Advance("order")
	fsm.GoBack()
	if got := fsm.StateName(); got != "greet" {
		t.Fatalf("expected greet after go back, got %s", got)
	}

	_ = fsm.Advance("order")
	fsm.Fallback()
	if got := fsm.StateName(); got != "greet" {
		t.Fatalf("expected greet after fallback, got %s", got)
	}
}

func TestFSMCurrentInvalidatesCache(t *testing.T) {
	fsm := NewFSM(testFlow(t), WithParams(map[string]string{"caller_number": "+1"}))

	first, err := fsm.Current()
	if err != nil {
		t.Fatalf("expected render to succeed, got %v", err)
	}
	if first.Instructions != "Hello +1" {
		t.Fatalf("expected english greeting, got %q", first.Instructions)
	}

	fsm.SetLanguage(LanguageTurkish)
	second, _ := fsm.Current()
	if second.Instructions != "Merhaba +1" {
		t.Fatalf("expected turkish greeting after language change, got %q", second.Instructions)
	}

	fsm.Bind("caller_number", "+2")
	third, _ := fsm.Current()
	if third.Instructions != "Merhaba +2" {
		t.Fatalf("expected rebound parameter, got %q", third.Instructions)
	}
}

func TestFSMCurrentMissingParameter(t *testing.T) {
	fsm := NewFSM(testFlow(t))

	var resolutionErr *TemplateResolutionError
	if _, err := fsm.Current(); !errors.As(err, &resolutionErr) {
		t.Fatalf("expected TemplateResolutionError, got %v", err)
	}
}

func TestNewFlowRejectsUnknownTarget(t *testing.T) {
	_, err := NewFlow("a", State{
		Name:        "a",
		Prompts:     map[Language]string{LanguageEnglish: "a"},
		Transitions: map[string]string{"x": "missing"},
	})

	var flowErr *FlowError
	if !errors.As(err, &flowErr) {
		t.Fatalf("expected FlowError, got %v", err)
	}
	if flowErr.State != "a" {
		t.Fatalf("expected error at state a, got %q", flowErr.State)
	}
}

func TestNewFlowRejectsMixedPolicies(t *testing.T) {
	_, err := NewFlow("a", State{
		Name:         "a",
		Prompts:      map[Language]string{LanguageEnglish: "a"},
		Transitions:  map[string]string{"x": Terminal},
		Verification: &Verification{Predicate: "p", Outcomes: map[string]string{"ok": Terminal}},
	})

	var flowErr *FlowError
	if !errors.As(err, &flowErr) {
		t.Fatalf("expected FlowError, got %v", err)
	}
}

func TestNewFlowRejectsDuplicateAndMissingInitial(t *testing.T) {
	state := State{Name: "a", Prompts: map[Language]string{LanguageEnglish: "a"}}

	var flowErr *FlowError
	if _, err := NewFlow("a", state, state); !errors.As(err, &flowErr) {
		t.Fatalf("expected FlowError for duplicate, got %v", err)
	}
	if _, err := NewFlow("b", state); !errors.As(err, &flowErr) {
		t.Fatalf("expected FlowError for missing initial, got %v", err)
	}
}

func TestParseLanguage(t *testing.T) {
	cases := map[string]Language{"English": LanguageEnglish, "TR": LanguageTurkish, "du": LanguageDutch, " nederlands ": LanguageDutch}
	for input, want := range cases {
		got, ok := ParseLanguage(input)
		if !ok || got != want {
			t.Fatalf("expected %q to parse as %s, got %s (%t)", input, want, got, ok)
		}
	}
	if _, ok := ParseLanguage("klingon"); ok {
		t.Fatalf("expected unknown language to be rejected")
	}
}
