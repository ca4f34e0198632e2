package conversation

import (
	"errors"
	"testing"
)

type addressArgs struct {
	Address string `json:"address" jsonschema_description:"Address near {city}."`
	Mode    string `json:"mode" jsonschema:"enum=pickup,enum=delivery"`
}

func testState() *State {
	return &State{
		Name: "confirm",
		Prompts: map[Language]string{
			LanguageEnglish: "Confirm {item} for {caller_number}. Use {{braces}} literally.",
			LanguageTurkish: "{item} onaylayın.",
		},
		Tools:       []Tool{NewTool("confirm_{item}", "Confirm {item}.", addressArgs{})},
		Transitions: map[string]string{"yes": Terminal},
	}
}

func TestRenderResolvesPromptAndTools(t *testing.T) {
	state := testState()
	params := map[string]string{"item": "pizza", "caller_number": "+100", "city": "Ankara"}

	resolved, err := Render(state, params, LanguageEnglish)
	if err != nil {
		t.Fatalf("expected render to succeed, got %v", err)
	}
	if want := "Confirm pizza for +100. Use {braces} literally."; resolved.Instructions != want {
		t.Fatalf("expected %q, got %q", want, resolved.Instructions)
	}
	if len(resolved.Tools) != 1 {
		t.Fatalf("expected 1 tool, got %d", len(resolved.Tools))
	}
	tool := resolved.Tools[0]
	if tool.Name != "confirm_pizza" || tool.Description != "Confirm pizza." {
		t.Fatalf("expected resolved tool header, got %q / %q", tool.Name, tool.Description)
	}
	if got := tool.Parameters.Properties["address"].Description; got != "Address near Ankara." {
		t.Fatalf("expected resolved parameter description, got %q", got)
	}
}

func TestRenderNeverMutatesTemplate(t *testing.T) {
	state := testState()
	params := map[string]string{"item": "pizza", "caller_number": "+100", "city": "Ankara"}

	if _, err := Render(state, params, LanguageEnglish); err != nil {
		t.Fatalf("expected render to succeed, got %v", err)
	}

	if state.Tools[0].Name != "confirm_{item}" {
		t.Fatalf("expected template tool name untouched, got %q", state.Tools[0].Name)
	}
	if got := state.Tools[0].Parameters.Properties["address"].Description; got != "Address near {city}." {
		t.Fatalf("expected template parameter description untouched, got %q", got)
	}
}

func TestRenderMissingParameterFails(t *testing.T) {
	_, err := Render(testState(), map[string]string{"item": "pizza"}, LanguageEnglish)

	var resolutionErr *TemplateResolutionError
	if !errors.As(err, &resolutionErr) {
		t.Fatalf("expected TemplateResolutionError, got %v", err)
	}
	if resolutionErr.Key != "caller_number" {
		t.Fatalf("expected missing key caller_number, got %q", resolutionErr.Key)
	}
}

func TestRenderFallsBackToDefaultLanguage(t *testing.T) {
	params := map[string]string{"item": "pizza", "caller_number": "+100", "city": "Ankara"}

	resolved, err := Render(testState(), params, LanguageDutch)
	if err != nil {
		t.Fatalf("expected render to succeed, got %v", err)
	}
	if resolved.Instructions != "Confirm pizza for +100. Use {braces} literally." {
		t.Fatalf("expected english prompt for missing dutch prompt, got %q", resolved.Instructions)
	}
}

func TestRenderWithoutAnyPromptFails(t *testing.T) {
	state := &State{Name: "empty", Prompts: map[Language]string{LanguageTurkish: "merhaba"}}

	_, err := Render(state, nil, LanguageDutch)
	if !errors.Is(err, ErrNoPrompt) {
		t.Fatalf("expected ErrNoPrompt, got %v", err)
	}
}

func TestNewToolReflectsSchema(t *testing.T) {
	tool := NewTool("lookup", "Look up.", addressArgs{})

	if tool.Parameters.Type != "object" {
		t.Fatalf("expected object schema, got %q", tool.Parameters.Type)
	}
	mode, ok := tool.Parameters.Properties["mode"]
	if !ok {
		t.Fatalf("expected mode property")
	}
	if len(mode.Enum) != 2 || mode.Enum[0] != "pickup" || mode.Enum[1] != "delivery" {
		t.Fatalf("expected enum [pickup delivery], got %v", mode.Enum)
	}
	if mode.Type != "string" {
		t.Fatalf("expected string type, got %q", mode.Type)
	}
}

func TestNewToolWithoutParameters(t *testing.T) {
	tool := NewTool("hang_up", "Hang up.", nil)

	if len(tool.Parameters.Properties) != 0 {
		t.Fatalf("expected no properties, got %d", len(tool.Parameters.Properties))
	}
}
