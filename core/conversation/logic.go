package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	// ToolEndCall ends the call after a spoken farewell.
	ToolEndCall = "end_call"
	// ResponseArgument carries the transition token for static states.
	ResponseArgument = "response"
)

// FunctionCall is a completed tool invocation from the speech model.
type FunctionCall struct {
	CallID    string
	Name      string
	Arguments string
}

// Control is the subset of a live call that conversation logic acts on.
type Control interface {
	UpdateSession(ctx context.Context, instructions string, tools []Tool) error
	SendFunctionCallOutput(ctx context.Context, callID, output string) error
	CreateResponse(ctx context.Context, instructions string) error
	EndCall(ctx context.Context, farewell string) error
}

// Predicate evaluates a verification step and returns an outcome token.
type Predicate func(ctx context.Context, args map[string]any, fsm *FSM) (string, error)

type Logic struct {
	fsm                 *FSM
	predicates          map[string]Predicate
	defaultInstructions string
	farewells           map[Language]string
}

type LogicOption func(*Logic)

func WithPredicates(predicates map[string]Predicate) LogicOption {
	return func(l *Logic) {
		for name, predicate := range predicates {
			l.predicates[name] = predicate
		}
	}
}

// WithDefaultInstructions sets the prompt used when the current state cannot
// be rendered.
func WithDefaultInstructions(instructions string) LogicOption {
	return func(l *Logic) {
		l.defaultInstructions = instructions
	}
}

func WithFarewell(lang Language, instructions string) LogicOption {
	return func(l *Logic) {
		l.farewells[lang] = instructions
	}
}

func NewLogic(fsm *FSM, opts ...LogicOption) *Logic {
	l := &Logic{
		fsm:                 fsm,
		predicates:          map[string]Predicate{"language": LanguagePredicate},
		defaultInstructions: "You are a helpful phone assistant. Keep answers short and ask the caller how you can help.",
		farewells: map[Language]string{
			LanguageEnglish: "Thank the caller and say goodbye.",
			LanguageTurkish: "Arayan kişiye teşekkür et ve vedalaş.",
			LanguageDutch:   "Bedank de beller en neem afscheid.",
		},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Logic) FSM() *FSM { return l.fsm }

func (l *Logic) StateName() string { return l.fsm.StateName() }

// Bind stores a parameter available to every prompt template.
func (l *Logic) Bind(key, value string) { l.fsm.Bind(key, value) }

// Session renders the current state. A template miss is absorbed: the
// default instructions are returned with no tools.
func (l *Logic) Session(ctx context.Context) (string, []Tool) {
	resolved, err := l.fsm.Current()
	if err != nil {
		logger.WarnContext(ctx, "falling back to default instructions", "state", l.fsm.StateName(), "error", err)
		return l.defaultInstructions, nil
	}
	return resolved.Instructions, resolved.Tools
}

// HandleFunctionCall binds the call arguments into the collected parameters,
// advances the state machine and pushes the new state to the model.
func (l *Logic) HandleFunctionCall(ctx context.Context, call FunctionCall, ctl Control) error {
	ctx, span := tracer.Start(ctx, "handle function call")
	defer span.End()
	span.SetAttributes(
		attribute.String("tool.name", call.Name),
		attribute.String("conversation.state", l.fsm.StateName()),
	)

	args := map[string]any{}
	if strings.TrimSpace(call.Arguments) != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			err = fmt.Errorf("failed to decode arguments of %s: %w", call.Name, err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return errors.Join(err, ctl.SendFunctionCallOutput(ctx, call.CallID, output("error", "invalid arguments")))
		}
	}
	for key, value := range args {
		if s, ok := stringify(value); ok {
			l.fsm.Bind(key, s)
		}
	}

	if call.Name == ToolEndCall {
		return l.endCall(ctx, call, ctl)
	}

	if err := l.transition(ctx, call.Name, args); err != nil {
		var transitionErr *InvalidTransitionError
		if !errors.As(err, &transitionErr) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
		logger.WarnContext(ctx, "rejected transition", "state", transitionErr.State, "token", transitionErr.Token)
		return ctl.SendFunctionCallOutput(ctx, call.CallID, output("error", "unexpected response, ask again"))
	}

	if l.fsm.Finished() {
		return l.endCall(ctx, call, ctl)
	}

	instructions, tools := l.Session(ctx)
	span.SetAttributes(attribute.String("conversation.next_state", l.fsm.StateName()))
	if err := ctl.UpdateSession(ctx, instructions, tools); err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	if err := ctl.SendFunctionCallOutput(ctx, call.CallID, output("state", l.fsm.StateName())); err != nil {
		return fmt.Errorf("failed to send function output: %w", err)
	}
	if err := ctl.CreateResponse(ctx, ""); err != nil {
		return fmt.Errorf("failed to request response: %w", err)
	}
	return nil
}

func (l *Logic) transition(ctx context.Context, toolName string, args map[string]any) error {
	predicateName, dynamic := l.fsm.Predicate()
	if !dynamic {
		token, _ := stringify(args[ResponseArgument])
		if token == "" {
			token = toolName
		}
		return l.fsm.Advance(strings.ToLower(token))
	}

	predicate, ok := l.predicates[predicateName]
	if !ok {
		logger.WarnContext(ctx, "unknown predicate, using fallback", "predicate", predicateName)
		l.fsm.Fallback()
		return nil
	}

	result, err := predicate(ctx, args, l.fsm)
	if err != nil {
		logger.WarnContext(ctx, "predicate failed, using fallback", "predicate", predicateName, "error", err)
		l.fsm.Fallback()
		return nil
	}

	next, ok := l.fsm.Outcome(result)
	if !ok {
		logger.InfoContext(ctx, "predicate outcome has no transition, using fallback", "predicate", predicateName, "outcome", result)
		l.fsm.Fallback()
		return nil
	}
	return l.fsm.Advance(result, next)
}

func (l *Logic) endCall(ctx context.Context, call FunctionCall, ctl Control) error {
	if err := ctl.SendFunctionCallOutput(ctx, call.CallID, output("status", "ending call")); err != nil {
		logger.WarnContext(ctx, "failed to acknowledge end of call", "error", err)
	}

	farewell, ok := l.farewells[l.fsm.Language()]
	if !ok {
		farewell = l.farewells[DefaultLanguage]
	}
	return ctl.EndCall(ctx, farewell)
}

// LanguagePredicate switches the conversation language from the "language"
// argument. Outcomes: "selected" or "unknown".
func LanguagePredicate(_ context.Context, args map[string]any, fsm *FSM) (string, error) {
	value, _ := stringify(args["language"])
	lang, ok := ParseLanguage(value)
	if !ok {
		return "unknown", nil
	}
	fsm.SetLanguage(lang)
	return "selected", nil
}

// ArgumentPredicate returns a predicate whose outcome is the lower-cased
// value of one argument, for steps where the model reports the result.
func ArgumentPredicate(key string) Predicate {
	return func(_ context.Context, args map[string]any, _ *FSM) (string, error) {
		value, ok := stringify(args[key])
		if !ok || value == "" {
			return "", fmt.Errorf("argument %q missing", key)
		}
		return strings.ToLower(value), nil
	}
}

func stringify(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case bool:
		return strconv.FormatBool(v), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := stringify(item); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", "), true
	}
	return "", false
}

func output(key, value string) string {
	encoded, _ := json.Marshal(map[string]string{key: value})
	return string(encoded)
}
