package orchestration

import (
	"context"
	"encoding/json"
	"iter"
	"time"

	"github.com/ermissa/adastra-basic-ai-assistant/core/conversation"
	"github.com/ermissa/adastra-basic-ai-assistant/core/events"
	"github.com/ermissa/adastra-basic-ai-assistant/core/realtime"
	"github.com/ermissa/adastra-basic-ai-assistant/core/telephony"
)

const (
	DefaultMaxCallDuration     = 120 * time.Second
	DefaultWatchdogJoinTimeout = 2 * time.Second
	DefaultListenerJoinTimeout = 5 * time.Second
	DefaultHangupGrace         = 3 * time.Second
	DefaultSendFailureLimit    = 3
)

// Telephony is the outbound half of a media stream.
type Telephony interface {
	Send(ctx context.Context, message telephony.OutboundMessage) error
	Close() error
}

// Upstream is a realtime speech model connection.
type Upstream interface {
	Connect(ctx context.Context) (realtime.Handle, error)
	SendSessionConfig(ctx context.Context, config realtime.SessionConfig) error
	UpdateSession(ctx context.Context, instructions string, tools []conversation.Tool) error
	ForwardAudio(ctx context.Context, payload string) error
	Truncate(ctx context.Context, itemID string, audioEndMs int64) error
	SendFunctionCallOutput(ctx context.Context, callID, output string) error
	CreateResponse(ctx context.Context, instructions string) error
	Events(ctx context.Context) iter.Seq2[realtime.Event, error]
	Close() error
	ForceClose()
}

// ConversationLogic drives the call script. *conversation.Logic implements it.
type ConversationLogic interface {
	Session(ctx context.Context) (instructions string, tools []conversation.Tool)
	HandleFunctionCall(ctx context.Context, call conversation.FunctionCall, ctl conversation.Control) error
	Bind(key, value string)
	StateName() string
}

// CallTerminator hangs up a call at the telephony provider.
type CallTerminator interface {
	EndCall(ctx context.Context, callSID string) error
}

// EventRecorder persists raw call events.
type EventRecorder interface {
	Record(ctx context.Context, callID, eventName string, payload json.RawMessage) error
}

// EventCallbacks are typed hooks for call lifecycle events. Nil callbacks are
// skipped.
type EventCallbacks struct {
	OnCallStarted       func(events.CallStarted)
	OnCallEnded         func(events.CallEnded)
	OnBargeIn           func(events.BargeIn)
	OnToolCallStarted   func(events.ToolCallStarted)
	OnToolCallCompleted func(events.ToolCallCompleted)
	OnToolCallFailed    func(events.ToolCallFailed)
}

type OrchestratorOption func(*Orchestrator)

// WithConversationLogic sets the scripted conversation. Without it the call
// runs on the static instructions.
func WithConversationLogic(logic ConversationLogic) OrchestratorOption {
	return func(o *Orchestrator) {
		o.logic = logic
	}
}

// WithInstructions sets the instructions used when no conversation logic is
// configured.
func WithInstructions(instructions string) OrchestratorOption {
	return func(o *Orchestrator) {
		o.instructions = instructions
	}
}

// WithGreeting sets the opening user turn. A firstMessage stream parameter
// overrides it per call.
func WithGreeting(greeting string) OrchestratorOption {
	return func(o *Orchestrator) {
		o.greeting = greeting
	}
}

func WithMaxCallDuration(duration time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		if duration > 0 {
			o.maxCallDuration = duration
		}
	}
}

// WithJoinTimeouts bounds how long shutdown waits for the watchdog and the
// upstream listener to stop.
func WithJoinTimeouts(watchdog, listener time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		if watchdog > 0 {
			o.watchdogJoinTimeout = watchdog
		}
		if listener > 0 {
			o.listenerJoinTimeout = listener
		}
	}
}

// WithHangupGrace sets the delay between the farewell and the hangup.
func WithHangupGrace(grace time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		if grace >= 0 {
			o.hangupGrace = grace
		}
	}
}

func WithCallTerminator(terminator CallTerminator) OrchestratorOption {
	return func(o *Orchestrator) {
		o.terminator = terminator
	}
}

func WithEventRecorder(recorder EventRecorder) OrchestratorOption {
	return func(o *Orchestrator) {
		o.recorder = recorder
	}
}

// WithInterruptions toggles barge-in handling. Enabled by default.
func WithInterruptions(enabled bool) OrchestratorOption {
	return func(o *Orchestrator) {
		o.interruptions = enabled
	}
}

// WithSendFailureLimit sets how many consecutive telephony write failures
// end the call.
func WithSendFailureLimit(limit int) OrchestratorOption {
	return func(o *Orchestrator) {
		if limit > 0 {
			o.sendFailureLimit = int32(limit)
		}
	}
}

// WithEventHandler receives every lifecycle event.
func WithEventHandler(handler func(events.Event)) OrchestratorOption {
	return func(o *Orchestrator) {
		o.eventHandlers = append(o.eventHandlers, handler)
	}
}

func WithEventCallbacks(callbacks EventCallbacks) OrchestratorOption {
	return func(o *Orchestrator) {
		o.eventHandlers = append(o.eventHandlers, newCallbackEventEmitter(callbacks))
	}
}

// WithBaseContext sets the parent context of the background tasks.
func WithBaseContext(ctx context.Context) OrchestratorOption {
	return func(o *Orchestrator) {
		if ctx != nil {
			o.baseContext = ctx
		}
	}
}
