// Package orchestration bridges one telephony media stream to one realtime
// speech model session for the lifetime of a call.
package orchestration

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ermissa/adastra-basic-ai-assistant/core/conversation"
	"github.com/ermissa/adastra-basic-ai-assistant/core/events"
	"github.com/ermissa/adastra-basic-ai-assistant/core/realtime"
	"github.com/ermissa/adastra-basic-ai-assistant/core/session"
	"github.com/ermissa/adastra-basic-ai-assistant/core/telephony"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const unknownCaller = "Unknown"

// Orchestrator owns a single call. Telephony events are fed in through
// HandleEvent; upstream events are consumed by a background listener.
type Orchestrator struct {
	telephony Telephony
	upstream  Upstream
	registry  *session.Registry

	logic         ConversationLogic
	recorder      EventRecorder
	terminator    CallTerminator
	eventHandlers []eventEmitter

	instructions        string
	greeting            string
	interruptions       bool
	maxCallDuration     time.Duration
	watchdogJoinTimeout time.Duration
	listenerJoinTimeout time.Duration
	hangupGrace         time.Duration
	sendFailureLimit    int32
	baseContext         context.Context

	phase         atomic.Int32
	latestMediaMs atomic.Int64
	sendFailures  atomic.Int32
	forwardErrors atomic.Int32
	droppedLogged atomic.Bool

	// mu guards the call identity, the background tasks and the end reason.
	mu           sync.Mutex
	callSID      string
	streamSID    string
	callerNumber string
	startedAt    time.Time
	endedBy      Reason
	listener     *task
	watchdog     *task
	hangup       *task

	playbackMu sync.Mutex
	playback   playback

	telephonyCloseOnce sync.Once
	emergencyOnce      sync.Once
	releaseOnce        sync.Once
	transcript         string
	done               chan struct{}

	metrics callMetrics
}

func New(telephony Telephony, upstream Upstream, registry *session.Registry, opts ...OrchestratorOption) *Orchestrator {
	if registry == nil {
		registry = session.NewRegistry()
	}

	o := &Orchestrator{
		telephony:           telephony,
		upstream:            upstream,
		registry:            registry,
		interruptions:       true,
		maxCallDuration:     DefaultMaxCallDuration,
		watchdogJoinTimeout: DefaultWatchdogJoinTimeout,
		listenerJoinTimeout: DefaultListenerJoinTimeout,
		hangupGrace:         DefaultHangupGrace,
		sendFailureLimit:    DefaultSendFailureLimit,
		baseContext:         context.Background(),
		done:                make(chan struct{}),
		metrics:             newCallMetrics(),
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

func (o *Orchestrator) Phase() Phase { return Phase(o.phase.Load()) }

// Done is closed once the call has been fully torn down.
func (o *Orchestrator) Done() <-chan struct{} { return o.done }

// EndedBy reports why the call ended. Empty while the call is running.
func (o *Orchestrator) EndedBy() Reason {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.endedBy
}

func (o *Orchestrator) CallSID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.callSID
}

func (o *Orchestrator) streamID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.streamSID
}

// HandleEvent dispatches one inbound telephony event. Events arriving after
// shutdown began are dropped. A dispatch error tears the call down through
// the emergency path and is returned to the caller.
func (o *Orchestrator) HandleEvent(ctx context.Context, event telephony.Event) (err error) {
	if o.Phase() >= PhaseShuttingDown {
		if o.droppedLogged.CompareAndSwap(false, true) {
			logger.InfoContext(ctx, "dropping telephony events, call is shutting down",
				"call_sid", o.CallSID(), "event", string(event.Type()))
		}
		return nil
	}

	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("panic while handling %s event: %v", event.Type(), recovered)
		}
		if err != nil {
			o.abort(ctx, err)
		}
	}()

	switch typedEvent := event.(type) {
	case *telephony.Connected:
		logger.DebugContext(ctx, "telephony stream connected")
		return nil
	case *telephony.Start:
		return o.start(ctx, typedEvent)
	case *telephony.Media:
		return o.handleMedia(ctx, typedEvent)
	case *telephony.Mark:
		o.acknowledgeMark(ctx, typedEvent)
		return nil
	case *telephony.Stop:
		_ = o.Shutdown(ctx, ReasonTelephonyStop)
		return nil
	default:
		logger.DebugContext(ctx, "ignoring telephony event", "event", string(event.Type()))
		return nil
	}
}

func (o *Orchestrator) start(ctx context.Context, start *telephony.Start) error {
	if !o.phase.CompareAndSwap(int32(PhaseIdle), int32(PhaseStarting)) {
		logger.WarnContext(ctx, "ignoring repeated start event", "call_sid", start.CallSID)
		return nil
	}

	ctx, span := tracer.Start(ctx, "start call")
	defer span.End()
	span.SetAttributes(attribute.String("call.sid", start.CallSID), attribute.String("stream.sid", start.StreamSID))

	callerNumber := start.CustomParameters[telephony.ParameterCallerNumber]
	if callerNumber == "" {
		callerNumber = unknownCaller
	}
	greeting := o.greeting
	if firstMessage := start.CustomParameters[telephony.ParameterFirstMessage]; firstMessage != "" {
		greeting = firstMessage
	}

	o.mu.Lock()
	o.callSID = start.CallSID
	o.streamSID = start.StreamSID
	o.callerNumber = callerNumber
	o.startedAt = time.Now()
	o.mu.Unlock()

	o.registry.Create(start.CallSID)
	_ = o.registry.SetStreamSID(start.CallSID, start.StreamSID)
	_ = o.registry.SetCallerNumber(start.CallSID, callerNumber)
	_ = o.registry.SetParam(start.CallSID, "caller_number", callerNumber)
	if o.logic != nil {
		o.logic.Bind("caller_number", callerNumber)
	}

	handle, err := o.upstream.Connect(ctx)
	if err != nil {
		err = fmt.Errorf("failed to connect upstream: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	_ = o.registry.SetUpstreamHandle(start.CallSID, session.UpstreamHandle{ID: handle.ID, ConnectedAt: handle.ConnectedAt})

	o.mu.Lock()
	if o.Phase() >= PhaseShuttingDown {
		o.mu.Unlock()
		o.upstream.ForceClose()
		logger.InfoContext(ctx, "call ended while starting", "call_sid", start.CallSID)
		return nil
	}
	o.listener = startTask(o.baseContext, "upstream listener", o.listen)
	o.watchdog = startTask(o.baseContext, "call watchdog", o.watch)
	o.mu.Unlock()

	instructions, tools := o.sessionState(ctx)
	config := realtime.SessionConfig{Instructions: instructions, Tools: tools, Greeting: greeting}
	if err := o.upstream.SendSessionConfig(ctx, config); err != nil {
		err = fmt.Errorf("failed to configure upstream session: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	o.phase.CompareAndSwap(int32(PhaseStarting), int32(PhaseActive))
	o.metrics.started.Add(ctx, 1)
	logger.InfoContext(ctx, "call started",
		"call_sid", start.CallSID, "stream_sid", start.StreamSID, "caller", callerNumber, "upstream", handle.ID)
	o.record(ctx, "start", start.Raw())
	o.emit(events.NewCallStarted(start.CallSID, start.StreamSID, callerNumber))

	return nil
}

func (o *Orchestrator) sessionState(ctx context.Context) (string, []conversation.Tool) {
	if o.logic == nil {
		return o.instructions, nil
	}
	return o.logic.Session(ctx)
}

// handleMedia forwards caller audio upstream. Single write failures are
// logged; repeated ones end the call.
func (o *Orchestrator) handleMedia(ctx context.Context, media *telephony.Media) error {
	if o.Phase() == PhaseIdle {
		logger.DebugContext(ctx, "ignoring media before stream start")
		return nil
	}

	o.latestMediaMs.Store(media.TimestampMs)

	if err := o.upstream.ForwardAudio(ctx, media.Payload); err != nil {
		failures := o.forwardErrors.Add(1)
		if failures >= o.sendFailureLimit {
			return fmt.Errorf("failed to forward audio %d times in a row: %w", failures, err)
		}
		logger.WarnContext(ctx, "failed to forward audio", "call_sid", o.CallSID(), "error", err)
		return nil
	}
	o.forwardErrors.Store(0)

	return nil
}
