package orchestration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ermissa/adastra-basic-ai-assistant/core/conversation"
	"github.com/ermissa/adastra-basic-ai-assistant/core/events"
	"github.com/ermissa/adastra-basic-ai-assistant/core/realtime"
	"github.com/ermissa/adastra-basic-ai-assistant/core/telephony"
	"go.opentelemetry.io/otel/attribute"
)

const recordTimeout = 2 * time.Second

// listen consumes upstream events until the stream ends or ctx is cancelled.
// A clean end while the call is active shuts the call down; a stream error
// aborts it.
func (o *Orchestrator) listen(ctx context.Context) error {
	for event, err := range o.upstream.Events(ctx) {
		if err != nil {
			o.abortAsync(ctx, fmt.Errorf("upstream stream failed: %w", err))
			return err
		}

		if err := o.handleUpstreamEvent(ctx, event); err != nil {
			o.abortAsync(ctx, err)
			return err
		}
	}

	if ctx.Err() == nil && o.Phase() < PhaseShuttingDown {
		logger.InfoContext(ctx, "upstream closed the session", "call_sid", o.CallSID())
		o.shutdownAsync(ctx, ReasonUpstreamClosed)
	}

	return nil
}

func (o *Orchestrator) handleUpstreamEvent(ctx context.Context, event realtime.Event) error {
	switch typedEvent := event.(type) {
	case *realtime.AudioDelta:
		return o.relayAudio(ctx, typedEvent)
	case *realtime.SpeechStarted:
		return o.interrupt(ctx)
	case *realtime.FunctionCallArgumentsDone:
		o.handleFunctionCall(ctx, typedEvent)
	case *realtime.InputTranscriptionDone:
		o.appendTranscript(ctx, "user", typedEvent.Transcript)
		o.record(ctx, string(typedEvent.Type()), typedEvent.Raw())
	case *realtime.OutputTranscriptDone:
		o.appendTranscript(ctx, "assistant", typedEvent.Transcript)
		o.record(ctx, string(typedEvent.Type()), typedEvent.Raw())
	case *realtime.ResponseDone:
		o.playbackMu.Lock()
		o.playback.awaitingResponse = true
		o.playbackMu.Unlock()
		o.record(ctx, string(typedEvent.Type()), typedEvent.Raw())
	case *realtime.ResponseTextDone:
		o.playbackMu.Lock()
		o.playback.hasResponseStart = false
		o.playbackMu.Unlock()
		o.record(ctx, string(typedEvent.Type()), typedEvent.Raw())
	case *realtime.Error:
		logger.WarnContext(ctx, "upstream reported an error",
			"call_sid", o.CallSID(), "type", typedEvent.ErrorType, "code", typedEvent.Code, "message", typedEvent.Message)
		o.record(ctx, string(typedEvent.Type()), typedEvent.Raw())
	case *realtime.SessionCreated, *realtime.SessionUpdated:
		logger.DebugContext(ctx, "upstream session event", "event", string(event.Type()))
		o.record(ctx, string(event.Type()), event.Raw())
	default:
		logger.DebugContext(ctx, "ignoring upstream event", "event", string(event.Type()))
	}

	return nil
}

// relayAudio forwards one assistant audio chunk to telephony followed by a
// playback mark.
func (o *Orchestrator) relayAudio(ctx context.Context, delta *realtime.AudioDelta) error {
	streamSID := o.streamID()

	o.playbackMu.Lock()
	markName := o.playback.observe(delta.ItemID, o.latestMediaMs.Load())
	o.playbackMu.Unlock()

	if err := o.send(ctx, telephony.NewMedia(streamSID, delta.Delta)); err != nil {
		return err
	}
	o.metrics.relayed.Add(ctx, 1)

	return o.send(ctx, telephony.NewMark(streamSID, markName))
}

// send writes to telephony. Failures are tolerated until the configured
// number of consecutive failures is reached.
func (o *Orchestrator) send(ctx context.Context, message telephony.OutboundMessage) error {
	if err := o.telephony.Send(ctx, message); err != nil {
		o.metrics.sendFailures.Add(ctx, 1)
		failures := o.sendFailures.Add(1)
		if failures >= o.sendFailureLimit {
			return fmt.Errorf("failed to write to telephony %d times in a row: %w", failures, err)
		}
		logger.WarnContext(ctx, "failed to write to telephony", "call_sid", o.CallSID(), "error", err)
		return nil
	}

	o.sendFailures.Store(0)
	return nil
}

func (o *Orchestrator) handleFunctionCall(ctx context.Context, done *realtime.FunctionCallArgumentsDone) {
	ctx, span := tracer.Start(ctx, "handle upstream function call")
	defer span.End()
	span.SetAttributes(attribute.String("tool.name", done.Name), attribute.String("tool.call_id", done.CallID))

	callSID := o.CallSID()
	o.record(ctx, string(done.Type()), done.Raw())
	o.emit(events.NewToolCallStarted(callSID, done.CallID, done.Name, done.Arguments))

	if o.logic == nil {
		err := errors.New("no conversation logic configured")
		logger.WarnContext(ctx, "ignoring function call", "call_sid", callSID, "tool", done.Name, "error", err)
		o.emit(events.NewToolCallFailed(callSID, done.CallID, done.Name, err.Error()))
		return
	}

	call := conversation.FunctionCall{CallID: done.CallID, Name: done.Name, Arguments: done.Arguments}
	if err := o.logic.HandleFunctionCall(ctx, call, callControl{orchestrator: o}); err != nil {
		span.RecordError(err)
		logger.WarnContext(ctx, "function call failed", "call_sid", callSID, "tool", done.Name, "error", err)
		o.emit(events.NewToolCallFailed(callSID, done.CallID, done.Name, err.Error()))
		return
	}

	o.emit(events.NewToolCallCompleted(callSID, done.CallID, done.Name, o.logic.StateName()))
}

func (o *Orchestrator) appendTranscript(ctx context.Context, role, text string) {
	callSID := o.CallSID()
	if err := o.registry.AppendTranscript(callSID, role, text); err != nil {
		logger.DebugContext(ctx, "transcript not stored", "call_sid", callSID, "error", err)
	}
}

// record persists a raw event. Recorder failures never affect the call.
func (o *Orchestrator) record(ctx context.Context, eventName string, payload json.RawMessage) {
	if o.recorder == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, recordTimeout)
	defer cancel()

	if err := o.recorder.Record(ctx, o.CallSID(), eventName, payload); err != nil {
		logger.WarnContext(ctx, "failed to record event", "event", eventName, "error", err)
	}
}
