package orchestration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ermissa/adastra-basic-ai-assistant/core/events"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type Phase int32

const (
	PhaseIdle Phase = iota
	PhaseStarting
	PhaseActive
	PhaseShuttingDown
	PhaseClosed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseStarting:
		return "starting"
	case PhaseActive:
		return "active"
	case PhaseShuttingDown:
		return "shutting_down"
	case PhaseClosed:
		return "closed"
	default:
		return fmt.Sprintf("phase(%d)", int32(p))
	}
}

// Reason records what ended a call.
type Reason string

const (
	ReasonTelephonyStop       Reason = "telephony_stop"
	ReasonTelephonyDisconnect Reason = "telephony_disconnect"
	ReasonTimeout             Reason = "timeout"
	ReasonEndOfCall           Reason = "end_of_call"
	ReasonUpstreamClosed      Reason = "upstream_closed"
	ReasonError               Reason = "error"
)

const (
	emergencyJoinTimeout = time.Second
	terminateTimeout     = 5 * time.Second
)

// beginShutdown moves the call into the shutting down phase. Only the first
// caller wins and its reason is kept.
func (o *Orchestrator) beginShutdown(reason Reason) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	for {
		current := o.phase.Load()
		if Phase(current) >= PhaseShuttingDown {
			return false
		}
		if o.phase.CompareAndSwap(current, int32(PhaseShuttingDown)) {
			o.endedBy = reason
			return true
		}
	}
}

// Shutdown ends the call: it stops the watchdog, any pending hangup and the
// upstream listener, closes the upstream connection, drops the call from the
// registry and closes the telephony stream. Join timeouts and close failures
// fall through to the emergency path. Only the first call has an effect.
func (o *Orchestrator) Shutdown(ctx context.Context, reason Reason) error {
	if !o.beginShutdown(reason) {
		return nil
	}

	ctx, span := tracer.Start(ctx, "shutdown call")
	defer span.End()
	callSID := o.CallSID()
	span.SetAttributes(attribute.String("call.sid", callSID), attribute.String("call.end_reason", string(reason)))
	logger.InfoContext(ctx, "shutting down call", "call_sid", callSID, "reason", string(reason))

	o.mu.Lock()
	watchdog, hangup, listener := o.watchdog, o.hangup, o.listener
	o.mu.Unlock()

	var errs []error
	if err := watchdog.stop(o.watchdogJoinTimeout); err != nil {
		errs = append(errs, err)
	}
	if err := hangup.stop(o.watchdogJoinTimeout); err != nil {
		errs = append(errs, err)
	}
	if err := listener.stop(o.listenerJoinTimeout); err != nil {
		errs = append(errs, err)
	}
	if err := o.upstream.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close upstream: %w", err))
	}

	transcript := o.releaseSession()

	err := errors.Join(errs...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.WarnContext(ctx, "graceful shutdown incomplete, forcing cleanup", "call_sid", callSID, "error", err)
		o.emergencyCleanup(ctx)
	} else {
		o.closeTelephony(ctx)
	}

	if reason == ReasonEndOfCall {
		o.terminate(ctx, callSID)
	}

	o.finish(ctx, reason, transcript)
	return err
}

// Close shuts the call down as a telephony disconnect and waits for teardown
// to finish or ctx to expire.
func (o *Orchestrator) Close(ctx context.Context) error {
	err := o.Shutdown(ctx, ReasonTelephonyDisconnect)

	select {
	case <-o.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// abort tears the call down after an unrecoverable error.
func (o *Orchestrator) abort(ctx context.Context, cause error) {
	span := trace.SpanFromContext(ctx)
	span.RecordError(cause)
	span.SetStatus(codes.Error, cause.Error())
	logger.ErrorContext(ctx, "call failed", "call_sid", o.CallSID(), "error", cause)

	if !o.beginShutdown(ReasonError) {
		return
	}

	transcript := o.releaseSession()
	o.emergencyCleanup(ctx)
	o.finish(ctx, ReasonError, transcript)
}

// emergencyCleanup releases everything without waiting on the happy path. It
// runs at most once and never panics.
func (o *Orchestrator) emergencyCleanup(ctx context.Context) {
	o.emergencyOnce.Do(func() {
		defer func() {
			if recovered := recover(); recovered != nil {
				logger.ErrorContext(ctx, "emergency cleanup panicked", "panic", recovered)
			}
		}()

		o.mu.Lock()
		tasks := []*task{o.watchdog, o.hangup, o.listener}
		o.mu.Unlock()

		for _, t := range tasks {
			if t == nil {
				continue
			}
			t.cancel()
		}
		o.upstream.ForceClose()
		for _, t := range tasks {
			if err := t.stop(emergencyJoinTimeout); err != nil {
				logger.WarnContext(ctx, "task still running after emergency cleanup", "error", err)
			}
		}

		o.releaseSession()
		o.closeTelephony(ctx)
	})
}

// shutdownAsync runs Shutdown on its own goroutine so background tasks can
// end the call without waiting on themselves.
func (o *Orchestrator) shutdownAsync(ctx context.Context, reason Reason) {
	ctx = context.WithoutCancel(ctx)
	go func() {
		_ = o.Shutdown(ctx, reason)
	}()
}

func (o *Orchestrator) abortAsync(ctx context.Context, cause error) {
	ctx = context.WithoutCancel(ctx)
	go o.abort(ctx, cause)
}

// releaseSession removes the call from the registry and returns its
// transcript. The registry is touched once per call; later calls return the
// transcript captured by the first.
func (o *Orchestrator) releaseSession() string {
	o.releaseOnce.Do(func() {
		callSID := o.CallSID()
		if callSID == "" {
			return
		}
		if callSession, ok := o.registry.Get(callSID); ok {
			o.transcript = callSession.Transcript
		}
		o.registry.Delete(callSID)
	})
	return o.transcript
}

func (o *Orchestrator) closeTelephony(ctx context.Context) {
	o.telephonyCloseOnce.Do(func() {
		if err := o.telephony.Close(); err != nil {
			logger.WarnContext(ctx, "failed to close telephony stream", "call_sid", o.CallSID(), "error", err)
		}
	})
}

// terminate hangs the call up at the provider once the stream is gone.
func (o *Orchestrator) terminate(ctx context.Context, callSID string) {
	if o.terminator == nil || callSID == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), terminateTimeout)
	defer cancel()

	if err := o.terminator.EndCall(ctx, callSID); err != nil {
		logger.WarnContext(ctx, "failed to terminate call", "call_sid", callSID, "error", err)
	}
}

func (o *Orchestrator) finish(ctx context.Context, reason Reason, transcript string) {
	o.mu.Lock()
	callSID, callerNumber, startedAt := o.callSID, o.callerNumber, o.startedAt
	o.mu.Unlock()

	var duration time.Duration
	if !startedAt.IsZero() {
		duration = time.Since(startedAt)
	}

	o.metrics.ended.Add(ctx, 1, metric.WithAttributes(attribute.String("call.end_reason", string(reason))))
	logger.InfoContext(ctx, "call ended", "call_sid", callSID, "reason", string(reason), "duration", duration)
	o.emit(events.NewCallEnded(callSID, callerNumber, string(reason), duration, transcript))

	o.phase.Store(int32(PhaseClosed))
	close(o.done)
}
