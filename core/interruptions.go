package orchestration

import (
	"context"

	"github.com/ermissa/adastra-basic-ai-assistant/core/events"
	"github.com/ermissa/adastra-basic-ai-assistant/core/telephony"
	"go.opentelemetry.io/otel/attribute"
)

// interrupt handles caller speech over assistant audio. When playback marks
// are outstanding the active item is truncated at the point the caller
// heard, telephony drops its buffered audio and playback state is reset.
func (o *Orchestrator) interrupt(ctx context.Context) error {
	if !o.interruptions {
		return nil
	}

	o.playbackMu.Lock()
	if o.playback.marks.len() == 0 || !o.playback.hasResponseStart {
		o.playbackMu.Unlock()
		return nil
	}
	itemID := o.playback.activeItemID
	elapsedMs := o.latestMediaMs.Load() - o.playback.responseStartMs
	if elapsedMs < 0 {
		elapsedMs = 0
	}
	o.playback.reset()
	o.playbackMu.Unlock()

	ctx, span := tracer.Start(ctx, "barge in")
	defer span.End()
	span.SetAttributes(attribute.String("realtime.item_id", itemID), attribute.Int64("playback.elapsed_ms", elapsedMs))

	if itemID != "" {
		if err := o.upstream.Truncate(ctx, itemID, elapsedMs); err != nil {
			span.RecordError(err)
			logger.WarnContext(ctx, "failed to truncate interrupted item", "item_id", itemID, "error", err)
		}
	}
	if err := o.send(ctx, telephony.NewClear(o.streamID())); err != nil {
		return err
	}

	callSID := o.CallSID()
	o.metrics.bargeIns.Add(ctx, 1)
	logger.InfoContext(ctx, "caller interrupted playback", "call_sid", callSID, "item_id", itemID, "elapsed_ms", elapsedMs)
	o.emit(events.NewBargeIn(callSID, itemID, elapsedMs))

	return nil
}

// acknowledgeMark pops the oldest pending mark. Acks with nothing pending are
// ignored.
func (o *Orchestrator) acknowledgeMark(ctx context.Context, mark *telephony.Mark) {
	o.playbackMu.Lock()
	name, ok := o.playback.marks.pop()
	o.playbackMu.Unlock()

	if ok && name != mark.Name {
		logger.DebugContext(ctx, "mark acknowledged out of order", "expected", name, "got", mark.Name)
	}
}

func (o *Orchestrator) pendingMarks() int {
	o.playbackMu.Lock()
	defer o.playbackMu.Unlock()
	return o.playback.marks.len()
}
