package orchestration

import (
	"context"
	"time"
)

// watch ends the call once the maximum call duration has passed.
func (o *Orchestrator) watch(ctx context.Context) error {
	timer := time.NewTimer(o.maxCallDuration)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil
	case <-timer.C:
	}

	logger.InfoContext(ctx, "maximum call duration reached", "call_sid", o.CallSID(), "limit", o.maxCallDuration)
	o.shutdownAsync(ctx, ReasonTimeout)
	return nil
}
