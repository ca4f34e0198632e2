package orchestration

import (
	"context"
	"time"

	"github.com/ermissa/adastra-basic-ai-assistant/core/conversation"
)

// callControl exposes the upstream session to the conversation logic.
type callControl struct {
	orchestrator *Orchestrator
}

var _ conversation.Control = callControl{}

func (c callControl) UpdateSession(ctx context.Context, instructions string, tools []conversation.Tool) error {
	return c.orchestrator.upstream.UpdateSession(ctx, instructions, tools)
}

func (c callControl) SendFunctionCallOutput(ctx context.Context, callID, output string) error {
	return c.orchestrator.upstream.SendFunctionCallOutput(ctx, callID, output)
}

func (c callControl) CreateResponse(ctx context.Context, instructions string) error {
	return c.orchestrator.upstream.CreateResponse(ctx, instructions)
}

// EndCall asks the model for the farewell and hangs up after the grace
// period.
func (c callControl) EndCall(ctx context.Context, farewell string) error {
	if err := c.orchestrator.upstream.CreateResponse(ctx, farewell); err != nil {
		return err
	}
	c.orchestrator.scheduleHangup()
	return nil
}

func (o *Orchestrator) scheduleHangup() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.hangup != nil || Phase(o.phase.Load()) >= PhaseShuttingDown {
		return
	}

	grace := o.hangupGrace
	o.hangup = startTask(o.baseContext, "hangup", func(ctx context.Context) error {
		timer := time.NewTimer(grace)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}

		o.shutdownAsync(ctx, ReasonEndOfCall)
		return nil
	})
}
