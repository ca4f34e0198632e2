package orchestration

import "github.com/ermissa/adastra-basic-ai-assistant/core/events"

type eventEmitter func(events.Event)

func newCallbackEventEmitter(callbacks EventCallbacks) eventEmitter {
	return func(event events.Event) {
		switch typedEvent := event.(type) {
		case events.CallStarted:
			if callbacks.OnCallStarted != nil {
				callbacks.OnCallStarted(typedEvent)
			}
		case events.CallEnded:
			if callbacks.OnCallEnded != nil {
				callbacks.OnCallEnded(typedEvent)
			}
		case events.BargeIn:
			if callbacks.OnBargeIn != nil {
				callbacks.OnBargeIn(typedEvent)
			}
		case events.ToolCallStarted:
			if callbacks.OnToolCallStarted != nil {
				callbacks.OnToolCallStarted(typedEvent)
			}
		case events.ToolCallCompleted:
			if callbacks.OnToolCallCompleted != nil {
				callbacks.OnToolCallCompleted(typedEvent)
			}
		case events.ToolCallFailed:
			if callbacks.OnToolCallFailed != nil {
				callbacks.OnToolCallFailed(typedEvent)
			}
		}
	}
}

// emit delivers an event to every handler. A panicking handler is logged and
// does not affect the call.
func (o *Orchestrator) emit(event events.Event) {
	for _, handler := range o.eventHandlers {
		func() {
			defer func() {
				if recovered := recover(); recovered != nil {
					logger.Error("event handler panicked", "event", string(event.Kind()), "panic", recovered)
				}
			}()
			handler(event)
		}()
	}
}
