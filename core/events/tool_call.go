package events

const (
	// KindToolCallStarted identifies a function call received from the model.
	KindToolCallStarted Kind = "tool_call.started"
	// KindToolCallCompleted identifies a handled function call.
	KindToolCallCompleted Kind = "tool_call.completed"
	// KindToolCallFailed identifies a function call the logic could not handle.
	KindToolCallFailed Kind = "tool_call.failed"
)

// ToolCallStarted marks a function call before the conversation logic runs.
type ToolCallStarted struct {
	Base
	ID        string
	Name      string
	Arguments string
}

// NewToolCallStarted creates a tool call started event.
func NewToolCallStarted(callSID, id, name, arguments string) ToolCallStarted {
	return ToolCallStarted{Base: NewBase(KindToolCallStarted, callSID), ID: id, Name: name, Arguments: arguments}
}

// ToolCallCompleted marks a function call the logic handled. State is the
// conversation state after the call.
type ToolCallCompleted struct {
	Base
	ID      string
	Name    string
	State   string
}

// NewToolCallCompleted creates a tool call completed event.
func NewToolCallCompleted(callSID, id, name, state string) ToolCallCompleted {
	return ToolCallCompleted{Base: NewBase(KindToolCallCompleted, callSID), ID: id, Name: name, State: state}
}

// ToolCallFailed marks a function call that returned an error.
type ToolCallFailed struct {
	Base
	ID      string
	Name    string
	Error   string
}

// NewToolCallFailed creates a tool call failed event.
func NewToolCallFailed(callSID, id, name, err string) ToolCallFailed {
	return ToolCallFailed{Base: NewBase(KindToolCallFailed, callSID), ID: id, Name: name, Error: err}
}
