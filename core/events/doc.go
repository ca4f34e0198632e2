// Package events defines the typed call lifecycle events emitted by the
// orchestrator.
//
// Event kinds are grouped by receiver-facing namespaces:
//
//   - call.*
//   - playback.*
//   - tool_call.*
//
// call events
//
//   - CallStarted (call.started): the media stream started and the upstream
//     session was configured.
//   - CallEnded (call.ended): the call finished. Carries the end reason, the
//     call duration and the accumulated transcript.
//
// playback events
//
//   - BargeIn (playback.barge_in): the caller interrupted assistant audio
//     that was still playing. Carries the truncated item and the elapsed
//     playback time.
//
// tool_call events
//
//   - ToolCallStarted (tool_call.started): a function call arrived from the
//     model.
//   - ToolCallCompleted (tool_call.completed): the conversation logic handled
//     the call.
//   - ToolCallFailed (tool_call.failed): the conversation logic returned an
//     error.
package events
