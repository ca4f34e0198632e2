package realtime

import "github.com/ermissa/adastra-basic-ai-assistant/core/conversation"

// SessionConfig is the per-call configuration pushed before any audio.
type SessionConfig struct {
	Instructions string
	Tools        []conversation.Tool
	// Greeting seeds the conversation with a user turn so the model speaks
	// first. Empty skips the seed.
	Greeting string
}

type SessionUpdate struct {
	Type    string        `json:"type"`
	Session SessionParams `json:"session"`
}

type SessionParams struct {
	TurnDetection           *TurnDetection `json:"turn_detection,omitempty"`
	InputAudioFormat        string         `json:"input_audio_format,omitempty"`
	OutputAudioFormat       string         `json:"output_audio_format,omitempty"`
	Voice                   string         `json:"voice,omitempty"`
	Instructions            string         `json:"instructions,omitempty"`
	Modalities              []string       `json:"modalities,omitempty"`
	Temperature             float64        `json:"temperature,omitempty"`
	InputAudioTranscription *Transcription `json:"input_audio_transcription,omitempty"`
	Tools                   []Tool         `json:"tools"`
	ToolChoice              string         `json:"tool_choice,omitempty"`
}

type TurnDetection struct {
	Type              string `json:"type"`
	Eagerness         string `json:"eagerness,omitempty"`
	CreateResponse    bool   `json:"create_response"`
	InterruptResponse bool   `json:"interrupt_response"`
}

type Transcription struct {
	Model string `json:"model"`
}

type Tool struct {
	Type        string                       `json:"type"`
	Name        string                       `json:"name"`
	Description string                       `json:"description"`
	Parameters  conversation.ParameterSchema `json:"parameters"`
}

// Tools converts conversation tool descriptors to function tools. The result
// is never nil so an update clears previously offered tools.
func Tools(tools []conversation.Tool) []Tool {
	converted := make([]Tool, 0, len(tools))
	for _, tool := range tools {
		converted = append(converted, Tool{Type: "function", Name: tool.Name, Description: tool.Description, Parameters: tool.Parameters})
	}
	return converted
}

type ConversationItemCreate struct {
	Type string `json:"type"`
	Item Item   `json:"item"`
}

type Item struct {
	Type    string        `json:"type"`
	Role    string        `json:"role,omitempty"`
	Content []ContentPart `json:"content,omitempty"`
	CallID  string        `json:"call_id,omitempty"`
	Output  string        `json:"output,omitempty"`
}

type ContentPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type ResponseCreate struct {
	Type     string          `json:"type"`
	Response *ResponseParams `json:"response,omitempty"`
}

type ResponseParams struct {
	Instructions string `json:"instructions,omitempty"`
}

type InputAudioBufferAppend struct {
	Type  string `json:"type"`
	Audio string `json:"audio"`
}

type ConversationItemTruncate struct {
	Type         string `json:"type"`
	ItemID       string `json:"item_id"`
	ContentIndex int    `json:"content_index"`
	AudioEndMs   int64  `json:"audio_end_ms"`
}

func NewSessionUpdate(params SessionParams) SessionUpdate {
	if params.Tools == nil {
		params.Tools = []Tool{}
	}
	return SessionUpdate{Type: "session.update", Session: params}
}

func NewUserText(text string) ConversationItemCreate {
	return ConversationItemCreate{
		Type: "conversation.item.create",
		Item: Item{Type: "message", Role: "user", Content: []ContentPart{{Type: "input_text", Text: text}}},
	}
}

func NewFunctionCallOutput(callID, output string) ConversationItemCreate {
	return ConversationItemCreate{
		Type: "conversation.item.create",
		Item: Item{Type: "function_call_output", CallID: callID, Output: output},
	}
}

func NewResponseCreate(instructions string) ResponseCreate {
	message := ResponseCreate{Type: "response.create"}
	if instructions != "" {
		message.Response = &ResponseParams{Instructions: instructions}
	}
	return message
}

func NewAudioAppend(payload string) InputAudioBufferAppend {
	return InputAudioBufferAppend{Type: "input_audio_buffer.append", Audio: payload}
}

func NewTruncate(itemID string, audioEndMs int64) ConversationItemTruncate {
	return ConversationItemTruncate{Type: "conversation.item.truncate", ItemID: itemID, ContentIndex: 0, AudioEndMs: audioEndMs}
}
