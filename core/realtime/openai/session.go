package openai

import (
	"context"
	"fmt"

	"github.com/ermissa/adastra-basic-ai-assistant/core/conversation"
	"github.com/ermissa/adastra-basic-ai-assistant/core/realtime"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// SendSessionConfig configures turn detection, codecs, voice, instructions
// and tools, optionally seeds a greeting turn, and requests the first
// response. It must precede any forwarded audio.
func (c *Client) SendSessionConfig(ctx context.Context, config realtime.SessionConfig) error {
	ctx, span := tracer.Start(ctx, "send session config")
	defer span.End()
	span.SetAttributes(
		attribute.Int("session.tools", len(config.Tools)),
		attribute.Bool("session.greeting", config.Greeting != ""),
	)

	format := c.session.encoding.RealtimeFormatName()
	update := realtime.NewSessionUpdate(realtime.SessionParams{
		TurnDetection: &realtime.TurnDetection{
			Type:              "semantic_vad",
			Eagerness:         c.session.eagerness,
			CreateResponse:    true,
			InterruptResponse: true,
		},
		InputAudioFormat:        format,
		OutputAudioFormat:       format,
		Voice:                   c.session.voice,
		Instructions:            config.Instructions,
		Modalities:              []string{"text", "audio"},
		Temperature:             c.session.temperature,
		InputAudioTranscription: &realtime.Transcription{Model: c.session.transcriptionModel},
		Tools:                   realtime.Tools(config.Tools),
		ToolChoice:              "auto",
	})

	if err := c.writeJSON(ctx, update); err != nil {
		err = fmt.Errorf("failed to send session update: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if config.Greeting != "" {
		if err := c.writeJSON(ctx, realtime.NewUserText(config.Greeting)); err != nil {
			err = fmt.Errorf("failed to send greeting: %w", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
	}

	if err := c.writeJSON(ctx, realtime.NewResponseCreate("")); err != nil {
		err = fmt.Errorf("failed to request initial response: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

// UpdateSession replaces the instructions and tools of a live session.
func (c *Client) UpdateSession(ctx context.Context, instructions string, tools []conversation.Tool) error {
	update := realtime.NewSessionUpdate(realtime.SessionParams{
		Instructions: instructions,
		Tools:        realtime.Tools(tools),
		ToolChoice:   "auto",
	})
	if err := c.writeJSON(ctx, update); err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	return nil
}

// ForwardAudio appends a base64 audio payload to the input buffer as is.
// An empty payload is skipped.
func (c *Client) ForwardAudio(ctx context.Context, payload string) error {
	if payload == "" {
		logger.WarnContext(ctx, "skipping empty audio payload")
		return nil
	}
	return c.writeJSON(ctx, realtime.NewAudioAppend(payload))
}

// Truncate cuts the assistant item at audioEndMs of played audio.
func (c *Client) Truncate(ctx context.Context, itemID string, audioEndMs int64) error {
	if audioEndMs < 0 {
		audioEndMs = 0
	}
	return c.writeJSON(ctx, realtime.NewTruncate(itemID, audioEndMs))
}

func (c *Client) SendFunctionCallOutput(ctx context.Context, callID, output string) error {
	return c.writeJSON(ctx, realtime.NewFunctionCallOutput(callID, output))
}

// CreateResponse requests a model response, with per-response instructions
// when instructions is not empty.
func (c *Client) CreateResponse(ctx context.Context, instructions string) error {
	return c.writeJSON(ctx, realtime.NewResponseCreate(instructions))
}
