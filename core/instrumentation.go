package orchestration

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const scopeName = "github.com/ermissa/adastra-basic-ai-assistant/core"

var (
	tracer = otel.Tracer(scopeName)
	meter  = otel.Meter(scopeName)
	logger = otelslog.NewLogger(scopeName)
)

type callMetrics struct {
	started      metric.Int64Counter
	ended        metric.Int64Counter
	bargeIns     metric.Int64Counter
	relayed      metric.Int64Counter
	sendFailures metric.Int64Counter
}

func newCallMetrics() callMetrics {
	var m callMetrics
	m.started, _ = meter.Int64Counter("calls.started", metric.WithDescription("Calls whose upstream session was configured"))
	m.ended, _ = meter.Int64Counter("calls.ended", metric.WithDescription("Finished calls by end reason"))
	m.bargeIns, _ = meter.Int64Counter("calls.barge_ins", metric.WithDescription("Assistant playback interrupted by the caller"))
	m.relayed, _ = meter.Int64Counter("calls.audio_chunks_relayed", metric.WithDescription("Assistant audio chunks sent to telephony"))
	m.sendFailures, _ = meter.Int64Counter("calls.telephony_send_failures", metric.WithDescription("Failed writes to the telephony stream"))
	return m
}
