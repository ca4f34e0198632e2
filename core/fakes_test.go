package orchestration

import (
	"context"
	"errors"
	"iter"
	"sync"
	"testing"
	"time"

	"github.com/ermissa/adastra-basic-ai-assistant/core/conversation"
	"github.com/ermissa/adastra-basic-ai-assistant/core/events"
	"github.com/ermissa/adastra-basic-ai-assistant/core/realtime"
	"github.com/ermissa/adastra-basic-ai-assistant/core/telephony"
)

type fakeTelephony struct {
	mu       sync.Mutex
	messages []telephony.OutboundMessage
	sendErr  error
	closes   int
}

func (f *fakeTelephony) Send(_ context.Context, message telephony.OutboundMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.sendErr != nil {
		return f.sendErr
	}
	f.messages = append(f.messages, message)
	return nil
}

func (f *fakeTelephony) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	return nil
}

func (f *fakeTelephony) sent() []telephony.OutboundMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]telephony.OutboundMessage(nil), f.messages...)
}

func (f *fakeTelephony) closeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closes
}

type truncateCall struct {
	itemID     string
	audioEndMs int64
}

type upstreamItem struct {
	event realtime.Event
	err   error
}

type fakeUpstream struct {
	mu          sync.Mutex
	connectErr  error
	closeErr    error
	forwardErr  error
	connects    int
	closes      int
	forceCloses int
	configs     []realtime.SessionConfig
	forwarded   []string
	truncates   []truncateCall
	outputs     []string
	responses   []string
	updates     []string

	stream chan upstreamItem
}

func newFakeUpstream() *fakeUpstream {
	return &fakeUpstream{stream: make(chan upstreamItem, 64)}
}

func (f *fakeUpstream) Connect(context.Context) (realtime.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.connects++
	if f.connectErr != nil {
		return realtime.Handle{}, f.connectErr
	}
	return realtime.Handle{ID: "rt-1", ConnectedAt: time.Now()}, nil
}

func (f *fakeUpstream) SendSessionConfig(_ context.Context, config realtime.SessionConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.configs = append(f.configs, config)
	return nil
}

func (f *fakeUpstream) UpdateSession(_ context.Context, instructions string, _ []conversation.Tool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, instructions)
	return nil
}

func (f *fakeUpstream) ForwardAudio(_ context.Context, payload string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.forwardErr != nil {
		return f.forwardErr
	}
	f.forwarded = append(f.forwarded, payload)
	return nil
}

func (f *fakeUpstream) Truncate(_ context.Context, itemID string, audioEndMs int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.truncates = append(f.truncates, truncateCall{itemID: itemID, audioEndMs: audioEndMs})
	return nil
}

func (f *fakeUpstream) SendFunctionCallOutput(_ context.Context, _ string, output string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outputs = append(f.outputs, output)
	return nil
}

func (f *fakeUpstream) CreateResponse(_ context.Context, instructions string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, instructions)
	return nil
}

func (f *fakeUpstream) Events(ctx context.Context) iter.Seq2[realtime.Event, error] {
	return func(yield func(realtime.Event, error) bool) {
		for {
			select {
			case <-ctx.Done():
				return
			case item, ok := <-f.stream:
				if !ok {
					return
				}
				if item.err != nil {
					yield(nil, item.err)
					return
				}
				if !yield(item.event, nil) {
					return
				}
			}
		}
	}
}

func (f *fakeUpstream) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	return f.closeErr
}

func (f *fakeUpstream) ForceClose() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forceCloses++
}

type upstreamCalls struct {
	connects    int
	closes      int
	forceCloses int
	configs     []realtime.SessionConfig
	forwarded   []string
	truncates   []truncateCall
	outputs     []string
	responses   []string
	updates     []string
}

func (f *fakeUpstream) snapshot() upstreamCalls {
	f.mu.Lock()
	defer f.mu.Unlock()
	return upstreamCalls{
		connects:    f.connects,
		closes:      f.closes,
		forceCloses: f.forceCloses,
		configs:     append([]realtime.SessionConfig(nil), f.configs...),
		forwarded:   append([]string(nil), f.forwarded...),
		truncates:   append([]truncateCall(nil), f.truncates...),
		outputs:     append([]string(nil), f.outputs...),
		responses:   append([]string(nil), f.responses...),
		updates:     append([]string(nil), f.updates...),
	}
}

func (f *fakeUpstream) push(t *testing.T, raw string) {
	t.Helper()

	event, err := realtime.Parse([]byte(raw))
	if err != nil {
		t.Fatalf("failed to parse realtime event: %v", err)
	}
	f.stream <- upstreamItem{event: event}
}

type fakeLogic struct {
	mu                sync.Mutex
	binds             map[string]string
	boundAtSession    bool
	handleFunctionRun func(ctx context.Context, call conversation.FunctionCall, ctl conversation.Control) error
}

func (f *fakeLogic) Session(context.Context) (string, []conversation.Tool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, f.boundAtSession = f.binds["caller_number"]
	return "scripted instructions", []conversation.Tool{{Name: conversation.ToolEndCall}}
}

func (f *fakeLogic) HandleFunctionCall(ctx context.Context, call conversation.FunctionCall, ctl conversation.Control) error {
	if f.handleFunctionRun == nil {
		return nil
	}
	return f.handleFunctionRun(ctx, call, ctl)
}

func (f *fakeLogic) Bind(key, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.binds == nil {
		f.binds = map[string]string{}
	}
	f.binds[key] = value
}

func (f *fakeLogic) StateName() string { return "entry" }

type fakeTerminator struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeTerminator) EndCall(_ context.Context, callSID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, callSID)
	return nil
}

func (f *fakeTerminator) ended() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type eventCollector struct {
	mu     sync.Mutex
	events []events.Event
}

func (c *eventCollector) handle(event events.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

func (c *eventCollector) ofKind(kind events.Kind) []events.Event {
	c.mu.Lock()
	defer c.mu.Unlock()

	var matched []events.Event
	for _, event := range c.events {
		if event.Kind() == kind {
			matched = append(matched, event)
		}
	}
	return matched
}

func telephonyEvent(t *testing.T, raw string) telephony.Event {
	t.Helper()

	event, err := telephony.Parse([]byte(raw))
	if err != nil {
		t.Fatalf("failed to parse telephony event: %v", err)
	}
	return event
}

func waitFor(t *testing.T, description string, condition func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", description)
}

func waitDone(t *testing.T, o *Orchestrator) {
	t.Helper()

	select {
	case <-o.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("expected call to finish, phase is %s", o.Phase())
	}
}

var errBoom = errors.New("boom")
