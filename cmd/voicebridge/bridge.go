package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	orchestration "github.com/ermissa/adastra-basic-ai-assistant/core"
	"github.com/ermissa/adastra-basic-ai-assistant/core/conversation"
	"github.com/ermissa/adastra-basic-ai-assistant/core/conversation/flows"
	"github.com/ermissa/adastra-basic-ai-assistant/core/eventlog"
	"github.com/ermissa/adastra-basic-ai-assistant/core/events"
	"github.com/ermissa/adastra-basic-ai-assistant/core/notify"
	"github.com/ermissa/adastra-basic-ai-assistant/core/realtime/openai"
	"github.com/ermissa/adastra-basic-ai-assistant/core/session"
	"github.com/ermissa/adastra-basic-ai-assistant/core/telephony/twilio"
	"github.com/ermissa/adastra-basic-ai-assistant/internal/config"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	readHeaderTimeout   = 10 * time.Second
	notifyTimeout       = 10 * time.Second
	recorderDrainPeriod = 5 * time.Second

	defaultInstructions = "You are Sofi, a friendly phone assistant for a pizza restaurant. " +
		"Keep answers short and ask one question at a time."
)

type bridge struct {
	cfg        *config.Config
	registry   *session.Registry
	recorder   *eventlog.Buffered
	postgres   *eventlog.PostgresStore
	notifier   *notify.Telegram
	terminator orchestration.CallTerminator
	language   conversation.Language

	mu    sync.Mutex
	calls map[*orchestration.Orchestrator]struct{}

	notifications sync.WaitGroup
}

func newBridge(ctx context.Context, cfg *config.Config) (*bridge, error) {
	b := &bridge{
		cfg:      cfg,
		registry: session.NewRegistry(),
		calls:    map[*orchestration.Orchestrator]struct{}{},
		language: conversation.DefaultLanguage,
	}

	if lang, ok := conversation.ParseLanguage(cfg.DefaultLanguage); ok {
		b.language = lang
	} else {
		logger.WarnContext(ctx, "unknown default language, using english", "language", cfg.DefaultLanguage)
	}

	var store eventlog.Recorder = eventlog.NewMemoryStore()
	if cfg.DatabaseURL != "" {
		postgres, err := eventlog.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx); err != nil {
			postgres.Close()
			return nil, err
		}
		b.postgres = postgres
		store = postgres
	}
	b.recorder = eventlog.NewBuffered(store, cfg.EventQueueSize)

	if cfg.NotificationsEnabled() {
		b.notifier = notify.NewTelegram(cfg.TelegramBotToken, cfg.TelegramChatIDs)
	}
	if cfg.CallControlEnabled() {
		b.terminator = twilio.NewRESTClient(cfg.TwilioAccountSID, cfg.TwilioAuthToken)
	}

	return b, nil
}

func (b *bridge) routes() http.Handler {
	router := mux.NewRouter()
	router.Use(loggingMiddleware)

	incoming := twilio.NewIncomingCallHandler(
		twilio.WithPublicHost(b.cfg.PublicHost),
		twilio.WithGreeting(b.cfg.Greeting),
	)
	mediaStream := twilio.NewMediaStreamHandler(b.newSession)

	router.Handle("/incoming-call", incoming).Methods(http.MethodPost)
	router.Handle("/ws/media-stream", mediaStream).Methods(http.MethodGet)
	router.Handle("/ws/media-stream/", mediaStream).Methods(http.MethodGet)
	router.HandleFunc("/healthz", b.health).Methods(http.MethodGet)

	return otelhttp.NewHandler(router, "voicebridge")
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.DebugContext(r.Context(), "request", "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr)
		next.ServeHTTP(w, r)
	})
}

func (b *bridge) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":       "ok",
		"active_calls": b.registry.Len(),
	})
}

// newSession builds the orchestrator for one media stream.
func (b *bridge) newSession(ctx context.Context, conn *twilio.Conn) (twilio.Session, error) {
	fsm := conversation.NewFSM(flows.Order(),
		conversation.WithLanguage(b.language),
		conversation.WithParams(flows.OrderParams("Unknown")),
	)
	logic := conversation.NewLogic(fsm,
		conversation.WithPredicates(flows.OrderPredicates()),
		conversation.WithDefaultInstructions(defaultInstructions),
	)

	upstream := openai.NewClient(
		openai.WithAPIKey(b.cfg.OpenAIAPIKey),
		openai.WithURL(b.cfg.RealtimeURL),
		openai.WithModel(b.cfg.RealtimeModel),
		openai.WithVoice(b.cfg.Voice),
		openai.WithEagerness(b.cfg.VADEagerness),
		openai.WithTemperature(b.cfg.Temperature),
	)

	opts := []orchestration.OrchestratorOption{
		orchestration.WithConversationLogic(logic),
		orchestration.WithInstructions(defaultInstructions),
		orchestration.WithGreeting(b.cfg.Greeting),
		orchestration.WithMaxCallDuration(b.cfg.MaxCallDuration),
		orchestration.WithHangupGrace(b.cfg.HangupGrace),
		orchestration.WithInterruptions(b.cfg.Interruptions),
		orchestration.WithEventRecorder(b.recorder),
		orchestration.WithEventCallbacks(orchestration.EventCallbacks{
			OnCallEnded: b.callEnded,
		}),
	}
	if b.terminator != nil {
		opts = append(opts, orchestration.WithCallTerminator(b.terminator))
	}

	call := orchestration.New(conn, upstream, b.registry, opts...)
	b.track(call)

	return call, nil
}

func (b *bridge) track(call *orchestration.Orchestrator) {
	b.mu.Lock()
	b.calls[call] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-call.Done()
		b.mu.Lock()
		delete(b.calls, call)
		b.mu.Unlock()
	}()
}

// callEnded forwards the transcript of a finished call to the notifier.
func (b *bridge) callEnded(event events.CallEnded) {
	if b.notifier == nil {
		return
	}

	b.notifications.Add(1)
	go func() {
		defer b.notifications.Done()

		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		sent, err := b.notifier.Send(ctx, formatCallSummary(event))
		if err != nil {
			logger.WarnContext(ctx, "failed to send call summary", "call_sid", event.CallSID(), "sent", sent, "error", err)
		}
	}()
}

func formatCallSummary(event events.CallEnded) string {
	var summary strings.Builder
	fmt.Fprintf(&summary, "Call %s ended (%s)\n", event.CallSID(), event.Reason)
	fmt.Fprintf(&summary, "Caller: %s\n", event.CallerNumber)
	fmt.Fprintf(&summary, "Duration: %s\n", event.Duration.Round(time.Second))
	if event.Transcript != "" {
		summary.WriteString("\n")
		summary.WriteString(event.Transcript)
	}
	return summary.String()
}

// endCalls shuts down calls still running when the server stops.
func (b *bridge) endCalls(ctx context.Context) {
	b.mu.Lock()
	calls := make([]*orchestration.Orchestrator, 0, len(b.calls))
	for call := range b.calls {
		calls = append(calls, call)
	}
	b.mu.Unlock()

	var wg sync.WaitGroup
	for _, call := range calls {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := call.Close(ctx); err != nil {
				logger.WarnContext(ctx, "failed to end call", "call_sid", call.CallSID(), "error", err)
			}
		}()
	}
	wg.Wait()
}

func (b *bridge) close() {
	b.notifications.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), recorderDrainPeriod)
	defer cancel()
	if err := b.recorder.Close(ctx); err != nil {
		logger.WarnContext(ctx, "event log not fully drained", "error", err)
	}
	if b.postgres != nil {
		b.postgres.Close()
	}
}
