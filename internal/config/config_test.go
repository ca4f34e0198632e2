package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// unsetEnv removes key for the duration of the test.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("expected %s to be unset, got %v", key, err)
	}
}

func writeEnvFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bridge.env")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("expected env file to be written, got %v", err)
	}
	return path
}

func TestLoadReadsEnvFileWithoutOverriding(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-process")
	unsetEnv(t, "OPENAI_REALTIME_MODEL")
	t.Setenv("ENV_FILE", writeEnvFile(t, "OPENAI_API_KEY=sk-file\nOPENAI_REALTIME_MODEL=gpt-realtime\n"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected load to succeed, got %v", err)
	}
	if cfg.OpenAIAPIKey != "sk-process" {
		t.Fatalf("expected process env to win, got %q", cfg.OpenAIAPIKey)
	}
	if cfg.RealtimeModel != "gpt-realtime" {
		t.Fatalf("expected model from env file, got %q", cfg.RealtimeModel)
	}
}

func TestLoadIgnoresMissingEnvFile(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))

	if _, err := Load(); err != nil {
		t.Fatalf("expected missing env file to be ignored, got %v", err)
	}
}

func TestLoadRejectsMalformedEnvFile(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("ENV_FILE", writeEnvFile(t, "OPENAI-VOICE=sage\n"))

	if _, err := Load(); err == nil {
		t.Fatalf("expected malformed env file to fail")
	}
}

func TestLoadRequiresAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	if _, err := Load(); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("MAX_CALL_DURATION", "")
	t.Setenv("TELEGRAM_CHAT_IDS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected config to load, got %v", err)
	}
	if cfg.MaxCallDuration != 120*time.Second {
		t.Fatalf("expected 120s call ceiling, got %s", cfg.MaxCallDuration)
	}
	if cfg.Voice != "sage" || cfg.VADEagerness != "medium" {
		t.Fatalf("expected default voice and eagerness, got %s %s", cfg.Voice, cfg.VADEagerness)
	}
	if !cfg.Interruptions {
		t.Fatalf("expected interruptions enabled by default")
	}
	if cfg.NotificationsEnabled() {
		t.Fatalf("expected notifications disabled without telegram settings")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("MAX_CALL_DURATION", "90")
	t.Setenv("HANGUP_GRACE", "500ms")
	t.Setenv("INTERRUPTIONS_ENABLED", "false")
	t.Setenv("TELEGRAM_BOT_TOKEN", "bot")
	t.Setenv("TELEGRAM_CHAT_IDS", "1, 2,,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected config to load, got %v", err)
	}
	if cfg.MaxCallDuration != 90*time.Second {
		t.Fatalf("expected 90s, got %s", cfg.MaxCallDuration)
	}
	if cfg.HangupGrace != 500*time.Millisecond {
		t.Fatalf("expected 500ms, got %s", cfg.HangupGrace)
	}
	if cfg.Interruptions {
		t.Fatalf("expected interruptions disabled")
	}
	if len(cfg.TelegramChatIDs) != 2 || !cfg.NotificationsEnabled() {
		t.Fatalf("expected two chat ids and notifications enabled, got %v", cfg.TelegramChatIDs)
	}
}
