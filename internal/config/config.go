// Package config loads the bridge configuration from the environment. An
// optional dotenv file (ENV_FILE, default .env) fills in variables the
// process environment does not set.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr   string
	PublicHost string

	OpenAIAPIKey     string
	RealtimeURL      string
	RealtimeModel    string
	Voice            string
	VADEagerness     string
	Temperature      float64
	DefaultLanguage  string
	Greeting         string
	Interruptions    bool
	MaxCallDuration  time.Duration
	HangupGrace      time.Duration
	ShutdownTimeout  time.Duration
	EventQueueSize   int
	DatabaseURL      string
	TelegramBotToken string
	TelegramChatIDs  []string
	TwilioAccountSID string
	TwilioAuthToken  string
}

var ErrMissingAPIKey = errors.New("OPENAI_API_KEY is required")

func Load() (*Config, error) {
	if err := loadEnvFile(getEnv("ENV_FILE", ".env")); err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:         getEnv("HTTP_ADDR", ":8000"),
		PublicHost:       getEnv("PUBLIC_HOST", ""),
		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
		RealtimeURL:      getEnv("OPENAI_REALTIME_URL", "wss://api.openai.com/v1/realtime"),
		RealtimeModel:    getEnv("OPENAI_REALTIME_MODEL", "gpt-4o-mini-realtime-preview"),
		Voice:            getEnv("OPENAI_VOICE", "sage"),
		VADEagerness:     getEnv("VAD_EAGERNESS", "medium"),
		Temperature:      getEnvFloat("OPENAI_TEMPERATURE", 0.8),
		DefaultLanguage:  getEnv("DEFAULT_LANGUAGE", "en"),
		Greeting:         getEnv("GREETING", "Greet the caller and ask which language they prefer."),
		Interruptions:    getEnvBool("INTERRUPTIONS_ENABLED", true),
		MaxCallDuration:  getEnvDuration("MAX_CALL_DURATION", 120*time.Second),
		HangupGrace:      getEnvDuration("HANGUP_GRACE", 3*time.Second),
		ShutdownTimeout:  getEnvDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
		EventQueueSize:   getEnvInt("EVENT_QUEUE_SIZE", 256),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatIDs:  getEnvList("TELEGRAM_CHAT_IDS", nil),
		TwilioAccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
	}

	if cfg.OpenAIAPIKey == "" {
		return nil, ErrMissingAPIKey
	}
	return cfg, nil
}

// loadEnvFile applies path without overriding variables that are already
// set. A missing file is not an error.
func loadEnvFile(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load env file %s: %w", path, err)
}

func (c *Config) NotificationsEnabled() bool {
	return c.TelegramBotToken != "" && len(c.TelegramChatIDs) > 0
}

func (c *Config) CallControlEnabled() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != ""
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "true" || v == "1"
	}
	return def
}

// getEnvDuration accepts Go durations ("90s") or plain seconds ("90").
func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if seconds, err := strconv.Atoi(v); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return def
}

func getEnvList(key string, def []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if t := strings.TrimSpace(p); t != "" {
				result = append(result, t)
			}
		}
		return result
	}
	return def
}
