package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/avvvet/voicebuddy-actions/internal/actions"
	"github.com/avvvet/voicebuddy-actions/internal/models"
)

type Config struct {
	// NATS configuration
	NatsURL               string
	NatsTimeout           time.Duration
	NatsCallStartSubject  string
	NatsCallEndSubject    string
	NatsSchemasSubject    string
	NatsInvokeSubject     string
	NatsSMSSubject        string
	NatsCallSubjectPrefix string        // Speak and hangup go to <prefix>.<session>.speak|hangup
	NatsQueueGroup        string
	SideEffectTimeout     time.Duration // Upper bound for speak, hangup and SMS replies
	ActionTimeout         time.Duration // Upper bound for one dispatched action

	// Redis configuration
	RedisURL   string
	SessionTTL time.Duration

	// Call defaults
	Languages   models.LanguageConfig
	ProsodyRate float64
	BotName     string
	BotCompany  string
	SlotsFile   string

	// Service configuration
	ServiceName string
	LogLevel    string
	MetricsAddr string
}

func Load() (*Config, error) {
	cfg := &Config{
		// NATS settings
		NatsURL:               getEnv("NATS_URL", "nats://localhost:4222"),
		NatsTimeout:           getDurationEnv("NATS_TIMEOUT", 30*time.Second),
		NatsCallStartSubject:  getEnv("NATS_CALL_START_SUBJECT", "calls.start"),
		NatsCallEndSubject:    getEnv("NATS_CALL_END_SUBJECT", "calls.end"),
		NatsSchemasSubject:    getEnv("NATS_SCHEMAS_SUBJECT", "actions.schemas"),
		NatsInvokeSubject:     getEnv("NATS_INVOKE_SUBJECT", "actions.invoke"),
		NatsSMSSubject:        getEnv("NATS_SMS_SUBJECT", "sms.send"),
		NatsCallSubjectPrefix: getEnv("NATS_CALL_SUBJECT_PREFIX", "call"),
		NatsQueueGroup:        getEnv("NATS_QUEUE_GROUP", "voicebuddy-actions"),
		SideEffectTimeout:     getDurationEnv("SIDE_EFFECT_TIMEOUT", 20*time.Second),
		ActionTimeout:         getDurationEnv("ACTION_TIMEOUT", 60*time.Second),

		// Redis settings
		RedisURL:   getEnv("REDIS_URL", "redis://localhost:6379/0"),
		SessionTTL: getDurationEnv("SESSION_TTL", 2*time.Hour),

		// Call settings
		ProsodyRate: getFloatEnv("PROSODY_RATE", 1.0),
		BotName:     getEnv("BOT_NAME", "Amélie"),
		BotCompany:  getEnv("BOT_COMPANY", ""),
		SlotsFile:   getEnv("SLOTS_FILE", "config/slots.yaml"),

		// Service settings
		ServiceName: getEnv("SERVICE_NAME", "voicebuddy-actions"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		MetricsAddr: getEnv("METRICS_ADDR", ":9090"),
	}

	availables, err := ParseLanguages(getEnv("LANG_AVAILABLES", "fr-FR=Français|French,en-US=English,es-ES=Español|Spanish,de-DE=Deutsch|German"))
	if err != nil {
		return nil, err
	}
	cfg.Languages = models.LanguageConfig{
		DefaultShortCode: getEnv("LANG_DEFAULT", "fr-FR"),
		Availables:       availables,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that cannot be fixed at runtime
func (c *Config) Validate() error {
	if len(c.Languages.Availables) == 0 {
		return fmt.Errorf("LANG_AVAILABLES must list at least one language")
	}
	if _, ok := c.Languages.Find(c.Languages.DefaultShortCode); !ok {
		return fmt.Errorf("LANG_DEFAULT %q is not in LANG_AVAILABLES", c.Languages.DefaultShortCode)
	}
	if c.ProsodyRate < actions.MinSpeed || c.ProsodyRate > actions.MaxSpeed {
		return fmt.Errorf("PROSODY_RATE must be between %v and %v, got %v", actions.MinSpeed, actions.MaxSpeed, c.ProsodyRate)
	}
	if c.SideEffectTimeout <= 0 || c.ActionTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	return nil
}

// ParseLanguages reads "fr-FR=Français|French,en-US=English".
// Each short code needs at least one pronunciation.
func ParseLanguages(value string) ([]models.Language, error) {
	var languages []models.Language
	seen := make(map[string]bool)

	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		code, names, ok := strings.Cut(item, "=")
		code = strings.TrimSpace(code)
		if !ok || code == "" {
			return nil, fmt.Errorf("invalid language %q, expected code=pronunciation", item)
		}
		if seen[code] {
			return nil, fmt.Errorf("language %s listed twice", code)
		}
		seen[code] = true

		var pronunciations []string
		for _, name := range strings.Split(names, "|") {
			if name = strings.TrimSpace(name); name != "" {
				pronunciations = append(pronunciations, name)
			}
		}
		if len(pronunciations) == 0 {
			return nil, fmt.Errorf("language %s has no pronunciation", code)
		}

		languages = append(languages, models.Language{ShortCode: code, Pronunciations: pronunciations})
	}
	return languages, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
