package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avvvet/voicebuddy-actions/internal/models"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"LANG_AVAILABLES", "LANG_DEFAULT", "PROSODY_RATE", "ACTION_TIMEOUT", "NATS_INVOKE_SUBJECT"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "actions.invoke", cfg.NatsInvokeSubject)
	assert.Equal(t, "call", cfg.NatsCallSubjectPrefix)
	assert.Equal(t, 60*time.Second, cfg.ActionTimeout)
	assert.Equal(t, 1.0, cfg.ProsodyRate)
	assert.Equal(t, "fr-FR", cfg.Languages.DefaultShortCode)
	assert.Len(t, cfg.Languages.Availables, 4)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("LANG_AVAILABLES", "en-US=English,es-ES=Español|Spanish")
	t.Setenv("LANG_DEFAULT", "es-ES")
	t.Setenv("PROSODY_RATE", "1.1")
	t.Setenv("ACTION_TIMEOUT", "5s")
	t.Setenv("SESSION_TTL", "not a duration")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "es-ES", cfg.Languages.Default().ShortCode)
	assert.Equal(t, 1.1, cfg.ProsodyRate)
	assert.Equal(t, 5*time.Second, cfg.ActionTimeout)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]map[string]string{
		"default not available": {"LANG_AVAILABLES": "en-US=English", "LANG_DEFAULT": "fr-FR"},
		"prosody out of range":  {"LANG_DEFAULT": "fr-FR", "PROSODY_RATE": "2"},
		"bad languages":         {"LANG_AVAILABLES": "en-US"},
		"negative timeout":      {"LANG_DEFAULT": "fr-FR", "SIDE_EFFECT_TIMEOUT": "-1s"},
	}

	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestParseLanguages(t *testing.T) {
	langs, err := ParseLanguages(" fr-FR = Français | French , en-US=English,")
	require.NoError(t, err)
	assert.Equal(t, []models.Language{
		{ShortCode: "fr-FR", Pronunciations: []string{"Français", "French"}},
		{ShortCode: "en-US", Pronunciations: []string{"English"}},
	}, langs)

	for _, value := range []string{"fr-FR", "=French", "fr-FR=", "fr-FR=French,fr-FR=Français"} {
		_, err := ParseLanguages(value)
		assert.Error(t, err, value)
	}
}
