package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avvvet/voicebuddy-actions/internal/logging"
	"github.com/avvvet/voicebuddy-actions/internal/models"
)

func newTestManager() *Manager {
	return NewManager(NewInMemoryStore(), Defaults{
		Lang: models.LanguageConfig{
			DefaultShortCode: "fr-FR",
			Availables: []models.Language{
				{ShortCode: "fr-FR", Pronunciations: []string{"Français"}},
				{ShortCode: "en-US", Pronunciations: []string{"English"}},
			},
		},
		ProsodyRate: 1.0,
		BotName:     "Amélie",
		BotCompany:  "Banque Exemple",
	}, logging.NewNop())
}

func TestManager_StartCall(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()

	call, err := m.StartCall(ctx, &models.StartCallRequest{PhoneNumber: "+33612345678"})
	require.NoError(t, err)
	assert.NotEmpty(t, call.ID)
	assert.Equal(t, "fr-FR", call.LangShortCode)
	assert.Equal(t, 1.0, call.Initiate.ProsodyRate)
	assert.Equal(t, "Amélie", call.Initiate.BotName)
	assert.Equal(t, "Banque Exemple", call.Initiate.BotCompany)
	assert.Equal(t, 1, m.ActiveSessionCount())

	loaded, err := m.Load(ctx, call.ID)
	require.NoError(t, err)
	assert.Equal(t, call.ID, loaded.ID)
}

func TestManager_StartCallOverrides(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()

	call, err := m.StartCall(ctx, &models.StartCallRequest{
		PhoneNumber: "+33612345678",
		Lang:        "en-US",
		ProsodyRate: 3,
		BotName:     "Max",
	})
	require.NoError(t, err)
	assert.Equal(t, "en-US", call.LangShortCode)
	assert.Equal(t, 1.25, call.Initiate.ProsodyRate)
	assert.Equal(t, "Max", call.Initiate.BotName)
	assert.Equal(t, "Banque Exemple", call.Initiate.BotCompany)
}

func TestManager_StartCallUnknownLanguage(t *testing.T) {
	call, err := newTestManager().StartCall(context.Background(), &models.StartCallRequest{
		PhoneNumber: "+33612345678",
		Lang:        "xx-XX",
	})
	require.NoError(t, err)
	assert.Equal(t, "fr-FR", call.LangShortCode)
}

func TestManager_StartCallRequiresPhone(t *testing.T) {
	m := newTestManager()
	_, err := m.StartCall(context.Background(), &models.StartCallRequest{})
	assert.Error(t, err)
	assert.Zero(t, m.ActiveSessionCount())
}

func TestManager_SaveAndEnd(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()

	call, err := m.StartCall(ctx, &models.StartCallRequest{PhoneNumber: "+33612345678"})
	require.NoError(t, err)

	call.LangShortCode = "en-US"
	require.NoError(t, m.Save(ctx, call))

	stale, err := m.Load(ctx, call.ID)
	require.NoError(t, err)
	require.NoError(t, m.Save(ctx, call))
	assert.ErrorIs(t, m.Save(ctx, stale), ErrVersionConflict)

	require.NoError(t, m.EndCall(ctx, call.ID))
	assert.Zero(t, m.ActiveSessionCount())

	_, err = m.Load(ctx, call.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, m.EndCall(ctx, call.ID), ErrNotFound)
}
