package memory

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avvvet/voicebuddy-actions/internal/models"
)

func newTestCall(id string) *models.CallState {
	return models.NewCallState(id, models.CallInitiate{
		PhoneNumber: "+33612345678",
		ProsodyRate: 1.0,
		Lang: models.LanguageConfig{
			DefaultShortCode: "fr-FR",
			Availables: []models.Language{
				{ShortCode: "fr-FR", Pronunciations: []string{"Français"}},
				{ShortCode: "en-US", Pronunciations: []string{"English"}},
			},
		},
	})
}

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStoreFromClient(client, time.Hour)
	t.Cleanup(func() { store.Close() })
	return store, mr
}

// runStoreContract checks the behaviour shared by every Store
func runStoreContract(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		call := newTestCall("contract-1")
		require.NoError(t, store.Create(ctx, call))
		assert.Equal(t, int64(1), call.Version)

		got, err := store.Get(ctx, "contract-1")
		require.NoError(t, err)
		assert.Equal(t, call.ID, got.ID)
		assert.Equal(t, "fr-FR", got.LangShortCode)
		assert.Equal(t, int64(1), got.Version)
		assert.Equal(t, call.Initiate.Lang, got.Initiate.Lang)
	})

	t.Run("create twice", func(t *testing.T) {
		call := newTestCall("contract-2")
		require.NoError(t, store.Create(ctx, call))
		assert.ErrorIs(t, store.Create(ctx, newTestCall("contract-2")), ErrAlreadyExists)
	})

	t.Run("get missing", func(t *testing.T) {
		_, err := store.Get(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("update bumps version", func(t *testing.T) {
		call := newTestCall("contract-3")
		require.NoError(t, store.Create(ctx, call))

		call.LangShortCode = "en-US"
		call.AppendMessage(models.Message{Action: models.MessageActionSMS, Content: "hello", Persona: models.PersonaAssistant})
		require.NoError(t, store.Update(ctx, call))
		assert.Equal(t, int64(2), call.Version)

		got, err := store.Get(ctx, "contract-3")
		require.NoError(t, err)
		assert.Equal(t, int64(2), got.Version)
		assert.Equal(t, "en-US", got.LangShortCode)
		require.Len(t, got.Messages, 1)
		assert.Equal(t, "hello", got.Messages[0].Content)
	})

	t.Run("stale update", func(t *testing.T) {
		call := newTestCall("contract-4")
		require.NoError(t, store.Create(ctx, call))

		first, err := store.Get(ctx, "contract-4")
		require.NoError(t, err)
		second, err := store.Get(ctx, "contract-4")
		require.NoError(t, err)

		first.Initiate.ProsodyRate = 1.2
		require.NoError(t, store.Update(ctx, first))

		second.Initiate.ProsodyRate = 0.8
		assert.ErrorIs(t, store.Update(ctx, second), ErrVersionConflict)

		got, err := store.Get(ctx, "contract-4")
		require.NoError(t, err)
		assert.Equal(t, 1.2, got.Initiate.ProsodyRate)
	})

	t.Run("update missing", func(t *testing.T) {
		assert.ErrorIs(t, store.Update(ctx, newTestCall("missing")), ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		call := newTestCall("contract-5")
		require.NoError(t, store.Create(ctx, call))
		require.NoError(t, store.Delete(ctx, "contract-5"))

		_, err := store.Get(ctx, "contract-5")
		assert.ErrorIs(t, err, ErrNotFound)

		assert.ErrorIs(t, store.Delete(ctx, "contract-5"), ErrNotFound)
		assert.ErrorIs(t, store.Delete(ctx, "never-created"), ErrNotFound)
	})
}

func TestRedisStore_Contract(t *testing.T) {
	store, _ := newRedisStore(t)
	runStoreContract(t, store)
}

func TestInMemoryStore_Contract(t *testing.T) {
	runStoreContract(t, NewInMemoryStore())
}

func TestInMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	call := newTestCall("copy")
	require.NoError(t, store.Create(ctx, call))

	got, err := store.Get(ctx, "copy")
	require.NoError(t, err)
	got.LangShortCode = "en-US"

	again, err := store.Get(ctx, "copy")
	require.NoError(t, err)
	assert.Equal(t, "fr-FR", again.LangShortCode)
}

func TestRedisStore_TTL(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)

	require.NoError(t, store.Create(ctx, newTestCall("ttl")))
	assert.Equal(t, time.Hour, mr.TTL("call:ttl"))

	// Reading a live call pushes its expiry back
	mr.FastForward(30 * time.Minute)
	_, err := store.Get(ctx, "ttl")
	require.NoError(t, err)
	assert.Equal(t, time.Hour, mr.TTL("call:ttl"))

	mr.FastForward(2 * time.Hour)
	_, err = store.Get(ctx, "ttl")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_Ping(t *testing.T) {
	store, mr := newRedisStore(t)
	require.NoError(t, store.Ping(context.Background()))

	mr.Close()
	assert.Error(t, store.Ping(context.Background()))
}

func TestNewRedisStore(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	store, err := NewRedisStore("redis://"+mr.Addr()+"/0", 0)
	require.NoError(t, err)
	defer store.Close()
	assert.Equal(t, 2*time.Hour, store.ttl)

	_, err = NewRedisStore("not a url", time.Hour)
	assert.Error(t, err)
}
