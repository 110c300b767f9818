package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/avvvet/voicebuddy-actions/internal/actions"
	"github.com/avvvet/voicebuddy-actions/internal/models"
)

// Defaults is the call configuration used when a start request leaves a field empty
type Defaults struct {
	Lang        models.LanguageConfig
	ProsodyRate float64
	BotName     string
	BotCompany  string
}

// Manager owns the lifecycle of call sessions: start, load, save, end
type Manager struct {
	store    Store
	defaults Defaults
	logger   *slog.Logger

	mu     sync.Mutex
	active map[string]struct{}
}

// NewManager creates a new session manager
func NewManager(store Store, defaults Defaults, logger *slog.Logger) *Manager {
	return &Manager{
		store:    store,
		defaults: defaults,
		logger:   logger,
		active:   make(map[string]struct{}),
	}
}

// StartCall creates the state of a new call
func (m *Manager) StartCall(ctx context.Context, req *models.StartCallRequest) (*models.CallState, error) {
	if req.PhoneNumber == "" {
		return nil, fmt.Errorf("phone_number is required")
	}

	initiate := models.CallInitiate{
		PhoneNumber: req.PhoneNumber,
		BotName:     firstNonEmpty(req.BotName, m.defaults.BotName),
		BotCompany:  firstNonEmpty(req.BotCompany, m.defaults.BotCompany),
		ProsodyRate: m.defaults.ProsodyRate,
		Lang:        m.defaults.Lang,
	}
	if req.ProsodyRate > 0 {
		initiate.ProsodyRate = actions.ClampSpeed(req.ProsodyRate)
	}

	call := models.NewCallState(uuid.NewString(), initiate)
	if req.Lang != "" {
		if _, ok := initiate.Lang.Find(req.Lang); ok {
			call.LangShortCode = req.Lang
		} else {
			m.logger.Warn("requested language not available, using default",
				"lang", req.Lang, "default", call.LangShortCode)
		}
	}

	if err := m.store.Create(ctx, call); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	m.mu.Lock()
	m.active[call.ID] = struct{}{}
	m.mu.Unlock()

	m.logger.Info("call started", "session_id", call.ID, "lang", call.LangShortCode)
	return call, nil
}

// Load returns the current state of a call
func (m *Manager) Load(ctx context.Context, sessionID string) (*models.CallState, error) {
	call, err := m.store.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}
	return call, nil
}

// Save persists the call, bumping its version
func (m *Manager) Save(ctx context.Context, call *models.CallState) error {
	if err := m.store.Update(ctx, call); err != nil {
		return fmt.Errorf("failed to save session %s: %w", call.ID, err)
	}
	m.logger.Debug("call saved", "session_id", call.ID, "version", call.Version, "messages", len(call.Messages))
	return nil
}

// EndCall discards the state of a call
func (m *Manager) EndCall(ctx context.Context, sessionID string) error {
	if err := m.store.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to end session %s: %w", sessionID, err)
	}

	m.mu.Lock()
	delete(m.active, sessionID)
	m.mu.Unlock()

	m.logger.Info("call ended", "session_id", sessionID)
	return nil
}

// ActiveSessionCount returns the number of calls started and not ended by this process
func (m *Manager) ActiveSessionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.active)
}

// Close closes the underlying store
func (m *Manager) Close() error {
	return m.store.Close()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
