package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/avvvet/voicebuddy-actions/internal/actions"
	"github.com/avvvet/voicebuddy-actions/internal/keylock"
	"github.com/avvvet/voicebuddy-actions/internal/llm"
	"github.com/avvvet/voicebuddy-actions/internal/memory"
	"github.com/avvvet/voicebuddy-actions/internal/models"
)

// RemoteEffects are the call side effects performed outside this service
type RemoteEffects interface {
	Speak(ctx context.Context, text string, style models.Style) error
	Terminate(ctx context.Context) error
	SendMessage(ctx context.Context, content, recipient string) (bool, error)
}

// EffectsFactory returns the remote side effects bound to one call
type EffectsFactory func(sessionID string) RemoteEffects

// Recorder receives service-level events, metrics.Metrics implements it
type Recorder interface {
	SchemaDerived()
	SessionStarted()
	SessionEnded()
}

type nopRecorder struct{}

func (nopRecorder) SchemaDerived()  {}
func (nopRecorder) SessionStarted() {}
func (nopRecorder) SessionEnded()   {}

type ActionHandler struct {
	manager       *memory.Manager
	dispatcher    *actions.Dispatcher
	effects       EffectsFactory
	recorder      Recorder
	logger        *slog.Logger
	actionTimeout time.Duration
	locks         *keylock.Map
}

func NewActionHandler(manager *memory.Manager, dispatcher *actions.Dispatcher, effects EffectsFactory, logger *slog.Logger) *ActionHandler {
	return &ActionHandler{
		manager:       manager,
		dispatcher:    dispatcher,
		effects:       effects,
		recorder:      nopRecorder{},
		logger:        logger,
		actionTimeout: time.Minute,
		locks:         keylock.New(),
	}
}

// WithRecorder sets the event recorder
func (h *ActionHandler) WithRecorder(r Recorder) *ActionHandler {
	h.recorder = r
	return h
}

// WithActionTimeout bounds each dispatched action
func (h *ActionHandler) WithActionTimeout(d time.Duration) *ActionHandler {
	if d > 0 {
		h.actionTimeout = d
	}
	return h
}

func (h *ActionHandler) StartCall(ctx context.Context, request *models.StartCallRequest) *models.StartCallResponse {
	call, err := h.manager.StartCall(ctx, request)
	if err != nil {
		h.logger.Error("failed to start call", "error", err)
		code := models.ErrorParseError
		if request.PhoneNumber != "" {
			code = models.ErrorInternal
		}
		return &models.StartCallResponse{
			Status:       models.StatusError,
			ErrorCode:    &code,
			ErrorMessage: stringPtr(err.Error()),
		}
	}

	h.recorder.SessionStarted()
	return &models.StartCallResponse{SessionID: call.ID, Status: models.StatusOK}
}

func (h *ActionHandler) EndCall(ctx context.Context, request *models.EndCallRequest) *models.StartCallResponse {
	if request.SessionID == "" {
		return &models.StartCallResponse{
			Status:       models.StatusError,
			ErrorCode:    stringPtr(models.ErrorParseError),
			ErrorMessage: stringPtr("session_id is required"),
		}
	}

	unlock := h.locks.Lock(request.SessionID)
	err := h.manager.EndCall(ctx, request.SessionID)
	unlock()

	if errors.Is(err, memory.ErrNotFound) {
		return &models.StartCallResponse{
			SessionID:    request.SessionID,
			Status:       models.StatusError,
			ErrorCode:    stringPtr(models.ErrorSessionNotFound),
			ErrorMessage: stringPtr(err.Error()),
		}
	}
	if err != nil {
		h.logger.Error("failed to end call", "session_id", request.SessionID, "error", err)
		return &models.StartCallResponse{
			SessionID:    request.SessionID,
			Status:       models.StatusError,
			ErrorCode:    stringPtr(models.ErrorInternal),
			ErrorMessage: stringPtr(err.Error()),
		}
	}

	h.recorder.SessionEnded()
	return &models.StartCallResponse{SessionID: request.SessionID, Status: models.StatusEnded}
}

// Schemas derives the tool set for the current state of a call
func (h *ActionHandler) Schemas(ctx context.Context, request *models.SchemasRequest) *models.SchemasResponse {
	call, code, err := h.load(ctx, request.SessionID)
	if err != nil {
		return &models.SchemasResponse{
			SessionID:    request.SessionID,
			Status:       models.StatusError,
			ErrorCode:    &code,
			ErrorMessage: stringPtr(err.Error()),
		}
	}

	descriptors, err := actions.Derive(ctx, h.dispatcher.Registry(), call)
	if err == nil {
		var fingerprint string
		fingerprint, err = actions.Fingerprint(descriptors)
		if err == nil {
			h.recorder.SchemaDerived()
			return &models.SchemasResponse{
				SessionID:   call.ID,
				Status:      models.StatusOK,
				Tools:       llm.Tools(descriptors),
				Fingerprint: fingerprint,
			}
		}
	}

	h.logger.Error("failed to derive schemas", "session_id", call.ID, "error", err)
	return &models.SchemasResponse{
		SessionID:    call.ID,
		Status:       models.StatusError,
		ErrorCode:    stringPtr(models.ErrorInternal),
		ErrorMessage: stringPtr(err.Error()),
	}
}

// Invoke runs one tool call on a call, one at a time per call
func (h *ActionHandler) Invoke(ctx context.Context, request *models.InvokeRequest) *models.InvokeResponse {
	response := &models.InvokeResponse{
		SessionID:  request.SessionID,
		ToolCallID: request.ToolCallID,
	}
	if request.Name == "" {
		response.Status = models.StatusError
		response.ErrorCode = stringPtr(models.ErrorParseError)
		response.ErrorMessage = stringPtr("name is required")
		return response
	}

	unlock := h.locks.Lock(request.SessionID)
	defer unlock()

	call, code, err := h.load(ctx, request.SessionID)
	if err != nil {
		response.Status = models.StatusError
		response.ErrorCode = &code
		response.ErrorMessage = stringPtr(err.Error())
		return response
	}

	response.Status = models.StatusOK

	// Malformed arguments are the model's to fix, it gets prose like any other rejection
	args, err := llm.ParseArguments(request.Arguments)
	if err != nil {
		response.Result = fmt.Sprintf("Invalid arguments for %s: %v", request.Name, err)
		return response
	}

	ctx, cancel := context.WithTimeout(ctx, h.actionTimeout)
	defer cancel()

	fx := &callEffects{RemoteEffects: h.effects(call.ID), manager: h.manager}
	response.Result = h.dispatcher.Invoke(ctx, request.Name, args, call, fx)
	return response
}

func (h *ActionHandler) load(ctx context.Context, sessionID string) (*models.CallState, string, error) {
	if sessionID == "" {
		return nil, models.ErrorParseError, errors.New("session_id is required")
	}
	call, err := h.manager.Load(ctx, sessionID)
	if errors.Is(err, memory.ErrNotFound) {
		return nil, models.ErrorSessionNotFound, err
	}
	if err != nil {
		h.logger.Error("failed to load call", "session_id", sessionID, "error", err)
		return nil, models.ErrorInternal, err
	}
	return call, "", nil
}

// callEffects completes the remote effects with persistence to the session store
type callEffects struct {
	RemoteEffects
	manager *memory.Manager
}

func (c *callEffects) Persist(ctx context.Context, call *models.CallState) error {
	return c.manager.Save(ctx, call)
}

func stringPtr(s string) *string {
	return &s
}
