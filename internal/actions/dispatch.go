package actions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/avvvet/voicebuddy-actions/internal/keylock"
	"github.com/avvvet/voicebuddy-actions/internal/logging"
	"github.com/avvvet/voicebuddy-actions/internal/models"
)

// SideEffects are the call collaborators an action may drive.
// Speak and Terminate block until the audio is played or the call is torn down.
type SideEffects interface {
	Speak(ctx context.Context, text string, style models.Style) error
	Persist(ctx context.Context, call *models.CallState) error
	Terminate(ctx context.Context) error
	SendMessage(ctx context.Context, content, recipient string) (bool, error)
}

// State is the lifecycle step of one invocation.
type State string

const (
	StateRequested State = "requested"
	StateValidated State = "validated"
	StateExecuting State = "executing"
	StateCompleted State = "completed"
	StateRejected  State = "rejected"
)

// Invocation records the outcome of one dispatch.
type Invocation struct {
	Action    string
	Unknown   bool // Action is not in the registry
	SessionID string
	State     State
	Result    string
	Err       error
	Duration  time.Duration
}

// Observer is notified after every dispatch.
type Observer interface {
	ObserveInvocation(inv Invocation)
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the dispatcher logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = l
	}
}

// WithObserver adds an invocation observer.
func WithObserver(o Observer) Option {
	return func(d *Dispatcher) {
		d.observers = append(d.observers, o)
	}
}

// Dispatcher validates and executes model-selected actions.
type Dispatcher struct {
	registry  *Registry
	logger    *slog.Logger
	observers []Observer
	locks     *keylock.Map
}

// NewDispatcher creates a dispatcher over the registry.
func NewDispatcher(registry *Registry, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		logger:   logging.L(),
		locks:    keylock.New(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Registry returns the actions served by the dispatcher.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Invoke runs the named action against the call and returns the prose result
// for the model. It never fails: every problem is reported as text.
// A rejected or failed action leaves the call exactly as it found it.
func (d *Dispatcher) Invoke(ctx context.Context, name string, rawArgs map[string]any, call *models.CallState, fx SideEffects) string {
	start := time.Now()
	inv := Invocation{Action: name, SessionID: call.ID, State: StateRequested}

	unlock := d.locks.Lock(call.ID)
	defer unlock()

	defer func() {
		inv.Duration = time.Since(start)
		d.finish(inv)
	}()

	e, ok := d.registry.entries[name]
	if !ok {
		inv.State = StateRejected
		inv.Unknown = true
		inv.Err = fmt.Errorf("%w: unknown action %s", ErrInvalidArguments, name)
		inv.Result = fmt.Sprintf("Action %s is not available", name)
		return inv.Result
	}

	args, err := e.validate(rawArgs)
	if err != nil {
		inv.State = StateRejected
		inv.Err = err
		inv.Result = err.Error()
		return inv.Result
	}
	inv.State = StateValidated

	snapshot := call.Clone()
	inv.State = StateExecuting
	text, err := e.action.Run(ctx, call, fx, args)
	if err != nil {
		call.Restore(snapshot)
		inv.State = StateRejected
		inv.Err = err

		var rej *RejectError
		if errors.As(err, &rej) {
			inv.Result = rej.Text
		} else {
			inv.Result = fmt.Sprintf("Action %s failed, nothing was changed", name)
		}
		return inv.Result
	}

	inv.State = StateCompleted
	inv.Result = text

	if !e.action.ReadOnly {
		call.UpdatedAt = time.Now()
		if err := fx.Persist(ctx, call); err != nil {
			d.logger.Warn("persist after action failed", "action", name, "session_id", call.ID, "error", err)
		}
	}
	return text
}

func (d *Dispatcher) finish(inv Invocation) {
	if inv.State == StateCompleted {
		d.logger.Info("action completed", "action", inv.Action, "session_id", inv.SessionID, "duration", inv.Duration)
	} else {
		d.logger.Warn("action rejected", "action", inv.Action, "session_id", inv.SessionID, "result", inv.Result, "error", inv.Err)
	}
	for _, o := range d.observers {
		o.ObserveInvocation(inv)
	}
}

// Sessions returns how many sessions hold or wait on a dispatch.
func (d *Dispatcher) Sessions() int {
	return d.locks.Len()
}
