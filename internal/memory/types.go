package memory

import (
	"context"
	"errors"

	"github.com/avvvet/voicebuddy-actions/internal/models"
)

var (
	ErrNotFound        = errors.New("session not found")
	ErrVersionConflict = errors.New("session version conflict")
	ErrAlreadyExists   = errors.New("session already exists")
)

// Store defines the interface for call state storage
// This allows us to swap between Redis and in-memory storage
type Store interface {
	// Create stores a new call with Version set to 1
	Create(ctx context.Context, call *models.CallState) error

	// Get loads a call, ErrNotFound if it does not exist
	Get(ctx context.Context, id string) (*models.CallState, error)

	// Update saves a call if its Version matches the stored one, then increments it.
	// Returns ErrVersionConflict on mismatch and ErrNotFound if the call is gone.
	Update(ctx context.Context, call *models.CallState) error

	// Delete removes a call, ErrNotFound if there was none
	Delete(ctx context.Context, id string) error

	// Close releases the store resources
	Close() error
}
