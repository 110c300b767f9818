package actions

import (
	"context"
	"fmt"
	"strconv"

	"github.com/avvvet/voicebuddy-actions/internal/models"
)

// Speech contexts tag why something is spoken, for the playback layer.
const (
	SpeechContextConfirm = "confirm"
	SpeechContextGoodbye = "goodbye"
)

type speechContextKey struct{}

// WithSpeechContext tags ctx with the reason of the next Speak call.
func WithSpeechContext(ctx context.Context, speech string) context.Context {
	return context.WithValue(ctx, speechContextKey{}, speech)
}

// SpeechContext returns the speech context set by WithSpeechContext.
func SpeechContext(ctx context.Context) string {
	if s, ok := ctx.Value(speechContextKey{}).(string); ok {
		return s
	}
	return ""
}

// confirm speaks the customer confirmation and waits for it to be played.
func confirm(ctx context.Context, fx SideEffects, text string) error {
	if err := fx.Speak(WithSpeechContext(ctx, SpeechContextConfirm), text, models.StyleNone); err != nil {
		return fmt.Errorf("%w: speak confirmation: %v", ErrSideEffect, err)
	}
	return nil
}

// formatRate prints a prosody rate keeping one decimal on whole values ("1.0").
func formatRate(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
