package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/avvvet/voicebuddy-actions/internal/actions"
	"github.com/avvvet/voicebuddy-actions/internal/config"
	"github.com/avvvet/voicebuddy-actions/internal/handlers"
	"github.com/avvvet/voicebuddy-actions/internal/models"
)

// Requester is the request/reply part of a NATS connection
type Requester interface {
	RequestWithContext(ctx context.Context, subj string, data []byte) (*nats.Msg, error)
}

// NATSEffects drives speech, hangup and SMS of one call over NATS request/reply.
// Each method returns once the remote side has replied.
type NATSEffects struct {
	conn       Requester
	sessionID  string
	prefix     string
	smsSubject string
	timeout    time.Duration
}

// NewEffectsFactory binds NATSEffects to each call
func NewEffectsFactory(conn Requester, cfg *config.Config) handlers.EffectsFactory {
	return func(sessionID string) handlers.RemoteEffects {
		return &NATSEffects{
			conn:       conn,
			sessionID:  sessionID,
			prefix:     cfg.NatsCallSubjectPrefix,
			smsSubject: cfg.NatsSMSSubject,
			timeout:    cfg.SideEffectTimeout,
		}
	}
}

func (e *NATSEffects) subject(verb string) string {
	return fmt.Sprintf("%s.%s.%s", e.prefix, e.sessionID, verb)
}

// Speak implements actions.SideEffects
func (e *NATSEffects) Speak(ctx context.Context, text string, style models.Style) error {
	return e.await(ctx, e.subject("speak"), models.SpeakRequest{
		SessionID: e.sessionID,
		Text:      text,
		Style:     style,
		Context:   actions.SpeechContext(ctx),
	})
}

// Terminate implements actions.SideEffects
func (e *NATSEffects) Terminate(ctx context.Context) error {
	return e.await(ctx, e.subject("hangup"), models.HangupRequest{SessionID: e.sessionID})
}

// SendMessage implements actions.SideEffects
func (e *NATSEffects) SendMessage(ctx context.Context, content, recipient string) (bool, error) {
	var response models.SMSResponse
	err := e.request(ctx, e.smsSubject, models.SMSRequest{
		SessionID:   e.sessionID,
		Content:     content,
		PhoneNumber: recipient,
	}, &response)
	if err != nil {
		return false, err
	}
	if !response.Success && response.Error != "" {
		return false, errors.New(response.Error)
	}
	return response.Success, nil
}

func (e *NATSEffects) await(ctx context.Context, subject string, payload any) error {
	var ack models.Ack
	if err := e.request(ctx, subject, payload, &ack); err != nil {
		return err
	}
	if !ack.OK {
		if ack.Error == "" {
			return fmt.Errorf("%s: not acknowledged", subject)
		}
		return fmt.Errorf("%s: %s", subject, ack.Error)
	}
	return nil
}

func (e *NATSEffects) request(ctx context.Context, subject string, payload, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s request: %w", subject, err)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	msg, err := e.conn.RequestWithContext(ctx, subject, data)
	if err != nil {
		return fmt.Errorf("request %s: %w", subject, err)
	}
	if err := json.Unmarshal(msg.Data, out); err != nil {
		return fmt.Errorf("failed to parse %s reply: %w", subject, err)
	}
	return nil
}
