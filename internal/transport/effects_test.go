package transport

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avvvet/voicebuddy-actions/internal/actions"
	"github.com/avvvet/voicebuddy-actions/internal/config"
	"github.com/avvvet/voicebuddy-actions/internal/models"
)

type sentRequest struct {
	subject string
	data    []byte
}

// fakeRequester answers every request with a fixed reply
type fakeRequester struct {
	sent  []sentRequest
	reply any
	err   error
}

func (f *fakeRequester) RequestWithContext(ctx context.Context, subj string, data []byte) (*nats.Msg, error) {
	f.sent = append(f.sent, sentRequest{subject: subj, data: data})
	if f.err != nil {
		return nil, f.err
	}
	if _, ok := ctx.Deadline(); !ok {
		return nil, errors.New("request without deadline")
	}
	payload, err := json.Marshal(f.reply)
	if err != nil {
		return nil, err
	}
	return &nats.Msg{Subject: subj, Data: payload}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		NatsCallSubjectPrefix: "call",
		NatsSMSSubject:        "sms.send",
		SideEffectTimeout:     time.Second,
	}
}

func TestNATSEffects_Speak(t *testing.T) {
	conn := &fakeRequester{reply: models.Ack{OK: true}}
	fx := NewEffectsFactory(conn, testConfig())("abc")

	ctx := actions.WithSpeechContext(context.Background(), actions.SpeechContextConfirm)
	require.NoError(t, fx.Speak(ctx, "I am slowing down.", models.StyleNone))

	require.Len(t, conn.sent, 1)
	assert.Equal(t, "call.abc.speak", conn.sent[0].subject)

	var req models.SpeakRequest
	require.NoError(t, json.Unmarshal(conn.sent[0].data, &req))
	assert.Equal(t, models.SpeakRequest{
		SessionID: "abc",
		Text:      "I am slowing down.",
		Style:     models.StyleNone,
		Context:   actions.SpeechContextConfirm,
	}, req)
}

func TestNATSEffects_Terminate(t *testing.T) {
	conn := &fakeRequester{reply: models.Ack{OK: true}}
	fx := NewEffectsFactory(conn, testConfig())("abc")

	require.NoError(t, fx.Terminate(context.Background()))
	require.Len(t, conn.sent, 1)
	assert.Equal(t, "call.abc.hangup", conn.sent[0].subject)
}

func TestNATSEffects_NotAcknowledged(t *testing.T) {
	fx := NewEffectsFactory(&fakeRequester{reply: models.Ack{OK: false, Error: "call already gone"}}, testConfig())("abc")
	err := fx.Terminate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "call already gone")

	fx = NewEffectsFactory(&fakeRequester{reply: models.Ack{}}, testConfig())("abc")
	assert.Error(t, fx.Speak(context.Background(), "hello", models.StyleNone))

	fx = NewEffectsFactory(&fakeRequester{err: nats.ErrTimeout}, testConfig())("abc")
	assert.ErrorIs(t, fx.Speak(context.Background(), "hello", models.StyleNone), nats.ErrTimeout)
}

func TestNATSEffects_SendMessage(t *testing.T) {
	conn := &fakeRequester{reply: models.SMSResponse{Success: true}}
	fx := NewEffectsFactory(conn, testConfig())("abc")

	ok, err := fx.SendMessage(context.Background(), "Ref 42", "+33612345678")
	require.NoError(t, err)
	assert.True(t, ok)

	require.Len(t, conn.sent, 1)
	assert.Equal(t, "sms.send", conn.sent[0].subject)
	var req models.SMSRequest
	require.NoError(t, json.Unmarshal(conn.sent[0].data, &req))
	assert.Equal(t, models.SMSRequest{SessionID: "abc", Content: "Ref 42", PhoneNumber: "+33612345678"}, req)
}

func TestNATSEffects_SendMessageFailure(t *testing.T) {
	fx := NewEffectsFactory(&fakeRequester{reply: models.SMSResponse{Success: false}}, testConfig())("abc")
	ok, err := fx.SendMessage(context.Background(), "Ref 42", "+33612345678")
	assert.NoError(t, err)
	assert.False(t, ok)

	fx = NewEffectsFactory(&fakeRequester{reply: models.SMSResponse{Error: "invalid number"}}, testConfig())("abc")
	ok, err = fx.SendMessage(context.Background(), "Ref 42", "123")
	assert.EqualError(t, err, "invalid number")
	assert.False(t, ok)
}
