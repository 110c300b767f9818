package actions

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/avvvet/voicebuddy-actions/internal/availability"
	"github.com/avvvet/voicebuddy-actions/internal/models"
)

// recordingEffects records every side effect in call order.
type recordingEffects struct {
	mu sync.Mutex

	events   []string
	spoken   []string
	contexts []string
	sms      []string
	persists int

	speakErr     error
	terminateErr error
	persistErr   error
	smsOK        bool
	smsErr       error
}

func newEffects() *recordingEffects {
	return &recordingEffects{smsOK: true}
}

func (f *recordingEffects) Speak(ctx context.Context, text string, style models.Style) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, "speak")
	if f.speakErr != nil {
		return f.speakErr
	}
	f.spoken = append(f.spoken, text)
	f.contexts = append(f.contexts, SpeechContext(ctx))
	return nil
}

func (f *recordingEffects) Persist(ctx context.Context, call *models.CallState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, "persist")
	f.persists++
	return f.persistErr
}

func (f *recordingEffects) Terminate(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, "terminate")
	return f.terminateErr
}

func (f *recordingEffects) SendMessage(ctx context.Context, content, recipient string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, "sms")
	if f.smsErr != nil {
		return false, f.smsErr
	}
	if f.smsOK {
		f.sms = append(f.sms, recipient+": "+content)
	}
	return f.smsOK, nil
}

type failingSource struct{}

func (failingSource) Slots(ctx context.Context) ([]availability.Slot, error) {
	return nil, errors.New("calendar unreachable")
}

func testLanguages() models.LanguageConfig {
	return models.LanguageConfig{
		DefaultShortCode: "fr-FR",
		Availables: []models.Language{
			{ShortCode: "fr-FR", Pronunciations: []string{"Français", "French"}},
			{ShortCode: "en-US", Pronunciations: []string{"English"}},
			{ShortCode: "es-ES", Pronunciations: []string{"Español", "Spanish"}},
		},
	}
}

func testCall() *models.CallState {
	return models.NewCallState("session-1", models.CallInitiate{
		PhoneNumber: "+33612345678",
		BotName:     "Amélie",
		BotCompany:  "Banque Exemple",
		ProsodyRate: 1.0,
		Lang:        testLanguages(),
	})
}

func mustTime(value string) time.Time {
	t, err := availability.ParseTimestamp(value)
	if err != nil {
		panic(err)
	}
	return t
}

func testSlots() availability.StaticSource {
	return availability.StaticSource{
		{Start: mustTime("2024-07-11T16:00"), End: mustTime("2024-07-11T16:30")},
		{Start: mustTime("2024-07-11T09:00"), End: mustTime("2024-07-11T09:30")},
		{Start: mustTime("2024-07-12T10:00"), End: mustTime("2024-07-12T11:00")},
	}
}
