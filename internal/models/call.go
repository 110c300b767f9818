package models

import (
	"slices"
	"time"
)

// Language is one conversation language the call can switch to.
type Language struct {
	ShortCode      string   `json:"short_code"`     // BCP-47 style, e.g. "fr-FR"
	Pronunciations []string `json:"pronunciations"` // Spoken names, first one is shown to the model
	Voice          string   `json:"voice,omitempty"`
}

// Pronunciation returns the primary pronunciation hint, or the short code itself.
func (l Language) Pronunciation() string {
	if len(l.Pronunciations) == 0 {
		return l.ShortCode
	}
	return l.Pronunciations[0]
}

// LanguageConfig lists the languages available for a call.
type LanguageConfig struct {
	DefaultShortCode string     `json:"default_short_code"`
	Availables       []Language `json:"availables"`
}

// Find returns the available language with the given short code.
func (c LanguageConfig) Find(shortCode string) (Language, bool) {
	for _, l := range c.Availables {
		if l.ShortCode == shortCode {
			return l, true
		}
	}
	return Language{}, false
}

// Default returns the default language, falling back to the first available one.
func (c LanguageConfig) Default() Language {
	if l, ok := c.Find(c.DefaultShortCode); ok {
		return l
	}
	if len(c.Availables) > 0 {
		return c.Availables[0]
	}
	return Language{ShortCode: c.DefaultShortCode}
}

// CallInitiate is the configuration captured when the call starts.
type CallInitiate struct {
	PhoneNumber string         `json:"phone_number"`
	BotName     string         `json:"bot_name"`
	BotCompany  string         `json:"bot_company"`
	ProsodyRate float64        `json:"prosody_rate"`
	Lang        LanguageConfig `json:"lang"`
}

// CallState is the mutable state of one live conversation.
// It is owned by exactly one call and discarded when the call ends.
type CallState struct {
	ID            string       `json:"id"`
	Initiate      CallInitiate `json:"initiate"`
	LangShortCode string       `json:"lang_short_code"`
	Messages      []Message    `json:"messages"`
	Version       int64        `json:"version"` // Optimistic locking in the session store
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// NewCallState creates the state for a call that just started.
func NewCallState(id string, initiate CallInitiate) *CallState {
	now := time.Now()
	return &CallState{
		ID:            id,
		Initiate:      initiate,
		LangShortCode: initiate.Lang.Default().ShortCode,
		Messages:      []Message{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Lang returns the current conversation language.
func (c *CallState) Lang() Language {
	if l, ok := c.Initiate.Lang.Find(c.LangShortCode); ok {
		return l
	}
	return c.Initiate.Lang.Default()
}

// AppendMessage adds a message to the end of the call log.
func (c *CallState) AppendMessage(msg Message) {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	c.Messages = append(c.Messages, msg)
}

// Clone returns a deep copy of the call state.
func (c *CallState) Clone() *CallState {
	cp := *c
	cp.Messages = slices.Clone(c.Messages)
	cp.Initiate.Lang.Availables = make([]Language, len(c.Initiate.Lang.Availables))
	for i, l := range c.Initiate.Lang.Availables {
		l.Pronunciations = slices.Clone(l.Pronunciations)
		cp.Initiate.Lang.Availables[i] = l
	}
	return &cp
}

// Restore overwrites the call state with a snapshot taken by Clone.
func (c *CallState) Restore(snapshot *CallState) {
	*c = *snapshot.Clone()
}
