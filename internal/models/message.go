package models

import "time"

// MessageAction tells what a logged message was used for.
type MessageAction string

const (
	MessageActionTalk   MessageAction = "talk"
	MessageActionSMS    MessageAction = "sms"
	MessageActionCall   MessageAction = "call"
	MessageActionHangup MessageAction = "hangup"
)

// Persona is who produced a message.
type Persona string

const (
	PersonaAssistant Persona = "assistant"
	PersonaHuman     Persona = "human"
	PersonaTool      Persona = "tool"
)

// Style is the text-to-speech style hint.
type Style string

const (
	StyleNone     Style = "none"
	StyleCheerful Style = "cheerful"
	StyleSad      Style = "sad"
)

// Message is one entry of the append-only call log.
type Message struct {
	Action    MessageAction `json:"action"`
	Content   string        `json:"content"`
	Persona   Persona       `json:"persona"`
	Style     Style         `json:"style,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}
