package models

import (
	"encoding/json"

	"github.com/tmc/langchaingo/llms"
)

// NATS request starting a call session
type StartCallRequest struct {
	PhoneNumber string  `json:"phone_number"`
	Lang        string  `json:"lang,omitempty"` // Optional initial language short code
	ProsodyRate float64 `json:"prosody_rate,omitempty"`
	BotName     string  `json:"bot_name,omitempty"`
	BotCompany  string  `json:"bot_company,omitempty"`
}

type StartCallResponse struct {
	SessionID    string  `json:"session_id"`
	Status       string  `json:"status"`
	ErrorCode    *string `json:"error_code,omitempty"`
	ErrorMessage *string `json:"error_message,omitempty"`
}

type EndCallRequest struct {
	SessionID string `json:"session_id"`
}

// SchemasRequest asks for the tool set of a session
type SchemasRequest struct {
	SessionID string `json:"session_id"`
}

type SchemasResponse struct {
	SessionID    string      `json:"session_id"`
	Status       string      `json:"status"`
	Tools        []llms.Tool `json:"tools"`
	Fingerprint  string      `json:"fingerprint"`
	ErrorCode    *string     `json:"error_code,omitempty"`
	ErrorMessage *string     `json:"error_message,omitempty"`
}

// InvokeRequest carries one tool call chosen by the model.
// Arguments is either a JSON object or a JSON-encoded string holding one.
type InvokeRequest struct {
	SessionID  string          `json:"session_id"`
	ToolCallID string          `json:"tool_call_id"`
	Name       string          `json:"name"`
	Arguments  json.RawMessage `json:"arguments"`
}

// InvokeResponse returns the prose result to feed back to the model
type InvokeResponse struct {
	SessionID    string  `json:"session_id"`
	ToolCallID   string  `json:"tool_call_id"`
	Status       string  `json:"status"` // "OK", "ERROR"
	Result       string  `json:"result"`
	ErrorCode    *string `json:"error_code,omitempty"`
	ErrorMessage *string `json:"error_message,omitempty"`
}

// Status constants
const (
	StatusOK    = "OK"
	StatusEnded = "ENDED"
	StatusError = "ERROR"
)

// Error codes
const (
	ErrorParseError      = "PARSE_ERROR"
	ErrorSessionNotFound = "SESSION_NOT_FOUND"
	ErrorInternal        = "INTERNAL_ERROR"
)

// Outbound side-effect payloads

type SpeakRequest struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
	Style     Style  `json:"style"`
	Context   string `json:"context,omitempty"`
}

type HangupRequest struct {
	SessionID string `json:"session_id"`
}

type SMSRequest struct {
	SessionID   string `json:"session_id"`
	Content     string `json:"content"`
	PhoneNumber string `json:"phone_number"`
}

type SMSResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Ack is the generic reply to awaited side effects
type Ack struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}
