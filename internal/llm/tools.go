// Package llm converts action descriptors and call logs to langchaingo types
// consumed by the model-calling layer.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/memory"

	"github.com/avvvet/voicebuddy-actions/internal/actions"
	"github.com/avvvet/voicebuddy-actions/internal/models"
)

// Tools converts descriptors to function tools, keeping their order.
func Tools(descriptors []actions.Descriptor) []llms.Tool {
	tools := make([]llms.Tool, 0, len(descriptors))
	for _, d := range descriptors {
		tools = append(tools, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  d.JSONSchema(),
			},
		})
	}
	return tools
}

// ParseArguments decodes tool call arguments. The model sends either a JSON
// object or a string holding one; an empty payload means no arguments.
// Numbers are kept as json.Number so the dispatcher does the coercion.
func ParseArguments(raw []byte) (map[string]any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return map[string]any{}, nil
	}

	if raw[0] == '"' {
		var encoded string
		if err := json.Unmarshal(raw, &encoded); err != nil {
			return nil, fmt.Errorf("failed to decode arguments string: %w", err)
		}
		return ParseArguments([]byte(encoded))
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var args map[string]any
	if err := dec.Decode(&args); err != nil {
		return nil, fmt.Errorf("arguments must be a JSON object: %w", err)
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}

// ParseToolCall extracts the action name and arguments of a model tool call.
func ParseToolCall(call llms.ToolCall) (string, map[string]any, error) {
	if call.FunctionCall == nil {
		return "", nil, fmt.Errorf("tool call %s has no function", call.ID)
	}
	args, err := ParseArguments([]byte(call.FunctionCall.Arguments))
	if err != nil {
		return "", nil, fmt.Errorf("tool call %s: %w", call.ID, err)
	}
	return call.FunctionCall.Name, args, nil
}

// History maps the call log to chat messages, oldest first.
// SMS sent to the customer are surfaced to the model as assistant turns.
func History(call *models.CallState) []llms.ChatMessage {
	history := make([]llms.ChatMessage, 0, len(call.Messages))
	for _, msg := range call.Messages {
		content := msg.Content
		if msg.Action == models.MessageActionSMS {
			content = "SMS: " + content
		}

		switch msg.Persona {
		case models.PersonaHuman:
			history = append(history, llms.HumanChatMessage{Content: content})
		case models.PersonaAssistant:
			history = append(history, llms.AIChatMessage{Content: content})
		case models.PersonaTool:
			history = append(history, llms.SystemChatMessage{Content: content})
		}
	}
	return history
}

// Buffer loads the call log into a langchaingo conversation buffer.
func Buffer(ctx context.Context, call *models.CallState) (*memory.ConversationBuffer, error) {
	buf := memory.NewConversationBuffer()
	for _, msg := range History(call) {
		if err := buf.ChatHistory.AddMessage(ctx, msg); err != nil {
			return nil, fmt.Errorf("failed to add message to memory: %w", err)
		}
	}
	return buf, nil
}

// Transcript formats the call log one line per message.
func Transcript(ctx context.Context, call *models.CallState) (string, error) {
	buf, err := Buffer(ctx, call)
	if err != nil {
		return "", err
	}
	messages, err := buf.ChatHistory.Messages(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read memory: %w", err)
	}

	var b strings.Builder
	for _, msg := range messages {
		switch m := msg.(type) {
		case llms.HumanChatMessage:
			fmt.Fprintf(&b, "User: %s\n", m.Content)
		case llms.AIChatMessage:
			fmt.Fprintf(&b, "Assistant: %s\n", m.Content)
		case llms.SystemChatMessage:
			fmt.Fprintf(&b, "System: %s\n", m.Content)
		}
	}
	return b.String(), nil
}
