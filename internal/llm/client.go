package llm

import (
	"context"
	"errors"
)

// Role values understood by every backend.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrEmptyReply is returned when the completion service answers without any
// text content.
var ErrEmptyReply = errors.New("completion service returned no text")

// Message is a minimal chat message used by the triage service.
// Role must be one of: "system", "user", or "assistant".
type Message struct {
	Role    string
	Content string
}

// Client is the black-box completion service.  Chat accepts the full message
// history (system + prior turns + latest user) and returns the raw reply text.
type Client interface {
	Chat(ctx context.Context, messages []Message) (string, error)
}

// splitSystem separates system instructions from the conversational turns for
// backends that take the system prompt out of band.
func splitSystem(messages []Message) (string, []Message) {
	var system string
	turns := make([]Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == RoleSystem {
			if system != "" {
				system += "\n\n"
			}
			system += m.Content
			continue
		}
		turns = append(turns, m)
	}
	return system, turns
}
