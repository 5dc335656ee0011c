package core

import (
	"time"

	"mediguard/pkg"
)

// Conversation is the ordered message log of one session.  It only grows:
// messages are never removed or reordered, and the whole log is replayed to
// the model on every turn.  It is not safe for concurrent use; Session
// guards it.
type Conversation struct {
	messages []pkg.Message
	now      func() time.Time
}

// NewConversation returns a log seeded with the assistant greeting.
func NewConversation(now func() time.Time) *Conversation {
	if now == nil {
		now = time.Now
	}
	c := &Conversation{now: now}
	c.AppendAssistant(Greeting)
	return c
}

// AppendUser adds one patient message.
func (c *Conversation) AppendUser(text string) {
	c.append(pkg.RoleUser, text)
}

// AppendAssistant adds one assistant message.
func (c *Conversation) AppendAssistant(text string) {
	c.append(pkg.RoleAssistant, text)
}

func (c *Conversation) append(role pkg.MessageRole, text string) {
	c.messages = append(c.messages, pkg.Message{Role: role, Content: text, CreatedAt: c.now()})
}

// Messages returns a copy of the log.
func (c *Conversation) Messages() []pkg.Message {
	out := make([]pkg.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Len is the number of messages in the log, greeting included.
func (c *Conversation) Len() int { return len(c.messages) }

// UserTurns counts patient messages.
func (c *Conversation) UserTurns() int {
	n := 0
	for _, m := range c.messages {
		if m.Role == pkg.RoleUser {
			n++
		}
	}
	return n
}
