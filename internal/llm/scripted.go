package llm

import (
	"context"
	"sync"
)

// defaultScriptedReply keeps a local session moving when no script is loaded.
const defaultScriptedReply = "Thanks for telling me. When did this start, and how severe is it on a scale of 1 to 10?"

// Scripted is an offline Client that replays canned replies in order.  It is
// used for local development and as the completion double in tests.
type Scripted struct {
	mu      sync.Mutex
	replies []string
	err     error
	calls   [][]Message
}

// NewScripted returns a client that answers with replies one by one and then
// repeats the last one.
func NewScripted(replies ...string) *Scripted {
	return &Scripted{replies: replies}
}

// FailWith makes every subsequent call return err.
func (s *Scripted) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Chat implements Client.
func (s *Scripted) Chat(ctx context.Context, messages []Message) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, append([]Message(nil), messages...))
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.err != nil {
		return "", s.err
	}

	switch len(s.replies) {
	case 0:
		return defaultScriptedReply, nil
	case 1:
		return s.replies[0], nil
	}
	reply := s.replies[0]
	s.replies = s.replies[1:]
	return reply, nil
}

// Calls returns a copy of every message list received so far.
func (s *Scripted) Calls() [][]Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]Message, len(s.calls))
	copy(out, s.calls)
	return out
}
