package core

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"mediguard/pkg"
)

// Session is the explicit context of one triage conversation: message log,
// patient profile, latest verdict and any pending emergency directive.
// Sessions share nothing with each other.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu        sync.Mutex
	conv      *Conversation
	profile   pkg.PatientProfile
	emergency *pkg.Emergency
	result    ResultStore

	// at most one completion call in flight
	inflight atomic.Bool
}

// NewSession creates a session seeded with the greeting.
func NewSession(profile pkg.PatientProfile) *Session {
	return newSession(profile, time.Now)
}

func newSession(profile pkg.PatientProfile, now func() time.Time) *Session {
	return &Session{
		ID:        uuid.NewString(),
		CreatedAt: now(),
		conv:      NewConversation(now),
		profile:   profile,
	}
}

// Profile returns the patient profile.
func (s *Session) Profile() pkg.PatientProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

// SetProfile replaces the patient profile.  Calls already in flight keep the
// profile they started with.
func (s *Session) SetProfile(p pkg.PatientProfile) {
	s.mu.Lock()
	s.profile = p
	s.mu.Unlock()
}

// Messages returns a copy of the conversation.
func (s *Session) Messages() []pkg.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conv.Messages()
}

// Len is the number of messages in the conversation.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conv.Len()
}

// Verdict returns the latest verdict, or nil.
func (s *Session) Verdict() *pkg.Verdict { return s.result.Get() }

// Emergency returns the pending red-flag directive, or nil.
func (s *Session) Emergency() *pkg.Emergency {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.emergency == nil {
		return nil
	}
	e := *s.emergency
	return &e
}

// Dismiss acknowledges the pending directive so the conversation can
// resume.  It reports whether there was one.
func (s *Session) Dismiss() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	had := s.emergency != nil
	s.emergency = nil
	return had
}

// Busy reports whether a completion call is in flight.
func (s *Session) Busy() bool { return s.inflight.Load() }

// View builds the read model of the session.
func (s *Session) View(messageCap int) pkg.SessionView {
	s.mu.Lock()
	v := pkg.SessionView{
		ID:         s.ID,
		CreatedAt:  s.CreatedAt,
		Profile:    s.profile,
		Transcript: s.conv.Messages(),
		UserTurns:  s.conv.UserTurns(),
		MessageCap: messageCap,
	}
	if s.emergency != nil {
		e := *s.emergency
		v.Emergency = &e
	}
	s.mu.Unlock()
	v.Verdict = s.result.Get()
	return v
}

func (s *Session) acquire() bool { return s.inflight.CompareAndSwap(false, true) }

func (s *Session) release() { s.inflight.Store(false) }

func (s *Session) pendingEmergency() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.emergency != nil
}

func (s *Session) raise(e pkg.Emergency) {
	s.mu.Lock()
	s.emergency = &e
	s.mu.Unlock()
}

func (s *Session) userTurns() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conv.UserTurns()
}

// appendUser records a patient message and returns the history and profile
// the completion call must use.
func (s *Session) appendUser(text string) ([]pkg.Message, pkg.PatientProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conv.AppendUser(text)
	return s.conv.Messages(), s.profile
}

func (s *Session) appendAssistant(text string) {
	s.mu.Lock()
	s.conv.AppendAssistant(text)
	s.mu.Unlock()
}
