package core

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"mediguard/internal/llm"
	"mediguard/pkg"
)

var (
	// ErrEmptyInput marks a blank submission.  Callers treat it as a no-op.
	ErrEmptyInput = errors.New("empty message")
	// ErrBusy is returned while another completion call for the same
	// session is in flight.
	ErrBusy = errors.New("a reply is already being generated for this session")
	// ErrEmergencyActive is returned until a raised directive is dismissed.
	ErrEmergencyActive = errors.New("emergency directive must be dismissed first")
)

const (
	defaultMessageCap = 50
	defaultTimeout    = 30 * time.Second
	recordTimeout     = 5 * time.Second
)

// TriageService runs one patient submission through the pipeline: red-flag
// filter, conversation log, completion call, reply parser and result store.
// It holds no session state of its own.
type TriageService struct {
	LLM      llm.Client
	Rules    RedFlagRules
	Recorder Recorder
	Log      zerolog.Logger

	// MessageCap bounds patient turns per session.  At the cap the service
	// answers with CapMessage and stops calling the model.
	MessageCap int
	// Timeout bounds a single completion call.
	Timeout time.Duration

	now func() time.Time
}

// NewTriageService constructs a service with the default rule table,
// message cap and completion timeout.
func NewTriageService(client llm.Client, logger zerolog.Logger) *TriageService {
	return &TriageService{
		LLM:        client,
		Rules:      DefaultRedFlags,
		Log:        logger,
		MessageCap: defaultMessageCap,
		Timeout:    defaultTimeout,
		now:        time.Now,
	}
}

// Send processes one patient submission for sess.
//
// A red-flag match returns the emergency directive without touching the
// conversation or calling the model.  A failed completion call is answered
// with FallbackReply and never returned as an error.  The returned errors
// are the sentinels ErrEmptyInput, ErrBusy and ErrEmergencyActive.
func (s *TriageService) Send(ctx context.Context, sess *Session, text string) (*pkg.ChatResponse, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyInput
	}
	if !sess.acquire() {
		return nil, ErrBusy
	}
	defer sess.release()

	if sess.pendingEmergency() {
		return nil, ErrEmergencyActive
	}

	log := s.Log.With().Str("session_id", sess.ID).Logger()

	if rule, ok := s.Rules.Match(text); ok {
		e := pkg.Emergency{Action: rule.Action, CallNumber: EmergencyNumber}
		sess.raise(e)
		log.Warn().Str("rule", rule.Name).Int("input_len", len(text)).Msg("red flag escalation")
		s.record(Event{SessionID: sess.ID, Kind: EventRedFlag, Rule: rule.Name, Detail: rule.Action})
		return &pkg.ChatResponse{Emergency: &e}, nil
	}

	if s.MessageCap > 0 && sess.userTurns() >= s.MessageCap {
		log.Info().Int("message_cap", s.MessageCap).Msg("message cap reached")
		s.record(Event{SessionID: sess.ID, Kind: EventCapReached})
		return &pkg.ChatResponse{Reply: CapMessage, Capped: true}, nil
	}

	history, profile := sess.appendUser(text)

	raw, err := s.complete(ctx, history, profile)
	if err != nil {
		log.Error().Err(err).Int("history_len", len(history)).Msg("completion failed")
		s.record(Event{SessionID: sess.ID, Kind: EventCompletionFailed, Detail: err.Error()})
		sess.appendAssistant(FallbackReply)
		return &pkg.ChatResponse{Reply: FallbackReply}, nil
	}

	parsed := ParseReply(raw)
	if parsed.Malformed() {
		log.Warn().Err(parsed.DecodeErr).Msg("malformed verdict block")
		s.record(Event{SessionID: sess.ID, Kind: EventMalformedVerdict, Detail: parsed.DecodeErr.Error()})
	}
	if parsed.Verdict != nil {
		sess.result.Set(*parsed.Verdict)
		log.Info().
			Int("tier", int(parsed.Verdict.Tier)).
			Str("confidence", string(parsed.Verdict.Confidence)).
			Msg("verdict recorded")
		s.record(Event{SessionID: sess.ID, Kind: EventVerdict, Tier: parsed.Verdict.Tier, Detail: parsed.Verdict.Label})
	}
	sess.appendAssistant(parsed.DisplayText)

	return &pkg.ChatResponse{Reply: parsed.DisplayText, Verdict: parsed.Verdict}, nil
}

// complete sends the system prompt and the full history to the model.
func (s *TriageService) complete(ctx context.Context, history []pkg.Message, profile pkg.PatientProfile) (string, error) {
	if s.LLM == nil {
		return "", errors.New("no completion client configured")
	}
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	return s.LLM.Chat(ctx, BuildMessages(profile, history))
}

// BuildMessages assembles the completion request: one system message
// followed by every conversation turn, role and content only.
func BuildMessages(profile pkg.PatientProfile, history []pkg.Message) []llm.Message {
	msgs := make([]llm.Message, 0, len(history)+1)
	msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: SystemPrompt(profile)})
	for _, m := range history {
		role := llm.RoleUser
		if m.Role == pkg.RoleAssistant {
			role = llm.RoleAssistant
		}
		msgs = append(msgs, llm.Message{Role: role, Content: m.Content})
	}
	return msgs
}

// record hands the event to the sink in the background so a slow sink never
// delays the patient's reply.
func (s *TriageService) record(e Event) {
	if s.Recorder == nil {
		return
	}
	e.ID = uuid.NewString()
	if s.now != nil {
		e.At = s.now()
	} else {
		e.At = time.Now()
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := s.Recorder.Record(ctx, e); err != nil {
			s.Log.Error().Err(err).Str("kind", string(e.Kind)).Msg("failed to record event")
		}
	}()
}
