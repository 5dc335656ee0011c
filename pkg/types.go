package pkg

import "time"

// MessageRole describes who authored a message.  Only the patient and the
// assistant take part in a triage conversation.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Message represents a chat message in a session.  CreatedAt is local
// bookkeeping and is never sent to the completion service.
type Message struct {
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"created_at"`
}

// PatientProfile holds the context collected by the guided profile form.
// Every field is free text and may be empty.
type PatientProfile struct {
	Age         string `json:"age"`
	Sex         string `json:"sex"`
	Conditions  string `json:"conditions"`
	Medications string `json:"medications"`
}

// Tier is the closed set of triage dispositions.
type Tier int

const (
	TierEmergency Tier = 1
	TierUrgent    Tier = 2
	TierSelfCare  Tier = 3
)

// Canonical labels the completion service is asked to use for each tier.
const (
	LabelEmergency = "GO TO ER NOW"
	LabelUrgent    = "SEE DOCTOR (24-48 hrs)"
	LabelSelfCare  = "MANAGE AT HOME"
)

// Tiers lists every valid tier in severity order.
var Tiers = []Tier{TierEmergency, TierUrgent, TierSelfCare}

// Valid reports whether t is one of the three known tiers.
func (t Tier) Valid() bool {
	return t >= TierEmergency && t <= TierSelfCare
}

// Label returns the canonical label for the tier.
func (t Tier) Label() string {
	switch t {
	case TierEmergency:
		return LabelEmergency
	case TierUrgent:
		return LabelUrgent
	case TierSelfCare:
		return LabelSelfCare
	default:
		return ""
	}
}

// Color is the display colour used by result and report views.
func (t Tier) Color() string {
	switch t {
	case TierEmergency:
		return "#dc2626"
	case TierUrgent:
		return "#d97706"
	case TierSelfCare:
		return "#16a34a"
	default:
		return "#6b7280"
	}
}

// Confidence is the model's self-reported certainty.
type Confidence string

const (
	ConfidenceHigh     Confidence = "high"
	ConfidenceModerate Confidence = "moderate"
	ConfidenceLow      Confidence = "low"
)

// Confidences lists the values the completion service is asked to use.
var Confidences = []Confidence{ConfidenceHigh, ConfidenceModerate, ConfidenceLow}

// Verdict is the structured triage outcome embedded in a model reply.  The
// JSON field names are the wire contract shared by the system prompt and the
// reply parser.
type Verdict struct {
	Tier        Tier       `json:"tier"`
	Label       string     `json:"label"`
	Confidence  Confidence `json:"confidence"`
	TopSymptoms []string   `json:"topSymptoms"`
	Explanation string     `json:"explanation"`
	Caveats     string     `json:"caveats"`
}

// Emergency is the escalation surfaced when a red flag fires.  The caller
// must acknowledge it before the conversation can continue.
type Emergency struct {
	Action     string `json:"action"`
	CallNumber string `json:"call_number"`
}

// ChatRequest represents a request to send a message from the patient.
type ChatRequest struct {
	Content string `json:"content"`
}

// ChatResponse carries the outcome of one patient submission.  Exactly one of
// Reply or Emergency is set.  Capped reports that the session reached its
// message limit and the model was not consulted.
type ChatResponse struct {
	Reply     string     `json:"reply,omitempty"`
	Verdict   *Verdict   `json:"verdict,omitempty"`
	Emergency *Emergency `json:"emergency,omitempty"`
	Capped    bool       `json:"capped,omitempty"`
}

// SessionView is the read model of a session returned by the API.
type SessionView struct {
	ID         string         `json:"id"`
	CreatedAt  time.Time      `json:"created_at"`
	Profile    PatientProfile `json:"profile"`
	Transcript []Message      `json:"transcript"`
	Verdict    *Verdict       `json:"verdict,omitempty"`
	Emergency  *Emergency     `json:"emergency,omitempty"`
	UserTurns  int            `json:"user_turns"`
	MessageCap int            `json:"message_cap"`
}
