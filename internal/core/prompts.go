package core

// prompts.go defines the fixed texts the triage conversation relies on and
// the system prompt sent with every completion call.  The verdict block
// schema is rendered from the pkg types so the prompt and the reply parser
// cannot drift apart.

import (
	"fmt"
	"strings"

	"mediguard/pkg"
)

const (
	// Greeting seeds every new conversation as the first assistant message.
	Greeting = "Hello! I'm MediGuard. Tell me what's bothering you today, and I'll help you determine the right level of care. Describe your symptoms in your own words."

	// FallbackReply replaces any failed completion call.  The user never sees
	// the underlying cause.
	FallbackReply = "Connection issue — please try again."

	// AssessmentPlaceholder is shown when a reply carried nothing but the
	// verdict block.
	AssessmentPlaceholder = "Here is your triage assessment."

	// CapMessage is sent when the patient exceeds the message cap for a
	// session.  The model is not consulted again for this session.
	CapMessage = "We've reached the message limit for this assessment. Thank you for the details you shared. Please review your result or start a new session."

	// EmergencyNumber is offered as the one-tap call target with every
	// red-flag directive.
	EmergencyNumber = "911"
)

// Verdict block delimiters.  The payload between them is a JSON pkg.Verdict.
const (
	TriageOpen  = "<TRIAGE>"
	TriageClose = "</TRIAGE>"
)

const systemPromptTemplate = `You are MediGuard, a compassionate AI triage assistant.
Patient: Age %s, Sex %s, Conditions: %s, Medications: %s.
Ask about onset, severity 1-10, duration, associated factors. After 3-4 exchanges output triage JSON wrapped in %s:
%s
Until ready, ask one focused follow-up question. Be warm, concise, never diagnose.`

// SystemPrompt builds the system instruction for one completion call.
// Missing age and sex read "unknown"; missing conditions and medications
// read "none".
func SystemPrompt(p pkg.PatientProfile) string {
	return fmt.Sprintf(systemPromptTemplate,
		orDefault(p.Age, "unknown"),
		orDefault(p.Sex, "unknown"),
		orDefault(p.Conditions, "none"),
		orDefault(p.Medications, "none"),
		TriageOpen,
		VerdictSchema(),
	)
}

// VerdictSchema renders the verdict block exactly as the model is asked to
// emit it.
func VerdictSchema() string {
	tiers := make([]string, 0, len(pkg.Tiers))
	labels := make([]string, 0, len(pkg.Tiers))
	for _, t := range pkg.Tiers {
		tiers = append(tiers, fmt.Sprint(int(t)))
		labels = append(labels, fmt.Sprintf("%q", t.Label()))
	}
	confidences := make([]string, 0, len(pkg.Confidences))
	for _, c := range pkg.Confidences {
		confidences = append(confidences, fmt.Sprintf("%q", string(c)))
	}

	var b strings.Builder
	b.WriteString(TriageOpen)
	fmt.Fprintf(&b, `{"tier":%s,`, strings.Join(tiers, "|"))
	fmt.Fprintf(&b, `"label":%s,`, strings.Join(labels, "|"))
	fmt.Fprintf(&b, `"confidence":%s,`, strings.Join(confidences, "|"))
	b.WriteString(`"topSymptoms":["s1","s2","s3"],`)
	b.WriteString(`"explanation":"plain language reason",`)
	b.WriteString(`"caveats":"what system cannot assess"}`)
	b.WriteString(TriageClose)
	return b.String()
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
