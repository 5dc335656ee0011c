// Package report renders the clinician hand-off summary of a triage session
// as plain text or PDF.
package report

import (
	"fmt"
	"strings"
	"time"

	"mediguard/pkg"
)

// FollowUp is one scheduled check-in after a non-emergency disposition.
type FollowUp struct {
	After    string
	Label    string
	Question string
}

// FollowUpSchedule is recommended for tiers 2 and 3.
var FollowUpSchedule = []FollowUp{
	{After: "6 hours", Label: "Early Check", Question: "How are you feeling compared to earlier? Better, same, or worse?"},
	{After: "24 hours", Label: "Next Day Check", Question: "Did your symptoms improve overnight? Any new symptoms?"},
	{After: "48 hours", Label: "48hr Follow-Up", Question: "Has your condition resolved or are you still experiencing symptoms?"},
}

const (
	notProvided  = "Not provided"
	noneReported = "None reported"
	noVerdict    = "Complete the symptom chat to include triage results"
	disclaimer   = "This summary was produced by an automated triage assistant and is not a diagnosis."
)

// Report is the hand-off summary of one session.
type Report struct {
	SessionID   string
	GeneratedAt time.Time
	Profile     pkg.PatientProfile
	Verdict     *pkg.Verdict
	Transcript  []pkg.Message
	FollowUps   []FollowUp
}

// Field is a labelled profile line.
type Field struct {
	Label string
	Value string
}

// Build assembles a report from the session read model.
func Build(view pkg.SessionView, now time.Time) Report {
	r := Report{
		SessionID:   view.ID,
		GeneratedAt: now,
		Profile:     view.Profile,
		Verdict:     view.Verdict,
		Transcript:  view.Transcript,
	}
	if view.Verdict != nil && view.Verdict.Tier != pkg.TierEmergency {
		r.FollowUps = FollowUpSchedule
	}
	return r
}

// ProfileFields lists the patient information with placeholders for blanks.
func (r Report) ProfileFields() []Field {
	p := r.Profile
	return []Field{
		{"Age", placeholder(p.Age, notProvided)},
		{"Sex", placeholder(p.Sex, notProvided)},
		{"Conditions", placeholder(p.Conditions, noneReported)},
		{"Medications", placeholder(p.Medications, noneReported)},
	}
}

// Text renders the report as plain text.
func (r Report) Text() string {
	var b strings.Builder

	b.WriteString("MediGuard Report\n")
	fmt.Fprintf(&b, "Generated: %s\n", r.GeneratedAt.Format("02 Jan 2006 15:04"))
	fmt.Fprintf(&b, "Session: %s\n\n", r.SessionID)

	b.WriteString("Patient Information\n")
	for _, f := range r.ProfileFields() {
		fmt.Fprintf(&b, "  %-12s %s\n", f.Label+":", f.Value)
	}
	b.WriteString("\n")

	b.WriteString("Triage Recommendation\n")
	if r.Verdict == nil {
		fmt.Fprintf(&b, "  %s\n", noVerdict)
	} else {
		for _, line := range verdictLines(*r.Verdict) {
			fmt.Fprintf(&b, "  %s\n", line)
		}
	}

	if len(r.FollowUps) > 0 {
		b.WriteString("\nFollow-Up Plan\n")
		for _, f := range r.FollowUps {
			fmt.Fprintf(&b, "  After %s (%s): %s\n", f.After, f.Label, f.Question)
		}
	}

	if len(r.Transcript) > 0 {
		b.WriteString("\nConversation\n")
		for _, m := range r.Transcript {
			fmt.Fprintf(&b, "  %s: %s\n", speaker(m.Role), m.Content)
		}
	}

	fmt.Fprintf(&b, "\n%s\n", disclaimer)
	return b.String()
}

func verdictLines(v pkg.Verdict) []string {
	label := v.Label
	if label == "" {
		label = v.Tier.Label()
	}
	lines := []string{
		fmt.Sprintf("Tier %d: %s", int(v.Tier), label),
		fmt.Sprintf("Confidence: %s", confidenceText(v.Confidence)),
	}
	if len(v.TopSymptoms) > 0 {
		lines = append(lines, "Key factors: "+strings.Join(v.TopSymptoms, ", "))
	}
	if v.Explanation != "" {
		lines = append(lines, "Why: "+v.Explanation)
	}
	if v.Caveats != "" {
		lines = append(lines, "Caveats: "+v.Caveats)
	}
	return lines
}

// confidenceText capitalises the model's confidence, "Moderate" when absent.
func confidenceText(c pkg.Confidence) string {
	s := string(c)
	if s == "" {
		return "Moderate"
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func speaker(role pkg.MessageRole) string {
	if role == pkg.RoleUser {
		return "Patient"
	}
	return "Assistant"
}

func placeholder(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
