package core

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"mediguard/pkg"
)

var triageBlock = regexp.MustCompile(`(?s)` + regexp.QuoteMeta(TriageOpen) + `(.*?)` + regexp.QuoteMeta(TriageClose))

// ParsedReply separates a model reply into the text shown to the patient and
// the structured verdict, if one was embedded.
type ParsedReply struct {
	Verdict     *pkg.Verdict
	DisplayText string

	// DecodeErr is set when a verdict block was present but unusable.  The
	// reply is then shown verbatim and no verdict is recorded.
	DecodeErr error
}

// Malformed reports whether a verdict block was found but rejected.
func (p ParsedReply) Malformed() bool { return p.DecodeErr != nil }

// ParseReply extracts the first verdict block from raw.  It never fails:
// replies without a block, or with a block that does not decode into a
// verdict with a known tier, are passed through unchanged.
func ParseReply(raw string) ParsedReply {
	loc := triageBlock.FindStringSubmatchIndex(raw)
	if loc == nil {
		return ParsedReply{DisplayText: raw}
	}

	verdict, err := decodeVerdict(raw[loc[2]:loc[3]])
	if err != nil {
		return ParsedReply{DisplayText: raw, DecodeErr: err}
	}

	display := strings.TrimSpace(raw[:loc[0]] + raw[loc[1]:])
	if display == "" {
		display = AssessmentPlaceholder
	}
	return ParsedReply{Verdict: verdict, DisplayText: display}
}

func decodeVerdict(payload string) (*pkg.Verdict, error) {
	var v pkg.Verdict
	if err := json.Unmarshal([]byte(strings.TrimSpace(payload)), &v); err != nil {
		return nil, fmt.Errorf("decode verdict: %w", err)
	}
	if !v.Tier.Valid() {
		return nil, fmt.Errorf("decode verdict: tier %d out of range", v.Tier)
	}
	return &v, nil
}
