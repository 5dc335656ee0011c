package core

import "strings"

// RedFlagRule maps a set of emergency trigger phrases to the directive shown
// to the patient.  Name identifies the rule in logs and audit events.
type RedFlagRule struct {
	Name     string   `json:"name"`
	Keywords []string `json:"keywords"`
	Action   string   `json:"action"`
}

// RedFlagRules is an ordered rule list.  Order is priority: the first rule
// with any matching keyword wins.
type RedFlagRules []RedFlagRule

// DefaultRedFlags is the built-in rule table, life-threatening rules first.
var DefaultRedFlags = RedFlagRules{
	{
		Name:     "chest_pain",
		Keywords: []string{"chest pain", "chest tightness", "chest pressure"},
		Action:   "CALL 911 IMMEDIATELY — Chest pain may indicate a heart attack. Do not wait.",
	},
	{
		Name:     "breathing",
		Keywords: []string{"can't breathe", "cannot breathe", "shortness of breath", "difficulty breathing"},
		Action:   "CALL 911 IMMEDIATELY — Breathing difficulty requires emergency care.",
	},
	{
		Name:     "stroke",
		Keywords: []string{"stroke", "face drooping", "arm weakness", "speech difficulty", "sudden numbness"},
		Action:   "CALL 911 IMMEDIATELY — These are stroke symptoms. Every second counts.",
	},
	{
		Name:     "unresponsive",
		Keywords: []string{"unconscious", "not breathing", "unresponsive", "seizure"},
		Action:   "CALL 911 IMMEDIATELY — This is a life-threatening emergency.",
	},
	{
		Name:     "bleeding",
		Keywords: []string{"severe bleeding", "bleeding won't stop"},
		Action:   "CALL 911 IMMEDIATELY — Severe bleeding requires emergency care.",
	},
}

// Match returns the first rule with a keyword contained in text, compared
// case-insensitively.
func (rules RedFlagRules) Match(text string) (RedFlagRule, bool) {
	low := strings.ToLower(text)
	if strings.TrimSpace(low) == "" {
		return RedFlagRule{}, false
	}
	for _, r := range rules {
		if containsAny(low, r.Keywords...) {
			return r, true
		}
	}
	return RedFlagRule{}, false
}

// Check returns the directive of the first matching rule.
func (rules RedFlagRules) Check(text string) (string, bool) {
	r, ok := rules.Match(text)
	if !ok {
		return "", false
	}
	return r.Action, true
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if sub != "" && strings.Contains(s, strings.ToLower(sub)) {
			return true
		}
	}
	return false
}
