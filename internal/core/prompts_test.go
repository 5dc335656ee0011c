package core

import (
	"strings"
	"testing"

	"mediguard/pkg"
)

func TestVerdictSchema(t *testing.T) {
	want := `<TRIAGE>{"tier":1|2|3,"label":"GO TO ER NOW"|"SEE DOCTOR (24-48 hrs)"|"MANAGE AT HOME","confidence":"high"|"moderate"|"low","topSymptoms":["s1","s2","s3"],"explanation":"plain language reason","caveats":"what system cannot assess"}</TRIAGE>`
	if got := VerdictSchema(); got != want {
		t.Errorf("VerdictSchema() =\n%s\nwant\n%s", got, want)
	}
}

func TestSystemPrompt_Defaults(t *testing.T) {
	got := SystemPrompt(pkg.PatientProfile{})
	if !strings.Contains(got, "Patient: Age unknown, Sex unknown, Conditions: none, Medications: none.") {
		t.Errorf("missing defaults in prompt:\n%s", got)
	}
	for _, want := range []string{"onset", "severity 1-10", "duration", "one focused follow-up question", "never diagnose", VerdictSchema()} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestSystemPrompt_Profile(t *testing.T) {
	got := SystemPrompt(pkg.PatientProfile{Age: "45", Sex: "Female", Conditions: "Diabetes", Medications: "Metformin"})
	if !strings.Contains(got, "Patient: Age 45, Sex Female, Conditions: Diabetes, Medications: Metformin.") {
		t.Errorf("profile not interpolated:\n%s", got)
	}
}
