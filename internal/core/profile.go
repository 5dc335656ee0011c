package core

import (
	"errors"

	"mediguard/pkg"
)

// ErrProfileComplete is returned when answering a form with no steps left.
var ErrProfileComplete = errors.New("profile form already complete")

// ProfileStep is one question of the guided profile form.
type ProfileStep struct {
	Key         string
	Prompt      string
	Placeholder string
}

// ProfileSteps are asked in order.  Any answer, including an empty one,
// advances the form.
var ProfileSteps = []ProfileStep{
	{Key: "age", Prompt: "How old are you?", Placeholder: "e.g. 45"},
	{Key: "sex", Prompt: "Biological sex?", Placeholder: "Male / Female / Other"},
	{Key: "conditions", Prompt: "Any chronic conditions?", Placeholder: "Diabetes, or None"},
	{Key: "medications", Prompt: "Current medications?", Placeholder: "Metformin, or None"},
}

// ProfileForm walks a patient through ProfileSteps.
type ProfileForm struct {
	step    int
	profile pkg.PatientProfile
}

// NewProfileForm starts a form pre-filled with p, for editing.
func NewProfileForm(p pkg.PatientProfile) *ProfileForm {
	return &ProfileForm{profile: p}
}

// Current returns the step awaiting an answer.
func (f *ProfileForm) Current() (ProfileStep, bool) {
	if f.Done() {
		return ProfileStep{}, false
	}
	return ProfileSteps[f.step], true
}

// Progress returns the 1-based step number and the step count.
func (f *ProfileForm) Progress() (int, int) {
	n := f.step + 1
	if n > len(ProfileSteps) {
		n = len(ProfileSteps)
	}
	return n, len(ProfileSteps)
}

// Answer stores text for the current step and advances.
func (f *ProfileForm) Answer(text string) error {
	step, ok := f.Current()
	if !ok {
		return ErrProfileComplete
	}
	switch step.Key {
	case "age":
		f.profile.Age = text
	case "sex":
		f.profile.Sex = text
	case "conditions":
		f.profile.Conditions = text
	case "medications":
		f.profile.Medications = text
	}
	f.step++
	return nil
}

// Done reports whether every step was answered.
func (f *ProfileForm) Done() bool { return f.step >= len(ProfileSteps) }

// Reset reopens the form at the first step, keeping current answers.
func (f *ProfileForm) Reset() { f.step = 0 }

// Profile returns the answers collected so far.
func (f *ProfileForm) Profile() pkg.PatientProfile { return f.profile }
