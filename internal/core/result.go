package core

import (
	"sync"

	"mediguard/pkg"
)

// ResultStore holds the latest verdict of a session.  A new verdict replaces
// the previous one wholesale; no history is kept.
type ResultStore struct {
	mu      sync.RWMutex
	verdict *pkg.Verdict
}

// Set replaces the current verdict.
func (r *ResultStore) Set(v pkg.Verdict) {
	v.TopSymptoms = cloneStrings(v.TopSymptoms)
	r.mu.Lock()
	r.verdict = &v
	r.mu.Unlock()
}

// Get returns a copy of the current verdict, or nil when none was recorded.
func (r *ResultStore) Get() *pkg.Verdict {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.verdict == nil {
		return nil
	}
	v := *r.verdict
	v.TopSymptoms = cloneStrings(v.TopSymptoms)
	return &v
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
