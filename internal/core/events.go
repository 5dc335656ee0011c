package core

import (
	"context"
	"time"

	"mediguard/pkg"
)

// EventKind names a point in the pipeline operators want to see.
type EventKind string

const (
	EventRedFlag          EventKind = "red_flag"
	EventVerdict          EventKind = "verdict"
	EventCompletionFailed EventKind = "completion_failed"
	EventMalformedVerdict EventKind = "malformed_verdict"
	EventCapReached       EventKind = "cap_reached"
)

// Event is an audit record.  It carries no patient free text.
type Event struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Kind      EventKind `json:"kind"`
	Rule      string    `json:"rule,omitempty"`
	Tier      pkg.Tier  `json:"tier,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	At        time.Time `json:"at"`
}

// Recorder is the telemetry sink for pipeline events.
type Recorder interface {
	Record(ctx context.Context, e Event) error
}
