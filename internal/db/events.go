package db

import (
	"context"
	"database/sql"

	"mediguard/internal/core"
	"mediguard/pkg"
)

// EventLog stores pipeline events in Postgres and publishes red-flag
// escalations through the Notifier.  It implements core.Recorder.
type EventLog struct {
	DB       *sql.DB
	Notifier *Notifier
}

// NewEventLog constructs an EventLog.  notifier may be nil.
func NewEventLog(db *sql.DB, notifier *Notifier) *EventLog {
	return &EventLog{DB: db, Notifier: notifier}
}

// Record inserts e and, for red flags, notifies listeners.
func (l *EventLog) Record(ctx context.Context, e core.Event) error {
	_, err := l.DB.ExecContext(ctx,
		`INSERT INTO triage_events (id, session_id, kind, rule, tier, detail, created_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.SessionID, string(e.Kind), e.Rule, int(e.Tier), e.Detail, e.At,
	)
	if err != nil {
		return err
	}
	if e.Kind == core.EventRedFlag && l.Notifier != nil {
		return l.Notifier.Notify(ctx, EmergencyNotice{
			EventID:   e.ID,
			SessionID: e.SessionID,
			Rule:      e.Rule,
			Action:    e.Detail,
			At:        e.At,
		})
	}
	return nil
}

// Recent returns the latest events, newest first.
func (l *EventLog) Recent(ctx context.Context, limit int) ([]core.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.DB.QueryContext(ctx,
		`SELECT id, session_id, kind, rule, tier, detail, created_at
         FROM triage_events
         ORDER BY created_at DESC
         LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []core.Event
	for rows.Next() {
		var (
			e    core.Event
			kind string
			tier int
		)
		if err := rows.Scan(&e.ID, &e.SessionID, &kind, &e.Rule, &tier, &e.Detail, &e.At); err != nil {
			return nil, err
		}
		e.Kind = core.EventKind(kind)
		e.Tier = pkg.Tier(tier)
		events = append(events, e)
	}
	return events, rows.Err()
}
