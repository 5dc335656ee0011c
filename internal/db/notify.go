package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

// Notifier wraps the LISTEN/NOTIFY mechanism in PostgreSQL.  Red-flag
// escalations are published on Channel so an on-call dashboard or the
// watch command can react without polling.
type Notifier struct {
	DB      *sql.DB
	Channel string
	Log     zerolog.Logger
}

// NewNotifier constructs a new Notifier.  The channel should match the
// NOTIFY_CHANNEL setting.
func NewNotifier(db *sql.DB, channel string, logger zerolog.Logger) *Notifier {
	return &Notifier{DB: db, Channel: channel, Log: logger}
}

// EmergencyNotice is the JSON payload published for each escalation.
type EmergencyNotice struct {
	EventID   string    `json:"event_id"`
	SessionID string    `json:"session_id"`
	Rule      string    `json:"rule"`
	Action    string    `json:"action"`
	At        time.Time `json:"at"`
}

// Notify publishes a notice on the channel.
func (n *Notifier) Notify(ctx context.Context, notice EmergencyNotice) error {
	payload, err := json.Marshal(notice)
	if err != nil {
		return err
	}
	_, err = n.DB.ExecContext(ctx, `SELECT pg_notify($1, $2)`, n.Channel, string(payload))
	return err
}

// Listen subscribes to the channel on a dedicated connection and yields
// decoded notices until ctx is cancelled.
func (n *Notifier) Listen(ctx context.Context, dsn string) (<-chan EmergencyNotice, error) {
	listener := pq.NewListener(dsn, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			n.Log.Warn().Err(err).Int("event", int(ev)).Msg("listener connection event")
		}
	})
	if err := listener.Listen(n.Channel); err != nil {
		_ = listener.Close()
		return nil, err
	}

	ch := make(chan EmergencyNotice)
	go func() {
		defer func() {
			_ = listener.Close()
			close(ch)
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case note := <-listener.Notify:
				// nil after a reconnect; notices sent meanwhile are lost
				if note == nil {
					continue
				}
				notice, err := decodeNotice(note.Extra)
				if err != nil {
					n.Log.Warn().Err(err).Msg("dropping undecodable notice")
					continue
				}
				select {
				case ch <- notice:
				case <-ctx.Done():
					return
				}
			case <-time.After(90 * time.Second):
				go func() { _ = listener.Ping() }()
			}
		}
	}()
	return ch, nil
}

func decodeNotice(payload string) (EmergencyNotice, error) {
	var notice EmergencyNotice
	err := json.Unmarshal([]byte(payload), &notice)
	return notice, err
}
