package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// LedgerEvent is one append-only record of a session's event log
//. Seq is the event's 1-based position within its session;
// a world state's Version equals the highest Seq replayed so far.
type LedgerEvent struct {
	SessionID string          `db:"session_id"`
	Seq       int64           `db:"seq"`
	EventType string          `db:"event_type"`
	Payload   json.RawMessage `db:"payload"`
}

// LedgerRepo persists per-session event logs for world-state replay.
type LedgerRepo struct {
	client *Client
}

// NewLedgerRepo builds a repository over client.
func NewLedgerRepo(client *Client) *LedgerRepo {
	return &LedgerRepo{client: client}
}

// Append inserts the next event for sessionID, assigning it the session's
// next sequence number. It never overwrites prior events — the ledger is
// append-only.
func (r *LedgerRepo) Append(ctx context.Context, sessionID, eventType string, payload json.RawMessage) (int64, error) {
	var seq int64
	err := r.client.pool.QueryRow(ctx, `
		INSERT INTO ledger_events (session_id, seq, event_type, payload)
		SELECT $1, COALESCE(MAX(seq), 0) + 1, $2, $3
		FROM ledger_events WHERE session_id = $1
		RETURNING seq`, sessionID, eventType, payload).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("append ledger event: %w", err)
	}
	return seq, nil
}

// Replay returns every event for sessionID in sequence order, the input to
// the world-state rebuild-by-replay path.
func (r *LedgerRepo) Replay(ctx context.Context, sessionID string) ([]LedgerEvent, error) {
	rows, err := r.client.pool.Query(ctx, `
		SELECT session_id, seq, event_type, payload
		FROM ledger_events WHERE session_id = $1 ORDER BY seq ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("replay ledger: %w", err)
	}
	defer rows.Close()

	events, err := pgx.CollectRows(rows, pgx.RowToStructByName[LedgerEvent])
	if err != nil {
		return nil, fmt.Errorf("scan ledger events: %w", err)
	}
	return events, nil
}
