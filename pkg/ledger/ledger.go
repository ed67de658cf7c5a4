// Package ledger implements an optional, feature-flagged append-only
// event log: every adopted build, adopted policy, and significant DM
// shift is appended to a durable per-session log, from which a
// world-state snapshot can be rebuilt by folding events in order. Built
// on pkg/storage/postgres.LedgerRepo's append/replay API; reads and
// writes here are best-effort — a secondary persistence concern must
// never fail the request it's logging (compare pkg/cache's
// promote-is-best-effort behavior).
package ledger

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/civicsim/orchestrator/pkg/models"
	"github.com/civicsim/orchestrator/pkg/storage/postgres"
)

// EventType discriminates the three event kinds the ledger records.
type EventType string

const (
	EventBuildAdopted  EventType = "build_adopted"
	EventPolicyAdopted EventType = "policy_adopted"
	EventDMShift       EventType = "dm_shift"
)

// Ledger wraps a LedgerRepo with the enabled flag and a best-effort
// error-swallowing contract. A nil repo, enabled=false, or a nil *Ledger
// itself all make every operation a no-op, so callers never need to
// branch on whether the feature is on or even configured.
type Ledger struct {
	repo    *postgres.LedgerRepo
	enabled bool
}

// New builds a Ledger. Pass enabled=false (or a nil repo) to get a no-op
// implementation — the orchestrator then always falls back to the
// in-memory world-state snapshot.
func New(repo *postgres.LedgerRepo, enabled bool) *Ledger {
	return &Ledger{repo: repo, enabled: enabled && repo != nil}
}

// Append records one event for sessionID. Any storage failure is
// swallowed — the caller receives no error and should treat the write as
// best-effort; a failure is logged and dropped.
func (l *Ledger) Append(ctx context.Context, sessionID string, eventType EventType, payload any) {
	if l == nil || !l.enabled {
		return
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		slog.Warn("ledger: encode event failed", "session_id", sessionID, "event_type", eventType, "error", err)
		return
	}
	if _, err := l.repo.Append(ctx, sessionID, string(eventType), raw); err != nil {
		slog.Warn("ledger: append failed", "session_id", sessionID, "event_type", eventType, "error", err)
	}
}

// Replay rebuilds a world-state snapshot by folding every event for
// sessionID in sequence order. It returns (nil, false) whenever the
// ledger is disabled or the read fails; the orchestrator then falls
// back to the in-memory snapshot as the sole source of truth.
func (l *Ledger) Replay(ctx context.Context, sessionID string) (*models.WorldState, bool) {
	if l == nil || !l.enabled {
		return nil, false
	}
	events, err := l.repo.Replay(ctx, sessionID)
	if err != nil {
		return nil, false
	}

	ws := &models.WorldState{}
	for _, ev := range events {
		foldEvent(ws, ev)
		ws.Version = int(ev.Seq)
	}
	return ws, true
}

func foldEvent(ws *models.WorldState, ev postgres.LedgerEvent) {
	switch EventType(ev.EventType) {
	case EventBuildAdopted:
		var item models.PlacedItem
		if json.Unmarshal(ev.Payload, &item) == nil {
			ws.PlacedItems = append(ws.PlacedItems, item)
		}
	case EventPolicyAdopted:
		var policy models.AdoptedPolicy
		if json.Unmarshal(ev.Payload, &policy) == nil {
			ws.AdoptedPolicies = append(ws.AdoptedPolicies, policy)
		}
	case EventDMShift:
		var shift models.RelationshipShift
		if json.Unmarshal(ev.Payload, &shift) == nil {
			ws.TopShifts = append(ws.TopShifts, shift)
		}
	}
}
