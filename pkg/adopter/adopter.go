// Package adopter implements the Adopter component: it
// broadcasts a decision record to every thread in a session and folds the
// decision into the world-state snapshot. Grounded in the same
// best-effort, log-and-skip fan-out idiom pkg/reactor uses per agent, but
// over the fixed set of threads a session already owns rather than a
// fresh dispatch.
package adopter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/civicsim/orchestrator/pkg/ledger"
	"github.com/civicsim/orchestrator/pkg/models"
	"github.com/civicsim/orchestrator/pkg/session"
	"github.com/civicsim/orchestrator/pkg/upstream"
)

// DecisionKind discriminates how a proposal was adopted.
type DecisionKind string

const (
	DecisionAdopted DecisionKind = "adopted"
	DecisionForced  DecisionKind = "forced"
)

const maxKeyQuotes = 3

// DecisionRecord is the Adopter's input: a decision kind,
// the proposal's header, a vote tally, up to three key quotes, and the
// per-zone sentiment shifts that justified the decision.
type DecisionRecord struct {
	Kind           DecisionKind
	ProposalTitle  string
	ProposalKind   models.ProposalKind
	VotePercent    float64
	KeyQuotes      []string
	ZoneSentiments []models.ZoneSentiment
}

// Result reports how many threads accepted the broadcast and a short
// human-readable outcome line for the caller.
type Result struct {
	ThreadsUpdated int
	Outcome        string
}

// Adopter is stateless; it only needs the upstream client to send the
// broadcast message to each already-created thread.
type Adopter struct {
	client   upstream.Client
	model    string
	provider string
	ledger   *ledger.Ledger
}

// New builds an Adopter. Unlike the other domain components, the
// broadcast message carries no schema and needs no persona — a single
// fixed model/provider pair (the registry default) is enough. ledger may
// be nil or disabled; Adopt treats that as a no-op append.
func New(client upstream.Client, model, provider string, ledger *ledger.Ledger) *Adopter {
	return &Adopter{client: client, model: model, provider: provider, ledger: ledger}
}

// Adopt sends a single "[DECISION RECORD]" message to the interpreter
// thread, the moderator thread, and every agent thread, skipping and
// logging any per-thread failure. The decision is considered recorded as
// long as at least one thread accepted it, after which the world-state
// snapshot is bumped with the adopted policy and, if enabled, the policy
// is appended to sessionID's ledger.
func (a *Adopter) Adopt(ctx context.Context, sessionID string, threads *session.Threads, record DecisionRecord) Result {
	message := formatDecisionRecord(record)

	updated := 0
	if handle := threads.Interpreter; handle.IsSet() {
		if a.send(ctx, handle.ThreadID, message) {
			updated++
		}
	}
	if handle := threads.Moderator; handle.IsSet() {
		if a.send(ctx, handle.ThreadID, message) {
			updated++
		}
	}
	for _, threadID := range threads.AllAgentThreads() {
		if a.send(ctx, threadID, message) {
			updated++
		}
	}

	outcome := "recorded"
	if updated == 0 {
		outcome = "no threads available to record the decision"
	}

	if updated > 0 {
		policy := models.AdoptedPolicy{
			ID:          policyID(record),
			Title:       record.ProposalTitle,
			Summary:     message,
			Outcome:     string(record.Kind),
			VotePercent: record.VotePercent,
			Timestamp:   time.Now(),
		}
		threads.BumpWorldState(func(ws *models.WorldState) {
			ws.AdoptedPolicies = append(ws.AdoptedPolicies, policy)
		})
		a.ledger.Append(ctx, sessionID, ledger.EventPolicyAdopted, policy)
	}

	return Result{ThreadsUpdated: updated, Outcome: outcome}
}

// send returns true on success; a failure is logged here and the caller
// skips that thread.
func (a *Adopter) send(ctx context.Context, threadID, message string) bool {
	_, err := a.client.SendMessage(ctx, threadID, message, a.model, a.provider)
	if err != nil {
		slog.Warn("adopter: decision broadcast failed", "thread_id", threadID, "error", err)
		return false
	}
	return true
}

func policyID(record DecisionRecord) string {
	return fmt.Sprintf("policy-%s-%d", record.Kind, time.Now().UnixNano())
}

func formatDecisionRecord(record DecisionRecord) string {
	msg := fmt.Sprintf("[DECISION RECORD] %q (%s) was %s with %.0f%% support.",
		record.ProposalTitle, record.ProposalKind, record.Kind, record.VotePercent)

	quotes := record.KeyQuotes
	if len(quotes) > maxKeyQuotes {
		quotes = quotes[:maxKeyQuotes]
	}
	for _, q := range quotes {
		msg += fmt.Sprintf("\n  - %q", q)
	}

	for _, z := range record.ZoneSentiments {
		msg += fmt.Sprintf("\n  %s sentiment shifted to %s (%.2f)", z.ZoneName, z.Sentiment, z.Score)
	}

	msg += "\nThis is now part of the historical record. Future reactions should account for it."
	return msg
}
