// Package directmessenger implements the DirectMessenger component: a
// one-to-one message between two agents that both produces a reply and
// updates the relationship graph. Built on the same
// canonicalized-pair-thread idiom session.Threads already exposes for
// EnsureDMThread.
package directmessenger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/civicsim/orchestrator/pkg/config"
	"github.com/civicsim/orchestrator/pkg/ledger"
	"github.com/civicsim/orchestrator/pkg/llmreply"
	"github.com/civicsim/orchestrator/pkg/models"
	"github.com/civicsim/orchestrator/pkg/promptschema"
	"github.com/civicsim/orchestrator/pkg/session"
	"github.com/civicsim/orchestrator/pkg/upstream"
)

// Result is the DirectMessenger's return value.
type Result struct {
	Reply                string
	StructuredUpdate     StructuredUpdate
	NewRelationshipScore float64
}

// StructuredUpdate is the small JSON object requested in the second,
// structured upstream call.
type StructuredUpdate struct {
	RelationshipDelta float64
	StanceChanged     bool
	NewStance         *models.Stance
	NewIntensity      *float64
	Reason            string
}

// DirectMessenger is stateless; per-pair thread ids live in the
// session's Threads record.
type DirectMessenger struct {
	client upstream.Client
	agents *config.AgentCatalog
	models *config.ModelRegistry
	ledger *ledger.Ledger
}

// New builds a DirectMessenger over the given upstream client and static
// catalogs. ledger may be nil or disabled; Send treats that as a no-op
// append.
func New(client upstream.Client, agents *config.AgentCatalog, modelRegistry *config.ModelRegistry, ledger *ledger.Ledger) *DirectMessenger {
	return &DirectMessenger{client: client, agents: agents, models: modelRegistry, ledger: ledger}
}

const dmAssistantSystemPrompt = `You role-play as a civic stakeholder receiving a direct message from another stakeholder. Respond first in natural language as yourself, then, when asked, respond with structured JSON only.`

// Send implements the six steps: canonicalized thread binding, a
// two-part conversational exchange, a structured follow-up call, and the
// relationship-graph side effect. If enabled, the resulting shift is also
// appended to sessionID's ledger.
func (d *DirectMessenger) Send(ctx context.Context, sessionID string, threads *session.Threads, from, to, message, proposalTitle string) (*Result, error) {
	recipient, err := d.agents.Get(to)
	if err != nil {
		return nil, fmt.Errorf("directmessenger: %w", err)
	}
	speaker, err := d.agents.Get(from)
	if err != nil {
		return nil, fmt.Errorf("directmessenger: %w", err)
	}

	threadID, err := threads.EnsureDMThread(from, to, func() (string, error) {
		assistantID, err := threads.EnsureDMAssistant(func() (string, error) {
			return d.client.CreateAssistant(ctx, "civicsim-dm", dmAssistantSystemPrompt)
		})
		if err != nil {
			return "", fmt.Errorf("directmessenger: ensure dm assistant: %w", err)
		}
		return d.client.CreateThread(ctx, assistantID)
	})
	if err != nil {
		return nil, fmt.Errorf("directmessenger: ensure dm thread: %w", err)
	}

	model := d.models.Default()
	provider := d.models.ProviderFor(model)

	replyPrompt := buildReplyPrompt(speaker, recipient, message)
	reply, err := d.client.SendMessage(ctx, threadID, replyPrompt, model, provider)
	if err != nil {
		return nil, fmt.Errorf("directmessenger: send reply prompt: %w", err)
	}

	update := requestStructuredUpdate(ctx, d.client, threadID, model, provider)

	edge := threads.UpdateRelationship(to, from, update.RelationshipDelta, update.Reason, message, nil, update.NewStance, time.Now())

	d.ledger.Append(ctx, sessionID, ledger.EventDMShift, models.RelationshipShift{From: from, To: to, Score: edge.Score})

	if update.StanceChanged && proposalTitle != "" {
		if mainThreadID, ok := threads.AgentThread(to); ok {
			note := fmt.Sprintf("[STANCE UPDATE] %s's stance may have shifted after a message from %s regarding %q: %s", recipient.DisplayName, speaker.DisplayName, proposalTitle, update.Reason)
			if _, err := d.client.SendMessage(ctx, mainThreadID, note, model, provider); err != nil {
				// The error is discarded: a failed note never invalidates
				// an otherwise-successful DM.
				_ = err
			}
		}
	}

	return &Result{
		Reply:                reply,
		StructuredUpdate:     update,
		NewRelationshipScore: edge.Score,
	}, nil
}

func buildReplyPrompt(speaker, recipient models.Agent, message string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%s) is sending you, %s (%s), the following direct message:\n\n", speaker.DisplayName, speaker.Role, recipient.DisplayName, recipient.Role)
	fmt.Fprintf(&sb, "%q\n\n", message)
	sb.WriteString("Reply in the voice of ")
	sb.WriteString(recipient.DisplayName)
	sb.WriteString(", staying in character. Respond with natural language only — no JSON in this reply.")
	return sb.String()
}

type rawStructuredUpdate struct {
	RelationshipDelta float64  `json:"relationship_delta" jsonschema:"required"`
	StanceChanged     bool     `json:"stance_changed" jsonschema:"required"`
	NewStance         string   `json:"new_stance,omitempty"`
	NewIntensity      *float64 `json:"new_intensity,omitempty"`
	Reason            string   `json:"reason" jsonschema:"required"`
}

const structuredUpdatePrompt = `Now summarize how that exchange affected your feelings toward the sender. Respond with JSON only, matching this shape:
%s`

// requestStructuredUpdate issues the second, structured call and parses
// it leniently. Any failure (upstream or parse) defaults to zero delta
// and "no significant change".
func requestStructuredUpdate(ctx context.Context, client upstream.Client, threadID, model, provider string) StructuredUpdate {
	prompt := fmt.Sprintf(structuredUpdatePrompt, promptschema.MustDescribe[rawStructuredUpdate]())
	reply, err := client.SendMessage(ctx, threadID, prompt, model, provider)
	if err != nil {
		return defaultUpdate()
	}

	var raw rawStructuredUpdate
	if err := llmreply.ParseInto(reply, &raw); err != nil {
		return defaultUpdate()
	}

	return normalizeUpdate(raw)
}

func defaultUpdate() StructuredUpdate {
	return StructuredUpdate{RelationshipDelta: 0, StanceChanged: false, Reason: "no significant change"}
}

func normalizeUpdate(raw rawStructuredUpdate) StructuredUpdate {
	update := StructuredUpdate{
		RelationshipDelta: clampDelta(raw.RelationshipDelta),
		StanceChanged:     raw.StanceChanged,
		NewIntensity:      raw.NewIntensity,
		Reason:            raw.Reason,
	}
	if raw.NewStance != "" {
		stance := models.Stance(strings.ToLower(raw.NewStance))
		switch stance {
		case models.StanceSupport, models.StanceOppose, models.StanceNeutral:
			update.NewStance = &stance
		}
	}
	return update
}

func clampDelta(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}
