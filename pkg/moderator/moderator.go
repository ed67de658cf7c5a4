// Package moderator implements the single-call Moderator component:
// synthesizes a town-hall-style debate transcript from a completed round
// of agent reactions. Built on the same lazy-assistant-and-thread idiom
// as pkg/interpreter, generalized to a multi-turn transcript instead of
// a single proposal.
package moderator

import (
	"context"
	"fmt"
	"strings"

	"github.com/civicsim/orchestrator/pkg/config"
	"github.com/civicsim/orchestrator/pkg/llmreply"
	"github.com/civicsim/orchestrator/pkg/models"
	"github.com/civicsim/orchestrator/pkg/promptschema"
	"github.com/civicsim/orchestrator/pkg/session"
	"github.com/civicsim/orchestrator/pkg/upstream"
)

const systemPrompt = `You are the moderator of a civic town hall. You are given a proposal and a set of stakeholder reactions, and you produce a short debate transcript capturing the disagreement. Respond with valid JSON only — no markdown, no prose outside the JSON object.`

// minTurns is the threshold below which a parsed transcript is rejected
// in favor of the deterministic fallback: fewer than five turns reads as
// a degenerate response, not a real debate.
const minTurns = 5

// Moderator is stateless; the cached assistant/thread handle lives in
// the session's Threads record.
type Moderator struct {
	client upstream.Client
	models *config.ModelRegistry
}

// New builds a Moderator over the given upstream client and model
// registry — the moderator has no per-agent override concept, so it
// always uses the registry's default model.
func New(client upstream.Client, modelRegistry *config.ModelRegistry) *Moderator {
	return &Moderator{client: client, models: modelRegistry}
}

// Moderate implements the single call: ensure the moderator
// thread, send the compact reaction summary, parse leniently, and fall
// back to a deterministic transcript on any failure or a too-short
// parsed result.
func (m *Moderator) Moderate(ctx context.Context, threads *session.Threads, proposal *models.Proposal, reactions []models.AgentReaction) *models.Transcript {
	handle, err := threads.EnsureModerator(func() (models.ThreadHandle, error) {
		assistantID, err := m.client.CreateAssistant(ctx, "civicsim-moderator", systemPrompt)
		if err != nil {
			return models.ThreadHandle{}, fmt.Errorf("moderator: create assistant: %w", err)
		}
		threadID, err := m.client.CreateThread(ctx, assistantID)
		if err != nil {
			return models.ThreadHandle{}, fmt.Errorf("moderator: create thread: %w", err)
		}
		return models.ThreadHandle{AssistantID: assistantID, ThreadID: threadID}, nil
	})
	if err != nil {
		return fallbackTranscript(proposal, reactions)
	}

	model := m.models.Default()
	provider := m.models.ProviderFor(model)
	prompt := buildPrompt(proposal, reactions)
	reply, err := m.client.SendMessage(ctx, handle.ThreadID, prompt, model, provider)
	if err != nil {
		return fallbackTranscript(proposal, reactions)
	}

	var raw rawTranscript
	if err := llmreply.ParseInto(reply, &raw); err != nil || len(raw.Turns) < minTurns {
		return fallbackTranscript(proposal, reactions)
	}

	return normalizeTranscript(raw)
}

type rawTranscript struct {
	ModeratorSummary  string    `json:"moderator_summary" jsonschema:"required"`
	Turns             []rawTurn `json:"turns" jsonschema:"required"`
	CompromiseOptions []string  `json:"compromise_options,omitempty"`
}

type rawTurn struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

const maxTurns = 12
const maxTurnRunes = 250
const maxCompromiseOptions = 3

func normalizeTranscript(raw rawTranscript) *models.Transcript {
	turns := make([]models.Turn, 0, len(raw.Turns))
	for i, t := range raw.Turns {
		if i >= maxTurns {
			break
		}
		turns = append(turns, models.Turn{Speaker: t.Speaker, Text: truncateRunes(t.Text, maxTurnRunes)})
	}
	options := raw.CompromiseOptions
	if len(options) > maxCompromiseOptions {
		options = options[:maxCompromiseOptions]
	}
	return &models.Transcript{
		Summary:           raw.ModeratorSummary,
		Turns:             turns,
		CompromiseOptions: options,
	}
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

func buildPrompt(proposal *models.Proposal, reactions []models.AgentReaction) string {
	var sb strings.Builder
	if proposal != nil {
		fmt.Fprintf(&sb, "Proposal (%s): %s\n%s\n\n", proposal.Kind, proposal.Title, proposal.Summary)
	}
	sb.WriteString("Stakeholder reactions:\n")
	for _, r := range reactions {
		sb.WriteString(formatReactionSummary(r))
	}
	sb.WriteString("\nRespond with JSON only, matching this shape:\n")
	sb.WriteString(promptschema.MustDescribe[rawTranscript]())
	return sb.String()
}

func formatReactionSummary(r models.AgentReaction) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "- %s %s: %q\n", r.DisplayName, stanceEmoji(r.Stance), r.Quote)
	for i, c := range r.Concerns {
		if i >= 2 {
			break
		}
		fmt.Fprintf(&sb, "    concern: %s\n", c)
	}
	for i, s := range r.SupportReasons {
		if i >= 2 {
			break
		}
		fmt.Fprintf(&sb, "    support: %s\n", s)
	}
	return sb.String()
}

func stanceEmoji(s models.Stance) string {
	switch s {
	case models.StanceSupport:
		return "\U0001F44D"
	case models.StanceOppose:
		return "\U0001F44E"
	default:
		return "\U0001F937"
	}
}

// fallbackTranscript synthesizes a deterministic transcript when the
// upstream call or parse fails, or the parsed transcript is too short:
// a moderator opening, each reaction's quote as its own turn, and a
// moderator closing.
func fallbackTranscript(proposal *models.Proposal, reactions []models.AgentReaction) *models.Transcript {
	title := "this proposal"
	if proposal != nil && proposal.Title != "" {
		title = proposal.Title
	}

	turns := make([]models.Turn, 0, len(reactions)+2)
	turns = append(turns, models.Turn{
		Speaker: "Moderator",
		Text:    fmt.Sprintf("Let's hear from each stakeholder about %s.", title),
	})
	for _, r := range reactions {
		quote := r.Quote
		if quote == "" {
			quote = fmt.Sprintf("%s has no strong opinion at this time.", r.DisplayName)
		}
		turns = append(turns, models.Turn{Speaker: r.DisplayName, Text: quote})
	}
	turns = append(turns, models.Turn{
		Speaker: "Moderator",
		Text:    "Thank you all — the town hall has heard every perspective.",
	})

	return &models.Transcript{
		Summary: fmt.Sprintf("Stakeholders discussed %s; reactions were mixed.", title),
		Turns:   turns,
	}
}
