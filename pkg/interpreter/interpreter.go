// Package interpreter implements the single-call Interpreter component:
// turns one piece of free-text user input into a structured Proposal, or
// a set of clarifying questions when the request is too vague to act on.
// One component owns both prompt assembly and reply handling for its
// stage, and reply parsing goes through the lenient-parse idiom already
// wired as pkg/llmreply.
package interpreter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/civicsim/orchestrator/pkg/config"
	"github.com/civicsim/orchestrator/pkg/llmreply"
	"github.com/civicsim/orchestrator/pkg/models"
	"github.com/civicsim/orchestrator/pkg/promptschema"
	"github.com/civicsim/orchestrator/pkg/session"
	"github.com/civicsim/orchestrator/pkg/upstream"
)

const systemPrompt = `You are the civic-simulation intake assistant. You turn one resident's free-text request into a structured proposal a downstream multi-agent simulation can react to. Respond with valid JSON only — no markdown, no prose outside the JSON object.`

// Result is the Interpreter's output: either a parsed
// Proposal with supporting assumptions and a confidence score, or
// ok=false with clarifying questions (or a human-readable error) for
// the caller to relay back to the user.
type Result struct {
	OK                  bool
	Proposal            *models.Proposal
	Assumptions         []string
	Confidence          float64
	ClarifyingQuestions []string
	Error               string
}

// Interpreter is a single-call, stateless component; all mutable state
// (the cached assistant/thread ids) lives in the session's Threads record
// passed into Interpret.
type Interpreter struct {
	client upstream.Client
	zones  *config.ZoneCatalog
	models *config.ModelRegistry
}

// New builds an Interpreter over the given upstream client and static
// catalogs.
func New(client upstream.Client, zones *config.ZoneCatalog, modelRegistry *config.ModelRegistry) *Interpreter {
	return &Interpreter{client: client, zones: zones, models: modelRegistry}
}

// Interpret turns one message into a structured proposal or a set of
// clarifying questions. Parse failure never returns an error — it is
// folded into Result.OK=false. Upstream failure propagates as an
// *upstream.Error (or whatever the Client's transport returns).
func (in *Interpreter) Interpret(ctx context.Context, threads *session.Threads, message string) (*Result, error) {
	handle, err := threads.EnsureInterpreter(func() (models.ThreadHandle, error) {
		assistantID, err := in.client.CreateAssistant(ctx, "civicsim-interpreter", systemPrompt)
		if err != nil {
			return models.ThreadHandle{}, fmt.Errorf("interpreter: create assistant: %w", err)
		}
		threadID, err := in.client.CreateThread(ctx, assistantID)
		if err != nil {
			return models.ThreadHandle{}, fmt.Errorf("interpreter: create thread: %w", err)
		}
		return models.ThreadHandle{AssistantID: assistantID, ThreadID: threadID}, nil
	})
	if err != nil {
		return nil, err
	}

	prompt := buildPrompt(message, in.zones.IDs())

	model := in.models.Default()
	provider := in.models.ProviderFor(model)
	reply, err := in.client.SendMessage(ctx, handle.ThreadID, prompt, model, provider)
	if err != nil {
		return nil, err
	}

	result := parseReply(reply, in.zones)
	return result, nil
}

func buildPrompt(message string, zoneIDs []string) string {
	return fmt.Sprintf(interpretTemplate, message, formatZoneList(zoneIDs), promptschema.MustDescribe[rawInterpretation]())
}

func formatZoneList(zoneIDs []string) string {
	out := ""
	for i, id := range zoneIDs {
		if i > 0 {
			out += ", "
		}
		out += id
	}
	return out
}

const interpretTemplate = `A resident submitted this request to a civic planning simulator:

%q

Known zones (valid zone ids): %s

Determine whether this is an actionable civic proposal (a new build/
placement, or a policy change) or whether it is too vague to act on
(e.g. a greeting, an unrelated question, or missing essential detail
like location or subject).

If actionable, respond with JSON matching this shape:
%s

If not actionable, respond with:
{"ok": false, "clarifying_questions": ["...", "..."]}

Respond with JSON only.`

// rawInterpretation is the shape promptschema reflects into the prompt's
// embedded schema description; it intentionally mirrors models.Proposal
// loosely rather than exactly, since target_group may arrive as either a
// string or a list and the lenient parse step below normalizes it.
type rawInterpretation struct {
	OK         bool               `json:"ok" jsonschema:"required"`
	Proposal   *rawProposal       `json:"proposal,omitempty"`
	Assumptions []string          `json:"assumptions,omitempty"`
	Confidence float64            `json:"confidence,omitempty"`
}

type rawProposal struct {
	Kind       string           `json:"kind" jsonschema:"required,enum=build|policy"`
	Title      string           `json:"title" jsonschema:"required"`
	Summary    string           `json:"summary" jsonschema:"required"`
	Location   *rawLocation     `json:"location,omitempty"`
	Parameters *rawParameters   `json:"parameters,omitempty"`
}

type rawLocation struct {
	Type    string    `json:"type" jsonschema:"enum=none|zone-set|point|polygon"`
	ZoneIDs []string  `json:"zone_ids,omitempty"`
	Lat     float64   `json:"latitude,omitempty"`
	Lng     float64   `json:"longitude,omitempty"`
	RadiusM float64   `json:"radius_m,omitempty"`
}

type rawParameters struct {
	Scale       float64         `json:"scale,omitempty"`
	Budget      *float64        `json:"budget,omitempty"`
	TargetGroup any             `json:"target_group,omitempty"`
}

// parseReply tolerates a model that wraps its object reply in a
// single-element array by taking the first object.
func parseReply(reply string, zones *config.ZoneCatalog) *Result {
	var raw rawInterpretation
	if err := llmreply.ParseInto(reply, &raw); err != nil {
		return &Result{OK: false, Error: err.Error()}
	}

	if !raw.OK || raw.Proposal == nil {
		var clarify struct {
			ClarifyingQuestions []string `json:"clarifying_questions"`
			Error               string   `json:"error"`
		}
		_ = llmreply.ParseInto(reply, &clarify)
		return &Result{OK: false, ClarifyingQuestions: clarify.ClarifyingQuestions, Error: clarify.Error}
	}

	proposal, err := normalizeProposal(raw.Proposal, zones)
	if err != nil {
		slog.Warn("interpreter: proposal normalization failed", "error", err)
		return &Result{OK: false, Error: err.Error()}
	}

	return &Result{
		OK:          true,
		Proposal:    proposal,
		Assumptions: raw.Assumptions,
		Confidence:  clampConfidence(raw.Confidence),
	}
}

func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
