// Package reactor implements the agent fan-out core: for every agent in
// the static catalog, binds a persistent thread, sends one prompt
// embedding the proposal, persona, and world state, and folds the result
// into a normalized AgentReaction. Uses a bounded pool of goroutines
// delivering results over a buffered channel, generalized from a
// tool-calling sub-agent dispatcher to a fixed fan-out over N agents.
package reactor

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/civicsim/orchestrator/pkg/config"
	"github.com/civicsim/orchestrator/pkg/llmreply"
	"github.com/civicsim/orchestrator/pkg/models"
	"github.com/civicsim/orchestrator/pkg/session"
	"github.com/civicsim/orchestrator/pkg/upstream"
	"github.com/civicsim/orchestrator/pkg/zoneaggregator"
)

const reactorSystemPrompt = `You are a civic-simulation reaction engine. Every request asks you to respond in the voice of one specific regional stakeholder, described in the user message. Respond with valid JSON only — no markdown, no prose outside the JSON object.`

// RunOptions parameterizes one fan-out run over the agent catalog.
type RunOptions struct {
	Proposal *models.Proposal

	// WorldState, if non-nil, is rendered into every agent's prompt.
	WorldState *models.WorldState

	// ModelOverrides maps agent key to a non-default model id.
	ModelOverrides map[string]string

	// PersonaOverrides maps agent key to a replacement persona string.
	PersonaOverrides map[string]string

	// MaxConcurrency bounds how many agents are dispatched at once.
	// Zero means no explicit bound, defaulting to N.
	MaxConcurrency int
}

// Reactor is stateless aside from its static catalog/client references;
// all session-scoped state (thread ids, relationship edges) lives in the
// session.Threads record passed to each run.
type Reactor struct {
	client upstream.Client
	agents *config.AgentCatalog
	zones  *config.ZoneCatalog
	models *config.ModelRegistry
}

// New builds a Reactor over the given upstream client and static catalogs.
func New(client upstream.Client, agents *config.AgentCatalog, zones *config.ZoneCatalog, modelRegistry *config.ModelRegistry) *Reactor {
	return &Reactor{client: client, agents: agents, zones: zones, models: modelRegistry}
}

// completion is one agent task's outcome, carried over the results
// channel in completion order, not launch order.
type completion struct {
	reaction models.AgentReaction
}

// RunAll launches one task per agent, awaits all of them, and converts
// any task failure into a synthetic neutral reaction so the caller
// always receives exactly one reaction per agent.
func (re *Reactor) RunAll(ctx context.Context, threads *session.Threads, opts RunOptions) ([]models.AgentReaction, error) {
	reactions := make([]models.AgentReaction, 0, re.agents.Len())
	err := re.dispatch(ctx, threads, opts, func(c completion) {
		reactions = append(reactions, c.reaction)
	})
	return reactions, err
}

// OnComplete is invoked once per agent completion, in upstream completion
// order, with the reaction and the single-zone sentiment it induces.
type OnComplete func(reaction models.AgentReaction, zone models.ZoneSentiment)

// RunAllStreaming is RunAll, but results are delivered to onComplete as
// they arrive rather than collected and returned together. The caller
// typically uses this to update a JobStore record after each completion.
func (re *Reactor) RunAllStreaming(ctx context.Context, threads *session.Threads, opts RunOptions, onComplete OnComplete) error {
	return re.dispatch(ctx, threads, opts, func(c completion) {
		zone, err := re.zones.Get(c.reaction.AgentKey)
		if err != nil {
			return
		}
		onComplete(c.reaction, zoneaggregator.ForReaction(c.reaction, zone))
	})
}

// dispatch is the shared fan-out engine behind RunAll/RunAllStreaming: it
// launches one goroutine per agent key, bounded by opts.MaxConcurrency (or
// N if zero), and delivers completions to handle in arrival order.
func (re *Reactor) dispatch(ctx context.Context, threads *session.Threads, opts RunOptions, handle func(completion)) error {
	agentKeys := re.agents.Keys()
	n := len(agentKeys)
	if n == 0 {
		return nil
	}

	bound := opts.MaxConcurrency
	if bound <= 0 || bound > n {
		bound = n
	}

	resultsCh := make(chan completion, n)
	sem := make(chan struct{}, bound)

	for _, agentKey := range agentKeys {
		agentKey := agentKey
		sem <- struct{}{}
		go func() {
			defer func() { <-sem }()
			reaction := re.runOne(ctx, threads, agentKey, opts)
			resultsCh <- completion{reaction: reaction}
		}()
	}

	for i := 0; i < n; i++ {
		handle(<-resultsCh)
	}
	return nil
}

// runOne performs the full single-agent pipeline: the system→agent
// zero-delta relationship edge side effect, thread binding, prompt
// assembly, the upstream call, and lenient reply normalization. Any
// failure at any step degrades to a synthetic neutral reaction rather
// than propagating, so one bad agent never fails the whole run.
func (re *Reactor) runOne(ctx context.Context, threads *session.Threads, agentKey string, opts RunOptions) models.AgentReaction {
	agentDef, err := re.agents.Get(agentKey)
	if err != nil {
		return syntheticReaction(agentKey, agentKey)
	}

	title := ""
	if opts.Proposal != nil {
		title = opts.Proposal.Title
	}
	threads.UpdateRelationship("system", agentKey, 0, "requesting reaction to: "+title, "", nil, nil, time.Now())

	assistantID, err := threads.EnsureAgentAssistant(func() (string, error) {
		return re.client.CreateAssistant(ctx, "civicsim-reactor", reactorSystemPrompt)
	})
	if err != nil {
		slog.Warn("reactor: failed to ensure agent assistant", "agent", agentKey, "error", err)
		return syntheticReaction(agentKey, agentDef.DisplayName)
	}

	threadID, err := threads.EnsureAgentThread(agentKey, func() (string, error) {
		return re.client.CreateThread(ctx, assistantID)
	})
	if err != nil {
		slog.Warn("reactor: failed to ensure agent thread", "agent", agentKey, "error", err)
		return syntheticReaction(agentKey, agentDef.DisplayName)
	}

	persona := agentDef.Persona
	if override, ok := opts.PersonaOverrides[agentKey]; ok && override != "" {
		persona = override
	}

	model := re.models.Default()
	if override, ok := opts.ModelOverrides[agentKey]; ok && override != "" {
		model = override
	}
	provider := re.models.ProviderFor(model)

	prompt := buildAgentPrompt(agentDef, persona, opts, re.zones.IDs())

	reply, err := re.client.SendMessage(ctx, threadID, prompt, model, provider)
	if err != nil {
		slog.Warn("reactor: upstream call failed", "agent", agentKey, "error", err)
		return syntheticReaction(agentKey, agentDef.DisplayName)
	}

	reaction, err := parseReaction(reply, agentKey, agentDef.DisplayName)
	if err != nil {
		slog.Warn("reactor: reply parse failed", "agent", agentKey, "error", err)
		return syntheticReaction(agentKey, agentDef.DisplayName)
	}
	return reaction
}

// syntheticReaction is the fallback reaction for any task or parse
// failure: a neutral reaction that says more information
// is needed, so the overall run always returns one reaction per agent.
func syntheticReaction(agentKey, displayName string) models.AgentReaction {
	return models.AgentReaction{
		AgentKey:    agentKey,
		DisplayName: displayName,
		Stance:      models.StanceNeutral,
		Intensity:   0,
		Concerns:    []string{"More information is needed to form a reaction."},
	}
}

func buildAgentPrompt(agentDef models.Agent, persona string, opts RunOptions, zoneIDs []string) string {
	b := &promptBuilder{}
	b.writeRoleContext(agentDef)
	b.writePersona(persona)
	if opts.WorldState != nil {
		b.writeWorldState(*opts.WorldState)
	}
	if opts.Proposal != nil {
		b.writeProposal(*opts.Proposal)
		b.writeProximityHint(agentDef.Key, *opts.Proposal)
	}
	b.writeZoneList(zoneIDs)
	b.writeSchema()
	return b.String()
}

func parseReaction(reply, agentKey, displayName string) (models.AgentReaction, error) {
	var raw rawReaction
	if err := llmreply.ParseInto(reply, &raw); err != nil {
		return models.AgentReaction{}, err
	}
	return normalizeReaction(raw, agentKey, displayName), nil
}

type rawReaction struct {
	Stance             string            `json:"stance" jsonschema:"required,enum=support|oppose|neutral"`
	Intensity          float64           `json:"intensity" jsonschema:"required"`
	SupportReasons     []json.RawMessage `json:"support_reasons,omitempty"`
	Concerns           []json.RawMessage `json:"concerns,omitempty"`
	Quote              string            `json:"quote,omitempty" jsonschema:"description=A short in-character quote\\, at most 150 characters"`
	WhatWouldChange    []json.RawMessage `json:"what_would_change_my_mind,omitempty"`
	ZoneEffects        []rawZoneEffect   `json:"zone_effects,omitempty"`
	ProposedAmendments []json.RawMessage `json:"proposed_amendments,omitempty"`
}

type rawZoneEffect struct {
	ZoneID    string  `json:"zone_id"`
	Effect    string  `json:"effect"`
	Intensity float64 `json:"intensity"`
}
