package orchestrator

import (
	"context"
	"time"

	"github.com/civicsim/orchestrator/pkg/cache"
	"github.com/civicsim/orchestrator/pkg/models"
	"github.com/civicsim/orchestrator/pkg/reactor"
	"github.com/civicsim/orchestrator/pkg/session"
	"github.com/civicsim/orchestrator/pkg/zoneaggregator"
)

// SimulateSync implements the synchronous entry point: interpret
// → reactor.run_all → aggregator → moderator → assemble response →
// return. A cache hit short-circuits everything after interpretation; an
// Interpreter ok=false short-circuits everything after it.
func (o *Orchestrator) SimulateSync(ctx context.Context, threads *session.Threads, req Request) (*models.MultiAgentResponse, error) {
	start := time.Now()

	result, err := o.interpreter.Interpret(ctx, threads, req.Message)
	if err != nil {
		return nil, err
	}
	if !result.OK {
		return clarificationResponse(req.SessionID, result), nil
	}

	cacheKey := o.buildCacheKey(req, result.Proposal)
	if o.cache != nil {
		if entry, ok := o.cache.Lookup(ctx, cacheKey); ok {
			resp := entry.Result
			resp.SessionID = req.SessionID
			return &resp, nil
		}
	}

	resp, err := o.runPipeline(ctx, threads, req, result.Proposal, cacheKey, start)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// runPipeline runs the expensive half of the pipeline — reactor fan-out,
// zone aggregation, moderation, response assembly, and the write-behind
// cache store — shared by SimulateSync and Promote once a cache miss is
// confirmed and a proposal is in hand.
func (o *Orchestrator) runPipeline(ctx context.Context, threads *session.Threads, req Request, proposal *models.Proposal, cacheKey string, start time.Time) (*models.MultiAgentResponse, error) {
	worldState := o.worldState(ctx, req.SessionID, threads)
	reactions, err := o.reactor.RunAll(ctx, threads, reactor.RunOptions{
		Proposal:         proposal,
		WorldState:       &worldState,
		ModelOverrides:   req.AgentModels,
		PersonaOverrides: req.AgentPersonas,
	})
	if err != nil {
		return nil, err
	}

	zones := zoneaggregator.Aggregate(reactions, o.zones)
	transcript := o.moderator.Moderate(ctx, threads, proposal, reactions)

	resp := assembleResponse(req.SessionID, proposal, reactions, zones, transcript, start)

	if o.cache != nil {
		o.cache.Store(ctx, cacheKey, models.CacheEntry{
			ScenarioID: req.ScenarioID,
			Inputs: models.CacheInputs{
				ScenarioID:        req.ScenarioID,
				ProposalHash:      cache.ProposalFingerprint(proposal),
				AgentModels:       req.AgentModels,
				ArchetypeOverride: req.AgentPersonas,
				SimMode:           req.Mode,
			},
			Result:      *resp,
			ProviderMix: o.providerMix(),
		})
	}

	return resp, nil
}

// worldState prefers the durable ledger's replayed snapshot over the
// in-memory one, so a restarted process still sees every adopted policy
// and DM shift recorded before it went down. A disabled or failing
// ledger falls back to the session's in-memory snapshot, which always
// reflects at least the current process's view.
func (o *Orchestrator) worldState(ctx context.Context, sessionID string, threads *session.Threads) models.WorldState {
	if ws, ok := o.ledger.Replay(ctx, sessionID); ok {
		return *ws
	}
	return threads.WorldState()
}

func (o *Orchestrator) providerMix() string {
	if o.models == nil {
		return ""
	}
	model := o.models.Default()
	return o.models.ProviderFor(model)
}
