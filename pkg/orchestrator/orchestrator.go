// Package orchestrator implements the two simulation entry points —
// synchronous and progressive — that sequence Interpreter → Reactor
// → ZoneAggregator → Moderator into a single assembled response. The
// progressive path's background task runs a single goroutine that takes
// sole ownership of one job record for its entire lifetime and is the
// only writer to it, generalized from a polling queue-worker loop to a
// single task spawned at job-creation time (the progressive pipeline has
// no queue to poll — the job is created and started in the same call).
package orchestrator

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/civicsim/orchestrator/pkg/adopter"
	"github.com/civicsim/orchestrator/pkg/cache"
	"github.com/civicsim/orchestrator/pkg/config"
	"github.com/civicsim/orchestrator/pkg/interpreter"
	"github.com/civicsim/orchestrator/pkg/jobstore"
	"github.com/civicsim/orchestrator/pkg/ledger"
	"github.com/civicsim/orchestrator/pkg/models"
	"github.com/civicsim/orchestrator/pkg/moderator"
	"github.com/civicsim/orchestrator/pkg/reactor"
)

// Orchestrator wires every domain component into the two entry points
// names. It holds no per-session state of its own — all of
// that lives in the session.Threads record passed into each call.
type Orchestrator struct {
	interpreter *interpreter.Interpreter
	reactor     *reactor.Reactor
	moderator   *moderator.Moderator
	adopter     *adopter.Adopter
	zones       *config.ZoneCatalog
	agents      *config.AgentCatalog
	models      *config.ModelRegistry
	cache       *cache.Cache
	ledger      *ledger.Ledger
	jobs        jobstore.Store
}

// Deps bundles the already-constructed domain components an Orchestrator
// wires together — one struct keeps New's signature from growing a new
// positional parameter every time a component is added.
type Deps struct {
	Interpreter *interpreter.Interpreter
	Reactor     *reactor.Reactor
	Moderator   *moderator.Moderator
	Adopter     *adopter.Adopter
	Zones       *config.ZoneCatalog
	Agents      *config.AgentCatalog
	Models      *config.ModelRegistry
	Cache       *cache.Cache
	Ledger      *ledger.Ledger
	Jobs        jobstore.Store
}

// New builds an Orchestrator from deps.
func New(deps Deps) *Orchestrator {
	return &Orchestrator{
		interpreter: deps.Interpreter,
		reactor:     deps.Reactor,
		moderator:   deps.Moderator,
		adopter:     deps.Adopter,
		zones:       deps.Zones,
		agents:      deps.Agents,
		models:      deps.Models,
		cache:       deps.Cache,
		ledger:      deps.Ledger,
		jobs:        deps.Jobs,
	}
}

// clarificationResponse builds the early-return payload for Interpreter
// ok=false: an assistant message containing the clarifying questions and
// an otherwise empty result.
func clarificationResponse(sessionID string, result *interpreter.Result) *models.MultiAgentResponse {
	msg := "I need a bit more detail before I can simulate that."
	switch {
	case result == nil:
	case result.Error != "":
		msg = result.Error
	case len(result.ClarifyingQuestions) > 0:
		msg = strings.Join(result.ClarifyingQuestions, " ")
	}
	return &models.MultiAgentResponse{
		SessionID:        sessionID,
		AssistantMessage: msg,
		Reactions:        []models.AgentReaction{},
		ZoneSentiments:   []models.ZoneSentiment{},
	}
}

// buildCacheKey derives the FingerprintCache key for a request once its
// proposal is known.
func (o *Orchestrator) buildCacheKey(req Request, proposal *models.Proposal) string {
	return cache.CacheKey(cache.Key{
		ScenarioID:        req.ScenarioID,
		ProposalHash:      cache.ProposalFingerprint(proposal),
		AgentModels:       req.AgentModels,
		ArchetypeOverride: req.AgentPersonas,
		SimMode:           req.Mode,
	})
}

func runHash(sessionID, proposalTitle string) string {
	h := sha256.New()
	h.Write([]byte(sessionID))
	h.Write([]byte(proposalTitle))
	h.Write([]byte(time.Now().String()))
	return hex.EncodeToString(h.Sum(nil))[:16]
}

func buildReceipt(sessionID, proposalTitle string, agentCount int, start time.Time) models.Receipt {
	return models.Receipt{
		RunHash:    runHash(sessionID, proposalTitle),
		Timestamp:  time.Now(),
		AgentCount: agentCount,
		DurationMS: time.Since(start).Milliseconds(),
	}
}

func assembleResponse(sessionID string, proposal *models.Proposal, reactions []models.AgentReaction, zones []models.ZoneSentiment, transcript *models.Transcript, start time.Time) *models.MultiAgentResponse {
	return &models.MultiAgentResponse{
		SessionID:        sessionID,
		AssistantMessage: "Simulation complete.",
		Proposal:         proposal,
		Reactions:        reactions,
		ZoneSentiments:   zones,
		Transcript:       transcript,
		Receipt:          buildReceipt(sessionID, proposal.Title, len(reactions), start),
	}
}
