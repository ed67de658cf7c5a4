package orchestrator

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/civicsim/orchestrator/pkg/cache"
	"github.com/civicsim/orchestrator/pkg/models"
	"github.com/civicsim/orchestrator/pkg/reactor"
	"github.com/civicsim/orchestrator/pkg/session"
	"github.com/google/uuid"
)

// cumulativeWeightBefore sums the weight of every phase preceding phase in
// the canonical order — the progress value the job should show the
// instant it enters that phase: the cumulative sum of weights of
// completed phases.
func cumulativeWeightBefore(phase models.JobPhase) int {
	total := 0
	for _, p := range models.DefaultPhaseSchedule {
		if p.Phase == phase {
			break
		}
		total += p.Weight
	}
	return total
}

func phaseWeight(phase models.JobPhase) int {
	for _, p := range models.DefaultPhaseSchedule {
		if p.Phase == phase {
			return p.Weight
		}
	}
	return 0
}

func phaseMessage(phase models.JobPhase) string {
	for _, p := range models.DefaultPhaseSchedule {
		if p.Phase == phase {
			return p.Message
		}
	}
	return ""
}

// SimulateStart implements the progressive entry point: create a
// SimulationJob, record it as the session's latest job, and spawn the
// background task that owns the record for its lifetime.
func (o *Orchestrator) SimulateStart(ctx context.Context, threads *session.Threads, req Request) (string, error) {
	jobID := uuid.NewString()
	job := &models.SimulationJob{
		JobID:     jobID,
		SessionID: req.SessionID,
		Request: models.SimulationRequest{
			SessionID:     req.SessionID,
			ScenarioID:    req.ScenarioID,
			Message:       req.Message,
			AgentModels:   req.AgentModels,
			AgentPersonas: req.AgentPersonas,
			Mode:          req.Mode,
		},
		Status:               models.JobPending,
		Phase:                models.PhaseInitializing,
		TotalAgents:          o.agents.Len(),
		PartialZones:         make(map[string]models.ZoneSentiment),
		AgentCompletionTimes: make(map[string]time.Time),
		CreatedAt:            time.Now(),
	}
	if err := o.jobs.Create(ctx, job); err != nil {
		return "", err
	}
	threads.SetLatestJob(jobID)

	go o.runJob(context.Background(), jobID, threads, req)

	return jobID, nil
}

// runJob is the single writer for jobID for its entire lifetime.
func (o *Orchestrator) runJob(ctx context.Context, jobID string, threads *session.Threads, req Request) {
	log := slog.With("job_id", jobID, "session_id", req.SessionID)

	if err := o.enterPhase(ctx, jobID, models.PhaseInitializing); err != nil {
		log.Error("job update failed", "error", err)
		return
	}

	if err := o.enterPhase(ctx, jobID, models.PhaseInterpreting); err != nil {
		log.Error("job update failed", "error", err)
		return
	}
	result, err := o.interpreter.Interpret(ctx, threads, req.Message)
	if err != nil {
		o.failJob(ctx, jobID, err.Error())
		return
	}
	if !result.OK {
		o.completeJob(ctx, jobID, clarificationResponse(req.SessionID, result))
		return
	}

	if err := o.enterPhase(ctx, jobID, models.PhaseAnalyzingImpact); err != nil {
		log.Error("job update failed", "error", err)
		return
	}
	cacheKey := o.buildCacheKey(req, result.Proposal)
	if o.cache != nil {
		if entry, ok := o.cache.Lookup(ctx, cacheKey); ok {
			resp := entry.Result
			resp.SessionID = req.SessionID
			o.completeJob(ctx, jobID, &resp)
			return
		}
	}

	if err := o.enterPhase(ctx, jobID, models.PhaseAgentReactions); err != nil {
		log.Error("job update failed", "error", err)
		return
	}
	worldState := o.worldState(ctx, req.SessionID, threads)
	total := o.agents.Len()
	completed := 0
	err = o.reactor.RunAllStreaming(ctx, threads, reactor.RunOptions{
		Proposal:         result.Proposal,
		WorldState:       &worldState,
		ModelOverrides:   req.AgentModels,
		PersonaOverrides: req.AgentPersonas,
	}, func(reaction models.AgentReaction, zone models.ZoneSentiment) {
		completed++
		progress := cumulativeWeightBefore(models.PhaseAgentReactions) + interpolate(completed, total, phaseWeight(models.PhaseAgentReactions))
		if _, err := o.jobs.Update(ctx, jobID, func(j *models.SimulationJob) {
			j.PartialReactions = append(j.PartialReactions, reaction)
			j.PartialZones[zone.ZoneID] = zone
			if j.AgentCompletionTimes == nil {
				j.AgentCompletionTimes = make(map[string]time.Time)
			}
			j.AgentCompletionTimes[reaction.AgentKey] = time.Now()
			j.CompletedAgents = completed
			j.TotalAgents = total
			j.Progress = progress
			j.Message = agentProgressMessage(completed, total)
		}); err != nil {
			log.Warn("partial reaction update failed", "error", err)
		}
	})
	if err != nil {
		o.failJob(ctx, jobID, err.Error())
		return
	}

	job, err := o.jobs.Get(ctx, jobID)
	if err != nil {
		log.Error("job read failed", "error", err)
		return
	}
	reactions := job.PartialReactions
	zones := make([]models.ZoneSentiment, 0, len(job.PartialZones))
	for _, id := range o.zones.IDs() {
		if z, ok := job.PartialZones[id]; ok {
			zones = append(zones, z)
		}
	}

	if err := o.enterPhase(ctx, jobID, models.PhaseCoalitionSynthesis); err != nil {
		log.Error("job update failed", "error", err)
		return
	}

	if err := o.enterPhase(ctx, jobID, models.PhaseGeneratingTownhall); err != nil {
		log.Error("job update failed", "error", err)
		return
	}
	transcript := o.moderator.Moderate(ctx, threads, result.Proposal, reactions)

	if err := o.enterPhase(ctx, jobID, models.PhaseFinalizing); err != nil {
		log.Error("job update failed", "error", err)
		return
	}

	resp := assembleResponse(req.SessionID, result.Proposal, reactions, zones, transcript, job.CreatedAt)
	if o.cache != nil {
		o.cache.Store(ctx, cacheKey, models.CacheEntry{
			ScenarioID: req.ScenarioID,
			Inputs: models.CacheInputs{
				ScenarioID:        req.ScenarioID,
				ProposalHash:      cache.ProposalFingerprint(result.Proposal),
				AgentModels:       req.AgentModels,
				ArchetypeOverride: req.AgentPersonas,
				SimMode:           req.Mode,
			},
			Result:      *resp,
			ProviderMix: o.providerMix(),
		})
	}
	o.completeJob(ctx, jobID, resp)
}

// enterPhase performs the one mandatory JobStore update every phase
// transition requires, setting progress to the cumulative weight of
// every phase already completed.
func (o *Orchestrator) enterPhase(ctx context.Context, jobID string, phase models.JobPhase) error {
	_, err := o.jobs.Update(ctx, jobID, func(j *models.SimulationJob) {
		if j.StartedAt == nil {
			now := time.Now()
			j.StartedAt = &now
		}
		j.Status = models.JobRunning
		j.Phase = phase
		j.Message = phaseMessage(phase)
		j.Progress = cumulativeWeightBefore(phase)
	})
	return err
}

func (o *Orchestrator) failJob(ctx context.Context, jobID, message string) {
	if _, err := o.jobs.Update(ctx, jobID, func(j *models.SimulationJob) {
		j.Status = models.JobError
		j.Error = message
		now := time.Now()
		j.CompletedAt = &now
	}); err != nil {
		slog.Error("failed to record job error", "job_id", jobID, "error", err)
	}
}

func (o *Orchestrator) completeJob(ctx context.Context, jobID string, result *models.MultiAgentResponse) {
	if _, err := o.jobs.Update(ctx, jobID, func(j *models.SimulationJob) {
		j.Status = models.JobComplete
		j.Progress = 100
		j.Result = result
		now := time.Now()
		j.CompletedAt = &now
	}); err != nil {
		slog.Error("failed to record job completion", "job_id", jobID, "error", err)
	}
}

// interpolate linearly maps completed/total onto [0, budget], per spec
// §4.11's agent_reactions progress rule.
func interpolate(completed, total, budget int) int {
	if total <= 0 {
		return budget
	}
	return completed * budget / total
}

func agentProgressMessage(completed, total int) string {
	return phaseMessage(models.PhaseAgentReactions) + " " + strconv.Itoa(completed) + "/" + strconv.Itoa(total)
}
