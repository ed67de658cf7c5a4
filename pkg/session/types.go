// Package session implements the process-wide SessionStore: per-session
// assistant/thread handles, the agent relationship graph, and the
// world-state snapshot. Split into a thread-safe record type plus a
// manager that owns a map of them, one record per whole simulation
// session rather than one conversation-in-progress.
package session

import (
	"sync"
	"time"

	"github.com/civicsim/orchestrator/pkg/models"
)

// Threads is the per-session owned record: assistant/thread handles,
// relationship graph, world-state snapshot, and the id of the most
// recent job. All mutations to a single session record happen under
// mu, that session's lock.
type Threads struct {
	mu sync.Mutex

	Interpreter models.ThreadHandle
	Moderator   models.ThreadHandle

	agentAssistantID string
	agentThreads     map[string]string // agent key -> thread id

	dmAssistantID string
	dmThreads     map[models.PairKey]string

	relationships map[string]map[string]models.RelationshipEdge // from -> to -> edge

	worldState models.WorldState

	latestJobID string
}

func newThreads() *Threads {
	return &Threads{
		agentThreads:  make(map[string]string),
		dmThreads:     make(map[models.PairKey]string),
		relationships: make(map[string]map[string]models.RelationshipEdge),
		worldState:    models.WorldState{Version: 0},
	}
}

// EnsureAgentAssistant returns the shared reactor assistant id for this
// session, creating it via create if absent. The create-once pattern is
// guarded by the session lock (double-checked, "thread creation
// is create-once").
func (t *Threads) EnsureAgentAssistant(create func() (string, error)) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.agentAssistantID != "" {
		return t.agentAssistantID, nil
	}
	id, err := create()
	if err != nil {
		return "", err
	}
	t.agentAssistantID = id
	return id, nil
}

// EnsureAgentThread returns the agent's persistent thread id, creating it
// via create if absent. Once set, a thread id is never overwritten.
func (t *Threads) EnsureAgentThread(agentKey string, create func() (string, error)) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if id, ok := t.agentThreads[agentKey]; ok {
		return id, nil
	}
	id, err := create()
	if err != nil {
		return "", err
	}
	t.agentThreads[agentKey] = id
	return id, nil
}

// AgentThread returns the agent's thread id if one has been created.
func (t *Threads) AgentThread(agentKey string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id, ok := t.agentThreads[agentKey]
	return id, ok
}

// EnsureDMAssistant returns the shared DM assistant id for this session.
func (t *Threads) EnsureDMAssistant(create func() (string, error)) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.dmAssistantID != "" {
		return t.dmAssistantID, nil
	}
	id, err := create()
	if err != nil {
		return "", err
	}
	t.dmAssistantID = id
	return id, nil
}

// EnsureDMThread returns the thread id for the unordered pair (from, to),
// creating it via create if absent.
func (t *Threads) EnsureDMThread(from, to string, create func() (string, error)) (string, error) {
	key := models.NewPairKey(from, to)
	t.mu.Lock()
	defer t.mu.Unlock()
	if id, ok := t.dmThreads[key]; ok {
		return id, nil
	}
	id, err := create()
	if err != nil {
		return "", err
	}
	t.dmThreads[key] = id
	return id, nil
}

// EnsureInterpreter returns the cached interpreter handle, creating it via
// create if unset.
func (t *Threads) EnsureInterpreter(create func() (models.ThreadHandle, error)) (models.ThreadHandle, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.Interpreter.IsSet() {
		return t.Interpreter, nil
	}
	h, err := create()
	if err != nil {
		return models.ThreadHandle{}, err
	}
	t.Interpreter = h
	return h, nil
}

// EnsureModerator returns the cached moderator handle, creating it via
// create if unset.
func (t *Threads) EnsureModerator(create func() (models.ThreadHandle, error)) (models.ThreadHandle, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.Moderator.IsSet() {
		return t.Moderator, nil
	}
	h, err := create()
	if err != nil {
		return models.ThreadHandle{}, err
	}
	t.Moderator = h
	return h, nil
}

// AllAgentThreads returns a snapshot copy of every agent's thread id,
// used by Adopter to broadcast the decision record.
func (t *Threads) AllAgentThreads() map[string]string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]string, len(t.agentThreads))
	for k, v := range t.agentThreads {
		out[k] = v
	}
	return out
}

const relationshipClampMax = 1.0
const relationshipClampMin = -1.0

func clamp(v float64) float64 {
	if v > relationshipClampMax {
		return relationshipClampMax
	}
	if v < relationshipClampMin {
		return relationshipClampMin
	}
	return v
}

// UpdateRelationship atomically applies delta to the (from, to) edge,
// creating it with a zero score if absent, clamping the result to
// [-1,+1], and recording reason/message/stance/timestamp.
func (t *Threads) UpdateRelationship(from, to string, delta float64, reason, message string, stanceBefore, stanceAfter *models.Stance, now time.Time) models.RelationshipEdge {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.relationships[from] == nil {
		t.relationships[from] = make(map[string]models.RelationshipEdge)
	}
	edge := t.relationships[from][to]
	edge.Score = clamp(edge.Score + delta)
	if reason != "" {
		edge.LastReason = reason
	}
	if message != "" {
		edge.LastMessage = truncate(message, 120)
	}
	if stanceBefore != nil {
		edge.StanceBefore = stanceBefore
	}
	if stanceAfter != nil {
		edge.StanceAfter = stanceAfter
	}
	edge.Timestamp = now
	t.relationships[from][to] = edge
	return edge
}

// Relationship returns the current edge for (from, to), zero-valued if
// none exists yet.
func (t *Threads) Relationship(from, to string) models.RelationshipEdge {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.relationships[from][to]
}

// TopRelationships returns up to n edges ordered by |score| descending.
func (t *Threads) TopRelationships(n int) []models.RelationshipShift {
	t.mu.Lock()
	defer t.mu.Unlock()

	var shifts []models.RelationshipShift
	for from, byTo := range t.relationships {
		for to, edge := range byTo {
			shifts = append(shifts, models.RelationshipShift{From: from, To: to, Score: edge.Score})
		}
	}
	sortByAbsScoreDesc(shifts)
	if n >= 0 && len(shifts) > n {
		shifts = shifts[:n]
	}
	return shifts
}

func sortByAbsScoreDesc(shifts []models.RelationshipShift) {
	for i := 1; i < len(shifts); i++ {
		for j := i; j > 0 && abs(shifts[j].Score) > abs(shifts[j-1].Score); j-- {
			shifts[j], shifts[j-1] = shifts[j-1], shifts[j]
		}
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

// WorldState returns a copy of the current world-state snapshot.
func (t *Threads) WorldState() models.WorldState {
	t.mu.Lock()
	defer t.mu.Unlock()
	ws := t.worldState
	ws.PlacedItems = append([]models.PlacedItem(nil), t.worldState.PlacedItems...)
	ws.AdoptedPolicies = append([]models.AdoptedPolicy(nil), t.worldState.AdoptedPolicies...)
	ws.TopShifts = t.TopRelationshipsLocked(3)
	return ws
}

// TopRelationshipsLocked is TopRelationships without acquiring the lock,
// for callers that already hold it (WorldState).
func (t *Threads) TopRelationshipsLocked(n int) []models.RelationshipShift {
	var shifts []models.RelationshipShift
	for from, byTo := range t.relationships {
		for to, edge := range byTo {
			shifts = append(shifts, models.RelationshipShift{From: from, To: to, Score: edge.Score})
		}
	}
	sortByAbsScoreDesc(shifts)
	if n >= 0 && len(shifts) > n {
		shifts = shifts[:n]
	}
	return shifts
}

// BumpWorldState applies mutate to the world-state snapshot under lock and
// strictly increments its version.
func (t *Threads) BumpWorldState(mutate func(*models.WorldState)) models.WorldState {
	t.mu.Lock()
	defer t.mu.Unlock()
	mutate(&t.worldState)
	t.worldState.Version++
	ws := t.worldState
	return ws
}

// SetLatestJob records the most recently started job id for this session.
func (t *Threads) SetLatestJob(jobID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.latestJobID = jobID
}

// LatestJob returns the most recently started job id, if any.
func (t *Threads) LatestJob() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.latestJobID, t.latestJobID != ""
}
