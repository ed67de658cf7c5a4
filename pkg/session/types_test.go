package session

import (
	"errors"
	"testing"
	"time"

	"github.com/civicsim/orchestrator/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThreads_EnsureAgentThread_CreateOnce(t *testing.T) {
	th := newThreads()
	calls := 0
	create := func() (string, error) {
		calls++
		return "thread-1", nil
	}

	id1, err := th.EnsureAgentThread("downtown", create)
	require.NoError(t, err)
	id2, err := th.EnsureAgentThread("downtown", create)
	require.NoError(t, err)

	assert.Equal(t, "thread-1", id1)
	assert.Equal(t, id1, id2)
	assert.Equal(t, 1, calls, "create must run exactly once per agent key")
}

func TestThreads_EnsureAgentThread_PropagatesError(t *testing.T) {
	th := newThreads()
	boom := errors.New("boom")
	_, err := th.EnsureAgentThread("downtown", func() (string, error) {
		return "", boom
	})
	assert.ErrorIs(t, err, boom)

	_, ok := th.AgentThread("downtown")
	assert.False(t, ok, "a failed create must not leave a partial binding")
}

func TestThreads_EnsureDMThread_PairIsUnordered(t *testing.T) {
	th := newThreads()
	calls := 0
	create := func() (string, error) {
		calls++
		return "dm-thread", nil
	}

	id1, err := th.EnsureDMThread("alice", "bob", create)
	require.NoError(t, err)
	id2, err := th.EnsureDMThread("bob", "alice", create)
	require.NoError(t, err)

	assert.Equal(t, id1, id2)
	assert.Equal(t, 1, calls)
}

func TestThreads_UpdateRelationship_ClampsToRange(t *testing.T) {
	th := newThreads()
	now := time.Now()

	edge := th.UpdateRelationship("downtown", "hillside", 0.9, "supported proposal", "", nil, nil, now)
	assert.InDelta(t, 0.9, edge.Score, 1e-9)

	edge = th.UpdateRelationship("downtown", "hillside", 0.9, "supported again", "", nil, nil, now)
	assert.Equal(t, 1.0, edge.Score, "score must clamp at +1")

	edge = th.UpdateRelationship("downtown", "hillside", -5, "withdrew support", "", nil, nil, now)
	assert.Equal(t, -1.0, edge.Score, "score must clamp at -1")
}

func TestThreads_UpdateRelationship_PreservesReasonWhenMessageEmpty(t *testing.T) {
	th := newThreads()
	now := time.Now()

	th.UpdateRelationship("a", "b", 0.2, "initial reason", "hello there", nil, nil, now)
	edge := th.UpdateRelationship("a", "b", 0.1, "", "", nil, nil, now)

	assert.Equal(t, "initial reason", edge.LastReason, "an empty reason on update must not erase the prior one")
	assert.Equal(t, "hello there", edge.LastMessage)
}

func TestThreads_TopRelationships_OrderedByAbsoluteScore(t *testing.T) {
	th := newThreads()
	now := time.Now()

	th.UpdateRelationship("a", "b", 0.1, "r", "", nil, nil, now)
	th.UpdateRelationship("a", "c", -0.8, "r", "", nil, nil, now)
	th.UpdateRelationship("a", "d", 0.4, "r", "", nil, nil, now)

	top := th.TopRelationships(2)
	require.Len(t, top, 2)
	assert.Equal(t, "c", top[0].To)
	assert.Equal(t, "d", top[1].To)
}

func TestThreads_WorldState_ReturnsDefensiveCopy(t *testing.T) {
	th := newThreads()
	th.BumpWorldState(func(ws *models.WorldState) {
		ws.PlacedItems = append(ws.PlacedItems, models.PlacedItem{ZoneID: "downtown"})
	})

	snapshot := th.WorldState()
	snapshot.PlacedItems[0].ZoneID = "mutated"

	fresh := th.WorldState()
	assert.Equal(t, "downtown", fresh.PlacedItems[0].ZoneID, "mutating a returned snapshot must not affect internal state")
}

func TestThreads_BumpWorldState_IncrementsVersion(t *testing.T) {
	th := newThreads()
	ws1 := th.BumpWorldState(func(ws *models.WorldState) {})
	ws2 := th.BumpWorldState(func(ws *models.WorldState) {})
	assert.Equal(t, ws1.Version+1, ws2.Version)
}
