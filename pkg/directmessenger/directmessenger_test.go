package directmessenger

import (
	"context"
	"fmt"
	"testing"

	"github.com/civicsim/orchestrator/pkg/config"
	"github.com/civicsim/orchestrator/pkg/models"
	"github.com/civicsim/orchestrator/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedClient struct {
	firstReply  string
	secondReply string
	calls       int
	failSecond  bool
}

func (c *scriptedClient) CreateAssistant(ctx context.Context, name, systemPrompt string) (string, error) {
	return "asst-1", nil
}

func (c *scriptedClient) CreateThread(ctx context.Context, assistantID string) (string, error) {
	return "thread-1", nil
}

func (c *scriptedClient) SendMessage(ctx context.Context, threadID, content, model, provider string) (string, error) {
	c.calls++
	if c.calls == 1 {
		return c.firstReply, nil
	}
	if c.calls == 2 {
		if c.failSecond {
			return "", fmt.Errorf("boom")
		}
		return c.secondReply, nil
	}
	return "[STANCE UPDATE] acknowledged", nil
}

func testAgents() *config.AgentCatalog {
	return config.NewAgentCatalog([]models.Agent{
		{Key: "downtown", DisplayName: "Downtown Council", Role: "business rep"},
		{Key: "riverside", DisplayName: "Riverside Residents", Role: "residential advocate"},
	})
}

func testModels() *config.ModelRegistry {
	return config.NewModelRegistry(config.ModelsYAML{
		Default:  "anthropic/claude-3-5-sonnet",
		Allowed:  []string{"anthropic/claude-3-5-sonnet"},
		Provider: map[string]string{"anthropic/claude-3-5-sonnet": "anthropic"},
	})
}

func TestSend_AppliesRelationshipDeltaToRecipientEdge(t *testing.T) {
	client := &scriptedClient{
		firstReply:  "I hear your concerns about noise.",
		secondReply: `{"relationship_delta": 0.3, "stance_changed": true, "new_stance": "support", "reason": "reassured by the response"}`,
	}
	dm := New(client, testAgents(), testModels(), nil)
	threads := session.NewStore()
	_, th := threads.GetOrCreate("")

	result, err := dm.Send(context.Background(), "sess-1", th, "riverside", "downtown", "Please reduce construction noise", "New Park")
	require.NoError(t, err)
	assert.Equal(t, "I hear your concerns about noise.", result.Reply)
	assert.Equal(t, 0.3, result.NewRelationshipScore)
	assert.True(t, result.StructuredUpdate.StanceChanged)

	edge := th.Relationship("downtown", "riverside")
	assert.Equal(t, 0.3, edge.Score)
}

func TestSend_StructuredCallFailureDefaultsToZeroDelta(t *testing.T) {
	client := &scriptedClient{firstReply: "Noted.", failSecond: true}
	dm := New(client, testAgents(), testModels(), nil)
	threads := session.NewStore()
	_, th := threads.GetOrCreate("")

	result, err := dm.Send(context.Background(), "sess-1", th, "riverside", "downtown", "hello", "")
	require.NoError(t, err)
	assert.Equal(t, 0.0, result.StructuredUpdate.RelationshipDelta)
	assert.False(t, result.StructuredUpdate.StanceChanged)
	assert.Equal(t, "no significant change", result.StructuredUpdate.Reason)
}

func TestSend_DMThreadIsPairCanonical(t *testing.T) {
	client := &scriptedClient{firstReply: "ok", secondReply: `{"relationship_delta":0,"stance_changed":false,"reason":"none"}`}
	dm := New(client, testAgents(), testModels(), nil)
	threads := session.NewStore()
	_, th := threads.GetOrCreate("")

	_, err := dm.Send(context.Background(), "sess-1", th, "riverside", "downtown", "hi", "")
	require.NoError(t, err)

	idAB, okAB := thDMThread(th, "riverside", "downtown")
	idBA, okBA := thDMThread(th, "downtown", "riverside")
	require.True(t, okAB)
	require.True(t, okBA)
	assert.Equal(t, idAB, idBA)
}

func thDMThread(th *session.Threads, from, to string) (string, bool) {
	id, err := th.EnsureDMThread(from, to, func() (string, error) {
		return "", fmt.Errorf("should already exist")
	})
	return id, err == nil
}

func TestSend_UnknownAgentErrors(t *testing.T) {
	client := &scriptedClient{}
	dm := New(client, testAgents(), testModels(), nil)
	threads := session.NewStore()
	_, th := threads.GetOrCreate("")

	_, err := dm.Send(context.Background(), "sess-1", th, "nowhere", "downtown", "hi", "")
	require.Error(t, err)
}

func TestSend_NoStanceChangeSkipsMainThreadNote(t *testing.T) {
	client := &scriptedClient{firstReply: "ok", secondReply: `{"relationship_delta":0.1,"stance_changed":false,"reason":"minor"}`}
	dm := New(client, testAgents(), testModels(), nil)
	threads := session.NewStore()
	_, th := threads.GetOrCreate("")

	_, err := dm.Send(context.Background(), "sess-1", th, "riverside", "downtown", "hi", "New Park")
	require.NoError(t, err)
	assert.Equal(t, 2, client.calls)
}
