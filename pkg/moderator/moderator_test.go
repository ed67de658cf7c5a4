package moderator

import (
	"context"
	"testing"

	"github.com/civicsim/orchestrator/pkg/config"
	"github.com/civicsim/orchestrator/pkg/models"
	"github.com/civicsim/orchestrator/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	reply string
	err   error
}

func (f *fakeClient) CreateAssistant(ctx context.Context, name, systemPrompt string) (string, error) {
	return "asst-1", nil
}

func (f *fakeClient) CreateThread(ctx context.Context, assistantID string) (string, error) {
	return "thread-1", nil
}

func (f *fakeClient) SendMessage(ctx context.Context, threadID, content, model, provider string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func testModels() *config.ModelRegistry {
	return config.NewModelRegistry(config.ModelsYAML{
		Default:  "anthropic/claude-3-5-sonnet",
		Allowed:  []string{"anthropic/claude-3-5-sonnet"},
		Provider: map[string]string{"anthropic/claude-3-5-sonnet": "anthropic"},
	})
}

func sampleReactions() []models.AgentReaction {
	return []models.AgentReaction{
		{AgentKey: "downtown", DisplayName: "Downtown", Stance: models.StanceSupport, Quote: "Great idea"},
		{AgentKey: "riverside", DisplayName: "Riverside", Stance: models.StanceOppose, Quote: "Too loud"},
	}
}

func TestModerate_ParsesValidTranscript(t *testing.T) {
	reply := `{
		"moderator_summary": "Mixed reactions overall",
		"turns": [
			{"speaker": "Moderator", "text": "Let's begin"},
			{"speaker": "Downtown", "text": "Great idea"},
			{"speaker": "Riverside", "text": "Too loud"},
			{"speaker": "Downtown", "text": "It will bring jobs"},
			{"speaker": "Moderator", "text": "Thank you all"}
		],
		"compromise_options": ["Reduce hours of operation"]
	}`
	client := &fakeClient{reply: reply}
	mod := New(client, testModels())
	threads := session.NewStore()
	_, th := threads.GetOrCreate("")

	transcript := mod.Moderate(context.Background(), th, &models.Proposal{Title: "New Park"}, sampleReactions())
	assert.Equal(t, "Mixed reactions overall", transcript.Summary)
	assert.Len(t, transcript.Turns, 5)
	assert.Equal(t, []string{"Reduce hours of operation"}, transcript.CompromiseOptions)
}

func TestModerate_TooFewTurnsFallsBack(t *testing.T) {
	reply := `{"moderator_summary": "short", "turns": [{"speaker": "Moderator", "text": "hi"}]}`
	client := &fakeClient{reply: reply}
	mod := New(client, testModels())
	threads := session.NewStore()
	_, th := threads.GetOrCreate("")

	transcript := mod.Moderate(context.Background(), th, &models.Proposal{Title: "New Park"}, sampleReactions())
	require.NotNil(t, transcript)
	assert.GreaterOrEqual(t, len(transcript.Turns), len(sampleReactions())+2)
	assert.Equal(t, "Moderator", transcript.Turns[0].Speaker)
}

func TestModerate_UpstreamFailureFallsBack(t *testing.T) {
	client := &fakeClient{err: assertErr{}}
	mod := New(client, testModels())
	threads := session.NewStore()
	_, th := threads.GetOrCreate("")

	transcript := mod.Moderate(context.Background(), th, &models.Proposal{Title: "New Park"}, sampleReactions())
	require.NotNil(t, transcript)
	assert.Equal(t, "Downtown", transcript.Turns[1].Speaker)
	assert.Equal(t, "Great idea", transcript.Turns[1].Text)
}

func TestModerate_FallbackEndsWithModeratorTurn(t *testing.T) {
	client := &fakeClient{err: assertErr{}}
	mod := New(client, testModels())
	threads := session.NewStore()
	_, th := threads.GetOrCreate("")

	transcript := mod.Moderate(context.Background(), th, &models.Proposal{Title: "New Park"}, sampleReactions())
	last := transcript.Turns[len(transcript.Turns)-1]
	assert.Equal(t, "Moderator", last.Speaker)
}

type assertErr struct{}

func (assertErr) Error() string { return "boom" }
