package interpreter

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

type fakeClient struct {
	reply     string
	err       error
	sentCount int
}

func (f *fakeClient) CreateAssistant(ctx context.Context, name, systemPrompt string) (string, error) {
	return "asst-1", nil
}

func (f *fakeClient) CreateThread(ctx context.Context, assistantID string) (string, error) {
	return "thread-1", nil
}

func (f *fakeClient) SendMessage(ctx context.Context, threadID, content, model, provider string) (string, error) {
	f.sentCount++
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func testZones() *config.ZoneCatalog {
	return config.NewZoneCatalog([]models.Zone{
		{ID: "downtown", Name: "Downtown", Lat: 40.0, Lng: -75.0},
		{ID: "riverside", Name: "Riverside", Lat: 40.01, Lng: -75.0},
		{ID: "suburbs", Name: "Suburbs", Lat: 40.5, Lng: -75.5},
	})
}

func testModels() *config.ModelRegistry {
	return config.NewModelRegistry(config.ModelsYAML{
		Default:  "anthropic/claude-3-5-sonnet",
		Allowed:  []string{"anthropic/claude-3-5-sonnet"},
		Provider: map[string]string{"anthropic/claude-3-5-sonnet": "anthropic"},
	})
}

func TestInterpret_ActionableBuildProposal(t *testing.T) {
	client := &fakeClient{reply: `{
		"ok": true,
		"proposal": {
			"kind": "build",
			"title": "New Park",
			"summary": "A park near the waterfront",
			"location": {"type": "point", "latitude": 40.001, "longitude": -75.0}
		},
		"assumptions": ["waterfront means riverside zone"],
		"confidence": 0.9
	}`}
	in := New(client, testZones(), testModels())
	threads := session.NewStore()
	_, th := threads.GetOrCreate("")

	result, err := in.Interpret(context.Background(), th, "Build a new park near the waterfront")
	require.NoError(t, err)
	require.True(t, result.OK)
	assert.Equal(t, models.ProposalKindBuild, result.Proposal.Kind)
	assert.Equal(t, "New Park", result.Proposal.Title)
	assert.NotEmpty(t, result.Proposal.AffectedRegions)
	assert.Equal(t, 3, len(result.Proposal.AffectedRegions))
	assert.Equal(t, 0.9, result.Confidence)
}

func TestInterpret_ClarificationForVagueInput(t *testing.T) {
	client := &fakeClient{reply: `{"ok": false, "clarifying_questions": ["What would you like to build?"]}`}
	in := New(client, testZones(), testModels())
	threads := session.NewStore()
	_, th := threads.GetOrCreate("")

	result, err := in.Interpret(context.Background(), th, "hello")
	require.NoError(t, err)
	assert.False(t, result.OK)
	assert.Contains(t, result.ClarifyingQuestions, "What would you like to build?")
}

func TestInterpret_UnparseableReplyYieldsOKFalse(t *testing.T) {
	client := &fakeClient{reply: "not json at all and no braces either"}
	in := New(client, testZones(), testModels())
	threads := session.NewStore()
	_, th := threads.GetOrCreate("")

	result, err := in.Interpret(context.Background(), th, "build something")
	require.NoError(t, err)
	assert.False(t, result.OK)
	assert.NotEmpty(t, result.Error)
}

func TestInterpret_UpstreamFailurePropagates(t *testing.T) {
	client := &fakeClient{err: fmt.Errorf("boom")}
	in := New(client, testZones(), testModels())
	threads := session.NewStore()
	_, th := threads.GetOrCreate("")

	_, err := in.Interpret(context.Background(), th, "build something")
	require.Error(t, err)
}

func TestInterpret_ReusesThreadAcrossCalls(t *testing.T) {
	client := &fakeClient{reply: `{"ok": false, "clarifying_questions": ["more detail please"]}`}
	in := New(client, testZones(), testModels())
	threads := session.NewStore()
	_, th := threads.GetOrCreate("")

	_, err := in.Interpret(context.Background(), th, "hello")
	require.NoError(t, err)
	_, err = in.Interpret(context.Background(), th, "hi again")
	require.NoError(t, err)

	assert.Equal(t, 2, client.sentCount)
	assert.True(t, th.Interpreter.IsSet())
}

func TestInterpret_TargetGroupListCoercedToString(t *testing.T) {
	client := &fakeClient{reply: `{
		"ok": true,
		"proposal": {
			"kind": "policy",
			"title": "Noise ordinance",
			"summary": "Restrict late-night construction noise",
			"parameters": {"target_group": ["night-shift workers", "residents"]}
		}
	}`}
	in := New(client, testZones(), testModels())
	threads := session.NewStore()
	_, th := threads.GetOrCreate("")

	result, err := in.Interpret(context.Background(), th, "stop the noise")
	require.NoError(t, err)
	require.True(t, result.OK)
	assert.Equal(t, "night-shift workers, residents", result.Proposal.Parameters.TargetGroup)
}
