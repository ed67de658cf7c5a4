package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicsim/orchestrator/pkg/adopter"
	"github.com/civicsim/orchestrator/pkg/cache"
	"github.com/civicsim/orchestrator/pkg/config"
	"github.com/civicsim/orchestrator/pkg/directmessenger"
	"github.com/civicsim/orchestrator/pkg/interpreter"
	"github.com/civicsim/orchestrator/pkg/jobstore"
	"github.com/civicsim/orchestrator/pkg/ledger"
	"github.com/civicsim/orchestrator/pkg/models"
	"github.com/civicsim/orchestrator/pkg/moderator"
	"github.com/civicsim/orchestrator/pkg/orchestrator"
	"github.com/civicsim/orchestrator/pkg/overrides"
	"github.com/civicsim/orchestrator/pkg/reactor"
	"github.com/civicsim/orchestrator/pkg/session"
	"github.com/civicsim/orchestrator/pkg/storage/postgres"
)

type apiScriptedClient struct {
	mu sync.Mutex
}

func (c *apiScriptedClient) CreateAssistant(ctx context.Context, name, systemPrompt string) (string, error) {
	return "asst-" + name, nil
}

func (c *apiScriptedClient) CreateThread(ctx context.Context, assistantID string) (string, error) {
	return "thread-" + assistantID, nil
}

func (c *apiScriptedClient) SendMessage(ctx context.Context, threadID, content, model, provider string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case strings.Contains(content, "civic planning simulator"):
		return `{"ok":true,"proposal":{"kind":"build","title":"New Park","summary":"A park downtown"}}`, nil
	case strings.Contains(content, "Stakeholder reactions"):
		return `{"moderator_summary":"Mixed","turns":[{"speaker":"Moderator","text":"Go"}]}`, nil
	case strings.Contains(content, "zone: downtown"):
		return `{"stance":"support","intensity":0.8,"quote":"Great"}`, nil
	case strings.Contains(content, "zone: riverside"):
		return `{"stance":"oppose","intensity":0.5,"quote":"Bad"}`, nil
	default:
		return `{"stance":"neutral","intensity":0.1}`, nil
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	client := &apiScriptedClient{}
	zones := config.NewZoneCatalog([]models.Zone{
		{ID: "downtown", Name: "Downtown"},
		{ID: "riverside", Name: "Riverside"},
	})
	agents := config.NewAgentCatalog([]models.Agent{
		{Key: "downtown", DisplayName: "Downtown Council"},
		{Key: "riverside", DisplayName: "Riverside Residents"},
	})
	modelRegistry := config.NewModelRegistry(config.ModelsYAML{
		Default:  "anthropic/claude-3-5-sonnet",
		Allowed:  []string{"anthropic/claude-3-5-sonnet"},
		Provider: map[string]string{"anthropic/claude-3-5-sonnet": "anthropic"},
	})

	backend := &memBackend{entries: map[string]models.CacheEntry{}}
	c, err := cache.New(backend, 10)
	require.NoError(t, err)

	simLedger := ledger.New(nil, false)

	orch := orchestrator.New(orchestrator.Deps{
		Interpreter: interpreter.New(client, zones, modelRegistry),
		Reactor:     reactor.New(client, agents, zones, modelRegistry),
		Moderator:   moderator.New(client, modelRegistry),
		Adopter:     adopter.New(client, modelRegistry.Default(), modelRegistry.ProviderFor(modelRegistry.Default()), simLedger),
		Zones:       zones,
		Agents:      agents,
		Models:      modelRegistry,
		Cache:       c,
		Jobs:        jobstore.Open(context.Background(), nil, time.Hour),
		Ledger:      simLedger,
	})

	return NewServer(Deps{
		Orchestrator: orch,
		Messenger:    directmessenger.New(client, agents, modelRegistry, simLedger),
		Adopter:      adopter.New(client, modelRegistry.Default(), modelRegistry.ProviderFor(modelRegistry.Default()), simLedger),
		Sessions:     session.NewStore(),
		Jobs:         jobstore.Open(context.Background(), nil, time.Hour),
		Cache:        c,
		Overrides:    overrides.New(),
		Zones:        zones,
		Agents:       agents,
		Models:       modelRegistry,
	})
}

type memBackend struct {
	mu      sync.Mutex
	entries map[string]models.CacheEntry
}

func (m *memBackend) Get(_ context.Context, key string) (*models.CacheEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, postgres.ErrNotFound
	}
	return &e, nil
}

func (m *memBackend) Upsert(_ context.Context, entry models.CacheEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[entry.Key] = entry
	return nil
}

func (m *memBackend) InvalidateScenario(_ context.Context, scenarioID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range m.entries {
		if v.ScenarioID == scenarioID {
			delete(m.entries, k)
		}
	}
	return nil
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Buffer
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewBuffer(b)
	} else {
		reader = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealthHandler(t *testing.T) {
	s := newTestServer(t)
	w := doJSON(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSimulateSyncHandler_AssemblesResponse(t *testing.T) {
	s := newTestServer(t)
	w := doJSON(t, s, http.MethodPost, "/simulate/sync", SimulateRequest{
		ScenarioID: "scenario-a",
		Message:    "Build a park downtown",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.MultiAgentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Proposal)
	assert.Equal(t, "New Park", resp.Proposal.Title)
	assert.Len(t, resp.Reactions, 2)
}

func TestSimulateStartAndStatusHandlers(t *testing.T) {
	s := newTestServer(t)
	w := doJSON(t, s, http.MethodPost, "/simulate/start", SimulateRequest{
		ScenarioID: "scenario-a",
		Message:    "Build a park downtown",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var started JobIDResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &started))
	require.NotEmpty(t, started.JobID)

	var status StatusResponse
	for i := 0; i < 200; i++ {
		sw := doJSON(t, s, http.MethodGet, "/simulate/status/"+started.JobID, nil)
		require.Equal(t, http.StatusOK, sw.Code)
		require.NoError(t, json.Unmarshal(sw.Body.Bytes(), &status))
		if status.Status == models.JobComplete || status.Status == models.JobError {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	assert.Equal(t, models.JobComplete, status.Status)
	require.NotNil(t, status.Result)
}

func TestOverrideHandlers_SetGetResetInvalidatesCache(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodPut, "/overrides/scenario-a/downtown", SetOverrideRequest{
		Model: "anthropic/claude-3-5-sonnet",
	})
	require.Equal(t, http.StatusOK, w.Code)

	g := doJSON(t, s, http.MethodGet, "/overrides/scenario-a/downtown", nil)
	var got OverrideResponse
	require.NoError(t, json.Unmarshal(g.Body.Bytes(), &got))
	assert.True(t, got.Set)
	assert.Equal(t, "anthropic/claude-3-5-sonnet", got.Model)

	d := doJSON(t, s, http.MethodDelete, "/overrides/scenario-a/downtown", nil)
	require.Equal(t, http.StatusOK, d.Code)

	g2 := doJSON(t, s, http.MethodGet, "/overrides/scenario-a/downtown", nil)
	var got2 OverrideResponse
	require.NoError(t, json.Unmarshal(g2.Body.Bytes(), &got2))
	assert.False(t, got2.Set)
}

func TestGraphHandler_IncludesSyntheticNodesAndCallEdges(t *testing.T) {
	s := newTestServer(t)
	w := doJSON(t, s, http.MethodGet, "/graph/session-1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp GraphResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	var haveTownhall, haveUser, haveSystem bool
	for _, n := range resp.Nodes {
		switch n.ID {
		case "townhall":
			haveTownhall = true
		case "user":
			haveUser = true
		case "system":
			haveSystem = true
		}
	}
	assert.True(t, haveTownhall && haveUser && haveSystem)

	var callEdges int
	for _, e := range resp.Edges {
		if e.Type == edgeTypeCall {
			callEdges++
		}
	}
	assert.Equal(t, 2, callEdges)
}
