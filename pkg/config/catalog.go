package config

import (
	"fmt"
	"sync"

	"github.com/civicsim/orchestrator/pkg/models"
)

// ZoneCatalog is the static, read-only zone registry. Built once
// at startup; lookups are O(1) and thread-safe for the read-heavy path.
type ZoneCatalog struct {
	mu    sync.RWMutex
	zones map[string]models.Zone
	order []string
}

// NewZoneCatalog builds a catalog from a defensive copy of zones.
func NewZoneCatalog(zones []models.Zone) *ZoneCatalog {
	c := &ZoneCatalog{zones: make(map[string]models.Zone, len(zones))}
	for _, z := range zones {
		c.zones[z.ID] = z
		c.order = append(c.order, z.ID)
	}
	return c
}

// Get returns a zone by id.
func (c *ZoneCatalog) Get(id string) (models.Zone, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	z, ok := c.zones[id]
	if !ok {
		return models.Zone{}, fmt.Errorf("%w: %s", ErrZoneNotFound, id)
	}
	return z, nil
}

// IDs returns every zone id in catalog-load order.
func (c *ZoneCatalog) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Len returns the number of zones (== N, the agent count, per the agent
// key == zone id invariant).
func (c *ZoneCatalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.zones)
}

// AgentCatalog is the static, read-only agent registry. Key invariant:
// agent key ≡ zone id.
type AgentCatalog struct {
	mu     sync.RWMutex
	agents map[string]models.Agent
	order  []string
}

// NewAgentCatalog builds a catalog from a defensive copy of agents.
func NewAgentCatalog(agents []models.Agent) *AgentCatalog {
	c := &AgentCatalog{agents: make(map[string]models.Agent, len(agents))}
	for _, a := range agents {
		c.agents[a.Key] = a
		c.order = append(c.order, a.Key)
	}
	return c
}

// Get returns an agent by key.
func (c *AgentCatalog) Get(key string) (models.Agent, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.agents[key]
	if !ok {
		return models.Agent{}, fmt.Errorf("%w: %s", ErrAgentNotFound, key)
	}
	return a, nil
}

// Keys returns every agent key in catalog-load order.
func (c *AgentCatalog) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Len returns the number of agents in the catalog.
func (c *AgentCatalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.agents)
}

// ValidateAgentsMatchZones enforces the agent-key-equals-zone-id invariant
// at load time so a configuration mismatch fails fast instead of silently
// dropping a zone's reaction at run time.
func ValidateAgentsMatchZones(zones *ZoneCatalog, agents *AgentCatalog) error {
	zoneIDs := zones.IDs()
	zoneSet := make(map[string]struct{}, len(zoneIDs))
	for _, id := range zoneIDs {
		zoneSet[id] = struct{}{}
	}
	for _, key := range agents.Keys() {
		if _, ok := zoneSet[key]; !ok {
			return fmt.Errorf("%w: agent key %q has no matching zone", ErrValidationFailed, key)
		}
	}
	for _, id := range zoneIDs {
		if _, err := agents.Get(id); err != nil {
			return fmt.Errorf("%w: zone %q has no matching agent", ErrValidationFailed, id)
		}
	}
	return nil
}
