// Package config loads and validates civicsim's static configuration: the
// zone and agent catalogs, the model allow-list and provider mapping, and
// system-wide feature flags. Follows a load → env-expand → merge →
// validate pipeline, simplified to four flat YAML files (zones, agents,
// models, system) with no chains/MCP servers/registries to cross-reference.
package config

import (
	"time"

	"github.com/civicsim/orchestrator/pkg/models"
)

// ZonesYAML is the on-disk shape of zones.yaml.
type ZonesYAML struct {
	Zones []models.Zone `yaml:"zones"`
}

// AgentsYAML is the on-disk shape of agents.yaml.
type AgentsYAML struct {
	Agents []models.Agent `yaml:"agents"`
}

// ModelsYAML is the on-disk shape of models.yaml.
type ModelsYAML struct {
	Default  string            `yaml:"default"`
	Allowed  []string          `yaml:"allowed"`
	Provider map[string]string `yaml:"provider_by_model"`
}

// SystemYAML is the on-disk shape of system.yaml.
type SystemYAML struct {
	Upstream UpstreamYAML `yaml:"upstream"`
	Ledger   LedgerYAML   `yaml:"ledger"`
	Cache    CacheYAML    `yaml:"cache"`
	Jobs     JobsYAML     `yaml:"jobs"`
}

// UpstreamYAML configures the LLM gateway connection.
type UpstreamYAML struct {
	Transport string `yaml:"transport"` // "http" | "grpc"
	BaseURL   string `yaml:"base_url"`
	GRPCAddr  string `yaml:"grpc_addr,omitempty"`
}

// LedgerYAML toggles the optional append-only event log.
type LedgerYAML struct {
	Enabled bool `yaml:"enabled"`
}

// CacheYAML configures the FingerprintCache.
type CacheYAML struct {
	TTL         time.Duration `yaml:"ttl"`
	MaxEntries  int           `yaml:"max_entries"`
}

// JobsYAML configures the JobStore.
type JobsYAML struct {
	TTL time.Duration `yaml:"ttl"`
}
