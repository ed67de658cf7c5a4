// Package cache implements the FingerprintCache: a content-addressed
// cache that lets a repeated proposal reuse a prior simulation's result.
// The read-through front is a hashicorp/golang-lru cache sitting in front
// of the Postgres fingerprint_cache table.
package cache

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/civicsim/orchestrator/pkg/models"
)

// ProposalFingerprint returns the first 16 hex characters of the MD5 of the
// proposal's canonical JSON encoding. Map-valued fields
// in CanonicalProposal are scalar, so json.Marshal's deterministic field
// order is sufficient without a custom canonicalizer.
func ProposalFingerprint(p *models.Proposal) string {
	c := models.Canonicalize(p)
	b, err := json.Marshal(c)
	if err != nil {
		// Canonicalize only ever produces JSON-safe scalars; Marshal cannot
		// fail for it in practice, but fingerprinting must never panic.
		b = []byte(fmt.Sprintf("%+v", c))
	}
	sum := md5.Sum(b)
	return fmt.Sprintf("%x", sum)[:16]
}

// Key is the set of inputs that determine whether two simulation requests
// may share a cached result.
type Key struct {
	ScenarioID        string
	ProposalHash      string
	AgentModels       map[string]string
	ArchetypeOverride map[string]string
	SimMode           string
}

// CacheKey returns the first 32 hex characters of the SHA-256 of k's
// canonical JSON encoding, sorting map keys first so the same logical
// input always yields the same digest regardless of map iteration order.
func CacheKey(k Key) string {
	payload := struct {
		ScenarioID        string            `json:"scenario_id"`
		ProposalHash      string            `json:"proposal_hash"`
		AgentModels       map[string]string `json:"agent_models"`
		ArchetypeOverride map[string]string `json:"archetype_overrides"`
		SimMode           string            `json:"sim_mode"`
	}{
		ScenarioID:        k.ScenarioID,
		ProposalHash:      k.ProposalHash,
		AgentModels:       sortedCopy(k.AgentModels),
		ArchetypeOverride: sortedCopy(k.ArchetypeOverride),
		SimMode:           k.SimMode,
	}
	b, _ := json.Marshal(payload)
	sum := sha256.Sum256(b)
	return fmt.Sprintf("%x", sum)[:32]
}

// sortedCopy returns a copy of m with the same entries. Go's encoding/json
// already sorts map keys when marshaling, so the copy does not change the
// encoding; it documents that CacheKey's determinism relies on that
// behavior rather than accidental map iteration order.
func sortedCopy(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make(map[string]string, len(m))
	for _, k := range keys {
		out[k] = m[k]
	}
	return out
}
