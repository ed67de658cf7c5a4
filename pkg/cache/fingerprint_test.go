package cache

import (
	"testing"

	"github.com/civicsim/orchestrator/pkg/models"
	"github.com/stretchr/testify/assert"
)

func TestProposalFingerprint_StableForEquivalentProposals(t *testing.T) {
	a := &models.Proposal{
		Kind:    models.ProposalKindBuild,
		Title:   "New transit hub",
		Summary: "A light rail station near downtown",
		Location: &models.Location{
			Type: models.LocationPoint, Lat: 40.1, Lng: -75.2, RadiusM: 500,
		},
		AffectedRegions: []models.AffectedRegion{{ZoneID: "downtown", DistanceMeters: 10}},
	}
	b := &models.Proposal{
		Kind:    models.ProposalKindBuild,
		Title:   "New transit hub",
		Summary: "A light rail station near downtown",
		Location: &models.Location{
			Type: models.LocationPoint, Lat: 40.1, Lng: -75.2, RadiusM: 500,
		},
		// Differs only in fields outside the canonical subset.
		AffectedRegions: []models.AffectedRegion{{ZoneID: "downtown", DistanceMeters: 999}},
		ContainingZoneID: "downtown",
	}

	assert.Equal(t, ProposalFingerprint(a), ProposalFingerprint(b))
}

func TestProposalFingerprint_DiffersForDifferentProposals(t *testing.T) {
	a := &models.Proposal{Kind: models.ProposalKindBuild, Title: "Park", Location: &models.Location{Type: models.LocationNone}}
	b := &models.Proposal{Kind: models.ProposalKindBuild, Title: "Stadium", Location: &models.Location{Type: models.LocationNone}}

	assert.NotEqual(t, ProposalFingerprint(a), ProposalFingerprint(b))
}

func TestProposalFingerprint_Length(t *testing.T) {
	p := &models.Proposal{Kind: models.ProposalKindPolicy, Title: "Curfew"}
	assert.Len(t, ProposalFingerprint(p), 16)
}

func TestCacheKey_OrderIndependentMaps(t *testing.T) {
	k1 := Key{
		ScenarioID:   "s1",
		ProposalHash: "abc",
		AgentModels:  map[string]string{"downtown": "gpt-x", "hillside": "gpt-y"},
	}
	k2 := Key{
		ScenarioID:   "s1",
		ProposalHash: "abc",
		AgentModels:  map[string]string{"hillside": "gpt-y", "downtown": "gpt-x"},
	}

	assert.Equal(t, CacheKey(k1), CacheKey(k2))
}

func TestCacheKey_DiffersOnSimMode(t *testing.T) {
	base := Key{ScenarioID: "s1", ProposalHash: "abc"}
	withMode := base
	withMode.SimMode = "strict"

	assert.NotEqual(t, CacheKey(base), CacheKey(withMode))
}

func TestCacheKey_Length(t *testing.T) {
	assert.Len(t, CacheKey(Key{ScenarioID: "s1", ProposalHash: "abc"}), 32)
}
