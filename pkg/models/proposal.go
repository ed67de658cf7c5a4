package models

// ProposalKind discriminates the two proposal shapes the interpreter can
// produce.
type ProposalKind string

const (
	ProposalKindBuild  ProposalKind = "build"
	ProposalKindPolicy ProposalKind = "policy"
)

// LocationType discriminates how a proposal's location is expressed.
type LocationType string

const (
	LocationNone    LocationType = "none"
	LocationZoneSet LocationType = "zone-set"
	LocationPoint   LocationType = "point"
	LocationPolygon LocationType = "polygon"
)

// ProximityBucket buckets a zone's distance from a placed build proposal.
type ProximityBucket string

const (
	ProximityNear   ProximityBucket = "near"
	ProximityMedium ProximityBucket = "medium"
	ProximityFar    ProximityBucket = "far"
)

// Location describes where a proposal applies. Only the fields relevant to
// Type are populated; the rest are zero values.
type Location struct {
	Type     LocationType `json:"type"`
	ZoneIDs  []string     `json:"zone_ids,omitempty"`
	Lat      float64      `json:"latitude,omitempty"`
	Lng      float64      `json:"longitude,omitempty"`
	RadiusM  float64      `json:"radius_m,omitempty"`
	Polygon  [][2]float64 `json:"polygon,omitempty"`
}

// ProposalParameters carries the free-form numeric/budget/target-group
// parameters of a proposal.
type ProposalParameters struct {
	Scale       float64 `json:"scale,omitempty"`
	Budget      *float64 `json:"budget,omitempty"`
	TargetGroup string  `json:"target_group,omitempty"`
}

// AffectedRegion is one zone's computed proximity to a build proposal's
// placement.
type AffectedRegion struct {
	ZoneID         string          `json:"zone_id"`
	DistanceMeters float64         `json:"distance_meters"`
	Bucket         ProximityBucket `json:"bucket"`
	ProximityWeight float64        `json:"proximity_weight"`
}

// Proposal is the immutable structured interpretation of a free-text
// request, produced once by the Interpreter and never mutated afterward.
type Proposal struct {
	Kind             ProposalKind       `json:"kind"`
	Title            string             `json:"title"`
	Summary          string             `json:"summary"`
	Location         *Location          `json:"location,omitempty"`
	Parameters       ProposalParameters `json:"parameters"`
	AffectedRegions  []AffectedRegion   `json:"affected_regions,omitempty"`
	ContainingZoneID string             `json:"containing_zone_id,omitempty"`
}

// CanonicalProposal is the subset of Proposal fields that participate in
// fingerprint computation. Two proposals that differ
// only outside this set must canonicalize identically.
type CanonicalProposal struct {
	Kind        ProposalKind `json:"kind"`
	Title       string       `json:"title"`
	Summary     string       `json:"summary"`
	SpatialType LocationType `json:"spatial_type"`
	PolicyType  string       `json:"policy_type"`
	Latitude    float64      `json:"latitude"`
	Longitude   float64      `json:"longitude"`
	Radius      float64      `json:"radius"`
}

// Canonicalize extracts the fingerprint-relevant subset of a Proposal.
func Canonicalize(p *Proposal) CanonicalProposal {
	c := CanonicalProposal{
		Kind:    p.Kind,
		Title:   p.Title,
		Summary: p.Summary,
	}
	if p.Kind == ProposalKindPolicy {
		c.PolicyType = p.Parameters.TargetGroup
	}
	if p.Location != nil {
		c.SpatialType = p.Location.Type
		c.Latitude = p.Location.Lat
		c.Longitude = p.Location.Lng
		c.Radius = p.Location.RadiusM
	} else {
		c.SpatialType = LocationNone
	}
	return c
}
