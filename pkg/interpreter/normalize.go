package interpreter

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/civicsim/orchestrator/pkg/config"
	"github.com/civicsim/orchestrator/pkg/models"
)

// proximity bucket thresholds, in meters. Chosen to give a build
// proposal a handful of "near" zones, a wider "medium" ring, and
// everything else "far" for a city-sized zone catalog.
const (
	nearThresholdM   = 1500
	mediumThresholdM = 4000
)

// normalizeProposal converts the LLM's raw reply shape into the typed,
// validated models.Proposal, coercing target_group to a string (spec
// §4.5 "coerce a list-valued target_group to a comma-joined string") and
// computing affected-region geometry for point-placed build proposals.
func normalizeProposal(raw *rawProposal, zones *config.ZoneCatalog) (*models.Proposal, error) {
	kind := models.ProposalKind(strings.ToLower(raw.Kind))
	if kind != models.ProposalKindBuild && kind != models.ProposalKindPolicy {
		return nil, fmt.Errorf("interpreter: unrecognized proposal kind %q", raw.Kind)
	}

	p := &models.Proposal{
		Kind:    kind,
		Title:   strings.TrimSpace(raw.Title),
		Summary: strings.TrimSpace(raw.Summary),
	}

	if raw.Parameters != nil {
		p.Parameters = models.ProposalParameters{
			Scale:       raw.Parameters.Scale,
			Budget:      raw.Parameters.Budget,
			TargetGroup: coerceTargetGroup(raw.Parameters.TargetGroup),
		}
	}

	if raw.Location == nil {
		return p, nil
	}

	loc, err := normalizeLocation(raw.Location, zones)
	if err != nil {
		return nil, err
	}
	p.Location = loc

	if kind == models.ProposalKindBuild && loc.Type == models.LocationPoint {
		regions, containing := computeAffectedRegions(loc.Lat, loc.Lng, zones)
		p.AffectedRegions = regions
		p.ContainingZoneID = containing
	}

	return p, nil
}

func coerceTargetGroup(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok && s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		return ""
	}
}

func normalizeLocation(raw *rawLocation, zones *config.ZoneCatalog) (*models.Location, error) {
	locType := models.LocationType(raw.Type)
	switch locType {
	case models.LocationNone, "":
		return &models.Location{Type: models.LocationNone}, nil
	case models.LocationZoneSet:
		for _, id := range raw.ZoneIDs {
			if _, err := zones.Get(id); err != nil {
				return nil, fmt.Errorf("interpreter: %w", err)
			}
		}
		return &models.Location{Type: models.LocationZoneSet, ZoneIDs: raw.ZoneIDs}, nil
	case models.LocationPoint:
		return &models.Location{Type: models.LocationPoint, Lat: raw.Lat, Lng: raw.Lng, RadiusM: raw.RadiusM}, nil
	case models.LocationPolygon:
		return &models.Location{Type: models.LocationPolygon}, nil
	default:
		return nil, fmt.Errorf("interpreter: unrecognized location type %q", raw.Type)
	}
}

// computeAffectedRegions buckets every zone's great-circle distance from
// (lat, lng) into near/medium/far and returns them ordered nearest-first,
// along with the id of the nearest zone (the "containing" zone, in the
// absence of true polygon containment data).
func computeAffectedRegions(lat, lng float64, zones *config.ZoneCatalog) ([]models.AffectedRegion, string) {
	ids := zones.IDs()
	regions := make([]models.AffectedRegion, 0, len(ids))

	for _, id := range ids {
		zone, err := zones.Get(id)
		if err != nil {
			continue
		}
		dist := haversineMeters(lat, lng, zone.Lat, zone.Lng)
		regions = append(regions, models.AffectedRegion{
			ZoneID:          id,
			DistanceMeters:  dist,
			Bucket:          bucketFor(dist),
			ProximityWeight: proximityWeight(dist),
		})
	}

	sort.Slice(regions, func(i, j int) bool {
		return regions[i].DistanceMeters < regions[j].DistanceMeters
	})

	var containing string
	if len(regions) > 0 {
		containing = regions[0].ZoneID
	}
	return regions, containing
}

func bucketFor(distanceM float64) models.ProximityBucket {
	switch {
	case distanceM <= nearThresholdM:
		return models.ProximityNear
	case distanceM <= mediumThresholdM:
		return models.ProximityMedium
	default:
		return models.ProximityFar
	}
}

// proximityWeight decays from 1 at distance 0 toward 0 as distance grows,
// so AgentReactor's proximity hint can be worded proportionally without
// re-deriving the raw distance.
func proximityWeight(distanceM float64) float64 {
	w := 1 / (1 + distanceM/1000)
	if w < 0 {
		return 0
	}
	if w > 1 {
		return 1
	}
	return w
}

const earthRadiusMeters = 6371000

func haversineMeters(lat1, lng1, lat2, lng2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMeters * c
}
