// Package zoneaggregator implements the pure reactions→zone-sentiment
// projection of . It has no side effects and no dependency on
// the upstream client; both AgentReactor's streaming callback and the
// orchestrator's synchronous path call into it.
package zoneaggregator

import (
	"math"

	"github.com/civicsim/orchestrator/pkg/config"
	"github.com/civicsim/orchestrator/pkg/models"
)

// Aggregate projects one reaction per zone (spec's "agent key ≡ zone id"
// invariant guarantees at most one reaction per zone) into a full
// ZoneSentiment list, ordered in zone-catalog order. A zone with no
// matching reaction is emitted neutral with score 0 and empty quote
// lists, exactly as a zone whose agent failed or was never dispatched.
func Aggregate(reactions []models.AgentReaction, zones *config.ZoneCatalog) []models.ZoneSentiment {
	byZone := make(map[string]models.AgentReaction, len(reactions))
	for _, r := range reactions {
		byZone[r.AgentKey] = r
	}

	ids := zones.IDs()
	out := make([]models.ZoneSentiment, 0, len(ids))
	for _, id := range ids {
		zone, err := zones.Get(id)
		if err != nil {
			continue
		}
		reaction, ok := byZone[id]
		if !ok {
			out = append(out, models.ZoneSentiment{
				ZoneID:    id,
				ZoneName:  zone.Name,
				Sentiment: models.StanceNeutral,
			})
			continue
		}
		out = append(out, ForReaction(reaction, zone))
	}
	return out
}

// ForReaction computes the single-zone sentiment one reaction induces.
// Exported so Reactor's streaming path can call it per-completion
// without waiting for the whole batch.
func ForReaction(reaction models.AgentReaction, zone models.Zone) models.ZoneSentiment {
	score := roundTo3(reaction.Stance.Sign() * reaction.Intensity)

	sentiment := models.ZoneSentiment{
		ZoneID:    zone.ID,
		ZoneName:  zone.Name,
		Sentiment: reaction.Stance,
		Score:     score,
	}

	if reaction.Quote == "" {
		return sentiment
	}
	switch reaction.Stance {
	case models.StanceSupport:
		sentiment.Quotes.TopSupport = []string{reaction.Quote}
	case models.StanceOppose:
		sentiment.Quotes.TopOppose = []string{reaction.Quote}
	}
	return sentiment
}

func roundTo3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
