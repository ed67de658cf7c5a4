package reactor

import (
	"fmt"
	"strings"

	"github.com/civicsim/orchestrator/pkg/models"
	"github.com/civicsim/orchestrator/pkg/promptschema"
)

// promptBuilder assembles one agent's prompt in a fixed order: role+zone
// context → persona → optional world-state context → proposal → optional
// proximity hint → zone list → schema. Composes a system/user message
// with one writer method per section, concatenated in a fixed order.
type promptBuilder struct {
	sb strings.Builder
}

func (b *promptBuilder) writeRoleContext(agentDef models.Agent) {
	fmt.Fprintf(&b.sb, "You represent %s (zone: %s), in the role of %s.\n\n", agentDef.DisplayName, agentDef.Key, agentDef.Role)
}

func (b *promptBuilder) writePersona(persona string) {
	if persona == "" {
		return
	}
	b.sb.WriteString("Your persona: ")
	b.sb.WriteString(persona)
	b.sb.WriteString("\n\n")
}

func (b *promptBuilder) writeWorldState(ws models.WorldState) {
	b.sb.WriteString("Prior facts about the world (use these to anchor your reaction):\n")
	fmt.Fprintf(&b.sb, "- World state version: %d\n", ws.Version)
	for _, item := range ws.PlacedItems {
		fmt.Fprintf(&b.sb, "- Built: %s (%s) in %s\n", item.Title, item.Type, item.ZoneName)
	}
	for _, policy := range ws.AdoptedPolicies {
		fmt.Fprintf(&b.sb, "- Adopted policy: %s (%s)\n", policy.Title, policy.Outcome)
	}
	for _, shift := range ws.TopShifts {
		fmt.Fprintf(&b.sb, "- Relationship shift: %s → %s (%.2f)\n", shift.From, shift.To, shift.Score)
	}
	b.sb.WriteString("\n")
}

func (b *promptBuilder) writeProposal(p models.Proposal) {
	fmt.Fprintf(&b.sb, "Proposal (%s): %s\n%s\n", p.Kind, p.Title, p.Summary)
	if len(p.AffectedRegions) > 0 {
		b.sb.WriteString("Affected zones: ")
		for i, r := range p.AffectedRegions {
			if i > 0 {
				b.sb.WriteString(", ")
			}
			b.sb.WriteString(r.ZoneID)
		}
		b.sb.WriteString("\n")
	}
	b.sb.WriteString("\n")
}

// writeProximityHint renders one sentence worded differently for the
// near/medium/far buckets of this agent's own zone.
func (b *promptBuilder) writeProximityHint(agentKey string, p models.Proposal) {
	for _, r := range p.AffectedRegions {
		if r.ZoneID != agentKey {
			continue
		}
		switch r.Bucket {
		case models.ProximityNear:
			b.sb.WriteString("This proposal would be built right in or next to your zone — it directly affects your residents day to day.\n\n")
		case models.ProximityMedium:
			b.sb.WriteString("This proposal is a moderate distance from your zone — it may have some spillover effect on your area.\n\n")
		case models.ProximityFar:
			b.sb.WriteString("This proposal is far from your zone — any effect on your area would be indirect at most.\n\n")
		}
		return
	}
}

func (b *promptBuilder) writeZoneList(zoneIDs []string) {
	b.sb.WriteString("The full list of zones in this simulation: ")
	b.sb.WriteString(strings.Join(zoneIDs, ", "))
	b.sb.WriteString("\n\n")
}

func (b *promptBuilder) writeSchema() {
	b.sb.WriteString("Respond with JSON only, matching this shape:\n")
	b.sb.WriteString(promptschema.MustDescribe[rawReaction]())
}

func (b *promptBuilder) String() string {
	return b.sb.String()
}
