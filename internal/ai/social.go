package ai

import "github.com/wildforge/zonecore/internal/data"

// IsValidAggroCandidate implements the spec's faction filter for aggro
// detection: a hostile-category creature considers any player a valid
// target; friendly never aggros; neutral aggros only once explicitly
// attacked (modeled elsewhere, by a threat entry existing already — this
// filter only gates the passive/idle-scan path).
func IsValidAggroCandidate(creatureFaction data.FactionCategory) bool {
	switch creatureFaction {
	case data.FactionHostile:
		return true
	case data.FactionFriendly, data.FactionNeutral:
		return false
	default:
		return false
	}
}

// SocialCandidate describes a nearby same-side creature a zone instance
// found via the spatial grid, for the social-aggro cluster rule.
type SocialCandidate struct {
	Faction data.FactionCategory
	State   *State
}

// ShouldJoinSocialAggro reports whether a nearby creature should be pulled
// into combat because a same-faction-category ally just engaged.
// Already-in-combat creatures keep their own target; social aggro never
// overrides an existing target.
func ShouldJoinSocialAggro(engagingFaction data.FactionCategory, candidate SocialCandidate) bool {
	if candidate.State.Kind != Idle {
		return false
	}
	return candidate.Faction == engagingFaction
}
