package death

import "github.com/wildforge/zonecore/internal/geometry"

// PlayerDeathInput describes one player death to resolve.
type PlayerDeathInput struct {
	Level       int16
	BindPosition geometry.Vector
	NowMS       int64
}

// PlayerDeathResult is what the zone commits for a dead player: when and
// where they may respawn, and the level-scaled penalties applied then.
type PlayerDeathResult struct {
	RespawnAtMS         int64
	RespawnPosition     geometry.Vector
	RespawnHealthFraction float64
	DurabilityPenalty   float64
}

// HandlePlayerDeath computes the grace-period respawn outcome for a
// player. Pending resurrection offers from other players are handled by
// the caller before this fires; once the grace period elapses with no
// resurrection accepted, the player respawns at their bindpoint.
func (m *Manager) HandlePlayerDeath(in PlayerDeathInput) PlayerDeathResult {
	return PlayerDeathResult{
		RespawnAtMS:           in.NowMS + m.graceMS,
		RespawnPosition:       in.BindPosition,
		RespawnHealthFraction: m.engine.RespawnHealthFraction(int(in.Level)),
		DurabilityPenalty:     m.engine.DurabilityPenalty(int(in.Level)),
	}
}
