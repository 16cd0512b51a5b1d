// Package death resolves creature and player death: XP and loot for a
// creature kill, corpse creation, and respawn scheduling (spec §4.6).
package death

import (
	"math/rand"

	"github.com/wildforge/zonecore/internal/corpse"
	"github.com/wildforge/zonecore/internal/data"
	"github.com/wildforge/zonecore/internal/geometry"
	"github.com/wildforge/zonecore/internal/guid"
	"github.com/wildforge/zonecore/internal/scripting"
)

// CreatureVictim is the slice of creature state the manager needs to
// resolve a kill, without owning the entity itself.
type CreatureVictim interface {
	ID() guid.ID
	Level() int16
	Position() geometry.Vector
	Template() *data.CreatureTemplate
	Participants() map[guid.ID]struct{}
}

// KillerActor is the slice of attacker state needed for level-scaled XP.
type KillerActor interface {
	ID() guid.ID
	Level() int16
}

// CreatureDeathInput describes one creature kill to resolve.
type CreatureDeathInput struct {
	Victim CreatureVictim
	Killer KillerActor // nil for environmental/unattributed deaths
	NowMS  int64
}

// CreatureDeathResult is what the zone commits and broadcasts after a kill.
type CreatureDeathResult struct {
	XP          int64
	Loot        []data.RolledLoot
	Corpse      *corpse.Corpse
	RespawnAtMS int64
}

// Manager resolves creature and player death for one zone instance.
type Manager struct {
	loot        *data.LootTable
	engine      *scripting.Engine
	guids       *guid.Registry
	rng         *rand.Rand
	corpseTTLMS int64
	graceMS     int64
}

// NewManager builds a death Manager. corpseTTLMS is how long a corpse
// stays lootable before despawning; graceMS is the player respawn grace
// period (spec default 30s).
func NewManager(loot *data.LootTable, engine *scripting.Engine, guids *guid.Registry, rng *rand.Rand, corpseTTLMS, graceMS int64) *Manager {
	return &Manager{loot: loot, engine: engine, guids: guids, rng: rng, corpseTTLMS: corpseTTLMS, graceMS: graceMS}
}

// HandleCreatureDeath computes XP, rolls loot, and builds the corpse for
// a creature kill. The caller (zone) is responsible for transitioning the
// creature's AI state via ai.Kill and scheduling the respawn timer at
// RespawnAtMS.
func (m *Manager) HandleCreatureDeath(in CreatureDeathInput) CreatureDeathResult {
	tpl := in.Victim.Template()

	var xp int64
	if in.Killer != nil {
		xp = m.engine.XPFromKill(int(in.Killer.Level()), int(in.Victim.Level()), tpl.XPReward)
	}

	rolled := m.loot.Roll(tpl.LootTableID, m.rng)

	corpseID := m.guids.Next(guid.KindCorpse)
	c := corpse.New(corpseID, in.Victim.ID(), in.Victim.Position(), in.NowMS, m.corpseTTLMS, rolled, in.Victim.Participants())

	return CreatureDeathResult{
		XP:          xp,
		Loot:        rolled,
		Corpse:      c,
		RespawnAtMS: in.NowMS + tpl.RespawnDelayMS,
	}
}
