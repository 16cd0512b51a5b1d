package event

import "github.com/wildforge/zonecore/internal/guid"

// EntityMoved is emitted whenever an entity's position or rotation
// changes and observers need to be told.
type EntityMoved struct {
	Entity  guid.ID
	X, Y, Z float64
	RotZ    float64
}

// EntityDeath is emitted when any entity's health reaches zero.
type EntityDeath struct {
	Entity guid.ID
	Killer guid.ID
}

// XPGain is emitted to the killer (or kill-credit participants) on a
// creature kill.
type XPGain struct {
	Entity guid.ID
	Amount int64
}

// SpellEffect reports one resolved effect of a cast for broadcast.
type SpellEffect struct {
	Caster  guid.ID
	Target  guid.ID
	SpellID uint32
	Kind    string // "damage", "heal", "dot", "hot", "buff", "debuff"
	Amount  int64
	Flags   uint32
}

// KillRewards is emitted once per kill, summarizing everything a
// participant is owed.
type KillRewards struct {
	Killer  guid.ID
	Victim  guid.ID
	XP      int64
	LootIDs []uint32
}

// CorpseSpawn is emitted when a creature death creates a lootable corpse.
type CorpseSpawn struct {
	Corpse  guid.ID
	Source  guid.ID
	X, Y, Z float64
}

// CorpseLootTaken is emitted when a looter consumes an item off a corpse.
type CorpseLootTaken struct {
	Corpse guid.ID
	Looter guid.ID
	ItemID uint32
	Qty    uint32
}

// BuffApplied is emitted when an active-effect entry is inserted.
type BuffApplied struct {
	Entity guid.ID
	Caster guid.ID
	BuffID uint32
}

// BuffRemoved is emitted when an active-effect entry is deleted, whether
// by expiry, explicit removal, or cleanup.
type BuffRemoved struct {
	Entity guid.ID
	BuffID uint32
}

// BuffTick is emitted once per periodic-effect heartbeat tick.
type BuffTick struct {
	Entity guid.ID
	BuffID uint32
	Amount int64
}
