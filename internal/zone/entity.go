package zone

import (
	"github.com/wildforge/zonecore/internal/ai"
	"github.com/wildforge/zonecore/internal/buff"
	"github.com/wildforge/zonecore/internal/data"
	"github.com/wildforge/zonecore/internal/geometry"
	"github.com/wildforge/zonecore/internal/guid"
)

// EntityKind distinguishes the handful of object kinds a zone tracks.
type EntityKind int

const (
	EntityCreature EntityKind = iota
	EntityPlayer
)

// Entity is one live creature or player inside a zone instance. It is the
// zone's sole owning store for combat/position state; everything else
// (buffs, corpses, threat) refers to it by id (spec §9's cyclic-reference
// redesign flag).
type Entity struct {
	id    guid.ID
	kind  EntityKind
	level int16

	template *data.CreatureTemplate // nil for players

	position     geometry.Vector
	rotationZ    float64
	spawnPosition geometry.Vector
	bindPosition geometry.Vector // players only: resurrect/respawn point

	health    int64
	maxHealth int64
	resources map[string]int64

	critChance  float64
	armor       float64
	magicResist float64
	techResist  float64
	stats       map[string]float64

	buffs *buff.Container
	AI    *ai.State // nil for players; the FSM only drives creatures
}

// NewCreature builds a live creature entity at its spawn position.
func NewCreature(id guid.ID, tpl *data.CreatureTemplate, spawn geometry.Vector) *Entity {
	return &Entity{
		id:            id,
		kind:          EntityCreature,
		level:         tpl.Level,
		template:      tpl,
		position:      spawn,
		spawnPosition: spawn,
		health:        int64(tpl.MaxHealth),
		maxHealth:     int64(tpl.MaxHealth),
		resources:     make(map[string]int64),
		stats:         make(map[string]float64),
		buffs:         buff.NewContainer(),
		AI:            ai.NewState(),
	}
}

// NewPlayer builds a live player entity.
func NewPlayer(id guid.ID, level int16, pos geometry.Vector, maxHealth int64, resources map[string]int64) *Entity {
	return &Entity{
		id:            id,
		kind:          EntityPlayer,
		level:         level,
		position:      pos,
		spawnPosition: pos,
		bindPosition:  pos,
		health:        maxHealth,
		maxHealth:     maxHealth,
		resources:     resources,
		stats:         make(map[string]float64),
		buffs:         buff.NewContainer(),
	}
}

func (e *Entity) ID() guid.ID     { return e.id }
func (e *Entity) Kind() EntityKind { return e.kind }
func (e *Entity) Level() int16    { return e.level }
func (e *Entity) IsAlive() bool   { return e.health > 0 }
func (e *Entity) Health() int64   { return e.health }
func (e *Entity) MaxHealth() int64 { return e.maxHealth }

// ApplyDamage subtracts amount from health, floors at 0, and reports
// whether this blow killed the entity.
func (e *Entity) ApplyDamage(amount int64) bool {
	e.health -= amount
	if e.health <= 0 {
		e.health = 0
		return true
	}
	return false
}

func (e *Entity) ApplyHeal(amount int64) {
	e.health += amount
	if e.health > e.maxHealth {
		e.health = e.maxHealth
	}
}

func (e *Entity) Resource(kind string) int64 { return e.resources[kind] }
func (e *Entity) SpendResource(kind string, amount int64) {
	e.resources[kind] -= amount
}

func (e *Entity) CritChance() float64  { return e.critChance }
func (e *Entity) Armor() float64       { return e.armor }
func (e *Entity) MagicResist() float64 { return e.magicResist }
func (e *Entity) TechResist() float64  { return e.techResist }
func (e *Entity) StatValue(name string) float64 { return e.stats[name] }

func (e *Entity) Buffs() *buff.Container  { return e.buffs }
func (e *Entity) Position() geometry.Vector { return e.position }
func (e *Entity) RotationZ() float64 { return e.rotationZ }
func (e *Entity) SpawnPosition() geometry.Vector { return e.spawnPosition }
func (e *Entity) BindPosition() geometry.Vector  { return e.bindPosition }

// SetBindPosition updates a player's resurrect/respawn point, e.g. on
// binding at an inn or a hearthstone-equivalent.
func (e *Entity) SetBindPosition(pos geometry.Vector) { e.bindPosition = pos }

// SetPosition updates position/facing. The caller is responsible for
// updating the spatial grid too.
func (e *Entity) SetPosition(pos geometry.Vector, rotationZ float64) {
	e.position = pos
	e.rotationZ = rotationZ
}

// Template returns the creature template, satisfying death.CreatureVictim.
func (e *Entity) Template() *data.CreatureTemplate { return e.template }

// Participants returns the AI's recorded combat participants, satisfying
// death.CreatureVictim.
func (e *Entity) Participants() map[guid.ID]struct{} {
	if e.AI == nil {
		return nil
	}
	return e.AI.Participants
}

// Revive restores a dead creature to full health at spawn.
func (e *Entity) Revive() {
	e.health = e.maxHealth
	e.position = e.spawnPosition
}

// ReviveAt restores e to life at pos with health set to fraction of max
// (fraction <= 0 is treated as 1.0 full health). Shared by the creature
// and player respawn paths, which differ only in position/fraction.
func (e *Entity) ReviveAt(pos geometry.Vector, fraction float64) {
	if fraction <= 0 {
		fraction = 1
	}
	health := int64(float64(e.maxHealth) * fraction)
	if health > e.maxHealth {
		health = e.maxHealth
	}
	e.health = health
	e.position = pos
}
