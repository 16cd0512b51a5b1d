// Package spell implements cast validation and effect resolution: the
// five-step validation pipeline, cast-in-progress/interrupt tracking, and
// damage/heal math delegated in part to the scripting engine.
package spell

import (
	"github.com/wildforge/zonecore/internal/buff"
	"github.com/wildforge/zonecore/internal/geometry"
	"github.com/wildforge/zonecore/internal/guid"
)

// Actor is the surface the resolver needs from a caster or target. The
// zone's entity table is the sole owner of the underlying state; Actor
// just exposes the slice the resolver reads and mutates.
type Actor interface {
	ID() guid.ID
	IsAlive() bool
	Health() int64
	MaxHealth() int64
	ApplyDamage(amount int64) (died bool)
	ApplyHeal(amount int64)
	Resource(kind string) int64
	SpendResource(kind string, amount int64)
	CritChance() float64
	Armor() float64
	MagicResist() float64
	TechResist() float64
	StatValue(name string) float64
	Buffs() *buff.Container
	Position() geometry.Vector
	RotationZ() float64
	Level() int16
}
