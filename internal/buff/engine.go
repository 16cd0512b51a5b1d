// Package buff implements the active-effect container: apply, remove,
// stat modifiers, absorb consumption, and periodic-tick coordination
// (spec §4.3). Periodic ticks are driven by the shared tick scheduler
// heartbeat, never by per-effect timers (spec §9).
package buff

import (
	"sort"

	"github.com/wildforge/zonecore/internal/data"
	"github.com/wildforge/zonecore/internal/errs"
	"github.com/wildforge/zonecore/internal/guid"
)

// ActiveEffect is one entry in an entity's active-effect container.
type ActiveEffect struct {
	Definition      *data.BuffDefinition
	CasterID        guid.ID
	ExpiresAtMS     int64
	RemainingAmount int64 // absorb capacity remaining, for BuffAbsorb entries
	NextTickAtMS    int64 // for periodic entries
	Stacks          int
	sequence        uint64 // insertion order, oldest-first ordering for absorb consumption
}

// Container holds one entity's active effects, keyed by buff definition
// id (applying the same id again refreshes the existing entry).
type Container struct {
	effects map[uint32]*ActiveEffect
	next    uint64
}

func NewContainer() *Container {
	return &Container{effects: make(map[uint32]*ActiveEffect)}
}

// Engine applies buff/debuff operations against entity containers. It
// holds no per-entity state itself — every method takes the target
// Container explicitly, so containers can live wherever the zone's
// entity table puts them.
type Engine struct{}

func NewEngine() *Engine { return &Engine{} }

// Apply inserts or refreshes an active-effect entry. For periodic
// effects, the next tick is scheduled at now + tick_interval.
func (e *Engine) Apply(c *Container, def *data.BuffDefinition, caster guid.ID, nowMS int64) {
	existing, ok := c.effects[def.ID]
	var sequence uint64
	if ok {
		sequence = existing.sequence
	} else {
		c.next++
		sequence = c.next
	}

	ae := &ActiveEffect{
		Definition:  def,
		CasterID:    caster,
		ExpiresAtMS: nowMS + def.DurationMS,
		Stacks:      1,
		sequence:    sequence,
	}
	if def.Category == data.BuffAbsorb {
		ae.RemainingAmount = def.Amount
	}
	if def.Category == data.BuffPeriodic && def.TickIntervalMS > 0 {
		ae.NextTickAtMS = nowMS + def.TickIntervalMS
	}
	c.effects[def.ID] = ae
}

// Remove deletes the entry for buffID. Returns not_found if absent.
func (e *Engine) Remove(c *Container, buffID uint32) error {
	if _, ok := c.effects[buffID]; !ok {
		return errs.New("buff.Remove", errs.NotFound)
	}
	delete(c.effects, buffID)
	return nil
}

// StatModifier sums amount over active stat_modifier entries matching
// stat.
func (e *Engine) StatModifier(c *Container, stat string, nowMS int64) int64 {
	var total int64
	for _, ae := range c.effects {
		if ae.Definition.Category != data.BuffStatModifier {
			continue
		}
		if ae.Definition.Stat != stat {
			continue
		}
		if ae.ExpiresAtMS <= nowMS {
			continue
		}
		total += ae.Definition.Amount
	}
	return total
}

// ConsumeAbsorb subtracts damage from active absorb entries, oldest first
// (insertion order). Invariant: absorbed + remaining == damage.
func (e *Engine) ConsumeAbsorb(c *Container, damage int64, nowMS int64) (absorbed, remaining int64) {
	remaining = damage

	var ids []uint32
	for id, ae := range c.effects {
		if ae.Definition.Category == data.BuffAbsorb && ae.ExpiresAtMS > nowMS {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		return c.effects[ids[i]].sequence < c.effects[ids[j]].sequence
	})

	for _, id := range ids {
		if remaining <= 0 {
			break
		}
		ae := c.effects[id]
		if ae.RemainingAmount <= remaining {
			absorbed += ae.RemainingAmount
			remaining -= ae.RemainingAmount
			delete(c.effects, id)
		} else {
			ae.RemainingAmount -= remaining
			absorbed += remaining
			remaining = 0
		}
	}
	return absorbed, remaining
}

// Cleanup drops entries whose expiry has passed. Returns the removed buff
// ids for broadcast (BuffRemoved events).
func (e *Engine) Cleanup(c *Container, nowMS int64) []uint32 {
	var removed []uint32
	for id, ae := range c.effects {
		if ae.ExpiresAtMS <= nowMS {
			removed = append(removed, id)
			delete(c.effects, id)
		}
	}
	return removed
}

// TickResult is one periodic-effect tick due this heartbeat.
type TickResult struct {
	BuffID uint32
	Caster guid.ID
	Amount int64
}

// Tick advances every periodic entry's next_tick_at cursor and returns
// the set that fired this heartbeat. Called once per scheduler tick, not
// per-effect, so periodic effects stay cache-coherent and drift-free
// relative to one another (spec §9).
func (e *Engine) Tick(c *Container, nowMS int64) []TickResult {
	var fired []TickResult
	for _, ae := range c.effects {
		if ae.Definition.Category != data.BuffPeriodic {
			continue
		}
		if ae.NextTickAtMS > nowMS {
			continue
		}
		fired = append(fired, TickResult{
			BuffID: ae.Definition.ID,
			Caster: ae.CasterID,
			Amount: ae.Definition.Amount,
		})
		if ae.Definition.TickIntervalMS > 0 {
			ae.NextTickAtMS += ae.Definition.TickIntervalMS
		}
	}
	return fired
}

// Has reports whether buffID is currently active.
func (c *Container) Has(buffID uint32) bool {
	_, ok := c.effects[buffID]
	return ok
}

// Get returns the active effect for buffID, if present.
func (c *Container) Get(buffID uint32) (*ActiveEffect, bool) {
	ae, ok := c.effects[buffID]
	return ae, ok
}

// Len returns the number of active effects.
func (c *Container) Len() int { return len(c.effects) }
