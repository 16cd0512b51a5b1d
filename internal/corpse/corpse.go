// Package corpse implements lootable creature corpses: every combat
// participant is an eligible looter, not just the killing blow (spec
// §4.6 step 4).
package corpse

import (
	"github.com/wildforge/zonecore/internal/data"
	"github.com/wildforge/zonecore/internal/errs"
	"github.com/wildforge/zonecore/internal/geometry"
	"github.com/wildforge/zonecore/internal/guid"
)

// Corpse is a lootable remainder left at a creature's death position.
type Corpse struct {
	ID           guid.ID
	Source       guid.ID // the creature that died
	Position     geometry.Vector
	SpawnedAtMS  int64
	DespawnAtMS  int64
	Loot         []data.RolledLoot
	taken        map[int]bool // index into Loot already looted
	EligibleLooters map[guid.ID]struct{}
}

// New builds a corpse from the rolled loot and the set of combat
// participants eligible to loot it.
func New(id, source guid.ID, pos geometry.Vector, nowMS, despawnMS int64, loot []data.RolledLoot, participants map[guid.ID]struct{}) *Corpse {
	eligible := make(map[guid.ID]struct{}, len(participants))
	for id := range participants {
		eligible[id] = struct{}{}
	}
	return &Corpse{
		ID:              id,
		Source:          source,
		Position:        pos,
		SpawnedAtMS:     nowMS,
		DespawnAtMS:     nowMS + despawnMS,
		Loot:            loot,
		taken:           make(map[int]bool),
		EligibleLooters: eligible,
	}
}

// CanLoot reports whether looter may take from this corpse.
func (c *Corpse) CanLoot(looter guid.ID) bool {
	_, ok := c.EligibleLooters[looter]
	return ok
}

// Take removes and returns the loot entry at index for looter. Entries
// are taken at most once.
func (c *Corpse) Take(looter guid.ID, index int) (data.RolledLoot, error) {
	const op = "corpse.Take"
	if !c.CanLoot(looter) {
		return data.RolledLoot{}, errs.New(op, errs.InvalidTarget)
	}
	if index < 0 || index >= len(c.Loot) {
		return data.RolledLoot{}, errs.New(op, errs.NotFound)
	}
	if c.taken[index] {
		return data.RolledLoot{}, errs.New(op, errs.NotFound)
	}
	c.taken[index] = true
	return c.Loot[index], nil
}

// Empty reports whether every loot entry has been taken.
func (c *Corpse) Empty() bool {
	for i := range c.Loot {
		if !c.taken[i] {
			return false
		}
	}
	return true
}

// Expired reports whether nowMS has passed the despawn deadline.
func (c *Corpse) Expired(nowMS int64) bool {
	return nowMS >= c.DespawnAtMS
}
