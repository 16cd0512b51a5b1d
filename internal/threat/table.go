// Package threat implements the per-creature threat table: an additive
// score per attacker used to choose the current combat target, with a
// deterministic first-inserted tie-break (spec §9 open question).
package threat

import "github.com/wildforge/zonecore/internal/guid"

type entry struct {
	points   int64
	sequence uint64 // insertion order, for deterministic tie-breaking
}

// Table is a per-creature threat map: attacker id -> threat points.
type Table struct {
	entries map[guid.ID]*entry
	next    uint64
}

func New() *Table {
	return &Table{entries: make(map[guid.ID]*entry)}
}

// Add adds points to attacker's threat, creating the entry at zero first
// if attacker has none. Add itself grants no opening bonus; ai.EnterCombat
// passes 100 plus the damage threat for an attacker's first entry.
func (t *Table) Add(attacker guid.ID, points int64) {
	e, ok := t.entries[attacker]
	if !ok {
		t.next++
		e = &entry{sequence: t.next}
		t.entries[attacker] = e
	}
	e.points += points
}

// Has reports whether attacker already holds a threat entry.
func (t *Table) Has(attacker guid.ID) bool {
	_, ok := t.entries[attacker]
	return ok
}

// Remove deletes attacker's entry.
func (t *Table) Remove(attacker guid.ID) {
	delete(t.entries, attacker)
}

// Clear empties the table.
func (t *Table) Clear() {
	t.entries = make(map[guid.ID]*entry)
	t.next = 0
}

// Empty reports whether the table has no entries.
func (t *Table) Empty() bool { return len(t.entries) == 0 }

// Highest returns the attacker with the greatest threat. Ties are broken
// by insertion order: the attacker added first wins. Returns the zero ID
// and false if the table is empty.
func (t *Table) Highest() (guid.ID, bool) {
	var best guid.ID
	var bestEntry *entry
	for id, e := range t.entries {
		if bestEntry == nil ||
			e.points > bestEntry.points ||
			(e.points == bestEntry.points && e.sequence < bestEntry.sequence) {
			best = id
			bestEntry = e
		}
	}
	if bestEntry == nil {
		return guid.ID(0), false
	}
	return best, true
}

// Total returns the sum of all threat points.
func (t *Table) Total() int64 {
	var sum int64
	for _, e := range t.entries {
		sum += e.points
	}
	return sum
}
