package data

import (
	"fmt"
	"math/rand"
	"os"

	"gopkg.in/yaml.v3"
)

// LootEntry is the on-disk drop format: item_id=0 denotes currency. Chance
// is on a 1-100 scale, not the teacher's 1,000,000 scale — this is the
// spec's literal disk format (spec.md §6) and takes precedence.
type LootEntry struct {
	ItemID uint32 `yaml:"item_id"`
	Chance uint8  `yaml:"chance"` // 1..100
	Min    uint32 `yaml:"min"`
	Max    uint32 `yaml:"max"`
}

type lootTableFile struct {
	ID      uint32      `yaml:"id"`
	Entries []LootEntry `yaml:"entries"`
}

type lootListFile struct {
	Tables []lootTableFile `yaml:"tables"`
}

// LootTable holds loot entry lists keyed by loot-table id.
type LootTable struct {
	tables map[uint32][]LootEntry
}

// LoadLootTable reads loot tables from a YAML file.
func LoadLootTable(path string) (*LootTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read loot table: %w", err)
	}
	var f lootListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse loot table: %w", err)
	}
	t := &LootTable{tables: make(map[uint32][]LootEntry, len(f.Tables))}
	for _, lt := range f.Tables {
		t.tables[lt.ID] = lt.Entries
	}
	return t, nil
}

func (t *LootTable) Count() int { return len(t.tables) }

// Roll evaluates every entry of the given loot table independently:
// rand(1..100) <= chance triggers a drop of rand(min..max) units.
func (t *LootTable) Roll(lootTableID uint32, rng *rand.Rand) []RolledLoot {
	entries, ok := t.tables[lootTableID]
	if !ok {
		return nil
	}
	var drops []RolledLoot
	for _, e := range entries {
		roll := uint8(rng.Intn(100) + 1)
		if roll > e.Chance {
			continue
		}
		qty := e.Min
		if e.Max > e.Min {
			qty = e.Min + uint32(rng.Intn(int(e.Max-e.Min+1)))
		}
		drops = append(drops, RolledLoot{ItemID: e.ItemID, Qty: qty})
	}
	return drops
}

// RolledLoot is one concrete item drop produced by Roll.
type RolledLoot struct {
	ItemID uint32
	Qty    uint32
}
