package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// BuffCategory is the closed set of active-effect categories.
type BuffCategory string

const (
	BuffAbsorb       BuffCategory = "absorb"
	BuffStatModifier BuffCategory = "stat_modifier"
	BuffDamageBoost  BuffCategory = "damage_boost"
	BuffHealBoost    BuffCategory = "heal_boost"
	BuffPeriodic     BuffCategory = "periodic"
)

// BuffDefinition is the static definition of one buff/debuff.
type BuffDefinition struct {
	ID             uint32       `yaml:"id"`
	SourceSpellID  uint32       `yaml:"source_spell_id"`
	Category       BuffCategory `yaml:"category"`
	Stat           string       `yaml:"stat,omitempty"`
	Amount         int64        `yaml:"amount"`
	DurationMS     int64        `yaml:"duration_ms"`
	Debuff         bool         `yaml:"debuff"`
	MaxStacks      int          `yaml:"max_stacks"`
	TickIntervalMS int64        `yaml:"tick_interval_ms,omitempty"`
}

type buffListFile struct {
	Buffs []BuffDefinition `yaml:"buffs"`
}

// BuffTable holds buff/debuff definitions indexed by id.
type BuffTable struct {
	defs map[uint32]*BuffDefinition
}

// LoadBuffTable reads buff definitions from a YAML file.
func LoadBuffTable(path string) (*BuffTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read buff table: %w", err)
	}
	var f buffListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse buff table: %w", err)
	}
	t := &BuffTable{defs: make(map[uint32]*BuffDefinition, len(f.Buffs))}
	for i := range f.Buffs {
		b := &f.Buffs[i]
		t.defs[b.ID] = b
	}
	return t, nil
}

func (t *BuffTable) Get(id uint32) *BuffDefinition { return t.defs[id] }
func (t *BuffTable) Count() int                     { return len(t.defs) }
