package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// TargetType is the closed set of cast target shapes.
type TargetType string

const (
	TargetSelf  TargetType = "self"
	TargetEnemy TargetType = "enemy"
	TargetAlly  TargetType = "ally"
	TargetGround TargetType = "ground"
	TargetAOE   TargetType = "aoe"
)

// School determines which mitigation stat applies.
type School string

const (
	SchoolPhysical School = "physical"
	SchoolMagic    School = "magic"
	SchoolTech     School = "tech"
)

// EffectKind is the closed set of spell effects.
type EffectKind string

const (
	EffectDamage EffectKind = "damage"
	EffectHeal   EffectKind = "heal"
	EffectDot    EffectKind = "dot"
	EffectHot    EffectKind = "hot"
	EffectBuff   EffectKind = "buff"
	EffectDebuff EffectKind = "debuff"
)

// SpellEffectDef is one effect a spell applies on resolution.
type SpellEffectDef struct {
	Kind          EffectKind `yaml:"kind"`
	Base          float64    `yaml:"base"`
	ScalingStat   string     `yaml:"scaling_stat,omitempty"`
	Scaling       float64    `yaml:"scaling"`
	School        School     `yaml:"school,omitempty"`
	BuffID        uint32     `yaml:"buff_id,omitempty"`
	TickIntervalMS int64     `yaml:"tick_interval_ms,omitempty"`
	DurationMS    int64      `yaml:"duration_ms,omitempty"`
}

// TelegraphShape is a ground/AOE spell's footprint in the caster's local
// frame. Kept as plain data (kind is a string, not internal/telegraph's
// enum) so this package doesn't need to import telegraph; spell.Resolver
// converts it when resolving area hits.
type TelegraphShape struct {
	Kind     string  `yaml:"kind"` // circle, ring, cone, long_cone, pie, square, rectangle
	R0       float64 `yaml:"r0,omitempty"`
	R1       float64 `yaml:"r1,omitempty"`
	AngleDeg float64 `yaml:"angle_deg,omitempty"`
	W        float64 `yaml:"w,omitempty"`
	H        float64 `yaml:"h,omitempty"`
	Len      float64 `yaml:"len,omitempty"`
}

// SpellDefinition is the static definition of one castable spell.
type SpellDefinition struct {
	SpellID        uint32            `yaml:"spell_id"`
	Name           string            `yaml:"name"`
	TargetType     TargetType        `yaml:"target_type"`
	Range          float64           `yaml:"range"`
	CastTimeMS     int64             `yaml:"cast_time_ms"`
	ResourceType   string            `yaml:"resource_type"`
	ResourceCost   int64             `yaml:"resource_cost"`
	CooldownMS     int64             `yaml:"cooldown_ms"`
	TriggersGCD    bool              `yaml:"triggers_gcd"`
	InterruptFlags []string          `yaml:"interrupt_flags,omitempty"`
	Telegraph      *TelegraphShape   `yaml:"telegraph,omitempty"`
	Effects        []SpellEffectDef  `yaml:"effects"`
}

type spellListFile struct {
	Spells []SpellDefinition `yaml:"spells"`
}

// SpellTable holds spell definitions indexed by SpellID.
type SpellTable struct {
	defs map[uint32]*SpellDefinition
}

// LoadSpellTable reads spell definitions from a YAML file.
func LoadSpellTable(path string) (*SpellTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spell table: %w", err)
	}
	var f spellListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse spell table: %w", err)
	}
	t := &SpellTable{defs: make(map[uint32]*SpellDefinition, len(f.Spells))}
	for i := range f.Spells {
		s := &f.Spells[i]
		t.defs[s.SpellID] = s
	}
	return t, nil
}

func (t *SpellTable) Get(id uint32) *SpellDefinition { return t.defs[id] }
func (t *SpellTable) Count() int                      { return len(t.defs) }

// NewSpellTable builds a table directly from definitions, for callers that
// assemble spells outside of the YAML loader (tests, scripted content).
func NewSpellTable(defs []SpellDefinition) *SpellTable {
	t := &SpellTable{defs: make(map[uint32]*SpellDefinition, len(defs))}
	for i := range defs {
		t.defs[defs[i].SpellID] = &defs[i]
	}
	return t
}
