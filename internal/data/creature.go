// Package data loads the engine's static tables (creature templates, loot
// tables, buff and spell definitions) from YAML files.
package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Disposition is a creature template's AI stance.
type Disposition string

const (
	DispositionPassive    Disposition = "passive"
	DispositionAggressive Disposition = "aggressive"
	DispositionDefensive  Disposition = "defensive"
)

// FactionCategory groups creature templates and players for aggro
// filtering.
type FactionCategory string

const (
	FactionHostile  FactionCategory = "hostile"
	FactionNeutral  FactionCategory = "neutral"
	FactionFriendly FactionCategory = "friendly"
)

// CreatureTemplate is the immutable static definition of a creature type.
type CreatureTemplate struct {
	TemplateID       uint32          `yaml:"template_id"`
	Name             string          `yaml:"name"`
	Level            int16           `yaml:"level"`
	MaxHealth        int32           `yaml:"max_health"`
	Faction          FactionCategory `yaml:"faction"`
	DisplayID        uint32          `yaml:"display_id"`
	Disposition      Disposition     `yaml:"disposition"`
	AggroRange       float64         `yaml:"aggro_range"`
	LeashRange       float64         `yaml:"leash_range"`
	SocialAggroRange float64         `yaml:"social_aggro_range"` // default 10
	RespawnDelayMS   int64           `yaml:"respawn_delay_ms"`
	XPReward         int64           `yaml:"xp_reward"`
	LootTableID      uint32          `yaml:"loot_table_id"`
	DamageMin        int32           `yaml:"damage_min"`
	DamageMax        int32           `yaml:"damage_max"`
	AttackSpeedMS    int64           `yaml:"attack_speed_ms"`
	AttackRange      float64         `yaml:"attack_range"` // default 5 melee
	IsRanged         bool            `yaml:"is_ranged"`
	MoveSpeed        float64         `yaml:"move_speed"`
	ReputationReward int32           `yaml:"reputation_reward"`
}

// EffectiveSocialAggroRange applies the spec's documented default when a
// template omits it.
func (t *CreatureTemplate) EffectiveSocialAggroRange() float64 {
	if t.SocialAggroRange > 0 {
		return t.SocialAggroRange
	}
	return 10
}

// EffectiveAttackRange applies the melee default of 5 when a template
// omits it.
func (t *CreatureTemplate) EffectiveAttackRange() float64 {
	if t.AttackRange > 0 {
		return t.AttackRange
	}
	return 5
}

type creatureListFile struct {
	Templates []CreatureTemplate `yaml:"templates"`
}

// CreatureTable holds all loaded creature templates indexed by TemplateID.
type CreatureTable struct {
	templates map[uint32]*CreatureTemplate
}

// LoadCreatureTable reads creature templates from a YAML file.
func LoadCreatureTable(path string) (*CreatureTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read creature table: %w", err)
	}
	var f creatureListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse creature table: %w", err)
	}
	t := &CreatureTable{templates: make(map[uint32]*CreatureTemplate, len(f.Templates))}
	for i := range f.Templates {
		tpl := &f.Templates[i]
		t.templates[tpl.TemplateID] = tpl
	}
	return t, nil
}

// Get returns a creature template by id, or nil if not found.
func (t *CreatureTable) Get(templateID uint32) *CreatureTemplate {
	return t.templates[templateID]
}

func (t *CreatureTable) Count() int { return len(t.templates) }

// NewCreatureTable builds a table directly from templates, for callers
// that assemble creatures outside of the YAML loader (tests, spawners).
func NewCreatureTable(templates []CreatureTemplate) *CreatureTable {
	t := &CreatureTable{templates: make(map[uint32]*CreatureTemplate, len(templates))}
	for i := range templates {
		t.templates[templates[i].TemplateID] = &templates[i]
	}
	return t
}
