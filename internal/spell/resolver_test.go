package spell

import (
	"testing"

	"github.com/wildforge/zonecore/internal/buff"
	"github.com/wildforge/zonecore/internal/data"
	"github.com/wildforge/zonecore/internal/errs"
	"github.com/wildforge/zonecore/internal/geometry"
	"github.com/wildforge/zonecore/internal/guid"
	"github.com/wildforge/zonecore/internal/scripting"
	"github.com/wildforge/zonecore/internal/telegraph"
	"go.uber.org/zap"
)

type fakeActor struct {
	id          guid.ID
	alive       bool
	health      int64
	maxHealth   int64
	resources   map[string]int64
	critChance  float64
	armor       float64
	buffs       *buff.Container
	position    geometry.Vector
	rotationZ   float64
	level       int16
	statValues  map[string]float64
}

func newFakeActor(id guid.ID) *fakeActor {
	return &fakeActor{
		id:        id,
		alive:     true,
		health:    100,
		maxHealth: 100,
		resources: map[string]int64{"mana": 100},
		buffs:     buff.NewContainer(),
	}
}

func (f *fakeActor) ID() guid.ID    { return f.id }
func (f *fakeActor) IsAlive() bool  { return f.alive }
func (f *fakeActor) Health() int64  { return f.health }
func (f *fakeActor) MaxHealth() int64 { return f.maxHealth }
func (f *fakeActor) ApplyDamage(amount int64) bool {
	f.health -= amount
	if f.health <= 0 {
		f.health = 0
		f.alive = false
		return true
	}
	return false
}
func (f *fakeActor) ApplyHeal(amount int64) { f.health += amount }
func (f *fakeActor) Resource(kind string) int64 { return f.resources[kind] }
func (f *fakeActor) SpendResource(kind string, amount int64) { f.resources[kind] -= amount }
func (f *fakeActor) CritChance() float64   { return f.critChance }
func (f *fakeActor) Armor() float64        { return f.armor }
func (f *fakeActor) MagicResist() float64  { return 0 }
func (f *fakeActor) TechResist() float64   { return 0 }
func (f *fakeActor) StatValue(name string) float64 { return f.statValues[name] }
func (f *fakeActor) Buffs() *buff.Container { return f.buffs }
func (f *fakeActor) Position() geometry.Vector { return f.position }
func (f *fakeActor) RotationZ() float64 { return f.rotationZ }
func (f *fakeActor) Level() int16 { return f.level }

func noScriptEngine() *scripting.Engine {
	e, _ := scripting.NewEngine("", zap.NewNop())
	return e
}

func spellTableWith(defs ...data.SpellDefinition) *data.SpellTable {
	return data.NewSpellTable(defs)
}

func TestCastUnknownSpell(t *testing.T) {
	r := NewResolver(spellTableWith(), &data.BuffTable{}, noScriptEngine(), nil, nil)
	caster := newFakeActor(guid.ID(1))
	_, err := r.CastSpell(caster, 999, nil, nil, 0)
	if !errs.Is(err, errs.UnknownSpell) {
		t.Fatalf("expected unknown_spell, got %v", err)
	}
}

func TestCastOutOfRange(t *testing.T) {
	def := data.SpellDefinition{SpellID: 1, TargetType: data.TargetEnemy, Range: 5}
	r := NewResolver(spellTableWith(def), &data.BuffTable{}, noScriptEngine(), nil, nil)
	caster := newFakeActor(guid.ID(1))
	target := newFakeActor(guid.ID(2))
	target.position = geometry.Vector{X: 50}

	_, err := r.CastSpell(caster, 1, target, nil, 0)
	if !errs.Is(err, errs.OutOfRange) {
		t.Fatalf("expected out_of_range, got %v", err)
	}
}

func TestCastInstantDamageResolves(t *testing.T) {
	def := data.SpellDefinition{
		SpellID:    1,
		TargetType: data.TargetEnemy,
		Range:      30,
		Effects:    []data.SpellEffectDef{{Kind: data.EffectDamage, Base: 20, School: data.SchoolPhysical}},
	}
	r := NewResolver(spellTableWith(def), &data.BuffTable{}, noScriptEngine(), nil, nil)
	caster := newFakeActor(guid.ID(1))
	target := newFakeActor(guid.ID(2))

	res, err := r.CastSpell(caster, 1, target, nil, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Kind != ResultInstant {
		t.Fatalf("expected instant resolution, got %v", res.Kind)
	}
	if target.health != 80 {
		t.Fatalf("expected 20 damage applied, health=%d", target.health)
	}
}

func TestCastRespectsCooldown(t *testing.T) {
	def := data.SpellDefinition{
		SpellID:    1,
		TargetType: data.TargetEnemy,
		Range:      30,
		CooldownMS: 5000,
		Effects:    []data.SpellEffectDef{{Kind: data.EffectDamage, Base: 1}},
	}
	r := NewResolver(spellTableWith(def), &data.BuffTable{}, noScriptEngine(), nil, nil)
	caster := newFakeActor(guid.ID(1))
	target := newFakeActor(guid.ID(2))

	if _, err := r.CastSpell(caster, 1, target, nil, 0); err != nil {
		t.Fatalf("first cast should succeed: %v", err)
	}
	_, err := r.CastSpell(caster, 1, target, nil, 1000)
	if !errs.Is(err, errs.OnCooldown) {
		t.Fatalf("expected on_cooldown, got %v", err)
	}
}

func TestCastInsufficientResource(t *testing.T) {
	def := data.SpellDefinition{
		SpellID:      1,
		TargetType:   data.TargetEnemy,
		Range:        30,
		ResourceType: "mana",
		ResourceCost: 500,
	}
	r := NewResolver(spellTableWith(def), &data.BuffTable{}, noScriptEngine(), nil, nil)
	caster := newFakeActor(guid.ID(1))
	target := newFakeActor(guid.ID(2))

	_, err := r.CastSpell(caster, 1, target, nil, 0)
	if !errs.Is(err, errs.InsufficientResource) {
		t.Fatalf("expected insufficient_resource, got %v", err)
	}
}

func TestCastInProgressThenComplete(t *testing.T) {
	def := data.SpellDefinition{
		SpellID:    1,
		TargetType: data.TargetEnemy,
		Range:      30,
		CastTimeMS: 1500,
		Effects:    []data.SpellEffectDef{{Kind: data.EffectDamage, Base: 30}},
	}
	r := NewResolver(spellTableWith(def), &data.BuffTable{}, noScriptEngine(), nil, nil)
	caster := newFakeActor(guid.ID(1))
	target := newFakeActor(guid.ID(2))

	res, err := r.CastSpell(caster, 1, target, nil, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Kind != ResultCastStarted {
		t.Fatalf("expected cast_started, got %v", res.Kind)
	}
	if target.health != 100 {
		t.Fatalf("damage should not apply before cast completes")
	}

	complete, err := r.CompleteCast(caster, res.EndAtMS)
	if err != nil {
		t.Fatalf("unexpected error completing cast: %v", err)
	}
	if target.health != 70 {
		t.Fatalf("expected 30 damage after cast completion, health=%d", target.health)
	}
	_ = complete
}

func TestInterruptCancelsCast(t *testing.T) {
	def := data.SpellDefinition{
		SpellID:        1,
		TargetType:     data.TargetEnemy,
		Range:          30,
		CastTimeMS:     2000,
		InterruptFlags: []string{"stun"},
	}
	r := NewResolver(spellTableWith(def), &data.BuffTable{}, noScriptEngine(), nil, nil)
	caster := newFakeActor(guid.ID(1))
	target := newFakeActor(guid.ID(2))

	if _, err := r.CastSpell(caster, 1, target, nil, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !r.Interrupt(caster.ID(), "stun") {
		t.Fatalf("expected matching interrupt flag to cancel the cast")
	}
	if _, err := r.CompleteCast(caster, 2000); !errs.Is(err, errs.NotFound) {
		t.Fatalf("expected not_found after interrupt, got %v", err)
	}
}

func TestInterruptDoesNotConsumeResourceOrCooldown(t *testing.T) {
	def := data.SpellDefinition{
		SpellID:        1,
		TargetType:     data.TargetEnemy,
		Range:          30,
		CastTimeMS:     2000,
		CooldownMS:     5000,
		ResourceType:   "mana",
		ResourceCost:   40,
		InterruptFlags: []string{"stun"},
	}
	r := NewResolver(spellTableWith(def), &data.BuffTable{}, noScriptEngine(), nil, nil)
	caster := newFakeActor(guid.ID(1))
	target := newFakeActor(guid.ID(2))

	if _, err := r.CastSpell(caster, 1, target, nil, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !r.Interrupt(caster.ID(), "stun") {
		t.Fatalf("expected matching interrupt flag to cancel the cast")
	}
	if caster.resources["mana"] != 100 {
		t.Fatalf("interrupted cast should not spend resource, mana=%d", caster.resources["mana"])
	}
	if _, err := r.CastSpell(caster, 1, target, nil, 100); err != nil {
		t.Fatalf("recast after interrupt should not be on cooldown: %v", err)
	}
}

func TestCastGroundAOEHitsEveryCandidateInRadius(t *testing.T) {
	def := data.SpellDefinition{
		SpellID:    1,
		TargetType: data.TargetAOE,
		Range:      50,
		Telegraph:  &data.TelegraphShape{Kind: "circle", R1: 10},
		Effects:    []data.SpellEffectDef{{Kind: data.EffectDamage, Base: 15, School: data.SchoolPhysical}},
	}

	inRange := newFakeActor(guid.ID(2))
	inRange.position = geometry.Vector{X: 5}
	outOfRange := newFakeActor(guid.ID(3))
	outOfRange.position = geometry.Vector{X: 40}
	dead := newFakeActor(guid.ID(4))
	dead.position = geometry.Vector{X: 2}
	dead.alive = false

	actors := map[guid.ID]*fakeActor{inRange.id: inRange, outOfRange.id: outOfRange, dead.id: dead}
	areaQuery := func(origin geometry.Vector, radius float64) []telegraph.Candidate {
		out := make([]telegraph.Candidate, 0, len(actors))
		for id, a := range actors {
			out = append(out, telegraph.Candidate{ID: id, Position: a.position})
		}
		return out
	}
	lookup := func(id guid.ID) Actor {
		a, ok := actors[id]
		if !ok {
			return nil
		}
		return a
	}

	r := NewResolver(spellTableWith(def), &data.BuffTable{}, noScriptEngine(), areaQuery, lookup)
	caster := newFakeActor(guid.ID(1))
	position := geometry.Vector{X: 0}

	res, err := r.CastSpell(caster, 1, nil, &position, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inRange.health != 85 {
		t.Fatalf("expected in-range candidate to take 15 damage, health=%d", inRange.health)
	}
	if outOfRange.health != 100 {
		t.Fatalf("expected out-of-range candidate untouched, health=%d", outOfRange.health)
	}
	if dead.health != 100 {
		t.Fatalf("expected dead candidate skipped, health=%d", dead.health)
	}
	if len(res.Effects) != 1 {
		t.Fatalf("expected exactly one effect result, got %d", len(res.Effects))
	}
}
