package spell

import (
	"sync"

	"github.com/wildforge/zonecore/internal/buff"
	"github.com/wildforge/zonecore/internal/data"
	"github.com/wildforge/zonecore/internal/errs"
	"github.com/wildforge/zonecore/internal/geometry"
	"github.com/wildforge/zonecore/internal/guid"
	"github.com/wildforge/zonecore/internal/scripting"
	"github.com/wildforge/zonecore/internal/telegraph"
)

// AreaQueryFunc finds candidate entities within radius of origin, for a
// ground/AOE spell's telegraph pre-filter. The zone instance supplies this
// since it alone owns the spatial grid.
type AreaQueryFunc func(origin geometry.Vector, radius float64) []telegraph.Candidate

// ActorLookupFunc resolves a candidate id found by AreaQueryFunc back into
// an Actor, or nil if it no longer exists.
type ActorLookupFunc func(id guid.ID) Actor

// ResultKind tags how a cast resolved.
type ResultKind int

const (
	ResultInstant ResultKind = iota
	ResultCastStarted
)

// EffectResult is the outcome of applying one spell effect.
type EffectResult struct {
	Kind   data.EffectKind
	Target guid.ID
	Amount int64
	Crit   bool
	Killed bool
	BuffID uint32
}

// Result is what CastSpell returns on success.
type Result struct {
	Kind    ResultKind
	Effects []EffectResult
	EndAtMS int64
}

type castState struct {
	spellID    uint32
	casterPos  geometry.Vector
	targetID   guid.ID
	target     Actor
	position   *geometry.Vector
	endAtMS    int64
	interrupts map[string]struct{}
}

// Resolver validates and executes spell casts for one zone instance.
// Cooldowns and cast-in-progress state are keyed by caster id.
type Resolver struct {
	spells *data.SpellTable
	buffs  *data.BuffTable
	engine *scripting.Engine
	be     *buff.Engine

	areaQuery AreaQueryFunc
	lookup    ActorLookupFunc

	mu        sync.Mutex
	cooldowns map[guid.ID]map[uint32]int64
	gcdReady  map[guid.ID]int64
	casting   map[guid.ID]*castState
}

// NewResolver builds a Resolver over the zone's static spell/buff tables.
// areaQuery and lookup back ground/AOE telegraph resolution; either may be
// nil, in which case ground/AOE spells resolve to zero hits instead of
// panicking (e.g. in tests that only exercise single-target casts).
func NewResolver(spells *data.SpellTable, buffs *data.BuffTable, engine *scripting.Engine, areaQuery AreaQueryFunc, lookup ActorLookupFunc) *Resolver {
	return &Resolver{
		spells:    spells,
		buffs:     buffs,
		engine:    engine,
		be:        buff.NewEngine(),
		areaQuery: areaQuery,
		lookup:    lookup,
		cooldowns: make(map[guid.ID]map[uint32]int64),
		gcdReady:  make(map[guid.ID]int64),
		casting:   make(map[guid.ID]*castState),
	}
}

const gcdMS = 1500

// CastSpell runs the five-step validation pipeline and, on success, either
// resolves instantly or starts a cast-in-progress tracked until
// CompleteCast or Interrupt is called.
func (r *Resolver) CastSpell(caster Actor, spellID uint32, target Actor, position *geometry.Vector, nowMS int64) (Result, error) {
	const op = "spell.CastSpell"

	def := r.spells.Get(spellID)
	if def == nil {
		return Result{}, errs.New(op, errs.UnknownSpell)
	}
	if !caster.IsAlive() {
		return Result{}, errs.New(op, errs.CasterDead)
	}

	r.mu.Lock()
	if _, busy := r.casting[caster.ID()]; busy {
		r.mu.Unlock()
		return Result{}, errs.New(op, errs.Busy)
	}
	r.mu.Unlock()

	if err := r.validateTarget(def, caster, target, position); err != nil {
		return Result{}, err
	}
	if def.ResourceType != "" && def.ResourceCost > caster.Resource(def.ResourceType) {
		return Result{}, errs.New(op, errs.InsufficientResource)
	}
	if err := r.checkCooldown(caster.ID(), def, nowMS); err != nil {
		return Result{}, err
	}

	if def.CastTimeMS == 0 {
		caster.SpendResource(def.ResourceType, def.ResourceCost)
		r.setCooldown(caster.ID(), def, nowMS)
		effects := r.applyEffects(caster, def, target, position, nowMS)
		return Result{Kind: ResultInstant, Effects: effects}, nil
	}

	interrupts := make(map[string]struct{}, len(def.InterruptFlags))
	for _, f := range def.InterruptFlags {
		interrupts[f] = struct{}{}
	}
	endAt := nowMS + def.CastTimeMS
	var targetID guid.ID
	if target != nil {
		targetID = target.ID()
	}
	r.mu.Lock()
	r.casting[caster.ID()] = &castState{
		spellID:    spellID,
		casterPos:  caster.Position(),
		targetID:   targetID,
		target:     target,
		position:   position,
		endAtMS:    endAt,
		interrupts: interrupts,
	}
	r.mu.Unlock()
	return Result{Kind: ResultCastStarted, EndAtMS: endAt}, nil
}

// CompleteCast finishes a pending cast-in-progress once nowMS reaches its
// end time. Returns an errs.NotFound error if nothing is pending, and an
// errs.Busy error, leaving the cast pending, if nowMS is before its end time.
func (r *Resolver) CompleteCast(caster Actor, nowMS int64) (Result, error) {
	r.mu.Lock()
	cs, ok := r.casting[caster.ID()]
	if ok && nowMS < cs.endAtMS {
		r.mu.Unlock()
		return Result{}, errs.New("spell.CompleteCast", errs.Busy)
	}
	if ok {
		delete(r.casting, caster.ID())
	}
	r.mu.Unlock()
	if !ok {
		return Result{}, errs.New("spell.CompleteCast", errs.NotFound)
	}
	def := r.spells.Get(cs.spellID)
	caster.SpendResource(def.ResourceType, def.ResourceCost)
	r.setCooldown(caster.ID(), def, nowMS)
	effects := r.applyEffects(caster, def, cs.target, cs.position, nowMS)
	return Result{Kind: ResultInstant, Effects: effects}, nil
}

// Interrupt cancels a caster's pending cast if flag matches one of the
// spell's interrupt_flags, or unconditionally if flag is empty (caster
// death).
func (r *Resolver) Interrupt(casterID guid.ID, flag string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	cs, ok := r.casting[casterID]
	if !ok {
		return false
	}
	if flag != "" {
		if _, matches := cs.interrupts[flag]; !matches {
			return false
		}
	}
	delete(r.casting, casterID)
	return true
}

func (r *Resolver) validateTarget(def *data.SpellDefinition, caster, target Actor, position *geometry.Vector) error {
	const op = "spell.validateTarget"
	switch def.TargetType {
	case data.TargetSelf:
		return nil
	case data.TargetGround, data.TargetAOE:
		if position == nil {
			return errs.New(op, errs.InvalidTarget)
		}
		if def.Range > 0 && geometry.Dist2D(caster.Position(), *position) > def.Range {
			return errs.New(op, errs.OutOfRange)
		}
		return nil
	case data.TargetEnemy, data.TargetAlly:
		if target == nil {
			return errs.New(op, errs.InvalidTarget)
		}
		if !target.IsAlive() {
			return errs.New(op, errs.TargetDead)
		}
		if def.Range > 0 && geometry.Dist2D(caster.Position(), target.Position()) > def.Range {
			return errs.New(op, errs.OutOfRange)
		}
		return nil
	default:
		return errs.New(op, errs.InvalidTarget)
	}
}

func (r *Resolver) checkCooldown(casterID guid.ID, def *data.SpellDefinition, nowMS int64) error {
	const op = "spell.checkCooldown"
	r.mu.Lock()
	defer r.mu.Unlock()
	if readyAt, ok := r.cooldowns[casterID][def.SpellID]; ok && nowMS < readyAt {
		return errs.New(op, errs.OnCooldown)
	}
	if def.TriggersGCD {
		if readyAt, ok := r.gcdReady[casterID]; ok && nowMS < readyAt {
			return errs.New(op, errs.OnCooldown)
		}
	}
	return nil
}

func (r *Resolver) setCooldown(casterID guid.ID, def *data.SpellDefinition, nowMS int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if def.CooldownMS > 0 {
		if r.cooldowns[casterID] == nil {
			r.cooldowns[casterID] = make(map[uint32]int64)
		}
		r.cooldowns[casterID][def.SpellID] = nowMS + def.CooldownMS
	}
	if def.TriggersGCD {
		r.gcdReady[casterID] = nowMS + gcdMS
	}
}

func (r *Resolver) applyEffects(caster Actor, def *data.SpellDefinition, target Actor, position *geometry.Vector, nowMS int64) []EffectResult {
	if def.TargetType == data.TargetGround || def.TargetType == data.TargetAOE {
		return r.applyAreaEffects(caster, def, position, nowMS)
	}
	out := make([]EffectResult, 0, len(def.Effects))
	for _, eff := range def.Effects {
		out = append(out, r.applyEffect(caster, eff, target, nowMS))
	}
	return out
}

// applyAreaEffects resolves a ground/AOE spell's telegraph footprint
// against the zone's spatial grid and applies every effect to every hit
// candidate. Returns nil (no hits) if the spell carries no telegraph
// shape or the resolver wasn't wired to a grid (e.g. in unit tests that
// never cast ground/AOE spells).
func (r *Resolver) applyAreaEffects(caster Actor, def *data.SpellDefinition, position *geometry.Vector, nowMS int64) []EffectResult {
	if def.Telegraph == nil || position == nil || r.areaQuery == nil || r.lookup == nil {
		return nil
	}
	shape := telegraphDefFrom(*def.Telegraph)
	origin := *position
	candidates := r.areaQuery(origin, shape.SearchRadius())
	hitIDs := telegraph.Resolve(shape, origin, caster.RotationZ(), candidates)

	out := make([]EffectResult, 0, len(hitIDs)*len(def.Effects))
	for _, id := range hitIDs {
		target := r.lookup(id)
		if target == nil || !target.IsAlive() {
			continue
		}
		for _, eff := range def.Effects {
			out = append(out, r.applyEffect(caster, eff, target, nowMS))
		}
	}
	return out
}

func telegraphDefFrom(s data.TelegraphShape) telegraph.Definition {
	return telegraph.Definition{
		Kind:     telegraphKindFrom(s.Kind),
		R0:       s.R0,
		R1:       s.R1,
		AngleDeg: s.AngleDeg,
		W:        s.W,
		H:        s.H,
		Len:      s.Len,
	}
}

func telegraphKindFrom(kind string) telegraph.Kind {
	switch kind {
	case "ring":
		return telegraph.KindRing
	case "cone":
		return telegraph.KindCone
	case "long_cone":
		return telegraph.KindLongCone
	case "pie":
		return telegraph.KindPie
	case "square":
		return telegraph.KindSquare
	case "rectangle":
		return telegraph.KindRectangle
	default:
		return telegraph.KindCircle
	}
}

func (r *Resolver) applyEffect(caster Actor, def data.SpellEffectDef, target Actor, nowMS int64) EffectResult {
	switch def.Kind {
	case data.EffectDamage:
		return r.applyDamage(caster, def, target, nowMS)
	case data.EffectHeal:
		return r.applyHeal(caster, def, target)
	case data.EffectBuff, data.EffectDebuff, data.EffectDot, data.EffectHot:
		return r.applyBuffEffect(caster, def, target, nowMS)
	default:
		return EffectResult{Kind: def.Kind, Target: target.ID()}
	}
}

func (r *Resolver) applyDamage(caster Actor, def data.SpellEffectDef, target Actor, nowMS int64) EffectResult {
	amount := r.rawAmount(caster, def)
	crit := r.engine.RollCrit(caster.CritChance())
	if crit {
		amount *= r.engine.CritMultiplier()
	}
	amount = Mitigate(amount, def.School, target)

	absorbed := int64(0)
	remaining := int64(amount)
	if target.Buffs() != nil {
		absorbed, remaining = r.be.ConsumeAbsorb(target.Buffs(), int64(amount), nowMS)
	}
	_ = absorbed
	died := target.ApplyDamage(remaining)
	return EffectResult{Kind: data.EffectDamage, Target: target.ID(), Amount: remaining, Crit: crit, Killed: died}
}

func (r *Resolver) applyHeal(caster Actor, def data.SpellEffectDef, target Actor) EffectResult {
	amount := r.rawAmount(caster, def)
	crit := r.engine.RollCrit(caster.CritChance())
	if crit {
		amount *= r.engine.CritMultiplier()
	}
	room := target.MaxHealth() - target.Health()
	clamped := int64(amount)
	if clamped > room {
		clamped = room
	}
	if clamped < 0 {
		clamped = 0
	}
	target.ApplyHeal(clamped)
	return EffectResult{Kind: data.EffectHeal, Target: target.ID(), Amount: clamped, Crit: crit}
}

func (r *Resolver) applyBuffEffect(caster Actor, def data.SpellEffectDef, target Actor, nowMS int64) EffectResult {
	buffDef := r.buffs.Get(def.BuffID)
	if buffDef == nil || target.Buffs() == nil {
		return EffectResult{Kind: def.Kind, Target: target.ID(), BuffID: def.BuffID}
	}
	r.be.Apply(target.Buffs(), buffDef, caster.ID(), nowMS)
	return EffectResult{Kind: def.Kind, Target: target.ID(), BuffID: def.BuffID}
}

func (r *Resolver) rawAmount(caster Actor, def data.SpellEffectDef) float64 {
	scalingVal := 0.0
	if def.ScalingStat != "" {
		scalingVal = caster.StatValue(def.ScalingStat)
	}
	return r.engine.ScaleDamage(def.Base, scalingVal, def.Scaling)
}

// Mitigate applies a target's armor/resist stat for school to amount.
// Exported so zone.Instance's direct damage_entity command can reuse the
// same mitigation math the cast pipeline uses, instead of duplicating it.
func Mitigate(amount float64, school data.School, target Actor) float64 {
	switch school {
	case data.SchoolPhysical:
		return amount * (1 - target.Armor())
	case data.SchoolMagic:
		return amount * (1 - target.MagicResist())
	case data.SchoolTech:
		return amount * (1 - target.TechResist())
	default:
		return amount
	}
}
