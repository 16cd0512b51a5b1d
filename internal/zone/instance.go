// Package zone implements the per-zone simulation instance: its entity
// table, spatial grid, and the per-tick drive of the AI state machine
// into spell/buff/death resolution (spec §4's "data flow per tick").
package zone

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wildforge/zonecore/internal/ai"
	"github.com/wildforge/zonecore/internal/buff"
	"github.com/wildforge/zonecore/internal/config"
	"github.com/wildforge/zonecore/internal/corpse"
	"github.com/wildforge/zonecore/internal/core/event"
	"github.com/wildforge/zonecore/internal/data"
	"github.com/wildforge/zonecore/internal/death"
	"github.com/wildforge/zonecore/internal/errs"
	"github.com/wildforge/zonecore/internal/geometry"
	"github.com/wildforge/zonecore/internal/guid"
	"github.com/wildforge/zonecore/internal/persist"
	"github.com/wildforge/zonecore/internal/scripting"
	"github.com/wildforge/zonecore/internal/spatial"
	"github.com/wildforge/zonecore/internal/spell"
	"github.com/wildforge/zonecore/internal/telegraph"
	"github.com/wildforge/zonecore/internal/telemetry"
)

// entityHitRadius is the capsule radius used for telegraph hit-testing
// when an entity has no per-template collision size of its own.
const entityHitRadius = 1.0

// Key identifies one zone instance within the process registry.
type Key struct {
	WorldID    uint32
	InstanceID uint32
}

type scheduledRespawn struct {
	entityID       guid.ID
	atMS           int64
	position       geometry.Vector
	healthFraction float64 // 1.0 = full; level-scaled for players
	isCreature     bool
}

// Instance is one live (world_id, instance_id) simulation. It owns every
// entity, the spatial grid, and the resolvers that act on them; nothing
// outside the instance mutates its state directly (spec §5's
// single-worker-per-zone concurrency model — the caller is expected to
// drive Tick from that zone's own goroutine only).
type Instance struct {
	Key Key

	mu        sync.Mutex
	entities  map[guid.ID]*Entity
	corpses   map[guid.ID]*corpse.Corpse
	grid      *spatial.Grid
	respawns  []scheduledRespawn

	playerCount      int
	hasPlayerLeft    bool // distinguishes "departed at t=0" from "never had a player"
	lastPlayerLeftMS int64

	cfg       config.ZoneConfig
	templates *data.CreatureTable
	buffDefs  *data.BuffTable
	buffs     *buff.Engine
	resolver  *spell.Resolver
	deaths    *death.Manager
	engine    *scripting.Engine
	guids     *guid.Registry
	bus       *event.Bus
	log       *zap.Logger
	metrics   *telemetry.Metrics
	wal       *persist.WALRepo
}

// SetMetrics attaches a telemetry sink; nil (the default) disables
// instrumentation entirely, so tests never need to construct a registry.
func (i *Instance) SetMetrics(m *telemetry.Metrics) { i.metrics = m }

// SetWAL attaches the corpse-loot write-ahead log; nil (the default)
// leaves LootCorpse applying directly with no crash-recovery record, so
// tests never need a database.
func (i *Instance) SetWAL(w *persist.WALRepo) { i.wal = w }

// New builds an instance with an empty entity table. Neither New nor the
// registry loads spawn tables: creatures exist only once SpawnCreature is
// called, whatever cfg.LazyLoading says.
func New(key Key, cfg config.ZoneConfig, templates *data.CreatureTable, spells *data.SpellTable, buffDefs *data.BuffTable, scriptEngine *scripting.Engine, guids *guid.Registry, lootTable *data.LootTable, log *zap.Logger) *Instance {
	cellSize := cfg.CellSizeOutdoor
	if cellSize <= 0 {
		cellSize = 50
	}
	inst := &Instance{
		Key:       key,
		entities:  make(map[guid.ID]*Entity),
		corpses:   make(map[guid.ID]*corpse.Corpse),
		grid:      spatial.NewGrid(cellSize),
		cfg:       cfg,
		templates: templates,
		buffDefs:  buffDefs,
		buffs:     buff.NewEngine(),
		deaths:    death.NewManager(lootTable, scriptEngine, guids, rand.New(rand.NewSource(1)), cfg.CorpseDespawn.Milliseconds(), cfg.RespawnGracePeriod.Milliseconds()),
		engine:    scriptEngine,
		guids:     guids,
		bus:       event.NewBus(),
		log:       log,
	}
	inst.resolver = spell.NewResolver(spells, buffDefs, scriptEngine, inst.areaQuery, inst.lookupActor)
	return inst
}

// areaQuery backs spell.AreaQueryFunc: it pre-filters the spatial grid to
// live entities within radius of origin, each boxed with a hit-test
// capsule radius.
func (i *Instance) areaQuery(origin geometry.Vector, radius float64) []telegraph.Candidate {
	ids := i.grid.QueryRange(origin, radius)
	i.mu.Lock()
	defer i.mu.Unlock()
	out := make([]telegraph.Candidate, 0, len(ids))
	for _, id := range ids {
		e, ok := i.entities[id]
		if !ok || !e.IsAlive() {
			continue
		}
		out = append(out, telegraph.Candidate{ID: id, Position: e.position, HitRadius: entityHitRadius})
	}
	return out
}

// lookupActor backs spell.ActorLookupFunc.
func (i *Instance) lookupActor(id guid.ID) spell.Actor {
	e, ok := i.Entity(id)
	if !ok {
		return nil
	}
	return e
}

// Bus exposes the instance's event bus for broadcaster subscription.
func (i *Instance) Bus() *event.Bus { return i.bus }

// SpawnCreature materializes a creature from its template at pos and
// indexes it in the spatial grid.
func (i *Instance) SpawnCreature(templateID uint32, pos geometry.Vector) (*Entity, error) {
	tpl := i.templates.Get(templateID)
	if tpl == nil {
		return nil, errs.New("zone.SpawnCreature", errs.TemplateNotFound)
	}
	id := i.guids.Next(guid.KindCreature)
	e := NewCreature(id, tpl, pos)

	i.mu.Lock()
	i.entities[id] = e
	i.mu.Unlock()
	i.grid.Insert(id, pos)
	return e, nil
}

// AddPlayer registers a player entity and cancels any pending
// idle-shutdown timer (the registry owns the timer itself; this just
// tracks the live count used to arm/disarm it).
func (i *Instance) AddPlayer(e *Entity) {
	i.mu.Lock()
	i.entities[e.id] = e
	i.playerCount++
	i.hasPlayerLeft = false
	i.mu.Unlock()
	i.grid.Insert(e.id, e.position)
}

// RemovePlayer drops a player entity and, if this was the last one,
// records the departure time for the registry's idle-shutdown timer.
func (i *Instance) RemovePlayer(id guid.ID, nowMS int64) {
	i.mu.Lock()
	delete(i.entities, id)
	i.playerCount--
	if i.playerCount <= 0 {
		i.hasPlayerLeft = true
		i.lastPlayerLeftMS = nowMS
	}
	i.mu.Unlock()
	i.grid.Remove(id)
}

// PlayerCount reports the number of live players, for the registry's
// idle-shutdown check.
func (i *Instance) PlayerCount() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.playerCount
}

// Entity looks up a live entity by id.
func (i *Instance) Entity(id guid.ID) (*Entity, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	e, ok := i.entities[id]
	return e, ok
}

// Tick drives one heartbeat: AI decisions for every creature, periodic
// buff ticks, due respawns, and corpse expiry. Called from the zone's own
// worker only (spec §5).
func (i *Instance) Tick(nowMS int64) {
	i.bus.SwapBuffers()

	i.timedPhase("ai", func() { i.tickCreatureAI(nowMS) })
	i.timedPhase("buffs", func() { i.tickBuffs(nowMS) })
	i.timedPhase("respawns", func() { i.tickRespawns(nowMS) })
	i.timedPhase("corpses", func() { i.tickCorpses(nowMS) })

	i.bus.DispatchAll()
}

func (i *Instance) timedPhase(name string, fn func()) {
	if i.metrics == nil {
		fn()
		return
	}
	start := time.Now()
	fn()
	i.metrics.ObservePhase(name, time.Since(start))
}

func (i *Instance) tickCreatureAI(nowMS int64) {
	i.mu.Lock()
	creatures := make([]*Entity, 0, len(i.entities))
	for _, e := range i.entities {
		if e.kind == EntityCreature && e.AI != nil {
			creatures = append(creatures, e)
		}
	}
	i.mu.Unlock()

	for _, c := range creatures {
		if c.AI.Kind == ai.Dead {
			continue
		}
		prevKind := c.AI.Kind
		ctx := i.buildAIContext(c, nowMS)
		out := ai.Tick(c.AI, ctx)
		i.commitAIOutput(c, out, nowMS)
		if prevKind != ai.Combat && c.AI.Kind == ai.Combat {
			i.triggerSocialAggro(c, c.AI.TargetID, nowMS)
		}
	}
}

// triggerSocialAggro pulls idle same-faction-category creatures within
// engager's social aggro range into combat against attacker (spec §4.2's
// social aggro rule). Already-in-combat creatures are skipped by
// ShouldJoinSocialAggro, which never overrides an existing target.
func (i *Instance) triggerSocialAggro(engager *Entity, attacker guid.ID, nowMS int64) {
	if engager.template == nil {
		return
	}
	radius := engager.template.EffectiveSocialAggroRange()
	nearby := i.grid.QueryRange(engager.position, radius)
	for _, id := range nearby {
		if id == engager.id {
			continue
		}
		other, ok := i.Entity(id)
		if !ok || other.kind != EntityCreature || other.AI == nil || !other.IsAlive() {
			continue
		}
		candidate := ai.SocialCandidate{Faction: other.template.Faction, State: other.AI}
		if !ai.ShouldJoinSocialAggro(engager.template.Faction, candidate) {
			continue
		}
		ai.EnterCombat(other.AI, attacker, 0)
		other.AI.CombatStartedMS = nowMS
	}
}

// enterCombatWithSocialAggro transitions creature into combat against
// attacker (or reinforces an existing engagement) and, on a fresh
// engagement, cascades to nearby idle same-faction allies.
func (i *Instance) enterCombatWithSocialAggro(creature *Entity, attacker guid.ID, damageThreat int64, nowMS int64) {
	if creature.AI == nil {
		return
	}
	wasIdle := creature.AI.Kind != ai.Combat
	ai.EnterCombat(creature.AI, attacker, damageThreat)
	if wasIdle {
		creature.AI.CombatStartedMS = nowMS
		i.triggerSocialAggro(creature, attacker, nowMS)
	}
}

func (i *Instance) buildAIContext(c *Entity, nowMS int64) ai.Context {
	ctx := ai.Context{
		Self:          c.position,
		SpawnPosition: c.spawnPosition,
		Template:      c.template,
		NowMS:         nowMS,
		WanderChance:  i.engine.WanderChance(i.cfg.WanderChance),
	}

	if c.AI.Kind == ai.Idle && ai.IsValidAggroCandidate(c.template.Faction) {
		nearby := i.grid.QueryRange(c.position, c.template.AggroRange)
		for _, id := range nearby {
			if id == c.id {
				continue
			}
			other, ok := i.Entity(id)
			if !ok || other.kind != EntityPlayer || !other.IsAlive() {
				continue
			}
			ctx.NearbyHostiles = append(ctx.NearbyHostiles, ai.Candidate{ID: id, Position: other.position})
		}
	}

	if c.AI.Kind == ai.Combat && !c.AI.TargetID.IsZero() {
		target, ok := i.Entity(c.AI.TargetID)
		if !ok || !target.IsAlive() {
			ctx.TargetDead = true
		} else {
			pos := target.position
			ctx.TargetPosition = &pos
		}
	}
	return ctx
}

func (i *Instance) commitAIOutput(c *Entity, out ai.Output, nowMS int64) {
	switch out.Kind {
	case ai.StartWander, ai.StartChase, ai.StartPatrol:
		i.moveEntity(c, out.Position)
		event.Emit(i.bus, event.EntityMoved{Entity: c.id, X: out.Position.X, Y: out.Position.Y, Z: out.Position.Z, RotZ: c.rotationZ})
	case ai.PatrolSegmentComplete:
		i.moveEntity(c, out.Position)
	case ai.ChaseComplete:
		if c.AI.Kind == ai.Idle {
			c.Revive()
			i.grid.Update(c.id, c.position)
		}
	case ai.Attack:
		i.resolveAutoAttack(c, out.TargetID, nowMS)
	}
}

func (i *Instance) moveEntity(e *Entity, pos geometry.Vector) {
	e.SetPosition(pos, e.rotationZ)
	i.grid.Update(e.id, pos)
}

// autoAttackSpellID is the spell id carried by the SpellEffect events of a
// creature's basic melee/ranged strike. resolveAutoAttack does not go
// through the spell resolver: it rolls the template's damage range, applies
// crit and absorb, and applies no armor/resist mitigation; the only gating
// is the template's attack speed, already checked by the AI tick.
// DamageEntity and CompleteCast also emit SpellEffect with spell id 0, so
// the id alone does not identify an auto-attack.
const autoAttackSpellID = 0

func (i *Instance) resolveAutoAttack(attacker *Entity, targetID guid.ID, nowMS int64) {
	target, ok := i.Entity(targetID)
	if !ok || !target.IsAlive() {
		return
	}
	dmg := attacker.template.DamageMin
	if attacker.template.DamageMax > attacker.template.DamageMin {
		dmg += int32(rand.Intn(int(attacker.template.DamageMax - attacker.template.DamageMin + 1)))
	}
	crit := i.engine.RollCrit(attacker.critChance)
	amount := float64(dmg)
	if crit {
		amount *= i.engine.CritMultiplier()
	}
	absorbed, remaining := i.buffs.ConsumeAbsorb(target.buffs, int64(amount), nowMS)
	_ = absorbed
	died := target.ApplyDamage(remaining)
	event.Emit(i.bus, event.SpellEffect{Caster: attacker.id, Target: target.id, SpellID: autoAttackSpellID, Kind: "damage", Amount: remaining})
	i.bumpCombat("damage")

	if died {
		i.handleCreatureOrPlayerDeath(target, attacker, nowMS)
	} else {
		i.enterCombatWithSocialAggro(target, attacker.id, remaining, nowMS)
	}
}

// CastSpell runs a player (or creature) cast through the spell resolver's
// five-step validation pipeline, applying resulting effects to the
// targeted entity and broadcasting them.
func (i *Instance) CastSpell(casterID guid.ID, spellID uint32, targetID guid.ID, position *geometry.Vector, nowMS int64) (spell.Result, error) {
	caster, ok := i.Entity(casterID)
	if !ok {
		return spell.Result{}, errs.New("zone.CastSpell", errs.NotFound)
	}
	var target *Entity
	if !targetID.IsZero() {
		target, _ = i.Entity(targetID)
	}

	result, err := i.resolver.CastSpell(caster, spellID, entityActorOrNil(target), position, nowMS)
	if err != nil {
		return spell.Result{}, err
	}
	i.broadcastCastEffects(casterID, spellID, result, nowMS)
	return result, nil
}

// CompleteCast finishes a pending cast-in-progress once its cast time has
// elapsed, broadcasting the resulting effects.
func (i *Instance) CompleteCast(casterID guid.ID, nowMS int64) (spell.Result, error) {
	caster, ok := i.Entity(casterID)
	if !ok {
		return spell.Result{}, errs.New("zone.CompleteCast", errs.NotFound)
	}
	result, err := i.resolver.CompleteCast(caster, nowMS)
	if err != nil {
		return spell.Result{}, err
	}
	i.broadcastCastEffects(casterID, 0, result, nowMS)
	return result, nil
}

func (i *Instance) broadcastCastEffects(casterID guid.ID, spellID uint32, result spell.Result, nowMS int64) {
	for _, eff := range result.Effects {
		event.Emit(i.bus, event.SpellEffect{Caster: casterID, Target: eff.Target, SpellID: spellID, Kind: string(eff.Kind), Amount: eff.Amount})
		i.bumpCombat(string(eff.Kind))
		if eff.Killed {
			victim, victimOK := i.Entity(eff.Target)
			killer, killerOK := i.Entity(casterID)
			if victimOK && killerOK {
				i.handleCreatureOrPlayerDeath(victim, killer, nowMS)
			}
		}
	}
}

// DamageResult is what DamageEntity reports back to the caller.
type DamageResult struct {
	Remaining int64
	Killed    bool
}

// DamageEntity applies direct damage to an entity (spec §6's damage_entity
// command), sharing the cast pipeline's mitigation/absorb math and the
// same combat-entry/social-aggro wiring auto-attacks use.
func (i *Instance) DamageEntity(targetID, attackerID guid.ID, amount int64, school data.School, nowMS int64) (DamageResult, error) {
	const op = "zone.DamageEntity"
	target, ok := i.Entity(targetID)
	if !ok {
		return DamageResult{}, errs.New(op, errs.NotFound)
	}
	if !target.IsAlive() {
		return DamageResult{}, errs.New(op, errs.TargetDead)
	}
	attacker, ok := i.Entity(attackerID)
	if !ok {
		return DamageResult{}, errs.New(op, errs.NotFound)
	}

	mitigated := spell.Mitigate(float64(amount), school, target)
	_, remaining := i.buffs.ConsumeAbsorb(target.buffs, int64(mitigated), nowMS)
	died := target.ApplyDamage(remaining)
	event.Emit(i.bus, event.SpellEffect{Caster: attackerID, Target: targetID, Kind: "damage", Amount: remaining})
	i.bumpCombat("damage")

	if died {
		i.handleCreatureOrPlayerDeath(target, attacker, nowMS)
	} else {
		i.enterCombatWithSocialAggro(target, attackerID, remaining, nowMS)
	}
	return DamageResult{Remaining: target.Health(), Killed: died}, nil
}

// ApplyBuff applies a buff/debuff definition directly to an entity (spec
// §6's apply_buff command), bypassing cast validation; callers that need
// range/resource/cooldown checks go through CastSpell instead.
func (i *Instance) ApplyBuff(targetID guid.ID, buffID uint32, casterID guid.ID, nowMS int64) error {
	const op = "zone.ApplyBuff"
	target, ok := i.Entity(targetID)
	if !ok {
		return errs.New(op, errs.NotFound)
	}
	def := i.buffDefs.Get(buffID)
	if def == nil {
		return errs.New(op, errs.NotFound)
	}
	i.buffs.Apply(target.buffs, def, casterID, nowMS)
	event.Emit(i.bus, event.BuffApplied{Entity: targetID, Caster: casterID, BuffID: buffID})
	i.bumpBuff("applied")
	return nil
}

// QueryRange exposes the spatial grid's range query (spec §6's
// query_range command) to callers outside the instance's own tick.
func (i *Instance) QueryRange(center geometry.Vector, radius float64) []guid.ID {
	return i.grid.QueryRange(center, radius)
}

// EnterCombat forces a creature into combat against attacker (spec §6's
// enter_combat command) — e.g. a scripted pull or an aggro effect that
// doesn't route through damage. Returns invalid_target for an entity with
// no AI (players) and creature_dead for a dead creature.
func (i *Instance) EnterCombat(creatureID, attackerID guid.ID, nowMS int64) error {
	const op = "zone.EnterCombat"
	creature, ok := i.Entity(creatureID)
	if !ok {
		return errs.New(op, errs.NotFound)
	}
	if creature.AI == nil {
		return errs.New(op, errs.InvalidTarget)
	}
	if creature.AI.Kind == ai.Dead {
		return errs.New(op, errs.CreatureDead)
	}
	i.enterCombatWithSocialAggro(creature, attackerID, 0, nowMS)
	return nil
}

// MoveEntity sets an entity's position and facing directly (spec §6's
// move_entity command) and reindexes it in the spatial grid.
func (i *Instance) MoveEntity(id guid.ID, pos geometry.Vector, rotationZ float64) error {
	e, ok := i.Entity(id)
	if !ok {
		return errs.New("zone.MoveEntity", errs.NotFound)
	}
	e.SetPosition(pos, rotationZ)
	i.grid.Update(id, pos)
	event.Emit(i.bus, event.EntityMoved{Entity: id, X: pos.X, Y: pos.Y, Z: pos.Z, RotZ: rotationZ})
	return nil
}

// LootCorpse lets looter take one item off a corpse (spec §4.6 step 4),
// writing a crash-safe WAL entry before marking the slot taken: a crash
// between the two can never duplicate or silently drop the item, only
// leave a WAL entry for a loot-take that never completed.
func (i *Instance) LootCorpse(ctx context.Context, corpseID, looterID guid.ID, index int) (data.RolledLoot, error) {
	const op = "zone.LootCorpse"
	i.mu.Lock()
	c, ok := i.corpses[corpseID]
	i.mu.Unlock()
	if !ok {
		return data.RolledLoot{}, errs.New(op, errs.NotFound)
	}
	if !c.CanLoot(looterID) {
		return data.RolledLoot{}, errs.New(op, errs.InvalidTarget)
	}
	if index < 0 || index >= len(c.Loot) {
		return data.RolledLoot{}, errs.New(op, errs.NotFound)
	}

	if i.wal != nil {
		entry := persist.CorpseLootWALEntry{
			CorpseID: uint64(corpseID),
			LooterID: uint64(looterID),
			ItemID:   c.Loot[index].ItemID,
			Qty:      c.Loot[index].Qty,
		}
		if err := i.wal.WriteWAL(ctx, []persist.CorpseLootWALEntry{entry}); err != nil {
			return data.RolledLoot{}, fmt.Errorf("%s: write wal: %w", op, err)
		}
	}

	loot, err := c.Take(looterID, index)
	if err != nil {
		return data.RolledLoot{}, err
	}
	event.Emit(i.bus, event.CorpseLootTaken{Corpse: corpseID, Looter: looterID, ItemID: loot.ItemID, Qty: loot.Qty})
	return loot, nil
}

// entityActorOrNil returns e as a spell.Actor, or a true nil interface
// value if e is nil — a *Entity nil pointer boxed into spell.Actor would
// be a non-nil interface that panics on any method call.
func entityActorOrNil(e *Entity) spell.Actor {
	if e == nil {
		return nil
	}
	return e
}

func (i *Instance) bumpCombat(kind string) {
	if i.metrics != nil {
		i.metrics.CombatEvents.WithLabelValues(kind).Inc()
	}
}

func (i *Instance) bumpBuff(kind string) {
	if i.metrics != nil {
		i.metrics.BuffEvents.WithLabelValues(kind).Inc()
	}
}

func (i *Instance) handleCreatureOrPlayerDeath(victim, killer *Entity, nowMS int64) {
	event.Emit(i.bus, event.EntityDeath{Entity: victim.id, Killer: killer.id})
	i.bumpCombat("death")

	if victim.kind != EntityCreature {
		i.handlePlayerDeath(victim, nowMS)
		return
	}

	result := i.deaths.HandleCreatureDeath(death.CreatureDeathInput{Victim: victim, Killer: killer, NowMS: nowMS})
	ai.Kill(victim.AI)
	i.grid.Remove(victim.id)

	i.mu.Lock()
	i.corpses[result.Corpse.ID] = result.Corpse
	i.respawns = append(i.respawns, scheduledRespawn{
		entityID:       victim.id,
		atMS:           result.RespawnAtMS,
		position:       victim.spawnPosition,
		healthFraction: 1,
		isCreature:     true,
	})
	i.mu.Unlock()

	event.Emit(i.bus, event.XPGain{Entity: killer.id, Amount: result.XP})
	lootIDs := make([]uint32, 0, len(result.Loot))
	for _, l := range result.Loot {
		lootIDs = append(lootIDs, l.ItemID)
	}
	event.Emit(i.bus, event.KillRewards{Killer: killer.id, Victim: victim.id, XP: result.XP, LootIDs: lootIDs})
	event.Emit(i.bus, event.CorpseSpawn{Corpse: result.Corpse.ID, Source: victim.id, X: victim.position.X, Y: victim.position.Y, Z: victim.position.Z})
}

// handlePlayerDeath schedules a grace-period respawn at the player's
// bindpoint, at a level-scaled health fraction (spec §4.6). Durability
// penalty is computed by death.Manager but intentionally left unapplied
// here: the item/inventory/durability system is an external collaborator
// per the spec's out-of-scope boundary (no persistent item store exists
// in this repo for the penalty to act on). A future inventory service
// would be the wiring point, consuming PlayerDeathResult.DurabilityPenalty
// off this same path.
func (i *Instance) handlePlayerDeath(victim *Entity, nowMS int64) {
	result := i.deaths.HandlePlayerDeath(death.PlayerDeathInput{
		Level:        victim.level,
		BindPosition: victim.bindPosition,
		NowMS:        nowMS,
	})
	i.grid.Remove(victim.id)
	i.mu.Lock()
	i.respawns = append(i.respawns, scheduledRespawn{
		entityID:       victim.id,
		atMS:           result.RespawnAtMS,
		position:       result.RespawnPosition,
		healthFraction: result.RespawnHealthFraction,
		isCreature:     false,
	})
	i.mu.Unlock()
}

func (i *Instance) tickBuffs(nowMS int64) {
	i.mu.Lock()
	entities := make([]*Entity, 0, len(i.entities))
	for _, e := range i.entities {
		entities = append(entities, e)
	}
	i.mu.Unlock()

	for _, e := range entities {
		for _, removed := range i.buffs.Cleanup(e.buffs, nowMS) {
			event.Emit(i.bus, event.BuffRemoved{Entity: e.id, BuffID: removed})
			i.bumpBuff("removed")
		}
		for _, fired := range i.buffs.Tick(e.buffs, nowMS) {
			if fired.Amount >= 0 {
				e.ApplyHeal(fired.Amount)
			} else {
				e.ApplyDamage(-fired.Amount)
			}
			event.Emit(i.bus, event.BuffTick{Entity: e.id, BuffID: fired.BuffID, Amount: fired.Amount})
			i.bumpBuff("tick")
		}
	}
}

func (i *Instance) tickRespawns(nowMS int64) {
	i.mu.Lock()
	var due []scheduledRespawn
	remaining := i.respawns[:0]
	for _, r := range i.respawns {
		if nowMS >= r.atMS {
			due = append(due, r)
		} else {
			remaining = append(remaining, r)
		}
	}
	i.respawns = remaining
	i.mu.Unlock()

	for _, r := range due {
		e, ok := i.Entity(r.entityID)
		if !ok {
			continue
		}
		e.ReviveAt(r.position, r.healthFraction)
		if r.isCreature {
			ai.Revive(e.AI)
		}
		i.grid.Insert(e.id, e.position)
	}
}

func (i *Instance) tickCorpses(nowMS int64) {
	i.mu.Lock()
	defer i.mu.Unlock()
	for id, c := range i.corpses {
		if c.Expired(nowMS) {
			delete(i.corpses, id)
		}
	}
}
