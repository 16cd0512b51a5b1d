package zone

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/wildforge/zonecore/internal/ai"
	"github.com/wildforge/zonecore/internal/config"
	"github.com/wildforge/zonecore/internal/corpse"
	"github.com/wildforge/zonecore/internal/data"
	"github.com/wildforge/zonecore/internal/geometry"
	"github.com/wildforge/zonecore/internal/guid"
	"github.com/wildforge/zonecore/internal/scripting"
)

func newTestInstance(t *testing.T) *Instance {
	t.Helper()
	engine, err := scripting.NewEngine("", zap.NewNop())
	if err != nil {
		t.Fatalf("scripting engine: %v", err)
	}
	templates := data.NewCreatureTable([]data.CreatureTemplate{
		{
			TemplateID:     1,
			Name:           "Training Dummy",
			MaxHealth:      100,
			DamageMin:      0,
			DamageMax:      0,
			RespawnDelayMS: 10_000,
			XPReward:       10,
			Disposition:    data.DispositionPassive,
			AttackSpeedMS:  1000,
			MoveSpeed:      5,
		},
	})
	spells := data.NewSpellTable(nil)
	cfg := config.ZoneConfig{CellSizeOutdoor: 50}
	return New(Key{WorldID: 1, InstanceID: 1}, cfg, templates, spells, &data.BuffTable{}, engine, guid.NewRegistry(), &data.LootTable{}, zap.NewNop())
}

func TestTrainingDummyKillAndRespawn(t *testing.T) {
	inst := newTestInstance(t)

	dummy, err := inst.SpawnCreature(1, geometry.Vector{})
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	attacker := NewPlayer(guid.ID(0x1000000000000001), 10, geometry.Vector{}, 100, nil)
	inst.AddPlayer(attacker)

	result, err := inst.DamageEntity(dummy.ID(), attacker.ID(), 1000, data.SchoolPhysical, 0)
	if err != nil {
		t.Fatalf("damage_entity: %v", err)
	}
	if !result.Killed {
		t.Fatalf("expected 1000 damage to kill a 100 HP dummy")
	}

	if dummy.AI.Kind != ai.Dead {
		t.Fatalf("expected dummy AI to be Dead after the kill, got %v", dummy.AI.Kind)
	}
	if dummy.Health() != 0 {
		t.Fatalf("expected health 0 immediately after death, got %d", dummy.Health())
	}

	inst.tickRespawns(10_000)
	if dummy.AI.Kind != ai.Idle {
		t.Fatalf("expected respawn to return the dummy to Idle, got %v", dummy.AI.Kind)
	}
	if dummy.Health() != dummy.MaxHealth() {
		t.Fatalf("expected full health after respawn, got %d/%d", dummy.Health(), dummy.MaxHealth())
	}
}

func newWolfPackInstance(t *testing.T) *Instance {
	t.Helper()
	engine, err := scripting.NewEngine("", zap.NewNop())
	if err != nil {
		t.Fatalf("scripting engine: %v", err)
	}
	templates := data.NewCreatureTable([]data.CreatureTemplate{
		{
			TemplateID:       2,
			Name:             "Wolf",
			MaxHealth:        50,
			DamageMin:        1,
			DamageMax:        1,
			RespawnDelayMS:   5000,
			XPReward:         5,
			Disposition:      data.DispositionPassive,
			AttackSpeedMS:    1000,
			MoveSpeed:        5,
			Faction:          data.FactionHostile,
			SocialAggroRange: 20,
		},
	})
	spells := data.NewSpellTable(nil)
	cfg := config.ZoneConfig{CellSizeOutdoor: 50}
	return New(Key{WorldID: 1, InstanceID: 3}, cfg, templates, spells, &data.BuffTable{}, engine, guid.NewRegistry(), &data.LootTable{}, zap.NewNop())
}

func TestSocialAggroPullsNearbyAllies(t *testing.T) {
	inst := newWolfPackInstance(t)

	w1, err := inst.SpawnCreature(2, geometry.Vector{X: 0})
	if err != nil {
		t.Fatalf("spawn w1: %v", err)
	}
	w2, err := inst.SpawnCreature(2, geometry.Vector{X: 5})
	if err != nil {
		t.Fatalf("spawn w2: %v", err)
	}
	w3, err := inst.SpawnCreature(2, geometry.Vector{X: 10})
	if err != nil {
		t.Fatalf("spawn w3: %v", err)
	}

	attacker := NewPlayer(guid.ID(0x1000000000000003), 10, geometry.Vector{}, 100, nil)
	inst.AddPlayer(attacker)

	if _, err := inst.DamageEntity(w1.ID(), attacker.ID(), 1, data.SchoolPhysical, 0); err != nil {
		t.Fatalf("damage_entity: %v", err)
	}

	for i, w := range []*Entity{w1, w2, w3} {
		if w.AI.Kind != ai.Combat {
			t.Fatalf("wolf %d: expected Combat after social aggro, got %v", i, w.AI.Kind)
		}
		if w.AI.TargetID != attacker.ID() {
			t.Fatalf("wolf %d: expected target %v, got %v", i, attacker.ID(), w.AI.TargetID)
		}
	}
}

func TestPlayerDeathSchedulesBindpointRespawn(t *testing.T) {
	inst := newTestInstance(t)

	dummy, err := inst.SpawnCreature(1, geometry.Vector{})
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	victim := NewPlayer(guid.ID(0x1000000000000004), 45, geometry.Vector{X: 100}, 100, nil)
	victim.SetBindPosition(geometry.Vector{X: 1})
	inst.AddPlayer(victim)

	victim.ApplyDamage(victim.MaxHealth())
	inst.handleCreatureOrPlayerDeath(victim, dummy, 0)
	if victim.IsAlive() {
		t.Fatalf("expected player to be dead immediately after handleCreatureOrPlayerDeath")
	}

	inst.tickRespawns(inst.cfg.RespawnGracePeriod.Milliseconds() + 30_000)
	if !victim.IsAlive() {
		t.Fatalf("expected player respawned after the grace period")
	}
	if victim.Position() != victim.BindPosition() {
		t.Fatalf("expected respawn at bindpoint %v, got %v", victim.BindPosition(), victim.Position())
	}
	if victim.Health() == victim.MaxHealth() {
		t.Fatalf("expected level-scaled partial health at level 45, got full health")
	}
}

func TestCommandSurface(t *testing.T) {
	inst := newTestInstance(t)

	dummy, err := inst.SpawnCreature(1, geometry.Vector{})
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	if ids := inst.QueryRange(geometry.Vector{}, 10); len(ids) != 1 || ids[0] != dummy.ID() {
		t.Fatalf("expected query_range to find the spawned dummy, got %v", ids)
	}

	if err := inst.MoveEntity(dummy.ID(), geometry.Vector{X: 3}, 1.5); err != nil {
		t.Fatalf("move_entity: %v", err)
	}
	if dummy.Position().X != 3 || dummy.RotationZ() != 1.5 {
		t.Fatalf("expected move_entity to update position/rotation, got pos=%v rot=%v", dummy.Position(), dummy.RotationZ())
	}

	attacker := NewPlayer(guid.ID(0x1000000000000005), 10, geometry.Vector{}, 100, nil)
	inst.AddPlayer(attacker)
	if err := inst.EnterCombat(dummy.ID(), attacker.ID(), 0); err != nil {
		t.Fatalf("enter_combat: %v", err)
	}
	if dummy.AI.Kind != ai.Combat || dummy.AI.TargetID != attacker.ID() {
		t.Fatalf("expected dummy in combat against attacker, got kind=%v target=%v", dummy.AI.Kind, dummy.AI.TargetID)
	}
}

func TestLootCorpseTakesItemAndEmitsEvent(t *testing.T) {
	inst := newTestInstance(t)

	looter := NewPlayer(guid.ID(0x1000000000000006), 10, geometry.Vector{}, 100, nil)
	inst.AddPlayer(looter)

	eligible := map[guid.ID]struct{}{looter.ID(): {}}
	c := corpse.New(guid.ID(0x0500000000000001), guid.ID(0x0200000000000001), geometry.Vector{}, 0, 60_000,
		[]data.RolledLoot{{ItemID: 42, Qty: 1}}, eligible)
	inst.corpses[c.ID] = c

	loot, err := inst.LootCorpse(context.Background(), c.ID, looter.ID(), 0)
	if err != nil {
		t.Fatalf("loot_corpse: %v", err)
	}
	if loot.ItemID != 42 || loot.Qty != 1 {
		t.Fatalf("unexpected loot: %+v", loot)
	}
	if _, err := inst.LootCorpse(context.Background(), c.ID, looter.ID(), 0); err == nil {
		t.Fatalf("expected retaking an already-looted slot to fail")
	}
}

func TestSpawnUnknownTemplateFails(t *testing.T) {
	inst := newTestInstance(t)
	if _, err := inst.SpawnCreature(999, geometry.Vector{}); err == nil {
		t.Fatalf("expected an error spawning an unknown template")
	}
}

func TestIdleShutdownTimerFiresAfterPlayersLeave(t *testing.T) {
	engine, _ := scripting.NewEngine("", zap.NewNop())
	cfg := config.ZoneConfig{CellSizeOutdoor: 50, IdleShutdown: time.Second}
	reg := NewRegistry(cfg, data.NewCreatureTable(nil), data.NewSpellTable(nil), &data.BuffTable{}, &data.LootTable{}, engine, guid.NewRegistry(), zap.NewNop())

	key := Key{WorldID: 1, InstanceID: 2}
	inst := reg.GetOrCreate(key)
	p := NewPlayer(guid.ID(0x1000000000000002), 1, geometry.Vector{}, 100, nil)
	inst.AddPlayer(p)
	inst.RemovePlayer(p.ID(), 0)

	if expired := reg.CheckIdleShutdowns(500); len(expired) != 0 {
		t.Fatalf("expected no shutdown before the idle deadline")
	}
	if expired := reg.CheckIdleShutdowns(1500); len(expired) != 1 || expired[0] != key {
		t.Fatalf("expected instance to be torn down after the idle deadline, got %v", expired)
	}
	if _, ok := reg.Get(key); ok {
		t.Fatalf("expected instance to be unregistered after idle shutdown")
	}
}
