package death

import (
	"math/rand"
	"testing"

	"github.com/wildforge/zonecore/internal/data"
	"github.com/wildforge/zonecore/internal/geometry"
	"github.com/wildforge/zonecore/internal/guid"
	"github.com/wildforge/zonecore/internal/scripting"
	"go.uber.org/zap"
)

type fakeVictim struct {
	id           guid.ID
	level        int16
	position     geometry.Vector
	template     *data.CreatureTemplate
	participants map[guid.ID]struct{}
}

func (f *fakeVictim) ID() guid.ID                          { return f.id }
func (f *fakeVictim) Level() int16                          { return f.level }
func (f *fakeVictim) Position() geometry.Vector             { return f.position }
func (f *fakeVictim) Template() *data.CreatureTemplate       { return f.template }
func (f *fakeVictim) Participants() map[guid.ID]struct{}     { return f.participants }

type fakeKiller struct {
	id    guid.ID
	level int16
}

func (f *fakeKiller) ID() guid.ID    { return f.id }
func (f *fakeKiller) Level() int16   { return f.level }

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	engine, err := scripting.NewEngine("", zap.NewNop())
	if err != nil {
		t.Fatalf("failed to build scripting engine: %v", err)
	}
	return NewManager(&data.LootTable{}, engine, guid.NewRegistry(), rand.New(rand.NewSource(1)), 180_000, 30_000)
}

func TestTrainingDummyKillGrantsExpectedXP(t *testing.T) {
	m := newTestManager(t)
	killer := &fakeKiller{id: guid.ID(1), level: 10}
	victim := &fakeVictim{
		id:    guid.ID(2),
		level: 1,
		template: &data.CreatureTemplate{
			XPReward:       10,
			RespawnDelayMS: 10_000,
		},
		participants: map[guid.ID]struct{}{killer.id: {}},
	}

	result := m.HandleCreatureDeath(CreatureDeathInput{Victim: victim, Killer: killer, NowMS: 0})

	if result.XP != 1 {
		t.Fatalf("expected gray-mob-scaled XP floor(10*0.1)=1, got %d", result.XP)
	}
	if result.RespawnAtMS != 10_000 {
		t.Fatalf("expected respawn at template delay, got %d", result.RespawnAtMS)
	}
	if result.Corpse == nil || !result.Corpse.CanLoot(killer.id) {
		t.Fatalf("expected a corpse lootable by the participant")
	}
}

func TestGrayMobXPScaling(t *testing.T) {
	m := newTestManager(t)
	killer := &fakeKiller{id: guid.ID(1), level: 10}
	victim := &fakeVictim{
		id:           guid.ID(2),
		level:        4,
		template:     &data.CreatureTemplate{XPReward: 100},
		participants: map[guid.ID]struct{}{},
	}

	result := m.HandleCreatureDeath(CreatureDeathInput{Victim: victim, Killer: killer, NowMS: 0})
	if result.XP != 10 {
		t.Fatalf("expected xp_from_kill(10,4,100)=10, got %d", result.XP)
	}
}

func TestPlayerDeathRespawnsAfterGracePeriod(t *testing.T) {
	m := newTestManager(t)
	result := m.HandlePlayerDeath(PlayerDeathInput{Level: 15, BindPosition: geometry.Vector{X: 1, Z: 2}, NowMS: 1000})

	if result.RespawnAtMS != 31_000 {
		t.Fatalf("expected respawn 30s after death, got %d", result.RespawnAtMS)
	}
	if result.RespawnHealthFraction != 0.50 {
		t.Fatalf("expected 50%% respawn health below level 20, got %v", result.RespawnHealthFraction)
	}
	if result.DurabilityPenalty != 0.05 {
		t.Fatalf("expected 5%% durability penalty at level 15, got %v", result.DurabilityPenalty)
	}
}
