package buff

import (
	"testing"

	"github.com/wildforge/zonecore/internal/data"
	"github.com/wildforge/zonecore/internal/guid"
)

// TestAbsorbConsumptionOrdering covers spec §8 scenario 5: two absorb
// buffs (ids 1, 2) holding 30 and 50; 40 damage fully consumes buff 1 and
// reduces buff 2 to 40, with absorbed=40, remaining=0.
func TestAbsorbConsumptionOrdering(t *testing.T) {
	e := NewEngine()
	c := NewContainer()
	caster := guid.ID(1)

	e.Apply(c, &data.BuffDefinition{ID: 1, Category: data.BuffAbsorb, Amount: 30, DurationMS: 60_000}, caster, 0)
	e.Apply(c, &data.BuffDefinition{ID: 2, Category: data.BuffAbsorb, Amount: 50, DurationMS: 60_000}, caster, 0)

	absorbed, remaining := e.ConsumeAbsorb(c, 40, 1000)

	if absorbed != 40 || remaining != 0 {
		t.Fatalf("ConsumeAbsorb = (%d, %d); want (40, 0)", absorbed, remaining)
	}
	if c.Has(1) {
		t.Errorf("buff 1 should be fully consumed and removed")
	}
	ae, ok := c.Get(2)
	if !ok {
		t.Fatalf("buff 2 should still be active")
	}
	if ae.RemainingAmount != 40 {
		t.Errorf("buff 2 remaining = %d, want 40", ae.RemainingAmount)
	}
}

func TestConsumeAbsorbInvariant(t *testing.T) {
	e := NewEngine()
	c := NewContainer()
	caster := guid.ID(1)
	e.Apply(c, &data.BuffDefinition{ID: 1, Category: data.BuffAbsorb, Amount: 10, DurationMS: 60_000}, caster, 0)

	absorbed, remaining := e.ConsumeAbsorb(c, 25, 1000)
	if absorbed+remaining != 25 {
		t.Fatalf("absorbed+remaining = %d, want 25", absorbed+remaining)
	}
	if absorbed != 10 || remaining != 15 {
		t.Fatalf("ConsumeAbsorb = (%d, %d); want (10, 15)", absorbed, remaining)
	}
}

func TestRemoveNotFound(t *testing.T) {
	e := NewEngine()
	c := NewContainer()
	if err := e.Remove(c, 99); err == nil {
		t.Fatalf("Remove on absent buff should error")
	}
}

func TestCleanupDropsExpired(t *testing.T) {
	e := NewEngine()
	c := NewContainer()
	caster := guid.ID(1)
	e.Apply(c, &data.BuffDefinition{ID: 1, Category: data.BuffStatModifier, Stat: "str", Amount: 5, DurationMS: 1000}, caster, 0)

	removed := e.Cleanup(c, 2000)
	if len(removed) != 1 || removed[0] != 1 {
		t.Fatalf("Cleanup removed = %v, want [1]", removed)
	}
	if c.Len() != 0 {
		t.Fatalf("container should be empty after cleanup")
	}
}

func TestStatModifierSumsMatching(t *testing.T) {
	e := NewEngine()
	c := NewContainer()
	caster := guid.ID(1)
	e.Apply(c, &data.BuffDefinition{ID: 1, Category: data.BuffStatModifier, Stat: "str", Amount: 5, DurationMS: 60_000}, caster, 0)
	e.Apply(c, &data.BuffDefinition{ID: 2, Category: data.BuffStatModifier, Stat: "str", Amount: 3, DurationMS: 60_000}, caster, 0)
	e.Apply(c, &data.BuffDefinition{ID: 3, Category: data.BuffStatModifier, Stat: "dex", Amount: 100, DurationMS: 60_000}, caster, 0)

	if got := e.StatModifier(c, "str", 0); got != 8 {
		t.Fatalf("StatModifier(str) = %d, want 8", got)
	}
}

func TestPeriodicTickCoordinatesToHeartbeat(t *testing.T) {
	e := NewEngine()
	c := NewContainer()
	caster := guid.ID(1)
	e.Apply(c, &data.BuffDefinition{ID: 1, Category: data.BuffPeriodic, Amount: 10, DurationMS: 10_000, TickIntervalMS: 1000}, caster, 0)

	if fired := e.Tick(c, 500); len(fired) != 0 {
		t.Fatalf("Tick at 500ms fired early: %v", fired)
	}
	fired := e.Tick(c, 1000)
	if len(fired) != 1 || fired[0].Amount != 10 {
		t.Fatalf("Tick at 1000ms = %v, want one fire of amount 10", fired)
	}
	if fired := e.Tick(c, 1500); len(fired) != 0 {
		t.Fatalf("Tick at 1500ms should not re-fire before next cursor: %v", fired)
	}
	if fired := e.Tick(c, 2000); len(fired) != 1 {
		t.Fatalf("Tick at 2000ms = %v, want one fire", fired)
	}
}
