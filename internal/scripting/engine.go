// Package scripting embeds a Lua VM that owns the engine's tunable
// formulas — damage/heal scaling, crit chance, the XP-from-kill table,
// wander chance, and the respawn/durability level tables — while Go keeps
// ownership of all mechanical state and control flow. This mirrors the
// split the teacher's combat/AI systems use: Go decides *when* something
// happens, Lua decides *how much*.
package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM. The zone registry hands the same
// Engine to every instance it creates, so all zones share one VM. Not safe
// for concurrent use from multiple goroutines: calls must never overlap.
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a VM and loads every *.lua file under each of dir's
// subdirectories (combat/, ai/), matching the teacher's per-concern
// script layout.
func NewEngine(dir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState()
	e := &Engine{vm: vm, log: log}

	for _, sub := range []string{"combat", "ai"} {
		subdir := filepath.Join(dir, sub)
		entries, err := os.ReadDir(subdir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("read script dir %s: %w", subdir, err)
		}
		for _, entry := range entries {
			if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
				continue
			}
			path := filepath.Join(subdir, entry.Name())
			if err := vm.DoFile(path); err != nil {
				return nil, fmt.Errorf("load script %s: %w", path, err)
			}
		}
	}
	return e, nil
}

func (e *Engine) Close() {
	e.vm.Close()
}

func (e *Engine) call(fn string, nret int, args ...lua.LValue) ([]lua.LValue, error) {
	f := e.vm.GetGlobal(fn)
	if f == lua.LNil {
		return nil, fmt.Errorf("script function %s not defined", fn)
	}
	if err := e.vm.CallByParam(lua.P{Fn: f, NRet: nret, Protect: true}, args...); err != nil {
		return nil, fmt.Errorf("call %s: %w", fn, err)
	}
	out := make([]lua.LValue, nret)
	for i := nret - 1; i >= 0; i-- {
		out[i] = e.vm.Get(-1)
		e.vm.Pop(1)
	}
	return out, nil
}

// WanderChance returns the per-tick probability an idle creature begins
// wandering. Falls back to defaultChance (the spec's documented default
// of 0.5 is itself an open question — see DESIGN.md) if the script
// errors or omits the function.
func (e *Engine) WanderChance(defaultChance float64) float64 {
	out, err := e.call("wander_chance", 1)
	if err != nil {
		e.log.Debug("wander_chance script unavailable, using default", zap.Float64("default", defaultChance))
		return defaultChance
	}
	return float64(lua.LVAsNumber(out[0]))
}

// RollCrit reports whether an attack with the given crit chance (0-100)
// crits, using the script's RNG so all randomness is centralized in one
// place the teacher's style can tune without a Go rebuild.
func (e *Engine) RollCrit(critChance float64) bool {
	out, err := e.call("roll_crit", 1, lua.LNumber(critChance))
	if err != nil {
		e.log.Debug("roll_crit script unavailable, treating as no-crit")
		return false
	}
	return lua.LVAsBool(out[0])
}

// CritMultiplier returns the multiplier applied to a critical hit.
// Default 1.5 per spec §4.4.
func (e *Engine) CritMultiplier() float64 {
	out, err := e.call("crit_multiplier", 1)
	if err != nil {
		return 1.5
	}
	return float64(lua.LVAsNumber(out[0]))
}

// ScaleDamage computes base + scalingStatValue*scaling, delegated to Lua
// so damage curves can be retuned without touching Go.
func (e *Engine) ScaleDamage(base, scalingStatValue, scaling float64) float64 {
	out, err := e.call("scale_damage", 1, lua.LNumber(base), lua.LNumber(scalingStatValue), lua.LNumber(scaling))
	if err != nil {
		return base + scalingStatValue*scaling
	}
	return float64(lua.LVAsNumber(out[0]))
}

// XPFromKill computes the XP reward for a victimLevel kill by a
// killerLevel attacker, applying the spec §4.6 level-difference table.
// Falls back to the literal table if the script is unavailable.
func (e *Engine) XPFromKill(killerLevel, victimLevel int, baseXP int64) int64 {
	out, err := e.call("xp_from_kill", 1, lua.LNumber(killerLevel), lua.LNumber(victimLevel), lua.LNumber(baseXP))
	if err != nil {
		return defaultXPFromKill(killerLevel, victimLevel, baseXP)
	}
	return int64(lua.LVAsNumber(out[0]))
}

func defaultXPFromKill(killerLevel, victimLevel int, baseXP int64) int64 {
	diff := victimLevel - killerLevel
	var mult float64
	switch {
	case diff >= 5:
		mult = 1.2
	case diff >= 2:
		mult = 1.1
	case diff >= -1:
		mult = 1.0
	case diff >= -3:
		mult = 0.5
	default:
		mult = 0.1
	}
	return int64(float64(baseXP) * mult)
}

// RespawnHealthFraction returns the level-scaled fraction of max health a
// respawning player is restored to, per spec §4.6.
func (e *Engine) RespawnHealthFraction(level int) float64 {
	out, err := e.call("respawn_health_fraction", 1, lua.LNumber(level))
	if err != nil {
		return defaultRespawnHealthFraction(level)
	}
	return float64(lua.LVAsNumber(out[0]))
}

func defaultRespawnHealthFraction(level int) float64 {
	switch {
	case level < 20:
		return 0.50
	case level < 40:
		return 0.35
	default:
		return 0.25
	}
}

// DurabilityPenalty returns the level-scaled item durability loss
// fraction applied on player death, per spec §4.6.
func (e *Engine) DurabilityPenalty(level int) float64 {
	out, err := e.call("durability_penalty", 1, lua.LNumber(level))
	if err != nil {
		return defaultDurabilityPenalty(level)
	}
	return float64(lua.LVAsNumber(out[0]))
}

func defaultDurabilityPenalty(level int) float64 {
	switch {
	case level < 10:
		return 0.00
	case level < 30:
		return 0.05
	case level < 50:
		return 0.10
	default:
		return 0.15
	}
}
