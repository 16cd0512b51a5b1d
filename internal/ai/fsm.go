package ai

import (
	"math"
	"math/rand"

	"github.com/wildforge/zonecore/internal/data"
	"github.com/wildforge/zonecore/internal/geometry"
	"github.com/wildforge/zonecore/internal/guid"
)

// Candidate is a nearby hostile the zone found via the spatial grid,
// pre-filtered to alive/targetable entities.
type Candidate struct {
	ID       guid.ID
	Position geometry.Vector
}

// Context is everything one Tick call needs about the world around a
// single creature. The zone instance assembles it each tick from the
// spatial grid and entity table; the FSM itself holds no world reference.
type Context struct {
	Self          geometry.Vector
	SpawnPosition geometry.Vector
	Template      *data.CreatureTemplate
	NowMS         int64
	WanderChance  float64 // from scripting.Engine.WanderChance, spec §9 open question

	NearbyHostiles []Candidate // within aggro_range, already faction-filtered

	// TargetPosition is the current combat target's position, or nil if
	// the target is gone (dead, despawned, out of the zone).
	TargetPosition *geometry.Vector
	TargetDead     bool
}

const wanderCooldownMS = 5000
const wanderStepDistance = 15 // used to size a random wander destination

// Tick advances s by one heartbeat and returns the committed intent. Dead
// creatures are inert; they only leave Dead via Revive.
func Tick(s *State, ctx Context) Output {
	switch s.Kind {
	case Dead:
		return Output{Kind: None}
	case Idle:
		return tickIdle(s, ctx)
	case Wandering:
		return tickWandering(s, ctx)
	case Patrol:
		return tickPatrol(s, ctx)
	case Combat:
		return tickCombat(s, ctx)
	case Evade:
		return tickEvade(s, ctx)
	default:
		return Output{Kind: None}
	}
}

func tickIdle(s *State, ctx Context) Output {
	if ctx.Template.Disposition == data.DispositionAggressive {
		if target, ok := nearestHostile(ctx.Self, ctx.NearbyHostiles); ok {
			s.Kind = Combat
			s.TargetID = target.ID
			s.CombatStartedMS = ctx.NowMS
			s.Threat.Add(target.ID, 100)
			s.AddParticipant(target.ID)
			pos := target.Position
			ctx.TargetPosition = &pos
			return tickCombat(s, ctx)
		}
	}

	if s.Patrol.Enabled {
		s.Kind = Patrol
		wp := s.Patrol.Waypoints[s.Patrol.Index]
		s.Patrol.SegmentStart = ctx.NowMS
		s.Patrol.SegmentDur = travelDuration(ctx.Self, wp.Position, ctx.Template.MoveSpeed)
		return Output{Kind: StartPatrol, Position: wp.Position}
	}

	if ctx.NowMS >= s.Wander.CooldownUntilMS && rand.Float64() < ctx.WanderChance {
		dest := randomPointNear(ctx.SpawnPosition, wanderStepDistance)
		s.Kind = Wandering
		s.Wander.PathStartMS = ctx.NowMS
		s.Wander.PathDurationMS = travelDuration(ctx.Self, dest, ctx.Template.MoveSpeed)
		s.Wander.Destination = dest
		return Output{Kind: StartWander, Position: dest}
	}
	return Output{Kind: None}
}

func tickWandering(s *State, ctx Context) Output {
	if ctx.NowMS >= s.Wander.PathStartMS+s.Wander.PathDurationMS {
		s.Kind = Idle
		s.Wander.CooldownUntilMS = ctx.NowMS + wanderCooldownMS
		return Output{Kind: WanderComplete}
	}
	return Output{Kind: None}
}

func tickPatrol(s *State, ctx Context) Output {
	p := &s.Patrol
	if ctx.NowMS < p.PauseUntilMS {
		return Output{Kind: None}
	}
	if ctx.NowMS < p.SegmentStart+p.SegmentDur {
		return Output{Kind: None}
	}

	current := p.Waypoints[p.Index]
	if current.PauseMS > 0 && p.PauseUntilMS <= p.SegmentStart {
		p.PauseUntilMS = ctx.NowMS + current.PauseMS
		return Output{Kind: PatrolSegmentComplete, Position: current.Position}
	}

	next, ok := advancePatrol(p)
	if !ok {
		return Output{Kind: None}
	}
	p.SegmentStart = ctx.NowMS
	p.SegmentDur = travelDuration(ctx.Self, next.Position, ctx.Template.MoveSpeed)
	p.PauseUntilMS = 0
	return Output{Kind: PatrolSegmentComplete, Position: next.Position}
}

func tickCombat(s *State, ctx Context) Output {
	if ctx.TargetDead || ctx.TargetPosition == nil {
		s.Threat.Remove(s.TargetID)
		if next, ok := s.Threat.Highest(); ok {
			s.TargetID = next
			return Output{Kind: None}
		}
		s.Kind = Idle
		s.TargetID = guid.ID(0)
		return Output{Kind: None}
	}

	if geometry.Dist2D(ctx.Self, ctx.SpawnPosition) > ctx.Template.LeashRange {
		s.Kind = Evade
		s.Chase = ChaseState{}
		return tickEvade(s, ctx)
	}

	if s.Chase.DurationMS > 0 && s.Chase.StartMS+s.Chase.DurationMS > ctx.NowMS {
		return Output{Kind: None}
	}

	target := *ctx.TargetPosition
	d := geometry.Dist2D(ctx.Self, target)
	attackRange := ctx.Template.EffectiveAttackRange()

	if !ctx.Template.IsRanged {
		if d <= attackRange {
			return attackIfReady(s, ctx)
		}
		dest := stepToward(target, ctx.Self, d-attackRange)
		s.Chase = ChaseState{StartMS: ctx.NowMS, DurationMS: travelDuration(ctx.Self, dest, ctx.Template.MoveSpeed), Destination: dest}
		return Output{Kind: StartChase, Position: dest}
	}

	minRange := attackRange / 2
	switch {
	case d < minRange:
		dest := stepAway(ctx.Self, target, minRange-d)
		s.Chase = ChaseState{StartMS: ctx.NowMS, DurationMS: travelDuration(ctx.Self, dest, ctx.Template.MoveSpeed), Destination: dest}
		return Output{Kind: StartChase, Position: dest}
	case d > attackRange:
		dest := stepToward(target, ctx.Self, d-attackRange)
		s.Chase = ChaseState{StartMS: ctx.NowMS, DurationMS: travelDuration(ctx.Self, dest, ctx.Template.MoveSpeed), Destination: dest}
		return Output{Kind: StartChase, Position: dest}
	default:
		return attackIfReady(s, ctx)
	}
}

func attackIfReady(s *State, ctx Context) Output {
	if ctx.NowMS-s.LastAttackMS < ctx.Template.AttackSpeedMS {
		return Output{Kind: None}
	}
	s.LastAttackMS = ctx.NowMS
	return Output{Kind: Attack, TargetID: s.TargetID}
}

func tickEvade(s *State, ctx Context) Output {
	if geometry.Dist2D(ctx.Self, ctx.SpawnPosition) < 0.5 {
		s.Kind = Idle
		s.Threat.Clear()
		s.TargetID = guid.ID(0)
		return Output{Kind: ChaseComplete}
	}
	if s.Chase.DurationMS > 0 && s.Chase.StartMS+s.Chase.DurationMS > ctx.NowMS {
		return Output{Kind: None}
	}
	s.Chase = ChaseState{
		StartMS:     ctx.NowMS,
		DurationMS:  travelDuration(ctx.Self, ctx.SpawnPosition, ctx.Template.MoveSpeed),
		Destination: ctx.SpawnPosition,
	}
	return Output{Kind: StartChase, Position: ctx.SpawnPosition}
}

// EnterCombat is called externally (damage received, explicit
// enter_combat command, or social aggro) to engage a new or existing
// threat source.
func EnterCombat(s *State, attacker guid.ID, damageThreat int64) {
	wasInCombat := s.Kind == Combat
	if !wasInCombat {
		s.Kind = Combat
		s.CombatStartedMS = 0 // set by caller with the tick's NowMS if needed
		s.TargetID = attacker
	}
	if !s.Threat.Has(attacker) {
		s.Threat.Add(attacker, 100+damageThreat)
	} else {
		s.Threat.Add(attacker, damageThreat)
	}
	s.AddParticipant(attacker)
	if best, ok := s.Threat.Highest(); ok && best != s.TargetID {
		// follow the threat leader; on equal points Highest() picks the
		// earliest-inserted attacker, which may not be the current target.
		s.TargetID = best
	}
}

// Kill transitions s to Dead: clears target and threat, preserves
// participants for loot/quest credit.
func Kill(s *State) {
	s.Kind = Dead
	s.TargetID = guid.ID(0)
	s.Threat.Clear()
}

// Revive transitions s to Idle at spawn, clearing participants.
func Revive(s *State) {
	s.Kind = Idle
	s.TargetID = guid.ID(0)
	s.Threat.Clear()
	s.ClearParticipants()
	s.Chase = ChaseState{}
	s.Wander = WanderState{}
}

// SetPatrol configures s with a patrol route. Call once at spawn if the
// template defines one.
func SetPatrol(s *State, waypoints []Waypoint, mode PatrolMode) {
	s.Patrol = newPatrolState(waypoints, mode)
}

func nearestHostile(self geometry.Vector, candidates []Candidate) (Candidate, bool) {
	var best Candidate
	bestDist := -1.0
	found := false
	for _, c := range candidates {
		d := geometry.Dist2D(self, c.Position)
		if !found || d < bestDist {
			best = c
			bestDist = d
			found = true
		}
	}
	return best, found
}

func travelDuration(from, to geometry.Vector, speed float64) int64 {
	if speed <= 0 {
		return 0
	}
	dist := geometry.Dist2D(from, to)
	return int64((dist / speed) * 1000)
}

func stepToward(target, from geometry.Vector, remaining float64) geometry.Vector {
	d := geometry.Dist2D(from, target)
	if d <= remaining || d == 0 {
		return target
	}
	dir := target.Sub(from).Scale(1 / d)
	travel := d - remaining
	return from.Add(dir.Scale(travel))
}

func stepAway(from, target geometry.Vector, distance float64) geometry.Vector {
	d := geometry.Dist2D(from, target)
	if d == 0 {
		return from
	}
	dir := from.Sub(target).Scale(1 / d)
	return from.Add(dir.Scale(distance))
}

func randomPointNear(center geometry.Vector, maxRadius float64) geometry.Vector {
	angle := rand.Float64() * 2 * math.Pi
	r := rand.Float64() * maxRadius
	return geometry.Vector{
		X: center.X + r*math.Cos(angle),
		Y: center.Y,
		Z: center.Z + r*math.Sin(angle),
	}
}
