// Package ai implements the per-creature AI state machine: states,
// transitions, patrol modes, threat-driven targeting, and the tagged tick
// output the zone instance commits (spec §4.2).
package ai

import (
	"github.com/wildforge/zonecore/internal/geometry"
	"github.com/wildforge/zonecore/internal/guid"
	"github.com/wildforge/zonecore/internal/threat"
)

// StateKind is the closed set of AI states.
type StateKind int

const (
	Idle StateKind = iota
	Wandering
	Patrol
	Combat
	Evade
	Dead
)

func (k StateKind) String() string {
	switch k {
	case Idle:
		return "idle"
	case Wandering:
		return "wandering"
	case Patrol:
		return "patrol"
	case Combat:
		return "combat"
	case Evade:
		return "evade"
	case Dead:
		return "dead"
	default:
		return "unknown"
	}
}

// PatrolMode is the closed set of patrol traversal modes.
type PatrolMode int

const (
	Cyclic PatrolMode = iota
	CyclicReverse
	OneShot
	OneShotReverse
	BackAndForth
	BackAndForthReverse
)

// Waypoint is one patrol stop.
type Waypoint struct {
	Position geometry.Vector
	PauseMS  int64
}

// WanderState tracks an in-progress or cooling-down wander.
type WanderState struct {
	CooldownUntilMS int64
	PathStartMS     int64
	PathDurationMS  int64
	Destination     geometry.Vector
	Range           float64 // wander_range around spawn
}

// PatrolState tracks patrol progress.
type PatrolState struct {
	Enabled      bool
	Mode         PatrolMode
	Waypoints    []Waypoint
	Index        int
	Direction    int // +1 or -1
	PauseUntilMS int64
	SegmentStart int64
	SegmentDur   int64
	Halted       bool // one_shot variants stop at the terminal waypoint
}

// ChaseState tracks an in-flight movement toward a combat target.
type ChaseState struct {
	StartMS     int64
	DurationMS  int64
	Destination geometry.Vector
}

// State is the full per-creature AI state (spec §3's "AI state"
// struct).
type State struct {
	Kind StateKind

	TargetID        guid.ID
	CombatStartedMS int64
	LastAttackMS    int64
	Threat          *threat.Table
	Participants    map[guid.ID]struct{} // preserved across death until respawn

	Wander WanderState
	Patrol PatrolState
	Chase  ChaseState
}

// NewState returns a fresh idle AI state.
func NewState() *State {
	return &State{
		Kind:         Idle,
		LastAttackMS: -1 << 62, // no attack yet: the first attack is not gated by attack speed
		Threat:       threat.New(),
		Participants: make(map[guid.ID]struct{}),
	}
}

// AddParticipant records an entity as having contributed damage, for
// kill-credit retention across death.
func (s *State) AddParticipant(id guid.ID) {
	s.Participants[id] = struct{}{}
}

// ClearParticipants empties the participant set (on respawn).
func (s *State) ClearParticipants() {
	s.Participants = make(map[guid.ID]struct{})
}
