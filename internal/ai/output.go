package ai

import (
	"github.com/wildforge/zonecore/internal/geometry"
	"github.com/wildforge/zonecore/internal/guid"
)

// OutputKind is the closed set of tick outputs (spec §4.2, §9's
// "tagged-variant tick output, not polymorphic dispatch").
type OutputKind int

const (
	None OutputKind = iota
	Attack
	MoveTo
	StartWander
	WanderComplete
	StartPatrol
	PatrolSegmentComplete
	StartChase
	ChaseComplete
)

// Output is the single value a Tick call returns. The zone instance
// pattern-matches on Kind and commits the new State plus any broadcast
// implied by the fields below.
type Output struct {
	Kind     OutputKind
	TargetID guid.ID         // valid for Attack
	Position geometry.Vector // valid for MoveTo/StartWander/StartChase
}
