package telegraph

import (
	"testing"

	"github.com/wildforge/zonecore/internal/geometry"
	"github.com/wildforge/zonecore/internal/guid"
)

func TestConeHitsForwardTargetMissesSidewaysAndBeyondRange(t *testing.T) {
	def := Definition{Kind: KindCone, R0: 0, R1: 10, AngleDeg: 60}
	origin := geometry.Vector{}

	inFront := guid.ID(1)
	sideways := guid.ID(2)
	tooFar := guid.ID(3)

	hits := Resolve(def, origin, 0, []Candidate{
		{ID: inFront, Position: geometry.Vector{X: 0, Z: 5}},
		{ID: sideways, Position: geometry.Vector{X: 5, Z: 0}},
		{ID: tooFar, Position: geometry.Vector{X: 0, Z: 15}},
	})

	if !containsID(hits, inFront) {
		t.Fatalf("expected forward target inside the cone to be hit")
	}
	if containsID(hits, sideways) {
		t.Fatalf("expected sideways target outside the half-angle to miss")
	}
	if containsID(hits, tooFar) {
		t.Fatalf("expected target beyond r1 to miss")
	}
}

func TestCircleRespectsHitRadiusTolerance(t *testing.T) {
	def := Definition{Kind: KindCircle, R1: 5}
	origin := geometry.Vector{}
	justOutside := guid.ID(1)

	hits := Resolve(def, origin, 0, []Candidate{
		{ID: justOutside, Position: geometry.Vector{X: 0, Z: 6}, HitRadius: 2},
	})
	if !containsID(hits, justOutside) {
		t.Fatalf("expected target at r+hitRadius/2 to be clipped into the hit")
	}
}

func TestSearchRadiusCoversOffsetAndLength(t *testing.T) {
	def := Definition{Kind: KindRectangle, W: 3, Len: 20, Offset: geometry.Vector{Z: 5}}
	if got := def.SearchRadius(); got < 25 {
		t.Fatalf("expected search radius to cover length plus offset, got %v", got)
	}
}

func containsID(ids []guid.ID, target guid.ID) bool {
	for _, id := range ids {
		if id == target {
			return true
		}
	}
	return false
}
