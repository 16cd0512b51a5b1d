// Package telegraph decides which entities a shape-directed spell hits:
// it builds a geometry.Shape from a telegraph definition, transforms
// candidate positions into the caster's local frame, and exposes a
// conservative search radius so the caller can pre-filter with the
// spatial grid before running the precise hit test (spec §4.5).
package telegraph

import (
	"math"

	"github.com/wildforge/zonecore/internal/geometry"
	"github.com/wildforge/zonecore/internal/guid"
)

// Kind is the closed set of telegraph shapes.
type Kind int

const (
	KindCircle Kind = iota
	KindRing
	KindCone
	KindLongCone
	KindPie
	KindSquare
	KindRectangle
)

// Definition is a shape-directed spell's footprint, expressed in the
// caster's local frame before rotation/translation.
type Definition struct {
	Kind     Kind
	R0, R1   float64 // circle radius / ring inner-outer / cone inner-outer
	AngleDeg float64 // cone/long-cone/pie full angle
	W, H, Len float64 // square/rectangle half-width, half-height band, length
	Offset   geometry.Vector // local-frame offset from the caster, z=forward
}

// shape builds the geometry.Shape for this definition.
func (d Definition) shape() geometry.Shape {
	switch d.Kind {
	case KindCircle:
		return geometry.Circle{R: d.R1}
	case KindRing:
		return geometry.Ring{RInner: d.R0, ROuter: d.R1}
	case KindCone, KindLongCone:
		return geometry.Cone{R0: d.R0, R1: d.R1, AngleDeg: d.AngleDeg}
	case KindPie:
		return geometry.Pie{RInner: d.R0, R: d.R1, AngleDeg: d.AngleDeg}
	case KindSquare:
		return geometry.Square{W: d.W, H: d.H, Len: d.Len}
	case KindRectangle:
		return geometry.Rectangle{W: d.W, H: d.H, Len: d.Len}
	default:
		return geometry.Circle{R: 0}
	}
}

// SearchRadius is a conservative bound the caller can hand to the spatial
// grid's QueryRange before running the precise per-candidate Hit test. It
// bounds the shape itself; a candidate's hit-radius tolerance is not added.
func (d Definition) SearchRadius() float64 {
	far := math.Max(d.R1, math.Max(math.Hypot(d.W, d.Len), d.H))
	return far + geometry.Dist2D(geometry.Vector{}, d.Offset)
}

// Candidate is one entity the zone found via the spatial grid pre-filter.
type Candidate struct {
	ID       guid.ID
	Position geometry.Vector
	HitRadius float64
}

// Resolve returns the ids of candidates the telegraph hits, given the
// caster's world position and facing.
func Resolve(def Definition, origin geometry.Vector, rotationZ float64, candidates []Candidate) []guid.ID {
	shape := def.shape()
	var hits []guid.ID
	for _, c := range candidates {
		local := geometry.ToLocal(origin, rotationZ, def.Offset, c.Position)
		if shape.Hit(local, c.HitRadius) {
			hits = append(hits, c.ID)
		}
	}
	return hits
}
