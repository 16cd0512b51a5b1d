package geometry

import "math"

// Shape is a telegraph footprint defined in the caster's local ground-plane
// frame: +Z is forward (the caster's facing), +X is sideways. Hit takes a
// target position already transformed into that local frame (origin
// subtracted, rotation_z undone) plus the target's hit radius, and reports
// whether the telegraph affects it.
//
// The edge tolerance used throughout is hitRadius/2 — unverified against
// original client logic, implemented literally per the spec text.
type Shape interface {
	Hit(local Vector, hitRadius float64) bool
}

type Circle struct{ R float64 }

func (c Circle) Hit(local Vector, hitRadius float64) bool {
	return Dist2D(Vector{}, local) <= c.R+hitRadius/2
}

type Ring struct{ RInner, ROuter float64 }

func (r Ring) Hit(local Vector, hitRadius float64) bool {
	h := hitRadius / 2
	d := Dist2D(Vector{}, local)
	return d >= r.RInner-h && d <= r.ROuter+h
}

// Cone is also used for LongCone (same predicate, caller picks a larger
// R1 when constructing it).
type Cone struct {
	R0, R1    float64
	AngleDeg  float64 // full angle; half-angle = AngleDeg/2
}

func (c Cone) Hit(local Vector, hitRadius float64) bool {
	h := hitRadius / 2
	d := Dist2D(Vector{}, local)
	if d < c.R0-h || d > c.R1+h {
		return false
	}
	// local facing is +Z (0 rad), angle to point measured with atan2(x,z).
	angle := math.Atan2(local.X, local.Z)
	half := (c.AngleDeg / 2) * math.Pi / 180
	// soft edge: a target's hit radius can clip it into range even if its
	// center angle is marginally outside the half-angle.
	if math.Abs(angle) <= half {
		return true
	}
	if d == 0 {
		return true
	}
	angularSlack := math.Atan2(h, d)
	return math.Abs(angle) <= half+angularSlack
}

// Pie is a disk missing the Cone's angular slice: inside radius, outside
// the cone angle.
type Pie struct {
	RInner, R float64
	AngleDeg  float64
}

func (p Pie) Hit(local Vector, hitRadius float64) bool {
	h := hitRadius / 2
	d := Dist2D(Vector{}, local)
	if d > p.R-h {
		return false
	}
	cone := Cone{R0: 0, R1: p.R, AngleDeg: p.AngleDeg}
	return !cone.Hit(local, hitRadius)
}

// Square is axis-aligned in the local frame before rotation (rotation is
// already undone by the caller): X in [-W,W], Z in [-Len,Len], Y within H
// of the telegraph's ground plane. Y is assumed already within band by the
// caller (ground-plane telegraphs don't filter by height here); callers
// that care pass Y pre-filtered.
type Square struct{ W, H, Len float64 }

func (s Square) Hit(local Vector, hitRadius float64) bool {
	return rectHit(local, s.W, s.Len, -s.Len, hitRadius)
}

// Rectangle is like Square but its origin is at the base: X in [-W,W],
// Z in [0,Len].
type Rectangle struct{ W, H, Len float64 }

func (r Rectangle) Hit(local Vector, hitRadius float64) bool {
	return rectHit(local, r.W, r.Len, 0, hitRadius)
}

// rectHit tests local against an axis-aligned box [-w,w] x [zMin,zMin+zSpan]
// where the caller picks zMin=-len (Square, centered) or 0 (Rectangle,
// base-anchored) and zSpan = len-zMin. Point-in-box is tested directly;
// if outside, the point is still a hit when its hit-circle would clip the
// nearest edge.
func rectHit(local Vector, w, lenTotal, zMin float64, hitRadius float64) bool {
	zMax := lenTotal
	if local.X >= -w && local.X <= w && local.Z >= zMin && local.Z <= zMax {
		return true
	}
	h := hitRadius / 2
	cx := clamp(local.X, -w, w)
	cz := clamp(local.Z, zMin, zMax)
	d := Dist2D(local, Vector{X: cx, Z: cz})
	return d <= h
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ToLocal transforms a world-space target position into the telegraph's
// local frame: translate by -origin, then undo rotationZ.
func ToLocal(origin Vector, rotationZ float64, offset Vector, target Vector) Vector {
	translated := target.Sub(origin).Sub(offset)
	return RotateZ(translated, -rotationZ)
}
