// Package geometry provides the vector and telegraph-shape math shared by
// the spatial grid, AI movement, and the telegraph resolver.
package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Vector is a 3D world position or offset. X/Z form the ground plane; Y is
// height.
type Vector struct {
	X, Y, Z float64
}

// Rotation is a yaw-only facing, in radians, atan2 convention, normalized
// to (-pi, pi].
type Rotation struct {
	Z float64
}

func (v Vector) toR3() r3.Vec { return r3.Vec{X: v.X, Y: v.Y, Z: v.Z} }

func fromR3(u r3.Vec) Vector { return Vector{X: u.X, Y: u.Y, Z: u.Z} }

func (v Vector) Add(o Vector) Vector { return fromR3(r3.Add(v.toR3(), o.toR3())) }
func (v Vector) Sub(o Vector) Vector { return fromR3(r3.Sub(v.toR3(), o.toR3())) }
func (v Vector) Scale(s float64) Vector {
	return fromR3(r3.Scale(s, v.toR3()))
}

// RotateZ rotates v by theta radians around the up (Y) axis, in the
// caster's local ground-plane frame (X sideways, Z forward).
func RotateZ(v Vector, theta float64) Vector {
	rot := r3.NewRotation(theta, r3.Vec{X: 0, Y: 1, Z: 0})
	return fromR3(rot.Rotate(v.toR3()))
}

// Dist2D returns the ground-plane (X,Z) Euclidean distance between a and b.
func Dist2D(a, b Vector) float64 {
	dx := a.X - b.X
	dz := a.Z - b.Z
	return math.Sqrt(dx*dx + dz*dz)
}

// Dist2DSquared avoids the sqrt for range-check hot paths.
func Dist2DSquared(a, b Vector) float64 {
	dx := a.X - b.X
	dz := a.Z - b.Z
	return dx*dx + dz*dz
}

// Dist3D returns full 3D Euclidean distance.
func Dist3D(a, b Vector) float64 {
	d := a.Sub(b)
	return math.Sqrt(d.X*d.X + d.Y*d.Y + d.Z*d.Z)
}

// HeadingTo returns the ground-plane heading (radians, atan2 convention)
// from a facing b, 0 along +Z, positive toward +X.
func HeadingTo(a, b Vector) float64 {
	return math.Atan2(b.X-a.X, b.Z-a.Z)
}

// NormalizeAngle folds theta into (-pi, pi].
func NormalizeAngle(theta float64) float64 {
	for theta > math.Pi {
		theta -= 2 * math.Pi
	}
	for theta <= -math.Pi {
		theta += 2 * math.Pi
	}
	return theta
}

// AngleBetween returns the signed minimal angle from facing to the
// direction toward target, normalized to (-pi, pi].
func AngleBetween(facing float64, from, to Vector) float64 {
	toAngle := HeadingTo(from, to)
	return NormalizeAngle(toAngle - facing)
}
