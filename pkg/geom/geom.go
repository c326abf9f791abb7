// Package geom provides the 2D vector and rectangle primitives shared by the
// layout packages.
//
// Coordinates are screen-style: x grows to the right and y grows downward.
// Rotations are in radians and follow the usual counter-clockwise convention
// of the rotation matrix; in a y-down frame that appears clockwise on screen.
package geom

import "math"

// Epsilon is the default tolerance for floating-point comparisons.
const Epsilon = 1e-4

// Vec2 is a 2D point or vector.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Common vectors.
var (
	Zero = Vec2{}
	One  = Vec2{1, 1}
)

// V is shorthand for Vec2{x, y}.
func V(x, y float64) Vec2 { return Vec2{X: x, Y: y} }

// Splat returns a vector with both components set to v.
func Splat(v float64) Vec2 { return Vec2{v, v} }

func (a Vec2) Add(b Vec2) Vec2        { return Vec2{a.X + b.X, a.Y + b.Y} }
func (a Vec2) Sub(b Vec2) Vec2        { return Vec2{a.X - b.X, a.Y - b.Y} }
func (a Vec2) Mul(b Vec2) Vec2        { return Vec2{a.X * b.X, a.Y * b.Y} }
func (a Vec2) Scale(s float64) Vec2   { return Vec2{a.X * s, a.Y * s} }
func (a Vec2) Max(b Vec2) Vec2        { return Vec2{math.Max(a.X, b.X), math.Max(a.Y, b.Y)} }
func (a Vec2) Min(b Vec2) Vec2        { return Vec2{math.Min(a.X, b.X), math.Min(a.Y, b.Y)} }
func (a Vec2) Abs() Vec2              { return Vec2{math.Abs(a.X), math.Abs(a.Y)} }
func (a Vec2) Len() float64           { return math.Hypot(a.X, a.Y) }
func (a Vec2) IsZero() bool           { return a.X == 0 && a.Y == 0 }
func (a Vec2) Half() Vec2             { return Vec2{a.X / 2, a.Y / 2} }
func (a Vec2) Swap() Vec2             { return Vec2{a.Y, a.X} }
func (a Vec2) Axis(i int) float64     { return [2]float64{a.X, a.Y}[i&1] }
func (a Vec2) Finite() bool           { return finite(a.X) && finite(a.Y) }
func (a Vec2) ClampNonNegative() Vec2 { return Vec2{math.Max(0, a.X), math.Max(0, a.Y)} }

// WithAxis returns a copy of a with component i (0 = x, 1 = y) set to v.
func (a Vec2) WithAxis(i int, v float64) Vec2 {
	if i&1 == 0 {
		a.X = v
	} else {
		a.Y = v
	}
	return a
}

// Rotate rotates a by theta radians around the origin.
func (a Vec2) Rotate(theta float64) Vec2 {
	if theta == 0 {
		return a
	}
	sin, cos := math.Sincos(theta)
	return Vec2{a.X*cos - a.Y*sin, a.X*sin + a.Y*cos}
}

// ApproxEqual reports whether a and b differ by at most eps per component.
func (a Vec2) ApproxEqual(b Vec2, eps float64) bool {
	return ApproxEqual(a.X, b.X, eps) && ApproxEqual(a.Y, b.Y, eps)
}

// ApproxEqual reports whether |a-b| <= eps.
func ApproxEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// Finite reports whether v is neither NaN nor infinite.
func Finite(v float64) bool { return finite(v) }
