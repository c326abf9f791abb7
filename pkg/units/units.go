// Package units converts abstract lengths into absolute pixel values.
//
// A [Length] pairs a value with a [Unit]. Lengths are resolved against a
// [Context] that carries the parent size, the active em size, the root em
// size and the viewport size:
//
//	ctx := units.Context{Parent: geom.V(200, 100), Em: 16, Rem: 16, Viewport: geom.V(800, 600)}
//	w, _ := units.Pct(50).Resolve(units.AxisX, ctx) // 100
//
// Resolution never fails. Non-finite inputs or results are clamped to zero
// and reported through the boolean result so callers can surface a
// diagnostic without aborting.
package units

import (
	"fmt"
	"math"

	"github.com/matzehuels/anchorlay/pkg/geom"
)

// Axis selects the horizontal or vertical component.
type Axis int

const (
	AxisX Axis = iota
	AxisY
)

func (a Axis) String() string {
	if a == AxisY {
		return "y"
	}
	return "x"
}

// Cross returns the other axis.
func (a Axis) Cross() Axis { return 1 - a }

// Unit specifies how a Length value is interpreted.
type Unit int

const (
	// Pixels is an absolute length.
	Pixels Unit = iota
	// Percent is a percentage (0-100) of the parent size.
	Percent
	// Em is a multiple of the active font size.
	Em
	// Rem is a multiple of the root font size.
	Rem
	// ViewportPercent is a percentage (0-100) of the viewport size.
	ViewportPercent
	// MarginPx is the parent size plus a pixel amount.
	MarginPx
	// MarginEm is the parent size plus an em amount.
	MarginEm
	// MarginRem is the parent size plus a rem amount.
	MarginRem
)

var unitNames = [...]string{"px", "%", "em", "rem", "vp", "%+px", "%+em", "%+rem"}

func (u Unit) String() string {
	if int(u) < len(unitNames) {
		return unitNames[u]
	}
	return fmt.Sprintf("Unit(%d)", int(u))
}

// IsRelative reports whether the unit depends on the parent size.
func (u Unit) IsRelative() bool {
	switch u {
	case Percent, MarginPx, MarginEm, MarginRem:
		return true
	}
	return false
}

// Ref pins the reference axis of a relative or viewport length. RefAuto
// uses the axis the length is resolved on.
type Ref int

const (
	RefAuto Ref = iota
	RefWidth
	RefHeight
)

func (r Ref) axis(fallback Axis) Axis {
	switch r {
	case RefWidth:
		return AxisX
	case RefHeight:
		return AxisY
	}
	return fallback
}

// Length is a scalar with a unit.
type Length struct {
	Unit  Unit
	Value float64
	Ref   Ref
}

func Px(v float64) Length       { return Length{Unit: Pixels, Value: v} }
func Pct(v float64) Length      { return Length{Unit: Percent, Value: v} }
func Ems(v float64) Length      { return Length{Unit: Em, Value: v} }
func Rems(v float64) Length     { return Length{Unit: Rem, Value: v} }
func Vw(v float64) Length       { return Length{Unit: ViewportPercent, Value: v, Ref: RefWidth} }
func Vh(v float64) Length       { return Length{Unit: ViewportPercent, Value: v, Ref: RefHeight} }
func Viewport(v float64) Length { return Length{Unit: ViewportPercent, Value: v} }

// Of returns a copy of l whose relative reference is pinned to ref.
func (l Length) Of(ref Ref) Length {
	l.Ref = ref
	return l
}

// IsRelative reports whether l depends on the parent size.
func (l Length) IsRelative() bool { return l.Unit.IsRelative() }

func (l Length) String() string {
	switch l.Unit {
	case Pixels:
		return fmt.Sprintf("%gpx", l.Value)
	case Percent:
		switch l.Ref {
		case RefWidth:
			return fmt.Sprintf("%g%%w", l.Value)
		case RefHeight:
			return fmt.Sprintf("%g%%h", l.Value)
		}
		return fmt.Sprintf("%g%%", l.Value)
	case Em:
		return fmt.Sprintf("%gem", l.Value)
	case Rem:
		return fmt.Sprintf("%grem", l.Value)
	case ViewportPercent:
		switch l.Ref {
		case RefWidth:
			return fmt.Sprintf("%gvw", l.Value)
		case RefHeight:
			return fmt.Sprintf("%gvh", l.Value)
		}
		return fmt.Sprintf("%gvp", l.Value)
	case MarginPx:
		return fmt.Sprintf("100%%%+gpx", l.Value)
	case MarginEm:
		return fmt.Sprintf("100%%%+gem", l.Value)
	case MarginRem:
		return fmt.Sprintf("100%%%+grem", l.Value)
	}
	return fmt.Sprintf("%g?", l.Value)
}

// Context carries the values lengths are resolved against.
type Context struct {
	Parent   geom.Vec2
	Em       float64
	Rem      float64
	Viewport geom.Vec2
}

// Resolve converts l to pixels along axis. The boolean is false when an
// input or the result was not finite; the returned value is then 0.
func (l Length) Resolve(axis Axis, ctx Context) (float64, bool) {
	parent := ctx.Parent.Axis(int(l.Ref.axis(axis)))
	var v float64
	switch l.Unit {
	case Pixels:
		v = l.Value
	case Percent:
		v = l.Value / 100 * parent
	case Em:
		v = l.Value * ctx.Em
	case Rem:
		v = l.Value * ctx.Rem
	case ViewportPercent:
		v = l.Value / 100 * ctx.Viewport.Axis(int(l.Ref.axis(axis)))
	case MarginPx:
		v = parent + l.Value
	case MarginEm:
		v = parent + l.Value*ctx.Em
	case MarginRem:
		v = parent + l.Value*ctx.Rem
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Size2 is a context sensitive 2D size or offset.
type Size2 struct {
	X Length
	Y Length
}

// Pixels2 returns a pixel Size2.
func Pixels2(x, y float64) Size2 { return Size2{Px(x), Px(y)} }

// Percent2 returns a percent-of-parent Size2.
func Percent2(x, y float64) Size2 { return Size2{Pct(x), Pct(y)} }

// Ems2 returns an em-relative Size2.
func Ems2(x, y float64) Size2 { return Size2{Ems(x), Ems(y)} }

// FromVec returns a pixel Size2 from v.
func FromVec(v geom.Vec2) Size2 { return Pixels2(v.X, v.Y) }

// IsRelative reports whether either component depends on the parent size.
func (s Size2) IsRelative() bool { return s.X.IsRelative() || s.Y.IsRelative() }

// Resolve converts both components. The boolean is false if either
// component had to be clamped.
func (s Size2) Resolve(ctx Context) (geom.Vec2, bool) {
	x, okx := s.X.Resolve(AxisX, ctx)
	y, oky := s.Y.Resolve(AxisY, ctx)
	return geom.V(x, y), okx && oky
}

// FontSizeKind selects how a FontSize is interpreted.
type FontSizeKind int

const (
	// FontInherit keeps the parent's em size.
	FontInherit FontSizeKind = iota
	FontPixels
	FontEms
	FontRems
)

// FontSize sets the em size of a node and its descendants.
type FontSize struct {
	Kind  FontSizeKind
	Value float64
}

// Resolve returns the em size for a node whose parent em is parentEm.
// Non-finite or negative results fall back to parentEm with ok=false.
func (f FontSize) Resolve(parentEm, rem float64) (float64, bool) {
	var v float64
	switch f.Kind {
	case FontPixels:
		v = f.Value
	case FontEms:
		v = f.Value * parentEm
	case FontRems:
		v = f.Value * rem
	default:
		return parentEm, true
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return parentEm, false
	}
	return v, true
}
