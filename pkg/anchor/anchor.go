// Package anchor places child rectangles relative to a parent rectangle.
//
// A child is positioned by pinning a point on the child (its anchor) to a
// point on the parent (the parent anchor), displaced by an offset. Both
// anchors are fractions of the half extents: (-1,-1) is the top-left corner,
// (0,0) the center and (1,1) the bottom-right corner.
package anchor

import (
	"fmt"
	"math"

	"github.com/matzehuels/anchorlay/pkg/geom"
	"github.com/matzehuels/anchorlay/pkg/units"
)

// Anchor is a fractional point on a rectangle in [-1,1]².
type Anchor = geom.Vec2

// Canonical anchors.
var (
	TopLeft      = Anchor{X: -1, Y: -1}
	TopCenter    = Anchor{X: 0, Y: -1}
	TopRight     = Anchor{X: 1, Y: -1}
	CenterLeft   = Anchor{X: -1, Y: 0}
	Center       = Anchor{X: 0, Y: 0}
	CenterRight  = Anchor{X: 1, Y: 0}
	BottomLeft   = Anchor{X: -1, Y: 1}
	BottomCenter = Anchor{X: 0, Y: 1}
	BottomRight  = Anchor{X: 1, Y: 1}
)

var names = map[string]Anchor{
	"top_left":      TopLeft,
	"top_center":    TopCenter,
	"top_right":     TopRight,
	"center_left":   CenterLeft,
	"center":        Center,
	"center_right":  CenterRight,
	"bottom_left":   BottomLeft,
	"bottom_center": BottomCenter,
	"bottom_right":  BottomRight,
}

// Lookup returns the canonical anchor for a name such as "top_left".
// Hyphens and spaces are accepted in place of underscores.
func Lookup(name string) (Anchor, error) {
	key := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c == '-' || c == ' ':
			c = '_'
		case c >= 'A' && c <= 'Z':
			c += 'a' - 'A'
		}
		key = append(key, c)
	}
	a, ok := names[string(key)]
	if !ok {
		return Anchor{}, fmt.Errorf("unknown anchor %q", name)
	}
	return a, nil
}

// Valid reports whether a is finite and inside [-1,1]².
func Valid(a Anchor) bool {
	return a.Finite() && math.Abs(a.X) <= 1 && math.Abs(a.Y) <= 1
}

// AnchorOffset describes how a child is attached to its parent.
type AnchorOffset struct {
	// Anchor is the pivot on the child.
	Anchor Anchor
	// ParentAnchor is the attachment point on the parent. Nil means Anchor.
	ParentAnchor *Anchor
	// Offset displaces the child, resolved against the parent context.
	Offset units.Size2
	// Rotation is relative to the parent, in radians.
	Rotation float64
	// Scale is relative to the parent. The zero value means (1,1).
	Scale geom.Vec2
}

// At returns an AnchorOffset pinned at a with no offset.
func At(a Anchor) AnchorOffset { return AnchorOffset{Anchor: a} }

// WithParent returns a copy of ao attached at parent anchor p.
func (ao AnchorOffset) WithParent(p Anchor) AnchorOffset {
	ao.ParentAnchor = &p
	return ao
}

// ParentPoint returns the effective parent anchor.
func (ao AnchorOffset) ParentPoint() Anchor {
	if ao.ParentAnchor != nil {
		return *ao.ParentAnchor
	}
	return ao.Anchor
}

// EffectiveScale returns Scale, treating the zero value as (1,1).
func (ao AnchorOffset) EffectiveScale() geom.Vec2 {
	if ao.Scale.IsZero() {
		return geom.One
	}
	return ao.Scale
}

// Place computes the world rectangle of a child of size childSize attached
// to parent by ao. offset is ao.Offset already resolved to pixels.
//
// The parent's scale applies to the offset and to the child, so nested
// scaling composes.
func Place(childSize geom.Vec2, ao AnchorOffset, offset geom.Vec2, parent geom.Rectangle) geom.Rectangle {
	local := parent.HalfExtents.Mul(ao.ParentPoint())
	return PlaceAt(childSize, ao, local.Add(offset), parent)
}

// PlaceAt is like Place but attaches the child at an explicit point in the
// parent's unscaled, unrotated local frame (origin at the parent center).
// Layout strategies use it to place children into slots.
func PlaceAt(childSize geom.Vec2, ao AnchorOffset, local geom.Vec2, parent geom.Rectangle) geom.Rectangle {
	ps := parent.Scale
	if ps.IsZero() {
		ps = geom.One
	}
	scale := ps.Mul(ao.EffectiveScale())
	rotation := parent.Rotation + ao.Rotation

	half := childSize.Half().ClampNonNegative()
	pivot := half.Mul(ao.Anchor)

	point := parent.Center.Add(local.Mul(ps).Rotate(parent.Rotation))
	center := point.Sub(pivot.Mul(scale).Rotate(rotation))

	return geom.Rectangle{
		Center:      center,
		HalfExtents: half,
		Rotation:    rotation,
		Scale:       scale,
		Z:           parent.Z,
	}
}

// Pivot returns the world position of the child's anchor point. For a rect
// produced by Place it equals the parent attachment point plus offset.
func Pivot(r geom.Rectangle, a Anchor) geom.Vec2 {
	return r.Point(a)
}
