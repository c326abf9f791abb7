package layout

import (
	"errors"
	"math"

	"github.com/matzehuels/anchorlay/pkg/geom"
	"github.com/matzehuels/anchorlay/pkg/units"
)

// DimensionKind selects how a node's size is determined.
type DimensionKind int

const (
	// DimOwned resolves each axis from a [units.Length].
	DimOwned DimensionKind = iota
	// DimCopied asks the measurement provider for the intrinsic content size.
	DimCopied
	// DimAspect resolves one axis and derives the other from a ratio.
	DimAspect
	// DimDynamic sizes the node from its layout's content plus padding.
	DimDynamic
)

var dimensionNames = [...]string{"owned", "copied", "aspect", "dynamic"}

func (k DimensionKind) String() string {
	if int(k) < len(dimensionNames) {
		return dimensionNames[k]
	}
	return "unknown"
}

// Dimension is the sizing rule of a node. Construct it with [Fixed],
// [Percent], [PercentOf], [FontRelative], [Owned], [Copied], [Aspect] or
// [Dynamic].
type Dimension struct {
	Kind DimensionKind

	// Size is used by DimOwned.
	Size units.Size2

	// Ratio (width / height), DrivenBy and Length are used by DimAspect.
	Ratio    float64
	DrivenBy units.Axis
	Length   units.Length
}

// Sentinel errors returned by Dimension.Resolve. Neither is fatal: the size
// is still usable and the caller reports a diagnostic.
var (
	ErrNonFinite        = errors.New("non-finite size")
	ErrDegenerateAspect = errors.New("degenerate aspect ratio")
)

// Dimension constructors.
func Fixed(w, h float64) Dimension       { return Owned(units.Pixels2(w, h)) }
func Percent(w, h float64) Dimension     { return Owned(units.Percent2(w, h)) }
func FontRelative(ems float64) Dimension { return Owned(units.Ems2(ems, ems)) }
func EmSize(w, h float64) Dimension      { return Owned(units.Ems2(w, h)) }
func Owned(s units.Size2) Dimension      { return Dimension{Kind: DimOwned, Size: s} }
func Copied() Dimension                  { return Dimension{Kind: DimCopied} }
func Dynamic() Dimension                 { return Dimension{Kind: DimDynamic} }

// PercentOf sizes both axes as a percentage of a single parent axis.
func PercentOf(w, h float64, ref units.Ref) Dimension {
	return Owned(units.Size2{X: units.Pct(w).Of(ref), Y: units.Pct(h).Of(ref)})
}

// Aspect locks width/height to ratio. The axis named by drivenBy is
// resolved from length; the other axis follows.
func Aspect(ratio float64, drivenBy units.Axis, length units.Length) Dimension {
	return Dimension{Kind: DimAspect, Ratio: ratio, DrivenBy: drivenBy, Length: length}
}

// IsRelative reports whether the size depends on the parent size.
func (d Dimension) IsRelative() bool {
	switch d.Kind {
	case DimOwned:
		return d.Size.IsRelative()
	case DimAspect:
		return d.Length.IsRelative()
	}
	return false
}

// IsContentSized reports whether the size comes from content rather than
// from the parent context.
func (d Dimension) IsContentSized() bool {
	return d.Kind == DimCopied || d.Kind == DimDynamic
}

// Resolve computes the size of a DimOwned or DimAspect dimension. Other
// kinds return (0,0); the resolver sizes them from content.
//
// The result is always finite and non-negative. ErrNonFinite or
// ErrDegenerateAspect is returned when a value had to be clamped.
func (d Dimension) Resolve(ctx units.Context) (geom.Vec2, error) {
	switch d.Kind {
	case DimOwned:
		v, ok := d.Size.Resolve(ctx)
		v = v.ClampNonNegative()
		if !ok {
			return v, ErrNonFinite
		}
		return v, nil

	case DimAspect:
		l, ok := d.Length.Resolve(d.DrivenBy, ctx)
		l = math.Max(0, l)
		if !ok {
			return geom.Zero, ErrNonFinite
		}
		if !geom.Finite(d.Ratio) || d.Ratio <= 0 {
			return geom.Zero.WithAxis(int(d.DrivenBy), l), ErrDegenerateAspect
		}
		if d.DrivenBy == units.AxisX {
			return geom.V(l, l/d.Ratio), nil
		}
		return geom.V(l*d.Ratio, l), nil
	}
	return geom.Zero, nil
}
