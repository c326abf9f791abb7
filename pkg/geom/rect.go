package geom

// Rectangle is an axis-aligned box before rotation.
//
// HalfExtents is the unscaled half size of the box. The box covers
// HalfExtents⊙Scale on either side of Center in its own rotated frame.
type Rectangle struct {
	Center      Vec2    `json:"center"`
	HalfExtents Vec2    `json:"half_extents"`
	Rotation    float64 `json:"rotation"`
	Scale       Vec2    `json:"scale"`
	Z           float64 `json:"z"`
}

// RectFromSize returns an unrotated, unscaled rectangle centered at center.
func RectFromSize(center, size Vec2) Rectangle {
	return Rectangle{
		Center:      center,
		HalfExtents: size.Half().ClampNonNegative(),
		Scale:       One,
	}
}

// Viewport returns the rectangle that covers a viewport of the given size
// with its top-left corner at the origin.
func Viewport(size Vec2) Rectangle {
	return RectFromSize(size.Half(), size)
}

// Size returns the unscaled full size.
func (r Rectangle) Size() Vec2 { return r.HalfExtents.Scale(2) }

// WorldHalfExtents returns the half extents with scale applied.
func (r Rectangle) WorldHalfExtents() Vec2 { return r.HalfExtents.Mul(r.Scale).Abs() }

// Point returns the world position of the fractional point frac, where
// (-1,-1) is the top-left and (1,1) the bottom-right corner.
func (r Rectangle) Point(frac Vec2) Vec2 {
	return r.Center.Add(r.HalfExtents.Mul(frac).Mul(r.Scale).Rotate(r.Rotation))
}

// Corners returns the four world corners in top-left, top-right,
// bottom-right, bottom-left order.
func (r Rectangle) Corners() [4]Vec2 {
	return [4]Vec2{
		r.Point(V(-1, -1)),
		r.Point(V(1, -1)),
		r.Point(V(1, 1)),
		r.Point(V(-1, 1)),
	}
}

// Bounds returns the axis-aligned bounding box of the rotated rectangle
// as min and max corners.
func (r Rectangle) Bounds() (min, max Vec2) {
	cs := r.Corners()
	min, max = cs[0], cs[0]
	for _, c := range cs[1:] {
		min = min.Min(c)
		max = max.Max(c)
	}
	return min, max
}

// ApproxEqual compares two rectangles component-wise within eps.
func (r Rectangle) ApproxEqual(o Rectangle, eps float64) bool {
	return r.Center.ApproxEqual(o.Center, eps) &&
		r.HalfExtents.ApproxEqual(o.HalfExtents, eps) &&
		ApproxEqual(r.Rotation, o.Rotation, eps) &&
		r.Scale.ApproxEqual(o.Scale, eps) &&
		ApproxEqual(r.Z, o.Z, eps)
}
