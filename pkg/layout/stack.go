package layout

import "github.com/matzehuels/anchorlay/pkg/geom"

// arrangeStack places children one after another from the leading edge of
// the content box.
func (s Strategy) arrangeStack(children []Item, content geom.Vec2, slots []Slot) {
	a := s.Direction.Axis()
	sign := s.Direction.sign()
	lead := -sign * content.Axis(a) / 2

	var cursor float64
	for i, c := range children {
		ext := c.Size.Axis(a)
		main := lead + sign*(cursor+ext/2)
		cross := align(s.Alignment, content.Axis(1-a), c.Size.Axis(1-a))
		slots[i] = sized(geom.Zero.WithAxis(a, main).WithAxis(1-a, cross), c.Size)
		cursor += ext + s.Spacing
	}
}

// align returns the center of an extent of size ext inside a span of
// size total centered at zero.
func align(al Alignment, total, ext float64) float64 {
	switch al {
	case AlignStart:
		return (ext - total) / 2
	case AlignEnd:
		return (total - ext) / 2
	}
	return 0
}

// arrangeSpan packs children into three groups by their main-axis anchor:
// negative anchors at the leading edge, zero in the middle, positive at the
// trailing edge. Groups keep insertion order along the flow direction. On
// the cross axis the slot spans the content box so the child's own anchor
// aligns it.
func (s Strategy) arrangeSpan(children []Item, content geom.Vec2, slots []Slot) {
	a := s.Direction.Axis()
	sign := s.Direction.sign()
	half := content.Axis(a) / 2

	var groups [3][]int
	for i, c := range children {
		g := 1
		switch f := c.Anchor.Axis(a) * sign; {
		case f < 0:
			g = 0
		case f > 0:
			g = 2
		}
		groups[g] = append(groups[g], i)
	}

	for g, idx := range groups {
		if len(idx) == 0 {
			continue
		}
		var total float64
		for k, i := range idx {
			if k > 0 {
				total += s.Spacing
			}
			total += children[i].Size.Axis(a)
		}

		var start float64
		switch g {
		case 0:
			start = -half
		case 1:
			start = -total / 2
		case 2:
			start = half - total
		}

		cursor := start
		for _, i := range idx {
			c := children[i]
			ext := c.Size.Axis(a)
			main := sign * (cursor + ext/2)
			cursor += ext + s.Spacing
			slots[i] = Slot{
				Center: geom.Zero.WithAxis(a, main),
				Half:   geom.Zero.WithAxis(a, ext/2).WithAxis(1-a, content.Axis(1-a)/2),
				Placed: true,
			}
		}
	}
}
