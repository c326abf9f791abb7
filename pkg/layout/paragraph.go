package layout

import (
	"math"

	"github.com/matzehuels/anchorlay/pkg/geom"
)

// line is a run of children that fit within the wrap width.
type line struct {
	items []int
	boxes int     // items that occupy space
	main  float64 // extent along the flow including spacing
	cross float64 // largest cross extent
}

// lines greedily packs children into lines no longer than wrap. A child
// longer than wrap gets a line of its own. A linebreak ends its line.
func (s Strategy) lines(children []Item, wrap float64) []line {
	a := s.Direction.Axis()
	var out []line
	var cur line
	for i, c := range children {
		if c.Linebreak {
			cur.items = append(cur.items, i)
			out = append(out, cur)
			cur = line{}
			continue
		}
		ext := c.Size.Axis(a)
		if cur.boxes > 0 && cur.main+s.Spacing+ext > wrap+geom.Epsilon {
			out = append(out, cur)
			cur = line{}
		}
		if cur.boxes > 0 {
			cur.main += s.Spacing
		}
		cur.items = append(cur.items, i)
		cur.boxes++
		cur.main += ext
		cur.cross = math.Max(cur.cross, c.Size.Axis(1-a))
	}
	if len(cur.items) > 0 || len(out) == 0 {
		out = append(out, cur)
	}
	return out
}

// wrapLimit returns the line length limit given the content extent on the
// main axis. A zero content extent means the parent is content-sized.
func (s Strategy) wrapLimit(contentMain float64) float64 {
	switch {
	case s.WrapWidth > 0:
		return s.WrapWidth
	case contentMain > 0:
		return contentMain
	}
	return math.Inf(1)
}

// arrangeParagraph lays lines along the flow and stacks them on the cross
// axis from the top (or left, for vertical flows) of the content box. Each
// child gets a slot as tall as its line so its anchor aligns it within the
// line.
func (s Strategy) arrangeParagraph(children []Item, content geom.Vec2, slots []Slot) {
	a := s.Direction.Axis()
	sign := s.Direction.sign()
	total := content.Axis(a)

	crossPos := -content.Axis(1-a) / 2
	for _, ln := range s.lines(children, s.wrapLimit(total)) {
		lead := -sign * total / 2
		var shift float64
		switch s.Alignment {
		case AlignCenter:
			shift = (total - ln.main) / 2
		case AlignEnd:
			shift = total - ln.main
		}

		cursor := shift
		placed := 0
		for _, i := range ln.items {
			c := children[i]
			ext := c.Size.Axis(a)
			if c.Linebreak {
				ext = 0
			} else {
				if placed > 0 {
					cursor += s.Spacing
				}
				placed++
			}
			main := lead + sign*(cursor+ext/2)
			cursor += ext
			slots[i] = Slot{
				Center: geom.Zero.WithAxis(a, main).WithAxis(1-a, crossPos+ln.cross/2),
				Half:   geom.Zero.WithAxis(a, ext/2).WithAxis(1-a, ln.cross/2),
				Placed: true,
			}
		}
		crossPos += ln.cross + s.LineSpacing
	}
}

func (s Strategy) paragraphSize(children []Item) geom.Vec2 {
	a := s.Direction.Axis()
	ls := s.lines(children, s.wrapLimit(0))
	var main, cross float64
	for i, ln := range ls {
		main = math.Max(main, ln.main)
		if i > 0 {
			cross += s.LineSpacing
		}
		cross += ln.cross
	}
	return geom.Zero.WithAxis(a, main).WithAxis(1-a, cross)
}
