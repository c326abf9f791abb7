// Package layout implements the per-parent arrangement strategies and node
// sizing rules.
//
// A [Strategy] is a closed tagged variant: Free, Stack, Span, Grid,
// Paragraph and Bounds. Given the sizes of a parent's children it produces
// one [Slot] per child and, for content-sized parents, the size of the
// arranged content.
//
// Slots live in the parent's content-box frame: the origin is the parent
// center and the box spans ±content/2 on each axis. A child attached to a
// slot has its pivot at Slot.Center + Slot.Half⊙anchor, so a slot exactly
// the child's size centers the child in it whatever its anchor, while a
// larger slot (a grid cell, a line) aligns the child by its anchor.
package layout

import (
	"fmt"
	"math"

	"github.com/matzehuels/anchorlay/pkg/errors"
	"github.com/matzehuels/anchorlay/pkg/geom"
)

// Kind selects the arrangement algorithm.
type Kind int

const (
	KindFree Kind = iota
	KindStack
	KindSpan
	KindGrid
	KindParagraph
	KindBounds
)

var kindNames = [...]string{"free", "stack", "span", "grid", "paragraph", "bounds"}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Direction is the main-axis flow of a stack, span or paragraph.
type Direction int

const (
	LeftToRight Direction = iota
	RightToLeft
	TopToBottom
	BottomToTop
)

var directionNames = [...]string{"left_to_right", "right_to_left", "top_to_bottom", "bottom_to_top"}

func (d Direction) String() string {
	if d >= 0 && int(d) < len(directionNames) {
		return directionNames[d]
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// Axis returns the main axis index (0 = x, 1 = y).
func (d Direction) Axis() int {
	if d == TopToBottom || d == BottomToTop {
		return 1
	}
	return 0
}

// sign is +1 when the flow runs toward increasing coordinates.
func (d Direction) sign() float64 {
	if d == RightToLeft || d == BottomToTop {
		return -1
	}
	return 1
}

// ParseDirection accepts the names printed by Direction.String plus the
// short forms "ltr", "rtl", "ttb" and "btt".
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "", "ltr", "left_to_right", "horizontal":
		return LeftToRight, nil
	case "rtl", "right_to_left":
		return RightToLeft, nil
	case "ttb", "top_to_bottom", "vertical":
		return TopToBottom, nil
	case "btt", "bottom_to_top":
		return BottomToTop, nil
	}
	return 0, errors.New(errors.ErrCodeInvalidLayout, "unknown direction %q", s)
}

// Alignment positions children on the cross axis of a stack, or lines on
// the main axis of a paragraph.
type Alignment int

const (
	AlignStart Alignment = iota
	AlignCenter
	AlignEnd
)

// ParseAlignment accepts "start", "center" and "end".
func ParseAlignment(s string) (Alignment, error) {
	switch s {
	case "", "start":
		return AlignStart, nil
	case "center", "middle":
		return AlignCenter, nil
	case "end":
		return AlignEnd, nil
	}
	return 0, errors.New(errors.ErrCodeInvalidLayout, "unknown alignment %q", s)
}

// CellPolicy controls how grid cells are sized.
type CellPolicy int

const (
	// CellsUniform makes every cell the size of the largest child.
	CellsUniform CellPolicy = iota
	// CellsTracks sizes each column and row from its largest child.
	CellsTracks
	// CellsDivide splits the parent's content box evenly.
	CellsDivide
)

// ParseCellPolicy accepts "uniform", "tracks" and "divide".
func ParseCellPolicy(s string) (CellPolicy, error) {
	switch s {
	case "", "uniform":
		return CellsUniform, nil
	case "tracks", "auto":
		return CellsTracks, nil
	case "divide", "fixed":
		return CellsDivide, nil
	}
	return 0, errors.New(errors.ErrCodeInvalidLayout, "unknown cell policy %q", s)
}

// Strategy is the arrangement rule of a parent node. The fields a Kind
// does not use are ignored.
type Strategy struct {
	Kind      Kind
	Direction Direction
	Alignment Alignment

	// Spacing is the gap between consecutive children on the main axis.
	// For grids it is the column gap.
	Spacing float64
	// LineSpacing is the gap between paragraph lines, or grid rows.
	LineSpacing float64
	// Padding is inset on each side of the parent before arranging.
	Padding geom.Vec2

	Columns int
	Rows    int
	Cells   CellPolicy

	// WrapWidth bounds a paragraph line. Zero wraps at the parent's
	// content extent when it is known.
	WrapWidth float64
}

// Item is what a strategy knows about a child.
type Item struct {
	// Size is the child's extent in the parent frame (size ⊙ own scale).
	Size geom.Vec2
	// Anchor is the child's pivot fraction.
	Anchor geom.Vec2
	// Linebreak marks a paragraph line break. It occupies no space.
	Linebreak bool
}

// Slot is the region a strategy assigns to a child, in the parent's
// content-box frame.
type Slot struct {
	Center geom.Vec2
	Half   geom.Vec2
	// Placed is false when the child keeps its own anchor-offset.
	Placed bool
}

// Pivot returns the parent-local point the child's anchor is pinned to.
func (s Slot) Pivot(anchor geom.Vec2) geom.Vec2 {
	return s.Center.Add(s.Half.Mul(anchor))
}

// Free returns the identity strategy.
func Free() Strategy { return Strategy{Kind: KindFree} }

// Stack returns a sequential stack.
func Stack(dir Direction, spacing float64, align Alignment) Strategy {
	return Strategy{Kind: KindStack, Direction: dir, Spacing: spacing, Alignment: align}
}

// HStack is a left-to-right stack with centered cross alignment.
func HStack(spacing float64) Strategy { return Stack(LeftToRight, spacing, AlignCenter) }

// VStack is a top-to-bottom stack with centered cross alignment.
func VStack(spacing float64) Strategy { return Stack(TopToBottom, spacing, AlignCenter) }

// Span returns a span that packs children into leading, centered and
// trailing groups by the sign of their main-axis anchor.
func Span(dir Direction, spacing float64) Strategy {
	return Strategy{Kind: KindSpan, Direction: dir, Spacing: spacing}
}

// NewGrid returns a grid strategy. columns and rows must be positive.
func NewGrid(columns, rows int, cells CellPolicy, spacing geom.Vec2) (Strategy, error) {
	s := Strategy{
		Kind:        KindGrid,
		Columns:     columns,
		Rows:        rows,
		Cells:       cells,
		Spacing:     spacing.X,
		LineSpacing: spacing.Y,
	}
	if err := s.Validate(); err != nil {
		return Strategy{}, err
	}
	return s, nil
}

// Paragraph returns a wrapping flow.
func Paragraph(dir Direction, wrapWidth, spacing, lineSpacing float64, align Alignment) Strategy {
	return Strategy{
		Kind:        KindParagraph,
		Direction:   dir,
		WrapWidth:   wrapWidth,
		Spacing:     spacing,
		LineSpacing: lineSpacing,
		Alignment:   align,
	}
}

// Bounds returns a strategy that keeps children's own placement inside the
// padded box and reports the largest child as content size.
func Bounds(padding geom.Vec2) Strategy {
	return Strategy{Kind: KindBounds, Padding: padding}
}

// WithPadding returns a copy of s with padding p on every side.
func (s Strategy) WithPadding(p geom.Vec2) Strategy {
	s.Padding = p
	return s
}

// Validate reports configuration errors with code INVALID_LAYOUT.
func (s Strategy) Validate() error {
	if s.Kind < KindFree || s.Kind > KindBounds {
		return errors.New(errors.ErrCodeInvalidLayout, "unknown layout kind %d", int(s.Kind))
	}
	if s.Direction < LeftToRight || s.Direction > BottomToTop {
		return errors.New(errors.ErrCodeInvalidLayout, "unknown direction %d", int(s.Direction))
	}
	for _, v := range []float64{s.Spacing, s.LineSpacing, s.Padding.X, s.Padding.Y, s.WrapWidth} {
		if !geom.Finite(v) {
			return errors.New(errors.ErrCodeInvalidLayout, "%s layout has non-finite spacing or padding", s.Kind)
		}
	}
	if s.Padding.X < 0 || s.Padding.Y < 0 {
		return errors.New(errors.ErrCodeInvalidLayout, "%s layout has negative padding", s.Kind)
	}
	if s.Kind == KindGrid {
		if s.Columns <= 0 {
			return errors.New(errors.ErrCodeInvalidLayout, "grid needs at least one column, got %d", s.Columns)
		}
		if s.Rows <= 0 {
			return errors.New(errors.ErrCodeInvalidLayout, "grid needs at least one row, got %d", s.Rows)
		}
		if s.Columns > MaxGridCells/s.Rows {
			return errors.New(errors.ErrCodeInvalidLayout, "grid %dx%d exceeds %d cells", s.Columns, s.Rows, MaxGridCells)
		}
		if s.Cells < CellsUniform || s.Cells > CellsDivide {
			return errors.New(errors.ErrCodeInvalidLayout, "unknown cell policy %d", int(s.Cells))
		}
	}
	return nil
}

// ContentBox returns the space left for children inside a parent of the
// given size.
func (s Strategy) ContentBox(parent geom.Vec2) geom.Vec2 {
	return parent.Sub(s.Padding.Scale(2)).ClampNonNegative()
}

// MaxGridCells bounds Columns*Rows of a grid.
const MaxGridCells = 1 << 16

// Capacity returns how many children the strategy places, or -1 when it
// places any number. A grid with an invalid shape places none.
func (s Strategy) Capacity() int {
	if s.Kind == KindGrid {
		if !s.gridShapeOK() {
			return 0
		}
		return s.Columns * s.Rows
	}
	return -1
}

// Arrange assigns a slot to every child. content is the parent's content
// box size. The result has the same length and order as children.
func (s Strategy) Arrange(children []Item, content geom.Vec2) []Slot {
	slots := make([]Slot, len(children))
	switch s.Kind {
	case KindStack:
		s.arrangeStack(children, content, slots)
	case KindSpan:
		s.arrangeSpan(children, content, slots)
	case KindGrid:
		s.arrangeGrid(children, content, slots)
	case KindParagraph:
		s.arrangeParagraph(children, content, slots)
	}
	return slots
}

// ContentSize returns the size of the arranged children, excluding
// padding. The boolean is false when the strategy cannot size its parent.
func (s Strategy) ContentSize(children []Item) (geom.Vec2, bool) {
	if len(children) == 0 {
		return geom.Zero, s.Kind != KindFree
	}
	switch s.Kind {
	case KindStack, KindSpan:
		return s.sequenceSize(children), true
	case KindGrid:
		return s.gridSize(children)
	case KindParagraph:
		return s.paragraphSize(children), true
	case KindBounds:
		var m geom.Vec2
		for _, c := range children {
			m = m.Max(c.Size)
		}
		return m, true
	}
	return geom.Zero, false
}

// sequenceSize sums extents on the main axis and takes the max on the
// cross axis.
func (s Strategy) sequenceSize(children []Item) geom.Vec2 {
	a := s.Direction.Axis()
	var main, cross float64
	for i, c := range children {
		if i > 0 {
			main += s.Spacing
		}
		main += c.Size.Axis(a)
		cross = math.Max(cross, c.Size.Axis(1-a))
	}
	return geom.Zero.WithAxis(a, main).WithAxis(1-a, cross)
}

// sized returns a slot exactly the size of the child, centered at center.
func sized(center, size geom.Vec2) Slot {
	return Slot{Center: center, Half: size.Half(), Placed: true}
}
