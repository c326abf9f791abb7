// Package measure provides measurement providers for Copied nodes.
//
// [Text] measures strings with a font face from golang.org/x/image, scaled
// to each node's em size. [Cells] measures strings in terminal cells using
// East Asian width rules, for character-grid hosts.
package measure

import (
	"math"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"github.com/matzehuels/anchorlay/pkg/geom"
	"github.com/matzehuels/anchorlay/pkg/resolve"
	"github.com/matzehuels/anchorlay/pkg/tree"
)

// DefaultLineHeight is the line height as a multiple of the em size.
const DefaultLineHeight = 1.2

// Text measures node text with a font face.
type Text struct {
	face       font.Face
	faceEm     float64
	texts      map[tree.NodeID]string
	ems        map[tree.NodeID]float64
	lineHeight float64
	wrap       bool
}

var _ resolve.EmMeasurer = (*Text)(nil)

// TextOption configures a Text measurer.
type TextOption func(*Text)

// WithFace sets the font face. The face's line height is taken as its em.
func WithFace(f font.Face) TextOption {
	return func(t *Text) { t.face = f }
}

// WithLineHeight sets the line height as a multiple of the em size.
func WithLineHeight(h float64) TextOption {
	return func(t *Text) { t.lineHeight = h }
}

// WithWrap enables word wrapping at the available width.
func WithWrap(on bool) TextOption {
	return func(t *Text) { t.wrap = on }
}

// NewText returns a measurer for texts. ems gives each node's em size in
// pixels for direct Measure calls; nodes missing from ems use
// resolve.DefaultRootEm. A resolution pass supplies the em itself.
func NewText(texts map[tree.NodeID]string, ems map[tree.NodeID]float64, opts ...TextOption) *Text {
	t := &Text{
		face:       basicfont.Face7x13,
		texts:      texts,
		ems:        ems,
		lineHeight: DefaultLineHeight,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.faceEm = float64(t.face.Metrics().Height) / 64
	if t.faceEm <= 0 {
		t.faceEm = 1
	}
	return t
}

// Measure implements resolve.Measurer at the em given to NewText. Nodes
// without text are reported as unavailable.
func (t *Text) Measure(id tree.NodeID, available geom.Vec2) (geom.Vec2, bool) {
	return t.MeasureEm(id, available, t.ems[id])
}

// MeasureEm implements resolve.EmMeasurer. A non-positive em falls back to
// resolve.DefaultRootEm.
func (t *Text) MeasureEm(id tree.NodeID, available geom.Vec2, em float64) (geom.Vec2, bool) {
	s, ok := t.texts[id]
	if !ok {
		return geom.Zero, false
	}
	if em <= 0 || math.IsNaN(em) {
		em = resolve.DefaultRootEm
	}
	scale := em / t.faceEm

	width := func(line string) float64 {
		return float64(font.MeasureString(t.face, line)) / 64 * scale
	}

	var lines []string
	for _, para := range strings.Split(s, "\n") {
		if t.wrap && available.X > 0 && !math.IsInf(available.X, 1) {
			lines = append(lines, wrapLine(para, available.X, width, width(" "))...)
		} else {
			lines = append(lines, para)
		}
	}

	var w float64
	for _, line := range lines {
		w = math.Max(w, width(line))
	}
	return geom.V(w, float64(len(lines))*em*t.lineHeight), true
}

// wrapLine greedily breaks s at spaces so no line exceeds limit. A word
// longer than limit keeps a line of its own.
func wrapLine(s string, limit float64, width func(string) float64, space float64) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return []string{""}
	}
	var lines []string
	cur := words[0]
	curW := width(cur)
	for _, w := range words[1:] {
		ww := width(w)
		if curW+space+ww > limit {
			lines = append(lines, cur)
			cur, curW = w, ww
			continue
		}
		cur += " " + w
		curW += space + ww
	}
	return append(lines, cur)
}

// Cells measures node text in character cells.
type Cells struct {
	texts map[tree.NodeID]string
	cell  geom.Vec2
}

// NewCells returns a cell measurer. cell is the pixel size of one cell.
func NewCells(texts map[tree.NodeID]string, cell geom.Vec2) *Cells {
	return &Cells{texts: texts, cell: cell}
}

// Measure implements resolve.Measurer.
func (c *Cells) Measure(id tree.NodeID, _ geom.Vec2) (geom.Vec2, bool) {
	s, ok := c.texts[id]
	if !ok {
		return geom.Zero, false
	}
	lines := strings.Split(s, "\n")
	cols := 0
	for _, line := range lines {
		cols = max(cols, runewidth.StringWidth(line))
	}
	return geom.V(float64(cols)*c.cell.X, float64(len(lines))*c.cell.Y), true
}

// Ems computes the em size of every node in t the way a resolution pass
// does, starting from the root em rem.
func Ems(t *tree.Tree, rem float64) map[tree.NodeID]float64 {
	out := make(map[tree.NodeID]float64, t.Len())
	var visit func(id tree.NodeID, parentEm float64)
	visit = func(id tree.NodeID, parentEm float64) {
		a, _ := t.AttributesOf(id)
		em, _ := a.FontSize.Resolve(parentEm, rem)
		out[id] = em
		for _, c := range t.ChildrenOf(id) {
			visit(c, em)
		}
	}
	for _, r := range t.Roots() {
		visit(r, rem)
	}
	return out
}
