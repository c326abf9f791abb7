package measure

import (
	"testing"

	"github.com/matzehuels/anchorlay/pkg/geom"
	"github.com/matzehuels/anchorlay/pkg/resolve"
	"github.com/matzehuels/anchorlay/pkg/tree"
	"github.com/matzehuels/anchorlay/pkg/units"
)

// basicfont.Face7x13 is 7px wide per glyph and 13px tall, so an em of 13
// measures at scale 1.
func TestTextMeasure(t *testing.T) {
	texts := map[tree.NodeID]string{1: "hello", 2: "ab\ncde", 3: "aa bb cc"}
	ems := map[tree.NodeID]float64{1: 13, 2: 13, 3: 13}

	tests := []struct {
		name      string
		m         *Text
		id        tree.NodeID
		available geom.Vec2
		want      geom.Vec2
	}{
		{"single line", NewText(texts, ems, WithLineHeight(1)), 1, geom.V(1000, 1000), geom.V(35, 13)},
		{"default line height", NewText(texts, ems), 1, geom.V(1000, 1000), geom.V(35, 15.6)},
		{"explicit newline", NewText(texts, ems, WithLineHeight(1)), 2, geom.V(1000, 1000), geom.V(21, 26)},
		{"wrapped", NewText(texts, ems, WithLineHeight(1), WithWrap(true)), 3, geom.V(40, 100), geom.V(35, 26)},
		{"no wrap", NewText(texts, ems, WithLineHeight(1)), 3, geom.V(40, 100), geom.V(56, 13)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.m.Measure(tt.id, tt.available)
			if !ok {
				t.Fatal("Measure() ok = false")
			}
			if !got.ApproxEqual(tt.want, 1e-9) {
				t.Errorf("Measure() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTextScalesWithEm(t *testing.T) {
	m := NewText(map[tree.NodeID]string{0: "abcd"}, map[tree.NodeID]float64{0: 26}, WithLineHeight(1))
	got, _ := m.Measure(0, geom.V(1000, 1000))
	if !got.ApproxEqual(geom.V(56, 26), 1e-9) {
		t.Errorf("Measure() = %v, want (56, 26)", got)
	}
}

func TestTextMeasureEm(t *testing.T) {
	m := NewText(map[tree.NodeID]string{0: "abcd"}, map[tree.NodeID]float64{0: 13}, WithLineHeight(1))

	tests := []struct {
		name string
		em   float64
		want geom.Vec2
	}{
		{"pass em overrides stored em", 26, geom.V(56, 26)},
		{"face em", 13, geom.V(28, 13)},
		{"zero falls back to default", 0, geom.V(28*resolve.DefaultRootEm/13, resolve.DefaultRootEm)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := m.MeasureEm(0, geom.V(1000, 1000), tt.em)
			if !ok || !got.ApproxEqual(tt.want, 1e-9) {
				t.Errorf("MeasureEm(%v) = %v, %v, want %v", tt.em, got, ok, tt.want)
			}
		})
	}
}

func TestTextUnknownNode(t *testing.T) {
	m := NewText(nil, nil)
	if _, ok := m.Measure(7, geom.V(10, 10)); ok {
		t.Error("Measure() ok = true for a node without text")
	}
}

func TestCells(t *testing.T) {
	m := NewCells(map[tree.NodeID]string{0: "日本", 1: "ab\nabcdef"}, geom.V(8, 16))

	if got, _ := m.Measure(0, geom.Zero); got != geom.V(32, 16) {
		t.Errorf("wide runes = %v, want (32, 16)", got)
	}
	if got, _ := m.Measure(1, geom.Zero); got != geom.V(48, 32) {
		t.Errorf("two lines = %v, want (48, 32)", got)
	}
}

func TestEms(t *testing.T) {
	tr := tree.New()
	ra := tree.DefaultAttributes()
	ra.FontSize = units.FontSize{Kind: units.FontPixels, Value: 20}
	root := tr.MustAdd(tree.None, ra)

	ca := tree.DefaultAttributes()
	ca.FontSize = units.FontSize{Kind: units.FontEms, Value: 2}
	child := tr.MustAdd(root, ca)
	leaf := tr.MustAdd(child, tree.DefaultAttributes())
	other := tr.MustAdd(tree.None, tree.DefaultAttributes())

	ems := Ems(tr, 16)
	want := map[tree.NodeID]float64{root: 20, child: 40, leaf: 40, other: 16}
	for id, w := range want {
		if ems[id] != w {
			t.Errorf("em[%d] = %v, want %v", id, ems[id], w)
		}
	}
}
