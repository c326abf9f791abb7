package sink

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/matzehuels/anchorlay/pkg/anchor"
	"github.com/matzehuels/anchorlay/pkg/geom"
	"github.com/matzehuels/anchorlay/pkg/layout"
	"github.com/matzehuels/anchorlay/pkg/resolve"
	"github.com/matzehuels/anchorlay/pkg/tree"
)

// sample builds a 200x100 viewport with a panel and two stacked children,
// the second of them hidden.
func sample(t *testing.T) (*tree.Tree, Frame) {
	t.Helper()
	tr := tree.New()

	pa := tree.DefaultAttributes()
	pa.Name = "panel"
	pa.Offset = anchor.At(anchor.TopLeft)
	pa.Dimension = layout.Fixed(100, 40)
	st := layout.HStack(0)
	pa.Layout = &st
	panel := tr.MustAdd(tree.None, pa)

	a := tree.DefaultAttributes()
	a.Name = "a"
	a.Dimension = layout.Fixed(20, 20)
	a.Z = 1
	tr.MustAdd(panel, a)

	b := a
	b.Name = "b"
	b.Visible = false
	b.Offset.Rotation = math.Pi / 2
	tr.MustAdd(panel, b)

	rc := resolve.StaticContext{Size: geom.V(200, 100)}
	c := NewCollector()
	res, err := resolve.New(nil).Resolve(context.Background(), tr, nil, rc, c)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	return tr, NewFrame(rc, c.Transforms(), res)
}

func TestCollectorOrder(t *testing.T) {
	c := NewCollector()
	c.Emit(3, resolve.Transform{Node: 3})
	c.Emit(1, resolve.Transform{Node: 1})
	c.Emit(3, resolve.Transform{Node: 3, Z: 5})

	if diff := cmp.Diff([]tree.NodeID{3, 1}, c.Order()); diff != "" {
		t.Errorf("Order() mismatch (-want +got):\n%s", diff)
	}
	if got, _ := c.Get(3); got.Z != 5 {
		t.Errorf("Get(3).Z = %v, want replaced value 5", got.Z)
	}
	c.Reset()
	if c.Len() != 0 {
		t.Errorf("Len() after Reset = %d", c.Len())
	}
}

func TestMulti(t *testing.T) {
	var n int
	c := NewCollector()
	s := Multi(c, Func(func(tree.NodeID, resolve.Transform) { n++ }))
	s.Emit(0, resolve.Transform{})
	s.Emit(1, resolve.Transform{})
	if n != 2 || c.Len() != 2 {
		t.Errorf("emits: func=%d collector=%d, want 2 and 2", n, c.Len())
	}
}

func TestNewFrame(t *testing.T) {
	_, f := sample(t)

	if f.Width != 200 || f.Height != 100 || f.Rem != resolve.DefaultRootEm {
		t.Errorf("frame header = %vx%v rem %v", f.Width, f.Height, f.Rem)
	}
	if f.PassID == "" {
		t.Error("PassID is empty")
	}
	if len(f.Nodes) != 3 {
		t.Fatalf("len(Nodes) = %d, want 3", len(f.Nodes))
	}

	want := []Node{
		{ID: 0, Name: "panel", Parent: tree.None, X: 50, Y: 20, Width: 100, Height: 40, ScaleX: 1, ScaleY: 1, Em: 16, Opacity: 1, Visible: true},
		{ID: 1, Name: "a", Parent: 0, X: 10, Y: 20, Width: 20, Height: 20, ScaleX: 1, ScaleY: 1, Em: 16, Z: 1, Opacity: 1, Visible: true, Depth: 1},
		{ID: 2, Name: "b", Parent: 0, X: 30, Y: 20, Width: 20, Height: 20, Rotation: 90, ScaleX: 1, ScaleY: 1, Em: 16, Z: 1, Opacity: 1, Depth: 1},
	}
	if diff := cmp.Diff(want, f.Nodes, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("Nodes mismatch (-want +got):\n%s", diff)
	}
}

func TestNodeTransform(t *testing.T) {
	n := Node{ID: 4, Parent: 1, X: 10, Y: 20, Width: 8, Height: 6, Rotation: 180, ScaleX: 2, ScaleY: -1, Em: 12, Opacity: 1, Visible: true}
	tr := n.Transform()

	if !tr.HalfExtents.ApproxEqual(geom.V(8, 3), 1e-12) {
		t.Errorf("HalfExtents = %v, want (8, 3)", tr.HalfExtents)
	}
	if math.Abs(tr.Rotation-math.Pi) > 1e-12 {
		t.Errorf("Rotation = %v, want pi", tr.Rotation)
	}
	if diff := cmp.Diff(n, nodeOf(tr), cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("nodeOf(Transform()) mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderJSON(t *testing.T) {
	_, f := sample(t)

	data, err := RenderJSON(f)
	if err != nil {
		t.Fatalf("RenderJSON() error: %v", err)
	}
	for _, key := range []string{`"width": 200`, `"scale_x": 1`, `"visible": false`, `"parent": -1`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("JSON missing %s", key)
		}
	}

	got, err := ReadJSON(data)
	if err != nil {
		t.Fatalf("ReadJSON() error: %v", err)
	}
	if diff := cmp.Diff(f, got); diff != "" {
		t.Errorf("ReadJSON(RenderJSON()) mismatch (-want +got):\n%s", diff)
	}

	if _, err := ReadJSON([]byte("{")); err == nil {
		t.Error("ReadJSON() accepted truncated input")
	}
}

func TestRenderSVG(t *testing.T) {
	tr, f := sample(t)

	svg := string(RenderSVG(f, WithLabels()))
	if !strings.HasPrefix(svg, "<svg") || !strings.HasSuffix(svg, "</svg>\n") {
		t.Fatalf("RenderSVG() is not an svg document:\n%s", svg)
	}
	if !strings.Contains(svg, `viewBox="0 0 200.0 100.0"`) {
		t.Error("RenderSVG() viewBox does not match the viewport")
	}
	if !strings.Contains(svg, `id="node-1"`) || strings.Contains(svg, `id="node-2"`) {
		t.Error("RenderSVG() should draw visible nodes only")
	}
	if !strings.Contains(svg, ">panel</text>") {
		t.Error("RenderSVG() missing label")
	}
	if strings.Index(svg, `id="node-0"`) > strings.Index(svg, `id="node-1"`) {
		t.Error("RenderSVG() draws the higher z node first")
	}

	b, _ := tr.Find("b")
	hidden := string(RenderSVG(f, WithHidden(), WithTexts(map[tree.NodeID]string{b: "x<y"})))
	if !strings.Contains(hidden, "stroke-dasharray") {
		t.Error("WithHidden() did not outline the hidden node")
	}
	if !strings.Contains(hidden, "x&lt;y") {
		t.Error("WithTexts() text was not escaped")
	}
}

func TestToDOT(t *testing.T) {
	_, f := sample(t)

	dot := ToDOT(f, DOTOptions{})
	for _, want := range []string{"digraph G", `n0 [label="panel"]`, "n0 -> n1;", "n0 -> n2;", "dashed"} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() missing %q", want)
		}
	}
	if strings.Contains(dot, "-> n0") {
		t.Error("ToDOT() drew an edge into the root")
	}

	detailed := ToDOT(f, DOTOptions{Detailed: true})
	if !strings.Contains(detailed, `100x40 @ (50, 20)`) {
		t.Errorf("ToDOT() detailed label missing geometry:\n%s", detailed)
	}
}

func TestDOTLabelUnnamed(t *testing.T) {
	if got := dotLabel(Node{ID: 7}, false); got != "#7" {
		t.Errorf("dotLabel() = %q, want #7", got)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="10pt" height="20pt" viewBox="0.00 0.00 10.00 20.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	got := string(normalizeViewBox(in))
	if !strings.HasPrefix(got, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10.00 20.00" width="10" height="20">`) {
		t.Errorf("normalizeViewBox() = %s", got)
	}
	if plain := []byte("<svg></svg>"); string(normalizeViewBox(plain)) != "<svg></svg>" {
		t.Error("normalizeViewBox() changed an svg without viewBox")
	}
}
