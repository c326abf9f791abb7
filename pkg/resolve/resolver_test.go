package resolve

import (
	"context"
	stderrors "errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/anchorlay/pkg/anchor"
	"github.com/matzehuels/anchorlay/pkg/errors"
	"github.com/matzehuels/anchorlay/pkg/geom"
	"github.com/matzehuels/anchorlay/pkg/layout"
	"github.com/matzehuels/anchorlay/pkg/tree"
	"github.com/matzehuels/anchorlay/pkg/units"
)

// collector records emits in order.
type collector struct {
	order []tree.NodeID
	byID  map[tree.NodeID]Transform
}

func newCollector() *collector {
	return &collector{byID: make(map[tree.NodeID]Transform)}
}

func (c *collector) Emit(id tree.NodeID, t Transform) {
	c.order = append(c.order, id)
	c.byID[id] = t
}

func attrs(name string, dim layout.Dimension) tree.Attributes {
	a := tree.DefaultAttributes()
	a.Name = name
	a.Dimension = dim
	return a
}

func withLayout(a tree.Attributes, s layout.Strategy) tree.Attributes {
	a.Layout = &s
	return a
}

func resolve(t *testing.T, r *Resolver, p Provider, m Measurer, viewport geom.Vec2) (*Result, *collector) {
	t.Helper()
	c := newCollector()
	res, err := r.Resolve(context.Background(), p, m, StaticContext{Size: viewport}, c)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	return res, c
}

func hasDiag(res *Result, id tree.NodeID, code DiagnosticCode) bool {
	for _, d := range res.Diagnostics {
		if d.Node == id && d.Code == code {
			return true
		}
	}
	return false
}

func TestStackCentersFromLeftEdge(t *testing.T) {
	tr := tree.New()
	root := tr.MustAdd(tree.None, withLayout(attrs("row", layout.Percent(100, 100)), layout.Stack(layout.LeftToRight, 10, layout.AlignStart)))
	var kids []tree.NodeID
	for _, w := range []float64{20, 30, 40} {
		kids = append(kids, tr.MustAdd(root, attrs("box", layout.Fixed(w, 10))))
	}

	res, c := resolve(t, New(nil), tr, nil, geom.V(200, 100))

	want := []float64{10, 45, 90}
	for i, id := range kids {
		got := c.byID[id]
		if !geom.ApproxEqual(got.Center.X, want[i], 1e-9) {
			t.Errorf("child %d center x = %v, want %v", i, got.Center.X, want[i])
		}
		if !geom.ApproxEqual(got.Center.Y, 5, 1e-9) {
			t.Errorf("child %d center y = %v, want 5", i, got.Center.Y)
		}
	}
	if res.Emitted != 4 {
		t.Errorf("Emitted = %d, want 4", res.Emitted)
	}
}

func TestEmitOrderIsPreOrder(t *testing.T) {
	tr := tree.New()
	root := tr.MustAdd(tree.None, attrs("root", layout.Fixed(100, 100)))
	a := tr.MustAdd(root, attrs("a", layout.Fixed(10, 10)))
	a1 := tr.MustAdd(a, attrs("a1", layout.Fixed(5, 5)))
	b := tr.MustAdd(root, attrs("b", layout.Fixed(10, 10)))
	second := tr.MustAdd(tree.None, attrs("overlay", layout.Fixed(10, 10)))

	_, c := resolve(t, New(nil), tr, nil, geom.V(100, 100))

	if diff := cmp.Diff([]tree.NodeID{root, a, a1, b, second}, c.order); diff != "" {
		t.Errorf("emit order mismatch (-want +got):\n%s", diff)
	}
	if got := c.byID[a1]; got.Parent != a || got.Depth != 2 {
		t.Errorf("a1 parent/depth = %d/%d, want %d/2", got.Parent, got.Depth, a)
	}
}

func TestIdempotent(t *testing.T) {
	tr := tree.New()
	root := tr.MustAdd(tree.None, withLayout(attrs("root", layout.Dynamic()), layout.Paragraph(layout.LeftToRight, 70, 3, 4, layout.AlignCenter)))
	for i := 0; i < 7; i++ {
		a := attrs("word", layout.Fixed(float64(10+i*3), 12))
		a.Offset.Rotation = 0.1 * float64(i)
		tr.MustAdd(root, a)
	}
	rotated := attrs("spin", layout.Percent(20, 20))
	rotated.Offset = anchor.AnchorOffset{Anchor: anchor.TopRight, Rotation: 1.3, Scale: geom.V(1.5, 0.5)}
	tr.MustAdd(tree.None, rotated)

	r := New(nil)
	_, first := resolve(t, r, tr, nil, geom.V(320, 240))
	_, second := resolve(t, r, tr, nil, geom.V(320, 240))

	if diff := cmp.Diff(first.byID, second.byID); diff != "" {
		t.Errorf("second pass differs (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(first.order, second.order); diff != "" {
		t.Errorf("emit order differs (-first +second):\n%s", diff)
	}
}

func TestInvalidGridSkipsSubtree(t *testing.T) {
	tr := tree.New()
	root := tr.MustAdd(tree.None, attrs("root", layout.Fixed(100, 100)))
	grid := tr.MustAdd(root, withLayout(attrs("grid", layout.Fixed(50, 50)), layout.Strategy{Kind: layout.KindGrid, Columns: 0, Rows: 2}))
	tr.MustAdd(grid, attrs("cell", layout.Fixed(5, 5)))
	tr.MustAdd(grid, attrs("cell", layout.Fixed(5, 5)))
	sibling := tr.MustAdd(root, attrs("sibling", layout.Fixed(10, 10)))

	res, c := resolve(t, New(nil), tr, nil, geom.V(100, 100))

	if diff := cmp.Diff([]tree.NodeID{root, sibling}, c.order); diff != "" {
		t.Errorf("emits mismatch (-want +got):\n%s", diff)
	}
	if len(res.Skipped) != 1 || !errors.Is(res.Skipped[0], errors.ErrCodeInvalidLayout) {
		t.Errorf("Skipped = %v, want one INVALID_LAYOUT error", res.Skipped)
	}
}

// links is a Provider whose parent and child lists can disagree.
type links struct {
	roots    []tree.NodeID
	children map[tree.NodeID][]tree.NodeID
	parents  map[tree.NodeID]tree.NodeID
}

func (l links) Roots() []tree.NodeID                    { return l.roots }
func (l links) ChildrenOf(id tree.NodeID) []tree.NodeID { return l.children[id] }
func (l links) AttributesOf(tree.NodeID) (tree.Attributes, bool) {
	return attrs("n", layout.Fixed(1, 1)), true
}
func (l links) ParentOf(id tree.NodeID) (tree.NodeID, bool) {
	p, ok := l.parents[id]
	return p, ok
}

func TestMalformedRootIsSkipped(t *testing.T) {
	tests := []struct {
		name      string
		p         links
		wantEmits []tree.NodeID
		wantErr   error
	}{
		{
			name: "child claims unknown parent",
			p: links{
				roots:    []tree.NodeID{0, 5},
				children: map[tree.NodeID][]tree.NodeID{0: {1}, 5: {6}},
				parents:  map[tree.NodeID]tree.NodeID{1: 0, 6: 999},
			},
			wantEmits: []tree.NodeID{0, 1},
			wantErr:   tree.ErrChildMismatch,
		},
		{
			name: "node shared by two roots",
			p: links{
				roots:    []tree.NodeID{0, 2},
				children: map[tree.NodeID][]tree.NodeID{0: {1}, 2: {1}},
				parents:  map[tree.NodeID]tree.NodeID{1: 0},
			},
			wantEmits: []tree.NodeID{0, 1},
			wantErr:   tree.ErrDuplicate,
		},
		{
			name: "root claims a parent",
			p: links{
				roots:    []tree.NodeID{3, 4},
				parents:  map[tree.NodeID]tree.NodeID{3: 4},
				children: map[tree.NodeID][]tree.NodeID{},
			},
			wantEmits: []tree.NodeID{4},
			wantErr:   tree.ErrParentMissing,
		},
		{
			name: "only root malformed",
			p: links{
				roots:    []tree.NodeID{0},
				children: map[tree.NodeID][]tree.NodeID{0: {1}, 1: {0}},
				parents:  map[tree.NodeID]tree.NodeID{1: 0},
			},
			wantErr: tree.ErrCycle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCollector()
			res, err := New(nil).Resolve(context.Background(), tt.p, nil, StaticContext{Size: geom.V(10, 10)}, c)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if diff := cmp.Diff(tt.wantEmits, c.order); diff != "" {
				t.Errorf("emits mismatch (-want +got):\n%s", diff)
			}
			if len(res.Skipped) != 1 {
				t.Fatalf("Skipped = %v, want one error", res.Skipped)
			}
			if !errors.Is(res.Skipped[0], errors.ErrCodeInvalidTree) {
				t.Errorf("Skipped[0] = %v, want INVALID_TREE", res.Skipped[0])
			}
			if !stderrors.Is(res.Skipped[0], tt.wantErr) {
				t.Errorf("Skipped[0] = %v, want cause %v", res.Skipped[0], tt.wantErr)
			}
		})
	}
}

func TestPercentOfContentSizedParent(t *testing.T) {
	tr := tree.New()
	root := tr.MustAdd(tree.None, attrs("root", layout.Fixed(200, 200)))
	col := tr.MustAdd(root, withLayout(attrs("col", layout.Dynamic()), layout.VStack(0)))
	pct := tr.MustAdd(col, attrs("pct", layout.Percent(50, 50)))
	tr.MustAdd(col, attrs("fixed", layout.Fixed(10, 20)))

	res, c := resolve(t, New(nil), tr, nil, geom.V(200, 200))

	if got := c.byID[col].Size; got != geom.V(10, 20) {
		t.Errorf("column size = %v, want (10, 20)", got)
	}
	if got := c.byID[pct].Size; got != geom.Zero {
		t.Errorf("percent child size = %v, want (0, 0)", got)
	}
	if !hasDiag(res, pct, DiagPercentOfContentSized) {
		t.Errorf("missing %s diagnostic: %v", DiagPercentOfContentSized, res.Diagnostics)
	}
}

func TestPercentOfContentSizedParentMixedAxes(t *testing.T) {
	tr := tree.New()
	root := tr.MustAdd(tree.None, attrs("root", layout.Fixed(200, 200)))
	row := tr.MustAdd(root, withLayout(attrs("row", layout.Dynamic()), layout.HStack(0)))
	mixed := tr.MustAdd(row, attrs("mixed", layout.Owned(units.Size2{X: units.Pct(50), Y: units.Px(20)})))
	aspect := tr.MustAdd(row, attrs("aspect", layout.Aspect(2, units.AxisX, units.Pct(50))))
	tr.MustAdd(row, attrs("fixed", layout.Fixed(10, 8)))

	res, c := resolve(t, New(nil), tr, nil, geom.V(200, 200))

	for name, id := range map[string]tree.NodeID{"mixed": mixed, "aspect": aspect} {
		if got := c.byID[id].Size; got != geom.Zero {
			t.Errorf("%s size = %v, want (0, 0)", name, got)
		}
		if !hasDiag(res, id, DiagPercentOfContentSized) {
			t.Errorf("%s: missing %s diagnostic", name, DiagPercentOfContentSized)
		}
	}
	if got := c.byID[row].Size; got != geom.V(10, 8) {
		t.Errorf("row size = %v, want (10, 8)", got)
	}
}

func TestDynamicIncludesPadding(t *testing.T) {
	tr := tree.New()
	root := tr.MustAdd(tree.None, attrs("root", layout.Fixed(200, 200)))
	row := tr.MustAdd(root, withLayout(attrs("row", layout.Dynamic()), layout.HStack(5).WithPadding(geom.V(4, 2))))
	first := tr.MustAdd(row, attrs("a", layout.Fixed(10, 10)))
	tr.MustAdd(row, attrs("b", layout.Fixed(20, 6)))

	_, c := resolve(t, New(nil), tr, nil, geom.V(200, 200))

	if got := c.byID[row].Size; got != geom.V(43, 14) {
		t.Errorf("row size = %v, want (43, 14)", got)
	}
	// The row is centered at (100,100); its content starts 4px in.
	if got := c.byID[first].Center; !got.ApproxEqual(geom.V(100-21.5+4+5, 100), 1e-9) {
		t.Errorf("first child center = %v", got)
	}
}

func TestMeasurement(t *testing.T) {
	tr := tree.New()
	root := tr.MustAdd(tree.None, attrs("root", layout.Fixed(300, 100)))
	label := tr.MustAdd(root, attrs("label", layout.Copied()))

	res, c := resolve(t, New(nil), tr, nil, geom.V(300, 100))
	if got := c.byID[label].Size; got != geom.Zero {
		t.Errorf("unmeasured size = %v, want (0, 0)", got)
	}
	if !hasDiag(res, label, DiagMeasureUnavailable) {
		t.Errorf("missing %s diagnostic", DiagMeasureUnavailable)
	}

	var gotAvail geom.Vec2
	m := MeasureFunc(func(id tree.NodeID, available geom.Vec2) (geom.Vec2, bool) {
		gotAvail = available
		return geom.V(30, 12), true
	})
	res, c = resolve(t, New(nil), tr, m, geom.V(300, 100))
	if got := c.byID[label].Size; got != geom.V(30, 12) {
		t.Errorf("measured size = %v, want (30, 12)", got)
	}
	if gotAvail != geom.V(300, 100) {
		t.Errorf("available = %v, want parent box (300, 100)", gotAvail)
	}
	if len(res.Diagnostics) != 0 {
		t.Errorf("unexpected diagnostics: %v", res.Diagnostics)
	}
}

func TestFontSizePropagation(t *testing.T) {
	tr := tree.New()
	ra := attrs("root", layout.Fixed(400, 400))
	ra.FontSize = units.FontSize{Kind: units.FontPixels, Value: 20}
	root := tr.MustAdd(tree.None, ra)

	pa := attrs("panel", layout.Fixed(200, 200))
	pa.FontSize = units.FontSize{Kind: units.FontEms, Value: 1.5}
	panel := tr.MustAdd(root, pa)

	em := tr.MustAdd(panel, attrs("em", layout.EmSize(2, 1)))
	rem := tr.MustAdd(panel, attrs("rem", layout.Owned(units.Size2{X: units.Rems(2), Y: units.Rems(1)})))

	_, c := resolve(t, New(nil), tr, nil, geom.V(400, 400))

	if got := c.byID[panel].Em; got != 30 {
		t.Errorf("panel em = %v, want 30", got)
	}
	if got := c.byID[em].Size; got != geom.V(60, 30) {
		t.Errorf("em-sized child = %v, want (60, 30)", got)
	}
	if got := c.byID[rem].Size; got != geom.V(32, 16) {
		t.Errorf("rem-sized child = %v, want (32, 16)", got)
	}
}

func TestAspectAndMargin(t *testing.T) {
	tr := tree.New()
	root := tr.MustAdd(tree.None, attrs("root", layout.Fixed(200, 100)))
	aspect := tr.MustAdd(root, attrs("aspect", layout.Aspect(2, units.AxisX, units.Pct(50))))
	margin := tr.MustAdd(root, attrs("margin", layout.Owned(units.Size2{
		X: units.Length{Unit: units.MarginPx, Value: -20},
		Y: units.Length{Unit: units.MarginEm, Value: -1},
	})))

	_, c := resolve(t, New(nil), tr, nil, geom.V(200, 100))

	if got := c.byID[aspect].Size; got != geom.V(100, 50) {
		t.Errorf("aspect size = %v, want (100, 50)", got)
	}
	if got := c.byID[margin].Size; got != geom.V(180, 84) {
		t.Errorf("margin size = %v, want (180, 84)", got)
	}
}

func TestRotatedParentAnchors(t *testing.T) {
	tr := tree.New()
	ra := attrs("root", layout.Fixed(100, 100))
	ra.Offset.Rotation = math.Pi / 2
	root := tr.MustAdd(tree.None, ra)

	ca := attrs("corner", layout.Fixed(10, 10))
	ca.Offset.Anchor = anchor.TopLeft
	corner := tr.MustAdd(root, ca)

	_, c := resolve(t, New(nil), tr, nil, geom.V(400, 400))

	parent := c.byID[root].Rect()
	child := c.byID[corner].Rect()
	if got, want := child.Point(anchor.TopLeft), parent.Point(anchor.TopLeft); !got.ApproxEqual(want, 1e-9) {
		t.Errorf("child pivot = %v, want parent corner %v", got, want)
	}
	if !parent.Point(anchor.TopLeft).ApproxEqual(geom.V(250, 150), 1e-9) {
		t.Errorf("parent corner = %v, want (250, 150)", parent.Point(anchor.TopLeft))
	}
}

func TestOpacityZAndVisibility(t *testing.T) {
	tr := tree.New()
	ra := attrs("root", layout.Fixed(100, 100))
	ra.Opacity, ra.Z = 0.5, 1
	root := tr.MustAdd(tree.None, ra)

	ha := attrs("hidden", layout.Fixed(50, 50))
	ha.Opacity, ha.Z, ha.Visible = 0.5, 2, false
	hidden := tr.MustAdd(root, ha)

	la := attrs("leaf", layout.Fixed(10, 10))
	la.Z = 0.5
	leaf := tr.MustAdd(hidden, la)

	_, c := resolve(t, New(nil), tr, nil, geom.V(100, 100))

	got := c.byID[leaf]
	if got.Opacity != 0.25 || got.Z != 3.5 || got.Visible {
		t.Errorf("leaf opacity/z/visible = %v/%v/%v, want 0.25/3.5/false", got.Opacity, got.Z, got.Visible)
	}
	if len(c.order) != 3 {
		t.Errorf("invisible nodes must still be emitted, got %d emits", len(c.order))
	}
}

func TestGridOverflowDiagnostic(t *testing.T) {
	g, err := layout.NewGrid(1, 1, layout.CellsUniform, geom.Zero)
	if err != nil {
		t.Fatal(err)
	}
	tr := tree.New()
	root := tr.MustAdd(tree.None, withLayout(attrs("grid", layout.Fixed(100, 100)), g))
	tr.MustAdd(root, attrs("in", layout.Fixed(10, 10)))
	extra := tr.MustAdd(root, attrs("extra", layout.Fixed(10, 10)))

	res, c := resolve(t, New(nil), tr, nil, geom.V(100, 100))
	if !hasDiag(res, extra, DiagGridOverflow) {
		t.Errorf("missing %s diagnostic", DiagGridOverflow)
	}
	// Overflowing children fall back to their own placement.
	if got := c.byID[extra].Center; got != geom.V(50, 50) {
		t.Errorf("overflow child center = %v, want (50, 50)", got)
	}
}

func TestNonFiniteInputsRecover(t *testing.T) {
	tr := tree.New()
	root := tr.MustAdd(tree.None, attrs("root", layout.Fixed(100, 100)))
	ba := attrs("bad", layout.Fixed(math.Inf(1), 10))
	ba.Offset.Rotation = math.NaN()
	bad := tr.MustAdd(root, ba)

	res, c := resolve(t, New(nil), tr, nil, geom.V(100, 100))

	got := c.byID[bad]
	if !got.Center.Finite() || got.Rotation != 0 || got.Size != geom.V(0, 10) {
		t.Errorf("bad node = %+v, want finite center, zero rotation, size (0, 10)", got)
	}
	if !hasDiag(res, bad, DiagNonFinite) {
		t.Errorf("missing %s diagnostic", DiagNonFinite)
	}
}

func TestContentCacheInvalidation(t *testing.T) {
	tr := tree.New()
	root := tr.MustAdd(tree.None, attrs("root", layout.Fixed(300, 100)))
	row := tr.MustAdd(root, withLayout(attrs("row", layout.Dynamic()), layout.HStack(0)))
	tr.MustAdd(row, attrs("a", layout.Fixed(10, 10)))
	tr.MustAdd(row, attrs("b", layout.Fixed(10, 10)))

	r := New(nil)
	res, _ := resolve(t, r, tr, nil, geom.V(300, 100))
	if res.CacheMisses != 1 || res.CacheHits != 0 {
		t.Errorf("pass 1 hits/misses = %d/%d, want 0/1", res.CacheHits, res.CacheMisses)
	}

	res, _ = resolve(t, r, tr, nil, geom.V(300, 100))
	if res.CacheHits != 1 || res.CacheMisses != 0 {
		t.Errorf("pass 2 hits/misses = %d/%d, want 1/0", res.CacheHits, res.CacheMisses)
	}

	tr.MustAdd(row, attrs("c", layout.Fixed(10, 10)))
	res, c := resolve(t, r, tr, nil, geom.V(300, 100))
	if res.CacheMisses != 1 {
		t.Errorf("pass 3 misses = %d, want 1 after adding a child", res.CacheMisses)
	}
	if got := c.byID[row].Size; got != geom.V(30, 10) {
		t.Errorf("row size = %v, want (30, 10)", got)
	}

	if err := tr.Remove(row); err != nil {
		t.Fatal(err)
	}
	resolve(t, r, tr, nil, geom.V(300, 100))
	if n := r.cache.count(); n != 0 {
		t.Errorf("cache holds %d entries for removed parents", n)
	}
}

func TestCancellation(t *testing.T) {
	tr := tree.New()
	root := tr.MustAdd(tree.None, attrs("root", layout.Fixed(100, 100)))
	tr.MustAdd(root, attrs("a", layout.Fixed(10, 10)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := New(nil)
	if _, err := r.Resolve(ctx, tr, nil, StaticContext{Size: geom.V(100, 100)}, newCollector()); err != context.Canceled {
		t.Fatalf("Resolve() error = %v, want context.Canceled", err)
	}
	if !tr.AnyDirty() {
		t.Error("canceled pass cleared dirty flags")
	}

	_, c := resolve(t, r, tr, nil, geom.V(100, 100))
	if len(c.order) != 2 {
		t.Errorf("pass after cancel emitted %d nodes, want 2", len(c.order))
	}
}

func TestStaticContextDefaults(t *testing.T) {
	c := StaticContext{Size: geom.V(10, 20)}
	if c.RootEm() != DefaultRootEm {
		t.Errorf("RootEm() = %v, want %v", c.RootEm(), DefaultRootEm)
	}
	if c.Viewport() != geom.V(10, 20) {
		t.Errorf("Viewport() = %v", c.Viewport())
	}
}

func TestNilArguments(t *testing.T) {
	_, err := New(nil).Resolve(context.Background(), tree.New(), nil, nil, newCollector())
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Resolve(nil context) error = %v, want INVALID_INPUT", err)
	}
}
