package anchor

import (
	"math"
	"testing"

	"github.com/matzehuels/anchorlay/pkg/geom"
)

var canonical = []Anchor{
	TopLeft, TopCenter, TopRight,
	CenterLeft, Center, CenterRight,
	BottomLeft, BottomCenter, BottomRight,
}

func TestPlaceUnrotated(t *testing.T) {
	parent := geom.Viewport(geom.V(200, 100))

	tests := []struct {
		name   string
		ao     AnchorOffset
		offset geom.Vec2
		want   geom.Vec2
	}{
		{"center", At(Center), geom.Zero, geom.V(100, 50)},
		{"top left", At(TopLeft), geom.Zero, geom.V(10, 5)},
		{"bottom right", At(BottomRight), geom.Zero, geom.V(190, 95)},
		{"top left with offset", At(TopLeft), geom.V(4, 6), geom.V(14, 11)},
		{"left pinned to parent center", At(CenterLeft).WithParent(Center), geom.Zero, geom.V(110, 50)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Place(geom.V(20, 10), tt.ao, tt.offset, parent)
			if !got.Center.ApproxEqual(tt.want, 1e-9) {
				t.Errorf("Center = %v, want %v", got.Center, tt.want)
			}
			if got.HalfExtents != geom.V(10, 5) {
				t.Errorf("HalfExtents = %v, want (10, 5)", got.HalfExtents)
			}
		})
	}
}

// The child's anchor point always lands on the parent's anchor point plus
// the offset, whatever the rotations involved.
func TestAnchorSymmetry(t *testing.T) {
	rotations := []float64{0, 0.3, math.Pi / 2, math.Pi, -2.1, 5}
	offset := geom.V(7, -3)

	for _, pr := range rotations {
		for _, cr := range rotations {
			parent := geom.RectFromSize(geom.V(40, 30), geom.V(120, 80))
			parent.Rotation = pr
			for _, a := range canonical {
				ao := AnchorOffset{Anchor: a, Rotation: cr}
				child := Place(geom.V(30, 18), ao, offset, parent)

				want := parent.Point(a).Add(offset.Rotate(pr))
				if got := child.Point(a); !got.ApproxEqual(want, 1e-9) {
					t.Fatalf("parent rot %v child rot %v anchor %v: pivot = %v, want %v", pr, cr, a, got, want)
				}
				if !geom.ApproxEqual(child.Rotation, pr+cr, 1e-12) {
					t.Fatalf("rotation = %v, want %v", child.Rotation, pr+cr)
				}
			}
		}
	}
}

func TestPlaceScale(t *testing.T) {
	parent := geom.RectFromSize(geom.Zero, geom.V(100, 100))
	parent.Scale = geom.V(2, 2)

	ao := AnchorOffset{Anchor: TopLeft, Scale: geom.V(0.5, 3)}
	child := Place(geom.V(10, 10), ao, geom.V(5, 0), parent)

	if child.Scale != geom.V(1, 6) {
		t.Errorf("Scale = %v, want (1, 6)", child.Scale)
	}
	// Parent top-left is at (-100,-100) in world space; the offset is scaled.
	if got := child.Point(TopLeft); !got.ApproxEqual(geom.V(-90, -100), 1e-9) {
		t.Errorf("pivot = %v, want (-90, -100)", got)
	}
}

// Placing a grandchild through a resolved parent matches placing it in the
// parent's local frame and then applying the parent's world transform.
func TestCompositionAssociative(t *testing.T) {
	root := geom.Viewport(geom.V(800, 600))

	midAO := AnchorOffset{Anchor: TopLeft, Rotation: 0.7, Scale: geom.V(1.5, 1.5)}
	mid := Place(geom.V(300, 200), midAO, geom.V(50, 40), root)

	leafAO := AnchorOffset{Anchor: BottomRight, Rotation: -0.4, Scale: geom.V(0.5, 2)}
	leafAO = leafAO.WithParent(CenterRight)
	leafOffset := geom.V(-12, 9)
	chained := Place(geom.V(40, 24), leafAO, leafOffset, mid)

	local := geom.Rectangle{HalfExtents: mid.HalfExtents, Scale: geom.One}
	inLocal := Place(geom.V(40, 24), leafAO, leafOffset, local)

	toWorld := func(p geom.Vec2) geom.Vec2 {
		return mid.Center.Add(p.Mul(mid.Scale).Rotate(mid.Rotation))
	}

	want := inLocal.Corners()
	got := chained.Corners()
	for i := range got {
		if w := toWorld(want[i]); !got[i].ApproxEqual(w, 1e-4) {
			t.Errorf("corner %d = %v, want %v", i, got[i], w)
		}
	}
}

func TestLookup(t *testing.T) {
	tests := []struct {
		in   string
		want Anchor
	}{
		{"top_left", TopLeft},
		{"Bottom-Right", BottomRight},
		{"center", Center},
		{"top center", TopCenter},
	}
	for _, tt := range tests {
		got, err := Lookup(tt.in)
		if err != nil {
			t.Errorf("Lookup(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Lookup(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if _, err := Lookup("middle"); err == nil {
		t.Error("Lookup(middle) succeeded, want error")
	}
}

func TestValid(t *testing.T) {
	if !Valid(geom.V(0.5, -1)) {
		t.Error("Valid((0.5,-1)) = false")
	}
	if Valid(geom.V(1.5, 0)) {
		t.Error("Valid((1.5,0)) = true")
	}
	if Valid(geom.V(math.NaN(), 0)) {
		t.Error("Valid(NaN) = true")
	}
}
