// Package resolve computes world transforms for a tree of anchored
// rectangles.
//
// A pass has two phases. The size phase walks the tree depth first: nodes
// with an explicit size resolve it from their parent's content box before
// their children, content-sized nodes after them. The placement phase walks
// the tree in pre-order, arranges each parent's children with its layout
// strategy and pins every child into place with [anchor.PlaceAt]. Each node
// is emitted to the [Sink] exactly once, in placement order.
//
// Problems are isolated per branch. A root whose subtree is malformed is
// reported before anything is emitted and dropped; the other roots still
// resolve. An invalid layout strategy drops only its own subtree. Numeric problems (NaN inputs, a percentage of a content-sized
// parent, a missing measurement) are recovered by falling back to zero and
// reported as [Diagnostic] values.
package resolve

import (
	"fmt"
	"math"
	"time"

	"github.com/matzehuels/anchorlay/pkg/geom"
	"github.com/matzehuels/anchorlay/pkg/tree"
)

// DefaultRootEm is the root font size used when a context reports none.
const DefaultRootEm = 16

// Provider is the tree a pass reads. *tree.Tree implements it.
type Provider interface {
	tree.Structure
	AttributesOf(id tree.NodeID) (tree.Attributes, bool)
}

// Versioned is implemented by providers that track changes. The resolver
// uses it to invalidate cached content sizes and to clear dirty flags
// after a successful pass; the Scheduler uses it to skip clean frames.
type Versioned interface {
	ChildGeneration(id tree.NodeID) uint64
	Dirty(id tree.NodeID) bool
	AnyDirty() bool
	ClearDirty()
}

// Measurer reports the intrinsic size of Copied nodes. It must return
// immediately; ok=false means the content is not ready yet.
type Measurer interface {
	Measure(id tree.NodeID, available geom.Vec2) (size geom.Vec2, ok bool)
}

// EmMeasurer is a Measurer whose result depends on the node's font size.
// The resolver calls MeasureEm with the em it resolved for the node in the
// current pass, so root em changes reach the measurement.
type EmMeasurer interface {
	Measurer
	MeasureEm(id tree.NodeID, available geom.Vec2, em float64) (size geom.Vec2, ok bool)
}

// MeasureFunc adapts a function to Measurer.
type MeasureFunc func(id tree.NodeID, available geom.Vec2) (geom.Vec2, bool)

func (f MeasureFunc) Measure(id tree.NodeID, available geom.Vec2) (geom.Vec2, bool) {
	return f(id, available)
}

// ContextProvider supplies the values roots are resolved against.
type ContextProvider interface {
	Viewport() geom.Vec2
	RootEm() float64
}

// StaticContext is a fixed ContextProvider.
type StaticContext struct {
	Size geom.Vec2
	Rem  float64
}

// Viewport returns the viewport size.
func (c StaticContext) Viewport() geom.Vec2 { return c.Size }

// RootEm returns Rem, or DefaultRootEm when Rem is zero.
func (c StaticContext) RootEm() float64 {
	if c.Rem == 0 {
		return DefaultRootEm
	}
	return c.Rem
}

// Sink receives resolved transforms.
type Sink interface {
	Emit(id tree.NodeID, t Transform)
}

// Transform is the resolved placement of one node.
type Transform struct {
	Node   tree.NodeID `json:"id"`
	Parent tree.NodeID `json:"parent"`
	Name   string      `json:"name,omitempty"`

	// Center and HalfExtents are in world space; HalfExtents includes scale.
	Center      geom.Vec2 `json:"center"`
	HalfExtents geom.Vec2 `json:"half_extents"`
	// Size is the unscaled size of the node.
	Size     geom.Vec2 `json:"size"`
	Rotation float64   `json:"rotation"`
	Scale    geom.Vec2 `json:"scale"`

	Em      float64 `json:"em"`
	Z       float64 `json:"z"`
	Opacity float64 `json:"opacity"`
	Visible bool    `json:"visible"`
	Depth   int     `json:"depth"`
}

// Rect returns the transform as a world rectangle.
func (t Transform) Rect() geom.Rectangle {
	return geom.Rectangle{
		Center:      t.Center,
		HalfExtents: t.Size.Half(),
		Rotation:    t.Rotation,
		Scale:       t.Scale,
		Z:           t.Z,
	}
}

// DiagnosticCode classifies a recovered problem.
type DiagnosticCode string

const (
	DiagNonFinite             DiagnosticCode = "non_finite"
	DiagPercentOfContentSized DiagnosticCode = "percent_of_content_sized"
	DiagMeasureUnavailable    DiagnosticCode = "measure_unavailable"
	DiagContentUnavailable    DiagnosticCode = "content_unavailable"
	DiagGridOverflow          DiagnosticCode = "grid_overflow"
	DiagDegenerateAspect      DiagnosticCode = "degenerate_aspect"
)

// Diagnostic is an advisory message about one node. Node is tree.None for
// problems with the resolution context itself.
type Diagnostic struct {
	Node    tree.NodeID    `json:"node"`
	Code    DiagnosticCode `json:"code"`
	Message string         `json:"message"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("node %d: %s: %s", d.Node, d.Code, d.Message)
}

// Result summarizes a pass.
type Result struct {
	PassID      string
	Emitted     int
	Diagnostics []Diagnostic
	// Skipped holds one error per dropped subtree: INVALID_TREE for a
	// malformed root, INVALID_LAYOUT for an invalid strategy.
	Skipped  []error
	Duration time.Duration

	CacheHits   int
	CacheMisses int
}

// sanitize replaces non-finite attribute values with neutral ones and
// reports what it changed.
func sanitize(a *tree.Attributes) []string {
	var fixed []string
	if !a.Offset.Anchor.Finite() {
		a.Offset.Anchor = geom.Zero
		fixed = append(fixed, "anchor")
	}
	if a.Offset.ParentAnchor != nil && !a.Offset.ParentAnchor.Finite() {
		a.Offset.ParentAnchor = nil
		fixed = append(fixed, "parent anchor")
	}
	if !geom.Finite(a.Offset.Rotation) {
		a.Offset.Rotation = 0
		fixed = append(fixed, "rotation")
	}
	if !a.Offset.Scale.Finite() {
		a.Offset.Scale = geom.One
		fixed = append(fixed, "scale")
	}
	if !geom.Finite(a.Z) {
		a.Z = 0
		fixed = append(fixed, "z")
	}
	if !geom.Finite(a.Opacity) {
		a.Opacity = 1
		fixed = append(fixed, "opacity")
	}
	a.Opacity = math.Min(1, math.Max(0, a.Opacity))
	return fixed
}
