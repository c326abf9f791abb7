package resolve

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/anchorlay/pkg/anchor"
	"github.com/matzehuels/anchorlay/pkg/errors"
	"github.com/matzehuels/anchorlay/pkg/geom"
	"github.com/matzehuels/anchorlay/pkg/layout"
	"github.com/matzehuels/anchorlay/pkg/observability"
	"github.com/matzehuels/anchorlay/pkg/tree"
	"github.com/matzehuels/anchorlay/pkg/units"
)

// Resolver runs resolution passes. The only state kept between passes is
// the content-size cache. Passes on one Resolver are serialized.
type Resolver struct {
	Logger *log.Logger

	mu    sync.Mutex
	cache contentCache
}

// New creates a resolver. A nil logger discards output.
func New(logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Resolver{Logger: logger}
}

// Reset drops the content-size cache.
func (r *Resolver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = contentCache{}
}

// Resolve runs one pass over p and emits every reachable node to sink.
//
// Tree structure is checked per root before any emit. A root whose subtree
// is malformed is dropped into Result.Skipped with an INVALID_TREE error and
// the other roots still resolve. If ctx is
// canceled the pass stops between nodes and returns ctx.Err(); nodes
// emitted so far are not retracted. m may be nil, in which case every
// Copied node falls back to (0,0).
func (r *Resolver) Resolve(ctx context.Context, p Provider, m Measurer, rc ContextProvider, sink Sink) (*Result, error) {
	if p == nil || rc == nil || sink == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "resolve needs a tree, a context and a sink")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	ps := &pass{
		r:      r,
		ctx:    ctx,
		p:      p,
		m:      m,
		sink:   sink,
		result: &Result{PassID: uuid.NewString()},
	}
	ps.versioned, _ = p.(Versioned)
	ps.setContext(rc)

	err := ps.run()
	ps.result.Duration = time.Since(start)
	observability.Resolve().OnPassComplete(ctx, ps.result.PassID, ps.result.Emitted, ps.result.Duration, err)
	if err != nil {
		return nil, err
	}

	r.cache.prune(ps.touched)
	if ps.versioned != nil {
		ps.versioned.ClearDirty()
	}

	r.Logger.Debug("resolved",
		"pass", ps.result.PassID,
		"nodes", len(ps.nodes),
		"emitted", ps.result.Emitted,
		"diagnostics", len(ps.result.Diagnostics),
		"skipped", len(ps.result.Skipped),
		"duration", ps.result.Duration)
	return ps.result, nil
}

// state is the per-pass record of one node.
type state struct {
	id       tree.NodeID
	parent   int
	children []int
	attrs    tree.Attributes
	depth    int

	em      float64
	size    geom.Vec2
	rect    geom.Rectangle
	opacity float64
	visible bool
}

// strategy returns the node's layout, or Free when it has none.
func (s *state) strategy() layout.Strategy {
	if s.attrs.Layout == nil {
		return layout.Free()
	}
	return *s.attrs.Layout
}

type pass struct {
	r         *Resolver
	ctx       context.Context
	p         Provider
	versioned Versioned
	m         Measurer
	sink      Sink

	viewport geom.Vec2
	rem      float64

	nodes   []state
	roots   []int
	touched map[tree.NodeID]bool
	result  *Result
}

func (ps *pass) setContext(rc ContextProvider) {
	vp := rc.Viewport()
	if !vp.Finite() {
		ps.diag(-1, DiagNonFinite, "viewport %v", vp)
		vp = geom.Zero
	}
	ps.viewport = vp.ClampNonNegative()

	rem := rc.RootEm()
	if !geom.Finite(rem) || rem <= 0 {
		ps.diag(-1, DiagNonFinite, "root em %v", rem)
		rem = DefaultRootEm
	}
	ps.rem = rem
}

func (ps *pass) run() error {
	if err := ps.collect(ps.checkRoots()); err != nil {
		return err
	}
	observability.Resolve().OnPassStart(ps.ctx, ps.result.PassID, len(ps.nodes))

	for _, i := range ps.roots {
		if err := ps.measure(i, ps.viewport, true, ps.rem); err != nil {
			return err
		}
	}
	for _, i := range ps.roots {
		if err := ps.placeRoot(i); err != nil {
			return err
		}
	}
	return nil
}

// checkRoots returns the roots whose subtrees are well formed and skips
// the rest.
func (ps *pass) checkRoots() []tree.NodeID {
	roots := ps.p.Roots()
	ok := make([]tree.NodeID, 0, len(roots))
	seen := make(map[tree.NodeID]bool)
	for _, id := range roots {
		if err := tree.CheckRoot(ps.p, id, seen); err != nil {
			attrs, _ := ps.p.AttributesOf(id)
			ps.skip(id, attrs.Name, errors.ErrCodeInvalidTree, err)
			continue
		}
		ok = append(ok, id)
	}
	return ok
}

// collect flattens the given roots in pre-order, validates strategies and
// drops invalid subtrees.
func (ps *pass) collect(roots []tree.NodeID) error {
	ps.touched = make(map[tree.NodeID]bool)

	var visit func(id tree.NodeID, parent, depth int) (int, error)
	visit = func(id tree.NodeID, parent, depth int) (int, error) {
		if err := ps.ctx.Err(); err != nil {
			return -1, err
		}
		attrs, ok := ps.p.AttributesOf(id)
		if !ok {
			ps.skip(id, "", errors.ErrCodeInvalidTree, fmt.Errorf("node %d has no attributes", id))
			return -1, nil
		}
		if attrs.Layout != nil {
			if err := attrs.Layout.Validate(); err != nil {
				ps.skip(id, attrs.Name, errors.ErrCodeInvalidLayout, err)
				return -1, nil
			}
		}

		i := len(ps.nodes)
		ps.nodes = append(ps.nodes, state{id: id, parent: parent, depth: depth, attrs: attrs})
		if fixed := sanitize(&ps.nodes[i].attrs); len(fixed) > 0 {
			ps.diag(i, DiagNonFinite, "replaced non-finite %s", strings.Join(fixed, ", "))
		}

		for _, c := range ps.p.ChildrenOf(id) {
			ci, err := visit(c, i, depth+1)
			if err != nil {
				return -1, err
			}
			if ci >= 0 {
				ps.nodes[i].children = append(ps.nodes[i].children, ci)
			}
		}
		return i, nil
	}

	for _, id := range roots {
		i, err := visit(id, -1, 0)
		if err != nil {
			return err
		}
		if i >= 0 {
			ps.roots = append(ps.roots, i)
		}
	}
	return nil
}

func (ps *pass) skip(id tree.NodeID, name string, code errors.Code, cause error) {
	err := errors.Wrap(code, cause, "node %d (%s): subtree skipped", id, name)
	ps.result.Skipped = append(ps.result.Skipped, err)
	ps.r.Logger.Warn("skipping subtree", "node", id, "name", name, "code", code, "err", cause)
	observability.Resolve().OnSubtreeSkipped(ps.ctx, string(code))
}

func (ps *pass) diag(i int, code DiagnosticCode, format string, args ...any) {
	d := Diagnostic{Node: tree.None, Code: code, Message: fmt.Sprintf(format, args...)}
	name := ""
	if i >= 0 {
		d.Node = ps.nodes[i].id
		name = ps.nodes[i].attrs.Name
	}
	ps.result.Diagnostics = append(ps.result.Diagnostics, d)
	ps.r.Logger.Debug("diagnostic", "node", d.Node, "name", name, "code", d.Code, "detail", d.Message)
	observability.Resolve().OnDiagnostic(ps.ctx, string(code))
}

// ===== Size phase =====

// measure resolves the size of node i and its subtree. parent is the
// content box of the parent; known is false when the parent is itself
// content-sized and its box is not available yet.
func (ps *pass) measure(i int, parent geom.Vec2, known bool, parentEm float64) error {
	if err := ps.ctx.Err(); err != nil {
		return err
	}
	n := &ps.nodes[i]

	em, ok := n.attrs.FontSize.Resolve(parentEm, ps.rem)
	if !ok {
		ps.diag(i, DiagNonFinite, "font size %s", n.attrs.FontSize)
	}
	n.em = em

	dim := n.attrs.Dimension
	if dim.Kind == layout.DimCopied && n.attrs.Layout != nil {
		dim = layout.Dynamic()
	}
	strat := n.strategy()

	switch dim.Kind {
	case layout.DimDynamic:
		for _, c := range n.children {
			if err := ps.measure(c, geom.Zero, false, em); err != nil {
				return err
			}
		}
		content, ok := ps.contentSize(i, strat)
		if !ok {
			ps.diag(i, DiagContentUnavailable, "%s layout cannot size its parent", strat.Kind)
		}
		n.size = content.Add(strat.Padding.Scale(2))
		return nil

	case layout.DimCopied:
		n.size = ps.measureContent(i, parent, known, em)

	default:
		if dim.IsRelative() && !known {
			// One shot: the whole size falls back to zero, no iteration.
			ps.diag(i, DiagPercentOfContentSized, "relative size against a content-sized parent")
			n.size = geom.Zero
			break
		}
		uctx := units.Context{Parent: parent, Em: em, Rem: ps.rem, Viewport: ps.viewport}
		size, err := dim.Resolve(uctx)
		switch {
		case stderrors.Is(err, layout.ErrNonFinite):
			ps.diag(i, DiagNonFinite, "size resolved to a non-finite value")
		case stderrors.Is(err, layout.ErrDegenerateAspect):
			ps.diag(i, DiagDegenerateAspect, "aspect ratio %v", dim.Ratio)
		}
		n.size = size
	}

	content := strat.ContentBox(n.size)
	for _, c := range n.children {
		if err := ps.measure(c, content, true, em); err != nil {
			return err
		}
	}
	return nil
}

func (ps *pass) measureContent(i int, parent geom.Vec2, known bool, em float64) geom.Vec2 {
	avail := parent
	if !known {
		avail = geom.Splat(math.Inf(1))
	}
	if ps.m == nil {
		ps.diag(i, DiagMeasureUnavailable, "no measurer")
		return geom.Zero
	}
	var size geom.Vec2
	var ok bool
	if emm, isEm := ps.m.(EmMeasurer); isEm {
		size, ok = emm.MeasureEm(ps.nodes[i].id, avail, em)
	} else {
		size, ok = ps.m.Measure(ps.nodes[i].id, avail)
	}
	if !ok {
		ps.diag(i, DiagMeasureUnavailable, "content not ready")
		return geom.Zero
	}
	if !size.Finite() {
		ps.diag(i, DiagNonFinite, "measured size %v", size)
		return geom.Zero
	}
	return size.ClampNonNegative()
}

// items describes the children of node i to its strategy.
func (ps *pass) items(i int) []layout.Item {
	n := &ps.nodes[i]
	out := make([]layout.Item, len(n.children))
	for k, c := range n.children {
		cn := &ps.nodes[c]
		out[k] = layout.Item{
			Size:      cn.size.Mul(cn.attrs.Offset.EffectiveScale().Abs()),
			Anchor:    cn.attrs.Offset.Anchor,
			Linebreak: cn.attrs.Linebreak,
		}
	}
	return out
}

func (ps *pass) contentSize(i int, strat layout.Strategy) (geom.Vec2, bool) {
	id := ps.nodes[i].id
	var gen uint64
	if ps.versioned != nil {
		gen = ps.versioned.ChildGeneration(id)
	}
	ps.touched[id] = true

	items := ps.items(i)
	if size, ok, hit := ps.r.cache.lookup(id, gen, strat, items); hit {
		ps.result.CacheHits++
		return size, ok
	}
	ps.result.CacheMisses++
	size, ok := strat.ContentSize(items)
	ps.r.cache.store(id, gen, strat, items, size, ok)
	return size, ok
}

// ===== Placement phase =====

func (ps *pass) placeRoot(i int) error {
	n := &ps.nodes[i]
	screen := geom.Viewport(ps.viewport)
	off := ps.offset(i, ps.viewport)

	n.rect = anchor.Place(n.size, n.attrs.Offset, off, screen)
	n.rect.Z = n.attrs.Z
	n.opacity = n.attrs.Opacity
	n.visible = n.attrs.Visible
	ps.checkRect(i, screen)
	return ps.place(i)
}

// place emits node i, then positions and recurses into its children.
func (ps *pass) place(i int) error {
	if err := ps.ctx.Err(); err != nil {
		return err
	}
	ps.emit(i)

	n := &ps.nodes[i]
	if len(n.children) == 0 {
		return nil
	}

	strat := n.strategy()
	content := strat.ContentBox(n.size)
	slots := strat.Arrange(ps.items(i), content)
	capacity := strat.Capacity()

	for k, c := range n.children {
		cn := &ps.nodes[c]
		ao := cn.attrs.Offset

		var local geom.Vec2
		if slots[k].Placed {
			local = slots[k].Pivot(ao.Anchor)
		} else {
			if capacity >= 0 && k >= capacity {
				ps.diag(c, DiagGridOverflow, "child %d exceeds %d cells", k, capacity)
			}
			local = content.Half().Mul(ao.ParentPoint()).Add(ps.offset(c, content))
		}

		cn.rect = anchor.PlaceAt(cn.size, ao, local, n.rect)
		cn.rect.Z = n.rect.Z + cn.attrs.Z
		cn.opacity = n.opacity * cn.attrs.Opacity
		cn.visible = n.visible && cn.attrs.Visible
		ps.checkRect(c, n.rect)
	}

	for _, c := range n.children {
		if err := ps.place(c); err != nil {
			return err
		}
	}
	return nil
}

// offset resolves the anchor offset of node i against a parent box.
func (ps *pass) offset(i int, parent geom.Vec2) geom.Vec2 {
	n := &ps.nodes[i]
	uctx := units.Context{Parent: parent, Em: n.em, Rem: ps.rem, Viewport: ps.viewport}
	off, ok := n.attrs.Offset.Offset.Resolve(uctx)
	if !ok {
		ps.diag(i, DiagNonFinite, "offset resolved to a non-finite value")
	}
	return off
}

// checkRect falls back to the parent's center if placement overflowed.
func (ps *pass) checkRect(i int, parent geom.Rectangle) {
	r := &ps.nodes[i].rect
	if r.Center.Finite() && r.Scale.Finite() && geom.Finite(r.Rotation) && geom.Finite(r.Z) {
		return
	}
	ps.diag(i, DiagNonFinite, "placement overflowed")
	*r = geom.Rectangle{
		Center:      parent.Center,
		HalfExtents: r.HalfExtents,
		Scale:       geom.One,
		Z:           parent.Z,
	}
}

func (ps *pass) emit(i int) {
	n := &ps.nodes[i]
	parent := tree.None
	if n.parent >= 0 {
		parent = ps.nodes[n.parent].id
	}
	ps.sink.Emit(n.id, Transform{
		Node:        n.id,
		Parent:      parent,
		Name:        n.attrs.Name,
		Center:      n.rect.Center,
		HalfExtents: n.rect.WorldHalfExtents(),
		Size:        n.size,
		Rotation:    n.rect.Rotation,
		Scale:       n.rect.Scale,
		Em:          n.em,
		Z:           n.rect.Z,
		Opacity:     n.opacity,
		Visible:     n.visible,
		Depth:       n.depth,
	})
	ps.result.Emitted++
}
