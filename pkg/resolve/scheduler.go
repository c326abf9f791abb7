package resolve

import (
	"context"
	"sync"

	"github.com/matzehuels/anchorlay/pkg/geom"
	"github.com/matzehuels/anchorlay/pkg/tree"
)

// ChangeKind selects what a Change describes.
type ChangeKind int

const (
	// ChangeDirty marks a node as needing re-layout.
	ChangeDirty ChangeKind = iota
	// ChangeViewport sets a new viewport size.
	ChangeViewport
	// ChangeRootEm sets a new root font size.
	ChangeRootEm
)

// Change is a message to the Scheduler.
type Change struct {
	Kind     ChangeKind
	Node     tree.NodeID
	Viewport geom.Vec2
	RootEm   float64
}

// Dirty returns a change marking id dirty.
func Dirty(id tree.NodeID) Change { return Change{Kind: ChangeDirty, Node: id} }

// Resize returns a change setting the viewport size.
func Resize(size geom.Vec2) Change { return Change{Kind: ChangeViewport, Viewport: size} }

// RootEm returns a change setting the root font size.
func RootEm(px float64) Change { return Change{Kind: ChangeRootEm, RootEm: px} }

// DirtyMarker is implemented by providers that accept dirty marks.
// *tree.Tree implements it.
type DirtyMarker interface {
	MarkDirty(id tree.NodeID)
}

// Scheduler turns change notifications into resolution passes.
//
// Notify may be called from any goroutine. Tick must be called from the
// goroutine that owns the tree: it drains pending changes, applies them and
// runs a full pass only when something is dirty. Providers that do not
// implement Versioned are resolved on every Tick.
type Scheduler struct {
	resolver *Resolver
	provider Provider
	measurer Measurer

	mu      sync.Mutex
	pending []Change

	viewport geom.Vec2
	rem      float64
	force    bool
}

// NewScheduler creates a scheduler that resolves p with r. The initial
// viewport and root em come from rc. The first Tick always runs a pass.
func NewScheduler(r *Resolver, p Provider, m Measurer, rc ContextProvider) *Scheduler {
	return &Scheduler{
		resolver: r,
		provider: p,
		measurer: m,
		viewport: rc.Viewport(),
		rem:      rc.RootEm(),
		force:    true,
	}
}

// Notify queues a change for the next Tick.
func (s *Scheduler) Notify(c Change) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, c)
}

// Pending returns the number of queued changes.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Viewport returns the current viewport size.
func (s *Scheduler) Viewport() geom.Vec2 { return s.viewport }

// RootEm returns the current root font size.
func (s *Scheduler) RootEm() float64 { return s.rem }

// Tick applies queued changes and resolves if needed. The result is nil
// when the frame was clean and no pass ran.
func (s *Scheduler) Tick(ctx context.Context, sink Sink) (*Result, error) {
	s.mu.Lock()
	changes := s.pending
	s.pending = nil
	s.mu.Unlock()

	marker, _ := s.provider.(DirtyMarker)
	for _, c := range changes {
		switch c.Kind {
		case ChangeDirty:
			if marker != nil {
				marker.MarkDirty(c.Node)
			} else {
				s.force = true
			}
		case ChangeViewport:
			if c.Viewport != s.viewport {
				s.viewport = c.Viewport
				s.force = true
			}
		case ChangeRootEm:
			if c.RootEm != s.rem {
				s.rem = c.RootEm
				s.force = true
			}
		}
	}

	if !s.needsPass() {
		return nil, nil
	}
	res, err := s.resolver.Resolve(ctx, s.provider, s.measurer, s, sink)
	if err != nil {
		return nil, err
	}
	s.force = false
	return res, nil
}

func (s *Scheduler) needsPass() bool {
	if s.force {
		return true
	}
	v, ok := s.provider.(Versioned)
	if !ok {
		return true
	}
	return v.AnyDirty()
}
