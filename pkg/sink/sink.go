// Package sink provides output sinks for resolved transforms and renders
// collected frames as JSON, SVG and Graphviz diagrams.
//
// A [Collector] records the transforms of one pass in emit order. [NewFrame]
// turns them into a [Frame], the serializable result of a pass that
// [RenderJSON], [RenderSVG] and [ToDOT] consume.
package sink

import (
	"github.com/matzehuels/anchorlay/pkg/resolve"
	"github.com/matzehuels/anchorlay/pkg/tree"
)

// Collector records emitted transforms in emit order.
type Collector struct {
	order []tree.NodeID
	byID  map[tree.NodeID]resolve.Transform
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{byID: make(map[tree.NodeID]resolve.Transform)}
}

// Emit implements resolve.Sink. A second emit for the same node replaces
// the transform but keeps the first position.
func (c *Collector) Emit(id tree.NodeID, t resolve.Transform) {
	if c.byID == nil {
		c.byID = make(map[tree.NodeID]resolve.Transform)
	}
	if _, ok := c.byID[id]; !ok {
		c.order = append(c.order, id)
	}
	c.byID[id] = t
}

// Get returns the transform emitted for id.
func (c *Collector) Get(id tree.NodeID) (resolve.Transform, bool) {
	t, ok := c.byID[id]
	return t, ok
}

// Len returns the number of distinct nodes emitted.
func (c *Collector) Len() int { return len(c.order) }

// Order returns node ids in emit order.
func (c *Collector) Order() []tree.NodeID { return c.order }

// Transforms returns the transforms in emit order.
func (c *Collector) Transforms() []resolve.Transform {
	out := make([]resolve.Transform, len(c.order))
	for i, id := range c.order {
		out[i] = c.byID[id]
	}
	return out
}

// Reset forgets everything emitted so far.
func (c *Collector) Reset() {
	c.order = c.order[:0]
	clear(c.byID)
}

// Func adapts a function to resolve.Sink.
type Func func(id tree.NodeID, t resolve.Transform)

// Emit calls f.
func (f Func) Emit(id tree.NodeID, t resolve.Transform) { f(id, t) }

// Multi returns a sink that emits to every sink in order.
func Multi(sinks ...resolve.Sink) resolve.Sink {
	return Func(func(id tree.NodeID, t resolve.Transform) {
		for _, s := range sinks {
			s.Emit(id, t)
		}
	})
}
