package resolve

import (
	"slices"

	"github.com/matzehuels/anchorlay/pkg/geom"
	"github.com/matzehuels/anchorlay/pkg/layout"
	"github.com/matzehuels/anchorlay/pkg/tree"
)

// contentEntry is a cached content size for one content-sized parent.
type contentEntry struct {
	gen      uint64
	strategy layout.Strategy
	items    []layout.Item
	size     geom.Vec2
	ok       bool
}

// contentCache keeps content sizes across passes. An entry is reused only
// when the parent's child generation, its strategy and every child item
// are unchanged, so a stale size is never served.
type contentCache struct {
	entries map[tree.NodeID]contentEntry
}

func (c *contentCache) lookup(id tree.NodeID, gen uint64, s layout.Strategy, items []layout.Item) (geom.Vec2, bool, bool) {
	e, found := c.entries[id]
	if !found || e.gen != gen || e.strategy != s || !slices.Equal(e.items, items) {
		return geom.Zero, false, false
	}
	return e.size, e.ok, true
}

func (c *contentCache) store(id tree.NodeID, gen uint64, s layout.Strategy, items []layout.Item, size geom.Vec2, ok bool) {
	if c.entries == nil {
		c.entries = make(map[tree.NodeID]contentEntry)
	}
	c.entries[id] = contentEntry{gen: gen, strategy: s, items: items, size: size, ok: ok}
}

// prune drops entries for parents the last pass did not size.
func (c *contentCache) prune(touched map[tree.NodeID]bool) {
	for id := range c.entries {
		if !touched[id] {
			delete(c.entries, id)
		}
	}
}

func (c *contentCache) count() int { return len(c.entries) }
