// Package tree provides an arena-backed node tree for the resolver.
//
// Nodes are addressed by integer [NodeID]. A node stores its parent as an
// id and owns the ordered list of its children; child order drives
// stack, grid and paragraph placement. The tree tracks dirty nodes and a
// per-parent child generation so the resolver can invalidate cached
// content sizes when a child set changes.
//
// A Tree is not safe for concurrent mutation. The resolver only reads it.
package tree

import (
	"errors"
	"fmt"

	"github.com/matzehuels/anchorlay/pkg/anchor"
	"github.com/matzehuels/anchorlay/pkg/layout"
	"github.com/matzehuels/anchorlay/pkg/units"
)

// NodeID identifies a node within a Tree.
type NodeID int

// None is the parent of a root node.
const None NodeID = -1

// Sentinel errors for structural problems.
var (
	ErrUnknownNode   = errors.New("unknown node")
	ErrCycle         = errors.New("parent cycle")
	ErrParentMissing = errors.New("parent does not list child")
	ErrChildMismatch = errors.New("child lists a different parent")
	ErrDuplicate     = errors.New("child listed twice")
)

// Attributes are the per-node inputs to layout.
type Attributes struct {
	Name      string
	Offset    anchor.AnchorOffset
	Dimension layout.Dimension
	FontSize  units.FontSize
	// Layout arranges the children. Nil means free placement.
	Layout *layout.Strategy
	// Z is added to the parent's z.
	Z float64
	// Opacity multiplies down the tree.
	Opacity   float64
	Visible   bool
	Linebreak bool
}

// DefaultAttributes returns visible, fully opaque attributes centered on
// the parent.
func DefaultAttributes() Attributes {
	return Attributes{Opacity: 1, Visible: true}
}

type node struct {
	parent   NodeID
	children []NodeID
	attrs    Attributes
	dirty    bool
	childGen uint64
	removed  bool
}

// Tree is an arena of nodes.
type Tree struct {
	nodes []node
	roots []NodeID
	// changed records root-level edits, which no node flag covers.
	changed bool
}

// New returns an empty tree.
func New() *Tree {
	return &Tree{}
}

// AddNode inserts a new node under parent and returns its id. Pass None to
// add a root. The new node and its ancestors are marked dirty.
func (t *Tree) AddNode(parent NodeID, attrs Attributes) (NodeID, error) {
	if parent != None && !t.has(parent) {
		return None, fmt.Errorf("add node: parent %d: %w", parent, ErrUnknownNode)
	}
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, node{parent: parent, attrs: attrs, dirty: true})
	if parent == None {
		t.roots = append(t.roots, id)
		t.changed = true
		return id, nil
	}
	p := &t.nodes[parent]
	p.children = append(p.children, id)
	p.childGen++
	t.MarkDirty(parent)
	return id, nil
}

// MustAdd is like AddNode but panics on error. Intended for tests and
// builders whose parent ids are known to be valid.
func (t *Tree) MustAdd(parent NodeID, attrs Attributes) NodeID {
	id, err := t.AddNode(parent, attrs)
	if err != nil {
		panic(err)
	}
	return id
}

// Remove detaches id and its subtree. Ids are never reused.
func (t *Tree) Remove(id NodeID) error {
	if !t.has(id) {
		return fmt.Errorf("remove %d: %w", id, ErrUnknownNode)
	}
	parent := t.nodes[id].parent
	if parent == None {
		t.roots = without(t.roots, id)
		t.changed = true
	} else {
		p := &t.nodes[parent]
		p.children = without(p.children, id)
		p.childGen++
		t.MarkDirty(parent)
	}
	t.walk(id, func(n NodeID) { t.nodes[n].removed = true })
	return nil
}

// Move reparents id under parent, appending it to parent's children. Pass
// None to make id a root. Moving a node below its own descendant fails
// with ErrCycle.
func (t *Tree) Move(id, parent NodeID) error {
	if !t.has(id) {
		return fmt.Errorf("move %d: %w", id, ErrUnknownNode)
	}
	if parent != None && !t.has(parent) {
		return fmt.Errorf("move %d: parent %d: %w", id, parent, ErrUnknownNode)
	}
	for p := parent; p != None; p = t.nodes[p].parent {
		if p == id {
			return fmt.Errorf("move %d under %d: %w", id, parent, ErrCycle)
		}
	}

	old := t.nodes[id].parent
	if old == None {
		t.roots = without(t.roots, id)
	} else {
		op := &t.nodes[old]
		op.children = without(op.children, id)
		op.childGen++
		t.MarkDirty(old)
	}

	t.nodes[id].parent = parent
	if parent == None {
		t.roots = append(t.roots, id)
	} else {
		p := &t.nodes[parent]
		p.children = append(p.children, id)
		p.childGen++
	}
	t.changed = true
	t.nodes[id].dirty = false
	t.MarkDirty(id)
	return nil
}

// SetAttributes replaces the attributes of id and marks it dirty.
func (t *Tree) SetAttributes(id NodeID, attrs Attributes) error {
	if !t.has(id) {
		return fmt.Errorf("set attributes %d: %w", id, ErrUnknownNode)
	}
	t.nodes[id].attrs = attrs
	t.MarkDirty(id)
	return nil
}

// Update applies fn to the attributes of id and marks it dirty.
func (t *Tree) Update(id NodeID, fn func(*Attributes)) error {
	if !t.has(id) {
		return fmt.Errorf("update %d: %w", id, ErrUnknownNode)
	}
	fn(&t.nodes[id].attrs)
	t.MarkDirty(id)
	return nil
}

// MarkDirty flags id and its ancestors. The walk stops at the first
// ancestor that is already dirty.
func (t *Tree) MarkDirty(id NodeID) {
	for id != None && t.has(id) {
		n := &t.nodes[id]
		if n.dirty {
			return
		}
		n.dirty = true
		id = n.parent
	}
}

// Dirty reports whether id needs re-resolution.
func (t *Tree) Dirty(id NodeID) bool {
	return t.has(id) && t.nodes[id].dirty
}

// AnyDirty reports whether anything changed since the last ClearDirty.
func (t *Tree) AnyDirty() bool {
	if t.changed {
		return true
	}
	for _, r := range t.roots {
		if t.nodes[r].dirty {
			return true
		}
	}
	return false
}

// ClearDirty clears all dirty flags.
func (t *Tree) ClearDirty() {
	t.changed = false
	for i := range t.nodes {
		t.nodes[i].dirty = false
	}
}

// Roots returns the root ids in insertion order.
func (t *Tree) Roots() []NodeID { return t.roots }

// ChildrenOf returns the ordered children of id.
func (t *Tree) ChildrenOf(id NodeID) []NodeID {
	if !t.has(id) {
		return nil
	}
	return t.nodes[id].children
}

// ParentOf returns the parent of id. The boolean is false for roots and
// unknown ids.
func (t *Tree) ParentOf(id NodeID) (NodeID, bool) {
	if !t.has(id) || t.nodes[id].parent == None {
		return None, false
	}
	return t.nodes[id].parent, true
}

// AttributesOf returns the attributes of id.
func (t *Tree) AttributesOf(id NodeID) (Attributes, bool) {
	if !t.has(id) {
		return Attributes{}, false
	}
	return t.nodes[id].attrs, true
}

// ChildGeneration returns a counter that changes whenever the child set of
// id changes.
func (t *Tree) ChildGeneration(id NodeID) uint64 {
	if !t.has(id) {
		return 0
	}
	return t.nodes[id].childGen
}

// Len returns the number of live nodes.
func (t *Tree) Len() int {
	n := 0
	for _, nd := range t.nodes {
		if !nd.removed {
			n++
		}
	}
	return n
}

// Cap returns one past the largest id ever allocated. Per-pass tables can
// be indexed by NodeID up to Cap.
func (t *Tree) Cap() int { return len(t.nodes) }

// Find returns the first node in pre-order whose name is name.
func (t *Tree) Find(name string) (NodeID, bool) {
	found := None
	for _, r := range t.roots {
		t.walk(r, func(id NodeID) {
			if found == None && t.nodes[id].attrs.Name == name {
				found = id
			}
		})
	}
	return found, found != None
}

// Walk visits every live node in pre-order with its depth.
func (t *Tree) Walk(fn func(id NodeID, depth int)) {
	var visit func(NodeID, int)
	visit = func(id NodeID, depth int) {
		fn(id, depth)
		for _, c := range t.nodes[id].children {
			visit(c, depth+1)
		}
	}
	for _, r := range t.roots {
		visit(r, 0)
	}
}

func (t *Tree) walk(id NodeID, fn func(NodeID)) {
	fn(id)
	for _, c := range t.nodes[id].children {
		t.walk(c, fn)
	}
}

func (t *Tree) has(id NodeID) bool {
	return id >= 0 && int(id) < len(t.nodes) && !t.nodes[id].removed
}

func without(ids []NodeID, id NodeID) []NodeID {
	out := ids[:0:0]
	for _, x := range ids {
		if x != id {
			out = append(out, x)
		}
	}
	return out
}
