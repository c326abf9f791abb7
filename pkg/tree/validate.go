package tree

import "fmt"

// Structure is the read-only shape of a tree. *Tree implements it, and so
// does any host tree adapted for the resolver.
type Structure interface {
	Roots() []NodeID
	ChildrenOf(id NodeID) []NodeID
	ParentOf(id NodeID) (NodeID, bool)
}

// Check verifies that parent and child links agree: every child names its
// lister as parent, roots have no parent, no node is reachable twice and
// no parent chain loops. The first problem is returned, wrapping one of
// the package's sentinel errors.
func Check(s Structure) error {
	seen := make(map[NodeID]bool)
	for _, r := range s.Roots() {
		if err := CheckRoot(s, r, seen); err != nil {
			return err
		}
	}
	return nil
}

// CheckRoot runs the checks of Check on the subtree under root alone.
// seen carries the nodes visited under earlier roots, so a node shared by
// two roots is reported under the second. A nil seen starts empty.
func CheckRoot(s Structure, root NodeID, seen map[NodeID]bool) error {
	if seen == nil {
		seen = make(map[NodeID]bool)
	}

	var visit func(id, parent NodeID) error
	visit = func(id, parent NodeID) error {
		if seen[id] {
			if onPath(s, parent, id) {
				return fmt.Errorf("node %d: %w", id, ErrCycle)
			}
			return fmt.Errorf("node %d: %w", id, ErrDuplicate)
		}
		seen[id] = true

		got, ok := s.ParentOf(id)
		switch {
		case parent == None && ok:
			return fmt.Errorf("root %d claims parent %d: %w", id, got, ErrParentMissing)
		case parent != None && (!ok || got != parent):
			return fmt.Errorf("node %d listed by %d: %w", id, parent, ErrChildMismatch)
		}

		for _, c := range s.ChildrenOf(id) {
			if err := visit(c, id); err != nil {
				return err
			}
		}
		return nil
	}
	return visit(root, None)
}

// onPath reports whether target is id or one of its ancestors, following
// parent links with a step limit so a looping chain terminates.
func onPath(s Structure, id, target NodeID) bool {
	for steps := 0; id != None && steps < 1<<20; steps++ {
		if id == target {
			return true
		}
		p, ok := s.ParentOf(id)
		if !ok {
			return false
		}
		id = p
	}
	return false
}

// Validate checks the tree's internal consistency and the configuration of
// every layout strategy. Structural problems are returned first.
func (t *Tree) Validate() error {
	if err := Check(t); err != nil {
		return err
	}
	var err error
	t.Walk(func(id NodeID, _ int) {
		if err != nil {
			return
		}
		if l := t.nodes[id].attrs.Layout; l != nil {
			if verr := l.Validate(); verr != nil {
				err = fmt.Errorf("node %d (%s): %w", id, t.nodes[id].attrs.Name, verr)
			}
		}
	})
	return err
}
