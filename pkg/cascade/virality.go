package cascade

import (
	"errors"
	"fmt"

	"github.com/sueda-gl/thes/pkg/types"
)

// ErrCycle reports a cascade whose parent chain loops instead of reaching
// its root.
var ErrCycle = errors.New("cascade: cycle in parent chain")

// ErrDanglingParent reports a cascade node whose parent is missing.
var ErrDanglingParent = errors.New("cascade: dangling parent pointer")

// Tree is one reshare cascade: a root post and every reshare descending
// from it.
type Tree struct {
	Root     *types.Post
	Nodes    map[string]*types.Post // by post ID, root included
	Children map[string][]string    // parent ID -> child IDs, sorted by insertion
}

// BuildTree assembles a cascade tree from a root and candidate reshares.
// Every node's parent chain is verified to terminate at the root within a
// bounded number of hops; a loop or a missing parent is a data-integrity
// error, never silently tolerated.
func BuildTree(root *types.Post, reshares []*types.Post) (*Tree, error) {
	t := &Tree{
		Root:     root,
		Nodes:    map[string]*types.Post{root.ID: root},
		Children: make(map[string][]string),
	}
	for _, r := range reshares {
		t.Nodes[r.ID] = r
	}
	for _, r := range reshares {
		t.Children[r.ParentID] = append(t.Children[r.ParentID], r.ID)
	}

	maxHops := len(t.Nodes)
	for _, r := range reshares {
		current := r
		for hop := 0; ; hop++ {
			if hop > maxHops {
				return nil, fmt.Errorf("%w: walk from %s", ErrCycle, r.ID)
			}
			if current.ID == root.ID {
				break
			}
			parent, ok := t.Nodes[current.ParentID]
			if !ok {
				return nil, fmt.Errorf("%w: %s -> %s", ErrDanglingParent, current.ID, current.ParentID)
			}
			current = parent
		}
	}
	return t, nil
}

// Size returns the number of reshare nodes in the cascade.
func (t *Tree) Size() int { return len(t.Nodes) - 1 }

// MaxDepth returns the deepest reshare's cascade depth.
func (t *Tree) MaxDepth() int {
	max := 0
	for _, n := range t.Nodes {
		if n.CascadeDepth > max {
			max = n.CascadeDepth
		}
	}
	return max
}

// StructuralVirality computes the Goel et al. (2016) structural virality of
// the cascade: the mean pairwise tree distance between reshare nodes. Low
// values mean broadcast diffusion (everyone reshared the source); high
// values mean long person-to-person chains.
//
// Only reshares count as spreaders, so the root is a waypoint on paths but
// not an endpoint. For a star of k >= 2 reshares around the root every
// pairwise distance is 2, so the measure is exactly 2. Cascades with fewer
// than two reshares have no pairs and score 0.
//
// The pairwise sum is computed in linear time from per-edge contributions:
// an edge separating m spreaders below from M-m above lies on m*(M-m)
// shortest paths.
func (t *Tree) StructuralVirality() float64 {
	m := t.Size()
	if m < 2 {
		return 0
	}

	var wiener float64
	var walk func(id string) int
	walk = func(id string) int {
		marked := 0
		if id != t.Root.ID {
			marked = 1
		}
		for _, child := range t.Children[id] {
			below := walk(child)
			wiener += float64(below) * float64(m-below)
			marked += below
		}
		return marked
	}
	walk(t.Root.ID)

	pairs := float64(m) * float64(m-1) / 2
	return wiener / pairs
}
