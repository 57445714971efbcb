package taxonomy

import (
	"sort"

	"github.com/google/uuid"

	"github.com/resys-shop/backend/internal/types"
)

// BuildNestedSets assigns Lft/Rgt/Depth over a validated node set using the
// classic nested set numbering: one shared counter starting at 1, assigned
// pre-order as Lft and post-order as Rgt, with siblings visited in Position
// order (name as tiebreaker for a stable result). The root gets depth 0.
// Only in-memory nodes are mutated; persistence is the caller's concern.
//
// Resulting guarantees: Rgt-Lft is odd for every node, leaves have
// Rgt == Lft+1, and an internal node spans exactly (Rgt-Lft-1)/2
// descendants.
func BuildNestedSets(nodes []*types.Taxon) error {
	if len(nodes) == 0 {
		return nil
	}

	children := make(map[uuid.UUID][]*types.Taxon, len(nodes))
	var root *types.Taxon
	for _, n := range nodes {
		if n.ParentID == nil {
			if root != nil {
				return ErrRootConflict
			}
			root = n
			continue
		}
		children[*n.ParentID] = append(children[*n.ParentID], n)
	}
	if root == nil {
		return ErrNoRoot
	}
	for _, siblings := range children {
		sort.SliceStable(siblings, func(i, j int) bool {
			if siblings[i].Position != siblings[j].Position {
				return siblings[i].Position < siblings[j].Position
			}
			return siblings[i].Name < siblings[j].Name
		})
	}

	counter := 1
	var visit func(n *types.Taxon, depth int)
	visit = func(n *types.Taxon, depth int) {
		n.Depth = depth
		n.Lft = counter
		counter++
		for _, child := range children[n.ID] {
			visit(child, depth+1)
		}
		n.Rgt = counter
		counter++
	}
	visit(root, 0)
	return nil
}

// DescendantCount derives the subtree size from nested set coordinates.
func DescendantCount(n *types.Taxon) int {
	if n.Rgt <= n.Lft {
		return 0
	}
	return (n.Rgt - n.Lft - 1) / 2
}

// IsAncestorOf reports the nested set containment test.
func IsAncestorOf(ancestor, node *types.Taxon) bool {
	return ancestor.Lft < node.Lft && node.Rgt < ancestor.Rgt
}
