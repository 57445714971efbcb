package taxonomy

import (
	"testing"

	"github.com/google/uuid"

	"github.com/resys-shop/backend/internal/types"
)

// buildFixtureTree returns root -> (a -> (a1, a2), b) with sibling
// positions already set.
func buildFixtureTree(t *testing.T) (root, a, b, a1, a2 *types.Taxon, all []*types.Taxon) {
	t.Helper()
	tid := uuid.New()
	root = node(tid, "root", nil)
	a = node(tid, "a", &root.ID)
	a.Position = 0
	b = node(tid, "b", &root.ID)
	b.Position = 1
	a1 = node(tid, "a1", &a.ID)
	a1.Position = 0
	a2 = node(tid, "a2", &a.ID)
	a2.Position = 1
	all = []*types.Taxon{b, a2, root, a1, a} // deliberately shuffled
	return
}

func TestBuildNestedSets_Coordinates(t *testing.T) {
	root, a, b, a1, a2, all := buildFixtureTree(t)
	if err := BuildNestedSets(all); err != nil {
		t.Fatalf("build failed: %v", err)
	}

	// Pre/post numbering over 5 nodes spans 1..10.
	if root.Lft != 1 || root.Rgt != 10 {
		t.Fatalf("root coordinates wrong: lft=%d rgt=%d", root.Lft, root.Rgt)
	}
	if a.Lft != 2 || a.Rgt != 7 {
		t.Fatalf("a coordinates wrong: lft=%d rgt=%d", a.Lft, a.Rgt)
	}
	if a1.Lft != 3 || a1.Rgt != 4 {
		t.Fatalf("a1 coordinates wrong: lft=%d rgt=%d", a1.Lft, a1.Rgt)
	}
	if a2.Lft != 5 || a2.Rgt != 6 {
		t.Fatalf("a2 coordinates wrong: lft=%d rgt=%d", a2.Lft, a2.Rgt)
	}
	if b.Lft != 8 || b.Rgt != 9 {
		t.Fatalf("b coordinates wrong: lft=%d rgt=%d", b.Lft, b.Rgt)
	}
}

func TestBuildNestedSets_Invariants(t *testing.T) {
	root, a, _, _, _, all := buildFixtureTree(t)
	if err := BuildNestedSets(all); err != nil {
		t.Fatalf("build failed: %v", err)
	}

	for _, n := range all {
		if (n.Rgt-n.Lft)%2 != 1 {
			t.Fatalf("node %s: rgt-lft must be odd, got %d", n.Name, n.Rgt-n.Lft)
		}
		if n.IsLeaf() && n.Rgt != n.Lft+1 {
			t.Fatalf("leaf %s: rgt != lft+1", n.Name)
		}
	}
	if got := DescendantCount(root); got != 4 {
		t.Fatalf("root descendant count: want 4, got %d", got)
	}
	if got := DescendantCount(a); got != 2 {
		t.Fatalf("a descendant count: want 2, got %d", got)
	}
	if root.Depth != 0 {
		t.Fatalf("root depth must be 0, got %d", root.Depth)
	}
	for _, n := range all {
		if n.ParentID == nil {
			continue
		}
		var parent *types.Taxon
		for _, p := range all {
			if p.ID == *n.ParentID {
				parent = p
			}
		}
		if n.Depth != parent.Depth+1 {
			t.Fatalf("node %s: depth %d, parent depth %d", n.Name, n.Depth, parent.Depth)
		}
		if !IsAncestorOf(parent, n) {
			t.Fatalf("parent %s must contain %s", parent.Name, n.Name)
		}
	}
}

func TestBuildNestedSets_SiblingOrderFollowsPosition(t *testing.T) {
	tid := uuid.New()
	root := node(tid, "root", nil)
	first := node(tid, "zzz", &root.ID)
	first.Position = 0
	second := node(tid, "aaa", &root.ID)
	second.Position = 1

	if err := BuildNestedSets([]*types.Taxon{root, second, first}); err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if first.Lft > second.Lft {
		t.Fatalf("position must win over name: first.lft=%d second.lft=%d", first.Lft, second.Lft)
	}
}

func TestBuildNestedSets_MissingRoot(t *testing.T) {
	tid := uuid.New()
	a := node(tid, "a", nil)
	b := node(tid, "b", nil)
	a.ParentID = &b.ID
	b.ParentID = &a.ID
	if err := BuildNestedSets([]*types.Taxon{a, b}); err != ErrNoRoot {
		t.Fatalf("expected ErrNoRoot, got %v", err)
	}
}
