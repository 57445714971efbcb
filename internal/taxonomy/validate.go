// Package taxonomy holds the pure in-memory passes over one taxonomy's node
// set: structural validation, nested set numbering and permalink
// regeneration. Nothing here touches the database; callers load the nodes,
// run the passes in order and persist the result in one transaction.
package taxonomy

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/resys-shop/backend/internal/types"
)

var (
	// ErrInvalidParent marks a ParentID that does not resolve within the
	// taxonomy's node set.
	ErrInvalidParent = errors.New("invalid parent reference")
	// ErrCycleDetected marks a back-edge in the parent-pointer graph.
	ErrCycleDetected = errors.New("cycle detected")
	// ErrRootConflict marks more than one node with a nil parent.
	ErrRootConflict = errors.New("root conflict")
	// ErrNoRoot marks a non-empty node set with zero roots.
	ErrNoRoot = errors.New("no root taxon")
)

const (
	stateUnvisited = iota
	stateOnStack
	stateDone
)

// Validate checks that the parent-pointer graph over nodes is acyclic, that
// every parent reference resolves within the set and that exactly one root
// exists. It must run, and pass, before any nested set recomputation:
// numbering a cyclic graph would either loop forever or silently produce
// wrong ranges. Runs in O(n).
func Validate(nodes []*types.Taxon) error {
	if len(nodes) == 0 {
		return nil
	}

	arena := make(map[uuid.UUID]*types.Taxon, len(nodes))
	roots := 0
	for _, n := range nodes {
		arena[n.ID] = n
		if n.ParentID == nil {
			roots++
		}
	}

	// Walk the parent chain from every unvisited node. A grey node on the
	// current chain means a back-edge; a missing parent id means a dangling
	// reference. Finished chains are blackened so each node is visited once.
	state := make(map[uuid.UUID]int, len(nodes))
	chain := make([]uuid.UUID, 0, len(nodes))
	for _, start := range nodes {
		if state[start.ID] != stateUnvisited {
			continue
		}
		chain = chain[:0]
		cur := start
		for {
			switch state[cur.ID] {
			case stateOnStack:
				return fmt.Errorf("taxon %s: %w", cur.ID, ErrCycleDetected)
			case stateDone:
			default:
				state[cur.ID] = stateOnStack
				chain = append(chain, cur.ID)
				if cur.ParentID != nil {
					parent, ok := arena[*cur.ParentID]
					if !ok {
						return fmt.Errorf("taxon %s references parent %s: %w", cur.ID, *cur.ParentID, ErrInvalidParent)
					}
					cur = parent
					continue
				}
			}
			break
		}
		for _, id := range chain {
			state[id] = stateDone
		}
	}

	// Root cardinality is checked after the walk: a rootless set is always
	// cyclic somewhere, and the cycle is the more precise diagnosis.
	if roots == 0 {
		return ErrNoRoot
	}
	if roots > 1 {
		return ErrRootConflict
	}
	return nil
}
