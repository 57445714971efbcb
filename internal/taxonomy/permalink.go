package taxonomy

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/resys-shop/backend/internal/types"
)

// RegeneratePermalinks recomputes Permalink and PrettyName for every node.
// Nodes are processed in ascending Lft order, which is pre-order by
// construction, so a node's parent values are always computed before its
// own and a single linear pass suffices.
func RegeneratePermalinks(nodes []*types.Taxon) {
	if len(nodes) == 0 {
		return
	}

	ordered := make([]*types.Taxon, len(nodes))
	copy(ordered, nodes)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Lft < ordered[j].Lft })

	byID := make(map[uuid.UUID]*types.Taxon, len(ordered))
	for _, n := range ordered {
		byID[n.ID] = n
	}

	for _, n := range ordered {
		slug := Slugify(n.Name)
		if n.ParentID == nil {
			n.Permalink = slug
			n.PrettyName = n.DisplayName()
			continue
		}
		parent, ok := byID[*n.ParentID]
		if !ok {
			// Unresolvable parents are a validation failure upstream.
			continue
		}
		n.Permalink = parent.Permalink + "/" + slug
		n.PrettyName = parent.PrettyName + " -> " + n.DisplayName()
	}
}

// Slugify lowers the name and collapses every non-alphanumeric run into a
// single dash, trimming leading/trailing dashes.
func Slugify(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	pendingDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if isAlnum {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}
