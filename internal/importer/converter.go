package importer

import (
	"strconv"
	"strings"

	"github.com/cory-johannsen/pf2e-toolbox/internal/game/statblock"
)

// NameToID converts a display name to a stable snake_case identifier.
//
// Postcondition: result is lowercase, contains only [a-z0-9_], and is
// idempotent (NameToID(NameToID(s)) == NameToID(s)).
func NameToID(name string) string {
	s := strings.ToLower(name)
	s = strings.ReplaceAll(s, " ", "_")
	var b strings.Builder
	for _, r := range s {
		if r == '_' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// AssignItemIDs gives every item without an id one derived from its name, so
// that re-importing the same file yields the same item ids. Collisions get a
// numeric suffix; an empty slug falls back to the item type.
//
// Postcondition: all item ids in sb are non-empty and unique.
func AssignItemIDs(sb *statblock.StatBlock) {
	used := make(map[string]bool, len(sb.Items))
	for _, it := range sb.Items {
		if it.ID != "" {
			used[it.ID] = true
		}
	}
	for i := range sb.Items {
		it := &sb.Items[i]
		if it.ID != "" {
			continue
		}
		base := NameToID(it.Name)
		if base == "" {
			base = NameToID(it.Type)
		}
		if base == "" {
			base = "item"
		}
		id := base
		for n := 2; used[id]; n++ {
			id = base + "_" + strconv.Itoa(n)
		}
		used[id] = true
		it.ID = id
	}
}
