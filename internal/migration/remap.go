package migration

import (
	"slices"
	"strconv"
	"strings"

	"github.com/hellominers/statsupdater/internal/datafix"
	"github.com/hellominers/statsupdater/internal/mapping"
	"github.com/hellominers/statsupdater/internal/statsfile"
)

const legacyKeyPrefix = mapping.DefaultNamespace + ":"

// Unresolved is a legacy id that no mapping could resolve. Its entry was dropped.
type Unresolved struct {
	Category string
	ID       int
}

// RemapResult summarises one document's remap.
type RemapResult struct {
	Remapped   int
	Dropped    int
	Passed     int
	Unresolved []Unresolved
}

// Remapper rewrites "minecraft:<id>" keys in the item and block categories.
type Remapper struct {
	items  mapping.Lookup
	blocks mapping.Lookup
}

// NewRemapper returns a Remapper using the given lookups.
func NewRemapper(items, blocks mapping.Lookup) *Remapper {
	return &Remapper{items: items, blocks: blocks}
}

// lookupFor returns the lookup used by category, or nil when its keys are
// left alone.
func (r *Remapper) lookupFor(category string) mapping.Lookup {
	switch category {
	case datafix.CategoryCrafted, datafix.CategoryUsed, datafix.CategoryBroken,
		datafix.CategoryPickedUp, datafix.CategoryDropped:
		return r.items
	case datafix.CategoryMined:
		return r.blocks
	default:
		return nil
	}
}

// Remap rewrites stats in place. Keys are visited in sorted order so that
// collisions resolve the same way on every run; colliding integer counts are
// added together.
func (r *Remapper) Remap(stats map[string]any) RemapResult {
	var res RemapResult

	categories := make([]string, 0, len(stats))
	for category := range stats {
		categories = append(categories, category)
	}
	slices.Sort(categories)

	for _, category := range categories {
		lookup := r.lookupFor(category)
		if lookup == nil {
			continue
		}
		values, ok := stats[category].(map[string]any)
		if !ok {
			continue
		}

		keys := make([]string, 0, len(values))
		for key := range values {
			keys = append(keys, key)
		}
		slices.Sort(keys)

		updated := make(map[string]any, len(values))
		for _, key := range keys {
			value := values[key]

			id, legacy := parseLegacyKey(key)
			if !legacy {
				put(updated, key, value)
				res.Passed++
				continue
			}

			name, found := lookup(id)
			if !found {
				res.Dropped++
				res.Unresolved = append(res.Unresolved, Unresolved{Category: category, ID: id})
				continue
			}
			put(updated, name, value)
			res.Remapped++
		}
		stats[category] = updated
	}

	return res
}

func put(m map[string]any, key string, value any) {
	if existing, ok := m[key]; ok {
		m[key] = statsfile.MergeValues(existing, value)
		return
	}
	m[key] = value
}

// parseLegacyKey extracts the id from "minecraft:<int32>". A sign is allowed;
// ids outside the int32 range are not legacy keys and pass through.
func parseLegacyKey(key string) (int, bool) {
	rest, ok := strings.CutPrefix(key, legacyKeyPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(rest, 10, 32)
	if err != nil {
		return 0, false
	}
	return int(id), true
}
