// Package mapping resolves pre-flattening numeric block and item ids to
// namespaced identifiers.
package mapping

import (
	"maps"
	"strings"
)

const (
	// DefaultNamespace is prepended to names that carry no namespace.
	DefaultNamespace = "minecraft"

	// filteredName marks holes in the legacy block table
	filteredName = "%%FILTER_ME%%"
	airName      = "minecraft:air"
)

// Lookup resolves a legacy numeric id. It is total over the int domain:
// unknown ids report false.
type Lookup func(id int) (string, bool)

// MapLookup adapts a plain map to a Lookup.
func MapLookup(m map[int]string) Lookup {
	m = maps.Clone(m)
	return func(id int) (string, bool) {
		name, ok := m[id]
		return name, ok
	}
}

// Qualify adds the default namespace to name when it has none.
func Qualify(name string) string {
	name = strings.TrimSpace(name)
	if name == "" || strings.Contains(name, ":") {
		return name
	}
	return DefaultNamespace + ":" + name
}

// BlockTable maps legacy block ids (the index) to current block names.
type BlockTable struct {
	names []string
}

// NewBlockTable builds a table from names indexed by legacy id. Empty,
// filtered and air entries stay unmapped and trailing holes are trimmed.
func NewBlockTable(names []string) *BlockTable {
	table := make([]string, len(names))
	for i, raw := range names {
		if raw == filteredName {
			continue
		}
		name := Qualify(raw)
		if name == "" || name == airName {
			continue
		}
		table[i] = name
	}

	last := len(table) - 1
	for last >= 0 && table[last] == "" {
		last--
	}
	return &BlockTable{names: table[:last+1]}
}

// Lookup resolves id. Out of range ids report false.
func (t *BlockTable) Lookup(id int) (string, bool) {
	if t == nil || id < 0 || id >= len(t.names) {
		return "", false
	}
	name := t.names[id]
	return name, name != ""
}

// Len returns the table length after trimming.
func (t *BlockTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.names)
}

// ItemTable maps legacy item ids to current item names.
type ItemTable struct {
	names map[int]string
}

// NewItemTable builds an item table. Names are qualified, then passed through
// renames (old name to current name). When registry is non-empty, names not
// listed in it are left out, which drops ids for things that are no longer
// items such as water or fire.
func NewItemTable(items map[int]string, renames map[string]string, registry []string) *ItemTable {
	qualifiedRenames := make(map[string]string, len(renames))
	for from, to := range renames {
		qualifiedRenames[Qualify(from)] = Qualify(to)
	}

	var known map[string]struct{}
	if len(registry) > 0 {
		known = make(map[string]struct{}, len(registry))
		for _, name := range registry {
			known[Qualify(name)] = struct{}{}
		}
	}

	table := make(map[int]string, len(items))
	for id, raw := range items {
		name := Qualify(raw)
		if name == "" {
			continue
		}
		if renamed, ok := qualifiedRenames[name]; ok {
			name = renamed
		}
		if known != nil {
			if _, ok := known[name]; !ok {
				continue
			}
		}
		table[id] = name
	}
	return &ItemTable{names: table}
}

// Lookup resolves id.
func (t *ItemTable) Lookup(id int) (string, bool) {
	if t == nil {
		return "", false
	}
	name, ok := t.names[id]
	return name, ok
}

// Len returns the number of mapped items.
func (t *ItemTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.names)
}

// Tables bundles both lookups.
type Tables struct {
	Blocks *BlockTable
	Items  *ItemTable
}

// BlockLookup returns the block table as a Lookup.
func (t *Tables) BlockLookup() Lookup {
	return t.Blocks.Lookup
}

// ItemLookup returns the item table as a Lookup.
func (t *Tables) ItemLookup() Lookup {
	return t.Items.Lookup
}
