package mapping

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hellominers/statsupdater/internal/errors"
)

func TestBlockTable(t *testing.T) {
	t.Parallel()

	table := NewBlockTable([]string{"minecraft:air", "minecraft:stone", "%%FILTER_ME%%", "dirt", "", "minecraft:air"})
	assert.Equal(t, 4, table.Len(), "trailing holes are trimmed")

	tests := []struct {
		id   int
		want string
		ok   bool
	}{
		{id: -1},
		{id: 0},
		{id: 1, want: "minecraft:stone", ok: true},
		{id: 2},
		{id: 3, want: "minecraft:dirt", ok: true},
		{id: 4},
		{id: 5},
		{id: 9999},
	}
	for _, tt := range tests {
		got, ok := table.Lookup(tt.id)
		assert.Equal(t, tt.ok, ok, "id %d", tt.id)
		assert.Equal(t, tt.want, got, "id %d", tt.id)
	}
}

func TestNilTablesResolveNothing(t *testing.T) {
	t.Parallel()

	var blocks *BlockTable
	var items *ItemTable
	_, ok := blocks.Lookup(1)
	assert.False(t, ok)
	_, ok = items.Lookup(1)
	assert.False(t, ok)
	assert.Zero(t, blocks.Len())
	assert.Zero(t, items.Len())
}

func TestItemTableRenamesAndRegistry(t *testing.T) {
	t.Parallel()

	items := map[int]string{256: "iron_shovel", 326: "water", 382: "speckled_melon"}
	renames := map[string]string{"speckled_melon": "glistering_melon_slice"}

	open := NewItemTable(items, renames, nil)
	assert.Equal(t, 3, open.Len())
	name, ok := open.Lookup(382)
	require.True(t, ok)
	assert.Equal(t, "minecraft:glistering_melon_slice", name)

	filtered := NewItemTable(items, renames, []string{"iron_shovel", "glistering_melon_slice"})
	assert.Equal(t, 2, filtered.Len())
	_, ok = filtered.Lookup(326)
	assert.False(t, ok, "water is not an item")
}

func TestQualify(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "minecraft:stone", Qualify("stone"))
	assert.Equal(t, "mymod:ore", Qualify("mymod:ore"))
	assert.Equal(t, "", Qualify("  "))
}

func TestMapLookupCopiesInput(t *testing.T) {
	t.Parallel()

	m := map[int]string{1: "minecraft:stone"}
	lookup := MapLookup(m)
	m[1] = "minecraft:dirt"

	name, ok := lookup(1)
	require.True(t, ok)
	assert.Equal(t, "minecraft:stone", name)
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	tables, err := LoadFile(filepath.Join("testdata", "mappings.yaml"))
	require.NoError(t, err)

	blocks := tables.BlockLookup()
	name, ok := blocks(1)
	require.True(t, ok)
	assert.Equal(t, "minecraft:stone", name)
	name, ok = blocks(2)
	require.True(t, ok)
	assert.Equal(t, "minecraft:grass_block", name)
	_, ok = blocks(4)
	assert.False(t, ok)
	assert.Equal(t, 6, tables.Blocks.Len())

	items := tables.ItemLookup()
	name, ok = items(257)
	require.True(t, ok)
	assert.Equal(t, "minecraft:iron_pickaxe", name)
	name, ok = items(382)
	require.True(t, ok)
	assert.Equal(t, "minecraft:glistering_melon_slice", name)
	_, ok = items(326)
	assert.False(t, ok)
}

func TestLoadFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
	}{
		{name: "empty document", input: ""},
		{name: "no tables", input: "renames: {}\n"},
		{name: "unknown field", input: "blocks: [stone]\nblockz: []\n"},
		{name: "negative item id", input: "items:\n  -3: minecraft:stone\n"},
		{name: "blank item name", input: "items:\n  3: \"\"\n"},
		{name: "malformed yaml", input: "blocks: [stone\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Load(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.True(t, errors.IsCategory(err, errors.CategoryMapping))
		})
	}

	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryMapping))
}
