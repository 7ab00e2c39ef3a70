package datafix

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hellominers/statsupdater/internal/errors"
	"github.com/hellominers/statsupdater/internal/statsfile"
)

func parse(t *testing.T, s string) statsfile.Document {
	t.Helper()
	doc, err := statsfile.ParseDocument([]byte(s))
	require.NoError(t, err)
	return doc
}

func TestLegacyTransform(t *testing.T) {
	t.Parallel()

	doc := parse(t, `{
		"stat.mineBlock.minecraft.stone": 5,
		"stat.mineBlock.1": 2,
		"stat.craftItem.minecraft.planks": 8,
		"stat.useItem.256": 4,
		"stat.pickup.minecraft.dirt": 1,
		"stat.drop.minecraft.dirt": 1,
		"stat.breakItem.minecraft.iron_shovel": 1,
		"stat.killEntity.Zombie": 3,
		"stat.killEntity.CaveSpider": 2,
		"stat.entityKilledBy.PigZombie": 1,
		"stat.walkOneCm": 12345,
		"stat.playOneMinute": 600,
		"achievement.openInventory": 1,
		"achievement.exploreAllBiomes": {"value": 0, "progress": []},
		"stat.unknownKind.minecraft.stone": 1
	}`)

	out, err := NewLegacy().Transform(doc, LegacyDataVersion, 3839)
	require.NoError(t, err)

	_, hasVersion := out[statsfile.VersionKey]
	assert.False(t, hasVersion, "transform must leave the version marker to the caller")

	data, err := json.Marshal(out)
	require.NoError(t, err)
	assert.JSONEq(t, `{"stats": {
		"minecraft:mined": {"minecraft:stone": 5, "minecraft:1": 2},
		"minecraft:crafted": {"minecraft:planks": 8},
		"minecraft:used": {"minecraft:256": 4},
		"minecraft:picked_up": {"minecraft:dirt": 1},
		"minecraft:dropped": {"minecraft:dirt": 1},
		"minecraft:broken": {"minecraft:iron_shovel": 1},
		"minecraft:killed": {"minecraft:zombie": 3, "minecraft:cave_spider": 2},
		"minecraft:killed_by": {"minecraft:zombified_piglin": 1},
		"minecraft:custom": {"minecraft:walk_one_cm": 12345, "minecraft:play_time": 600}
	}}`, string(data))
}

func TestLegacyTransformMergesDuplicates(t *testing.T) {
	t.Parallel()

	doc := parse(t, `{"stat.mineBlock.minecraft.stone": 5, "stat.mineBlock.stone": 2}`)
	out, err := NewLegacy().Transform(doc, LegacyDataVersion, 3839)
	require.NoError(t, err)

	stats, ok := out.Stats()
	require.True(t, ok)
	mined, ok := stats["minecraft:mined"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, json.Number("7"), mined["minecraft:stone"])
}

func TestLegacyTransformDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	doc := parse(t, `{"stat.jump": 3}`)
	_, err := NewLegacy().Transform(doc, LegacyDataVersion, 3839)
	require.NoError(t, err)
	assert.Equal(t, statsfile.Document{"stat.jump": json.Number("3")}, doc)
}

func TestLegacyTransformNestedInput(t *testing.T) {
	t.Parallel()

	doc := parse(t, `{"stats": {"minecraft:mined": {"minecraft:1": 2}}}`)
	out, err := NewLegacy().Transform(doc, FlatteningDataVersion, 3839)
	require.NoError(t, err)

	stats, ok := out.Stats()
	require.True(t, ok)
	assert.Equal(t, map[string]any{"minecraft:1": json.Number("2")}, stats["minecraft:mined"])
}

func TestLegacyTransformRejectsVersions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		from, to int
	}{
		{name: "backwards", from: 3839, to: 100},
		{name: "too old", from: 99, to: 3839},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewLegacy().Transform(statsfile.Document{}, tt.from, tt.to)
			require.Error(t, err)
			assert.True(t, errors.IsCategory(err, errors.CategoryTransform))
		})
	}
}

func TestTransformFunc(t *testing.T) {
	t.Parallel()

	var called bool
	var tr Transformer = TransformFunc(func(doc statsfile.Document, from, to int) (statsfile.Document, error) {
		called = true
		return statsfile.Document{statsfile.StatsKey: map[string]any{}}, nil
	})
	out, err := tr.Transform(nil, 1, 2)
	require.NoError(t, err)
	assert.True(t, called)
	assert.Contains(t, out, statsfile.StatsKey)
}

func TestConvertLegacyKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		key      string
		category string
		id       string
		ok       bool
	}{
		{key: "stat.mineBlock.minecraft.stone", category: CategoryMined, id: "minecraft:stone", ok: true},
		{key: "stat.mineBlock.17", category: CategoryMined, id: "minecraft:17", ok: true},
		{key: "stat.killEntity.EntityHorse", category: CategoryKilled, id: "minecraft:horse", ok: true},
		{key: "stat.leaveGame", category: CategoryCustom, id: "minecraft:leave_game", ok: true},
		{key: "stat.mineBlock.", ok: false},
		{key: "stat.", ok: false},
		{key: "achievement.mineWood", ok: false},
	}
	for _, tt := range tests {
		category, id, ok := convertLegacyKey(tt.key)
		assert.Equal(t, tt.ok, ok, tt.key)
		assert.Equal(t, tt.category, category, tt.key)
		assert.Equal(t, tt.id, id, tt.key)
	}
}
