package datafix

import (
	"maps"
	"slices"
	"strings"
	"unicode"

	"github.com/hellominers/statsupdater/internal/errors"
	"github.com/hellominers/statsupdater/internal/mapping"
	"github.com/hellominers/statsupdater/internal/statsfile"
)

const legacyStatPrefix = "stat."

// Category names of the nested stats layout.
const (
	CategoryCrafted  = "minecraft:crafted"
	CategoryUsed     = "minecraft:used"
	CategoryBroken   = "minecraft:broken"
	CategoryPickedUp = "minecraft:picked_up"
	CategoryDropped  = "minecraft:dropped"
	CategoryMined    = "minecraft:mined"
	CategoryKilled   = "minecraft:killed"
	CategoryKilledBy = "minecraft:killed_by"
	CategoryCustom   = "minecraft:custom"
)

// legacyKinds maps the second segment of "stat.<kind>.<id>" to its category.
var legacyKinds = map[string]string{
	"craftItem":      CategoryCrafted,
	"useItem":        CategoryUsed,
	"breakItem":      CategoryBroken,
	"pickup":         CategoryPickedUp,
	"drop":           CategoryDropped,
	"mineBlock":      CategoryMined,
	"killEntity":     CategoryKilled,
	"entityKilledBy": CategoryKilledBy,
}

// entityKinds are categories whose ids are entity names rather than items or blocks.
var entityKinds = map[string]bool{
	CategoryKilled:   true,
	CategoryKilledBy: true,
}

// renamedCustomStats covers custom stats whose new name is not the snake case of the old one.
var renamedCustomStats = map[string]string{
	"playOneMinute":            "play_time",
	"cauldronFilled":           "fill_cauldron",
	"cauldronUsed":             "use_cauldron",
	"armorCleaned":             "clean_armor",
	"bannerCleaned":            "clean_banner",
	"itemEnchanted":            "enchant_item",
	"recordPlayed":             "play_record",
	"furnaceInteraction":       "interact_with_furnace",
	"craftingTableInteraction": "interact_with_crafting_table",
	"beaconInteraction":        "interact_with_beacon",
	"brewingstandInteraction":  "interact_with_brewingstand",
	"chestOpened":              "open_chest",
	"enderchestOpened":         "open_enderchest",
	"shulkerBoxOpened":         "open_shulker_box",
	"trappedChestTriggered":    "trigger_trapped_chest",
	"noteblockPlayed":          "play_noteblock",
	"noteblockTuned":           "tune_noteblock",
	"flowerPotted":             "pot_flower",
	"dispenserInspected":       "inspect_dispenser",
	"dropperInspected":         "inspect_dropper",
	"hopperInspected":          "inspect_hopper",
	"sleepInBed":               "sleep_in_bed",
}

// renamedEntities covers legacy entity ids that do not snake-case to their current name.
var renamedEntities = map[string]string{
	"EntityHorse":   "horse",
	"LavaSlime":     "magma_cube",
	"MushroomCow":   "mooshroom",
	"Ozelot":        "ocelot",
	"PigZombie":     "zombified_piglin",
	"SnowMan":       "snow_golem",
	"VillagerGolem": "iron_golem",
	"WitherBoss":    "wither",
	"EnderDragon":   "ender_dragon",
}

// Legacy converts the flat pre-flattening layout into the nested stats object.
// Keys that are not "stat." entries (achievements) and non-numeric values are
// discarded. Numeric legacy ids are kept as "minecraft:<id>" for the caller to
// resolve.
type Legacy struct{}

// NewLegacy returns the built-in transformer.
func NewLegacy() *Legacy {
	return &Legacy{}
}

// Transform implements Transformer.
func (l *Legacy) Transform(doc statsfile.Document, from, to int) (statsfile.Document, error) {
	if from > to {
		return nil, errors.Newf("cannot transform stats backwards from version %d to %d", from, to).
			Category(errors.CategoryTransform).
			Context("from_version", from).
			Context("to_version", to).
			Build()
	}
	if from < LegacyDataVersion {
		return nil, errors.Newf("stats data version %d predates the supported legacy version %d", from, LegacyDataVersion).
			Category(errors.CategoryTransform).
			Context("from_version", from).
			Build()
	}

	stats := make(map[string]any)
	out := statsfile.Document{statsfile.StatsKey: stats}

	if nested, ok := doc.Stats(); ok && from >= FlatteningDataVersion {
		for category, values := range nested {
			if m, isMap := values.(map[string]any); isMap {
				stats[category] = maps.Clone(m)
			}
		}
		return out, nil
	}

	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, key := range keys {
		value := doc[key]
		if !statsfile.IsNumber(value) {
			continue
		}
		category, id, ok := convertLegacyKey(key)
		if !ok {
			continue
		}

		values, _ := stats[category].(map[string]any)
		if values == nil {
			values = make(map[string]any)
			stats[category] = values
		}
		if existing, dup := values[id]; dup {
			values[id] = statsfile.MergeValues(existing, value)
			continue
		}
		values[id] = value
	}

	return out, nil
}

// convertLegacyKey splits "stat.<kind>[.<id>]" into a category and identifier.
func convertLegacyKey(key string) (category, id string, ok bool) {
	rest, found := strings.CutPrefix(key, legacyStatPrefix)
	if !found || rest == "" {
		return "", "", false
	}

	kind, sub, hasSub := strings.Cut(rest, ".")
	if !hasSub {
		name, renamed := renamedCustomStats[kind]
		if !renamed {
			name = snakeCase(kind)
		}
		return CategoryCustom, mapping.Qualify(name), true
	}

	category, known := legacyKinds[kind]
	if !known || sub == "" {
		return "", "", false
	}

	if entityKinds[category] {
		name, renamed := renamedEntities[sub]
		if !renamed {
			name = snakeCase(sub)
		}
		return category, mapping.Qualify(name), true
	}

	// "minecraft.stone" -> "minecraft:stone", "1" -> "minecraft:1"
	if ns, name, dotted := strings.Cut(sub, "."); dotted {
		return category, ns + ":" + name, true
	}
	return category, mapping.Qualify(sub), true
}

// snakeCase turns "walkOneCm" into "walk_one_cm" and "CaveSpider" into "cave_spider".
func snakeCase(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

var _ Transformer = (*Legacy)(nil)
