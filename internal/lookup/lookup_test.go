package lookup

import (
	"context"
	"testing"

	"github.com/mtgjson/mtgjson/internal/cache"
	"github.com/mtgjson/mtgjson/internal/frame"
	"github.com/mtgjson/mtgjson/internal/logging"
)

func newTestCache(t *testing.T) *cache.Cache {
	t.Helper()
	conn, err := frame.Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return cache.New(conn, t.TempDir(), logging.NewNop())
}

func rows(rs ...map[string]any) []map[string]any { return rs }

func registerAllSources(c *cache.Cache) {
	empty := func(ctx context.Context) ([]map[string]any, error) { return nil, nil }
	for _, src := range []cache.Source{
		cache.SourceCardBulk, cache.SourceRulings, cache.SourceSetMetadata,
		cache.SourceRetailInventory, cache.SourceMarketplaceIDMap,
		cache.SourceCommanderSaltiness, cache.SourceCombos, cache.SourceMeldTriplets,
		cache.SourceSecretLairSubsets, cache.SourceMarketplaceSKUs, cache.SourceGathererPageIDs,
		cache.SourceImageOrientation, cache.SourceMultiverseBridge, cache.SourceSealedProducts,
		cache.SourceSealedContents, cache.SourceDeckLists, cache.SourceBoosterConfigs,
		cache.SourceTokenProductMap, cache.SourceManualOverrides, cache.SourceMeldOverrides,
		cache.SourceWatermarkOverrides, cache.SourceForeignExceptions,
	} {
		c.Register(src, empty)
	}
}

func TestBuildProducesAllNineLookupsOnEmptySources(t *testing.T) {
	c := newTestCache(t)
	registerAllSources(c)

	set, err := Build(context.Background(), c)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	frames := map[string]*frame.Frame{
		"Identifiers":        set.Identifiers,
		"Oracle":             set.Oracle,
		"SetNumber":          set.SetNumber,
		"ByName":             set.ByName,
		"Signatures":         set.Signatures,
		"WatermarkOverrides": set.WatermarkOverrides,
		"FaceFlavorNames":    set.FaceFlavorNames,
		"MarketplaceSetMap":  set.MarketplaceSetMap,
	}
	for name, f := range frames {
		if f == nil {
			t.Fatalf("%s lookup is nil", name)
		}
		if _, err := f.Collect(); err != nil {
			t.Fatalf("%s.Collect: %v", name, err)
		}
	}

	bridges := map[string]*frame.Frame{
		"TCGPlayerProductID":       set.Bridges.TCGPlayerProductID,
		"TCGPlayerEtchedProductID": set.Bridges.TCGPlayerEtchedProductID,
		"MTGOID":                   set.Bridges.MTGOID,
		"ScryfallID":               set.Bridges.ScryfallID,
	}
	for name, f := range bridges {
		if f == nil {
			t.Fatalf("bridge %s is nil", name)
		}
		if _, err := f.Collect(); err != nil {
			t.Fatalf("bridge %s.Collect: %v", name, err)
		}
	}
}

func TestIdentifiersLookupFullOuterRetainsCardKingdomOnly(t *testing.T) {
	c := newTestCache(t)
	registerAllSources(c)
	c.Register(cache.SourceRetailInventory, func(ctx context.Context) ([]map[string]any, error) {
		return rows(map[string]any{
			"scryfall_id":            "ck-only-1",
			"side":                   "a",
			"card_kingdom_id":        "1001",
			"card_kingdom_etched_id": nil,
			"card_kingdom_foil_id":   "1002",
		}), nil
	})
	c.Register(cache.SourceMarketplaceIDMap, func(ctx context.Context) ([]map[string]any, error) {
		return rows(map[string]any{
			"scryfall_id":               "id-only-2",
			"side":                      "a",
			"tcgplayer_product_id":      "5001",
			"orientation":               "upright",
		}), nil
	})

	set, err := Build(context.Background(), c)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	out, err := set.Identifiers.Collect()
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d rows, want 2 (full outer union of disjoint keys)", len(out))
	}
}

func TestOracleLookupSortsPrintingsAndRulings(t *testing.T) {
	c := newTestCache(t)
	registerAllSources(c)
	c.Register(cache.SourceCardBulk, func(ctx context.Context) ([]map[string]any, error) {
		return rows(
			map[string]any{"oracle_id": "o1", "set_code": "ZEN"},
			map[string]any{"oracle_id": "o1", "set_code": "LEA"},
		), nil
	})
	c.Register(cache.SourceRulings, func(ctx context.Context) ([]map[string]any, error) {
		return rows(
			map[string]any{"oracle_id": "o1", "date": "2020-01-01", "text": "ruling b"},
			map[string]any{"oracle_id": "o1", "date": "2019-01-01", "text": "ruling a"},
		), nil
	})

	set, err := Build(context.Background(), c)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	out, err := set.Oracle.Collect()
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("got %d oracle rows, want 1", len(out))
	}

	printings, _ := out[0]["printings"].([]any)
	if len(printings) != 2 || printings[0] != "LEA" || printings[1] != "ZEN" {
		t.Fatalf("got printings %v, want [LEA ZEN]", out[0]["printings"])
	}
	rulings, _ := out[0]["rulings"].([]any)
	if len(rulings) != 2 {
		t.Fatalf("got %d rulings, want 2", len(rulings))
	}
	if first, _ := rulings[0].(map[string]any); first["text"] != "ruling a" {
		t.Fatalf("got first ruling %v, want the 2019-01-01 \"ruling a\"", rulings[0])
	}
}
