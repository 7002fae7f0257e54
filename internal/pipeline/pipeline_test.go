package pipeline

import (
	"context"
	"testing"

	"github.com/mtgjson/mtgjson/internal/cache"
	"github.com/mtgjson/mtgjson/internal/frame"
	"github.com/mtgjson/mtgjson/internal/logging"
	"github.com/mtgjson/mtgjson/internal/lookup"
)

func newTestEngine(t *testing.T, bulkRows []map[string]any) *Engine {
	t.Helper()
	conn, err := frame.Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	c := cache.New(conn, t.TempDir(), logging.NewNop())
	empty := func(ctx context.Context) ([]map[string]any, error) { return nil, nil }
	for _, src := range []cache.Source{
		cache.SourceRulings, cache.SourceSetMetadata, cache.SourceRetailInventory,
		cache.SourceMarketplaceIDMap, cache.SourceCommanderSaltiness, cache.SourceCombos,
		cache.SourceMeldTriplets, cache.SourceSecretLairSubsets, cache.SourceMarketplaceSKUs,
		cache.SourceGathererPageIDs, cache.SourceImageOrientation, cache.SourceMultiverseBridge,
		cache.SourceSealedProducts, cache.SourceSealedContents, cache.SourceDeckLists,
		cache.SourceBoosterConfigs, cache.SourceTokenProductMap, cache.SourceManualOverrides,
		cache.SourceMeldOverrides, cache.SourceWatermarkOverrides, cache.SourceForeignExceptions,
	} {
		c.Register(src, empty)
	}
	c.Register(cache.SourceCardBulk, func(ctx context.Context) ([]map[string]any, error) {
		return bulkRows, nil
	})

	lk, err := lookup.Build(context.Background(), c)
	if err != nil {
		t.Fatalf("lookup.Build: %v", err)
	}

	return New(conn, c, lk, logging.NewNop())
}

func TestBuildSetProducesDeterministicUUID(t *testing.T) {
	bulk := []map[string]any{
		{
			"scryfall_id": "abc-123", "oracle_id": "oracle-1", "set_code": "LEA",
			"collector_number": "1", "name": "Black Lotus", "layout": "normal",
			"mana_cost": "{0}", "type_line": "Artifact", "text": "Sacrifice Black Lotus.",
			"rarity": "rare", "border_color": "black", "frame_version": "1993",
			"language": "English", "finishes": []any{"nonfoil"}, "is_token": false,
		},
	}
	e := newTestEngine(t, bulk)

	result, err := e.BuildSet(context.Background(), "LEA")
	if err != nil {
		t.Fatalf("BuildSet: %v", err)
	}
	if len(result.Cards) != 1 {
		t.Fatalf("got %d cards, want 1", len(result.Cards))
	}

	first := result.Cards[0].UUID
	if first == "" {
		t.Fatalf("expected non-empty UUID")
	}

	result2, err := e.BuildSet(context.Background(), "LEA")
	if err != nil {
		t.Fatalf("second BuildSet: %v", err)
	}
	if result2.Cards[0].UUID != first {
		t.Fatalf("UUID not deterministic across rebuilds: %s != %s", result2.Cards[0].UUID, first)
	}
}

func TestBuildSetExplodesMultiFacedCardAndSortsColors(t *testing.T) {
	bulk := []map[string]any{
		{
			"scryfall_id": "split-1", "oracle_id": "oracle-2", "set_code": "GRN",
			"collector_number": "10", "name": "Find//Finality", "layout": "split",
			"rarity": "rare", "border_color": "black", "frame_version": "2015",
			"language": "English", "finishes": []any{"nonfoil", "foil"}, "is_token": false,
			"faces": []any{
				map[string]any{"name": "Find", "mana_cost": "{1}{G}", "type_line": "Sorcery", "text": "Find text"},
				map[string]any{"name": "Finality", "mana_cost": "{3}{B}{G}", "type_line": "Sorcery", "text": "Finality text"},
			},
		},
	}
	e := newTestEngine(t, bulk)

	result, err := e.BuildSet(context.Background(), "GRN")
	if err != nil {
		t.Fatalf("BuildSet: %v", err)
	}
	if len(result.Cards) != 2 {
		t.Fatalf("got %d exploded faces, want 2", len(result.Cards))
	}

	for _, c := range result.Cards {
		if len(c.OtherFaceIDs) != 1 {
			t.Errorf("face %s: got %d otherFaceIds, want 1", c.Name, len(c.OtherFaceIDs))
		}
	}

	finalityFace := result.Cards[1]
	if len(finalityFace.Colors) != 2 || finalityFace.Colors[0] != "B" || finalityFace.Colors[1] != "G" {
		t.Fatalf("expected colors [B, G] (W->U->B->R->G order), got %v", finalityFace.Colors)
	}
}
