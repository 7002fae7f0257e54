package lookup

import (
	"context"
	"fmt"

	"github.com/mtgjson/mtgjson/internal/cache"
	"github.com/mtgjson/mtgjson/internal/frame"
)

// buildIdentifiersLookup joins Card Kingdom's retail inventory against the
// marketplace ID map on (scryfallId, side) with a FULL OUTER join, so a
// Card-Kingdom-only listing is retained rather than silently dropped.
func buildIdentifiersLookup(ctx context.Context, c *cache.Cache) (*frame.Frame, error) {
	retail, err := c.Frame(ctx, cache.SourceRetailInventory)
	if err != nil {
		return nil, err
	}
	marketIDs, err := c.Frame(ctx, cache.SourceMarketplaceIDMap)
	if err != nil {
		return nil, err
	}

	joined := retail.Join(marketIDs, frame.JoinFullOuter,
		"l.scryfall_id = r.scryfall_id AND l.side = r.side", "l", "r")

	return joined.Select(
		"COALESCE(l.scryfall_id, r.scryfall_id) AS scryfall_id",
		"COALESCE(l.side, r.side) AS side",
		"l.card_kingdom_id",
		"l.card_kingdom_etched_id",
		"l.card_kingdom_foil_id",
		"r.orientation",
	).Sort("scryfall_id, side"), nil
}

// buildOracleLookup groups rulings and printings by oracleId. Both
// aggregations sort their lists before grouping, per the determinism
// rule for any grouped list.
func buildOracleLookup(ctx context.Context, c *cache.Cache) (*frame.Frame, error) {
	rulings, err := c.Frame(ctx, cache.SourceRulings)
	if err != nil {
		return nil, err
	}
	saltiness, err := c.Frame(ctx, cache.SourceCommanderSaltiness)
	if err != nil {
		return nil, err
	}
	bulk, err := c.Frame(ctx, cache.SourceCardBulk)
	if err != nil {
		return nil, err
	}

	rulingsAgg := rulings.Sort("oracle_id, date, text").GroupBy(
		[]string{"oracle_id"},
		[]string{"list(struct_pack(date := date, text := text)) AS rulings"},
	)

	printingsAgg := bulk.Sort("oracle_id, set_code").GroupBy(
		[]string{"oracle_id"},
		[]string{"list_sort(list(DISTINCT set_code)) AS printings"},
	)

	joined := rulingsAgg.Join(printingsAgg, frame.JoinFullOuter,
		"l.oracle_id = r.oracle_id", "l", "r")
	withSalt := joined.Join(saltiness, frame.JoinLeft,
		"l.oracle_id = s.oracle_id", "l", "s")

	return withSalt.Select(
		"l.oracle_id",
		"l.rulings",
		"l.printings",
		"s.edhrec_saltiness",
		"s.edhrec_rank",
	).Sort("oracle_id"), nil
}

// buildSetNumberLookup is the most complex lookup: it joins
// foreign-language data, duel-deck metadata, and foreign UUID cross-
// references, all keyed by (setCode, collectorNumber), with foreignData
// grouped into a sorted list per key.
func buildSetNumberLookup(ctx context.Context, c *cache.Cache) (*frame.Frame, error) {
	foreign, err := c.Frame(ctx, cache.SourceMultiverseBridge)
	if err != nil {
		return nil, err
	}
	exceptions, err := c.Frame(ctx, cache.SourceForeignExceptions)
	if err != nil {
		return nil, err
	}
	deckLists, err := c.Frame(ctx, cache.SourceDeckLists)
	if err != nil {
		return nil, err
	}

	foreignPatched := foreign.Join(exceptions, frame.JoinLeft,
		"l.set_code = r.set_code AND l.collector_number = r.collector_number AND l.language = r.language",
		"l", "r")

	foreignAgg := foreignPatched.Select(
		"l.set_code", "l.collector_number",
		"COALESCE(r.language, l.language) AS language",
		"COALESCE(r.name, l.name) AS name",
		"COALESCE(r.text, l.text) AS text",
		"COALESCE(r.foreign_uuid, l.foreign_uuid) AS foreign_uuid",
	).Sort("set_code, collector_number, language").GroupBy(
		[]string{"set_code", "collector_number"},
		[]string{
			"list(struct_pack(language := language, name := name, text := text, foreign_uuid := foreign_uuid)) AS foreign_data",
			"list_sort(list(DISTINCT foreign_uuid)) AS foreign_uuids",
		},
	)

	duelDeck := deckLists.Filter("deck_kind = 'duel_deck'").Select(
		"set_code", "collector_number", "duel_deck_side AS duel_deck",
	)

	joined := foreignAgg.Join(duelDeck, frame.JoinLeft,
		"l.set_code = r.set_code AND l.collector_number = r.collector_number", "l", "r")

	return joined.Select(
		"l.set_code", "l.collector_number",
		"l.foreign_data", "l.foreign_uuids",
		"r.duel_deck",
	).Sort("set_code, collector_number"), nil
}

// buildByNameLookup groups multi-face card-part names and joins leadership
// skills, both keyed by the oracle card name.
func buildByNameLookup(ctx context.Context, c *cache.Cache) (*frame.Frame, error) {
	bulk, err := c.Frame(ctx, cache.SourceCardBulk)
	if err != nil {
		return nil, err
	}
	combos, err := c.Frame(ctx, cache.SourceCombos)
	if err != nil {
		return nil, err
	}

	cardParts := bulk.Filter("layout IN ('split', 'adventure', 'aftermath', 'flip', 'transform', 'modal_dfc')").
		Sort("name, face_name").
		GroupBy(
			[]string{"name"},
			[]string{"list_sort(list(DISTINCT face_name)) AS card_parts"},
		)

	leadership := combos.Select(
		"name",
		"struct_pack(brawl := is_brawl_legal, commander := is_commander_legal, oathbreaker := is_oathbreaker_legal) AS leadership_skills",
	)

	joined := cardParts.Join(leadership, frame.JoinFullOuter, "l.name = r.name", "l", "r")
	return joined.Select(
		"COALESCE(l.name, r.name) AS name",
		"l.card_parts",
		"r.leadership_skills",
	).Sort("name"), nil
}

// buildMarketplaceSetMap packs each set's marketplace-side metadata into a
// single nested struct column, keyed by setCode.
func buildMarketplaceSetMap(ctx context.Context, c *cache.Cache) (*frame.Frame, error) {
	f, err := c.Frame(ctx, cache.SourceMarketplaceIDMap)
	if err != nil {
		return nil, err
	}
	return f.Select(
		"set_code",
		"struct_pack(tcgplayerId := tcgplayer_group_id, cardmarketId := cardmarket_set_id, cardKingdomId := card_kingdom_set_id) AS marketplace_set",
	).Sort("set_code"), nil
}

// buildFaceFlavorLookup keys flavor-name overrides by (scryfallId,
// faceIndex) — a face-level grain distinct from every other lookup here,
// since flavor names (e.g. Godzilla series) apply per face, not per card.
func buildFaceFlavorLookup(ctx context.Context, c *cache.Cache) (*frame.Frame, error) {
	f, err := c.Frame(ctx, cache.SourceGathererPageIDs)
	if err != nil {
		return nil, err
	}
	return f.Select("scryfall_id", "face_index", "flavor_name").
		Sort("scryfall_id, face_index"), nil
}

// buildBridges builds the four provider-native-ID-to-face inverted
// indexes the Price Engine resolves native provider IDs through. Card
// bulk rows don't carry a face UUID — UUIDs are assigned downstream by
// the card pipeline's deterministic derivation — so each bridge maps a
// native ID to the (scryfallId, side) composite key instead; the price
// engine then looks that composite up against the pipeline's own
// face-UUID index to get the final uuid. A provider ID that maps to more
// than one face (e.g. a reprint sharing a TCGplayer SKU) is left
// ungrouped here deliberately — the price engine's join handles fan-out
// duplication.
func buildBridges(ctx context.Context, c *cache.Cache) (Bridges, error) {
	bulk, err := c.Frame(ctx, cache.SourceCardBulk)
	if err != nil {
		return Bridges{}, fmt.Errorf("load card bulk for bridges: %w", err)
	}
	marketIDs, err := c.Frame(ctx, cache.SourceMarketplaceIDMap)
	if err != nil {
		return Bridges{}, fmt.Errorf("load marketplace id map for bridges: %w", err)
	}

	withIDs := bulk.Join(marketIDs, frame.JoinLeft,
		"l.scryfall_id = r.scryfall_id AND l.side = r.side", "l", "r")

	tcgplayer := withIDs.Filter("r.tcgplayer_product_id IS NOT NULL").
		Select("r.tcgplayer_product_id AS native_id", "l.scryfall_id", "l.side").
		Sort("native_id")

	tcgplayerEtched := withIDs.Filter("r.tcgplayer_etched_product_id IS NOT NULL").
		Select("r.tcgplayer_etched_product_id AS native_id", "l.scryfall_id", "l.side").
		Sort("native_id")

	mtgo := withIDs.Filter("r.mtgo_id IS NOT NULL").
		Select("r.mtgo_id AS native_id", "l.scryfall_id", "l.side").
		Sort("native_id")

	scryfall := bulk.Select("scryfall_id AS native_id", "scryfall_id", "side").Sort("native_id")

	return Bridges{
		TCGPlayerProductID:       tcgplayer,
		TCGPlayerEtchedProductID: tcgplayerEtched,
		MTGOID:                   mtgo,
		ScryfallID:               scryfall,
	}, nil
}
