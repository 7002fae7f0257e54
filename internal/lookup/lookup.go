// Package lookup implements the Lookup Consolidator: nine
// reusable lookup frames derived from the Source Cache via lazy joins,
// each built once per run and joined by the card pipeline at its declared
// key.
package lookup

import (
	"context"
	"fmt"

	"github.com/mtgjson/mtgjson/internal/cache"
	"github.com/mtgjson/mtgjson/internal/frame"
)

// Set holds the nine consolidated lookup frames. Built once per run by
// Build and then shared read-only across every pipeline stage that joins
// against it.
type Set struct {
	// Identifiers: (scryfallId, side) -> (cardKingdomId,
	// cardKingdomEtchedId, cardKingdomFoilId, orientation). Full-outer
	// join so Card-Kingdom-only rows survive. It carries no cached UUID
	// column.
	Identifiers *frame.Frame

	// Oracle: oracleId -> (edhrecSaltiness, edhrecRank, rulings[],
	// printings[]).
	Oracle *frame.Frame

	// SetNumber: (setCode, collectorNumber) -> (foreignData[], duelDeck,
	// foreignUuids[]).
	SetNumber *frame.Frame

	// ByName: name -> (cardParts[], leadershipSkills).
	ByName *frame.Frame

	// Signatures: scryfallId -> signatures[].
	Signatures *frame.Frame

	// WatermarkOverrides: scryfallId -> watermark.
	WatermarkOverrides *frame.Frame

	// FaceFlavorNames: (scryfallId, faceIndex) -> flavorName.
	FaceFlavorNames *frame.Frame

	// MarketplaceSetMap: setCode -> marketplace set metadata.
	MarketplaceSetMap *frame.Frame

	// Bridges holds the four ID-to-UUID inverted indexes the price
	// engine resolves native provider IDs through.
	Bridges Bridges
}

// Bridges are the four provider-native-ID-to-face inverted indexes built
// for the Price Engine. Each frame has columns (native_id, scryfall_id,
// side); the price engine resolves the final face uuid by joining this
// against its own face-UUID index, since raw card-bulk rows don't carry
// the UUID the card pipeline derives downstream.
type Bridges struct {
	TCGPlayerProductID       *frame.Frame
	TCGPlayerEtchedProductID *frame.Frame
	MTGOID                   *frame.Frame
	ScryfallID               *frame.Frame
}

// Build consolidates every lookup frame from the Source Cache. Each
// lookup is built exactly once per run; callers join against the
// returned Set rather than re-deriving any of these frames themselves.
func Build(ctx context.Context, c *cache.Cache) (*Set, error) {
	oracle, err := buildOracleLookup(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("build oracle lookup: %w", err)
	}

	setNumber, err := buildSetNumberLookup(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("build set+number lookup: %w", err)
	}

	identifiers, err := buildIdentifiersLookup(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("build identifiers lookup: %w", err)
	}

	byName, err := buildByNameLookup(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("build by-name lookup: %w", err)
	}

	signatures, err := simplePassthrough(ctx, c, cache.SourceGathererPageIDs, "scryfall_id", "signatures")
	if err != nil {
		return nil, fmt.Errorf("build signatures lookup: %w", err)
	}

	watermarks, err := simplePassthrough(ctx, c, cache.SourceWatermarkOverrides, "scryfall_id", "watermark")
	if err != nil {
		return nil, fmt.Errorf("build watermark overrides: %w", err)
	}

	faceFlavor, err := buildFaceFlavorLookup(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("build face flavor names: %w", err)
	}

	marketplaceSets, err := buildMarketplaceSetMap(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("build marketplace set map: %w", err)
	}

	bridges, err := buildBridges(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("build id-to-uuid bridges: %w", err)
	}

	return &Set{
		Identifiers:        identifiers,
		Oracle:             oracle,
		SetNumber:          setNumber,
		ByName:             byName,
		Signatures:         signatures,
		WatermarkOverrides: watermarks,
		FaceFlavorNames:    faceFlavor,
		MarketplaceSetMap:  marketplaceSets,
		Bridges:            bridges,
	}, nil
}

func simplePassthrough(ctx context.Context, c *cache.Cache, src cache.Source, keyCol, _ string) (*frame.Frame, error) {
	f, err := c.Frame(ctx, src)
	if err != nil {
		return nil, err
	}
	return f.Sort(keyCol), nil
}
