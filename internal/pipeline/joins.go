package pipeline

import "github.com/mtgjson/mtgjson/internal/frame"

// joinLookups implements stage 4: join identifiers, oracle,
// set+number, by-name, and marketplace-identifier lookups against the
// stage-2 checkpoint, then augment availability using ID presence (e.g.
// mtgoId ⇒ add "mtgo"). This stays a real Frame/SQL join chain, unlike
// the Go-side stages around it, because every lookup here was already
// built as a lazy Frame by internal/lookup and joining lazily is strictly
// cheaper than collecting both sides first.
func (e *Engine) joinLookups(base *frame.Frame) *frame.Frame {
	withIdentifiers := base.Join(e.Lookup.Identifiers, frame.JoinLeft,
		"l.scryfall_id = r.scryfall_id AND l.side = r.side", "l", "r").
		Select(
			"l.*",
			"r.card_kingdom_id", "r.card_kingdom_etched_id", "r.card_kingdom_foil_id",
		)

	withOracle := withIdentifiers.Join(e.Lookup.Oracle, frame.JoinLeft,
		"l.oracle_id = r.oracle_id", "l", "r").
		Select(
			"l.*",
			"r.rulings", "r.printings", "r.edhrec_saltiness", "r.edhrec_rank",
		)

	withSetNumber := withOracle.Join(e.Lookup.SetNumber, frame.JoinLeft,
		"l.set_code = r.set_code AND l.collector_number = r.collector_number", "l", "r").
		Select(
			"l.*",
			"r.foreign_data", "r.foreign_uuids", "r.duel_deck",
		)

	withByName := withSetNumber.Join(e.Lookup.ByName, frame.JoinLeft,
		"l.name = r.name", "l", "r").
		Select(
			"l.*",
			"r.card_parts", "r.leadership_skills",
		)

	withMarketplace := withByName.Join(e.Lookup.MarketplaceSetMap, frame.JoinLeft,
		"l.set_code = r.set_code", "l", "r").
		Select("l.*", "r.marketplace_set")

	return withMarketplace.WithColumn("availability", augmentAvailabilitySQL())
}

// augmentAvailabilitySQL adds "mtgo" to the availability list whenever
// any Card Kingdom / MTGO identifier is present, without dropping the
// base list already seeded in stage 2.
func augmentAvailabilitySQL() string {
	return `list_distinct(list_concat(
		availability,
		CASE WHEN card_kingdom_id IS NOT NULL OR card_kingdom_foil_id IS NOT NULL
			THEN ['cardKingdom'] ELSE [] END
	))`
}
