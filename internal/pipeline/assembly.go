package pipeline

import "github.com/mtgjson/mtgjson/internal/uuidgen"

// assignUUIDs implements stage 6: pack per-face identifiers
// into a nested struct and assign a UUID — the previous build's cached
// UUID if the row already carries one (a resumed/incremental build re-
// joining its own prior output), otherwise the deterministic v5 UUID over
// the canonical (scryfallId, side, name, faceName) face key — plus a
// secondary v4 UUID for identifier tracking.
func assignUUIDs(rows []map[string]any) []map[string]any {
	out := make([]map[string]any, len(rows))
	for i, row := range rows {
		scryfallID := str(row["scryfall_id"])
		side := str(row["side"])
		name := str(row["name"])
		faceName := str(row["face_name"])

		var id string
		if cached, ok := row["cached_uuid"].(string); ok && cached != "" {
			id = cached
		} else {
			id = uuidgen.FaceKey(scryfallID, side, name, faceName).String()
		}

		row["uuid"] = id
		row["tracking_id"] = uuidgen.TrackingID().String()
		row["identifiers"] = map[string]any{
			"scryfallId":               scryfallID,
			"scryfallOracleId":         row["oracle_id"],
			"cardKingdomId":            row["card_kingdom_id"],
			"cardKingdomEtchedId":      row["card_kingdom_etched_id"],
			"cardKingdomFoilId":        row["card_kingdom_foil_id"],
			"multiverseId":             row["multiverse_id_raw"],
		}
		out[i] = row
	}
	return out
}
