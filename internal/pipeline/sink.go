package pipeline

import (
	"context"
	"fmt"
	"sort"

	"github.com/mtgjson/mtgjson/internal/model"
)

// joinSignatures implements stage 12: join signatures, then
// drop raw upstream columns / rename to the output schema. The rename
// itself happens in sinkRows, which builds the exported model.CardFace /
// model.TokenFace structs field-by-field instead of passing the internal
// snake_case row map straight through.
func (e *Engine) joinSignatures(ctx context.Context, rows []map[string]any) ([]map[string]any, error) {
	sigRows, err := e.Lookup.Signatures.Collect()
	if err != nil {
		return nil, fmt.Errorf("collect signatures lookup: %w", err)
	}
	bySignature := map[string]string{}
	for _, s := range sigRows {
		if id := str(s["scryfall_id"]); id != "" {
			bySignature[id] = str(s["signatures"])
		}
	}
	for _, row := range rows {
		if sig, ok := bySignature[str(row["scryfall_id"])]; ok && sig != "" {
			row["signature"] = sig
		}
	}
	return rows, nil
}

// sinkRows implements stage 13: deduplicate to the default
// language per face (sort-then-keep-first, for determinism), compute
// variations, and split card-type rows from token-type
// rows. Foil/non-foil "twins" from legacy sets that split a finish into
// its own Scryfall object share (setCode, collectorNumber, side), so the
// dedupe keeps only one of them; no twin-linking pass runs, and the
// dropped twin does not appear in the output or in any variations list.
func sinkRows(rows []map[string]any) ([]model.CardFace, []model.TokenFace) {
	deduped := dedupeDefaultLanguage(rows)
	computeVariations(deduped)

	var cards []model.CardFace
	var tokens []model.TokenFace
	for _, row := range deduped {
		if truthy(row["is_token"]) {
			tokens = append(tokens, toTokenFace(row))
		} else {
			cards = append(cards, toCardFace(row))
		}
	}
	return cards, tokens
}

// dedupeDefaultLanguage keeps exactly one row per (setCode, collectorNumber,
// side): the English printing if one is in scope, otherwise whichever
// language sorted first. Rows are sorted before deduplication, per
// "sort first, keep first" rule.
func dedupeDefaultLanguage(rows []map[string]any) []map[string]any {
	sort.SliceStable(rows, func(i, j int) bool {
		ki := dedupeKey(rows[i])
		kj := dedupeKey(rows[j])
		if ki != kj {
			return ki < kj
		}
		li, lj := str(rows[i]["language"]), str(rows[j]["language"])
		if li == "English" && lj != "English" {
			return true
		}
		if lj == "English" && li != "English" {
			return false
		}
		return li < lj
	})

	var out []map[string]any
	seen := map[string]bool{}
	for _, row := range rows {
		k := dedupeKey(row)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, row)
	}
	return out
}

func dedupeKey(row map[string]any) string {
	return fmt.Sprintf("%s|%s|%s", str(row["set_code"]), str(row["collector_number"]), str(row["side"]))
}

// computeVariations groups rows by (setCode, name) and links each member
// to the UUIDs of the other members — alternate-art printings of the same
// card within one set.
func computeVariations(rows []map[string]any) {
	byKey := map[string][]int{}
	for i, row := range rows {
		k := str(row["set_code"]) + "|" + str(row["name"])
		byKey[k] = append(byKey[k], i)
	}
	for _, idxs := range byKey {
		if len(idxs) < 2 {
			continue
		}
		for _, i := range idxs {
			var others []string
			for _, j := range idxs {
				if j == i {
					continue
				}
				others = append(others, str(rows[j]["uuid"]))
			}
			rows[i]["variations"] = others
		}
	}
}

func toCardFace(row map[string]any) model.CardFace {
	legalities := legalitiesFromMap(mapOf(row["legalities"]))
	identifiers := identifiersFromMap(mapOf(row["identifiers"]))

	var leadership *model.LeadershipSkills
	if ls, ok := row["leadership_skills"].(map[string]any); ok {
		leadership = &model.LeadershipSkills{
			Brawl:       truthy(ls["brawl"]),
			Commander:   truthy(ls["commander"]),
			Oathbreaker: truthy(ls["oathbreaker"]),
		}
	}

	var related *model.RelatedCards
	if rr := stringList(row["reverse_related"]); len(rr) > 0 {
		related = &model.RelatedCards{ReverseRelated: rr}
	}

	var sourceProducts *model.SourceProducts
	if sp, ok := row["source_products"].(map[string]any); ok {
		sourceProducts = &model.SourceProducts{
			Nonfoil: stringList(sp["nonfoil"]),
			Foil:    stringList(sp["foil"]),
			Etched:  stringList(sp["etched"]),
		}
	}

	foreignData := foreignDataFromList(row["foreign_data"])

	return model.CardFace{
		UUID:                    str(row["uuid"]),
		Name:                    str(row["name"]),
		ASCIIName:               optStrPtr(row["ascii_name"]),
		FaceName:                optStrPtr(row["face_name"]),
		OracleID:                str(row["oracle_id"]),
		Side:                    optStrPtr(row["side"]),
		Type:                    str(row["type_line"]),
		Types:                   stringList(row["types"]),
		Subtypes:                stringList(row["subtypes"]),
		Supertypes:              stringList(row["supertypes"]),
		Colors:                  stringList(row["colors"]),
		ColorIdentity:           stringList(row["color_identity"]),
		ManaCost:                optStrPtr(row["mana_cost"]),
		ManaValue:               floatOf(row["mana_value"]),
		Text:                    optStrPtr(row["text"]),
		Layout:                  str(row["layout"]),
		Power:                   optStrPtr(row["power"]),
		Toughness:               optStrPtr(row["toughness"]),
		Loyalty:                 optStrPtr(row["loyalty"]),
		Defense:                 optStrPtr(row["defense"]),
		SetCode:                 str(row["set_code"]),
		Number:                  str(row["collector_number"]),
		Rarity:                  str(row["rarity"]),
		Artist:                  optStrPtr(row["artist"]),
		BorderColor:             str(row["border_color"]),
		FrameVersion:            str(row["frame_version"]),
		Watermark:               optStrPtr(row["watermark"]),
		Signature:               optStrPtr(row["signature"]),
		Language:                str(row["language"]),
		DuelDeck:                optStrPtr(row["duel_deck"]),
		FlavorText:              optStrPtr(row["flavor_text"]),
		FlavorName:              optStrPtr(row["flavor_name"]),
		FaceFlavorName:          optStrPtr(row["face_flavor_name"]),
		Availability:            stringList(row["availability"]),
		BoosterTypes:            stringList(row["booster_types"]),
		Finishes:                stringList(row["finishes"]),
		FrameEffects:            stringList(row["frame_effects"]),
		Keywords:                stringList(row["keywords"]),
		Printings:               stringList(row["printings"]),
		PromoTypes:              stringList(row["promo_types"]),
		Variations:              stringList(row["variations"]),
		OtherFaceIDs:            stringList(row["other_face_ids"]),
		CardParts:               stringList(row["card_parts"]),
		OriginalPrintings:       stringList(row["original_printings"]),
		RebalancedPrintings:     stringList(row["rebalanced_printings"]),
		Subsets:                 stringList(row["subsets"]),
		IsFunny:                 optBoolPtr(row["is_funny"]),
		IsRebalanced:            optBoolPtr(row["is_rebalanced"]),
		IsTimeshifted:           optBoolPtr(row["is_timeshifted"]),
		HasAlternativeDeckLimit: optBoolPtr(row["has_alternative_deck_limit"]),
		EDHRECRank:              optIntPtr(row["edhrec_rank"]),
		EDHRECSaltiness:         optFloatPtr(row["edhrec_saltiness"]),
		IdentifiersData:         identifiers,
		LegalitiesData:          legalities,
		LeadershipSkills:        leadership,
		RelatedCards:            related,
		SourceProducts:          sourceProducts,
		ForeignDataList:         foreignData,
		TrackingID:              str(row["tracking_id"]),
	}
}

// foreignDataFromList converts the set+number lookup's nested foreign_data
// list (built by lookup.buildSetNumberLookup's GroupBy) into the output
// schema's []model.ForeignData.
func foreignDataFromList(v any) []model.ForeignData {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]model.ForeignData, 0, len(list))
	for _, e := range list {
		m, ok := e.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, model.ForeignData{
			Language: str(m["language"]),
			Name:     str(m["name"]),
			Text:     optStrPtr(m["text"]),
		})
	}
	return out
}

func toTokenFace(row map[string]any) model.TokenFace {
	identifiers := identifiersFromMap(mapOf(row["identifiers"]))
	var related *model.RelatedCards
	if rr := stringList(row["reverse_related"]); len(rr) > 0 {
		related = &model.RelatedCards{ReverseRelated: rr}
	}
	return model.TokenFace{
		UUID:            str(row["uuid"]),
		Name:            str(row["name"]),
		ASCIIName:       optStrPtr(row["ascii_name"]),
		FaceName:        optStrPtr(row["face_name"]),
		SetCode:         str(row["set_code"]),
		Number:          str(row["collector_number"]),
		Type:            str(row["type_line"]),
		Types:           stringList(row["types"]),
		Subtypes:        stringList(row["subtypes"]),
		Supertypes:      stringList(row["supertypes"]),
		Colors:          stringList(row["colors"]),
		ColorIdentity:   stringList(row["color_identity"]),
		Power:           optStrPtr(row["power"]),
		Toughness:       optStrPtr(row["toughness"]),
		Text:            optStrPtr(row["text"]),
		Layout:          str(row["layout"]),
		Artist:          optStrPtr(row["artist"]),
		BorderColor:     str(row["border_color"]),
		Finishes:        stringList(row["finishes"]),
		Keywords:        stringList(row["keywords"]),
		OtherFaceIDs:    stringList(row["other_face_ids"]),
		ReverseRelated:  stringList(row["reverse_related"]),
		Watermark:       optStrPtr(row["watermark"]),
		Language:        str(row["language"]),
		IdentifiersData: identifiers,
		RelatedCards:    related,
	}
}

var legalityFormats = []string{
	"alchemy", "brawl", "commander", "duel", "explorer", "future", "gladiator",
	"historic", "historicbrawl", "legacy", "modern", "oathbreaker", "oldschool",
	"pauper", "paupercommander", "penny", "pioneer", "predh", "premodern",
	"standard", "timeless", "vintage",
}

func legalitiesFromMap(m map[string]any) model.Legalities {
	var l model.Legalities
	get := func(k string) *string { return optStrPtr(m[k]) }
	l.Alchemy = get("alchemy")
	l.Brawl = get("brawl")
	l.Commander = get("commander")
	l.Duel = get("duel")
	l.Explorer = get("explorer")
	l.Future = get("future")
	l.Gladiator = get("gladiator")
	l.Historic = get("historic")
	l.HistoricBrawl = get("historicbrawl")
	l.Legacy = get("legacy")
	l.Modern = get("modern")
	l.Oathbreaker = get("oathbreaker")
	l.Oldschool = get("oldschool")
	l.Pauper = get("pauper")
	l.PauperCommander = get("paupercommander")
	l.Penny = get("penny")
	l.Pioneer = get("pioneer")
	l.Predh = get("predh")
	l.Premodern = get("premodern")
	l.Standard = get("standard")
	l.Timeless = get("timeless")
	l.Vintage = get("vintage")
	return l
}

func identifiersFromMap(m map[string]any) model.Identifiers {
	return model.Identifiers{
		CardKingdomID:            optStrPtr(m["cardKingdomId"]),
		CardKingdomEtchedID:      optStrPtr(m["cardKingdomEtchedId"]),
		CardKingdomFoilID:        optStrPtr(m["cardKingdomFoilId"]),
		ScryfallID:               optStrPtr(m["scryfallId"]),
		ScryfallOracleID:         optStrPtr(m["scryfallOracleId"]),
		MultiverseID:             optStrPtr(m["multiverseId"]),
	}
}

func mapOf(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func optStrPtr(v any) *string {
	if v == nil {
		return nil
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return nil
	}
	return &s
}

func optBoolPtr(v any) *bool {
	b, ok := v.(bool)
	if !ok {
		return nil
	}
	return &b
}

func optIntPtr(v any) *int {
	switch n := v.(type) {
	case int:
		return &n
	case int64:
		i := int(n)
		return &i
	case float64:
		i := int(n)
		return &i
	}
	return nil
}

func optFloatPtr(v any) *float64 {
	switch n := v.(type) {
	case float64:
		return &n
	case int:
		f := float64(n)
		return &f
	}
	return nil
}

func floatOf(v any) float64 {
	f, ok := v.(float64)
	if !ok {
		return 0
	}
	return f
}
