package pipeline

import (
	"strings"

	"github.com/mtgjson/mtgjson/internal/asciifold"
	"github.com/mtgjson/mtgjson/internal/finish"
	"github.com/mtgjson/mtgjson/internal/manacost"
)

// knownSupertypes distinguishes supertypes from types when splitting a
// parsed type line "parse type line".
var knownSupertypes = map[string]bool{
	"Basic": true, "Legendary": true, "Ongoing": true,
	"Snow": true, "World": true, "Elite": true, "Host": true,
}

// transformFaces runs stage 2 over one set's raw card-bulk
// rows: it explodes multi-faced rows, assigns meld sides, detects the
// aftermath layout, computes mana value/colors/finishes/ASCII name, and
// parses the type line. The output rows are still missing anything that
// requires a lookup join (stage 4) or a UUID (stage 6).
func transformFaces(rawRows []map[string]any) []map[string]any {
	var out []map[string]any
	for _, row := range rawRows {
		faces := explodeFaces(row)
		for _, f := range faces {
			out = append(out, transformOneFace(row, f))
		}
	}
	return out
}

// faceInput is one pre-explosion face: either the whole card-bulk row
// itself (single-faced card) or one entry of its "faces" list column
// (multi-faced card).
type faceInput struct {
	side      string
	name      string
	faceName  *string
	manaCost  string
	typeLine  string
	text      string
	power     *string
	toughness *string
	loyalty   *string
	defense   *string
}

var sideLetters = []string{"a", "b", "c", "d", "e"}

// explodeFaces fans a card-bulk row out into one faceInput per physical
// face. Meld triplets get side "a" for the two component parts and side
// "b" for the result "Meld side assignment"; ordinary
// multi-faced cards (split/transform/adventure/modal_dfc/flip) get
// sequential a/b/c sides in source order.
func explodeFaces(row map[string]any) []faceInput {
	layout, _ := row["layout"].(string)
	rawFaces, hasFaces := row["faces"].([]any)

	if !hasFaces || len(rawFaces) == 0 {
		return []faceInput{faceInputFromRow(row, sideLetters[0])}
	}

	var out []faceInput
	for i, rf := range rawFaces {
		faceMap, _ := rf.(map[string]any)
		side := sideLetters[0]
		if layout == "meld" {
			if i < 2 {
				side = "a"
			} else {
				side = "b"
			}
		} else if i < len(sideLetters) {
			side = sideLetters[i]
		}
		out = append(out, faceInputFromRow(faceMap, side))
	}
	return out
}

func faceInputFromRow(row map[string]any, side string) faceInput {
	return faceInput{
		side:      side,
		name:      str(row["name"]),
		faceName:  strPtr(row["face_name"]),
		manaCost:  str(row["mana_cost"]),
		typeLine:  str(row["type_line"]),
		text:      str(row["text"]),
		power:     strPtr(row["power"]),
		toughness: strPtr(row["toughness"]),
		loyalty:   strPtr(row["loyalty"]),
		defense:   strPtr(row["defense"]),
	}
}

// transformOneFace applies the per-face derivations of
// stage 2 to a single exploded face, carrying forward the card-level
// (non-face) columns of row unchanged.
func transformOneFace(row map[string]any, f faceInput) map[string]any {
	layout := detectAftermath(str(row["layout"]), row)

	colors := manacost.Colors(f.manaCost)
	manaValue := manacost.Value(f.manaCost)

	finishes := stringList(row["finishes"])
	finish.Sort(finishes)

	out := map[string]any{
		"scryfall_id":       row["scryfall_id"],
		"oracle_id":         row["oracle_id"],
		"set_code":          row["set_code"],
		"collector_number":  row["collector_number"],
		"side":              f.side,
		"name":              f.name,
		"face_name":         f.faceName,
		"ascii_name":        derefOrNil(asciifold.Fold(f.name)),
		"mana_cost":         f.manaCost,
		"mana_value":        manaValue,
		"colors":            colors,
		"text":              f.text,
		"power":             f.power,
		"toughness":         f.toughness,
		"loyalty":           f.loyalty,
		"defense":           f.defense,
		"layout":            layout,
		"type_line":         f.typeLine,
		"rarity":            row["rarity"],
		"artist":            row["artist"],
		"border_color":      row["border_color"],
		"frame_version":     row["frame_version"],
		"language":          row["language"],
		"watermark":         row["watermark"],
		"finishes":          finishes,
		"keywords":          stringList(row["keywords"]),
		"booster_types":     stringList(row["booster_types"]),
		"promo_types":       stringList(row["promo_types"]),
		"frame_effects":     stringList(row["frame_effects"]),
		"flavor_text":       row["flavor_text"],
		"flavor_name":       row["flavor_name"],
		"is_token":          row["is_token"],
		"legalities":        row["legalities"],
		"availability":      baseAvailability(row),
		"is_funny":          layout == "funny" || row["security_stamp"] == "acorn",
		"is_timeshifted":    row["frame_version"] == "timeshifted" || str(row["frame_version"]) == "1997",
		"multiverse_id_raw": row["multiverse_id"],
	}

	out["types"], out["subtypes"], out["supertypes"] = parseTypeLine(f.typeLine)

	return out
}

// detectAftermath reclassifies a "split" layout as "aftermath" when the
// card's keyword list names it stage 2 "detect aftermath
// layout" — Scryfall's own layout field does not distinguish the two.
func detectAftermath(layout string, row map[string]any) string {
	if layout != "split" {
		return layout
	}
	for _, kw := range stringList(row["keywords"]) {
		if strings.EqualFold(kw, "Aftermath") {
			return "aftermath"
		}
	}
	return layout
}

// parseTypeLine splits a type line like "Legendary Creature — Human Wizard"
// into supertypes, types, and subtypes.
func parseTypeLine(line string) (types, subtypes, supertypes []string) {
	before, after, hasDash := strings.Cut(line, "—")
	words := strings.Fields(strings.TrimSpace(before))
	for _, w := range words {
		if knownSupertypes[w] {
			supertypes = append(supertypes, w)
		} else {
			types = append(types, w)
		}
	}
	if hasDash {
		subtypes = strings.Fields(strings.TrimSpace(after))
	}
	return types, subtypes, supertypes
}

// baseAvailability seeds the availability list from the source's declared
// games before stage 4 augments it with ID-presence-derived
// entries (e.g. mtgoId present ⇒ add "mtgo").
func baseAvailability(row map[string]any) []string {
	games := stringList(row["games"])
	if len(games) == 0 {
		return []string{"paper"}
	}
	return games
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func strPtr(v any) *string {
	s, ok := v.(string)
	if !ok || s == "" {
		return nil
	}
	return &s
}

func derefOrNil(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func stringList(v any) []string {
	list, ok := v.([]any)
	if !ok {
		if strs, ok := v.([]string); ok {
			return strs
		}
		return nil
	}
	out := make([]string, 0, len(list))
	for _, e := range list {
		if s, ok := e.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
