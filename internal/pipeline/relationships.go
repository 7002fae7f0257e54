package pipeline

import (
	"strings"

	"github.com/mtgjson/mtgjson/internal/manacost"
)

// computeRelationships implements stage 9: the self-join
// relationship ops. Grouping and matching happen in Go over this set's
// checkpointed rows rather than a SQL self-join — the checkpoint-policy
// rule ("any self-join forces a checkpoint") exists precisely to bound
// the cost this replaces; doing the self-join in Go on the rows
// Checkpoint 3 materialized sidesteps the planner blowup entirely.
func computeRelationships(rows []map[string]any) []map[string]any {
	bySourceCard := map[string][]int{}
	for i, row := range rows {
		key := str(row["scryfall_id"])
		bySourceCard[key] = append(bySourceCard[key], i)
	}

	var spellIdx, tokenIdx []int
	for i, row := range rows {
		if truthy(row["is_token"]) {
			tokenIdx = append(tokenIdx, i)
		} else {
			spellIdx = append(spellIdx, i)
		}
	}

	for key, idxs := range bySourceCard {
		_ = key
		if len(idxs) < 2 {
			continue
		}
		for _, i := range idxs {
			var siblings []string
			for _, j := range idxs {
				if j == i {
					continue
				}
				siblings = append(siblings, str(rows[j]["uuid"]))
			}
			rows[i]["other_face_ids"] = siblings
		}
	}

	for _, si := range spellIdx {
		spell := rows[si]
		text := str(spell["text"])
		if text == "" {
			continue
		}
		var tokenIDs []string
		for _, ti := range tokenIdx {
			token := rows[ti]
			tokenName := str(token["name"])
			if tokenName != "" && strings.Contains(text, tokenName) {
				tokenIDs = append(tokenIDs, str(token["uuid"]))
				token["reverse_related"] = appendUnique(stringList(token["reverse_related"]), str(spell["name"]))
			}
		}
		if len(tokenIDs) > 0 {
			spell["token_ids"] = tokenIDs
		}
	}

	propagateSaltiness(rows, spellIdx, tokenIdx)
	flagAlternativeDeckLimit(rows)
	computeColorIdentity(rows, bySourceCard)

	return rows
}

// rulesTextPips extracts any WUBRG letters appearing in mana symbols
// embedded in rules text (e.g. an activated-ability cost, or a card like
// Dryad Arbor with no mana cost but colored symbols in its text), reusing
// manacost.Colors since a brace-delimited symbol reads the same whether
// it sits in the manaCost field or inline in text.
func rulesTextPips(text string) []string {
	if !strings.ContainsAny(text, "{") {
		return nil
	}
	return manacost.Colors(text)
}

// computeColorIdentity implements the true color-identity rule:
// manacost.Union of a face's own colors, any WUBRG pips in its mana cost
// or rules text, and the colors of every other face bySourceCard groups
// it with (the other halves/parts of one multi-face card) — not just the
// printed colors field, which invariant 3's subset check alone wouldn't
// catch diverging from.
func computeColorIdentity(rows []map[string]any, bySourceCard map[string][]int) {
	for key, idxs := range bySourceCard {
		_ = key
		var lists [][]string
		for _, i := range idxs {
			lists = append(lists,
				stringList(rows[i]["colors"]),
				manacost.Colors(str(rows[i]["mana_cost"])),
				rulesTextPips(str(rows[i]["text"])),
			)
		}
		identity := manacost.Union(lists...)
		for _, i := range idxs {
			rows[i]["color_identity"] = identity
		}
	}
}

// propagateSaltiness copies a spell's EDHREC saltiness score onto tokens
// it produces.
func propagateSaltiness(rows []map[string]any, spellIdx, tokenIdx []int) {
	for _, si := range spellIdx {
		spell := rows[si]
		tokenIDs, ok := spell["token_ids"].([]string)
		if !ok {
			continue
		}
		salt := spell["edhrec_saltiness"]
		if salt == nil {
			continue
		}
		wanted := map[string]bool{}
		for _, id := range tokenIDs {
			wanted[id] = true
		}
		for _, ti := range tokenIdx {
			if wanted[str(rows[ti]["uuid"])] {
				rows[ti]["edhrec_saltiness"] = salt
			}
		}
	}
}

// alternativeDeckLimitNames lists the handful of cards (Relentless Rats
// and its kin) whose rules text permits unlimited copies in a deck.
var alternativeDeckLimitNames = map[string]bool{
	"Relentless Rats":    true,
	"Rat Colony":         true,
	"Persistent Petitioners": true,
	"Dragon's Approach":  true,
	"Shadowborn Apostle": true,
	"Nazgûl":             true,
}

func flagAlternativeDeckLimit(rows []map[string]any) {
	for _, row := range rows {
		if alternativeDeckLimitNames[str(row["name"])] {
			row["has_alternative_deck_limit"] = true
		}
	}
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

func truthy(v any) bool {
	b, ok := v.(bool)
	return ok && b
}
