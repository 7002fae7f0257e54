package mtgjson

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mtgjson/mtgjson/internal/cache"
	"github.com/mtgjson/mtgjson/internal/model"
	"github.com/mtgjson/mtgjson/internal/pipeline"
)

// assembleSets turns each pipeline.Result into the full per-set object:
// metadata fields from the set-metadata source, plus the booster
// configuration, decks, and sealed-product listings curated sources
// already carry set-at-a-time rather than derive face-by-face. The card
// pipeline computes everything that depends on individual faces
// (sourceProducts, relationships, UUIDs); this step only attaches the
// set-level curated data the pipeline never touches.
func assembleSets(ctx context.Context, c *cache.Cache, results []*pipeline.Result) ([]model.Set, error) {
	metaByCode, err := loadSetMetadata(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("load set metadata: %w", err)
	}
	boosterByCode, err := loadBoosterConfigs(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("load booster configs: %w", err)
	}
	decksByCode, err := loadDecks(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("load deck lists: %w", err)
	}
	sealedByCode, err := loadSealedProduct(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("load sealed products: %w", err)
	}

	sets := make([]model.Set, 0, len(results))
	for _, res := range results {
		set := model.Set{
			SetList:       metaByCode[res.SetCode],
			Cards:         res.Cards,
			Tokens:        res.Tokens,
			Booster:       boosterByCode[res.SetCode],
			Decks:         decksByCode[res.SetCode],
			SealedProduct: sealedByCode[res.SetCode],
		}
		if set.SetList.Code == "" {
			set.SetList.Code = res.SetCode
		}
		sets = append(sets, set)
	}
	return sets, nil
}

func loadSetMetadata(ctx context.Context, c *cache.Cache) (map[string]model.SetList, error) {
	f, err := c.Frame(ctx, cache.SourceSetMetadata)
	if err != nil {
		return nil, err
	}
	rows, err := f.Collect()
	if err != nil {
		return nil, err
	}

	out := map[string]model.SetList{}
	for _, row := range rows {
		code := str(row["set_code"])
		if code == "" {
			continue
		}
		out[code] = model.SetList{
			Code:             code,
			Name:             str(row["name"]),
			Type:             str(row["type"]),
			ReleaseDate:      str(row["release_date"]),
			BaseSetSize:      optInt(row["base_set_size"]),
			TotalSetSize:     optInt(row["total_set_size"]),
			KeyruneCode:      str(row["keyrune_code"]),
			Block:            optStr(row["block"]),
			ParentCode:       optStr(row["parent_code"]),
			MtgoCode:         optStr(row["mtgo_code"]),
			TokenSetCode:     optStr(row["token_set_code"]),
			TcgplayerGroupID: optIntPtr(row["tcgplayer_group_id"]),
			IsFoilOnly:       optBool(row["is_foil_only"]),
			IsOnlineOnly:     optBool(row["is_online_only"]),
			IsPartialPreview: optBoolPtr(row["is_partial_preview"]),
			Languages:        stringList(row["languages"]),
		}
	}
	return out, nil
}

// loadBoosterConfigs decodes SourceBoosterConfigs rows, one row per
// (set_code, booster_name), back into the nested
// map[string]model.BoosterConfig shape a Set carries. The fetcher hands
// the nested sheets/weights structure back as a JSON-encoded string
// column (config_json) since a booster configuration doesn't flatten to
// scalar columns — decoded here with a plain json.Unmarshal, the same way
// the rest of this build treats any curated-resource blob the cache
// can't usefully model as a wide table.
func loadBoosterConfigs(ctx context.Context, c *cache.Cache) (map[string]map[string]model.BoosterConfig, error) {
	f, err := c.Frame(ctx, cache.SourceBoosterConfigs)
	if err != nil {
		return nil, err
	}
	rows, err := f.Collect()
	if err != nil {
		return nil, err
	}

	out := map[string]map[string]model.BoosterConfig{}
	for _, row := range rows {
		code := str(row["set_code"])
		name := str(row["booster_name"])
		if code == "" || name == "" {
			continue
		}
		var cfg model.BoosterConfig
		if raw := str(row["config_json"]); raw != "" {
			if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
				return nil, fmt.Errorf("decode booster config %s/%s: %w", code, name, err)
			}
		}
		if out[code] == nil {
			out[code] = map[string]model.BoosterConfig{}
		}
		out[code][name] = cfg
	}
	return out, nil
}

// loadDecks decodes SourceDeckLists rows, one row per preconstructed
// deck, into per-set Deck lists.
func loadDecks(ctx context.Context, c *cache.Cache) (map[string][]model.Deck, error) {
	f, err := c.Frame(ctx, cache.SourceDeckLists)
	if err != nil {
		return nil, err
	}
	rows, err := f.Collect()
	if err != nil {
		return nil, err
	}

	out := map[string][]model.Deck{}
	for _, row := range rows {
		deck := model.Deck{
			Code:               str(row["code"]),
			Name:               str(row["name"]),
			Type:               str(row["type"]),
			ReleaseDate:        optStr(row["release_date"]),
			SealedProductUUIDs: stringList(row["sealed_product_uuids"]),
			SourceSetCodes:     stringList(row["source_set_codes"]),
		}
		if raw := str(row["main_board_json"]); raw != "" {
			if err := json.Unmarshal([]byte(raw), &deck.MainBoard); err != nil {
				return nil, fmt.Errorf("decode deck %s main board: %w", deck.Code, err)
			}
		}
		if raw := str(row["side_board_json"]); raw != "" {
			if err := json.Unmarshal([]byte(raw), &deck.SideBoard); err != nil {
				return nil, fmt.Errorf("decode deck %s side board: %w", deck.Code, err)
			}
		}
		for _, setCode := range deck.SourceSetCodes {
			out[setCode] = append(out[setCode], deck)
		}
	}
	return out, nil
}

// loadSealedProduct decodes SourceSealedProducts rows into per-set
// SealedProduct listings, decoding the nested contents blob from each
// row's own contents_json column (SourceSealedContents is not read here).
func loadSealedProduct(ctx context.Context, c *cache.Cache) (map[string][]model.SealedProduct, error) {
	f, err := c.Frame(ctx, cache.SourceSealedProducts)
	if err != nil {
		return nil, err
	}
	rows, err := f.Collect()
	if err != nil {
		return nil, err
	}

	out := map[string][]model.SealedProduct{}
	for _, row := range rows {
		code := str(row["set_code"])
		sp := model.SealedProduct{
			UUID:     str(row["uuid"]),
			Name:     str(row["name"]),
			Category: str(row["category"]),
			Subtype:  optStr(row["subtype"]),
		}
		if sfid := optStr(row["scryfall_id"]); sfid != nil {
			sp.Identifiers.ScryfallID = sfid
		}
		if raw := str(row["contents_json"]); raw != "" {
			var contents model.SealedProductContents
			if err := json.Unmarshal([]byte(raw), &contents); err != nil {
				return nil, fmt.Errorf("decode sealed product %s contents: %w", sp.UUID, err)
			}
			sp.Contents = &contents
		}
		out[code] = append(out[code], sp)
	}
	return out, nil
}

func optStr(v any) *string {
	s := str(v)
	if s == "" {
		return nil
	}
	return &s
}

func optInt(v any) int {
	switch t := v.(type) {
	case int64:
		return int(t)
	case int32:
		return int(t)
	case int:
		return t
	case float64:
		return int(t)
	default:
		return 0
	}
}

func optIntPtr(v any) *int {
	if v == nil {
		return nil
	}
	n := optInt(v)
	return &n
}

func optBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func optBoolPtr(v any) *bool {
	if v == nil {
		return nil
	}
	b := optBool(v)
	return &b
}

func stringList(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			out = append(out, str(item))
		}
		return out
	case string:
		if t == "" {
			return nil
		}
		var out []string
		if err := json.Unmarshal([]byte(t), &out); err == nil {
			return out
		}
		return []string{t}
	default:
		return nil
	}
}
