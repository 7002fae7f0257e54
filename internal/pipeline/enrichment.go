package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/mtgjson/mtgjson/internal/cache"
)

// applyFinalEnrichment implements stage 11: apply the
// manual-override table, compute rebalanced<->original linkage, attach
// Secret Lair subset tags, and compute sourceProducts from sealed-product
// contents. The override tables are "ordinary input frames joined at
// Stage 11, not runtime monkey-patches" — each is loaded once via the Source Cache and applied as a
// plain keyed merge.
func (e *Engine) applyFinalEnrichment(ctx context.Context, rows []map[string]any) ([]map[string]any, error) {
	if err := e.applyManualOverrides(ctx, rows); err != nil {
		return nil, fmt.Errorf("manual overrides: %w", err)
	}
	if err := e.applyWatermarkOverrides(ctx, rows); err != nil {
		return nil, fmt.Errorf("watermark overrides: %w", err)
	}
	computeRebalancedLinkage(rows)
	if err := e.applySecretLairSubsets(ctx, rows); err != nil {
		return nil, fmt.Errorf("secret lair subsets: %w", err)
	}
	if err := e.applySourceProducts(ctx, rows); err != nil {
		return nil, fmt.Errorf("source products: %w", err)
	}
	return rows, nil
}

func (e *Engine) applyManualOverrides(ctx context.Context, rows []map[string]any) error {
	f, err := e.Cache.Frame(ctx, cache.SourceManualOverrides)
	if err != nil {
		return err
	}
	overrides, err := f.Collect()
	if err != nil {
		return err
	}
	byUUID := map[string]map[string]any{}
	for _, o := range overrides {
		if id := str(o["uuid"]); id != "" {
			byUUID[id] = o
		}
	}
	for _, row := range rows {
		override, ok := byUUID[str(row["uuid"])]
		if !ok {
			continue
		}
		for k, v := range override {
			if k == "uuid" {
				continue
			}
			row[k] = v
		}
	}
	return nil
}

func (e *Engine) applyWatermarkOverrides(ctx context.Context, rows []map[string]any) error {
	f, err := e.Cache.Frame(ctx, cache.SourceWatermarkOverrides)
	if err != nil {
		return err
	}
	overrides, err := f.Collect()
	if err != nil {
		return err
	}
	byScryfallID := map[string]string{}
	for _, o := range overrides {
		if id := str(o["scryfall_id"]); id != "" {
			byScryfallID[id] = str(o["watermark"])
		}
	}
	for _, row := range rows {
		if wm, ok := byScryfallID[str(row["scryfall_id"])]; ok {
			row["watermark"] = wm
		}
	}
	return nil
}

// computeRebalancedLinkage implements "Rebalanced linkage":
// any face named "A-X" is linked, symmetrically, to the face named "X" in
// this set — populating originalPrintings on the rebalanced face and
// rebalancedPrintings on the original.
func computeRebalancedLinkage(rows []map[string]any) {
	byName := map[string][]int{}
	for i, row := range rows {
		byName[str(row["name"])] = append(byName[str(row["name"])], i)
	}

	for i, row := range rows {
		name := str(row["name"])
		if !strings.HasPrefix(name, "A-") {
			continue
		}
		original := strings.TrimPrefix(name, "A-")
		origIdxs, ok := byName[original]
		if !ok {
			continue
		}
		var originalPrintings, rebalancedPrintings []string
		for _, oi := range origIdxs {
			originalPrintings = append(originalPrintings, str(rows[oi]["uuid"]))
			rebalancedPrintings = appendUnique(stringList(rows[oi]["rebalanced_printings"]), str(row["uuid"]))
			rows[oi]["rebalanced_printings"] = rebalancedPrintings
			rows[oi]["is_rebalanced"] = false
		}
		row["original_printings"] = originalPrintings
		row["is_rebalanced"] = true
		_ = i
	}
}

func (e *Engine) applySecretLairSubsets(ctx context.Context, rows []map[string]any) error {
	f, err := e.Cache.Frame(ctx, cache.SourceSecretLairSubsets)
	if err != nil {
		return err
	}
	subsets, err := f.Collect()
	if err != nil {
		return err
	}
	byScryfallID := map[string][]string{}
	for _, s := range subsets {
		id := str(s["scryfall_id"])
		byScryfallID[id] = appendUnique(byScryfallID[id], str(s["subset"]))
	}
	for _, row := range rows {
		if tags, ok := byScryfallID[str(row["scryfall_id"])]; ok {
			row["subsets"] = tags
		}
	}
	return nil
}

// applySourceProducts inverts sealed-product contents to a face-uuid ->
// sealed-uuid set, one list per finish.
func (e *Engine) applySourceProducts(ctx context.Context, rows []map[string]any) error {
	f, err := e.Cache.Frame(ctx, cache.SourceSealedContents)
	if err != nil {
		return err
	}
	contents, err := f.Collect()
	if err != nil {
		return err
	}

	type key struct{ uuid, finish string }
	bucket := map[key][]string{}
	for _, c := range contents {
		k := key{uuid: str(c["card_uuid"]), finish: str(c["finish"])}
		bucket[k] = appendUnique(bucket[k], str(c["sealed_uuid"]))
	}

	for _, row := range rows {
		id := str(row["uuid"])
		sp := map[string]any{}
		if v := bucket[key{uuid: id, finish: "nonfoil"}]; len(v) > 0 {
			sp["nonfoil"] = v
		}
		if v := bucket[key{uuid: id, finish: "foil"}]; len(v) > 0 {
			sp["foil"] = v
		}
		if v := bucket[key{uuid: id, finish: "etched"}]; len(v) > 0 {
			sp["etched"] = v
		}
		if len(sp) > 0 {
			row["source_products"] = sp
		}
	}
	return nil
}
