package prices

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/mtgjson/mtgjson/internal/model"
)

// faceKey is the (scryfallId, side) composite every bridge frame and the
// face-UUID index are keyed by.
type faceKey struct {
	scryfallID string
	side       string
}

// fetchAll runs every registered provider concurrently on an errgroup,
// resolves each raw row's native ID through the provider's declared
// bridge to one or more face keys, then resolves those face keys to
// final UUIDs via FaceUUIDIndex. A native ID that matches more than one
// face (e.g. a TCGplayer SKU shared by a reprint) duplicates the row once
// per match rather than picking one arbitrarily. A single provider's
// fetch failure is logged and reported but never aborts the group — only
// every provider failing is fatal.
func (e *Engine) fetchAll(ctx context.Context) ([]model.PriceRow, error) {
	bridges, err := e.loadBridges(ctx)
	if err != nil {
		return nil, fmt.Errorf("load bridges: %w", err)
	}

	var (
		mu     sync.Mutex
		all    []model.PriceRow
		failed int
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, p := range e.Providers {
		p := p
		g.Go(func() error {
			raw, err := p.Fetch(gctx)
			if err != nil {
				mu.Lock()
				failed++
				mu.Unlock()
				e.Log.Warnw("price provider fetch failed, continuing", "provider", p.Name, "error", err)
				e.Report.Warnf("prices", "provider %s fetch failed: %v", p.Name, err)
				return nil
			}

			index := bridges[p.Bridge]
			rows := make([]model.PriceRow, 0, len(raw))
			for _, r := range raw {
				keys := index[r.NativeID]
				if len(keys) == 0 {
					e.Report.Warnf("prices", "provider %s: native id %s has no bridge match, dropping row", p.Name, r.NativeID)
					continue
				}
				for _, key := range keys {
					uuid, ok := e.FaceUUIDIndex[key]
					if !ok {
						continue
					}
					rows = append(rows, model.PriceRow{
						UUID:      uuid,
						Source:    r.Source,
						Provider:  r.Provider,
						PriceType: r.PriceType,
						Finish:    r.Finish,
						Price:     r.Price,
						Currency:  r.Currency,
					})
				}
			}

			mu.Lock()
			all = append(all, rows...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if failed == len(e.Providers) && len(e.Providers) > 0 {
		return nil, fmt.Errorf("all %d price providers failed", len(e.Providers))
	}
	return all, nil
}

// loadBridges collects each of the lookup Set's four bridge frames into
// an in-memory native-id -> []faceKey index. Bridge frames are small
// enough (one row per face per identifier type) to collect whole, unlike
// the card bulk itself.
func (e *Engine) loadBridges(ctx context.Context) (map[BridgeKind]map[string][]faceKey, error) {
	if e.Lookup == nil {
		return map[BridgeKind]map[string][]faceKey{}, nil
	}

	frames := map[BridgeKind]interface {
		Collect() ([]map[string]any, error)
	}{
		BridgeTCGPlayer:       e.Lookup.Bridges.TCGPlayerProductID,
		BridgeTCGPlayerEtched: e.Lookup.Bridges.TCGPlayerEtchedProductID,
		BridgeMTGO:            e.Lookup.Bridges.MTGOID,
		BridgeScryfall:        e.Lookup.Bridges.ScryfallID,
	}

	out := make(map[BridgeKind]map[string][]faceKey, len(frames))
	for kind, f := range frames {
		rows, err := f.Collect()
		if err != nil {
			return nil, fmt.Errorf("collect bridge %s: %w", kind, err)
		}
		index := make(map[string][]faceKey, len(rows))
		for _, row := range rows {
			nativeID, _ := row["native_id"].(string)
			scryfallID, _ := row["scryfall_id"].(string)
			side, _ := row["side"].(string)
			if nativeID == "" {
				continue
			}
			index[nativeID] = append(index[nativeID], faceKey{scryfallID: scryfallID, side: side})
		}
		out[kind] = index
	}
	return out, nil
}

// mergeLastWriteWins collapses rows sharing a composite key
// (model.PriceRow.Key) to the last one seen, so a provider that fires
// twice in one run (retry after a partial failure) never produces two
// rows for the same key in the written partition.
func mergeLastWriteWins(rows []model.PriceRow) []model.PriceRow {
	byKey := make(map[[6]string]model.PriceRow, len(rows))
	order := make([][6]string, 0, len(rows))
	for _, r := range rows {
		k := r.Key()
		if _, seen := byKey[k]; !seen {
			order = append(order, k)
		}
		byKey[k] = r
	}
	out := make([]model.PriceRow, 0, len(order))
	for _, k := range order {
		out = append(out, byKey[k])
	}
	return out
}
