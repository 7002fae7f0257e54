package mtgjson

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/mtgjson/mtgjson/internal/buildreport"
	"github.com/mtgjson/mtgjson/internal/frame"
	"github.com/mtgjson/mtgjson/internal/lookup"
	"github.com/mtgjson/mtgjson/internal/model"
	"github.com/mtgjson/mtgjson/internal/objectstore"
	"github.com/mtgjson/mtgjson/internal/prices"
)

func newPriceEngine(opts Options, conn *frame.Conn, lk *lookup.Set, log *zap.SugaredLogger, report *buildreport.Report) (*prices.Engine, error) {
	if opts.ObjectStore == nil {
		return nil, fmt.Errorf("mtgjson: price build requires an object store")
	}
	mirror := objectstore.New(opts.ObjectStore, opts.Config.ObjectStoreSyncConcurrency, log, report)
	engine := prices.New(conn, lk, mirror, log, report, filepath.Join(opts.Config.CacheRoot, "prices"), opts.Config.PriceRetentionDays, opts.Config.OutputRoot, opts.Version)
	for _, p := range opts.PriceProviders {
		engine.Register(p)
	}
	return engine, nil
}

// buildPrices runs the Price Engine as part of a full Build, seeding its
// FaceUUIDIndex from the card pipeline's own compiled output — the
// freshest possible source for (scryfallId, side) -> uuid, since a face's
// UUID is assigned downstream of the raw card-bulk rows the provider
// bridges resolve against.
func buildPrices(ctx context.Context, opts Options, conn *frame.Conn, lk *lookup.Set, log *zap.SugaredLogger, report *buildreport.Report, sets []model.Set, today string) error {
	engine, err := newPriceEngine(opts, conn, lk, log, report)
	if err != nil {
		return err
	}
	seedFaceUUIDIndexFromSets(sets, engine)
	return engine.Build(ctx, today)
}

func seedFaceUUIDIndexFromSets(sets []model.Set, engine *prices.Engine) {
	for _, set := range sets {
		for _, card := range set.Cards {
			if card.IdentifiersData.ScryfallID == nil || card.Side == nil {
				continue
			}
			engine.SetFaceUUID(*card.IdentifiersData.ScryfallID, *card.Side, card.UUID)
		}
	}
}

// seedFaceUUIDIndexFromOutput seeds the price engine's FaceUUIDIndex by
// reading the per-set files a prior full Build already wrote under
// outputRoot/sets/*.json. A standalone price-only run has no
// freshly-compiled pipeline output of its own — raw card-bulk rows never
// carry a UUID, it is assigned downstream by the card pipeline — so it
// reads the most recent build's assigned UUIDs back off disk instead. A
// missing output directory (no prior build yet) is non-fatal: the price
// engine just resolves zero rows for any provider whose bridge can't
// match, reported like any other LookupMiss.
func seedFaceUUIDIndexFromOutput(outputRoot string, engine *prices.Engine) error {
	entries, err := os.ReadDir(filepath.Join(outputRoot, "sets"))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, ent := range entries {
		if ent.IsDir() {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(outputRoot, "sets", ent.Name()))
		if err != nil {
			return err
		}
		var body struct {
			Data model.Set `json:"data"`
		}
		if err := json.Unmarshal(raw, &body); err != nil {
			return fmt.Errorf("decode %s: %w", ent.Name(), err)
		}
		seedFaceUUIDIndexFromSets([]model.Set{body.Data}, engine)
	}
	return nil
}
