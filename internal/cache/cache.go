// Package cache implements the Source Cache: one lazy
// frame per external source, downloaded once to a local columnar file
// and re-opened as a lazy scan so later stages stream rather than pin the
// whole multi-GB bulk in memory.
//
// The shape here generalizes ninesl/scryball's fetch-or-cache idiom: where
// Scryball.FetchCardByExactName checks a SQLite cache and falls back to a
// live Scryfall call, Cache.materialize checks for a local parquet file
// and falls back to the injected Fetcher. The cache is modeled as an
// ordinary struct built once by New and passed by value/pointer into
// every consumer — never a package-level global.
package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/mtgjson/mtgjson/internal/buildreport"
	"github.com/mtgjson/mtgjson/internal/frame"
)

// Source names the external sources the cache knows how to materialize.
type Source string

const (
	SourceCardBulk           Source = "card_bulk"
	SourceRulings            Source = "rulings"
	SourceSetMetadata        Source = "set_metadata"
	SourceRetailInventory    Source = "retail_inventory"
	SourceMarketplaceIDMap   Source = "marketplace_id_map"
	SourceCommanderSaltiness Source = "commander_saltiness"
	SourceCombos             Source = "combos"
	SourceMeldTriplets       Source = "meld_triplets"
	SourceSecretLairSubsets  Source = "secret_lair_subsets"
	SourceMarketplaceSKUs    Source = "marketplace_skus"
	SourceGathererPageIDs    Source = "gatherer_page_ids"
	SourceImageOrientation   Source = "image_orientation"
	SourceMultiverseBridge   Source = "multiverse_bridge"
	SourceSealedProducts     Source = "sealed_products"
	SourceSealedContents     Source = "sealed_contents"
	SourceDeckLists          Source = "deck_lists"
	SourceBoosterConfigs     Source = "booster_configs"
	SourceTokenProductMap    Source = "token_product_map"
	SourceManualOverrides    Source = "manual_overrides"
	SourceMeldOverrides      Source = "meld_overrides"
	SourceWatermarkOverrides Source = "watermark_overrides"
	SourceForeignExceptions  Source = "foreign_data_exceptions"
)

// Fetcher is the opaque, provider-specific function that returns a source's
// rows as an already-materialized []map[string]any. Individual provider
// HTTP clients are out of scope — the cache only knows how
// to call this function once and persist its result, never how it talks
// to a network.
type Fetcher func(ctx context.Context) ([]map[string]any, error)

// Cache is the write-once-then-read-only Source Cache. After LoadAll
// completes, every accessor is a pure lazy read.
type Cache struct {
	conn      *frame.Conn
	root      string
	log       *zap.SugaredLogger
	report    *buildreport.Report
	fetchers  map[Source]Fetcher
	mu        sync.Mutex
	loaded    map[Source]bool
	setFilter map[string]bool // optional set-code allow-list
	faceIDs   map[string]bool // optional face-ID allow-list
}

// New builds a Cache rooted at root, backed by conn for its lazy
// re-scans. Reports of SourceFetchError events are dropped on the floor
// (only logged) until WithReport attaches a buildreport.Report.
func New(conn *frame.Conn, root string, log *zap.SugaredLogger) *Cache {
	return &Cache{
		conn:     conn,
		root:     root,
		log:      log,
		report:   buildreport.New(),
		fetchers: map[Source]Fetcher{},
		loaded:   map[Source]bool{},
	}
}

// WithReport attaches the build's shared non-fatal-error report so
// SourceFetchError events surface in the end-of-run summary, not just the
// logs.
func (c *Cache) WithReport(r *buildreport.Report) *Cache {
	c.report = r
	return c
}

// Register wires a provider fetch function to a source name. Called once
// per source at startup by the build orchestrator with the real (or, in
// tests, a stub) fetcher.
func (c *Cache) Register(src Source, fn Fetcher) {
	c.fetchers[src] = fn
}

// WithSetFilter restricts subsequent materializations to the given set
// codes.
func (c *Cache) WithSetFilter(codes []string) *Cache {
	c.setFilter = map[string]bool{}
	for _, code := range codes {
		c.setFilter[code] = true
	}
	return c
}

// WithFaceIDAllowList restricts subsequent materializations to the given
// face IDs.
func (c *Cache) WithFaceIDAllowList(ids []string) *Cache {
	c.faceIDs = map[string]bool{}
	for _, id := range ids {
		c.faceIDs[id] = true
	}
	return c
}

func (c *Cache) path(src Source) string {
	return filepath.Join(c.root, "sources", string(src)+".parquet")
}

// materialize downloads src exactly once: if its parquet file already
// exists on disk it is left untouched, otherwise the registered Fetcher
// runs and its rows are written out via DuckDB's COPY ... TO, zstd
// level 9.
func (c *Cache) materialize(ctx context.Context, src Source) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loaded[src] {
		return nil
	}

	path := c.path(src)
	if _, err := os.Stat(path); err == nil {
		c.loaded[src] = true
		return nil
	}

	fn, ok := c.fetchers[src]
	if !ok {
		return fmt.Errorf("cache: no fetcher registered for source %q", src)
	}

	rows, err := fn(ctx)
	if err != nil {
		// On fetch failure: emit an empty frame, log a warning, and
		// continue. Pipeline stages that depend on this source will see
		// LookupMiss-shaped nulls downstream.
		c.log.Warnw("source fetch failed, continuing with empty frame", "source", src, "error", err)
		c.report.Warnf("cache", "source %s fetch failed, continuing with empty frame: %v", src, err)
		rows = nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cache: mkdir for %s: %w", src, err)
	}

	if err := writeParquet(c.conn, path, rows); err != nil {
		return fmt.Errorf("cache: materialize %s: %w", src, err)
	}

	c.loaded[src] = true
	return nil
}

// Frame returns a lazy Frame over the materialized source, triggering a
// one-time fetch+write if this is the first access.
func (c *Cache) Frame(ctx context.Context, src Source) (*frame.Frame, error) {
	if err := c.materialize(ctx, src); err != nil {
		return nil, err
	}
	f := c.conn.FromParquet(c.path(src))
	if len(c.setFilter) > 0 {
		f = f.Filter(inSetFilterSQL(c.setFilter))
	}
	return f, nil
}

// LoadAll eagerly materializes every registered source using a bounded
// worker pool (~10 workers). Each worker writes a distinct source's
// attribute, so no locking beyond materialize's own mutex is required.
func (c *Cache) LoadAll(ctx context.Context, concurrency int) error {
	sem := make(chan struct{}, concurrency)
	errCh := make(chan error, len(c.fetchers))
	var wg sync.WaitGroup

	for src := range c.fetchers {
		src := src
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			if err := c.materialize(ctx, src); err != nil {
				errCh <- err
			}
		}()
	}
	wg.Wait()
	close(errCh)

	for err := range errCh {
		if err != nil {
			return err
		}
	}
	return nil
}

func inSetFilterSQL(codes map[string]bool) string {
	if len(codes) == 0 {
		return "TRUE"
	}
	list := "("
	first := true
	for code := range codes {
		if !first {
			list += ", "
		}
		first = false
		list += "'" + code + "'"
	}
	list += ")"
	return "set_code IN " + list
}
