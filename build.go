// Package mtgjson is the public build-orchestration surface: Build and
// BuildPrices wire the Source Cache, Lookup Consolidator, Card
// Compilation Pipeline, Assembly & Output, and Price Engine into the two
// top-level operations cmd/mtgjson drives. The package root sits over
// internal/cache, internal/lookup, internal/pipeline, internal/prices,
// and internal/assembly the same way a query client's root package sits
// over its internal transport and protocol packages.
package mtgjson

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/mtgjson/mtgjson/internal/assembly"
	"github.com/mtgjson/mtgjson/internal/buildreport"
	"github.com/mtgjson/mtgjson/internal/cache"
	"github.com/mtgjson/mtgjson/internal/config"
	"github.com/mtgjson/mtgjson/internal/frame"
	"github.com/mtgjson/mtgjson/internal/logging"
	"github.com/mtgjson/mtgjson/internal/lookup"
	"github.com/mtgjson/mtgjson/internal/model"
	"github.com/mtgjson/mtgjson/internal/objectstore"
	"github.com/mtgjson/mtgjson/internal/pipeline"
	"github.com/mtgjson/mtgjson/internal/prices"
)

// Options configures a build run. CacheFetchers and PriceProviders are
// supplied by the caller (cmd/mtgjson wires the real provider clients;
// tests wire stubs) — this package only knows how to drive the pipeline
// once a source can be fetched, never how to talk to a provider's wire
// protocol itself.
type Options struct {
	Config Config

	// Sets restricts the build to these set codes. Empty means every set
	// named by the set-metadata source.
	Sets []string

	CacheFetchers  map[cache.Source]cache.Fetcher
	PriceProviders []prices.Provider
	ObjectStore    objectstore.Store

	// Formats restricts output to this subset of {json, sqlite, csv,
	// parquet, psql}. Empty means every format.
	Formats []string

	Version string
}

// Config re-exports internal/config.Config so callers outside this module
// never need to import the internal package directly.
type Config = config.Config

// Load re-exports internal/config.Load.
func Load() (Config, error) {
	return config.Load()
}

// Result is the outcome of a full Build run: the compiled sets, in the
// order they were requested, and the accumulated non-fatal report.
type Result struct {
	Sets   []model.Set
	Report *buildreport.Report
}

// Build runs the full card-compilation build: loads the Source Cache,
// consolidates lookups, compiles every requested set through the 13-stage
// pipeline, attaches booster/deck/sealed-product extras, and writes the
// full output file family. today is the build date stamped into every
// meta envelope (YYYY-MM-DD).
func Build(ctx context.Context, opts Options, today string) (*Result, error) {
	log, err := logging.New(opts.Config.Debug)
	if err != nil {
		return nil, fmt.Errorf("mtgjson: build logger: %w", err)
	}
	defer log.Sync()

	report := buildreport.New()

	conn, err := frame.Open(filepath.Join(opts.Config.CacheRoot, "build.duckdb"))
	if err != nil {
		return nil, fmt.Errorf("mtgjson: open duckdb connection: %w", err)
	}
	defer conn.Close()

	// Offline/from-cache mode skips the pipeline entirely and
	// re-assembles straight from the most recent build's written per-set
	// files, so a consumer can regenerate a different export format
	// subset without re-running the full compile.
	if opts.Config.OfflineMode {
		sets, err := loadSetsFromOutput(opts.Config.OutputRoot)
		if err != nil {
			return nil, fmt.Errorf("mtgjson: load cached sets for offline build: %w", err)
		}
		writer := assembly.New(opts.Config.OutputRoot, opts.Config.SetWriterConcurrency, opts.Config.ResumeBuild, log, opts.Version, today)
		writer.Conn = conn
		writer.WithFormats(opts.Formats)
		if err := writer.WriteAll(ctx, sets); err != nil {
			return nil, fmt.Errorf("mtgjson: write output: %w", err)
		}
		return &Result{Sets: sets, Report: report}, nil
	}

	c := cache.New(conn, opts.Config.CacheRoot, log).WithReport(report)
	for src, fn := range opts.CacheFetchers {
		c.Register(src, fn)
	}
	if len(opts.Sets) > 0 {
		c = c.WithSetFilter(opts.Sets)
	}
	if err := c.LoadAll(ctx, opts.Config.SourceFetchConcurrency); err != nil {
		return nil, fmt.Errorf("mtgjson: load source cache: %w", err)
	}

	lk, err := lookup.Build(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("mtgjson: build lookup consolidator: %w", err)
	}

	setCodes, err := resolveSetCodes(ctx, c, opts.Sets)
	if err != nil {
		return nil, fmt.Errorf("mtgjson: resolve set codes: %w", err)
	}

	engine := pipeline.New(conn, c, lk, log)
	results, err := buildSetsBounded(ctx, engine, setCodes, opts.Config.SetWriterConcurrency, log, report)
	if err != nil {
		return nil, fmt.Errorf("mtgjson: compile sets: %w", err)
	}

	sets, err := assembleSets(ctx, c, results)
	if err != nil {
		return nil, fmt.Errorf("mtgjson: assemble sets: %w", err)
	}

	if opts.ObjectStore != nil {
		if err := buildPrices(ctx, opts, conn, lk, log, report, sets, today); err != nil {
			log.Warnw("price build failed, continuing with card output only", "error", err)
			report.Warnf("prices", "price build failed: %v", err)
		}
	}

	writer := assembly.New(opts.Config.OutputRoot, opts.Config.SetWriterConcurrency, opts.Config.ResumeBuild, log, opts.Version, today)
	writer.Conn = conn
	writer.WithFormats(opts.Formats)
	if err := writer.WriteAll(ctx, sets); err != nil {
		return nil, fmt.Errorf("mtgjson: write output: %w", err)
	}

	return &Result{Sets: sets, Report: report}, nil
}

// BuildPrices runs the Price Engine alone, loading the source cache and
// building the lookup set itself — the entry point for a price-only run
// (--price-only in cmd/mtgjson).
func BuildPrices(ctx context.Context, opts Options, today string) (*buildreport.Report, error) {
	log, err := logging.New(opts.Config.Debug)
	if err != nil {
		return nil, fmt.Errorf("mtgjson: build logger: %w", err)
	}
	defer log.Sync()

	report := buildreport.New()

	conn, err := frame.Open(filepath.Join(opts.Config.CacheRoot, "build.duckdb"))
	if err != nil {
		return nil, fmt.Errorf("mtgjson: open duckdb connection: %w", err)
	}
	defer conn.Close()

	c := cache.New(conn, opts.Config.CacheRoot, log).WithReport(report)
	for src, fn := range opts.CacheFetchers {
		c.Register(src, fn)
	}
	if err := c.LoadAll(ctx, opts.Config.SourceFetchConcurrency); err != nil {
		return nil, fmt.Errorf("mtgjson: load source cache: %w", err)
	}

	lk, err := lookup.Build(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("mtgjson: build lookup consolidator: %w", err)
	}

	engine, err := newPriceEngine(opts, conn, lk, log, report)
	if err != nil {
		return nil, err
	}

	// A standalone price run has no freshly-compiled pipeline output to
	// resolve face UUIDs from, so it seeds FaceUUIDIndex from the most
	// recent full build's written output instead.
	if err := seedFaceUUIDIndexFromOutput(opts.Config.OutputRoot, engine); err != nil {
		return nil, fmt.Errorf("mtgjson: seed face uuid index: %w", err)
	}

	if err := engine.Build(ctx, today); err != nil {
		return nil, fmt.Errorf("mtgjson: price build: %w", err)
	}
	return report, nil
}

// loadSetsFromOutput reads every per-set file a prior build already wrote
// under outputRoot/sets, the source of truth offline mode re-assembles
// from instead of re-running the pipeline.
func loadSetsFromOutput(outputRoot string) ([]model.Set, error) {
	dir := filepath.Join(outputRoot, "sets")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}
	sets := make([]model.Set, 0, len(entries))
	for _, ent := range entries {
		if ent.IsDir() {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, ent.Name()))
		if err != nil {
			return nil, err
		}
		var body struct {
			Data model.Set `json:"data"`
		}
		if err := json.Unmarshal(raw, &body); err != nil {
			return nil, fmt.Errorf("decode %s: %w", ent.Name(), err)
		}
		sets = append(sets, body.Data)
	}
	return sets, nil
}

func resolveSetCodes(ctx context.Context, c *cache.Cache, requested []string) ([]string, error) {
	if len(requested) > 0 {
		return requested, nil
	}
	f, err := c.Frame(ctx, cache.SourceSetMetadata)
	if err != nil {
		return nil, err
	}
	rows, err := f.Select("DISTINCT set_code").Collect()
	if err != nil {
		return nil, err
	}
	codes := make([]string, 0, len(rows))
	for _, row := range rows {
		if code := str(row["set_code"]); code != "" {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)
	return codes, nil
}

// buildSetsBounded runs Engine.BuildSet across setCodes on a bounded
// worker pool, the same semaphore+WaitGroup shape internal/cache.LoadAll
// and internal/assembly.WriteSetFiles both use for their own worker
// pools.
func buildSetsBounded(ctx context.Context, engine *pipeline.Engine, setCodes []string, concurrency int, log interface {
	Warnw(string, ...any)
}, report *buildreport.Report) ([]*pipeline.Result, error) {
	type indexed struct {
		idx int
		res *pipeline.Result
		err error
	}
	out := make([]indexed, len(setCodes))
	sem := make(chan struct{}, concurrency)
	done := make(chan struct{}, len(setCodes))

	for i, code := range setCodes {
		i, code := i, code
		sem <- struct{}{}
		go func() {
			defer func() { <-sem; done <- struct{}{} }()
			res, err := engine.BuildSet(ctx, code)
			out[i] = indexed{idx: i, res: res, err: err}
		}()
	}
	for range setCodes {
		<-done
	}

	results := make([]*pipeline.Result, 0, len(setCodes))
	for _, r := range out {
		if r.err != nil {
			log.Warnw("set compilation failed, continuing with remaining sets", "setCode", setCodes[r.idx], "error", r.err)
			report.Warnf("pipeline", "set %s failed to compile: %v", setCodes[r.idx], r.err)
			continue
		}
		results = append(results, r.res)
	}
	return results, nil
}

func str(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return ""
	}
}
