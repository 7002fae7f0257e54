// Package prices implements the Price Engine: a daily ETL
// over five providers into a date-partitioned, zstd-compressed columnar
// archive, synced to a shared object store and pruned to a rolling
// 90-day local window.
package prices

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/mtgjson/mtgjson/internal/buildreport"
	"github.com/mtgjson/mtgjson/internal/frame"
	"github.com/mtgjson/mtgjson/internal/lookup"
	"github.com/mtgjson/mtgjson/internal/model"
	"github.com/mtgjson/mtgjson/internal/objectstore"
)

// RawPriceRow is one row as a provider emits it, before ID-to-UUID bridge
// resolution: it names the face by the provider's own native ID rather
// than an MTGJSON UUID.
type RawPriceRow struct {
	NativeID  string
	Source    model.Source
	Provider  string
	PriceType model.PriceType
	Finish    model.Finish
	Price     float64
	Currency  model.Currency
}

// Provider is the opaque per-provider fetch function. BridgeKind tells
// fetchAll which of the four ID-to-UUID bridges resolves this provider's
// NativeID.
type Provider struct {
	Name        string
	Bridge      BridgeKind
	Fetch       func(ctx context.Context) ([]RawPriceRow, error)
}

// BridgeKind names which lookup.Bridges frame resolves a provider's
// native identifier to an MTGJSON UUID.
type BridgeKind string

const (
	BridgeTCGPlayer       BridgeKind = "tcgplayer"
	BridgeTCGPlayerEtched BridgeKind = "tcgplayer_etched"
	BridgeMTGO            BridgeKind = "mtgo"
	BridgeScryfall        BridgeKind = "scryfall"
)

// Engine drives the 8-step build sequence of
type Engine struct {
	Conn          *frame.Conn
	Lookup        *lookup.Set
	Mirror        *objectstore.Mirror
	Log           *zap.SugaredLogger
	Report        *buildreport.Report
	CacheRoot     string // .../cache/prices
	RetentionDays int
	RemotePrefix  string // price_archive
	Providers     []Provider

	// OutputRoot and Version address the step-7/8 snapshot deliverables:
	// AllPrices.{json,sqlite,sql,psql,csv} (90-day window) and
	// AllPricesToday.{json,sqlite,sql,psql,csv} (today only), both
	// written directly under OutputRoot and stamped with Version in
	// their meta envelope.
	OutputRoot string
	Version    string

	// FaceUUIDIndex maps (scryfallId, side) to the card pipeline's
	// already-assigned face UUID. Populated by the build orchestrator
	// after the card pipeline finishes compiling every requested set,
	// since price rows need the final UUID and raw card-bulk rows don't
	// carry one.
	FaceUUIDIndex map[faceKey]string
}

// SetFaceUUID records one (scryfallId, side) -> uuid mapping, populated
// by the build orchestrator from the card pipeline's output.
func (e *Engine) SetFaceUUID(scryfallID, side, uuid string) {
	if e.FaceUUIDIndex == nil {
		e.FaceUUIDIndex = map[faceKey]string{}
	}
	e.FaceUUIDIndex[faceKey{scryfallID: scryfallID, side: side}] = uuid
}

// New builds a price Engine.
func New(conn *frame.Conn, lk *lookup.Set, mirror *objectstore.Mirror, log *zap.SugaredLogger, report *buildreport.Report, cacheRoot string, retentionDays int, outputRoot, version string) *Engine {
	return &Engine{
		Conn:          conn,
		Lookup:        lk,
		Mirror:        mirror,
		Log:           log,
		Report:        report,
		CacheRoot:     cacheRoot,
		RetentionDays: retentionDays,
		RemotePrefix:  "price_archive",
		OutputRoot:    outputRoot,
		Version:       version,
	}
}

// Register wires a provider's fetch function into the engine.
func (e *Engine) Register(p Provider) {
	e.Providers = append(e.Providers, p)
}

func (e *Engine) partitionPath(date string) string {
	return filepath.Join(e.CacheRoot, fmt.Sprintf("date=%s", date), "data.parquet")
}

// Build runs the full 8-step sequence for today's date.
func (e *Engine) Build(ctx context.Context, today string) error {
	if err := e.migrateLegacyArchive(); err != nil {
		return fmt.Errorf("prices: migrate legacy archive: %w", err)
	}

	have := e.localPartitionDates()
	if err := e.Mirror.SyncDown(ctx, e.RemotePrefix, e.missingLocalPaths(have)); err != nil {
		e.Log.Warnw("price archive sync-down failed, continuing with local partitions", "error", err)
	}

	rows, err := e.fetchAll(ctx)
	if err != nil {
		return fmt.Errorf("prices: fetch providers: %w", err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("prices: every provider returned zero rows, refusing to overwrite today's partition")
	}

	merged := mergeLastWriteWins(rows)
	if err := e.writePartition(today, merged); err != nil {
		return fmt.Errorf("prices: write partition %s: %w", today, err)
	}

	if err := e.Mirror.SyncUp(ctx, e.RemotePrefix, map[string]string{today: e.partitionPath(today)}); err != nil {
		e.Log.Warnw("price archive sync-up failed, continuing", "error", err)
	}

	if err := e.prune(today); err != nil {
		e.Log.Warnw("price archive pruning failed", "error", err)
	}

	windowRows, err := decodePriceRows(e.LoadWindow().Collect())
	if err != nil {
		return fmt.Errorf("prices: load 90-day window: %w", err)
	}
	todayRows := filterByDate(windowRows, today)

	meta := model.Meta{Date: today, Version: e.Version}
	if err := e.writeSnapshot(filepath.Join(e.OutputRoot, "AllPrices"), meta, windowRows); err != nil {
		return fmt.Errorf("prices: write AllPrices snapshot: %w", err)
	}
	if err := e.writeSnapshot(filepath.Join(e.OutputRoot, "AllPricesToday"), meta, todayRows); err != nil {
		return fmt.Errorf("prices: write AllPricesToday snapshot: %w", err)
	}

	return nil
}

// LoadWindow returns a lazy Frame scanning every local partition under
// CacheRoot. It applies no date filter: the window is whatever prune has
// left on disk, which Build runs just before it.
func (e *Engine) LoadWindow() *frame.Frame {
	glob := filepath.Join(e.CacheRoot, "date=*", "*.parquet")
	return e.Conn.FromParquet(glob)
}

// decodePriceRows converts the column-map rows a Frame.Collect call
// returns back into the typed PriceRow schema, tolerating the
// Collect/error-returning signature by taking both return values so call
// sites can wrap this directly around `e.LoadWindow().Collect()`.
func decodePriceRows(raw []map[string]any, err error) ([]model.PriceRow, error) {
	if err != nil {
		return nil, err
	}
	out := make([]model.PriceRow, 0, len(raw))
	for _, row := range raw {
		out = append(out, model.PriceRow{
			UUID:      strCol(row["uuid"]),
			Date:      strCol(row["date"]),
			Source:    model.Source(strCol(row["source"])),
			Provider:  strCol(row["provider"]),
			PriceType: model.PriceType(strCol(row["priceType"])),
			Finish:    model.Finish(strCol(row["finish"])),
			Price:     floatCol(row["price"]),
			Currency:  model.Currency(strCol(row["currency"])),
		})
	}
	return out, nil
}

func filterByDate(rows []model.PriceRow, date string) []model.PriceRow {
	out := make([]model.PriceRow, 0, len(rows))
	for _, r := range rows {
		if r.Date == date {
			out = append(out, r)
		}
	}
	return out
}

func strCol(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return ""
	}
}

func floatCol(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case float32:
		return float64(t)
	case int64:
		return float64(t)
	case int32:
		return float64(t)
	default:
		return 0
	}
}

func (e *Engine) localPartitionDates() map[string]bool {
	have := map[string]bool{}
	entries, err := os.ReadDir(e.CacheRoot)
	if err != nil {
		return have
	}
	for _, ent := range entries {
		if !ent.IsDir() {
			continue
		}
		const prefix = "date="
		if len(ent.Name()) > len(prefix) && ent.Name()[:len(prefix)] == prefix {
			have[ent.Name()[len(prefix):]] = true
		}
	}
	return have
}

func (e *Engine) missingLocalPaths(have map[string]bool) map[string]string {
	out := map[string]string{}
	for date := range have {
		out[date] = e.partitionPath(date)
	}
	return out
}

// prune deletes local partitions older than RetentionDays.
func (e *Engine) prune(today string) error {
	cutoff, err := time.Parse("2006-01-02", today)
	if err != nil {
		return fmt.Errorf("parse today %q: %w", today, err)
	}
	cutoff = cutoff.AddDate(0, 0, -e.RetentionDays)

	entries, err := os.ReadDir(e.CacheRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	const prefix = "date="
	for _, ent := range entries {
		if !ent.IsDir() || len(ent.Name()) <= len(prefix) {
			continue
		}
		dateStr := ent.Name()[len(prefix):]
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			continue
		}
		if date.Before(cutoff) {
			partitionDir := filepath.Join(e.CacheRoot, ent.Name())
			size := dirSize(partitionDir)
			if err := os.RemoveAll(partitionDir); err != nil {
				return fmt.Errorf("prune partition %s: %w", dateStr, err)
			}
			e.Log.Infow("pruned price partition", "date", dateStr, "size", humanize.Bytes(size))
		}
	}
	return nil
}

// dirSize sums the size of every regular file under dir, for the
// human-readable log line prune emits per partition removed. A partition
// that has already vanished (or is unreadable) just logs as 0 bytes rather
// than failing the prune.
func dirSize(dir string) uint64 {
	var total uint64
	_ = filepath.Walk(dir, func(_ string, info os.FileInfo, err error) error {
		if err != nil || info == nil || info.IsDir() {
			return nil
		}
		total += uint64(info.Size())
		return nil
	})
	return total
}

// migrateLegacyArchive one-time-migrates a pre-partitioning single-file
// archive (if one exists at CacheRoot/legacy.parquet) into today's
// partitioned layout. Idempotent: a second call finds no legacy file and
// does nothing.
func (e *Engine) migrateLegacyArchive() error {
	legacyPath := filepath.Join(e.CacheRoot, "legacy.parquet")
	if _, err := os.Stat(legacyPath); os.IsNotExist(err) {
		return nil
	}

	rows, err := e.Conn.FromParquet(legacyPath).Collect()
	if err != nil {
		return fmt.Errorf("read legacy archive: %w", err)
	}

	byDate := map[string][]map[string]any{}
	for _, row := range rows {
		date, _ := row["date"].(string)
		byDate[date] = append(byDate[date], row)
	}
	for _, date := range sortedDates(byDate) {
		if err := e.writeRawPartition(date, byDate[date]); err != nil {
			return fmt.Errorf("migrate partition %s: %w", date, err)
		}
	}

	return os.Remove(legacyPath)
}

func sortedDates(byDate map[string][]map[string]any) []string {
	out := make([]string, 0, len(byDate))
	for d := range byDate {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}
