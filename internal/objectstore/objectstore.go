// Package objectstore implements the price-archive mirror contract
//: a
// bounded-worker-pool upload/download/list surface over the shared
// `s3://<bucket>/price_archive/date=YYYY-MM-DD/data.parquet.zst` layout
// (see remoteSuffix).
// Individual provider storage SDKs are deliberately behind the Store
// interface rather than imported directly here — the price engine only
// needs list/get/put, not any one vendor's client surface.
package objectstore

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"sort"
	"time"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"

	"github.com/mtgjson/mtgjson/internal/buildreport"
)

// remoteSuffix marks a mirror payload as zstd-compressed on top of
// whatever compression the local file already carries (DuckDB's own
// COPY ... COMPRESSION ZSTD) — object-store egress is billed per byte
// moved, so the mirror compresses local files before Put and decompresses
// after Get rather than shipping the local file verbatim.
const remoteSuffix = ".zst"

// Store is the minimal object-store contract the price archive's
// sync-down/sync-up steps need. A concrete implementation wraps whatever
// SDK the deployment's object store uses (S3, GCS, ...); this package
// never talks to a network itself.
type Store interface {
	List(ctx context.Context, prefix string) ([]string, error)
	Get(ctx context.Context, key string, localPath string) error
	Put(ctx context.Context, key string, localPath string) error
}

// Mirror bounds concurrent uploads/downloads against a Store to the
// worker count names ("~16 workers"), retrying each operation
// up to 3 times with exponential backoff, and treats a final failure as
// non-fatal — the overall price build succeeds even if the archive sync
// did not.
type Mirror struct {
	store       Store
	concurrency int
	log         *zap.SugaredLogger
	report      *buildreport.Report
}

// New builds a Mirror with the given bounded concurrency.
func New(store Store, concurrency int, log *zap.SugaredLogger, report *buildreport.Report) *Mirror {
	return &Mirror{store: store, concurrency: concurrency, log: log, report: report}
}

// SyncDown downloads any remote partitions in remotePrefix whose date is
// not a key of have. Every listed date is considered; no retention-window
// filter is applied. have maps date -> local file path to write into.
func (m *Mirror) SyncDown(ctx context.Context, remotePrefix string, have map[string]string) error {
	remoteKeys, err := m.store.List(ctx, remotePrefix)
	if err != nil {
		return fmt.Errorf("objectstore: list %s: %w", remotePrefix, err)
	}

	var missing []string
	for _, key := range remoteKeys {
		date := dateFromKey(key)
		if date == "" {
			continue
		}
		if _, ok := have[date]; !ok {
			missing = append(missing, key)
		}
	}
	sort.Strings(missing)

	return m.runBounded(ctx, missing, func(ctx context.Context, key string) error {
		date := dateFromKey(key)
		return m.withRetry(ctx, "sync-down:"+key, func() error {
			return m.getCompressed(ctx, key, have[date])
		})
	})
}

// getCompressed downloads the remote zstd-compressed payload for key to a
// temp file and decompresses it into localPath.
func (m *Mirror) getCompressed(ctx context.Context, key, localPath string) error {
	tmp, err := os.CreateTemp("", "mtgjson-mirror-get-*.zst")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	if err := m.store.Get(ctx, key+remoteSuffix, tmpPath); err != nil {
		return err
	}
	return decompressFile(tmpPath, localPath)
}

// SyncUp uploads the partitions in localPaths (date -> local file path)
// to remotePrefix.
func (m *Mirror) SyncUp(ctx context.Context, remotePrefix string, localPaths map[string]string) error {
	dates := make([]string, 0, len(localPaths))
	for date := range localPaths {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	return m.runBounded(ctx, dates, func(ctx context.Context, date string) error {
		key := fmt.Sprintf("%s/date=%s/data.parquet", remotePrefix, date)
		return m.withRetry(ctx, "sync-up:"+date, func() error {
			return m.putCompressed(ctx, key, localPaths[date])
		})
	})
}

// putCompressed zstd-compresses localPath to a temp file and uploads that
// instead of the raw file, under key+remoteSuffix.
func (m *Mirror) putCompressed(ctx context.Context, key, localPath string) error {
	tmp, err := os.CreateTemp("", "mtgjson-mirror-put-*.zst")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	if err := compressFile(localPath, tmpPath); err != nil {
		return err
	}
	return m.store.Put(ctx, key+remoteSuffix, tmpPath)
}

func compressFile(srcPath, dstPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", srcPath, err)
	}
	defer src.Close()

	dst, err := os.Create(dstPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", dstPath, err)
	}
	defer dst.Close()

	enc, err := zstd.NewWriter(dst)
	if err != nil {
		return fmt.Errorf("new zstd writer: %w", err)
	}
	if _, err := io.Copy(enc, src); err != nil {
		enc.Close()
		return fmt.Errorf("compress %s: %w", srcPath, err)
	}
	return enc.Close()
}

func decompressFile(srcPath, dstPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", srcPath, err)
	}
	defer src.Close()

	dec, err := zstd.NewReader(src)
	if err != nil {
		return fmt.Errorf("new zstd reader: %w", err)
	}
	defer dec.Close()

	dst, err := os.Create(dstPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", dstPath, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, dec); err != nil {
		return fmt.Errorf("decompress %s: %w", srcPath, err)
	}
	return nil
}

// runBounded fans work out over m.concurrency goroutines and records, but
// never returns, a per-item failure — sync is non-fatal end to end.
func (m *Mirror) runBounded(ctx context.Context, items []string, work func(context.Context, string) error) error {
	sem := make(chan struct{}, m.concurrency)
	done := make(chan struct{}, len(items))

	for _, item := range items {
		item := item
		sem <- struct{}{}
		go func() {
			defer func() { <-sem; done <- struct{}{} }()
			if err := work(ctx, item); err != nil {
				m.log.Warnw("object-store sync item failed, continuing", "item", item, "error", err)
				m.report.Warnf("objectstore", "sync item %s failed after retries: %v", item, err)
			}
		}()
	}
	for range items {
		<-done
	}
	return nil
}

// withRetry retries op up to 3 times with exponential backoff, returning the last error if
// every attempt fails.
func (m *Mirror) withRetry(ctx context.Context, label string, op func() error) error {
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt)) * 200 * time.Millisecond
			jitter := time.Duration(rand.Intn(100)) * time.Millisecond
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff + jitter):
			}
		}
		if err := op(); err != nil {
			lastErr = err
			m.log.Debugw("retrying object-store operation", "label", label, "attempt", attempt+1, "error", err)
			continue
		}
		return nil
	}
	return fmt.Errorf("objectstore: %s failed after 3 attempts: %w", label, lastErr)
}

func dateFromKey(key string) string {
	const marker = "date="
	idx := indexOf(key, marker)
	if idx < 0 {
		return ""
	}
	rest := key[idx+len(marker):]
	for i := 0; i < len(rest); i++ {
		if rest[i] == '/' {
			return rest[:i]
		}
	}
	return rest
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
