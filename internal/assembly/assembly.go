// Package assembly implements Assembly & Output: it composes the per-set
// objects the card pipeline produces into the family of output files a
// consumer downloads — a single combined nested JSON, one file per set,
// an atomic-cards index, a set-list summary, and flattened relational
// dumps — each write atomic (temp path, then rename) so a killed build
// never leaves a half-written file behind.
package assembly

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/mtgjson/mtgjson/internal/frame"
	"github.com/mtgjson/mtgjson/internal/model"
)

// ErrWriteConflict is returned by a write when the destination already
// exists and the writer was not told to resume a prior build.
var ErrWriteConflict = errors.New("assembly: destination already exists")

// Writer composes and writes the output file family for a completed
// build. One Writer handles every set produced in a single run.
type Writer struct {
	OutputRoot  string
	Concurrency int // bounded per-set file writer pool (~30)
	Resume      bool
	Log         *zap.SugaredLogger
	Version     string
	Date        string // YYYY-MM-DD build date stamped into every meta envelope

	// Conn is the shared DuckDB connection, used only by WriteParquet to
	// COPY the combined card rows out through the same engine that reads
	// parquet back everywhere else in this build. Nil-safe: WriteParquet
	// is skipped (not failed) when Conn is nil, the case in tests that
	// exercise the other writers without a DuckDB connection.
	Conn *frame.Conn

	// Formats restricts which writers WriteAll runs to the named export
	// format subset from the output-mode selector (json, sqlite, csv,
	// parquet, psql). Empty means every format.
	Formats map[string]bool
}

// New builds a Writer rooted at outputRoot.
func New(outputRoot string, concurrency int, resume bool, log *zap.SugaredLogger, version, date string) *Writer {
	return &Writer{
		OutputRoot:  outputRoot,
		Concurrency: concurrency,
		Resume:      resume,
		Log:         log,
		Version:     version,
		Date:        date,
	}
}

// WithFormats restricts WriteAll to the named export format subset. An
// empty or nil set of formats is treated as "every format" rather than
// "no formats."
func (w *Writer) WithFormats(formats []string) *Writer {
	if len(formats) == 0 {
		w.Formats = nil
		return w
	}
	set := make(map[string]bool, len(formats))
	for _, f := range formats {
		set[f] = true
	}
	w.Formats = set
	return w
}

func (w *Writer) wants(format string) bool {
	if len(w.Formats) == 0 {
		return true
	}
	return w.Formats[format]
}

func (w *Writer) meta() model.Meta {
	return model.Meta{Date: w.Date, Version: w.Version}
}

func (w *Writer) path(parts ...string) string {
	return filepath.Join(append([]string{w.OutputRoot}, parts...)...)
}

// checkConflict enforces the resume-or-fail policy: a destination that
// already exists is fine to silently skip when Resume is set (an
// interrupted build picking back up), fatal otherwise.
func (w *Writer) checkConflict(path string) (skip bool, err error) {
	_, statErr := os.Stat(path)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", path, statErr)
	}
	if w.Resume {
		w.Log.Debugw("output already exists, skipping (resume mode)", "path", path)
		return true, nil
	}
	return false, fmt.Errorf("%w: %s", ErrWriteConflict, path)
}

// WriteAll runs the full output-file family for the given sets: the
// combined nested JSON, per-set files, the atomic-cards index, the
// set-list summary, and the flattened relational/columnar dumps.
// Per-set files run on a bounded worker pool; the rest are single large
// writes that run after, since they read every set's data at once.
func (w *Writer) WriteAll(ctx context.Context, sets []model.Set) error {
	if w.wants("json") {
		if err := w.WriteSetFiles(ctx, sets); err != nil {
			return fmt.Errorf("write per-set files: %w", err)
		}
		if err := w.WriteAllPrintings(sets); err != nil {
			return fmt.Errorf("write AllPrintings: %w", err)
		}
		if err := w.WriteAtomicCards(sets); err != nil {
			return fmt.Errorf("write AtomicCards: %w", err)
		}
		if err := w.WriteColumnarNormalized(sets); err != nil {
			return fmt.Errorf("write normalized columnar JSON: %w", err)
		}
		if err := w.WriteSetList(sets); err != nil {
			return fmt.Errorf("write SetList: %w", err)
		}
	}
	if w.wants("psql") {
		if err := w.WriteSQLDump(sets); err != nil {
			return fmt.Errorf("write SQL dump: %w", err)
		}
	}
	if w.wants("sqlite") {
		if err := w.WriteSQLite(sets); err != nil {
			return fmt.Errorf("write SQLite database: %w", err)
		}
	}
	if w.wants("csv") {
		if err := w.WriteCSV(sets); err != nil {
			return fmt.Errorf("write CSV: %w", err)
		}
	}
	if w.wants("parquet") {
		if err := w.WriteParquet(sets); err != nil {
			return fmt.Errorf("write parquet: %w", err)
		}
		if err := w.WriteArrowIPC(sets); err != nil {
			return fmt.Errorf("write Arrow IPC: %w", err)
		}
	}
	return nil
}

// WriteSetFiles writes one JSON file per set under Concurrency-bounded
// workers, the same pattern internal/cache.Cache.LoadAll uses for the
// source downloads: a semaphore channel plus a WaitGroup, one error
// channel drained after every worker exits.
func (w *Writer) WriteSetFiles(ctx context.Context, sets []model.Set) error {
	sem := make(chan struct{}, w.Concurrency)
	errCh := make(chan error, len(sets))
	var wg sync.WaitGroup

	for _, set := range sets {
		set := set
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			if err := w.writeOneSet(set); err != nil {
				errCh <- fmt.Errorf("set %s: %w", set.Code, err)
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

func (w *Writer) writeOneSet(set model.Set) error {
	path := w.path("sets", set.Code+".json")
	skip, err := w.checkConflict(path)
	if err != nil {
		return err
	}
	if skip {
		return nil
	}
	body := struct {
		Meta model.Meta `json:"meta"`
		Data model.Set  `json:"data"`
	}{Meta: w.meta(), Data: set}
	return writeAtomicJSON(path, body)
}
