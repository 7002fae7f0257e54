package cache

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/mtgjson/mtgjson/internal/frame"
	"github.com/mtgjson/mtgjson/internal/logging"
)

func TestMaterializeFetchesOnceAndCaches(t *testing.T) {
	conn, err := frame.Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer conn.Close()

	c := New(conn, t.TempDir(), logging.NewNop())

	calls := 0
	c.Register(SourceSetMetadata, func(ctx context.Context) ([]map[string]any, error) {
		calls++
		return []map[string]any{
			{"set_code": "LEA", "release_date": "1993-08-05"},
		}, nil
	})

	ctx := context.Background()
	f1, err := c.Frame(ctx, SourceSetMetadata)
	if err != nil {
		t.Fatalf("Frame: %v", err)
	}
	rows, err := f1.Collect()
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}

	if _, err := c.Frame(ctx, SourceSetMetadata); err != nil {
		t.Fatalf("second Frame call: %v", err)
	}

	if calls != 1 {
		t.Fatalf("fetcher called %d times, want exactly 1 (cache-once contract)", calls)
	}
}

func TestMaterializeHandlesFetchError(t *testing.T) {
	conn, err := frame.Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer conn.Close()

	root := t.TempDir()
	c := New(conn, root, logging.NewNop())
	c.Register(SourceRulings, func(ctx context.Context) ([]map[string]any, error) {
		return nil, context.DeadlineExceeded
	})

	ctx := context.Background()
	f, err := c.Frame(ctx, SourceRulings)
	if err != nil {
		t.Fatalf("Frame should not fail on SourceFetchError, got: %v", err)
	}
	rows, err := f.Collect()
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected empty frame on fetch error, got %d rows", len(rows))
	}

	if _, statErr := filepath.Abs(c.path(SourceRulings)); statErr != nil {
		t.Fatalf("path: %v", statErr)
	}
}

func TestLoadAllUsesBoundedPool(t *testing.T) {
	conn, err := frame.Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer conn.Close()

	c := New(conn, t.TempDir(), logging.NewNop())
	sources := []Source{SourceCardBulk, SourceRulings, SourceSetMetadata, SourceCombos}
	for _, src := range sources {
		src := src
		c.Register(src, func(ctx context.Context) ([]map[string]any, error) {
			return []map[string]any{{"id": string(src)}}, nil
		})
	}

	if err := c.LoadAll(context.Background(), 2); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}

	for _, src := range sources {
		if !c.loaded[src] {
			t.Errorf("source %s was not marked loaded", src)
		}
	}
}
