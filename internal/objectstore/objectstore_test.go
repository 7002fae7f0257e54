package objectstore

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/mtgjson/mtgjson/internal/buildreport"
	"github.com/mtgjson/mtgjson/internal/logging"
)

type fakeStore struct {
	mu       sync.Mutex
	listKeys []string
	gets     []string
	puts     []string
	failPuts map[string]int
}

func (f *fakeStore) List(ctx context.Context, prefix string) ([]string, error) {
	return f.listKeys, nil
}

func (f *fakeStore) Get(ctx context.Context, key, localPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets = append(f.gets, key)
	return nil
}

func (f *fakeStore) Put(ctx context.Context, key, localPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts = append(f.puts, key)
	if f.failPuts[key] > 0 {
		f.failPuts[key]--
		return errors.New("simulated transient failure")
	}
	return nil
}

func TestSyncDownSkipsPartitionsAlreadyLocal(t *testing.T) {
	store := &fakeStore{listKeys: []string{
		"price_archive/date=2026-07-29/data.parquet",
		"price_archive/date=2026-07-30/data.parquet",
	}}
	m := New(store, 2, logging.NewNop(), buildreport.New())

	have := map[string]string{"2026-07-30": "/tmp/2026-07-30.parquet"}
	err := m.SyncDown(context.Background(), "price_archive", have)
	if err != nil {
		t.Fatalf("SyncDown: %v", err)
	}

	if len(store.gets) != 1 || store.gets[0] != "price_archive/date=2026-07-29/data.parquet" {
		t.Fatalf("expected exactly the missing 2026-07-29 partition downloaded, got %v", store.gets)
	}
}

func TestSyncUpIsNonFatalOnFinalFailure(t *testing.T) {
	store := &fakeStore{failPuts: map[string]int{
		"price_archive/date=2026-07-31/data.parquet.zst": 99,
	}}
	m := New(store, 1, logging.NewNop(), buildreport.New())

	err := m.SyncUp(context.Background(), "price_archive", map[string]string{
		"2026-07-31": "/tmp/today.parquet",
	})
	if err != nil {
		t.Fatalf("SyncUp should be non-fatal even after exhausting retries, got: %v", err)
	}
}

func TestDateFromKey(t *testing.T) {
	got := dateFromKey("price_archive/date=2026-01-05/data.parquet")
	if got != "2026-01-05" {
		t.Fatalf("got %q, want 2026-01-05", got)
	}
}
