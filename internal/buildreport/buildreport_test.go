package buildreport

import (
	"sync"
	"testing"
)

func TestAddIsConcurrencySafe(t *testing.T) {
	r := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r.Warnf("cache", "source %d failed", i)
		}(i)
	}
	wg.Wait()

	if r.Len() != 50 {
		t.Fatalf("got %d entries, want 50", r.Len())
	}
	if r.CountBySeverity(SeverityWarn) != 50 {
		t.Fatalf("got %d warn entries, want 50", r.CountBySeverity(SeverityWarn))
	}
}

func TestEntriesReturnsSnapshotCopy(t *testing.T) {
	r := New()
	r.Warnf("pipeline", "lookup miss for %s", "oracle-1")

	snap := r.Entries()
	snap[0].Message = "mutated"

	if r.Entries()[0].Message == "mutated" {
		t.Fatalf("Entries() leaked internal storage")
	}
}
