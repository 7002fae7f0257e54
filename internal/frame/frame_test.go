package frame

import "testing"

func openTestConn(t *testing.T) *Conn {
	t.Helper()
	c, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestFromQueryCollect(t *testing.T) {
	c := openTestConn(t)
	f := c.FromQuery("SELECT 1 AS a, 'x' AS b UNION ALL SELECT 2, 'y'")

	rows, err := f.Collect()
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
}

func TestFilterAndSelect(t *testing.T) {
	c := openTestConn(t)
	f := c.FromQuery("SELECT * FROM (VALUES (1,'a'),(2,'b'),(3,'c')) AS t(id, name)")

	filtered := f.Filter("id > 1").Select("id", "name")
	rows, err := filtered.Collect()
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
}

func TestCheckpointMaterializesAndResets(t *testing.T) {
	c := openTestConn(t)
	f := c.FromQuery("SELECT * FROM (VALUES (1),(2),(3)) AS t(id)")
	f = f.WithColumn("doubled", "id * 2")

	checkpointed, err := f.Checkpoint("stage1")
	if err != nil {
		t.Fatalf("Checkpoint: %v", err)
	}

	rows, err := checkpointed.Collect()
	if err != nil {
		t.Fatalf("Collect after checkpoint: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows after checkpoint, want 3", len(rows))
	}

	if err := checkpointed.Drop(); err != nil {
		t.Fatalf("Drop: %v", err)
	}
}

func TestJoinFullOuterRetainsUnmatched(t *testing.T) {
	c := openTestConn(t)
	left := c.FromQuery("SELECT * FROM (VALUES (1,'a'),(2,'b')) AS t(id, name)")
	right := c.FromQuery("SELECT * FROM (VALUES (2,'x'),(3,'y')) AS t(id, val)")

	joined := left.Join(right, JoinFullOuter, "l.id = r.id", "l", "r")
	rows, err := joined.Collect()
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows from full outer join, want 3 (union of keys 1,2,3)", len(rows))
	}
}
