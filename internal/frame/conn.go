// Package frame implements a lazy columnar query engine: a
// deferred-execution query plan with explicit checkpoint/reset points and
// partition-pruning scans over local files. It is grounded on the actual
// MTGJSON Go SDK's choice of engine (github.com/marcboeker/go-duckdb, see
// DESIGN.md) rather than inventing a bespoke dataframe type.
//
// A Frame never touches rows until Collect or a Checkpoint is called: it
// is a named SQL view over the shared DuckDB connection, and every method
// that "transforms" a Frame returns a new Frame wrapping a new view
// definition rather than executing anything.
package frame

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	_ "github.com/marcboeker/go-duckdb"
)

// Conn is the single shared DuckDB connection a build uses for every
// lazy frame, lookup join, and checkpoint. It is write-once-then-
// read-only after the Source Cache's load phase completes, so it carries no locking of its own beyond what
// database/sql already serializes.
type Conn struct {
	db      *sql.DB
	counter uint64
}

// Open creates a new in-process DuckDB connection. path may be ":memory:"
// or a file path; the pipeline uses a file-backed connection so checkpoint
// materializations can spill to disk under memory pressure.
func Open(path string) (*Conn, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping duckdb connection: %w", err)
	}
	return &Conn{db: db}, nil
}

// Close releases the underlying DuckDB connection.
func (c *Conn) Close() error {
	return c.db.Close()
}

// DB exposes the raw *sql.DB for callers that need to run DDL the Frame
// API doesn't model (e.g. installing the httpfs/parquet extensions).
func (c *Conn) DB() *sql.DB {
	return c.db
}

func (c *Conn) nextName(prefix string) string {
	n := atomic.AddUint64(&c.counter, 1)
	return fmt.Sprintf("%s_%d", prefix, n)
}

// FromParquet opens a lazy Frame over one or more local parquet files
// using DuckDB's read_parquet table function, with hive partition
// discovery enabled — this is what lets the price engine prune the
// 90-day window to the files whose date= prefix matches the filter
// instead of scanning everything.
func (c *Conn) FromParquet(globPattern string) *Frame {
	sqlExpr := fmt.Sprintf("read_parquet(%s, hive_partitioning=true, union_by_name=true)", quoteLiteral(globPattern))
	return &Frame{conn: c, plan: sqlExpr}
}

// FromQuery wraps an arbitrary SQL query as a lazy Frame. Used sparingly,
// for the handful of places (manual-override tables, curated resource
// frames) where the source is small enough to construct with VALUES.
func (c *Conn) FromQuery(query string) *Frame {
	return &Frame{conn: c, plan: fmt.Sprintf("(%s)", query)}
}

// FromRows stages an already-materialized slice of rows (e.g. the output
// of a Go-side per-row computation such as UUID assignment, which DuckDB
// has no built-in function for) as NDJSON and reopens it as a lazy Frame,
// so the pipeline can hand control back to the columnar engine immediately
// after a step that genuinely needs row-level Go code. The pipeline uses
// it after each of its Go-side stages: stage 2 (per-face transforms),
// stage 6 (assign UUIDs, a deterministic v5 derivation over the canonical
// face key, which is not a DuckDB builtin) and stage 9 (relationship
// ops).
func (c *Conn) FromRows(rows []map[string]any) (*Frame, error) {
	if len(rows) == 0 {
		return &Frame{conn: c, plan: "(SELECT NULL AS _empty WHERE FALSE)"}, nil
	}

	staging, err := os.CreateTemp("", "mtgjson-rows-*.jsonl")
	if err != nil {
		return nil, fmt.Errorf("create staging file: %w", err)
	}
	defer os.Remove(staging.Name())

	enc := json.NewEncoder(staging)
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			staging.Close()
			return nil, fmt.Errorf("encode row: %w", err)
		}
	}
	if err := staging.Close(); err != nil {
		return nil, fmt.Errorf("close staging file: %w", err)
	}

	query := fmt.Sprintf("SELECT * FROM read_json_auto(%s)", quoteLiteral(staging.Name()))
	tableName := c.nextName("rows")
	if _, err := c.db.Exec(fmt.Sprintf("CREATE TEMP TABLE %s AS %s", tableName, query)); err != nil {
		return nil, fmt.Errorf("materialize rows: %w", err)
	}
	return &Frame{conn: c, plan: tableName}, nil
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
