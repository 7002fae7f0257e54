package frame

import (
	"database/sql"
	"fmt"
	"strings"
)

// Frame is a lazy, deferred-execution query plan over the shared DuckDB
// connection. Every transform method returns a new Frame whose plan is a
// SQL expression wrapping the parent's; nothing executes until Collect or
// Checkpoint runs.
type Frame struct {
	conn *Conn
	plan string // a parenthesized SQL expression usable as a FROM-clause source
}

// Select projects columns, equivalent to a lazy-frame .select(...).
func (f *Frame) Select(exprs ...string) *Frame {
	return &Frame{conn: f.conn, plan: fmt.Sprintf("(SELECT %s FROM %s)", strings.Join(exprs, ", "), f.plan)}
}

// Filter applies a boolean predicate, equivalent to a lazy-frame
// .filter(...). Stage 1 of the pipeline uses this to cut card bulk down
// to the requested set codes before any join runs.
func (f *Frame) Filter(predicate string) *Frame {
	return &Frame{conn: f.conn, plan: fmt.Sprintf("(SELECT * FROM %s WHERE %s)", f.plan, predicate)}
}

// WithColumn adds or replaces a computed column, equivalent to a
// lazy-frame .with_columns(...). Used pervasively in pipeline Stage 2's
// per-face transforms (mana value, colors, ASCII name, ...).
func (f *Frame) WithColumn(name, expr string) *Frame {
	return &Frame{conn: f.conn, plan: fmt.Sprintf("(SELECT *, %s AS %s FROM %s)", expr, name, f.plan)}
}

// JoinKind enumerates the join types the lookup consolidator and pipeline
// need.
type JoinKind string

const (
	JoinInner     JoinKind = "INNER"
	JoinLeft      JoinKind = "LEFT"
	JoinFullOuter JoinKind = "FULL OUTER"
)

// Join joins this Frame against other on the given ON clause. FullOuter is
// used for the identifiers lookup specifically because a card that exists
// only on Card Kingdom's side must still be retained.
func (f *Frame) Join(other *Frame, kind JoinKind, on string, alias, otherAlias string) *Frame {
	plan := fmt.Sprintf("(SELECT * FROM %s AS %s %s JOIN %s AS %s ON %s)",
		f.plan, alias, kind, other.plan, otherAlias, on)
	return &Frame{conn: f.conn, plan: plan}
}

// GroupBy performs an aggregation. aggExprs are full "expr AS alias"
// projection fragments (e.g. "list_sort(list(set_code)) AS printings").
// Determinism ("any grouping into a list must sort the list first") is
// the caller's responsibility to encode in aggExprs — Frame does not
// second-guess the aggregation expression.
func (f *Frame) GroupBy(keys []string, aggExprs []string) *Frame {
	cols := append(append([]string{}, keys...), aggExprs...)
	plan := fmt.Sprintf("(SELECT %s FROM %s GROUP BY %s)",
		strings.Join(cols, ", "), f.plan, strings.Join(keys, ", "))
	return &Frame{conn: f.conn, plan: plan}
}

// Sort orders rows by the given SQL ORDER BY expression. The determinism
// rule in ("any deduplication must sort first and
// keep-first") means Sort always precedes a DistinctOn in practice.
func (f *Frame) Sort(orderBy string) *Frame {
	return &Frame{conn: f.conn, plan: fmt.Sprintf("(SELECT * FROM %s ORDER BY %s)", f.plan, orderBy)}
}

// DistinctOn keeps the first row per key after an explicit Sort,
// implementing "sort first, keep-first" dedup via DuckDB's
// DISTINCT ON extension.
func (f *Frame) DistinctOn(keys ...string) *Frame {
	return &Frame{conn: f.conn, plan: fmt.Sprintf("(SELECT DISTINCT ON (%s) * FROM %s)", strings.Join(keys, ", "), f.plan)}
}

// Union concatenates this Frame with others, column-matching by name.
func (f *Frame) Union(others ...*Frame) *Frame {
	parts := []string{f.plan}
	for _, o := range others {
		parts = append(parts, o.plan)
	}
	return &Frame{conn: f.conn, plan: fmt.Sprintf("(%s)", strings.Join(parts, " UNION ALL BY NAME "))}
}

// Plan returns the underlying SQL expression. Exposed for Checkpoint and
// for writers that need to embed a Frame's plan into a COPY statement.
func (f *Frame) Plan() string {
	return f.plan
}

// Query executes the lazy plan and returns the live *sql.Rows. Callers
// must Close the result. Collect is built on it; pipeline code reads
// results through Collect rather than calling Query directly.
func (f *Frame) Query() (*sql.Rows, error) {
	return f.conn.db.Query(fmt.Sprintf("SELECT * FROM %s", f.plan))
}

// Collect executes the plan and loads it fully into memory as rows of
// column-name -> value maps. Only ever called on small, already-
// aggregated frames (lookup tables, a single set's worth of cards) —
// never on the full card bulk.
func (f *Frame) Collect() ([]map[string]any, error) {
	rows, err := f.Query()
	if err != nil {
		return nil, fmt.Errorf("collect: %w", err)
	}
	defer rows.Close()
	return scanRows(rows)
}

func scanRows(rows *sql.Rows) ([]map[string]any, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []map[string]any
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(cols))
		for i, c := range cols {
			row[c] = vals[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
