package cache

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mtgjson/mtgjson/internal/frame"
)

// writeParquet persists rows to path as a zstd-compressed parquet file.
// Rows are staged as newline-delimited JSON (DuckDB's read_json_auto
// infers a schema across heterogeneous provider rows, which a flat CSV
// round-trip cannot do for nested/list-typed columns) and then COPY'd out
// through DuckDB itself, so the on-disk compression codec and row-group
// layout are whatever DuckDB's parquet writer produces — the same engine
// every later lazy scan will read back with.
func writeParquet(conn *frame.Conn, path string, rows []map[string]any) error {
	if len(rows) == 0 {
		return writeEmptyParquet(conn, path)
	}

	staging, err := os.CreateTemp("", "mtgjson-stage-*.jsonl")
	if err != nil {
		return fmt.Errorf("create staging file: %w", err)
	}
	defer os.Remove(staging.Name())

	enc := json.NewEncoder(staging)
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			staging.Close()
			return fmt.Errorf("encode row: %w", err)
		}
	}
	if err := staging.Close(); err != nil {
		return fmt.Errorf("close staging file: %w", err)
	}

	copyStmt := fmt.Sprintf(
		"COPY (SELECT * FROM read_json_auto('%s')) TO '%s' (FORMAT PARQUET, COMPRESSION ZSTD, COMPRESSION_LEVEL 9)",
		staging.Name(), path,
	)
	if _, err := conn.DB().Exec(copyStmt); err != nil {
		return fmt.Errorf("copy to parquet: %w", err)
	}
	return nil
}

// writeEmptyParquet writes a zero-row parquet file with a minimal schema
// so downstream lazy scans don't need to special-case a missing file when
// a provider returns zero rows.
func writeEmptyParquet(conn *frame.Conn, path string) error {
	copyStmt := fmt.Sprintf(
		"COPY (SELECT NULL AS _empty WHERE FALSE) TO '%s' (FORMAT PARQUET, COMPRESSION ZSTD)",
		path,
	)
	_, err := conn.DB().Exec(copyStmt)
	return err
}
