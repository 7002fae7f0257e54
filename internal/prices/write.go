package prices

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mtgjson/mtgjson/internal/model"
)

// writePartition writes merged rows as date's partition file, staging
// them as newline-delimited JSON and letting DuckDB's own parquet writer
// produce the zstd-level-9 output (the same idiom internal/cache/write.go
// uses for source materialization).
func (e *Engine) writePartition(date string, rows []model.PriceRow) error {
	raw := make([]map[string]any, len(rows))
	for i, r := range rows {
		raw[i] = map[string]any{
			"uuid":      r.UUID,
			"date":      r.Date,
			"source":    string(r.Source),
			"provider":  r.Provider,
			"priceType": string(r.PriceType),
			"finish":    string(r.Finish),
			"price":     r.Price,
			"currency":  string(r.Currency),
		}
		if raw[i]["date"] == "" {
			raw[i]["date"] = date
		}
	}
	return e.writeRawPartition(date, raw)
}

func (e *Engine) writeRawPartition(date string, rows []map[string]any) error {
	path := e.partitionPath(date)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir partition %s: %w", date, err)
	}

	if len(rows) == 0 {
		copyStmt := fmt.Sprintf(
			"COPY (SELECT NULL AS _empty WHERE FALSE) TO '%s' (FORMAT PARQUET, COMPRESSION ZSTD)",
			path,
		)
		_, err := e.Conn.DB().Exec(copyStmt)
		return err
	}

	staging, err := os.CreateTemp("", "mtgjson-prices-*.jsonl")
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
	if _, err := e.Conn.DB().Exec(copyStmt); err != nil {
		return fmt.Errorf("copy to parquet: %w", err)
	}
	return nil
}
