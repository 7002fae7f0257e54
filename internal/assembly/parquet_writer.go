package assembly

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mtgjson/mtgjson/internal/model"
)

// WriteParquet writes AllPrintings.parquet: the normalized card rows
// staged as NDJSON and COPY'd out through DuckDB, the same
// stage-then-COPY idiom internal/cache.writeParquet and
// internal/prices.writeRawPartition both use, just pointed at the
// combined output instead of a cache source or price partition. Skipped
// (not failed) when the Writer has no DuckDB connection — assembly tests
// that don't need a live connection exercise every other writer without
// one.
func (w *Writer) WriteParquet(sets []model.Set) error {
	if w.Conn == nil {
		return nil
	}
	path := w.path("AllPrintings.parquet")
	skip, err := w.checkConflict(path)
	if err != nil {
		return err
	}
	if skip {
		return nil
	}

	var rows []columnarCard
	for _, set := range sets {
		for _, c := range set.Cards {
			colors, err := marshalList(c.Colors)
			if err != nil {
				return fmt.Errorf("marshal colors for %s: %w", c.UUID, err)
			}
			keywords, err := marshalList(c.Keywords)
			if err != nil {
				return fmt.Errorf("marshal keywords for %s: %w", c.UUID, err)
			}
			rows = append(rows, columnarCard{
				UUID: c.UUID, Name: c.Name, SetCode: c.SetCode, Number: c.Number,
				Type: c.Type, ManaValue: c.ManaValue, Rarity: c.Rarity,
				Colors: colors, Keywords: keywords,
			})
		}
	}

	staging, err := os.CreateTemp("", "mtgjson-allprintings-*.jsonl")
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
	if _, err := w.Conn.DB().Exec(copyStmt); err != nil {
		return fmt.Errorf("copy to parquet: %w", err)
	}
	return nil
}
