package prices

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/mtgjson/mtgjson/internal/model"
)

// writeSnapshot writes the full output-file family for one set of price
// rows to basePath plus each format's extension: the nested JSON
// (streamed by UUID prefix), a pure-Go SQLite database, an ANSI-SQL
// INSERT dump, a PostgreSQL COPY dump, and CSV — the
// `{json,sqlite,sql,psql,csv}` set the 90-day AllPrices snapshot and the
// today-only AllPricesToday snapshot both emit.
func (e *Engine) writeSnapshot(basePath string, meta model.Meta, rows []model.PriceRow) error {
	if err := writeAtomic(basePath+".json", func(f *os.File) error {
		return e.StreamJSONByUUIDPrefix(f, meta, rows)
	}); err != nil {
		return fmt.Errorf("write %s.json: %w", basePath, err)
	}
	if err := writeAtomic(basePath+".sql", func(f *os.File) error {
		return WriteRelational(f, rows)
	}); err != nil {
		return fmt.Errorf("write %s.sql: %w", basePath, err)
	}
	if err := writeAtomic(basePath+".psql", func(f *os.File) error {
		return writePostgresCopy(f, rows)
	}); err != nil {
		return fmt.Errorf("write %s.psql: %w", basePath, err)
	}
	if err := writeAtomic(basePath+".csv", func(f *os.File) error {
		return writePriceCSV(f, rows)
	}); err != nil {
		return fmt.Errorf("write %s.csv: %w", basePath, err)
	}
	if err := writeSQLiteSnapshot(basePath+".sqlite", rows); err != nil {
		return fmt.Errorf("write %s.sqlite: %w", basePath, err)
	}
	return nil
}

// writeAtomic writes to path via a temp file in the same directory
// followed by an atomic rename, the same idiom internal/assembly's
// writers use, so a killed build never leaves a truncated price snapshot
// file behind. (writeRawPartition does not use it; DuckDB's COPY writes
// the partition file in place.)
func writeAtomic(path string, write func(*os.File) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	return os.Rename(tmpPath, path)
}

func writePriceCSV(w io.Writer, rows []model.PriceRow) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"uuid", "date", "source", "provider", "priceType", "finish", "price", "currency"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range rows {
		row := []string{
			r.UUID, r.Date, string(r.Source), r.Provider,
			string(r.PriceType), string(r.Finish), fmt.Sprintf("%v", r.Price), string(r.Currency),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// writeSQLiteSnapshot builds a single `prices` table database, indexed on
// uuid, date, and provider per the relational-writer contract, the same
// build-in-a-temp-file-then-rename shape internal/assembly.WriteSQLite
// uses for the card export.
func writeSQLiteSnapshot(path string, rows []model.PriceRow) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}
	tmpPath := path + ".tmp"
	os.Remove(tmpPath)
	defer os.Remove(tmpPath)

	db, err := sql.Open("sqlite", tmpPath)
	if err != nil {
		return fmt.Errorf("open sqlite db: %w", err)
	}
	defer db.Close()

	const schema = `
CREATE TABLE prices (
	uuid TEXT NOT NULL,
	date TEXT NOT NULL,
	source TEXT NOT NULL,
	provider TEXT NOT NULL,
	priceType TEXT NOT NULL,
	finish TEXT NOT NULL,
	price REAL NOT NULL,
	currency TEXT NOT NULL
);
CREATE INDEX idx_prices_uuid ON prices(uuid);
CREATE INDEX idx_prices_date ON prices(date);
CREATE INDEX idx_prices_provider ON prices(provider);
`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO prices (uuid, date, source, provider, priceType, finish, price, currency) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.Exec(r.UUID, r.Date, string(r.Source), r.Provider, string(r.PriceType), string(r.Finish), r.Price, string(r.Currency)); err != nil {
			return fmt.Errorf("insert row %s: %w", r.UUID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	if err := db.Close(); err != nil {
		return fmt.Errorf("close sqlite db: %w", err)
	}
	return os.Rename(tmpPath, path)
}
