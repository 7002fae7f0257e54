package assembly

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/mtgjson/mtgjson/internal/model"
)

// WriteSQLite writes AllPrintings.sqlite: the same cards/cards_foreign_data
// relational shape as WriteSQLDump, built directly against a pure-Go
// modernc.org/sqlite database instead of a text SQL dump — the export
// format a consumer queries without a server-backed Postgres instance.
// The whole database is built in a temp file and renamed into place, so a
// killed build never leaves a half-written .sqlite behind.
func (w *Writer) WriteSQLite(sets []model.Set) error {
	path := w.path("AllPrintings.sqlite")
	skip, err := w.checkConflict(path)
	if err != nil {
		return err
	}
	if skip {
		return nil
	}

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

	if err := writeSQLiteSchema(db); err != nil {
		return err
	}
	if err := writeSQLiteRows(db, sets); err != nil {
		return err
	}
	if err := db.Close(); err != nil {
		return fmt.Errorf("close sqlite db: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename into %s: %w", path, err)
	}
	return nil
}

func writeSQLiteSchema(db *sql.DB) error {
	const schema = `
CREATE TABLE cards (
	uuid TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	setCode TEXT NOT NULL,
	number TEXT NOT NULL,
	type TEXT NOT NULL,
	manaValue REAL NOT NULL,
	rarity TEXT NOT NULL
);
CREATE TABLE cards_foreign_data (
	uuid TEXT NOT NULL,
	language TEXT NOT NULL,
	name TEXT,
	text TEXT,
	FOREIGN KEY (uuid) REFERENCES cards(uuid)
);
CREATE INDEX idx_cards_setCode ON cards(setCode);
CREATE INDEX idx_foreign_uuid ON cards_foreign_data(uuid);
`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create sqlite schema: %w", err)
	}
	return nil
}

// writeSQLiteRows inserts every card and its foreign-language printings
// inside one transaction through two prepared statements (cards and
// cards_foreign_data), executed once per row; rows are not chunked into
// batches.
func writeSQLiteRows(db *sql.DB, sets []model.Set) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin sqlite tx: %w", err)
	}
	defer tx.Rollback()

	cardStmt, err := tx.Prepare(`INSERT INTO cards (uuid, name, setCode, number, type, manaValue, rarity) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare card insert: %w", err)
	}
	defer cardStmt.Close()

	foreignStmt, err := tx.Prepare(`INSERT INTO cards_foreign_data (uuid, language, name, text) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare foreign insert: %w", err)
	}
	defer foreignStmt.Close()

	for _, set := range sets {
		for _, c := range set.Cards {
			if _, err := cardStmt.Exec(c.UUID, c.Name, c.SetCode, c.Number, c.Type, c.ManaValue, c.Rarity); err != nil {
				return fmt.Errorf("insert card %s: %w", c.UUID, err)
			}
			for _, fd := range c.ForeignDataList {
				if _, err := foreignStmt.Exec(c.UUID, fd.Language, fd.Name, derefStr(fd.Text)); err != nil {
					return fmt.Errorf("insert foreign data for %s: %w", c.UUID, err)
				}
			}
		}
	}

	return tx.Commit()
}
