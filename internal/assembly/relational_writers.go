package assembly

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/mtgjson/mtgjson/internal/model"
)

// WriteSQLDump flattens every set's cards into an ANSI-SQL INSERT dump
// (cards and a cards_foreign_data child table for the one-to-many
// foreignData relation; tokens are not written), 10,000 rows per batched INSERT
// statement, following the same batching convention
// internal/prices.WriteRelational uses for price rows.
func (w *Writer) WriteSQLDump(sets []model.Set) error {
	path := w.path("AllPrintings.sql")
	skip, err := w.checkConflict(path)
	if err != nil {
		return err
	}
	if skip {
		return nil
	}

	return writeAtomicText(path, func(f *os.File) error {
		bw := bufio.NewWriter(f)
		defer bw.Flush()

		const batchSize = 10000
		var cardBatch []model.CardFace
		var foreignBatch []foreignDataRow

		flushCards := func() error {
			if len(cardBatch) == 0 {
				return nil
			}
			if err := writeCardInsertBatch(bw, cardBatch); err != nil {
				return err
			}
			cardBatch = cardBatch[:0]
			return nil
		}
		flushForeign := func() error {
			if len(foreignBatch) == 0 {
				return nil
			}
			if err := writeForeignInsertBatch(bw, foreignBatch); err != nil {
				return err
			}
			foreignBatch = foreignBatch[:0]
			return nil
		}

		for _, set := range sets {
			for _, c := range set.Cards {
				cardBatch = append(cardBatch, c)
				if len(cardBatch) >= batchSize {
					if err := flushCards(); err != nil {
						return err
					}
				}
				for _, fd := range c.ForeignDataList {
					foreignBatch = append(foreignBatch, foreignDataRow{CardUUID: c.UUID, ForeignData: fd})
					if len(foreignBatch) >= batchSize {
						if err := flushForeign(); err != nil {
							return err
						}
					}
				}
			}
		}
		if err := flushCards(); err != nil {
			return err
		}
		return flushForeign()
	})
}

type foreignDataRow struct {
	CardUUID    string
	ForeignData model.ForeignData
}

func writeCardInsertBatch(bw *bufio.Writer, batch []model.CardFace) error {
	if _, err := bw.WriteString("INSERT INTO cards (uuid, name, setCode, number, type, manaCost, manaValue, rarity, text) VALUES\n"); err != nil {
		return err
	}
	for i, c := range batch {
		sep := ","
		if i == len(batch)-1 {
			sep = ";"
		}
		line := fmt.Sprintf("(%s, %s, %s, %s, %s, %s, %v, %s, %s)%s\n",
			sqlQuote(c.UUID), sqlQuote(c.Name), sqlQuote(c.SetCode), sqlQuote(c.Number),
			sqlQuote(c.Type), sqlQuoteOpt(c.ManaCost), c.ManaValue, sqlQuote(c.Rarity), sqlQuoteOpt(c.Text), sep)
		if _, err := bw.WriteString(line); err != nil {
			return err
		}
	}
	return nil
}

func writeForeignInsertBatch(bw *bufio.Writer, batch []foreignDataRow) error {
	if _, err := bw.WriteString("INSERT INTO cards_foreign_data (cardUuid, language, name, text, type) VALUES\n"); err != nil {
		return err
	}
	for i, r := range batch {
		sep := ","
		if i == len(batch)-1 {
			sep = ";"
		}
		line := fmt.Sprintf("(%s, %s, %s, %s, %s)%s\n",
			sqlQuote(r.CardUUID), sqlQuote(r.ForeignData.Language), sqlQuote(r.ForeignData.Name),
			sqlQuoteOpt(r.ForeignData.Text), sqlQuoteOpt(r.ForeignData.Type), sep)
		if _, err := bw.WriteString(line); err != nil {
			return err
		}
	}
	return nil
}

func sqlQuote(s string) string {
	out := make([]byte, 0, len(s)+2)
	out = append(out, '\'')
	for i := 0; i < len(s); i++ {
		if s[i] == '\'' {
			out = append(out, '\'', '\'')
			continue
		}
		out = append(out, s[i])
	}
	out = append(out, '\'')
	return string(out)
}

func sqlQuoteOpt(s *string) string {
	if s == nil {
		return "NULL"
	}
	return sqlQuote(*s)
}

// WriteCSV flattens every set's cards into a single CSV with one row per
// card face, marshaling every list/struct-typed field to a JSON string
// cell — CSV has no native nested type, so a reader that needs the
// structured form falls back to parsing that cell.
func (w *Writer) WriteCSV(sets []model.Set) error {
	path := w.path("AllPrintings.csv")
	skip, err := w.checkConflict(path)
	if err != nil {
		return err
	}
	if skip {
		return nil
	}

	return writeAtomicText(path, func(f *os.File) error {
		cw := csv.NewWriter(f)
		defer cw.Flush()

		header := []string{"uuid", "name", "setCode", "number", "type", "manaCost", "manaValue", "rarity", "text", "colors", "keywords", "foreignData"}
		if err := cw.Write(header); err != nil {
			return err
		}

		codes := make([]string, len(sets))
		for i, s := range sets {
			codes[i] = s.Code
		}
		sort.Strings(codes)
		byCode := map[string]model.Set{}
		for _, s := range sets {
			byCode[s.Code] = s
		}

		for _, code := range codes {
			for _, c := range byCode[code].Cards {
				colors, _ := json.Marshal(c.Colors)
				keywords, _ := json.Marshal(c.Keywords)
				foreign, _ := json.Marshal(c.ForeignDataList)
				row := []string{
					c.UUID, c.Name, c.SetCode, c.Number, c.Type,
					derefStr(c.ManaCost), fmt.Sprintf("%v", c.ManaValue), c.Rarity, derefStr(c.Text),
					string(colors), string(keywords), string(foreign),
				}
				if err := cw.Write(row); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func derefStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
