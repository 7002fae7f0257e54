package prices

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/mtgjson/mtgjson/internal/model"
)

// StreamJSONByUUIDPrefix writes a full {meta,data} JSON document to w,
// where data is the uuid-keyed nested price tree
// {uuid:{source:{provider:{priceType:{finish:{date:price}},currency:"USD"|"EUR"}}}}
// — currency sits as a sibling of priceType under each provider, one
// value per provider since a provider always quotes in a single
// currency. Rows are grouped by the first hex nibble of the UUID (16
// groups, processed in sorted order) and folded into the nested shape
// one group at a time, so at most 1/16th of the rows are resident as a
// nested tree at once even though the flat rows already sit in memory as
// the caller's input slice.
func (e *Engine) StreamJSONByUUIDPrefix(w io.Writer, meta model.Meta, rows []model.PriceRow) error {
	byPrefix := make(map[string][]model.PriceRow, 16)
	for _, r := range rows {
		if len(r.UUID) == 0 {
			continue
		}
		prefix := string(r.UUID[0])
		byPrefix[prefix] = append(byPrefix[prefix], r)
	}
	prefixes := make([]string, 0, len(byPrefix))
	for p := range byPrefix {
		prefixes = append(prefixes, p)
	}
	sort.Strings(prefixes)

	bw := bufio.NewWriter(w)
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal meta: %w", err)
	}
	if _, err := fmt.Fprintf(bw, `{"meta":%s,"data":{`, metaJSON); err != nil {
		return err
	}

	firstEntry := true
	for _, prefix := range prefixes {
		tree := foldByUUID(byPrefix[prefix])
		uuids := make([]string, 0, len(tree))
		for u := range tree {
			uuids = append(uuids, u)
		}
		sort.Strings(uuids)
		for _, u := range uuids {
			entryJSON, err := json.Marshal(tree[u])
			if err != nil {
				return fmt.Errorf("marshal uuid %s: %w", u, err)
			}
			uuidKey, err := json.Marshal(u)
			if err != nil {
				return err
			}
			if !firstEntry {
				if _, err := bw.WriteString(","); err != nil {
					return err
				}
			}
			firstEntry = false
			if _, err := fmt.Fprintf(bw, "%s:%s", uuidKey, entryJSON); err != nil {
				return err
			}
		}
		// tree is dropped here, freeing this prefix group before the next
		// one is folded.
	}

	if _, err := bw.WriteString("}}"); err != nil {
		return err
	}
	return bw.Flush()
}

// providerEntry is one provider's price tree plus its currency, keyed
// both by priceType (each value a finish->date->price map) and by the
// literal key "currency" (a string) — the mixed-value shape needed since
// a provider always quotes in one currency, a sibling of its price tree
// rather than a leaf nested under every price point.
type providerEntry map[string]any

// foldByUUID folds one hex-prefix group's rows into
// uuid -> source -> provider -> providerEntry, sorting by
// (uuid, source, provider, priceType, finish, date) first so the fold
// never depends on input row order.
func foldByUUID(rows []model.PriceRow) map[string]map[string]map[string]providerEntry {
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.UUID != b.UUID {
			return a.UUID < b.UUID
		}
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		if a.Provider != b.Provider {
			return a.Provider < b.Provider
		}
		if a.PriceType != b.PriceType {
			return a.PriceType < b.PriceType
		}
		if a.Finish != b.Finish {
			return a.Finish < b.Finish
		}
		return a.Date < b.Date
	})

	out := map[string]map[string]map[string]providerEntry{}
	for _, r := range rows {
		bySource, ok := out[r.UUID]
		if !ok {
			bySource = map[string]map[string]providerEntry{}
			out[r.UUID] = bySource
		}
		byProvider, ok := bySource[string(r.Source)]
		if !ok {
			byProvider = map[string]providerEntry{}
			bySource[string(r.Source)] = byProvider
		}
		entry, ok := byProvider[r.Provider]
		if !ok {
			entry = providerEntry{}
			byProvider[r.Provider] = entry
		}
		entry["currency"] = string(r.Currency)

		byType, _ := entry[string(r.PriceType)].(map[string]map[string]float64)
		if byType == nil {
			byType = map[string]map[string]float64{}
			entry[string(r.PriceType)] = byType
		}
		byFinish, ok := byType[string(r.Finish)]
		if !ok {
			byFinish = map[string]float64{}
			byType[string(r.Finish)] = byFinish
		}
		byFinish[r.Date] = r.Price
	}
	return out
}

// WriteRelational streams rows to w as batched multi-row INSERT
// statements against a `prices` table, 10,000 rows per statement, the
// same batch size the columnar relational writers use elsewhere in the
// build to keep one statement's parameter count bounded.
func WriteRelational(w io.Writer, rows []model.PriceRow) error {
	const batchSize = 10000
	bw := bufio.NewWriter(w)
	defer bw.Flush()

	for start := 0; start < len(rows); start += batchSize {
		end := start + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		batch := rows[start:end]

		if _, err := bw.WriteString("INSERT INTO prices (uuid, date, source, provider, priceType, finish, price, currency) VALUES\n"); err != nil {
			return err
		}
		for i, r := range batch {
			sep := ","
			if i == len(batch)-1 {
				sep = ";"
			}
			line := fmt.Sprintf("(%s, %s, %s, %s, %s, %s, %v, %s)%s\n",
				sqlQuote(r.UUID), sqlQuote(r.Date), sqlQuote(string(r.Source)), sqlQuote(r.Provider),
				sqlQuote(string(r.PriceType)), sqlQuote(string(r.Finish)), r.Price, sqlQuote(string(r.Currency)), sep)
			if _, err := bw.WriteString(line); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// writePostgresCopy writes rows in PostgreSQL's native COPY FROM STDIN
// text format (tab-separated columns, backslash-escaped, `\.` terminator)
// — the bulk-load path a Postgres consumer uses instead of parsing one
// INSERT per row, distinct from the ANSI-SQL dump WriteRelational
// produces.
func writePostgresCopy(w io.Writer, rows []model.PriceRow) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString("COPY prices (uuid, date, source, provider, priceType, finish, price, currency) FROM stdin;\n"); err != nil {
		return err
	}
	for _, r := range rows {
		line := fmt.Sprintf("%s\t%s\t%s\t%s\t%s\t%s\t%v\t%s\n",
			copyEscape(r.UUID), copyEscape(r.Date), copyEscape(string(r.Source)), copyEscape(r.Provider),
			copyEscape(string(r.PriceType)), copyEscape(string(r.Finish)), r.Price, copyEscape(string(r.Currency)))
		if _, err := bw.WriteString(line); err != nil {
			return err
		}
	}
	if _, err := bw.WriteString("\\.\n"); err != nil {
		return err
	}
	return bw.Flush()
}

var copyReplacer = strings.NewReplacer("\\", "\\\\", "\t", "\\t", "\n", "\\n")

func copyEscape(s string) string {
	return copyReplacer.Replace(s)
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
