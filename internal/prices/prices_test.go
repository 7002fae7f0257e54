package prices

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mtgjson/mtgjson/internal/model"
)

func TestMergeLastWriteWinsKeepsLastPerKey(t *testing.T) {
	rows := []model.PriceRow{
		{UUID: "u1", Date: "2026-07-30", Source: model.SourcePaper, Provider: "tcgplayer", PriceType: model.PriceTypeRetail, Finish: model.FinishNonfoil, Price: 1.00, Currency: model.CurrencyUSD},
		{UUID: "u1", Date: "2026-07-30", Source: model.SourcePaper, Provider: "tcgplayer", PriceType: model.PriceTypeRetail, Finish: model.FinishNonfoil, Price: 2.00, Currency: model.CurrencyUSD},
	}
	merged := mergeLastWriteWins(rows)
	if len(merged) != 1 {
		t.Fatalf("got %d rows, want 1", len(merged))
	}
	if merged[0].Price != 2.00 {
		t.Fatalf("got price %v, want last-write-wins value 2.00", merged[0].Price)
	}
}

func TestMergeLastWriteWinsDistinguishesFinish(t *testing.T) {
	rows := []model.PriceRow{
		{UUID: "u1", Date: "2026-07-30", Source: model.SourcePaper, Provider: "tcgplayer", PriceType: model.PriceTypeRetail, Finish: model.FinishNonfoil, Price: 1.00, Currency: model.CurrencyUSD},
		{UUID: "u1", Date: "2026-07-30", Source: model.SourcePaper, Provider: "tcgplayer", PriceType: model.PriceTypeRetail, Finish: model.FinishFoil, Price: 3.50, Currency: model.CurrencyUSD},
	}
	merged := mergeLastWriteWins(rows)
	if len(merged) != 2 {
		t.Fatalf("got %d rows, want 2 (finish is part of the key)", len(merged))
	}
}

func TestSqlQuoteEscapesApostrophe(t *testing.T) {
	got := sqlQuote("o'brien")
	want := "'o''brien'"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestStreamJSONByUUIDPrefixNestsCurrencyPerProvider(t *testing.T) {
	rows := []model.PriceRow{
		{UUID: "ab12", Date: "2026-07-30", Source: model.SourcePaper, Provider: "tcgplayer", PriceType: model.PriceTypeRetail, Finish: model.FinishNonfoil, Price: 1.23, Currency: model.CurrencyUSD},
		{UUID: "cd34", Date: "2026-07-30", Source: model.SourcePaper, Provider: "cardmarket", PriceType: model.PriceTypeRetail, Finish: model.FinishFoil, Price: 4.56, Currency: model.CurrencyEUR},
	}

	var buf bytes.Buffer
	e := &Engine{}
	if err := e.StreamJSONByUUIDPrefix(&buf, model.Meta{Date: "2026-07-30", Version: "test"}, rows); err != nil {
		t.Fatalf("StreamJSONByUUIDPrefix: %v", err)
	}

	var body struct {
		Meta model.Meta                 `json:"meta"`
		Data map[string]map[string]map[string]map[string]any `json:"data"`
	}
	if err := json.Unmarshal(buf.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal stream output: %v\n%s", err, buf.String())
	}
	if body.Meta.Version != "test" {
		t.Fatalf("got meta version %q, want %q", body.Meta.Version, "test")
	}

	provider := body.Data["ab12"]["paper"]["tcgplayer"]
	if got := provider["currency"]; got != "USD" {
		t.Fatalf("got currency %v, want USD", got)
	}
	if _, ok := provider["retail"]; !ok {
		t.Fatalf("expected priceType key retail sibling to currency, got %v", provider)
	}

	if got := body.Data["cd34"]["paper"]["cardmarket"]["currency"]; got != "EUR" {
		t.Fatalf("got currency %v, want EUR", got)
	}
}

func TestWriteRelationalBatchesRows(t *testing.T) {
	rows := make([]model.PriceRow, 10001)
	for i := range rows {
		rows[i] = model.PriceRow{UUID: "u", Date: "2026-07-30", Source: model.SourcePaper, Provider: "tcgplayer", PriceType: model.PriceTypeRetail, Finish: model.FinishNonfoil, Price: 1, Currency: model.CurrencyUSD}
	}

	var buf bytes.Buffer
	if err := WriteRelational(&buf, rows); err != nil {
		t.Fatalf("WriteRelational: %v", err)
	}
	if got := strings.Count(buf.String(), "INSERT INTO prices"); got != 2 {
		t.Fatalf("got %d INSERT statements for 10001 rows at batch size 10000, want 2", got)
	}
}

func TestWritePostgresCopyEscapesTabsAndNewlines(t *testing.T) {
	rows := []model.PriceRow{
		{UUID: "u\t1", Date: "2026-07-30", Source: model.SourcePaper, Provider: "p\n2", PriceType: model.PriceTypeRetail, Finish: model.FinishNonfoil, Price: 1, Currency: model.CurrencyUSD},
	}
	var buf bytes.Buffer
	if err := writePostgresCopy(&buf, rows); err != nil {
		t.Fatalf("writePostgresCopy: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "COPY prices (") {
		t.Fatalf("missing COPY header: %q", out)
	}
	if !strings.HasSuffix(out, "\\.\n") {
		t.Fatalf("missing \\. terminator: %q", out)
	}
	if !strings.Contains(out, `u\t1`) || !strings.Contains(out, `p\n2`) {
		t.Fatalf("expected escaped tab/newline in output: %q", out)
	}
}

func TestFilterByDateKeepsOnlyMatchingDate(t *testing.T) {
	rows := []model.PriceRow{
		{UUID: "u1", Date: "2026-07-29"},
		{UUID: "u2", Date: "2026-07-30"},
	}
	got := filterByDate(rows, "2026-07-30")
	if len(got) != 1 || got[0].UUID != "u2" {
		t.Fatalf("got %+v, want only u2's row", got)
	}
}
