package assembly

import (
	"encoding/json"
	"fmt"

	"github.com/mtgjson/mtgjson/internal/model"
)

// columnarCard is the normalized (non-nested) projection of a CardFace
// the columnar writer emits: struct/list-typed fields flatten to scalar
// or JSON-string columns so the file loads directly into a columnar
// engine without a nested-type reader.
type columnarCard struct {
	UUID      string  `json:"uuid"`
	Name      string  `json:"name"`
	SetCode   string  `json:"setCode"`
	Number    string  `json:"number"`
	Type      string  `json:"type"`
	ManaValue float64 `json:"manaValue"`
	Rarity    string  `json:"rarity"`
	Colors    string  `json:"colors"`   // JSON-encoded list
	Keywords  string  `json:"keywords"` // JSON-encoded list
}

// WriteColumnarNormalized writes AllPrintings.normalized.json: a flat
// array of columnarCard rows across every set, the shape a columnar
// engine's JSON reader (e.g. DuckDB's read_json_auto) loads without
// needing to unnest struct columns first.
func (w *Writer) WriteColumnarNormalized(sets []model.Set) error {
	path := w.path("AllPrintings.normalized.json")
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

	return writeAtomicJSON(path, rows)
}

func marshalList(list []string) (string, error) {
	if list == nil {
		return "[]", nil
	}
	b, err := json.Marshal(list)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
