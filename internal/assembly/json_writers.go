package assembly

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/mtgjson/mtgjson/internal/model"
)

// WriteAllPrintings writes the single combined file holding every set,
// keyed by set code — the full nested archive a consumer downloads once
// rather than fetching every per-set file individually. Never materializes
// the full map[string]model.Set in memory: each set is already fully
// assembled from the card pipeline by the time it reaches here, so this
// only needs to hold one set at a time while it streams the envelope out.
func (w *Writer) WriteAllPrintings(sets []model.Set) error {
	path := w.path("AllPrintings.json")
	skip, err := w.checkConflict(path)
	if err != nil {
		return err
	}
	if skip {
		return nil
	}

	meta := w.meta()
	return writeAtomicText(path, func(f *os.File) error {
		bw := bufio.NewWriter(f)

		metaJSON, err := json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("marshal meta: %w", err)
		}
		if _, err := fmt.Fprintf(bw, `{"meta":%s,"data":{`, metaJSON); err != nil {
			return err
		}

		for i, s := range sets {
			if i > 0 {
				if _, err := bw.WriteString(","); err != nil {
					return err
				}
			}
			codeJSON, err := json.Marshal(s.Code)
			if err != nil {
				return fmt.Errorf("marshal set code: %w", err)
			}
			setJSON, err := json.Marshal(s)
			if err != nil {
				return fmt.Errorf("marshal set %s: %w", s.Code, err)
			}
			if _, err := fmt.Fprintf(bw, "%s:%s", codeJSON, setJSON); err != nil {
				return err
			}
		}

		if _, err := bw.WriteString("}}"); err != nil {
			return err
		}
		return bw.Flush()
	})
}

// WriteAtomicCards writes AtomicCards.json: one entry per distinct card
// name, each holding every face across every printing of that name — the
// oracle-level view, as opposed to the per-printing view AllPrintings
// gives.
func (w *Writer) WriteAtomicCards(sets []model.Set) error {
	path := w.path("AtomicCards.json")
	skip, err := w.checkConflict(path)
	if err != nil {
		return err
	}
	if skip {
		return nil
	}

	byName := map[string][]model.CardFace{}
	for _, s := range sets {
		for _, c := range s.Cards {
			byName[c.Name] = append(byName[c.Name], c)
		}
	}

	body := struct {
		Meta model.Meta                    `json:"meta"`
		Data map[string][]model.CardFace   `json:"data"`
	}{Meta: w.meta(), Data: byName}

	return writeAtomicJSON(path, body)
}

// WriteSetList writes SetList.json: the lightweight per-set metadata
// summary (no cards/tokens), sorted by release date then code, the index
// a consumer scans before deciding which per-set file to fetch.
func (w *Writer) WriteSetList(sets []model.Set) error {
	path := w.path("SetList.json")
	skip, err := w.checkConflict(path)
	if err != nil {
		return err
	}
	if skip {
		return nil
	}

	list := make([]model.SetList, len(sets))
	for i, s := range sets {
		list[i] = s.SetList
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].ReleaseDate != list[j].ReleaseDate {
			return list[i].ReleaseDate < list[j].ReleaseDate
		}
		return list[i].Code < list[j].Code
	})

	body := struct {
		Meta model.Meta      `json:"meta"`
		Data []model.SetList `json:"data"`
	}{Meta: w.meta(), Data: list}

	if err := writeAtomicJSON(path, body); err != nil {
		return fmt.Errorf("write SetList: %w", err)
	}
	return nil
}
