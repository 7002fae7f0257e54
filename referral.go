package mtgjson

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mtgjson/mtgjson/internal/referral"
)

// BuildReferralMap reads the most recent build's output (the same
// per-set files an offline rebuild reads) and derives the flat
// hash-keyed purchase-URL redirect map, writing it to
// outputRoot/ReferralMap.json.
func BuildReferralMap(outputRoot string) (map[string]string, error) {
	sets, err := loadSetsFromOutput(outputRoot)
	if err != nil {
		return nil, fmt.Errorf("mtgjson: load sets for referral map: %w", err)
	}

	var links []referral.Link
	for _, set := range sets {
		for _, c := range set.Cards {
			if c.PurchaseURLsData == nil {
				continue
			}
			p := c.PurchaseURLsData
			ids := c.IdentifiersData
			if p.Tcgplayer != nil && ids.TcgplayerProductID != nil {
				links = append(links, referral.TCGPlayerLink(*ids.TcgplayerProductID, c.UUID, *p.Tcgplayer))
			}
			if p.TcgplayerEtched != nil && ids.TcgplayerEtchedProductID != nil {
				links = append(links, referral.TCGPlayerLink(*ids.TcgplayerEtchedProductID, c.UUID, *p.TcgplayerEtched))
			}
			if p.CardKingdom != nil && ids.CardKingdomID != nil {
				links = append(links, referral.CardKingdomLink(*ids.CardKingdomID, c.UUID, *p.CardKingdom))
			}
			if p.CardKingdomFoil != nil && ids.CardKingdomFoilID != nil {
				links = append(links, referral.CardKingdomLink(*ids.CardKingdomFoilID, c.UUID, *p.CardKingdomFoil))
			}
			if p.CardKingdomEtched != nil && ids.CardKingdomEtchedID != nil {
				links = append(links, referral.CardKingdomLink(*ids.CardKingdomEtchedID, c.UUID, *p.CardKingdomEtched))
			}
			if p.Cardmarket != nil && ids.McmID != nil {
				links = append(links, referral.CardmarketLink(*ids.McmID, c.UUID, "nonfoil", *p.Cardmarket))
			}
		}
	}

	m := referral.BuildMap(links)
	if err := writeReferralMapFile(outputRoot, m); err != nil {
		return nil, err
	}
	return m, nil
}

func writeReferralMapFile(outputRoot string, m map[string]string) error {
	if err := os.MkdirAll(outputRoot, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", outputRoot, err)
	}
	path := filepath.Join(outputRoot, "ReferralMap.json")
	tmp, err := os.CreateTemp(outputRoot, ".tmp-referral-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		tmp.Close()
		return fmt.Errorf("encode referral map: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename into %s: %w", path, err)
	}
	return nil
}
