package mtgjson

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/mtgjson/mtgjson/internal/model"
)

func strPtr(s string) *string { return &s }

func TestBuildReferralMapDerivesHashPerKnownPurchaseURL(t *testing.T) {
	root := t.TempDir()
	setsDir := filepath.Join(root, "sets")
	if err := os.MkdirAll(setsDir, 0o755); err != nil {
		t.Fatal(err)
	}

	set := model.Set{
		SetList: model.SetList{Code: "FIN"},
		Cards: []model.CardFace{
			{
				UUID: "u1",
				IdentifiersData: model.Identifiers{
					TcgplayerProductID: strPtr("12345"),
					CardKingdomID:      strPtr("99"),
				},
				PurchaseURLsData: &model.PurchaseURLs{
					Tcgplayer:   strPtr("https://tcgplayer.example/12345"),
					CardKingdom: strPtr("https://cardkingdom.example/99"),
				},
			},
			{UUID: "u2"}, // no purchase URLs: contributes nothing
		},
	}
	body := struct {
		Meta model.Meta `json:"meta"`
		Data model.Set  `json:"data"`
	}{Data: set}
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(setsDir, "FIN.json"), raw, 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := BuildReferralMap(root)
	if err != nil {
		t.Fatalf("BuildReferralMap: %v", err)
	}
	if len(m) != 2 {
		t.Fatalf("got %d links, want 2: %v", len(m), m)
	}

	if _, err := os.Stat(filepath.Join(root, "ReferralMap.json")); err != nil {
		t.Fatalf("expected ReferralMap.json to be written: %v", err)
	}
}
