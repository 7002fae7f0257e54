package mtgjson

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/mtgjson/mtgjson/internal/model"
)

func writeSetFile(t *testing.T, dir, code string, set model.Set) {
	t.Helper()
	body := struct {
		Meta model.Meta `json:"meta"`
		Data model.Set  `json:"data"`
	}{Data: set}
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, code+".json"), raw, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadSetsFromOutputRoundTrips(t *testing.T) {
	root := t.TempDir()
	setsDir := filepath.Join(root, "sets")
	if err := os.MkdirAll(setsDir, 0o755); err != nil {
		t.Fatal(err)
	}
	writeSetFile(t, setsDir, "FIN", model.Set{
		SetList: model.SetList{Code: "FIN", Name: "Finality"},
		Cards:   []model.CardFace{{UUID: "u1", Name: "Test Card"}},
	})

	sets, err := loadSetsFromOutput(root)
	if err != nil {
		t.Fatalf("loadSetsFromOutput: %v", err)
	}
	if len(sets) != 1 {
		t.Fatalf("got %d sets, want 1", len(sets))
	}
	if sets[0].Code != "FIN" || len(sets[0].Cards) != 1 {
		t.Fatalf("unexpected set contents: %+v", sets[0])
	}
}

func TestStrHandlesByteSliceAndNil(t *testing.T) {
	if got := str([]byte("hello")); got != "hello" {
		t.Fatalf("got %q, want hello", got)
	}
	if got := str(nil); got != "" {
		t.Fatalf("got %q, want empty", got)
	}
	if got := str(42); got != "" {
		t.Fatalf("got %q, want empty for non-string type", got)
	}
}

func TestOptIntHandlesDuckDBNumericTypes(t *testing.T) {
	cases := []struct {
		in   any
		want int
	}{
		{int64(7), 7},
		{float64(9), 9},
		{nil, 0},
	}
	for _, c := range cases {
		if got := optInt(c.in); got != c.want {
			t.Fatalf("optInt(%v) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestStringListDecodesJSONEncodedColumn(t *testing.T) {
	got := stringList(`["en","de"]`)
	if len(got) != 2 || got[0] != "en" || got[1] != "de" {
		t.Fatalf("got %v, want [en de]", got)
	}
}
