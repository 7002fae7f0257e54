package assembly

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/mtgjson/mtgjson/internal/logging"
	"github.com/mtgjson/mtgjson/internal/model"
)

func sampleSets() []model.Set {
	return []model.Set{
		{
			SetList: model.SetList{Code: "FIN", Name: "Finality", ReleaseDate: "2025-09-26"},
			Cards: []model.CardFace{
				{UUID: "u1", Name: "Test Card", SetCode: "FIN", Number: "1", Type: "Creature", Colors: []string{"B", "G"}},
			},
		},
	}
}

func TestWriteAllPrintingsProducesCombinedFile(t *testing.T) {
	dir := t.TempDir()
	w := New(dir, 4, false, logging.NewNop(), "5.2.2", "2026-07-31")

	if err := w.WriteAllPrintings(sampleSets()); err != nil {
		t.Fatalf("WriteAllPrintings: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "AllPrintings.json"))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var parsed struct {
		Meta model.Meta                 `json:"meta"`
		Data map[string]model.Set       `json:"data"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		t.Fatalf("unmarshal output: %v", err)
	}
	if _, ok := parsed.Data["FIN"]; !ok {
		t.Fatalf("expected set FIN in combined output, got %v", parsed.Data)
	}
	if parsed.Meta.Date != "2026-07-31" {
		t.Fatalf("got meta date %q, want 2026-07-31", parsed.Meta.Date)
	}
}

func TestWriteSetFilesRespectsResumeSkip(t *testing.T) {
	dir := t.TempDir()
	w := New(dir, 4, true, logging.NewNop(), "5.2.2", "2026-07-31")

	setsPath := filepath.Join(dir, "sets")
	if err := os.MkdirAll(setsPath, 0o755); err != nil {
		t.Fatal(err)
	}
	existing := filepath.Join(setsPath, "FIN.json")
	if err := os.WriteFile(existing, []byte("PRE-EXISTING"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := w.WriteSetFiles(context.Background(), sampleSets()); err != nil {
		t.Fatalf("WriteSetFiles: %v", err)
	}

	raw, err := os.ReadFile(existing)
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != "PRE-EXISTING" {
		t.Fatalf("resume mode should have skipped rewriting the existing file, got %q", raw)
	}
}

func TestWriteSetFilesFailsOnConflictWithoutResume(t *testing.T) {
	dir := t.TempDir()
	w := New(dir, 4, false, logging.NewNop(), "5.2.2", "2026-07-31")

	setsPath := filepath.Join(dir, "sets")
	if err := os.MkdirAll(setsPath, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(setsPath, "FIN.json"), []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := w.WriteSetFiles(context.Background(), sampleSets())
	if err == nil {
		t.Fatal("expected a write conflict error without resume mode")
	}
}

func TestWriteCSVIncludesEveryCard(t *testing.T) {
	dir := t.TempDir()
	w := New(dir, 4, false, logging.NewNop(), "5.2.2", "2026-07-31")

	if err := w.WriteCSV(sampleSets()); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	raw, err := os.ReadFile(filepath.Join(dir, "AllPrintings.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if len(raw) == 0 {
		t.Fatal("expected non-empty CSV output")
	}
}
