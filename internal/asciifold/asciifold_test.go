package asciifold

import "testing"

func TestFoldAeligature(t *testing.T) {
	got := Fold("Æther Vial")
	if got == nil {
		t.Fatal("expected non-nil fold for Æther Vial")
	}
	if *got != "Aether Vial" {
		t.Fatalf("Fold = %q, want %q", *got, "Aether Vial")
	}
}

func TestFoldPureASCIIReturnsNil(t *testing.T) {
	if got := Fold("Lightning Bolt"); got != nil {
		t.Fatalf("expected nil for pure-ASCII name, got %q", *got)
	}
}

func TestIsASCII(t *testing.T) {
	if !IsASCII("Lightning Bolt") {
		t.Fatal("expected Lightning Bolt to be ASCII")
	}
	if IsASCII("Jötun Grunt") {
		t.Fatal("expected Jötun Grunt to not be ASCII")
	}
}
