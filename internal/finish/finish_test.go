package finish

import (
	"reflect"
	"testing"
)

func TestSortOrdersNonfoilFoilEtched(t *testing.T) {
	in := []string{"etched", "nonfoil", "foil"}
	got := Sort(in)
	want := []string{"nonfoil", "foil", "etched"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Sort = %v, want %v", got, want)
	}
}

func TestSortNeverAlphabetic(t *testing.T) {
	// Alphabetic order would be etched, foil, nonfoil — assert we differ.
	in := []string{"foil", "etched", "nonfoil"}
	got := Sort(in)
	alphabetic := []string{"etched", "foil", "nonfoil"}
	if reflect.DeepEqual(got, alphabetic) {
		t.Fatalf("Sort produced alphabetic order %v, want ordinal order", got)
	}
}

func TestLess(t *testing.T) {
	if !Less("nonfoil", "foil") {
		t.Fatal("expected nonfoil < foil")
	}
	if Less("etched", "foil") {
		t.Fatal("expected etched to not sort before foil")
	}
}
