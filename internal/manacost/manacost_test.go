package manacost

import (
	"reflect"
	"testing"
)

func TestValue(t *testing.T) {
	cases := []struct {
		cost string
		want float64
	}{
		{"", 0},
		{"{3}{W}{W}", 5},
		{"{X}{R}", 1},
		{"{2/W}", 2},
		{"{W/U}", 1},
		{"{1}{G/P}", 2},
		{"{½}", 0.5},
		{"{C}{C}", 2},
	}
	for _, c := range cases {
		if got := Value(c.cost); got != c.want {
			t.Errorf("Value(%q) = %v, want %v", c.cost, got, c.want)
		}
	}
}

func TestColorsSortedWUBRG(t *testing.T) {
	got := Colors("{R}{G}{W}")
	want := []string{"W", "R", "G"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Colors = %v, want %v", got, want)
	}
}

func TestColorsDedup(t *testing.T) {
	got := Colors("{W}{W}{W}")
	want := []string{"W"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Colors = %v, want %v", got, want)
	}
}

func TestUnion(t *testing.T) {
	got := Union([]string{"G"}, []string{"W", "U"}, nil)
	want := []string{"W", "U", "G"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Union = %v, want %v", got, want)
	}
}
