package pipeline

import (
	"reflect"
	"testing"
)

func TestComputeColorIdentityUnionsManaCostAndText(t *testing.T) {
	rows := []map[string]any{
		{
			"scryfall_id": "s1",
			"uuid":        "u1",
			"colors":      []string{"U"},
			"mana_cost":   "{1}{U}",
			"text":        "{T}: Add {R}.",
			"name":        "Test Card",
		},
	}
	computeRelationships(rows)

	got := rows[0]["color_identity"]
	want := []string{"U", "R"}
	if !reflect.DeepEqual(toStrings(got), want) {
		t.Fatalf("color_identity = %v, want colors U and R in WUBRG order", got)
	}
}

func TestComputeColorIdentitySpansBothFacesOfSourceCard(t *testing.T) {
	rows := []map[string]any{
		{"scryfall_id": "dfc1", "uuid": "front", "colors": []string{"W"}, "mana_cost": "{1}{W}", "name": "Front Face"},
		{"scryfall_id": "dfc1", "uuid": "back", "colors": []string{"B"}, "mana_cost": "{B}", "name": "Back Face"},
	}
	computeRelationships(rows)

	for _, row := range rows {
		got := toStrings(row["color_identity"])
		want := []string{"W", "B"}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("uuid %v: color_identity = %v, want both faces' colors %v", row["uuid"], got, want)
		}
		if row["other_face_ids"] == nil {
			t.Fatalf("uuid %v: expected other_face_ids to be set for a multi-face source card", row["uuid"])
		}
	}
}

func TestComputeColorIdentityColorlessStaysEmpty(t *testing.T) {
	rows := []map[string]any{
		{"scryfall_id": "s2", "uuid": "u2", "colors": []string{}, "mana_cost": "{3}", "text": "Artifact creature.", "name": "Colorless Thing"},
	}
	computeRelationships(rows)

	got := toStrings(rows[0]["color_identity"])
	if len(got) != 0 {
		t.Fatalf("color_identity = %v, want empty for a colorless card with no colored pips", got)
	}
}

func toStrings(v any) []string {
	if v == nil {
		return nil
	}
	if s, ok := v.([]string); ok {
		return s
	}
	return nil
}
