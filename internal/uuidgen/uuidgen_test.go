package uuidgen

import "testing"

func TestFaceKeyIsStable(t *testing.T) {
	a := FaceKey("sf-id-1", "a", "Delver of Secrets", "")
	b := FaceKey("sf-id-1", "a", "Delver of Secrets", "")
	if a != b {
		t.Fatalf("FaceKey is not deterministic: %s != %s", a, b)
	}
}

func TestFaceKeyDiffersBySide(t *testing.T) {
	a := FaceKey("sf-id-1", "a", "Delver of Secrets", "")
	b := FaceKey("sf-id-1", "b", "Insectile Aberration", "")
	if a == b {
		t.Fatalf("expected different UUIDs for different sides, got %s for both", a)
	}
}

func TestFaceKeyIsVersion5(t *testing.T) {
	id := FaceKey("sf-id-1", "a", "Lightning Bolt", "")
	if id.Version().String() != "VERSION_5" {
		t.Fatalf("expected v5 UUID, got version %s", id.Version())
	}
}

func TestTrackingIDIsRandomEachCall(t *testing.T) {
	a := TrackingID()
	b := TrackingID()
	if a == b {
		t.Fatalf("expected two distinct tracking IDs, got the same value twice: %s", a)
	}
}
