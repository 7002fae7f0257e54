// Package uuidgen derives the deterministic face UUIDs that are the
// linchpin of the whole compiler. Every downstream consumer relies on
// UUID stability, so the canonical byte string assembled here must never
// change shape without a version bump of the namespace itself.
package uuidgen

import (
	"strings"

	"github.com/google/uuid"
)

// Namespace is the fixed v5 namespace UUID all face UUIDs are derived
// under. Changing this value would silently reshuffle every UUID in the
// output, so it is a named constant, never computed.
var Namespace = uuid.MustParse("52463c7b-0c6e-4d1a-8e9a-d3b1b5f2d4a7")

const separator = "\x1f" // ASCII unit separator; never appears in card text

// FaceKey derives the deterministic v5 UUID for a card face from its
// canonical attributes. The order (scryfallID, side, name, faceName) and
// separator are byte-exact and must match across any reimplementation.
func FaceKey(scryfallID, side, name, faceName string) uuid.UUID {
	canonical := strings.Join([]string{scryfallID, side, name, faceName}, separator)
	return uuid.NewSHA1(Namespace, []byte(canonical))
}

// TrackingID returns a fresh v4 UUID used as the secondary identifier-
// tracking value computed in pipeline Stage 6. It is intentionally random:
// unlike FaceKey it carries no stability contract.
func TrackingID() uuid.UUID {
	return uuid.New()
}

// ForeignPrinting derives the stable UUID assigned to a non-English
// printing row produced by the set+number lookup.
func ForeignPrinting(scryfallID, side, name, faceName, language string) uuid.UUID {
	canonical := strings.Join([]string{scryfallID, side, name, faceName, language}, separator)
	return uuid.NewSHA1(Namespace, []byte(canonical))
}
