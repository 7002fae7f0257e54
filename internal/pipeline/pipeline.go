// Package pipeline implements the Card Compilation Pipeline: a 13-stage, 4-checkpoint transform from raw card-bulk rows to
// per-set partitioned card and token faces. It consumes the Source Cache
// (internal/cache) and Lookup Consolidator (internal/lookup) and produces
// the []model.CardFace / []model.TokenFace slices the assembly writers
// (internal/assembly) compose into per-set output objects.
//
// One call to BuildSet processes exactly one requested set code end to
// end. A build orchestrator runs BuildSet concurrently across a bounded
// pool of set writers; within a single
// BuildSet call the 13 stages run strictly sequentially, since each
// depends on the previous stage's checkpoint.
package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mtgjson/mtgjson/internal/cache"
	"github.com/mtgjson/mtgjson/internal/frame"
	"github.com/mtgjson/mtgjson/internal/lookup"
	"github.com/mtgjson/mtgjson/internal/model"
)

// Result is one set's worth of compiled output, ready for
// internal/assembly to compose into the per-set object.
type Result struct {
	SetCode string
	Cards   []model.CardFace
	Tokens  []model.TokenFace
}

// Engine holds the shared, write-once resources every BuildSet call reads
// from: the DuckDB connection, the materialized Source Cache, and the
// consolidated Lookup Set. It carries no per-set mutable state, so one
// Engine is safely shared by every concurrent set-writer goroutine
//.
type Engine struct {
	Conn   *frame.Conn
	Cache  *cache.Cache
	Lookup *lookup.Set
	Log    *zap.SugaredLogger
}

// New builds an Engine over an already-loaded cache and consolidated
// lookup set.
func New(conn *frame.Conn, c *cache.Cache, lk *lookup.Set, log *zap.SugaredLogger) *Engine {
	return &Engine{Conn: conn, Cache: c, Lookup: lk, Log: log}
}

// BuildSet runs the full 13-stage pipeline for a single set code.
func (e *Engine) BuildSet(ctx context.Context, setCode string) (*Result, error) {
	// Stage 1: Load + filter. Card bulk is filtered down to this set
	// before any join runs stage 1 — a Frame.Filter
	// keeps this lazy instead of scanning the whole multi-GB bulk.
	bulk, err := e.Cache.Frame(ctx, cache.SourceCardBulk)
	if err != nil {
		return nil, fmt.Errorf("pipeline %s: load card bulk: %w", setCode, err)
	}
	filtered := bulk.Filter(fmt.Sprintf("set_code = %s", quote(setCode))).
		WithColumn("has_english_oracle", "bool_or(language = 'English') OVER (PARTITION BY oracle_id)").
		Filter("(language = 'English') OR NOT has_english_oracle OR oracle_id IS NULL")

	rawRows, err := filtered.Collect()
	if err != nil {
		return nil, fmt.Errorf("pipeline %s: stage 1 collect: %w", setCode, err)
	}
	if len(rawRows) == 0 {
		e.Log.Warnw("no card bulk rows for requested set", "setCode", setCode)
	}

	// Stage 2: Per-face transforms. Explodes multi-faced rows, assigns
	// meld sides, parses the type line, computes mana value/colors/
	// finishes/ASCII name, builds the legalities and availability
	// structs. Runs in Go over this set's bounded row count rather than
	// as a single SQL expression — per-face mana-value/colors parsing
	// reuses the pure functions in internal/manacost exactly as a
	// columnar projection would, just applied set-at-a-time instead of
	// compiled into one SQL plan.
	faceRows := transformFaces(rawRows)

	facesFrame, err := e.Conn.FromRows(faceRows)
	if err != nil {
		return nil, fmt.Errorf("pipeline %s: stage 2 materialize: %w", setCode, err)
	}

	// Checkpoint 1: resets the plan after the
	// per-face explosion, which fans every multi-faced card bulk row out
	// into 2+ rows and would otherwise carry the whole per-face CASE
	// expression history into the next join group.
	ckpt1, err := facesFrame.Checkpoint("stage2_faces")
	if err != nil {
		return nil, fmt.Errorf("pipeline %s: checkpoint 1: %w", setCode, err)
	}
	defer ckpt1.Drop()

	// Stage 4: Multi-row joins. Joins identifiers, oracle, set+number,
	// by-name, and marketplace-identifier lookups; augments availability
	// using ID presence.
	joined := e.joinLookups(ckpt1)

	// Checkpoint 2: resets after 5 lookup joins in
	// one group (identifiers, oracle, set+number, by-name, marketplace set
	// map), above the ">3 new joins" checkpoint-policy threshold.
	ckpt2, err := joined.Checkpoint("stage4_joins")
	if err != nil {
		return nil, fmt.Errorf("pipeline %s: checkpoint 2: %w", setCode, err)
	}
	defer ckpt2.Drop()

	joinedRows, err := ckpt2.Collect()
	if err != nil {
		return nil, fmt.Errorf("pipeline %s: collect after checkpoint 2: %w", setCode, err)
	}

	// Stage 6: Struct assembly + UUIDs. Packs per-face identifiers into a
	// nested struct and assigns the deterministic v5 UUID plus a
	// secondary v4 tracking ID. assignUUIDs reuses a cached_uuid column
	// when a row has one, but the identifiers lookup does not supply that
	// column, so every face gets its derived v5 UUID. UUID derivation calls google/uuid, which
	// has no DuckDB-builtin equivalent, so this stage always runs in Go.
	assembledRows := assignUUIDs(joinedRows)

	assembledFrame, err := e.Conn.FromRows(assembledRows)
	if err != nil {
		return nil, fmt.Errorf("pipeline %s: stage 6 materialize: %w", setCode, err)
	}

	// Stage 7: Derived fields. Joins duel-deck side (already present on
	// the set+number lookup) and official-database page IDs.
	derived := assembledFrame.Join(e.Lookup.FaceFlavorNames, frame.JoinLeft,
		`l.scryfall_id = r.scryfall_id AND
		 CASE l.side WHEN 'a' THEN 0 WHEN 'b' THEN 1 WHEN 'c' THEN 2 WHEN 'd' THEN 3 ELSE 4 END = r.face_index`,
		"l", "r").
		Select("l.*", "r.flavor_name AS face_flavor_name")

	// Checkpoint 3: resets after UUID struct
	// assembly and the page-ID join.
	ckpt3, err := derived.Checkpoint("stage7_derived")
	if err != nil {
		return nil, fmt.Errorf("pipeline %s: checkpoint 3: %w", setCode, err)
	}
	defer ckpt3.Drop()

	derivedRows, err := ckpt3.Collect()
	if err != nil {
		return nil, fmt.Errorf("pipeline %s: collect after checkpoint 3: %w", setCode, err)
	}

	// Stage 9: Relationship ops (self-joins). otherFaceIds, tokenIds,
	// reverseRelated, salt propagation, alternative-deck-limit, color
	// identity. isFunny and isTimeshifted are already set in stage 2; no
	// stage builds the purchase-URLs struct. Self-joins within one set's row count
	// are cheap enough to do with Go-side grouping rather than a SQL
	// self-join, and this is exactly the case the checkpoint-policy rule
	// ("any self-join" forces a checkpoint) exists to protect against —
	// it is cheaper here because we moved the self-join out of the
	// planner entirely.
	relatedRows := computeRelationships(derivedRows)

	relatedFrame, err := e.Conn.FromRows(relatedRows)
	if err != nil {
		return nil, fmt.Errorf("pipeline %s: stage 9 materialize: %w", setCode, err)
	}

	// Checkpoint 4: resets after the self-join
	// relationship ops, the single most expensive join group in the
	// whole pipeline.
	ckpt4, err := relatedFrame.Checkpoint("stage9_related")
	if err != nil {
		return nil, fmt.Errorf("pipeline %s: checkpoint 4: %w", setCode, err)
	}
	defer ckpt4.Drop()

	relatedCollected, err := ckpt4.Collect()
	if err != nil {
		return nil, fmt.Errorf("pipeline %s: collect after checkpoint 4: %w", setCode, err)
	}

	// Stage 11: Final enrichment. Manual overrides, rebalanced<->original
	// linkage, Secret Lair subset tags, sourceProducts back-reference.
	enriched, err := e.applyFinalEnrichment(ctx, relatedCollected)
	if err != nil {
		return nil, fmt.Errorf("pipeline %s: stage 11: %w", setCode, err)
	}

	// Stage 12: Signatures + cleanup. Joins signatures, drops raw
	// upstream columns, renames to the output schema.
	signed, err := e.joinSignatures(ctx, enriched)
	if err != nil {
		return nil, fmt.Errorf("pipeline %s: stage 12: %w", setCode, err)
	}

	// Stage 13: Sink. Deduplicates to the default language per face,
	// computes variations, splits card-type rows from token-type rows.
	// Foil/non-foil twins collapse to one row in the dedupe; they are not
	// linked to each other.
	cards, tokens := sinkRows(signed)

	return &Result{SetCode: setCode, Cards: cards, Tokens: tokens}, nil
}

func quote(s string) string {
	return "'" + escapeQuote(s) + "'"
}

func escapeQuote(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\'' {
			out = append(out, '\'', '\'')
			continue
		}
		out = append(out, s[i])
	}
	return string(out)
}
