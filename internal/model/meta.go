// Package model holds the wire-format structs emitted by the assembly
// writers (internal/assembly) and consumed internally by the pipeline and
// price engine. Field names and JSON tags follow the canonical MTGJSON
// output schema, including key ordering.
package model

// Meta is the top-level envelope written as the "meta" key of every output
// file. Meta must precede data in every JSON file, which is why writers
// never route through a generic alphabetic-key marshaler for the
// top-level object.
type Meta struct {
	Date    string `json:"date"`
	Version string `json:"version"`
}

// Identifiers is the per-face bundle of external marketplace/database IDs.
type Identifiers struct {
	CardKingdomEtchedID      *string `json:"cardKingdomEtchedId,omitempty"`
	CardKingdomFoilID        *string `json:"cardKingdomFoilId,omitempty"`
	CardKingdomID            *string `json:"cardKingdomId,omitempty"`
	CardsphereID             *string `json:"cardsphereId,omitempty"`
	McmID                    *string `json:"mcmId,omitempty"`
	McmMetaID                *string `json:"mcmMetaId,omitempty"`
	MtgArenaID               *string `json:"mtgArenaId,omitempty"`
	MtgoFoilID               *string `json:"mtgoFoilId,omitempty"`
	MtgoID                   *string `json:"mtgoId,omitempty"`
	MultiverseID             *string `json:"multiverseId,omitempty"`
	ScryfallID               *string `json:"scryfallId,omitempty"`
	ScryfallOracleID         *string `json:"scryfallOracleId,omitempty"`
	ScryfallIllustrationID   *string `json:"scryfallIllustrationId,omitempty"`
	ScryfallCardBackID       *string `json:"scryfallCardBackId,omitempty"`
	TcgplayerProductID       *string `json:"tcgplayerProductId,omitempty"`
	TcgplayerEtchedProductID *string `json:"tcgplayerEtchedProductId,omitempty"`
}

// Legalities holds per-format legality strings ("legal", "banned",
// "restricted"). Absent formats are omitted, never emitted as "".
type Legalities struct {
	Alchemy         *string `json:"alchemy,omitempty"`
	Brawl           *string `json:"brawl,omitempty"`
	Commander       *string `json:"commander,omitempty"`
	Duel            *string `json:"duel,omitempty"`
	Explorer        *string `json:"explorer,omitempty"`
	Future          *string `json:"future,omitempty"`
	Gladiator       *string `json:"gladiator,omitempty"`
	Historic        *string `json:"historic,omitempty"`
	HistoricBrawl   *string `json:"historicBrawl,omitempty"`
	Legacy          *string `json:"legacy,omitempty"`
	Modern          *string `json:"modern,omitempty"`
	Oathbreaker     *string `json:"oathbreaker,omitempty"`
	Oldschool       *string `json:"oldschool,omitempty"`
	Pauper          *string `json:"pauper,omitempty"`
	PauperCommander *string `json:"pauperCommander,omitempty"`
	Penny           *string `json:"penny,omitempty"`
	Pioneer         *string `json:"pioneer,omitempty"`
	Predh           *string `json:"predh,omitempty"`
	Premodern       *string `json:"premodern,omitempty"`
	Standard        *string `json:"standard,omitempty"`
	Timeless        *string `json:"timeless,omitempty"`
	Vintage         *string `json:"vintage,omitempty"`
}

// LeadershipSkills flags commander/oathbreaker eligibility, joined from the
// by-name lookup.
type LeadershipSkills struct {
	Brawl       bool `json:"brawl"`
	Commander   bool `json:"commander"`
	Oathbreaker bool `json:"oathbreaker"`
}

// PurchaseURLs is absent entirely (a nil *PurchaseURLs on CardFace), not an
// empty struct, when a face has no known purchase links.
type PurchaseURLs struct {
	CardKingdom       *string `json:"cardKingdom,omitempty"`
	CardKingdomEtched *string `json:"cardKingdomEtched,omitempty"`
	CardKingdomFoil   *string `json:"cardKingdomFoil,omitempty"`
	Cardmarket        *string `json:"cardmarket,omitempty"`
	Tcgplayer         *string `json:"tcgplayer,omitempty"`
	TcgplayerEtched   *string `json:"tcgplayerEtched,omitempty"`
}

// RelatedCards carries the reverseRelated/tokens/spellbook edges computed
// in pipeline Stage 9.
type RelatedCards struct {
	ReverseRelated []string `json:"reverseRelated,omitempty"`
	Spellbook      []string `json:"spellbook,omitempty"`
	Tokens         []string `json:"tokens,omitempty"`
}

// Ruling is a single (date, text) tuple attached to an oracle card.
type Ruling struct {
	Date string `json:"date"`
	Text string `json:"text"`
}

// ForeignData is a localized child row of a face, keyed by language.
type ForeignData struct {
	FaceName   *string `json:"faceName,omitempty"`
	FlavorText *string `json:"flavorText,omitempty"`
	Language   string  `json:"language"`
	Name       string  `json:"name"`
	Text       *string `json:"text,omitempty"`
	Type       *string `json:"type,omitempty"`
	MultiverseID *int  `json:"multiverseId,omitempty"`
}

// SourceProducts groups the sealed-product UUIDs that contain a face, one
// list per finish.
type SourceProducts struct {
	Etched  []string `json:"etched,omitempty"`
	Foil    []string `json:"foil,omitempty"`
	Nonfoil []string `json:"nonfoil,omitempty"`
}

// Translations maps language name to a translated set name; nil entries
// mean the set has no official translation in that language.
type Translations map[string]*string
