package model

// SetList is set summary metadata, the shape used by the set-list writer.
type SetList struct {
	Code             string       `json:"code"`
	Name             string       `json:"name"`
	Type             string       `json:"type"`
	ReleaseDate      string       `json:"releaseDate"`
	BaseSetSize      int          `json:"baseSetSize"`
	TotalSetSize     int          `json:"totalSetSize"`
	KeyruneCode      string       `json:"keyruneCode"`
	Block            *string      `json:"block,omitempty"`
	ParentCode       *string      `json:"parentCode,omitempty"`
	MtgoCode         *string      `json:"mtgoCode,omitempty"`
	TokenSetCode     *string      `json:"tokenSetCode,omitempty"`
	TcgplayerGroupID *int         `json:"tcgplayerGroupId,omitempty"`
	IsFoilOnly       bool         `json:"isFoilOnly"`
	IsOnlineOnly     bool         `json:"isOnlineOnly"`
	IsPartialPreview *bool        `json:"isPartialPreview,omitempty"`
	Translations     Translations `json:"translations,omitempty"`
	Languages        []string     `json:"languages,omitempty"`
}

// Set is the full per-set object assembled in Stage D: metadata plus cards,
// tokens, booster config, decks, and sealed product.
type Set struct {
	SetList
	Cards         []CardFace      `json:"cards"`
	Tokens        []TokenFace     `json:"tokens"`
	Booster       map[string]BoosterConfig `json:"booster,omitempty"`
	Decks         []Deck          `json:"decks,omitempty"`
	SealedProduct []SealedProduct `json:"sealedProduct,omitempty"`
}

// BoosterConfig describes one booster-pack configuration for a set: a set
// of named sheets and the weighted list of sheet combinations that make up
// a pack.
type BoosterConfig struct {
	Boosters     []BoosterPackWeight `json:"boosters"`
	BoostersTotalWeight int          `json:"boostersTotalWeight"`
	Sheets       map[string]BoosterSheet `json:"sheets"`
}

// BoosterPackWeight is one weighted combination of sheet pick-counts.
type BoosterPackWeight struct {
	Contents map[string]int `json:"contents"`
	Weight   int            `json:"weight"`
}

// BoosterSheet is a named pool of cards (by UUID) with per-card weights.
type BoosterSheet struct {
	Cards          map[string]int `json:"cards"`
	Foil           bool           `json:"foil"`
	BalanceColors  bool           `json:"balanceColors,omitempty"`
	TotalWeight    int            `json:"totalWeight"`
}

// Deck is a named list of (uuid, count, finish) tuples grouped by board.
type Deck struct {
	Code               string        `json:"code"`
	Name               string        `json:"name"`
	Type               string        `json:"type"`
	ReleaseDate        *string       `json:"releaseDate,omitempty"`
	SealedProductUUIDs []string      `json:"sealedProductUuids,omitempty"`
	MainBoard          []DeckCard    `json:"mainBoard"`
	SideBoard          []DeckCard    `json:"sideBoard"`
	Commander          []DeckCard    `json:"commander,omitempty"`
	DisplayCommander   []DeckCard    `json:"displayCommander,omitempty"`
	TokensBoard        []DeckCard    `json:"tokens,omitempty"`
	Planes             []DeckCard    `json:"planes,omitempty"`
	Schemes            []DeckCard    `json:"schemes,omitempty"`
	SourceSetCodes     []string      `json:"sourceSetCodes,omitempty"`
}

// DeckCard is a minimal card reference inside a Deck board.
type DeckCard struct {
	UUID   string `json:"uuid"`
	Count  int    `json:"count"`
	Finish string `json:"finish"`
}

// SealedProduct is a purchasable box/pack/deck.
type SealedProduct struct {
	UUID     string                `json:"uuid"`
	Name     string                `json:"name"`
	Category string                `json:"category"`
	Subtype  *string               `json:"subtype,omitempty"`
	Contents *SealedProductContents `json:"contents,omitempty"`
	Identifiers Identifiers         `json:"identifiers"`
}

// SealedProductContents describes what is inside a sealed product: card
// lists, nested sub-packs, or variable pools.
type SealedProductContents struct {
	Card       []SealedCardContent `json:"card,omitempty"`
	Pack       []SealedPackContent `json:"pack,omitempty"`
	Deck       []SealedDeckContent `json:"deck,omitempty"`
	Sealed     []SealedSubProduct  `json:"sealed,omitempty"`
	Variable   []SealedVariablePool `json:"variable,omitempty"`
	Other      []SealedOtherContent `json:"other,omitempty"`
}

type SealedCardContent struct {
	UUID   string `json:"uuid"`
	Foil   bool   `json:"foil"`
	Name   string `json:"name,omitempty"`
	Number string `json:"number,omitempty"`
	Set    string `json:"set,omitempty"`
}

type SealedPackContent struct {
	Code string `json:"code"`
	Set  string `json:"set"`
}

type SealedDeckContent struct {
	Name string `json:"name"`
	Set  string `json:"set"`
}

type SealedSubProduct struct {
	Count int    `json:"count"`
	UUID  string `json:"uuid"`
	Name  string `json:"name,omitempty"`
}

type SealedVariablePool struct {
	Configs []SealedProductContents `json:"configs"`
}

type SealedOtherContent struct {
	Name string `json:"name"`
}
