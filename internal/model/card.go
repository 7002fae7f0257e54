package model

// CardFace is the atomic unit of the card compilation pipeline: one row
// after face explosion. (setCode, collectorNumber, side) uniquely
// identifies a face within a set; UUID uniquely identifies it globally
// and is stable across rebuilds.
type CardFace struct {
	// Identity
	UUID      string  `json:"uuid"`
	Name      string  `json:"name"`
	ASCIIName *string `json:"asciiName,omitempty"`
	FaceName  *string `json:"faceName,omitempty"`
	OracleID  string  `json:"-"`
	Side      *string `json:"side,omitempty"`

	// Type line
	Type       string   `json:"type"`
	Types      []string `json:"types"`
	Subtypes   []string `json:"subtypes"`
	Supertypes []string `json:"supertypes"`

	// Colors — always W,U,B,R,G order, never alphabetic.
	Colors         []string `json:"colors"`
	ColorIdentity  []string `json:"colorIdentity"`
	ColorIndicator []string `json:"colorIndicator,omitempty"`
	ProducedMana   []string `json:"producedMana,omitempty"`

	// Mana
	ManaCost      *string `json:"manaCost,omitempty"`
	ManaValue     float64 `json:"manaValue"`
	FaceManaValue *float64 `json:"faceManaValue,omitempty"`

	// Text
	Text   *string `json:"text,omitempty"`
	Layout string  `json:"layout"`

	// Stats
	Power     *string `json:"power,omitempty"`
	Toughness *string `json:"toughness,omitempty"`
	Loyalty   *string `json:"loyalty,omitempty"`
	Defense   *string `json:"defense,omitempty"`

	// Printing
	SetCode         string  `json:"setCode"`
	Number          string  `json:"number"`
	Rarity          string  `json:"rarity"`
	Artist          *string `json:"artist,omitempty"`
	BorderColor     string  `json:"borderColor"`
	FrameVersion    string  `json:"frameVersion"`
	Watermark       *string `json:"watermark,omitempty"`
	Signature       *string `json:"signature,omitempty"`
	Language        string  `json:"language"`
	DuelDeck        *string `json:"duelDeck,omitempty"`

	// Flavor
	FlavorText     *string `json:"flavorText,omitempty"`
	FlavorName     *string `json:"flavorName,omitempty"`
	FaceFlavorName *string `json:"faceFlavorName,omitempty"`

	// Lists
	Availability        []string `json:"availability"`
	BoosterTypes        []string `json:"boosterTypes,omitempty"`
	Finishes            []string `json:"finishes"`
	FrameEffects        []string `json:"frameEffects,omitempty"`
	Keywords            []string `json:"keywords,omitempty"`
	Printings           []string `json:"printings,omitempty"`
	PromoTypes          []string `json:"promoTypes,omitempty"`
	Variations          []string `json:"variations,omitempty"`
	OtherFaceIDs        []string `json:"otherFaceIds,omitempty"`
	CardParts           []string `json:"cardParts,omitempty"`
	OriginalPrintings   []string `json:"originalPrintings,omitempty"`
	RebalancedPrintings []string `json:"rebalancedPrintings,omitempty"`
	Subsets             []string `json:"subsets,omitempty"`

	// Flags
	IsFullArt        *bool `json:"isFullArt,omitempty"`
	IsOnlineOnly     *bool `json:"isOnlineOnly,omitempty"`
	IsPromo          *bool `json:"isPromo,omitempty"`
	IsReprint        *bool `json:"isReprint,omitempty"`
	IsTextless       *bool `json:"isTextless,omitempty"`
	IsFunny          *bool `json:"isFunny,omitempty"`
	IsRebalanced     *bool `json:"isRebalanced,omitempty"`
	IsAlternative    *bool `json:"isAlternative,omitempty"`
	IsTimeshifted    *bool `json:"isTimeshifted,omitempty"`
	HasAlternativeDeckLimit *bool `json:"hasAlternativeDeckLimit,omitempty"`

	// EDHREC (propagated from the oracle lookup)
	EDHRECRank      *int     `json:"edhrecRank,omitempty"`
	EDHRECSaltiness *float64 `json:"edhrecSaltiness,omitempty"`

	// Nested sub-models
	IdentifiersData  Identifiers       `json:"identifiers"`
	LegalitiesData   Legalities        `json:"legalities"`
	PurchaseURLsData *PurchaseURLs     `json:"purchaseUrls,omitempty"`
	LeadershipSkills *LeadershipSkills `json:"leadershipSkills,omitempty"`
	RelatedCards     *RelatedCards     `json:"relatedCards,omitempty"`
	RulingsData      []Ruling          `json:"rulings,omitempty"`
	ForeignDataList  []ForeignData     `json:"foreignData,omitempty"`
	SourceProducts   *SourceProducts   `json:"sourceProducts,omitempty"`

	// TrackingID is the secondary v4 UUID computed at Stage 6 for
	// identifier-tracking purposes; never emitted in the wire format.
	TrackingID string `json:"-"`
}

// OracleCard is the rules-text identity shared across reprints, produced by the oracle lookup in the consolidator.
type OracleCard struct {
	OracleID        string   `json:"-"`
	Name            string   `json:"name"`
	EDHRECRank      *int     `json:"edhrecRank,omitempty"`
	EDHRECSaltiness *float64 `json:"edhrecSaltiness,omitempty"`
	Rulings         []Ruling `json:"rulings,omitempty"`
	Printings       []string `json:"printings,omitempty"`
}

// TokenFace is a token's card row, structurally similar to CardFace but
// without oracle-level aggregation fields.
type TokenFace struct {
	UUID           string   `json:"uuid"`
	Name           string   `json:"name"`
	ASCIIName      *string  `json:"asciiName,omitempty"`
	FaceName       *string  `json:"faceName,omitempty"`
	SetCode        string   `json:"setCode"`
	Number         string   `json:"number"`
	Type           string   `json:"type"`
	Types          []string `json:"types"`
	Subtypes       []string `json:"subtypes"`
	Supertypes     []string `json:"supertypes"`
	Colors         []string `json:"colors"`
	ColorIdentity  []string `json:"colorIdentity"`
	Power          *string  `json:"power,omitempty"`
	Toughness      *string  `json:"toughness,omitempty"`
	Text           *string  `json:"text,omitempty"`
	Layout         string   `json:"layout"`
	Artist         *string  `json:"artist,omitempty"`
	BorderColor    string   `json:"borderColor"`
	Finishes       []string `json:"finishes"`
	Keywords       []string `json:"keywords,omitempty"`
	OtherFaceIDs   []string `json:"otherFaceIds,omitempty"`
	ReverseRelated []string `json:"reverseRelated,omitempty"`
	Watermark      *string  `json:"watermark,omitempty"`
	Language       string   `json:"language"`

	IdentifiersData Identifiers     `json:"identifiers"`
	RelatedCards    *RelatedCards   `json:"relatedCards,omitempty"`
	SourceProducts  *SourceProducts `json:"sourceProducts,omitempty"`
}

// MeldTriplet is an ordered trio (partA, partB, result); result.Side == "b",
// parts have Side == "a".
type MeldTriplet struct {
	PartAName  string
	PartBName  string
	ResultName string
}
