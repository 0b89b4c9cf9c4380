package cards

import (
	"strings"
	"time"
)

// Card types as issued by the catalogue.
const (
	TypeMainDeck          = "MainDeckCard"
	TypeSingleCompetitor  = "SingleCompetitorCard"
	TypeTornadoCompetitor = "TornadoCompetitorCard"
	TypeTrioCompetitor    = "TrioCompetitorCard"
	TypeEntrance          = "EntranceCard"
	TypeSpectacle         = "SpectacleCard"
	TypeCrowdMeter        = "CrowdMeterCard"
)

// Card is an immutable catalogue entry synced from get-diced.com.
// Competitor and main deck fields are nil for card types that don't carry them.
type Card struct {
	UUID       string   `json:"db_uuid"`
	Name       string   `json:"name"`
	CardType   string   `json:"card_type"`
	RulesText  string   `json:"rules_text,omitempty"`
	ErrataText string   `json:"errata_text,omitempty"`
	IsBanned   bool     `json:"is_banned"`
	ReleaseSet string   `json:"release_set,omitempty"`
	SRGURL     string   `json:"srg_url,omitempty"`
	SRGPCURL   string   `json:"srgpc_url,omitempty"`
	Comments   string   `json:"comments,omitempty"`
	Tags       []string `json:"tags,omitempty"`

	Power      *int   `json:"power,omitempty"`
	Agility    *int   `json:"agility,omitempty"`
	Strike     *int   `json:"strike,omitempty"`
	Submission *int   `json:"submission,omitempty"`
	Grapple    *int   `json:"grapple,omitempty"`
	Technique  *int   `json:"technique,omitempty"`
	Division   string `json:"division,omitempty"`
	Gender     string `json:"gender,omitempty"`

	DeckCardNumber *int   `json:"deck_card_number,omitempty"`
	AtkType        string `json:"atk_type,omitempty"`
	PlayOrder      string `json:"play_order,omitempty"`

	SyncedAt time.Time `json:"synced_at"`
}

func (c Card) IsCompetitor() bool {
	return strings.Contains(c.CardType, "Competitor")
}

func (c Card) IsMainDeck() bool {
	return c.CardType == TypeMainDeck
}

func (c Card) IsEntrance() bool {
	return c.CardType == TypeEntrance
}

// ShortType drops the trailing "Card" from the card type, e.g. "MainDeck".
func (c Card) ShortType() string {
	return strings.Replace(c.CardType, "Card", "", 1)
}

// JoinTags renders tags the way they are stored: comma separated.
func JoinTags(tags []string) string {
	return strings.Join(tags, ",")
}

// SplitTags is the inverse of JoinTags. Empty input yields nil.
func SplitTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// WithQuantity is a card held in a folder.
type WithQuantity struct {
	Card     Card      `json:"card"`
	Quantity int       `json:"quantity"`
	AddedAt  time.Time `json:"added_at"`
}
