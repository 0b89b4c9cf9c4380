package getdiced

import (
	"time"

	"github.com/youruser/srginventory/internal/cards"
)

// Shared list types.
const (
	ListTypeCollection = "COLLECTION"
	ListTypeDeck       = "DECK"
)

// PaginatedCardResponse is one page of GET cards.
type PaginatedCardResponse struct {
	TotalCount int       `json:"total_count"`
	Items      []CardDTO `json:"items"`
}

// CardDTO is a card as served by get-diced.com.
type CardDTO struct {
	UUID       string   `json:"db_uuid"`
	Name       string   `json:"name"`
	CardType   string   `json:"card_type"`
	RulesText  *string  `json:"rules_text,omitempty"`
	ErrataText *string  `json:"errata_text,omitempty"`
	IsBanned   bool     `json:"is_banned"`
	ReleaseSet *string  `json:"release_set,omitempty"`
	SRGURL     *string  `json:"srg_url,omitempty"`
	SRGPCURL   *string  `json:"srgpc_url,omitempty"`
	Comments   *string  `json:"comments,omitempty"`
	Tags       []string `json:"tags,omitempty"`

	Power      *int    `json:"power,omitempty"`
	Agility    *int    `json:"agility,omitempty"`
	Strike     *int    `json:"strike,omitempty"`
	Submission *int    `json:"submission,omitempty"`
	Grapple    *int    `json:"grapple,omitempty"`
	Technique  *int    `json:"technique,omitempty"`
	Division   *string `json:"division,omitempty"`
	Gender     *string `json:"gender,omitempty"`

	DeckCardNumber *int    `json:"deck_card_number,omitempty"`
	AtkType        *string `json:"atk_type,omitempty"`
	PlayOrder      *string `json:"play_order,omitempty"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ToCard maps the wire shape onto the catalogue type, stamped with syncedAt.
func (d CardDTO) ToCard(syncedAt time.Time) cards.Card {
	return cards.Card{
		UUID:           d.UUID,
		Name:           d.Name,
		CardType:       d.CardType,
		RulesText:      deref(d.RulesText),
		ErrataText:     deref(d.ErrataText),
		IsBanned:       d.IsBanned,
		ReleaseSet:     deref(d.ReleaseSet),
		SRGURL:         deref(d.SRGURL),
		SRGPCURL:       deref(d.SRGPCURL),
		Comments:       deref(d.Comments),
		Tags:           d.Tags,
		Power:          d.Power,
		Agility:        d.Agility,
		Strike:         d.Strike,
		Submission:     d.Submission,
		Grapple:        d.Grapple,
		Technique:      d.Technique,
		Division:       deref(d.Division),
		Gender:         deref(d.Gender),
		DeckCardNumber: d.DeckCardNumber,
		AtkType:        deref(d.AtkType),
		PlayOrder:      deref(d.PlayOrder),
		SyncedAt:       syncedAt,
	}
}

// ToCards maps a page of DTOs.
func ToCards(dtos []CardDTO, syncedAt time.Time) []cards.Card {
	out := make([]cards.Card, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, d.ToCard(syncedAt))
	}
	return out
}

type CardBatchRequest struct {
	UUIDs []string `json:"uuids"`
}

// CardBatchResponse lists the cards found and the uuids the server does not know.
type CardBatchResponse struct {
	Rows    []CardDTO `json:"rows"`
	Missing []string  `json:"missing"`
}

// DeckSlot is a slot inside shared deck data.
type DeckSlot struct {
	SlotType   string `json:"slot_type"`
	SlotNumber int    `json:"slot_number"`
	CardUUID   string `json:"card_uuid"`
}

type DeckData struct {
	SpectacleType string     `json:"spectacle_type"`
	Slots         []DeckSlot `json:"slots"`
}

type SharedListRequest struct {
	Name        string    `json:"name,omitempty"`
	Description string    `json:"description,omitempty"`
	CardUUIDs   []string  `json:"card_uuids"`
	ListType    string    `json:"list_type"`
	DeckData    *DeckData `json:"deck_data,omitempty"`
}

type SharedList struct {
	ID          string    `json:"id"`
	Name        string    `json:"name,omitempty"`
	Description string    `json:"description,omitempty"`
	CardUUIDs   []string  `json:"card_uuids"`
	ListType    string    `json:"list_type"`
	DeckData    *DeckData `json:"deck_data,omitempty"`
	CreatedAt   string    `json:"created_at,omitempty"`
}

// SharedListCreated is the reply to creating a list. URL is relative to the
// service base URL.
type SharedListCreated struct {
	ID      string `json:"id"`
	URL     string `json:"url"`
	Message string `json:"message"`
}

// CardsManifest describes the downloadable catalogue database.
type CardsManifest struct {
	Version              int    `json:"version"`
	Generated            string `json:"generated"`
	Filename             string `json:"filename"`
	Hash                 string `json:"hash"`
	SizeBytes            int64  `json:"size_bytes"`
	CardCount            int    `json:"card_count"`
	RelatedFinishesCount int    `json:"related_finishes_count"`
	RelatedCardsCount    int    `json:"related_cards_count"`
}

type ImageInfo struct {
	Path string `json:"path"`
	Hash string `json:"hash"`
}

// ImageManifest maps card uuid to its mobile image.
type ImageManifest struct {
	Version    int                  `json:"version"`
	Generated  string               `json:"generated"`
	ImageCount int                  `json:"image_count"`
	Images     map[string]ImageInfo `json:"images"`
}
