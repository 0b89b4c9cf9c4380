package deck

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// SlotType is the role a card plays in a deck.
type SlotType string

const (
	SlotEntrance   SlotType = "ENTRANCE"
	SlotCompetitor SlotType = "COMPETITOR"
	SlotDeck       SlotType = "DECK"
	SlotFinish     SlotType = "FINISH"
	SlotAlternate  SlotType = "ALTERNATE"
)

// Spectacle is the deck variant.
type Spectacle string

const (
	SpectacleNewman  Spectacle = "NEWMAN"
	SpectacleValiant Spectacle = "VALIANT"
)

const (
	MinDeckSlot = 1
	MaxDeckSlot = 30
)

var (
	ErrInvalidSlot      = errors.New("invalid deck slot")
	ErrInvalidSpectacle = errors.New("unknown spectacle")
	ErrInvalidCSV       = errors.New("invalid deck csv")
)

// ParseSlotType accepts any casing. ok is false for unknown names.
func ParseSlotType(s string) (SlotType, bool) {
	switch t := SlotType(strings.ToUpper(strings.TrimSpace(s))); t {
	case SlotEntrance, SlotCompetitor, SlotDeck, SlotFinish, SlotAlternate:
		return t, true
	}
	return "", false
}

// ParseSpectacle maps unknown values to NEWMAN, as shared lists do.
func ParseSpectacle(s string) Spectacle {
	switch Spectacle(strings.ToUpper(strings.TrimSpace(s))) {
	case SpectacleValiant:
		return SpectacleValiant
	default:
		return SpectacleNewman
	}
}

func (s Spectacle) Valid() bool {
	return s == SpectacleNewman || s == SpectacleValiant
}

// ValidateSlot checks a slot number against the range allowed for its type.
// ENTRANCE and COMPETITOR live at 0, DECK at 1..30, FINISH and ALTERNATE at 1 or above.
func ValidateSlot(t SlotType, n int) error {
	switch t {
	case SlotEntrance, SlotCompetitor:
		if n != 0 {
			return fmt.Errorf("%w: %s takes slot 0, got %d", ErrInvalidSlot, t, n)
		}
	case SlotDeck:
		if n < MinDeckSlot || n > MaxDeckSlot {
			return fmt.Errorf("%w: deck slot %d outside %d..%d", ErrInvalidSlot, n, MinDeckSlot, MaxDeckSlot)
		}
	case SlotFinish, SlotAlternate:
		if n < 1 {
			return fmt.Errorf("%w: %s slot %d", ErrInvalidSlot, t, n)
		}
	default:
		return fmt.Errorf("%w: unknown slot type %q", ErrInvalidSlot, t)
	}
	return nil
}

// Folder groups decks by game mode.
type Folder struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	IsDefault    bool   `json:"is_default"`
	DisplayOrder int    `json:"display_order"`
}

type Deck struct {
	ID         string    `json:"id"`
	FolderID   string    `json:"folder_id"`
	Name       string    `json:"name"`
	Spectacle  Spectacle `json:"spectacle_type"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
}

// Slot places one card in a deck.
type Slot struct {
	Type     SlotType `json:"slot_type"`
	Number   int      `json:"slot_number"`
	CardUUID string   `json:"card_uuid"`
}
