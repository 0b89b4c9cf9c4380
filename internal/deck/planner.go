package deck

import (
	"fmt"
	"strings"

	"github.com/youruser/srginventory/internal/cards"
)

// Placement is one planned slot assignment. Alternates carry Number 0 and are
// appended after the deck's current alternates when applied.
type Placement struct {
	Type     SlotType
	Number   int
	CardUUID string
}

// ImportPlan is the result of slotting a folder's cards into a deck.
type ImportPlan struct {
	Placements []Placement
	Entrance   bool
	Competitor bool
	DeckSlots  int
	Alternates int
}

// Message is the human summary shown after an import, e.g.
// "Imported: entrance, 12 deck cards, 3 alternates".
func (p ImportPlan) Message() string {
	var parts []string
	if p.Entrance {
		parts = append(parts, "entrance")
	}
	if p.Competitor {
		parts = append(parts, "competitor")
	}
	if p.DeckSlots > 0 {
		parts = append(parts, fmt.Sprintf("%d deck cards", p.DeckSlots))
	}
	if p.Alternates > 0 {
		parts = append(parts, fmt.Sprintf("%d alternates", p.Alternates))
	}
	return "Imported: " + strings.Join(parts, ", ")
}

func isCompetitorType(t string) bool {
	switch t {
	case cards.TypeSingleCompetitor, cards.TypeTornadoCompetitor, cards.TypeTrioCompetitor:
		return true
	}
	return false
}

// PlanFolderImport slots incoming cards around what the deck already holds.
// The first entrance and competitor fill empty fixed slots; main deck cards
// take their printed number when free; everything else becomes an alternate.
func PlanFolderImport(existing []Slot, incoming []cards.Card) ImportPlan {
	var (
		plan          ImportPlan
		hasEntrance   bool
		hasCompetitor bool
		usedDeck      = map[int]bool{}
	)
	for _, s := range existing {
		switch s.Type {
		case SlotEntrance:
			hasEntrance = true
		case SlotCompetitor:
			hasCompetitor = true
		case SlotDeck:
			usedDeck[s.Number] = true
		}
	}

	alternate := func(c cards.Card) {
		plan.Placements = append(plan.Placements, Placement{Type: SlotAlternate, CardUUID: c.UUID})
		plan.Alternates++
	}

	for _, c := range incoming {
		switch {
		case c.CardType == cards.TypeEntrance:
			if hasEntrance || plan.Entrance {
				alternate(c)
				continue
			}
			plan.Placements = append(plan.Placements, Placement{Type: SlotEntrance, CardUUID: c.UUID})
			plan.Entrance = true
		case isCompetitorType(c.CardType):
			if hasCompetitor || plan.Competitor {
				alternate(c)
				continue
			}
			plan.Placements = append(plan.Placements, Placement{Type: SlotCompetitor, CardUUID: c.UUID})
			plan.Competitor = true
		case c.CardType == cards.TypeMainDeck:
			n := 0
			if c.DeckCardNumber != nil {
				n = *c.DeckCardNumber
			}
			if n < MinDeckSlot || n > MaxDeckSlot || usedDeck[n] {
				alternate(c)
				continue
			}
			usedDeck[n] = true
			plan.Placements = append(plan.Placements, Placement{Type: SlotDeck, Number: n, CardUUID: c.UUID})
			plan.DeckSlots++
		default:
			alternate(c)
		}
	}
	return plan
}
