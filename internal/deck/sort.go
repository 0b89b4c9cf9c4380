package deck

import (
	"cmp"
	"slices"

	"github.com/youruser/srginventory/internal/cards"
)

// Entry is a filled slot together with its card.
type Entry struct {
	Slot
	Card cards.Card `json:"card"`
}

var displayRank = map[SlotType]int{
	SlotEntrance:   1,
	SlotCompetitor: 2,
	SlotDeck:       3,
	SlotFinish:     4,
	SlotAlternate:  5,
}

// export files list finishes after alternates
var exportRank = map[SlotType]int{
	SlotEntrance:   0,
	SlotCompetitor: 1,
	SlotDeck:       2,
	SlotAlternate:  3,
}

func rank(ranks map[SlotType]int, t SlotType) int {
	if r, ok := ranks[t]; ok {
		return r
	}
	return len(ranks) + 1
}

func compareBy(ranks map[SlotType]int) func(a, b Entry) int {
	return func(a, b Entry) int {
		if c := cmp.Compare(rank(ranks, a.Type), rank(ranks, b.Type)); c != 0 {
			return c
		}
		return cmp.Compare(a.Number, b.Number)
	}
}

// SortForDisplay orders entries entrance, competitor, deck 1..30, finishes, alternates.
func SortForDisplay(entries []Entry) {
	slices.SortStableFunc(entries, compareBy(displayRank))
}

// SortForExport orders entries the way CSV exports list them.
func SortForExport(entries []Entry) {
	slices.SortStableFunc(entries, compareBy(exportRank))
}

// Summary counts a deck's filled slots.
type Summary struct {
	HasEntrance   bool `json:"has_entrance"`
	HasCompetitor bool `json:"has_competitor"`
	DeckCards     int  `json:"deck_cards"`
	Finishes      int  `json:"finishes"`
	Alternates    int  `json:"alternates"`
}

// Complete reports whether every fixed slot is filled.
func (s Summary) Complete() bool {
	return s.HasEntrance && s.HasCompetitor && s.DeckCards == MaxDeckSlot
}

func Summarize(slots []Slot) Summary {
	var s Summary
	for _, sl := range slots {
		switch sl.Type {
		case SlotEntrance:
			s.HasEntrance = true
		case SlotCompetitor:
			s.HasCompetitor = true
		case SlotDeck:
			s.DeckCards++
		case SlotFinish:
			s.Finishes++
		case SlotAlternate:
			s.Alternates++
		}
	}
	return s
}

// MissingDeckSlots lists the deck slot numbers not yet filled.
func MissingDeckSlots(slots []Slot) []int {
	used := make(map[int]bool, len(slots))
	for _, sl := range slots {
		if sl.Type == SlotDeck {
			used[sl.Number] = true
		}
	}
	var out []int
	for n := MinDeckSlot; n <= MaxDeckSlot; n++ {
		if !used[n] {
			out = append(out, n)
		}
	}
	return out
}
