package deck

// PlaceShared maps one slot of shared deck data onto a placement. Unknown
// slot types become alternates, FINISH and ALTERNATE are appended (Number 0),
// and a DECK slot outside 1..30 is dropped (ok false).
func PlaceShared(slotType string, number int, cardUUID string) (Placement, bool) {
	if cardUUID == "" {
		return Placement{}, false
	}
	t, known := ParseSlotType(slotType)
	if !known {
		t = SlotAlternate
	}
	switch t {
	case SlotEntrance, SlotCompetitor:
		return Placement{Type: t, CardUUID: cardUUID}, true
	case SlotDeck:
		if ValidateSlot(t, number) != nil {
			return Placement{}, false
		}
		return Placement{Type: t, Number: number, CardUUID: cardUUID}, true
	default:
		return Placement{Type: t, CardUUID: cardUUID}, true
	}
}

// SharedSlots lists a deck's slots the way shared deck data carries them.
func SharedSlots(entries []Entry) []Slot {
	sorted := append([]Entry(nil), entries...)
	SortForDisplay(sorted)
	out := make([]Slot, 0, len(sorted))
	for _, e := range sorted {
		out = append(out, e.Slot)
	}
	return out
}
