// Package deckbuilder manages deck folders, decks and their slots.
package deckbuilder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/youruser/srginventory/internal/cards"
	"github.com/youruser/srginventory/internal/deck"
	"github.com/youruser/srginventory/internal/storage"
)

var (
	ErrEmptyFolder = errors.New("folder has no cards")
	ErrInvalidName = errors.New("name is required")
)

// Defaults are the deck folders every install starts with.
var Defaults = []deck.Folder{
	{ID: storage.DeckFolderSingles, Name: "Singles", IsDefault: true, DisplayOrder: 0},
	{ID: storage.DeckFolderTornado, Name: "Tornado", IsDefault: true, DisplayOrder: 1},
	{ID: storage.DeckFolderTrios, Name: "Trios", IsDefault: true, DisplayOrder: 2},
	{ID: storage.DeckFolderTag, Name: "Tag", IsDefault: true, DisplayOrder: 3},
}

const customOrderBase = 4

// Store is what the deck service needs from persistence.
type Store interface {
	storage.DeckStore
	GetCard(ctx context.Context, uuid string) (cards.Card, error)
	GetCardByName(ctx context.Context, name string) (cards.Card, error)
	RelatedFinishes(ctx context.Context, uuid string) ([]cards.Card, error)
	GetFolder(ctx context.Context, id string) (storage.Folder, error)
	FolderCards(ctx context.Context, folderID string) ([]cards.WithQuantity, error)
}

type Service struct {
	store  Store
	logger *log.Logger
}

func New(store Store, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{store: store, logger: logger}
}

type FolderWithCount struct {
	deck.Folder
	DeckCount int `json:"deck_count"`
}

func (s *Service) EnsureDefaults(ctx context.Context) error {
	for _, f := range Defaults {
		if err := s.store.InsertDeckFolderIfMissing(ctx, f); err != nil {
			return fmt.Errorf("ensure deck folder %s: %w", f.ID, err)
		}
	}
	return nil
}

func (s *Service) ListFolders(ctx context.Context) ([]FolderWithCount, error) {
	folders, err := s.store.ListDeckFolders(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]FolderWithCount, 0, len(folders))
	for _, f := range folders {
		n, err := s.store.CountDecksInFolder(ctx, f.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, FolderWithCount{Folder: f, DeckCount: n})
	}
	return out, nil
}

func (s *Service) GetFolder(ctx context.Context, id string) (deck.Folder, error) {
	return s.store.GetDeckFolder(ctx, id)
}

func (s *Service) CreateFolder(ctx context.Context, name string) (deck.Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return deck.Folder{}, ErrInvalidName
	}
	n, err := s.store.CountCustomDeckFolders(ctx)
	if err != nil {
		return deck.Folder{}, err
	}
	f := deck.Folder{ID: uuid.NewString(), Name: name, DisplayOrder: n + customOrderBase}
	if err := s.store.InsertDeckFolder(ctx, f); err != nil {
		return deck.Folder{}, fmt.Errorf("create deck folder: %w", err)
	}
	return f, nil
}

// FindOrCreateFolder returns the deck folder named name, creating it when absent.
func (s *Service) FindOrCreateFolder(ctx context.Context, name string) (deck.Folder, error) {
	f, err := s.store.GetDeckFolderByName(ctx, name)
	if err == nil {
		return f, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return deck.Folder{}, err
	}
	return s.CreateFolder(ctx, name)
}

func (s *Service) RenameFolder(ctx context.Context, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidName
	}
	return s.store.RenameDeckFolder(ctx, id, name)
}

// DeleteFolder removes a custom deck folder and its decks. Default folders stay.
func (s *Service) DeleteFolder(ctx context.Context, id string) error {
	f, err := s.store.GetDeckFolder(ctx, id)
	if err != nil {
		return err
	}
	if f.IsDefault {
		s.logger.Printf("deckbuilder: refusing to delete default deck folder %q", f.Name)
		return nil
	}
	return s.store.DeleteDeckFolder(ctx, id)
}

func (s *Service) CountDecks(ctx context.Context, folderID string) (int, error) {
	return s.store.CountDecksInFolder(ctx, folderID)
}

// CreateDeck adds an empty deck. An empty spectacle means VALIANT.
func (s *Service) CreateDeck(ctx context.Context, folderID, name string, spectacle deck.Spectacle) (deck.Deck, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return deck.Deck{}, ErrInvalidName
	}
	if spectacle == "" {
		spectacle = deck.SpectacleValiant
	}
	if !spectacle.Valid() {
		return deck.Deck{}, fmt.Errorf("%w: %q", deck.ErrInvalidSpectacle, spectacle)
	}
	if _, err := s.store.GetDeckFolder(ctx, folderID); err != nil {
		return deck.Deck{}, err
	}
	d := deck.Deck{ID: uuid.NewString(), FolderID: folderID, Name: name, Spectacle: spectacle}
	if err := s.store.InsertDeck(ctx, d); err != nil {
		return deck.Deck{}, fmt.Errorf("create deck: %w", err)
	}
	return s.store.GetDeck(ctx, d.ID)
}

func (s *Service) GetDeck(ctx context.Context, id string) (deck.Deck, error) {
	return s.store.GetDeck(ctx, id)
}

func (s *Service) ListDecks(ctx context.Context, folderID string) ([]storage.DeckWithCount, error) {
	if _, err := s.store.GetDeckFolder(ctx, folderID); err != nil {
		return nil, err
	}
	return s.store.DecksInFolder(ctx, folderID)
}

func (s *Service) update(ctx context.Context, id string, change func(*deck.Deck)) error {
	d, err := s.store.GetDeck(ctx, id)
	if err != nil {
		return err
	}
	change(&d)
	// the store stamps a zero modified time with now
	d.ModifiedAt = time.Time{}
	return s.store.UpdateDeck(ctx, d)
}

func (s *Service) RenameDeck(ctx context.Context, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidName
	}
	return s.update(ctx, id, func(d *deck.Deck) { d.Name = name })
}

func (s *Service) SetSpectacle(ctx context.Context, id string, spectacle deck.Spectacle) error {
	if !spectacle.Valid() {
		return fmt.Errorf("%w: %q", deck.ErrInvalidSpectacle, spectacle)
	}
	return s.update(ctx, id, func(d *deck.Deck) { d.Spectacle = spectacle })
}

// MoveDeck puts a deck in another deck folder.
func (s *Service) MoveDeck(ctx context.Context, id, folderID string) error {
	if _, err := s.store.GetDeckFolder(ctx, folderID); err != nil {
		return err
	}
	return s.update(ctx, id, func(d *deck.Deck) { d.FolderID = folderID })
}

func (s *Service) DeleteDeck(ctx context.Context, id string) error {
	return s.store.DeleteDeck(ctx, id)
}

// Detail is a deck with its ordered slots and completeness.
type Detail struct {
	Deck             deck.Deck    `json:"deck"`
	Entries          []deck.Entry `json:"cards"`
	Summary          deck.Summary `json:"summary"`
	Complete         bool         `json:"complete"`
	MissingDeckSlots []int        `json:"missing_deck_slots"`
}

func (s *Service) Detail(ctx context.Context, id string) (Detail, error) {
	d, err := s.store.GetDeck(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	entries, err := s.store.DeckEntries(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	slots := make([]deck.Slot, 0, len(entries))
	for _, e := range entries {
		slots = append(slots, e.Slot)
	}
	sum := deck.Summarize(slots)
	return Detail{
		Deck:             d,
		Entries:          entries,
		Summary:          sum,
		Complete:         sum.Complete(),
		MissingDeckSlots: deck.MissingDeckSlots(slots),
	}, nil
}

func (s *Service) Entries(ctx context.Context, id string) ([]deck.Entry, error) {
	if _, err := s.store.GetDeck(ctx, id); err != nil {
		return nil, err
	}
	return s.store.DeckEntries(ctx, id)
}

func (s *Service) requireCard(ctx context.Context, cardUUID string) error {
	if _, err := s.store.GetCard(ctx, cardUUID); err != nil {
		return fmt.Errorf("card %s: %w", cardUUID, err)
	}
	return nil
}

func (s *Service) put(ctx context.Context, deckID string, slot deck.Slot) error {
	if err := deck.ValidateSlot(slot.Type, slot.Number); err != nil {
		return err
	}
	if err := s.requireCard(ctx, slot.CardUUID); err != nil {
		return err
	}
	return s.store.PutSlot(ctx, deckID, slot)
}

// SetEntrance replaces the deck's entrance card.
func (s *Service) SetEntrance(ctx context.Context, deckID, cardUUID string) error {
	return s.put(ctx, deckID, deck.Slot{Type: deck.SlotEntrance, CardUUID: cardUUID})
}

func (s *Service) SetCompetitor(ctx context.Context, deckID, cardUUID string) error {
	return s.put(ctx, deckID, deck.Slot{Type: deck.SlotCompetitor, CardUUID: cardUUID})
}

// SetDeckCard fills deck slot n, which must be 1..30.
func (s *Service) SetDeckCard(ctx context.Context, deckID string, n int, cardUUID string) error {
	return s.put(ctx, deckID, deck.Slot{Type: deck.SlotDeck, Number: n, CardUUID: cardUUID})
}

func (s *Service) appendSlot(ctx context.Context, deckID string, t deck.SlotType, cardUUID string) (int, error) {
	if err := s.requireCard(ctx, cardUUID); err != nil {
		return 0, err
	}
	return s.store.AppendSlot(ctx, deckID, t, cardUUID)
}

// AddFinish appends a finish and returns its slot number.
func (s *Service) AddFinish(ctx context.Context, deckID, cardUUID string) (int, error) {
	return s.appendSlot(ctx, deckID, deck.SlotFinish, cardUUID)
}

func (s *Service) AddAlternate(ctx context.Context, deckID, cardUUID string) (int, error) {
	return s.appendSlot(ctx, deckID, deck.SlotAlternate, cardUUID)
}

func (s *Service) RemoveSlot(ctx context.Context, deckID string, t deck.SlotType, n int) error {
	return s.store.RemoveSlot(ctx, deckID, t, n)
}

func (s *Service) Clear(ctx context.Context, deckID string) error {
	return s.store.ClearDeck(ctx, deckID)
}

// LinkedFinishes lists the finishes linked to the deck's competitor.
func (s *Service) LinkedFinishes(ctx context.Context, deckID string) ([]cards.Card, error) {
	slots, err := s.store.DeckSlots(ctx, deckID)
	if err != nil {
		return nil, err
	}
	for _, sl := range slots {
		if sl.Type == deck.SlotCompetitor {
			return s.store.RelatedFinishes(ctx, sl.CardUUID)
		}
	}
	return nil, nil
}

// Apply writes planned placements into a deck. Alternates and finishes are
// appended; placements whose card is unknown are skipped. It returns how many
// were written.
func (s *Service) Apply(ctx context.Context, deckID string, placements []deck.Placement) (int, error) {
	applied := 0
	for _, p := range placements {
		var err error
		switch p.Type {
		case deck.SlotFinish, deck.SlotAlternate:
			_, err = s.appendSlot(ctx, deckID, p.Type, p.CardUUID)
		default:
			err = s.put(ctx, deckID, deck.Slot{Type: p.Type, Number: p.Number, CardUUID: p.CardUUID})
		}
		switch {
		case err == nil:
			applied++
		case errors.Is(err, storage.ErrNotFound) && !s.deckExists(ctx, deckID):
			return applied, err
		case errors.Is(err, storage.ErrNotFound), errors.Is(err, deck.ErrInvalidSlot):
			s.logger.Printf("deckbuilder: skipping %s %d (%s): %v", p.Type, p.Number, p.CardUUID, err)
		default:
			return applied, err
		}
	}
	return applied, nil
}

func (s *Service) deckExists(ctx context.Context, deckID string) bool {
	_, err := s.store.GetDeck(ctx, deckID)
	return err == nil
}

// ImportFolder auto-slots every card of a collection folder into a deck.
func (s *Service) ImportFolder(ctx context.Context, deckID, folderID string) (deck.ImportPlan, error) {
	if _, err := s.store.GetDeck(ctx, deckID); err != nil {
		return deck.ImportPlan{}, err
	}
	if _, err := s.store.GetFolder(ctx, folderID); err != nil {
		return deck.ImportPlan{}, err
	}
	held, err := s.store.FolderCards(ctx, folderID)
	if err != nil {
		return deck.ImportPlan{}, err
	}
	if len(held) == 0 {
		return deck.ImportPlan{}, ErrEmptyFolder
	}
	existing, err := s.store.DeckSlots(ctx, deckID)
	if err != nil {
		return deck.ImportPlan{}, err
	}
	incoming := make([]cards.Card, 0, len(held))
	for _, h := range held {
		incoming = append(incoming, h.Card)
	}
	plan := deck.PlanFolderImport(existing, incoming)
	if _, err := s.Apply(ctx, deckID, plan.Placements); err != nil {
		return plan, err
	}
	s.logger.Printf("deckbuilder: %s into deck %s", plan.Message(), deckID)
	return plan, nil
}

// ExportCSV writes the deck CSV.
func (s *Service) ExportCSV(ctx context.Context, deckID string, w io.Writer) error {
	entries, err := s.Entries(ctx, deckID)
	if err != nil {
		return err
	}
	return deck.WriteCSV(w, entries)
}

// ExportText renders the deck as a plain list.
func (s *Service) ExportText(ctx context.Context, deckID string) (string, error) {
	d, err := s.store.GetDeck(ctx, deckID)
	if err != nil {
		return "", err
	}
	entries, err := s.store.DeckEntries(ctx, deckID)
	if err != nil {
		return "", err
	}
	return deck.ExportText(d, entries), nil
}

type ImportResult struct {
	Imported int      `json:"imported"`
	NotFound []string `json:"not_found"`
}

// ImportCSV fills slots from a deck CSV, resolving cards by name.
func (s *Service) ImportCSV(ctx context.Context, deckID string, r io.Reader) (ImportResult, error) {
	var res ImportResult
	if _, err := s.store.GetDeck(ctx, deckID); err != nil {
		return res, err
	}
	rows, err := deck.ReadCSV(r)
	if err != nil {
		return res, err
	}
	for _, row := range rows {
		c, err := s.store.GetCardByName(ctx, row.CardName)
		if errors.Is(err, storage.ErrNotFound) {
			res.NotFound = append(res.NotFound, row.CardName)
			continue
		}
		if err != nil {
			return res, err
		}
		switch row.Type {
		case deck.SlotFinish, deck.SlotAlternate:
			_, err = s.store.AppendSlot(ctx, deckID, row.Type, c.UUID)
		default:
			err = s.store.PutSlot(ctx, deckID, deck.Slot{Type: row.Type, Number: row.Number, CardUUID: c.UUID})
		}
		if errors.Is(err, deck.ErrInvalidSlot) {
			s.logger.Printf("deckbuilder: csv row %s %d %q: %v", row.Type, row.Number, row.CardName, err)
			continue
		}
		if err != nil {
			return res, err
		}
		res.Imported++
	}
	return res, nil
}
