// Package collection manages card folders: the default Owned, Wanted and
// Trade folders plus any custom ones.
package collection

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/youruser/srginventory/internal/cards"
	"github.com/youruser/srginventory/internal/storage"
)

// ErrInvalidName is returned for blank folder names.
var ErrInvalidName = errors.New("folder name is required")

// Default folders, in display order.
var Defaults = []storage.Folder{
	{ID: storage.FolderOwned, Name: "Owned", IsDefault: true, DisplayOrder: 0},
	{ID: storage.FolderWanted, Name: "Wanted", IsDefault: true, DisplayOrder: 1},
	{ID: storage.FolderTrade, Name: "Trade", IsDefault: true, DisplayOrder: 2},
}

// customOrderBase places custom folders after the defaults.
const customOrderBase = 3

// Store is what the folder service needs from persistence.
type Store interface {
	storage.FolderStore
	GetCard(ctx context.Context, uuid string) (cards.Card, error)
	GetCardByName(ctx context.Context, name string) (cards.Card, error)
}

// Kind selects which folders List returns.
type Kind string

const (
	KindAll     Kind = "all"
	KindDefault Kind = "default"
	KindCustom  Kind = "custom"
)

type FolderWithCount struct {
	storage.Folder
	CardCount int `json:"card_count"`
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

// EnsureDefaults creates any missing default folder.
func (s *Service) EnsureDefaults(ctx context.Context) error {
	for _, f := range Defaults {
		if err := s.store.InsertFolderIfMissing(ctx, f); err != nil {
			return fmt.Errorf("ensure folder %s: %w", f.ID, err)
		}
	}
	return nil
}

// List returns folders of the given kind with their distinct card counts.
func (s *Service) List(ctx context.Context, kind Kind) ([]FolderWithCount, error) {
	folders, err := s.store.ListFolders(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]FolderWithCount, 0, len(folders))
	for _, f := range folders {
		switch {
		case kind == KindDefault && !f.IsDefault:
			continue
		case kind == KindCustom && f.IsDefault:
			continue
		}
		n, err := s.store.CountFolderCards(ctx, f.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, FolderWithCount{Folder: f, CardCount: n})
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (storage.Folder, error) {
	return s.store.GetFolder(ctx, id)
}

// Create adds a custom folder after the existing ones.
func (s *Service) Create(ctx context.Context, name string) (storage.Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return storage.Folder{}, ErrInvalidName
	}
	n, err := s.store.CountCustomFolders(ctx)
	if err != nil {
		return storage.Folder{}, err
	}
	f := storage.Folder{ID: uuid.NewString(), Name: name, DisplayOrder: n + customOrderBase}
	if err := s.store.InsertFolder(ctx, f); err != nil {
		return storage.Folder{}, fmt.Errorf("create folder: %w", err)
	}
	return s.store.GetFolder(ctx, f.ID)
}

// FindOrCreate returns the folder named name, creating it when absent.
func (s *Service) FindOrCreate(ctx context.Context, name string) (storage.Folder, error) {
	f, err := s.store.GetFolderByName(ctx, name)
	if err == nil {
		return f, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return storage.Folder{}, err
	}
	return s.Create(ctx, name)
}

func (s *Service) Rename(ctx context.Context, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidName
	}
	return s.store.RenameFolder(ctx, id, name)
}

// Delete removes a custom folder. Deleting a default folder does nothing.
func (s *Service) Delete(ctx context.Context, id string) error {
	f, err := s.store.GetFolder(ctx, id)
	if err != nil {
		return err
	}
	if f.IsDefault {
		s.logger.Printf("collection: refusing to delete default folder %q", f.Name)
		return nil
	}
	return s.store.DeleteFolder(ctx, id)
}

// Cards lists a folder's cards. A non-nil opt filters them in memory.
func (s *Service) Cards(ctx context.Context, folderID string, opt *cards.SearchOptions) ([]cards.WithQuantity, error) {
	if _, err := s.store.GetFolder(ctx, folderID); err != nil {
		return nil, err
	}
	held, err := s.store.FolderCards(ctx, folderID)
	if err != nil {
		return nil, err
	}
	if opt != nil {
		held = cards.Filter(held, *opt)
	}
	return held, nil
}

func (s *Service) FoldersForCard(ctx context.Context, cardUUID string) ([]storage.Folder, error) {
	return s.store.FoldersForCard(ctx, cardUUID)
}

// Add puts quantity copies of a card in a folder; quantity below 1 counts as 1.
func (s *Service) Add(ctx context.Context, folderID, cardUUID string, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}
	return s.store.AddToFolder(ctx, folderID, cardUUID, quantity)
}

// SetQuantity stores an exact quantity; zero or less removes the card.
func (s *Service) SetQuantity(ctx context.Context, folderID, cardUUID string, quantity int) error {
	return s.store.SetFolderQuantity(ctx, folderID, cardUUID, quantity)
}

func (s *Service) Remove(ctx context.Context, folderID, cardUUID string) error {
	return s.store.RemoveFromFolder(ctx, folderID, cardUUID)
}

// Move transfers copies between folders. A quantity of zero or less moves
// everything the source holds.
func (s *Service) Move(ctx context.Context, fromID, toID, cardUUID string, quantity int) error {
	if fromID == toID {
		return nil
	}
	if _, err := s.store.GetFolder(ctx, toID); err != nil {
		return err
	}
	return s.store.MoveBetweenFolders(ctx, fromID, toID, cardUUID, quantity)
}

func (s *Service) Count(ctx context.Context, folderID string) (int, error) {
	return s.store.CountFolderCards(ctx, folderID)
}

// ExportCSV writes a folder in the collection CSV format.
func (s *Service) ExportCSV(ctx context.Context, folderID string, w io.Writer) error {
	held, err := s.Cards(ctx, folderID, nil)
	if err != nil {
		return err
	}
	return cards.WriteCollectionCSV(w, held)
}

type ImportResult struct {
	Imported int      `json:"imported"`
	NotFound []string `json:"not_found"`
}

// ImportCSV adds every row whose name resolves to a catalogue card.
func (s *Service) ImportCSV(ctx context.Context, folderID string, r io.Reader) (ImportResult, error) {
	var res ImportResult
	if _, err := s.store.GetFolder(ctx, folderID); err != nil {
		return res, err
	}
	rows, err := cards.ReadCollectionCSV(r)
	if err != nil {
		return res, err
	}
	for _, row := range rows {
		c, err := s.store.GetCardByName(ctx, row.Name)
		if errors.Is(err, storage.ErrNotFound) {
			res.NotFound = append(res.NotFound, row.Name)
			continue
		}
		if err != nil {
			return res, err
		}
		if err := s.store.AddToFolder(ctx, folderID, c.UUID, max(row.Quantity, 1)); err != nil {
			return res, err
		}
		res.Imported++
	}
	s.logger.Printf("collection: imported %d cards into %s, %d not found", res.Imported, folderID, len(res.NotFound))
	return res, nil
}
