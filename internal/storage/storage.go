// Package storage defines persistence contracts for the card inventory.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/youruser/srginventory/internal/cards"
	"github.com/youruser/srginventory/internal/deck"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists indicates a uniqueness-constrained record already exists.
	ErrAlreadyExists = errors.New("record already exists")
)

// Default collection folder ids.
const (
	FolderOwned  = "owned"
	FolderWanted = "wanted"
	FolderTrade  = "trade"
)

// Default deck folder ids.
const (
	DeckFolderSingles = "singles"
	DeckFolderTornado = "tornado"
	DeckFolderTrios   = "trios"
	DeckFolderTag     = "tag"
)

// Folder is a user grouping of owned, wanted or traded cards.
type Folder struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	IsDefault    bool      `json:"is_default"`
	DisplayOrder int       `json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
}

// DeckWithCount is a deck listing row.
type DeckWithCount struct {
	deck.Deck
	CardCount int `json:"card_count"`
}

// SyncState keys.
const (
	SyncKeyCatalogHash = "catalog_hash"
	SyncKeyLastSync    = "last_sync_ms"
)

// CardStore persists catalogue cards.
type CardStore interface {
	UpsertCards(ctx context.Context, batch []cards.Card) error
	GetCard(ctx context.Context, uuid string) (cards.Card, error)
	GetCardByName(ctx context.Context, name string) (cards.Card, error)
	GetCardsByUUIDs(ctx context.Context, uuids []string) ([]cards.Card, error)
	SearchCards(ctx context.Context, opt cards.SearchOptions) ([]cards.Card, error)
	SuggestCardNames(ctx context.Context, prefix string, opt cards.SearchOptions, limit int) ([]string, error)
	CardTypes(ctx context.Context) ([]string, error)
	ReleaseSets(ctx context.Context) ([]string, error)
	Divisions(ctx context.Context) ([]string, error)
	CountCards(ctx context.Context) (int, error)
	LastCardSync(ctx context.Context) (time.Time, error)
	RelatedFinishes(ctx context.Context, uuid string) ([]cards.Card, error)
	RelatedCards(ctx context.Context, uuid string) ([]cards.Card, error)
	ReplaceCatalogFrom(ctx context.Context, snapshotPath string) (int, error)
}

// FolderStore persists collection folders and their cards.
type FolderStore interface {
	ListFolders(ctx context.Context) ([]Folder, error)
	GetFolder(ctx context.Context, id string) (Folder, error)
	GetFolderByName(ctx context.Context, name string) (Folder, error)
	InsertFolder(ctx context.Context, f Folder) error
	InsertFolderIfMissing(ctx context.Context, f Folder) error
	RenameFolder(ctx context.Context, id, name string) error
	DeleteFolder(ctx context.Context, id string) error
	CountCustomFolders(ctx context.Context) (int, error)

	FolderCards(ctx context.Context, folderID string) ([]cards.WithQuantity, error)
	FoldersForCard(ctx context.Context, cardUUID string) ([]Folder, error)
	FolderQuantity(ctx context.Context, folderID, cardUUID string) (int, bool, error)
	AddToFolder(ctx context.Context, folderID, cardUUID string, quantity int) error
	SetFolderQuantity(ctx context.Context, folderID, cardUUID string, quantity int) error
	RemoveFromFolder(ctx context.Context, folderID, cardUUID string) error
	MoveBetweenFolders(ctx context.Context, fromID, toID, cardUUID string, quantity int) error
	CountFolderCards(ctx context.Context, folderID string) (int, error)
}

// DeckStore persists deck folders, decks and slots.
type DeckStore interface {
	ListDeckFolders(ctx context.Context) ([]deck.Folder, error)
	GetDeckFolder(ctx context.Context, id string) (deck.Folder, error)
	GetDeckFolderByName(ctx context.Context, name string) (deck.Folder, error)
	InsertDeckFolder(ctx context.Context, f deck.Folder) error
	InsertDeckFolderIfMissing(ctx context.Context, f deck.Folder) error
	RenameDeckFolder(ctx context.Context, id, name string) error
	DeleteDeckFolder(ctx context.Context, id string) error
	CountCustomDeckFolders(ctx context.Context) (int, error)
	CountDecksInFolder(ctx context.Context, folderID string) (int, error)

	InsertDeck(ctx context.Context, d deck.Deck) error
	GetDeck(ctx context.Context, id string) (deck.Deck, error)
	UpdateDeck(ctx context.Context, d deck.Deck) error
	DeleteDeck(ctx context.Context, id string) error
	DecksInFolder(ctx context.Context, folderID string) ([]DeckWithCount, error)

	DeckEntries(ctx context.Context, deckID string) ([]deck.Entry, error)
	DeckSlots(ctx context.Context, deckID string) ([]deck.Slot, error)
	PutSlot(ctx context.Context, deckID string, slot deck.Slot) error
	AppendSlot(ctx context.Context, deckID string, t deck.SlotType, cardUUID string) (int, error)
	RemoveSlot(ctx context.Context, deckID string, t deck.SlotType, number int) error
	ClearDeck(ctx context.Context, deckID string) error
	TouchDeck(ctx context.Context, deckID string, at time.Time) error
}

// SyncStateStore keeps small bits of sync bookkeeping.
type SyncStateStore interface {
	GetSyncValue(ctx context.Context, key string) (string, bool, error)
	SetSyncValue(ctx context.Context, key, value string) error
	AdoptLegacyCards(ctx context.Context) (int, error)
}

// Store is everything the app needs from persistence.
type Store interface {
	CardStore
	FolderStore
	DeckStore
	SyncStateStore
	Close() error
}
