package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youruser/srginventory/internal/cards"
	"github.com/youruser/srginventory/internal/deck"
	"github.com/youruser/srginventory/internal/storage"
)

func intp(v int) *int { return &v }

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "srg.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedCards(t *testing.T, s *Store, batch ...cards.Card) {
	t.Helper()
	require.NoError(t, s.UpsertCards(context.Background(), batch))
}

var (
	dropkick = cards.Card{UUID: "aa11", Name: "Dropkick", CardType: cards.TypeMainDeck, DeckCardNumber: intp(3),
		AtkType: "Strike", PlayOrder: "Lead", Tags: []string{"aerial", "fast"}, ReleaseSet: "Core"}
	armBar = cards.Card{UUID: "bb22", Name: "Arm Bar", CardType: cards.TypeMainDeck, DeckCardNumber: intp(21),
		AtkType: "Submission", PlayOrder: "Followup", RulesText: "Opponent must stop", ReleaseSet: "Core"}
	aceSteel = cards.Card{UUID: "cc33", Name: "Ace Steel", CardType: cards.TypeSingleCompetitor,
		Power: intp(8), Technique: intp(6), Division: "Men's", ReleaseSet: "Promo"}
	bigEntrance = cards.Card{UUID: "dd44", Name: "Big Entrance", CardType: cards.TypeEntrance, IsBanned: true}
)

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "srg.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	v, err := s.SchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	folders, err := s.ListFolders(context.Background())
	require.NoError(t, err)
	require.Len(t, folders, 3)
	assert.Equal(t, []string{"owned", "wanted", "trade"}, []string{folders[0].ID, folders[1].ID, folders[2].ID})

	deckFolders, err := s.ListDeckFolders(context.Background())
	require.NoError(t, err)
	assert.Len(t, deckFolders, 4)
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open("  ")
	assert.Error(t, err)
}

func TestCardQueries(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	seedCards(t, s, dropkick, armBar, aceSteel, bigEntrance)

	got, err := s.GetCard(ctx, "aa11")
	require.NoError(t, err)
	assert.Equal(t, "Dropkick", got.Name)
	assert.Equal(t, []string{"aerial", "fast"}, got.Tags)
	require.NotNil(t, got.DeckCardNumber)
	assert.Equal(t, 3, *got.DeckCardNumber)
	assert.Nil(t, got.Power)

	_, err = s.GetCard(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	byName, err := s.GetCardByName(ctx, "arm bar")
	require.NoError(t, err)
	assert.Equal(t, "bb22", byName.UUID)

	n, err := s.CountCards(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	some, err := s.GetCardsByUUIDs(ctx, []string{"cc33", "aa11", "zz"})
	require.NoError(t, err)
	require.Len(t, some, 2)
	assert.Equal(t, "Ace Steel", some[0].Name)

	types, err := s.CardTypes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{cards.TypeEntrance, cards.TypeMainDeck, cards.TypeSingleCompetitor}, types)

	sets, err := s.ReleaseSets(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Core", "Promo"}, sets)

	last, err := s.LastCardSync(ctx)
	require.NoError(t, err)
	assert.False(t, last.IsZero())
}

func TestSearchCards(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	seedCards(t, s, dropkick, armBar, aceSteel, bigEntrance)
	banned := true

	tests := []struct {
		name string
		opt  cards.SearchOptions
		want []string
	}{
		{"all ordered by name", cards.SearchOptions{}, []string{"Ace Steel", "Arm Bar", "Big Entrance", "Dropkick"}},
		{"name query", cards.SearchOptions{Query: "drop"}, []string{"Dropkick"}},
		{"tags scope", cards.SearchOptions{Query: "aerial", Scope: cards.ScopeTags}, []string{"Dropkick"}},
		{"rules scope", cards.SearchOptions{Query: "stop", Scope: cards.ScopeRules}, []string{"Arm Bar"}},
		{"name scope skips rules", cards.SearchOptions{Query: "stop", Scope: cards.ScopeName}, nil},
		{"deck numbers", cards.SearchOptions{DeckNumbers: []int{3, 21}}, []string{"Arm Bar", "Dropkick"}},
		{"banned", cards.SearchOptions{Banned: &banned}, []string{"Big Entrance"}},
		{"stat floor lets nulls through", cards.SearchOptions{MinPower: 9}, []string{"Arm Bar", "Big Entrance", "Dropkick"}},
		{"stat floor", cards.SearchOptions{MinPower: 8, CardType: cards.TypeSingleCompetitor}, []string{"Ace Steel"}},
		{"limit and offset", cards.SearchOptions{Limit: 2, Offset: 1}, []string{"Arm Bar", "Big Entrance"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.SearchCards(ctx, tt.opt)
			require.NoError(t, err)
			var names []string
			for _, c := range got {
				names = append(names, c.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}

	require.NoError(t, s.AddToFolder(ctx, storage.FolderTrade, "bb22", 1))
	inFolder, err := s.SearchCards(ctx, cards.SearchOptions{InFolderID: storage.FolderTrade})
	require.NoError(t, err)
	require.Len(t, inFolder, 1)
	assert.Equal(t, "bb22", inFolder[0].UUID)
}

func TestSuggestCardNames(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	seedCards(t, s, dropkick, armBar, aceSteel)

	names, err := s.SuggestCardNames(ctx, "a", cards.SearchOptions{}, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ace Steel", "Arm Bar"}, names)

	names, err = s.SuggestCardNames(ctx, "a", cards.SearchOptions{CardType: cards.TypeMainDeck}, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"Arm Bar"}, names)
}

func TestRelated(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	seedCards(t, s, dropkick, armBar, aceSteel)

	require.NoError(t, s.SetRelated(ctx, "cc33", []string{"bb22", "nope"}, []string{"aa11"}))
	finishes, err := s.RelatedFinishes(ctx, "cc33")
	require.NoError(t, err)
	require.Len(t, finishes, 1)
	assert.Equal(t, "Arm Bar", finishes[0].Name)

	related, err := s.RelatedCards(ctx, "cc33")
	require.NoError(t, err)
	require.Len(t, related, 1)
	assert.Equal(t, "Dropkick", related[0].Name)
}

func TestUpsertKeepsFolderRows(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	seedCards(t, s, dropkick)
	require.NoError(t, s.AddToFolder(ctx, storage.FolderOwned, "aa11", 2))

	renamed := dropkick
	renamed.Name = "Dropkick (Errata)"
	seedCards(t, s, renamed)

	held, err := s.FolderCards(ctx, storage.FolderOwned)
	require.NoError(t, err)
	require.Len(t, held, 1)
	assert.Equal(t, 2, held[0].Quantity)
	assert.Equal(t, "Dropkick (Errata)", held[0].Card.Name)
}

func TestFolderQuantities(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	seedCards(t, s, dropkick, armBar)

	require.NoError(t, s.AddToFolder(ctx, storage.FolderOwned, "aa11", 1))
	require.NoError(t, s.AddToFolder(ctx, storage.FolderOwned, "aa11", 1))
	qty, ok, err := s.FolderQuantity(ctx, storage.FolderOwned, "aa11")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, qty)

	n, err := s.CountFolderCards(ctx, storage.FolderOwned)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.ErrorIs(t, s.AddToFolder(ctx, storage.FolderOwned, "missing", 1), storage.ErrNotFound)
	assert.ErrorIs(t, s.AddToFolder(ctx, "nofolder", "aa11", 1), storage.ErrNotFound)

	require.NoError(t, s.SetFolderQuantity(ctx, storage.FolderOwned, "aa11", 5))
	qty, _, err = s.FolderQuantity(ctx, storage.FolderOwned, "aa11")
	require.NoError(t, err)
	assert.Equal(t, 5, qty)

	require.NoError(t, s.SetFolderQuantity(ctx, storage.FolderOwned, "aa11", 0))
	_, ok, err = s.FolderQuantity(ctx, storage.FolderOwned, "aa11")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, s.RemoveFromFolder(ctx, storage.FolderOwned, "aa11"), storage.ErrNotFound)
}

func TestMoveBetweenFolders(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	seedCards(t, s, dropkick)
	require.NoError(t, s.AddToFolder(ctx, storage.FolderOwned, "aa11", 3))
	require.NoError(t, s.AddToFolder(ctx, storage.FolderTrade, "aa11", 1))

	require.NoError(t, s.MoveBetweenFolders(ctx, storage.FolderOwned, storage.FolderTrade, "aa11", 2))
	owned, _, err := s.FolderQuantity(ctx, storage.FolderOwned, "aa11")
	require.NoError(t, err)
	assert.Equal(t, 1, owned)
	trade, _, err := s.FolderQuantity(ctx, storage.FolderTrade, "aa11")
	require.NoError(t, err)
	assert.Equal(t, 3, trade)

	require.NoError(t, s.MoveBetweenFolders(ctx, storage.FolderOwned, storage.FolderWanted, "aa11", 0))
	_, ok, err := s.FolderQuantity(ctx, storage.FolderOwned, "aa11")
	require.NoError(t, err)
	assert.False(t, ok)

	folders, err := s.FoldersForCard(ctx, "aa11")
	require.NoError(t, err)
	require.Len(t, folders, 2)
	assert.Equal(t, storage.FolderWanted, folders[0].ID)

	// owned no longer holds the card; the target still gains a copy
	require.NoError(t, s.MoveBetweenFolders(ctx, storage.FolderOwned, storage.FolderTrade, "aa11", 0))
	trade, _, err = s.FolderQuantity(ctx, storage.FolderTrade, "aa11")
	require.NoError(t, err)
	assert.Equal(t, 4, trade)

	assert.ErrorIs(t, s.MoveBetweenFolders(ctx, storage.FolderOwned, storage.FolderTrade, "zz99", 1), storage.ErrNotFound)
}

func TestCustomFolders(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.InsertFolder(ctx, storage.Folder{ID: "f1", Name: "Binder", DisplayOrder: 3}))
	assert.ErrorIs(t, s.InsertFolder(ctx, storage.Folder{ID: "f1", Name: "Again"}), storage.ErrAlreadyExists)
	require.NoError(t, s.InsertFolderIfMissing(ctx, storage.Folder{ID: "f1", Name: "Again"}))

	f, err := s.GetFolderByName(ctx, "binder")
	require.NoError(t, err)
	assert.Equal(t, "f1", f.ID)

	require.NoError(t, s.RenameFolder(ctx, "f1", "Box"))
	f, err = s.GetFolder(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, "Box", f.Name)

	n, err := s.CountCustomFolders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.ErrorIs(t, s.DeleteFolder(ctx, storage.FolderOwned), storage.ErrNotFound)
	require.NoError(t, s.DeleteFolder(ctx, "f1"))
	_, err = s.GetFolder(ctx, "f1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func newTestDeck(t *testing.T, s *Store) deck.Deck {
	t.Helper()
	d := deck.Deck{ID: "deck-1", FolderID: storage.DeckFolderSingles, Name: "Test Deck"}
	require.NoError(t, s.InsertDeck(context.Background(), d))
	got, err := s.GetDeck(context.Background(), d.ID)
	require.NoError(t, err)
	return got
}

func TestDeckSlots(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	seedCards(t, s, dropkick, armBar, aceSteel, bigEntrance)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }
	d := newTestDeck(t, s)
	assert.Equal(t, deck.SpectacleValiant, d.Spectacle)

	s.now = func() time.Time { return base.Add(time.Hour) }
	require.NoError(t, s.PutSlot(ctx, d.ID, deck.Slot{Type: deck.SlotCompetitor, CardUUID: "cc33"}))
	require.NoError(t, s.PutSlot(ctx, d.ID, deck.Slot{Type: deck.SlotEntrance, CardUUID: "dd44"}))
	require.NoError(t, s.PutSlot(ctx, d.ID, deck.Slot{Type: deck.SlotDeck, Number: 3, CardUUID: "aa11"}))
	require.NoError(t, s.PutSlot(ctx, d.ID, deck.Slot{Type: deck.SlotDeck, Number: 3, CardUUID: "bb22"}))
	assert.ErrorIs(t, s.PutSlot(ctx, d.ID, deck.Slot{Type: deck.SlotDeck, Number: 31, CardUUID: "aa11"}), deck.ErrInvalidSlot)
	assert.ErrorIs(t, s.PutSlot(ctx, "nodeck", deck.Slot{Type: deck.SlotEntrance, CardUUID: "dd44"}), storage.ErrNotFound)

	first, err := s.AppendSlot(ctx, d.ID, deck.SlotFinish, "bb22")
	require.NoError(t, err)
	second, err := s.AppendSlot(ctx, d.ID, deck.SlotFinish, "aa11")
	require.NoError(t, err)
	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)
	alt, err := s.AppendSlot(ctx, d.ID, deck.SlotAlternate, "aa11")
	require.NoError(t, err)
	assert.Equal(t, 1, alt)
	_, err = s.AppendSlot(ctx, d.ID, deck.SlotDeck, "aa11")
	assert.ErrorIs(t, err, deck.ErrInvalidSlot)

	entries, err := s.DeckEntries(ctx, d.ID)
	require.NoError(t, err)
	var order []string
	for _, e := range entries {
		order = append(order, string(e.Type)+":"+e.Card.Name)
	}
	assert.Equal(t, []string{
		"ENTRANCE:Big Entrance",
		"COMPETITOR:Ace Steel",
		"DECK:Arm Bar",
		"FINISH:Arm Bar",
		"FINISH:Dropkick",
		"ALTERNATE:Dropkick",
	}, order)

	got, err := s.GetDeck(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, base.Add(time.Hour), got.ModifiedAt)

	listed, err := s.DecksInFolder(ctx, storage.DeckFolderSingles)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, 6, listed[0].CardCount)

	require.NoError(t, s.RemoveSlot(ctx, d.ID, deck.SlotFinish, 1))
	assert.ErrorIs(t, s.RemoveSlot(ctx, d.ID, deck.SlotFinish, 1), storage.ErrNotFound)

	require.NoError(t, s.ClearDeck(ctx, d.ID))
	slots, err := s.DeckSlots(ctx, d.ID)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestDecksInFolderOrderedByName(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.InsertDeck(ctx, deck.Deck{ID: "d1", FolderID: storage.DeckFolderSingles, Name: "zebra", ModifiedAt: base.Add(2 * time.Hour)}))
	require.NoError(t, s.InsertDeck(ctx, deck.Deck{ID: "d2", FolderID: storage.DeckFolderSingles, Name: "Alpha", ModifiedAt: base}))
	require.NoError(t, s.InsertDeck(ctx, deck.Deck{ID: "d3", FolderID: storage.DeckFolderSingles, Name: "mid", ModifiedAt: base.Add(time.Hour)}))

	listed, err := s.DecksInFolder(ctx, storage.DeckFolderSingles)
	require.NoError(t, err)
	var names []string
	for _, d := range listed {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"Alpha", "mid", "zebra"}, names)
}

func TestDeckFoldersAndDecks(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	d := newTestDeck(t, s)

	require.NoError(t, s.InsertDeckFolder(ctx, deck.Folder{ID: "df1", Name: "League", DisplayOrder: 4}))
	f, err := s.GetDeckFolderByName(ctx, "LEAGUE")
	require.NoError(t, err)
	assert.Equal(t, "df1", f.ID)

	d.FolderID = "df1"
	d.Name = "Renamed"
	d.Spectacle = deck.SpectacleNewman
	require.NoError(t, s.UpdateDeck(ctx, d))
	got, err := s.GetDeck(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, deck.SpectacleNewman, got.Spectacle)

	n, err := s.CountDecksInFolder(ctx, "df1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.ErrorIs(t, s.DeleteDeckFolder(ctx, storage.DeckFolderTag), storage.ErrNotFound)
	require.NoError(t, s.DeleteDeckFolder(ctx, "df1"))
	_, err = s.GetDeck(ctx, d.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSyncValues(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, ok, err := s.GetSyncValue(ctx, storage.SyncKeyCatalogHash)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SetSyncValue(ctx, storage.SyncKeyCatalogHash, "abc"))
	require.NoError(t, s.SetSyncValue(ctx, storage.SyncKeyCatalogHash, "def"))
	v, ok, err := s.GetSyncValue(ctx, storage.SyncKeyCatalogHash)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "def", v)
}

func TestAdoptLegacyCards(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.InsertLegacyCard(ctx, "aa11", "Dropkick", 2, 1))
	require.NoError(t, s.InsertLegacyCard(ctx, "custom-1", "Homebrew", 1, 0))

	n, err := s.AdoptLegacyCards(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	seedCards(t, s, dropkick)
	require.NoError(t, s.AddToFolder(ctx, storage.FolderOwned, "aa11", 1))
	n, err = s.AdoptLegacyCards(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	owned, _, err := s.FolderQuantity(ctx, storage.FolderOwned, "aa11")
	require.NoError(t, err)
	assert.Equal(t, 3, owned)
	wanted, _, err := s.FolderQuantity(ctx, storage.FolderWanted, "aa11")
	require.NoError(t, err)
	assert.Equal(t, 1, wanted)

	var left int
	require.NoError(t, s.sqlDB.QueryRow(`SELECT COUNT(*) FROM user_cards`).Scan(&left))
	assert.Equal(t, 1, left)
}

func writeSnapshot(t *testing.T, rows ...cards.Card) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "snapshot.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE cards (
		db_uuid TEXT PRIMARY KEY, name TEXT NOT NULL, card_type TEXT NOT NULL, rules_text TEXT,
		errata_text TEXT, is_banned INTEGER NOT NULL DEFAULT 0, release_set TEXT, srg_url TEXT,
		srgpc_url TEXT, comments TEXT, tags TEXT, power INTEGER, agility INTEGER, strike INTEGER,
		submission INTEGER, grapple INTEGER, technique INTEGER, division TEXT, gender TEXT,
		deck_card_number INTEGER, atk_type TEXT, play_order TEXT, synced_at INTEGER NOT NULL)`)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE card_related_finishes (card_uuid TEXT, finish_uuid TEXT)`)
	require.NoError(t, err)
	for _, c := range rows {
		_, err = db.Exec(`INSERT INTO cards (`+cardColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			cardArgs(c, time.Unix(0, 0))...)
		require.NoError(t, err)
	}
	return path
}

func TestReplaceCatalogFrom(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	seedCards(t, s, dropkick, armBar)
	require.NoError(t, s.AddToFolder(ctx, storage.FolderOwned, "aa11", 2))
	require.NoError(t, s.AddToFolder(ctx, storage.FolderOwned, "bb22", 1))

	updated := dropkick
	updated.Name = "Dropkick II"
	path := writeSnapshot(t, updated, aceSteel)

	n, err := s.ReplaceCatalogFrom(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	held, err := s.FolderCards(ctx, storage.FolderOwned)
	require.NoError(t, err)
	require.Len(t, held, 1)
	assert.Equal(t, "Dropkick II", held[0].Card.Name)
	assert.Equal(t, 2, held[0].Quantity)

	_, err = s.GetCard(ctx, "bb22")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = s.GetCard(ctx, "cc33")
	require.NoError(t, err)

	_, err = s.ReplaceCatalogFrom(ctx, filepath.Join(t.TempDir(), "empty.db"))
	assert.Error(t, err)
}
