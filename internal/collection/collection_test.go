package collection

import (
	"bytes"
	"context"
	"io"
	"log"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youruser/srginventory/internal/cards"
	"github.com/youruser/srginventory/internal/storage"
	"github.com/youruser/srginventory/internal/storage/sqlite"
)

func intp(v int) *int { return &v }

func newService(t *testing.T) (*Service, *sqlite.Store) {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "srg.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.UpsertCards(context.Background(), []cards.Card{
		{UUID: "aa11", Name: "Hit, Run", CardType: cards.TypeMainDeck, DeckCardNumber: intp(7)},
		{UUID: "bb22", Name: "Ace Steel", CardType: cards.TypeSingleCompetitor, Division: "Men's"},
		{UUID: "cc33", Name: "Arm Bar", CardType: cards.TypeMainDeck, DeckCardNumber: intp(21)},
	}))
	svc := New(store, log.New(io.Discard, "", 0))
	require.NoError(t, svc.EnsureDefaults(context.Background()))
	return svc, store
}

func TestEnsureDefaultsIsIdempotent(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	require.NoError(t, svc.EnsureDefaults(ctx))

	all, err := svc.List(ctx, KindAll)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Owned", all[0].Name)
	assert.True(t, all[0].IsDefault)
}

func TestCreateRenameDelete(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "   ")
	assert.ErrorIs(t, err, ErrInvalidName)

	first, err := svc.Create(ctx, "Binder")
	require.NoError(t, err)
	assert.Equal(t, 3, first.DisplayOrder)
	second, err := svc.Create(ctx, "Box")
	require.NoError(t, err)
	assert.Equal(t, 4, second.DisplayOrder)

	custom, err := svc.List(ctx, KindCustom)
	require.NoError(t, err)
	require.Len(t, custom, 2)
	defaults, err := svc.List(ctx, KindDefault)
	require.NoError(t, err)
	assert.Len(t, defaults, 3)

	require.NoError(t, svc.Rename(ctx, first.ID, "Blue Binder"))
	got, err := svc.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Blue Binder", got.Name)

	found, err := svc.FindOrCreate(ctx, "blue binder")
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)
	made, err := svc.FindOrCreate(ctx, "Trade Bait")
	require.NoError(t, err)
	assert.Equal(t, 5, made.DisplayOrder)

	require.NoError(t, svc.Delete(ctx, first.ID))
	_, err = svc.Get(ctx, first.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDeleteDefaultFolderIsNoop(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	require.NoError(t, svc.Add(ctx, storage.FolderOwned, "aa11", 1))

	require.NoError(t, svc.Delete(ctx, storage.FolderOwned))
	f, err := svc.Get(ctx, storage.FolderOwned)
	require.NoError(t, err)
	assert.Equal(t, "Owned", f.Name)
	n, err := svc.Count(ctx, storage.FolderOwned)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestAddIncrementsQuantity(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, storage.FolderOwned, "aa11", 0))
	require.NoError(t, svc.Add(ctx, storage.FolderOwned, "aa11", 2))
	held, err := svc.Cards(ctx, storage.FolderOwned, nil)
	require.NoError(t, err)
	require.Len(t, held, 1)
	assert.Equal(t, 3, held[0].Quantity)

	require.NoError(t, svc.SetQuantity(ctx, storage.FolderOwned, "aa11", -1))
	_, ok, err := store.FolderQuantity(ctx, storage.FolderOwned, "aa11")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, svc.Add(ctx, storage.FolderOwned, "nope", 1), storage.ErrNotFound)
}

func TestCardsFilterAndFoldersForCard(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	require.NoError(t, svc.Add(ctx, storage.FolderWanted, "aa11", 1))
	require.NoError(t, svc.Add(ctx, storage.FolderWanted, "bb22", 1))
	require.NoError(t, svc.Add(ctx, storage.FolderTrade, "bb22", 1))

	held, err := svc.Cards(ctx, storage.FolderWanted, &cards.SearchOptions{CardType: cards.TypeSingleCompetitor})
	require.NoError(t, err)
	require.Len(t, held, 1)
	assert.Equal(t, "Ace Steel", held[0].Card.Name)

	_, err = svc.Cards(ctx, "missing", nil)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	folders, err := svc.FoldersForCard(ctx, "bb22")
	require.NoError(t, err)
	require.Len(t, folders, 2)
	assert.Equal(t, storage.FolderWanted, folders[0].ID)
	assert.Equal(t, storage.FolderTrade, folders[1].ID)
}

func TestMove(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	require.NoError(t, svc.Add(ctx, storage.FolderOwned, "aa11", 4))

	require.NoError(t, svc.Move(ctx, storage.FolderOwned, storage.FolderTrade, "aa11", 1))
	require.NoError(t, svc.Move(ctx, storage.FolderOwned, storage.FolderOwned, "aa11", 1))
	owned, _, err := store.FolderQuantity(ctx, storage.FolderOwned, "aa11")
	require.NoError(t, err)
	assert.Equal(t, 3, owned)

	require.NoError(t, svc.Move(ctx, storage.FolderOwned, storage.FolderTrade, "aa11", 0))
	trade, _, err := store.FolderQuantity(ctx, storage.FolderTrade, "aa11")
	require.NoError(t, err)
	assert.Equal(t, 4, trade)

	assert.ErrorIs(t, svc.Move(ctx, storage.FolderTrade, "missing", "aa11", 1), storage.ErrNotFound)
}

func TestMoveFromFolderWithoutCard(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	require.NoError(t, svc.Move(ctx, storage.FolderOwned, storage.FolderWanted, "cc33", 0))
	wanted, ok, err := store.FolderQuantity(ctx, storage.FolderWanted, "cc33")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, wanted)

	require.NoError(t, svc.Move(ctx, storage.FolderOwned, storage.FolderWanted, "cc33", 3))
	wanted, _, err = store.FolderQuantity(ctx, storage.FolderWanted, "cc33")
	require.NoError(t, err)
	assert.Equal(t, 4, wanted)

	_, ok, err = store.FolderQuantity(ctx, storage.FolderOwned, "cc33")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCSVExportImport(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	require.NoError(t, svc.Add(ctx, storage.FolderOwned, "aa11", 2))
	require.NoError(t, svc.Add(ctx, storage.FolderOwned, "bb22", 1))

	var buf bytes.Buffer
	require.NoError(t, svc.ExportCSV(ctx, storage.FolderOwned, &buf))
	assert.Equal(t, "Name,Quantity,Card Type,Deck #,Attack Type,Play Order,Division\n"+
		"Ace Steel,1,SingleCompetitor,,,,Men's\n"+
		"Hit-- Run,2,MainDeck,7,,,\n", buf.String())

	f, err := svc.Create(ctx, "Copy")
	require.NoError(t, err)
	res, err := svc.ImportCSV(ctx, f.ID, &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)
	assert.Empty(t, res.NotFound)

	held, err := svc.Cards(ctx, f.ID, nil)
	require.NoError(t, err)
	require.Len(t, held, 2)
	assert.Equal(t, 2, held[1].Quantity)

	res, err = svc.ImportCSV(ctx, f.ID, strings.NewReader("name,quantity\narm bar,2\nUnknown Card,1\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Imported)
	assert.Equal(t, []string{"Unknown Card"}, res.NotFound)
}
