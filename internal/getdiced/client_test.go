package getdiced

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, srv.Client())
}

func TestNewClientNormalizesBaseURL(t *testing.T) {
	c := NewClient("http://example.test", nil)
	assert.Equal(t, "http://example.test/", c.BaseURL())
	assert.Equal(t, "example.test", c.Host())

	assert.Equal(t, DefaultBaseURL, NewClient("", nil).BaseURL())
}

func TestSearchCards(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cards", r.URL.Path)
		assert.Equal(t, "50", r.URL.Query().Get("limit"))
		assert.Equal(t, "100", r.URL.Query().Get("offset"))
		assert.Equal(t, "MainDeckCard", r.URL.Query().Get("card_type"))
		assert.Empty(t, r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(`{"total_count": 2, "items": [
			{"db_uuid": "aa11", "name": "Dropkick", "card_type": "MainDeckCard", "deck_card_number": 3,
			 "tags": ["aerial"], "atk_type": "Strike"}]}`))
	})

	page, err := c.SearchCards(context.Background(), CardQuery{CardType: "MainDeckCard", Limit: 50, Offset: 100})
	require.NoError(t, err)
	assert.Equal(t, 2, page.TotalCount)
	require.Len(t, page.Items, 1)

	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	card := page.Items[0].ToCard(at)
	assert.Equal(t, "aa11", card.UUID)
	assert.Equal(t, "Strike", card.AtkType)
	assert.Equal(t, []string{"aerial"}, card.Tags)
	require.NotNil(t, card.DeckCardNumber)
	assert.Equal(t, 3, *card.DeckCardNumber)
	assert.Empty(t, card.RulesText)
	assert.Equal(t, at, card.SyncedAt)
}

func TestGetCardNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such card", http.StatusNotFound)
	})

	_, err := c.GetCard(context.Background(), "zz")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "no such card", apiErr.Body)
}

func TestServerErrorIsNotNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err := c.GetCardsManifest(context.Background())
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestGetCardsByUUIDs(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/cards/by-uuids", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var req CardBatchRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"aa11", "zz"}, req.UUIDs)
		_ = json.NewEncoder(w).Encode(CardBatchResponse{
			Rows:    []CardDTO{{UUID: "aa11", Name: "Dropkick", CardType: "MainDeckCard"}},
			Missing: []string{"zz"},
		})
	})

	res, err := c.GetCardsByUUIDs(context.Background(), []string{"aa11", "zz"})
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, []string{"zz"}, res.Missing)
}

func TestSharedListLifecycle(t *testing.T) {
	var deleted string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/shared-lists":
			var req SharedListRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, ListTypeDeck, req.ListType)
			if assert.NotNil(t, req.DeckData) {
				assert.Equal(t, "VALIANT", req.DeckData.SpectacleType)
			}
			_ = json.NewEncoder(w).Encode(SharedListCreated{ID: "abc-123", URL: "/create-list?shared=abc-123", Message: "ok"})
		case r.Method == http.MethodGet && r.URL.Path == "/api/shared-lists/abc-123":
			_ = json.NewEncoder(w).Encode(SharedList{ID: "abc-123", Name: "My Deck", ListType: ListTypeDeck, CardUUIDs: []string{"aa11"}})
		case r.Method == http.MethodDelete && r.URL.Path == "/api/shared-lists/abc-123":
			deleted = "abc-123"
			w.WriteHeader(http.StatusNoContent)
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	created, err := c.CreateSharedList(ctx, SharedListRequest{
		Name:      "My Deck",
		CardUUIDs: []string{"aa11"},
		ListType:  ListTypeDeck,
		DeckData:  &DeckData{SpectacleType: "VALIANT", Slots: []DeckSlot{{SlotType: "DECK", SlotNumber: 3, CardUUID: "aa11"}}},
	})
	require.NoError(t, err)
	assert.Equal(t, "abc-123", created.ID)

	list, err := c.GetSharedList(ctx, "abc-123")
	require.NoError(t, err)
	assert.Equal(t, "My Deck", list.Name)

	require.NoError(t, c.DeleteSharedList(ctx, "abc-123"))
	assert.Equal(t, "abc-123", deleted)

	_, err = c.GetSharedList(ctx, "gone")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDownloads(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/cards/database":
			_, _ = w.Write([]byte("SQLite format 3"))
		case "/images/mobile/aa/aa11.webp":
			_, _ = w.Write([]byte("RIFF"))
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	var db bytes.Buffer
	n, err := c.DownloadDatabase(ctx, &db)
	require.NoError(t, err)
	assert.Equal(t, int64(15), n)
	assert.Equal(t, "SQLite format 3", db.String())

	var img bytes.Buffer
	_, err = c.DownloadImage(ctx, "/aa/aa11.webp", &img)
	require.NoError(t, err)
	assert.Equal(t, "RIFF", img.String())

	_, err = c.DownloadImage(ctx, "zz/zz.webp", &img)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestManifests(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/cards/manifest":
			_, _ = w.Write([]byte(`{"version": 1, "hash": "h1", "card_count": 4200}`))
		case "/api/images/manifest":
			_, _ = w.Write([]byte(`{"version": 1, "image_count": 1, "images": {"aa11": {"path": "aa/aa11.webp", "hash": "x"}}}`))
		}
	})
	ctx := context.Background()

	cm, err := c.GetCardsManifest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "h1", cm.Hash)
	assert.Equal(t, 4200, cm.CardCount)

	im, err := c.GetImageManifest(ctx)
	require.NoError(t, err)
	assert.Equal(t, ImageInfo{Path: "aa/aa11.webp", Hash: "x"}, im.Images["aa11"])
}
