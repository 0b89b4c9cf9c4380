package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youruser/srginventory/internal/app"
	"github.com/youruser/srginventory/internal/cards"
	"github.com/youruser/srginventory/internal/config"
	"github.com/youruser/srginventory/internal/deck"
	"github.com/youruser/srginventory/internal/getdiced"
	"github.com/youruser/srginventory/internal/share"
	"github.com/youruser/srginventory/internal/storage"
)

func intp(v int) *int { return &v }

func newRouter(t *testing.T) (*gin.Engine, *app.App) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	remote := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(remote.Close)

	dir := t.TempDir()
	cfg := config.Config{
		DBPath:        filepath.Join(dir, "srg.db"),
		APIBaseURL:    remote.URL,
		ImageDir:      filepath.Join(dir, "images"),
		SyncBatchSize: 100,
		ImageWorkers:  2,
	}
	a, err := app.New(context.Background(), cfg, log.New(io.Discard, "", 0))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	require.NoError(t, a.Store.UpsertCards(context.Background(), []cards.Card{
		{UUID: "aa11", Name: "Dropkick", CardType: cards.TypeMainDeck, DeckCardNumber: intp(3), ReleaseSet: "Core"},
		{UUID: "bb22", Name: "Ace Steel", CardType: cards.TypeSingleCompetitor, Division: "Men's"},
		{UUID: "cc33", Name: "Pyro Walk", CardType: cards.TypeEntrance},
	}))

	r := gin.New()
	RegisterRoutes(r, NewHandler(a))
	return r, a
}

func do(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if strings.HasPrefix(body, "{") {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
}

func TestHealthAndQR(t *testing.T) {
	r, _ := newRouter(t)

	w := do(t, r, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	var health struct {
		Status string `json:"status"`
		Cards  int    `json:"cards"`
	}
	decode(t, w, &health)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, 3, health.Cards)

	w = do(t, r, http.MethodGet, "/api/qr?text=hello&size=64", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))

	w = do(t, r, http.MethodGet, "/api/qr", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCardRoutes(t *testing.T) {
	r, _ := newRouter(t)

	w := do(t, r, http.MethodGet, "/api/cards?q=drop", "")
	require.Equal(t, http.StatusOK, w.Code)
	var search struct {
		Count int          `json:"count"`
		Cards []cards.Card `json:"cards"`
	}
	decode(t, w, &search)
	require.Equal(t, 1, search.Count)
	assert.Equal(t, "aa11", search.Cards[0].UUID)

	w = do(t, r, http.MethodGet, "/api/cards/suggest?prefix=p", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"names":["Pyro Walk"]}`, w.Body.String())

	w = do(t, r, http.MethodGet, "/api/cards/facets", "")
	require.Equal(t, http.StatusOK, w.Code)
	var facets map[string][]string
	decode(t, w, &facets)
	assert.Equal(t, []string{"Core"}, facets["release_sets"])

	w = do(t, r, http.MethodGet, "/api/cards/zz99", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodGet, "/api/cards/aa11/related", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodGet, "/api/cards/aa11/image?size=fullsize", "")
	require.Equal(t, http.StatusFound, w.Code)
	assert.True(t, strings.HasSuffix(w.Header().Get("Location"), "/images/fullsize/aa/aa11.webp"))
}

func TestFolderRoutes(t *testing.T) {
	r, _ := newRouter(t)

	w := do(t, r, http.MethodPost, "/api/folders", `{"name":"Binder"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var folder storage.Folder
	decode(t, w, &folder)
	assert.Equal(t, 3, folder.DisplayOrder)

	w = do(t, r, http.MethodPost, "/api/folders", `{"name":""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	base := "/api/folders/" + folder.ID
	require.Equal(t, http.StatusNoContent, do(t, r, http.MethodPost, base+"/cards", `{"card_uuid":"aa11","quantity":2}`).Code)
	require.Equal(t, http.StatusNoContent, do(t, r, http.MethodPost, base+"/cards", `{"card_uuid":"aa11"}`).Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodPost, base+"/cards", `{"card_uuid":"nope"}`).Code)

	w = do(t, r, http.MethodGet, base+"/cards", "")
	require.Equal(t, http.StatusOK, w.Code)
	var held struct {
		Cards []cards.WithQuantity `json:"cards"`
	}
	decode(t, w, &held)
	require.Len(t, held.Cards, 1)
	assert.Equal(t, 3, held.Cards[0].Quantity)

	w = do(t, r, http.MethodPost, base+"/cards/aa11/move", `{"to_folder_id":"owned","quantity":1}`)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, r, http.MethodGet, "/api/folders/owned/export", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Dropkick")

	w = do(t, r, http.MethodPost, "/api/folders/wanted/import", "Quantity,Name\n2,Ace Steel\n1,Nobody\n")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"imported":1,"not_found":["Nobody"]}`, w.Body.String())

	w = do(t, r, http.MethodPost, "/api/folders/owned/import", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodGet, "/api/cards/aa11/folders", "")
	require.Equal(t, http.StatusOK, w.Code)
	var cf struct {
		Folders []storage.Folder `json:"folders"`
	}
	decode(t, w, &cf)
	assert.Len(t, cf.Folders, 2)

	require.Equal(t, http.StatusNoContent, do(t, r, http.MethodDelete, "/api/folders/owned", "").Code)
	assert.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/api/folders/owned", "").Code)
	require.Equal(t, http.StatusNoContent, do(t, r, http.MethodDelete, base, "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, base, "").Code)
}

func TestDeckRoutes(t *testing.T) {
	r, _ := newRouter(t)

	w := do(t, r, http.MethodPost, "/api/deck-folders/singles/decks", `{"name":"Main"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var d deck.Deck
	decode(t, w, &d)
	assert.Equal(t, deck.SpectacleValiant, d.Spectacle)

	assert.Equal(t, http.StatusBadRequest,
		do(t, r, http.MethodPost, "/api/deck-folders/singles/decks", `{"name":"X","spectacle_type":"ODD"}`).Code)
	assert.Equal(t, http.StatusNotFound,
		do(t, r, http.MethodPost, "/api/deck-folders/none/decks", `{"name":"X"}`).Code)

	base := "/api/decks/" + d.ID
	require.Equal(t, http.StatusOK, do(t, r, http.MethodPost, base+"/slots", `{"slot_type":"competitor","card_uuid":"bb22"}`).Code)
	require.Equal(t, http.StatusOK, do(t, r, http.MethodPost, base+"/slots", `{"slot_type":"DECK","slot_number":3,"card_uuid":"aa11"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodPost, base+"/slots", `{"slot_type":"DECK","slot_number":31,"card_uuid":"aa11"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodPost, base+"/slots", `{"slot_type":"BENCH","card_uuid":"aa11"}`).Code)

	w = do(t, r, http.MethodPost, base+"/slots", `{"slot_type":"FINISH","card_uuid":"aa11"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"slot_type":"FINISH","slot_number":1,"card_uuid":"aa11"}`, w.Body.String())

	w = do(t, r, http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, w.Code)
	var detail struct {
		Cards    []deck.Entry `json:"cards"`
		Complete bool         `json:"complete"`
	}
	decode(t, w, &detail)
	require.Len(t, detail.Cards, 3)
	assert.Equal(t, deck.SlotCompetitor, detail.Cards[0].Type)
	assert.False(t, detail.Complete)

	w = do(t, r, http.MethodPut, base, `{"name":"Renamed","spectacle_type":"NEWMAN"}`)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &d)
	assert.Equal(t, "Renamed", d.Name)
	assert.Equal(t, deck.SpectacleNewman, d.Spectacle)

	w = do(t, r, http.MethodGet, base+"/export", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Slot Type,Slot Number,Card Name\nCOMPETITOR,0,\"Ace Steel\"\nDECK,3,\"Dropkick\"\nFINISH,1,\"Dropkick\"\n", w.Body.String())

	w = do(t, r, http.MethodGet, base+"/export?format=text", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "# Renamed\n"))

	require.Equal(t, http.StatusNoContent, do(t, r, http.MethodDelete, base+"/slots/FINISH/1", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodDelete, base+"/slots/FINISH/1", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodDelete, base+"/slots/FINISH/x", "").Code)

	w = do(t, r, http.MethodPost, base+"/import-folder", `{"folder_id":"trade"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodGet, base+"/image", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))

	w = do(t, r, http.MethodGet, "/api/deck-folders", "")
	require.Equal(t, http.StatusOK, w.Code)
	var folders struct {
		Folders []struct {
			ID        string `json:"id"`
			DeckCount int    `json:"deck_count"`
		} `json:"folders"`
	}
	decode(t, w, &folders)
	require.Len(t, folders.Folders, 4)
	assert.Equal(t, 1, folders.Folders[0].DeckCount)

	require.Equal(t, http.StatusNoContent, do(t, r, http.MethodDelete, base+"/slots", "").Code)
	require.Equal(t, http.StatusNoContent, do(t, r, http.MethodDelete, base, "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, base, "").Code)
}

func TestSharedRoutesMapRemoteErrors(t *testing.T) {
	r, _ := newRouter(t)

	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodGet, "/api/shared?ref=not+valid", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/api/shared?ref=abc-123", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodDelete, "/api/shared?ref=abc-123", "").Code)
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("wrapped: %w", storage.ErrNotFound), http.StatusNotFound},
		{storage.ErrAlreadyExists, http.StatusConflict},
		{deck.ErrInvalidSlot, http.StatusBadRequest},
		{share.ErrEmptyDeck, http.StatusBadRequest},
		{fmt.Errorf("%w: empty file", cards.ErrInvalidCSV), http.StatusBadRequest},
		{fmt.Errorf("%w: eof", deck.ErrInvalidCSV), http.StatusBadRequest},
		{&getdiced.Error{StatusCode: http.StatusNotFound}, http.StatusNotFound},
		{&getdiced.Error{StatusCode: http.StatusServiceUnavailable}, http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusFor(tc.err), tc.err.Error())
	}
}
