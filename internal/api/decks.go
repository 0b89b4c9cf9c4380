package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/youruser/srginventory/internal/deck"
)

func (h *Handler) listDeckFolders(c *gin.Context) {
	folders, err := h.app.Decks.ListFolders(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"folders": folders})
}

func (h *Handler) createDeckFolder(c *gin.Context) {
	var req nameRequest
	if !bind(c, &req) {
		return
	}
	f, err := h.app.Decks.CreateFolder(c.Request.Context(), req.Name)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, f)
}

func (h *Handler) renameDeckFolder(c *gin.Context) {
	var req nameRequest
	if !bind(c, &req) {
		return
	}
	if err := h.app.Decks.RenameFolder(c.Request.Context(), c.Param("id"), req.Name); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) deleteDeckFolder(c *gin.Context) {
	if err := h.app.Decks.DeleteFolder(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listDecks(c *gin.Context) {
	decks, err := h.app.Decks.ListDecks(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"decks": decks})
}

func (h *Handler) createDeck(c *gin.Context) {
	var req struct {
		Name      string         `json:"name" binding:"required"`
		Spectacle deck.Spectacle `json:"spectacle_type"`
	}
	if !bind(c, &req) {
		return
	}
	d, err := h.app.Decks.CreateDeck(c.Request.Context(), c.Param("id"), req.Name, req.Spectacle)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

func (h *Handler) getDeck(c *gin.Context) {
	detail, err := h.app.Decks.Detail(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// updateDeck applies whichever of name, spectacle and folder are present.
func (h *Handler) updateDeck(c *gin.Context) {
	var req struct {
		Name      *string         `json:"name"`
		Spectacle *deck.Spectacle `json:"spectacle_type"`
		FolderID  *string         `json:"folder_id"`
	}
	if !bind(c, &req) {
		return
	}
	ctx := c.Request.Context()
	id := c.Param("id")
	if req.Name != nil {
		if err := h.app.Decks.RenameDeck(ctx, id, *req.Name); err != nil {
			fail(c, err)
			return
		}
	}
	if req.Spectacle != nil {
		if err := h.app.Decks.SetSpectacle(ctx, id, *req.Spectacle); err != nil {
			fail(c, err)
			return
		}
	}
	if req.FolderID != nil {
		if err := h.app.Decks.MoveDeck(ctx, id, *req.FolderID); err != nil {
			fail(c, err)
			return
		}
	}
	d, err := h.app.Decks.GetDeck(ctx, id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) deleteDeck(c *gin.Context) {
	if err := h.app.Decks.DeleteDeck(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// putSlot fills a fixed slot, or appends a FINISH or ALTERNATE.
func (h *Handler) putSlot(c *gin.Context) {
	var req struct {
		SlotType   string `json:"slot_type" binding:"required"`
		SlotNumber int    `json:"slot_number"`
		CardUUID   string `json:"card_uuid" binding:"required"`
	}
	if !bind(c, &req) {
		return
	}
	t, ok := deck.ParseSlotType(req.SlotType)
	if !ok {
		fail(c, fmt.Errorf("%w: unknown slot type %q", deck.ErrInvalidSlot, req.SlotType))
		return
	}
	ctx := c.Request.Context()
	id := c.Param("id")
	n := req.SlotNumber
	var err error
	switch t {
	case deck.SlotEntrance:
		err = h.app.Decks.SetEntrance(ctx, id, req.CardUUID)
	case deck.SlotCompetitor:
		err = h.app.Decks.SetCompetitor(ctx, id, req.CardUUID)
	case deck.SlotDeck:
		err = h.app.Decks.SetDeckCard(ctx, id, n, req.CardUUID)
	case deck.SlotFinish:
		n, err = h.app.Decks.AddFinish(ctx, id, req.CardUUID)
	case deck.SlotAlternate:
		n, err = h.app.Decks.AddAlternate(ctx, id, req.CardUUID)
	}
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, deck.Slot{Type: t, Number: n, CardUUID: req.CardUUID})
}

func (h *Handler) removeSlot(c *gin.Context) {
	t, ok := deck.ParseSlotType(c.Param("type"))
	n, err := strconv.Atoi(c.Param("number"))
	if !ok || err != nil {
		fail(c, fmt.Errorf("%w: %s/%s", deck.ErrInvalidSlot, c.Param("type"), c.Param("number")))
		return
	}
	if err := h.app.Decks.RemoveSlot(c.Request.Context(), c.Param("id"), t, n); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) clearDeck(c *gin.Context) {
	if err := h.app.Decks.Clear(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) linkedFinishes(c *gin.Context) {
	finishes, err := h.app.Decks.LinkedFinishes(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"finishes": finishes})
}

func (h *Handler) importFolderIntoDeck(c *gin.Context) {
	var req struct {
		FolderID string `json:"folder_id" binding:"required"`
	}
	if !bind(c, &req) {
		return
	}
	plan, err := h.app.Decks.ImportFolder(c.Request.Context(), c.Param("id"), req.FolderID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": plan.Message(), "placed": len(plan.Placements)})
}

func (h *Handler) importSharedIntoDeck(c *gin.Context) {
	var req struct {
		Ref string `json:"ref" binding:"required"`
	}
	if !bind(c, &req) {
		return
	}
	res, err := h.app.Share.ImportIntoDeck(c.Request.Context(), req.Ref, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// exportDeck writes CSV by default, or a plain list with format=text.
func (h *Handler) exportDeck(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	if c.Query("format") == "text" {
		text, err := h.app.Decks.ExportText(ctx, id)
		if err != nil {
			fail(c, err)
			return
		}
		c.String(http.StatusOK, text)
		return
	}
	var buf bytes.Buffer
	if err := h.app.Decks.ExportCSV(ctx, id, &buf); err != nil {
		fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="deck-`+id+`.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (h *Handler) importDeckCSV(c *gin.Context) {
	res, err := h.app.Decks.ImportCSV(c.Request.Context(), c.Param("id"), c.Request.Body)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) shareDeck(c *gin.Context) {
	link, err := h.app.Share.ShareDeck(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, link)
}

// deckImage renders the deck sheet; qr adds a QR code of its value.
func (h *Handler) deckImage(c *gin.Context) {
	b, err := h.app.RenderDeckSheet(c.Request.Context(), c.Param("id"), c.Query("qr"))
	if err != nil {
		fail(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", b)
}
