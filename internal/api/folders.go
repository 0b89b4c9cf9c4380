package api

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/youruser/srginventory/internal/cards"
	"github.com/youruser/srginventory/internal/collection"
)

type nameRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *Handler) listFolders(c *gin.Context) {
	kind := collection.Kind(c.DefaultQuery("kind", string(collection.KindAll)))
	folders, err := h.app.Collection.List(c.Request.Context(), kind)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"folders": folders})
}

func (h *Handler) createFolder(c *gin.Context) {
	var req nameRequest
	if !bind(c, &req) {
		return
	}
	f, err := h.app.Collection.Create(c.Request.Context(), req.Name)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, f)
}

func (h *Handler) getFolder(c *gin.Context) {
	f, err := h.app.Collection.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

func (h *Handler) renameFolder(c *gin.Context) {
	var req nameRequest
	if !bind(c, &req) {
		return
	}
	if err := h.app.Collection.Rename(c.Request.Context(), c.Param("id"), req.Name); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) deleteFolder(c *gin.Context) {
	if err := h.app.Collection.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// folderCards filters in memory when any search parameter is given.
func (h *Handler) folderCards(c *gin.Context) {
	var filter *cards.SearchOptions
	if c.Request.URL.RawQuery != "" {
		var opt cards.SearchOptions
		if err := c.ShouldBindQuery(&opt); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		filter = &opt
	}
	held, err := h.app.Collection.Cards(c.Request.Context(), c.Param("id"), filter)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(held), "cards": held})
}

func (h *Handler) addFolderCard(c *gin.Context) {
	var req struct {
		CardUUID string `json:"card_uuid" binding:"required"`
		Quantity int    `json:"quantity"`
	}
	if !bind(c, &req) {
		return
	}
	if err := h.app.Collection.Add(c.Request.Context(), c.Param("id"), req.CardUUID, req.Quantity); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) setFolderCard(c *gin.Context) {
	var req struct {
		Quantity int `json:"quantity"`
	}
	if !bind(c, &req) {
		return
	}
	if err := h.app.Collection.SetQuantity(c.Request.Context(), c.Param("id"), c.Param("uuid"), req.Quantity); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) removeFolderCard(c *gin.Context) {
	if err := h.app.Collection.Remove(c.Request.Context(), c.Param("id"), c.Param("uuid")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) moveFolderCard(c *gin.Context) {
	var req struct {
		ToFolderID string `json:"to_folder_id" binding:"required"`
		Quantity   int    `json:"quantity"`
	}
	if !bind(c, &req) {
		return
	}
	err := h.app.Collection.Move(c.Request.Context(), c.Param("id"), req.ToFolderID, c.Param("uuid"), req.Quantity)
	if err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) exportFolder(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.app.Collection.ExportCSV(c.Request.Context(), c.Param("id"), &buf); err != nil {
		fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+c.Param("id")+`.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// importFolder reads a collection CSV from the request body.
func (h *Handler) importFolder(c *gin.Context) {
	res, err := h.app.Collection.ImportCSV(c.Request.Context(), c.Param("id"), c.Request.Body)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) shareFolder(c *gin.Context) {
	link, err := h.app.Share.ShareFolder(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, link)
}
