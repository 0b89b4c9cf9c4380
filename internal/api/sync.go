package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) syncCards(c *gin.Context) {
	res, err := h.app.Sync.SyncCards(c.Request.Context(), nil)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) syncDatabase(c *gin.Context) {
	res, err := h.app.Sync.SyncDatabase(c.Request.Context(), nil)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) syncStatus(c *gin.Context) {
	st, err := h.app.Sync.Status(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) syncImages(c *gin.Context) {
	res, err := h.app.Sync.SyncImages(c.Request.Context(), nil)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) imageStatus(c *gin.Context) {
	st, err := h.app.Sync.ImageStatus(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}
