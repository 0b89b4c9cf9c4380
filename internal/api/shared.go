package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/youruser/srginventory/internal/getdiced"
	"github.com/youruser/srginventory/internal/share"
)

func (h *Handler) previewShared(c *gin.Context) {
	p, err := h.app.Share.Preview(c.Request.Context(), c.Query("ref"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// importShared imports a COLLECTION list into a folder or a DECK list as a
// new deck, depending on the list's type.
func (h *Handler) importShared(c *gin.Context) {
	var req struct {
		Ref        string `json:"ref" binding:"required"`
		TargetID   string `json:"target_id"`
		TargetName string `json:"target_name"`
	}
	if !bind(c, &req) {
		return
	}
	ctx := c.Request.Context()
	target := share.Target{ID: req.TargetID, Name: req.TargetName}
	p, err := h.app.Share.Preview(ctx, req.Ref)
	if err != nil {
		fail(c, err)
		return
	}
	if p.ListType == getdiced.ListTypeDeck {
		res, err := h.app.Share.ImportDeck(ctx, req.Ref, target)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, res)
		return
	}
	res, err := h.app.Share.ImportCollection(ctx, req.Ref, target)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) deleteShared(c *gin.Context) {
	if err := h.app.Share.Delete(c.Request.Context(), c.Query("ref")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
