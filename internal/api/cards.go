package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/youruser/srginventory/internal/cards"
	imagepkg "github.com/youruser/srginventory/internal/image"
)

func (h *Handler) searchCards(c *gin.Context) {
	var opt cards.SearchOptions
	if err := c.ShouldBindQuery(&opt); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	out, err := h.app.Store.SearchCards(c.Request.Context(), opt)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(out), "cards": out})
}

func (h *Handler) suggestCards(c *gin.Context) {
	var opt cards.SearchOptions
	if err := c.ShouldBindQuery(&opt); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	names, err := h.app.Store.SuggestCardNames(c.Request.Context(), c.Query("prefix"), opt, queryInt(c, "limit", 0))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"names": names})
}

func (h *Handler) cardFacets(c *gin.Context) {
	ctx := c.Request.Context()
	types, err := h.app.Store.CardTypes(ctx)
	if err != nil {
		fail(c, err)
		return
	}
	sets, err := h.app.Store.ReleaseSets(ctx)
	if err != nil {
		fail(c, err)
		return
	}
	divisions, err := h.app.Store.Divisions(ctx)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"card_types": types, "release_sets": sets, "divisions": divisions})
}

func (h *Handler) getCard(c *gin.Context) {
	card, err := h.app.Store.GetCard(c.Request.Context(), c.Param("uuid"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, card)
}

func (h *Handler) relatedCards(c *gin.Context) {
	ctx := c.Request.Context()
	uuid := c.Param("uuid")
	if _, err := h.app.Store.GetCard(ctx, uuid); err != nil {
		fail(c, err)
		return
	}
	finishes, err := h.app.Store.RelatedFinishes(ctx, uuid)
	if err != nil {
		fail(c, err)
		return
	}
	related, err := h.app.Store.RelatedCards(ctx, uuid)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"finishes": finishes, "related": related})
}

// cardImage serves a synced image or redirects to the remote one.
func (h *Handler) cardImage(c *gin.Context) {
	loc := h.app.Images.Resolve(c.Param("uuid"), c.DefaultQuery("size", imagepkg.SizeThumbnail))
	if loc.Local {
		c.File(loc.Path)
		return
	}
	c.Redirect(http.StatusFound, loc.URL)
}

func (h *Handler) cardFolders(c *gin.Context) {
	folders, err := h.app.Collection.FoldersForCard(c.Request.Context(), c.Param("uuid"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"folders": folders})
}
