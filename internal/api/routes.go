package api

import (
	"github.com/gin-gonic/gin"

	"github.com/youruser/srginventory/internal/app"
)

// Handler serves the inventory API on top of a wired App.
type Handler struct {
	app *app.App
}

func NewHandler(a *app.App) *Handler {
	return &Handler{app: a}
}

func RegisterRoutes(r *gin.Engine, h *Handler) {
	api := r.Group("/api")
	{
		api.GET("/health", h.health)
		api.GET("/qr", qrHandler)

		api.GET("/cards", h.searchCards)
		api.GET("/cards/suggest", h.suggestCards)
		api.GET("/cards/facets", h.cardFacets)
		api.GET("/cards/:uuid", h.getCard)
		api.GET("/cards/:uuid/related", h.relatedCards)
		api.GET("/cards/:uuid/image", h.cardImage)
		api.GET("/cards/:uuid/folders", h.cardFolders)

		api.POST("/sync/cards", h.syncCards)
		api.POST("/sync/database", h.syncDatabase)
		api.GET("/sync/status", h.syncStatus)
		api.POST("/sync/images", h.syncImages)
		api.GET("/sync/images/status", h.imageStatus)

		api.GET("/folders", h.listFolders)
		api.POST("/folders", h.createFolder)
		api.GET("/folders/:id", h.getFolder)
		api.PUT("/folders/:id", h.renameFolder)
		api.DELETE("/folders/:id", h.deleteFolder)
		api.GET("/folders/:id/cards", h.folderCards)
		api.POST("/folders/:id/cards", h.addFolderCard)
		api.PUT("/folders/:id/cards/:uuid", h.setFolderCard)
		api.DELETE("/folders/:id/cards/:uuid", h.removeFolderCard)
		api.POST("/folders/:id/cards/:uuid/move", h.moveFolderCard)
		api.GET("/folders/:id/export", h.exportFolder)
		api.POST("/folders/:id/import", h.importFolder)
		api.POST("/folders/:id/share", h.shareFolder)

		api.GET("/deck-folders", h.listDeckFolders)
		api.POST("/deck-folders", h.createDeckFolder)
		api.PUT("/deck-folders/:id", h.renameDeckFolder)
		api.DELETE("/deck-folders/:id", h.deleteDeckFolder)
		api.GET("/deck-folders/:id/decks", h.listDecks)
		api.POST("/deck-folders/:id/decks", h.createDeck)

		api.GET("/decks/:id", h.getDeck)
		api.PUT("/decks/:id", h.updateDeck)
		api.DELETE("/decks/:id", h.deleteDeck)
		api.POST("/decks/:id/slots", h.putSlot)
		api.DELETE("/decks/:id/slots", h.clearDeck)
		api.DELETE("/decks/:id/slots/:type/:number", h.removeSlot)
		api.GET("/decks/:id/finishes", h.linkedFinishes)
		api.POST("/decks/:id/import-folder", h.importFolderIntoDeck)
		api.POST("/decks/:id/import-shared", h.importSharedIntoDeck)
		api.GET("/decks/:id/export", h.exportDeck)
		api.POST("/decks/:id/import", h.importDeckCSV)
		api.POST("/decks/:id/share", h.shareDeck)
		api.GET("/decks/:id/image", h.deckImage)

		api.GET("/shared", h.previewShared)
		api.POST("/shared/import", h.importShared)
		api.DELETE("/shared", h.deleteShared)
	}
}
