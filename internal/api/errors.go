package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/youruser/srginventory/internal/cards"
	"github.com/youruser/srginventory/internal/collection"
	"github.com/youruser/srginventory/internal/deck"
	"github.com/youruser/srginventory/internal/deckbuilder"
	"github.com/youruser/srginventory/internal/getdiced"
	"github.com/youruser/srginventory/internal/share"
	"github.com/youruser/srginventory/internal/storage"
)

var errBadRequest = errors.New("bad request")

var badRequestErrors = []error{
	errBadRequest,
	deck.ErrInvalidSlot,
	deck.ErrInvalidSpectacle,
	deck.ErrInvalidCSV,
	cards.ErrInvalidCSV,
	collection.ErrInvalidName,
	deckbuilder.ErrInvalidName,
	deckbuilder.ErrEmptyFolder,
	share.ErrInvalidReference,
	share.ErrWrongListType,
	share.ErrEmptyDeck,
	share.ErrNoTarget,
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, getdiced.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrAlreadyExists):
		return http.StatusConflict
	}
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	var remote *getdiced.Error
	if errors.As(err, &remote) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Printf("api: %s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
