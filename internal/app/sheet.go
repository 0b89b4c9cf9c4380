package app

import (
	"context"
	"image"

	"golang.org/x/sync/errgroup"

	"github.com/youruser/srginventory/internal/catalogsync"
	"github.com/youruser/srginventory/internal/deck"
	imagepkg "github.com/youruser/srginventory/internal/image"
)

// RenderDeckSheet composes a deck's competitor, entrance and deck cards into
// one PNG. A non-empty qrText adds a QR code of it.
func (a *App) RenderDeckSheet(ctx context.Context, deckID, qrText string) ([]byte, error) {
	entries, err := a.Decks.Entries(ctx, deckID)
	if err != nil {
		return nil, err
	}

	sheet := imagepkg.DeckSheet{DeckCards: make([]image.Image, deck.MaxDeckSlot)}
	fetcher := a.Fetcher()

	g, gctx := errgroup.WithContext(ctx)
	workers := a.Config.ImageWorkers
	if workers <= 0 {
		workers = catalogsync.DefaultImageWorkers
	}
	g.SetLimit(workers)
	for _, e := range entries {
		var dst *image.Image
		switch e.Type {
		case deck.SlotCompetitor:
			dst = &sheet.Competitor
		case deck.SlotEntrance:
			dst = &sheet.Entrance
		case deck.SlotDeck:
			dst = &sheet.DeckCards[e.Number-deck.MinDeckSlot]
		default:
			continue
		}
		cardUUID := e.CardUUID
		g.Go(func() error {
			*dst = fetcher.Fetch(gctx, cardUUID)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if qrText != "" {
		qr, err := imagepkg.GenerateQRImage(qrText, imagepkg.DefaultQRSize)
		if err != nil {
			return nil, err
		}
		sheet.QR = qr
	}
	return imagepkg.EncodePNG(imagepkg.ComposeDeckImage(sheet))
}
