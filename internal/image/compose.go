package imagepkg

import (
	"bytes"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

const (
	sheetMargin  = 48
	sheetGap     = 8
	cardsPerRow  = 10
	sheetCardW   = 200
	sheetCardH   = 280
	heroW        = 400
	heroH        = 560
	sheetQRSize  = 400
	sheetMaxDeck = 30
)

var (
	sheetBackground = color.NRGBA{R: 0xee, G: 0xee, B: 0xee, A: 0xff}
	placeholderFill = color.NRGBA{R: 0xbb, G: 0xbb, B: 0xbb, A: 0xff}
)

// DeckSheet holds the images of one deck. DeckCards[i] is deck slot i+1 and
// may be nil for an empty or missing slot.
type DeckSheet struct {
	Competitor image.Image
	Entrance   image.Image
	DeckCards  []image.Image
	QR         image.Image
}

// SheetSize is the pixel size of a composed sheet.
func SheetSize() (int, int) {
	w := 2*sheetMargin + cardsPerRow*sheetCardW + (cardsPerRow-1)*sheetGap
	rows := (sheetMaxDeck + cardsPerRow - 1) / cardsPerRow
	h := sheetMargin + heroH + sheetMargin + rows*sheetCardH + (rows-1)*sheetGap + sheetMargin
	return w, h
}

func placeholder(w, h int) image.Image {
	return imaging.New(w, h, placeholderFill)
}

func fit(img image.Image, w, h int) image.Image {
	if img == nil {
		return placeholder(w, h)
	}
	return imaging.Resize(img, w, h, imaging.Lanczos)
}

// ComposeDeckImage lays out competitor and entrance on the top left, the QR
// code on the top right and the 30 deck slots in rows of ten below.
func ComposeDeckImage(sheet DeckSheet) *image.NRGBA {
	W, H := SheetSize()
	canvas := imaging.New(W, H, sheetBackground)

	canvas = imaging.Paste(canvas, fit(sheet.Competitor, heroW, heroH), image.Pt(sheetMargin, sheetMargin))
	canvas = imaging.Paste(canvas, fit(sheet.Entrance, heroW, heroH), image.Pt(sheetMargin*2+heroW, sheetMargin))

	if sheet.QR != nil {
		q := imaging.Resize(sheet.QR, sheetQRSize, sheetQRSize, imaging.Lanczos)
		canvas = imaging.Paste(canvas, q, image.Pt(W-sheetMargin-sheetQRSize, sheetMargin))
	}

	top := sheetMargin*2 + heroH
	for i := 0; i < sheetMaxDeck; i++ {
		var img image.Image
		if i < len(sheet.DeckCards) {
			img = sheet.DeckCards[i]
		}
		x := sheetMargin + (i%cardsPerRow)*(sheetCardW+sheetGap)
		y := top + (i/cardsPerRow)*(sheetCardH+sheetGap)
		canvas = imaging.Paste(canvas, fit(img, sheetCardW, sheetCardH), image.Pt(x, y))
	}
	return canvas
}

// EncodePNG renders img as PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
