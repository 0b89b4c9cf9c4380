package imagepkg

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateQRPNG(t *testing.T) {
	b, err := GenerateQRPNG("https://get-diced.com/create-list?shared=abc", 256)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Equal(t, 256, img.Bounds().Dx())

	_, err = GenerateQRPNG("", 256)
	assert.Error(t, err)
}

func TestShardedPathsAndURLs(t *testing.T) {
	assert.Equal(t, "ab/abcdef.webp", ShardedPath("abcdef"))
	assert.Equal(t, "a/a.webp", ShardedPath("a"))
	assert.Equal(t, "https://get-diced.com/images/thumbnails/ab/abcdef.webp",
		RemoteURL("https://get-diced.com", "abcdef", ""))
	assert.Equal(t, "https://get-diced.com/images/fullsize/ab/abcdef.webp",
		RemoteURL("https://get-diced.com/", "abcdef", SizeFull))
}

func pngBytes(t *testing.T, c color.Color) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, imaging.New(20, 28, c)))
	return buf.Bytes()
}

func TestStoreResolveAndLoad(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir, "https://get-diced.com/")

	loc := s.Resolve("abcdef", SizeThumbnail)
	assert.False(t, loc.Local)
	assert.Equal(t, "https://get-diced.com/images/thumbnails/ab/abcdef.webp", loc.URL)

	// the decoder sniffs the format, so a PNG body stands in for webp here
	require.NoError(t, s.Write("abcdef", bytes.NewReader(pngBytes(t, color.White))))
	_, err := os.Stat(filepath.Join(dir, "ab", "abcdef.webp"))
	require.NoError(t, err)

	loc = s.Resolve("abcdef", SizeThumbnail)
	assert.True(t, loc.Local)
	assert.Equal(t, s.Path("abcdef"), loc.Path)

	img, err := s.Load("abcdef")
	require.NoError(t, err)
	assert.Equal(t, 20, img.Bounds().Dx())

	assert.Error(t, NewStore("", "").Write("abcdef", strings.NewReader("x")))
}

func TestStoreRejectsUnsafeUUIDs(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "images")
	s := NewStore(dir, "https://get-diced.com/")

	for _, uuid := range []string{"../escape", "aa/bb", "", "a.b", `..\x`} {
		assert.False(t, ValidUUID(uuid), uuid)
		assert.ErrorIs(t, s.Write(uuid, strings.NewReader("x")), ErrInvalidUUID, uuid)
		assert.False(t, s.Has(uuid), uuid)
		_, err := s.Open(uuid)
		assert.ErrorIs(t, err, ErrInvalidUUID, uuid)
	}
	_, err := os.Stat(filepath.Join(filepath.Dir(dir), "escape.webp"))
	assert.True(t, os.IsNotExist(err))

	assert.True(t, ValidUUID("0f9e-AB12-cd34"))
}

func TestFetcherFallsBackToRemote(t *testing.T) {
	body := pngBytes(t, color.Black)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/images/thumbnails/re/remote1.webp" {
			_, _ = w.Write(body)
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := Fetcher{Store: NewStore(t.TempDir(), srv.URL), Client: srv.Client()}
	ctx := context.Background()
	assert.NotNil(t, f.Fetch(ctx, "remote1"))
	assert.Nil(t, f.Fetch(ctx, "missing"))
	assert.Nil(t, f.Fetch(ctx, ""))
	assert.Nil(t, Fetcher{Store: f.Store}.Fetch(ctx, "remote1"))
}

func TestComposeDeckImage(t *testing.T) {
	red := imaging.New(10, 10, color.NRGBA{R: 0xff, A: 0xff})
	qr, err := GenerateQRImage("deck", 128)
	require.NoError(t, err)

	sheet := ComposeDeckImage(DeckSheet{
		Competitor: red,
		DeckCards:  []image.Image{red, nil, red},
		QR:         qr,
	})
	w, h := SheetSize()
	assert.Equal(t, image.Rect(0, 0, w, h), sheet.Bounds())

	// competitor area is red, the missing entrance is a grey placeholder
	assert.Equal(t, color.NRGBA{R: 0xff, A: 0xff}, sheet.NRGBAAt(sheetMargin+10, sheetMargin+10))
	assert.Equal(t, placeholderFill, sheet.NRGBAAt(sheetMargin*2+heroW+10, sheetMargin+10))

	b, err := EncodePNG(sheet)
	require.NoError(t, err)
	_, err = png.Decode(bytes.NewReader(b))
	require.NoError(t, err)
}
