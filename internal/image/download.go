package imagepkg

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log"
	"net/http"

	"github.com/disintegration/imaging"

	"github.com/youruser/srginventory/internal/util"
)

// DownloadImage downloads an image from URL and decodes it.
func DownloadImage(ctx context.Context, client *http.Client, url string) (image.Image, error) {
	body, err := util.GetBytes(ctx, client, url)
	if err != nil {
		return nil, err
	}
	img, err := imaging.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", url, err)
	}
	return img, nil
}

// Fetcher loads card images from the local store, falling back to the remote
// thumbnail when Client is set.
type Fetcher struct {
	Store  *Store
	Client *http.Client
}

// Fetch returns nil when the image is unavailable anywhere.
func (f Fetcher) Fetch(ctx context.Context, uuid string) image.Image {
	if uuid == "" {
		return nil
	}
	if f.Store != nil && f.Store.Has(uuid) {
		img, err := f.Store.Load(uuid)
		if err == nil {
			return img
		}
		log.Printf("image: load %s: %v", uuid, err)
	}
	if f.Client == nil || f.Store == nil {
		return nil
	}
	img, err := DownloadImage(ctx, f.Client, RemoteURL(f.Store.baseURL, uuid, SizeThumbnail))
	if err != nil {
		log.Printf("image: fetch %s: %v", uuid, err)
		return nil
	}
	return img
}
