package imagepkg

import (
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/youruser/srginventory/internal/util"
)

// Image sizes served by the remote host.
const (
	SizeThumbnail = "thumbnails"
	SizeFull      = "fullsize"
)

// ErrInvalidUUID rejects image keys that are not plain uuids.
var ErrInvalidUUID = errors.New("invalid image uuid")

var uuidPattern = regexp.MustCompile(`^[A-Za-z0-9-]+$`)

// ValidUUID reports whether uuid is safe to use as a cache file name.
func ValidUUID(uuid string) bool {
	return uuidPattern.MatchString(uuid)
}

// ShardedPath is "{uuid[:2]}/{uuid}.webp", the layout of both the local cache
// and the remote image tree.
func ShardedPath(uuid string) string {
	prefix := uuid
	if len(prefix) > 2 {
		prefix = prefix[:2]
	}
	return prefix + "/" + uuid + ".webp"
}

// RemoteURL is the public image URL of a card.
func RemoteURL(baseURL, uuid, size string) string {
	if size != SizeFull {
		size = SizeThumbnail
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return baseURL + "images/" + size + "/" + ShardedPath(uuid)
}

// Store is the on-disk cache of synced card images.
type Store struct {
	dir     string
	baseURL string
}

func NewStore(dir, baseURL string) *Store {
	return &Store{dir: dir, baseURL: baseURL}
}

func (s *Store) Dir() string { return s.dir }

// Path is where the image of uuid lives locally, present or not.
func (s *Store) Path(uuid string) string {
	return filepath.Join(s.dir, filepath.FromSlash(ShardedPath(uuid)))
}

func (s *Store) Has(uuid string) bool {
	return s.dir != "" && ValidUUID(uuid) && util.FileExists(s.Path(uuid))
}

// Write stores the image body for uuid, replacing any previous file.
func (s *Store) Write(uuid string, r io.Reader) error {
	if s.dir == "" {
		return fmt.Errorf("image store has no directory")
	}
	if !ValidUUID(uuid) {
		return fmt.Errorf("%w: %q", ErrInvalidUUID, uuid)
	}
	return util.WriteFileAtomic(s.Path(uuid), r)
}

func (s *Store) Open(uuid string) (*os.File, error) {
	if !ValidUUID(uuid) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidUUID, uuid)
	}
	return os.Open(s.Path(uuid))
}

// Location says where a card image can be read from.
type Location struct {
	Local bool   `json:"local"`
	Path  string `json:"path,omitempty"`
	URL   string `json:"url"`
}

// Resolve prefers a synced local file and falls back to the remote URL.
func (s *Store) Resolve(uuid, size string) Location {
	loc := Location{URL: RemoteURL(s.baseURL, uuid, size)}
	if s.Has(uuid) {
		loc.Local = true
		loc.Path = s.Path(uuid)
	}
	return loc
}

// Load decodes the local image of uuid.
func (s *Store) Load(uuid string) (image.Image, error) {
	f, err := s.Open(uuid)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, err := imaging.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %w", uuid, err)
	}
	return img, nil
}
