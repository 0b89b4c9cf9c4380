package catalogsync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/youruser/srginventory/internal/getdiced"
	imagepkg "github.com/youruser/srginventory/internal/image"
	"github.com/youruser/srginventory/internal/util"
)

// LocalManifestFile is kept next to the synced images.
const LocalManifestFile = "local_manifest.json"

// ImageProgress is reported after each successful download.
type ImageProgress struct {
	Downloaded int
	Total      int
}

type ImageSyncResult struct {
	Downloaded int `json:"downloaded"`
	ToSync     int `json:"to_sync"`
	Failed     int `json:"failed"`
}

type ImageStatus struct {
	ToSync      int `json:"to_sync"`
	ServerCount int `json:"server_count"`
}

func (s *Syncer) localManifestPath() string {
	return filepath.Join(s.images.Dir(), LocalManifestFile)
}

func readManifest(path string) (getdiced.ImageManifest, error) {
	var m getdiced.ImageManifest
	b, err := os.ReadFile(path)
	if err != nil {
		return m, err
	}
	if err := json.Unmarshal(b, &m); err != nil {
		return m, fmt.Errorf("parse %s: %w", path, err)
	}
	return m, nil
}

// loadManifest treats a missing file as empty and logs unreadable ones.
func (s *Syncer) loadManifest(path string) getdiced.ImageManifest {
	if path == "" {
		return getdiced.ImageManifest{}
	}
	m, err := readManifest(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.Printf("catalogsync: image manifest %s: %v", path, err)
	}
	return m
}

// localHashes overlays the synced manifest on top of the bundled one.
func (s *Syncer) localHashes() map[string]string {
	hashes := make(map[string]string)
	for uuid, info := range s.loadManifest(s.opts.BundledImageManifest).Images {
		hashes[uuid] = info.Hash
	}
	for uuid, info := range s.loadManifest(s.localManifestPath()).Images {
		hashes[uuid] = info.Hash
	}
	return hashes
}

// pending lists server images whose hash is unknown or different locally,
// sorted by uuid.
func pending(server getdiced.ImageManifest, local map[string]string) []string {
	var out []string
	for uuid, info := range server.Images {
		if h, ok := local[uuid]; !ok || h != info.Hash {
			out = append(out, uuid)
		}
	}
	sort.Strings(out)
	return out
}

// ImageStatus counts images to sync against the server manifest.
func (s *Syncer) ImageStatus(ctx context.Context) (ImageStatus, error) {
	server, err := s.remote.GetImageManifest(ctx)
	if err != nil {
		return ImageStatus{}, fmt.Errorf("fetch image manifest: %w", err)
	}
	return ImageStatus{
		ToSync:      len(pending(server, s.localHashes())),
		ServerCount: server.ImageCount,
	}, nil
}

// SyncImages downloads new and changed images into the sharded cache using a
// bounded worker pool. Failed downloads are logged and skipped; successful
// ones are merged into the local manifest.
func (s *Syncer) SyncImages(ctx context.Context, progress func(ImageProgress)) (ImageSyncResult, error) {
	if s.images == nil || s.images.Dir() == "" {
		return ImageSyncResult{}, errors.New("image directory is not configured")
	}
	server, err := s.remote.GetImageManifest(ctx)
	if err != nil {
		return ImageSyncResult{}, fmt.Errorf("fetch image manifest: %w", err)
	}
	todo := pending(server, s.localHashes())
	s.logger.Printf("catalogsync: %d of %d images to sync", len(todo), server.ImageCount)
	res := ImageSyncResult{ToSync: len(todo)}
	if len(todo) == 0 {
		return res, nil
	}

	var (
		mu     sync.Mutex
		synced = make(map[string]getdiced.ImageInfo)
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.ImageWorkers)
	for _, uuid := range todo {
		info := server.Images[uuid]
		g.Go(func() error {
			if !imagepkg.ValidUUID(uuid) {
				s.logger.Printf("catalogsync: skipping image with invalid uuid %q", uuid)
				mu.Lock()
				res.Failed++
				mu.Unlock()
				return nil
			}
			if err := s.downloadImage(gctx, uuid, info.Path); err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				s.logger.Printf("catalogsync: image %s: %v", uuid, err)
				mu.Lock()
				res.Failed++
				mu.Unlock()
				return nil
			}
			mu.Lock()
			synced[uuid] = info
			res.Downloaded++
			p := ImageProgress{Downloaded: res.Downloaded, Total: res.ToSync}
			mu.Unlock()
			if progress != nil {
				progress(p)
			}
			return nil
		})
	}
	waitErr := g.Wait()

	// keep whatever finished, even when cancelled
	if len(synced) > 0 {
		if err := s.mergeLocalManifest(server, synced); err != nil {
			return res, err
		}
	}
	if waitErr != nil {
		return res, waitErr
	}
	s.logger.Printf("catalogsync: image sync complete, downloaded %d/%d", res.Downloaded, res.ToSync)
	return res, nil
}

func (s *Syncer) downloadImage(ctx context.Context, uuid, path string) error {
	var buf bytes.Buffer
	if _, err := s.remote.DownloadImage(ctx, path, &buf); err != nil {
		return err
	}
	return s.images.Write(uuid, &buf)
}

func (s *Syncer) mergeLocalManifest(server getdiced.ImageManifest, synced map[string]getdiced.ImageInfo) error {
	local := s.loadManifest(s.localManifestPath())
	if local.Images == nil {
		local.Images = make(map[string]getdiced.ImageInfo, len(synced))
	}
	for uuid, info := range synced {
		local.Images[uuid] = info
	}
	local.Version = server.Version
	local.Generated = server.Generated
	local.ImageCount = len(local.Images)

	b, err := json.Marshal(local)
	if err != nil {
		return err
	}
	if err := util.WriteFileAtomic(s.localManifestPath(), bytes.NewReader(b)); err != nil {
		return fmt.Errorf("save local image manifest: %w", err)
	}
	return nil
}
