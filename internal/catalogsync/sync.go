// Package catalogsync keeps the local card catalogue and image cache in step
// with get-diced.com.
package catalogsync

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/youruser/srginventory/internal/cards"
	"github.com/youruser/srginventory/internal/getdiced"
	imagepkg "github.com/youruser/srginventory/internal/image"
	"github.com/youruser/srginventory/internal/storage"
)

const (
	DefaultBatchSize    = 100
	DefaultImageWorkers = 4
)

// Remote is the subset of the get-diced client used for syncing.
type Remote interface {
	SearchCards(ctx context.Context, q getdiced.CardQuery) (getdiced.PaginatedCardResponse, error)
	GetCardsManifest(ctx context.Context) (getdiced.CardsManifest, error)
	DownloadDatabase(ctx context.Context, w io.Writer) (int64, error)
	GetImageManifest(ctx context.Context) (getdiced.ImageManifest, error)
	DownloadImage(ctx context.Context, path string, w io.Writer) (int64, error)
}

// Store is the persistence the syncer writes to.
type Store interface {
	UpsertCards(ctx context.Context, batch []cards.Card) error
	ReplaceCatalogFrom(ctx context.Context, snapshotPath string) (int, error)
	CountCards(ctx context.Context) (int, error)
	storage.SyncStateStore
}

type Options struct {
	BatchSize int
	// BatchDelay pauses between card pages.
	BatchDelay time.Duration
	// TempDir receives downloaded database snapshots; empty means os.TempDir.
	TempDir              string
	BundledImageManifest string
	ImageWorkers         int
	Logger               *log.Logger
}

// Syncer runs card, database and image syncs.
type Syncer struct {
	remote Remote
	store  Store
	images *imagepkg.Store
	opts   Options
	logger *log.Logger
	now    func() time.Time
}

func New(remote Remote, store Store, images *imagepkg.Store, opts Options) *Syncer {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.ImageWorkers <= 0 {
		opts.ImageWorkers = DefaultImageWorkers
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Syncer{remote: remote, store: store, images: images, opts: opts, logger: logger, now: time.Now}
}

// CardProgress is reported after each page of a card sync.
type CardProgress struct {
	Synced int
	Total  int
}

type CardSyncResult struct {
	Synced  int `json:"synced"`
	Total   int `json:"total"`
	Adopted int `json:"adopted"`
}

// SyncCards pages through GET cards from offset 0, upserting each page. It
// stops once the offset reaches the reported total or a page comes back empty.
func (s *Syncer) SyncCards(ctx context.Context, progress func(CardProgress)) (CardSyncResult, error) {
	var res CardSyncResult
	offset := 0
	for {
		page, err := s.remote.SearchCards(ctx, getdiced.CardQuery{Limit: s.opts.BatchSize, Offset: offset})
		if err != nil {
			return res, fmt.Errorf("fetch cards at offset %d: %w", offset, err)
		}
		res.Total = page.TotalCount
		if len(page.Items) == 0 {
			break
		}
		if err := s.store.UpsertCards(ctx, getdiced.ToCards(page.Items, s.now())); err != nil {
			return res, fmt.Errorf("store cards at offset %d: %w", offset, err)
		}
		res.Synced += len(page.Items)
		offset += len(page.Items)
		if progress != nil {
			progress(CardProgress{Synced: res.Synced, Total: res.Total})
		}
		if offset >= page.TotalCount {
			break
		}
		if s.opts.BatchDelay > 0 {
			select {
			case <-ctx.Done():
				return res, ctx.Err()
			case <-time.After(s.opts.BatchDelay):
			}
		}
	}
	s.logger.Printf("catalogsync: synced %d of %d cards", res.Synced, res.Total)

	adopted, err := s.finish(ctx, "")
	if err != nil {
		return res, err
	}
	res.Adopted = adopted
	return res, nil
}

// finish adopts legacy collection rows and records the sync time, plus the
// catalogue hash when one is known.
func (s *Syncer) finish(ctx context.Context, hash string) (int, error) {
	adopted, err := s.store.AdoptLegacyCards(ctx)
	if err != nil {
		return 0, fmt.Errorf("adopt legacy cards: %w", err)
	}
	if adopted > 0 {
		s.logger.Printf("catalogsync: adopted %d legacy collection rows", adopted)
	}
	if hash != "" {
		if err := s.store.SetSyncValue(ctx, storage.SyncKeyCatalogHash, hash); err != nil {
			return adopted, err
		}
	}
	ms := strconv.FormatInt(s.now().UnixMilli(), 10)
	if err := s.store.SetSyncValue(ctx, storage.SyncKeyLastSync, ms); err != nil {
		return adopted, err
	}
	return adopted, nil
}

type DatabaseSyncResult struct {
	CardsUpdated    int  `json:"cards_updated"`
	AlreadyUpToDate bool `json:"already_up_to_date"`
	Adopted         int  `json:"adopted"`
}

// SyncDatabase downloads the catalogue snapshot when its manifest hash differs
// from the last one synced, and merges it into the store.
func (s *Syncer) SyncDatabase(ctx context.Context, progress func(string)) (DatabaseSyncResult, error) {
	report := func(msg string) {
		if progress != nil {
			progress(msg)
		}
	}
	report("Checking for updates...")
	manifest, err := s.remote.GetCardsManifest(ctx)
	if err != nil {
		return DatabaseSyncResult{}, fmt.Errorf("fetch cards manifest: %w", err)
	}
	local, ok, err := s.store.GetSyncValue(ctx, storage.SyncKeyCatalogHash)
	if err != nil {
		return DatabaseSyncResult{}, err
	}
	if ok && local == manifest.Hash {
		s.logger.Printf("catalogsync: database already up to date")
		return DatabaseSyncResult{AlreadyUpToDate: true}, nil
	}

	report("Downloading database...")
	s.logger.Printf("catalogsync: downloading database (%d cards, %s)",
		manifest.CardCount, humanize.Bytes(uint64(max(manifest.SizeBytes, 0))))
	tmp, err := os.CreateTemp(s.opts.TempDir, "srg-cards-*.db")
	if err != nil {
		return DatabaseSyncResult{}, fmt.Errorf("create snapshot file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := s.remote.DownloadDatabase(ctx, tmp); err != nil {
		tmp.Close()
		return DatabaseSyncResult{}, fmt.Errorf("download database: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return DatabaseSyncResult{}, err
	}

	report("Merging card data...")
	n, err := s.store.ReplaceCatalogFrom(ctx, tmp.Name())
	if err != nil {
		return DatabaseSyncResult{}, fmt.Errorf("merge database: %w", err)
	}
	adopted, err := s.finish(ctx, manifest.Hash)
	if err != nil {
		return DatabaseSyncResult{}, err
	}
	s.logger.Printf("catalogsync: database sync complete, %d cards", n)
	return DatabaseSyncResult{CardsUpdated: n, Adopted: adopted}, nil
}

// CheckSyncNeeded compares the stored catalogue hash with the server manifest
// and also returns the server's card count.
func (s *Syncer) CheckSyncNeeded(ctx context.Context) (bool, int, error) {
	manifest, err := s.remote.GetCardsManifest(ctx)
	if err != nil {
		return false, 0, fmt.Errorf("fetch cards manifest: %w", err)
	}
	local, ok, err := s.store.GetSyncValue(ctx, storage.SyncKeyCatalogHash)
	if err != nil {
		return false, 0, err
	}
	return !ok || local != manifest.Hash, manifest.CardCount, nil
}

// LastSync is the time of the last completed sync; ok is false if none ran.
func (s *Syncer) LastSync(ctx context.Context) (time.Time, bool, error) {
	v, ok, err := s.store.GetSyncValue(ctx, storage.SyncKeyLastSync)
	if err != nil || !ok {
		return time.Time{}, false, err
	}
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil || ms <= 0 {
		return time.Time{}, false, nil
	}
	return time.UnixMilli(ms), true, nil
}

// LastSyncString is "Never" or a relative time such as "3 hours ago".
func (s *Syncer) LastSyncString(ctx context.Context) (string, error) {
	at, ok, err := s.LastSync(ctx)
	if err != nil {
		return "", err
	}
	if !ok {
		return "Never", nil
	}
	return humanize.RelTime(at, s.now(), "ago", "from now"), nil
}

type Status struct {
	CardCount   int        `json:"card_count"`
	CatalogHash string     `json:"catalog_hash,omitempty"`
	LastSync    string     `json:"last_sync"`
	LastSyncAt  *time.Time `json:"last_sync_at,omitempty"`
}

// Status reports local sync state without touching the network.
func (s *Syncer) Status(ctx context.Context) (Status, error) {
	var st Status
	n, err := s.store.CountCards(ctx)
	if err != nil {
		return st, err
	}
	st.CardCount = n
	hash, _, err := s.store.GetSyncValue(ctx, storage.SyncKeyCatalogHash)
	if err != nil {
		return st, err
	}
	st.CatalogHash = hash
	at, ok, err := s.LastSync(ctx)
	if err != nil {
		return st, err
	}
	st.LastSync = "Never"
	if ok {
		st.LastSyncAt = &at
		st.LastSync = humanize.RelTime(at, s.now(), "ago", "from now")
	}
	return st, nil
}
