// Package app wires the inventory's store, remote client and services from
// Config. The HTTP server and the CLI both build on it.
package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"path/filepath"

	"github.com/youruser/srginventory/internal/catalogsync"
	"github.com/youruser/srginventory/internal/collection"
	"github.com/youruser/srginventory/internal/config"
	"github.com/youruser/srginventory/internal/deckbuilder"
	"github.com/youruser/srginventory/internal/getdiced"
	imagepkg "github.com/youruser/srginventory/internal/image"
	"github.com/youruser/srginventory/internal/share"
	"github.com/youruser/srginventory/internal/storage/sqlite"
	"github.com/youruser/srginventory/internal/util"
)

// App bundles everything a command or handler needs.
type App struct {
	Config     config.Config
	Store      *sqlite.Store
	Client     *getdiced.Client
	HTTP       *http.Client
	Images     *imagepkg.Store
	Collection *collection.Service
	Decks      *deckbuilder.Service
	Share      *share.Service
	Sync       *catalogsync.Syncer
	Logger     *log.Logger
}

// New opens the database, makes sure default folders exist and builds the
// services. A nil logger means log.Default().
func New(ctx context.Context, cfg config.Config, logger *log.Logger) (*App, error) {
	if logger == nil {
		logger = log.Default()
	}
	if err := util.EnsureDir(filepath.Dir(cfg.DBPath)); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	if err := util.EnsureDir(cfg.ImageDir); err != nil {
		return nil, fmt.Errorf("create image dir: %w", err)
	}

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	httpClient := util.NewHTTPClient(cfg.HTTPTimeout)
	client := getdiced.NewClient(cfg.APIBaseURL, httpClient)
	images := imagepkg.NewStore(cfg.ImageDir, client.BaseURL())

	folders := collection.New(store, logger)
	decks := deckbuilder.New(store, logger)
	if err := folders.EnsureDefaults(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	if err := decks.EnsureDefaults(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}

	a := &App{
		Config:     cfg,
		Store:      store,
		Client:     client,
		HTTP:       httpClient,
		Images:     images,
		Collection: folders,
		Decks:      decks,
		Logger:     logger,
	}
	a.Share = share.New(client, store, folders, decks, share.Options{
		BaseURL:     client.BaseURL(),
		Host:        client.Host(),
		Description: cfg.ShareDescription,
		Logger:      logger,
	})
	a.Sync = catalogsync.New(client, store, images, catalogsync.Options{
		BatchSize:            cfg.SyncBatchSize,
		BatchDelay:           cfg.SyncBatchDelay,
		TempDir:              cfg.TempDir(),
		BundledImageManifest: cfg.BundledImageManifest,
		ImageWorkers:         cfg.ImageWorkers,
		Logger:               logger,
	})
	return a, nil
}

func (a *App) Close() error {
	return a.Store.Close()
}

// Fetcher loads card images from the synced store, falling back to the
// remote thumbnails.
func (a *App) Fetcher() imagepkg.Fetcher {
	return imagepkg.Fetcher{Store: a.Images, Client: a.HTTP}
}
