// Package share publishes folders and decks as get-diced.com shared lists
// and imports shared lists back into the local inventory.
package share

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/youruser/srginventory/internal/cards"
	"github.com/youruser/srginventory/internal/deck"
	"github.com/youruser/srginventory/internal/getdiced"
	imagepkg "github.com/youruser/srginventory/internal/image"
	"github.com/youruser/srginventory/internal/storage"
)

var (
	ErrInvalidReference = errors.New("invalid shared list reference")
	ErrWrongListType    = errors.New("shared list has the wrong type")
	ErrEmptyDeck        = errors.New("cannot share an empty deck")
	ErrNoTarget         = errors.New("target id or name is required")
)

// DefaultDescription is attached to shared decks.
const DefaultDescription = "Shared from SRG Collection Manager"

// DefaultDeckName names imported decks whose list has no name.
const DefaultDeckName = "Imported Deck"

var idPattern = regexp.MustCompile(`^[a-zA-Z0-9-]+$`)

// Remote is the shared-list side of the get-diced client.
type Remote interface {
	CreateSharedList(ctx context.Context, req getdiced.SharedListRequest) (getdiced.SharedListCreated, error)
	GetSharedList(ctx context.Context, id string) (getdiced.SharedList, error)
	DeleteSharedList(ctx context.Context, id string) error
	GetCardsByUUIDs(ctx context.Context, uuids []string) (getdiced.CardBatchResponse, error)
}

// CardStore is the local catalogue.
type CardStore interface {
	GetCardsByUUIDs(ctx context.Context, uuids []string) ([]cards.Card, error)
	UpsertCards(ctx context.Context, batch []cards.Card) error
}

type Folders interface {
	Get(ctx context.Context, id string) (storage.Folder, error)
	FindOrCreate(ctx context.Context, name string) (storage.Folder, error)
	Cards(ctx context.Context, folderID string, opt *cards.SearchOptions) ([]cards.WithQuantity, error)
	Add(ctx context.Context, folderID, cardUUID string, quantity int) error
}

type Decks interface {
	GetDeck(ctx context.Context, id string) (deck.Deck, error)
	Entries(ctx context.Context, id string) ([]deck.Entry, error)
	GetFolder(ctx context.Context, id string) (deck.Folder, error)
	FindOrCreateFolder(ctx context.Context, name string) (deck.Folder, error)
	CreateDeck(ctx context.Context, folderID, name string, spectacle deck.Spectacle) (deck.Deck, error)
	Apply(ctx context.Context, deckID string, placements []deck.Placement) (int, error)
}

// Options configures a Service. BaseURL prefixes the relative link the
// service returns; Host marks references that are URLs.
type Options struct {
	BaseURL     string
	Host        string
	Description string
	Logger      *log.Logger
}

type Service struct {
	remote      Remote
	cards       CardStore
	folders     Folders
	decks       Decks
	baseURL     string
	host        string
	description string
	logger      *log.Logger
	now         func() time.Time
}

func New(remote Remote, cardStore CardStore, folders Folders, decks Decks, opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Description == "" {
		opts.Description = DefaultDescription
	}
	if opts.BaseURL == "" {
		opts.BaseURL = getdiced.DefaultBaseURL
	}
	return &Service{
		remote:      remote,
		cards:       cardStore,
		folders:     folders,
		decks:       decks,
		baseURL:     opts.BaseURL,
		host:        opts.Host,
		description: opts.Description,
		logger:      opts.Logger,
		now:         time.Now,
	}
}

// ParseReference extracts a shared list id from a bare id or a share URL
// such as https://get-diced.com/create-list?shared=abc-123.
func ParseReference(ref, host string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", ErrInvalidReference
	}
	if strings.Contains(ref, "http") || (host != "" && strings.Contains(ref, host)) {
		u, err := url.Parse(ref)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidReference, err)
		}
		ref = u.Query().Get("shared")
	}
	if !idPattern.MatchString(ref) {
		return "", ErrInvalidReference
	}
	return ref, nil
}

// Link is a created shared list.
type Link struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	CardCount int    `json:"card_count"`
}

func (s *Service) fullURL(link string) string {
	if strings.HasPrefix(link, "http://") || strings.HasPrefix(link, "https://") {
		return link
	}
	return strings.TrimSuffix(s.baseURL, "/") + "/" + strings.TrimPrefix(link, "/")
}

func (s *Service) publish(ctx context.Context, req getdiced.SharedListRequest) (Link, error) {
	created, err := s.remote.CreateSharedList(ctx, req)
	if err != nil {
		return Link{}, fmt.Errorf("create shared list: %w", err)
	}
	link := Link{ID: created.ID, URL: s.fullURL(created.URL), CardCount: len(req.CardUUIDs)}
	s.logger.Printf("share: published %s list %q as %s", req.ListType, req.Name, link.ID)
	return link, nil
}

// ShareFolder publishes a folder's cards as a COLLECTION list.
func (s *Service) ShareFolder(ctx context.Context, folderID string) (Link, error) {
	f, err := s.folders.Get(ctx, folderID)
	if err != nil {
		return Link{}, err
	}
	held, err := s.folders.Cards(ctx, folderID, nil)
	if err != nil {
		return Link{}, err
	}
	uuids := make([]string, 0, len(held))
	for _, h := range held {
		uuids = append(uuids, h.Card.UUID)
	}
	return s.publish(ctx, getdiced.SharedListRequest{
		Name:      f.Name,
		CardUUIDs: uuids,
		ListType:  getdiced.ListTypeCollection,
	})
}

// ShareDeck publishes a deck as a DECK list carrying its slots.
func (s *Service) ShareDeck(ctx context.Context, deckID string) (Link, error) {
	d, err := s.decks.GetDeck(ctx, deckID)
	if err != nil {
		return Link{}, err
	}
	entries, err := s.decks.Entries(ctx, deckID)
	if err != nil {
		return Link{}, err
	}
	if len(entries) == 0 {
		return Link{}, ErrEmptyDeck
	}
	slots := deck.SharedSlots(entries)
	data := &getdiced.DeckData{SpectacleType: string(d.Spectacle)}
	uuids := make([]string, 0, len(slots))
	for _, sl := range slots {
		uuids = append(uuids, sl.CardUUID)
		data.Slots = append(data.Slots, getdiced.DeckSlot{
			SlotType:   string(sl.Type),
			SlotNumber: sl.Number,
			CardUUID:   sl.CardUUID,
		})
	}
	return s.publish(ctx, getdiced.SharedListRequest{
		Name:        d.Name,
		Description: s.description,
		CardUUIDs:   uuids,
		ListType:    getdiced.ListTypeDeck,
		DeckData:    data,
	})
}

// QR renders a PNG QR code of the link URL.
func QR(link Link, size int) ([]byte, error) {
	return imagepkg.GenerateQRPNG(link.URL, size)
}

func (s *Service) fetch(ctx context.Context, ref string) (getdiced.SharedList, error) {
	id, err := ParseReference(ref, s.host)
	if err != nil {
		return getdiced.SharedList{}, err
	}
	list, err := s.remote.GetSharedList(ctx, id)
	if err != nil {
		return getdiced.SharedList{}, fmt.Errorf("get shared list %s: %w", id, err)
	}
	return list, nil
}

// Preview summarises a shared list without importing it.
type Preview struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	ListType    string         `json:"list_type"`
	CardCount   int            `json:"card_count"`
	Spectacle   deck.Spectacle `json:"spectacle_type,omitempty"`
}

func (s *Service) Preview(ctx context.Context, ref string) (Preview, error) {
	list, err := s.fetch(ctx, ref)
	if err != nil {
		return Preview{}, err
	}
	p := Preview{
		ID:          list.ID,
		Name:        list.Name,
		Description: list.Description,
		ListType:    list.ListType,
		CardCount:   len(list.CardUUIDs),
	}
	if list.DeckData != nil {
		p.Spectacle = deck.ParseSpectacle(list.DeckData.SpectacleType)
	}
	return p, nil
}

// ensureCards makes sure the given cards exist locally, fetching the missing
// ones from the remote service. It returns the set of uuids now known.
func (s *Service) ensureCards(ctx context.Context, uuids []string) (map[string]bool, error) {
	unique := make([]string, 0, len(uuids))
	seen := make(map[string]bool, len(uuids))
	for _, id := range uuids {
		if id != "" && !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	known := make(map[string]bool, len(unique))
	if len(unique) == 0 {
		return known, nil
	}
	local, err := s.cards.GetCardsByUUIDs(ctx, unique)
	if err != nil {
		return nil, err
	}
	for _, c := range local {
		known[c.UUID] = true
	}
	var missing []string
	for _, id := range unique {
		if !known[id] {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return known, nil
	}
	batch, err := s.remote.GetCardsByUUIDs(ctx, missing)
	if err != nil {
		return nil, fmt.Errorf("fetch missing cards: %w", err)
	}
	if len(batch.Rows) > 0 {
		if err := s.cards.UpsertCards(ctx, getdiced.ToCards(batch.Rows, s.now())); err != nil {
			return nil, err
		}
		for _, r := range batch.Rows {
			known[r.UUID] = true
		}
	}
	if len(batch.Missing) > 0 {
		s.logger.Printf("share: %d cards unknown to the server", len(batch.Missing))
	}
	return known, nil
}

// Target picks an existing folder by ID or creates one called Name.
type Target struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CollectionImport reports an imported COLLECTION list.
type CollectionImport struct {
	FolderID string `json:"folder_id"`
	Imported int    `json:"imported"`
	Missing  int    `json:"missing"`
}

// ImportCollection adds every card of a COLLECTION list to a folder, one copy
// per listed uuid.
func (s *Service) ImportCollection(ctx context.Context, ref string, target Target) (CollectionImport, error) {
	list, err := s.fetch(ctx, ref)
	if err != nil {
		return CollectionImport{}, err
	}
	if list.ListType != getdiced.ListTypeCollection {
		return CollectionImport{}, fmt.Errorf("%w: %s is a %s list", ErrWrongListType, list.ID, list.ListType)
	}
	folder, err := s.collectionTarget(ctx, target)
	if err != nil {
		return CollectionImport{}, err
	}
	known, err := s.ensureCards(ctx, list.CardUUIDs)
	if err != nil {
		return CollectionImport{}, err
	}
	res := CollectionImport{FolderID: folder.ID}
	for _, id := range list.CardUUIDs {
		if !known[id] {
			res.Missing++
			continue
		}
		if err := s.folders.Add(ctx, folder.ID, id, 1); err != nil {
			return res, err
		}
		res.Imported++
	}
	s.logger.Printf("share: imported %d cards into folder %q (%d missing)", res.Imported, folder.Name, res.Missing)
	return res, nil
}

func (s *Service) collectionTarget(ctx context.Context, t Target) (storage.Folder, error) {
	switch {
	case t.ID != "":
		return s.folders.Get(ctx, t.ID)
	case strings.TrimSpace(t.Name) != "":
		return s.folders.FindOrCreate(ctx, t.Name)
	}
	return storage.Folder{}, ErrNoTarget
}

func (s *Service) deckTarget(ctx context.Context, t Target) (deck.Folder, error) {
	switch {
	case t.ID != "":
		return s.decks.GetFolder(ctx, t.ID)
	case strings.TrimSpace(t.Name) != "":
		return s.decks.FindOrCreateFolder(ctx, t.Name)
	}
	return deck.Folder{}, ErrNoTarget
}

// DeckImport reports an imported DECK list.
type DeckImport struct {
	Deck    deck.Deck `json:"deck"`
	Placed  int       `json:"placed"`
	Missing int       `json:"missing"`
}

// ImportDeck creates a new deck in the target deck folder from a DECK list.
func (s *Service) ImportDeck(ctx context.Context, ref string, target Target) (DeckImport, error) {
	list, err := s.fetch(ctx, ref)
	if err != nil {
		return DeckImport{}, err
	}
	if list.ListType != getdiced.ListTypeDeck || list.DeckData == nil {
		return DeckImport{}, fmt.Errorf("%w: %s has no deck data", ErrWrongListType, list.ID)
	}
	folder, err := s.deckTarget(ctx, target)
	if err != nil {
		return DeckImport{}, err
	}

	uuids := make([]string, 0, len(list.DeckData.Slots))
	for _, sl := range list.DeckData.Slots {
		uuids = append(uuids, sl.CardUUID)
	}
	known, err := s.ensureCards(ctx, uuids)
	if err != nil {
		return DeckImport{}, err
	}

	name := strings.TrimSpace(list.Name)
	if name == "" {
		name = DefaultDeckName
	}
	d, err := s.decks.CreateDeck(ctx, folder.ID, name, deck.ParseSpectacle(list.DeckData.SpectacleType))
	if err != nil {
		return DeckImport{}, err
	}

	res := DeckImport{Deck: d}
	var placements []deck.Placement
	for _, sl := range list.DeckData.Slots {
		p, ok := deck.PlaceShared(sl.SlotType, sl.SlotNumber, sl.CardUUID)
		if !ok {
			continue
		}
		if !known[p.CardUUID] {
			res.Missing++
			continue
		}
		placements = append(placements, p)
	}
	res.Placed, err = s.decks.Apply(ctx, d.ID, placements)
	if err != nil {
		return res, err
	}
	s.logger.Printf("share: imported deck %q with %d cards (%d missing)", d.Name, res.Placed, res.Missing)
	return res, nil
}

// ImportIntoDeck adds every card of any shared list to an existing deck as
// alternates.
func (s *Service) ImportIntoDeck(ctx context.Context, ref, deckID string) (DeckImport, error) {
	d, err := s.decks.GetDeck(ctx, deckID)
	if err != nil {
		return DeckImport{}, err
	}
	list, err := s.fetch(ctx, ref)
	if err != nil {
		return DeckImport{}, err
	}
	known, err := s.ensureCards(ctx, list.CardUUIDs)
	if err != nil {
		return DeckImport{}, err
	}
	res := DeckImport{Deck: d}
	var placements []deck.Placement
	for _, id := range list.CardUUIDs {
		if !known[id] {
			res.Missing++
			continue
		}
		placements = append(placements, deck.Placement{Type: deck.SlotAlternate, CardUUID: id})
	}
	res.Placed, err = s.decks.Apply(ctx, deckID, placements)
	return res, err
}

func (s *Service) Delete(ctx context.Context, ref string) error {
	id, err := ParseReference(ref, s.host)
	if err != nil {
		return err
	}
	if err := s.remote.DeleteSharedList(ctx, id); err != nil {
		return fmt.Errorf("delete shared list %s: %w", id, err)
	}
	return nil
}
