package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/youruser/srginventory/internal/deck"
	"github.com/youruser/srginventory/internal/storage"
)

const deckFolderColumns = `id, name, is_default, display_order`

func scanDeckFolder(row rowScanner) (deck.Folder, error) {
	var (
		f         deck.Folder
		isDefault int
	)
	if err := row.Scan(&f.ID, &f.Name, &isDefault, &f.DisplayOrder); err != nil {
		return deck.Folder{}, err
	}
	f.IsDefault = isDefault != 0
	return f, nil
}

func (s *Store) ListDeckFolders(ctx context.Context) ([]deck.Folder, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT `+deckFolderColumns+` FROM deck_folders ORDER BY display_order ASC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list deck folders: %w", err)
	}
	defer rows.Close()
	var out []deck.Folder
	for rows.Next() {
		f, err := scanDeckFolder(rows)
		if err != nil {
			return nil, fmt.Errorf("list deck folders: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *Store) GetDeckFolder(ctx context.Context, id string) (deck.Folder, error) {
	if err := s.ready(ctx); err != nil {
		return deck.Folder{}, err
	}
	f, err := scanDeckFolder(s.sqlDB.QueryRowContext(ctx,
		`SELECT `+deckFolderColumns+` FROM deck_folders WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return deck.Folder{}, storage.ErrNotFound
	}
	if err != nil {
		return deck.Folder{}, fmt.Errorf("get deck folder: %w", err)
	}
	return f, nil
}

func (s *Store) GetDeckFolderByName(ctx context.Context, name string) (deck.Folder, error) {
	if err := s.ready(ctx); err != nil {
		return deck.Folder{}, err
	}
	f, err := scanDeckFolder(s.sqlDB.QueryRowContext(ctx,
		`SELECT `+deckFolderColumns+` FROM deck_folders WHERE name = ? COLLATE NOCASE ORDER BY display_order LIMIT 1`,
		strings.TrimSpace(name)))
	if errors.Is(err, sql.ErrNoRows) {
		return deck.Folder{}, storage.ErrNotFound
	}
	if err != nil {
		return deck.Folder{}, fmt.Errorf("get deck folder by name: %w", err)
	}
	return f, nil
}

func (s *Store) InsertDeckFolder(ctx context.Context, f deck.Folder) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO deck_folders (`+deckFolderColumns+`) VALUES (?, ?, ?, ?)`,
		f.ID, f.Name, boolInt(f.IsDefault), f.DisplayOrder)
	if isUniqueViolation(err) {
		return storage.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("insert deck folder: %w", err)
	}
	return nil
}

func (s *Store) InsertDeckFolderIfMissing(ctx context.Context, f deck.Folder) error {
	if err := s.InsertDeckFolder(ctx, f); err != nil && !errors.Is(err, storage.ErrAlreadyExists) {
		return err
	}
	return nil
}

func (s *Store) RenameDeckFolder(ctx context.Context, id, name string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	res, err := s.sqlDB.ExecContext(ctx, `UPDATE deck_folders SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return fmt.Errorf("rename deck folder: %w", err)
	}
	return requireAffected(res)
}

// DeleteDeckFolder removes a custom deck folder together with its decks.
func (s *Store) DeleteDeckFolder(ctx context.Context, id string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	res, err := s.sqlDB.ExecContext(ctx, `DELETE FROM deck_folders WHERE id = ? AND is_default = 0`, id)
	if err != nil {
		return fmt.Errorf("delete deck folder: %w", err)
	}
	return requireAffected(res)
}

func (s *Store) CountCustomDeckFolders(ctx context.Context) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM deck_folders WHERE is_default = 0`)
}

func (s *Store) CountDecksInFolder(ctx context.Context, folderID string) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM decks WHERE folder_id = ?`, folderID)
}

const deckColumns = `id, folder_id, name, spectacle_type, created_at, modified_at`

func scanDeck(row rowScanner, extra ...any) (deck.Deck, error) {
	var (
		d                    deck.Deck
		spectacle            string
		createdAt, modified int64
	)
	dest := append([]any{&d.ID, &d.FolderID, &d.Name, &spectacle, &createdAt, &modified}, extra...)
	if err := row.Scan(dest...); err != nil {
		return deck.Deck{}, err
	}
	d.Spectacle = deck.Spectacle(spectacle)
	d.CreatedAt = fromMillis(createdAt)
	d.ModifiedAt = fromMillis(modified)
	return d, nil
}

func (s *Store) InsertDeck(ctx context.Context, d deck.Deck) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	now := s.now()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	if d.ModifiedAt.IsZero() {
		d.ModifiedAt = d.CreatedAt
	}
	if d.Spectacle == "" {
		d.Spectacle = deck.SpectacleValiant
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO decks (`+deckColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		d.ID, d.FolderID, d.Name, string(d.Spectacle), toMillis(d.CreatedAt), toMillis(d.ModifiedAt))
	switch {
	case isUniqueViolation(err):
		return storage.ErrAlreadyExists
	case isForeignKeyViolation(err):
		return storage.ErrNotFound
	case err != nil:
		return fmt.Errorf("insert deck: %w", err)
	}
	return nil
}

func (s *Store) GetDeck(ctx context.Context, id string) (deck.Deck, error) {
	if err := s.ready(ctx); err != nil {
		return deck.Deck{}, err
	}
	d, err := scanDeck(s.sqlDB.QueryRowContext(ctx, `SELECT `+deckColumns+` FROM decks WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return deck.Deck{}, storage.ErrNotFound
	}
	if err != nil {
		return deck.Deck{}, fmt.Errorf("get deck: %w", err)
	}
	return d, nil
}

// UpdateDeck saves name, folder and spectacle and stamps modified_at.
func (s *Store) UpdateDeck(ctx context.Context, d deck.Deck) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	modified := d.ModifiedAt
	if modified.IsZero() {
		modified = s.now()
	}
	res, err := s.sqlDB.ExecContext(ctx,
		`UPDATE decks SET folder_id = ?, name = ?, spectacle_type = ?, modified_at = ? WHERE id = ?`,
		d.FolderID, d.Name, string(d.Spectacle), toMillis(modified), d.ID)
	if isForeignKeyViolation(err) {
		return storage.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update deck: %w", err)
	}
	return requireAffected(res)
}

func (s *Store) DeleteDeck(ctx context.Context, id string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	res, err := s.sqlDB.ExecContext(ctx, `DELETE FROM decks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete deck: %w", err)
	}
	return requireAffected(res)
}

// DecksInFolder lists decks most recently modified first, with slot counts.
func (s *Store) DecksInFolder(ctx context.Context, folderID string) ([]storage.DeckWithCount, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT d.id, d.folder_id, d.name, d.spectacle_type, d.created_at, d.modified_at,
		        (SELECT COUNT(*) FROM deck_cards dc WHERE dc.deck_id = d.id)
		   FROM decks d
		  WHERE d.folder_id = ?
		  ORDER BY d.name COLLATE NOCASE ASC, d.id ASC`, folderID)
	if err != nil {
		return nil, fmt.Errorf("decks in folder: %w", err)
	}
	defer rows.Close()
	var out []storage.DeckWithCount
	for rows.Next() {
		var count int
		d, err := scanDeck(rows, &count)
		if err != nil {
			return nil, fmt.Errorf("decks in folder: %w", err)
		}
		out = append(out, storage.DeckWithCount{Deck: d, CardCount: count})
	}
	return out, rows.Err()
}

const slotOrder = `CASE dc.slot_type
	WHEN 'ENTRANCE' THEN 1
	WHEN 'COMPETITOR' THEN 2
	WHEN 'DECK' THEN 3
	WHEN 'FINISH' THEN 4
	WHEN 'ALTERNATE' THEN 5
	ELSE 6 END, dc.slot_number`

// DeckEntries returns filled slots joined with their cards in display order.
// Slots whose card is no longer in the catalogue are left out.
func (s *Store) DeckEntries(ctx context.Context, deckID string) ([]deck.Entry, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT `+prefixed("c")+`, dc.slot_type, dc.slot_number
		   FROM deck_cards dc
		   JOIN cards c ON c.db_uuid = dc.card_uuid
		  WHERE dc.deck_id = ?
		  ORDER BY `+slotOrder, deckID)
	if err != nil {
		return nil, fmt.Errorf("deck entries: %w", err)
	}
	defer rows.Close()
	var out []deck.Entry
	for rows.Next() {
		var (
			slotType string
			number   int
		)
		c, err := scanCard(rows, &slotType, &number)
		if err != nil {
			return nil, fmt.Errorf("deck entries: %w", err)
		}
		out = append(out, deck.Entry{
			Slot: deck.Slot{Type: deck.SlotType(slotType), Number: number, CardUUID: c.UUID},
			Card: c,
		})
	}
	return out, rows.Err()
}

// DeckSlots returns every slot, including those pointing at unknown cards.
func (s *Store) DeckSlots(ctx context.Context, deckID string) ([]deck.Slot, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT dc.slot_type, dc.slot_number, dc.card_uuid FROM deck_cards dc
		  WHERE dc.deck_id = ? ORDER BY `+slotOrder, deckID)
	if err != nil {
		return nil, fmt.Errorf("deck slots: %w", err)
	}
	defer rows.Close()
	var out []deck.Slot
	for rows.Next() {
		var (
			slot     deck.Slot
			slotType string
		)
		if err := rows.Scan(&slotType, &slot.Number, &slot.CardUUID); err != nil {
			return nil, fmt.Errorf("deck slots: %w", err)
		}
		slot.Type = deck.SlotType(slotType)
		out = append(out, slot)
	}
	return out, rows.Err()
}

// PutSlot fills a slot, replacing whatever card held it.
func (s *Store) PutSlot(ctx context.Context, deckID string, slot deck.Slot) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if err := deck.ValidateSlot(slot.Type, slot.Number); err != nil {
		return err
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin put slot: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO deck_cards (deck_id, card_uuid, slot_type, slot_number) VALUES (?, ?, ?, ?)
		 ON CONFLICT(deck_id, slot_type, slot_number) DO UPDATE SET card_uuid = excluded.card_uuid`,
		deckID, slot.CardUUID, string(slot.Type), slot.Number)
	if isForeignKeyViolation(err) {
		return storage.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("put slot: %w", err)
	}
	if err := touchDeck(ctx, tx, deckID, s.now()); err != nil {
		return err
	}
	return tx.Commit()
}

// AppendSlot adds a FINISH or ALTERNATE at the next free number and returns it.
func (s *Store) AppendSlot(ctx context.Context, deckID string, t deck.SlotType, cardUUID string) (int, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	if t != deck.SlotFinish && t != deck.SlotAlternate {
		return 0, fmt.Errorf("%w: cannot append to %s", deck.ErrInvalidSlot, t)
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin append slot: %w", err)
	}
	defer tx.Rollback()

	var next int
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(slot_number), 0) + 1 FROM deck_cards WHERE deck_id = ? AND slot_type = ?`,
		deckID, string(t)).Scan(&next); err != nil {
		return 0, fmt.Errorf("append slot: next number: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO deck_cards (deck_id, card_uuid, slot_type, slot_number) VALUES (?, ?, ?, ?)`,
		deckID, cardUUID, string(t), next)
	if isForeignKeyViolation(err) {
		return 0, storage.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("append slot: %w", err)
	}
	if err := touchDeck(ctx, tx, deckID, s.now()); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit append slot: %w", err)
	}
	return next, nil
}

func (s *Store) RemoveSlot(ctx context.Context, deckID string, t deck.SlotType, number int) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin remove slot: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM deck_cards WHERE deck_id = ? AND slot_type = ? AND slot_number = ?`,
		deckID, string(t), number)
	if err != nil {
		return fmt.Errorf("remove slot: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return err
	}
	if err := touchDeck(ctx, tx, deckID, s.now()); err != nil {
		return err
	}
	return tx.Commit()
}

// ClearDeck empties every slot of a deck.
func (s *Store) ClearDeck(ctx context.Context, deckID string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin clear deck: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM deck_cards WHERE deck_id = ?`, deckID); err != nil {
		return fmt.Errorf("clear deck: %w", err)
	}
	if err := touchDeck(ctx, tx, deckID, s.now()); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) TouchDeck(ctx context.Context, deckID string, at time.Time) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return touchDeck(ctx, s.sqlDB, deckID, at)
}

func touchDeck(ctx context.Context, db execer, deckID string, at time.Time) error {
	res, err := db.ExecContext(ctx, `UPDATE decks SET modified_at = ? WHERE id = ?`, toMillis(at), deckID)
	if err != nil {
		return fmt.Errorf("touch deck: %w", err)
	}
	return requireAffected(res)
}
