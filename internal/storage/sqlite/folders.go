package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/youruser/srginventory/internal/cards"
	"github.com/youruser/srginventory/internal/storage"
)

const folderColumns = `id, name, is_default, display_order, created_at`

func scanFolder(row rowScanner) (storage.Folder, error) {
	var (
		f         storage.Folder
		isDefault int
		createdAt int64
	)
	if err := row.Scan(&f.ID, &f.Name, &isDefault, &f.DisplayOrder, &createdAt); err != nil {
		return storage.Folder{}, err
	}
	f.IsDefault = isDefault != 0
	f.CreatedAt = fromMillis(createdAt)
	return f, nil
}

func collectFolders(rows *sql.Rows) ([]storage.Folder, error) {
	defer rows.Close()
	var out []storage.Folder
	for rows.Next() {
		f, err := scanFolder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// ListFolders returns folders ordered by display order, then name.
func (s *Store) ListFolders(ctx context.Context) ([]storage.Folder, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT `+folderColumns+` FROM folders ORDER BY display_order ASC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	out, err := collectFolders(rows)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	return out, nil
}

func (s *Store) GetFolder(ctx context.Context, id string) (storage.Folder, error) {
	if err := s.ready(ctx); err != nil {
		return storage.Folder{}, err
	}
	f, err := scanFolder(s.sqlDB.QueryRowContext(ctx,
		`SELECT `+folderColumns+` FROM folders WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Folder{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.Folder{}, fmt.Errorf("get folder: %w", err)
	}
	return f, nil
}

func (s *Store) GetFolderByName(ctx context.Context, name string) (storage.Folder, error) {
	if err := s.ready(ctx); err != nil {
		return storage.Folder{}, err
	}
	f, err := scanFolder(s.sqlDB.QueryRowContext(ctx,
		`SELECT `+folderColumns+` FROM folders WHERE name = ? COLLATE NOCASE ORDER BY display_order LIMIT 1`,
		strings.TrimSpace(name)))
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Folder{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.Folder{}, fmt.Errorf("get folder by name: %w", err)
	}
	return f, nil
}

func (s *Store) InsertFolder(ctx context.Context, f storage.Folder) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	createdAt := f.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO folders (`+folderColumns+`) VALUES (?, ?, ?, ?, ?)`,
		f.ID, f.Name, boolInt(f.IsDefault), f.DisplayOrder, toMillis(createdAt))
	if isUniqueViolation(err) {
		return storage.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("insert folder: %w", err)
	}
	return nil
}

// InsertFolderIfMissing leaves an existing folder with the same id untouched.
func (s *Store) InsertFolderIfMissing(ctx context.Context, f storage.Folder) error {
	if err := s.InsertFolder(ctx, f); err != nil && !errors.Is(err, storage.ErrAlreadyExists) {
		return err
	}
	return nil
}

func (s *Store) RenameFolder(ctx context.Context, id, name string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	res, err := s.sqlDB.ExecContext(ctx, `UPDATE folders SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return fmt.Errorf("rename folder: %w", err)
	}
	return requireAffected(res)
}

// DeleteFolder removes a custom folder and, by cascade, its cards.
// Default folders are never matched.
func (s *Store) DeleteFolder(ctx context.Context, id string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	res, err := s.sqlDB.ExecContext(ctx, `DELETE FROM folders WHERE id = ? AND is_default = 0`, id)
	if err != nil {
		return fmt.Errorf("delete folder: %w", err)
	}
	return requireAffected(res)
}

func (s *Store) CountCustomFolders(ctx context.Context) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM folders WHERE is_default = 0`)
}

func (s *Store) count(ctx context.Context, query string, args ...any) (int, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	var n int
	if err := s.sqlDB.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// FolderCards returns a folder's cards with quantities, ordered by card name.
func (s *Store) FolderCards(ctx context.Context, folderID string) ([]cards.WithQuantity, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT `+prefixed("c")+`, fc.quantity, fc.added_at
		   FROM folder_cards fc
		   JOIN cards c ON c.db_uuid = fc.card_uuid
		  WHERE fc.folder_id = ?
		  ORDER BY c.name ASC`, folderID)
	if err != nil {
		return nil, fmt.Errorf("folder cards: %w", err)
	}
	defer rows.Close()
	var out []cards.WithQuantity
	for rows.Next() {
		var (
			wq      cards.WithQuantity
			addedAt int64
		)
		c, err := scanCard(rows, &wq.Quantity, &addedAt)
		if err != nil {
			return nil, fmt.Errorf("folder cards: %w", err)
		}
		wq.Card = c
		wq.AddedAt = fromMillis(addedAt)
		out = append(out, wq)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("folder cards: %w", err)
	}
	return out, nil
}

func (s *Store) FoldersForCard(ctx context.Context, cardUUID string) ([]storage.Folder, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT f.id, f.name, f.is_default, f.display_order, f.created_at
		   FROM folders f
		   JOIN folder_cards fc ON fc.folder_id = f.id
		  WHERE fc.card_uuid = ?
		  ORDER BY f.display_order ASC, f.name ASC`, cardUUID)
	if err != nil {
		return nil, fmt.Errorf("folders for card: %w", err)
	}
	out, err := collectFolders(rows)
	if err != nil {
		return nil, fmt.Errorf("folders for card: %w", err)
	}
	return out, nil
}

// FolderQuantity reports the quantity held; ok is false when the card is absent.
func (s *Store) FolderQuantity(ctx context.Context, folderID, cardUUID string) (int, bool, error) {
	if err := s.ready(ctx); err != nil {
		return 0, false, err
	}
	var qty int
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT quantity FROM folder_cards WHERE folder_id = ? AND card_uuid = ?`,
		folderID, cardUUID).Scan(&qty)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("folder quantity: %w", err)
	}
	return qty, true, nil
}

// AddToFolder inserts the card or increments the quantity already held.
func (s *Store) AddToFolder(ctx context.Context, folderID, cardUUID string, quantity int) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if quantity <= 0 {
		return nil
	}
	return addToFolder(ctx, s.sqlDB, folderID, cardUUID, quantity, toMillis(s.now()))
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func addToFolder(ctx context.Context, db execer, folderID, cardUUID string, quantity int, addedAt int64) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO folder_cards (folder_id, card_uuid, quantity, added_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(folder_id, card_uuid) DO UPDATE SET quantity = quantity + excluded.quantity`,
		folderID, cardUUID, quantity, addedAt)
	if isForeignKeyViolation(err) {
		return storage.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("add to folder: %w", err)
	}
	return nil
}

// SetFolderQuantity stores quantity exactly; zero or less removes the card.
func (s *Store) SetFolderQuantity(ctx context.Context, folderID, cardUUID string, quantity int) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if quantity <= 0 {
		_, err := s.sqlDB.ExecContext(ctx,
			`DELETE FROM folder_cards WHERE folder_id = ? AND card_uuid = ?`, folderID, cardUUID)
		if err != nil {
			return fmt.Errorf("set folder quantity: %w", err)
		}
		return nil
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO folder_cards (folder_id, card_uuid, quantity, added_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(folder_id, card_uuid) DO UPDATE SET quantity = excluded.quantity`,
		folderID, cardUUID, quantity, toMillis(s.now()))
	if isForeignKeyViolation(err) {
		return storage.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("set folder quantity: %w", err)
	}
	return nil
}

func (s *Store) RemoveFromFolder(ctx context.Context, folderID, cardUUID string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	res, err := s.sqlDB.ExecContext(ctx,
		`DELETE FROM folder_cards WHERE folder_id = ? AND card_uuid = ?`, folderID, cardUUID)
	if err != nil {
		return fmt.Errorf("remove from folder: %w", err)
	}
	return requireAffected(res)
}

// MoveBetweenFolders moves quantity copies from one folder to another in a
// single transaction. Moving everything the source holds removes its row.
// A source that does not hold the card still adds max(quantity, 1) copies to
// the target.
func (s *Store) MoveBetweenFolders(ctx context.Context, fromID, toID, cardUUID string, quantity int) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin move: %w", err)
	}
	defer tx.Rollback()

	var held int
	err = tx.QueryRowContext(ctx,
		`SELECT quantity FROM folder_cards WHERE folder_id = ? AND card_uuid = ?`,
		fromID, cardUUID).Scan(&held)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		held = 0
	case err != nil:
		return fmt.Errorf("move: read source: %w", err)
	}

	if held == 0 {
		quantity = max(quantity, 1)
	} else {
		if quantity <= 0 || quantity > held {
			quantity = held
		}
		if quantity == held {
			_, err = tx.ExecContext(ctx,
				`DELETE FROM folder_cards WHERE folder_id = ? AND card_uuid = ?`, fromID, cardUUID)
		} else {
			_, err = tx.ExecContext(ctx,
				`UPDATE folder_cards SET quantity = quantity - ? WHERE folder_id = ? AND card_uuid = ?`,
				quantity, fromID, cardUUID)
		}
		if err != nil {
			return fmt.Errorf("move: update source: %w", err)
		}
	}
	if err := addToFolder(ctx, tx, toID, cardUUID, quantity, toMillis(s.now())); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit move: %w", err)
	}
	return nil
}

func (s *Store) CountFolderCards(ctx context.Context, folderID string) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM folder_cards WHERE folder_id = ?`, folderID)
}
