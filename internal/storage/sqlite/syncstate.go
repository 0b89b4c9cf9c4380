package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/youruser/srginventory/internal/storage"
)

func (s *Store) GetSyncValue(ctx context.Context, key string) (string, bool, error) {
	if err := s.ready(ctx); err != nil {
		return "", false, err
	}
	var value string
	err := s.sqlDB.QueryRowContext(ctx, `SELECT value FROM sync_state WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get sync value %s: %w", key, err)
	}
	return value, true, nil
}

func (s *Store) SetSyncValue(ctx context.Context, key, value string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO sync_state (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("set sync value %s: %w", key, err)
	}
	return nil
}

// AdoptLegacyCards moves schema v1 user_cards rows whose card_id is now a
// catalogue uuid into the Owned and Wanted folders, then deletes them.
// Rows that match no card stay for a later sync. It returns the rows adopted.
func (s *Store) AdoptLegacyCards(ctx context.Context) (int, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin adopt legacy cards: %w", err)
	}
	defer tx.Rollback()

	targets := []struct {
		folderID string
		column   string
	}{
		{storage.FolderOwned, "quantity_owned"},
		{storage.FolderWanted, "quantity_wanted"},
	}
	for _, t := range targets {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO folder_cards (folder_id, card_uuid, quantity, added_at)
			 SELECT ?, u.card_id, u.`+t.column+`, u.added_timestamp
			   FROM user_cards u
			   JOIN cards c ON c.db_uuid = u.card_id
			  WHERE u.`+t.column+` > 0
			 ON CONFLICT(folder_id, card_uuid) DO UPDATE SET quantity = quantity + excluded.quantity`,
			t.folderID)
		if err != nil {
			return 0, fmt.Errorf("adopt legacy cards into %s: %w", t.folderID, err)
		}
	}
	res, err := tx.ExecContext(ctx,
		`DELETE FROM user_cards WHERE card_id IN (SELECT db_uuid FROM cards)`)
	if err != nil {
		return 0, fmt.Errorf("delete adopted legacy cards: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit adopt legacy cards: %w", err)
	}
	return int(n), nil
}

// InsertLegacyCard writes a schema v1 row. Only tests and the import of old
// databases need it.
func (s *Store) InsertLegacyCard(ctx context.Context, cardID, name string, owned, wanted int) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO user_cards (card_id, card_name, quantity_owned, quantity_wanted, is_custom, added_timestamp)
		 VALUES (?, ?, ?, ?, 0, ?)`, cardID, name, owned, wanted, toMillis(s.now()))
	if err != nil {
		return fmt.Errorf("insert legacy card: %w", err)
	}
	return nil
}
