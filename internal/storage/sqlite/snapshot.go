package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
)

const snapshotSchema = "snap"

// ReplaceCatalogFrom merges the catalogue of a downloaded database file into
// the store. Cards are upserted in place so folder rows of surviving cards are
// kept; cards absent from the snapshot are deleted and their folder rows
// cascade. The related tables are replaced. It returns the snapshot card count.
func (s *Store) ReplaceCatalogFrom(ctx context.Context, snapshotPath string) (int, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	conn, err := s.sqlDB.Conn(ctx)
	if err != nil {
		return 0, fmt.Errorf("snapshot conn: %w", err)
	}
	defer conn.Close()

	// ATTACH is refused inside a transaction.
	if _, err := conn.ExecContext(ctx, `ATTACH DATABASE ? AS `+snapshotSchema, snapshotPath); err != nil {
		return 0, fmt.Errorf("attach snapshot: %w", err)
	}
	defer func() {
		if _, err := conn.ExecContext(context.Background(), `DETACH DATABASE `+snapshotSchema); err != nil {
			log.Printf("snapshot: detach: %v", err)
		}
	}()

	tables, err := snapshotTables(ctx, conn)
	if err != nil {
		return 0, err
	}
	if !tables["cards"] {
		return 0, fmt.Errorf("snapshot has no cards table")
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin snapshot merge: %w", err)
	}
	defer tx.Rollback()

	selectCols := strings.Replace(cardColumns, "synced_at", "?", 1)
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO cards (`+cardColumns+`)
		 SELECT `+selectCols+` FROM `+snapshotSchema+`.cards WHERE true
		 ON CONFLICT(db_uuid) DO UPDATE SET `+cardUpdateSet,
		toMillis(s.now())); err != nil {
		return 0, fmt.Errorf("merge snapshot cards: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM cards WHERE db_uuid NOT IN (SELECT db_uuid FROM `+snapshotSchema+`.cards)`); err != nil {
		return 0, fmt.Errorf("drop removed cards: %w", err)
	}

	related := []struct{ table, column string }{
		{"card_related_finishes", "finish_uuid"},
		{"card_related_cards", "related_uuid"},
	}
	for _, r := range related {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+r.table); err != nil {
			return 0, fmt.Errorf("clear %s: %w", r.table, err)
		}
		if !tables[r.table] {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO `+r.table+` (card_uuid, `+r.column+`)
			 SELECT card_uuid, `+r.column+` FROM `+snapshotSchema+`.`+r.table+`
			  WHERE card_uuid IN (SELECT db_uuid FROM cards)
			    AND `+r.column+` IN (SELECT db_uuid FROM cards)`); err != nil {
			return 0, fmt.Errorf("copy %s: %w", r.table, err)
		}
	}

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+snapshotSchema+`.cards`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count snapshot cards: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit snapshot merge: %w", err)
	}
	return count, nil
}

func snapshotTables(ctx context.Context, conn *sql.Conn) (map[string]bool, error) {
	rows, err := conn.QueryContext(ctx,
		`SELECT name FROM `+snapshotSchema+`.sqlite_master WHERE type = 'table'`)
	if err != nil {
		return nil, fmt.Errorf("read snapshot schema: %w", err)
	}
	names, err := collectStrings(rows)
	if err != nil {
		return nil, fmt.Errorf("read snapshot schema: %w", err)
	}
	out := make(map[string]bool, len(names))
	for _, n := range names {
		out[n] = true
	}
	return out, nil
}
