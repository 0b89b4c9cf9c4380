package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/youruser/srginventory/internal/cards"
	"github.com/youruser/srginventory/internal/storage"
)

const cardColumns = `db_uuid, name, card_type, rules_text, errata_text, is_banned,
	release_set, srg_url, srgpc_url, comments, tags,
	power, agility, strike, submission, grapple, technique, division, gender,
	deck_card_number, atk_type, play_order, synced_at`

// cardUpdateSet refreshes every catalogue column on conflict. An upsert keeps
// the row, so folder_cards referencing it survive.
const cardUpdateSet = `name = excluded.name,
	card_type = excluded.card_type,
	rules_text = excluded.rules_text,
	errata_text = excluded.errata_text,
	is_banned = excluded.is_banned,
	release_set = excluded.release_set,
	srg_url = excluded.srg_url,
	srgpc_url = excluded.srgpc_url,
	comments = excluded.comments,
	tags = excluded.tags,
	power = excluded.power,
	agility = excluded.agility,
	strike = excluded.strike,
	submission = excluded.submission,
	grapple = excluded.grapple,
	technique = excluded.technique,
	division = excluded.division,
	gender = excluded.gender,
	deck_card_number = excluded.deck_card_number,
	atk_type = excluded.atk_type,
	play_order = excluded.play_order,
	synced_at = excluded.synced_at`

// prefixed qualifies every card column with a table alias.
func prefixed(alias string) string {
	cols := strings.Split(cardColumns, ",")
	for i, c := range cols {
		cols[i] = alias + "." + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner, extra ...any) (cards.Card, error) {
	var (
		c                                                          cards.Card
		rules, errata, set, srg, srgpc, comments, tags             sql.NullString
		division, gender, atk, play                                sql.NullString
		power, agility, strike, submission, grapple, tech, deckNum sql.NullInt64
		banned                                                     int
		syncedAt                                                   int64
	)
	dest := []any{
		&c.UUID, &c.Name, &c.CardType, &rules, &errata, &banned,
		&set, &srg, &srgpc, &comments, &tags,
		&power, &agility, &strike, &submission, &grapple, &tech, &division, &gender,
		&deckNum, &atk, &play, &syncedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return cards.Card{}, err
	}
	c.RulesText = rules.String
	c.ErrataText = errata.String
	c.IsBanned = banned != 0
	c.ReleaseSet = set.String
	c.SRGURL = srg.String
	c.SRGPCURL = srgpc.String
	c.Comments = comments.String
	c.Tags = cards.SplitTags(tags.String)
	c.Power = intPtr(power)
	c.Agility = intPtr(agility)
	c.Strike = intPtr(strike)
	c.Submission = intPtr(submission)
	c.Grapple = intPtr(grapple)
	c.Technique = intPtr(tech)
	c.Division = division.String
	c.Gender = gender.String
	c.DeckCardNumber = intPtr(deckNum)
	c.AtkType = atk.String
	c.PlayOrder = play.String
	c.SyncedAt = fromMillis(syncedAt)
	return c, nil
}

func cardArgs(c cards.Card, syncedAt time.Time) []any {
	return []any{
		c.UUID, c.Name, c.CardType, nullString(c.RulesText), nullString(c.ErrataText), boolInt(c.IsBanned),
		nullString(c.ReleaseSet), nullString(c.SRGURL), nullString(c.SRGPCURL), nullString(c.Comments),
		nullString(cards.JoinTags(c.Tags)),
		nullInt(c.Power), nullInt(c.Agility), nullInt(c.Strike), nullInt(c.Submission), nullInt(c.Grapple),
		nullInt(c.Technique), nullString(c.Division), nullString(c.Gender),
		nullInt(c.DeckCardNumber), nullString(c.AtkType), nullString(c.PlayOrder), toMillis(syncedAt),
	}
}

func collectCards(rows *sql.Rows) ([]cards.Card, error) {
	defer rows.Close()
	var out []cards.Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpsertCards inserts or refreshes a batch of catalogue cards in one transaction.
func (s *Store) UpsertCards(ctx context.Context, batch []cards.Card) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if len(batch) == 0 {
		return nil
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert cards: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO cards (`+cardColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(db_uuid) DO UPDATE SET `+cardUpdateSet)
	if err != nil {
		return fmt.Errorf("prepare upsert cards: %w", err)
	}
	defer stmt.Close()

	now := s.now()
	for _, c := range batch {
		if strings.TrimSpace(c.UUID) == "" {
			return errors.New("card uuid is required")
		}
		syncedAt := c.SyncedAt
		if syncedAt.IsZero() {
			syncedAt = now
		}
		if _, err := stmt.ExecContext(ctx, cardArgs(c, syncedAt)...); err != nil {
			return fmt.Errorf("upsert card %s: %w", c.UUID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert cards: %w", err)
	}
	return nil
}

func (s *Store) GetCard(ctx context.Context, uuid string) (cards.Card, error) {
	if err := s.ready(ctx); err != nil {
		return cards.Card{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+cardColumns+` FROM cards WHERE db_uuid = ?`, uuid)
	c, err := scanCard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return cards.Card{}, storage.ErrNotFound
	}
	if err != nil {
		return cards.Card{}, fmt.Errorf("get card: %w", err)
	}
	return c, nil
}

// GetCardByName matches names case-insensitively.
func (s *Store) GetCardByName(ctx context.Context, name string) (cards.Card, error) {
	if err := s.ready(ctx); err != nil {
		return cards.Card{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT `+cardColumns+` FROM cards WHERE name = ? COLLATE NOCASE ORDER BY name LIMIT 1`,
		strings.TrimSpace(name))
	c, err := scanCard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return cards.Card{}, storage.ErrNotFound
	}
	if err != nil {
		return cards.Card{}, fmt.Errorf("get card by name: %w", err)
	}
	return c, nil
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

// GetCardsByUUIDs returns the cards that exist locally, ordered by name.
func (s *Store) GetCardsByUUIDs(ctx context.Context, uuids []string) ([]cards.Card, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if len(uuids) == 0 {
		return nil, nil
	}
	args := make([]any, len(uuids))
	for i, u := range uuids {
		args[i] = u
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT `+cardColumns+` FROM cards WHERE db_uuid IN (`+placeholders(len(uuids))+`) ORDER BY name ASC`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("get cards by uuids: %w", err)
	}
	out, err := collectCards(rows)
	if err != nil {
		return nil, fmt.Errorf("get cards by uuids: %w", err)
	}
	return out, nil
}

// whereBuilder accumulates AND-ed conditions with their arguments.
type whereBuilder struct {
	conds []string
	args  []any
}

func (w *whereBuilder) add(cond string, args ...any) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
}

func (w *whereBuilder) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

func searchWhere(opt cards.SearchOptions, alias string) *whereBuilder {
	col := func(name string) string { return alias + "." + name }
	w := &whereBuilder{}
	if opt.Query != "" {
		var ors []string
		var args []any
		if opt.SearchName() {
			ors = append(ors, col("name")+` LIKE '%' || ? || '%'`)
			args = append(args, opt.Query)
		}
		if opt.SearchTags() {
			ors = append(ors, col("tags")+` LIKE '%' || ? || '%'`)
			args = append(args, opt.Query)
		}
		if opt.SearchRules() {
			ors = append(ors, col("rules_text")+` LIKE '%' || ? || '%'`)
			args = append(args, opt.Query)
		}
		w.add("("+strings.Join(ors, " OR ")+")", args...)
	}
	if opt.CardType != "" {
		w.add(col("card_type")+" = ?", opt.CardType)
	}
	if opt.AtkType != "" {
		w.add(col("atk_type")+" = ?", opt.AtkType)
	}
	if opt.PlayOrder != "" {
		w.add(col("play_order")+" = ?", opt.PlayOrder)
	}
	if opt.Division != "" {
		w.add(col("division")+" = ?", opt.Division)
	}
	if opt.ReleaseSet != "" {
		w.add(col("release_set")+" = ?", opt.ReleaseSet)
	}
	if opt.Banned != nil {
		w.add(col("is_banned")+" = ?", boolInt(*opt.Banned))
	}
	if len(opt.DeckNumbers) > 0 {
		args := make([]any, len(opt.DeckNumbers))
		for i, n := range opt.DeckNumbers {
			args[i] = n
		}
		w.add(col("deck_card_number")+" IN ("+placeholders(len(args))+")", args...)
	}
	stats := []struct {
		name  string
		floor int
	}{
		{"power", opt.MinPower},
		{"technique", opt.MinTechnique},
		{"agility", opt.MinAgility},
		{"strike", opt.MinStrike},
		{"submission", opt.MinSubmission},
		{"grapple", opt.MinGrapple},
	}
	for _, st := range stats {
		if st.floor > 0 {
			w.add("("+col(st.name)+" IS NULL OR "+col(st.name)+" >= ?)", st.floor)
		}
	}
	if opt.InFolderID != "" {
		w.add(col("db_uuid")+" IN (SELECT card_uuid FROM folder_cards WHERE folder_id = ?)", opt.InFolderID)
	}
	return w
}

// SearchCards applies opt and returns one page ordered by name.
func (s *Store) SearchCards(ctx context.Context, opt cards.SearchOptions) ([]cards.Card, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	opt = opt.Normalize()
	w := searchWhere(opt, "c")
	query := `SELECT ` + prefixed("c") + ` FROM cards c` + w.String() +
		` ORDER BY c.name COLLATE NOCASE ASC LIMIT ? OFFSET ?`
	args := append(w.args, opt.Limit, opt.Offset)
	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search cards: %w", err)
	}
	out, err := collectCards(rows)
	if err != nil {
		return nil, fmt.Errorf("search cards: %w", err)
	}
	return out, nil
}

// SuggestCardNames lists distinct names starting with prefix. Only the type,
// attack, play order, division and first deck number of opt are applied.
func (s *Store) SuggestCardNames(ctx context.Context, prefix string, opt cards.SearchOptions, limit int) ([]string, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}
	w := &whereBuilder{}
	if p := strings.TrimSpace(prefix); p != "" {
		w.add(`name LIKE ? || '%'`, p)
	}
	if opt.CardType != "" {
		w.add("card_type = ?", opt.CardType)
	}
	if opt.AtkType != "" {
		w.add("atk_type = ?", opt.AtkType)
	}
	if opt.PlayOrder != "" {
		w.add("play_order = ?", opt.PlayOrder)
	}
	if opt.Division != "" {
		w.add("division = ?", opt.Division)
	}
	if len(opt.DeckNumbers) > 0 {
		w.add("deck_card_number = ?", opt.DeckNumbers[0])
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT DISTINCT name FROM cards`+w.String()+` ORDER BY name ASC LIMIT ?`,
		append(w.args, limit)...)
	if err != nil {
		return nil, fmt.Errorf("suggest card names: %w", err)
	}
	return collectStrings(rows)
}

func collectStrings(rows *sql.Rows) ([]string, error) {
	defer rows.Close()
	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *Store) distinct(ctx context.Context, column string) ([]string, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT DISTINCT `+column+` FROM cards WHERE `+column+` IS NOT NULL AND `+column+` != '' ORDER BY `+column+` ASC`)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", column, err)
	}
	return collectStrings(rows)
}

func (s *Store) CardTypes(ctx context.Context) ([]string, error) { return s.distinct(ctx, "card_type") }

func (s *Store) ReleaseSets(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, "release_set")
}

func (s *Store) Divisions(ctx context.Context) ([]string, error) { return s.distinct(ctx, "division") }

func (s *Store) CountCards(ctx context.Context) (int, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	var n int
	if err := s.sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM cards`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count cards: %w", err)
	}
	return n, nil
}

// LastCardSync is the newest synced_at, or the zero time for an empty catalogue.
func (s *Store) LastCardSync(ctx context.Context) (time.Time, error) {
	if err := s.ready(ctx); err != nil {
		return time.Time{}, err
	}
	var ms sql.NullInt64
	if err := s.sqlDB.QueryRowContext(ctx, `SELECT MAX(synced_at) FROM cards`).Scan(&ms); err != nil {
		return time.Time{}, fmt.Errorf("last card sync: %w", err)
	}
	if !ms.Valid {
		return time.Time{}, nil
	}
	return fromMillis(ms.Int64), nil
}

func (s *Store) related(ctx context.Context, table, column, uuid string) ([]cards.Card, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT `+prefixed("c")+` FROM cards c
		   JOIN `+table+` r ON c.db_uuid = r.`+column+`
		  WHERE r.card_uuid = ?
		  ORDER BY c.name ASC`, uuid)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	out, err := collectCards(rows)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	return out, nil
}

// RelatedFinishes lists finish cards linked to a competitor.
func (s *Store) RelatedFinishes(ctx context.Context, uuid string) ([]cards.Card, error) {
	return s.related(ctx, "card_related_finishes", "finish_uuid", uuid)
}

func (s *Store) RelatedCards(ctx context.Context, uuid string) ([]cards.Card, error) {
	return s.related(ctx, "card_related_cards", "related_uuid", uuid)
}

// SetRelated replaces the related finishes and related cards of one card.
// Links to cards missing from the catalogue are dropped.
func (s *Store) SetRelated(ctx context.Context, uuid string, finishes, related []string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin set related: %w", err)
	}
	defer tx.Rollback()

	links := []struct {
		table, column string
		uuids         []string
	}{
		{"card_related_finishes", "finish_uuid", finishes},
		{"card_related_cards", "related_uuid", related},
	}
	for _, l := range links {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+l.table+` WHERE card_uuid = ?`, uuid); err != nil {
			return fmt.Errorf("clear %s: %w", l.table, err)
		}
		for _, other := range l.uuids {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO `+l.table+` (card_uuid, `+l.column+`)
				 SELECT ?, db_uuid FROM cards WHERE db_uuid = ? AND EXISTS (SELECT 1 FROM cards WHERE db_uuid = ?)`,
				uuid, other, uuid); err != nil {
				return fmt.Errorf("insert %s: %w", l.table, err)
			}
		}
	}
	return tx.Commit()
}
