package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	// Import the SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/openclerk/contractsense/internal/profile"
	"github.com/openclerk/contractsense/store"
)

// SQLite is the default driver for dev and single-user deployments.
// Concurrent writes are serialized by the single-connection pool.

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens the SQLite database at the profile's DSN.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}

	// WAL journal mode with a busy timeout keeps the single-writer
	// model responsive. modernc.org/sqlite takes pragmas in the DSN.
	sqliteDB, err := sql.Open("sqlite", profile.DSN+"?_pragma=foreign_keys(0)&_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", profile.DSN)
	}

	sqliteDB.SetMaxOpenConns(1)
	sqliteDB.SetMaxIdleConns(1)
	sqliteDB.SetConnMaxLifetime(0)
	sqliteDB.SetConnMaxIdleTime(0)

	return &DB{db: sqliteDB, profile: profile}, nil
}

func (d *DB) GetDB() interface{} {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS document (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			uid TEXT NOT NULL UNIQUE,
			session_uid TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL DEFAULT '',
			sections TEXT NOT NULL DEFAULT '[]',
			created_ts BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_document_session_uid ON document (session_uid)`,
		`CREATE TABLE IF NOT EXISTS conversation_turn (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_uid TEXT NOT NULL,
			question TEXT NOT NULL,
			pattern TEXT NOT NULL DEFAULT '',
			tone TEXT NOT NULL DEFAULT '',
			tier TEXT NOT NULL DEFAULT '',
			created_ts BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_conversation_turn_session_uid ON conversation_turn (session_uid)`,
	}
	for _, stmt := range stmts {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "failed to run migration")
		}
	}
	return nil
}

func (d *DB) CreateDocument(ctx context.Context, create *store.CreateDocument) (*store.Document, error) {
	sections, err := json.Marshal(create.Sections)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal sections")
	}

	doc := &store.Document{
		UID:        uuid.NewString(),
		SessionUID: create.SessionUID,
		Title:      create.Title,
		Content:    create.Content,
		Sections:   create.Sections,
		CreatedTs:  time.Now().Unix(),
	}

	result, err := d.db.ExecContext(ctx,
		`INSERT INTO document (uid, session_uid, title, content, sections, created_ts) VALUES (?, ?, ?, ?, ?, ?)`,
		doc.UID, doc.SessionUID, doc.Title, doc.Content, string(sections), doc.CreatedTs,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to insert document")
	}
	if doc.ID, err = result.LastInsertId(); err != nil {
		return nil, err
	}
	return doc, nil
}

func (d *DB) GetDocument(ctx context.Context, find *store.FindDocument) (*store.Document, error) {
	where, args := []string{"1 = 1"}, []any{}
	if find.UID != "" {
		where = append(where, "uid = ?")
		args = append(args, find.UID)
	}
	if find.SessionUID != "" {
		where = append(where, "session_uid = ?")
		args = append(args, find.SessionUID)
	}

	query := `SELECT id, uid, session_uid, title, content, sections, created_ts FROM document
		WHERE ` + joinAnd(where) + ` ORDER BY created_ts DESC, id DESC LIMIT 1`

	doc := &store.Document{}
	var sections string
	err := d.db.QueryRowContext(ctx, query, args...).Scan(
		&doc.ID, &doc.UID, &doc.SessionUID, &doc.Title, &doc.Content, &sections, &doc.CreatedTs,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to query document")
	}
	if err := json.Unmarshal([]byte(sections), &doc.Sections); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal sections")
	}
	return doc, nil
}

func (d *DB) DeleteDocument(ctx context.Context, uid string) error {
	_, err := d.db.ExecContext(ctx, `DELETE FROM document WHERE uid = ?`, uid)
	return errors.Wrap(err, "failed to delete document")
}

func (d *DB) CreateConversationTurn(ctx context.Context, create *store.CreateConversationTurn) (*store.ConversationTurn, error) {
	turn := &store.ConversationTurn{
		SessionUID: create.SessionUID,
		Question:   create.Question,
		Pattern:    create.Pattern,
		Tone:       create.Tone,
		Tier:       create.Tier,
		CreatedTs:  time.Now().Unix(),
	}

	result, err := d.db.ExecContext(ctx,
		`INSERT INTO conversation_turn (session_uid, question, pattern, tone, tier, created_ts) VALUES (?, ?, ?, ?, ?, ?)`,
		turn.SessionUID, turn.Question, turn.Pattern, turn.Tone, turn.Tier, turn.CreatedTs,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to insert conversation turn")
	}
	if turn.ID, err = result.LastInsertId(); err != nil {
		return nil, err
	}
	return turn, nil
}

func (d *DB) ListConversationTurns(ctx context.Context, find *store.FindConversationTurns) ([]*store.ConversationTurn, error) {
	query := `SELECT id, session_uid, question, pattern, tone, tier, created_ts FROM conversation_turn
		WHERE session_uid = ? ORDER BY created_ts DESC, id DESC`
	args := []any{find.SessionUID}
	if find.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query conversation turns")
	}
	defer rows.Close()

	var turns []*store.ConversationTurn
	for rows.Next() {
		turn := &store.ConversationTurn{}
		if err := rows.Scan(&turn.ID, &turn.SessionUID, &turn.Question, &turn.Pattern, &turn.Tone, &turn.Tier, &turn.CreatedTs); err != nil {
			return nil, errors.Wrap(err, "failed to scan conversation turn")
		}
		turns = append(turns, turn)
	}
	return turns, rows.Err()
}

func (d *DB) DeleteConversationTurns(ctx context.Context, sessionUID string) error {
	_, err := d.db.ExecContext(ctx, `DELETE FROM conversation_turn WHERE session_uid = ?`, sessionUID)
	return errors.Wrap(err, "failed to delete conversation turns")
}

func joinAnd(conds []string) string {
	out := conds[0]
	for _, c := range conds[1:] {
		out += " AND " + c
	}
	return out
}
