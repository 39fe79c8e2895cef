package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	// Import the Postgres driver.
	_ "github.com/lib/pq"

	"github.com/openclerk/contractsense/internal/profile"
	"github.com/openclerk/contractsense/store"
)

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens a Postgres connection using the profile's DSN.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}

	pgDB, err := sql.Open("postgres", profile.DSN)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", profile.DSN)
	}

	pgDB.SetMaxOpenConns(10)
	pgDB.SetMaxIdleConns(5)
	pgDB.SetConnMaxLifetime(30 * time.Minute)

	return &DB{db: pgDB, profile: profile}, nil
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
			id BIGSERIAL PRIMARY KEY,
			uid TEXT NOT NULL UNIQUE,
			session_uid TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL DEFAULT '',
			sections TEXT NOT NULL DEFAULT '[]',
			created_ts BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_document_session_uid ON document (session_uid)`,
		`CREATE TABLE IF NOT EXISTS conversation_turn (
			id BIGSERIAL PRIMARY KEY,
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

	err = d.db.QueryRowContext(ctx,
		`INSERT INTO document (uid, session_uid, title, content, sections, created_ts)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		doc.UID, doc.SessionUID, doc.Title, doc.Content, string(sections), doc.CreatedTs,
	).Scan(&doc.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to insert document")
	}
	return doc, nil
}

func (d *DB) GetDocument(ctx context.Context, find *store.FindDocument) (*store.Document, error) {
	where, args := []string{"TRUE"}, []any{}
	if find.UID != "" {
		args = append(args, find.UID)
		where = append(where, fmt.Sprintf("uid = $%d", len(args)))
	}
	if find.SessionUID != "" {
		args = append(args, find.SessionUID)
		where = append(where, fmt.Sprintf("session_uid = $%d", len(args)))
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
	_, err := d.db.ExecContext(ctx, `DELETE FROM document WHERE uid = $1`, uid)
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

	err := d.db.QueryRowContext(ctx,
		`INSERT INTO conversation_turn (session_uid, question, pattern, tone, tier, created_ts)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		turn.SessionUID, turn.Question, turn.Pattern, turn.Tone, turn.Tier, turn.CreatedTs,
	).Scan(&turn.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to insert conversation turn")
	}
	return turn, nil
}

func (d *DB) ListConversationTurns(ctx context.Context, find *store.FindConversationTurns) ([]*store.ConversationTurn, error) {
	query := `SELECT id, session_uid, question, pattern, tone, tier, created_ts FROM conversation_turn
		WHERE session_uid = $1 ORDER BY created_ts DESC, id DESC`
	args := []any{find.SessionUID}
	if find.Limit > 0 {
		args = append(args, find.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
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
	_, err := d.db.ExecContext(ctx, `DELETE FROM conversation_turn WHERE session_uid = $1`, sessionUID)
	return errors.Wrap(err, "failed to delete conversation turns")
}

func joinAnd(conds []string) string {
	out := conds[0]
	for _, c := range conds[1:] {
		out += " AND " + c
	}
	return out
}
