package library

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/nishipippi/kiga-ers/internal/domain"
)

// likedKey is the single app_state key the liked list lives under.
const likedKey = "liked_papers"

// OpenDB opens (creating if needed) the local SQLite database file.
func OpenDB(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	// modernc sqlite is single-writer; one connection avoids lock errors.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite database: %w", err)
	}
	return db, nil
}

// SQLitePersister stores the liked-paper list as a JSON array in the
// app_state table.
type SQLitePersister struct {
	db *sql.DB
}

var _ Persister = (*SQLitePersister)(nil)

// NewSQLitePersister creates a persister on an open database. The schema
// must already be migrated.
func NewSQLitePersister(db *sql.DB) *SQLitePersister {
	return &SQLitePersister{db: db}
}

// Load reads and decodes the stored list. A database with no stored list
// yet yields an empty list and no error.
func (p *SQLitePersister) Load(ctx context.Context) ([]*domain.Paper, error) {
	var value string
	err := p.db.QueryRowContext(ctx,
		`SELECT value FROM app_state WHERE key = ?`, likedKey,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.NewPersistenceError("load", err)
	}

	var papers []*domain.Paper
	if err := json.Unmarshal([]byte(value), &papers); err != nil {
		return nil, domain.NewPersistenceError("decode", err)
	}
	return papers, nil
}

// Save encodes the list and upserts it under the fixed key.
func (p *SQLitePersister) Save(ctx context.Context, papers []*domain.Paper) error {
	if papers == nil {
		papers = []*domain.Paper{}
	}
	value, err := json.Marshal(papers)
	if err != nil {
		return domain.NewPersistenceError("encode", err)
	}

	_, err = p.db.ExecContext(ctx, `
		INSERT INTO app_state (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at`,
		likedKey, string(value),
	)
	if err != nil {
		return domain.NewPersistenceError("save", err)
	}
	return nil
}
