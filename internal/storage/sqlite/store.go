// Package sqlite is a single-file storage driver backed by modernc.org/sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/hongminglow/tweeter-be/internal/models"
	"github.com/hongminglow/tweeter-be/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Store persists users and tweets in SQLite. Timestamps are stored as unix nanoseconds.
type Store struct {
	db *sql.DB
}

// NewStore opens dsn (a file path or ":memory:") and applies the schema.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Pragmas and :memory: databases are per connection.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the database handle.
func (s *Store) Close() {
	_ = s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`PRAGMA foreign_keys = ON;`,
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			username TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS tweets (
			id TEXT PRIMARY KEY,
			text TEXT NOT NULL,
			user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS tweets_created_at_idx ON tweets (created_at DESC);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}
	return nil
}

func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, name, username, email, password_hash, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID, user.Name, user.Username, user.Email, user.PasswordHash, user.CreatedAt.UnixNano())
	if err != nil {
		if hasCode(err, sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY) {
			return models.User{}, storage.ErrAlreadyExists
		}
		return models.User{}, err
	}
	return s.FindByID(ctx, user.ID)
}

func (s *Store) FindByUsername(ctx context.Context, username string) (models.User, error) {
	return scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, name, username, email, password_hash, created_at FROM users WHERE username = ?`, username))
}

func (s *Store) FindByID(ctx context.Context, id string) (models.User, error) {
	return scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, name, username, email, password_hash, created_at FROM users WHERE id = ?`, id))
}

const selectTweets = `
	SELECT t.id, t.text, t.created_at, t.user_id, u.username, u.name
	FROM tweets t
	JOIN users u ON u.id = t.user_id
`

func (s *Store) GetAll(ctx context.Context) ([]models.Tweet, error) {
	return s.queryTweets(ctx, selectTweets+` ORDER BY t.created_at DESC, t.id DESC`)
}

func (s *Store) GetAllByUsername(ctx context.Context, username string) ([]models.Tweet, error) {
	return s.queryTweets(ctx, selectTweets+` WHERE u.username = ? ORDER BY t.created_at DESC, t.id DESC`, username)
}

func (s *Store) GetByID(ctx context.Context, id string) (models.Tweet, error) {
	return scanTweet(s.db.QueryRowContext(ctx, selectTweets+` WHERE t.id = ?`, id))
}

func (s *Store) Create(ctx context.Context, tweet models.Tweet) (models.Tweet, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tweets (id, text, user_id, created_at) VALUES (?, ?, ?, ?)`,
		tweet.ID, tweet.Text, tweet.UserID, tweet.CreatedAt.UnixNano())
	if err != nil {
		switch {
		case hasCode(err, sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY):
			return models.Tweet{}, storage.ErrNotFound
		case hasCode(err, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE):
			return models.Tweet{}, storage.ErrAlreadyExists
		}
		return models.Tweet{}, err
	}
	return s.GetByID(ctx, tweet.ID)
}

func (s *Store) Update(ctx context.Context, id, text string) (models.Tweet, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE tweets SET text = ? WHERE id = ?`, text, id)
	if err != nil {
		return models.Tweet{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.Tweet{}, storage.ErrNotFound
	}
	return s.GetByID(ctx, id)
}

func (s *Store) Remove(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tweets WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) queryTweets(ctx context.Context, query string, args ...any) ([]models.Tweet, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Tweet{}
	for rows.Next() {
		t, err := scanTweet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (models.User, error) {
	var (
		u       models.User
		created int64
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Username, &u.Email, &u.PasswordHash, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, err
	}
	u.CreatedAt = time.Unix(0, created).UTC()
	return u, nil
}

func scanTweet(row scanner) (models.Tweet, error) {
	var (
		t       models.Tweet
		created int64
	)
	if err := row.Scan(&t.ID, &t.Text, &created, &t.UserID, &t.Username, &t.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Tweet{}, storage.ErrNotFound
		}
		return models.Tweet{}, err
	}
	t.CreatedAt = time.Unix(0, created).UTC()
	return t, nil
}

func hasCode(err error, codes ...int) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	for _, c := range codes {
		if se.Code() == c {
			return true
		}
	}
	return false
}
