package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hongminglow/tweeter-be/internal/models"
	"github.com/hongminglow/tweeter-be/internal/storage"
)

// Ensure Store satisfies the storage.Store interface at compile time.
var _ storage.Store = (*Store)(nil)

// dbtx is the subset of *pgxpool.Pool the store needs.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// Store provides Postgres-backed persistence for users and tweets.
type Store struct {
	db dbtx
}

// NewStore connects to databaseURL and applies migrations.
func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	s := &Store{db: pool}
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// Close releases database resources.
func (s *Store) Close() {
	if s.db != nil {
		s.db.Close()
	}
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		username TEXT NOT NULL,
		email TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_username_unique_idx ON users (username);`,
	`CREATE TABLE IF NOT EXISTS tweets (
		id TEXT PRIMARY KEY,
		text TEXT NOT NULL,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS tweets_created_at_idx ON tweets (created_at DESC);`,
}

// Migrate creates the schema if it does not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range migrations {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}
	return nil
}

// CreateUser inserts a new user row.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	const query = `
		INSERT INTO users (id, name, username, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, name, username, email, password_hash, created_at;
	`
	row := s.db.QueryRow(ctx, query, user.ID, user.Name, user.Username, user.Email, user.PasswordHash, user.CreatedAt)
	created, err := scanUser(row)
	if err != nil {
		if isPgCode(err, pgerrcode.UniqueViolation) {
			return models.User{}, storage.ErrAlreadyExists
		}
		return models.User{}, err
	}
	return created, nil
}

// FindByUsername fetches a user by username.
func (s *Store) FindByUsername(ctx context.Context, username string) (models.User, error) {
	const query = `
	SELECT id, name, username, email, password_hash, created_at
	FROM users
	WHERE username = $1;
	`
	return scanUser(s.db.QueryRow(ctx, query, username))
}

// FindByID fetches a user by id.
func (s *Store) FindByID(ctx context.Context, id string) (models.User, error) {
	const query = `
	SELECT id, name, username, email, password_hash, created_at
	FROM users
	WHERE id = $1;
	`
	return scanUser(s.db.QueryRow(ctx, query, id))
}

const selectTweets = `
	SELECT t.id, t.text, t.created_at, t.user_id, u.username, u.name
	FROM tweets t
	JOIN users u ON u.id = t.user_id
`

// GetAll lists every tweet, newest first.
func (s *Store) GetAll(ctx context.Context) ([]models.Tweet, error) {
	rows, err := s.db.Query(ctx, selectTweets+` ORDER BY t.created_at DESC, t.id DESC;`)
	if err != nil {
		return nil, err
	}
	return collectTweets(rows)
}

// GetAllByUsername lists the tweets of one author, newest first.
func (s *Store) GetAllByUsername(ctx context.Context, username string) ([]models.Tweet, error) {
	rows, err := s.db.Query(ctx, selectTweets+` WHERE u.username = $1 ORDER BY t.created_at DESC, t.id DESC;`, username)
	if err != nil {
		return nil, err
	}
	return collectTweets(rows)
}

// GetByID fetches a single tweet.
func (s *Store) GetByID(ctx context.Context, id string) (models.Tweet, error) {
	return scanTweet(s.db.QueryRow(ctx, selectTweets+` WHERE t.id = $1;`, id))
}

// Create inserts a tweet and returns it joined with its author.
func (s *Store) Create(ctx context.Context, tweet models.Tweet) (models.Tweet, error) {
	const query = `
		WITH inserted AS (
			INSERT INTO tweets (id, text, user_id, created_at)
			VALUES ($1, $2, $3, $4)
			RETURNING id, text, created_at, user_id
		)
		SELECT i.id, i.text, i.created_at, i.user_id, u.username, u.name
		FROM inserted i
		JOIN users u ON u.id = i.user_id;
	`
	created, err := scanTweet(s.db.QueryRow(ctx, query, tweet.ID, tweet.Text, tweet.UserID, tweet.CreatedAt))
	if err != nil {
		switch {
		case isPgCode(err, pgerrcode.ForeignKeyViolation):
			return models.Tweet{}, storage.ErrNotFound
		case isPgCode(err, pgerrcode.UniqueViolation):
			return models.Tweet{}, storage.ErrAlreadyExists
		}
		return models.Tweet{}, err
	}
	return created, nil
}

// Update replaces the text of a tweet. user_id is never written.
func (s *Store) Update(ctx context.Context, id, text string) (models.Tweet, error) {
	const query = `
		WITH updated AS (
			UPDATE tweets SET text = $2
			WHERE id = $1
			RETURNING id, text, created_at, user_id
		)
		SELECT d.id, d.text, d.created_at, d.user_id, u.username, u.name
		FROM updated d
		JOIN users u ON u.id = d.user_id;
	`
	return scanTweet(s.db.QueryRow(ctx, query, id, text))
}

// Remove deletes a tweet.
func (s *Store) Remove(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM tweets WHERE id = $1;`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	if err := row.Scan(&user.ID, &user.Name, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func scanTweet(row pgx.Row) (models.Tweet, error) {
	var t models.Tweet
	if err := row.Scan(&t.ID, &t.Text, &t.CreatedAt, &t.UserID, &t.Username, &t.Name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Tweet{}, storage.ErrNotFound
		}
		return models.Tweet{}, err
	}
	return t, nil
}

func collectTweets(rows pgx.Rows) ([]models.Tweet, error) {
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

func isPgCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
