package storage

import (
	"context"
	"errors"

	"github.com/hongminglow/tweeter-be/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// UserStore captures persistence operations needed by the auth service.
// CreateUser must reject a duplicate username with ErrAlreadyExists.
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
}

// TweetStore captures persistence operations needed by the tweet service.
// Listings are ordered newest first.
type TweetStore interface {
	GetAll(ctx context.Context) ([]models.Tweet, error)
	GetAllByUsername(ctx context.Context, username string) ([]models.Tweet, error)
	GetByID(ctx context.Context, id string) (models.Tweet, error)
	Create(ctx context.Context, tweet models.Tweet) (models.Tweet, error)
	Update(ctx context.Context, id, text string) (models.Tweet, error)
	Remove(ctx context.Context, id string) error
}

// Store is a driver providing both directories.
type Store interface {
	UserStore
	TweetStore
	Close()
}
