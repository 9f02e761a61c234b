// Package memory is an in-process storage driver used for local runs and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/hongminglow/tweeter-be/internal/models"
	"github.com/hongminglow/tweeter-be/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Store keeps users and tweets in maps guarded by a single lock.
type Store struct {
	mu         sync.RWMutex
	users      map[string]models.User
	byUsername map[string]string
	tweets     map[string]models.Tweet
}

// New returns an empty store.
func New() *Store {
	return &Store{
		users:      make(map[string]models.User),
		byUsername: make(map[string]string),
		tweets:     make(map[string]models.Tweet),
	}
}

// Close is a no-op.
func (s *Store) Close() {}

// CreateUser inserts user unless the username is taken.
func (s *Store) CreateUser(_ context.Context, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byUsername[user.Username]; taken {
		return models.User{}, storage.ErrAlreadyExists
	}
	if _, taken := s.users[user.ID]; taken {
		return models.User{}, storage.ErrAlreadyExists
	}
	s.users[user.ID] = user
	s.byUsername[user.Username] = user.ID
	return user, nil
}

func (s *Store) FindByUsername(_ context.Context, username string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byUsername[username]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return s.users[id], nil
}

func (s *Store) FindByID(_ context.Context, id string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return user, nil
}

func (s *Store) GetAll(_ context.Context) ([]models.Tweet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(models.Tweet) bool { return true }), nil
}

func (s *Store) GetAllByUsername(_ context.Context, username string) ([]models.Tweet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(t models.Tweet) bool { return t.Username == username }), nil
}

func (s *Store) GetByID(_ context.Context, id string) (models.Tweet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tweet, ok := s.tweets[id]
	if !ok {
		return models.Tweet{}, storage.ErrNotFound
	}
	return s.withAuthor(tweet), nil
}

// Create stores tweet. The author must exist.
func (s *Store) Create(_ context.Context, tweet models.Tweet) (models.Tweet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[tweet.UserID]; !ok {
		return models.Tweet{}, storage.ErrNotFound
	}
	if _, taken := s.tweets[tweet.ID]; taken {
		return models.Tweet{}, storage.ErrAlreadyExists
	}
	tweet.Username, tweet.Name = "", ""
	s.tweets[tweet.ID] = tweet
	return s.withAuthor(tweet), nil
}

// Update replaces the text of a tweet; the author is left untouched.
func (s *Store) Update(_ context.Context, id, text string) (models.Tweet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tweet, ok := s.tweets[id]
	if !ok {
		return models.Tweet{}, storage.ErrNotFound
	}
	tweet.Text = text
	s.tweets[id] = tweet
	return s.withAuthor(tweet), nil
}

func (s *Store) Remove(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tweets[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.tweets, id)
	return nil
}

// caller holds s.mu.
func (s *Store) collect(keep func(models.Tweet) bool) []models.Tweet {
	out := make([]models.Tweet, 0, len(s.tweets))
	for _, t := range s.tweets {
		t = s.withAuthor(t)
		if keep(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (s *Store) withAuthor(t models.Tweet) models.Tweet {
	if u, ok := s.users[t.UserID]; ok {
		t.Username = u.Username
		t.Name = u.Name
	}
	return t
}
