package tweets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hongminglow/tweeter-be/internal/apperr"
	"github.com/hongminglow/tweeter-be/internal/ids"
	"github.com/hongminglow/tweeter-be/internal/logging"
	"github.com/hongminglow/tweeter-be/internal/metrics"
	"github.com/hongminglow/tweeter-be/internal/models"
	"github.com/hongminglow/tweeter-be/internal/models/dto"
	"github.com/hongminglow/tweeter-be/internal/storage"
	"github.com/hongminglow/tweeter-be/internal/validation"
)

// EventTweets is the broadcast event emitted for every created tweet.
const EventTweets = "tweets"

// Broadcaster pushes events to realtime subscribers.
type Broadcaster interface {
	Emit(event string, payload any) error
}

type textRules struct {
	Text string `validate:"min=3"`
}

var textValidator = validation.New(validation.Messages{
	"Text.min": "text should be at least 3 characters",
})

// Service orchestrates tweet CRUD. Update and Remove go through Authorize.
type Service struct {
	store       storage.TweetStore
	broadcaster Broadcaster
	ids         ids.Generator
	now         func() time.Time
}

// NewService wires the tweet service. broadcaster may be nil.
func NewService(store storage.TweetStore, broadcaster Broadcaster, idGen ids.Generator) *Service {
	if idGen == nil {
		idGen = ids.NewULIDGenerator()
	}
	return &Service{
		store:       store,
		broadcaster: broadcaster,
		ids:         idGen,
		now:         time.Now,
	}
}

// List returns all tweets, or only those of username when it is non-empty.
func (s *Service) List(ctx context.Context, username string) ([]models.Tweet, error) {
	var (
		out []models.Tweet
		err error
	)
	if username = strings.TrimSpace(username); username != "" {
		out, err = s.store.GetAllByUsername(ctx, username)
	} else {
		out, err = s.store.GetAll(ctx)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to list tweets", err)
	}
	if out == nil {
		out = []models.Tweet{}
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (models.Tweet, error) {
	tweet, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Tweet{}, apperr.New(apperr.NotFound, fmt.Sprintf("Tweet id(%s) not found", id))
		}
		return models.Tweet{}, apperr.Wrap(apperr.Internal, "failed to get tweet", err)
	}
	return tweet, nil
}

// Create stores a tweet owned by authorID and announces it. A failed
// announcement is logged and never fails the create.
func (s *Service) Create(ctx context.Context, text, authorID string) (models.Tweet, error) {
	text = strings.TrimSpace(text)
	if err := textValidator.Check(textRules{Text: text}); err != nil {
		metrics.TweetOperationsTotal.WithLabelValues("create", "invalid").Inc()
		return models.Tweet{}, err
	}

	created, err := s.store.Create(ctx, models.Tweet{
		ID:        s.ids.NewID(),
		Text:      text,
		UserID:    authorID,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Tweet{}, apperr.New(apperr.NotFound, "author not found")
		}
		return models.Tweet{}, apperr.Wrap(apperr.Internal, "failed to create tweet", err)
	}

	metrics.TweetOperationsTotal.WithLabelValues("create", "ok").Inc()
	s.announce(ctx, created)
	return created, nil
}

// Update changes the text of a tweet owned by userID.
func (s *Service) Update(ctx context.Context, id, text, userID string) (models.Tweet, error) {
	text = strings.TrimSpace(text)
	if err := textValidator.Check(textRules{Text: text}); err != nil {
		metrics.TweetOperationsTotal.WithLabelValues("update", "invalid").Inc()
		return models.Tweet{}, err
	}
	if err := s.authorize(ctx, "update", id, userID); err != nil {
		return models.Tweet{}, err
	}

	updated, err := s.store.Update(ctx, id, text)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Tweet{}, tweetNotFound(id)
		}
		return models.Tweet{}, apperr.Wrap(apperr.Internal, "failed to update tweet", err)
	}
	metrics.TweetOperationsTotal.WithLabelValues("update", "ok").Inc()
	return updated, nil
}

// Remove deletes a tweet owned by userID.
func (s *Service) Remove(ctx context.Context, id, userID string) error {
	if err := s.authorize(ctx, "delete", id, userID); err != nil {
		return err
	}

	if err := s.store.Remove(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return tweetNotFound(id)
		}
		return apperr.Wrap(apperr.Internal, "failed to delete tweet", err)
	}
	metrics.TweetOperationsTotal.WithLabelValues("delete", "ok").Inc()
	return nil
}

func (s *Service) authorize(ctx context.Context, op, id, userID string) error {
	var current *models.Tweet
	tweet, err := s.store.GetByID(ctx, id)
	switch {
	case err == nil:
		current = &tweet
	case !errors.Is(err, storage.ErrNotFound):
		return apperr.Wrap(apperr.Internal, "failed to get tweet", err)
	}

	decision := Authorize(userID, current)
	if decision != Allowed {
		metrics.TweetOperationsTotal.WithLabelValues(op, decision.String()).Inc()
	}
	switch decision {
	case NotFound:
		return tweetNotFound(id)
	case Forbidden:
		logging.FromContext(ctx).Warn("tweet ownership check failed", "op", op, "tweet_id", id, "user_id", userID)
		return apperr.New(apperr.Forbidden, "Forbidden")
	default:
		return nil
	}
}

func (s *Service) announce(ctx context.Context, tweet models.Tweet) {
	if s.broadcaster == nil {
		return
	}
	if err := s.broadcaster.Emit(EventTweets, dto.TweetEvent{Text: tweet.Text, UserID: tweet.UserID}); err != nil {
		metrics.BroadcastFailuresTotal.Inc()
		logging.FromContext(ctx).Warn("broadcast failed", "event", EventTweets, "tweet_id", tweet.ID, "err", err)
	}
}

func tweetNotFound(id string) error {
	return apperr.New(apperr.NotFound, fmt.Sprintf("Tweet not found: %s", id))
}
