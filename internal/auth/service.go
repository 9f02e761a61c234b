package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hongminglow/tweeter-be/internal/apperr"
	"github.com/hongminglow/tweeter-be/internal/ids"
	"github.com/hongminglow/tweeter-be/internal/logging"
	"github.com/hongminglow/tweeter-be/internal/metrics"
	"github.com/hongminglow/tweeter-be/internal/models"
	"github.com/hongminglow/tweeter-be/internal/storage"
	"github.com/hongminglow/tweeter-be/internal/validation"
)

const (
	// MsgInvalidCredentials is shared by unknown-user and wrong-password failures.
	MsgInvalidCredentials = "Invalid user or password"
	// MsgAuthError is returned for any missing, malformed or expired token.
	MsgAuthError = "Authentication Error"
)

// signupRules is checked in field order; only the first violation is reported.
type signupRules struct {
	Name     string `validate:"required"`
	Username string `validate:"min=5"`
	Password string `validate:"min=5"`
	Email    string `validate:"email"`
}

var signupValidator = validation.New(validation.Messages{
	"Name.required": "name is missing",
	"Username.min":  "username should be at least 5 characters",
	"Password.min":  "password should be at least 5 characters",
	"Email.email":   "invalid email",
})

type SignupInput struct {
	Name     string
	Username string
	Email    string
	Password string
}

type LoginInput struct {
	Username string
	Password string
}

// Session is what a client receives after authenticating.
type Session struct {
	Token    string
	Username string
}

// Service implements signup, login and token introspection.
type Service struct {
	users  storage.UserStore
	hasher Hasher
	tokens *TokenManager
	ids    ids.Generator
	now    func() time.Time
	// dummyHash is verified against for unknown usernames so both login
	// failures pay the same hashing cost.
	dummyHash string
}

// NewService wires the auth service. A nil idGen falls back to ULIDs.
func NewService(users storage.UserStore, hasher Hasher, tokens *TokenManager, idGen ids.Generator) *Service {
	if idGen == nil {
		idGen = ids.NewULIDGenerator()
	}
	s := &Service{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		ids:    idGen,
		now:    time.Now,
	}
	if hash, err := hasher.Hash(idGen.NewID()); err == nil {
		s.dummyHash = hash
	} else {
		slog.Warn("auth: dummy password hash failed", "err", err)
	}
	return s
}

// Signup registers a new user and returns a fresh session.
func (s *Service) Signup(ctx context.Context, in SignupInput) (Session, error) {
	log := logging.FromContext(ctx)
	in.Name = strings.TrimSpace(in.Name)
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	if err := signupValidator.Check(signupRules{
		Name:     in.Name,
		Username: in.Username,
		Password: strings.TrimSpace(in.Password),
		Email:    in.Email,
	}); err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("signup", "invalid").Inc()
		return Session{}, err
	}

	_, err := s.users.FindByUsername(ctx, in.Username)
	switch {
	case err == nil:
		metrics.AuthAttemptsTotal.WithLabelValues("signup", "conflict").Inc()
		return Session{}, usernameTaken(in.Username)
	case !errors.Is(err, storage.ErrNotFound):
		return Session{}, apperr.Wrap(apperr.Internal, "failed to look up user", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return Session{}, apperr.Wrap(apperr.Internal, "failed to hash password", err)
	}

	user, err := s.users.CreateUser(ctx, models.User{
		ID:           s.ids.NewID(),
		Name:         in.Name,
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		// Lost a race with a concurrent signup for the same username.
		if errors.Is(err, storage.ErrAlreadyExists) {
			metrics.AuthAttemptsTotal.WithLabelValues("signup", "conflict").Inc()
			return Session{}, usernameTaken(in.Username)
		}
		return Session{}, apperr.Wrap(apperr.Internal, "failed to create user", err)
	}

	session, err := s.issue(user)
	if err != nil {
		return Session{}, err
	}

	log.Info("user signed up", "user_id", user.ID, "username", user.Username)
	metrics.AuthAttemptsTotal.WithLabelValues("signup", "ok").Inc()
	return session, nil
}

// Login checks credentials. Unknown users and wrong passwords are reported identically.
func (s *Service) Login(ctx context.Context, in LoginInput) (Session, error) {
	log := logging.FromContext(ctx)
	username := strings.TrimSpace(in.Username)

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.hasher.Verify(in.Password, s.dummyHash)
			log.Info("login rejected", "username", username)
			metrics.AuthAttemptsTotal.WithLabelValues("login", "rejected").Inc()
			return Session{}, apperr.New(apperr.Unauthorized, MsgInvalidCredentials)
		}
		return Session{}, apperr.Wrap(apperr.Internal, "failed to look up user", err)
	}

	if !s.hasher.Verify(in.Password, user.PasswordHash) {
		log.Info("login rejected", "username", username)
		metrics.AuthAttemptsTotal.WithLabelValues("login", "rejected").Inc()
		return Session{}, apperr.New(apperr.Unauthorized, MsgInvalidCredentials)
	}

	session, err := s.issue(user)
	if err != nil {
		return Session{}, err
	}
	metrics.AuthAttemptsTotal.WithLabelValues("login", "ok").Inc()
	return session, nil
}

// Me resolves token to its user. The user must still exist.
func (s *Service) Me(ctx context.Context, token string) (Session, error) {
	claims, err := s.Authenticate(token)
	if err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("me", "rejected").Inc()
		return Session{}, err
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			metrics.AuthAttemptsTotal.WithLabelValues("me", "rejected").Inc()
			return Session{}, apperr.New(apperr.Unauthorized, MsgAuthError)
		}
		return Session{}, apperr.Wrap(apperr.Internal, "failed to look up user", err)
	}

	metrics.AuthAttemptsTotal.WithLabelValues("me", "ok").Inc()
	return Session{Token: token, Username: user.Username}, nil
}

// Authenticate verifies token without consulting storage.
func (s *Service) Authenticate(token string) (Claims, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return Claims{}, apperr.Wrap(apperr.Unauthorized, MsgAuthError, err)
	}
	return claims, nil
}

func (s *Service) issue(user models.User) (Session, error) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		return Session{}, apperr.Wrap(apperr.Internal, "failed to generate token", err)
	}
	return Session{Token: token, Username: user.Username}, nil
}

func usernameTaken(username string) error {
	return apperr.New(apperr.Conflict, fmt.Sprintf("%s already exists", username))
}
