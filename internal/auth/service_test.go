package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/hongminglow/tweeter-be/internal/apperr"
	"github.com/hongminglow/tweeter-be/internal/models"
	"github.com/hongminglow/tweeter-be/internal/storage"
	"github.com/hongminglow/tweeter-be/internal/storage/memory"
)

type stubUsers struct {
	findByUsername func(ctx context.Context, username string) (models.User, error)
	findByID       func(ctx context.Context, id string) (models.User, error)
	create         func(ctx context.Context, user models.User) (models.User, error)
	created        int
}

func (s *stubUsers) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	s.created++
	if s.create != nil {
		return s.create(ctx, user)
	}
	return user, nil
}

func (s *stubUsers) FindByUsername(ctx context.Context, username string) (models.User, error) {
	if s.findByUsername != nil {
		return s.findByUsername(ctx, username)
	}
	return models.User{}, storage.ErrNotFound
}

func (s *stubUsers) FindByID(ctx context.Context, id string) (models.User, error) {
	if s.findByID != nil {
		return s.findByID(ctx, id)
	}
	return models.User{}, storage.ErrNotFound
}

func setupService(t *testing.T, users storage.UserStore) (*Service, *TokenManager, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Now().UTC().Truncate(time.Second)}
	tokens := newTestTokens(clock)
	return NewService(users, NewBcryptHasher(bcrypt.MinCost), tokens, nil), tokens, clock
}

func validSignup() SignupInput {
	return SignupInput{Name: "Alice Liddell", Username: "alice", Email: "alice@example.com", Password: "wonderland"}
}

func TestSignup_IssuesTokenForUsername(t *testing.T) {
	svc, tokens, _ := setupService(t, memory.New())

	session, err := svc.Signup(context.Background(), validSignup())
	require.NoError(t, err)
	require.NotEmpty(t, session.Token)
	assert.Equal(t, "alice", session.Username)

	claims, err := tokens.Verify(session.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.NotEmpty(t, claims.UserID)
}

func TestSignup_StoresHashNotPassword(t *testing.T) {
	store := memory.New()
	svc, _, _ := setupService(t, store)

	_, err := svc.Signup(context.Background(), validSignup())
	require.NoError(t, err)

	u, err := store.FindByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.NotEqual(t, "wonderland", u.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("wonderland")))
}

func TestSignup_DuplicateUsername(t *testing.T) {
	svc, _, _ := setupService(t, memory.New())

	_, err := svc.Signup(context.Background(), validSignup())
	require.NoError(t, err)

	_, err = svc.Signup(context.Background(), validSignup())
	require.Error(t, err)
	assert.Equal(t, apperr.Conflict, apperr.KindOf(err))
	assert.Equal(t, "alice already exists", err.Error())
}

func TestSignup_ConflictCheckedBeforeWrite(t *testing.T) {
	users := &stubUsers{
		findByUsername: func(context.Context, string) (models.User, error) {
			return models.User{ID: "u1", Username: "alice"}, nil
		},
	}
	svc, _, _ := setupService(t, users)

	_, err := svc.Signup(context.Background(), validSignup())
	assert.True(t, apperr.Is(err, apperr.Conflict))
	assert.Zero(t, users.created)
}

func TestSignup_LostInsertRaceIsConflict(t *testing.T) {
	users := &stubUsers{
		create: func(context.Context, models.User) (models.User, error) {
			return models.User{}, storage.ErrAlreadyExists
		},
	}
	svc, _, _ := setupService(t, users)

	_, err := svc.Signup(context.Background(), validSignup())
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Conflict))
	assert.Equal(t, "alice already exists", err.Error())
}

func TestSignup_ValidationPrecedence(t *testing.T) {
	tests := []struct {
		name  string
		input SignupInput
		want  string
	}{
		{
			name:  "everything wrong reports name",
			input: SignupInput{Username: "ab", Password: "1", Email: "nope"},
			want:  "name is missing",
		},
		{
			name:  "blank name",
			input: SignupInput{Name: "   ", Username: "alice", Password: "secret", Email: "a@example.com"},
			want:  "name is missing",
		},
		{
			name:  "short username before short password",
			input: SignupInput{Name: "A", Username: "abc", Password: "1", Email: "nope"},
			want:  "username should be at least 5 characters",
		},
		{
			name:  "short password before bad email",
			input: SignupInput{Name: "A", Username: "alice", Password: "1234", Email: "nope"},
			want:  "password should be at least 5 characters",
		},
		{
			name:  "whitespace padded password",
			input: SignupInput{Name: "A", Username: "alice", Password: "  12  ", Email: "a@example.com"},
			want:  "password should be at least 5 characters",
		},
		{
			name:  "bad email",
			input: SignupInput{Name: "A", Username: "alice", Password: "secret", Email: "not-an-email"},
			want:  "invalid email",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := &stubUsers{}
			svc, _, _ := setupService(t, users)

			_, err := svc.Signup(context.Background(), tt.input)
			require.Error(t, err)
			assert.Equal(t, apperr.Validation, apperr.KindOf(err))
			assert.Equal(t, tt.want, err.Error())
			assert.Zero(t, users.created)
		})
	}
}

func TestSignup_StorageFailureIsInternal(t *testing.T) {
	users := &stubUsers{
		findByUsername: func(context.Context, string) (models.User, error) {
			return models.User{}, errors.New("connection reset")
		},
	}
	svc, _, _ := setupService(t, users)

	_, err := svc.Signup(context.Background(), validSignup())
	assert.Equal(t, apperr.Internal, apperr.KindOf(err))
}

func TestLogin(t *testing.T) {
	svc, tokens, _ := setupService(t, memory.New())
	_, err := svc.Signup(context.Background(), validSignup())
	require.NoError(t, err)

	session, err := svc.Login(context.Background(), LoginInput{Username: "alice", Password: "wonderland"})
	require.NoError(t, err)
	claims, err := tokens.Verify(session.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)

	_, unknownErr := svc.Login(context.Background(), LoginInput{Username: "mallory", Password: "wonderland"})
	_, wrongErr := svc.Login(context.Background(), LoginInput{Username: "alice", Password: "looking-glass"})

	for _, err := range []error{unknownErr, wrongErr} {
		require.Error(t, err)
		assert.Equal(t, apperr.Unauthorized, apperr.KindOf(err))
		assert.Equal(t, MsgInvalidCredentials, err.Error())
	}
}

type countingHasher struct {
	inner    Hasher
	verifies int
	hashes   []string
}

func (h *countingHasher) Hash(password string) (string, error) {
	hash, err := h.inner.Hash(password)
	h.hashes = append(h.hashes, hash)
	return hash, err
}

func (h *countingHasher) Verify(password, hash string) bool {
	h.verifies++
	return h.inner.Verify(password, hash)
}

func TestLogin_UnknownUserPaysHashCost(t *testing.T) {
	hasher := &countingHasher{inner: NewBcryptHasher(bcrypt.MinCost)}
	clock := &fakeClock{t: time.Now().UTC().Truncate(time.Second)}
	svc := NewService(memory.New(), hasher, newTestTokens(clock), nil)
	require.Len(t, hasher.hashes, 1)
	assert.NotEmpty(t, svc.dummyHash)

	_, err := svc.Signup(context.Background(), validSignup())
	require.NoError(t, err)

	tests := []struct {
		name  string
		input LoginInput
	}{
		{"unknown user", LoginInput{Username: "mallory", Password: "wonderland"}},
		{"wrong password", LoginInput{Username: "alice", Password: "looking-glass"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hasher.verifies = 0
			_, err := svc.Login(context.Background(), tt.input)
			require.Error(t, err)
			assert.Equal(t, MsgInvalidCredentials, err.Error())
			assert.Equal(t, 1, hasher.verifies)
		})
	}
}

func TestMe(t *testing.T) {
	store := memory.New()
	svc, tokens, clock := setupService(t, store)

	session, err := svc.Signup(context.Background(), validSignup())
	require.NoError(t, err)

	me, err := svc.Me(context.Background(), session.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", me.Username)
	assert.Equal(t, session.Token, me.Token)

	ghost, err := tokens.Issue(models.User{ID: "deleted-user", Username: "ghost"})
	require.NoError(t, err)
	_, err = svc.Me(context.Background(), ghost)
	assert.True(t, apperr.Is(err, apperr.Unauthorized))

	_, err = svc.Me(context.Background(), "garbage")
	assert.True(t, apperr.Is(err, apperr.Unauthorized))

	clock.Advance(2 * time.Hour)
	_, err = svc.Me(context.Background(), session.Token)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Unauthorized))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthenticate_DoesNotTouchStorage(t *testing.T) {
	users := &stubUsers{
		findByID: func(context.Context, string) (models.User, error) {
			t.Fatal("Authenticate must not consult storage")
			return models.User{}, nil
		},
	}
	svc, tokens, _ := setupService(t, users)

	token, err := tokens.Issue(models.User{ID: "u1", Username: "alice"})
	require.NoError(t, err)

	claims, err := svc.Authenticate(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
}
