package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/hongminglow/tweeter-be/internal/models"
	"github.com/hongminglow/tweeter-be/internal/storage"
)

// TestStoreIntegration exercises the store against a throwaway Postgres container.
func TestStoreIntegration(t *testing.T) {
	if os.Getenv("RUN_POSTGRES_INTEGRATION") != "true" {
		t.Skip("set RUN_POSTGRES_INTEGRATION=true to run this integration test")
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("tweeter_test"),
		tcpostgres.WithUsername("tweeter"),
		tcpostgres.WithPassword("tweeter"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	s, err := NewStore(ctx, connStr)
	require.NoError(t, err)
	defer s.Close()

	now := time.Now().UTC().Truncate(time.Millisecond)
	_, err = s.CreateUser(ctx, models.User{ID: "u1", Name: "Alice", Username: "alice", Email: "a@example.com", PasswordHash: "h", CreatedAt: now})
	require.NoError(t, err)
	_, err = s.CreateUser(ctx, models.User{ID: "u2", Name: "Other", Username: "alice", Email: "b@example.com", PasswordHash: "h", CreatedAt: now})
	require.ErrorIs(t, err, storage.ErrAlreadyExists)

	created, err := s.Create(ctx, models.Tweet{ID: "t1", Text: "hello", UserID: "u1", CreatedAt: now})
	require.NoError(t, err)
	require.Equal(t, "alice", created.Username)

	updated, err := s.Update(ctx, "t1", "edited")
	require.NoError(t, err)
	require.Equal(t, "edited", updated.Text)

	require.NoError(t, s.Remove(ctx, "t1"))
	require.ErrorIs(t, s.Remove(ctx, "t1"), storage.ErrNotFound)
}
