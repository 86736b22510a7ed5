package service

import (
	"context"
	"io"
	"testing"

	"rentease/internal/models"
	"rentease/internal/storage"
	"rentease/internal/store"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockEventBus struct {
	mock.Mock
}

func (m *mockEventBus) PublishJSON(et string, p interface{}) error { return m.Called(et, p).Error(0) }

type mockWorker struct {
	mock.Mock
}

func (m *mockWorker) EnqueueTask(ctx context.Context, tt string, rid string, r *models.Rental, s string) error {
	return m.Called(ctx, tt, rid, r, s).Error(0)
}

// newTestStore backs the services with the real record store over the
// memory backend; only the outbound collaborators are mocked.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	logger := zerolog.New(io.Discard)
	s, err := store.Open(context.Background(), storage.NewMemoryBackend(), "test", nil, &logger)
	require.NoError(t, err)
	return s
}

func signUpUser(t *testing.T, s *store.Store, email string) *models.User {
	t.Helper()
	user, err := s.SignUp(context.Background(), email, "password")
	require.NoError(t, err)
	return user
}

func discardLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}
