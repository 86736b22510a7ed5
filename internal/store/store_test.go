package store

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"testing"

	"rentease/internal/auth"
	"rentease/internal/models"
	"rentease/internal/storage"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	logger := zerolog.New(io.Discard)
	s, err := Open(context.Background(), storage.NewMemoryBackend(), "rentease", auth.NoopHasher{}, &logger)
	require.NoError(t, err)
	return s
}

func newBcryptStore(t *testing.T) *Store {
	t.Helper()
	logger := zerolog.New(io.Discard)
	s, err := Open(context.Background(), storage.NewMemoryBackend(), "rentease", auth.NewBcryptHasher(4), &logger)
	require.NoError(t, err)
	return s
}

func TestOpenStampsSchemaVersion(t *testing.T) {
	backend := storage.NewMemoryBackend()
	logger := zerolog.New(io.Discard)
	ctx := context.Background()

	_, err := Open(ctx, backend, "rentease", nil, &logger)
	require.NoError(t, err)

	raw, ok, err := backend.Get(ctx, "rentease_schema_version")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "1", string(raw))

	// reopening an up-to-date namespace is fine
	_, err = Open(ctx, backend, "rentease", nil, &logger)
	require.NoError(t, err)
}

func TestOpenRefusesNewerSchema(t *testing.T) {
	backend := storage.NewMemoryBackend()
	logger := zerolog.New(io.Discard)
	ctx := context.Background()

	require.NoError(t, backend.Set(ctx, "rentease_schema_version", []byte("99")))

	_, err := Open(ctx, backend, "rentease", nil, &logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "newer than supported")
}

func TestSaveListRoundTripPreservesOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	listings := []models.Listing{
		{ID: "l3", Title: "drill"},
		{ID: "l1", Title: "kayak"},
		{ID: "l2", Title: "camera"},
	}
	require.NoError(t, s.SaveListings(ctx, listings))

	got, err := s.Listings(ctx)
	require.NoError(t, err)
	assert.Equal(t, listings, got)
}

func TestEmptyCollectionsReturnEmpty(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	users, err := s.Users(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)

	listing, err := s.GetListingByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, listing)

	rental, err := s.GetRentalByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, rental)
}

func TestExportSnapshotsAllCollections(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.SignUp(ctx, "a@x.com", "pw")
	require.NoError(t, err)

	snapshot, err := s.Export(ctx)
	require.NoError(t, err)

	for _, key := range []string{"users", "listings", "rentals", "messages", "conversations", "sync_queue"} {
		assert.Contains(t, snapshot, key)
	}
	assert.NotEqual(t, "[]", string(snapshot["users"]))
	assert.Equal(t, "[]", string(snapshot["rentals"]))
}

func TestRestoreRoundTrip(t *testing.T) {
	src := newTestStore(t)
	dst := newTestStore(t)
	ctx := context.Background()

	user, err := src.SignUp(ctx, "a@x.com", "pw")
	require.NoError(t, err)
	_, err = src.CreateListing(ctx, models.Listing{OwnerID: user.ID, Title: "drill"})
	require.NoError(t, err)

	snapshot, err := src.Export(ctx)
	require.NoError(t, err)
	require.NoError(t, dst.Restore(ctx, snapshot))

	users, err := dst.Users(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "a@x.com", users[0].Email)

	listings, err := dst.Listings(ctx)
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "drill", listings[0].Title)
}

func TestDeleteListingLogsCascade(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	ctx := context.Background()
	s, err := Open(ctx, storage.NewMemoryBackend(), "rentease", auth.NoopHasher{}, &logger)
	require.NoError(t, err)

	listing, err := s.CreateListing(ctx, models.Listing{OwnerID: "u1", Title: "drill"})
	require.NoError(t, err)
	_, err = s.CreateRental(ctx, models.Rental{ListingID: listing.ID, RenterID: "u2"})
	require.NoError(t, err)

	found, err := s.DeleteListing(ctx, listing.ID)
	require.NoError(t, err)
	require.True(t, found)

	assert.Contains(t, buf.String(), "listing deleted with cascade")
	assert.Contains(t, buf.String(), `"rentals":1`)
}

func TestRestoreRejectsBadSnapshot(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.Restore(ctx, map[string]json.RawMessage{"bookings": json.RawMessage("[]")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown collection")

	err = s.Restore(ctx, map[string]json.RawMessage{"users": json.RawMessage("{not json")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JSON")
}
