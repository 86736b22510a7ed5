package store

import (
	"context"
	"testing"
	"time"

	"rentease/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRental(listingID, renterID, ownerID string) models.Rental {
	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	return models.Rental{
		ListingID:  listingID,
		RenterID:   renterID,
		OwnerID:    ownerID,
		StartDate:  start,
		EndDate:    start.AddDate(0, 0, 3),
		Status:     models.StatusPending,
		TotalPrice: 30,
	}
}

func TestCreateRentalDefaultsToPending(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rental := testRental("l1", "renter", "owner")
	rental.Status = ""
	created, err := s.CreateRental(ctx, rental)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, created.Status)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)
	assert.Equal(t, 30.0, created.TotalPrice)
}

func TestRentalsByUserMatchesEitherParty(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateRental(ctx, testRental("l1", "alice", "bob"))
	require.NoError(t, err)
	_, err = s.CreateRental(ctx, testRental("l2", "bob", "carol"))
	require.NoError(t, err)
	_, err = s.CreateRental(ctx, testRental("l3", "carol", "dave"))
	require.NoError(t, err)

	forBob, err := s.RentalsByUser(ctx, "bob")
	require.NoError(t, err)
	assert.Len(t, forBob, 2)

	forDave, err := s.RentalsByUser(ctx, "dave")
	require.NoError(t, err)
	assert.Len(t, forDave, 1)

	forNobody, err := s.RentalsByUser(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, forNobody)
}

func TestRentalsByListing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateRental(ctx, testRental("l1", "alice", "bob"))
	require.NoError(t, err)
	_, err = s.CreateRental(ctx, testRental("l1", "carol", "bob"))
	require.NoError(t, err)
	_, err = s.CreateRental(ctx, testRental("l2", "alice", "bob"))
	require.NoError(t, err)

	rentals, err := s.RentalsByListing(ctx, "l1")
	require.NoError(t, err)
	assert.Len(t, rentals, 2)
}

func TestUpdateRentalStatusStampsUpdatedAt(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateRental(ctx, testRental("l1", "alice", "bob"))
	require.NoError(t, err)

	updated, err := s.UpdateRentalStatus(ctx, created.ID, models.StatusApproved)
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, models.StatusApproved, updated.Status)
	assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))

	found, err := s.GetRentalByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, models.StatusApproved, found.Status)
	// total price is never recomputed
	assert.Equal(t, created.TotalPrice, found.TotalPrice)
}

func TestUpdateRentalStatusUnknownIDReturnsNil(t *testing.T) {
	s := newTestStore(t)

	updated, err := s.UpdateRentalStatus(context.Background(), "missing", models.StatusApproved)
	require.NoError(t, err)
	assert.Nil(t, updated)
}
