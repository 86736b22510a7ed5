package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignUpSetsSession(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user, err := s.SignUp(ctx, "a@x.com", "pw")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "a@x.com", user.Email)
	assert.False(t, user.CreatedAt.IsZero())

	current, err := s.CurrentUser(ctx)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, user.ID, current.ID)
}

func TestSignUpDuplicateEmailFails(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.SignUp(ctx, "a@x.com", "pw")
	require.NoError(t, err)

	_, err = s.SignUp(ctx, "a@x.com", "other")
	assert.ErrorIs(t, err, ErrUserExists)

	// the first user remains the current session
	current, err := s.CurrentUser(ctx)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, first.ID, current.ID)

	users, err := s.Users(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestSignUpDuplicateEmailIsCaseInsensitive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.SignUp(ctx, "a@x.com", "pw")
	require.NoError(t, err)

	_, err = s.SignUp(ctx, "A@X.COM", "pw")
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestSignInUnknownEmailFails(t *testing.T) {
	s := newTestStore(t)

	_, err := s.SignIn(context.Background(), "nobody@x.com", "pw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSignInAnyPasswordUnderNoopStrategy(t *testing.T) {
	// The original prototype never verified passwords. The "none" strategy
	// keeps that behavior selectable.
	s := newTestStore(t)
	ctx := context.Background()

	signedUp, err := s.SignUp(ctx, "a@x.com", "pw")
	require.NoError(t, err)
	require.NoError(t, s.SignOut(ctx))

	user, err := s.SignIn(ctx, "a@x.com", "totally-wrong")
	require.NoError(t, err)
	assert.Equal(t, signedUp.ID, user.ID)
}

func TestSignInBcryptVerifiesPassword(t *testing.T) {
	s := newBcryptStore(t)
	ctx := context.Background()

	_, err := s.SignUp(ctx, "a@x.com", "correct-horse")
	require.NoError(t, err)
	require.NoError(t, s.SignOut(ctx))

	_, err = s.SignIn(ctx, "a@x.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	user, err := s.SignIn(ctx, "a@x.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", user.Email)
}

func TestBcryptNeverStoresPlaintext(t *testing.T) {
	s := newBcryptStore(t)
	ctx := context.Background()

	user, err := s.SignUp(ctx, "a@x.com", "correct-horse")
	require.NoError(t, err)
	assert.NotEmpty(t, user.PasswordHash)
	assert.NotContains(t, user.PasswordHash, "correct-horse")
}

func TestSignOutClearsSession(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.SignUp(ctx, "a@x.com", "pw")
	require.NoError(t, err)

	require.NoError(t, s.SignOut(ctx))

	current, err := s.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, current)
}

func TestGetUserByIDAndEmail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.SignUp(ctx, "a@x.com", "pw")
	require.NoError(t, err)

	byID, err := s.GetUserByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, created.Email, byID.Email)

	byEmail, err := s.GetUserByEmail(ctx, "A@x.COM")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, created.ID, byEmail.ID)

	missing, err := s.GetUserByID(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCreateIDsUniqueAndTimestampsMonotone(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seen := make(map[string]bool)
	var prev time.Time
	for i := 0; i < 20; i++ {
		listing, err := s.CreateListing(ctx, testListing("owner"))
		require.NoError(t, err)
		assert.False(t, seen[listing.ID], "duplicate id %s", listing.ID)
		seen[listing.ID] = true
		assert.False(t, listing.CreatedAt.Before(prev), "timestamps must be non-decreasing")
		prev = listing.CreatedAt
	}
}
