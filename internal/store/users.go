package store

import (
	"context"
	"fmt"
	"strings"

	"rentease/internal/metrics"
	"rentease/internal/models"
)

// Users returns the full users collection.
func (s *Store) Users(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.loadCollection(ctx, keyUsers, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// SaveUsers overwrites the users collection wholesale.
func (s *Store) SaveUsers(ctx context.Context, users []models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveCollection(ctx, keyUsers, users)
}

// GetUserByID returns the user or nil when absent.
func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	users, err := s.Users(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].ID == id {
			return &users[i], nil
		}
	}
	return nil, nil
}

// GetUserByEmail returns the user or nil when absent. Emails compare
// case-insensitively.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	users, err := s.Users(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if strings.EqualFold(users[i].Email, email) {
			return &users[i], nil
		}
	}
	return nil, nil
}

// CurrentUser returns the session user or nil when signed out.
func (s *Store) CurrentUser(ctx context.Context) (*models.User, error) {
	raw, ok, err := s.backend.Get(ctx, s.key(keyCurrentUser))
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if !ok {
		return nil, nil
	}

	var user models.User
	if err := unmarshalRecord(raw, &user); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &user, nil
}

// SetCurrentUser stores the session user; nil clears the session.
func (s *Store) SetCurrentUser(ctx context.Context, user *models.User) error {
	if user == nil {
		if err := s.backend.Delete(ctx, s.key(keyCurrentUser)); err != nil {
			return fmt.Errorf("failed to clear session: %w", err)
		}
		return nil
	}

	raw, err := marshalRecord(user)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.backend.Set(ctx, s.key(keyCurrentUser), raw); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// SignUp creates a user and sets it as the current session. Fails with
// ErrUserExists when the email is already registered. The password is run
// through the configured hash strategy before it is stored.
func (s *Store) SignUp(ctx context.Context, email, password string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var users []models.User
	if err := s.loadCollection(ctx, keyUsers, &users); err != nil {
		return nil, err
	}

	for i := range users {
		if strings.EqualFold(users[i].Email, email) {
			return nil, ErrUserExists
		}
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		ID:           s.newID(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.now(),
	}

	users = append(users, user)
	if err := s.saveCollection(ctx, keyUsers, users); err != nil {
		return nil, err
	}
	if err := s.SetCurrentUser(ctx, &user); err != nil {
		return nil, err
	}

	metrics.IncStoreOp(keyUsers, "create")
	return &user, nil
}

// SignIn verifies the email and password against the configured strategy
// and sets the session. Unknown email and hash mismatch both surface as
// ErrInvalidCredentials.
func (s *Store) SignIn(ctx context.Context, email, password string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := s.SetCurrentUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// SignOut clears the session.
func (s *Store) SignOut(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.SetCurrentUser(ctx, nil)
}
