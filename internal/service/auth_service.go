package service

import (
	"context"

	"rentease/internal/domain"
	"rentease/internal/events"
	"rentease/internal/models"

	"github.com/rs/zerolog"
)

type AuthServiceImpl struct {
	store    domain.RecordStore
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewAuthService(store domain.RecordStore, eventBus domain.EventPublisher, logger *zerolog.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{
		store:    store,
		eventBus: eventBus,
		logger:   logger,
	}
}

type credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

func (s *AuthServiceImpl) SignUp(ctx context.Context, email, password string) (*models.User, error) {
	if err := validateStruct(credentials{Email: email, Password: password}); err != nil {
		return nil, err
	}

	user, err := s.store.SignUp(ctx, email, password)
	if err != nil {
		return nil, err
	}

	s.publishSignUp(user)

	return user, nil
}

func (s *AuthServiceImpl) SignIn(ctx context.Context, email, password string) (*models.User, error) {
	return s.store.SignIn(ctx, email, password)
}

func (s *AuthServiceImpl) SignOut(ctx context.Context) error {
	return s.store.SignOut(ctx)
}

func (s *AuthServiceImpl) CurrentUser(ctx context.Context) (*models.User, error) {
	return s.store.CurrentUser(ctx)
}

func (s *AuthServiceImpl) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *AuthServiceImpl) publishSignUp(user *models.User) {
	if s.eventBus == nil {
		return
	}

	payload := struct {
		UserID string `json:"user_id"`
		Email  string `json:"email"`
	}{UserID: user.ID, Email: user.Email}

	if err := s.eventBus.PublishJSON(events.EventUserSignedUp, payload); err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("publish event error")
	}
}
