package service

import (
	"context"
	"strings"

	"rentease/internal/domain"
	"rentease/internal/events"
	"rentease/internal/models"

	"github.com/rs/zerolog"
)

type ListingServiceImpl struct {
	store    domain.RecordStore
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewListingService(store domain.RecordStore, eventBus domain.EventPublisher, logger *zerolog.Logger) *ListingServiceImpl {
	return &ListingServiceImpl{
		store:    store,
		eventBus: eventBus,
		logger:   logger,
	}
}

type listingInput struct {
	Title     string  `json:"title" validate:"required,max=120"`
	Price     float64 `json:"price" validate:"required,gt=0"`
	PriceUnit string  `json:"price_unit" validate:"required,oneof=hour day week"`
	Category  string  `json:"category" validate:"required,oneof=sports tools electronics other"`
	Condition string  `json:"condition" validate:"required,oneof='like new' good fair"`
}

func (s *ListingServiceImpl) CreateListing(ctx context.Context, ownerID string, listing models.Listing) (*models.Listing, error) {
	input := listingInput{
		Title:     listing.Title,
		Price:     listing.Price,
		PriceUnit: listing.PriceUnit,
		Category:  listing.Category,
		Condition: listing.Condition,
	}
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	listing.OwnerID = ownerID
	created, err := s.store.CreateListing(ctx, listing)
	if err != nil {
		return nil, err
	}

	s.publishEvent(events.EventListingCreated, created)

	return created, nil
}

func (s *ListingServiceImpl) UpdateListing(ctx context.Context, userID, listingID string, patch models.ListingPatch) (*models.Listing, error) {
	existing, err := s.store.GetListingByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrListingNotFound
	}
	if existing.OwnerID != userID {
		return nil, ErrNotOwner
	}

	if patch.Price != nil && *patch.Price <= 0 {
		return nil, ErrInvalidPrice
	}
	if patch.PriceUnit != nil && !models.ValidPriceUnit(*patch.PriceUnit) {
		return nil, ErrInvalidPriceUnit
	}
	if patch.Category != nil && !models.ValidCategory(*patch.Category) {
		return nil, ErrInvalidCategory
	}
	if patch.Condition != nil && !models.ValidCondition(*patch.Condition) {
		return nil, ErrInvalidCondition
	}

	updated, err := s.store.UpdateListing(ctx, listingID, patch)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrListingNotFound
	}

	s.publishEvent(events.EventListingUpdated, updated)

	return updated, nil
}

func (s *ListingServiceImpl) DeleteListing(ctx context.Context, userID, listingID string) (bool, error) {
	existing, err := s.store.GetListingByID(ctx, listingID)
	if err != nil {
		return false, err
	}
	if existing == nil {
		return false, nil
	}
	if existing.OwnerID != userID {
		return false, ErrNotOwner
	}

	deleted, err := s.store.DeleteListing(ctx, listingID)
	if err != nil {
		return false, err
	}

	if deleted {
		s.publishEvent(events.EventListingDeleted, existing)
	}

	return deleted, nil
}

func (s *ListingServiceImpl) GetListing(ctx context.Context, id string) (*models.Listing, error) {
	listing, err := s.store.GetListingByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if listing == nil {
		return nil, ErrListingNotFound
	}
	return listing, nil
}

// BrowseListings applies the filter in-memory; every set field must match,
// the search term is substring-matched against title and description.
func (s *ListingServiceImpl) BrowseListings(ctx context.Context, filter domain.ListingFilter) ([]models.Listing, error) {
	listings, err := s.store.Listings(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]models.Listing, 0, len(listings))
	for _, l := range listings {
		if filter.Category != "" && l.Category != filter.Category {
			continue
		}
		if filter.City != "" && !strings.EqualFold(l.City, filter.City) {
			continue
		}
		if filter.State != "" && !strings.EqualFold(l.State, filter.State) {
			continue
		}
		if filter.Country != "" && !strings.EqualFold(l.Country, filter.Country) {
			continue
		}
		if filter.Search != "" {
			needle := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(l.Title), needle) &&
				!strings.Contains(strings.ToLower(l.Description), needle) {
				continue
			}
		}
		result = append(result, l)
	}

	return result, nil
}

func (s *ListingServiceImpl) ListingsByOwner(ctx context.Context, ownerID string) ([]models.Listing, error) {
	listings, err := s.store.Listings(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]models.Listing, 0)
	for _, l := range listings {
		if l.OwnerID == ownerID {
			result = append(result, l)
		}
	}
	return result, nil
}

func (s *ListingServiceImpl) publishEvent(eventType string, listing *models.Listing) {
	if s.eventBus == nil {
		return
	}

	payload := events.ListingEventPayload{
		ListingID: listing.ID,
		Title:     listing.Title,
		OwnerID:   listing.OwnerID,
		Price:     listing.Price,
		PriceUnit: listing.PriceUnit,
		Category:  listing.Category,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Str("listing_id", listing.ID).Msg("publish event error")
	}
}
