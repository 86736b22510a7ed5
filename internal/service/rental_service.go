package service

import (
	"context"
	"math"
	"time"

	"rentease/internal/domain"
	"rentease/internal/events"
	"rentease/internal/models"

	"github.com/rs/zerolog"
)

type RentalServiceImpl struct {
	store      domain.RecordStore
	eventBus   domain.EventPublisher
	syncWorker domain.SyncWorker
	logger     *zerolog.Logger
	now        func() time.Time
}

func NewRentalService(store domain.RecordStore, eventBus domain.EventPublisher, syncWorker domain.SyncWorker, logger *zerolog.Logger) *RentalServiceImpl {
	return &RentalServiceImpl{
		store:      store,
		eventBus:   eventBus,
		syncWorker: syncWorker,
		logger:     logger,
		now:        time.Now,
	}
}

// RentalPrice derives the total from the listing's rate and the booked
// period. The period is billed in whole days, at least one; hourly rates
// bill 24 hours per day, weekly rates bill started weeks.
func RentalPrice(listing *models.Listing, startDate, endDate time.Time) float64 {
	days := int(math.Ceil(endDate.Sub(startDate).Hours() / 24))
	if days < 1 {
		days = 1
	}

	switch listing.PriceUnit {
	case models.PriceUnitHour:
		return listing.Price * float64(days*24)
	case models.PriceUnitWeek:
		weeks := int(math.Ceil(float64(days) / 7))
		return listing.Price * float64(weeks)
	default:
		return listing.Price * float64(days)
	}
}

func (s *RentalServiceImpl) RequestRental(ctx context.Context, renterID, listingID string, startDate, endDate time.Time) (*models.Rental, error) {
	if err := s.validateDateRange(startDate, endDate); err != nil {
		return nil, err
	}

	listing, err := s.store.GetListingByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing == nil {
		return nil, ErrListingNotFound
	}
	if listing.OwnerID == renterID {
		return nil, ErrOwnListing
	}

	rental := models.Rental{
		ListingID:  listingID,
		RenterID:   renterID,
		OwnerID:    listing.OwnerID,
		StartDate:  startDate,
		EndDate:    endDate,
		Status:     models.StatusPending,
		TotalPrice: RentalPrice(listing, startDate, endDate),
	}

	created, err := s.store.CreateRental(ctx, rental)
	if err != nil {
		return nil, err
	}

	s.publishEvent(events.EventRentalRequested, created)
	s.enqueueSync(ctx, created, "upsert")

	return created, nil
}

// validateDateRange requires both dates set, the end strictly after the
// start, and a start no earlier than today (UTC, day granularity).
func (s *RentalServiceImpl) validateDateRange(startDate, endDate time.Time) error {
	if startDate.IsZero() || endDate.IsZero() {
		return ErrInvalidDates
	}
	if !endDate.After(startDate) {
		return ErrInvalidDates
	}

	today := s.now().UTC().Truncate(24 * time.Hour)
	if startDate.Before(today) {
		return ErrInvalidDates
	}
	return nil
}

func (s *RentalServiceImpl) ApproveRental(ctx context.Context, userID, rentalID string) (*models.Rental, error) {
	return s.transition(ctx, userID, rentalID, models.StatusApproved, events.EventRentalApproved)
}

func (s *RentalServiceImpl) RejectRental(ctx context.Context, userID, rentalID string) (*models.Rental, error) {
	return s.transition(ctx, userID, rentalID, models.StatusRejected, events.EventRentalRejected)
}

func (s *RentalServiceImpl) CompleteRental(ctx context.Context, userID, rentalID string) (*models.Rental, error) {
	return s.transition(ctx, userID, rentalID, models.StatusCompleted, events.EventRentalCompleted)
}

// transition enforces owner-only status changes along the pending ->
// approved -> completed / pending -> rejected machine.
func (s *RentalServiceImpl) transition(ctx context.Context, userID, rentalID, target, eventType string) (*models.Rental, error) {
	rental, err := s.store.GetRentalByID(ctx, rentalID)
	if err != nil {
		return nil, err
	}
	if rental == nil {
		return nil, ErrRentalNotFound
	}
	if rental.OwnerID != userID {
		return nil, ErrNotOwner
	}
	if !rental.CanTransition(target) {
		return nil, ErrInvalidTransition
	}

	updated, err := s.store.UpdateRentalStatus(ctx, rentalID, target)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrRentalNotFound
	}

	s.publishEvent(eventType, updated)
	s.enqueueSync(ctx, updated, "update_status")

	return updated, nil
}

func (s *RentalServiceImpl) GetRental(ctx context.Context, id string) (*models.Rental, error) {
	rental, err := s.store.GetRentalByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rental == nil {
		return nil, ErrRentalNotFound
	}
	return rental, nil
}

func (s *RentalServiceImpl) RentalsForUser(ctx context.Context, userID string) ([]models.Rental, error) {
	return s.store.RentalsByUser(ctx, userID)
}

func (s *RentalServiceImpl) RentalsForListing(ctx context.Context, listingID string) ([]models.Rental, error) {
	return s.store.RentalsByListing(ctx, listingID)
}

func (s *RentalServiceImpl) publishEvent(eventType string, rental *models.Rental) {
	if s.eventBus == nil {
		return
	}

	payload := events.RentalEventPayload{
		RentalID:   rental.ID,
		ListingID:  rental.ListingID,
		RenterID:   rental.RenterID,
		OwnerID:    rental.OwnerID,
		Status:     rental.Status,
		StartDate:  rental.StartDate,
		EndDate:    rental.EndDate,
		TotalPrice: rental.TotalPrice,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Str("rental_id", rental.ID).Msg("publish event error")
	}
}

func (s *RentalServiceImpl) enqueueSync(ctx context.Context, rental *models.Rental, taskType string) {
	if s.syncWorker == nil {
		return
	}

	var status string
	if taskType == "update_status" {
		status = rental.Status
	}

	if err := s.syncWorker.EnqueueTask(ctx, taskType, rental.ID, rental, status); err != nil {
		s.logger.Error().Err(err).Str("rental_id", rental.ID).Str("task", taskType).Msg("sheets enqueue error")
	}
}
