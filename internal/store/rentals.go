package store

import (
	"context"

	"rentease/internal/metrics"
	"rentease/internal/models"
)

// Rentals returns the full rentals collection.
func (s *Store) Rentals(ctx context.Context) ([]models.Rental, error) {
	var rentals []models.Rental
	if err := s.loadCollection(ctx, keyRentals, &rentals); err != nil {
		return nil, err
	}
	return rentals, nil
}

// SaveRentals overwrites the rentals collection wholesale.
func (s *Store) SaveRentals(ctx context.Context, rentals []models.Rental) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveCollection(ctx, keyRentals, rentals)
}

// CreateRental assigns an id and timestamps, appends and persists.
// TotalPrice is taken as given; the store never recomputes it.
func (s *Store) CreateRental(ctx context.Context, rental models.Rental) (*models.Rental, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rentals []models.Rental
	if err := s.loadCollection(ctx, keyRentals, &rentals); err != nil {
		return nil, err
	}

	now := s.now()
	rental.ID = s.newID()
	rental.CreatedAt = now
	rental.UpdatedAt = now
	if rental.Status == "" {
		rental.Status = models.StatusPending
	}

	rentals = append(rentals, rental)
	if err := s.saveCollection(ctx, keyRentals, rentals); err != nil {
		return nil, err
	}

	metrics.IncStoreOp(keyRentals, "create")
	return &rental, nil
}

// GetRentalByID returns the rental or nil when absent.
func (s *Store) GetRentalByID(ctx context.Context, id string) (*models.Rental, error) {
	rentals, err := s.Rentals(ctx)
	if err != nil {
		return nil, err
	}
	for i := range rentals {
		if rentals[i].ID == id {
			return &rentals[i], nil
		}
	}
	return nil, nil
}

// RentalsByUser returns rentals where the user is renter or owner.
func (s *Store) RentalsByUser(ctx context.Context, userID string) ([]models.Rental, error) {
	rentals, err := s.Rentals(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.Rental
	for _, r := range rentals {
		if r.RenterID == userID || r.OwnerID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

// RentalsByListing filters rentals by listing id.
func (s *Store) RentalsByListing(ctx context.Context, listingID string) ([]models.Rental, error) {
	rentals, err := s.Rentals(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.Rental
	for _, r := range rentals {
		if r.ListingID == listingID {
			out = append(out, r)
		}
	}
	return out, nil
}

// UpdateRentalStatus sets the status and stamps UpdatedAt. Returns the
// updated record, or nil when the id is unknown. Transition legality is the
// caller's concern; the store records what it is told.
func (s *Store) UpdateRentalStatus(ctx context.Context, id, status string) (*models.Rental, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rentals []models.Rental
	if err := s.loadCollection(ctx, keyRentals, &rentals); err != nil {
		return nil, err
	}

	for i := range rentals {
		if rentals[i].ID != id {
			continue
		}
		rentals[i].Status = status
		rentals[i].UpdatedAt = s.now()
		if err := s.saveCollection(ctx, keyRentals, rentals); err != nil {
			return nil, err
		}
		metrics.IncStoreOp(keyRentals, "update")
		return &rentals[i], nil
	}
	return nil, nil
}
