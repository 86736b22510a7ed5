package store

import (
	"context"

	"rentease/internal/metrics"
	"rentease/internal/models"
)

// Listings returns the full listings collection.
func (s *Store) Listings(ctx context.Context) ([]models.Listing, error) {
	var listings []models.Listing
	if err := s.loadCollection(ctx, keyListings, &listings); err != nil {
		return nil, err
	}
	return listings, nil
}

// SaveListings overwrites the listings collection wholesale.
func (s *Store) SaveListings(ctx context.Context, listings []models.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveCollection(ctx, keyListings, listings)
}

// CreateListing assigns an id and creation timestamp, appends and persists.
// Referential integrity of OwnerID is the caller's responsibility.
func (s *Store) CreateListing(ctx context.Context, listing models.Listing) (*models.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var listings []models.Listing
	if err := s.loadCollection(ctx, keyListings, &listings); err != nil {
		return nil, err
	}

	now := s.now()
	listing.ID = s.newID()
	listing.CreatedAt = now
	listing.UpdatedAt = now

	listings = append(listings, listing)
	if err := s.saveCollection(ctx, keyListings, listings); err != nil {
		return nil, err
	}

	metrics.IncStoreOp(keyListings, "create")
	return &listing, nil
}

// GetListingByID returns the listing or nil when absent.
func (s *Store) GetListingByID(ctx context.Context, id string) (*models.Listing, error) {
	listings, err := s.Listings(ctx)
	if err != nil {
		return nil, err
	}
	for i := range listings {
		if listings[i].ID == id {
			return &listings[i], nil
		}
	}
	return nil, nil
}

// UpdateListing shallow-merges the patch into the listing and persists.
// Returns the updated record, or nil when the id is unknown.
func (s *Store) UpdateListing(ctx context.Context, id string, patch models.ListingPatch) (*models.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var listings []models.Listing
	if err := s.loadCollection(ctx, keyListings, &listings); err != nil {
		return nil, err
	}

	for i := range listings {
		if listings[i].ID != id {
			continue
		}
		patch.Apply(&listings[i])
		listings[i].UpdatedAt = s.now()
		if err := s.saveCollection(ctx, keyListings, listings); err != nil {
			return nil, err
		}
		metrics.IncStoreOp(keyListings, "update")
		return &listings[i], nil
	}
	return nil, nil
}

// DeleteListing removes the listing and cascades: every rental, message and
// conversation referencing the listing id is deleted too. Returns whether a
// listing was found.
func (s *Store) DeleteListing(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var listings []models.Listing
	if err := s.loadCollection(ctx, keyListings, &listings); err != nil {
		return false, err
	}

	kept := listings[:0]
	found := false
	for _, l := range listings {
		if l.ID == id {
			found = true
			continue
		}
		kept = append(kept, l)
	}
	if !found {
		return false, nil
	}

	if err := s.saveCollection(ctx, keyListings, kept); err != nil {
		return false, err
	}

	rentals, err := s.deleteRentalsByListing(ctx, id)
	if err != nil {
		return false, err
	}
	messages, err := s.deleteMessagesByListing(ctx, id)
	if err != nil {
		return false, err
	}
	conversations, err := s.deleteConversationsByListing(ctx, id)
	if err != nil {
		return false, err
	}

	metrics.IncStoreOp(keyListings, "delete")
	s.logger.Info().
		Str("listing_id", id).
		Int("rentals", rentals).
		Int("messages", messages).
		Int("conversations", conversations).
		Msg("listing deleted with cascade")
	return true, nil
}

func (s *Store) deleteRentalsByListing(ctx context.Context, listingID string) (int, error) {
	var rentals []models.Rental
	if err := s.loadCollection(ctx, keyRentals, &rentals); err != nil {
		return 0, err
	}
	kept := rentals[:0]
	for _, r := range rentals {
		if r.ListingID != listingID {
			kept = append(kept, r)
		}
	}
	removed := len(rentals) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	return removed, s.saveCollection(ctx, keyRentals, kept)
}

func (s *Store) deleteMessagesByListing(ctx context.Context, listingID string) (int, error) {
	var messages []models.Message
	if err := s.loadCollection(ctx, keyMessages, &messages); err != nil {
		return 0, err
	}
	kept := messages[:0]
	for _, m := range messages {
		if m.ListingID != listingID {
			kept = append(kept, m)
		}
	}
	removed := len(messages) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	return removed, s.saveCollection(ctx, keyMessages, kept)
}

func (s *Store) deleteConversationsByListing(ctx context.Context, listingID string) (int, error) {
	var conversations []models.Conversation
	if err := s.loadCollection(ctx, keyConversations, &conversations); err != nil {
		return 0, err
	}
	kept := conversations[:0]
	for _, c := range conversations {
		if c.ListingID != listingID {
			kept = append(kept, c)
		}
	}
	removed := len(conversations) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	return removed, s.saveCollection(ctx, keyConversations, kept)
}
