package models

import "time"

type Rental struct {
	ID         string    `json:"id"`
	ListingID  string    `json:"listing_id"`
	RenterID   string    `json:"renter_id"`
	OwnerID    string    `json:"owner_id"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
	Status     string    `json:"status"` // pending, approved, rejected, completed
	TotalPrice float64   `json:"total_price"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CanTransition reports whether a rental may move from its current status
// to the target one. Rejected and completed are terminal.
func (r *Rental) CanTransition(target string) bool {
	switch r.Status {
	case StatusPending:
		return target == StatusApproved || target == StatusRejected
	case StatusApproved:
		return target == StatusCompleted
	default:
		return false
	}
}
