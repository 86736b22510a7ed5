package api

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"rentease/internal/domain"
	"rentease/internal/models"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (s *HTTPServer) handleSignUp(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	user, err := s.auth.SignUp(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	writeJSON(w, http.StatusCreated, sessionResponse{Token: token, User: user})
}

func (s *HTTPServer) handleSignIn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	user, err := s.auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{Token: token, User: user})
}

func (s *HTTPServer) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if err := s.auth.SignOut(r.Context()); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "signed out"})
}

func (s *HTTPServer) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	user, err := s.auth.GetUserByID(r.Context(), userID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *HTTPServer) handleListings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		filter := domain.ListingFilter{
			Category: strings.TrimSpace(q.Get("category")),
			City:     strings.TrimSpace(q.Get("city")),
			State:    strings.TrimSpace(q.Get("state")),
			Country:  strings.TrimSpace(q.Get("country")),
			Search:   strings.TrimSpace(q.Get("search")),
		}
		listings, err := s.listings.BrowseListings(r.Context(), filter)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"listings": listings})

	case http.MethodPost:
		s.requireUser(s.handleCreateListing)(w, r)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleCreateListing(w http.ResponseWriter, r *http.Request) {
	var listing models.Listing
	if err := decodeJSON(r, &listing); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	created, err := s.listings.CreateListing(r.Context(), userID(r.Context()), listing)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *HTTPServer) handleListingByID(w http.ResponseWriter, r *http.Request) {
	const prefix = "/api/v1/listings/"
	rest := strings.TrimPrefix(r.URL.Path, prefix)
	id, sub, _ := strings.Cut(rest, "/")
	if id == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	if sub == "rentals" {
		s.requireUser(func(w http.ResponseWriter, r *http.Request) {
			s.handleListingRentals(w, r, id)
		})(w, r)
		return
	}
	if sub != "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		listing, err := s.listings.GetListing(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, listing)

	case http.MethodPatch:
		s.requireUser(func(w http.ResponseWriter, r *http.Request) {
			var patch models.ListingPatch
			if err := decodeJSON(r, &patch); err != nil {
				writeError(w, http.StatusBadRequest, "invalid JSON body")
				return
			}
			updated, err := s.listings.UpdateListing(r.Context(), userID(r.Context()), id, patch)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, updated)
		})(w, r)

	case http.MethodDelete:
		s.requireUser(func(w http.ResponseWriter, r *http.Request) {
			deleted, err := s.listings.DeleteListing(r.Context(), userID(r.Context()), id)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			if !deleted {
				writeError(w, http.StatusNotFound, "listing not found")
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
		})(w, r)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleListingRentals(w http.ResponseWriter, r *http.Request, listingID string) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	rentals, err := s.rentals.RentalsForListing(r.Context(), listingID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rentals": rentals})
}

type rentalRequest struct {
	ListingID string    `json:"listing_id"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

func (s *HTTPServer) handleRentals(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		rentals, err := s.rentals.RentalsForUser(r.Context(), userID(r.Context()))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"rentals": rentals})

	case http.MethodPost:
		var req rentalRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		rental, err := s.rentals.RequestRental(r.Context(), userID(r.Context()), req.ListingID, req.StartDate, req.EndDate)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, rental)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleRentalByID(w http.ResponseWriter, r *http.Request) {
	const prefix = "/api/v1/rentals/"
	rest := strings.TrimPrefix(r.URL.Path, prefix)
	id, action, _ := strings.Cut(rest, "/")
	if id == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	switch action {
	case "":
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		rental, err := s.rentals.GetRental(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rental)

	case "approve", "reject", "complete":
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		var (
			rental *models.Rental
			err    error
		)
		uid := userID(r.Context())
		switch action {
		case "approve":
			rental, err = s.rentals.ApproveRental(r.Context(), uid, id)
		case "reject":
			rental, err = s.rentals.RejectRental(r.Context(), uid, id)
		case "complete":
			rental, err = s.rentals.CompleteRental(r.Context(), uid, id)
		}
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rental)

	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

type messageRequest struct {
	ReceiverID string `json:"receiver_id"`
	ListingID  string `json:"listing_id"`
	Content    string `json:"content"`
}

func (s *HTTPServer) handleMessages(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		otherUserID := strings.TrimSpace(q.Get("other_user_id"))
		listingID := strings.TrimSpace(q.Get("listing_id"))
		if otherUserID == "" || listingID == "" {
			writeError(w, http.StatusBadRequest, "other_user_id and listing_id are required")
			return
		}
		msgs, err := s.messages.Thread(r.Context(), userID(r.Context()), otherUserID, listingID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"messages": msgs})

	case http.MethodPost:
		var req messageRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		msg, err := s.messages.SendMessage(r.Context(), userID(r.Context()), req.ReceiverID, req.ListingID, req.Content)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, msg)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		OtherUserID string `json:"other_user_id"`
		ListingID   string `json:"listing_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.messages.MarkThreadRead(r.Context(), userID(r.Context()), req.OtherUserID, req.ListingID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "read"})
}

func (s *HTTPServer) handleConversations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	summaries, err := s.messages.ConversationsForUser(r.Context(), userID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"conversations": summaries})
}

// handleExport dumps every collection as raw JSON for client-side backup.
// Password hashes never leave the server, so the users collection is
// re-encoded with the hash field cleared.
func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	snapshot, err := s.records.Export(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	if raw, ok := snapshot["users"]; ok {
		var users []models.User
		if err := json.Unmarshal(raw, &users); err != nil {
			writeError(w, http.StatusInternalServerError, "export failed")
			return
		}
		for i := range users {
			users[i].PasswordHash = ""
		}
		redacted, err := json.Marshal(users)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "export failed")
			return
		}
		snapshot["users"] = redacted
	}
	writeJSON(w, http.StatusOK, snapshot)
}

// handleRentalsReport builds an xlsx rentals report for the period and
// streams the file back. Defaults to the last 30 days.
func (s *HTTPServer) handleRentalsReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.reports == nil {
		writeError(w, http.StatusNotImplemented, "reports are not configured")
		return
	}

	endDate := time.Now().UTC()
	startDate := endDate.AddDate(0, 0, -30)

	if v := r.URL.Query().Get("start_date"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid start_date, expected YYYY-MM-DD")
			return
		}
		startDate = parsed
	}
	if v := r.URL.Query().Get("end_date"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid end_date, expected YYYY-MM-DD")
			return
		}
		endDate = parsed
	}
	if endDate.Before(startDate) {
		writeError(w, http.StatusBadRequest, "end_date is before start_date")
		return
	}

	path, err := s.reports.RentalsReport(r.Context(), startDate, endDate)
	if err != nil {
		s.logger.Error().Err(err).Msg("rentals report error")
		writeError(w, http.StatusInternalServerError, "report generation failed")
		return
	}

	w.Header().Set("Content-Disposition", "attachment; filename="+filepath.Base(path))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	http.ServeFile(w, r, path)
}
