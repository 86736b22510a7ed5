package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"rentease/internal/models"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const rentalsSheet = "Rentals"

var errRowNotFound = errors.New("rental row not found")

// SheetsService mirrors the rentals collection into a Google spreadsheet.
// Row positions are cached per rental id to keep sync tasks to one write.
type SheetsService struct {
	service       *sheets.Service
	spreadsheetID string
	rowCache      map[string]int
	cacheMu       sync.RWMutex
}

func NewSheetsService(ctx context.Context, credentialsFile, spreadsheetID string) (*SheetsService, error) {
	credentialsJSON, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	config, err := google.JWTConfigFromJSON(credentialsJSON, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets service: %w", err)
	}

	return &SheetsService{
		service:       srv,
		spreadsheetID: spreadsheetID,
		rowCache:      make(map[string]int),
	}, nil
}

// TestConnection reads the header cell to verify access.
func (s *SheetsService) TestConnection(ctx context.Context) error {
	_, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, rentalsSheet+"!A1").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("connection test failed: %w", err)
	}
	return nil
}

// ServiceAccountEmail returns the client_email from the credentials file,
// the address the spreadsheet has to be shared with.
func ServiceAccountEmail(credentialsFile string) (string, error) {
	file, err := os.ReadFile(credentialsFile)
	if err != nil {
		return "", err
	}

	var creds struct {
		ClientEmail string `json:"client_email"`
	}
	if err := json.Unmarshal(file, &creds); err != nil {
		return "", err
	}
	return creds.ClientEmail, nil
}

func rentalRowValues(r *models.Rental) []interface{} {
	return []interface{}{
		r.ID,
		r.ListingID,
		r.RenterID,
		r.OwnerID,
		r.StartDate.Format("2006-01-02"),
		r.EndDate.Format("2006-01-02"),
		r.Status,
		r.TotalPrice,
		r.CreatedAt.Format("2006-01-02 15:04:05"),
		r.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
}

// UpsertRental updates the rental's row or appends one if it is not there.
func (s *SheetsService) UpsertRental(ctx context.Context, rental *models.Rental) error {
	if rental == nil {
		return fmt.Errorf("rental is nil")
	}

	rowIdx, err := s.findRentalRow(ctx, rental.ID)
	if err != nil {
		if errors.Is(err, errRowNotFound) {
			return s.appendRental(ctx, rental)
		}
		return err
	}

	rangeData := fmt.Sprintf("%s!A%d:J%d", rentalsSheet, rowIdx, rowIdx)
	_, err = s.service.Spreadsheets.Values.Update(s.spreadsheetID, rangeData, &sheets.ValueRange{
		Values: [][]interface{}{rentalRowValues(rental)},
	}).ValueInputOption("RAW").Context(ctx).Do()
	return err
}

func (s *SheetsService) appendRental(ctx context.Context, rental *models.Rental) error {
	_, err := s.service.Spreadsheets.Values.Append(s.spreadsheetID, rentalsSheet+"!A:A", &sheets.ValueRange{
		Values: [][]interface{}{rentalRowValues(rental)},
	}).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	return err
}

// UpdateRentalStatus rewrites the status and updated-at cells in place.
func (s *SheetsService) UpdateRentalStatus(ctx context.Context, rentalID, status string) error {
	rowIdx, err := s.findRentalRow(ctx, rentalID)
	if err != nil {
		return err
	}

	statusRange := fmt.Sprintf("%s!G%d:G%d", rentalsSheet, rowIdx, rowIdx)
	_, err = s.service.Spreadsheets.Values.Update(s.spreadsheetID, statusRange, &sheets.ValueRange{
		Values: [][]interface{}{{status}},
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return err
	}

	updatedRange := fmt.Sprintf("%s!J%d:J%d", rentalsSheet, rowIdx, rowIdx)
	_, err = s.service.Spreadsheets.Values.Update(s.spreadsheetID, updatedRange, &sheets.ValueRange{
		Values: [][]interface{}{{time.Now().Format("2006-01-02 15:04:05")}},
	}).ValueInputOption("RAW").Context(ctx).Do()
	return err
}

// ReplaceRentalsSheet wipes the sheet and rewrites every rental with a
// header row.
func (s *SheetsService) ReplaceRentalsSheet(ctx context.Context, rentals []models.Rental) error {
	values := [][]interface{}{
		{"ID", "Listing ID", "Renter ID", "Owner ID", "Start Date", "End Date", "Status", "Total Price", "Created At", "Updated At"},
	}
	for i := range rentals {
		values = append(values, rentalRowValues(&rentals[i]))
	}

	_, err := s.service.Spreadsheets.Values.Clear(s.spreadsheetID, rentalsSheet+"!A:J", &sheets.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return err
	}

	rangeData := fmt.Sprintf("%s!A1:J%d", rentalsSheet, len(values))
	_, err = s.service.Spreadsheets.Values.Update(s.spreadsheetID, rangeData, &sheets.ValueRange{
		Values: values,
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return err
	}

	// The sheet was rebuilt, so cached row positions are stale.
	s.cacheMu.Lock()
	s.rowCache = make(map[string]int)
	for i := range rentals {
		s.rowCache[rentals[i].ID] = i + 2
	}
	s.cacheMu.Unlock()
	return nil
}

// findRentalRow locates the 1-based row index for a rental id in column A.
func (s *SheetsService) findRentalRow(ctx context.Context, rentalID string) (int, error) {
	if rentalID == "" {
		return 0, fmt.Errorf("rental id is required")
	}

	if row, ok := s.getCachedRow(rentalID); ok {
		return row, nil
	}

	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, rentalsSheet+"!A:A").Context(ctx).Do()
	if err != nil {
		return 0, err
	}

	for i, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		if v, ok := row[0].(string); ok && v == rentalID {
			rowIdx := i + 1
			s.setCachedRow(rentalID, rowIdx)
			return rowIdx, nil
		}
	}

	return 0, errRowNotFound
}

func (s *SheetsService) getCachedRow(id string) (int, bool) {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	row, ok := s.rowCache[id]
	return row, ok
}

func (s *SheetsService) setCachedRow(id string, row int) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.rowCache[id] = row
}
