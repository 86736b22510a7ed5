// Package export renders rental activity reports as Excel workbooks.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"rentease/internal/domain"
	"rentease/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const rentalsSheetName = "Rentals"

// ReportService writes xlsx snapshots of the rentals collection.
type ReportService struct {
	records domain.RecordStore
	dir     string
	logger  *zerolog.Logger
	now     func() time.Time
}

func NewReportService(records domain.RecordStore, dir string, logger *zerolog.Logger) *ReportService {
	return &ReportService{
		records: records,
		dir:     dir,
		logger:  logger,
		now:     time.Now,
	}
}

// RentalsReport writes every rental in the period (inclusive on both ends,
// matched on start date) to a new workbook and returns the file path.
func (s *ReportService) RentalsReport(ctx context.Context, startDate, endDate time.Time) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %w", err)
	}

	rentals, err := s.records.Rentals(ctx)
	if err != nil {
		return "", fmt.Errorf("error getting rentals: %w", err)
	}

	listings, err := s.records.Listings(ctx)
	if err != nil {
		return "", fmt.Errorf("error getting listings: %w", err)
	}
	titles := make(map[string]string, len(listings))
	for _, l := range listings {
		titles[l.ID] = l.Title
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(rentalsSheetName)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)

	_ = f.SetCellValue(rentalsSheetName, "A1", fmt.Sprintf("Period: %s - %s",
		startDate.Format("2006-01-02"), endDate.Format("2006-01-02")))
	_ = f.MergeCell(rentalsSheetName, "A1", "H1")

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(rentalsSheetName, "A1", "A1", titleStyle)

	s.writeHeaders(f)

	row := 3
	for i := range rentals {
		r := &rentals[i]
		if r.StartDate.Before(startDate) || r.StartDate.After(endDate) {
			continue
		}
		s.writeRentalRow(f, row, r, titles[r.ListingID])
		row++
	}

	_ = f.SetColWidth(rentalsSheetName, "A", "A", 38)
	_ = f.SetColWidth(rentalsSheetName, "B", "B", 30)
	_ = f.SetColWidth(rentalsSheetName, "C", "H", 16)

	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("rentals_%s_to_%s.xlsx",
		startDate.Format("2006-01-02"), endDate.Format("2006-01-02"))
	filePath := filepath.Join(s.dir, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %w", err)
	}

	s.logger.Info().Str("file_path", filePath).Int("rows", row-3).Msg("rentals report created")
	return filePath, nil
}

func (s *ReportService) writeHeaders(f *excelize.File) {
	headers := []string{"ID", "Listing", "Renter ID", "Owner ID", "Start", "End", "Status", "Total"}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(rentalsSheetName, cell, header)
		_ = f.SetCellStyle(rentalsSheetName, cell, cell, headerStyle)
	}
}

func (s *ReportService) writeRentalRow(f *excelize.File, row int, r *models.Rental, listingTitle string) {
	if listingTitle == "" {
		listingTitle = r.ListingID
	}

	values := []any{
		r.ID,
		listingTitle,
		r.RenterID,
		r.OwnerID,
		r.StartDate.Format("2006-01-02"),
		r.EndDate.Format("2006-01-02"),
		r.Status,
		r.TotalPrice,
	}
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = f.SetCellValue(rentalsSheetName, cell, v)
	}

	if styleID, err := s.statusStyle(f, r.Status); err == nil {
		statusCell, _ := excelize.CoordinatesToCellName(7, row)
		_ = f.SetCellStyle(rentalsSheetName, statusCell, statusCell, styleID)
	}
}

// statusStyle colors the status cell: green for approved/completed, yellow
// for pending, red for rejected.
func (s *ReportService) statusStyle(f *excelize.File, status string) (int, error) {
	var color string
	switch status {
	case models.StatusApproved, models.StatusCompleted:
		color = "#C6EFCE"
	case models.StatusPending:
		color = "#FFEB9C"
	case models.StatusRejected:
		color = "#FFC7CE"
	default:
		color = "#FFFFFF"
	}

	return f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
}
