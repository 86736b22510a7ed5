package domain

import (
	"context"
	"encoding/json"
	"time"

	"rentease/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// RecordStore is the persistence contract the services are written against.
// Lookups return nil for absent records; only the two auth precondition
// violations surface as errors.
type RecordStore interface {
	Users(ctx context.Context) ([]models.User, error)
	SaveUsers(ctx context.Context, users []models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CurrentUser(ctx context.Context) (*models.User, error)
	SetCurrentUser(ctx context.Context, user *models.User) error
	SignUp(ctx context.Context, email, password string) (*models.User, error)
	SignIn(ctx context.Context, email, password string) (*models.User, error)
	SignOut(ctx context.Context) error

	Listings(ctx context.Context) ([]models.Listing, error)
	SaveListings(ctx context.Context, listings []models.Listing) error
	CreateListing(ctx context.Context, listing models.Listing) (*models.Listing, error)
	GetListingByID(ctx context.Context, id string) (*models.Listing, error)
	UpdateListing(ctx context.Context, id string, patch models.ListingPatch) (*models.Listing, error)
	DeleteListing(ctx context.Context, id string) (bool, error)

	Rentals(ctx context.Context) ([]models.Rental, error)
	SaveRentals(ctx context.Context, rentals []models.Rental) error
	CreateRental(ctx context.Context, rental models.Rental) (*models.Rental, error)
	GetRentalByID(ctx context.Context, id string) (*models.Rental, error)
	RentalsByUser(ctx context.Context, userID string) ([]models.Rental, error)
	RentalsByListing(ctx context.Context, listingID string) ([]models.Rental, error)
	UpdateRentalStatus(ctx context.Context, id, status string) (*models.Rental, error)

	Messages(ctx context.Context) ([]models.Message, error)
	SaveMessages(ctx context.Context, messages []models.Message) error
	CreateMessage(ctx context.Context, message models.Message) (*models.Message, error)
	MessagesByConversation(ctx context.Context, userID, otherUserID, listingID string) ([]models.Message, error)
	MarkMessagesAsRead(ctx context.Context, userID, otherUserID, listingID string) error
	Conversations(ctx context.Context) ([]models.Conversation, error)
	SaveConversations(ctx context.Context, conversations []models.Conversation) error
	ConversationsByUser(ctx context.Context, userID string) ([]models.Conversation, error)
	UnreadCount(ctx context.Context, userID, otherUserID, listingID string) (int, error)

	CreateSyncTask(ctx context.Context, task *models.SyncTask) error
	PendingSyncTasks(ctx context.Context, limit int) ([]models.SyncTask, error)
	UpdateSyncTaskStatus(ctx context.Context, id, status, errMsg string, nextRetryAt *time.Time) error

	Export(ctx context.Context) (map[string]json.RawMessage, error)
	Close() error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// SheetsWriter pushes rental rows to a spreadsheet.
type SheetsWriter interface {
	UpsertRental(ctx context.Context, rental *models.Rental) error
	UpdateRentalStatus(ctx context.Context, rentalID, status string) error
	ReplaceRentalsSheet(ctx context.Context, rentals []models.Rental) error
}

// ReportWriter renders an xlsx report and returns the file path.
type ReportWriter interface {
	RentalsReport(ctx context.Context, startDate, endDate time.Time) (string, error)
}

// SyncWorker accepts outbound sync work without blocking the caller.
type SyncWorker interface {
	EnqueueTask(ctx context.Context, taskType string, rentalID string, rental *models.Rental, status string) error
}

type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// ListingFilter narrows listing queries the way the browse page does.
type ListingFilter struct {
	Category string
	City     string
	State    string
	Country  string
	Search   string
}

type AuthService interface {
	SignUp(ctx context.Context, email, password string) (*models.User, error)
	SignIn(ctx context.Context, email, password string) (*models.User, error)
	SignOut(ctx context.Context) error
	CurrentUser(ctx context.Context) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

type ListingService interface {
	CreateListing(ctx context.Context, ownerID string, listing models.Listing) (*models.Listing, error)
	UpdateListing(ctx context.Context, userID, listingID string, patch models.ListingPatch) (*models.Listing, error)
	DeleteListing(ctx context.Context, userID, listingID string) (bool, error)
	GetListing(ctx context.Context, id string) (*models.Listing, error)
	BrowseListings(ctx context.Context, filter ListingFilter) ([]models.Listing, error)
	ListingsByOwner(ctx context.Context, ownerID string) ([]models.Listing, error)
}

type RentalService interface {
	RequestRental(ctx context.Context, renterID, listingID string, startDate, endDate time.Time) (*models.Rental, error)
	ApproveRental(ctx context.Context, userID, rentalID string) (*models.Rental, error)
	RejectRental(ctx context.Context, userID, rentalID string) (*models.Rental, error)
	CompleteRental(ctx context.Context, userID, rentalID string) (*models.Rental, error)
	GetRental(ctx context.Context, id string) (*models.Rental, error)
	RentalsForUser(ctx context.Context, userID string) ([]models.Rental, error)
	RentalsForListing(ctx context.Context, listingID string) ([]models.Rental, error)
}

type MessageService interface {
	SendMessage(ctx context.Context, senderID, receiverID, listingID, content string) (*models.Message, error)
	Thread(ctx context.Context, userID, otherUserID, listingID string) ([]models.Message, error)
	MarkThreadRead(ctx context.Context, userID, otherUserID, listingID string) error
	ConversationsForUser(ctx context.Context, userID string) ([]ConversationSummary, error)
}

// ConversationSummary is a conversation enriched with the counterpart and
// the viewer's unread count.
type ConversationSummary struct {
	Conversation models.Conversation `json:"conversation"`
	OtherUserID  string              `json:"other_user_id"`
	UnreadCount  int                 `json:"unread_count"`
}
