package events

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	EventUserSignedUp    = "user_signed_up"
	EventListingCreated  = "listing_created"
	EventListingUpdated  = "listing_updated"
	EventListingDeleted  = "listing_deleted"
	EventRentalRequested = "rental_requested"
	EventRentalApproved  = "rental_approved"
	EventRentalRejected  = "rental_rejected"
	EventRentalCompleted = "rental_completed"
	EventMessageSent     = "message_sent"
)

// RentalEventPayload is the rental snapshot handed to event consumers.
type RentalEventPayload struct {
	RentalID   string    `json:"rental_id"`
	ListingID  string    `json:"listing_id"`
	RenterID   string    `json:"renter_id"`
	OwnerID    string    `json:"owner_id"`
	Status     string    `json:"status"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
	TotalPrice float64   `json:"total_price"`
}

// ListingEventPayload is the listing snapshot for event consumers.
type ListingEventPayload struct {
	ListingID string  `json:"listing_id"`
	Title     string  `json:"title"`
	OwnerID   string  `json:"owner_id"`
	Price     float64 `json:"price"`
	PriceUnit string  `json:"price_unit"`
	Category  string  `json:"category"`
}

// MessageEventPayload carries a sent message's routing data (not content).
type MessageEventPayload struct {
	MessageID  string `json:"message_id"`
	SenderID   string `json:"sender_id"`
	ReceiverID string `json:"receiver_id"`
	ListingID  string `json:"listing_id"`
}

// Event represents a lightweight domain event.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		_ = handler(event)
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
	return nil
}
