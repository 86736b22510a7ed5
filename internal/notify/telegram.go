// Package notify pushes admin notifications to Telegram off the event bus.
package notify

import (
	"encoding/json"
	"fmt"

	"rentease/internal/domain"
	"rentease/internal/events"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// TelegramNotifier fans marketplace events out to the admin chats.
type TelegramNotifier struct {
	sender  domain.TelegramSender
	chatIDs []int64
	logger  *zerolog.Logger
}

func NewTelegramNotifier(sender domain.TelegramSender, chatIDs []int64, logger *zerolog.Logger) *TelegramNotifier {
	return &TelegramNotifier{
		sender:  sender,
		chatIDs: chatIDs,
		logger:  logger,
	}
}

// Register subscribes the notifier to every event it reports on.
func (n *TelegramNotifier) Register(bus *events.EventBus) {
	bus.Subscribe(events.EventUserSignedUp, n.handleSignUp)
	bus.Subscribe(events.EventListingCreated, n.handleListing("New listing"))
	bus.Subscribe(events.EventListingDeleted, n.handleListing("Listing removed"))
	bus.Subscribe(events.EventRentalRequested, n.handleRental("Rental requested"))
	bus.Subscribe(events.EventRentalApproved, n.handleRental("Rental approved"))
	bus.Subscribe(events.EventRentalRejected, n.handleRental("Rental rejected"))
	bus.Subscribe(events.EventRentalCompleted, n.handleRental("Rental completed"))
}

func (n *TelegramNotifier) handleSignUp(ev *events.Event) error {
	var payload struct {
		UserID string `json:"user_id"`
		Email  string `json:"email"`
	}
	if err := json.Unmarshal(ev.Payload, &payload); err != nil {
		n.logger.Error().Err(err).Str("event", ev.Type).Msg("decode payload")
		return nil
	}

	n.broadcast(fmt.Sprintf("New user: %s", payload.Email))
	return nil
}

func (n *TelegramNotifier) handleListing(title string) events.EventHandler {
	return func(ev *events.Event) error {
		var payload events.ListingEventPayload
		if err := json.Unmarshal(ev.Payload, &payload); err != nil {
			n.logger.Error().Err(err).Str("event", ev.Type).Msg("decode payload")
			return nil
		}

		n.broadcast(fmt.Sprintf("%s: %s (%.2f/%s, %s)",
			title, payload.Title, payload.Price, payload.PriceUnit, payload.Category))
		return nil
	}
}

func (n *TelegramNotifier) handleRental(title string) events.EventHandler {
	return func(ev *events.Event) error {
		var payload events.RentalEventPayload
		if err := json.Unmarshal(ev.Payload, &payload); err != nil {
			n.logger.Error().Err(err).Str("event", ev.Type).Msg("decode payload")
			return nil
		}

		n.broadcast(fmt.Sprintf("%s: rental %s, %s — %s, total %.2f",
			title, payload.RentalID,
			payload.StartDate.Format("2006-01-02"), payload.EndDate.Format("2006-01-02"),
			payload.TotalPrice))
		return nil
	}
}

// broadcast delivers the text to every admin chat. A failed send is logged
// and does not stop the rest.
func (n *TelegramNotifier) broadcast(text string) {
	for _, chatID := range n.chatIDs {
		msg := tgbotapi.NewMessage(chatID, text)
		if _, err := n.sender.Send(msg); err != nil {
			n.logger.Error().Err(err).Int64("chat_id", chatID).Msg("telegram send failed")
		}
	}
}
