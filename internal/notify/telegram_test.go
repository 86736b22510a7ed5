package notify

import (
	"io"
	"testing"

	"rentease/internal/events"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	sent []tgbotapi.Chattable
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, f.err
}

func newNotifier(sender *fakeSender, chatIDs ...int64) (*TelegramNotifier, *events.EventBus) {
	logger := zerolog.New(io.Discard)
	bus := events.NewEventBus()
	n := NewTelegramNotifier(sender, chatIDs, &logger)
	n.Register(bus)
	return n, bus
}

func TestNotifierBroadcastsRentalEvents(t *testing.T) {
	sender := &fakeSender{}
	_, bus := newNotifier(sender, 100, 200)

	err := bus.PublishJSON(events.EventRentalRequested, events.RentalEventPayload{
		RentalID: "r1", Status: "pending", TotalPrice: 45,
	})
	require.NoError(t, err)

	// One message per admin chat.
	require.Len(t, sender.sent, 2)
	msg, ok := sender.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, int64(100), msg.ChatID)
	assert.Contains(t, msg.Text, "Rental requested")
	assert.Contains(t, msg.Text, "r1")
}

func TestNotifierSignUpAndListingEvents(t *testing.T) {
	sender := &fakeSender{}
	_, bus := newNotifier(sender, 1)

	require.NoError(t, bus.PublishJSON(events.EventUserSignedUp, map[string]string{
		"user_id": "u1", "email": "ada@example.com",
	}))
	require.NoError(t, bus.PublishJSON(events.EventListingCreated, events.ListingEventPayload{
		ListingID: "l1", Title: "Cordless drill", Price: 15, PriceUnit: "day", Category: "tools",
	}))

	require.Len(t, sender.sent, 2)
	first := sender.sent[0].(tgbotapi.MessageConfig)
	assert.Contains(t, first.Text, "ada@example.com")
	second := sender.sent[1].(tgbotapi.MessageConfig)
	assert.Contains(t, second.Text, "Cordless drill")
}

func TestNotifierIgnoresUnparseablePayload(t *testing.T) {
	sender := &fakeSender{}
	_, bus := newNotifier(sender, 1)

	bus.Publish(&events.Event{Type: events.EventRentalApproved, Payload: []byte("not json")})

	assert.Empty(t, sender.sent)
}
