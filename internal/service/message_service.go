package service

import (
	"context"

	"rentease/internal/domain"
	"rentease/internal/events"
	"rentease/internal/models"

	"github.com/rs/zerolog"
)

type MessageServiceImpl struct {
	store    domain.RecordStore
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewMessageService(store domain.RecordStore, eventBus domain.EventPublisher, logger *zerolog.Logger) *MessageServiceImpl {
	return &MessageServiceImpl{
		store:    store,
		eventBus: eventBus,
		logger:   logger,
	}
}

type messageInput struct {
	ReceiverID string `json:"receiver_id" validate:"required"`
	ListingID  string `json:"listing_id" validate:"required"`
	Content    string `json:"content" validate:"required,max=4000"`
}

func (s *MessageServiceImpl) SendMessage(ctx context.Context, senderID, receiverID, listingID, content string) (*models.Message, error) {
	if senderID == receiverID {
		return nil, ErrSelfMessage
	}
	input := messageInput{ReceiverID: receiverID, ListingID: listingID, Content: content}
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	receiver, err := s.store.GetUserByID(ctx, receiverID)
	if err != nil {
		return nil, err
	}
	if receiver == nil {
		return nil, ErrUserNotFound
	}

	msg := models.Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		ListingID:  listingID,
		Content:    content,
	}

	created, err := s.store.CreateMessage(ctx, msg)
	if err != nil {
		return nil, err
	}

	s.publishEvent(created)

	return created, nil
}

func (s *MessageServiceImpl) Thread(ctx context.Context, userID, otherUserID, listingID string) ([]models.Message, error) {
	return s.store.MessagesByConversation(ctx, userID, otherUserID, listingID)
}

func (s *MessageServiceImpl) MarkThreadRead(ctx context.Context, userID, otherUserID, listingID string) error {
	return s.store.MarkMessagesAsRead(ctx, userID, otherUserID, listingID)
}

// ConversationsForUser decorates the user's conversations with the
// counterpart id and unread count, newest activity first.
func (s *MessageServiceImpl) ConversationsForUser(ctx context.Context, userID string) ([]domain.ConversationSummary, error) {
	convs, err := s.store.ConversationsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	summaries := make([]domain.ConversationSummary, 0, len(convs))
	for _, c := range convs {
		other := c.OtherParticipant(userID)
		unread, err := s.store.UnreadCount(ctx, userID, other, c.ListingID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, domain.ConversationSummary{
			Conversation: c,
			OtherUserID:  other,
			UnreadCount:  unread,
		})
	}

	return summaries, nil
}

func (s *MessageServiceImpl) publishEvent(msg *models.Message) {
	if s.eventBus == nil {
		return
	}

	payload := events.MessageEventPayload{
		MessageID:  msg.ID,
		SenderID:   msg.SenderID,
		ReceiverID: msg.ReceiverID,
		ListingID:  msg.ListingID,
	}

	if err := s.eventBus.PublishJSON(events.EventMessageSent, payload); err != nil {
		s.logger.Error().Err(err).Str("message_id", msg.ID).Msg("publish event error")
	}
}
