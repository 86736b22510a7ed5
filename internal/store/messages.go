package store

import (
	"context"
	"sort"
	"time"

	"rentease/internal/metrics"
	"rentease/internal/models"
)

// Messages returns the full messages collection.
func (s *Store) Messages(ctx context.Context) ([]models.Message, error) {
	var messages []models.Message
	if err := s.loadCollection(ctx, keyMessages, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// SaveMessages overwrites the messages collection wholesale.
func (s *Store) SaveMessages(ctx context.Context, messages []models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveCollection(ctx, keyMessages, messages)
}

// Conversations returns the full conversations collection.
func (s *Store) Conversations(ctx context.Context) ([]models.Conversation, error) {
	var conversations []models.Conversation
	if err := s.loadCollection(ctx, keyConversations, &conversations); err != nil {
		return nil, err
	}
	return conversations, nil
}

// SaveConversations overwrites the conversations collection wholesale.
func (s *Store) SaveConversations(ctx context.Context, conversations []models.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveCollection(ctx, keyConversations, conversations)
}

// CreateMessage stamps the message unread, persists it and upserts the
// conversation for the (listing, unordered participant pair): at most one
// conversation exists per pair regardless of who messaged first.
func (s *Store) CreateMessage(ctx context.Context, message models.Message) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var messages []models.Message
	if err := s.loadCollection(ctx, keyMessages, &messages); err != nil {
		return nil, err
	}

	now := s.now()
	message.ID = s.newID()
	message.CreatedAt = now
	message.Read = false

	messages = append(messages, message)
	if err := s.saveCollection(ctx, keyMessages, messages); err != nil {
		return nil, err
	}

	if err := s.upsertConversation(ctx, &message, now); err != nil {
		return nil, err
	}

	metrics.IncStoreOp(keyMessages, "create")
	return &message, nil
}

func (s *Store) upsertConversation(ctx context.Context, message *models.Message, now time.Time) error {
	var conversations []models.Conversation
	if err := s.loadCollection(ctx, keyConversations, &conversations); err != nil {
		return err
	}

	for i := range conversations {
		c := &conversations[i]
		if c.ListingID != message.ListingID {
			continue
		}
		// Match either participant order.
		samePair := (c.Participant1ID == message.SenderID && c.Participant2ID == message.ReceiverID) ||
			(c.Participant1ID == message.ReceiverID && c.Participant2ID == message.SenderID)
		if !samePair {
			continue
		}
		c.LastMessage = message.Content
		c.LastMessageAt = now
		return s.saveCollection(ctx, keyConversations, conversations)
	}

	conversations = append(conversations, models.Conversation{
		ID:             s.newID(),
		ListingID:      message.ListingID,
		Participant1ID: message.SenderID,
		Participant2ID: message.ReceiverID,
		LastMessage:    message.Content,
		LastMessageAt:  now,
		CreatedAt:      now,
	})
	return s.saveCollection(ctx, keyConversations, conversations)
}

// MessagesByConversation returns the thread between the two users on the
// listing, both directions, sorted ascending by creation time.
func (s *Store) MessagesByConversation(ctx context.Context, userID, otherUserID, listingID string) ([]models.Message, error) {
	messages, err := s.Messages(ctx)
	if err != nil {
		return nil, err
	}

	var thread []models.Message
	for _, m := range messages {
		if m.ListingID != listingID {
			continue
		}
		if (m.SenderID == userID && m.ReceiverID == otherUserID) ||
			(m.SenderID == otherUserID && m.ReceiverID == userID) {
			thread = append(thread, m)
		}
	}

	sort.SliceStable(thread, func(i, j int) bool {
		return thread[i].CreatedAt.Before(thread[j].CreatedAt)
	})
	return thread, nil
}

// MarkMessagesAsRead flips Read on every message in the thread addressed to
// userID from otherUserID on the listing. Messages going the other way are
// left untouched.
func (s *Store) MarkMessagesAsRead(ctx context.Context, userID, otherUserID, listingID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var messages []models.Message
	if err := s.loadCollection(ctx, keyMessages, &messages); err != nil {
		return err
	}

	changed := false
	for i := range messages {
		m := &messages[i]
		if m.ListingID == listingID && m.ReceiverID == userID && m.SenderID == otherUserID && !m.Read {
			m.Read = true
			changed = true
		}
	}
	if !changed {
		return nil
	}

	metrics.IncStoreOp(keyMessages, "update")
	return s.saveCollection(ctx, keyMessages, messages)
}

// ConversationsByUser returns the user's conversations sorted newest first
// by last message time.
func (s *Store) ConversationsByUser(ctx context.Context, userID string) ([]models.Conversation, error) {
	conversations, err := s.Conversations(ctx)
	if err != nil {
		return nil, err
	}

	var out []models.Conversation
	for _, c := range conversations {
		if c.Involves(userID) {
			out = append(out, c)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastMessageAt.After(out[j].LastMessageAt)
	})
	return out, nil
}

// UnreadCount returns how many messages addressed to userID from
// otherUserID on the listing are still unread.
func (s *Store) UnreadCount(ctx context.Context, userID, otherUserID, listingID string) (int, error) {
	messages, err := s.Messages(ctx)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, m := range messages {
		if m.ListingID == listingID && m.ReceiverID == userID && m.SenderID == otherUserID && !m.Read {
			count++
		}
	}
	return count, nil
}
