package models

import "time"

type Message struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	ListingID  string    `json:"listing_id"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	Read       bool      `json:"read"`
}

// Conversation is the per-(listing, user pair) thread summary, upserted as a
// side effect of message creation. The participant pair is unordered.
type Conversation struct {
	ID             string    `json:"id"`
	ListingID      string    `json:"listing_id"`
	Participant1ID string    `json:"participant1_id"`
	Participant2ID string    `json:"participant2_id"`
	LastMessage    string    `json:"last_message"`
	LastMessageAt  time.Time `json:"last_message_at"`
	CreatedAt      time.Time `json:"created_at"`
}

// Involves reports whether the user is one of the two participants.
func (c *Conversation) Involves(userID string) bool {
	return c.Participant1ID == userID || c.Participant2ID == userID
}

// OtherParticipant returns the counterpart of userID, or empty when the user
// is not part of the conversation.
func (c *Conversation) OtherParticipant(userID string) string {
	switch userID {
	case c.Participant1ID:
		return c.Participant2ID
	case c.Participant2ID:
		return c.Participant1ID
	default:
		return ""
	}
}
