package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRentalTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		allowed bool
	}{
		{"pending to approved", StatusPending, StatusApproved, true},
		{"pending to rejected", StatusPending, StatusRejected, true},
		{"pending to completed", StatusPending, StatusCompleted, false},
		{"approved to completed", StatusApproved, StatusCompleted, true},
		{"approved to rejected", StatusApproved, StatusRejected, false},
		{"rejected is terminal", StatusRejected, StatusPending, false},
		{"completed is terminal", StatusCompleted, StatusApproved, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Rental{Status: tt.from}
			assert.Equal(t, tt.allowed, r.CanTransition(tt.to))
		})
	}
}

func TestListingPatchApply(t *testing.T) {
	listing := &Listing{
		Title:     "Mountain bike",
		Price:     25,
		PriceUnit: PriceUnitDay,
		City:      "Austin",
	}

	newTitle := "Mountain bike (large frame)"
	newPrice := 30.0
	patch := ListingPatch{Title: &newTitle, Price: &newPrice}
	patch.Apply(listing)

	assert.Equal(t, "Mountain bike (large frame)", listing.Title)
	assert.Equal(t, 30.0, listing.Price)
	// untouched fields keep prior values
	assert.Equal(t, PriceUnitDay, listing.PriceUnit)
	assert.Equal(t, "Austin", listing.City)
}

func TestConversationParticipants(t *testing.T) {
	c := &Conversation{Participant1ID: "a", Participant2ID: "b"}

	assert.True(t, c.Involves("a"))
	assert.True(t, c.Involves("b"))
	assert.False(t, c.Involves("c"))

	assert.Equal(t, "b", c.OtherParticipant("a"))
	assert.Equal(t, "a", c.OtherParticipant("b"))
	assert.Equal(t, "", c.OtherParticipant("c"))
}

func TestEnumValidators(t *testing.T) {
	assert.True(t, ValidPriceUnit(PriceUnitHour))
	assert.False(t, ValidPriceUnit("month"))

	assert.True(t, ValidCategory(CategoryTools))
	assert.False(t, ValidCategory("vehicles"))

	assert.True(t, ValidCondition(ConditionLikeNew))
	assert.False(t, ValidCondition("broken"))
}
