// Package conversation drives the clinic booking dialogue: it extracts
// booking entities from patient messages, collects whatever is still
// missing, presents available slots, and confirms the booking.
package conversation

import (
	"fmt"
	"strings"
	"time"

	"github.com/kwchan/clinic-booking-ai/internal/availability"
	"github.com/kwchan/clinic-booking-ai/internal/booking"
)

// State is the phase of a booking conversation.
type State string

const (
	StateGreeting            State = "greeting"
	StateExtractingEntities  State = "extracting_entities"
	StateCollectingMissing   State = "collecting_missing"
	StateShowingAvailability State = "showing_availability"
	StateConfirmingBooking   State = "confirming_booking"
	StateCompleted           State = "completed"
	StateError               State = "error"
)

// Terminal reports whether the conversation accepts no further turns.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateError
}

// Message is one utterance in the conversation history.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Conversation is the aggregate persisted per booking dialogue.
type Conversation struct {
	ID             string              `json:"id"`
	State          State               `json:"state"`
	Entities       booking.Entities    `json:"entities"`
	History        []Message           `json:"history"`
	TurnCount      int                 `json:"turn_count"`
	AvailableSlots []availability.Slot `json:"available_slots,omitempty"`
	SelectedSlot   *availability.Slot  `json:"selected_slot,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// NewConversation creates a conversation in the greeting state.
func NewConversation(id string) *Conversation {
	now := time.Now()
	return &Conversation{
		ID:        id,
		State:     StateGreeting,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AddUserMessage appends a patient message and counts the turn. Only
// patient messages advance the turn counter.
func (c *Conversation) AddUserMessage(content string) {
	c.History = append(c.History, Message{
		Role:      ChatRoleUser,
		Content:   content,
		Timestamp: time.Now(),
	})
	c.TurnCount++
	c.UpdatedAt = time.Now()
}

// AddAssistantMessage appends an assistant reply.
func (c *Conversation) AddAssistantMessage(content string) {
	c.History = append(c.History, Message{
		Role:      ChatRoleAssistant,
		Content:   content,
		Timestamp: time.Now(),
	})
	c.UpdatedAt = time.Now()
}

// RecentContext renders the last n messages as "role: content" lines for
// prompt building.
func (c *Conversation) RecentContext(n int) string {
	history := c.History
	if n > 0 && len(history) > n {
		history = history[len(history)-n:]
	}

	var b strings.Builder
	for _, msg := range history {
		fmt.Fprintf(&b, "%s: %s\n", msg.Role, msg.Content)
	}
	return b.String()
}

// Summary is the read-only projection of a conversation exposed over HTTP.
type Summary struct {
	ConversationID        string              `json:"conversation_id"`
	State                 State               `json:"state"`
	TurnCount             int                 `json:"turn_count"`
	MessageCount          int                 `json:"message_count"`
	Entities              map[string]any      `json:"entities"`
	MissingFields         []booking.Field     `json:"missing_fields"`
	IsComplete            bool                `json:"is_complete"`
	UnreviewedBookingType bool                `json:"unreviewed_booking_type,omitempty"`
	AvailableSlots        []availability.Slot `json:"available_slots,omitempty"`
	SelectedSlot          *availability.Slot  `json:"selected_slot,omitempty"`
}

// Summarize builds the projection for the current conversation state.
func (c *Conversation) Summarize() Summary {
	missing := c.Entities.MissingFields()
	if missing == nil {
		missing = []booking.Field{}
	}
	return Summary{
		ConversationID:        c.ID,
		State:                 c.State,
		TurnCount:             c.TurnCount,
		MessageCount:          len(c.History),
		Entities:              c.Entities.Map(),
		MissingFields:         missing,
		IsComplete:            c.Entities.IsComplete(),
		UnreviewedBookingType: c.Entities.RawBookingType,
		AvailableSlots:        c.AvailableSlots,
		SelectedSlot:          c.SelectedSlot,
	}
}
