////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package dm implements one-to-one direct messaging: conversation lookup and
// creation, message sending with denormalized sender snapshots, per-user read
// flags, and live streams over the conversation list and a single thread.
package dm

import (
	"sort"
	"time"

	"github.com/pkg/errors"

	"gitlab.com/sharespace/client/users"
)

var (
	// ErrConversationNotFound is returned when no conversation exists for
	// an identifier.
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrNotParticipant is returned when the acting user is not one of the
	// conversation's two participants.
	ErrNotParticipant = errors.New("user is not a participant in this conversation")
)

// Participant is the profile snapshot denormalized into a conversation at
// creation time. It is never refreshed when the source profile changes.
type Participant struct {
	ID          string     `json:"id"`
	DisplayName string     `json:"displayName"`
	Avatar      string     `json:"avatar"`
	Role        users.Role `json:"role"`
}

// Conversation is the thread record between exactly two users. ReadState maps
// participant ID to true once that participant has opened the thread at or
// after the last message.
type Conversation struct {
	ID            string
	Participants  map[string]Participant
	LastMessage   string
	LastMessageAt time.Time
	ReadState     map[string]bool
	CreatedAt     time.Time
}

// Peer returns the participant other than selfID.
func (c Conversation) Peer(selfID string) (Participant, bool) {
	for id, p := range c.Participants {
		if id != selfID {
			return p, true
		}
	}
	return Participant{}, false
}

// UnreadBy reports whether the conversation holds messages userID has not
// seen. A missing flag reads as read; a conversation with no messages is
// never unread.
func (c Conversation) UnreadBy(userID string) bool {
	read, ok := c.ReadState[userID]
	return ok && !read
}

// Message is a single immutable direct message. SentAt is assigned by the
// event model when the write is accepted, so thread order is the acceptance
// order, not the order of client clocks.
type Message struct {
	ID             string
	ConversationID string
	SenderID       string
	SenderName     string
	SenderAvatar   string
	Body           string
	SentAt         time.Time
}

// EventModel is the hosted conversation store boundary. Writes must be
// visible to subsequent reads once the call returns, and the model reports
// every conversation mutation through the change callback it was built with.
type EventModel interface {
	// FindOrCreateConversation returns the stored conversation with
	// conv.ID, creating it from conv if absent. created reports whether a
	// write happened; opening an existing thread performs none.
	FindOrCreateConversation(conv Conversation) (
		stored Conversation, created bool, err error)

	// GetConversation returns the conversation or ErrConversationNotFound.
	GetConversation(conversationID string) (Conversation, error)

	// ListConversations returns every conversation userID participates
	// in, most recently active first.
	ListConversations(userID string) ([]Conversation, error)

	// AppendMessage atomically stores msg and folds it into its
	// conversation's summary: last message, activity timestamp, and the
	// given read flags.
	AppendMessage(msg Message, readState map[string]bool) error

	// ListMessages returns the thread in ascending acceptance order.
	ListMessages(conversationID string) ([]Message, error)

	// SetReadFlag sets userID's read flag on the conversation. changed is
	// false when the flag already held that value and no write happened.
	SetReadFlag(conversationID, userID string, read bool) (changed bool, err error)
}

// EventModelBuilder builds the event model bound to the client's change
// dispatcher. The model must call onChange with the conversation ID after
// every mutation it accepts.
type EventModelBuilder func(onChange func(conversationID string)) (EventModel, error)

// ConversationListener receives the full conversation list on every change to
// any conversation the subscribed user participates in.
type ConversationListener func(conversations []Conversation)

// MessageListener receives the full thread on every change to the subscribed
// conversation.
type MessageListener func(messages []Message)

// DeriveConversationID returns the canonical thread identifier for a user
// pair: the two IDs sorted and joined. Both orderings of the same pair map to
// the same conversation, which is what makes creation race-free under the
// store's primary key.
func DeriveConversationID(userA, userB string) string {
	ids := []string{userA, userB}
	sort.Strings(ids)
	return ids[0] + "_" + ids[1]
}
