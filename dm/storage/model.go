////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package storage

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/pkg/errors"
	"gorm.io/datatypes"

	"gitlab.com/sharespace/client/dm"
)

// Conversation is the stored thread row. The primary key is the sorted
// participant pair, so a concurrent create of the same pair collapses onto
// one row instead of producing duplicates.
type Conversation struct {
	ID            string         `gorm:"primaryKey"`
	UserA         string         `gorm:"not null;index"`
	UserB         string         `gorm:"not null;index"`
	Participants  datatypes.JSON `gorm:"not null"`
	LastMessage   string         `gorm:""`
	LastMessageAt time.Time      `gorm:"index"`
	ReadState     datatypes.JSON `gorm:"not null"`
	CreatedAt     time.Time      `gorm:"not null"`

	Messages []Message `gorm:"constraint:OnDelete:CASCADE"`
}

// TableName overrides the table name used by Conversation.
func (Conversation) TableName() string {
	return "conversations"
}

// Message is a stored direct message. SentAt is stamped here when the write
// is accepted.
type Message struct {
	ID             string    `gorm:"primaryKey"`
	ConversationID string    `gorm:"not null;index"`
	SenderID       string    `gorm:"not null"`
	SenderName     string    `gorm:"not null"`
	SenderAvatar   string    `gorm:""`
	Body           string    `gorm:"not null"`
	SentAt         time.Time `gorm:"index;not null"`
}

// TableName overrides the table name used by Message.
func (Message) TableName() string {
	return "dm_messages"
}

func toConversationRow(conv dm.Conversation) (Conversation, error) {
	participants, err := json.Marshal(conv.Participants)
	if err != nil {
		return Conversation{}, errors.Errorf(
			"failed to marshal participants: %+v", err)
	}
	readState, err := json.Marshal(conv.ReadState)
	if err != nil {
		return Conversation{}, errors.Errorf(
			"failed to marshal read state: %+v", err)
	}

	ids := make([]string, 0, len(conv.Participants))
	for id := range conv.Participants {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var userA, userB string
	if len(ids) > 0 {
		userA = ids[0]
	}
	if len(ids) > 1 {
		userB = ids[1]
	}

	return Conversation{
		ID:            conv.ID,
		UserA:         userA,
		UserB:         userB,
		Participants:  participants,
		LastMessage:   conv.LastMessage,
		LastMessageAt: conv.LastMessageAt,
		ReadState:     readState,
		CreatedAt:     conv.CreatedAt,
	}, nil
}

func fromConversationRow(row Conversation) (dm.Conversation, error) {
	conv := dm.Conversation{
		ID:            row.ID,
		LastMessage:   row.LastMessage,
		LastMessageAt: row.LastMessageAt,
		CreatedAt:     row.CreatedAt,
	}
	if err := json.Unmarshal(row.Participants, &conv.Participants); err != nil {
		return dm.Conversation{}, errors.Errorf(
			"failed to unmarshal participants: %+v", err)
	}
	if err := json.Unmarshal(row.ReadState, &conv.ReadState); err != nil {
		return dm.Conversation{}, errors.Errorf(
			"failed to unmarshal read state: %+v", err)
	}
	return conv, nil
}

func toMessageRow(msg dm.Message) Message {
	return Message{
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
		SenderID:       msg.SenderID,
		SenderName:     msg.SenderName,
		SenderAvatar:   msg.SenderAvatar,
		Body:           msg.Body,
		SentAt:         msg.SentAt,
	}
}

func fromMessageRow(row Message) dm.Message {
	return dm.Message{
		ID:             row.ID,
		ConversationID: row.ConversationID,
		SenderID:       row.SenderID,
		SenderName:     row.SenderName,
		SenderAvatar:   row.SenderAvatar,
		Body:           row.Body,
		SentAt:         row.SentAt,
	}
}
