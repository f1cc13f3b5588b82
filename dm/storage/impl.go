////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package storage implements the dm.EventModel on a gorm database. All
// writes are serialized behind a mutex and reported through the change
// callback after they commit.
package storage

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"gorm.io/gorm"

	"gitlab.com/sharespace/client/dm"
)

// impl implements dm.EventModel.
type impl struct {
	db       *gorm.DB
	onChange func(conversationID string)
	mux      sync.Mutex
}

// NewEventModel migrates the conversation tables and returns the event model.
// onChange fires after every committed mutation, keyed by conversation.
func NewEventModel(db *gorm.DB,
	onChange func(conversationID string)) (dm.EventModel, error) {
	if err := db.AutoMigrate(&Conversation{}, &Message{}); err != nil {
		return nil, errors.Errorf(
			"failed to migrate conversation tables: %+v", err)
	}
	return &impl{db: db, onChange: onChange}, nil
}

// The change callback is always fired after the write mutex is released.
// Listeners are allowed to issue model writes from their delivery (marking a
// thread read on arrival is the normal pattern), and those re-entrant writes
// must be able to take the mutex.

func (i *impl) FindOrCreateConversation(conv dm.Conversation) (
	dm.Conversation, bool, error) {
	row, err := toConversationRow(conv)
	if err != nil {
		return dm.Conversation{}, false, err
	}
	row.CreatedAt = time.Now().UTC()

	i.mux.Lock()
	res := i.db.Where("id = ?", row.ID).FirstOrCreate(&row)
	i.mux.Unlock()
	if res.Error != nil {
		return dm.Conversation{}, false, errors.Errorf(
			"failed to find or create conversation: %+v", res.Error)
	}
	created := res.RowsAffected > 0

	stored, err := fromConversationRow(row)
	if err != nil {
		return dm.Conversation{}, false, err
	}

	if created {
		jww.DEBUG.Printf("[DM SQL] Created conversation %s", row.ID)
		i.onChange(row.ID)
	}
	return stored, created, nil
}

func (i *impl) GetConversation(conversationID string) (dm.Conversation, error) {
	var row Conversation
	err := i.db.Take(&row, "id = ?", conversationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return dm.Conversation{}, dm.ErrConversationNotFound
	}
	if err != nil {
		return dm.Conversation{}, errors.Errorf(
			"failed to get conversation: %+v", err)
	}
	return fromConversationRow(row)
}

func (i *impl) ListConversations(userID string) ([]dm.Conversation, error) {
	var rows []Conversation
	err := i.db.
		Where("user_a = ? OR user_b = ?", userID, userID).
		Order("last_message_at DESC, created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, errors.Errorf("failed to list conversations: %+v", err)
	}

	out := make([]dm.Conversation, 0, len(rows))
	for _, row := range rows {
		conv, err := fromConversationRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, conv)
	}
	return out, nil
}

func (i *impl) AppendMessage(msg dm.Message,
	readState map[string]bool) error {
	row := toMessageRow(msg)
	row.SentAt = time.Now().UTC()

	readJSON, err := json.Marshal(readState)
	if err != nil {
		return errors.Errorf("failed to marshal read state: %+v", err)
	}

	// The message insert and the summary rewrite commit together so the
	// inbox can never show a preview for a message that is not in the
	// thread.
	i.mux.Lock()
	err = i.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return errors.Errorf("failed to insert message: %+v", err)
		}
		res := tx.Model(&Conversation{}).
			Where("id = ?", row.ConversationID).
			Updates(map[string]interface{}{
				"last_message":    row.Body,
				"last_message_at": row.SentAt,
				"read_state":      readJSON,
			})
		if res.Error != nil {
			return errors.Errorf(
				"failed to update conversation summary: %+v", res.Error)
		}
		if res.RowsAffected == 0 {
			return dm.ErrConversationNotFound
		}
		return nil
	})
	i.mux.Unlock()
	if err != nil {
		return err
	}

	jww.DEBUG.Printf("[DM SQL] Appended message %s to %s", row.ID,
		row.ConversationID)
	i.onChange(row.ConversationID)
	return nil
}

func (i *impl) ListMessages(conversationID string) ([]dm.Message, error) {
	var rows []Message
	err := i.db.
		Where("conversation_id = ?", conversationID).
		Order("sent_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, errors.Errorf("failed to list messages: %+v", err)
	}

	out := make([]dm.Message, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromMessageRow(row))
	}
	return out, nil
}

func (i *impl) SetReadFlag(conversationID, userID string, read bool) (
	bool, error) {
	changed, err := i.setReadFlag(conversationID, userID, read)
	if err != nil || !changed {
		return changed, err
	}
	i.onChange(conversationID)
	return true, nil
}

// setReadFlag holds the write mutex for the read-modify-write only, leaving
// SetReadFlag free to fire the change callback unlocked.
func (i *impl) setReadFlag(conversationID, userID string, read bool) (
	bool, error) {
	i.mux.Lock()
	defer i.mux.Unlock()

	var row Conversation
	err := i.db.Take(&row, "id = ?", conversationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, dm.ErrConversationNotFound
	}
	if err != nil {
		return false, errors.Errorf("failed to get conversation: %+v", err)
	}

	readState := make(map[string]bool)
	if err = json.Unmarshal(row.ReadState, &readState); err != nil {
		return false, errors.Errorf("failed to unmarshal read state: %+v", err)
	}
	if current, ok := readState[userID]; ok && current == read {
		return false, nil
	}
	readState[userID] = read

	readJSON, err := json.Marshal(readState)
	if err != nil {
		return false, errors.Errorf("failed to marshal read state: %+v", err)
	}
	err = i.db.Model(&Conversation{}).
		Where("id = ?", conversationID).
		Update("read_state", readJSON).Error
	if err != nil {
		return false, errors.Errorf("failed to update read state: %+v", err)
	}
	return true, nil
}
