////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package notifications keeps the per-user in-app notification list: entries
// pushed when someone messages you, a list read newest first, a bell badge
// derived from unread entries, and a live stream per user.
package notifications

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"gorm.io/gorm"

	"gitlab.com/sharespace/client/stoppable"
)

// Kind partitions notifications by the event that produced them.
type Kind string

const (
	KindMessage Kind = "message"
	KindComment Kind = "comment"
	KindLike    Kind = "like"
)

// Notification is one entry in a user's list. SourceID points at the thing
// that produced it, a conversation or a post, so tapping the entry can
// navigate there.
type Notification struct {
	ID        string    `gorm:"primaryKey"`
	UserID    string    `gorm:"not null;index"`
	Kind      Kind      `gorm:"not null"`
	Title     string    `gorm:"not null"`
	Body      string    `gorm:""`
	SourceID  string    `gorm:""`
	Read      bool      `gorm:"not null"`
	CreatedAt time.Time `gorm:"index;not null"`
}

// TableName overrides the table name used by Notification.
func (Notification) TableName() string {
	return "notifications"
}

// Listener receives the subscribed user's full notification list on every
// change.
type Listener func(notifications []Notification)

// Manager owns the notification table and its change feed.
type Manager struct {
	db *gorm.DB

	mux       sync.Mutex
	listeners map[string]map[uint64]Listener
	nextID    uint64
}

// NewManager migrates the notification table and returns a Manager.
func NewManager(db *gorm.DB) (*Manager, error) {
	if err := db.AutoMigrate(&Notification{}); err != nil {
		return nil, errors.Errorf(
			"failed to migrate notifications: %+v", err)
	}
	return &Manager{
		db:        db,
		listeners: make(map[string]map[uint64]Listener),
	}, nil
}

// Push stores a new unread notification for userID and wakes their stream.
func (m *Manager) Push(userID string, kind Kind, title, body,
	sourceID string) error {
	n := Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Kind:      kind,
		Title:     title,
		Body:      body,
		SourceID:  sourceID,
		CreatedAt: time.Now().UTC(),
	}
	if err := m.db.Create(&n).Error; err != nil {
		return errors.Errorf("failed to push notification: %+v", err)
	}

	jww.DEBUG.Printf("[NOTIF] Pushed %s notification to %s", kind, userID)
	m.notify(userID)
	return nil
}

// List returns userID's notifications, newest first.
func (m *Manager) List(userID string) ([]Notification, error) {
	var out []Notification
	err := m.db.
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	if err != nil {
		return nil, errors.Errorf("failed to list notifications: %+v", err)
	}
	return out, nil
}

// HasUnread reports whether the bell badge should show for userID.
func (m *Manager) HasUnread(userID string) (bool, error) {
	var count int64
	err := m.db.Model(&Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return false, errors.Errorf(
			"failed to count unread notifications: %+v", err)
	}
	return count > 0, nil
}

// MarkAllRead clears userID's badge. Nothing is written, and the stream stays
// quiet, when everything is already read.
func (m *Manager) MarkAllRead(userID string) error {
	res := m.db.Model(&Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true)
	if res.Error != nil {
		return errors.Errorf(
			"failed to mark notifications read: %+v", res.Error)
	}
	if res.RowsAffected > 0 {
		m.notify(userID)
	}
	return nil
}

// DeleteAllFor removes every notification addressed to userID. Used by
// account deletion.
func (m *Manager) DeleteAllFor(userID string) error {
	err := m.db.Delete(&Notification{}, "user_id = ?", userID).Error
	if err != nil {
		return errors.Errorf("failed to delete notifications: %+v", err)
	}
	m.notify(userID)
	return nil
}

// Stream subscribes cb to userID's notification list. The current list is
// delivered immediately and again after every change until the returned
// stoppable is closed.
func (m *Manager) Stream(userID string, cb Listener) (*stoppable.Single, error) {
	list, err := m.List(userID)
	if err != nil {
		return nil, err
	}

	m.mux.Lock()
	id := m.nextID
	m.nextID++
	if m.listeners[userID] == nil {
		m.listeners[userID] = make(map[uint64]Listener)
	}
	m.listeners[userID][id] = cb
	m.mux.Unlock()

	cb(list)

	return stoppable.NewSingle("NotificationStream-"+userID, func() {
		m.mux.Lock()
		defer m.mux.Unlock()
		delete(m.listeners[userID], id)
	}), nil
}

func (m *Manager) notify(userID string) {
	m.mux.Lock()
	cbs := make([]Listener, 0, len(m.listeners[userID]))
	for _, cb := range m.listeners[userID] {
		cbs = append(cbs, cb)
	}
	m.mux.Unlock()

	if len(cbs) == 0 {
		return
	}
	list, err := m.List(userID)
	if err != nil {
		jww.ERROR.Printf(
			"[NOTIF] Failed to list notifications for %s: %+v", userID, err)
		return
	}
	for _, cb := range cbs {
		cb(list)
	}
}
