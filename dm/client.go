////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package dm

import (
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"

	"gitlab.com/sharespace/client/stoppable"
	"gitlab.com/sharespace/client/users"
)

// Client is the direct-messaging front. It owns conversation derivation and
// participant snapshots, delegates persistence to the event model, and fans
// model changes out to stream subscribers.
type Client struct {
	model    EventModel
	registry *users.Registry

	mux           sync.Mutex
	msgListeners  map[string]map[uint64]MessageListener
	convListeners map[string]map[uint64]ConversationListener
	nextID        uint64
}

// NewClient builds the messaging client. The event model is built through
// modelBuilder so its change feed lands on this client's dispatcher.
func NewClient(modelBuilder EventModelBuilder,
	registry *users.Registry) (*Client, error) {
	c := &Client{
		registry:      registry,
		msgListeners:  make(map[string]map[uint64]MessageListener),
		convListeners: make(map[string]map[uint64]ConversationListener),
	}

	model, err := modelBuilder(c.onModelChange)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to build DM event model")
	}
	c.model = model
	return c, nil
}

// FindOrCreateConversation opens the thread between selfID and peerID,
// creating it with fresh profile snapshots if this is the first contact.
// Opening an existing thread writes nothing.
func (c *Client) FindOrCreateConversation(selfID, peerID string) (
	Conversation, error) {
	if selfID == peerID {
		return Conversation{}, errors.New("cannot open a conversation with yourself")
	}

	convID := DeriveConversationID(selfID, peerID)
	conv, err := c.model.GetConversation(convID)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, ErrConversationNotFound) {
		return Conversation{}, err
	}

	self, err := c.registry.Get(selfID)
	if err != nil {
		return Conversation{}, errors.WithMessage(err, "failed to resolve self")
	}
	peer, err := c.registry.Get(peerID)
	if err != nil {
		return Conversation{}, errors.WithMessage(err, "failed to resolve peer")
	}

	conv = Conversation{
		ID: convID,
		Participants: map[string]Participant{
			selfID: snapshot(self),
			peerID: snapshot(peer),
		},
		// Nothing to read yet, so both sides start read.
		ReadState: map[string]bool{selfID: true, peerID: true},
	}

	stored, created, err := c.model.FindOrCreateConversation(conv)
	if err != nil {
		return Conversation{}, err
	}
	if created {
		jww.INFO.Printf("[DM] Created conversation %s", convID)
	}
	return stored, nil
}

// SendMessage appends a message to the conversation. The body is trimmed
// first; a whitespace-only body is silently dropped. The append and the
// conversation summary update land atomically, the sender's read flag is set
// and the recipient's cleared in the same write.
func (c *Client) SendMessage(conversationID, senderID, body string) error {
	body = strings.TrimSpace(body)
	if body == "" {
		jww.DEBUG.Printf(
			"[DM] Dropping empty message to %s from %s", conversationID, senderID)
		return nil
	}

	conv, err := c.model.GetConversation(conversationID)
	if err != nil {
		return err
	}
	sender, ok := conv.Participants[senderID]
	if !ok {
		return ErrNotParticipant
	}

	readState := make(map[string]bool, len(conv.Participants))
	for id := range conv.Participants {
		readState[id] = id == senderID
	}

	msg := Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		SenderID:       senderID,
		SenderName:     sender.DisplayName,
		SenderAvatar:   sender.Avatar,
		Body:           body,
	}

	if err = c.model.AppendMessage(msg, readState); err != nil {
		return errors.WithMessage(err, "failed to append message")
	}
	jww.INFO.Printf("[DM] Sent message %s to conversation %s", msg.ID,
		conversationID)
	return nil
}

// MarkRead flags the conversation as read by userID. Already-read threads are
// left untouched so the change feed stays quiet.
func (c *Client) MarkRead(conversationID, userID string) error {
	conv, err := c.model.GetConversation(conversationID)
	if err != nil {
		return err
	}
	if _, ok := conv.Participants[userID]; !ok {
		return ErrNotParticipant
	}

	changed, err := c.model.SetReadFlag(conversationID, userID, true)
	if err != nil {
		return err
	}
	if changed {
		jww.DEBUG.Printf("[DM] %s read conversation %s", userID, conversationID)
	}
	return nil
}

// Conversation returns a single thread by identifier.
func (c *Client) Conversation(conversationID string) (Conversation, error) {
	return c.model.GetConversation(conversationID)
}

// Conversations returns userID's inbox, most recently active first.
func (c *Client) Conversations(userID string) ([]Conversation, error) {
	return c.model.ListConversations(userID)
}

// Messages returns the thread in ascending order.
func (c *Client) Messages(conversationID string) ([]Message, error) {
	return c.model.ListMessages(conversationID)
}

// StreamMessages subscribes cb to the conversation's thread. The current
// thread is delivered immediately and again after every change until the
// returned stoppable is closed.
func (c *Client) StreamMessages(conversationID string,
	cb MessageListener) (*stoppable.Single, error) {
	msgs, err := c.model.ListMessages(conversationID)
	if err != nil {
		return nil, err
	}

	c.mux.Lock()
	id := c.nextID
	c.nextID++
	if c.msgListeners[conversationID] == nil {
		c.msgListeners[conversationID] = make(map[uint64]MessageListener)
	}
	c.msgListeners[conversationID][id] = cb
	c.mux.Unlock()

	cb(msgs)

	return stoppable.NewSingle("DMMessageStream-"+conversationID, func() {
		c.mux.Lock()
		defer c.mux.Unlock()
		delete(c.msgListeners[conversationID], id)
	}), nil
}

// StreamInbox subscribes cb to userID's conversation list. The current list
// is delivered immediately and again after every change to any of the user's
// conversations until the returned stoppable is closed.
func (c *Client) StreamInbox(userID string,
	cb ConversationListener) (*stoppable.Single, error) {
	convs, err := c.model.ListConversations(userID)
	if err != nil {
		return nil, err
	}

	c.mux.Lock()
	id := c.nextID
	c.nextID++
	if c.convListeners[userID] == nil {
		c.convListeners[userID] = make(map[uint64]ConversationListener)
	}
	c.convListeners[userID][id] = cb
	c.mux.Unlock()

	cb(convs)

	return stoppable.NewSingle("DMInboxStream-"+userID, func() {
		c.mux.Lock()
		defer c.mux.Unlock()
		delete(c.convListeners[userID], id)
	}), nil
}

// onModelChange is the event model's change dispatcher. It re-reads the
// affected thread and inbox lists and replays them to subscribers.
func (c *Client) onModelChange(conversationID string) {
	conv, err := c.model.GetConversation(conversationID)
	if err != nil {
		jww.ERROR.Printf("[DM] Change on unknown conversation %s: %+v",
			conversationID, err)
		return
	}

	c.mux.Lock()
	msgCbs := make([]MessageListener, 0, len(c.msgListeners[conversationID]))
	for _, cb := range c.msgListeners[conversationID] {
		msgCbs = append(msgCbs, cb)
	}
	convCbs := make(map[string][]ConversationListener)
	for id := range conv.Participants {
		for _, cb := range c.convListeners[id] {
			convCbs[id] = append(convCbs[id], cb)
		}
	}
	c.mux.Unlock()

	if len(msgCbs) > 0 {
		msgs, err := c.model.ListMessages(conversationID)
		if err != nil {
			jww.ERROR.Printf("[DM] Failed to list messages for %s: %+v",
				conversationID, err)
		} else {
			for _, cb := range msgCbs {
				cb(msgs)
			}
		}
	}

	for userID, cbs := range convCbs {
		convs, err := c.model.ListConversations(userID)
		if err != nil {
			jww.ERROR.Printf("[DM] Failed to list conversations for %s: %+v",
				userID, err)
			continue
		}
		for _, cb := range cbs {
			cb(convs)
		}
	}
}

func snapshot(u users.User) Participant {
	return Participant{
		ID:          u.ID,
		DisplayName: u.DisplayName(),
		Avatar:      u.Avatar,
		Role:        u.Role,
	}
}
