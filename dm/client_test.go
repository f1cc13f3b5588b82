////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package dm_test

import (
	"testing"
	"time"

	"github.com/pkg/errors"

	"gitlab.com/sharespace/client/backend"
	"gitlab.com/sharespace/client/dm"
	"gitlab.com/sharespace/client/dm/storage"
	"gitlab.com/sharespace/client/users"
)

func newTestClient(t *testing.T) (*dm.Client, *users.Registry) {
	t.Helper()
	db, err := backend.Open("")
	if err != nil {
		t.Fatalf("failed to open backend: %+v", err)
	}
	registry, err := users.NewRegistry(db)
	if err != nil {
		t.Fatalf("failed to build registry: %+v", err)
	}
	builder := func(onChange func(string)) (dm.EventModel, error) {
		return storage.NewEventModel(db, onChange)
	}
	client, err := dm.NewClient(builder, registry)
	if err != nil {
		t.Fatalf("failed to build client: %+v", err)
	}

	for _, u := range []users.User{
		{ID: "alice", FirstName: "Alice", LastName: "Achebe",
			Avatar: "image 1.png", Role: users.Junior},
		{ID: "bob", FirstName: "Bob", LastName: "Babatunde",
			Avatar: "image 2.png", Role: users.Senior},
	} {
		if err = registry.Create(u); err != nil {
			t.Fatalf("failed to create user %s: %+v", u.ID, err)
		}
	}
	return client, registry
}

// Tests that both orderings of a pair derive the same identifier and that it
// is stable.
func TestDeriveConversationID(t *testing.T) {
	ab := dm.DeriveConversationID("alice", "bob")
	ba := dm.DeriveConversationID("bob", "alice")
	if ab != ba {
		t.Errorf("identifiers differ by argument order: %q vs %q", ab, ba)
	}
	if ab != "alice_bob" {
		t.Errorf("unexpected identifier %q", ab)
	}
}

// Tests first contact: the conversation is created with snapshots of both
// profiles and a second open from either side returns the same thread.
func TestClient_FindOrCreateConversation(t *testing.T) {
	client, registry := newTestClient(t)

	conv, err := client.FindOrCreateConversation("alice", "bob")
	if err != nil {
		t.Fatalf("FindOrCreateConversation returned an error: %+v", err)
	}
	if len(conv.Participants) != 2 {
		t.Fatalf("expected 2 participants, got %d", len(conv.Participants))
	}
	if conv.Participants["alice"].DisplayName != "Alice Achebe" {
		t.Errorf("unexpected snapshot: %+v", conv.Participants["alice"])
	}
	if peer, ok := conv.Peer("alice"); !ok || peer.ID != "bob" {
		t.Errorf("Peer returned (%+v, %t)", peer, ok)
	}

	// Snapshots are frozen at creation: edit the profile and reopen.
	err = registry.UpdateProfile("alice", users.ProfileEdit{
		FirstName: "Alicia", Avatar: "image 3.png",
	})
	if err != nil {
		t.Fatalf("UpdateProfile returned an error: %+v", err)
	}
	again, err := client.FindOrCreateConversation("bob", "alice")
	if err != nil {
		t.Fatalf("second open returned an error: %+v", err)
	}
	if again.ID != conv.ID {
		t.Errorf("reopen produced a different thread: %q vs %q", again.ID, conv.ID)
	}
	if again.Participants["alice"].DisplayName != "Alice Achebe" {
		t.Errorf("snapshot was refreshed on reopen: %+v",
			again.Participants["alice"])
	}

	if _, err = client.FindOrCreateConversation("alice", "alice"); err == nil {
		t.Error("self-conversation was not rejected")
	}
	if _, err = client.FindOrCreateConversation("alice", "ghost"); err == nil {
		t.Error("conversation with unknown peer was not rejected")
	}
}

// Tests the send path: trimming, the empty-body no-op, summary updates, and
// read flags flipping for the recipient only.
func TestClient_SendMessage(t *testing.T) {
	client, _ := newTestClient(t)

	conv, err := client.FindOrCreateConversation("alice", "bob")
	if err != nil {
		t.Fatalf("FindOrCreateConversation returned an error: %+v", err)
	}
	if conv.UnreadBy("alice") || conv.UnreadBy("bob") {
		t.Error("a fresh conversation must not be unread")
	}

	if err = client.SendMessage(conv.ID, "alice", "  \n\t "); err != nil {
		t.Fatalf("whitespace-only send returned an error: %+v", err)
	}
	msgs, err := client.Messages(conv.ID)
	if err != nil {
		t.Fatalf("Messages returned an error: %+v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("whitespace-only send stored a message: %+v", msgs)
	}

	if err = client.SendMessage(conv.ID, "alice", "  hello bob  "); err != nil {
		t.Fatalf("SendMessage returned an error: %+v", err)
	}

	msgs, err = client.Messages(conv.ID)
	if err != nil {
		t.Fatalf("Messages returned an error: %+v", err)
	}
	if len(msgs) != 1 || msgs[0].Body != "hello bob" {
		t.Fatalf("unexpected thread: %+v", msgs)
	}
	if msgs[0].SenderName != "Alice Achebe" {
		t.Errorf("missing sender snapshot: %+v", msgs[0])
	}

	conv, err = client.FindOrCreateConversation("alice", "bob")
	if err != nil {
		t.Fatalf("reopen returned an error: %+v", err)
	}
	if conv.LastMessage != "hello bob" {
		t.Errorf("summary not updated: %q", conv.LastMessage)
	}
	if conv.UnreadBy("alice") {
		t.Error("sender's own message reads as unread")
	}
	if !conv.UnreadBy("bob") {
		t.Error("recipient not flagged unread")
	}

	if err = client.SendMessage(conv.ID, "mallory", "hi"); !errors.Is(err, dm.ErrNotParticipant) {
		t.Errorf("outsider send returned %v", err)
	}
	if err = client.SendMessage("missing", "alice", "hi"); !errors.Is(err, dm.ErrConversationNotFound) {
		t.Errorf("send to missing conversation returned %v", err)
	}
}

// Tests that MarkRead clears the unread flag for the reader only.
func TestClient_MarkRead(t *testing.T) {
	client, _ := newTestClient(t)

	conv, err := client.FindOrCreateConversation("alice", "bob")
	if err != nil {
		t.Fatalf("FindOrCreateConversation returned an error: %+v", err)
	}
	if err = client.SendMessage(conv.ID, "alice", "hello"); err != nil {
		t.Fatalf("SendMessage returned an error: %+v", err)
	}

	if err = client.MarkRead(conv.ID, "bob"); err != nil {
		t.Fatalf("MarkRead returned an error: %+v", err)
	}
	conv, err = client.FindOrCreateConversation("alice", "bob")
	if err != nil {
		t.Fatalf("reopen returned an error: %+v", err)
	}
	if conv.UnreadBy("bob") {
		t.Error("conversation still unread after MarkRead")
	}

	// Marking again is a harmless no-op.
	if err = client.MarkRead(conv.ID, "bob"); err != nil {
		t.Fatalf("repeated MarkRead returned an error: %+v", err)
	}

	if err = client.MarkRead(conv.ID, "mallory"); !errors.Is(err, dm.ErrNotParticipant) {
		t.Errorf("outsider MarkRead returned %v", err)
	}
}

// Tests the live streams: immediate delivery, redelivery on sends and reads,
// and silence after the stoppable closes.
func TestClient_Streams(t *testing.T) {
	client, _ := newTestClient(t)

	conv, err := client.FindOrCreateConversation("alice", "bob")
	if err != nil {
		t.Fatalf("FindOrCreateConversation returned an error: %+v", err)
	}

	var threads [][]dm.Message
	msgStream, err := client.StreamMessages(conv.ID, func(msgs []dm.Message) {
		threads = append(threads, msgs)
	})
	if err != nil {
		t.Fatalf("StreamMessages returned an error: %+v", err)
	}

	var inboxes [][]dm.Conversation
	inboxStream, err := client.StreamInbox("bob", func(convs []dm.Conversation) {
		inboxes = append(inboxes, convs)
	})
	if err != nil {
		t.Fatalf("StreamInbox returned an error: %+v", err)
	}

	if len(threads) != 1 || len(threads[0]) != 0 {
		t.Fatalf("expected an immediate empty thread delivery, got %+v", threads)
	}
	if len(inboxes) != 1 || len(inboxes[0]) != 1 {
		t.Fatalf("expected an immediate inbox delivery, got %+v", inboxes)
	}

	if err = client.SendMessage(conv.ID, "alice", "hello"); err != nil {
		t.Fatalf("SendMessage returned an error: %+v", err)
	}
	if len(threads) != 2 || len(threads[1]) != 1 {
		t.Fatalf("thread stream missed the send: %+v", threads)
	}
	if len(inboxes) != 2 || !inboxes[1][0].UnreadBy("bob") {
		t.Fatalf("inbox stream missed the send: %+v", inboxes)
	}

	if err = client.MarkRead(conv.ID, "bob"); err != nil {
		t.Fatalf("MarkRead returned an error: %+v", err)
	}
	if len(inboxes) != 3 || inboxes[2][0].UnreadBy("bob") {
		t.Fatalf("inbox stream missed the read transition: %+v", inboxes)
	}

	if err = msgStream.Close(); err != nil {
		t.Fatalf("Close returned an error: %+v", err)
	}
	if err = inboxStream.Close(); err != nil {
		t.Fatalf("Close returned an error: %+v", err)
	}
	if err = client.SendMessage(conv.ID, "bob", "closed now"); err != nil {
		t.Fatalf("SendMessage returned an error: %+v", err)
	}
	if len(threads) != 3 || len(inboxes) != 3 {
		t.Errorf("closed streams still received deliveries: %d threads, %d inboxes",
			len(threads), len(inboxes))
	}
}

// Tests that a listener can mark the thread read from within its own
// delivery, the way an open chat screen acknowledges arriving messages. The
// send must return instead of blocking on the model's write lock.
func TestClient_ListenerMarksReadOnDelivery(t *testing.T) {
	client, _ := newTestClient(t)

	conv, err := client.FindOrCreateConversation("alice", "bob")
	if err != nil {
		t.Fatalf("FindOrCreateConversation returned an error: %+v", err)
	}

	stream, err := client.StreamMessages(conv.ID, func(msgs []dm.Message) {
		if len(msgs) == 0 {
			return
		}
		if mErr := client.MarkRead(conv.ID, "bob"); mErr != nil {
			t.Errorf("MarkRead from a delivery returned an error: %+v", mErr)
		}
	})
	if err != nil {
		t.Fatalf("StreamMessages returned an error: %+v", err)
	}
	defer func() {
		if cErr := stream.Close(); cErr != nil {
			t.Errorf("Close returned an error: %+v", cErr)
		}
	}()

	done := make(chan error, 1)
	go func() {
		done <- client.SendMessage(conv.ID, "alice", "hello")
	}()
	select {
	case err = <-done:
		if err != nil {
			t.Fatalf("SendMessage returned an error: %+v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("SendMessage did not return while a listener marked the " +
			"thread read")
	}

	conv, err = client.FindOrCreateConversation("alice", "bob")
	if err != nil {
		t.Fatalf("reopen returned an error: %+v", err)
	}
	if conv.UnreadBy("bob") {
		t.Error("thread still unread after the listener marked it")
	}
}
