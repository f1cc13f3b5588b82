////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package client

import (
	"strings"
	"testing"

	"github.com/pkg/errors"

	"gitlab.com/sharespace/client/auth"
	"gitlab.com/sharespace/client/dm"
	"gitlab.com/sharespace/client/notifications"
	"gitlab.com/sharespace/client/users"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	c, err := NewClient(Params{})
	if err != nil {
		t.Fatalf("NewClient returned an error: %+v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func signUp(t *testing.T, c *Client, email, first, last string,
	role users.Role) users.User {
	t.Helper()
	u, err := c.SignUp(email, "hunter22", first, last,
		strings.ToLower(first), role, "image 1.png")
	if err != nil {
		t.Fatalf("SignUp for %s returned an error: %+v", email, err)
	}
	return u
}

// Tests the signup flow end to end: credentials, profile record, and session
// state land together.
func TestClient_SignUpFlow(t *testing.T) {
	c := newTestClient(t)

	u := signUp(t, c, "june@university.edu", "June", "Jang", users.Junior)
	if u.ID == "" {
		t.Fatal("SignUp returned an empty handle")
	}

	profile, ok := c.Session.Current()
	if !ok || profile.ID != u.ID || profile.FirstName != "June" {
		t.Errorf("session not hydrated after signup: (%+v, %t)", profile, ok)
	}

	stored, err := c.Users.Get(u.ID)
	if err != nil || stored.Role != users.Junior {
		t.Errorf("profile record wrong: (%+v, %v)", stored, err)
	}

	// A rejected signup must not leave the old session signed out.
	if _, err = c.SignUp("june@university.edu", "hunter22", "June", "Jang",
		"june", users.Junior, "image 1.png"); !errors.Is(err, auth.ErrEmailTaken) {
		t.Errorf("duplicate signup returned %v", err)
	}
}

// Tests that sending a direct message drops a notification on the recipient
// and only on the recipient.
func TestClient_SendDirectMessage_Notifies(t *testing.T) {
	c := newTestClient(t)

	sana := signUp(t, c, "sana@university.edu", "Sana", "Sy", users.Senior)
	c.SignOut()
	june := signUp(t, c, "june@university.edu", "June", "Jang", users.Junior)

	conv, err := c.DM.FindOrCreateConversation(june.ID, sana.ID)
	if err != nil {
		t.Fatalf("FindOrCreateConversation returned an error: %+v", err)
	}

	// Empty bodies send nothing and notify nobody.
	if err = c.SendDirectMessage(conv.ID, "   "); err != nil {
		t.Fatalf("empty SendDirectMessage returned an error: %+v", err)
	}
	list, err := c.Notifications.List(sana.ID)
	if err != nil || len(list) != 0 {
		t.Fatalf("empty send produced notifications: (%+v, %v)", list, err)
	}

	if err = c.SendDirectMessage(conv.ID, "hello sana"); err != nil {
		t.Fatalf("SendDirectMessage returned an error: %+v", err)
	}

	msgs, err := c.DM.Messages(conv.ID)
	if err != nil || len(msgs) != 1 {
		t.Fatalf("message not stored: (%+v, %v)", msgs, err)
	}

	list, err = c.Notifications.List(sana.ID)
	if err != nil {
		t.Fatalf("List returned an error: %+v", err)
	}
	if len(list) != 1 || list[0].Kind != notifications.KindMessage {
		t.Fatalf("recipient notification wrong: %+v", list)
	}
	if list[0].Title != "New message from June Jang" ||
		list[0].SourceID != conv.ID {
		t.Errorf("unexpected notification: %+v", list[0])
	}

	own, err := c.Notifications.List(june.ID)
	if err != nil || len(own) != 0 {
		t.Errorf("sender notified of their own message: (%+v, %v)", own, err)
	}
}

// Tests comment and like notifications, including the own-content silence
// rule.
func TestClient_BoardNotifications(t *testing.T) {
	c := newTestClient(t)

	june := signUp(t, c, "june@university.edu", "June", "Jang", users.Junior)
	post, err := c.Feed.CreatePost(june, "anyone running tomorrow?",
		[]string{"Fitness"})
	if err != nil {
		t.Fatalf("CreatePost returned an error: %+v", err)
	}

	// Liking your own post is silent.
	if _, err = c.ToggleLike(users.Junior, post.ID); err != nil {
		t.Fatalf("ToggleLike returned an error: %+v", err)
	}
	list, err := c.Notifications.List(june.ID)
	if err != nil || len(list) != 0 {
		t.Fatalf("self-like produced a notification: (%+v, %v)", list, err)
	}

	c.SignOut()
	signUp(t, c, "sana@university.edu", "Sana", "Sy", users.Senior)

	if _, err = c.CommentOnPost(users.Junior, post.ID, "yes, 7am"); err != nil {
		t.Fatalf("CommentOnPost returned an error: %+v", err)
	}
	if _, err = c.ToggleLike(users.Junior, post.ID); err != nil {
		t.Fatalf("ToggleLike returned an error: %+v", err)
	}

	list, err = c.Notifications.List(june.ID)
	if err != nil {
		t.Fatalf("List returned an error: %+v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected comment and like notifications, got %+v", list)
	}
	kinds := map[notifications.Kind]bool{}
	for _, n := range list {
		kinds[n.Kind] = true
	}
	if !kinds[notifications.KindComment] || !kinds[notifications.KindLike] {
		t.Errorf("unexpected notification kinds: %+v", list)
	}

	// Unliking is silent.
	if _, err = c.ToggleLike(users.Junior, post.ID); err != nil {
		t.Fatalf("ToggleLike returned an error: %+v", err)
	}
	list, _ = c.Notifications.List(june.ID)
	if len(list) != 2 {
		t.Errorf("unlike produced a notification: %+v", list)
	}
}

// Tests the account-deletion cascade: own posts, notifications, profile, and
// credentials go; conversations survive with stale snapshots.
func TestClient_DeleteAccount(t *testing.T) {
	c := newTestClient(t)

	sana := signUp(t, c, "sana@university.edu", "Sana", "Sy", users.Senior)
	c.SignOut()
	june := signUp(t, c, "june@university.edu", "June", "Jang", users.Junior)

	if _, err := c.Feed.CreatePost(june, "goodbye post", nil); err != nil {
		t.Fatalf("CreatePost returned an error: %+v", err)
	}
	conv, err := c.DM.FindOrCreateConversation(june.ID, sana.ID)
	if err != nil {
		t.Fatalf("FindOrCreateConversation returned an error: %+v", err)
	}
	if err = c.SendDirectMessage(conv.ID, "bye"); err != nil {
		t.Fatalf("SendDirectMessage returned an error: %+v", err)
	}

	if err = c.DeleteAccount(); err != nil {
		t.Fatalf("DeleteAccount returned an error: %+v", err)
	}

	if _, ok := c.Session.Current(); ok {
		t.Error("session still signed in after account deletion")
	}
	if _, err = c.Users.Get(june.ID); !errors.Is(err, users.ErrNotFound) {
		t.Errorf("profile survived deletion: %v", err)
	}
	posts, err := c.Feed.PostsBy(june)
	if err != nil || len(posts) != 0 {
		t.Errorf("posts survived deletion: (%+v, %v)", posts, err)
	}
	if err = c.SignIn("june@university.edu", "hunter22"); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Errorf("credentials survived deletion: %v", err)
	}

	// The survivor still sees the thread, frozen snapshots included.
	stored, err := c.DM.Conversation(conv.ID)
	if err != nil {
		t.Fatalf("Conversation returned an error: %+v", err)
	}
	if stored.Participants[june.ID].DisplayName != "June Jang" {
		t.Errorf("departed user's snapshot lost: %+v", stored.Participants)
	}
	msgs, err := c.DM.Messages(conv.ID)
	if err != nil || len(msgs) != 1 {
		t.Errorf("thread lost after deletion: (%+v, %v)", msgs, err)
	}
	if _, ok := stored.Peer(sana.ID); !ok {
		t.Error("peer resolution broken after deletion")
	}
}

// Tests dm stream wiring through the assembled client.
func TestClient_InboxStream(t *testing.T) {
	c := newTestClient(t)

	sana := signUp(t, c, "sana@university.edu", "Sana", "Sy", users.Senior)
	c.SignOut()
	june := signUp(t, c, "june@university.edu", "June", "Jang", users.Junior)

	conv, err := c.DM.FindOrCreateConversation(june.ID, sana.ID)
	if err != nil {
		t.Fatalf("FindOrCreateConversation returned an error: %+v", err)
	}

	var inboxes [][]dm.Conversation
	stream, err := c.DM.StreamInbox(sana.ID, func(convs []dm.Conversation) {
		inboxes = append(inboxes, convs)
	})
	if err != nil {
		t.Fatalf("StreamInbox returned an error: %+v", err)
	}

	if err = c.SendDirectMessage(conv.ID, "ping"); err != nil {
		t.Fatalf("SendDirectMessage returned an error: %+v", err)
	}
	if len(inboxes) != 2 || !inboxes[1][0].UnreadBy(sana.ID) {
		t.Fatalf("inbox stream missed the send: %+v", inboxes)
	}

	if err = stream.Close(); err != nil {
		t.Fatalf("Close returned an error: %+v", err)
	}
}
