////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package client assembles the ShareSpace SDK: identity, profiles, the
// session, direct messaging, the post board, notifications, and feedback,
// all wired onto one backend database and one local key-value store. Screens
// use the subsystem handles directly; the methods here are the flows that
// cross subsystem lines.
package client

import (
	"strings"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"gitlab.com/elixxir/ekv"
	"gorm.io/gorm"

	"gitlab.com/sharespace/client/auth"
	"gitlab.com/sharespace/client/backend"
	"gitlab.com/sharespace/client/dm"
	dmStorage "gitlab.com/sharespace/client/dm/storage"
	"gitlab.com/sharespace/client/feed"
	feedStorage "gitlab.com/sharespace/client/feed/storage"
	"gitlab.com/sharespace/client/feedback"
	"gitlab.com/sharespace/client/notifications"
	"gitlab.com/sharespace/client/session"
	"gitlab.com/sharespace/client/users"
)

// Params configures client construction. Zero values give a fully in-memory
// client, which is what the tests use.
type Params struct {
	// DBFilePath is the backend database file. Empty means in-memory.
	DBFilePath string

	// StorageDir and StoragePassword locate the local encrypted key-value
	// store. An empty StorageDir means in-memory.
	StorageDir      string
	StoragePassword string

	// MailComposer is the platform mail facility for feedback drafts. Nil
	// drafts are logged and dropped.
	MailComposer feedback.Composer
}

// Client is the assembled SDK.
type Client struct {
	db *gorm.DB
	kv ekv.KeyValue

	Auth          auth.Provider
	Users         *users.Registry
	Session       *session.Session
	Onboarding    *session.Onboarding
	DM            *dm.Client
	Feed          *feed.Client
	Notifications *notifications.Manager
	Feedback      *feedback.Service
}

// NewClient opens the backend and local stores and wires every subsystem.
func NewClient(params Params) (*Client, error) {
	db, err := backend.Open(params.DBFilePath)
	if err != nil {
		return nil, err
	}

	var kv ekv.KeyValue
	if params.StorageDir == "" {
		kv = ekv.MakeMemstore()
	} else {
		kv, err = ekv.NewFilestore(
			params.StorageDir, params.StoragePassword)
		if err != nil {
			return nil, errors.WithMessage(err,
				"failed to open local storage")
		}
	}

	provider, err := auth.NewLocalProvider(db)
	if err != nil {
		return nil, err
	}
	registry, err := users.NewRegistry(db)
	if err != nil {
		return nil, err
	}

	dmClient, err := dm.NewClient(
		func(onChange func(string)) (dm.EventModel, error) {
			return dmStorage.NewEventModel(db, onChange)
		}, registry)
	if err != nil {
		return nil, err
	}

	feedStore, err := feedStorage.NewStore(db)
	if err != nil {
		return nil, err
	}
	notifs, err := notifications.NewManager(db)
	if err != nil {
		return nil, err
	}

	composer := params.MailComposer
	if composer == nil {
		composer = discardComposer{}
	}

	c := &Client{
		db:            db,
		kv:            kv,
		Auth:          provider,
		Users:         registry,
		Session:       session.NewSession(provider, registry),
		Onboarding:    session.NewOnboarding(kv),
		DM:            dmClient,
		Feed:          feed.NewClient(feedStore),
		Notifications: notifs,
		Feedback:      feedback.NewService(composer),
	}
	jww.INFO.Printf("[CLIENT] ShareSpace client assembled")
	return c, nil
}

// SignUp registers the credentials and writes the profile record in one
// flow, then refreshes the session so screens see the new profile.
func (c *Client) SignUp(email, password, firstName, lastName,
	username string, role users.Role, avatar string) (users.User, error) {
	userID, err := c.Auth.SignUp(email, password)
	if err != nil {
		return users.User{}, err
	}

	u := users.User{
		ID:        userID,
		FirstName: firstName,
		LastName:  lastName,
		Username:  username,
		Bio:       "",
		Avatar:    avatar,
		Role:      role,
	}
	if err = c.Users.Create(u); err != nil {
		// The credential record exists without a profile. Sign back
		// out and report; the user can retry against the same email
		// only after the dangling account is removed.
		if delErr := c.Auth.DeleteAccount(); delErr != nil {
			jww.ERROR.Printf(
				"[CLIENT] Failed to roll back account %s: %+v",
				userID, delErr)
		}
		return users.User{}, err
	}

	if err = c.Session.Refresh(); err != nil {
		return users.User{}, err
	}
	return u, nil
}

// SignIn verifies the credentials; the session follows the auth feed on its
// own.
func (c *Client) SignIn(email, password string) error {
	_, err := c.Auth.SignIn(email, password)
	return err
}

// SignOut clears the current user.
func (c *Client) SignOut() {
	c.Auth.SignOut()
}

// UpdateProfile applies the signed-in user's profile edit and refreshes the
// session snapshot.
func (c *Client) UpdateProfile(edit users.ProfileEdit) error {
	userID, ok := c.Session.UserID()
	if !ok {
		return auth.ErrNotSignedIn
	}
	if err := c.Users.UpdateProfile(userID, edit); err != nil {
		return err
	}
	return c.Session.Refresh()
}

// SendDirectMessage sends body into the conversation as the signed-in user
// and drops a message notification on the other participant. An empty body
// sends nothing and notifies nobody.
func (c *Client) SendDirectMessage(conversationID, body string) error {
	sender, ok := c.Session.Current()
	if !ok {
		return auth.ErrNotSignedIn
	}
	if strings.TrimSpace(body) == "" {
		return nil
	}

	if err := c.DM.SendMessage(conversationID, sender.ID, body); err != nil {
		return err
	}

	conv, err := c.DM.Conversation(conversationID)
	if err != nil {
		return err
	}
	if peer, ok := conv.Peer(sender.ID); ok {
		err = c.Notifications.Push(peer.ID, notifications.KindMessage,
			"New message from "+sender.DisplayName(),
			strings.TrimSpace(body), conversationID)
		if err != nil {
			jww.WARN.Printf(
				"[CLIENT] Message sent but notification failed: %+v", err)
		}
	}
	return nil
}

// CommentOnPost appends the signed-in user's comment and notifies the post's
// author, unless they are commenting on their own post.
func (c *Client) CommentOnPost(authorRole users.Role, postID,
	body string) (feed.Comment, error) {
	commenter, ok := c.Session.Current()
	if !ok {
		return feed.Comment{}, auth.ErrNotSignedIn
	}

	comment, err := c.Feed.AddComment(commenter, authorRole, postID, body)
	if err != nil {
		return feed.Comment{}, err
	}

	post, err := c.Feed.Get(authorRole, postID)
	if err == nil && post.AuthorID != commenter.ID {
		err = c.Notifications.Push(post.AuthorID,
			notifications.KindComment,
			commenter.DisplayName()+" commented on your post",
			comment.Body, postID)
	}
	if err != nil {
		jww.WARN.Printf(
			"[CLIENT] Comment stored but notification failed: %+v", err)
	}
	return comment, nil
}

// ToggleLike flips the signed-in user's like on a post. Turning a like on
// notifies the author; turning it off is silent.
func (c *Client) ToggleLike(authorRole users.Role, postID string) (
	feed.Post, error) {
	liker, ok := c.Session.Current()
	if !ok {
		return feed.Post{}, auth.ErrNotSignedIn
	}

	post, err := c.Feed.ToggleLike(authorRole, postID, liker.ID)
	if err != nil {
		return feed.Post{}, err
	}

	if post.LikedByUser(liker.ID) && post.AuthorID != liker.ID {
		err = c.Notifications.Push(post.AuthorID, notifications.KindLike,
			liker.DisplayName()+" liked your post", "", postID)
		if err != nil {
			jww.WARN.Printf(
				"[CLIENT] Like stored but notification failed: %+v", err)
		}
	}
	return post, nil
}

// DeleteAccount removes the signed-in user: their posts and comment threads,
// their notifications, their profile record, and finally their credentials.
// Conversations and messages they appear in survive with stale snapshots.
func (c *Client) DeleteAccount() error {
	profile, ok := c.Session.Current()
	if !ok {
		return auth.ErrNotSignedIn
	}

	if profile.ID != "" {
		if err := c.Feed.DeleteAllBy(profile); err != nil {
			return err
		}
		if err := c.Notifications.DeleteAllFor(profile.ID); err != nil {
			return err
		}
		err := c.Users.Delete(profile.ID)
		if err != nil && !errors.Is(err, users.ErrNotFound) {
			return err
		}
	}

	jww.INFO.Printf("[CLIENT] Deleting account %s", profile.ID)
	return c.Auth.DeleteAccount()
}

// Close detaches the session. The database handle is shared and closed by
// process exit.
func (c *Client) Close() {
	c.Session.Close()
}

// discardComposer drops feedback drafts when no platform mail facility was
// provided.
type discardComposer struct{}

func (discardComposer) Compose(draft feedback.Draft) error {
	jww.WARN.Printf(
		"[CLIENT] No mail composer configured; dropping %q draft", draft.Subject)
	return nil
}
