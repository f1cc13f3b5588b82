////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package feed

import (
	"strings"

	"github.com/golang-collections/collections/set"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"

	"gitlab.com/sharespace/client/users"
)

// Client is the board front. It owns author snapshots, label validation, and
// the partition routing rule; persistence is delegated to the store.
type Client struct {
	store Store
}

// NewClient builds the board client on the given store.
func NewClient(store Store) *Client {
	return &Client{store: store}
}

// CreatePost publishes a post authored by author into author's own-role
// partition. The body is trimmed and must be non-empty; an empty label
// selection falls back to the default.
func (c *Client) CreatePost(author users.User, body string,
	labels []string) (Post, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return Post{}, ErrEmptyBody
	}
	labels, err := NormalizeLabels(labels)
	if err != nil {
		return Post{}, err
	}

	post := Post{
		ID:         uuid.NewString(),
		AuthorID:   author.ID,
		AuthorName: author.DisplayName(),
		AuthorRole: author.Role,
		Body:       body,
		Labels:     labels,
		LikedBy:    []string{},
	}
	stored, err := c.store.CreatePost(author.Role, post)
	if err != nil {
		return Post{}, errors.WithMessage(err, "failed to create post")
	}
	jww.INFO.Printf("[FEED] %s posted %s", author.ID, stored.ID)
	return stored, nil
}

// Feed returns the posts the viewer reads: the partition authored by the
// complement of the viewer's role, newest first.
func (c *Client) Feed(viewer users.User) ([]Post, error) {
	return c.store.ListPosts(viewer.Role.Complement())
}

// PostsBy returns owner's own posts, newest first. This backs the profile
// screen, which reads the owner's own-role partition.
func (c *Client) PostsBy(owner users.User) ([]Post, error) {
	return c.store.ListPostsBy(owner.Role, owner.ID)
}

// Get returns a single post from the authorRole partition.
func (c *Client) Get(authorRole users.Role, postID string) (Post, error) {
	return c.store.GetPost(authorRole, postID)
}

// ToggleLike flips userID's membership in the post's like set and returns
// the updated post. Toggling twice restores the original set, and a user can
// never appear in the set more than once.
func (c *Client) ToggleLike(authorRole users.Role, postID,
	userID string) (Post, error) {
	post, err := c.store.GetPost(authorRole, postID)
	if err != nil {
		return Post{}, err
	}

	likers := set.New()
	for _, id := range post.LikedBy {
		likers.Insert(id)
	}
	if likers.Has(userID) {
		likers.Remove(userID)
	} else {
		likers.Insert(userID)
	}

	// Keep first-like order stable and append the new liker last.
	likedBy := make([]string, 0, likers.Len())
	for _, id := range post.LikedBy {
		if likers.Has(id) {
			likedBy = append(likedBy, id)
		}
	}
	if len(likedBy) < likers.Len() {
		likedBy = append(likedBy, userID)
	}

	if err = c.store.SetLikers(authorRole, postID, likedBy); err != nil {
		return Post{}, errors.WithMessage(err, "failed to update like set")
	}
	post.LikedBy = likedBy
	return post, nil
}

// UpdatePost rewrites the body and labels of the editor's own post.
func (c *Client) UpdatePost(editorID string, authorRole users.Role,
	postID, body string, labels []string) error {
	body = strings.TrimSpace(body)
	if body == "" {
		return ErrEmptyBody
	}
	labels, err := NormalizeLabels(labels)
	if err != nil {
		return err
	}

	post, err := c.store.GetPost(authorRole, postID)
	if err != nil {
		return err
	}
	if post.AuthorID != editorID {
		return ErrNotAuthor
	}
	return c.store.UpdatePost(authorRole, postID, body, labels)
}

// DeletePost removes the editor's own post together with its comment thread.
func (c *Client) DeletePost(editorID string, authorRole users.Role,
	postID string) error {
	post, err := c.store.GetPost(authorRole, postID)
	if err != nil {
		return err
	}
	if post.AuthorID != editorID {
		return ErrNotAuthor
	}

	if err = c.store.DeletePost(authorRole, postID); err != nil {
		return errors.WithMessage(err, "failed to delete post")
	}
	jww.INFO.Printf("[FEED] %s deleted post %s", editorID, postID)
	return nil
}

// DeleteAllBy removes every post authored by the departing user, comment
// threads included. Content by other users that merely references them is
// untouched.
func (c *Client) DeleteAllBy(owner users.User) error {
	err := c.store.DeletePostsBy(owner.Role, owner.ID)
	if err != nil {
		return errors.WithMessage(err, "failed to delete posts")
	}
	jww.INFO.Printf("[FEED] Removed all posts by %s", owner.ID)
	return nil
}

// AddComment appends a comment by author to the post's thread. Any
// authenticated user may comment regardless of role.
func (c *Client) AddComment(author users.User, authorRole users.Role,
	postID, body string) (Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return Comment{}, ErrEmptyBody
	}

	if _, err := c.store.GetPost(authorRole, postID); err != nil {
		return Comment{}, err
	}

	comment := Comment{
		ID:         uuid.NewString(),
		PostID:     postID,
		AuthorID:   author.ID,
		AuthorName: author.DisplayName(),
		Body:       body,
	}
	if err := c.store.AddComment(authorRole, comment); err != nil {
		return Comment{}, errors.WithMessage(err, "failed to add comment")
	}
	return comment, nil
}

// Comments returns the post's thread, oldest first.
func (c *Client) Comments(postID string) ([]Comment, error) {
	return c.store.ListComments(postID)
}
