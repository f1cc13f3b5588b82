////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package feed implements the role-partitioned post board: posts carry
// labels, like sets, and append-only comment threads. Content is partitioned
// by the author's role; a viewer's feed is the complement partition, so
// juniors read what seniors wrote and vice versa.
package feed

import (
	"time"

	"github.com/pkg/errors"

	"gitlab.com/sharespace/client/users"
)

var (
	// ErrPostNotFound is returned when no post exists for an identifier in
	// the addressed partition.
	ErrPostNotFound = errors.New("post not found")

	// ErrNotAuthor is returned when a user other than the author tries to
	// edit or delete a post.
	ErrNotAuthor = errors.New("only the author may modify this post")

	// ErrEmptyBody is returned for posts and comments whose body is empty
	// after trimming.
	ErrEmptyBody = errors.New("body must not be empty")
)

// Post is a board entry. AuthorName is a snapshot taken at creation and never
// refreshed. LikedBy holds each liker's ID at most once.
type Post struct {
	ID         string
	AuthorID   string
	AuthorName string
	AuthorRole users.Role
	Body       string
	Labels     []string
	LikedBy    []string
	CreatedAt  time.Time
}

// Likes returns the displayed like count.
func (p Post) Likes() int {
	return len(p.LikedBy)
}

// LikedByUser reports whether userID is in the like set.
func (p Post) LikedByUser(userID string) bool {
	for _, id := range p.LikedBy {
		if id == userID {
			return true
		}
	}
	return false
}

// Comment is an append-only child of exactly one post.
type Comment struct {
	ID         string
	PostID     string
	AuthorID   string
	AuthorName string
	Body       string
	CreatedAt  time.Time
}

// Store is the hosted post store boundary. Posts live in one of two disjoint
// partitions keyed by the author's role; every post operation addresses a
// partition explicitly. Timestamps are assigned by the store at write
// acceptance.
type Store interface {
	// CreatePost stores post in the authorRole partition.
	CreatePost(authorRole users.Role, post Post) (Post, error)

	// GetPost returns the post or ErrPostNotFound.
	GetPost(authorRole users.Role, postID string) (Post, error)

	// ListPosts returns the whole partition, newest first.
	ListPosts(authorRole users.Role) ([]Post, error)

	// ListPostsBy returns authorID's posts in the partition, newest first.
	ListPostsBy(authorRole users.Role, authorID string) ([]Post, error)

	// UpdatePost rewrites the post's body and labels.
	UpdatePost(authorRole users.Role, postID, body string,
		labels []string) error

	// SetLikers replaces the post's like set.
	SetLikers(authorRole users.Role, postID string, likedBy []string) error

	// DeletePost removes the post and all of its comments atomically.
	DeletePost(authorRole users.Role, postID string) error

	// DeletePostsBy removes every post by authorID in the partition,
	// comments included. Used by account deletion.
	DeletePostsBy(authorRole users.Role, authorID string) error

	// AddComment appends a comment to its post's thread.
	AddComment(authorRole users.Role, comment Comment) error

	// ListComments returns the post's thread, oldest first.
	ListComments(postID string) ([]Comment, error)
}
