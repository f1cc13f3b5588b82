////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package storage

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"gorm.io/datatypes"

	"gitlab.com/sharespace/client/feed"
	"gitlab.com/sharespace/client/users"
)

// Post partition tables. The same row schema is kept in two disjoint tables,
// one per author role, mirroring the hosted store's collection split.
const (
	juniorPostTable = "junior_posts"
	seniorPostTable = "senior_posts"
)

func tableForRole(role users.Role) string {
	if role == users.Junior {
		return juniorPostTable
	}
	return seniorPostTable
}

// Post is a stored board entry. The table it lives in carries the author
// role, so the row itself does not.
type Post struct {
	ID         string         `gorm:"primaryKey"`
	AuthorID   string         `gorm:"not null;index"`
	AuthorName string         `gorm:"not null"`
	Body       string         `gorm:"not null"`
	Labels     datatypes.JSON `gorm:"not null"`
	LikedBy    datatypes.JSON `gorm:"not null"`
	CreatedAt  time.Time      `gorm:"index;not null"`
}

// Comment is a stored thread entry. PostRole records which partition the
// parent post lives in.
type Comment struct {
	ID         string     `gorm:"primaryKey"`
	PostID     string     `gorm:"not null;index"`
	PostRole   users.Role `gorm:"not null"`
	AuthorID   string     `gorm:"not null"`
	AuthorName string     `gorm:"not null"`
	Body       string     `gorm:"not null"`
	CreatedAt  time.Time  `gorm:"index;not null"`
}

// TableName overrides the table name used by Comment.
func (Comment) TableName() string {
	return "comments"
}

func toPostRow(p feed.Post) (Post, error) {
	labels, err := json.Marshal(p.Labels)
	if err != nil {
		return Post{}, errors.Errorf("failed to marshal labels: %+v", err)
	}
	likedBy, err := json.Marshal(p.LikedBy)
	if err != nil {
		return Post{}, errors.Errorf("failed to marshal like set: %+v", err)
	}
	return Post{
		ID:         p.ID,
		AuthorID:   p.AuthorID,
		AuthorName: p.AuthorName,
		Body:       p.Body,
		Labels:     labels,
		LikedBy:    likedBy,
		CreatedAt:  p.CreatedAt,
	}, nil
}

func fromPostRow(row Post, authorRole users.Role) (feed.Post, error) {
	p := feed.Post{
		ID:         row.ID,
		AuthorID:   row.AuthorID,
		AuthorName: row.AuthorName,
		AuthorRole: authorRole,
		Body:       row.Body,
		CreatedAt:  row.CreatedAt,
	}
	if err := json.Unmarshal(row.Labels, &p.Labels); err != nil {
		return feed.Post{}, errors.Errorf("failed to unmarshal labels: %+v", err)
	}
	if err := json.Unmarshal(row.LikedBy, &p.LikedBy); err != nil {
		return feed.Post{}, errors.Errorf(
			"failed to unmarshal like set: %+v", err)
	}
	return p, nil
}

func toCommentRow(c feed.Comment, postRole users.Role) Comment {
	return Comment{
		ID:         c.ID,
		PostID:     c.PostID,
		PostRole:   postRole,
		AuthorID:   c.AuthorID,
		AuthorName: c.AuthorName,
		Body:       c.Body,
		CreatedAt:  c.CreatedAt,
	}
}

func fromCommentRow(row Comment) feed.Comment {
	return feed.Comment{
		ID:         row.ID,
		PostID:     row.PostID,
		AuthorID:   row.AuthorID,
		AuthorName: row.AuthorName,
		Body:       row.Body,
		CreatedAt:  row.CreatedAt,
	}
}
