////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package storage implements the feed.Store on a gorm database. Posts are
// split across two tables keyed by author role; comments share one table
// tagged with the parent's partition.
package storage

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"gorm.io/gorm"

	"gitlab.com/sharespace/client/feed"
	"gitlab.com/sharespace/client/users"
)

// impl implements feed.Store.
type impl struct {
	db  *gorm.DB
	mux sync.Mutex
}

// NewStore migrates both post partitions and the comment table and returns
// the store.
func NewStore(db *gorm.DB) (feed.Store, error) {
	for _, table := range []string{juniorPostTable, seniorPostTable} {
		if err := db.Table(table).AutoMigrate(&Post{}); err != nil {
			return nil, errors.Errorf(
				"failed to migrate %s: %+v", table, err)
		}
	}
	if err := db.AutoMigrate(&Comment{}); err != nil {
		return nil, errors.Errorf("failed to migrate comments: %+v", err)
	}
	return &impl{db: db}, nil
}

func (i *impl) CreatePost(authorRole users.Role, post feed.Post) (
	feed.Post, error) {
	i.mux.Lock()
	defer i.mux.Unlock()

	row, err := toPostRow(post)
	if err != nil {
		return feed.Post{}, err
	}
	row.CreatedAt = time.Now().UTC()

	err = i.db.Table(tableForRole(authorRole)).Create(&row).Error
	if err != nil {
		return feed.Post{}, errors.Errorf("failed to create post: %+v", err)
	}

	jww.DEBUG.Printf("[FEED SQL] Created post %s in %s", row.ID,
		tableForRole(authorRole))
	return fromPostRow(row, authorRole)
}

func (i *impl) GetPost(authorRole users.Role, postID string) (
	feed.Post, error) {
	var row Post
	err := i.db.Table(tableForRole(authorRole)).
		Take(&row, "id = ?", postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return feed.Post{}, feed.ErrPostNotFound
	}
	if err != nil {
		return feed.Post{}, errors.Errorf("failed to get post: %+v", err)
	}
	return fromPostRow(row, authorRole)
}

func (i *impl) ListPosts(authorRole users.Role) ([]feed.Post, error) {
	var rows []Post
	err := i.db.Table(tableForRole(authorRole)).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, errors.Errorf("failed to list posts: %+v", err)
	}
	return fromPostRows(rows, authorRole)
}

func (i *impl) ListPostsBy(authorRole users.Role, authorID string) (
	[]feed.Post, error) {
	var rows []Post
	err := i.db.Table(tableForRole(authorRole)).
		Where("author_id = ?", authorID).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, errors.Errorf("failed to list posts: %+v", err)
	}
	return fromPostRows(rows, authorRole)
}

func (i *impl) UpdatePost(authorRole users.Role, postID, body string,
	labels []string) error {
	i.mux.Lock()
	defer i.mux.Unlock()

	labelsJSON, err := json.Marshal(labels)
	if err != nil {
		return errors.Errorf("failed to marshal labels: %+v", err)
	}

	res := i.db.Table(tableForRole(authorRole)).
		Where("id = ?", postID).
		Updates(map[string]interface{}{"body": body, "labels": labelsJSON})
	if res.Error != nil {
		return errors.Errorf("failed to update post: %+v", res.Error)
	}
	if res.RowsAffected == 0 {
		return feed.ErrPostNotFound
	}
	return nil
}

func (i *impl) SetLikers(authorRole users.Role, postID string,
	likedBy []string) error {
	i.mux.Lock()
	defer i.mux.Unlock()

	likedJSON, err := json.Marshal(likedBy)
	if err != nil {
		return errors.Errorf("failed to marshal like set: %+v", err)
	}

	res := i.db.Table(tableForRole(authorRole)).
		Where("id = ?", postID).
		Update("liked_by", likedJSON)
	if res.Error != nil {
		return errors.Errorf("failed to update like set: %+v", res.Error)
	}
	if res.RowsAffected == 0 {
		return feed.ErrPostNotFound
	}
	return nil
}

func (i *impl) DeletePost(authorRole users.Role, postID string) error {
	i.mux.Lock()
	defer i.mux.Unlock()

	// The post and its thread disappear together.
	return i.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Delete(&Comment{}, "post_id = ?", postID).Error
		if err != nil {
			return errors.Errorf("failed to delete comments: %+v", err)
		}
		res := tx.Table(tableForRole(authorRole)).
			Where("id = ?", postID).Delete(&Post{})
		if res.Error != nil {
			return errors.Errorf("failed to delete post: %+v", res.Error)
		}
		if res.RowsAffected == 0 {
			return feed.ErrPostNotFound
		}
		return nil
	})
}

func (i *impl) DeletePostsBy(authorRole users.Role, authorID string) error {
	i.mux.Lock()
	defer i.mux.Unlock()

	return i.db.Transaction(func(tx *gorm.DB) error {
		var postIDs []string
		err := tx.Table(tableForRole(authorRole)).
			Where("author_id = ?", authorID).
			Pluck("id", &postIDs).Error
		if err != nil {
			return errors.Errorf("failed to list posts: %+v", err)
		}
		if len(postIDs) == 0 {
			return nil
		}

		err = tx.Delete(&Comment{}, "post_id IN ?", postIDs).Error
		if err != nil {
			return errors.Errorf("failed to delete comments: %+v", err)
		}
		err = tx.Table(tableForRole(authorRole)).
			Where("author_id = ?", authorID).Delete(&Post{}).Error
		if err != nil {
			return errors.Errorf("failed to delete posts: %+v", err)
		}

		jww.INFO.Printf("[FEED SQL] Deleted %d posts by %s", len(postIDs),
			authorID)
		return nil
	})
}

func (i *impl) AddComment(authorRole users.Role, comment feed.Comment) error {
	i.mux.Lock()
	defer i.mux.Unlock()

	row := toCommentRow(comment, authorRole)
	row.CreatedAt = time.Now().UTC()

	// The insert rides in a transaction with the parent check so a comment
	// can never attach to a post deleted in between.
	return i.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Table(tableForRole(authorRole)).
			Where("id = ?", row.PostID).Count(&count).Error
		if err != nil {
			return errors.Errorf("failed to check post: %+v", err)
		}
		if count == 0 {
			return feed.ErrPostNotFound
		}
		if err = tx.Create(&row).Error; err != nil {
			return errors.Errorf("failed to insert comment: %+v", err)
		}
		return nil
	})
}

func (i *impl) ListComments(postID string) ([]feed.Comment, error) {
	var rows []Comment
	err := i.db.
		Where("post_id = ?", postID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, errors.Errorf("failed to list comments: %+v", err)
	}

	out := make([]feed.Comment, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromCommentRow(row))
	}
	return out, nil
}

func fromPostRows(rows []Post, authorRole users.Role) ([]feed.Post, error) {
	out := make([]feed.Post, 0, len(rows))
	for _, row := range rows {
		p, err := fromPostRow(row, authorRole)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
