////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package users holds the user identity record and the profile resolver. A
// profile read here is the source for every denormalized snapshot written
// into conversations, messages, posts, and comments; snapshots are never
// refreshed afterwards.
package users

import (
	"time"

	"github.com/pkg/errors"
)

// Role is the closed two-value role enumeration chosen at signup.
type Role string

const (
	Junior Role = "junior"
	Senior Role = "senior"
)

// Complement returns the opposite role. Content routing is partitioned by
// role: what one role writes, the complement reads.
func (r Role) Complement() Role {
	if r == Junior {
		return Senior
	}
	return Junior
}

// Valid returns true for the two defined roles.
func (r Role) Valid() bool {
	return r == Junior || r == Senior
}

// ParseRole converts a string to a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", errors.Errorf("invalid role %q; must be %q or %q",
			s, Junior, Senior)
	}
	return r, nil
}

// Avatars is the fixed bundled avatar catalog. Avatars are identifiers into
// app assets, not uploaded images, so the blob store is never used.
var Avatars = []string{
	"image 1.png", "image 2.png", "image 3.png", "image 4.png",
	"image 5.png", "image 6.png", "image 7.png", "image 8.png",
}

// ValidAvatar returns true if the identifier is in the bundled catalog. The
// empty string is allowed; a user may not have picked one yet.
func ValidAvatar(avatar string) bool {
	if avatar == "" {
		return true
	}
	for _, a := range Avatars {
		if a == avatar {
			return true
		}
	}
	return false
}

// User is the identity record created at signup. ID is the opaque handle
// issued by the identity provider.
type User struct {
	ID        string    `gorm:"primaryKey"`
	FirstName string    `gorm:"not null"`
	LastName  string    `gorm:"not null"`
	Username  string    `gorm:"index"`
	Bio       string    `gorm:""`
	Avatar    string    `gorm:""`
	Role      Role      `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName overrides the table name used by User.
func (User) TableName() string {
	return "users"
}

// DisplayName is the full name shown on posts, comments, and chat headers.
func (u User) DisplayName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
