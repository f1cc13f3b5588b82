////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package users

import (
	"strings"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"gorm.io/gorm"
)

// ErrNotFound is returned when no user record exists for an identifier.
var ErrNotFound = errors.New("user not found")

// ProfileEdit carries the owner-editable profile fields. Role and ID are
// fixed at signup and cannot be edited.
type ProfileEdit struct {
	FirstName string
	LastName  string
	Username  string
	Bio       string
	Avatar    string
}

// Registry resolves and mutates user records in the hosted user collection.
type Registry struct {
	db *gorm.DB
}

// NewRegistry migrates the user table and returns a Registry.
func NewRegistry(db *gorm.DB) (*Registry, error) {
	if err := db.AutoMigrate(&User{}); err != nil {
		return nil, errors.Errorf("failed to migrate users: %+v", err)
	}
	return &Registry{db: db}, nil
}

// Create stores the identity record written at signup.
func (r *Registry) Create(u User) error {
	if u.ID == "" {
		return errors.New("user id is required")
	}
	if !u.Role.Valid() {
		return errors.Errorf("invalid role %q", u.Role)
	}
	if !ValidAvatar(u.Avatar) {
		return errors.Errorf("avatar %q is not in the bundled catalog",
			u.Avatar)
	}

	jww.DEBUG.Printf("[USERS] Creating user %s (%s)", u.ID, u.Role)
	if err := r.db.Create(&u).Error; err != nil {
		return errors.Errorf("failed to create user: %+v", err)
	}
	return nil
}

// Get returns the user record for the given identifier or ErrNotFound. This
// is the pure profile read used to hydrate denormalized snapshots.
func (r *Registry) Get(id string) (User, error) {
	var u User
	err := r.db.Take(&u, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, errors.Errorf("failed to get user: %+v", err)
	}
	return u, nil
}

// ListByRole returns all users with the given role, excluding excludeID.
// Used by the start-chat screen to list contactable users of the opposite
// role.
func (r *Registry) ListByRole(role Role, excludeID string) ([]User, error) {
	var out []User
	err := r.db.
		Where("role = ? AND id <> ?", role, excludeID).
		Order("first_name ASC, last_name ASC").
		Find(&out).Error
	if err != nil {
		return nil, errors.Errorf("failed to list users: %+v", err)
	}
	return out, nil
}

// UpdateProfile applies the owner's profile edit. Snapshots already
// denormalized elsewhere keep the old values.
func (r *Registry) UpdateProfile(id string, edit ProfileEdit) error {
	if strings.TrimSpace(edit.FirstName) == "" {
		return errors.New("first name is required")
	}
	if !ValidAvatar(edit.Avatar) {
		return errors.Errorf("avatar %q is not in the bundled catalog",
			edit.Avatar)
	}

	res := r.db.Model(&User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"first_name": edit.FirstName,
		"last_name":  edit.LastName,
		"username":   edit.Username,
		"bio":        edit.Bio,
		"avatar":     edit.Avatar,
	})
	if res.Error != nil {
		return errors.Errorf("failed to update profile: %+v", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the identity record. Content cascade (the user's own posts)
// is handled by the account-deletion flow; content merely referencing the
// user keeps its stale snapshots.
func (r *Registry) Delete(id string) error {
	res := r.db.Delete(&User{}, "id = ?", id)
	if res.Error != nil {
		return errors.Errorf("failed to delete user: %+v", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	jww.INFO.Printf("[USERS] Deleted user %s", id)
	return nil
}
