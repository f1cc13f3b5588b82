////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package auth defines the identity-provider boundary. Credential storage and
// verification are delegated here; the rest of the client only ever sees the
// opaque user handle and the auth-state change feed.
package auth

import (
	"strings"

	"github.com/badoux/checkmail"
	"github.com/pkg/errors"
)

// Validation errors, surfaced inline next to the offending field before any
// backend call is made.
var (
	ErrInvalidEmail = errors.New("invalid email address")
	ErrWeakPassword = errors.New("password must be at least 6 characters")
)

// Provider failures.
var (
	ErrEmailTaken         = errors.New("an account with this email already exists")
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrNotSignedIn        = errors.New("no user is signed in")
)

// minPasswordLen matches the signup form constraint.
const minPasswordLen = 6

// StateCallback receives auth-state changes. userID is the current opaque
// handle; signedIn is false (with an empty userID) on sign-out.
type StateCallback func(userID string, signedIn bool)

// Provider is the hosted identity service boundary.
type Provider interface {
	// SignUp registers a credential pair and signs the new user in.
	// Returns the provider-issued opaque handle.
	SignUp(email, password string) (string, error)

	// SignIn verifies a credential pair and makes the user current.
	SignIn(email, password string) (string, error)

	// SignOut clears the current user. A no-op when nobody is signed in.
	SignOut()

	// CurrentUser returns the signed-in handle, or false.
	CurrentUser() (string, bool)

	// DeleteAccount removes the credential record for the signed-in user
	// and signs them out.
	DeleteAccount() error

	// RegisterStateCallback adds cb to the continuous auth-state change
	// feed and immediately delivers the current state. The returned
	// function removes the callback.
	RegisterStateCallback(cb StateCallback) func()
}

// ValidateCredentials runs the client-side checks performed before any
// network call: email format and minimum password length.
func ValidateCredentials(email, password string) error {
	if err := checkmail.ValidateFormat(strings.TrimSpace(email)); err != nil {
		return ErrInvalidEmail
	}
	if len(password) < minPasswordLen {
		return ErrWeakPassword
	}
	return nil
}
