////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package auth

import (
	"testing"

	"github.com/pkg/errors"

	"gitlab.com/sharespace/client/backend"
)

func newTestProvider(t *testing.T) Provider {
	t.Helper()
	db, err := backend.Open("")
	if err != nil {
		t.Fatalf("failed to open backend: %+v", err)
	}
	p, err := NewLocalProvider(db)
	if err != nil {
		t.Fatalf("failed to build provider: %+v", err)
	}
	return p
}

// Tests that validation rejects malformed emails and short passwords before
// any account is written.
func TestValidateCredentials(t *testing.T) {
	cases := []struct {
		email, password string
		expected        error
	}{
		{"amara@university.edu", "hunter22", nil},
		{"not-an-email", "hunter22", ErrInvalidEmail},
		{"", "hunter22", ErrInvalidEmail},
		{"amara@university.edu", "short", ErrWeakPassword},
	}
	for _, c := range cases {
		err := ValidateCredentials(c.email, c.password)
		if !errors.Is(err, c.expected) && !(c.expected == nil && err == nil) {
			t.Errorf("ValidateCredentials(%q, %q) returned %v, expected %v",
				c.email, c.password, err, c.expected)
		}
	}
}

// Tests the signup → signout → signin round trip and the duplicate-email
// rejection.
func TestLocalProvider_SignUpSignIn(t *testing.T) {
	p := newTestProvider(t)

	id, err := p.SignUp("Amara@University.edu", "hunter22")
	if err != nil {
		t.Fatalf("SignUp returned an error: %+v", err)
	}
	if cur, ok := p.CurrentUser(); !ok || cur != id {
		t.Errorf("CurrentUser after signup returned (%q, %t)", cur, ok)
	}

	if _, err = p.SignUp("amara@university.edu", "hunter23"); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("duplicate SignUp returned %v, expected ErrEmailTaken", err)
	}

	p.SignOut()
	if _, ok := p.CurrentUser(); ok {
		t.Error("CurrentUser still set after SignOut")
	}

	// Email lookup is case-insensitive.
	got, err := p.SignIn("amara@university.edu", "hunter22")
	if err != nil {
		t.Fatalf("SignIn returned an error: %+v", err)
	}
	if got != id {
		t.Errorf("SignIn returned handle %q, expected %q", got, id)
	}

	if _, err = p.SignIn("amara@university.edu", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("bad password SignIn returned %v", err)
	}
	if _, err = p.SignIn("nobody@university.edu", "hunter22"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email SignIn returned %v", err)
	}
}

// Tests that deleting the account signs the user out and invalidates the
// credentials.
func TestLocalProvider_DeleteAccount(t *testing.T) {
	p := newTestProvider(t)

	if err := p.DeleteAccount(); !errors.Is(err, ErrNotSignedIn) {
		t.Errorf("DeleteAccount while signed out returned %v", err)
	}

	_, err := p.SignUp("amara@university.edu", "hunter22")
	if err != nil {
		t.Fatalf("SignUp returned an error: %+v", err)
	}
	if err = p.DeleteAccount(); err != nil {
		t.Fatalf("DeleteAccount returned an error: %+v", err)
	}
	if _, ok := p.CurrentUser(); ok {
		t.Error("CurrentUser still set after DeleteAccount")
	}
	if _, err = p.SignIn("amara@university.edu", "hunter22"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("SignIn after DeleteAccount returned %v", err)
	}
}

// Tests the auth-state change feed: immediate delivery on attach, delivery on
// transitions, and removal.
func TestLocalProvider_StateCallback(t *testing.T) {
	p := newTestProvider(t)

	type state struct {
		id       string
		signedIn bool
	}
	var seen []state
	remove := p.RegisterStateCallback(func(id string, signedIn bool) {
		seen = append(seen, state{id, signedIn})
	})

	if len(seen) != 1 || seen[0].signedIn {
		t.Fatalf("expected one immediate signed-out delivery, got %+v", seen)
	}

	id, err := p.SignUp("amara@university.edu", "hunter22")
	if err != nil {
		t.Fatalf("SignUp returned an error: %+v", err)
	}
	p.SignOut()
	p.SignOut() // no transition, no delivery

	if len(seen) != 3 {
		t.Fatalf("expected 3 deliveries, got %d: %+v", len(seen), seen)
	}
	if seen[1].id != id || !seen[1].signedIn {
		t.Errorf("unexpected sign-in delivery: %+v", seen[1])
	}
	if seen[2].signedIn {
		t.Errorf("unexpected sign-out delivery: %+v", seen[2])
	}

	remove()
	if _, err = p.SignIn("amara@university.edu", "hunter22"); err != nil {
		t.Fatalf("SignIn returned an error: %+v", err)
	}
	if len(seen) != 3 {
		t.Errorf("removed callback still received deliveries: %+v", seen)
	}
}
