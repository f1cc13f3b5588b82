////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package session owns the process-wide authenticated session: the current
// identity handle, its profile record, and a change feed for screens that
// render the signed-in user. Screens receive the Session by injection; there
// is no ambient global lookup.
package session

import (
	"sync"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"

	"gitlab.com/sharespace/client/auth"
	"gitlab.com/sharespace/client/users"
)

// Callback receives session changes: the current profile and whether a user
// is signed in. The profile may be zero-valued when the identity exists but
// its profile record has not been written yet.
type Callback func(profile users.User, signedIn bool)

// Session tracks the authenticated user across the client. It subscribes to
// the identity provider's auth-state feed and hydrates the profile from the
// user registry on every transition.
type Session struct {
	provider auth.Provider
	registry *users.Registry

	mux       sync.Mutex
	userID    string
	profile   users.User
	callbacks map[uint64]Callback
	nextCbID  uint64

	removeAuthCb func()
}

// NewSession builds the session and attaches it to the provider's auth-state
// feed. The initial state is delivered synchronously during construction.
func NewSession(provider auth.Provider, registry *users.Registry) *Session {
	s := &Session{
		provider:  provider,
		registry:  registry,
		callbacks: make(map[uint64]Callback),
	}
	s.removeAuthCb = provider.RegisterStateCallback(s.onAuthChange)
	return s
}

// Current returns the signed-in profile. ok is false when nobody is signed
// in.
func (s *Session) Current() (profile users.User, ok bool) {
	s.mux.Lock()
	defer s.mux.Unlock()
	return s.profile, s.userID != ""
}

// UserID returns the opaque identity handle, or false.
func (s *Session) UserID() (string, bool) {
	s.mux.Lock()
	defer s.mux.Unlock()
	return s.userID, s.userID != ""
}

// Refresh reloads the profile record for the signed-in user and notifies the
// change feed. Called after a profile edit so downstream screens pick up the
// new fields; snapshots denormalized before the edit are left stale.
func (s *Session) Refresh() error {
	s.mux.Lock()
	id := s.userID
	s.mux.Unlock()
	if id == "" {
		return auth.ErrNotSignedIn
	}

	profile, err := s.registry.Get(id)
	if err != nil && !errors.Is(err, users.ErrNotFound) {
		return err
	}

	s.mux.Lock()
	s.profile = profile
	s.mux.Unlock()
	s.notify()
	return nil
}

// RegisterCallback adds cb to the session change feed and immediately
// delivers the current state. The returned function removes it.
func (s *Session) RegisterCallback(cb Callback) func() {
	s.mux.Lock()
	cbID := s.nextCbID
	s.nextCbID++
	s.callbacks[cbID] = cb
	profile, signedIn := s.profile, s.userID != ""
	s.mux.Unlock()

	cb(profile, signedIn)

	return func() {
		s.mux.Lock()
		defer s.mux.Unlock()
		delete(s.callbacks, cbID)
	}
}

// Close detaches the session from the auth-state feed.
func (s *Session) Close() {
	if s.removeAuthCb != nil {
		s.removeAuthCb()
	}
}

// onAuthChange is the identity provider's state callback.
func (s *Session) onAuthChange(userID string, signedIn bool) {
	var profile users.User
	if signedIn {
		var err error
		profile, err = s.registry.Get(userID)
		if err != nil && !errors.Is(err, users.ErrNotFound) {
			jww.ERROR.Printf(
				"[SESSION] Failed to load profile for %s: %+v", userID, err)
		}
	}

	s.mux.Lock()
	s.userID = userID
	s.profile = profile
	s.mux.Unlock()

	jww.DEBUG.Printf("[SESSION] Auth state changed: signedIn=%t", signedIn)
	s.notify()
}

func (s *Session) notify() {
	s.mux.Lock()
	profile, signedIn := s.profile, s.userID != ""
	cbs := make([]Callback, 0, len(s.callbacks))
	for _, cb := range s.callbacks {
		cbs = append(cbs, cb)
	}
	s.mux.Unlock()

	for _, cb := range cbs {
		cb(profile, signedIn)
	}
}
