////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package session

import (
	"github.com/pkg/errors"
	"gitlab.com/elixxir/ekv"
)

// hasSeenOnboardingKey is the single locally persisted flag: read once at
// launch, written once when the onboarding carousel completes.
const hasSeenOnboardingKey = "hasSeenOnboarding"

// Onboarding wraps the local key-value store holding the first-launch flag.
type Onboarding struct {
	kv ekv.KeyValue
}

// NewOnboarding returns the onboarding flag store on top of the given local
// KV.
func NewOnboarding(kv ekv.KeyValue) *Onboarding {
	return &Onboarding{kv: kv}
}

// HasSeen reports whether onboarding has already been shown on this device.
// A missing key reads as false.
func (o *Onboarding) HasSeen() bool {
	data, err := o.kv.GetBytes(hasSeenOnboardingKey)
	if err != nil {
		return false
	}
	return string(data) == "true"
}

// MarkSeen records that onboarding completed.
func (o *Onboarding) MarkSeen() error {
	err := o.kv.SetBytes(hasSeenOnboardingKey, []byte("true"))
	if err != nil {
		return errors.Errorf("failed to persist onboarding flag: %+v", err)
	}
	return nil
}
