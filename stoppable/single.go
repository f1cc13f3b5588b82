////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package stoppable

import (
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
)

// Error message.
const alreadyStoppedErr = "single stoppable %q already stopped"

// Single cancels a single registered listener. It adheres to the Stoppable
// interface.
type Single struct {
	name    string
	quit    chan struct{}
	status  Status
	once    sync.Once
	onClose func()
}

// NewSingle returns a new single Stoppable. onClose, if not nil, is invoked
// exactly once from within Close before Close returns; subscriptions use it
// to deregister their listener synchronously.
func NewSingle(name string, onClose func()) *Single {
	return &Single{
		name:    name,
		quit:    make(chan struct{}),
		status:  Running,
		onClose: onClose,
	}
}

// Name returns the name of the Single Stoppable.
func (s *Single) Name() string {
	return s.name
}

// GetStatus returns the status of the Stoppable.
func (s *Single) GetStatus() Status {
	return Status(atomic.LoadUint32((*uint32)(&s.status)))
}

// IsRunning returns true if the Stoppable is marked as running.
func (s *Single) IsRunning() bool {
	return s.GetStatus() == Running
}

// Quit returns a receive-only channel that is closed when the Stoppable
// stops. Callers that block on a subscription (e.g. a watch loop) select on
// this channel.
func (s *Single) Quit() <-chan struct{} {
	return s.quit
}

// Close cancels the listener. The deregistration hook runs before the status
// flips so that no delivery can race past a returned Close. Returns an error
// if already stopped.
func (s *Single) Close() error {
	err := errors.Errorf(alreadyStoppedErr, s.name)
	s.once.Do(func() {
		err = nil

		if s.onClose != nil {
			s.onClose()
		}

		atomic.StoreUint32((*uint32)(&s.status), uint32(Stopped))
		close(s.quit)

		jww.TRACE.Printf(
			"Switched status of single stoppable %q from %s to %s.",
			s.name, Running, Stopped)
	})

	if err != nil {
		jww.WARN.Print(err.Error())
	}
	return err
}
