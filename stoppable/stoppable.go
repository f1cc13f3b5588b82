////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package stoppable provides the cancellation handle returned by every live
// subscription in the client. Subscriptions have no timeout semantics; they
// live until the consuming screen closes them.
package stoppable

// Stoppable is the handle for cancelling a long-lived listener.
type Stoppable interface {
	// Name returns the name given to the listener at registration,
	// used for logging.
	Name() string

	// IsRunning returns true until Close has been called.
	IsRunning() bool

	// Close cancels the listener. It is synchronous: once it returns, no
	// further deliveries are made. Closing an already closed Stoppable is
	// a no-op returning an error.
	Close() error
}

// Status of a Stoppable.
type Status uint32

const (
	Running Status = iota
	Stopped
)

// String returns a printable representation of the Status.
func (s Status) String() string {
	switch s {
	case Running:
		return "Running"
	case Stopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}
