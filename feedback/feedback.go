////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package feedback routes user feedback to the team through the platform's
// mail composer. No network call is made here; the composer boundary hands
// the prefilled draft to whatever mail facility the host platform provides.
package feedback

import (
	"strings"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
)

// Fixed draft fields. The recipient and subjects are constants of the app,
// not user input.
const (
	recipientAddress = "feedback@sharespace.app"
	feedbackSubject  = "ShareSpace Feedback"
	bugReportSubject = "ShareSpace Bug Report"
)

// ErrEmptyFeedback is returned when the feedback text is empty after
// trimming.
var ErrEmptyFeedback = errors.New("feedback text must not be empty")

// Draft is a prefilled outbound mail handed to the platform composer.
type Draft struct {
	To      string
	Subject string
	Body    string
}

// Composer is the platform mail-compose boundary.
type Composer interface {
	// Compose opens the platform mail UI prefilled with the draft. It
	// returns once the draft is handed off, not when the mail is sent.
	Compose(draft Draft) error
}

// Service builds feedback drafts and hands them to the composer.
type Service struct {
	composer Composer
}

// NewService returns a Service on the given composer.
func NewService(composer Composer) *Service {
	return &Service{composer: composer}
}

// SendFeedback drafts a general feedback mail with the fixed recipient and
// subject.
func (s *Service) SendFeedback(text string) error {
	return s.send(feedbackSubject, text)
}

// ReportBug drafts a bug-report mail. Same recipient, bug subject.
func (s *Service) ReportBug(text string) error {
	return s.send(bugReportSubject, text)
}

func (s *Service) send(subject, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyFeedback
	}

	err := s.composer.Compose(Draft{
		To:      recipientAddress,
		Subject: subject,
		Body:    text,
	})
	if err != nil {
		return errors.WithMessage(err, "failed to open mail composer")
	}
	jww.INFO.Printf("[FEEDBACK] Handed %q draft to the mail composer", subject)
	return nil
}
