// Package draft defines the artifact produced by a drafting collaborator
// and its structural well-formedness rules. An artifact is owned by the
// validation gate from the moment it is drafted until it is either approved
// for sending or rejected.
package draft

import (
	"fmt"
	"net/mail"
	"time"
)

// Artifact is a candidate email, optionally carrying calendar details when
// the request involves scheduling.
type Artifact struct {
	Subject string
	Body    string
	To      []string
	Cc      []string

	// InReplyTo holds the provider message ID the draft answers. The
	// sender threads the reply into that conversation.
	InReplyTo string

	// Event is set when the draft accompanies a calendar action.
	Event *EventDetails
}

// EventDetails carries the calendar fields of an artifact.
type EventDetails struct {
	Summary   string
	Location  string
	Start     time.Time
	End       time.Time
	Attendees []string

	// AttendeeNotes is free text shown to attendees; it is scanned by the
	// validation gate like the subject and body.
	AttendeeNotes string
}

// Wellformed checks that the required fields of the artifact are present
// and that recipient addresses parse. Drafters are external collaborators
// and may return malformed output; this runs before the validation gate.
func (a Artifact) Wellformed() error {
	if a.Subject == "" {
		return fmt.Errorf("draft: missing subject")
	}
	if a.Body == "" {
		return fmt.Errorf("draft: missing body")
	}
	if len(a.To) == 0 {
		return fmt.Errorf("draft: no recipients")
	}
	for _, addr := range a.To {
		if _, err := mail.ParseAddress(addr); err != nil {
			return fmt.Errorf("draft: invalid recipient %q: %w", addr, err)
		}
	}
	for _, addr := range a.Cc {
		if _, err := mail.ParseAddress(addr); err != nil {
			return fmt.Errorf("draft: invalid cc recipient %q: %w", addr, err)
		}
	}
	if a.Event != nil {
		if a.Event.Summary == "" {
			return fmt.Errorf("draft: event without summary")
		}
		if a.Event.Start.IsZero() || a.Event.End.IsZero() {
			return fmt.Errorf("draft: event without start or end time")
		}
		if !a.Event.End.After(a.Event.Start) {
			return fmt.Errorf("draft: event ends before it starts")
		}
	}
	return nil
}
