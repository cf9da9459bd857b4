package assistant

import (
	"context"
	"errors"
	"time"

	"github.com/draftgate/draftgate/internal/draft"
	"github.com/draftgate/draftgate/internal/plan"
)

// ErrPlanUnparsable reports that the planner produced output that could
// not be turned into an action plan.
var ErrPlanUnparsable = errors.New("planner output is unparsable")

// Snippet is a piece of retrieved mailbox context. Text has been through
// the PII scanner before it reaches the planner or drafter.
type Snippet struct {
	Text  string
	Score float64
}

// Planner turns a sanitized request plus context into an action plan.
type Planner interface {
	Plan(ctx context.Context, request string, snippets []Snippet) (plan.Plan, error)
}

// Retriever searches the mailbox for context relevant to a request.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]Snippet, error)
}

// DraftRequest is the input to the Drafter.
type DraftRequest struct {
	// Request is the sanitized user request.
	Request    string
	Snippets   []Snippet
	Recipients []string
	// Event is set when the draft announces a scheduled event.
	Event *draft.EventDetails
	// ReplyTo is set when the draft continues an existing conversation.
	ReplyTo *ReplyContext
}

// ReplyContext is the most recent message of the conversation a reply
// continues. Body has been through the PII scanner, like every snippet.
type ReplyContext struct {
	MessageID string
	From      string
	Subject   string
	Body      string
}

// Mailbox resolves the message a reply should continue. It is optional:
// without one, reply requests are drafted as fresh messages.
type Mailbox interface {
	LatestMessage(ctx context.Context, query string) (ReplyContext, error)
}

// Drafter composes an email artifact from a request and its context.
type Drafter interface {
	Draft(ctx context.Context, req DraftRequest) (draft.Artifact, error)
}

// Contact is a resolved recipient.
type Contact struct {
	Name  string
	Email string
}

// Directory resolves free-form names to contacts.
type Directory interface {
	SearchContact(ctx context.Context, query string) ([]Contact, error)
}

// EventRequest is the input to the Scheduler.
type EventRequest struct {
	Summary   string
	Location  string
	Start     time.Time
	End       time.Time
	Attendees []string
}

// Event is a created calendar event.
type Event struct {
	ID        string
	Summary   string
	Start     time.Time
	End       time.Time
	Attendees []string
	Link      string
}

// Scheduler creates calendar events and lists what is already on the
// calendar.
type Scheduler interface {
	Schedule(ctx context.Context, req EventRequest) (Event, error)
	Upcoming(ctx context.Context, from, to time.Time) ([]Event, error)
}

// Sender delivers an approved artifact. Implementations receive only
// drafts that already passed the validation gate.
type Sender interface {
	Send(ctx context.Context, a draft.Artifact) (string, error)
}
