package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/draftgate/draftgate/internal/assistant"
	"github.com/draftgate/draftgate/internal/calendar"
	"github.com/draftgate/draftgate/internal/contacts"
	"github.com/draftgate/draftgate/internal/draft"
	"github.com/draftgate/draftgate/internal/gmail"
	"github.com/draftgate/draftgate/internal/instrumentation"
)

// observe wraps one Google API call with the operation counter and
// duration histogram.
func observe(ctx context.Context, m *instrumentation.Metrics, service, operation string, call func() error) error {
	started := time.Now()
	err := call()
	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
	}
	m.RecordGoogleAPIOperation(ctx, service, operation, status, time.Since(started))
	return err
}

// gmailRetriever adapts Gmail search to the assistant's Retriever port.
type gmailRetriever struct {
	client     *gmail.Client
	maxResults int64
	metrics    *instrumentation.Metrics
}

func (r *gmailRetriever) Retrieve(ctx context.Context, query string, topK int) ([]assistant.Snippet, error) {
	max := r.maxResults
	if int64(topK) < max {
		max = int64(topK)
	}
	var messages []gmail.Message
	err := observe(ctx, r.metrics, "gmail", "search", func() error {
		var err error
		messages, err = r.client.Search(ctx, query, max)
		return err
	})
	if err != nil {
		return nil, err
	}

	snippets := make([]assistant.Snippet, 0, len(messages))
	for i, m := range messages {
		// Gmail returns newest first; score decays with position.
		snippets = append(snippets, assistant.Snippet{
			Text:  formatSnippet(m),
			Score: 1.0 / float64(i+1),
		})
	}
	return snippets, nil
}

func formatSnippet(m gmail.Message) string {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\n", m.From)
	fmt.Fprintf(&b, "Subject: %s\n", m.Subject)
	if m.Date != "" {
		fmt.Fprintf(&b, "Date: %s\n", m.Date)
	}
	b.WriteString(m.Snippet)
	return b.String()
}

// gmailMailbox resolves the message a reply should continue.
type gmailMailbox struct {
	client  *gmail.Client
	metrics *instrumentation.Metrics
}

func (m *gmailMailbox) LatestMessage(ctx context.Context, query string) (assistant.ReplyContext, error) {
	var messages []gmail.Message
	err := observe(ctx, m.metrics, "gmail", "search", func() error {
		var err error
		messages, err = m.client.Search(ctx, query, 1)
		return err
	})
	if err != nil {
		return assistant.ReplyContext{}, err
	}
	if len(messages) == 0 {
		return assistant.ReplyContext{}, fmt.Errorf("no message matches %q", query)
	}

	msg := messages[0]
	var body string
	err = observe(ctx, m.metrics, "gmail", "get_message", func() error {
		var err error
		body, err = m.client.MessageBody(ctx, msg.ID)
		return err
	})
	if err != nil {
		// A message with no readable part still threads; quote the
		// snippet instead.
		body = msg.Snippet
	}

	return assistant.ReplyContext{
		MessageID: msg.ID,
		From:      msg.From,
		Subject:   msg.Subject,
		Body:      body,
	}, nil
}

// contactsDirectory adapts the People API to the Directory port.
type contactsDirectory struct {
	client  *contacts.Client
	metrics *instrumentation.Metrics
}

func (d *contactsDirectory) SearchContact(ctx context.Context, query string) ([]assistant.Contact, error) {
	var found []contacts.Contact
	err := observe(ctx, d.metrics, "people", "search_contacts", func() error {
		var err error
		found, err = d.client.Search(ctx, query, 10)
		return err
	})
	if err != nil {
		return nil, err
	}

	out := make([]assistant.Contact, 0, len(found))
	for _, c := range found {
		if c.EmailAddress == "" {
			continue
		}
		out = append(out, assistant.Contact{
			Name:  c.DisplayName,
			Email: c.EmailAddress,
		})
	}
	return out, nil
}

// calendarScheduler adapts the Calendar API to the Scheduler port.
type calendarScheduler struct {
	client   *calendar.Client
	timeZone string
	metrics  *instrumentation.Metrics
}

func (s *calendarScheduler) Schedule(ctx context.Context, req assistant.EventRequest) (assistant.Event, error) {
	var created *calendar.EventSummary
	err := observe(ctx, s.metrics, "calendar", "create_event", func() error {
		var err error
		created, err = s.client.CreateEvent(ctx, "primary", calendar.EventInput{
			Summary:   req.Summary,
			Location:  req.Location,
			Start:     req.Start,
			End:       req.End,
			TimeZone:  s.timeZone,
			Attendees: req.Attendees,
		})
		return err
	})
	if err != nil {
		return assistant.Event{}, err
	}

	return assistant.Event{
		ID:        created.ID,
		Summary:   created.Summary,
		Start:     created.Start,
		End:       created.End,
		Attendees: req.Attendees,
		Link:      created.HTMLLink,
	}, nil
}

func (s *calendarScheduler) Upcoming(ctx context.Context, from, to time.Time) ([]assistant.Event, error) {
	var listed []calendar.EventSummary
	err := observe(ctx, s.metrics, "calendar", "list_events", func() error {
		var err error
		listed, err = s.client.ListEvents(ctx, "primary", from, to)
		return err
	})
	if err != nil {
		return nil, err
	}

	events := make([]assistant.Event, 0, len(listed))
	for _, ev := range listed {
		events = append(events, assistant.Event{
			ID:        ev.ID,
			Summary:   ev.Summary,
			Start:     ev.Start,
			End:       ev.End,
			Attendees: ev.Attendees,
			Link:      ev.HTMLLink,
		})
	}
	return events, nil
}

// gmailSender adapts Gmail send to the Sender port. It only ever sees
// artifacts that passed the validation gate.
type gmailSender struct {
	client  *gmail.Client
	metrics *instrumentation.Metrics
}

func (s *gmailSender) Send(ctx context.Context, a draft.Artifact) (string, error) {
	operation := "send"
	if a.InReplyTo != "" {
		operation = "reply"
	}

	var id string
	err := observe(ctx, s.metrics, "gmail", operation, func() error {
		var err error
		if a.InReplyTo != "" {
			id, err = s.client.Reply(ctx, a.InReplyTo, a.Body)
			return err
		}
		id, err = s.client.Send(ctx, &gmail.OutboundMessage{
			To:      a.To,
			Cc:      a.Cc,
			Subject: a.Subject,
			Body:    a.Body,
		})
		return err
	})
	return id, err
}
