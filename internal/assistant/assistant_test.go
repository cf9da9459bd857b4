package assistant

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftgate/draftgate/internal/draft"
	"github.com/draftgate/draftgate/internal/executor"
	"github.com/draftgate/draftgate/internal/gate"
	"github.com/draftgate/draftgate/internal/logging"
	"github.com/draftgate/draftgate/internal/plan"
)

type fakePlanner struct {
	plan    plan.Plan
	err     error
	gotReq  string
	invoked bool
}

func (f *fakePlanner) Plan(_ context.Context, request string, _ []Snippet) (plan.Plan, error) {
	f.invoked = true
	f.gotReq = request
	return f.plan, f.err
}

type fakeRetriever struct {
	snippets []Snippet
	err      error
}

func (f *fakeRetriever) Retrieve(context.Context, string, int) ([]Snippet, error) {
	return f.snippets, f.err
}

type fakeDrafter struct {
	artifact draft.Artifact
	err      error
	gotReq   DraftRequest
}

func (f *fakeDrafter) Draft(_ context.Context, req DraftRequest) (draft.Artifact, error) {
	f.gotReq = req
	if f.err != nil {
		return draft.Artifact{}, f.err
	}
	a := f.artifact
	if len(a.To) == 0 {
		a.To = req.Recipients
	}
	return a, nil
}

type fakeDirectory struct {
	contacts []Contact
	err      error
}

func (f *fakeDirectory) SearchContact(context.Context, string) ([]Contact, error) {
	return f.contacts, f.err
}

type fakeScheduler struct {
	event    Event
	upcoming []Event
	err      error
	gotReq   EventRequest
	gotFrom  time.Time
	gotTo    time.Time
}

func (f *fakeScheduler) Schedule(_ context.Context, req EventRequest) (Event, error) {
	f.gotReq = req
	if f.err != nil {
		return Event{}, f.err
	}
	ev := f.event
	if ev.Summary == "" {
		ev.Summary = req.Summary
	}
	ev.Start, ev.End = req.Start, req.End
	ev.Attendees = req.Attendees
	return ev, nil
}

func (f *fakeScheduler) Upcoming(_ context.Context, from, to time.Time) ([]Event, error) {
	f.gotFrom, f.gotTo = from, to
	return f.upcoming, f.err
}

type fakeMailbox struct {
	message  ReplyContext
	err      error
	gotQuery string
}

func (f *fakeMailbox) LatestMessage(_ context.Context, query string) (ReplyContext, error) {
	f.gotQuery = query
	return f.message, f.err
}

type fakeSender struct {
	calls atomic.Int32
	err   error
	last  draft.Artifact
}

func (f *fakeSender) Send(_ context.Context, a draft.Artifact) (string, error) {
	f.calls.Add(1)
	f.last = a
	if f.err != nil {
		return "", f.err
	}
	return "msg-1", nil
}

var testClock = func() time.Time {
	return time.Date(2026, time.March, 10, 11, 0, 0, 0, time.UTC)
}

func testOptions(t *testing.T) (Options, *fakeDrafter, *fakeSender) {
	t.Helper()

	drafter := &fakeDrafter{
		artifact: draft.Artifact{Subject: "Update", Body: "All on track."},
	}
	sender := &fakeSender{}
	return Options{
		Retriever: &fakeRetriever{},
		Drafter:   drafter,
		Directory: &fakeDirectory{contacts: []Contact{{Name: "Sarah Chen", Email: "sarah@example.com"}}},
		Scheduler: &fakeScheduler{event: Event{ID: "evt-1"}},
		Sender:    sender,
		Executor:  executor.Options{BaseDelay: time.Millisecond},
		Clock:     testClock,
	}, drafter, sender
}

func TestProcessRequestRedactsPhoneNumber(t *testing.T) {
	opts, drafter, sender := testOptions(t)
	drafter.artifact.Body = "Call me at 555-123-4567 to discuss."

	a, err := New(opts)
	require.NoError(t, err)

	result, err := a.ProcessRequest(t.Context(), "email bob@example.com about the launch", false)
	require.NoError(t, err)

	require.NotNil(t, result.Verdict)
	assert.Equal(t, gate.DecisionRedactAndApprove, result.Verdict.Decision)
	assert.Contains(t, result.Draft.Body, "[PHONE_REDACTED]")
	assert.NotContains(t, result.Draft.Body, "555-123-4567")
	assert.False(t, result.Sent)
	assert.Equal(t, int32(0), sender.calls.Load())
}

func TestProcessRequestBlockedDraftIsNeverSent(t *testing.T) {
	opts, drafter, sender := testOptions(t)
	drafter.artifact.Body = "Our API key is sk-1234567890abcdefghijklmn."

	policy, err := gate.PolicyFromNames([]string{"PHONE"}, []string{"API_KEY"})
	require.NoError(t, err)
	opts.Policy = policy

	a, err := New(opts)
	require.NoError(t, err)

	result, err := a.ProcessRequest(t.Context(), "email bob@example.com the credentials", true)
	require.NoError(t, err)

	require.NotNil(t, result.Verdict)
	assert.Equal(t, gate.DecisionBlock, result.Verdict.Decision)
	assert.False(t, result.Sent)
	assert.Equal(t, int32(0), sender.calls.Load())
}

func TestProcessRequestAutoSendsApprovedDraft(t *testing.T) {
	opts, _, sender := testOptions(t)

	a, err := New(opts)
	require.NoError(t, err)

	result, err := a.ProcessRequest(t.Context(), "email bob@example.com about the launch", true)
	require.NoError(t, err)

	assert.True(t, result.Sent)
	assert.Equal(t, "msg-1", result.SentID)
	assert.Equal(t, int32(1), sender.calls.Load())
	assert.Equal(t, []string{"bob@example.com"}, sender.last.To)
}

func TestProcessRequestSanitizesRequestBeforePlanning(t *testing.T) {
	opts, _, _ := testOptions(t)
	planner := &fakePlanner{
		plan: plan.Plan{Actions: []plan.Action{{
			Kind:   plan.KindDraftEmail,
			Params: map[string]string{"to": "bob@example.com", "request": "follow up"},
		}}},
	}
	opts.Planner = planner

	a, err := New(opts)
	require.NoError(t, err)

	_, err = a.ProcessRequest(t.Context(), "tell bob my SSN is 123-45-6789", false)
	require.NoError(t, err)

	assert.Contains(t, planner.gotReq, "[SSN_REDACTED]")
	assert.NotContains(t, planner.gotReq, "123-45-6789")
}

func TestProcessRequestInvalidPlanAborts(t *testing.T) {
	opts, drafter, _ := testOptions(t)
	opts.Planner = &fakePlanner{
		plan: plan.Plan{Actions: []plan.Action{{
			Kind:      plan.KindDraftEmail,
			DependsOn: plan.DependsOnIndex(3),
		}}},
	}

	a, err := New(opts)
	require.NoError(t, err)

	_, err = a.ProcessRequest(t.Context(), "whatever", false)
	require.Error(t, err)

	var invalid *plan.InvalidError
	assert.ErrorAs(t, err, &invalid)
	assert.Empty(t, drafter.gotReq.Request, "no handler runs for an invalid plan")
}

func TestProcessRequestPlannerErrorSurfaces(t *testing.T) {
	opts, _, _ := testOptions(t)
	opts.Planner = &fakePlanner{err: ErrPlanUnparsable}

	a, err := New(opts)
	require.NoError(t, err)

	_, err = a.ProcessRequest(t.Context(), "whatever", false)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPlanUnparsable)
}

func TestProcessRequestUnscannableRequestAborts(t *testing.T) {
	opts, _, _ := testOptions(t)
	planner := &fakePlanner{}
	opts.Planner = planner

	a, err := New(opts)
	require.NoError(t, err)

	_, err = a.ProcessRequest(t.Context(), "email bob \xff\xfe now", false)
	require.Error(t, err)
	assert.False(t, planner.invoked, "nothing runs when the request cannot be scanned")
}

func TestProcessRequestScheduleFlow(t *testing.T) {
	opts, drafter, _ := testOptions(t)
	scheduler := opts.Scheduler.(*fakeScheduler)

	a, err := New(opts)
	require.NoError(t, err)

	result, err := a.ProcessRequest(t.Context(),
		"schedule a meeting with alice@example.com tomorrow at 3pm for 30 minutes", false)
	require.NoError(t, err)

	assert.Equal(t, executor.OutcomeSucceeded, result.Execution.Outcome)

	// Event window comes from the natural language expression.
	assert.Equal(t, time.Date(2026, time.March, 11, 15, 0, 0, 0, time.UTC), scheduler.gotReq.Start)
	assert.Equal(t, 30*time.Minute, scheduler.gotReq.End.Sub(scheduler.gotReq.Start))
	assert.Equal(t, []string{"alice@example.com"}, scheduler.gotReq.Attendees)

	// The drafter is told about the created event.
	require.NotNil(t, drafter.gotReq.Event)
	assert.Equal(t, scheduler.gotReq.Start, drafter.gotReq.Event.Start)
	require.NotNil(t, result.Draft)
	assert.Equal(t, []string{"alice@example.com"}, result.Draft.To)
}

func TestProcessRequestContactLookupFeedsDraft(t *testing.T) {
	opts, drafter, _ := testOptions(t)

	a, err := New(opts)
	require.NoError(t, err)

	result, err := a.ProcessRequest(t.Context(), "write to Sarah about the budget", false)
	require.NoError(t, err)

	assert.Equal(t, executor.OutcomeSucceeded, result.Execution.Outcome)
	assert.Equal(t, []string{"sarah@example.com"}, drafter.gotReq.Recipients)
}

func TestProcessRequestFailedLookupSkipsDraft(t *testing.T) {
	opts, drafter, _ := testOptions(t)
	opts.Directory = &fakeDirectory{contacts: nil}

	a, err := New(opts)
	require.NoError(t, err)

	result, err := a.ProcessRequest(t.Context(), "write to Sarah about the budget", false)
	require.NoError(t, err)

	assert.Equal(t, executor.OutcomePartialFailure, result.Execution.Outcome)
	assert.Equal(t, executor.StatusFailed, result.Execution.Results[0].Status)
	assert.Equal(t, executor.StatusSkipped, result.Execution.Results[1].Status)
	assert.Empty(t, drafter.gotReq.Request, "drafter never runs when lookup fails")
	assert.Nil(t, result.Draft)
}

func TestProcessRequestExplicitSendActionGates(t *testing.T) {
	opts, _, sender := testOptions(t)
	opts.Planner = &fakePlanner{
		plan: plan.Plan{Actions: []plan.Action{
			{Kind: plan.KindDraftEmail, Params: map[string]string{
				"to": "bob@example.com", "request": "status update",
			}},
			{Kind: plan.KindSendEmail, DependsOn: plan.DependsOnIndex(0)},
		}},
	}

	a, err := New(opts)
	require.NoError(t, err)

	result, err := a.ProcessRequest(t.Context(), "send bob the status update", false)
	require.NoError(t, err)

	assert.True(t, result.Sent)
	assert.Equal(t, "msg-1", result.SentID)
	assert.Equal(t, int32(1), sender.calls.Load())
}

func TestProcessRequestSendLogsAnonymizedRecipient(t *testing.T) {
	opts, _, _ := testOptions(t)
	var buf bytes.Buffer
	opts.Logger = slog.New(slog.NewTextHandler(&buf, nil))

	a, err := New(opts)
	require.NoError(t, err)

	_, err = a.ProcessRequest(t.Context(), "email bob@example.com about the launch", true)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "draft sent")
	assert.Contains(t, out, logging.AnonymizeEmail("bob@example.com"))
	assert.NotContains(t, out, "bob@example.com")
}

func TestProcessRequestReplyThreadsConversation(t *testing.T) {
	opts, drafter, _ := testOptions(t)
	mailbox := &fakeMailbox{message: ReplyContext{
		MessageID: "orig-42",
		From:      "Bob <bob@example.com>",
		Subject:   "Invoice 1042",
		Body:      "Reach me at 555-123-4567 about the invoice.",
	}}
	opts.Mailbox = mailbox

	a, err := New(opts)
	require.NoError(t, err)

	result, err := a.ProcessRequest(t.Context(), "reply to bob@example.com about the invoice", false)
	require.NoError(t, err)

	assert.Equal(t, "from:bob@example.com", mailbox.gotQuery)

	require.NotNil(t, drafter.gotReq.ReplyTo)
	assert.Equal(t, "Invoice 1042", drafter.gotReq.ReplyTo.Subject)
	assert.Contains(t, drafter.gotReq.ReplyTo.Body, "[PHONE_REDACTED]")
	assert.NotContains(t, drafter.gotReq.ReplyTo.Body, "555-123-4567")

	require.NotNil(t, result.Draft)
	assert.Equal(t, "orig-42", result.Draft.InReplyTo)
}

func TestProcessRequestReplyLookupFailureDegrades(t *testing.T) {
	opts, drafter, _ := testOptions(t)
	opts.Mailbox = &fakeMailbox{err: errors.New("mailbox unavailable")}

	a, err := New(opts)
	require.NoError(t, err)

	result, err := a.ProcessRequest(t.Context(), "reply to bob@example.com about the invoice", false)
	require.NoError(t, err)

	assert.Nil(t, drafter.gotReq.ReplyTo)
	require.NotNil(t, result.Draft)
	assert.Empty(t, result.Draft.InReplyTo)
}

func TestProcessRequestReplyWithoutMailbox(t *testing.T) {
	opts, drafter, _ := testOptions(t)

	a, err := New(opts)
	require.NoError(t, err)

	result, err := a.ProcessRequest(t.Context(), "reply to bob@example.com about the invoice", false)
	require.NoError(t, err)

	assert.Nil(t, drafter.gotReq.ReplyTo)
	require.NotNil(t, result.Draft)
}

func TestUpcomingEventsWindow(t *testing.T) {
	opts, _, _ := testOptions(t)
	scheduler := opts.Scheduler.(*fakeScheduler)
	scheduler.upcoming = []Event{{ID: "evt-1", Summary: "Standup"}}

	a, err := New(opts)
	require.NoError(t, err)

	events, err := a.UpcomingEvents(t.Context(), 7*24*time.Hour)
	require.NoError(t, err)

	require.Len(t, events, 1)
	assert.Equal(t, "Standup", events[0].Summary)
	assert.Equal(t, testClock(), scheduler.gotFrom)
	assert.Equal(t, testClock().Add(7*24*time.Hour), scheduler.gotTo)
}

func TestProcessRequestRetrievalFailureIsNotFatal(t *testing.T) {
	opts, _, _ := testOptions(t)
	opts.Retriever = &fakeRetriever{err: errors.New("mailbox unavailable")}

	a, err := New(opts)
	require.NoError(t, err)

	result, err := a.ProcessRequest(t.Context(), "email bob@example.com about the launch", false)
	require.NoError(t, err)
	require.NotNil(t, result.Draft)
}

func TestProcessRequestSnippetsAreSanitized(t *testing.T) {
	opts, drafter, _ := testOptions(t)
	opts.Retriever = &fakeRetriever{snippets: []Snippet{
		{Text: "Sarah's number is 555-123-4567", Score: 0.9},
	}}

	a, err := New(opts)
	require.NoError(t, err)

	_, err = a.ProcessRequest(t.Context(), "email bob@example.com about the launch", false)
	require.NoError(t, err)

	require.Len(t, drafter.gotReq.Snippets, 1)
	assert.Contains(t, drafter.gotReq.Snippets[0].Text, "[PHONE_REDACTED]")
	assert.NotContains(t, drafter.gotReq.Snippets[0].Text, "555-123-4567")
}
