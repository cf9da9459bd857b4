package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/googleapi"

	"github.com/draftgate/draftgate/internal/draft"
	"github.com/draftgate/draftgate/internal/executor"
	"github.com/draftgate/draftgate/internal/gate"
	"github.com/draftgate/draftgate/internal/logging"
	"github.com/draftgate/draftgate/internal/pii"
	"github.com/draftgate/draftgate/internal/plan"
	"github.com/draftgate/draftgate/internal/timeparse"
)

// BlockedError reports that the validation gate refused a draft. It is
// permanent: retrying the same draft cannot change the verdict.
type BlockedError struct {
	Categories []string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("draft blocked by validation gate: %s", strings.Join(e.Categories, ", "))
}

// run carries per-request state so concurrent requests never share
// retrieved context.
type run struct {
	*Assistant
	snippets []Snippet
}

// handlers builds the action handler table for the executor.
func (a *run) handlers() map[plan.Kind]executor.Handler {
	return map[plan.Kind]executor.Handler{
		plan.KindSearchContact: a.handleSearchContact,
		plan.KindCreateEvent:   a.handleCreateEvent,
		plan.KindDraftEmail:    a.handleDraftEmail,
		plan.KindSendEmail:     a.handleSendEmail,
	}
}

func (a *run) handleSearchContact(ctx context.Context, act plan.Action, _ *executor.Result) (any, error) {
	query := act.Param("query")
	if query == "" {
		return nil, fmt.Errorf("search_contact requires a query")
	}

	contacts, err := a.directory.SearchContact(ctx, query)
	if err != nil {
		return nil, classifyServiceError(err)
	}
	if len(contacts) == 0 {
		return nil, fmt.Errorf("no contact found for %q", query)
	}

	return contacts[0], nil
}

func (a *run) handleCreateEvent(ctx context.Context, act plan.Action, dep *executor.Result) (any, error) {
	req := EventRequest{
		Summary:  act.Param("summary"),
		Location: act.Param("location"),
	}
	if req.Summary == "" {
		return nil, fmt.Errorf("create_event requires a summary")
	}

	// Explicit RFC 3339 bounds win over natural language.
	start, startErr := act.TimeParam("start")
	end, endErr := act.TimeParam("end")
	if startErr == nil && endErr == nil {
		req.Start, req.End = start, end
	} else {
		window := timeparse.Parse(act.Param("when"), a.now())
		req.Start, req.End = window.Start, window.End
	}

	req.Attendees = append(req.Attendees, splitList(act.Param("attendees"))...)
	if contact, ok := dependencyContact(dep); ok {
		req.Attendees = append(req.Attendees, contact.Email)
	}

	event, err := a.scheduler.Schedule(ctx, req)
	if err != nil {
		return nil, classifyServiceError(err)
	}

	return event, nil
}

func (a *run) handleDraftEmail(ctx context.Context, act plan.Action, dep *executor.Result) (any, error) {
	req := DraftRequest{
		Request:    act.Param("request"),
		Snippets:   a.snippets,
		Recipients: splitList(act.Param("to")),
	}

	if contact, ok := dependencyContact(dep); ok {
		req.Recipients = append(req.Recipients, contact.Email)
	}
	if act.Param("intent") == intentReply {
		req.ReplyTo = a.replyContext(ctx, req.Recipients, req.Request)
	}
	if event, ok := dependencyEvent(dep); ok {
		req.Recipients = append(req.Recipients, event.Attendees...)
		req.Event = &draft.EventDetails{
			Summary:   event.Summary,
			Start:     event.Start,
			End:       event.End,
			Attendees: event.Attendees,
		}
	}

	req.Recipients = dedupe(req.Recipients)
	if len(req.Recipients) == 0 {
		return nil, fmt.Errorf("draft_email has no recipients")
	}

	artifact, err := a.drafter.Draft(ctx, req)
	if err != nil {
		return nil, classifyServiceError(err)
	}
	if len(artifact.To) == 0 {
		artifact.To = req.Recipients
	}
	if req.ReplyTo != nil && artifact.InReplyTo == "" {
		artifact.InReplyTo = req.ReplyTo.MessageID
	}
	if err := artifact.Wellformed(); err != nil {
		return nil, fmt.Errorf("drafter produced a malformed artifact: %w", err)
	}

	return artifact, nil
}

// handleSendEmail gates the draft before it ever reaches the sender. A
// blocked verdict is permanent.
func (a *run) handleSendEmail(ctx context.Context, act plan.Action, dep *executor.Result) (any, error) {
	artifact, ok := dependencyArtifact(dep)
	if !ok {
		artifact = draft.Artifact{
			To:      splitList(act.Param("to")),
			Subject: act.Param("subject"),
			Body:    act.Param("body"),
		}
	}
	if err := artifact.Wellformed(); err != nil {
		return nil, fmt.Errorf("cannot send malformed draft: %w", err)
	}

	verdict, err := a.gate.Validate(artifact)
	if err != nil {
		return nil, fmt.Errorf("validation gate failed: %w", err)
	}
	a.metrics.RecordGateDecision(ctx, string(verdict.Decision))

	if verdict.Decision == gate.DecisionBlock {
		return nil, &BlockedError{Categories: findingCategories(verdict)}
	}

	id, err := a.sender.Send(ctx, verdict.Artifact)
	if err != nil {
		return nil, classifyServiceError(err)
	}
	a.logSent(verdict.Artifact.To)

	return id, nil
}

// replyContext looks up the conversation a reply continues and sanitizes
// the original body before the drafter sees it. A failed lookup degrades
// to a fresh message rather than failing the action.
func (a *run) replyContext(ctx context.Context, recipients []string, request string) *ReplyContext {
	if a.mailbox == nil {
		return nil
	}

	query := request
	if len(recipients) > 0 {
		query = "from:" + recipients[0]
	}

	orig, err := a.mailbox.LatestMessage(ctx, query)
	if err != nil {
		a.logger.Warn("reply lookup failed, drafting a fresh message", logging.Err(err))
		return nil
	}

	if report, err := a.scanner.Scan(orig.Body); err != nil {
		orig.Body = ""
	} else {
		orig.Body = pii.Redact(orig.Body, report).Sanitized
	}
	return &orig
}

func dependencyContact(dep *executor.Result) (Contact, bool) {
	if dep == nil {
		return Contact{}, false
	}
	contact, ok := dep.Output.(Contact)
	return contact, ok
}

func dependencyEvent(dep *executor.Result) (Event, bool) {
	if dep == nil {
		return Event{}, false
	}
	event, ok := dep.Output.(Event)
	return event, ok
}

func dependencyArtifact(dep *executor.Result) (draft.Artifact, bool) {
	if dep == nil {
		return draft.Artifact{}, false
	}
	artifact, ok := dep.Output.(draft.Artifact)
	return artifact, ok
}

func findingCategories(v gate.Verdict) []string {
	seen := make(map[string]bool)
	var names []string
	for _, f := range v.Blocking {
		name := f.Category.String()
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

// classifyServiceError marks rate limits, server errors and timeouts as
// transient so the executor retries them.
func classifyServiceError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == 429 || apiErr.Code >= 500 {
			return executor.Transient(err)
		}
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return executor.Transient(err)
	}

	return err
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := values[:0]
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// now is indirected for tests.
func (a *Assistant) now() time.Time {
	if a.clock != nil {
		return a.clock()
	}
	return time.Now().In(a.location)
}
