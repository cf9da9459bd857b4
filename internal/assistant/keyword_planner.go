package assistant

import (
	"context"
	"regexp"
	"strings"

	"github.com/draftgate/draftgate/internal/plan"
)

// KeywordPlanner is the built-in deterministic planner. It classifies
// the request by keyword, extracts explicit recipients, and emits a
// dependency-ordered plan. It never fails: a request it cannot classify
// becomes a plain compose plan.
type KeywordPlanner struct{}

var emailAddressPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

// recipientNamePattern catches "to Sarah", "with Sarah Chen", "for Bob".
var recipientNamePattern = regexp.MustCompile(`\b(?:to|with|for)\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)?)`)

// Intent names follow the request classification of the drafting
// workflow.
const (
	intentReply    = "reply"
	intentForward  = "forward"
	intentSchedule = "schedule_meeting"
	intentCompose  = "compose"
)

// Plan implements Planner.
func (p *KeywordPlanner) Plan(_ context.Context, request string, _ []Snippet) (plan.Plan, error) {
	intent := classifyIntent(request)
	recipients := ExtractRecipients(request)

	var actions []plan.Action

	// Without an explicit address, resolve the recipient first and let
	// the dependent actions pick up the result.
	needsLookup := len(recipients) == 0
	lookupIndex := -1
	if needsLookup {
		actions = append(actions, plan.Action{
			Kind:   plan.KindSearchContact,
			Params: map[string]string{"query": recipientName(request)},
		})
		lookupIndex = 0
	}

	draftParams := map[string]string{
		"request": request,
		"intent":  intent,
	}
	if len(recipients) > 0 {
		draftParams["to"] = strings.Join(recipients, ",")
	}

	if intent == intentSchedule {
		eventParams := map[string]string{
			"summary": eventSummary(request),
			"when":    request,
		}
		if len(recipients) > 0 {
			eventParams["attendees"] = strings.Join(recipients, ",")
		}
		eventAction := plan.Action{Kind: plan.KindCreateEvent, Params: eventParams}
		if needsLookup {
			eventAction.DependsOn = plan.DependsOnIndex(lookupIndex)
		}
		actions = append(actions, eventAction)

		draftAction := plan.Action{
			Kind:      plan.KindDraftEmail,
			Params:    draftParams,
			DependsOn: plan.DependsOnIndex(len(actions) - 1),
		}
		actions = append(actions, draftAction)
		return plan.Plan{Actions: actions}, nil
	}

	draftAction := plan.Action{Kind: plan.KindDraftEmail, Params: draftParams}
	if needsLookup {
		draftAction.DependsOn = plan.DependsOnIndex(lookupIndex)
	}
	actions = append(actions, draftAction)

	return plan.Plan{Actions: actions}, nil
}

func classifyIntent(request string) string {
	lower := strings.ToLower(request)

	switch {
	case containsAny(lower, "reply", "respond", "answer"):
		return intentReply
	case containsAny(lower, "meeting", "schedule", "calendar"):
		return intentSchedule
	case containsAny(lower, "forward", "fwd"):
		return intentForward
	default:
		return intentCompose
	}
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// ExtractRecipients returns the email addresses mentioned in a request.
func ExtractRecipients(request string) []string {
	return emailAddressPattern.FindAllString(request, -1)
}

// recipientName guesses the name to look up when no address was given.
// Falls back to the whole request, which the directory treats as a
// free-form query.
func recipientName(request string) string {
	if m := recipientNamePattern.FindStringSubmatch(request); m != nil {
		return m[1]
	}
	return strings.TrimSpace(request)
}

// eventSummary derives an event title from the request, dropping
// addresses and trimming to something calendar-sized.
func eventSummary(request string) string {
	summary := emailAddressPattern.ReplaceAllString(request, "")
	summary = strings.Join(strings.Fields(summary), " ")
	if r := []rune(summary); len(r) > 80 {
		summary = string(r[:80])
	}
	if summary == "" {
		summary = "Meeting"
	}
	return summary
}
