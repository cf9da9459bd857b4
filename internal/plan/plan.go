// Package plan models the ordered list of actions an external planner
// produces for a user request. Plans are validated before execution: action
// kinds come from a closed enum and dependencies may only point at earlier
// actions.
package plan

import (
	"fmt"
	"net/mail"
	"time"
)

// Kind identifies a planned action. The set is closed; executors dispatch
// through a fixed kind-to-handler table.
type Kind string

const (
	KindSearchContact Kind = "search_contact"
	KindCreateEvent   Kind = "create_event"
	KindDraftEmail    Kind = "draft_email"
	KindSendEmail     Kind = "send_email"
)

// Known reports whether k is part of the closed action enum.
func (k Kind) Known() bool {
	switch k {
	case KindSearchContact, KindCreateEvent, KindDraftEmail, KindSendEmail:
		return true
	}
	return false
}

// Action is one planned step. Params hold string primitives; datetime values
// are RFC 3339. DependsOn, when set, names the index of an earlier action
// whose output this action consumes.
type Action struct {
	Kind      Kind
	Params    map[string]string
	DependsOn *int
}

// Param returns the named parameter or the empty string.
func (a Action) Param(key string) string {
	return a.Params[key]
}

// TimeParam parses the named parameter as an RFC 3339 timestamp.
func (a Action) TimeParam(key string) (time.Time, error) {
	raw, ok := a.Params[key]
	if !ok {
		return time.Time{}, fmt.Errorf("plan: missing datetime parameter %q", key)
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("plan: parameter %q is not RFC 3339: %w", key, err)
	}
	return t, nil
}

// AddressParam parses the named parameter as an email address and returns
// the bare address.
func (a Action) AddressParam(key string) (string, error) {
	raw, ok := a.Params[key]
	if !ok {
		return "", fmt.Errorf("plan: missing address parameter %q", key)
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil {
		return "", fmt.Errorf("plan: parameter %q is not a valid address: %w", key, err)
	}
	return addr.Address, nil
}

// Plan is an ordered action list for one request.
type Plan struct {
	Actions []Action
}

// DependsOnIndex is a convenience for building actions literals.
func DependsOnIndex(i int) *int {
	return &i
}

// InvalidError reports why a plan was rejected before execution.
type InvalidError struct {
	Index  int
	Reason string
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("plan: action %d invalid: %s", e.Index, e.Reason)
}

// Validate rejects plans with unknown action kinds or dependency references
// that are not strictly earlier in the list. A rejected plan must not be
// partially executed.
func (p Plan) Validate() error {
	if len(p.Actions) == 0 {
		return &InvalidError{Index: 0, Reason: "plan has no actions"}
	}
	for i, a := range p.Actions {
		if !a.Kind.Known() {
			return &InvalidError{Index: i, Reason: fmt.Sprintf("unknown action kind %q", a.Kind)}
		}
		if a.DependsOn == nil {
			continue
		}
		dep := *a.DependsOn
		if dep < 0 {
			return &InvalidError{Index: i, Reason: fmt.Sprintf("negative dependency index %d", dep)}
		}
		if dep >= i {
			return &InvalidError{Index: i, Reason: fmt.Sprintf("dependency index %d does not reference an earlier action", dep)}
		}
	}
	return nil
}
