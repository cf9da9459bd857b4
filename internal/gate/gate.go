package gate

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/draftgate/draftgate/internal/draft"
	"github.com/draftgate/draftgate/internal/logging"
	"github.com/draftgate/draftgate/internal/pii"
)

// Decision is the gate's verdict on a draft artifact.
type Decision string

const (
	DecisionApprove          Decision = "approve"
	DecisionRedactAndApprove Decision = "redact_and_approve"
	DecisionBlock            Decision = "block"
)

// CategoryAction says how the gate treats findings of one category.
type CategoryAction int

const (
	// ActionRedact replaces the finding with a placeholder and approves.
	ActionRedact CategoryAction = iota
	// ActionBlock withholds the artifact; no placeholder can make it safe.
	ActionBlock
)

// Policy maps PII categories to their gate action. Categories absent from
// the policy block: an unknown category is treated as the more dangerous
// case.
type Policy map[pii.Category]CategoryAction

// DefaultPolicy redacts the four auto-redactable categories plus email
// addresses and hard-blocks custom findings (private key material).
func DefaultPolicy() Policy {
	return Policy{
		pii.CategorySSN:        ActionRedact,
		pii.CategoryCreditCard: ActionRedact,
		pii.CategoryAPIKey:     ActionRedact,
		pii.CategoryPhone:      ActionRedact,
		pii.CategoryEmail:      ActionRedact,
		pii.CategoryCustom:     ActionBlock,
	}
}

// PolicyFromNames builds a policy from category label lists, as read from
// configuration. Labels must match pii.Category.String values.
func PolicyFromNames(redactable, hardBlock []string) (Policy, error) {
	byLabel := map[string]pii.Category{}
	for c := pii.CategorySSN; c <= pii.CategoryCustom; c++ {
		byLabel[c.String()] = c
	}
	p := Policy{}
	for _, name := range redactable {
		c, ok := byLabel[strings.ToUpper(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("gate: unknown redactable category %q", name)
		}
		p[c] = ActionRedact
	}
	for _, name := range hardBlock {
		c, ok := byLabel[strings.ToUpper(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("gate: unknown hard-block category %q", name)
		}
		p[c] = ActionBlock
	}
	return p, nil
}

// Verdict is the outcome of validating one artifact.
type Verdict struct {
	Decision Decision

	// Artifact is the artifact to act on: the original on approve, the
	// sanitized copy on redact-and-approve, undefined on block.
	Artifact draft.Artifact

	// Blocking lists the findings that forced a block. Consumers must
	// report these by category and span length only, never the matched
	// text.
	Blocking []pii.Finding
}

// Gate validates draft artifacts against a PII policy.
type Gate struct {
	scanner *pii.Scanner
	policy  Policy
	logger  *slog.Logger
}

// New returns a gate using the given scanner and policy. A nil policy means
// DefaultPolicy; a nil logger means slog.Default.
func New(scanner *pii.Scanner, policy Policy, logger *slog.Logger) *Gate {
	if scanner == nil {
		scanner = pii.NewScanner()
	}
	if policy == nil {
		policy = DefaultPolicy()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{scanner: scanner, policy: policy, logger: logger}
}

// field is one scannable piece of an artifact.
type field struct {
	name string
	text string
}

func artifactFields(a draft.Artifact) []field {
	fields := []field{
		{name: "subject", text: a.Subject},
		{name: "body", text: a.Body},
	}
	if a.Event != nil && a.Event.AttendeeNotes != "" {
		fields = append(fields, field{name: "attendee_notes", text: a.Event.AttendeeNotes})
	}
	return fields
}

func applySanitized(a draft.Artifact, name, text string) draft.Artifact {
	switch name {
	case "subject":
		a.Subject = text
	case "body":
		a.Body = text
	case "attendee_notes":
		ev := *a.Event
		ev.AttendeeNotes = text
		a.Event = &ev
	}
	return a
}

// Validate scans the artifact's free-text fields and renders a verdict.
//
// The algorithm is a closed loop with a hard cap of one redaction pass:
// findings of redactable categories are replaced with placeholders, the
// sanitized text is scanned once more, and anything that survives escalates
// to a block instead of looping.
//
// A scan failure (malformed encoding) is returned as an error; the caller
// must treat the artifact as unvalidated and must not send it.
func (g *Gate) Validate(a draft.Artifact) (Verdict, error) {
	var blocking []pii.Finding
	reports := make(map[string]pii.Report)
	total := 0

	for _, f := range artifactFields(a) {
		report, err := g.scanner.Scan(f.text)
		if err != nil {
			return Verdict{}, fmt.Errorf("gate: scanning %s: %w", f.name, err)
		}
		reports[f.name] = report
		total += len(report.Findings)
		for _, finding := range report.Findings {
			g.logger.Warn("pii finding",
				logging.Category(finding.Category.String()),
				logging.SpanLength(finding.SpanLength()),
				slog.String("field", f.name),
			)
			if g.actionFor(finding.Category) == ActionBlock {
				blocking = append(blocking, finding)
			}
		}
	}

	if total == 0 {
		return Verdict{Decision: DecisionApprove, Artifact: a}, nil
	}
	if len(blocking) > 0 {
		g.logger.Warn("draft blocked", logging.Decision(string(DecisionBlock)))
		return Verdict{Decision: DecisionBlock, Blocking: blocking}, nil
	}

	// All findings are redactable: produce the sanitized artifact.
	sanitized := a
	for _, f := range artifactFields(a) {
		report := reports[f.name]
		if report.Empty() {
			continue
		}
		redacted := pii.Redact(f.text, report)
		sanitized = applySanitized(sanitized, f.name, redacted.Sanitized)
	}

	// Closed-loop check: one re-scan of the sanitized copy. Anything still
	// detected means redaction did not remove the risk, so escalate rather
	// than retry again.
	var survivors []pii.Finding
	for _, f := range artifactFields(sanitized) {
		report, err := g.scanner.Scan(f.text)
		if err != nil {
			return Verdict{}, fmt.Errorf("gate: re-scanning %s: %w", f.name, err)
		}
		survivors = append(survivors, report.Findings...)
	}
	if len(survivors) > 0 {
		g.logger.Warn("redaction left findings behind, blocking",
			logging.Decision(string(DecisionBlock)),
			slog.Int("surviving_findings", len(survivors)),
		)
		return Verdict{Decision: DecisionBlock, Blocking: survivors}, nil
	}

	return Verdict{Decision: DecisionRedactAndApprove, Artifact: sanitized}, nil
}

func (g *Gate) actionFor(c pii.Category) CategoryAction {
	action, ok := g.policy[c]
	if !ok {
		return ActionBlock
	}
	return action
}
