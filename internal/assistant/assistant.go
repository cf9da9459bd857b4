package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/draftgate/draftgate/internal/draft"
	"github.com/draftgate/draftgate/internal/executor"
	"github.com/draftgate/draftgate/internal/gate"
	"github.com/draftgate/draftgate/internal/instrumentation"
	"github.com/draftgate/draftgate/internal/logging"
	"github.com/draftgate/draftgate/internal/pii"
	"github.com/draftgate/draftgate/internal/plan"
)

// Options configures an Assistant. Planner defaults to the built-in
// KeywordPlanner; Logger and Metrics default to no-ops.
type Options struct {
	Planner   Planner
	Retriever Retriever
	Drafter   Drafter
	Directory Directory
	Scheduler Scheduler
	Sender    Sender
	// Mailbox is optional; without it, reply requests become fresh
	// messages instead of threaded replies.
	Mailbox Mailbox

	Scanner *pii.Scanner
	Policy  gate.Policy

	Executor executor.Options
	TopK     int
	Location *time.Location

	Logger  *slog.Logger
	Metrics *instrumentation.Metrics

	// Clock overrides the current time in tests.
	Clock func() time.Time
}

// Assistant drives the drafting workflow end to end.
type Assistant struct {
	planner   Planner
	retriever Retriever
	drafter   Drafter
	directory Directory
	scheduler Scheduler
	sender    Sender
	mailbox   Mailbox

	scanner *pii.Scanner
	gate    *gate.Gate

	execOpts executor.Options
	topK     int
	location *time.Location

	logger  *slog.Logger
	metrics *instrumentation.Metrics
	clock   func() time.Time
}

// New creates an Assistant from opts. Retriever, Drafter, Directory,
// Scheduler and Sender are required.
func New(opts Options) (*Assistant, error) {
	if opts.Retriever == nil || opts.Drafter == nil || opts.Directory == nil ||
		opts.Scheduler == nil || opts.Sender == nil {
		return nil, fmt.Errorf("assistant requires retriever, drafter, directory, scheduler and sender")
	}

	planner := opts.Planner
	if planner == nil {
		planner = &KeywordPlanner{}
	}
	scanner := opts.Scanner
	if scanner == nil {
		scanner = pii.NewScanner()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	topK := opts.TopK
	if topK <= 0 {
		topK = 5
	}
	location := opts.Location
	if location == nil {
		location = time.UTC
	}

	return &Assistant{
		planner:   planner,
		retriever: opts.Retriever,
		drafter:   opts.Drafter,
		directory: opts.Directory,
		scheduler: opts.Scheduler,
		sender:    opts.Sender,
		mailbox:   opts.Mailbox,
		scanner:   scanner,
		gate:      gate.New(scanner, opts.Policy, logger),
		execOpts:  opts.Executor,
		topK:      topK,
		location:  location,
		logger:    logging.WithOperation(logger, "process_request"),
		metrics:   opts.Metrics,
		clock:     opts.Clock,
	}, nil
}

// RunResult is the outcome of one request.
type RunResult struct {
	Plan      plan.Plan
	Execution *executor.Report
	Draft     *draft.Artifact
	Verdict   *gate.Verdict
	// Sent holds the message ID when the draft was delivered.
	Sent   bool
	SentID string
}

// ProcessRequest runs the full workflow: scan and sanitize the request,
// retrieve context, plan, execute, and gate the resulting draft. When
// autoSend is set and the plan did not already send, an approved draft
// is delivered.
func (a *Assistant) ProcessRequest(ctx context.Context, request string, autoSend bool) (*RunResult, error) {
	started := a.now()
	result, err := a.processRequest(ctx, request, autoSend)

	status := logging.StatusSuccess
	if err != nil {
		status = logging.StatusError
	}
	a.metrics.RecordWorkflowRun(ctx, status, a.now().Sub(started))
	a.logger.Info("request finished", logging.Status(status))

	return result, err
}

func (a *Assistant) processRequest(ctx context.Context, request string, autoSend bool) (*RunResult, error) {
	// The raw request may itself carry PII; sanitize it before it is
	// echoed into search queries, plans or prompts. Email addresses
	// survive the pre-pass: in a request they are recipients, and the
	// gate still scans every outbound draft.
	report, err := a.scanner.Scan(request)
	if err != nil {
		return nil, fmt.Errorf("request could not be scanned: %w", err)
	}
	kept := report
	kept.Findings = nil
	for _, f := range report.Findings {
		a.metrics.RecordPIIFinding(ctx, f.Category.String())
		if f.Category != pii.CategoryEmail {
			kept.Findings = append(kept.Findings, f)
		}
	}
	sanitized := pii.Redact(request, kept).Sanitized

	r := &run{Assistant: a}
	if snippets, err := a.retrieve(ctx, sanitized); err != nil {
		a.logger.Warn("context retrieval failed, continuing without context", logging.Err(err))
	} else {
		r.snippets = snippets
	}

	p, err := a.planner.Plan(ctx, sanitized, r.snippets)
	if err != nil {
		return nil, fmt.Errorf("planning failed: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	a.logger.Info("plan ready", slog.Int("actions", len(p.Actions)))

	exec := executor.New(r.handlers(), a.withDefaults(a.execOpts))
	execution, err := exec.Run(ctx, p)
	if err != nil {
		return nil, err
	}

	result := &RunResult{Plan: p, Execution: execution}

	artifact, drafted := draftedArtifact(p, execution)
	if !drafted {
		return result, nil
	}

	verdict, err := a.gate.Validate(artifact)
	if err != nil {
		return nil, fmt.Errorf("validation gate failed: %w", err)
	}
	a.metrics.RecordGateDecision(ctx, string(verdict.Decision))
	a.logger.Info("draft gated", logging.Decision(string(verdict.Decision)))

	result.Draft = &verdict.Artifact
	result.Verdict = &verdict

	if sentID, sent := sentMessageID(p, execution); sent {
		result.Sent = true
		result.SentID = sentID
		return result, nil
	}

	if autoSend && verdict.Decision != gate.DecisionBlock {
		id, err := a.sender.Send(ctx, verdict.Artifact)
		if err != nil {
			return result, fmt.Errorf("auto-send failed: %w", err)
		}
		a.logSent(verdict.Artifact.To)
		result.Sent = true
		result.SentID = id
	}

	return result, nil
}

// SearchContext retrieves sanitized mailbox context for a query. It is
// the same lookup the workflow runs before planning.
func (a *Assistant) SearchContext(ctx context.Context, query string) ([]Snippet, error) {
	return a.retrieve(ctx, query)
}

// UpcomingEvents lists calendar events between now and now+window.
func (a *Assistant) UpcomingEvents(ctx context.Context, window time.Duration) ([]Event, error) {
	now := a.now()
	return a.scheduler.Upcoming(ctx, now, now.Add(window))
}

// ScanText scans text and reports findings without redacting.
func (a *Assistant) ScanText(text string) (pii.Report, error) {
	return a.scanner.Scan(text)
}

// ValidateDraft runs an artifact through the gate.
func (a *Assistant) ValidateDraft(artifact draft.Artifact) (gate.Verdict, error) {
	return a.gate.Validate(artifact)
}

// logSent records a delivery. Recipients are logged as anonymized hashes
// plus the first recipient's domain, never as raw addresses.
func (a *Assistant) logSent(to []string) {
	if len(to) == 0 {
		return
	}
	a.logger.Info("draft sent",
		logging.UserHash(to[0]),
		logging.Domain(to[0]),
		slog.Int("recipients", len(to)),
	)
}

// retrieve fetches context snippets and sanitizes each before anything
// downstream sees them.
func (a *Assistant) retrieve(ctx context.Context, query string) ([]Snippet, error) {
	snippets, err := a.retriever.Retrieve(ctx, query, a.topK)
	if err != nil {
		return nil, err
	}

	sanitized := make([]Snippet, 0, len(snippets))
	for _, s := range snippets {
		report, err := a.scanner.Scan(s.Text)
		if err != nil {
			// Skip snippets the scanner cannot certify.
			continue
		}
		s.Text = pii.Redact(s.Text, report).Sanitized
		sanitized = append(sanitized, s)
	}

	return sanitized, nil
}

func (a *Assistant) withDefaults(opts executor.Options) executor.Options {
	if opts.Logger == nil {
		opts.Logger = a.logger
	}
	if opts.Metrics == nil {
		opts.Metrics = a.metrics
	}
	return opts
}

// draftedArtifact returns the artifact of the last successful
// draft_email action.
func draftedArtifact(p plan.Plan, execution *executor.Report) (draft.Artifact, bool) {
	for i := len(p.Actions) - 1; i >= 0; i-- {
		if p.Actions[i].Kind != plan.KindDraftEmail {
			continue
		}
		res := execution.Results[i]
		if res.Status != executor.StatusSucceeded {
			continue
		}
		if artifact, ok := res.Output.(draft.Artifact); ok {
			return artifact, true
		}
	}
	return draft.Artifact{}, false
}

// sentMessageID reports whether the plan already delivered the draft
// through a send_email action.
func sentMessageID(p plan.Plan, execution *executor.Report) (string, bool) {
	for i, act := range p.Actions {
		if act.Kind != plan.KindSendEmail {
			continue
		}
		res := execution.Results[i]
		if res.Status == executor.StatusSucceeded {
			id, _ := res.Output.(string)
			return id, true
		}
	}
	return "", false
}
