package executor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/sync/errgroup"

	"github.com/draftgate/draftgate/internal/instrumentation"
	"github.com/draftgate/draftgate/internal/logging"
	"github.com/draftgate/draftgate/internal/plan"
)

// Status is the lifecycle state of a single action.
type Status string

const (
	StatusPending   Status = "pending"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// Outcome summarizes a whole run.
type Outcome string

const (
	OutcomeSucceeded      Outcome = "succeeded"
	OutcomePartialFailure Outcome = "partial_failure"
	OutcomeCancelled      Outcome = "cancelled"
)

// Result holds the terminal state of one action. Output carries whatever
// the handler returned on success; Err is set for failed and skipped
// actions.
type Result struct {
	Status Status
	Output any
	Err    error
}

// Report is the full account of a run, with one Result per plan action in
// plan order.
type Report struct {
	Outcome Outcome
	Results []Result
}

// Handler executes one action. dep is the result of the action's
// dependency, nil when the action has none. Wrap retryable failures with
// Transient; any other error is treated as permanent.
type Handler func(ctx context.Context, action plan.Action, dep *Result) (any, error)

// Options tune the run loop. Zero values fall back to defaults.
type Options struct {
	// MaxAttempts bounds handler invocations per action, including the
	// first. Default 3.
	MaxAttempts uint
	// BaseDelay is the initial backoff interval. Default 500ms.
	BaseDelay time.Duration
	// ActionTimeout bounds a single handler attempt. Default 30s.
	ActionTimeout time.Duration
	// MaxParallel bounds concurrently running actions. Default 4.
	MaxParallel int

	Logger  *slog.Logger
	Metrics *instrumentation.Metrics
}

const (
	defaultMaxAttempts   = 3
	defaultBaseDelay     = 500 * time.Millisecond
	defaultActionTimeout = 30 * time.Second
	defaultMaxParallel   = 4
)

// Executor drives plans to completion against a set of action handlers.
type Executor struct {
	handlers map[plan.Kind]Handler
	opts     Options
	logger   *slog.Logger
}

// New creates an Executor. Handlers must cover every action kind the
// plans it will run can contain; a missing handler fails the action
// permanently.
func New(handlers map[plan.Kind]Handler, opts Options) *Executor {
	if opts.MaxAttempts == 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = defaultBaseDelay
	}
	if opts.ActionTimeout <= 0 {
		opts.ActionTimeout = defaultActionTimeout
	}
	if opts.MaxParallel <= 0 {
		opts.MaxParallel = defaultMaxParallel
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		handlers: handlers,
		opts:     opts,
		logger:   logging.WithOperation(logger, "execute_plan"),
	}
}

// Run executes p and returns a report with one result per action. The
// returned error is non-nil only when the plan itself is invalid; failed
// actions are reported through Result.Err and the run outcome.
func (e *Executor) Run(ctx context.Context, p plan.Plan) (*Report, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	results := make([]Result, len(p.Actions))
	for i := range results {
		results[i].Status = StatusPending
	}
	report := &Report{Results: results}

	cancelled := false
	for remaining(results) > 0 {
		if ctx.Err() != nil {
			cancelled = true
			break
		}

		wave := e.nextWave(p, results)
		if len(wave) == 0 {
			// Every pending action was skipped this pass; re-check.
			continue
		}

		var g errgroup.Group
		g.SetLimit(e.opts.MaxParallel)
		for _, i := range wave {
			g.Go(func() error {
				// Each goroutine owns exactly one result slot.
				results[i] = e.runAction(ctx, p.Actions[i], dependencyResult(p.Actions[i], results))
				return nil
			})
		}
		_ = g.Wait()
	}

	report.Outcome = outcome(results, cancelled)
	e.logger.Info("plan execution finished",
		slog.String("outcome", string(report.Outcome)),
		slog.Int("actions", len(results)),
	)
	return report, nil
}

// remaining counts actions that have not reached a terminal state.
func remaining(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Status == StatusPending {
			n++
		}
	}
	return n
}

// nextWave returns the indices of pending actions that are ready to run.
// Pending actions whose dependency failed or was skipped are marked
// skipped in place, without invoking their handler.
func (e *Executor) nextWave(p plan.Plan, results []Result) []int {
	var wave []int
	for i, act := range p.Actions {
		if results[i].Status != StatusPending {
			continue
		}
		if act.DependsOn == nil {
			wave = append(wave, i)
			continue
		}
		dep := *act.DependsOn
		switch results[dep].Status {
		case StatusSucceeded:
			wave = append(wave, i)
		case StatusFailed, StatusSkipped:
			results[i] = Result{
				Status: StatusSkipped,
				Err:    &DependencyError{Index: dep, Status: results[dep].Status},
			}
			e.logger.Info("action skipped",
				logging.Kind(string(act.Kind)),
				slog.Int("index", i),
				logging.Err(results[i].Err),
			)
			e.opts.Metrics.RecordPlanAction(context.Background(), string(act.Kind), string(StatusSkipped), 0)
		}
	}
	return wave
}

// dependencyResult returns the dependency's result for handler use.
func dependencyResult(act plan.Action, results []Result) *Result {
	if act.DependsOn == nil {
		return nil
	}
	dep := results[*act.DependsOn]
	return &dep
}

// runAction runs a single action with per-attempt timeouts and
// exponential backoff on transient failures.
func (e *Executor) runAction(ctx context.Context, act plan.Action, dep *Result) Result {
	started := time.Now()
	kind := string(act.Kind)

	handler, ok := e.handlers[act.Kind]
	if !ok {
		err := fmt.Errorf("no handler registered for action kind %q", act.Kind)
		e.logger.Error("action failed", logging.Kind(kind), logging.Err(err))
		e.opts.Metrics.RecordPlanAction(ctx, kind, string(StatusFailed), time.Since(started))
		return Result{Status: StatusFailed, Err: err}
	}

	attempt := 0
	operation := func() (any, error) {
		attempt++
		if attempt > 1 {
			e.logger.Info("retrying action",
				logging.Kind(kind),
				slog.Int(logging.KeyAttempt, attempt),
			)
			e.opts.Metrics.RecordActionRetry(ctx, kind)
		}

		attemptCtx, cancel := context.WithTimeout(ctx, e.opts.ActionTimeout)
		defer cancel()

		out, err := handler(attemptCtx, act, dep)
		if err == nil {
			return out, nil
		}
		if IsTransient(err) {
			return nil, err
		}
		return nil, backoff.Permanent(err)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = e.opts.BaseDelay

	out, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(e.opts.MaxAttempts),
	)
	if err != nil {
		e.logger.Error("action failed",
			logging.Kind(kind),
			slog.Int(logging.KeyAttempt, attempt),
			logging.Err(err),
		)
		e.opts.Metrics.RecordPlanAction(ctx, kind, string(StatusFailed), time.Since(started))
		return Result{Status: StatusFailed, Err: err}
	}

	e.logger.Info("action succeeded",
		logging.Kind(kind),
		slog.Int(logging.KeyAttempt, attempt),
	)
	e.opts.Metrics.RecordPlanAction(ctx, kind, string(StatusSucceeded), time.Since(started))
	return Result{Status: StatusSucceeded, Output: out}
}

// outcome folds per-action results into a run outcome. Cancellation wins;
// otherwise any non-succeeded action makes the run a partial failure.
func outcome(results []Result, cancelled bool) Outcome {
	if cancelled {
		return OutcomeCancelled
	}
	for _, r := range results {
		if r.Status != StatusSucceeded {
			return OutcomePartialFailure
		}
	}
	return OutcomeSucceeded
}
