package instrumentation

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys.
const (
	attrStatus    = "status"
	attrDecision  = "decision"
	attrCategory  = "category"
	attrKind      = "kind"
	attrService   = "service"
	attrOperation = "operation"
	attrTool      = "tool"
)

// Status values for metric labels.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Metrics records the assistant's observability metrics. The zero value is
// a no-op recorder: every method checks its instrument before recording, so
// code paths can share one call site whether instrumentation is enabled or
// not.
type Metrics struct {
	workflowRunsTotal metric.Int64Counter
	workflowDuration  metric.Float64Histogram

	gateDecisionsTotal metric.Int64Counter
	piiFindingsTotal   metric.Int64Counter

	planActionsTotal  metric.Int64Counter
	actionRetryTotal  metric.Int64Counter
	actionDuration    metric.Float64Histogram
	googleAPICalls    metric.Int64Counter
	googleAPIDuration metric.Float64Histogram

	toolInvocationsTotal metric.Int64Counter
}

// NewMetrics creates a Metrics instance with all instruments registered on
// the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	m.workflowRunsTotal, err = meter.Int64Counter(
		"assistant_workflow_runs_total",
		metric.WithDescription("Total number of assistant workflow runs"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create assistant_workflow_runs_total counter: %w", err)
	}

	m.workflowDuration, err = meter.Float64Histogram(
		"assistant_workflow_duration_seconds",
		metric.WithDescription("Assistant workflow duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create assistant_workflow_duration_seconds histogram: %w", err)
	}

	m.gateDecisionsTotal, err = meter.Int64Counter(
		"gate_decisions_total",
		metric.WithDescription("Validation gate decisions by outcome"),
		metric.WithUnit("{decision}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gate_decisions_total counter: %w", err)
	}

	m.piiFindingsTotal, err = meter.Int64Counter(
		"pii_findings_total",
		metric.WithDescription("PII findings by category; matched text is never recorded"),
		metric.WithUnit("{finding}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create pii_findings_total counter: %w", err)
	}

	m.planActionsTotal, err = meter.Int64Counter(
		"plan_actions_total",
		metric.WithDescription("Executed plan actions by kind and terminal status"),
		metric.WithUnit("{action}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create plan_actions_total counter: %w", err)
	}

	m.actionRetryTotal, err = meter.Int64Counter(
		"plan_action_retries_total",
		metric.WithDescription("Retry attempts for transient action failures"),
		metric.WithUnit("{retry}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create plan_action_retries_total counter: %w", err)
	}

	m.actionDuration, err = meter.Float64Histogram(
		"plan_action_duration_seconds",
		metric.WithDescription("Plan action duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create plan_action_duration_seconds histogram: %w", err)
	}

	m.googleAPICalls, err = meter.Int64Counter(
		"google_api_operations_total",
		metric.WithDescription("Google API operations by service, operation and status"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create google_api_operations_total counter: %w", err)
	}

	m.googleAPIDuration, err = meter.Float64Histogram(
		"google_api_operation_duration_seconds",
		metric.WithDescription("Google API operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.5, 1.0, 2.5, 5.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create google_api_operation_duration_seconds histogram: %w", err)
	}

	m.toolInvocationsTotal, err = meter.Int64Counter(
		"tool_invocations_total",
		metric.WithDescription("MCP tool invocations by tool and status"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool_invocations_total counter: %w", err)
	}

	return m, nil
}

// RecordWorkflowRun records one completed workflow run.
func (m *Metrics) RecordWorkflowRun(ctx context.Context, status string, duration time.Duration) {
	if m == nil || m.workflowRunsTotal == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String(attrStatus, status))
	m.workflowRunsTotal.Add(ctx, 1, attrs)
	m.workflowDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordGateDecision records one validation gate verdict.
func (m *Metrics) RecordGateDecision(ctx context.Context, decision string) {
	if m == nil || m.gateDecisionsTotal == nil {
		return
	}
	m.gateDecisionsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrDecision, decision)))
}

// RecordPIIFinding records one finding by category label.
func (m *Metrics) RecordPIIFinding(ctx context.Context, category string) {
	if m == nil || m.piiFindingsTotal == nil {
		return
	}
	m.piiFindingsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrCategory, category)))
}

// RecordPlanAction records a plan action reaching a terminal status.
func (m *Metrics) RecordPlanAction(ctx context.Context, kind, status string, duration time.Duration) {
	if m == nil || m.planActionsTotal == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(attrKind, kind),
		attribute.String(attrStatus, status),
	)
	m.planActionsTotal.Add(ctx, 1, attrs)
	m.actionDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String(attrKind, kind)))
}

// RecordActionRetry records one retry of a transiently failed action.
func (m *Metrics) RecordActionRetry(ctx context.Context, kind string) {
	if m == nil || m.actionRetryTotal == nil {
		return
	}
	m.actionRetryTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrKind, kind)))
}

// RecordGoogleAPIOperation records one Google API call.
func (m *Metrics) RecordGoogleAPIOperation(ctx context.Context, service, operation, status string, duration time.Duration) {
	if m == nil || m.googleAPICalls == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(attrService, service),
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	)
	m.googleAPICalls.Add(ctx, 1, attrs)
	m.googleAPIDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String(attrService, service),
		attribute.String(attrOperation, operation),
	))
}

// RecordToolInvocation records one MCP tool call.
func (m *Metrics) RecordToolInvocation(ctx context.Context, tool, status string) {
	if m == nil || m.toolInvocationsTotal == nil {
		return
	}
	m.toolInvocationsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrTool, tool),
		attribute.String(attrStatus, status),
	))
}
