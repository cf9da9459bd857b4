// Package instrumentation wires OpenTelemetry metrics and tracing for the
// assistant. Metrics cover workflow runs, gate decisions, PII findings (by
// category only), plan action execution and Google API calls. Exporters are
// selected by configuration: prometheus, OTLP or stdout for metrics; OTLP,
// stdout or none for traces.
package instrumentation
