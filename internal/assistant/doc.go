// Package assistant orchestrates the drafting workflow: it scans the
// incoming request, retrieves mailbox context, plans the required
// actions, executes them, and gates every outbound draft on the PII
// scanner before anything can be sent.
package assistant
