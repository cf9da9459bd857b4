// Package assistant_tools exposes the drafting workflow over MCP: one
// tool to process a request end to end, one to scan text for PII, and
// one to gate a draft.
package assistant_tools
