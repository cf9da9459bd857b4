// Package logging provides slog attribute helpers with consistent key names
// and PII-safe value sanitizers. Raw sensitive values (emails, tokens,
// matched PII text) must never reach a log line; use the hashing and masking
// helpers here instead, and report findings by category and span length.
package logging
