// Package gate is the validation checkpoint between draft generation and
// sending. It scans a draft artifact for sensitive data and renders one of
// three decisions: approve untouched, redact and approve the sanitized copy,
// or block. Which categories are redactable and which hard-block is a policy
// input, not a built-in.
//
// The gate never sends anything itself; callers act on the verdict.
package gate
