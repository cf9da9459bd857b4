// Package pii detects and redacts sensitive data in free text.
//
// The scanner is a pure function over its input: it runs a fixed set of
// pattern detectors (SSN, credit card, API key, phone, email, private key
// material) and reports non-overlapping findings with rune-offset spans.
// Credit card candidates are verified with the Luhn checksum to avoid
// flagging arbitrary digit runs.
//
// The redactor replaces each finding with a bracketed category placeholder
// such as [PHONE_REDACTED], working from the highest offset down so earlier
// spans stay valid while the string changes length.
package pii
