package pii

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedactPhone(t *testing.T) {
	scanner := NewScanner()
	text := "Call me at 555-123-4567 re: contract"

	report, err := scanner.Scan(text)
	require.NoError(t, err)

	redacted := Redact(text, report)
	assert.Equal(t, "Call me at [PHONE_REDACTED] re: contract", redacted.Sanitized)
	assert.NotContains(t, redacted.Sanitized, "555-123-4567")
}

func TestRedactMultipleFindings(t *testing.T) {
	scanner := NewScanner()
	text := "ssn 123-45-6789 card 4111 1111 1111 1111 phone 555-123-4567"

	report, err := scanner.Scan(text)
	require.NoError(t, err)
	require.Len(t, report.Findings, 3)

	redacted := Redact(text, report)
	assert.Contains(t, redacted.Sanitized, "[SSN_REDACTED]")
	assert.Contains(t, redacted.Sanitized, "[CREDIT_CARD_REDACTED]")
	assert.Contains(t, redacted.Sanitized, "[PHONE_REDACTED]")

	for _, f := range report.Findings {
		assert.NotContains(t, redacted.Sanitized, f.Match)
	}
}

func TestRedactClosedLoop(t *testing.T) {
	scanner := NewScanner()
	inputs := []string{
		"123-45-6789",
		"call 555-123-4567 or wire to 4111 1111 1111 1111",
		"api_key=9f8e7d6c5b4a39281706f5e4d3c2b1a09f8e7d6c done",
		"mail me: jane@example.org",
	}

	for _, text := range inputs {
		report, err := scanner.Scan(text)
		require.NoError(t, err)

		redacted := Redact(text, report)
		rescan, err := scanner.Scan(redacted.Sanitized)
		require.NoError(t, err)
		assert.True(t, rescan.Empty(), "rescan of %q found %v", redacted.Sanitized, rescan.Findings)
	}
}

func TestRedactUnicode(t *testing.T) {
	scanner := NewScanner()
	text := "früher 😀 123-45-6789 später"

	report, err := scanner.Scan(text)
	require.NoError(t, err)
	require.Len(t, report.Findings, 1)

	redacted := Redact(text, report)
	assert.Equal(t, "früher 😀 [SSN_REDACTED] später", redacted.Sanitized)
}

func TestRedactEmptyReport(t *testing.T) {
	text := "nothing sensitive here"
	redacted := Redact(text, Report{Length: len([]rune(text))})
	assert.Equal(t, text, redacted.Sanitized)
}
