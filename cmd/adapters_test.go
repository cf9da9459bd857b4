package cmd

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/draftgate/draftgate/internal/assistant"
	"github.com/draftgate/draftgate/internal/gate"
	"github.com/draftgate/draftgate/internal/gmail"
	"github.com/draftgate/draftgate/internal/pii"
)

func TestFormatSnippet(t *testing.T) {
	got := formatSnippet(gmail.Message{
		From:    "Bob <bob@example.com>",
		Subject: "Budget",
		Date:    "Tue, 24 Mar 2026 10:00:00 +0000",
		Snippet: "The numbers look good.",
	})

	assert.Equal(t,
		"From: Bob <bob@example.com>\nSubject: Budget\nDate: Tue, 24 Mar 2026 10:00:00 +0000\nThe numbers look good.",
		got)
}

func TestFormatSnippetOmitsEmptyDate(t *testing.T) {
	got := formatSnippet(gmail.Message{From: "a@example.com", Subject: "Hi"})
	assert.NotContains(t, got, "Date:")
}

func TestObserve(t *testing.T) {
	// A nil recorder is a no-op; the call's own error must still come back.
	err := observe(t.Context(), nil, "gmail", "search", func() error { return nil })
	assert.NoError(t, err)

	wantErr := errors.New("rate limited")
	err = observe(t.Context(), nil, "gmail", "search", func() error { return wantErr })
	assert.ErrorIs(t, err, wantErr)
}

func TestFormatEvent(t *testing.T) {
	start := time.Date(2026, time.March, 11, 15, 0, 0, 0, time.UTC)
	got := formatEvent(assistant.Event{
		Summary:   "Standup",
		Start:     start,
		End:       start.Add(30 * time.Minute),
		Attendees: []string{"alice@example.com"},
	})

	assert.Equal(t, "Standup (Wed Mar 11 15:00 - 15:30) with alice@example.com", got)
}

func TestBlockingCategoriesDeduplicates(t *testing.T) {
	verdict := &gate.Verdict{
		Blocking: []pii.Finding{
			{Category: pii.CategoryAPIKey},
			{Category: pii.CategorySSN},
			{Category: pii.CategoryAPIKey},
		},
	}

	assert.Equal(t, []string{"API_KEY", "SSN"}, blockingCategories(verdict))
}
