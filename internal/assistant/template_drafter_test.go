package assistant

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftgate/draftgate/internal/draft"
)

func TestTemplateDrafterComposeBody(t *testing.T) {
	d := &TemplateDrafter{}

	artifact, err := d.Draft(t.Context(), DraftRequest{
		Request:    "email bob@example.com about the quarterly report",
		Recipients: []string{"bob@example.com"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"bob@example.com"}, artifact.To)
	assert.Equal(t, "About the quarterly report", artifact.Subject)
	assert.True(t, strings.HasPrefix(artifact.Body, "Hello,\n\n"), "body should open with a greeting: %q", artifact.Body)
	assert.Contains(t, artifact.Body, "About the quarterly report.")
	assert.NotContains(t, artifact.Body, "bob@example.com", "addresses belong in headers, not the body")
	assert.Contains(t, artifact.Body, "Best regards,")
	require.NoError(t, artifact.Wellformed())
}

func TestTemplateDrafterEventSection(t *testing.T) {
	d := &TemplateDrafter{}

	start := time.Date(2026, time.March, 11, 15, 0, 0, 0, time.UTC)
	artifact, err := d.Draft(t.Context(), DraftRequest{
		Request:    "schedule a sync with alice@example.com tomorrow at 3pm",
		Recipients: []string{"alice@example.com"},
		Event: &draft.EventDetails{
			Summary:   "Sync",
			Location:  "Room 4",
			Start:     start,
			End:       start.Add(time.Hour),
			Attendees: []string{"alice@example.com"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "Invitation: Sync", artifact.Subject)
	assert.Contains(t, artifact.Body, "You are invited to: Sync")
	assert.Contains(t, artifact.Body, "When: Wednesday, March 11 2026 at 15:00 UTC to 16:00 UTC")
	assert.Contains(t, artifact.Body, "Where: Room 4")
	require.NotNil(t, artifact.Event)
}

func TestTemplateDrafterQuotesSnippets(t *testing.T) {
	d := &TemplateDrafter{}

	artifact, err := d.Draft(t.Context(), DraftRequest{
		Request:    "reply to bob@example.com about the budget",
		Recipients: []string{"bob@example.com"},
		Snippets: []Snippet{
			{Text: "From: Bob\nSubject: Budget\nThe numbers look good."},
			{Text: "From: Bob\nSubject: Re: Budget\nOne open question remains."},
			{Text: "third"},
			{Text: "fourth is never quoted"},
		},
	})
	require.NoError(t, err)

	assert.Contains(t, artifact.Body, "For context:")
	assert.Contains(t, artifact.Body, "> From: Bob Subject: Budget The numbers look good.")
	assert.NotContains(t, artifact.Body, "fourth is never quoted")
}

func TestTemplateDrafterReply(t *testing.T) {
	d := &TemplateDrafter{}

	artifact, err := d.Draft(t.Context(), DraftRequest{
		Request:    "reply to bob@example.com yes, the numbers are final",
		Recipients: []string{"bob@example.com"},
		ReplyTo: &ReplyContext{
			MessageID: "orig-42",
			From:      "Bob <bob@example.com>",
			Subject:   "Q3 numbers",
			Body:      "Are the numbers final?",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "Re: Q3 numbers", artifact.Subject)
	assert.Equal(t, "orig-42", artifact.InReplyTo)
	assert.Contains(t, artifact.Body, "Bob <bob@example.com> wrote:\n> Are the numbers final?")
}

func TestReplySubject(t *testing.T) {
	assert.Equal(t, "Re: Q3 numbers", replySubject("Q3 numbers"))
	assert.Equal(t, "RE: Q3 numbers", replySubject("RE: Q3 numbers"))
}

func TestTemplateDrafterFallbackSubject(t *testing.T) {
	d := &TemplateDrafter{}

	artifact, err := d.Draft(t.Context(), DraftRequest{
		Request:    "email bob@example.com",
		Recipients: []string{"bob@example.com"},
	})
	require.NoError(t, err)
	assert.Equal(t, "No subject", artifact.Subject)
}

func TestTemplateDrafterMultibyteLeadingRune(t *testing.T) {
	d := &TemplateDrafter{}

	artifact, err := d.Draft(t.Context(), DraftRequest{
		Request:    "email bob@example.com état du projet pour vendredi",
		Recipients: []string{"bob@example.com"},
	})
	require.NoError(t, err)

	assert.True(t, utf8.ValidString(artifact.Subject), "subject must stay valid UTF-8: %q", artifact.Subject)
	assert.True(t, utf8.ValidString(artifact.Body), "body must stay valid UTF-8: %q", artifact.Body)
	assert.Equal(t, "État du projet pour vendredi", artifact.Subject)
	assert.Contains(t, artifact.Body, "État du projet pour vendredi.")
}

func TestDraftMessage(t *testing.T) {
	tests := []struct {
		name    string
		request string
		want    string
	}{
		{
			name:    "strips imperative lead-in and address",
			request: "send an email to bob@example.com about the launch",
			want:    "About the launch.",
		},
		{
			name:    "keeps sentence punctuation",
			request: "email carol@example.com are we still on for Friday?",
			want:    "Are we still on for Friday?",
		},
		{
			name:    "plain statement passes through",
			request: "the deadline moved to next Tuesday",
			want:    "The deadline moved to next Tuesday.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, draftMessage(tt.request))
		})
	}
}
