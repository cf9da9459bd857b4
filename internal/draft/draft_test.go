package draft

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWellformed(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		artifact Artifact
		wantErr  string
	}{
		{
			name: "complete email",
			artifact: Artifact{
				Subject: "Project update",
				Body:    "Hello,\n\nStatus attached.",
				To:      []string{"jane@example.com"},
			},
		},
		{
			name: "missing subject",
			artifact: Artifact{
				Body: "hi",
				To:   []string{"jane@example.com"},
			},
			wantErr: "missing subject",
		},
		{
			name: "missing body",
			artifact: Artifact{
				Subject: "hi",
				To:      []string{"jane@example.com"},
			},
			wantErr: "missing body",
		},
		{
			name: "no recipients",
			artifact: Artifact{
				Subject: "hi",
				Body:    "hi",
			},
			wantErr: "no recipients",
		},
		{
			name: "malformed recipient",
			artifact: Artifact{
				Subject: "hi",
				Body:    "hi",
				To:      []string{"not an address"},
			},
			wantErr: "invalid recipient",
		},
		{
			name: "named address is accepted",
			artifact: Artifact{
				Subject: "hi",
				Body:    "hi",
				To:      []string{"Jane Doe <jane@example.com>"},
			},
		},
		{
			name: "event without summary",
			artifact: Artifact{
				Subject: "Meeting",
				Body:    "see you there",
				To:      []string{"jane@example.com"},
				Event:   &EventDetails{Start: now, End: now.Add(time.Hour)},
			},
			wantErr: "event without summary",
		},
		{
			name: "event ends before start",
			artifact: Artifact{
				Subject: "Meeting",
				Body:    "see you there",
				To:      []string{"jane@example.com"},
				Event:   &EventDetails{Summary: "Sync", Start: now, End: now.Add(-time.Hour)},
			},
			wantErr: "ends before it starts",
		},
		{
			name: "complete event",
			artifact: Artifact{
				Subject: "Meeting",
				Body:    "see you there",
				To:      []string{"jane@example.com"},
				Event: &EventDetails{
					Summary:   "Sync",
					Start:     now,
					End:       now.Add(time.Hour),
					Attendees: []string{"jane@example.com"},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.artifact.Wellformed()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}
