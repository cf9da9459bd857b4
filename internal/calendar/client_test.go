package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	calendar "google.golang.org/api/calendar/v3"
)

func TestToEventSummary(t *testing.T) {
	event := &calendar.Event{
		Id:       "evt-1",
		Summary:  "Project sync",
		Location: "Room 4",
		Status:   "confirmed",
		HtmlLink: "https://calendar.google.com/event?eid=evt-1",
		Start:    &calendar.EventDateTime{DateTime: "2026-03-11T15:00:00Z"},
		End:      &calendar.EventDateTime{DateTime: "2026-03-11T16:00:00Z"},
		Attendees: []*calendar.EventAttendee{
			{Email: "alice@example.com"},
			{Email: "bob@example.com"},
		},
	}

	got := toEventSummary(event)

	assert.Equal(t, "evt-1", got.ID)
	assert.Equal(t, "Project sync", got.Summary)
	assert.Equal(t, "Room 4", got.Location)
	assert.Equal(t, "confirmed", got.Status)
	assert.Equal(t, time.Date(2026, 3, 11, 15, 0, 0, 0, time.UTC), got.Start.UTC())
	assert.Equal(t, time.Hour, got.End.Sub(got.Start))
	assert.Equal(t, []string{"alice@example.com", "bob@example.com"}, got.Attendees)
}

func TestToEventSummaryAllDayEvent(t *testing.T) {
	// All-day events carry Date rather than DateTime; times stay zero.
	event := &calendar.Event{
		Id:    "evt-2",
		Start: &calendar.EventDateTime{Date: "2026-03-11"},
		End:   &calendar.EventDateTime{Date: "2026-03-12"},
	}

	got := toEventSummary(event)

	assert.True(t, got.Start.IsZero())
	assert.True(t, got.End.IsZero())
}
