// Package timeparse converts natural language scheduling expressions such
// as "tomorrow at 3pm for 90 minutes" into concrete start and end times.
package timeparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Result is a parsed scheduling window. Start and End carry the location
// of the reference time passed to Parse.
type Result struct {
	Start    time.Time
	End      time.Time
	Duration time.Duration
}

const defaultDuration = 60 * time.Minute

var (
	// Clock times need a meridiem or an explicit minute component, so a
	// bare count like "30 minutes" never reads as an hour of day.
	meridiemPattern = regexp.MustCompile(`\b(\d{1,2})(?::(\d{2}))?\s*(am|pm)\b`)
	clockPattern    = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\b`)
	durationPattern = regexp.MustCompile(`\b(\d+)\s*(hours?|hrs?|minutes?|mins?)\b`)
)

// Parse interprets text relative to now. It always returns a usable
// window: unrecognized expressions fall back to now with the default
// one hour duration.
func Parse(text string, now time.Time) Result {
	text = strings.ToLower(strings.TrimSpace(text))

	base := baseDate(text, now)

	start, ok := clockTime(text, base)
	if !ok {
		if sameDate(base, now) {
			start = base
		} else {
			// Future date with no time mentioned starts at 9am.
			start = atHourMinute(base, 9, 0)
		}
	}

	duration := parseDuration(text)

	return Result{
		Start:    start,
		End:      start.Add(duration),
		Duration: duration,
	}
}

func baseDate(text string, now time.Time) time.Time {
	switch {
	case strings.Contains(text, "tomorrow"):
		return now.AddDate(0, 0, 1)
	case strings.Contains(text, "next week"):
		return now.AddDate(0, 0, 7)
	case strings.Contains(text, "next month"):
		return now.AddDate(0, 0, 30)
	default:
		return now
	}
}

// clockTime extracts the first time of day mentioned in text and anchors
// it on base's date. It reports false when no valid time is present.
func clockTime(text string, base time.Time) (time.Time, bool) {
	if m := meridiemPattern.FindStringSubmatch(text); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute := 0
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		if hour < 1 || hour > 12 || minute > 59 {
			return time.Time{}, false
		}
		if m[3] == "pm" && hour < 12 {
			hour += 12
		} else if m[3] == "am" && hour == 12 {
			hour = 0
		}
		return atHourMinute(base, hour, minute), true
	}

	if m := clockPattern.FindStringSubmatch(text); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if hour > 23 || minute > 59 {
			return time.Time{}, false
		}
		return atHourMinute(base, hour, minute), true
	}

	return time.Time{}, false
}

func parseDuration(text string) time.Duration {
	m := durationPattern.FindStringSubmatch(text)
	if m == nil {
		return defaultDuration
	}
	value, _ := strconv.Atoi(m[1])
	if strings.HasPrefix(m[2], "hour") || strings.HasPrefix(m[2], "hr") {
		return time.Duration(value) * time.Hour
	}
	return time.Duration(value) * time.Minute
}

func atHourMinute(base time.Time, hour, minute int) time.Time {
	return time.Date(base.Year(), base.Month(), base.Day(), hour, minute, 0, 0, base.Location())
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
