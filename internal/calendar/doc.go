// Package calendar wraps the Google Calendar API for listing and
// creating events.
package calendar
