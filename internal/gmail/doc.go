// Package gmail wraps the Gmail API for searching the mailbox and
// sending mail. Outbound messages are built in RFC 2822 format and must
// pass the validation gate before they reach Send.
package gmail
