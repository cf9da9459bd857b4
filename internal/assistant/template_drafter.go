package assistant

import (
	"context"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/draftgate/draftgate/internal/draft"
)

// TemplateDrafter composes drafts deterministically from the request and
// its context. It is the fallback Drafter when no generative backend is
// configured, and it never invents content: the body is built from the
// request text, the retrieved snippets and the event details it is given.
type TemplateDrafter struct {
	// Signature closes every draft. Defaults to "Best regards,".
	Signature string
}

var requestPrefixPattern = regexp.MustCompile(`(?i)^(please\s+)?(send|write|draft|compose|email|reply to|forward|schedule)\b\s*(an?\s+email\s+(to\s+)?)?`)

// Draft implements the Drafter port.
func (d *TemplateDrafter) Draft(_ context.Context, req DraftRequest) (draft.Artifact, error) {
	var body strings.Builder
	body.WriteString("Hello,\n\n")
	body.WriteString(draftMessage(req.Request))
	body.WriteString("\n")

	if req.Event != nil {
		body.WriteString("\n")
		body.WriteString(eventSection(req.Event))
	}

	if req.ReplyTo != nil {
		if quoted := replySection(req.ReplyTo); quoted != "" {
			body.WriteString("\n")
			body.WriteString(quoted)
		}
	} else if ctx := contextSection(req.Snippets); ctx != "" {
		body.WriteString("\n")
		body.WriteString(ctx)
	}

	body.WriteString("\n")
	body.WriteString(d.signature())
	body.WriteString("\n")

	artifact := draft.Artifact{
		Subject: draftSubject(req),
		Body:    body.String(),
		To:      req.Recipients,
		Event:   req.Event,
	}
	if req.ReplyTo != nil {
		artifact.InReplyTo = req.ReplyTo.MessageID
	}
	return artifact, nil
}

func (d *TemplateDrafter) signature() string {
	if d.Signature != "" {
		return d.Signature
	}
	return "Best regards,"
}

// strippedRequest removes the imperative lead-in ("send an email to ...")
// and bare addresses, which are noise for the reader.
func strippedRequest(request string) string {
	msg := requestPrefixPattern.ReplaceAllString(strings.TrimSpace(request), "")
	msg = emailAddressPattern.ReplaceAllString(msg, "")
	msg = strings.TrimLeft(msg, " ,.:;")
	return strings.Join(strings.Fields(msg), " ")
}

func draftMessage(request string) string {
	msg := strippedRequest(request)
	if msg == "" {
		return strings.TrimSpace(request)
	}
	return upperFirst(msg) + ensurePeriod(msg)
}

func draftSubject(req DraftRequest) string {
	if req.Event != nil && req.Event.Summary != "" {
		return "Invitation: " + req.Event.Summary
	}
	if req.ReplyTo != nil && req.ReplyTo.Subject != "" {
		return replySubject(req.ReplyTo.Subject)
	}
	msg := strippedRequest(req.Request)
	if msg == "" {
		return "No subject"
	}
	msg = upperFirst(msg)
	if r := []rune(msg); len(r) > 78 {
		msg = strings.TrimSpace(string(r[:78]))
	}
	return msg
}

func eventSection(ev *draft.EventDetails) string {
	var b strings.Builder
	b.WriteString("You are invited to: ")
	b.WriteString(ev.Summary)
	b.WriteString("\n")
	if !ev.Start.IsZero() {
		b.WriteString("When: ")
		b.WriteString(ev.Start.Format("Monday, January 2 2006 at 15:04 MST"))
		if !ev.End.IsZero() {
			b.WriteString(" to ")
			b.WriteString(ev.End.Format("15:04 MST"))
		}
		b.WriteString("\n")
	}
	if ev.Location != "" {
		b.WriteString("Where: ")
		b.WriteString(ev.Location)
		b.WriteString("\n")
	}
	return b.String()
}

func replySubject(subject string) string {
	if strings.HasPrefix(strings.ToLower(subject), "re:") {
		return subject
	}
	return "Re: " + subject
}

// replySection quotes the message being answered. Its body was sanitized
// before it reached the drafter.
func replySection(orig *ReplyContext) string {
	if orig.Body == "" {
		return ""
	}
	var b strings.Builder
	if orig.From != "" {
		b.WriteString(orig.From)
		b.WriteString(" wrote:\n")
	}
	for _, line := range strings.Split(strings.TrimSpace(orig.Body), "\n") {
		b.WriteString("> ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

// contextSection quotes the top retrieved snippets. The snippets were
// sanitized during retrieval, so quoting them cannot reintroduce PII the
// gate would have to catch.
func contextSection(snippets []Snippet) string {
	if len(snippets) == 0 {
		return ""
	}
	max := 3
	if len(snippets) < max {
		max = len(snippets)
	}
	var b strings.Builder
	b.WriteString("For context:\n")
	for _, s := range snippets[:max] {
		line := strings.Join(strings.Fields(s.Text), " ")
		if line == "" {
			continue
		}
		b.WriteString("> ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func ensurePeriod(s string) string {
	if strings.HasSuffix(s, ".") || strings.HasSuffix(s, "!") || strings.HasSuffix(s, "?") {
		return ""
	}
	return "."
}
