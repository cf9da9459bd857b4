package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"strings"

	gmail "google.golang.org/api/gmail/v1"
)

// OutboundMessage is an email ready to send. The caller is responsible
// for running it through the validation gate first.
type OutboundMessage struct {
	To      []string
	Cc      []string
	Bcc     []string
	Subject string
	Body    string
	IsHTML  bool

	// ThreadID, InReplyTo and References thread the message into an
	// existing conversation when set.
	ThreadID   string
	InReplyTo  string
	References string
}

// Send sends a message through the Gmail API and returns its ID.
func (c *Client) Send(ctx context.Context, msg *OutboundMessage) (string, error) {
	if len(msg.To) == 0 {
		return "", fmt.Errorf("at least one recipient is required")
	}
	if msg.Subject == "" {
		return "", fmt.Errorf("subject is required")
	}
	if msg.Body == "" {
		return "", fmt.Errorf("body is required")
	}

	gmailMsg := &gmail.Message{
		Raw:      base64.URLEncoding.EncodeToString([]byte(buildRFC2822(msg))),
		ThreadId: msg.ThreadID,
	}

	sent, err := c.svc.Messages.Send("me", gmailMsg).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to send email: %w", err)
	}

	return sent.Id, nil
}

// Reply sends a reply on an existing message, carrying the threading
// headers over from the original.
func (c *Client) Reply(ctx context.Context, messageID, body string) (string, error) {
	if messageID == "" {
		return "", fmt.Errorf("messageID is required")
	}
	if body == "" {
		return "", fmt.Errorf("body is required")
	}

	orig, err := c.GetMessage(ctx, messageID)
	if err != nil {
		return "", fmt.Errorf("failed to get original message: %w", err)
	}

	from := HeaderValue(orig, "From")
	if from == "" {
		return "", fmt.Errorf("original message has no From header")
	}

	subject := HeaderValue(orig, "Subject")
	if !strings.HasPrefix(strings.ToLower(subject), "re:") {
		subject = "Re: " + subject
	}

	origMessageID := HeaderValue(orig, "Message-ID")
	references := HeaderValue(orig, "References")
	if references != "" {
		references = references + " " + origMessageID
	} else {
		references = origMessageID
	}

	return c.Send(ctx, &OutboundMessage{
		To:         []string{from},
		Subject:    subject,
		Body:       body,
		ThreadID:   orig.ThreadId,
		InReplyTo:  origMessageID,
		References: references,
	})
}

// buildRFC2822 renders the message headers and body in RFC 2822 format.
func buildRFC2822(msg *OutboundMessage) string {
	var b strings.Builder

	b.WriteString("To: ")
	b.WriteString(strings.Join(msg.To, ", "))
	b.WriteString("\r\n")

	if len(msg.Cc) > 0 {
		b.WriteString("Cc: ")
		b.WriteString(strings.Join(msg.Cc, ", "))
		b.WriteString("\r\n")
	}

	if len(msg.Bcc) > 0 {
		b.WriteString("Bcc: ")
		b.WriteString(strings.Join(msg.Bcc, ", "))
		b.WriteString("\r\n")
	}

	b.WriteString("Subject: ")
	b.WriteString(encodeRFC2047(msg.Subject))
	b.WriteString("\r\n")

	if msg.InReplyTo != "" {
		b.WriteString("In-Reply-To: ")
		b.WriteString(msg.InReplyTo)
		b.WriteString("\r\n")
	}
	if msg.References != "" {
		b.WriteString("References: ")
		b.WriteString(msg.References)
		b.WriteString("\r\n")
	}

	if msg.IsHTML {
		b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	} else {
		b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	}
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("\r\n")

	b.WriteString(msg.Body)

	return b.String()
}

// encodeRFC2047 encodes a header value when it contains non-ASCII
// characters, such as umlauts in a subject line.
func encodeRFC2047(s string) string {
	for _, r := range s {
		if r > 127 {
			return mime.BEncoding.Encode("UTF-8", s)
		}
	}
	return s
}
