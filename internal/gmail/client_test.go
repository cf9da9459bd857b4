package gmail

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	gmail "google.golang.org/api/gmail/v1"
)

func TestBuildRFC2822(t *testing.T) {
	msg := &OutboundMessage{
		To:      []string{"alice@example.com", "bob@example.com"},
		Cc:      []string{"carol@example.com"},
		Subject: "Quarterly update",
		Body:    "See attached numbers.",
	}

	raw := buildRFC2822(msg)

	assert.Contains(t, raw, "To: alice@example.com, bob@example.com\r\n")
	assert.Contains(t, raw, "Cc: carol@example.com\r\n")
	assert.Contains(t, raw, "Subject: Quarterly update\r\n")
	assert.Contains(t, raw, "Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	assert.Contains(t, raw, "MIME-Version: 1.0\r\n")
	assert.True(t, strings.HasSuffix(raw, "\r\n\r\nSee attached numbers."))
	assert.NotContains(t, raw, "In-Reply-To")
}

func TestBuildRFC2822ThreadingHeaders(t *testing.T) {
	msg := &OutboundMessage{
		To:         []string{"alice@example.com"},
		Subject:    "Re: Quarterly update",
		Body:       "Looks good.",
		InReplyTo:  "<orig@mail.example.com>",
		References: "<root@mail.example.com> <orig@mail.example.com>",
	}

	raw := buildRFC2822(msg)

	assert.Contains(t, raw, "In-Reply-To: <orig@mail.example.com>\r\n")
	assert.Contains(t, raw, "References: <root@mail.example.com> <orig@mail.example.com>\r\n")
}

func TestBuildRFC2822HTML(t *testing.T) {
	msg := &OutboundMessage{
		To:      []string{"alice@example.com"},
		Subject: "Hello",
		Body:    "<p>Hi</p>",
		IsHTML:  true,
	}

	raw := buildRFC2822(msg)
	assert.Contains(t, raw, "Content-Type: text/html; charset=\"UTF-8\"\r\n")
}

func TestEncodeRFC2047(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"ascii passes through", "Meeting notes", "Meeting notes"},
		{"umlauts encoded", "Grüße aus München", "=?UTF-8?b?R3LDvMOfZSBhdXMgTcO8bmNoZW4=?="},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, encodeRFC2047(tt.input))
		})
	}
}

func TestHeaderValue(t *testing.T) {
	msg := &gmail.Message{
		Payload: &gmail.MessagePart{
			Headers: []*gmail.MessagePartHeader{
				{Name: "From", Value: "alice@example.com"},
				{Name: "Subject", Value: "Hello"},
			},
		},
	}

	assert.Equal(t, "alice@example.com", HeaderValue(msg, "From"))
	assert.Equal(t, "Hello", HeaderValue(msg, "Subject"))
	assert.Equal(t, "", HeaderValue(msg, "Date"))
	assert.Equal(t, "", HeaderValue(nil, "From"))
}

func TestExtractBody(t *testing.T) {
	plain := base64.URLEncoding.EncodeToString([]byte("plain body"))
	html := base64.URLEncoding.EncodeToString([]byte("<p>html body</p>"))

	payload := &gmail.MessagePart{
		MimeType: "multipart/alternative",
		Parts: []*gmail.MessagePart{
			{
				MimeType: "multipart/related",
				Parts: []*gmail.MessagePart{
					{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: plain}},
				},
			},
			{MimeType: "text/html", Body: &gmail.MessagePartBody{Data: html}},
		},
	}

	assert.Equal(t, plain, extractBody(payload, "text/plain"))
	assert.Equal(t, html, extractBody(payload, "text/html"))
	assert.Equal(t, "", extractBody(payload, "image/png"))
	assert.Equal(t, "", extractBody(nil, "text/plain"))
}
