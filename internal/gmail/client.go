package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"

	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// Client wraps the Gmail Users service.
type Client struct {
	svc *gmail.UsersService
}

// NewClient creates a Gmail client on top of an authenticated HTTP
// client.
func NewClient(ctx context.Context, httpClient *http.Client) (*Client, error) {
	svc, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}

	return &Client{svc: svc.Users}, nil
}

// Message is a simplified view of a mailbox message.
type Message struct {
	ID       string
	ThreadID string
	From     string
	To       string
	Subject  string
	Date     string
	Snippet  string
}

// Search lists messages matching a Gmail query, up to maxResults,
// paginating as needed.
func (c *Client) Search(ctx context.Context, query string, maxResults int64) ([]Message, error) {
	if maxResults <= 0 {
		maxResults = 20
	}

	var ids []string
	pageToken := ""
	for {
		remaining := maxResults - int64(len(ids))
		if remaining <= 0 {
			break
		}
		pageSize := remaining
		if pageSize > 100 {
			pageSize = 100
		}

		req := c.svc.Messages.List("me").Q(query).MaxResults(pageSize).Context(ctx)
		if pageToken != "" {
			req = req.PageToken(pageToken)
		}
		res, err := req.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to search messages: %w", err)
		}
		for _, m := range res.Messages {
			ids = append(ids, m.Id)
		}
		if res.NextPageToken == "" {
			break
		}
		pageToken = res.NextPageToken
	}

	messages := make([]Message, 0, len(ids))
	for _, id := range ids {
		msg, err := c.svc.Messages.Get("me", id).Format("metadata").
			MetadataHeaders("From", "To", "Subject", "Date").
			Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("failed to get message %s: %w", id, err)
		}
		messages = append(messages, Message{
			ID:       msg.Id,
			ThreadID: msg.ThreadId,
			From:     HeaderValue(msg, "From"),
			To:       HeaderValue(msg, "To"),
			Subject:  HeaderValue(msg, "Subject"),
			Date:     HeaderValue(msg, "Date"),
			Snippet:  msg.Snippet,
		})
	}

	return messages, nil
}

// GetMessage retrieves a full message.
func (c *Client) GetMessage(ctx context.Context, messageID string) (*gmail.Message, error) {
	msg, err := c.svc.Messages.Get("me", messageID).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get message %s: %w", messageID, err)
	}
	return msg, nil
}

// MessageBody extracts the plain text body from a message, falling back
// to HTML when no plain text part exists.
func (c *Client) MessageBody(ctx context.Context, messageID string) (string, error) {
	msg, err := c.GetMessage(ctx, messageID)
	if err != nil {
		return "", err
	}

	body := extractBody(msg.Payload, "text/plain")
	if body == "" {
		body = extractBody(msg.Payload, "text/html")
	}
	if body == "" {
		return "", fmt.Errorf("no readable body found in message %s", messageID)
	}

	decoded, err := base64.URLEncoding.DecodeString(body)
	if err != nil {
		decoded, err = base64.StdEncoding.DecodeString(body)
		if err != nil {
			return "", fmt.Errorf("failed to decode message body: %w", err)
		}
	}

	return string(decoded), nil
}

// extractBody walks message parts depth-first for the first part of the
// wanted MIME type.
func extractBody(part *gmail.MessagePart, mimeType string) string {
	if part == nil {
		return ""
	}
	if part.MimeType == mimeType && part.Body != nil && part.Body.Data != "" {
		return part.Body.Data
	}
	for _, sub := range part.Parts {
		if body := extractBody(sub, mimeType); body != "" {
			return body
		}
	}
	return ""
}

// HeaderValue returns the value of a header on a message, or "".
func HeaderValue(m *gmail.Message, header string) string {
	if m == nil || m.Payload == nil {
		return ""
	}
	for _, h := range m.Payload.Headers {
		if h.Name == header {
			return h.Value
		}
	}
	return ""
}
