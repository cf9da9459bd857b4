package contacts

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/option"
	people "google.golang.org/api/people/v1"
)

const readMask = "names,emailAddresses,phoneNumbers"

// Client wraps the People service.
type Client struct {
	svc *people.Service
}

// NewClient creates a People client on top of an authenticated HTTP
// client.
func NewClient(ctx context.Context, httpClient *http.Client) (*Client, error) {
	svc, err := people.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create People service: %w", err)
	}

	return &Client{svc: svc}, nil
}

// Contact is a simplified contact entry.
type Contact struct {
	ResourceName string
	DisplayName  string
	EmailAddress string
	PhoneNumber  string
}

// Search finds contacts matching the query across personal contacts,
// interaction history and the Workspace directory. Sources that fail,
// such as the directory on consumer accounts, are skipped.
func (c *Client) Search(ctx context.Context, query string, pageSize int) ([]Contact, error) {
	if pageSize <= 0 {
		pageSize = 10
	}

	var all []Contact
	seen := make(map[string]bool)
	add := func(p *people.Person) {
		contact, ok := extractContact(p)
		if !ok || contact.EmailAddress == "" || seen[contact.EmailAddress] {
			return
		}
		seen[contact.EmailAddress] = true
		all = append(all, contact)
	}

	resp, err := c.svc.People.SearchContacts().
		Query(query).
		ReadMask(readMask).
		PageSize(int64(pageSize * 2)).
		Context(ctx).Do()
	if err == nil {
		for _, result := range resp.Results {
			add(result.Person)
		}
	}

	// Other contacts have no server-side query; filter pages locally.
	queryLower := strings.ToLower(query)
	pageToken := ""
	for pages := 0; pages < 10 && len(all) < pageSize; pages++ {
		req := c.svc.OtherContacts.List().
			ReadMask(readMask).
			PageSize(100).
			Context(ctx)
		if pageToken != "" {
			req = req.PageToken(pageToken)
		}

		otherResp, err := req.Do()
		if err != nil {
			break
		}
		for _, person := range otherResp.OtherContacts {
			if contact, ok := extractContact(person); ok && matchesQuery(contact, queryLower) {
				add(person)
			}
		}

		pageToken = otherResp.NextPageToken
		if pageToken == "" {
			break
		}
	}

	// Directory search works on Workspace accounts only.
	dirResp, err := c.svc.People.SearchDirectoryPeople().
		Query(query).
		ReadMask(readMask).
		Sources("DIRECTORY_SOURCE_TYPE_DOMAIN_PROFILE").
		PageSize(int64(pageSize * 2)).
		Context(ctx).Do()
	if err == nil {
		for _, person := range dirResp.People {
			add(person)
		}
	}

	if len(all) > pageSize {
		all = all[:pageSize]
	}

	return all, nil
}

// extractContact maps a Person onto a Contact, reporting false when the
// record carries no usable information.
func extractContact(person *people.Person) (Contact, bool) {
	if person == nil {
		return Contact{}, false
	}

	contact := Contact{ResourceName: person.ResourceName}

	if len(person.Names) > 0 {
		contact.DisplayName = person.Names[0].DisplayName
	}
	if len(person.EmailAddresses) > 0 {
		contact.EmailAddress = person.EmailAddresses[0].Value
	}
	if len(person.PhoneNumbers) > 0 {
		contact.PhoneNumber = person.PhoneNumbers[0].Value
	}

	if contact.DisplayName == "" && contact.EmailAddress == "" && contact.PhoneNumber == "" {
		return Contact{}, false
	}

	return contact, true
}

func matchesQuery(contact Contact, queryLower string) bool {
	if queryLower == "" {
		return true
	}
	return strings.Contains(strings.ToLower(contact.DisplayName), queryLower) ||
		strings.Contains(strings.ToLower(contact.EmailAddress), queryLower) ||
		strings.Contains(contact.PhoneNumber, queryLower)
}
