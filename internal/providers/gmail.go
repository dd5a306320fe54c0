package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const gmailBaseURL = "https://gmail.googleapis.com/gmail/v1"

// Gmail probes the Gmail REST API for a user's recent mail.
type Gmail struct {
	BaseURL string
	HTTP    *http.Client
}

func NewGmail(client *http.Client) *Gmail {
	return &Gmail{BaseURL: gmailBaseURL, HTTP: defaultHTTPClient(client)}
}

// Email is one inbox message reduced to the headers the checkers match on.
type Email struct {
	ID         string
	Sender     string
	Subject    string
	ReceivedAt time.Time
}

type gmailList struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

type gmailMessage struct {
	ID           string `json:"id"`
	InternalDate string `json:"internalDate"`
	Payload      struct {
		Headers []struct {
			Name  string `json:"name"`
			Value string `json:"value"`
		} `json:"headers"`
	} `json:"payload"`
}

// RecentEmails lists messages received after since and resolves their
// From/Subject headers.
func (g *Gmail) RecentEmails(ctx context.Context, token string, since time.Time, max int) ([]Email, error) {
	q := url.Values{}
	q.Set("q", "after:"+strconv.FormatInt(since.Unix(), 10))
	q.Set("maxResults", strconv.Itoa(max))

	var list gmailList
	if err := apiRequest(ctx, g.HTTP, http.MethodGet, g.BaseURL+"/users/me/messages?"+q.Encode(), bearerAuth(token), nil, &list); err != nil {
		return nil, fmt.Errorf("gmail: list messages: %w", err)
	}

	emails := make([]Email, 0, len(list.Messages))
	for _, m := range list.Messages {
		var msg gmailMessage
		if err := apiRequest(ctx, g.HTTP, http.MethodGet, g.BaseURL+"/users/me/messages/"+m.ID+"?format=full", bearerAuth(token), nil, &msg); err != nil {
			return nil, fmt.Errorf("gmail: get message %s: %w", m.ID, err)
		}

		email := Email{ID: msg.ID, Sender: "Unknown", Subject: "No Subject"}
		for _, h := range msg.Payload.Headers {
			switch strings.ToLower(h.Name) {
			case "from":
				email.Sender = h.Value
			case "subject":
				email.Subject = h.Value
			}
		}
		if ms, err := strconv.ParseInt(msg.InternalDate, 10, 64); err == nil {
			email.ReceivedAt = time.UnixMilli(ms).UTC()
		}
		emails = append(emails, email)
	}
	return emails, nil
}
