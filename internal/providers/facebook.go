package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const facebookBaseURL = "https://graph.facebook.com/v18.0"

// Facebook talks to the Graph API for the user's own timeline.
type Facebook struct {
	BaseURL string
	HTTP    *http.Client
}

func NewFacebook(client *http.Client) *Facebook {
	return &Facebook{BaseURL: facebookBaseURL, HTTP: defaultHTTPClient(client)}
}

// Post is one timeline entry.
type Post struct {
	ID        string
	Message   string
	CreatedAt time.Time
	Permalink string
}

type facebookFeed struct {
	Data []struct {
		ID           string `json:"id"`
		Message      string `json:"message"`
		CreatedTime  string `json:"created_time"`
		PermalinkURL string `json:"permalink_url"`
	} `json:"data"`
}

// RecentPosts lists the user's posts created after since.
func (f *Facebook) RecentPosts(ctx context.Context, token string, since time.Time, limit int) ([]Post, error) {
	q := url.Values{}
	q.Set("access_token", token)
	q.Set("fields", "id,message,created_time,permalink_url")
	q.Set("limit", strconv.Itoa(limit))
	if !since.IsZero() {
		q.Set("since", strconv.FormatInt(since.Unix(), 10))
	}

	var feed facebookFeed
	if err := apiRequest(ctx, f.HTTP, http.MethodGet, f.BaseURL+"/me/posts?"+q.Encode(), nil, nil, &feed); err != nil {
		return nil, fmt.Errorf("facebook: list posts: %w", err)
	}

	posts := make([]Post, 0, len(feed.Data))
	for _, p := range feed.Data {
		post := Post{ID: p.ID, Message: p.Message, Permalink: p.PermalinkURL}
		post.CreatedAt = parseGraphTime(p.CreatedTime)
		posts = append(posts, post)
	}
	return posts, nil
}

// parseGraphTime handles the Graph API timestamp format, which writes
// numeric offsets without a colon ("+0000") and so fails RFC3339.
func parseGraphTime(s string) time.Time {
	for _, layout := range []string{"2006-01-02T15:04:05-0700", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// CreatePost publishes a message to the user's feed.
func (f *Facebook) CreatePost(ctx context.Context, token, message string) error {
	q := url.Values{}
	q.Set("access_token", token)
	q.Set("message", message)

	if err := apiRequest(ctx, f.HTTP, http.MethodPost, f.BaseURL+"/me/feed?"+q.Encode(), nil, nil, nil); err != nil {
		return fmt.Errorf("facebook: create post: %w", err)
	}
	return nil
}
