package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const githubBaseURL = "https://api.github.com"

// GitHub talks to the REST v3 API for repository activity.
type GitHub struct {
	BaseURL string
	HTTP    *http.Client
}

func NewGitHub(client *http.Client) *GitHub {
	return &GitHub{BaseURL: githubBaseURL, HTTP: defaultHTTPClient(client)}
}

// Star is one stargazer event.
type Star struct {
	User      string
	StarredAt time.Time
}

// Issue is one issue or pull request.
type Issue struct {
	Number    int
	Title     string
	User      string
	CreatedAt time.Time
	HTMLURL   string
}

func githubAuth(token string) map[string]string {
	return map[string]string{
		"Authorization": "token " + token,
		"Accept":        "application/vnd.github.v3+json",
	}
}

// RecentStargazers lists stargazers on owner/repo starred after since. The
// star media type is requested so timestamps are present.
func (g *GitHub) RecentStargazers(ctx context.Context, token, repo string, since time.Time, limit int) ([]Star, error) {
	headers := githubAuth(token)
	headers["Accept"] = "application/vnd.github.v3.star+json"

	var raw []struct {
		StarredAt string `json:"starred_at"`
		User      struct {
			Login string `json:"login"`
		} `json:"user"`
	}
	url := fmt.Sprintf("%s/repos/%s/stargazers?per_page=%d", g.BaseURL, repo, limit)
	if err := apiRequest(ctx, g.HTTP, http.MethodGet, url, headers, nil, &raw); err != nil {
		return nil, fmt.Errorf("github: list stargazers: %w", err)
	}

	var stars []Star
	for _, s := range raw {
		t, err := time.Parse(time.RFC3339, s.StarredAt)
		if err != nil {
			continue
		}
		if !since.IsZero() && t.Before(since) {
			continue
		}
		stars = append(stars, Star{User: s.User.Login, StarredAt: t})
	}
	return stars, nil
}

type githubIssue struct {
	Number      int             `json:"number"`
	Title       string          `json:"title"`
	CreatedAt   string          `json:"created_at"`
	HTMLURL     string          `json:"html_url"`
	PullRequest json.RawMessage `json:"pull_request"`
	User        struct {
		Login string `json:"login"`
	} `json:"user"`
}

// RecentIssues lists issues created after since, excluding pull requests
// (the issues endpoint reports both).
func (g *GitHub) RecentIssues(ctx context.Context, token, repo string, since time.Time, limit int) ([]Issue, error) {
	q := url.Values{}
	q.Set("state", "all")
	q.Set("sort", "created")
	q.Set("direction", "desc")
	q.Set("per_page", strconv.Itoa(limit))
	if !since.IsZero() {
		q.Set("since", since.UTC().Format(time.RFC3339))
	}

	var raw []githubIssue
	url := fmt.Sprintf("%s/repos/%s/issues?%s", g.BaseURL, repo, q.Encode())
	if err := apiRequest(ctx, g.HTTP, http.MethodGet, url, githubAuth(token), nil, &raw); err != nil {
		return nil, fmt.Errorf("github: list issues: %w", err)
	}

	var issues []Issue
	for _, i := range raw {
		if len(i.PullRequest) > 0 {
			continue
		}
		issues = append(issues, parseIssue(i))
	}
	return issues, nil
}

// RecentPulls lists pull requests created after since, newest first.
func (g *GitHub) RecentPulls(ctx context.Context, token, repo string, since time.Time, limit int) ([]Issue, error) {
	q := url.Values{}
	q.Set("state", "all")
	q.Set("sort", "created")
	q.Set("direction", "desc")
	q.Set("per_page", strconv.Itoa(limit))

	var raw []githubIssue
	url := fmt.Sprintf("%s/repos/%s/pulls?%s", g.BaseURL, repo, q.Encode())
	if err := apiRequest(ctx, g.HTTP, http.MethodGet, url, githubAuth(token), nil, &raw); err != nil {
		return nil, fmt.Errorf("github: list pulls: %w", err)
	}

	var pulls []Issue
	for _, p := range raw {
		pull := parseIssue(p)
		if !since.IsZero() && pull.CreatedAt.Before(since) {
			continue
		}
		pulls = append(pulls, pull)
	}
	return pulls, nil
}

func parseIssue(raw githubIssue) Issue {
	issue := Issue{Number: raw.Number, Title: raw.Title, User: raw.User.Login, HTMLURL: raw.HTMLURL}
	if t, err := time.Parse(time.RFC3339, raw.CreatedAt); err == nil {
		issue.CreatedAt = t
	}
	return issue
}

// CreateIssue opens an issue on owner/repo.
func (g *GitHub) CreateIssue(ctx context.Context, token, repo, title, body string) error {
	payload := map[string]string{"title": title, "body": body}
	url := fmt.Sprintf("%s/repos/%s/issues", g.BaseURL, repo)
	if err := apiRequest(ctx, g.HTTP, http.MethodPost, url, githubAuth(token), payload, nil); err != nil {
		return fmt.Errorf("github: create issue: %w", err)
	}
	return nil
}
