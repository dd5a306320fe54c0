package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/CrackedOnTiti/AREA/internal/providers"
	"github.com/CrackedOnTiti/AREA/internal/store"
)

// githubChecker watches one repository for stars, issues or pull
// requests, firing on the first unseen event.
type githubChecker struct {
	kind     string
	github   *providers.GitHub
	store    *store.Store
	tokens   *tokens
	clock    Clock
	lookback time.Duration
}

func starFingerprint(s providers.Star) string {
	return "New star from " + s.User
}

func issueFingerprint(i providers.Issue) string {
	return fmt.Sprintf("Issue #%d: %s", i.Number, i.Title)
}

func pullFingerprint(p providers.Issue) string {
	return fmt.Sprintf("PR #%d: %s", p.Number, p.Title)
}

func (c *githubChecker) Check(ctx context.Context, w store.Workflow) Outcome {
	repo := stringConfig(w.ActionConfig, "repo_name")
	if repo == "" {
		return Outcome{Err: "missing repo_name in action config"}
	}

	token, err := c.tokens.access(ctx, w.UserID, "github")
	if err != nil {
		return Outcome{Err: err.Error()}
	}
	since := c.clock.Now().Add(-c.lookback)

	switch c.kind {
	case ActionNewStarOnRepo:
		stars, err := c.github.RecentStargazers(ctx, token, repo, since, probeLimit)
		if err != nil {
			return Outcome{Err: err.Error()}
		}
		for _, star := range stars {
			if out, done := c.firstUnseen(w.ID, starFingerprint(star)); done {
				return out
			}
		}

	case ActionNewIssueCreated:
		issues, err := c.github.RecentIssues(ctx, token, repo, since, probeLimit)
		if err != nil {
			return Outcome{Err: err.Error()}
		}
		for _, issue := range issues {
			if out, done := c.firstUnseen(w.ID, issueFingerprint(issue)); done {
				return out
			}
		}

	case ActionNewPROpened:
		pulls, err := c.github.RecentPulls(ctx, token, repo, since, probeLimit)
		if err != nil {
			return Outcome{Err: err.Error()}
		}
		for _, pull := range pulls {
			if out, done := c.firstUnseen(w.ID, pullFingerprint(pull)); done {
				return out
			}
		}
	}
	return Outcome{}
}

// firstUnseen reports whether the fingerprint decides this evaluation:
// an unseen fingerprint fires, a lookup failure surfaces as an error,
// and a seen one moves on to the next event.
func (c *githubChecker) firstUnseen(workflowID int64, fp string) (Outcome, bool) {
	seen, err := c.store.FindLogByMessage(workflowID, fp)
	if err != nil {
		return Outcome{Err: err.Error()}, true
	}
	if seen != nil {
		return Outcome{}, false
	}
	return Outcome{Fired: true, Metadata: fp}, true
}

// githubExecutor opens an issue on the configured repository.
type githubExecutor struct {
	github *providers.GitHub
	tokens *tokens
}

func (e *githubExecutor) Execute(ctx context.Context, w store.Workflow) Result {
	repo := stringConfig(w.ReactionConfig, "repo_name")
	title := stringConfig(w.ReactionConfig, "title")
	if repo == "" || title == "" {
		return Result{Err: "missing repo_name or title in reaction config"}
	}
	body := stringConfig(w.ReactionConfig, "body")

	token, err := e.tokens.access(ctx, w.UserID, "github")
	if err != nil {
		return Result{Err: err.Error()}
	}

	if err := e.github.CreateIssue(ctx, token, repo, title, body); err != nil {
		return Result{Err: err.Error()}
	}
	return Result{Success: true, Message: fmt.Sprintf("Created issue: %s", title)}
}
