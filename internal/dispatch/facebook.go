package dispatch

import (
	"context"
	"strings"
	"time"

	"github.com/CrackedOnTiti/AREA/internal/providers"
	"github.com/CrackedOnTiti/AREA/internal/store"
)

// postFingerprint truncates the post message to its first 50 runes; empty
// posts log as "No message".
func postFingerprint(p providers.Post) string {
	preview := p.Message
	if preview == "" {
		preview = "No message"
	}
	if r := []rune(preview); len(r) > 50 {
		preview = string(r[:50])
	}
	return "Facebook post: " + preview
}

// facebookChecker fires on the first unseen timeline post, optionally
// filtered by a keyword.
type facebookChecker struct {
	kind     string
	facebook *providers.Facebook
	store    *store.Store
	tokens   *tokens
	clock    Clock
	lookback time.Duration
}

func (c *facebookChecker) Check(ctx context.Context, w store.Workflow) Outcome {
	token, err := c.tokens.access(ctx, w.UserID, "facebook")
	if err != nil {
		return Outcome{Err: err.Error()}
	}

	since := c.clock.Now().Add(-c.lookback)
	posts, err := c.facebook.RecentPosts(ctx, token, since, probeLimit)
	if err != nil {
		return Outcome{Err: err.Error()}
	}

	for _, post := range posts {
		fp := postFingerprint(post)
		seen, err := c.store.FindLogByMessage(w.ID, fp)
		if err != nil {
			return Outcome{Err: err.Error()}
		}
		if seen != nil {
			continue
		}

		switch c.kind {
		case ActionNewPostCreated:
			return Outcome{Fired: true, Metadata: fp}
		case ActionPostContainsKeyword:
			keyword := stringConfig(w.ActionConfig, "keyword")
			if keyword != "" && strings.Contains(strings.ToLower(post.Message), strings.ToLower(keyword)) {
				return Outcome{Fired: true, Metadata: fp}
			}
		}
	}
	return Outcome{}
}

// facebookExecutor publishes the configured message to the user's feed.
type facebookExecutor struct {
	facebook *providers.Facebook
	tokens   *tokens
}

func (e *facebookExecutor) Execute(ctx context.Context, w store.Workflow) Result {
	message := stringConfig(w.ReactionConfig, "message")
	if message == "" {
		return Result{Err: "missing message in reaction config"}
	}

	token, err := e.tokens.access(ctx, w.UserID, "facebook")
	if err != nil {
		return Result{Err: err.Error()}
	}

	if err := e.facebook.CreatePost(ctx, token, message); err != nil {
		return Result{Err: err.Error()}
	}
	return Result{Success: true, Message: "Post created successfully"}
}
