package dispatch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/CrackedOnTiti/AREA/internal/providers"
	"github.com/CrackedOnTiti/AREA/internal/store"
)

// gmailChecker probes the inbox for a matching message that has not been
// logged for this workflow yet. The fingerprint doubles as the dedup key.
type gmailChecker struct {
	kind     string
	gmail    *providers.Gmail
	store    *store.Store
	tokens   *tokens
	clock    Clock
	lookback time.Duration
}

func emailFingerprint(e providers.Email) string {
	return fmt.Sprintf("Email from %s: %s", e.Sender, e.Subject)
}

func (c *gmailChecker) Check(ctx context.Context, w store.Workflow) Outcome {
	token, err := c.tokens.access(ctx, w.UserID, "gmail")
	if err != nil {
		return Outcome{Err: err.Error()}
	}

	since := c.clock.Now().Add(-c.lookback)
	emails, err := c.gmail.RecentEmails(ctx, token, since, probeLimit)
	if err != nil {
		return Outcome{Err: err.Error()}
	}

	for _, email := range emails {
		fp := emailFingerprint(email)
		seen, err := c.store.FindLogByMessage(w.ID, fp)
		if err != nil {
			return Outcome{Err: err.Error()}
		}
		if seen != nil {
			continue
		}

		switch c.kind {
		case ActionEmailReceivedFrom:
			sender := stringConfig(w.ActionConfig, "sender")
			if sender != "" && strings.Contains(strings.ToLower(email.Sender), strings.ToLower(sender)) {
				return Outcome{Fired: true, Metadata: fp}
			}
		case ActionEmailSubjectContains:
			keyword := stringConfig(w.ActionConfig, "keyword")
			if keyword != "" && strings.Contains(strings.ToLower(email.Subject), strings.ToLower(keyword)) {
				return Outcome{Fired: true, Metadata: fp}
			}
		}
	}
	return Outcome{}
}
