package dispatch

import (
	"context"

	"github.com/CrackedOnTiti/AREA/internal/store"
)

// sendEmailExecutor dispatches through the SMTP collaborator. The
// success message is the string timer-driven workflows end up logging.
type sendEmailExecutor struct {
	mail MailSender
}

func (e *sendEmailExecutor) Execute(ctx context.Context, w store.Workflow) Result {
	to := stringConfig(w.ReactionConfig, "to")
	if to == "" {
		return Result{Err: "no recipient email specified in reaction config"}
	}
	subject := stringConfig(w.ReactionConfig, "subject")
	if subject == "" {
		subject = "AREA Notification"
	}
	body := stringConfig(w.ReactionConfig, "body")
	if body == "" {
		body = "This is an automated message from AREA"
	}

	if e.mail == nil {
		return Result{Err: "SMTP sender not configured"}
	}
	if err := e.mail.Send(ctx, to, subject, body, false); err != nil {
		return Result{Err: err.Error()}
	}
	return Result{Success: true, Message: "Email sent successfully to " + to}
}

// executeLogMessage records the configured message to the workflow log
// and nothing else.
func executeLogMessage(_ context.Context, w store.Workflow) Result {
	message := stringConfig(w.ReactionConfig, "message")
	if message == "" {
		return Result{Err: "missing message in reaction config"}
	}
	return Result{Success: true, Message: message}
}

// executeSendNotification is a log-only placeholder for a real push
// channel.
func executeSendNotification(_ context.Context, w store.Workflow) Result {
	title := stringConfig(w.ReactionConfig, "title")
	body := stringConfig(w.ReactionConfig, "body")
	if title == "" || body == "" {
		return Result{Err: "missing title or body in reaction config"}
	}
	return Result{Success: true, Message: title + ": " + body}
}
