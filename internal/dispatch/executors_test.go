package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/CrackedOnTiti/AREA/internal/providers"
	"github.com/CrackedOnTiti/AREA/internal/store"
)

type fakeMailer struct {
	to, subject, body string
	html              bool
	err               error
}

func (f *fakeMailer) Send(_ context.Context, to, subject, body string, html bool) error {
	f.to, f.subject, f.body, f.html = to, subject, body, html
	return f.err
}

func TestSendEmailExecutor(t *testing.T) {
	mail := &fakeMailer{}
	e := &sendEmailExecutor{mail: mail}

	w := store.Workflow{ReactionConfig: map[string]any{"to": "ops@example.com"}}
	res := e.Execute(context.Background(), w)
	if !res.Success {
		t.Fatalf("send failed: %+v", res)
	}
	if res.Message != "Email sent successfully to ops@example.com" {
		t.Fatalf("message = %q", res.Message)
	}
	if mail.subject != "AREA Notification" {
		t.Errorf("default subject = %q", mail.subject)
	}
	if mail.body != "This is an automated message from AREA" {
		t.Errorf("default body = %q", mail.body)
	}
	if mail.html {
		t.Error("plain-text default lost")
	}
}

func TestSendEmailExecutorMissingRecipient(t *testing.T) {
	e := &sendEmailExecutor{mail: &fakeMailer{}}
	res := e.Execute(context.Background(), store.Workflow{ReactionConfig: map[string]any{}})
	if res.Success {
		t.Fatal("missing recipient succeeded")
	}
	if res.Err != "no recipient email specified in reaction config" {
		t.Fatalf("err = %q", res.Err)
	}
}

func TestSendEmailExecutorSMTPFailure(t *testing.T) {
	e := &sendEmailExecutor{mail: &fakeMailer{err: errors.New("dial tcp: connection refused")}}
	res := e.Execute(context.Background(), store.Workflow{ReactionConfig: map[string]any{"to": "x@y.z"}})
	if res.Success || !strings.Contains(res.Err, "connection refused") {
		t.Fatalf("smtp failure should surface, got %+v", res)
	}

	e = &sendEmailExecutor{}
	res = e.Execute(context.Background(), store.Workflow{ReactionConfig: map[string]any{"to": "x@y.z"}})
	if res.Err != "SMTP sender not configured" {
		t.Fatalf("nil mailer err = %q", res.Err)
	}
}

func TestLogMessageExecutor(t *testing.T) {
	res := executeLogMessage(context.Background(), store.Workflow{ReactionConfig: map[string]any{"message": "it happened"}})
	if !res.Success || res.Message != "it happened" {
		t.Fatalf("log message = %+v", res)
	}

	res = executeLogMessage(context.Background(), store.Workflow{})
	if res.Success || res.Err == "" {
		t.Fatalf("missing message should error, got %+v", res)
	}
}

func TestSendNotificationExecutor(t *testing.T) {
	res := executeSendNotification(context.Background(), store.Workflow{ReactionConfig: map[string]any{
		"title": "Deploy done",
		"body":  "v1.4 is live",
	}})
	if !res.Success || res.Message != "Deploy done: v1.4 is live" {
		t.Fatalf("notification = %+v", res)
	}

	res = executeSendNotification(context.Background(), store.Workflow{ReactionConfig: map[string]any{"title": "only"}})
	if res.Success {
		t.Fatal("missing body succeeded")
	}
}

func TestDriveExecutorCreateFile(t *testing.T) {
	s := tempStore(t)
	now := time.Now()
	w := newWorkflow(t, s, "drive", ActionNewFileUploaded, ReactionCreateFile,
		nil, map[string]any{"file_name": "notes.txt", "content": "hello"})
	connect(t, s, w.UserID, "drive", "tok", time.Time{})

	var uploaded string
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		uploaded = string(b)
		fmt.Fprint(rw, `{"id": "new-file"}`)
	}))
	defer srv.Close()

	e := &driveExecutor{
		kind:   ReactionCreateFile,
		drive:  &providers.Drive{BaseURL: srv.URL, UploadURL: srv.URL, HTTP: srv.Client()},
		tokens: &tokens{store: s, clock: &fakeClock{now: now}},
	}

	res := e.Execute(context.Background(), w)
	if !res.Success || res.Message != "Created file: notes.txt" {
		t.Fatalf("create file = %+v", res)
	}
	if !strings.Contains(uploaded, "notes.txt") || !strings.Contains(uploaded, "hello") {
		t.Fatalf("upload body missing name or content: %q", uploaded)
	}
}

func TestDriveExecutorShareFileNotFound(t *testing.T) {
	s := tempStore(t)
	now := time.Now()
	w := newWorkflow(t, s, "drive", ActionNewFileUploaded, ReactionShareFile,
		nil, map[string]any{"file_name": "ghost.txt", "email": "peer@example.com"})
	connect(t, s, w.UserID, "drive", "tok", time.Time{})

	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		fmt.Fprint(rw, `{"files": []}`)
	}))
	defer srv.Close()

	e := &driveExecutor{
		kind:   ReactionShareFile,
		drive:  &providers.Drive{BaseURL: srv.URL, UploadURL: srv.URL, HTTP: srv.Client()},
		tokens: &tokens{store: s, clock: &fakeClock{now: now}},
	}

	res := e.Execute(context.Background(), w)
	if res.Success || res.Err != `file "ghost.txt" not found` {
		t.Fatalf("share missing file = %+v", res)
	}
}

func TestFacebookExecutorMissingMessage(t *testing.T) {
	e := &facebookExecutor{facebook: providers.NewFacebook(nil)}
	res := e.Execute(context.Background(), store.Workflow{})
	if res.Success || res.Err != "missing message in reaction config" {
		t.Fatalf("missing message = %+v", res)
	}
}

func TestGitHubExecutorCreateIssue(t *testing.T) {
	s := tempStore(t)
	now := time.Now()
	w := newWorkflow(t, s, "github", ActionNewStarOnRepo, ReactionCreateIssue,
		map[string]any{"repo_name": "o/r"},
		map[string]any{"repo_name": "o/r", "title": "Build broken", "body": "see CI"})
	connect(t, s, w.UserID, "github", "tok", time.Time{})

	var posted string
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		posted = string(b)
		rw.WriteHeader(http.StatusCreated)
		fmt.Fprint(rw, `{"number": 12}`)
	}))
	defer srv.Close()

	e := &githubExecutor{
		github: &providers.GitHub{BaseURL: srv.URL, HTTP: srv.Client()},
		tokens: &tokens{store: s, clock: &fakeClock{now: now}},
	}

	res := e.Execute(context.Background(), w)
	if !res.Success || res.Message != "Created issue: Build broken" {
		t.Fatalf("create issue = %+v", res)
	}
	if !strings.Contains(posted, "Build broken") || !strings.Contains(posted, "see CI") {
		t.Fatalf("issue body = %q", posted)
	}
}

func TestSpotifyExecutorStartPlaybackExclusive(t *testing.T) {
	s := tempStore(t)
	now := time.Now()
	w := newWorkflow(t, s, "spotify", ActionTrackSaved, ReactionStartPlayback,
		nil, map[string]any{"track_uri": "spotify:track:a", "context_uri": "spotify:album:b"})
	connect(t, s, w.UserID, "spotify", "tok", time.Time{})

	e := &spotifyExecutor{
		kind:    ReactionStartPlayback,
		spotify: providers.NewSpotify(nil),
		tokens:  &tokens{store: s, clock: &fakeClock{now: now}},
	}

	res := e.Execute(context.Background(), w)
	if res.Success || res.Err != "track_uri and context_uri are mutually exclusive" {
		t.Fatalf("exclusive uris = %+v", res)
	}
}

func TestSpotifyExecutorAddToPlaylist(t *testing.T) {
	s := tempStore(t)
	now := time.Now()
	w := newWorkflow(t, s, "spotify", ActionTrackSaved, ReactionAddToPlaylist,
		nil, map[string]any{"playlist_id": "pl1", "track_uri": "abc123"})
	connect(t, s, w.UserID, "spotify", "tok", time.Time{})

	var posted string
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		posted = string(b)
		rw.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	e := &spotifyExecutor{
		kind:    ReactionAddToPlaylist,
		spotify: &providers.Spotify{BaseURL: srv.URL, HTTP: srv.Client()},
		tokens:  &tokens{store: s, clock: &fakeClock{now: now}},
	}

	res := e.Execute(context.Background(), w)
	if !res.Success || res.Message != "Track added to playlist successfully" {
		t.Fatalf("add to playlist = %+v", res)
	}
	// Bare ids are normalized to full URIs before hitting the API.
	if !strings.Contains(posted, "spotify:track:abc123") {
		t.Fatalf("request body = %q", posted)
	}
}
