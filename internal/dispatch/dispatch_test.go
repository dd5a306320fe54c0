package dispatch

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/CrackedOnTiti/AREA/internal/store"
)

func tempStore(t *testing.T) *store.Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// fakeClock pins checker evaluation to a fixed instant.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

type fakeRefresher struct {
	token string
	err   error
	calls int
}

func (f *fakeRefresher) Refresh(_ context.Context, _, _ string) (*oauth2.Token, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &oauth2.Token{AccessToken: f.token, Expiry: time.Now().Add(time.Hour)}, nil
}

// newWorkflow seeds a service, one action/reaction pair, a user and a
// workflow, returning the joined workflow row.
func newWorkflow(t *testing.T, s *store.Store, service, actionName, reactionName string, actionCfg, reactionCfg map[string]any) store.Workflow {
	t.Helper()

	svc, err := s.GetServiceByName(service)
	if err != nil {
		t.Fatal(err)
	}
	var svcID int64
	if svc == nil {
		svcID, err = s.CreateService(service, service, "", true)
		if err != nil {
			t.Fatal(err)
		}
	} else {
		svcID = svc.ID
	}

	actionID, err := s.CreateAction(svcID, actionName, actionName, "", "")
	if err != nil {
		t.Fatal(err)
	}
	reactionID, err := s.CreateReaction(svcID, reactionName, reactionName, "", "")
	if err != nil {
		t.Fatal(err)
	}

	user, err := s.GetUserByUsername("tester")
	if err != nil {
		t.Fatal(err)
	}
	var userID int64
	if user == nil {
		userID, err = s.CreateUser("tester", "tester@example.com", "hash")
		if err != nil {
			t.Fatal(err)
		}
	} else {
		userID = user.ID
	}

	wfID, err := s.CreateWorkflow(userID, actionName+" workflow", actionID, reactionID, actionCfg, reactionCfg)
	if err != nil {
		t.Fatal(err)
	}
	w, err := s.GetWorkflow(wfID)
	if err != nil {
		t.Fatal(err)
	}
	return *w
}

// connect links the workflow's user to the named service.
func connect(t *testing.T, s *store.Store, userID int64, service, token string, expires time.Time) {
	t.Helper()
	svc, err := s.GetServiceByName(service)
	if err != nil {
		t.Fatal(err)
	}
	if svc == nil {
		t.Fatalf("service %s not seeded", service)
	}
	if _, err := s.UpsertConnection(userID, svc.ID, token, "refresh-"+service, expires); err != nil {
		t.Fatal(err)
	}
}

func TestCheckerForUnknownKind(t *testing.T) {
	d := New(Deps{Store: tempStore(t)})

	_, err := d.CheckerFor("mystery_action")
	if err == nil {
		t.Fatal("unknown action should error")
	}
	if err.Error() != "Unknown action type: mystery_action" {
		t.Fatalf("error = %q", err.Error())
	}

	_, err = d.ExecutorFor("mystery_reaction")
	if err == nil {
		t.Fatal("unknown reaction should error")
	}
	if err.Error() != "Unknown reaction type: mystery_reaction" {
		t.Fatalf("error = %q", err.Error())
	}
}

func TestNewRegistersAllBuiltins(t *testing.T) {
	d := New(Deps{Store: tempStore(t)})

	actions := []string{
		ActionTimeMatches, ActionIntervalElapsed,
		ActionEmailReceivedFrom, ActionEmailSubjectContains,
		ActionNewFileInFolder, ActionNewFileUploaded,
		ActionNewPostCreated, ActionPostContainsKeyword,
		ActionNewStarOnRepo, ActionNewIssueCreated, ActionNewPROpened,
		ActionTrackAddedToPlaylist, ActionTrackSaved, ActionPlaybackStarted,
	}
	for _, name := range actions {
		if _, err := d.CheckerFor(name); err != nil {
			t.Errorf("checker %s not registered: %v", name, err)
		}
	}

	reactions := []string{
		ReactionSendEmail, ReactionCreateFile, ReactionCreateFolder, ReactionShareFile,
		ReactionCreatePost, ReactionCreateIssue,
		ReactionAddToPlaylist, ReactionCreatePlaylist, ReactionStartPlayback,
		ReactionLogMessage, ReactionSendNotification,
	}
	for _, name := range reactions {
		if _, err := d.ExecutorFor(name); err != nil {
			t.Errorf("executor %s not registered: %v", name, err)
		}
	}
}

func TestTokensNotConnected(t *testing.T) {
	s := tempStore(t)
	w := newWorkflow(t, s, "gmail", ActionEmailReceivedFrom, ReactionLogMessage,
		map[string]any{"sender": "boss"}, map[string]any{"message": "hi"})

	tok := &tokens{store: s, clock: &fakeClock{now: time.Now()}}
	_, err := tok.access(context.Background(), w.UserID, "gmail")
	if err == nil {
		t.Fatal("missing connection should error")
	}
	if !strings.Contains(err.Error(), "not connected") {
		t.Fatalf("error = %v", err)
	}
}

func TestTokensSilentRefresh(t *testing.T) {
	s := tempStore(t)
	now := time.Now()
	w := newWorkflow(t, s, "spotify", ActionTrackSaved, ReactionLogMessage, nil, map[string]any{"message": "hi"})
	connect(t, s, w.UserID, "spotify", "stale-token", now.Add(-time.Hour))

	ref := &fakeRefresher{token: "fresh-token"}
	tok := &tokens{store: s, refresher: ref, clock: &fakeClock{now: now}}

	got, err := tok.access(context.Background(), w.UserID, "spotify")
	if err != nil {
		t.Fatalf("refresh path failed: %v", err)
	}
	if got != "fresh-token" {
		t.Fatalf("token = %s, want fresh-token", got)
	}
	if ref.calls != 1 {
		t.Fatalf("refresh calls = %d, want 1", ref.calls)
	}

	// The refreshed token is persisted, so the next lookup skips the
	// refresher entirely.
	got, err = tok.access(context.Background(), w.UserID, "spotify")
	if err != nil {
		t.Fatal(err)
	}
	if got != "fresh-token" || ref.calls != 1 {
		t.Fatalf("token = %s, refresh calls = %d", got, ref.calls)
	}
}

func TestTokensRefreshFailure(t *testing.T) {
	s := tempStore(t)
	now := time.Now()
	w := newWorkflow(t, s, "github", ActionNewStarOnRepo, ReactionLogMessage,
		map[string]any{"repo_name": "o/r"}, map[string]any{"message": "hi"})
	connect(t, s, w.UserID, "github", "stale", now.Add(-time.Minute))

	tok := &tokens{store: s, refresher: &fakeRefresher{err: context.DeadlineExceeded}, clock: &fakeClock{now: now}}
	_, err := tok.access(context.Background(), w.UserID, "github")
	if err == nil {
		t.Fatal("failed refresh on expired token should error")
	}
	if !strings.Contains(err.Error(), "token expired") {
		t.Fatalf("error = %v", err)
	}
}

func TestConfigHelpers(t *testing.T) {
	cfg := map[string]any{
		"s":     "str",
		"int":   7,
		"float": float64(8),
		"b":     false,
	}

	if got := stringConfig(cfg, "s"); got != "str" {
		t.Errorf("stringConfig = %q", got)
	}
	if got := stringConfig(cfg, "int"); got != "" {
		t.Errorf("stringConfig on non-string = %q", got)
	}
	if got, ok := intConfig(cfg, "int"); !ok || got != 7 {
		t.Errorf("intConfig int = %d %v", got, ok)
	}
	if got, ok := intConfig(cfg, "float"); !ok || got != 8 {
		t.Errorf("intConfig float = %d %v", got, ok)
	}
	if _, ok := intConfig(cfg, "s"); ok {
		t.Error("intConfig on string should fail")
	}
	if got := boolConfig(cfg, "b", true); got {
		t.Error("boolConfig should read stored false")
	}
	if got := boolConfig(cfg, "missing", true); !got {
		t.Error("boolConfig default lost")
	}
	if got := boolConfig(nil, "b", true); !got {
		t.Error("boolConfig on nil map should default")
	}
}
