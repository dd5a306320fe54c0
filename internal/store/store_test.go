package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// seedWorkflow creates the minimal catalog rows plus one workflow and
// returns the workflow id.
func seedWorkflow(t *testing.T, s *Store, actionConfig, reactionConfig map[string]any) int64 {
	t.Helper()
	svcID, err := s.CreateService("timer", "Timer", "time triggers", false)
	if err != nil {
		t.Fatal(err)
	}
	actionID, err := s.CreateAction(svcID, "interval_elapsed", "Every X minutes", "", `{}`)
	if err != nil {
		t.Fatal(err)
	}
	reactionID, err := s.CreateReaction(svcID, "log_message", "Log a message", "", `{}`)
	if err != nil {
		t.Fatal(err)
	}
	userID, err := s.CreateUser("alice", "alice@example.com", "hash")
	if err != nil {
		t.Fatal(err)
	}
	wfID, err := s.CreateWorkflow(userID, "my workflow", actionID, reactionID, actionConfig, reactionConfig)
	if err != nil {
		t.Fatal(err)
	}
	return wfID
}

func TestCatalogUniqueness(t *testing.T) {
	s := tempStore(t)

	svcID, err := s.CreateService("gmail", "Gmail", "", true)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateService("gmail", "Gmail", "", true); err == nil {
		t.Fatal("duplicate service name should fail")
	}

	if _, err := s.CreateAction(svcID, "email_received_from", "Email from", "", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateAction(svcID, "email_received_from", "Email from", "", ""); err == nil {
		t.Fatal("duplicate action name within service should fail")
	}

	got, err := s.GetServiceByName("gmail")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.ID != svcID {
		t.Fatalf("GetServiceByName = %+v, want id %d", got, svcID)
	}
	missing, err := s.GetServiceByName("nope")
	if err != nil {
		t.Fatal(err)
	}
	if missing != nil {
		t.Fatalf("unknown service should be nil, got %+v", missing)
	}
}

func TestCreateWorkflowValidatesConfig(t *testing.T) {
	s := tempStore(t)

	svcID, err := s.CreateService("timer", "Timer", "", false)
	if err != nil {
		t.Fatal(err)
	}
	schema := `{"type":"object","properties":{"interval_minutes":{"type":"integer","minimum":1}},"required":["interval_minutes"]}`
	actionID, err := s.CreateAction(svcID, "interval_elapsed", "Every X minutes", "", schema)
	if err != nil {
		t.Fatal(err)
	}
	reactionID, err := s.CreateReaction(svcID, "log_message", "Log", "", `{}`)
	if err != nil {
		t.Fatal(err)
	}
	userID, err := s.CreateUser("bob", "bob@example.com", "hash")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.CreateWorkflow(userID, "bad", actionID, reactionID, map[string]any{}, nil); err == nil {
		t.Fatal("missing required config key should fail validation")
	}
	if _, err := s.CreateWorkflow(userID, "good", actionID, reactionID, map[string]any{"interval_minutes": 5}, nil); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestActiveWorkflows(t *testing.T) {
	s := tempStore(t)
	wfID := seedWorkflow(t, s, map[string]any{"interval_minutes": 1}, map[string]any{"message": "hi"})

	active, err := s.ActiveWorkflows(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 1 {
		t.Fatalf("expected 1 active workflow, got %d", len(active))
	}
	w := active[0]
	if w.ID != wfID || w.ActionName != "interval_elapsed" || w.ReactionName != "log_message" {
		t.Fatalf("unexpected workflow %+v", w)
	}
	if w.ActionConfig["interval_minutes"] != float64(1) {
		t.Errorf("action config round-trip = %v", w.ActionConfig)
	}
	if w.LastTriggered.Valid {
		t.Error("new workflow should have null last_triggered")
	}

	if err := s.SetWorkflowActive(wfID, false); err != nil {
		t.Fatal(err)
	}
	active, err = s.ActiveWorkflows(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 0 {
		t.Fatalf("disabled workflow still enumerated: %d", len(active))
	}
}

func TestRecordTriggerTransactional(t *testing.T) {
	s := tempStore(t)
	wfID := seedWorkflow(t, s, nil, nil)
	ctx := context.Background()

	at := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	if err := s.RecordTrigger(ctx, wfID, "success", "Interval elapsed (5 min)", at, 42); err != nil {
		t.Fatal(err)
	}

	w, err := s.GetWorkflow(wfID)
	if err != nil {
		t.Fatal(err)
	}
	if !w.LastTriggered.Valid || !w.LastTriggered.Time.Equal(at) {
		t.Fatalf("last_triggered = %v, want %v", w.LastTriggered, at)
	}

	logs, err := s.LogsForWorkflow(wfID)
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 1 {
		t.Fatalf("expected 1 log row, got %d", len(logs))
	}
	if logs[0].Status != "success" || logs[0].ExecutionTimeMs != 42 {
		t.Fatalf("unexpected log %+v", logs[0])
	}
}

func TestRecordTriggerMonotonic(t *testing.T) {
	s := tempStore(t)
	wfID := seedWorkflow(t, s, nil, nil)
	ctx := context.Background()

	later := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	earlier := later.Add(-time.Hour)

	if err := s.RecordTrigger(ctx, wfID, "success", "first", later, 0); err != nil {
		t.Fatal(err)
	}
	if err := s.RecordTrigger(ctx, wfID, "success", "replay", earlier, 0); err != nil {
		t.Fatal(err)
	}

	w, err := s.GetWorkflow(wfID)
	if err != nil {
		t.Fatal(err)
	}
	if !w.LastTriggered.Time.Equal(later) {
		t.Fatalf("last_triggered rewound to %v", w.LastTriggered.Time)
	}

	// The replay still appends its log row.
	logs, err := s.LogsForWorkflow(wfID)
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 2 {
		t.Fatalf("expected 2 log rows, got %d", len(logs))
	}
}

func TestAppendLogLeavesLastTriggered(t *testing.T) {
	s := tempStore(t)
	wfID := seedWorkflow(t, s, nil, nil)

	if err := s.AppendLog(wfID, "failed", "Gmail not connected for this user", time.Now().UTC(), 0); err != nil {
		t.Fatal(err)
	}

	w, err := s.GetWorkflow(wfID)
	if err != nil {
		t.Fatal(err)
	}
	if w.LastTriggered.Valid {
		t.Fatal("AppendLog must not touch last_triggered")
	}
}

func TestFindLogByMessage(t *testing.T) {
	s := tempStore(t)
	wfID := seedWorkflow(t, s, nil, nil)
	ctx := context.Background()

	first := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	second := first.Add(10 * time.Minute)
	fp := "Now playing: Song by Artist"
	if err := s.RecordTrigger(ctx, wfID, "success", fp, first, 0); err != nil {
		t.Fatal(err)
	}
	if err := s.RecordTrigger(ctx, wfID, "success", fp, second, 0); err != nil {
		t.Fatal(err)
	}

	got, err := s.FindLogByMessage(wfID, fp)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("expected a match")
	}
	if !got.TriggeredAt.Equal(second) {
		t.Fatalf("expected newest row, got triggered_at %v", got.TriggeredAt)
	}

	none, err := s.FindLogByMessage(wfID, "other message")
	if err != nil {
		t.Fatal(err)
	}
	if none != nil {
		t.Fatalf("expected nil for unmatched message, got %+v", none)
	}
}

func TestFindLogContaining(t *testing.T) {
	s := tempStore(t)
	wfID := seedWorkflow(t, s, nil, nil)
	ctx := context.Background()

	if err := s.RecordTrigger(ctx, wfID, "success", "New file: report.txt (id:abc123)", time.Now().UTC(), 0); err != nil {
		t.Fatal(err)
	}

	got, err := s.FindLogContaining(wfID, "abc123")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("file id substring should match")
	}

	none, err := s.FindLogContaining(wfID, "zzz999")
	if err != nil {
		t.Fatal(err)
	}
	if none != nil {
		t.Fatal("unrelated id should not match")
	}
}

func TestDeleteWorkflowCascadesLogs(t *testing.T) {
	s := tempStore(t)
	wfID := seedWorkflow(t, s, nil, nil)
	ctx := context.Background()

	if err := s.RecordTrigger(ctx, wfID, "success", "fired", time.Now().UTC(), 0); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteWorkflow(wfID); err != nil {
		t.Fatal(err)
	}

	var count int
	if err := s.DB().QueryRow(`SELECT COUNT(*) FROM workflow_logs`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Fatalf("expected cascade delete of logs, %d rows remain", count)
	}
}

func TestConnectionUpsert(t *testing.T) {
	s := tempStore(t)

	userID, err := s.CreateUser("carol", "carol@example.com", "hash")
	if err != nil {
		t.Fatal(err)
	}
	svcID, err := s.CreateService("spotify", "Spotify", "", true)
	if err != nil {
		t.Fatal(err)
	}

	expires := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	if _, err := s.UpsertConnection(userID, svcID, "tok1", "refresh1", expires); err != nil {
		t.Fatal(err)
	}

	// Re-link without a refresh token: access token replaced, refresh kept.
	if _, err := s.UpsertConnection(userID, svcID, "tok2", "", expires); err != nil {
		t.Fatal(err)
	}

	conn, err := s.GetConnection(userID, svcID)
	if err != nil {
		t.Fatal(err)
	}
	if conn == nil {
		t.Fatal("expected connection")
	}
	if conn.AccessToken != "tok2" {
		t.Errorf("access token = %s, want tok2", conn.AccessToken)
	}
	if !conn.RefreshToken.Valid || conn.RefreshToken.String != "refresh1" {
		t.Errorf("refresh token not preserved: %+v", conn.RefreshToken)
	}

	if err := s.UpdateConnectionToken(conn.ID, "tok3", expires.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	conn, err = s.GetConnection(userID, svcID)
	if err != nil {
		t.Fatal(err)
	}
	if conn.AccessToken != "tok3" {
		t.Errorf("access token after refresh = %s, want tok3", conn.AccessToken)
	}

	if err := s.DeleteConnection(userID, svcID); err != nil {
		t.Fatal(err)
	}
	conn, err = s.GetConnection(userID, svcID)
	if err != nil {
		t.Fatal(err)
	}
	if conn != nil {
		t.Fatal("connection should be gone after delete")
	}
}

func TestUsers(t *testing.T) {
	s := tempStore(t)

	count, err := s.CountUsers()
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Fatalf("fresh store has %d users", count)
	}

	if _, err := s.CreateUser("dave", "dave@example.com", "hash"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateOAuthUser("erin", "erin@example.com", "google", "g-123"); err != nil {
		t.Fatal(err)
	}

	u, err := s.GetUserByUsername("dave")
	if err != nil {
		t.Fatal(err)
	}
	if u == nil || u.Email != "dave@example.com" {
		t.Fatalf("GetUserByUsername = %+v", u)
	}

	missing, err := s.GetUserByUsername("nobody")
	if err != nil {
		t.Fatal(err)
	}
	if missing != nil {
		t.Fatalf("unknown user should be nil, got %+v", missing)
	}
}
