package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// AppendLog inserts one execution record without touching last_triggered.
// Used for evaluations that did not fire but still need a failure record.
func (s *Store) AppendLog(workflowID int64, status, message string, triggeredAt time.Time, executionTimeMs int64) error {
	_, err := s.db.Exec(
		`INSERT INTO workflow_logs (area_id, status, message, triggered_at, execution_time_ms) VALUES (?, ?, ?, ?, ?)`,
		workflowID, status, message, triggeredAt.UTC(), executionTimeMs,
	)
	if err != nil {
		return fmt.Errorf("store: append log: %w", err)
	}
	return nil
}

// RecordTrigger persists one fired evaluation: the last_triggered update
// and the log insert commit or roll back together. last_triggered only
// moves forward, so replays cannot rewind it.
func (s *Store) RecordTrigger(ctx context.Context, workflowID int64, status, message string, triggeredAt time.Time, executionTimeMs int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: record trigger: begin: %w", err)
	}
	defer tx.Rollback()

	at := triggeredAt.UTC()
	if _, err := tx.Exec(
		`UPDATE user_areas SET last_triggered = ?, updated_at = ?
		 WHERE id = ? AND (last_triggered IS NULL OR last_triggered <= ?)`,
		at, at, workflowID, at,
	); err != nil {
		return fmt.Errorf("store: record trigger: update last_triggered: %w", err)
	}

	if _, err := tx.Exec(
		`INSERT INTO workflow_logs (area_id, status, message, triggered_at, execution_time_ms) VALUES (?, ?, ?, ?, ?)`,
		workflowID, status, message, at, executionTimeMs,
	); err != nil {
		return fmt.Errorf("store: record trigger: insert log: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: record trigger: commit: %w", err)
	}
	return nil
}

// FindLogByMessage returns the newest log row for a workflow whose message
// matches exactly, or nil. This is the dedup lookup for fingerprinted
// actions; playback checks also use it to find the latest occurrence.
func (s *Store) FindLogByMessage(workflowID int64, message string) (*WorkflowLog, error) {
	row := s.db.QueryRow(
		`SELECT id, area_id, status, message, triggered_at, execution_time_ms
		 FROM workflow_logs WHERE area_id = ? AND message = ? ORDER BY id DESC LIMIT 1`,
		workflowID, message,
	)
	return scanLog(row)
}

// FindLogContaining returns the first log row for a workflow whose message
// contains the substring, or nil. Drive actions dedup on the provider file
// id appearing anywhere in the message.
func (s *Store) FindLogContaining(workflowID int64, substring string) (*WorkflowLog, error) {
	row := s.db.QueryRow(
		`SELECT id, area_id, status, message, triggered_at, execution_time_ms
		 FROM workflow_logs WHERE area_id = ? AND instr(message, ?) > 0 LIMIT 1`,
		workflowID, substring,
	)
	return scanLog(row)
}

// LogsForWorkflow returns all log rows for a workflow, oldest first.
func (s *Store) LogsForWorkflow(workflowID int64) ([]WorkflowLog, error) {
	rows, err := s.db.Query(
		`SELECT id, area_id, status, message, triggered_at, execution_time_ms
		 FROM workflow_logs WHERE area_id = ? ORDER BY id`,
		workflowID,
	)
	if err != nil {
		return nil, fmt.Errorf("store: logs for workflow: %w", err)
	}
	defer rows.Close()

	var out []WorkflowLog
	for rows.Next() {
		var l WorkflowLog
		if err := rows.Scan(&l.ID, &l.WorkflowID, &l.Status, &l.Message, &l.TriggeredAt, &l.ExecutionTimeMs); err != nil {
			return nil, fmt.Errorf("store: scan log: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: logs for workflow: %w", err)
	}
	return out, nil
}

func scanLog(row *sql.Row) (*WorkflowLog, error) {
	var l WorkflowLog
	err := row.Scan(&l.ID, &l.WorkflowID, &l.Status, &l.Message, &l.TriggeredAt, &l.ExecutionTimeMs)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: find log: %w", err)
	}
	return &l, nil
}
