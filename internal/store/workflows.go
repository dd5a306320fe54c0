package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/CrackedOnTiti/AREA/internal/schema"
)

const workflowCols = `w.id, w.user_id, w.name, w.action_id, w.reaction_id, a.name, r.name,
	w.action_config, w.reaction_config, w.is_active, w.last_triggered, w.created_at, w.updated_at`

const workflowFrom = `FROM user_areas w
	JOIN actions a ON a.id = w.action_id
	JOIN reactions r ON r.id = w.reaction_id`

// CreateWorkflow inserts a workflow after validating both configs against
// the declared JSON-Schemas of the referenced action and reaction.
func (s *Store) CreateWorkflow(userID int64, name string, actionID, reactionID int64, actionConfig, reactionConfig map[string]any) (int64, error) {
	action, err := s.GetActionByID(actionID)
	if err != nil {
		return 0, err
	}
	if action == nil {
		return 0, fmt.Errorf("store: action %d not found", actionID)
	}
	reaction, err := s.GetReactionByID(reactionID)
	if err != nil {
		return 0, err
	}
	if reaction == nil {
		return 0, fmt.Errorf("store: reaction %d not found", reactionID)
	}

	if err := schema.Validate(action.ConfigSchema, actionConfig); err != nil {
		return 0, fmt.Errorf("store: action config for %s: %w", action.Name, err)
	}
	if err := schema.Validate(reaction.ConfigSchema, reactionConfig); err != nil {
		return 0, fmt.Errorf("store: reaction config for %s: %w", reaction.Name, err)
	}

	actionRaw, err := marshalConfig(actionConfig)
	if err != nil {
		return 0, err
	}
	reactionRaw, err := marshalConfig(reactionConfig)
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	res, err := s.db.Exec(
		`INSERT INTO user_areas (user_id, name, action_id, reaction_id, action_config, reaction_config, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?)`,
		userID, name, actionID, reactionID, actionRaw, reactionRaw, now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("store: create workflow: %w", err)
	}
	return res.LastInsertId()
}

// SetWorkflowActive enables or disables a workflow.
func (s *Store) SetWorkflowActive(id int64, active bool) error {
	if _, err := s.db.Exec(
		`UPDATE user_areas SET is_active = ?, updated_at = ? WHERE id = ?`, active, time.Now().UTC(), id,
	); err != nil {
		return fmt.Errorf("store: set workflow active: %w", err)
	}
	return nil
}

// DeleteWorkflow removes a workflow; its logs are deleted by cascade.
func (s *Store) DeleteWorkflow(id int64) error {
	if _, err := s.db.Exec(`DELETE FROM user_areas WHERE id = ?`, id); err != nil {
		return fmt.Errorf("store: delete workflow: %w", err)
	}
	return nil
}

// GetWorkflow returns one workflow with action/reaction names joined in,
// or nil when it does not exist.
func (s *Store) GetWorkflow(id int64) (*Workflow, error) {
	row := s.db.QueryRow(`SELECT `+workflowCols+` `+workflowFrom+` WHERE w.id = ?`, id)
	w, err := scanWorkflow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get workflow %d: %w", id, err)
	}
	return w, nil
}

// ActiveWorkflows returns every workflow with is_active set, in stable ID
// order. This is the scheduler's per-tick enumeration.
func (s *Store) ActiveWorkflows(ctx context.Context) ([]Workflow, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+workflowCols+` `+workflowFrom+` WHERE w.is_active = 1 ORDER BY w.id`)
	if err != nil {
		return nil, fmt.Errorf("store: list active workflows: %w", err)
	}
	defer rows.Close()

	var out []Workflow
	for rows.Next() {
		w, err := scanWorkflow(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan workflow: %w", err)
		}
		out = append(out, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list active workflows: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkflow(row rowScanner) (*Workflow, error) {
	var w Workflow
	var actionRaw, reactionRaw string
	if err := row.Scan(
		&w.ID, &w.UserID, &w.Name, &w.ActionID, &w.ReactionID, &w.ActionName, &w.ReactionName,
		&actionRaw, &reactionRaw, &w.IsActive, &w.LastTriggered, &w.CreatedAt, &w.UpdatedAt,
	); err != nil {
		return nil, err
	}
	var err error
	if w.ActionConfig, err = unmarshalConfig(actionRaw); err != nil {
		return nil, err
	}
	if w.ReactionConfig, err = unmarshalConfig(reactionRaw); err != nil {
		return nil, err
	}
	return &w, nil
}
