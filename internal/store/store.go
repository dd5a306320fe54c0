// Package store provides SQLite-backed persistence for the AREA engine:
// the service catalog, user accounts, OAuth connections, workflows and
// their execution logs.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Store wraps the SQLite database handle.
type Store struct {
	db *sql.DB
}

// User is an account that owns workflows and connections. Either
// PasswordHash or the (OAuthProvider, OAuthProviderID) pair is set.
type User struct {
	ID              int64
	Username        string
	Email           string
	PasswordHash    sql.NullString
	OAuthProvider   sql.NullString
	OAuthProviderID sql.NullString
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Service is one catalog row describing an integration provider.
type Service struct {
	ID            int64
	Name          string
	DisplayName   string
	Description   string
	RequiresOAuth bool
	IsActive      bool
}

// Action is a named trigger condition exposed by a service.
type Action struct {
	ID           int64
	ServiceID    int64
	Name         string
	DisplayName  string
	Description  string
	ConfigSchema string // JSON-Schema document
}

// Reaction is a named effect exposed by a service.
type Reaction struct {
	ID           int64
	ServiceID    int64
	Name         string
	DisplayName  string
	Description  string
	ConfigSchema string
}

// Connection holds a user's OAuth tokens for one service.
type Connection struct {
	ID             int64
	UserID         int64
	ServiceID      int64
	AccessToken    string
	RefreshToken   sql.NullString
	TokenExpiresAt sql.NullTime
	ConnectedAt    time.Time
	UpdatedAt      time.Time
}

// Workflow binds an action to a reaction for one user. ActionName and
// ReactionName are joined in from the catalog so the scheduler can route
// without extra lookups.
type Workflow struct {
	ID             int64
	UserID         int64
	Name           string
	ActionID       int64
	ReactionID     int64
	ActionName     string
	ReactionName   string
	ActionConfig   map[string]any
	ReactionConfig map[string]any
	IsActive       bool
	LastTriggered  sql.NullTime
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// WorkflowLog is one execution record. The message doubles as the
// idempotency fingerprint for provider-backed actions.
type WorkflowLog struct {
	ID              int64
	WorkflowID      int64
	Status          string // success, failed, error, skipped
	Message         string
	TriggeredAt     time.Time
	ExecutionTimeMs int64
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL UNIQUE,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT,
	oauth_provider TEXT,
	oauth_provider_id TEXT,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE(oauth_provider, oauth_provider_id)
);

CREATE TABLE IF NOT EXISTS services (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE,
	display_name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	requires_oauth BOOLEAN NOT NULL DEFAULT 0,
	is_active BOOLEAN NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS actions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	service_id INTEGER NOT NULL REFERENCES services(id),
	name TEXT NOT NULL,
	display_name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	config_schema TEXT NOT NULL DEFAULT '{}',
	UNIQUE(service_id, name)
);

CREATE TABLE IF NOT EXISTS reactions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	service_id INTEGER NOT NULL REFERENCES services(id),
	name TEXT NOT NULL,
	display_name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	config_schema TEXT NOT NULL DEFAULT '{}',
	UNIQUE(service_id, name)
);

CREATE TABLE IF NOT EXISTS user_service_connections (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	service_id INTEGER NOT NULL REFERENCES services(id),
	access_token TEXT NOT NULL,
	refresh_token TEXT,
	token_expires_at DATETIME,
	connected_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE(user_id, service_id)
);

CREATE TABLE IF NOT EXISTS user_areas (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	action_id INTEGER NOT NULL REFERENCES actions(id),
	reaction_id INTEGER NOT NULL REFERENCES reactions(id),
	action_config TEXT NOT NULL DEFAULT '{}',
	reaction_config TEXT NOT NULL DEFAULT '{}',
	is_active BOOLEAN NOT NULL DEFAULT 1,
	last_triggered DATETIME,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS workflow_logs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	area_id INTEGER NOT NULL REFERENCES user_areas(id) ON DELETE CASCADE,
	status TEXT NOT NULL,
	message TEXT NOT NULL DEFAULT '',
	triggered_at DATETIME NOT NULL,
	execution_time_ms INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_user_areas_active ON user_areas(is_active);
CREATE INDEX IF NOT EXISTS idx_user_areas_user ON user_areas(user_id);
CREATE INDEX IF NOT EXISTS idx_workflow_logs_area ON workflow_logs(area_id);
CREATE INDEX IF NOT EXISTS idx_workflow_logs_area_message ON workflow_logs(area_id, message);
CREATE INDEX IF NOT EXISTS idx_connections_user_service ON user_service_connections(user_id, service_id);
`

// Open creates or opens a SQLite database at the given path and ensures the
// schema exists. Foreign keys are enabled so workflow deletion cascades to
// its logs.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", dbPath, err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying sql.DB for advanced queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

func marshalConfig(cfg map[string]any) (string, error) {
	if cfg == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("store: marshal config: %w", err)
	}
	return string(raw), nil
}

func unmarshalConfig(raw string) (map[string]any, error) {
	if raw == "" {
		return map[string]any{}, nil
	}
	var cfg map[string]any
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return nil, fmt.Errorf("store: unmarshal config: %w", err)
	}
	return cfg, nil
}
