package store

import (
	"database/sql"
	"fmt"
	"time"
)

// CreateUser inserts a local-credential user and returns its ID.
func (s *Store) CreateUser(username, email, passwordHash string) (int64, error) {
	now := time.Now().UTC()
	res, err := s.db.Exec(
		`INSERT INTO users (username, email, password_hash, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		username, email, passwordHash, now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("store: create user: %w", err)
	}
	return res.LastInsertId()
}

// CreateOAuthUser inserts a user authenticated through an external provider.
func (s *Store) CreateOAuthUser(username, email, provider, providerID string) (int64, error) {
	now := time.Now().UTC()
	res, err := s.db.Exec(
		`INSERT INTO users (username, email, oauth_provider, oauth_provider_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		username, email, provider, providerID, now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("store: create oauth user: %w", err)
	}
	return res.LastInsertId()
}

// CountUsers returns the total number of user rows.
func (s *Store) CountUsers() (int, error) {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("store: count users: %w", err)
	}
	return count, nil
}

// GetUserByUsername returns the user with the given username, or nil.
func (s *Store) GetUserByUsername(username string) (*User, error) {
	var u User
	err := s.db.QueryRow(
		`SELECT id, username, email, password_hash, oauth_provider, oauth_provider_id, created_at, updated_at
		 FROM users WHERE username = ?`, username,
	).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.OAuthProvider, &u.OAuthProviderID, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get user %s: %w", username, err)
	}
	return &u, nil
}
