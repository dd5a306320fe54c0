package store

import (
	"database/sql"
	"fmt"
	"time"
)

// UpsertConnection creates or replaces the single connection a user may
// hold per service. expiresAt may be zero when the provider does not report
// token lifetimes.
func (s *Store) UpsertConnection(userID, serviceID int64, accessToken, refreshToken string, expiresAt time.Time) (int64, error) {
	now := time.Now().UTC()
	var refresh any
	if refreshToken != "" {
		refresh = refreshToken
	}
	var expires any
	if !expiresAt.IsZero() {
		expires = expiresAt.UTC()
	}
	res, err := s.db.Exec(
		`INSERT INTO user_service_connections (user_id, service_id, access_token, refresh_token, token_expires_at, connected_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, service_id) DO UPDATE SET
		   access_token = excluded.access_token,
		   refresh_token = COALESCE(excluded.refresh_token, refresh_token),
		   token_expires_at = excluded.token_expires_at,
		   updated_at = excluded.updated_at`,
		userID, serviceID, accessToken, refresh, expires, now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("store: upsert connection: %w", err)
	}
	return res.LastInsertId()
}

// GetConnection returns the connection for (userID, serviceID), or nil when
// the user never linked the service.
func (s *Store) GetConnection(userID, serviceID int64) (*Connection, error) {
	var c Connection
	err := s.db.QueryRow(
		`SELECT id, user_id, service_id, access_token, refresh_token, token_expires_at, connected_at, updated_at
		 FROM user_service_connections WHERE user_id = ? AND service_id = ?`,
		userID, serviceID,
	).Scan(&c.ID, &c.UserID, &c.ServiceID, &c.AccessToken, &c.RefreshToken, &c.TokenExpiresAt, &c.ConnectedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get connection: %w", err)
	}
	return &c, nil
}

// UpdateConnectionToken stores a refreshed access token and its expiry.
func (s *Store) UpdateConnectionToken(id int64, accessToken string, expiresAt time.Time) error {
	var expires any
	if !expiresAt.IsZero() {
		expires = expiresAt.UTC()
	}
	_, err := s.db.Exec(
		`UPDATE user_service_connections SET access_token = ?, token_expires_at = ?, updated_at = ? WHERE id = ?`,
		accessToken, expires, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("store: update connection token: %w", err)
	}
	return nil
}

// DeleteConnection removes a user's link to a service.
func (s *Store) DeleteConnection(userID, serviceID int64) error {
	if _, err := s.db.Exec(
		`DELETE FROM user_service_connections WHERE user_id = ? AND service_id = ?`, userID, serviceID,
	); err != nil {
		return fmt.Errorf("store: delete connection: %w", err)
	}
	return nil
}
