package store

import (
	"database/sql"
	"fmt"
)

// CreateService inserts a catalog service row and returns its ID.
func (s *Store) CreateService(name, displayName, description string, requiresOAuth bool) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO services (name, display_name, description, requires_oauth, is_active) VALUES (?, ?, ?, ?, 1)`,
		name, displayName, description, requiresOAuth,
	)
	if err != nil {
		return 0, fmt.Errorf("store: create service %s: %w", name, err)
	}
	return res.LastInsertId()
}

// GetServiceByName returns the service with the given slug, or nil.
func (s *Store) GetServiceByName(name string) (*Service, error) {
	var svc Service
	err := s.db.QueryRow(
		`SELECT id, name, display_name, description, requires_oauth, is_active FROM services WHERE name = ?`, name,
	).Scan(&svc.ID, &svc.Name, &svc.DisplayName, &svc.Description, &svc.RequiresOAuth, &svc.IsActive)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get service %s: %w", name, err)
	}
	return &svc, nil
}

// SetServiceActive flips a service's availability without touching the rest
// of the catalog row.
func (s *Store) SetServiceActive(id int64, active bool) error {
	if _, err := s.db.Exec(`UPDATE services SET is_active = ? WHERE id = ?`, active, id); err != nil {
		return fmt.Errorf("store: set service active: %w", err)
	}
	return nil
}

// CreateAction inserts an action row for a service.
func (s *Store) CreateAction(serviceID int64, name, displayName, description, configSchema string) (int64, error) {
	if configSchema == "" {
		configSchema = "{}"
	}
	res, err := s.db.Exec(
		`INSERT INTO actions (service_id, name, display_name, description, config_schema) VALUES (?, ?, ?, ?, ?)`,
		serviceID, name, displayName, description, configSchema,
	)
	if err != nil {
		return 0, fmt.Errorf("store: create action %s: %w", name, err)
	}
	return res.LastInsertId()
}

// CreateReaction inserts a reaction row for a service.
func (s *Store) CreateReaction(serviceID int64, name, displayName, description, configSchema string) (int64, error) {
	if configSchema == "" {
		configSchema = "{}"
	}
	res, err := s.db.Exec(
		`INSERT INTO reactions (service_id, name, display_name, description, config_schema) VALUES (?, ?, ?, ?, ?)`,
		serviceID, name, displayName, description, configSchema,
	)
	if err != nil {
		return 0, fmt.Errorf("store: create reaction %s: %w", name, err)
	}
	return res.LastInsertId()
}

// GetActionByName returns a service's action by its internal name, or nil.
func (s *Store) GetActionByName(serviceID int64, name string) (*Action, error) {
	var a Action
	err := s.db.QueryRow(
		`SELECT id, service_id, name, display_name, description, config_schema FROM actions WHERE service_id = ? AND name = ?`,
		serviceID, name,
	).Scan(&a.ID, &a.ServiceID, &a.Name, &a.DisplayName, &a.Description, &a.ConfigSchema)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get action %s: %w", name, err)
	}
	return &a, nil
}

// GetReactionByName returns a service's reaction by its internal name, or nil.
func (s *Store) GetReactionByName(serviceID int64, name string) (*Reaction, error) {
	var r Reaction
	err := s.db.QueryRow(
		`SELECT id, service_id, name, display_name, description, config_schema FROM reactions WHERE service_id = ? AND name = ?`,
		serviceID, name,
	).Scan(&r.ID, &r.ServiceID, &r.Name, &r.DisplayName, &r.Description, &r.ConfigSchema)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get reaction %s: %w", name, err)
	}
	return &r, nil
}

// GetActionByID returns the action row with the given ID, or nil.
func (s *Store) GetActionByID(id int64) (*Action, error) {
	var a Action
	err := s.db.QueryRow(
		`SELECT id, service_id, name, display_name, description, config_schema FROM actions WHERE id = ?`, id,
	).Scan(&a.ID, &a.ServiceID, &a.Name, &a.DisplayName, &a.Description, &a.ConfigSchema)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get action %d: %w", id, err)
	}
	return &a, nil
}

// GetReactionByID returns the reaction row with the given ID, or nil.
func (s *Store) GetReactionByID(id int64) (*Reaction, error) {
	var r Reaction
	err := s.db.QueryRow(
		`SELECT id, service_id, name, display_name, description, config_schema FROM reactions WHERE id = ?`, id,
	).Scan(&r.ID, &r.ServiceID, &r.Name, &r.DisplayName, &r.Description, &r.ConfigSchema)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get reaction %d: %w", id, err)
	}
	return &r, nil
}

// CatalogCounts reports row totals for the seeded reference data.
func (s *Store) CatalogCounts() (services, actions, reactions int, err error) {
	if err = s.db.QueryRow(`SELECT COUNT(*) FROM services`).Scan(&services); err != nil {
		return 0, 0, 0, fmt.Errorf("store: count services: %w", err)
	}
	if err = s.db.QueryRow(`SELECT COUNT(*) FROM actions`).Scan(&actions); err != nil {
		return 0, 0, 0, fmt.Errorf("store: count actions: %w", err)
	}
	if err = s.db.QueryRow(`SELECT COUNT(*) FROM reactions`).Scan(&reactions); err != nil {
		return 0, 0, 0, fmt.Errorf("store: count reactions: %w", err)
	}
	return services, actions, reactions, nil
}
