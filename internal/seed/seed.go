// Package seed populates the service catalog and the default admin
// account on startup. Seeding is purely additive: rows that already
// exist are left untouched so operator edits survive restarts.
package seed

import (
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/CrackedOnTiti/AREA/internal/store"
)

// Default admin credential, created only when the users table is empty.
const (
	adminUsername = "admin"
	adminEmail    = "admin@area.local"
	adminPassword = "admin123"
)

type actionDef struct {
	name         string
	displayName  string
	description  string
	configSchema string
}

type serviceDef struct {
	name          string
	displayName   string
	description   string
	requiresOAuth bool
	actions       []actionDef
	reactions     []actionDef
}

// Run seeds the admin user and the full service catalog. Safe to call on
// every start; applying it twice changes nothing.
func Run(st *store.Store, logger *slog.Logger) error {
	logger = logger.With("component", "seed")

	if err := seedAdmin(st, logger); err != nil {
		return err
	}

	for _, svc := range catalog() {
		if err := seedService(st, svc); err != nil {
			return err
		}
	}

	services, actions, reactions, err := st.CatalogCounts()
	if err != nil {
		return err
	}
	logger.Info("catalog ready", "services", services, "actions", actions, "reactions", reactions)
	return nil
}

func seedAdmin(st *store.Store, logger *slog.Logger) error {
	count, err := st.CountUsers()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed: hash admin password: %w", err)
	}
	if _, err := st.CreateUser(adminUsername, adminEmail, string(hash)); err != nil {
		return err
	}
	logger.Info("created default admin user", "username", adminUsername)
	return nil
}

func seedService(st *store.Store, def serviceDef) error {
	svc, err := st.GetServiceByName(def.name)
	if err != nil {
		return err
	}
	if svc == nil {
		id, err := st.CreateService(def.name, def.displayName, def.description, def.requiresOAuth)
		if err != nil {
			return err
		}
		svc = &store.Service{ID: id, Name: def.name}
	}

	for _, a := range def.actions {
		existing, err := st.GetActionByName(svc.ID, a.name)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		if _, err := st.CreateAction(svc.ID, a.name, a.displayName, a.description, a.configSchema); err != nil {
			return err
		}
	}

	for _, r := range def.reactions {
		existing, err := st.GetReactionByName(svc.ID, r.name)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		if _, err := st.CreateReaction(svc.ID, r.name, r.displayName, r.description, r.configSchema); err != nil {
			return err
		}
	}
	return nil
}
