package dispatch

import (
	"context"
	"fmt"

	"github.com/CrackedOnTiti/AREA/internal/store"
)

// tokens resolves a user's access token for a provider. When the stored
// token has expired it attempts one silent refresh and persists the new
// token before giving up.
type tokens struct {
	store     *store.Store
	refresher TokenRefresher
	clock     Clock
}

func (t *tokens) access(ctx context.Context, userID int64, service string) (string, error) {
	svc, err := t.store.GetServiceByName(service)
	if err != nil {
		return "", err
	}
	if svc == nil {
		return "", fmt.Errorf("%s service not found", service)
	}

	conn, err := t.store.GetConnection(userID, svc.ID)
	if err != nil {
		return "", err
	}
	if conn == nil {
		return "", fmt.Errorf("%s not connected for this user", svc.DisplayName)
	}

	if !conn.TokenExpiresAt.Valid || conn.TokenExpiresAt.Time.After(t.clock.Now()) {
		return conn.AccessToken, nil
	}

	if t.refresher != nil && conn.RefreshToken.Valid && conn.RefreshToken.String != "" {
		fresh, err := t.refresher.Refresh(ctx, service, conn.RefreshToken.String)
		if err == nil {
			if err := t.store.UpdateConnectionToken(conn.ID, fresh.AccessToken, fresh.Expiry); err != nil {
				return "", err
			}
			return fresh.AccessToken, nil
		}
	}
	return "", fmt.Errorf("%s not connected for this user (token expired)", svc.DisplayName)
}
