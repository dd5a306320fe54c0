package providers

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/CrackedOnTiti/AREA/internal/config"
)

// Refresher exchanges stored refresh tokens for fresh access tokens using
// each provider's OAuth application credentials.
type Refresher struct {
	configs map[string]*oauth2.Config
}

// NewRefresher builds refresh configs for every provider with credentials
// configured. Gmail and Drive share the Google application.
func NewRefresher(cfg config.OAuth) *Refresher {
	r := &Refresher{configs: make(map[string]*oauth2.Config)}

	if cfg.Google.ClientID != "" {
		google := &oauth2.Config{
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
			Endpoint:     endpoints.Google,
		}
		r.configs["gmail"] = google
		r.configs["drive"] = google
	}
	if cfg.Facebook.ClientID != "" {
		r.configs["facebook"] = &oauth2.Config{
			ClientID:     cfg.Facebook.ClientID,
			ClientSecret: cfg.Facebook.ClientSecret,
			Endpoint:     endpoints.Facebook,
		}
	}
	if cfg.GitHub.ClientID != "" {
		r.configs["github"] = &oauth2.Config{
			ClientID:     cfg.GitHub.ClientID,
			ClientSecret: cfg.GitHub.ClientSecret,
			Endpoint:     endpoints.GitHub,
		}
	}
	if cfg.Spotify.ClientID != "" {
		r.configs["spotify"] = &oauth2.Config{
			ClientID:     cfg.Spotify.ClientID,
			ClientSecret: cfg.Spotify.ClientSecret,
			Endpoint:     endpoints.Spotify,
		}
	}
	return r
}

// Refresh performs one refresh-token exchange for the named service.
func (r *Refresher) Refresh(ctx context.Context, service, refreshToken string) (*oauth2.Token, error) {
	conf, ok := r.configs[service]
	if !ok {
		return nil, fmt.Errorf("providers: no oauth credentials configured for %s", service)
	}

	src := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("providers: refresh %s token: %w", service, err)
	}
	return token, nil
}
