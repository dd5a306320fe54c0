package providers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const spotifyBaseURL = "https://api.spotify.com/v1"

// Spotify talks to the Web API for the current user's library and player.
type Spotify struct {
	BaseURL string
	HTTP    *http.Client
}

func NewSpotify(client *http.Client) *Spotify {
	return &Spotify{BaseURL: spotifyBaseURL, HTTP: defaultHTTPClient(client)}
}

// Track is one playlist or library entry. Artists is the comma-joined
// artist list, the form the fingerprints use.
type Track struct {
	ID      string
	Name    string
	Artists string
	URI     string
	AddedAt time.Time
}

// Playback is the user's current player state.
type Playback struct {
	IsPlaying bool
	TrackID   string
	TrackName string
	Artists   string
	URI       string
}

type spotifyTrack struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	URI     string `json:"uri"`
	Artists []struct {
		Name string `json:"name"`
	} `json:"artists"`
}

type spotifyTrackPage struct {
	Items []struct {
		AddedAt string       `json:"added_at"`
		Track   spotifyTrack `json:"track"`
	} `json:"items"`
}

func joinArtists(t spotifyTrack) string {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		names = append(names, a.Name)
	}
	return strings.Join(names, ", ")
}

func (s *Spotify) trackPage(ctx context.Context, token, url string, since time.Time) ([]Track, error) {
	var page spotifyTrackPage
	if err := apiRequest(ctx, s.HTTP, http.MethodGet, url, bearerAuth(token), nil, &page); err != nil {
		return nil, err
	}

	var tracks []Track
	for _, item := range page.Items {
		addedAt, err := time.Parse(time.RFC3339, item.AddedAt)
		if err != nil {
			continue
		}
		if !since.IsZero() && addedAt.Before(since) {
			continue
		}
		if item.Track.ID == "" {
			continue
		}
		tracks = append(tracks, Track{
			ID:      item.Track.ID,
			Name:    item.Track.Name,
			Artists: joinArtists(item.Track),
			URI:     item.Track.URI,
			AddedAt: addedAt,
		})
	}
	return tracks, nil
}

// PlaylistTracks lists tracks added to a playlist after since.
func (s *Spotify) PlaylistTracks(ctx context.Context, token, playlistID string, since time.Time, limit int) ([]Track, error) {
	url := fmt.Sprintf("%s/playlists/%s/tracks?limit=%d", s.BaseURL, playlistID, limit)
	tracks, err := s.trackPage(ctx, token, url, since)
	if err != nil {
		return nil, fmt.Errorf("spotify: playlist tracks: %w", err)
	}
	return tracks, nil
}

// SavedTracks lists the user's library additions after since.
func (s *Spotify) SavedTracks(ctx context.Context, token string, since time.Time, limit int) ([]Track, error) {
	url := fmt.Sprintf("%s/me/tracks?limit=%d", s.BaseURL, limit)
	tracks, err := s.trackPage(ctx, token, url, since)
	if err != nil {
		return nil, fmt.Errorf("spotify: saved tracks: %w", err)
	}
	return tracks, nil
}

type spotifyPlayer struct {
	IsPlaying bool          `json:"is_playing"`
	Item      *spotifyTrack `json:"item"`
}

// CurrentPlayback returns the player state, or nil when nothing is
// playing (the API answers 204 with no body).
func (s *Spotify) CurrentPlayback(ctx context.Context, token string) (*Playback, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+"/me/player", nil)
	if err != nil {
		return nil, fmt.Errorf("spotify: current playback: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("spotify: current playback: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("spotify: current playback: %w", statusError(resp))
	}

	var player spotifyPlayer
	if err := decodeJSON(resp, &player); err != nil {
		return nil, fmt.Errorf("spotify: current playback: %w", err)
	}
	if player.Item == nil {
		return nil, nil
	}
	return &Playback{
		IsPlaying: player.IsPlaying,
		TrackID:   player.Item.ID,
		TrackName: player.Item.Name,
		Artists:   joinArtists(*player.Item),
		URI:       player.Item.URI,
	}, nil
}

// TrackURI normalizes a bare track id into a spotify:track: URI.
func TrackURI(id string) string {
	if strings.HasPrefix(id, "spotify:") {
		return id
	}
	return "spotify:track:" + id
}

// AddToPlaylist appends one track to a playlist.
func (s *Spotify) AddToPlaylist(ctx context.Context, token, playlistID, trackURI string) error {
	body := map[string]any{"uris": []string{TrackURI(trackURI)}}
	url := fmt.Sprintf("%s/playlists/%s/tracks", s.BaseURL, playlistID)
	if err := apiRequest(ctx, s.HTTP, http.MethodPost, url, bearerAuth(token), body, nil); err != nil {
		return fmt.Errorf("spotify: add to playlist: %w", err)
	}
	return nil
}

type spotifyProfile struct {
	ID string `json:"id"`
}

// CreatePlaylist creates a playlist under the current user and returns
// its id.
func (s *Spotify) CreatePlaylist(ctx context.Context, token, name, description string, public bool) (string, error) {
	var profile spotifyProfile
	if err := apiRequest(ctx, s.HTTP, http.MethodGet, s.BaseURL+"/me", bearerAuth(token), nil, &profile); err != nil {
		return "", fmt.Errorf("spotify: get profile: %w", err)
	}

	body := map[string]any{"name": name, "description": description, "public": public}
	var created spotifyProfile
	url := fmt.Sprintf("%s/users/%s/playlists", s.BaseURL, profile.ID)
	if err := apiRequest(ctx, s.HTTP, http.MethodPost, url, bearerAuth(token), body, &created); err != nil {
		return "", fmt.Errorf("spotify: create playlist: %w", err)
	}
	return created.ID, nil
}

// StartPlayback starts or resumes the player. Exactly one of trackURI or
// contextURI may be set; with neither, playback resumes where it left off.
func (s *Spotify) StartPlayback(ctx context.Context, token, trackURI, contextURI string) error {
	body := map[string]any{}
	if trackURI != "" {
		body["uris"] = []string{TrackURI(trackURI)}
	} else if contextURI != "" {
		body["context_uri"] = contextURI
	}

	if err := apiRequest(ctx, s.HTTP, http.MethodPut, s.BaseURL+"/me/player/play", bearerAuth(token), body, nil); err != nil {
		return fmt.Errorf("spotify: start playback: %w", err)
	}
	return nil
}
