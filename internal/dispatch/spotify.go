package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/CrackedOnTiti/AREA/internal/providers"
	"github.com/CrackedOnTiti/AREA/internal/store"
)

// playbackRelogWindow suppresses repeat playback fires for the same track.
// A song still playing after the window may fire again.
const playbackRelogWindow = 5 * time.Minute

func trackAddedFingerprint(t providers.Track) string {
	return fmt.Sprintf("Track added: %s by %s", t.Name, t.Artists)
}

func trackSavedFingerprint(t providers.Track) string {
	return fmt.Sprintf("Track saved: %s by %s", t.Name, t.Artists)
}

func playbackFingerprint(p providers.Playback) string {
	return fmt.Sprintf("Now playing: %s by %s", p.TrackName, p.Artists)
}

// spotifyChecker watches playlist additions, library saves and the
// current player.
type spotifyChecker struct {
	kind     string
	spotify  *providers.Spotify
	store    *store.Store
	tokens   *tokens
	clock    Clock
	lookback time.Duration
}

func (c *spotifyChecker) Check(ctx context.Context, w store.Workflow) Outcome {
	token, err := c.tokens.access(ctx, w.UserID, "spotify")
	if err != nil {
		return Outcome{Err: err.Error()}
	}
	since := c.clock.Now().Add(-c.lookback)

	switch c.kind {
	case ActionTrackAddedToPlaylist:
		playlistID := stringConfig(w.ActionConfig, "playlist_id")
		if playlistID == "" {
			return Outcome{Err: "missing playlist_id in action config"}
		}
		tracks, err := c.spotify.PlaylistTracks(ctx, token, playlistID, since, probeLimit)
		if err != nil {
			return Outcome{Err: err.Error()}
		}
		return c.firstUnseenTrack(w.ID, tracks, trackAddedFingerprint)

	case ActionTrackSaved:
		tracks, err := c.spotify.SavedTracks(ctx, token, since, probeLimit)
		if err != nil {
			return Outcome{Err: err.Error()}
		}
		return c.firstUnseenTrack(w.ID, tracks, trackSavedFingerprint)

	case ActionPlaybackStarted:
		return c.checkPlayback(ctx, token, w)
	}
	return Outcome{}
}

func (c *spotifyChecker) firstUnseenTrack(workflowID int64, tracks []providers.Track, fingerprint func(providers.Track) string) Outcome {
	for _, t := range tracks {
		fp := fingerprint(t)
		seen, err := c.store.FindLogByMessage(workflowID, fp)
		if err != nil {
			return Outcome{Err: err.Error()}
		}
		if seen != nil {
			continue
		}
		return Outcome{Fired: true, Metadata: fp}
	}
	return Outcome{}
}

// checkPlayback fires while a track is playing, at most once per relog
// window per track.
func (c *spotifyChecker) checkPlayback(ctx context.Context, token string, w store.Workflow) Outcome {
	playback, err := c.spotify.CurrentPlayback(ctx, token)
	if err != nil {
		return Outcome{Err: err.Error()}
	}
	if playback == nil || !playback.IsPlaying {
		return Outcome{}
	}

	fp := playbackFingerprint(*playback)
	last, err := c.store.FindLogByMessage(w.ID, fp)
	if err != nil {
		return Outcome{Err: err.Error()}
	}
	if last != nil && c.clock.Now().Sub(last.TriggeredAt) < playbackRelogWindow {
		return Outcome{}
	}
	return Outcome{Fired: true, Metadata: fp}
}

// spotifyExecutor covers the add_to_playlist, create_playlist and
// start_playback reactions.
type spotifyExecutor struct {
	kind    string
	spotify *providers.Spotify
	tokens  *tokens
}

func (e *spotifyExecutor) Execute(ctx context.Context, w store.Workflow) Result {
	token, err := e.tokens.access(ctx, w.UserID, "spotify")
	if err != nil {
		return Result{Err: err.Error()}
	}

	switch e.kind {
	case ReactionAddToPlaylist:
		playlistID := stringConfig(w.ReactionConfig, "playlist_id")
		trackURI := stringConfig(w.ReactionConfig, "track_uri")
		if playlistID == "" || trackURI == "" {
			return Result{Err: "missing playlist_id or track_uri in reaction config"}
		}
		if err := e.spotify.AddToPlaylist(ctx, token, playlistID, trackURI); err != nil {
			return Result{Err: err.Error()}
		}
		return Result{Success: true, Message: "Track added to playlist successfully"}

	case ReactionCreatePlaylist:
		name := stringConfig(w.ReactionConfig, "name")
		if name == "" {
			return Result{Err: "missing playlist name in reaction config"}
		}
		description := stringConfig(w.ReactionConfig, "description")
		public := boolConfig(w.ReactionConfig, "public", true)
		if _, err := e.spotify.CreatePlaylist(ctx, token, name, description, public); err != nil {
			return Result{Err: err.Error()}
		}
		return Result{Success: true, Message: "Created playlist: " + name}

	case ReactionStartPlayback:
		trackURI := stringConfig(w.ReactionConfig, "track_uri")
		contextURI := stringConfig(w.ReactionConfig, "context_uri")
		if trackURI != "" && contextURI != "" {
			return Result{Err: "track_uri and context_uri are mutually exclusive"}
		}
		if err := e.spotify.StartPlayback(ctx, token, trackURI, contextURI); err != nil {
			return Result{Err: err.Error()}
		}
		return Result{Success: true, Message: "Playback started successfully"}
	}
	return Result{Err: fmt.Sprintf("Unknown reaction type: %s", e.kind)}
}
