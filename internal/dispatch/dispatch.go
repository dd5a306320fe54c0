// Package dispatch routes workflows to their action checkers and
// reaction executors. The registry is a static name-to-handler mapping
// built at startup; the scheduler resolves handlers by catalog name and
// knows nothing about individual providers.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"

	"github.com/CrackedOnTiti/AREA/internal/providers"
	"github.com/CrackedOnTiti/AREA/internal/store"
)

// Catalog names for the built-in actions.
const (
	ActionTimeMatches          = "time_matches"
	ActionIntervalElapsed      = "interval_elapsed"
	ActionEmailReceivedFrom    = "email_received_from"
	ActionEmailSubjectContains = "email_subject_contains"
	ActionNewFileInFolder      = "new_file_in_folder"
	ActionNewFileUploaded      = "new_file_uploaded"
	ActionNewPostCreated       = "new_post_created"
	ActionPostContainsKeyword  = "post_contains_keyword"
	ActionNewStarOnRepo        = "new_star_on_repo"
	ActionNewIssueCreated      = "new_issue_created"
	ActionNewPROpened          = "new_pr_opened"
	ActionTrackAddedToPlaylist = "track_added_to_playlist"
	ActionTrackSaved           = "track_saved"
	ActionPlaybackStarted      = "playback_started"
)

// Catalog names for the built-in reactions.
const (
	ReactionSendEmail        = "send_email"
	ReactionCreateFile       = "create_file"
	ReactionCreateFolder     = "create_folder"
	ReactionShareFile        = "share_file"
	ReactionCreatePost       = "create_post"
	ReactionCreateIssue      = "create_issue"
	ReactionAddToPlaylist    = "add_to_playlist"
	ReactionCreatePlaylist   = "create_playlist"
	ReactionStartPlayback    = "start_playback"
	ReactionLogMessage       = "log_message"
	ReactionSendNotification = "send_notification"
)

// probeLimit caps how many items a remote-data checker examines per tick.
const probeLimit = 10

// defaultLookback bounds how far back remote-data checkers probe. Longer
// than the tick interval so adjacent tick windows overlap.
const defaultLookback = 5 * time.Minute

// Outcome is one action evaluation. Fired means the reaction should run;
// Metadata is the fingerprint recorded as the log message. Err carries
// probe and config failures, which the scheduler logs as status=failed.
type Outcome struct {
	Fired    bool
	Metadata string
	Err      string
}

// Result is one reaction execution.
type Result struct {
	Success bool
	Message string
	Err     string
}

// Checker decides whether a workflow's action condition currently holds.
// Checkers never write to the store; recording fires is the scheduler's
// job.
type Checker interface {
	Check(ctx context.Context, w store.Workflow) Outcome
}

// Executor performs a workflow's reaction.
type Executor interface {
	Execute(ctx context.Context, w store.Workflow) Result
}

// CheckerFunc adapts a function to the Checker interface.
type CheckerFunc func(ctx context.Context, w store.Workflow) Outcome

func (f CheckerFunc) Check(ctx context.Context, w store.Workflow) Outcome { return f(ctx, w) }

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, w store.Workflow) Result

func (f ExecutorFunc) Execute(ctx context.Context, w store.Workflow) Result { return f(ctx, w) }

// MailSender is the SMTP collaborator the send_email executor needs.
type MailSender interface {
	Send(ctx context.Context, to, subject, body string, html bool) error
}

// TokenRefresher exchanges a refresh token for a fresh access token.
// *providers.Refresher is the production implementation.
type TokenRefresher interface {
	Refresh(ctx context.Context, service, refreshToken string) (*oauth2.Token, error)
}

// Clock supplies the current instant so checkers are testable against a
// fixed time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock reads the wall clock.
func SystemClock() Clock { return systemClock{} }

// Deps collects everything the built-in handlers need. Store is required;
// nil provider clients default to their real endpoints, a nil Clock to
// the wall clock and a zero Lookback to five minutes.
type Deps struct {
	Store     *store.Store
	Clock     Clock
	Mail      MailSender
	Gmail     *providers.Gmail
	Drive     *providers.Drive
	Facebook  *providers.Facebook
	GitHub    *providers.GitHub
	Spotify   *providers.Spotify
	Refresher TokenRefresher

	// Timezone is the fallback when a workflow config names none.
	Timezone *time.Location
	Lookback time.Duration
}

// Dispatcher is the static registry of checkers and executors.
type Dispatcher struct {
	checkers  map[string]Checker
	executors map[string]Executor
}

// New builds the registry with every built-in handler registered.
func New(deps Deps) *Dispatcher {
	if deps.Clock == nil {
		deps.Clock = systemClock{}
	}
	if deps.Timezone == nil {
		deps.Timezone = time.UTC
	}
	if deps.Lookback <= 0 {
		deps.Lookback = defaultLookback
	}
	if deps.Gmail == nil {
		deps.Gmail = providers.NewGmail(nil)
	}
	if deps.Drive == nil {
		deps.Drive = providers.NewDrive(nil)
	}
	if deps.Facebook == nil {
		deps.Facebook = providers.NewFacebook(nil)
	}
	if deps.GitHub == nil {
		deps.GitHub = providers.NewGitHub(nil)
	}
	if deps.Spotify == nil {
		deps.Spotify = providers.NewSpotify(nil)
	}

	tok := &tokens{store: deps.Store, refresher: deps.Refresher, clock: deps.Clock}

	d := &Dispatcher{
		checkers:  make(map[string]Checker),
		executors: make(map[string]Executor),
	}

	d.RegisterChecker(ActionTimeMatches, &timeMatchesChecker{clock: deps.Clock, fallback: deps.Timezone})
	d.RegisterChecker(ActionIntervalElapsed, &intervalElapsedChecker{clock: deps.Clock})
	for _, kind := range []string{ActionEmailReceivedFrom, ActionEmailSubjectContains} {
		d.RegisterChecker(kind, &gmailChecker{kind: kind, gmail: deps.Gmail, store: deps.Store, tokens: tok, clock: deps.Clock, lookback: deps.Lookback})
	}
	for _, kind := range []string{ActionNewFileInFolder, ActionNewFileUploaded} {
		d.RegisterChecker(kind, &driveChecker{kind: kind, drive: deps.Drive, store: deps.Store, tokens: tok, clock: deps.Clock, lookback: deps.Lookback})
	}
	for _, kind := range []string{ActionNewPostCreated, ActionPostContainsKeyword} {
		d.RegisterChecker(kind, &facebookChecker{kind: kind, facebook: deps.Facebook, store: deps.Store, tokens: tok, clock: deps.Clock, lookback: deps.Lookback})
	}
	for _, kind := range []string{ActionNewStarOnRepo, ActionNewIssueCreated, ActionNewPROpened} {
		d.RegisterChecker(kind, &githubChecker{kind: kind, github: deps.GitHub, store: deps.Store, tokens: tok, clock: deps.Clock, lookback: deps.Lookback})
	}
	for _, kind := range []string{ActionTrackAddedToPlaylist, ActionTrackSaved, ActionPlaybackStarted} {
		d.RegisterChecker(kind, &spotifyChecker{kind: kind, spotify: deps.Spotify, store: deps.Store, tokens: tok, clock: deps.Clock, lookback: deps.Lookback})
	}

	d.RegisterExecutor(ReactionSendEmail, &sendEmailExecutor{mail: deps.Mail})
	d.RegisterExecutor(ReactionCreateFile, &driveExecutor{kind: ReactionCreateFile, drive: deps.Drive, tokens: tok})
	d.RegisterExecutor(ReactionCreateFolder, &driveExecutor{kind: ReactionCreateFolder, drive: deps.Drive, tokens: tok})
	d.RegisterExecutor(ReactionShareFile, &driveExecutor{kind: ReactionShareFile, drive: deps.Drive, tokens: tok})
	d.RegisterExecutor(ReactionCreatePost, &facebookExecutor{facebook: deps.Facebook, tokens: tok})
	d.RegisterExecutor(ReactionCreateIssue, &githubExecutor{github: deps.GitHub, tokens: tok})
	d.RegisterExecutor(ReactionAddToPlaylist, &spotifyExecutor{kind: ReactionAddToPlaylist, spotify: deps.Spotify, tokens: tok})
	d.RegisterExecutor(ReactionCreatePlaylist, &spotifyExecutor{kind: ReactionCreatePlaylist, spotify: deps.Spotify, tokens: tok})
	d.RegisterExecutor(ReactionStartPlayback, &spotifyExecutor{kind: ReactionStartPlayback, spotify: deps.Spotify, tokens: tok})
	d.RegisterExecutor(ReactionLogMessage, ExecutorFunc(executeLogMessage))
	d.RegisterExecutor(ReactionSendNotification, ExecutorFunc(executeSendNotification))

	return d
}

// RegisterChecker binds an action name to a checker, replacing any
// existing binding.
func (d *Dispatcher) RegisterChecker(name string, c Checker) {
	d.checkers[name] = c
}

// RegisterExecutor binds a reaction name to an executor, replacing any
// existing binding.
func (d *Dispatcher) RegisterExecutor(name string, e Executor) {
	d.executors[name] = e
}

// CheckerFor resolves an action name. Unknown names return an error, not
// a panic; the scheduler records it as a failed evaluation.
func (d *Dispatcher) CheckerFor(name string) (Checker, error) {
	c, ok := d.checkers[name]
	if !ok {
		return nil, fmt.Errorf("Unknown action type: %s", name)
	}
	return c, nil
}

// ExecutorFor resolves a reaction name.
func (d *Dispatcher) ExecutorFor(name string) (Executor, error) {
	e, ok := d.executors[name]
	if !ok {
		return nil, fmt.Errorf("Unknown reaction type: %s", name)
	}
	return e, nil
}

// stringConfig reads a string config value; absent or non-string keys
// come back empty.
func stringConfig(cfg map[string]any, key string) string {
	if cfg == nil {
		return ""
	}
	s, _ := cfg[key].(string)
	return s
}

// intConfig reads an integer config value. JSON decoding hands numbers
// back as float64, so both forms are accepted.
func intConfig(cfg map[string]any, key string) (int, bool) {
	if cfg == nil {
		return 0, false
	}
	switch v := cfg[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

// boolConfig reads a boolean config value with a default.
func boolConfig(cfg map[string]any, key string, def bool) bool {
	if cfg == nil {
		return def
	}
	if v, ok := cfg[key].(bool); ok {
		return v
	}
	return def
}
