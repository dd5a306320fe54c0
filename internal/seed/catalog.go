package seed

import "github.com/CrackedOnTiti/AREA/internal/dispatch"

// catalog returns the built-in services with their actions, reactions
// and per-workflow config schemas.
func catalog() []serviceDef {
	return []serviceDef{
		{
			name:        "timer",
			displayName: "Timer",
			description: "Time-based triggers and scheduling",
			actions: []actionDef{
				{
					name:        dispatch.ActionTimeMatches,
					displayName: "Time matches HH:MM",
					description: "Triggers when current time matches specified time (checks every minute)",
					configSchema: `{
						"type": "object",
						"properties": {
							"time": {
								"type": "string",
								"pattern": "^([0-1][0-9]|2[0-3]):[0-5][0-9]$",
								"description": "Time in HH:MM format (24-hour)"
							},
							"timezone": {
								"type": "string",
								"description": "IANA timezone name, defaults to the server timezone"
							}
						},
						"required": ["time"]
					}`,
				},
				{
					name:        dispatch.ActionIntervalElapsed,
					displayName: "Every X minutes",
					description: "Triggers every specified number of minutes",
					configSchema: `{
						"type": "object",
						"properties": {
							"interval_minutes": {
								"type": "integer",
								"minimum": 1,
								"description": "Interval in minutes"
							}
						},
						"required": ["interval_minutes"]
					}`,
				},
			},
		},
		{
			name:        "email",
			displayName: "Email",
			description: "Send emails via SMTP",
			reactions: []actionDef{
				{
					name:        dispatch.ReactionSendEmail,
					displayName: "Send an email",
					description: "Sends an email to the specified recipient",
					configSchema: `{
						"type": "object",
						"properties": {
							"to": {
								"type": "string",
								"format": "email",
								"description": "Recipient email address"
							},
							"subject": {
								"type": "string",
								"maxLength": 200,
								"description": "Email subject line"
							},
							"body": {
								"type": "string",
								"maxLength": 5000,
								"description": "Email body content"
							}
						},
						"required": ["to", "subject", "body"]
					}`,
				},
			},
		},
		{
			name:        "system",
			displayName: "System",
			description: "System-level actions and reactions",
			reactions: []actionDef{
				{
					name:        dispatch.ReactionLogMessage,
					displayName: "Log a message",
					description: "Saves a message to workflow execution logs",
					configSchema: `{
						"type": "object",
						"properties": {
							"message": {
								"type": "string",
								"maxLength": 500,
								"description": "Message to log"
							}
						},
						"required": ["message"]
					}`,
				},
				{
					name:        dispatch.ReactionSendNotification,
					displayName: "Send notification",
					description: "Logs notification to workflow logs (placeholder for real notifications)",
					configSchema: `{
						"type": "object",
						"properties": {
							"title": {
								"type": "string",
								"maxLength": 100,
								"description": "Notification title"
							},
							"body": {
								"type": "string",
								"maxLength": 500,
								"description": "Notification body"
							}
						},
						"required": ["title", "body"]
					}`,
				},
			},
		},
		{
			name:          "gmail",
			displayName:   "Gmail",
			description:   "Gmail inbox triggers",
			requiresOAuth: true,
			actions: []actionDef{
				{
					name:        dispatch.ActionEmailReceivedFrom,
					displayName: "Email received from",
					description: "Triggers when an email arrives from the specified sender",
					configSchema: `{
						"type": "object",
						"properties": {
							"sender": {
								"type": "string",
								"description": "Sender address or name fragment to match"
							}
						},
						"required": ["sender"]
					}`,
				},
				{
					name:        dispatch.ActionEmailSubjectContains,
					displayName: "Email subject contains",
					description: "Triggers when an email subject contains the keyword",
					configSchema: `{
						"type": "object",
						"properties": {
							"keyword": {
								"type": "string",
								"description": "Keyword to look for in the subject"
							}
						},
						"required": ["keyword"]
					}`,
				},
			},
		},
		{
			name:          "drive",
			displayName:   "Google Drive",
			description:   "Google Drive file triggers and file management",
			requiresOAuth: true,
			actions: []actionDef{
				{
					name:        dispatch.ActionNewFileInFolder,
					displayName: "New file in folder",
					description: "Triggers when a file is created in the named folder",
					configSchema: `{
						"type": "object",
						"properties": {
							"folder_name": {
								"type": "string",
								"description": "Folder to watch"
							}
						},
						"required": ["folder_name"]
					}`,
				},
				{
					name:         dispatch.ActionNewFileUploaded,
					displayName:  "New file uploaded",
					description:  "Triggers when any new file appears in Drive",
					configSchema: `{"type": "object"}`,
				},
			},
			reactions: []actionDef{
				{
					name:        dispatch.ReactionCreateFile,
					displayName: "Create a file",
					description: "Creates a text file, optionally inside a named folder",
					configSchema: `{
						"type": "object",
						"properties": {
							"file_name": {
								"type": "string",
								"description": "Name of the file to create"
							},
							"content": {
								"type": "string",
								"description": "File content"
							},
							"folder_name": {
								"type": "string",
								"description": "Destination folder, root when omitted"
							}
						},
						"required": ["file_name"]
					}`,
				},
				{
					name:        dispatch.ReactionCreateFolder,
					displayName: "Create a folder",
					description: "Creates a root-level folder",
					configSchema: `{
						"type": "object",
						"properties": {
							"folder_name": {
								"type": "string",
								"description": "Name of the folder to create"
							}
						},
						"required": ["folder_name"]
					}`,
				},
				{
					name:        dispatch.ReactionShareFile,
					displayName: "Share a file",
					description: "Grants a user access to a file by name",
					configSchema: `{
						"type": "object",
						"properties": {
							"file_name": {
								"type": "string",
								"description": "File to share"
							},
							"email": {
								"type": "string",
								"format": "email",
								"description": "Email address to share with"
							},
							"role": {
								"type": "string",
								"enum": ["reader", "writer"],
								"description": "Access level, reader by default"
							}
						},
						"required": ["file_name", "email"]
					}`,
				},
			},
		},
		{
			name:          "facebook",
			displayName:   "Facebook",
			description:   "Facebook timeline triggers and posting",
			requiresOAuth: true,
			actions: []actionDef{
				{
					name:         dispatch.ActionNewPostCreated,
					displayName:  "New post created",
					description:  "Triggers when a new post appears on the user's timeline",
					configSchema: `{"type": "object"}`,
				},
				{
					name:        dispatch.ActionPostContainsKeyword,
					displayName: "Post contains keyword",
					description: "Triggers when a new post contains the keyword",
					configSchema: `{
						"type": "object",
						"properties": {
							"keyword": {
								"type": "string",
								"description": "Keyword to look for in the post"
							}
						},
						"required": ["keyword"]
					}`,
				},
			},
			reactions: []actionDef{
				{
					name:        dispatch.ReactionCreatePost,
					displayName: "Create a post",
					description: "Publishes a message to the user's feed",
					configSchema: `{
						"type": "object",
						"properties": {
							"message": {
								"type": "string",
								"maxLength": 5000,
								"description": "Post content"
							}
						},
						"required": ["message"]
					}`,
				},
			},
		},
		{
			name:          "github",
			displayName:   "GitHub",
			description:   "GitHub repository triggers and issue creation",
			requiresOAuth: true,
			actions: []actionDef{
				{
					name:        dispatch.ActionNewStarOnRepo,
					displayName: "New star on repository",
					description: "Triggers when someone stars the repository",
					configSchema: `{
						"type": "object",
						"properties": {
							"repo_name": {
								"type": "string",
								"description": "Repository as owner/repo"
							}
						},
						"required": ["repo_name"]
					}`,
				},
				{
					name:        dispatch.ActionNewIssueCreated,
					displayName: "New issue created",
					description: "Triggers when an issue is opened (pull requests excluded)",
					configSchema: `{
						"type": "object",
						"properties": {
							"repo_name": {
								"type": "string",
								"description": "Repository as owner/repo"
							}
						},
						"required": ["repo_name"]
					}`,
				},
				{
					name:        dispatch.ActionNewPROpened,
					displayName: "New pull request opened",
					description: "Triggers when a pull request is opened",
					configSchema: `{
						"type": "object",
						"properties": {
							"repo_name": {
								"type": "string",
								"description": "Repository as owner/repo"
							}
						},
						"required": ["repo_name"]
					}`,
				},
			},
			reactions: []actionDef{
				{
					name:        dispatch.ReactionCreateIssue,
					displayName: "Create an issue",
					description: "Opens an issue on the repository",
					configSchema: `{
						"type": "object",
						"properties": {
							"repo_name": {
								"type": "string",
								"description": "Repository as owner/repo"
							},
							"title": {
								"type": "string",
								"maxLength": 200,
								"description": "Issue title"
							},
							"body": {
								"type": "string",
								"maxLength": 5000,
								"description": "Issue body"
							}
						},
						"required": ["repo_name", "title"]
					}`,
				},
			},
		},
		{
			name:          "spotify",
			displayName:   "Spotify",
			description:   "Spotify library, playlist and player integration",
			requiresOAuth: true,
			actions: []actionDef{
				{
					name:        dispatch.ActionTrackAddedToPlaylist,
					displayName: "Track added to playlist",
					description: "Triggers when a track is added to the playlist",
					configSchema: `{
						"type": "object",
						"properties": {
							"playlist_id": {
								"type": "string",
								"description": "Spotify playlist id"
							}
						},
						"required": ["playlist_id"]
					}`,
				},
				{
					name:         dispatch.ActionTrackSaved,
					displayName:  "Track saved to library",
					description:  "Triggers when the user saves a track",
					configSchema: `{"type": "object"}`,
				},
				{
					name:         dispatch.ActionPlaybackStarted,
					displayName:  "Playback started",
					description:  "Triggers while the user is playing a track",
					configSchema: `{"type": "object"}`,
				},
			},
			reactions: []actionDef{
				{
					name:        dispatch.ReactionAddToPlaylist,
					displayName: "Add track to playlist",
					description: "Appends a track to the playlist",
					configSchema: `{
						"type": "object",
						"properties": {
							"playlist_id": {
								"type": "string",
								"description": "Spotify playlist id"
							},
							"track_uri": {
								"type": "string",
								"description": "Track id or spotify:track: URI"
							}
						},
						"required": ["playlist_id", "track_uri"]
					}`,
				},
				{
					name:        dispatch.ReactionCreatePlaylist,
					displayName: "Create a playlist",
					description: "Creates a playlist under the current user",
					configSchema: `{
						"type": "object",
						"properties": {
							"name": {
								"type": "string",
								"maxLength": 100,
								"description": "Playlist name"
							},
							"description": {
								"type": "string",
								"maxLength": 300,
								"description": "Playlist description"
							},
							"public": {
								"type": "boolean",
								"description": "Whether the playlist is public, true by default"
							}
						},
						"required": ["name"]
					}`,
				},
				{
					name:        dispatch.ReactionStartPlayback,
					displayName: "Start playback",
					description: "Starts or resumes the player",
					configSchema: `{
						"type": "object",
						"properties": {
							"track_uri": {
								"type": "string",
								"description": "Track to play"
							},
							"context_uri": {
								"type": "string",
								"description": "Album or playlist context to play"
							}
						}
					}`,
				},
			},
		},
	}
}
