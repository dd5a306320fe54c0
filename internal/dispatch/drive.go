package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/CrackedOnTiti/AREA/internal/providers"
	"github.com/CrackedOnTiti/AREA/internal/store"
)

// driveChecker fires on the first recent file this workflow has not seen.
// Dedup matches the file id as a substring of prior log messages, so a
// renamed file cannot fire twice.
type driveChecker struct {
	kind     string
	drive    *providers.Drive
	store    *store.Store
	tokens   *tokens
	clock    Clock
	lookback time.Duration
}

func fileFingerprint(f providers.File) string {
	return fmt.Sprintf("New file: %s (id:%s)", f.Name, f.ID)
}

func (c *driveChecker) Check(ctx context.Context, w store.Workflow) Outcome {
	token, err := c.tokens.access(ctx, w.UserID, "drive")
	if err != nil {
		return Outcome{Err: err.Error()}
	}

	var folderID string
	if c.kind == ActionNewFileInFolder {
		folderName := stringConfig(w.ActionConfig, "folder_name")
		if folderName == "" {
			return Outcome{Err: "missing folder_name in action config"}
		}
		folderID, err = c.drive.FolderIDByName(ctx, token, folderName)
		if err != nil {
			return Outcome{Err: err.Error()}
		}
		if folderID == "" {
			return Outcome{Err: fmt.Sprintf("folder %q not found", folderName)}
		}
	}

	since := c.clock.Now().Add(-c.lookback)
	files, err := c.drive.RecentFiles(ctx, token, folderID, since, probeLimit)
	if err != nil {
		return Outcome{Err: err.Error()}
	}

	for _, f := range files {
		seen, err := c.store.FindLogContaining(w.ID, f.ID)
		if err != nil {
			return Outcome{Err: err.Error()}
		}
		if seen != nil {
			continue
		}
		return Outcome{Fired: true, Metadata: fileFingerprint(f)}
	}
	return Outcome{}
}

// driveExecutor covers the create_file, create_folder and share_file
// reactions.
type driveExecutor struct {
	kind   string
	drive  *providers.Drive
	tokens *tokens
}

func (e *driveExecutor) Execute(ctx context.Context, w store.Workflow) Result {
	token, err := e.tokens.access(ctx, w.UserID, "drive")
	if err != nil {
		return Result{Err: err.Error()}
	}

	switch e.kind {
	case ReactionCreateFile:
		return e.createFile(ctx, token, w)
	case ReactionCreateFolder:
		return e.createFolder(ctx, token, w)
	case ReactionShareFile:
		return e.shareFile(ctx, token, w)
	}
	return Result{Err: fmt.Sprintf("Unknown reaction type: %s", e.kind)}
}

func (e *driveExecutor) createFile(ctx context.Context, token string, w store.Workflow) Result {
	fileName := stringConfig(w.ReactionConfig, "file_name")
	if fileName == "" {
		return Result{Err: "missing file_name in reaction config"}
	}
	content := stringConfig(w.ReactionConfig, "content")

	var folderID string
	if folderName := stringConfig(w.ReactionConfig, "folder_name"); folderName != "" {
		id, err := e.drive.FolderIDByName(ctx, token, folderName)
		if err != nil {
			return Result{Err: err.Error()}
		}
		if id == "" {
			return Result{Err: fmt.Sprintf("folder %q not found", folderName)}
		}
		folderID = id
	}

	if err := e.drive.CreateFile(ctx, token, fileName, content, folderID); err != nil {
		return Result{Err: err.Error()}
	}
	return Result{Success: true, Message: "Created file: " + fileName}
}

func (e *driveExecutor) createFolder(ctx context.Context, token string, w store.Workflow) Result {
	folderName := stringConfig(w.ReactionConfig, "folder_name")
	if folderName == "" {
		return Result{Err: "missing folder_name in reaction config"}
	}
	if err := e.drive.CreateFolder(ctx, token, folderName); err != nil {
		return Result{Err: err.Error()}
	}
	return Result{Success: true, Message: "Created folder: " + folderName}
}

func (e *driveExecutor) shareFile(ctx context.Context, token string, w store.Workflow) Result {
	fileName := stringConfig(w.ReactionConfig, "file_name")
	email := stringConfig(w.ReactionConfig, "email")
	if fileName == "" || email == "" {
		return Result{Err: "missing file_name or email in reaction config"}
	}
	role := stringConfig(w.ReactionConfig, "role")
	if role == "" {
		role = "reader"
	}

	fileID, err := e.drive.FileIDByName(ctx, token, fileName)
	if err != nil {
		return Result{Err: err.Error()}
	}
	if fileID == "" {
		return Result{Err: fmt.Sprintf("file %q not found", fileName)}
	}

	if err := e.drive.ShareFile(ctx, token, fileID, email, role); err != nil {
		return Result{Err: err.Error()}
	}
	return Result{Success: true, Message: fmt.Sprintf("Shared %s with %s", fileName, email)}
}
