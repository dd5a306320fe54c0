package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	driveBaseURL   = "https://www.googleapis.com/drive/v3"
	driveUploadURL = "https://www.googleapis.com/upload/drive/v3"

	folderMimeType = "application/vnd.google-apps.folder"
)

// Drive talks to the Google Drive v3 API.
type Drive struct {
	BaseURL   string
	UploadURL string
	HTTP      *http.Client
}

func NewDrive(client *http.Client) *Drive {
	return &Drive{BaseURL: driveBaseURL, UploadURL: driveUploadURL, HTTP: defaultHTTPClient(client)}
}

// File is one Drive file as seen by the new-file checkers.
type File struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	MimeType    string `json:"mimeType"`
	CreatedTime string `json:"createdTime"`
	WebViewLink string `json:"webViewLink"`
}

type driveFileList struct {
	Files []File `json:"files"`
}

// RecentFiles lists non-trashed files created after since, newest first.
// folderID restricts the search to one folder when non-empty.
func (d *Drive) RecentFiles(ctx context.Context, token, folderID string, since time.Time, max int) ([]File, error) {
	parts := []string{"trashed = false"}
	if folderID != "" {
		parts = append(parts, fmt.Sprintf("'%s' in parents", folderID))
	}
	if !since.IsZero() {
		parts = append(parts, fmt.Sprintf("createdTime > '%s'", since.UTC().Format("2006-01-02T15:04:05")))
	}

	q := url.Values{}
	q.Set("q", strings.Join(parts, " and "))
	q.Set("pageSize", strconv.Itoa(max))
	q.Set("orderBy", "createdTime desc")
	q.Set("fields", "files(id, name, mimeType, createdTime, webViewLink)")

	var list driveFileList
	if err := apiRequest(ctx, d.HTTP, http.MethodGet, d.BaseURL+"/files?"+q.Encode(), bearerAuth(token), nil, &list); err != nil {
		return nil, fmt.Errorf("drive: list files: %w", err)
	}
	return list.Files, nil
}

// FolderIDByName resolves a folder by exact name. Returns "" when no
// folder matches.
func (d *Drive) FolderIDByName(ctx context.Context, token, name string) (string, error) {
	return d.findID(ctx, token, fmt.Sprintf("name='%s' and mimeType='%s' and trashed=false", name, folderMimeType))
}

// FileIDByName resolves a file by exact name. Returns "" when no file
// matches.
func (d *Drive) FileIDByName(ctx context.Context, token, name string) (string, error) {
	return d.findID(ctx, token, fmt.Sprintf("name='%s' and trashed=false", name))
}

func (d *Drive) findID(ctx context.Context, token, query string) (string, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("pageSize", "1")
	q.Set("fields", "files(id, name)")

	var list driveFileList
	if err := apiRequest(ctx, d.HTTP, http.MethodGet, d.BaseURL+"/files?"+q.Encode(), bearerAuth(token), nil, &list); err != nil {
		return "", fmt.Errorf("drive: find: %w", err)
	}
	if len(list.Files) == 0 {
		return "", nil
	}
	return list.Files[0].ID, nil
}

// CreateFile uploads a plain-text file, optionally into a folder.
func (d *Drive) CreateFile(ctx context.Context, token, name, content, folderID string) error {
	metadata := map[string]any{"name": name}
	if folderID != "" {
		metadata["parents"] = []string{folderID}
	}
	metaRaw, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("drive: encode metadata: %w", err)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	metaHeader := textproto.MIMEHeader{}
	metaHeader.Set("Content-Type", "application/json; charset=UTF-8")
	metaPart, err := mw.CreatePart(metaHeader)
	if err != nil {
		return fmt.Errorf("drive: multipart metadata: %w", err)
	}
	metaPart.Write(metaRaw)

	bodyHeader := textproto.MIMEHeader{}
	bodyHeader.Set("Content-Type", "text/plain; charset=UTF-8")
	bodyPart, err := mw.CreatePart(bodyHeader)
	if err != nil {
		return fmt.Errorf("drive: multipart body: %w", err)
	}
	bodyPart.Write([]byte(content))
	mw.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.UploadURL+"/files?uploadType=multipart", &buf)
	if err != nil {
		return fmt.Errorf("drive: build upload: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "multipart/related; boundary="+mw.Boundary())

	resp, err := d.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("drive: create file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("drive: create file: %w", statusError(resp))
	}
	return nil
}

// CreateFolder creates a root-level folder.
func (d *Drive) CreateFolder(ctx context.Context, token, name string) error {
	body := map[string]any{"name": name, "mimeType": folderMimeType}
	if err := apiRequest(ctx, d.HTTP, http.MethodPost, d.BaseURL+"/files", bearerAuth(token), body, nil); err != nil {
		return fmt.Errorf("drive: create folder: %w", err)
	}
	return nil
}

// ShareFile grants role (reader or writer) on a file to an email address,
// with the provider's notification email enabled.
func (d *Drive) ShareFile(ctx context.Context, token, fileID, email, role string) error {
	body := map[string]any{"type": "user", "role": role, "emailAddress": email}
	url := fmt.Sprintf("%s/files/%s/permissions?sendNotificationEmail=true", d.BaseURL, fileID)
	if err := apiRequest(ctx, d.HTTP, http.MethodPost, url, bearerAuth(token), body, nil); err != nil {
		return fmt.Errorf("drive: share file: %w", err)
	}
	return nil
}
