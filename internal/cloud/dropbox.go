package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/wlfogle/OmnioSearch/internal/apperr"
)

const dropboxRedirectURI = "http://localhost:8080/auth/dropbox/callback"

// Dropbox searches Dropbox via the files/search_v2 API. Dropbox issues
// long-lived tokens, so Refresh is unsupported.
type Dropbox struct{}

func (Dropbox) ID() string { return "dropbox" }

func (Dropbox) AuthURL() string {
	q := url.Values{
		"client_id":     {envOr("DROPBOX_CLIENT_ID", "")},
		"redirect_uri":  {dropboxRedirectURI},
		"response_type": {"code"},
	}
	return "https://www.dropbox.com/oauth2/authorize?" + q.Encode()
}

func (Dropbox) Exchange(ctx context.Context, client *http.Client, code string) (Credentials, error) {
	creds, err := exchangeToken(ctx, client, "https://api.dropboxapi.com/oauth2/token", url.Values{
		"client_id":     {envOr("DROPBOX_CLIENT_ID", "")},
		"client_secret": {envOr("DROPBOX_CLIENT_SECRET", "")},
		"code":          {code},
		"grant_type":    {"authorization_code"},
		"redirect_uri":  {dropboxRedirectURI},
	})
	if err != nil {
		return Credentials{}, err
	}
	creds.RefreshToken = ""
	creds.ExpiresAt = nil
	return creds, nil
}

func (Dropbox) Refresh(ctx context.Context, client *http.Client, refreshToken string) (Credentials, error) {
	return Credentials{}, fmt.Errorf("dropbox tokens are long-lived: %w", apperr.ErrCloud)
}

func (d Dropbox) Search(ctx context.Context, client *http.Client, creds Credentials, query string) ([]File, error) {
	body, err := json.Marshal(map[string]any{
		"query": query,
		"options": map[string]any{
			"path":        "",
			"max_results": 100,
			"file_status": "active",
		},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.dropboxapi.com/2/files/search_v2", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+creds.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w: %w", err, apperr.ErrCloud)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %w", resp.StatusCode, apperr.ErrCloud)
	}

	var payload struct {
		Matches []struct {
			Metadata struct {
				Metadata struct {
					Tag            string `json:".tag"`
					ID             string `json:"id"`
					Name           string `json:"name"`
					PathLower      string `json:"path_lower"`
					Size           int64  `json:"size"`
					ClientModified string `json:"client_modified"`
				} `json:"metadata"`
			} `json:"metadata"`
		} `json:"matches"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode: %w: %w", err, apperr.ErrCloud)
	}

	files := make([]File, 0, len(payload.Matches))
	for _, m := range payload.Matches {
		meta := m.Metadata.Metadata
		if meta.Name == "" || meta.PathLower == "" {
			continue
		}
		modified, parseErr := time.Parse(time.RFC3339, meta.ClientModified)
		if parseErr != nil {
			modified = time.Now()
		}
		files = append(files, File{
			ID:       meta.ID,
			Name:     meta.Name,
			Path:     meta.PathLower,
			Size:     meta.Size,
			Modified: modified,
			// Dropbox does not report MIME types.
			MimeType: "application/octet-stream",
			Provider: d.ID(),
			IsFolder: meta.Tag == "folder",
		})
	}
	return files, nil
}
