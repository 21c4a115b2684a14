package cloud

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	googleTokenURL    = "https://oauth2.googleapis.com/token"
	googleRedirectURI = "http://localhost:8080/auth/google/callback"
)

// GoogleDrive searches Google Drive via the Drive v3 files API.
type GoogleDrive struct{}

func (GoogleDrive) ID() string { return "google_drive" }

func (GoogleDrive) AuthURL() string {
	q := url.Values{
		"client_id":     {envOr("GOOGLE_CLIENT_ID", "")},
		"redirect_uri":  {googleRedirectURI},
		"response_type": {"code"},
		"scope":         {"https://www.googleapis.com/auth/drive.readonly"},
		"access_type":   {"offline"},
	}
	return "https://accounts.google.com/o/oauth2/v2/auth?" + q.Encode()
}

func (GoogleDrive) Exchange(ctx context.Context, client *http.Client, code string) (Credentials, error) {
	return exchangeToken(ctx, client, googleTokenURL, url.Values{
		"client_id":     {envOr("GOOGLE_CLIENT_ID", "")},
		"client_secret": {envOr("GOOGLE_CLIENT_SECRET", "")},
		"code":          {code},
		"grant_type":    {"authorization_code"},
		"redirect_uri":  {googleRedirectURI},
	})
}

func (GoogleDrive) Refresh(ctx context.Context, client *http.Client, refreshToken string) (Credentials, error) {
	return exchangeToken(ctx, client, googleTokenURL, url.Values{
		"client_id":     {envOr("GOOGLE_CLIENT_ID", "")},
		"client_secret": {envOr("GOOGLE_CLIENT_SECRET", "")},
		"refresh_token": {refreshToken},
		"grant_type":    {"refresh_token"},
	})
}

func (g GoogleDrive) Search(ctx context.Context, client *http.Client, creds Credentials, query string) ([]File, error) {
	q := url.Values{
		"q":      {"name contains '" + query + "'"},
		"fields": {"files(id,name,size,modifiedTime,mimeType,webContentLink,thumbnailLink)"},
	}
	var payload struct {
		Files []struct {
			ID             string `json:"id"`
			Name           string `json:"name"`
			Size           string `json:"size"`
			ModifiedTime   string `json:"modifiedTime"`
			MimeType       string `json:"mimeType"`
			WebContentLink string `json:"webContentLink"`
			ThumbnailLink  string `json:"thumbnailLink"`
		} `json:"files"`
	}
	err := getJSON(ctx, client, "https://www.googleapis.com/drive/v3/files?"+q.Encode(), creds.AccessToken, &payload)
	if err != nil {
		return nil, err
	}

	files := make([]File, 0, len(payload.Files))
	for _, f := range payload.Files {
		size, _ := strconv.ParseInt(f.Size, 10, 64)
		modified, parseErr := time.Parse(time.RFC3339, f.ModifiedTime)
		if parseErr != nil {
			modified = time.Now()
		}
		mimeType := f.MimeType
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}
		files = append(files, File{
			ID:           f.ID,
			Name:         f.Name,
			Path:         "/google_drive/" + f.Name,
			Size:         size,
			Modified:     modified,
			MimeType:     mimeType,
			Provider:     g.ID(),
			DownloadURL:  f.WebContentLink,
			ThumbnailURL: f.ThumbnailLink,
			IsFolder:     f.MimeType == "application/vnd.google-apps.folder",
		})
	}
	return files, nil
}
