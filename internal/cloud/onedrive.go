package cloud

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

const (
	onedriveTokenURL    = "https://login.microsoftonline.com/common/oauth2/v2.0/token"
	onedriveRedirectURI = "http://localhost:8080/auth/onedrive/callback"
)

// OneDrive searches OneDrive via the Microsoft Graph drive search API.
type OneDrive struct{}

func (OneDrive) ID() string { return "onedrive" }

func (OneDrive) AuthURL() string {
	q := url.Values{
		"client_id":     {envOr("ONEDRIVE_CLIENT_ID", "")},
		"redirect_uri":  {onedriveRedirectURI},
		"response_type": {"code"},
		"scope":         {"https://graph.microsoft.com/Files.Read offline_access"},
	}
	return "https://login.microsoftonline.com/common/oauth2/v2.0/authorize?" + q.Encode()
}

func (OneDrive) Exchange(ctx context.Context, client *http.Client, code string) (Credentials, error) {
	return exchangeToken(ctx, client, onedriveTokenURL, url.Values{
		"client_id":     {envOr("ONEDRIVE_CLIENT_ID", "")},
		"client_secret": {envOr("ONEDRIVE_CLIENT_SECRET", "")},
		"code":          {code},
		"grant_type":    {"authorization_code"},
		"redirect_uri":  {onedriveRedirectURI},
	})
}

func (OneDrive) Refresh(ctx context.Context, client *http.Client, refreshToken string) (Credentials, error) {
	return exchangeToken(ctx, client, onedriveTokenURL, url.Values{
		"client_id":     {envOr("ONEDRIVE_CLIENT_ID", "")},
		"client_secret": {envOr("ONEDRIVE_CLIENT_SECRET", "")},
		"refresh_token": {refreshToken},
		"grant_type":    {"refresh_token"},
	})
}

func (o OneDrive) Search(ctx context.Context, client *http.Client, creds Credentials, query string) ([]File, error) {
	searchURL := "https://graph.microsoft.com/v1.0/me/drive/root/search(q='" + url.QueryEscape(query) + "')"

	var payload struct {
		Value []struct {
			ID                   string `json:"id"`
			Name                 string `json:"name"`
			Size                 int64  `json:"size"`
			LastModifiedDateTime string `json:"lastModifiedDateTime"`
			DownloadURL          string `json:"@microsoft.graph.downloadUrl"`
			File                 *struct {
				MimeType string `json:"mimeType"`
			} `json:"file"`
			Folder          *struct{} `json:"folder"`
			ParentReference struct {
				Path string `json:"path"`
			} `json:"parentReference"`
		} `json:"value"`
	}
	if err := getJSON(ctx, client, searchURL, creds.AccessToken, &payload); err != nil {
		return nil, err
	}

	files := make([]File, 0, len(payload.Value))
	for _, item := range payload.Value {
		modified, parseErr := time.Parse(time.RFC3339, item.LastModifiedDateTime)
		if parseErr != nil {
			modified = time.Now()
		}
		path := "/" + item.Name
		if item.ParentReference.Path != "" {
			path = item.ParentReference.Path + "/" + item.Name
		}
		mimeType := "application/octet-stream"
		if item.File != nil && item.File.MimeType != "" {
			mimeType = item.File.MimeType
		}
		files = append(files, File{
			ID:          item.ID,
			Name:        item.Name,
			Path:        path,
			Size:        item.Size,
			Modified:    modified,
			MimeType:    mimeType,
			Provider:    o.ID(),
			DownloadURL: item.DownloadURL,
			IsFolder:    item.Folder != nil,
		})
	}
	return files, nil
}
