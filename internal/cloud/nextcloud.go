package cloud

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/wlfogle/OmnioSearch/internal/apperr"
)

const nextcloudRedirectURI = "http://localhost:8080/auth/nextcloud/callback"

// NextCloud searches a self-hosted Nextcloud server over WebDAV. The
// server base URL comes from NEXTCLOUD_SERVER_URL.
type NextCloud struct{}

func (NextCloud) ID() string { return "nextcloud" }

func nextcloudServer() string {
	return strings.TrimSuffix(envOr("NEXTCLOUD_SERVER_URL", "https://localhost"), "/")
}

func (NextCloud) AuthURL() string {
	q := url.Values{
		"client_id":     {envOr("NEXTCLOUD_CLIENT_ID", "")},
		"redirect_uri":  {nextcloudRedirectURI},
		"response_type": {"code"},
		"scope":         {"files"},
	}
	return nextcloudServer() + "/apps/oauth2/authorize?" + q.Encode()
}

func (NextCloud) Exchange(ctx context.Context, client *http.Client, code string) (Credentials, error) {
	return exchangeToken(ctx, client, nextcloudServer()+"/apps/oauth2/api/v1/token", url.Values{
		"client_id":     {envOr("NEXTCLOUD_CLIENT_ID", "")},
		"client_secret": {envOr("NEXTCLOUD_CLIENT_SECRET", "")},
		"code":          {code},
		"grant_type":    {"authorization_code"},
		"redirect_uri":  {nextcloudRedirectURI},
	})
}

func (NextCloud) Refresh(ctx context.Context, client *http.Client, refreshToken string) (Credentials, error) {
	return exchangeToken(ctx, client, nextcloudServer()+"/apps/oauth2/api/v1/token", url.Values{
		"client_id":     {envOr("NEXTCLOUD_CLIENT_ID", "")},
		"client_secret": {envOr("NEXTCLOUD_CLIENT_SECRET", "")},
		"refresh_token": {refreshToken},
		"grant_type":    {"refresh_token"},
	})
}

// davSearchBody is the WebDAV basicsearch request matching file names by
// substring under the user's files root.
const davSearchBody = `<?xml version="1.0" encoding="UTF-8"?>
<d:searchrequest xmlns:d="DAV:">
  <d:basicsearch>
    <d:select><d:prop>
      <d:displayname/><d:getcontentlength/><d:getlastmodified/>
      <d:getcontenttype/><d:resourcetype/>
    </d:prop></d:select>
    <d:from><d:scope><d:href>/files/%s</d:href><d:depth>infinity</d:depth></d:scope></d:from>
    <d:where><d:like>
      <d:prop><d:displayname/></d:prop>
      <d:literal>%%%s%%</d:literal>
    </d:like></d:where>
  </d:basicsearch>
</d:searchrequest>`

type davMultistatus struct {
	Responses []struct {
		Href     string `xml:"href"`
		Propstat []struct {
			Prop struct {
				DisplayName   string `xml:"displayname"`
				ContentLength int64  `xml:"getcontentlength"`
				LastModified  string `xml:"getlastmodified"`
				ContentType   string `xml:"getcontenttype"`
				ResourceType  struct {
					Collection *struct{} `xml:"collection"`
				} `xml:"resourcetype"`
			} `xml:"prop"`
		} `xml:"propstat"`
	} `xml:"response"`
}

func (n NextCloud) Search(ctx context.Context, client *http.Client, creds Credentials, query string) ([]File, error) {
	user := envOr("NEXTCLOUD_USER", "admin")
	body := fmt.Sprintf(davSearchBody, user, query)

	req, err := http.NewRequestWithContext(ctx, "SEARCH", nextcloudServer()+"/remote.php/dav/", strings.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+creds.AccessToken)
	req.Header.Set("Content-Type", "application/xml")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w: %w", err, apperr.ErrCloud)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMultiStatus {
		return nil, fmt.Errorf("unexpected status %d: %w", resp.StatusCode, apperr.ErrCloud)
	}

	var ms davMultistatus
	if err := xml.NewDecoder(resp.Body).Decode(&ms); err != nil {
		return nil, fmt.Errorf("decode: %w: %w", err, apperr.ErrCloud)
	}

	files := make([]File, 0, len(ms.Responses))
	for _, r := range ms.Responses {
		if len(r.Propstat) == 0 {
			continue
		}
		prop := r.Propstat[0].Prop
		name := prop.DisplayName
		if name == "" {
			name = path.Base(r.Href)
		}
		modified, parseErr := time.Parse(time.RFC1123, prop.LastModified)
		if parseErr != nil {
			modified = time.Now()
		}
		mimeType := prop.ContentType
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}
		files = append(files, File{
			ID:       r.Href,
			Name:     name,
			Path:     r.Href,
			Size:     prop.ContentLength,
			Modified: modified,
			MimeType: mimeType,
			Provider: n.ID(),
			IsFolder: prop.ResourceType.Collection != nil,
		})
	}
	return files, nil
}
