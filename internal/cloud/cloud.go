// Package cloud searches files on remote storage providers. Each vendor is
// one Provider implementation registered in a Manager keyed by provider id;
// adding a vendor adds an implementation, never a dispatch site.
package cloud

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/wlfogle/OmnioSearch/internal/apperr"
)

// File is one remote search hit.
type File struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Path         string    `json:"path"`
	Size         int64     `json:"size"`
	Modified     time.Time `json:"modified"`
	MimeType     string    `json:"mime_type"`
	Provider     string    `json:"provider"`
	DownloadURL  string    `json:"download_url,omitempty"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	IsFolder     bool      `json:"is_folder"`
}

// Credentials is one provider's opaque token set.
type Credentials struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}

// Provider is one remote storage vendor.
type Provider interface {
	// ID is the stable identifier used for registry lookup and in File.Provider.
	ID() string
	// AuthURL returns the URL the user visits to grant access.
	AuthURL() string
	// Exchange trades an OAuth authorization code for credentials.
	Exchange(ctx context.Context, client *http.Client, code string) (Credentials, error)
	// Refresh trades a refresh token for fresh credentials. Providers
	// without refresh support return apperr.ErrCloud.
	Refresh(ctx context.Context, client *http.Client, refreshToken string) (Credentials, error)
	// Search queries the provider with the given credentials.
	Search(ctx context.Context, client *http.Client, creds Credentials, query string) ([]File, error)
}

// Manager holds the provider registry and per-provider credentials behind
// one shared HTTP client.
type Manager struct {
	client    *http.Client
	logger    *slog.Logger
	providers map[string]Provider

	mu    sync.RWMutex
	creds map[string]Credentials
}

// NewManager creates a Manager with the given providers registered. The
// HTTP client carries a hard timeout so a stalled provider cannot hang a
// search.
func NewManager(logger *slog.Logger, timeout time.Duration, providers ...Provider) *Manager {
	m := &Manager{
		client:    &http.Client{Timeout: timeout},
		logger:    logger,
		providers: make(map[string]Provider, len(providers)),
		creds:     make(map[string]Credentials),
	}
	for _, p := range providers {
		m.providers[p.ID()] = p
	}
	return m
}

// Defaults returns the built-in provider set.
func Defaults() []Provider {
	return []Provider{
		GoogleDrive{},
		Dropbox{},
		OneDrive{},
		NextCloud{},
	}
}

func (m *Manager) provider(id string) (Provider, error) {
	p, ok := m.providers[id]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q: %w", id, apperr.ErrCloud)
	}
	return p, nil
}

// AuthURL returns the grant URL for a provider.
func (m *Manager) AuthURL(id string) (string, error) {
	p, err := m.provider(id)
	if err != nil {
		return "", err
	}
	return p.AuthURL(), nil
}

// CompleteAuth exchanges the OAuth code and stores the credentials.
func (m *Manager) CompleteAuth(ctx context.Context, id, code string) error {
	p, err := m.provider(id)
	if err != nil {
		return err
	}
	creds, err := p.Exchange(ctx, m.client, code)
	if err != nil {
		return fmt.Errorf("auth %s: %w", id, err)
	}
	m.mu.Lock()
	m.creds[id] = creds
	m.mu.Unlock()
	m.logger.Info("cloud: authenticated", slog.String("provider", id))
	return nil
}

// IsAuthenticated reports whether credentials are held for a provider.
func (m *Manager) IsAuthenticated(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.creds[id]
	return ok
}

// Authenticated lists providers with stored credentials, sorted by id.
func (m *Manager) Authenticated() []string {
	m.mu.RLock()
	ids := make([]string, 0, len(m.creds))
	for id := range m.creds {
		ids = append(ids, id)
	}
	m.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// Search queries one provider, refreshing an expired token first when a
// refresh token is available.
func (m *Manager) Search(ctx context.Context, id, query string) ([]File, error) {
	p, err := m.provider(id)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	creds, ok := m.creds[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("provider %s not authenticated: %w", id, apperr.ErrCloud)
	}

	if creds.ExpiresAt != nil && time.Now().After(*creds.ExpiresAt) && creds.RefreshToken != "" {
		fresh, refreshErr := p.Refresh(ctx, m.client, creds.RefreshToken)
		if refreshErr != nil {
			m.logger.Warn("cloud: token refresh failed", slog.String("provider", id), slog.String("error", refreshErr.Error()))
		} else {
			if fresh.RefreshToken == "" {
				fresh.RefreshToken = creds.RefreshToken
			}
			m.mu.Lock()
			m.creds[id] = fresh
			m.mu.Unlock()
			creds = fresh
		}
	}

	files, err := p.Search(ctx, m.client, creds, query)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", id, err)
	}
	return files, nil
}

// SearchAll queries every authenticated provider. A single provider's
// failure is logged and its results omitted; the rest are unaffected.
func (m *Manager) SearchAll(ctx context.Context, query string) []File {
	var out []File
	for _, id := range m.Authenticated() {
		files, err := m.Search(ctx, id, query)
		if err != nil {
			m.logger.Warn("cloud: provider search failed", slog.String("provider", id), slog.String("error", err.Error()))
			continue
		}
		out = append(out, files...)
	}
	return out
}

// exchangeToken posts an OAuth form exchange and decodes the token payload.
// It backs both code exchange and refresh for every form-based provider.
func exchangeToken(ctx context.Context, client *http.Client, tokenURL string, form url.Values) (Credentials, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return Credentials{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return Credentials{}, fmt.Errorf("token request: %w: %w", err, apperr.ErrCloud)
	}
	defer resp.Body.Close()

	var payload struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Credentials{}, fmt.Errorf("token decode: %w: %w", err, apperr.ErrCloud)
	}
	if payload.AccessToken == "" {
		return Credentials{}, fmt.Errorf("no access token in response (status %d): %w", resp.StatusCode, apperr.ErrCloud)
	}

	creds := Credentials{AccessToken: payload.AccessToken, RefreshToken: payload.RefreshToken}
	if payload.ExpiresIn > 0 {
		exp := time.Now().Add(time.Duration(payload.ExpiresIn) * time.Second)
		creds.ExpiresAt = &exp
	}
	return creds, nil
}

// getJSON performs a bearer-authenticated GET and decodes the body into v.
func getJSON(ctx context.Context, client *http.Client, rawURL, accessToken string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request: %w: %w", err, apperr.ErrCloud)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d: %w", resp.StatusCode, apperr.ErrCloud)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
