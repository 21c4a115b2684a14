package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wlfogle/OmnioSearch/internal/fileservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *fileservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)
	ch := NewContentHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Search.
	r.Get("/search", h.Search)
	r.Post("/search/query", h.SearchWithQuery)
	r.Get("/suggest", h.Suggest)

	// Indexing.
	r.Post("/index", h.StartIndexing)
	r.Get("/status", h.Status)
	r.Get("/progress", h.Progress)

	// File records and previews.
	r.Get("/files", h.File)
	r.Get("/files/content", ch.Serve)

	// Cloud providers.
	r.Get("/cloud/providers", h.CloudProviders)
	r.Get("/cloud/{provider}/auth", h.CloudAuth)
	r.Post("/cloud/{provider}/callback", h.CloudCallback)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
