package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wlfogle/OmnioSearch/internal/apperr"
	"github.com/wlfogle/OmnioSearch/internal/fileservice"
	"github.com/wlfogle/OmnioSearch/internal/search"
)

// Handler holds API route handlers.
type Handler struct {
	svc *fileservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *fileservice.Service) *Handler {
	return &Handler{svc: svc}
}

// Search handles GET /api/search?q=.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}
	results, err := h.svc.Search(r.Context(), q)
	if err != nil {
		slog.Error("search failed", slog.String("q", q), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if results == nil {
		results = []search.Result{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results, Total: len(results)})
}

// SearchWithQuery handles POST /api/search/query.
func (h *Handler) SearchWithQuery(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req StructuredSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	results, err := h.svc.SearchWithQuery(r.Context(), req.Query())
	if err != nil {
		slog.Error("structured search failed", slog.String("text", req.Text), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if results == nil {
		results = []search.Result{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results, Total: len(results)})
}

// StartIndexing handles POST /api/index.
func (h *Handler) StartIndexing(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req IndexRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}
	if err := h.svc.StartIndexing(r.Context(), req.Roots); err != nil {
		switch {
		case errors.Is(err, apperr.ErrConflict):
			writeError(w, http.StatusConflict, "indexing already in progress for these roots")
		case errors.Is(err, apperr.ErrDiscovery):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			slog.Error("start indexing failed", slog.String("error", err.Error()))
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// Status handles GET /api/status.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	status, err := h.svc.Status()
	if err != nil {
		slog.Error("status failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// Progress handles GET /api/progress. Returns 204 when no update is pending.
func (h *Handler) Progress(w http.ResponseWriter, r *http.Request) {
	update := h.svc.Progress()
	if update == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, update)
}

// Suggest handles GET /api/suggest?q=.
func (h *Handler) Suggest(w http.ResponseWriter, r *http.Request) {
	partial := r.URL.Query().Get("q")
	suggestions := h.svc.Suggestions(partial)
	if suggestions == nil {
		suggestions = []string{}
	}
	writeJSON(w, http.StatusOK, SuggestResponse{Suggestions: suggestions})
}

// File handles GET /api/files?path=.
func (h *Handler) File(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}
	rec, err := h.svc.GetFile(path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not found")
		} else {
			slog.Error("get file failed", slog.String("path", path), slog.String("error", err.Error()))
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// CloudProviders handles GET /api/cloud/providers.
func (h *Handler) CloudProviders(w http.ResponseWriter, r *http.Request) {
	providers := h.svc.CloudProviders()
	if providers == nil {
		providers = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"providers": providers})
}

// CloudAuth handles GET /api/cloud/{provider}/auth.
func (h *Handler) CloudAuth(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "provider")
	authURL, err := h.svc.CloudAuthURL(id)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, CloudAuthResponse{Provider: id, AuthURL: authURL})
}

// CloudCallback handles POST /api/cloud/{provider}/callback.
func (h *Handler) CloudCallback(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "provider")
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req CloudCallbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}
	if err := h.svc.CompleteCloudAuth(r.Context(), id, req.Code); err != nil {
		slog.Error("cloud auth failed", slog.String("provider", id), slog.String("error", err.Error()))
		writeError(w, http.StatusBadGateway, "authentication failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
