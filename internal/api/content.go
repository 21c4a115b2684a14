package api

import (
	"net/http"
	"os"

	"github.com/wlfogle/OmnioSearch/internal/fileservice"
)

// ContentHandler serves raw file content for previewing search results.
// Only paths under the configured search roots are served.
type ContentHandler struct {
	svc *fileservice.Service
}

// NewContentHandler creates a ContentHandler.
func NewContentHandler(svc *fileservice.Service) *ContentHandler {
	return &ContentHandler{svc: svc}
}

// Serve handles GET /api/files/content?path=.
func (h *ContentHandler) Serve(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}
	if !h.svc.AllowedPath(path) {
		writeError(w, http.StatusForbidden, "path outside search roots")
		return
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		http.NotFound(w, r)
		return
	}
	if err != nil || info.IsDir() {
		writeError(w, http.StatusBadRequest, "not a regular file")
		return
	}
	http.ServeFile(w, r, path)
}
