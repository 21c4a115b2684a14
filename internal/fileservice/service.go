// Package fileservice coordinates the search engine, indexing pipeline, and
// cloud manager behind the operations the HTTP and MCP surfaces expose.
package fileservice

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/wlfogle/OmnioSearch/internal/apperr"
	"github.com/wlfogle/OmnioSearch/internal/cloud"
	"github.com/wlfogle/OmnioSearch/internal/indexer"
	"github.com/wlfogle/OmnioSearch/internal/interpret"
	"github.com/wlfogle/OmnioSearch/internal/search"
	"github.com/wlfogle/OmnioSearch/internal/store"
)

// Service is the application facade consumed by the API and MCP layers.
type Service struct {
	db     store.FileStore
	engine *search.Engine
	ix     *indexer.Indexer
	cloud  *cloud.Manager
	interp *interpret.Interpreter
	roots  []string
}

// New creates a Service.
func New(db store.FileStore, engine *search.Engine, ix *indexer.Indexer, cm *cloud.Manager, interp *interpret.Interpreter, roots []string) *Service {
	return &Service{db: db, engine: engine, ix: ix, cloud: cm, interp: interp, roots: roots}
}

// Search interprets free text and evaluates it against all sources.
func (s *Service) Search(ctx context.Context, text string) ([]search.Result, error) {
	return s.engine.Search(ctx, text)
}

// SearchWithQuery evaluates a pre-built structured query.
func (s *Service) SearchWithQuery(ctx context.Context, q search.Query) ([]search.Result, error) {
	return s.engine.SearchWithQuery(ctx, q)
}

// StartIndexing launches a background bulk run. Empty roots default to the
// configured search roots.
func (s *Service) StartIndexing(ctx context.Context, roots []string) error {
	if len(roots) == 0 {
		roots = s.roots
	}
	if len(roots) == 0 {
		return fmt.Errorf("no roots configured: %w", apperr.ErrDiscovery)
	}
	return s.ix.Start(ctx, roots)
}

// Status returns the aggregate index snapshot.
func (s *Service) Status() (*store.IndexStatus, error) {
	return s.ix.Status()
}

// Progress returns the next pending progress update, or nil.
func (s *Service) Progress() *indexer.Progress {
	return s.ix.Progress()
}

// IsPathIndexed reports whether a root completed a bulk run.
func (s *Service) IsPathIndexed(root string) bool {
	return s.ix.IsPathIndexed(root)
}

// GetFile returns the stored record for a path, or ErrNotFound.
func (s *Service) GetFile(path string) (*store.FileRecord, error) {
	rec, err := s.db.GetByPath(path)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("%s: %w", path, apperr.ErrNotFound)
	}
	return rec, nil
}

// Suggestions proposes completions for a partial query.
func (s *Service) Suggestions(partial string) []string {
	if s.interp == nil {
		return nil
	}
	return s.interp.Suggestions(partial)
}

// CloudAuthURL returns the OAuth grant URL for a provider.
func (s *Service) CloudAuthURL(id string) (string, error) {
	if s.cloud == nil {
		return "", fmt.Errorf("cloud search disabled: %w", apperr.ErrCloud)
	}
	return s.cloud.AuthURL(id)
}

// CompleteCloudAuth exchanges an OAuth code for stored credentials.
func (s *Service) CompleteCloudAuth(ctx context.Context, id, code string) error {
	if s.cloud == nil {
		return fmt.Errorf("cloud search disabled: %w", apperr.ErrCloud)
	}
	return s.cloud.CompleteAuth(ctx, id, code)
}

// CloudProviders lists authenticated cloud providers.
func (s *Service) CloudProviders() []string {
	if s.cloud == nil {
		return nil
	}
	return s.cloud.Authenticated()
}

// AllowedPath reports whether path resolves under a configured search root.
// The content endpoint uses it to refuse serving arbitrary files.
func (s *Service) AllowedPath(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	for _, root := range s.roots {
		rootAbs, err := filepath.Abs(root)
		if err != nil {
			continue
		}
		rel, err := filepath.Rel(rootAbs, abs)
		if err != nil {
			continue
		}
		if rel == "." || (!strings.HasPrefix(rel, "..") && filepath.IsLocal(rel)) {
			return true
		}
	}
	return false
}
