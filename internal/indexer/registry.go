package indexer

import (
	"path/filepath"
	"sync"

	"github.com/wlfogle/OmnioSearch/internal/apperr"
)

// runRegistry tracks which roots have a bulk run in flight. Two runs over
// overlapping roots would race upserts of the same paths, so overlapping
// requests are rejected rather than started concurrently.
type runRegistry struct {
	mu     sync.Mutex
	active map[string]struct{}
}

func newRunRegistry() *runRegistry {
	return &runRegistry{active: make(map[string]struct{})}
}

// acquire normalizes roots and claims them, or fails with
// apperr.ErrIndexingInProgress if any root (or a prefix relationship with an
// active root) is already claimed.
func (r *runRegistry) acquire(roots []string) ([]string, error) {
	cleaned := make([]string, 0, len(roots))
	for _, root := range roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			abs = filepath.Clean(root)
		}
		cleaned = append(cleaned, abs)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, root := range cleaned {
		for active := range r.active {
			if root == active || isSubPath(active, root) || isSubPath(root, active) {
				return nil, apperr.ErrIndexingInProgress
			}
		}
	}
	for _, root := range cleaned {
		r.active[root] = struct{}{}
	}
	return cleaned, nil
}

func (r *runRegistry) release(roots []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, root := range roots {
		delete(r.active, root)
	}
}

// isSubPath reports whether child is inside parent.
func isSubPath(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel != ".." && !filepath.IsAbs(rel) && (rel == "." || !hasDotDotPrefix(rel))
}

func hasDotDotPrefix(rel string) bool {
	return rel == ".." || len(rel) > 2 && rel[:3] == ".."+string(filepath.Separator)
}
