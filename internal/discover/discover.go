// Package discover walks search roots and yields candidate files that pass
// the configured inclusion policy.
package discover

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// maxDepth bounds recursion. Symlinks are followed, so the depth ceiling is
// what prevents directory cycles from causing unbounded work; files nested
// deeper than the ceiling are not discovered.
const maxDepth = 20

// Policy holds the inclusion/exclusion rules applied during a walk.
type Policy struct {
	ExcludedPrefixes []string
	IncludeHidden    bool
	IncludedExts     []string // empty means all extensions
	ExcludedExts     []string
	MaxFileSize      int64 // bytes; 0 means unlimited
}

// Candidate is one regular file that passed the policy.
type Candidate struct {
	Path string
	Info fs.FileInfo
}

// Discoverer walks roots and reports candidates. It holds no state between
// runs; Discover is safe to invoke repeatedly.
type Discoverer struct {
	logger *slog.Logger
}

// New creates a Discoverer.
func New(logger *slog.Logger) *Discoverer {
	return &Discoverer{logger: logger}
}

// Discover walks every root and returns the full candidate set. A missing
// or unreadable root is logged and skipped; the walk continues with the
// remaining roots. Only regular files are yielded; directories are
// traversed but never returned.
func (d *Discoverer) Discover(ctx context.Context, roots []string, policy Policy) ([]Candidate, error) {
	var out []Candidate
	for _, root := range roots {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		abs, err := filepath.Abs(root)
		if err != nil {
			d.logger.Warn("discover: resolve root failed", slog.String("root", root), slog.String("error", err.Error()))
			continue
		}
		if _, err := os.Stat(abs); err != nil {
			d.logger.Warn("discover: root skipped", slog.String("root", abs), slog.String("error", err.Error()))
			continue
		}
		d.walk(ctx, abs, abs, 0, policy, &out)
	}
	return out, nil
}

// walk recurses manually (rather than filepath.WalkDir) so symlinked
// directories are followed under the shared depth ceiling.
func (d *Discoverer) walk(ctx context.Context, root, dir string, depth int, policy Policy, out *[]Candidate) {
	if depth > maxDepth || ctx.Err() != nil {
		return
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		d.logger.Debug("discover: read dir failed", slog.String("dir", dir), slog.String("error", err.Error()))
		return
	}
	for _, entry := range entries {
		name := entry.Name()
		path := filepath.Join(dir, name)

		if !policy.IncludeHidden && strings.HasPrefix(name, ".") {
			continue
		}
		if policy.pathExcluded(path) {
			continue
		}

		// Resolve symlinks so linked directories are traversed and linked
		// files stat their targets.
		info, err := os.Stat(path)
		if err != nil {
			d.logger.Debug("discover: stat failed", slog.String("path", path), slog.String("error", err.Error()))
			continue
		}

		if info.IsDir() {
			d.walk(ctx, root, path, depth+1, policy, out)
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}
		if !policy.fileAllowed(path, info.Size()) {
			continue
		}
		*out = append(*out, Candidate{Path: path, Info: info})
	}
}

// Allows reports whether a single known path passes the policy. It applies
// the same rules the walk does, for callers reacting to individual
// filesystem events rather than walking.
func (p Policy) Allows(path string, info fs.FileInfo) bool {
	if !p.IncludeHidden && strings.HasPrefix(filepath.Base(path), ".") {
		return false
	}
	if p.pathExcluded(path) {
		return false
	}
	if !info.Mode().IsRegular() {
		return false
	}
	return p.fileAllowed(path, info.Size())
}

func (p Policy) pathExcluded(path string) bool {
	lower := strings.ToLower(path)
	for _, prefix := range p.ExcludedPrefixes {
		if strings.HasPrefix(lower, strings.ToLower(prefix)) {
			return true
		}
	}
	return false
}

func (p Policy) fileAllowed(path string, size int64) bool {
	if p.MaxFileSize > 0 && size > p.MaxFileSize {
		return false
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, excluded := range p.ExcludedExts {
		if strings.EqualFold(ext, excluded) {
			return false
		}
	}
	if len(p.IncludedExts) > 0 {
		for _, included := range p.IncludedExts {
			if strings.EqualFold(ext, included) {
				return true
			}
		}
		return false
	}
	return true
}
