// Package apperr defines the sentinel errors shared across components.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a record is absent where presence is required.
	ErrNotFound = errors.New("not found")
	// ErrConflict signals an optimistic-concurrency or uniqueness violation.
	ErrConflict = errors.New("conflict")
	// ErrStorage wraps metadata-store or full-text-index I/O failures.
	ErrStorage = errors.New("storage error")
	// ErrDiscovery marks an unreadable or missing search root; the root is skipped.
	ErrDiscovery = errors.New("discovery error")
	// ErrExtraction marks a single-file metadata or content failure; the file is skipped.
	ErrExtraction = errors.New("extraction error")
	// ErrExternalTool marks a missing or failed subprocess; the source yields no results.
	ErrExternalTool = errors.New("external tool error")
	// ErrCloud marks a provider auth/network failure; that provider's results are omitted.
	ErrCloud = errors.New("cloud error")
	// ErrIndexingInProgress rejects an indexing run whose roots overlap one
	// in flight. It wraps ErrConflict.
	ErrIndexingInProgress = fmt.Errorf("%w: indexing already in progress for overlapping roots", ErrConflict)
)
