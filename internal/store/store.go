package store

import "time"

// FileStore defines the interface for metadata-store operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type FileStore interface {
	Upsert(rec FileRecord) (string, error)
	GetByID(id string) (*FileRecord, error)
	GetByPath(path string) (*FileRecord, error)
	Delete(path string) error
	TextSearch(query string, limit int) ([]FileRecord, error)
	PendingContent(limit int) ([]FileRecord, error)
	MarkContentExtracted(id string) error
	AllFingerprints() (map[string]string, error)
	Status() (*IndexStatus, error)
	Close() error
}

// FileRecord is one row in the files table; one entry per indexed path.
// Path is the unique key. ID is assigned on first insert and never changes,
// even when the record is replaced on re-discovery.
type FileRecord struct {
	ID               string    `json:"id"`
	Path             string    `json:"path"`
	Name             string    `json:"name"`
	Size             int64     `json:"size"`
	Modified         time.Time `json:"modified"`
	Created          time.Time `json:"created"`
	FileType         string    `json:"file_type"`
	MimeType         string    `json:"mime_type"`
	IsDirectory      bool      `json:"is_directory"`
	Permissions      string    `json:"permissions"`
	Checksum         string    `json:"checksum,omitempty"`
	IndexedAt        time.Time `json:"indexed_at"`
	ContentExtracted bool      `json:"content_extracted"`
}

// IndexStatus is an aggregate snapshot recomputed on demand from the store.
type IndexStatus struct {
	TotalFiles    int64     `json:"total_files"`
	IndexedFiles  int64     `json:"indexed_files"`
	PendingFiles  int64     `json:"pending_files"`
	FailedFiles   int64     `json:"failed_files"`
	LastUpdate    time.Time `json:"last_update"`
	IndexingSpeed float64   `json:"indexing_speed"`
	IndexSizeMB   float64   `json:"index_size_mb"`
}

// Verify *DB satisfies FileStore at compile time.
var _ FileStore = (*DB)(nil)
