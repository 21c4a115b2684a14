// Package indexer orchestrates the indexing pipeline: discovery, metadata
// extraction, batched writes into the metadata store and full-text index,
// content extraction, and commit. A filesystem watcher (watcher.go) feeds
// the same write path incrementally outside bulk runs.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/wlfogle/OmnioSearch/internal/discover"
	"github.com/wlfogle/OmnioSearch/internal/extract"
	"github.com/wlfogle/OmnioSearch/internal/fingerprint"
	"github.com/wlfogle/OmnioSearch/internal/fulltext"
	"github.com/wlfogle/OmnioSearch/internal/store"
)

// Options tunes a pipeline instance.
type Options struct {
	BatchSize      int  // files per write batch (default 1000)
	Workers        int  // intra-batch metadata extraction parallelism (default 4)
	ExtractContent bool // run the content-extraction phase
	Policy         discover.Policy
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = 1000
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	return o
}

// Indexer runs bulk indexing and serves status/progress queries. Bulk runs
// execute as detached goroutines; Start returns immediately and completion
// is observable via Progress reaching PhaseComplete or PhaseError.
type Indexer struct {
	db     store.FileStore
	ft     *fulltext.Index
	disc   *discover.Discoverer
	logger *slog.Logger
	opts   Options

	progress *progressFeed
	registry *runRegistry

	mu           sync.Mutex
	indexedRoots map[string]struct{}
	lastSpeed    float64
}

// New creates an Indexer.
func New(db store.FileStore, ft *fulltext.Index, logger *slog.Logger, opts Options) *Indexer {
	return &Indexer{
		db:           db,
		ft:           ft,
		disc:         discover.New(logger),
		logger:       logger,
		opts:         opts.withDefaults(),
		progress:     newProgressFeed(),
		registry:     newRunRegistry(),
		indexedRoots: make(map[string]struct{}),
	}
}

// Start launches a bulk run over roots in the background. It fails fast
// with apperr.ErrIndexingInProgress when the roots overlap a run already in
// flight; otherwise it returns immediately while the run proceeds.
func (ix *Indexer) Start(ctx context.Context, roots []string) error {
	cleaned, err := ix.registry.acquire(roots)
	if err != nil {
		return err
	}
	ix.logger.Info("indexer: run started", slog.Int("roots", len(cleaned)))

	go func() {
		defer ix.registry.release(cleaned)
		if runErr := ix.run(ctx, cleaned); runErr != nil {
			ix.logger.Error("indexer: run failed", slog.String("error", runErr.Error()))
			ix.progress.send(Progress{
				CurrentPath: "Indexing failed",
				Running:     false,
				Phase:       PhaseError,
				Error:       runErr.Error(),
			})
		}
	}()
	return nil
}

// Progress returns the next pending progress update without blocking, or
// nil when none is waiting. Intermediate updates may be dropped for slow
// observers; the terminal update is always retained.
func (ix *Indexer) Progress() *Progress {
	return ix.progress.poll()
}

// IsPathIndexed reports whether root was covered by a completed bulk run.
func (ix *Indexer) IsPathIndexed(root string) bool {
	abs, err := filepath.Abs(root)
	if err != nil {
		return false
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	_, ok := ix.indexedRoots[abs]
	return ok
}

// Status returns the store's aggregate snapshot with the most recent run's
// throughput filled in.
func (ix *Indexer) Status() (*store.IndexStatus, error) {
	st, err := ix.db.Status()
	if err != nil {
		return nil, err
	}
	ix.mu.Lock()
	st.IndexingSpeed = ix.lastSpeed
	ix.mu.Unlock()
	return st, nil
}

func (ix *Indexer) run(ctx context.Context, roots []string) error {
	start := time.Now()

	ix.progress.send(Progress{CurrentPath: "Scanning...", Running: true, Phase: PhaseScanning})

	// The full candidate set is collected up front so progress can report an
	// accurate total and ETA. Memory is traded for that accuracy.
	candidates, err := ix.disc.Discover(ctx, roots, ix.opts.Policy)
	if err != nil {
		return fmt.Errorf("indexer: scan: %w", err)
	}
	total := int64(len(candidates))
	ix.logger.Info("indexer: scan complete", slog.Int64("candidates", total))

	ix.progress.send(Progress{
		CurrentPath: "Indexing files...",
		TotalFiles:  total,
		Running:     true,
		Phase:       PhaseIndexing,
	})

	var processed int64
	for batchStart := 0; batchStart < len(candidates); batchStart += ix.opts.BatchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		batchEnd := min(batchStart+ix.opts.BatchSize, len(candidates))
		batch := candidates[batchStart:batchEnd]

		processed += int64(ix.processBatch(ctx, batch))

		elapsed := time.Since(start).Seconds()
		speed := float64(processed) / max(elapsed, 0.001)
		var remaining time.Duration
		if speed > 0 {
			remaining = time.Duration(float64(total-processed)/speed) * time.Second
		}
		ix.progress.send(Progress{
			CurrentPath:    batch[len(batch)-1].Path,
			ProcessedFiles: processed,
			TotalFiles:     total,
			Speed:          speed,
			Remaining:      remaining,
			Running:        true,
			Phase:          PhaseIndexing,
		})
	}

	ix.progress.send(Progress{
		CurrentPath:    "Extracting content...",
		ProcessedFiles: processed,
		TotalFiles:     total,
		Running:        true,
		Phase:          PhaseContentExtraction,
	})
	if ix.opts.ExtractContent {
		ix.extractContent(ctx)
	}

	ix.progress.send(Progress{
		CurrentPath:    "Finalizing...",
		ProcessedFiles: processed,
		TotalFiles:     total,
		Running:        true,
		Phase:          PhaseFinalizing,
	})
	if err := ix.ft.Commit(); err != nil {
		return fmt.Errorf("indexer: finalize: %w", err)
	}

	ix.mu.Lock()
	for _, root := range roots {
		ix.indexedRoots[root] = struct{}{}
	}
	totalTime := time.Since(start)
	finalSpeed := float64(processed) / max(totalTime.Seconds(), 0.001)
	ix.lastSpeed = finalSpeed
	ix.mu.Unlock()

	ix.progress.send(Progress{
		CurrentPath:    fmt.Sprintf("Complete: indexed %d files in %.1fs", processed, totalTime.Seconds()),
		ProcessedFiles: processed,
		TotalFiles:     total,
		Speed:          finalSpeed,
		Running:        false,
		Phase:          PhaseComplete,
	})
	ix.logger.Info("indexer: run complete",
		slog.Int64("files", processed),
		slog.Duration("took", totalTime),
		slog.Float64("files_per_sec", finalSpeed))
	return nil
}

// processBatch extracts metadata for a batch in parallel, then upserts each
// record individually. A single record's failure is logged and skipped;
// batch contents carry no per-file ordering guarantee.
func (ix *Indexer) processBatch(ctx context.Context, batch []discover.Candidate) int {
	records := make([]*store.FileRecord, len(batch))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(ix.opts.Workers)
	for i, cand := range batch {
		g.Go(func() error {
			if gCtx.Err() != nil {
				return nil
			}
			rec := ix.buildRecord(cand)
			records[i] = &rec
			return nil
		})
	}
	_ = g.Wait()

	var written int
	for _, rec := range records {
		if rec == nil {
			continue
		}
		id, err := ix.db.Upsert(*rec)
		if err != nil {
			ix.logger.Warn("indexer: upsert failed", slog.String("path", rec.Path), slog.String("error", err.Error()))
			continue
		}
		rec.ID = id
		if err := ix.ft.AddOrReplace(documentFor(*rec, "")); err != nil {
			ix.logger.Warn("indexer: fulltext add failed", slog.String("path", rec.Path), slog.String("error", err.Error()))
		}
		written++
	}
	return written
}

// buildRecord extracts per-file metadata. A failed fingerprint leaves the
// checksum empty, which status reporting counts as a soft failure.
func (ix *Indexer) buildRecord(cand discover.Candidate) store.FileRecord {
	info := cand.Info
	name := filepath.Base(cand.Path)
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(cand.Path)), ".")

	mimeType := mime.TypeByExtension(filepath.Ext(cand.Path))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	checksum, err := fingerprint.File(cand.Path, info)
	if err != nil {
		ix.logger.Warn("indexer: fingerprint failed", slog.String("path", cand.Path), slog.String("error", err.Error()))
		checksum = ""
	}

	return store.FileRecord{
		ID:          uuid.NewString(),
		Path:        cand.Path,
		Name:        name,
		Size:        info.Size(),
		Modified:    info.ModTime(),
		Created:     info.ModTime(), // creation time is not portably available
		FileType:    ext,
		MimeType:    mimeType,
		Permissions: fmt.Sprintf("%04o", info.Mode().Perm()),
		Checksum:    checksum,
		IndexedAt:   time.Now(),
	}
}

// extractContent feeds extracted text for supported pending files into the
// full-text index and flips their content_extracted flag.
func (ix *Indexer) extractContent(ctx context.Context) {
	pending, err := ix.db.PendingContent(0)
	if err != nil {
		ix.logger.Warn("indexer: pending content query failed", slog.String("error", err.Error()))
		return
	}
	for _, rec := range pending {
		if ctx.Err() != nil {
			return
		}
		if !extract.Supported(rec.Path, rec.MimeType) {
			continue
		}
		text, err := extract.Text(rec.Path, rec.MimeType)
		if err != nil {
			ix.logger.Debug("indexer: content extraction skipped", slog.String("path", rec.Path), slog.String("error", err.Error()))
			continue
		}
		if err := ix.ft.AddOrReplace(documentFor(rec, text)); err != nil {
			ix.logger.Warn("indexer: fulltext content add failed", slog.String("path", rec.Path), slog.String("error", err.Error()))
			continue
		}
		if err := ix.db.MarkContentExtracted(rec.ID); err != nil {
			ix.logger.Warn("indexer: mark extracted failed", slog.String("path", rec.Path), slog.String("error", err.Error()))
		}
	}
}

func documentFor(rec store.FileRecord, content string) fulltext.Document {
	return fulltext.Document{
		ID:       rec.ID,
		Path:     rec.Path,
		Name:     rec.Name,
		Content:  content,
		FileType: rec.FileType,
		Size:     rec.Size,
		Modified: rec.Modified,
	}
}
