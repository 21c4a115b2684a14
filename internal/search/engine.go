package search

import (
	"context"
	"log/slog"
	"time"

	"github.com/wlfogle/OmnioSearch/internal/cloud"
	"github.com/wlfogle/OmnioSearch/internal/fulltext"
	"github.com/wlfogle/OmnioSearch/internal/store"
)

const defaultToolTimeout = 30 * time.Second

// Interpreter turns free text into a structured query. Failure is
// recoverable; the engine falls back to a trivial text-only query.
type Interpreter interface {
	Interpret(text string) (Query, error)
}

// Options tunes an Engine.
type Options struct {
	Roots       []string      // roots for the live scan and grep sources
	ToolTimeout time.Duration // per-subprocess hard deadline
}

// Engine evaluates queries against all result sources and fuses their
// outputs. The cloud manager and interpreter are optional; a nil value
// disables that capability.
type Engine struct {
	db     store.FileStore
	ft     *fulltext.Index
	cloud  *cloud.Manager
	interp Interpreter
	logger *slog.Logger
	opts   Options
}

// NewEngine creates an Engine.
func NewEngine(db store.FileStore, ft *fulltext.Index, cm *cloud.Manager, interp Interpreter, logger *slog.Logger, opts Options) *Engine {
	if opts.ToolTimeout <= 0 {
		opts.ToolTimeout = defaultToolTimeout
	}
	return &Engine{db: db, ft: ft, cloud: cm, interp: interp, logger: logger, opts: opts}
}

// Search interprets free text into a structured query and evaluates it. An
// interpreter failure falls back to a plain text query.
func (e *Engine) Search(ctx context.Context, text string) ([]Result, error) {
	q := FromText(text)
	if e.interp != nil {
		interpreted, err := e.interp.Interpret(text)
		if err != nil {
			e.logger.Debug("search: interpret failed, using plain query", slog.String("error", err.Error()))
		} else {
			q = interpreted
		}
	}
	return e.SearchWithQuery(ctx, q)
}

// SearchWithQuery evaluates a structured query. The live scan and content
// grep sources run only while the accumulated count is still below the
// result cap; indexed and cloud sources always run.
func (e *Engine) SearchWithQuery(ctx context.Context, q Query) ([]Result, error) {
	if q.MaxResults <= 0 {
		q.MaxResults = defaultMaxResults
	}
	start := time.Now()

	results := e.indexSource(ctx, q)

	if len(results) < q.MaxResults {
		results = append(results, e.fdSource(ctx, q)...)
	}
	if q.SearchContent && len(results) < q.MaxResults {
		results = append(results, e.rgSource(ctx, q)...)
	}
	results = append(results, e.cloudSource(ctx, q)...)

	fused := fuse(results, q.MaxResults)
	e.logger.Debug("search: done",
		slog.String("text", q.Text),
		slog.Int("results", len(fused)),
		slog.Duration("took", time.Since(start)))
	return fused, nil
}
