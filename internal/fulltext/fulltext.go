// Package fulltext provides the standalone bleve-backed full-text index over
// file name, path, and extracted content. Documents are a denormalized
// projection of metadata-store records, keyed by the same id; they are
// replaced whole (delete + add), never mutated in place.
package fulltext

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	bleve "github.com/blevesearch/bleve/v2"
	_ "github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	_ "github.com/blevesearch/bleve/v2/analysis/token/edgengram"
	_ "github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	_ "github.com/blevesearch/bleve/v2/analysis/token/ngram"
	_ "github.com/blevesearch/bleve/v2/analysis/tokenizer/single"
	"github.com/blevesearch/bleve/v2/mapping"
	query "github.com/blevesearch/bleve/v2/search/query"
)

// Document is the full-text projection of a file record. NameSub and
// NamePrefix repeat the name so the ngram and edge-ngram analyzers can
// index it differently for substring and prefix matching.
type Document struct {
	ID         string    `json:"id"`
	Path       string    `json:"path"`
	Name       string    `json:"name"`
	NameSub    string    `json:"name_sub"`
	NamePrefix string    `json:"name_prefix"`
	Content    string    `json:"content,omitempty"`
	FileType   string    `json:"file_type"`
	Size       int64     `json:"size"`
	Modified   time.Time `json:"modified"`
}

// Hit is one ranked identifier from a search.
type Hit struct {
	ID    string
	Score float64
}

// Index wraps a bleve index with a pending write batch. Writes accumulate
// in the batch and become queryable only after Commit; single-document
// writes outside a bulk run should call Commit immediately.
type Index struct {
	mu    sync.Mutex
	idx   bleve.Index
	batch *bleve.Batch
	dir   string
}

// Open opens (or creates) the index directory.
func Open(dir string) (*Index, error) {
	idx, err := bleve.Open(dir)
	if err == bleve.ErrorIndexPathDoesNotExist {
		idx, err = bleve.NewUsing(dir, buildIndexMapping(), "scorch", "scorch", nil)
	}
	if err != nil {
		return nil, fmt.Errorf("fulltext: open %s: %w", dir, err)
	}
	ft := &Index{idx: idx, dir: dir}
	ft.batch = idx.NewBatch()
	return ft, nil
}

func buildIndexMapping() mapping.IndexMapping {
	m := bleve.NewIndexMapping()

	mustAdd := func(err error) {
		if err != nil {
			panic(err)
		}
	}
	mustAdd(m.AddCustomTokenFilter("ngram_2_15", map[string]interface{}{
		"type": "ngram",
		"min":  float64(2),
		"max":  float64(15),
	}))
	mustAdd(m.AddCustomTokenFilter("edge_ngram_2_30", map[string]interface{}{
		"type": "edge_ngram",
		"min":  float64(2),
		"max":  float64(30),
	}))
	mustAdd(m.AddCustomAnalyzer("keyword_lc", map[string]interface{}{
		"type":          "custom",
		"tokenizer":     "single",
		"token_filters": []string{"to_lower"},
	}))
	mustAdd(m.AddCustomAnalyzer("filename_ngram", map[string]interface{}{
		"type":          "custom",
		"tokenizer":     "single",
		"token_filters": []string{"to_lower", "ngram_2_15"},
	}))
	mustAdd(m.AddCustomAnalyzer("filename_edge", map[string]interface{}{
		"type":          "custom",
		"tokenizer":     "single",
		"token_filters": []string{"to_lower", "edge_ngram_2_30"},
	}))

	doc := bleve.NewDocumentMapping()

	idField := bleve.NewTextFieldMapping()
	idField.Analyzer = "keyword"
	idField.Store = true
	idField.IncludeInAll = false
	doc.AddFieldMappingsAt("id", idField)

	pathField := bleve.NewTextFieldMapping()
	pathField.Analyzer = "keyword_lc"
	pathField.Store = true
	doc.AddFieldMappingsAt("path", pathField)

	nameField := bleve.NewTextFieldMapping()
	nameField.Analyzer = "keyword"
	nameField.Store = true
	doc.AddFieldMappingsAt("name", nameField)

	nameSubField := bleve.NewTextFieldMapping()
	nameSubField.Analyzer = "filename_ngram"
	nameSubField.Store = false
	doc.AddFieldMappingsAt("name_sub", nameSubField)

	namePrefixField := bleve.NewTextFieldMapping()
	namePrefixField.Analyzer = "filename_edge"
	namePrefixField.Store = false
	doc.AddFieldMappingsAt("name_prefix", namePrefixField)

	contentField := bleve.NewTextFieldMapping()
	contentField.Store = false
	contentField.IncludeTermVectors = false
	doc.AddFieldMappingsAt("content", contentField)

	typeField := bleve.NewTextFieldMapping()
	typeField.Analyzer = "keyword_lc"
	typeField.Store = true
	doc.AddFieldMappingsAt("file_type", typeField)

	sizeField := bleve.NewNumericFieldMapping()
	sizeField.Store = true
	doc.AddFieldMappingsAt("size", sizeField)

	modifiedField := bleve.NewDateTimeFieldMapping()
	modifiedField.Store = true
	doc.AddFieldMappingsAt("modified", modifiedField)

	m.DefaultMapping = doc
	return m
}

// AddOrReplace stages a document in the pending batch, replacing any
// previous version under the same id. Not queryable until Commit.
func (ft *Index) AddOrReplace(d Document) error {
	d.NameSub = d.Name
	d.NamePrefix = d.Name

	ft.mu.Lock()
	defer ft.mu.Unlock()
	ft.batch.Delete(d.ID)
	if err := ft.batch.Index(d.ID, d); err != nil {
		return fmt.Errorf("fulltext: index %s: %w", d.Path, err)
	}
	return nil
}

// DeleteByID stages removal of a document. Not visible until Commit.
func (ft *Index) DeleteByID(id string) {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	ft.batch.Delete(id)
}

// Commit flushes the pending batch, making staged writes queryable.
func (ft *Index) Commit() error {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	if ft.batch.Size() == 0 {
		return nil
	}
	if err := ft.idx.Batch(ft.batch); err != nil {
		return fmt.Errorf("fulltext: commit batch: %w", err)
	}
	ft.batch.Reset()
	return nil
}

// Search parses text against the name/path/content fields and returns
// identifiers ranked by bleve's relevance score. Ties follow insertion
// order, which is not guaranteed stable across rebuilds.
func (ft *Index) Search(text string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 20
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	prefixQuery := bleve.NewPrefixQuery(strings.ToLower(text))
	prefixQuery.SetField("name_prefix")
	prefixQuery.SetBoost(20.0)

	subQuery := bleve.NewMatchQuery(text)
	subQuery.SetField("name_sub")
	subQuery.SetBoost(10.0)

	pathQuery := bleve.NewMatchQuery(strings.ToLower(text))
	pathQuery.SetField("path")
	pathQuery.SetBoost(2.0)

	contentQuery := bleve.NewMatchQuery(text)
	contentQuery.SetField("content")
	contentQuery.SetBoost(1.0)

	var q query.Query = bleve.NewDisjunctionQuery(prefixQuery, subQuery, pathQuery, contentQuery)

	req := bleve.NewSearchRequest(q)
	req.Size = limit
	req.SortBy([]string{"-_score"})

	res, err := ft.idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("fulltext: search %q: %w", text, err)
	}
	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hits = append(hits, Hit{ID: h.ID, Score: h.Score})
	}
	return hits, nil
}

// DocCount returns the number of committed documents.
func (ft *Index) DocCount() (uint64, error) {
	return ft.idx.DocCount()
}

// SizeOnDisk walks the index directory and sums file sizes.
func (ft *Index) SizeOnDisk() int64 {
	var total int64
	_ = filepath.WalkDir(ft.dir, func(_ string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, infoErr := d.Info(); infoErr == nil {
			total += info.Size()
		}
		return nil
	})
	return total
}

// Close flushes pending writes and closes the index.
func (ft *Index) Close() error {
	if err := ft.Commit(); err != nil {
		return err
	}
	return ft.idx.Close()
}
