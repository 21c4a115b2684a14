package search

import "context"

// cloudSource queries every authenticated cloud provider. Provider
// failures are contained inside the manager; this source only converts
// whatever came back.
func (e *Engine) cloudSource(ctx context.Context, q Query) []Result {
	if e.cloud == nil {
		return nil
	}
	files := e.cloud.SearchAll(ctx, q.Text)
	results := make([]Result, 0, len(files))
	for _, f := range files {
		if !q.matchesFilters(f.Size, f.Modified, extOf(f.Name)) {
			continue
		}
		results = append(results, Result{
			Path:           f.Path,
			Name:           f.Name,
			Size:           f.Size,
			Modified:       f.Modified,
			FileType:       extOf(f.Name),
			MimeType:       f.MimeType,
			RelevanceScore: filenameScore(q.Text, f.Name, f.Modified, q.FuzzyThreshold),
			IsDirectory:    f.IsFolder,
			IconHint:       "cloud",
		})
	}
	return results
}
