package search

import "sort"

// fuse merges all sources' outputs: sort by path and drop exact-path
// duplicates keeping one arbitrary survivor, then sort by relevance
// descending and truncate to limit.
func fuse(results []Result, limit int) []Result {
	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })

	deduped := results[:0]
	var lastPath string
	for i, r := range results {
		if i > 0 && r.Path == lastPath {
			continue
		}
		deduped = append(deduped, r)
		lastPath = r.Path
	}

	sort.SliceStable(deduped, func(i, j int) bool {
		return deduped[i].RelevanceScore > deduped[j].RelevanceScore
	})

	if len(deduped) > limit {
		deduped = deduped[:limit]
	}
	return deduped
}
