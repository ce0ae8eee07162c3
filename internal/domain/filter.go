package domain

import "strings"

// Filter returns the bookmarks whose title contains query (case-insensitive)
// and whose category passes the filter. The source order is kept and the
// input slice is never modified.
func Filter(list []Bookmark, query string, filter CategoryFilter) []Bookmark {
	needle := strings.ToLower(query)
	out := make([]Bookmark, 0, len(list))
	for _, bm := range list {
		if !strings.Contains(strings.ToLower(bm.Title), needle) {
			continue
		}
		if !filter.Matches(bm.Category) {
			continue
		}
		out = append(out, bm)
	}
	return out
}
