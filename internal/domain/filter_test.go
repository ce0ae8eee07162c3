package domain

import (
	"math/rand"
	"reflect"
	"strings"
	"testing"
	"time"
)

func sampleBookmarks() []Bookmark {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return []Bookmark{
		{ID: "5", Title: "Google Docs", URL: "https://docs.google.com", Category: CategoryWork, UserID: "u1", CreatedAt: base.Add(5 * time.Minute)},
		{ID: "4", Title: "go.dev", URL: "https://go.dev", Category: CategoryLearning, UserID: "u1", CreatedAt: base.Add(4 * time.Minute)},
		{ID: "3", Title: "GOOGLE Maps", URL: "https://maps.google.com", Category: CategoryPersonal, UserID: "u1", CreatedAt: base.Add(3 * time.Minute)},
		{ID: "2", Title: "Calendar", URL: "https://calendar.example.com", Category: CategoryWork, UserID: "u1", CreatedAt: base.Add(2 * time.Minute)},
		{ID: "1", Title: "Lecture notes", URL: "https://uni.example.com", Category: CategoryStudy, UserID: "u1", CreatedAt: base.Add(time.Minute)},
	}
}

func ids(list []Bookmark) []ID {
	out := make([]ID, 0, len(list))
	for _, bm := range list {
		out = append(out, bm.ID)
	}
	return out
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		filter CategoryFilter
		want   []ID
	}{
		{name: "no restriction", query: "", filter: All, want: []ID{"5", "4", "3", "2", "1"}},
		{name: "substring", query: "goo", filter: All, want: []ID{"5", "3"}},
		{name: "upper case query", query: "GOOGLE", filter: All, want: []ID{"5", "3"}},
		{name: "lower case query", query: "google", filter: All, want: []ID{"5", "3"}},
		{name: "category only", query: "", filter: CategoryFilter(CategoryWork), want: []ID{"5", "2"}},
		{name: "both predicates", query: "google", filter: CategoryFilter(CategoryWork), want: []ID{"5"}},
		{name: "no match", query: "zzz", filter: All, want: []ID{}},
		{name: "category without rows", query: "", filter: CategoryFilter(CategoryImportant), want: []ID{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Filter(sampleBookmarks(), tt.query, tt.filter))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Filter(%q, %q) = %v, want %v", tt.query, tt.filter, got, tt.want)
			}
		})
	}
}

func TestFilterDoesNotModifyInput(t *testing.T) {
	list := sampleBookmarks()
	before := ids(list)
	_ = Filter(list, "cal", CategoryFilter(CategoryWork))
	if !reflect.DeepEqual(ids(list), before) {
		t.Errorf("Filter() modified its input: %v, want %v", ids(list), before)
	}
}

// randomBookmarks builds a deterministic pseudo-random list.
func randomBookmarks(r *rand.Rand, n int) []Bookmark {
	titles := []string{"Docs", "docs", "Go", "gopher", "News", "MAIL", "mail box", "Notes"}
	cats := Categories()
	list := make([]Bookmark, 0, n)
	for i := 0; i < n; i++ {
		list = append(list, Bookmark{
			ID:       ID(string(rune('a' + i))),
			Title:    titles[r.Intn(len(titles))],
			URL:      "https://example.com",
			Category: cats[r.Intn(len(cats))],
			UserID:   "u1",
		})
	}
	return list
}

func TestFilterProperties(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	queries := []string{"", "o", "DO", "mail", "x", "go"}
	filters := []CategoryFilter{All}
	for _, c := range Categories() {
		filters = append(filters, CategoryFilter(c))
	}

	for round := 0; round < 50; round++ {
		list := randomBookmarks(r, r.Intn(20))
		for _, q := range queries {
			for _, f := range filters {
				both := Filter(list, q, f)

				// text then category equals category then text
				textFirst := Filter(Filter(list, q, All), "", f)
				catFirst := Filter(Filter(list, "", f), q, All)
				if !reflect.DeepEqual(ids(textFirst), ids(catFirst)) || !reflect.DeepEqual(ids(both), ids(textFirst)) {
					t.Fatalf("predicates do not commute for q=%q f=%q: %v vs %v", q, f, ids(textFirst), ids(catFirst))
				}

				// idempotent
				again := Filter(both, q, f)
				if !reflect.DeepEqual(ids(again), ids(both)) {
					t.Fatalf("Filter() not idempotent for q=%q f=%q", q, f)
				}

				// ordered subsequence of the source
				j := 0
				for _, bm := range both {
					for j < len(list) && list[j].ID != bm.ID {
						j++
					}
					if j == len(list) {
						t.Fatalf("result %v is not a subsequence of %v", ids(both), ids(list))
					}
					j++
				}
			}

			// All is a no-op with respect to category
			textOnly := 0
			for _, bm := range list {
				if containsFold(bm.Title, q) {
					textOnly++
				}
			}
			if got := len(Filter(list, q, All)); got != textOnly {
				t.Fatalf("All filter removed rows: got %d, want %d", got, textOnly)
			}
		}
	}
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func TestParseCategoryFilter(t *testing.T) {
	tests := []struct {
		in   string
		want CategoryFilter
	}{
		{"", All},
		{"All", All},
		{"Work", CategoryFilter(CategoryWork)},
		{"work", All},
		{"Unknown", All},
	}
	for _, tt := range tests {
		if got := ParseCategoryFilter(tt.in); got != tt.want {
			t.Errorf("ParseCategoryFilter(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
