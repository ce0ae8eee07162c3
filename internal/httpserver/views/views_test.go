package views

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/MrSnakeDoc/marks/internal/domain"
)

func render(t *testing.T, p Page) string {
	t.Helper()
	var buf bytes.Buffer
	if err := Render(&buf, p); err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	return buf.String()
}

func TestRenderSignedOut(t *testing.T) {
	out := render(t, Page{Form: EmptyForm()})

	if !strings.Contains(out, `href="/auth/login"`) {
		t.Error("signed-out page lacks the sign-in action")
	}
	for _, forbidden := range []string{`action="/bookmarks"`, `name="q"`, "/auth/logout"} {
		if strings.Contains(out, forbidden) {
			t.Errorf("signed-out page exposes %q", forbidden)
		}
	}
}

func TestRenderDashboard(t *testing.T) {
	p := Page{
		SignedIn: true,
		Email:    "ada@example.com",
		Theme:    domain.Dark,
		Query:    "go",
		Filter:   domain.CategoryFilter(domain.CategoryWork),
		Bookmarks: []domain.Bookmark{{
			ID: "42", Title: "Go <Docs>", URL: "https://go.dev/doc",
			Category: domain.CategoryWork, CreatedAt: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		}},
		Total: 3,
		Form:  Form{Title: "draft", URL: "", Category: domain.CategoryStudy},
	}
	out := render(t, p)

	checks := []string{
		"ada@example.com",
		`class="dark"`,
		`href="https://go.dev/doc" target="_blank" rel="noopener noreferrer"`,
		"Go &lt;Docs&gt;",
		"go.dev",
		`action="/bookmarks/42/delete"`,
		`value="draft"`,
		`<option value="Study" selected>`,
		`<option value="Work" selected>`,
		"Mar 1, 2025",
		`href="/?category=Work&amp;q=go"`, // toggle back to light keeps search state
	}
	for _, want := range checks {
		if !strings.Contains(out, want) {
			t.Errorf("dashboard missing %q", want)
		}
	}
}

func TestRenderEmptyStates(t *testing.T) {
	tests := []struct {
		name string
		page Page
		want string
	}{
		{"no bookmarks", Page{SignedIn: true, Form: EmptyForm()}, "No bookmarks yet"},
		{"no matches", Page{SignedIn: true, Total: 2, Form: EmptyForm()}, "No bookmarks match"},
		{"loading", Page{SignedIn: true, Loading: true, Form: EmptyForm()}, "Loading"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if out := render(t, tt.page); !strings.Contains(out, tt.want) {
				t.Errorf("render missing %q", tt.want)
			}
		})
	}
}

func TestUnsafeURLIsNeutralised(t *testing.T) {
	out := render(t, Page{
		SignedIn:  true,
		Form:      EmptyForm(),
		Bookmarks: []domain.Bookmark{{ID: "1", Title: "x", URL: "javascript:alert(1)", Category: domain.CategoryGeneral}},
		Total:     1,
	})
	if strings.Contains(out, `href="javascript:`) {
		t.Error("javascript: URL rendered as a live link")
	}
}

func TestStateURL(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		filter domain.CategoryFilter
		theme  domain.Theme
		want   string
	}{
		{"bare", "", domain.All, domain.Light, "/"},
		{"dark only", "", domain.All, domain.Dark, "/?theme=dark"},
		{"everything", "a b", domain.CategoryFilter(domain.CategoryStudy), domain.Dark, "/?category=Study&q=a+b&theme=dark"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StateURL("/", tt.query, tt.filter, tt.theme); got != tt.want {
				t.Errorf("StateURL() = %q, want %q", got, tt.want)
			}
		})
	}
}
