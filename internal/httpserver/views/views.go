package views

import (
	"embed"
	"html/template"
	"io"
	"net/url"
	"time"

	"github.com/MrSnakeDoc/marks/internal/domain"
)

//go:embed templates/*.html
var files embed.FS

var page = template.Must(
	template.New("page.html").Funcs(template.FuncMap{
		"host": hostOf,
		"date": func(t time.Time) string { return t.Format("Jan 2, 2006") },
	}).ParseFS(files, "templates/*.html"),
)

// Form holds the add-bookmark fields as typed by the user.
type Form struct {
	Title    string
	URL      string
	Category domain.Category
}

// EmptyForm is the add form after a successful add.
func EmptyForm() Form {
	return Form{Category: domain.DefaultCategory}
}

// Page is everything the dashboard template renders.
type Page struct {
	Theme    domain.Theme
	SignedIn bool
	Loading  bool
	Email    string

	Query  string
	Filter domain.CategoryFilter

	Bookmarks []domain.Bookmark // already filtered
	Total     int               // size of the unfiltered list

	Form Form
}

// Categories lists the selectable categories of the add form.
func (p Page) Categories() []domain.Category {
	return domain.Categories()
}

// Filters lists the choices of the category filter, All first.
func (p Page) Filters() []domain.CategoryFilter {
	out := []domain.CategoryFilter{domain.All}
	for _, c := range domain.Categories() {
		out = append(out, domain.CategoryFilter(c))
	}
	return out
}

// ToggleThemeURL reloads the page with the other theme, keeping search state.
func (p Page) ToggleThemeURL() string {
	return StateURL("/", p.Query, p.Filter, p.Theme.Toggle())
}

// StateURL builds path with the view state that lives in the query string.
func StateURL(path, query string, filter domain.CategoryFilter, theme domain.Theme) string {
	v := url.Values{}
	if query != "" {
		v.Set("q", query)
	}
	if filter != "" && filter != domain.All {
		v.Set("category", string(filter))
	}
	if theme == domain.Dark {
		v.Set("theme", theme.String())
	}
	if len(v) == 0 {
		return path
	}
	return path + "?" + v.Encode()
}

// Render writes the dashboard.
func Render(w io.Writer, p Page) error {
	return page.Execute(w, p)
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	return u.Host
}
