package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/MrSnakeDoc/marks/internal/dashboard"
	"github.com/MrSnakeDoc/marks/internal/domain"
	"github.com/MrSnakeDoc/marks/internal/httpserver/deps"
	"github.com/MrSnakeDoc/marks/internal/httpserver/mw"
	"github.com/MrSnakeDoc/marks/internal/httpserver/views"
	"github.com/MrSnakeDoc/marks/internal/logger"
)

// syncedPage returns the caller's dashboard with any pending load applied,
// so what is rendered reflects the latest auth transition. A browser on its
// first request gets a page that is not indexed; release closes it.
func syncedPage(d deps.Deps, r *http.Request) (*dashboard.Page, func()) {
	ctx := r.Context()
	sid := mw.SessionID(ctx)

	if mw.IsNewSession(ctx) {
		p := d.NewPage(sid)
		p.Init(ctx)
		return p, p.Close
	}

	p := d.Pages.Acquire(ctx, sid, d.NewPage)
	p.Sync(ctx)
	return p, func() {}
}

// viewState is the part of the UI that travels in the URL.
type viewState struct {
	query  string
	filter domain.CategoryFilter
	theme  domain.Theme
}

func queryState(r *http.Request) viewState {
	q := r.URL.Query()
	return viewState{
		query:  q.Get("q"),
		filter: domain.ParseCategoryFilter(q.Get("category")),
		theme:  domain.ParseTheme(q.Get("theme")),
	}
}

// formState reads the view state posted back by the page's forms.
func formState(r *http.Request) viewState {
	return viewState{
		query:  r.PostFormValue("q"),
		filter: domain.ParseCategoryFilter(r.PostFormValue("filter")),
		theme:  domain.ParseTheme(r.PostFormValue("theme")),
	}
}

func (s viewState) url() string {
	return views.StateURL("/", s.query, s.filter, s.theme)
}

func renderPage(w http.ResponseWriter, d deps.Deps, p *dashboard.Page, st viewState, form views.Form) {
	snap := p.Snapshot()
	v := views.Page{
		Theme:    st.theme,
		SignedIn: snap.User != nil,
		Loading:  snap.State == dashboard.Loading,
		Query:    st.query,
		Filter:   st.filter,
		Form:     form,
	}
	if snap.User != nil {
		v.Email = snap.User.Email
		v.Bookmarks = p.View(st.query, st.filter)
		v.Total = len(snap.Bookmarks)
	}

	var buf bytes.Buffer
	if err := views.Render(&buf, v); err != nil {
		d.Logger.Error("failed to render dashboard", logger.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		d.Logger.Debug("failed to write response", logger.Error(err))
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
