package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/marks/internal/dashboard"
	"github.com/MrSnakeDoc/marks/internal/domain"
	"github.com/MrSnakeDoc/marks/internal/httpserver/deps"
)

const maxBodyBytes = 64 << 10

type sessionResponse struct {
	State string       `json:"state"`
	User  *domain.User `json:"user"`
}

type bookmarksResponse struct {
	Bookmarks []domain.Bookmark `json:"bookmarks"`
	Total     int               `json:"total"`
}

type draftRequest struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	Category string `json:"category"`
}

// Session reports who the browser is signed in as.
func Session(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, release := syncedPage(d, r)
		defer release()
		snap := p.Snapshot()
		writeJSON(w, http.StatusOK, sessionResponse{State: snap.State.String(), User: snap.User})
	}
}

// signedIn returns the synced page, or answers 401.
func signedIn(d deps.Deps, w http.ResponseWriter, r *http.Request) (*dashboard.Page, func(), bool) {
	p, release := syncedPage(d, r)
	if p.User() == nil {
		release()
		writeError(w, http.StatusUnauthorized, "not signed in")
		return nil, nil, false
	}
	return p, release, true
}

func listResponse(p *dashboard.Page, query string, filter domain.CategoryFilter) bookmarksResponse {
	return bookmarksResponse{
		Bookmarks: p.View(query, filter),
		Total:     len(p.Snapshot().Bookmarks),
	}
}

// ListBookmarks returns the filtered list; q and category work as on the page.
func ListBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, release, ok := signedIn(d, w, r)
		if !ok {
			return
		}
		defer release()
		st := queryState(r)
		writeJSON(w, http.StatusOK, listResponse(p, st.query, st.filter))
	}
}

// CreateBookmark adds a bookmark and answers with the reloaded list.
func CreateBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, release, ok := signedIn(d, w, r)
		if !ok {
			return
		}
		defer release()

		var req draftRequest
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		category, err := domain.ParseCategory(req.Category)
		if err == nil {
			err = p.Add(r.Context(), domain.Draft{Title: req.Title, URL: req.URL, Category: category})
		}
		if errors.Is(err, domain.ErrValidation) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}

		writeJSON(w, http.StatusCreated, listResponse(p, "", domain.All))
	}
}

// DeleteBookmarkAPI deletes a bookmark and answers with the reloaded list.
func DeleteBookmarkAPI(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, release, ok := signedIn(d, w, r)
		if !ok {
			return
		}
		defer release()
		p.Delete(r.Context(), domain.ID(chi.URLParam(r, "id")))
		writeJSON(w, http.StatusOK, listResponse(p, "", domain.All))
	}
}
