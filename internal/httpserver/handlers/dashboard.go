package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/marks/internal/domain"
	"github.com/MrSnakeDoc/marks/internal/httpserver/deps"
	"github.com/MrSnakeDoc/marks/internal/httpserver/views"
)

// Dashboard renders the single page: the sign-in card when signed out,
// the bookmark manager otherwise.
func Dashboard(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, release := syncedPage(d, r)
		defer release()
		renderPage(w, d, p, queryState(r), views.EmptyForm())
	}
}

// AddBookmark handles the add form. Empty fields re-render the page with the
// typed values kept and nothing sent to the backend; anything else redirects
// back to a cleared form.
func AddBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		st := formState(r)
		p, release := syncedPage(d, r)
		defer release()

		form := views.Form{
			Title:    r.PostFormValue("title"),
			URL:      r.PostFormValue("url"),
			Category: domain.DefaultCategory,
		}
		category, err := domain.ParseCategory(r.PostFormValue("category"))
		if err == nil {
			form.Category = category
			err = p.Add(r.Context(), domain.Draft{Title: form.Title, URL: form.URL, Category: category})
		}
		if errors.Is(err, domain.ErrValidation) {
			renderPage(w, d, p, st, form)
			return
		}

		http.Redirect(w, r, st.url(), http.StatusSeeOther)
	}
}

// DeleteBookmark deletes one bookmark and returns to the list.
func DeleteBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		p, release := syncedPage(d, r)
		defer release()
		p.Delete(r.Context(), domain.ID(chi.URLParam(r, "id")))

		http.Redirect(w, r, formState(r).url(), http.StatusSeeOther)
	}
}
